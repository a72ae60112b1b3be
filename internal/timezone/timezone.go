package timezone

import (
	"fmt"
	"time"

	"github.com/plannerbackend/internal/logging"
	"go.uber.org/zap"
)

// Fallback is used whenever a caller has no stored timezone or the stored
// value no longer parses as an IANA zone.
const Fallback = "America/Halifax"

// Validate reports whether name is a loadable IANA zone identifier.
func Validate(name string) error {
	if name == "" {
		return fmt.Errorf("timezone is required")
	}
	if _, err := time.LoadLocation(name); err != nil {
		return fmt.Errorf("unknown timezone %q: %v", name, err)
	}
	return nil
}

// Load resolves name to a location, falling back to Fallback for empty or
// malformed identifiers. The fallback path is logged so bad stored zones
// are visible.
func Load(name string) *time.Location {
	if name != "" {
		loc, err := time.LoadLocation(name)
		if err == nil {
			return loc
		}
		logging.L().Warn("falling back to default timezone",
			zap.String("timezone", name),
			zap.Error(err))
	}

	loc, err := time.LoadLocation(Fallback)
	if err != nil {
		// Fallback is a constant known zone; a failure here means a broken
		// tzdata install, so UTC is the only safe answer.
		logging.L().Error("failed to load fallback timezone", zap.Error(err))
		return time.UTC
	}
	return loc
}
