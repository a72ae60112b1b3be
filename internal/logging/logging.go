package logging

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	once   sync.Once
	logger *zap.Logger
)

// L returns the shared logger, building it on first use. Safe for
// concurrent invocations sharing one Lambda container.
func L() *zap.Logger {
	once.Do(func() {
		config := zap.NewProductionConfig()
		if os.Getenv("LOG_LEVEL") == "debug" {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}

		var err error
		logger, err = config.Build()
		if err != nil {
			logger = zap.NewNop()
		}
	})
	return logger
}
