package studycontext

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/plannerbackend/internal/logging"
	"github.com/plannerbackend/internal/models"
	"github.com/plannerbackend/internal/timezone"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ContextUnavailable replaces the assembled context when any read fails.
// Context loss degrades the answer; it must never abort the request.
const ContextUnavailable = "(context unavailable)"

// Selector assembles the minimal relevant academic context for a message.
type Selector struct {
	store Store
}

func NewSelector(store Store) *Selector {
	return &Selector{store: store}
}

// Result carries the assembled context together with the caller-local frame
// the rest of the pipeline needs, so the profile is only read once.
type Result struct {
	Context       string
	Location      *time.Location
	ReferenceDate time.Time
}

// Gather classifies the message, fetches only the matching categories of
// academic data for the caller and formats them into sections. now anchors
// "today"/"tomorrow" and the 7-day lookahead in the caller's timezone; a
// zero now disables date-relative sections.
func (s *Selector) Gather(ctx context.Context, userID, message string, now time.Time) Result {
	text, loc, ref, err := s.gather(ctx, userID, message, now)
	if err != nil {
		logging.L().Warn("context gathering failed, degrading to placeholder",
			zap.String("user_id", userID),
			zap.Error(err))

		if loc == nil {
			loc = timezone.Load("")
		}
		if ref.IsZero() && !now.IsZero() {
			ref = localDate(now, loc)
		}
		return Result{Context: ContextUnavailable, Location: loc, ReferenceDate: ref}
	}

	return Result{Context: text, Location: loc, ReferenceDate: ref}
}

func (s *Selector) gather(ctx context.Context, userID, message string, now time.Time) (string, *time.Location, time.Time, error) {
	profile, err := s.store.Profile(ctx, userID)
	if err != nil {
		return "", nil, time.Time{}, err
	}

	loc := timezone.Load(profile.Timezone)
	var ref time.Time
	if !now.IsZero() {
		ref = localDate(now, loc)
	}

	name := profile.DisplayName
	if name == "" {
		name = "Student"
	}
	sections := []string{fmt.Sprintf("Student: %s\nTimezone: %s", name, loc.String())}

	categories := Classify(message)
	if categories.None() {
		categories = AllCategories()
	}

	semester, err := s.store.ActiveSemester(ctx, userID)
	if err != nil {
		return "", loc, ref, err
	}
	if semester == nil {
		return strings.Join(sections, "\n\n"), loc, ref, nil
	}

	var (
		courses     []models.Course
		blocks      []models.ScheduleEntry
		events      []models.CalendarEvent
		assignments []models.Assignment
	)

	// The course list renders whenever a semester resolves, so courses are
	// always fetched; the remaining reads are independent of each other and
	// gated by the matched categories.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		courses, err = s.store.Courses(gctx, semester.ID)
		return err
	})
	if categories.Schedule {
		g.Go(func() error {
			var err error
			blocks, err = s.store.ScheduleBlocks(gctx, userID, semester.ID)
			return err
		})
	}
	if categories.Events && !ref.IsZero() {
		g.Go(func() error {
			var err error
			events, err = s.store.EventsBetween(gctx, userID, ref, ref.AddDate(0, 0, 7))
			return err
		})
	}
	if categories.Assignments && !ref.IsZero() {
		g.Go(func() error {
			var err error
			assignments, err = s.store.OpenAssignmentsBetween(gctx, userID, ref, ref.AddDate(0, 0, 7))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return "", loc, ref, err
	}

	if section := formatCourses(semester, courses); section != "" {
		sections = append(sections, section)
	}

	if categories.Schedule || categories.Courses {
		entries := courseScheduleEntries(courses)
		if section := formatWeekly(entries, "Weekly Schedule", "Schedule", "No classes scheduled", message, ref); section != "" {
			sections = append(sections, section)
		}
	}

	if categories.Schedule {
		if section := formatWeekly(blocks, "Other Commitments", "Commitments", "No commitments scheduled", message, ref); section != "" {
			sections = append(sections, section)
		}
	}

	if categories.Events {
		if section := formatEvents(events, ref); section != "" {
			sections = append(sections, section)
		}
	}

	if categories.Assignments {
		if section := formatAssignments(assignments, ref); section != "" {
			sections = append(sections, section)
		}
	}

	return strings.Join(sections, "\n\n"), loc, ref, nil
}

// localDate truncates t to midnight of its calendar day in loc.
func localDate(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func formatCourses(semester *models.Semester, courses []models.Course) string {
	if len(courses) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Current Courses (%s):", semester.Name)
	for _, c := range courses {
		fmt.Fprintf(&b, "\n- %s: %s", c.Code, c.Name)
		if c.Instructor != "" {
			fmt.Fprintf(&b, " (%s)", c.Instructor)
		}
	}
	return b.String()
}

func courseScheduleEntries(courses []models.Course) []models.ScheduleEntry {
	var entries []models.ScheduleEntry
	for _, c := range courses {
		for _, e := range c.Schedule {
			title := strings.TrimSpace(c.Code + " " + e.Title)
			entries = append(entries, models.ScheduleEntry{
				Title:     title,
				Weekday:   e.Weekday,
				StartTime: e.StartTime,
				EndTime:   e.EndTime,
				Location:  e.Location,
			})
		}
	}
	return entries
}

// formatWeekly renders recurring entries either as a full weekly listing or,
// when the message says "today"/"tomorrow" and a reference date exists,
// filtered to that single weekday with an explicit empty-day line.
func formatWeekly(entries []models.ScheduleEntry, weeklyLabel, dayLabel, emptyLine, message string, ref time.Time) string {
	if len(entries) == 0 {
		return ""
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Weekday != entries[j].Weekday {
			return entries[i].Weekday < entries[j].Weekday
		}
		return entries[i].StartTime < entries[j].StartTime
	})

	filtered := !ref.IsZero() && (mentionsToday(message) || mentionsTomorrow(message))
	if !filtered {
		var b strings.Builder
		b.WriteString(weeklyLabel + ":")
		for _, e := range entries {
			fmt.Fprintf(&b, "\n- %s %s-%s %s", e.Weekday, e.StartTime, e.EndTime, e.Title)
			if e.Location != "" {
				fmt.Fprintf(&b, " (%s)", e.Location)
			}
		}
		return b.String()
	}

	target := ref
	prefix := "Today's"
	if !mentionsToday(message) {
		target = ref.AddDate(0, 0, 1)
		prefix = "Tomorrow's"
	}
	header := fmt.Sprintf("%s %s (%s)", prefix, dayLabel, target.Weekday())

	var dayEntries []models.ScheduleEntry
	for _, e := range entries {
		if e.Weekday == target.Weekday() {
			dayEntries = append(dayEntries, e)
		}
	}
	if len(dayEntries) == 0 {
		return fmt.Sprintf("%s: %s", header, emptyLine)
	}

	var b strings.Builder
	b.WriteString(header + ":")
	for _, e := range dayEntries {
		fmt.Fprintf(&b, "\n- %s-%s %s", e.StartTime, e.EndTime, e.Title)
		if e.Location != "" {
			fmt.Fprintf(&b, " (%s)", e.Location)
		}
	}
	return b.String()
}

func formatEvents(events []models.CalendarEvent, ref time.Time) string {
	if len(events) == 0 {
		return ""
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})

	var b strings.Builder
	b.WriteString("Upcoming Events (next 7 days):")
	for _, ev := range events {
		fmt.Fprintf(&b, "\n- %s: %s", ev.Date.Format("Monday, Jan 2"), ev.Title)
		if ev.Location != "" {
			fmt.Fprintf(&b, " (%s)", ev.Location)
		}
	}

	var today []models.CalendarEvent
	for _, ev := range events {
		if dateKey(ev.Date) == dateKey(ref) {
			today = append(today, ev)
		}
	}
	if len(today) > 0 {
		b.WriteString("\nToday's Events:")
		for _, ev := range today {
			fmt.Fprintf(&b, "\n- %s", ev.Title)
			if ev.Location != "" {
				fmt.Fprintf(&b, " (%s)", ev.Location)
			}
		}
	}

	return b.String()
}

func formatAssignments(assignments []models.Assignment, ref time.Time) string {
	if len(assignments) == 0 {
		return ""
	}

	sort.SliceStable(assignments, func(i, j int) bool {
		return assignments[i].DueDate.Before(assignments[j].DueDate)
	})

	var b strings.Builder
	b.WriteString("Upcoming Assignments (next 7 days):")
	for _, a := range assignments {
		b.WriteString("\n- ")
		if a.CourseCode != "" {
			fmt.Fprintf(&b, "%s: ", a.CourseCode)
		}
		fmt.Fprintf(&b, "%s (due %s)", a.Title, a.DueDate.Format("Monday, Jan 2"))
	}

	var today []models.Assignment
	for _, a := range assignments {
		if dateKey(a.DueDate) == dateKey(ref) {
			today = append(today, a)
		}
	}
	if len(today) > 0 {
		b.WriteString("\nDue Today:")
		for _, a := range today {
			fmt.Fprintf(&b, "\n- %s", a.Title)
		}
	}

	return b.String()
}
