package studycontext

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/plannerbackend/internal/models"
)

// Store is the read-only view of a caller's academic records.
type Store interface {
	Profile(ctx context.Context, userID string) (*models.Profile, error)
	ActiveSemester(ctx context.Context, userID string) (*models.Semester, error)
	Courses(ctx context.Context, semesterID string) ([]models.Course, error)
	ScheduleBlocks(ctx context.Context, userID, semesterID string) ([]models.ScheduleEntry, error)
	EventsBetween(ctx context.Context, userID string, from, to time.Time) ([]models.CalendarEvent, error)
	OpenAssignmentsBetween(ctx context.Context, userID string, from, to time.Time) ([]models.Assignment, error)
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(database *sql.DB) *PostgresStore {
	return &PostgresStore{db: database}
}

func (s *PostgresStore) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	profile := &models.Profile{UserID: userID}
	err := s.db.QueryRowContext(ctx,
		"SELECT display_name, COALESCE(timezone, '') FROM profiles WHERE user_id = $1",
		userID,
	).Scan(&profile.DisplayName, &profile.Timezone)

	if err == sql.ErrNoRows {
		// No profile yet; callers fall back on name and timezone defaults.
		return profile, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %v", err)
	}
	return profile, nil
}

func (s *PostgresStore) ActiveSemester(ctx context.Context, userID string) (*models.Semester, error) {
	semester := &models.Semester{UserID: userID, Active: true}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name FROM semesters WHERE user_id = $1 AND is_active = TRUE LIMIT 1",
		userID,
	).Scan(&semester.ID, &semester.Name)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read active semester: %v", err)
	}
	return semester, nil
}

func (s *PostgresStore) Courses(ctx context.Context, semesterID string) ([]models.Course, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, code, name, COALESCE(instructor, '') FROM courses WHERE semester_id = $1 ORDER BY code",
		semesterID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read courses: %v", err)
	}
	defer rows.Close()

	var courses []models.Course
	index := make(map[string]int)
	for rows.Next() {
		var c models.Course
		c.SemesterID = semesterID
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Instructor); err != nil {
			return nil, fmt.Errorf("failed to scan course: %v", err)
		}
		index[c.ID] = len(courses)
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read courses: %v", err)
	}

	scheduleRows, err := s.db.QueryContext(ctx,
		`SELECT cs.course_id, COALESCE(cs.title, ''), cs.weekday, cs.start_time, cs.end_time, COALESCE(cs.location, '')
		 FROM course_schedules cs
		 JOIN courses c ON c.id = cs.course_id
		 WHERE c.semester_id = $1
		 ORDER BY cs.weekday, cs.start_time`,
		semesterID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read course schedules: %v", err)
	}
	defer scheduleRows.Close()

	for scheduleRows.Next() {
		var courseID string
		var entry models.ScheduleEntry
		var weekday int
		if err := scheduleRows.Scan(&courseID, &entry.Title, &weekday, &entry.StartTime, &entry.EndTime, &entry.Location); err != nil {
			return nil, fmt.Errorf("failed to scan course schedule: %v", err)
		}
		entry.Weekday = time.Weekday(weekday)
		if i, ok := index[courseID]; ok {
			courses[i].Schedule = append(courses[i].Schedule, entry)
		}
	}
	if err := scheduleRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read course schedules: %v", err)
	}

	return courses, nil
}

func (s *PostgresStore) ScheduleBlocks(ctx context.Context, userID, semesterID string) ([]models.ScheduleEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, weekday, start_time, end_time, COALESCE(location, '')
		 FROM schedule_blocks
		 WHERE user_id = $1 AND semester_id = $2
		 ORDER BY weekday, start_time`,
		userID, semesterID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule blocks: %v", err)
	}
	defer rows.Close()

	var blocks []models.ScheduleEntry
	for rows.Next() {
		var entry models.ScheduleEntry
		var weekday int
		if err := rows.Scan(&entry.Title, &weekday, &entry.StartTime, &entry.EndTime, &entry.Location); err != nil {
			return nil, fmt.Errorf("failed to scan schedule block: %v", err)
		}
		entry.Weekday = time.Weekday(weekday)
		blocks = append(blocks, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read schedule blocks: %v", err)
	}
	return blocks, nil
}

func (s *PostgresStore) EventsBetween(ctx context.Context, userID string, from, to time.Time) ([]models.CalendarEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, event_date, COALESCE(location, '')
		 FROM calendar_events
		 WHERE user_id = $1 AND event_date BETWEEN $2 AND $3
		 ORDER BY event_date`,
		userID, from.Format("2006-01-02"), to.Format("2006-01-02"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar events: %v", err)
	}
	defer rows.Close()

	var events []models.CalendarEvent
	for rows.Next() {
		var ev models.CalendarEvent
		ev.UserID = userID
		if err := rows.Scan(&ev.ID, &ev.Title, &ev.Date, &ev.Location); err != nil {
			return nil, fmt.Errorf("failed to scan calendar event: %v", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read calendar events: %v", err)
	}
	return events, nil
}

func (s *PostgresStore) OpenAssignmentsBetween(ctx context.Context, userID string, from, to time.Time) ([]models.Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, COALESCE(course_code, ''), title, due_date
		 FROM assignments
		 WHERE user_id = $1 AND completed_at IS NULL AND due_date BETWEEN $2 AND $3
		 ORDER BY due_date`,
		userID, from.Format("2006-01-02"), to.Format("2006-01-02"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read assignments: %v", err)
	}
	defer rows.Close()

	var assignments []models.Assignment
	for rows.Next() {
		var a models.Assignment
		a.UserID = userID
		if err := rows.Scan(&a.ID, &a.CourseCode, &a.Title, &a.DueDate); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %v", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read assignments: %v", err)
	}
	return assignments, nil
}
