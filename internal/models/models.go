package models

import (
	"time"
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // Password is never exposed in JSON
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile holds the caller-facing identity the assistant uses: display name
// and preferred IANA timezone. Timezone may be empty; consumers fall back.
type Profile struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Timezone    string    `json:"timezone"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Semester is an academic term. At most one semester is active per user.
type Semester struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type Course struct {
	ID         string          `json:"id"`
	SemesterID string          `json:"semester_id"`
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Instructor string          `json:"instructor,omitempty"`
	Schedule   []ScheduleEntry `json:"schedule,omitempty"`
}

// ScheduleEntry is one weekly recurring slot, either embedded in a course
// (lectures, labs) or standing alone as a personal commitment.
type ScheduleEntry struct {
	Title     string       `json:"title"`
	Weekday   time.Weekday `json:"weekday"`
	StartTime string       `json:"start_time"` // HH:MM, caller-local
	EndTime   string       `json:"end_time"`   // HH:MM, caller-local
	Location  string       `json:"location,omitempty"`
}

type CalendarEvent struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	Title    string    `json:"title"`
	Date     time.Time `json:"date"`
	Location string    `json:"location,omitempty"`
}

type Assignment struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	CourseCode  string     `json:"course_code,omitempty"`
	Title       string     `json:"title"`
	DueDate     time.Time  `json:"due_date"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ChatMessage is one dialogue turn sent to the model. Role is one of
// "system", "user" or "assistant". Turns are built per request and never
// persisted.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResult is the shaped answer returned to the caller.
type ChatResult struct {
	Reply      string  `json:"reply"`
	TokensUsed int     `json:"tokens_used"`
	Cost       float64 `json:"cost"`
}
