package studycontext

import (
	"strings"
)

// Categories is the set of context kinds a message is asking about. The
// classifier is a pure keyword matcher so it can be swapped for something
// smarter without touching retrieval.
type Categories struct {
	Schedule    bool
	Assignments bool
	Events      bool
	Courses     bool
}

var (
	scheduleKeywords   = []string{"schedule", "class", "classes", "when", "time", "busy", "free"}
	assignmentKeywords = []string{"assignment", "due", "deadline", "homework", "submit", "project"}
	eventKeywords      = []string{"event", "calendar", "meeting", "appointment", "exam"}
	courseKeywords     = []string{"course", "subject", "professor", "instructor", "lecture"}
)

// Classify maps a message to the categories it mentions. Matching is
// case-insensitive substring matching; an empty result means no category
// keyword appeared and the caller should fetch everything.
func Classify(message string) Categories {
	m := strings.ToLower(message)
	contains := func(words []string) bool {
		for _, w := range words {
			if strings.Contains(m, w) {
				return true
			}
		}
		return false
	}

	return Categories{
		Schedule:    contains(scheduleKeywords),
		Assignments: contains(assignmentKeywords),
		Events:      contains(eventKeywords),
		Courses:     contains(courseKeywords),
	}
}

func (c Categories) None() bool {
	return !c.Schedule && !c.Assignments && !c.Events && !c.Courses
}

// AllCategories is the include-all fallback for ambiguous messages:
// over-fetching beats answering from missing context.
func AllCategories() Categories {
	return Categories{Schedule: true, Assignments: true, Events: true, Courses: true}
}

func mentionsToday(message string) bool {
	return strings.Contains(strings.ToLower(message), "today")
}

func mentionsTomorrow(message string) bool {
	return strings.Contains(strings.ToLower(message), "tomorrow")
}
