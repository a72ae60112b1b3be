package studycontext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    Categories
	}{
		{
			name:    "schedule only",
			message: "what's my schedule like",
			want:    Categories{Schedule: true},
		},
		{
			name:    "assignment only",
			message: "anything due soon?",
			want:    Categories{Assignments: true},
		},
		{
			name:    "events only",
			message: "any meetings on my calendar",
			want:    Categories{Events: true},
		},
		{
			name:    "course only",
			message: "who is my professor",
			want:    Categories{Courses: true},
		},
		{
			name:    "case insensitive",
			message: "ANY ASSIGNMENT DEADLINES?",
			want:    Categories{Assignments: true},
		},
		{
			name:    "multiple categories",
			message: "when is my homework due",
			want:    Categories{Schedule: true, Assignments: true},
		},
		{
			name:    "no match",
			message: "hello there",
			want:    Categories{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.message))
		})
	}
}

func TestNoneAndAll(t *testing.T) {
	assert.True(t, Classify("hello there").None())
	assert.False(t, AllCategories().None())
	assert.Equal(t, Categories{Schedule: true, Assignments: true, Events: true, Courses: true}, AllCategories())
}

func TestMentionsTodayTomorrow(t *testing.T) {
	assert.True(t, mentionsToday("what's on my schedule today"))
	assert.True(t, mentionsTomorrow("am I free Tomorrow?"))
	assert.False(t, mentionsToday("what's due this week"))
	assert.False(t, mentionsTomorrow("what's due this week"))
}
