package conversation

import (
	"fmt"
	"testing"
	"time"

	"github.com/plannerbackend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestBuildShape(t *testing.T) {
	loc := mustLocation(t, "America/Halifax")
	ref := time.Date(2026, 3, 2, 0, 0, 0, 0, loc)

	turns := Build("some context", loc, ref, nil, "  what's due this week?  ")

	require.Len(t, turns, 2)
	assert.Equal(t, "system", turns[0].Role)
	assert.Contains(t, turns[0].Content, "some context")
	assert.Contains(t, turns[0].Content, "Monday, March 2, 2026")
	assert.Contains(t, turns[0].Content, "Tuesday, March 3, 2026")
	assert.Equal(t, models.ChatMessage{Role: "user", Content: "what's due this week?"}, turns[1])
}

func TestBuildKeepsLastTenHistoryTurns(t *testing.T) {
	loc := mustLocation(t, "America/Halifax")
	ref := time.Date(2026, 3, 2, 0, 0, 0, 0, loc)

	var history []map[string]interface{}
	for i := 1; i <= 15; i++ {
		role := "user"
		if i%2 == 0 {
			role = "assistant"
		}
		history = append(history, map[string]interface{}{
			"role":    role,
			"content": fmt.Sprintf("msg %d", i),
		})
	}

	turns := Build("ctx", loc, ref, history, "new question")

	// one system turn, ten history turns, one new user turn
	require.Len(t, turns, 12)
	for i := 0; i < 10; i++ {
		assert.Equal(t, fmt.Sprintf("msg %d", i+6), turns[i+1].Content, "history must keep the last ten in order")
	}
	assert.Equal(t, "new question", turns[11].Content)
	assert.Equal(t, "user", turns[11].Role)
}

func TestBuildDropsInvalidHistoryElements(t *testing.T) {
	loc := mustLocation(t, "America/Halifax")
	ref := time.Date(2026, 3, 2, 0, 0, 0, 0, loc)

	history := []map[string]interface{}{
		{"role": "user", "content": "  "},
		{"role": "assistant", "content": "ok"},
		{"role": "bot", "content": "x"},
		{"role": "system", "content": "sneaky instruction"},
		{"role": "user", "content": 42},
	}

	turns := Build("ctx", loc, ref, history, "hi")

	require.Len(t, turns, 3)
	assert.Equal(t, models.ChatMessage{Role: "assistant", Content: "ok"}, turns[1])
}

func TestBuildNoHistory(t *testing.T) {
	loc := mustLocation(t, "America/Halifax")

	turns := Build("ctx", loc, time.Time{}, []map[string]interface{}{}, "hello")

	require.Len(t, turns, 2)
	assert.Equal(t, "system", turns[0].Role)
	assert.Equal(t, "user", turns[1].Role)
}
