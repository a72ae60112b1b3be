package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/plannerbackend/internal/models"
)

// MaxHistoryTurns bounds how much prior dialogue is replayed to the model.
const MaxHistoryTurns = 10

const systemTemplate = `You are a helpful assistant inside a student planner app. Today is %s and tomorrow is %s. The current time is %s (%s).

Rules:
- Answer only from the context below. If the context does not cover something, say you don't have that information.
- If a requested day or period has nothing scheduled, say so explicitly.
- Resolve relative dates like "today", "tomorrow" or "this week" against today's date above.
- Use the conversation history to resolve references like "it" or "that class".
- Keep a conversational tone and keep answers short.

Context:
%s`

// Build assembles the ordered turn sequence for one request: one system
// turn, at most MaxHistoryTurns validated history turns in original order,
// and the new user message last.
//
// History elements survive only with role "user" or "assistant" and
// non-blank content; everything else is dropped silently.
func Build(contextText string, loc *time.Location, referenceDate time.Time, rawHistory []map[string]interface{}, userMessage string) []models.ChatMessage {
	now := time.Now().In(loc)
	today := referenceDate
	if today.IsZero() {
		today = now
	}
	tomorrow := today.AddDate(0, 0, 1)

	system := fmt.Sprintf(systemTemplate,
		today.Format("Monday, January 2, 2006"),
		tomorrow.Format("Monday, January 2, 2006"),
		now.Format("3:04 PM"),
		loc.String(),
		contextText,
	)

	turns := []models.ChatMessage{{Role: "system", Content: system}}

	history := validateHistory(rawHistory)
	if len(history) > MaxHistoryTurns {
		history = history[len(history)-MaxHistoryTurns:]
	}
	turns = append(turns, history...)

	turns = append(turns, models.ChatMessage{
		Role:    "user",
		Content: strings.TrimSpace(userMessage),
	})
	return turns
}

func validateHistory(rawHistory []map[string]interface{}) []models.ChatMessage {
	var valid []models.ChatMessage
	for _, raw := range rawHistory {
		role, _ := raw["role"].(string)
		if role != "user" && role != "assistant" {
			continue
		}
		content, _ := raw["content"].(string)
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		valid = append(valid, models.ChatMessage{Role: role, Content: content})
	}
	return valid
}
