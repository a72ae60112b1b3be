package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/plannerbackend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBedrock struct {
	lastBody []byte
	response string
	err      error
}

func (f *fakeBedrock) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.lastBody = params.Body
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.response)}, nil
}

func TestCompleteReturnsReplyAndTokens(t *testing.T) {
	fake := &fakeBedrock{
		response: `{"content":[{"type":"text","text":"You have one class today."}],"usage":{"input_tokens":120,"output_tokens":30}}`,
	}
	client := &Client{bedrock: fake, modelID: ModelID}

	completion, err := client.Complete(context.Background(), []models.ChatMessage{
		{Role: "system", Content: "instructions"},
		{Role: "user", Content: "what's on today?"},
	})
	require.NoError(t, err)

	assert.Equal(t, "You have one class today.", completion.Reply)
	assert.Equal(t, 150, completion.TokensUsed)
}

func TestCompleteMapsSystemTurnToSystemField(t *testing.T) {
	fake := &fakeBedrock{
		response: `{"content":[{"type":"text","text":"ok"}],"usage":{"input_tokens":1,"output_tokens":1}}`,
	}
	client := &Client{bedrock: fake, modelID: ModelID}

	_, err := client.Complete(context.Background(), []models.ChatMessage{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "user", Content: "again"},
	})
	require.NoError(t, err)

	var sent anthropicRequest
	require.NoError(t, json.Unmarshal(fake.lastBody, &sent))

	assert.Equal(t, "be brief", sent.System)
	assert.Equal(t, MaxOutputTokens, sent.MaxTokens)
	assert.Equal(t, Temperature, sent.Temperature)
	require.Len(t, sent.Messages, 3)
	for _, msg := range sent.Messages {
		assert.NotEqual(t, "system", msg.Role)
	}
}

func TestCompleteEmptyReplyFallback(t *testing.T) {
	fake := &fakeBedrock{
		response: `{"content":[],"usage":{"input_tokens":50,"output_tokens":0}}`,
	}
	client := &Client{bedrock: fake, modelID: ModelID}

	completion, err := client.Complete(context.Background(), []models.ChatMessage{
		{Role: "user", Content: "hi"},
	})
	require.NoError(t, err)

	assert.Equal(t, EmptyReplyFallback, completion.Reply)
	assert.Equal(t, 50, completion.TokensUsed)
}

func TestCompletePropagatesInvocationError(t *testing.T) {
	fake := &fakeBedrock{err: fmt.Errorf("throttled")}
	client := &Client{bedrock: fake, modelID: ModelID}

	_, err := client.Complete(context.Background(), []models.ChatMessage{
		{Role: "user", Content: "hi"},
	})
	assert.Error(t, err)
}
