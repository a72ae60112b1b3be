package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/plannerbackend/internal/models"
)

const (
	// ModelID is the Bedrock model serving all assistant completions.
	ModelID = "anthropic.claude-3-haiku-20240307-v1:0"

	// MaxOutputTokens bounds the completion length.
	MaxOutputTokens = 1000

	// Temperature is the fixed sampling temperature.
	Temperature = 0.7

	anthropicVersion = "bedrock-2023-05-31"

	// EmptyReplyFallback is returned when the model produces no text.
	EmptyReplyFallback = "Sorry, I wasn't able to come up with a response. Please try asking again."
)

type bedrockAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Client invokes the external model. A single instance is safe for
// concurrent requests and should be reused across invocations.
type Client struct {
	bedrock bedrockAPI
	modelID string
}

type Completion struct {
	Reply      string `json:"reply"`
	TokensUsed int    `json:"tokens_used"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	Temperature      float64            `json:"temperature"`
	System           string             `json:"system,omitempty"`
	Messages         []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func NewClient() (*Client, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %v", err)
	}

	return &Client{
		bedrock: bedrockruntime.NewFromConfig(cfg),
		modelID: ModelID,
	}, nil
}

// Complete sends the assembled turns to the model and returns the reply text
// with the total token count. The leading system turn is carried in the
// Anthropic system field; remaining turns map to messages as-is.
func (c *Client) Complete(ctx context.Context, turns []models.ChatMessage) (*Completion, error) {
	req := anthropicRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        MaxOutputTokens,
		Temperature:      Temperature,
	}

	for _, turn := range turns {
		if turn.Role == "system" {
			req.System = turn.Content
			continue
		}
		req.Messages = append(req.Messages, anthropicMessage{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal model request: %v", err)
	}

	output, err := c.bedrock.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke model: %v", err)
	}

	var resp anthropicResponse
	if err := json.Unmarshal(output.Body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model response: %v", err)
	}

	reply := ""
	for _, block := range resp.Content {
		if block.Type == "text" {
			reply += block.Text
		}
	}
	if reply == "" {
		reply = EmptyReplyFallback
	}

	return &Completion{
		Reply:      reply,
		TokensUsed: resp.Usage.InputTokens + resp.Usage.OutputTokens,
	}, nil
}
