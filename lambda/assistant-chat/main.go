package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/plannerbackend/internal/auth"
	"github.com/plannerbackend/internal/conversation"
	"github.com/plannerbackend/internal/db"
	"github.com/plannerbackend/internal/ledger"
	"github.com/plannerbackend/internal/llm"
	"github.com/plannerbackend/internal/models"
	"github.com/plannerbackend/internal/ratelimit"
	"github.com/plannerbackend/internal/studycontext"
)

type ChatRequest struct {
	Message     string                   `json:"message"`
	ChatHistory []map[string]interface{} `json:"chatHistory"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Services are built once per container and reused across invocations; the
// model client and DynamoDB clients are safe for concurrent calls.
var (
	servicesOnce sync.Once
	servicesErr  error
	rateLimiter  *ratelimit.Service
	usageLedger  *ledger.Service
	modelClient  *llm.Client
	selector     *studycontext.Selector
)

func initServices() error {
	servicesOnce.Do(func() {
		rateLimiter, servicesErr = ratelimit.NewService()
		if servicesErr != nil {
			return
		}
		usageLedger, servicesErr = ledger.NewService()
		if servicesErr != nil {
			return
		}
		modelClient, servicesErr = llm.NewClient()
		if servicesErr != nil {
			return
		}
		selector = studycontext.NewSelector(studycontext.NewPostgresStore(db.DB))
	})
	return servicesErr
}

func handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	claims, err := auth.ValidateToken(request.Headers["Authorization"])
	if err != nil {
		return createErrorResponse(401, "UNAUTHORIZED", "Invalid or missing authentication token", err.Error()), nil
	}

	var req ChatRequest
	if err := json.Unmarshal([]byte(request.Body), &req); err != nil {
		return createErrorResponse(400, "INVALID_REQUEST", "Invalid JSON in request body", err.Error()), nil
	}

	if strings.TrimSpace(req.Message) == "" {
		return createErrorResponse(400, "VALIDATION_ERROR", "Message is required", ""), nil
	}

	if err := initServices(); err != nil {
		return createErrorResponse(500, "SERVICE_ERROR", "Failed to initialize services", err.Error()), nil
	}

	check := rateLimiter.Check(ctx)
	if !check.Allowed {
		return createErrorResponse(429, "RATE_LIMITED",
			"Daily assistant call limit reached",
			fmt.Sprintf("limit of %d calls per day", rateLimiter.Ceiling())), nil
	}

	result, err := processChat(ctx, claims.UserID, req)
	if err != nil {
		return createErrorResponse(500, "MODEL_ERROR", "Assistant is temporarily unavailable", err.Error()), nil
	}

	responseBody, err := json.Marshal(result)
	if err != nil {
		return createErrorResponse(500, "SERIALIZATION_ERROR", "Failed to serialize response", err.Error()), nil
	}

	return events.APIGatewayProxyResponse{
		StatusCode: 200,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: string(responseBody),
	}, nil
}

func processChat(ctx context.Context, userID string, req ChatRequest) (*models.ChatResult, error) {
	gathered := selector.Gather(ctx, userID, req.Message, time.Now())

	turns := conversation.Build(
		gathered.Context,
		gathered.Location,
		gathered.ReferenceDate,
		req.ChatHistory,
		req.Message,
	)

	completion, err := modelClient.Complete(ctx, turns)
	if err != nil {
		return nil, fmt.Errorf("failed to complete chat: %v", err)
	}

	cost := llm.CostForTokens(completion.TokensUsed)
	// Best-effort accounting; Record logs and swallows its own failures.
	usageLedger.Record(ctx, completion.TokensUsed, cost)

	return &models.ChatResult{
		Reply:      completion.Reply,
		TokensUsed: completion.TokensUsed,
		Cost:       cost,
	}, nil
}

func createErrorResponse(statusCode int, code, message, details string) events.APIGatewayProxyResponse {
	errorResp := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}

	body, _ := json.Marshal(errorResp)
	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: string(body),
	}
}

func init() {
	if err := db.InitDB(); err != nil {
		fmt.Printf("Error initializing database: %v\n", err)
		os.Exit(1)
	}
}

func main() {
	lambda.Start(handler)
}
