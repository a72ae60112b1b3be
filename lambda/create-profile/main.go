package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/plannerbackend/internal/auth"
	"github.com/plannerbackend/internal/db"
	"github.com/plannerbackend/internal/timezone"
)

type CreateProfileRequest struct {
	DisplayName string `json:"display_name"`
	Timezone    string `json:"timezone"`
}

type CreateProfileResponse struct {
	ProfileID string `json:"profile_id"`
}

func handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	// Validate JWT token
	claims, err := auth.ValidateToken(request.Headers["Authorization"])
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: 401,
			Body:       "Unauthorized",
		}, nil
	}

	var req CreateProfileRequest
	if err := json.Unmarshal([]byte(request.Body), &req); err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: 400,
			Body:       fmt.Sprintf("Invalid request: %v", err),
		}, nil
	}

	if strings.TrimSpace(req.DisplayName) == "" {
		return events.APIGatewayProxyResponse{
			StatusCode: 400,
			Body:       "Display name is required",
		}, nil
	}

	// Timezone is optional; when present it must be a real IANA zone so the
	// assistant never resolves dates in a zone the user did not pick.
	if req.Timezone != "" {
		if err := timezone.Validate(req.Timezone); err != nil {
			return events.APIGatewayProxyResponse{
				StatusCode: 400,
				Body:       fmt.Sprintf("Invalid timezone: %v", err),
			}, nil
		}
	}

	var profileID string
	err = db.DB.QueryRow(
		`INSERT INTO profiles (user_id, display_name, timezone) VALUES ($1, $2, NULLIF($3, ''))
		 ON CONFLICT (user_id) DO UPDATE
		 SET display_name = EXCLUDED.display_name, timezone = EXCLUDED.timezone, updated_at = CURRENT_TIMESTAMP
		 RETURNING id`,
		claims.UserID, strings.TrimSpace(req.DisplayName), req.Timezone,
	).Scan(&profileID)

	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: 500,
			Body:       fmt.Sprintf("Error creating profile: %v", err),
		}, nil
	}

	response := CreateProfileResponse{
		ProfileID: profileID,
	}

	responseBody, err := json.Marshal(response)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: 500,
			Body:       "Error creating response",
		}, nil
	}

	return events.APIGatewayProxyResponse{
		StatusCode: 200,
		Body:       string(responseBody),
	}, nil
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
