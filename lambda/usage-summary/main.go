package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/plannerbackend/internal/auth"
	"github.com/plannerbackend/internal/ledger"
)

type UsageSummaryResponse struct {
	Day   *ledger.DayRecord   `json:"day"`
	Month *ledger.MonthRecord `json:"month"`
}

func handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	_, err := auth.ValidateToken(request.Headers["Authorization"])
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: 401,
			Body:       "Unauthorized",
		}, nil
	}

	usageLedger, err := ledger.NewService()
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: 500,
			Body:       "Failed to initialize usage ledger",
		}, nil
	}

	day, err := usageLedger.DaySummary(ctx)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: 500,
			Body:       fmt.Sprintf("Error reading daily usage: %v", err),
		}, nil
	}

	month, err := usageLedger.MonthSummary(ctx)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: 500,
			Body:       fmt.Sprintf("Error reading monthly usage: %v", err),
		}, nil
	}

	responseBody, err := json.Marshal(UsageSummaryResponse{Day: day, Month: month})
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: 500,
			Body:       "Error creating response",
		}, nil
	}

	return events.APIGatewayProxyResponse{
		StatusCode: 200,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: string(responseBody),
	}, nil
}

func main() {
	lambda.Start(handler)
}
