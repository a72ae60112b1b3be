package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/plannerbackend/internal/logging"
	"go.uber.org/zap"
)

// DailyCallCeiling is the shared cap on assistant calls per calendar day
// across all users.
const DailyCallCeiling = 2000

type dynamoAPI interface {
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

type Service struct {
	client    dynamoAPI
	tableName string
	ceiling   int
}

type CheckResult struct {
	Allowed bool `json:"allowed"`
	Count   int  `json:"count"`
}

func NewService() (*Service, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %v", err)
	}

	tableName := "planner-usage-ledger"
	if envTable := os.Getenv("USAGE_LEDGER_TABLE_NAME"); envTable != "" {
		tableName = envTable
	}

	client := dynamodb.NewFromConfig(cfg)
	return &Service{
		client:    client,
		tableName: tableName,
		ceiling:   DailyCallCeiling,
	}, nil
}

// Check consumes one slot of the daily call budget. The counter is created
// lazily on the first call of a day and bumped with a single conditional
// atomic increment, so concurrent calls never lose updates. Once the stored
// count reaches the ceiling the increment's condition fails and the stored
// value is left untouched.
//
// Storage failures fail open: the caller is allowed through with count 0 and
// the fallback is logged. Availability wins over strict enforcement here.
func (s *Service) Check(ctx context.Context) CheckResult {
	day := time.Now().UTC().Format("2006-01-02")

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"period": &types.AttributeValueMemberS{Value: "rate#" + day},
		},
		UpdateExpression:    aws.String("ADD #calls :one SET #day = if_not_exists(#day, :day), #created_at = if_not_exists(#created_at, :now)"),
		ConditionExpression: aws.String("attribute_not_exists(#calls) OR #calls < :ceiling"),
		ExpressionAttributeNames: map[string]string{
			"#calls":      "calls",
			"#day":        "day",
			"#created_at": "created_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one":     &types.AttributeValueMemberN{Value: "1"},
			":ceiling": &types.AttributeValueMemberN{Value: strconv.Itoa(s.ceiling)},
			":day":     &types.AttributeValueMemberS{Value: day},
			":now":     &types.AttributeValueMemberS{Value: time.Now().Format(time.RFC3339)},
		},
		ReturnValues:                        types.ReturnValueUpdatedNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})

	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return CheckResult{Allowed: false, Count: countFromItem(condFailed.Item, s.ceiling)}
		}

		logging.L().Warn("rate limit check failed open",
			zap.String("day", day),
			zap.Error(err))
		return CheckResult{Allowed: true, Count: 0}
	}

	return CheckResult{Allowed: true, Count: countFromItem(out.Attributes, 0)}
}

// Ceiling returns the configured daily cap, for surfacing in rejections.
func (s *Service) Ceiling() int {
	return s.ceiling
}

func countFromItem(item map[string]types.AttributeValue, fallback int) int {
	attr, ok := item["calls"].(*types.AttributeValueMemberN)
	if !ok {
		return fallback
	}
	count, err := strconv.Atoi(attr.Value)
	if err != nil {
		return fallback
	}
	return count
}
