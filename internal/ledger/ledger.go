package ledger

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/plannerbackend/internal/logging"
	"go.uber.org/zap"
)

type dynamoAPI interface {
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// Service accumulates token and dollar usage into per-day and per-month
// aggregates. Writes are additive increments so concurrent calls sum
// correctly; a new period key lazily creates a fresh record.
type Service struct {
	client    dynamoAPI
	tableName string
}

type DayRecord struct {
	Period string  `dynamodbav:"period" json:"-"`
	Date   string  `dynamodbav:"day" json:"date"`
	Cost   float64 `dynamodbav:"cost" json:"cost"`
	Tokens int     `dynamodbav:"tokens" json:"tokens"`
	Calls  int     `dynamodbav:"calls" json:"calls"`
}

type MonthRecord struct {
	Period      string  `dynamodbav:"period" json:"-"`
	Month       string  `dynamodbav:"month" json:"month"`
	TotalCost   float64 `dynamodbav:"total_cost" json:"total_cost"`
	TotalTokens int     `dynamodbav:"total_tokens" json:"total_tokens"`
	CallCount   int     `dynamodbav:"call_count" json:"call_count"`
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
	}, nil
}

// Record adds one call's usage to the day and month aggregates. Failures are
// logged and swallowed: a ledger that occasionally undercounts beats a chat
// request that fails after the model already answered.
func (s *Service) Record(ctx context.Context, tokensUsed int, costUsd float64) {
	now := time.Now().UTC()
	day := now.Format("2006-01-02")
	month := now.Format("2006-01")

	err := s.addUsage(ctx, "day#"+day, "day", day, "cost", "tokens", "calls", tokensUsed, costUsd)
	if err != nil {
		logging.L().Warn("failed to record daily usage",
			zap.String("day", day),
			zap.Error(err))
	}

	err = s.addUsage(ctx, "month#"+month, "month", month, "total_cost", "total_tokens", "call_count", tokensUsed, costUsd)
	if err != nil {
		logging.L().Warn("failed to record monthly usage",
			zap.String("month", month),
			zap.Error(err))
	}
}

func (s *Service) addUsage(ctx context.Context, periodKey, labelAttr, label, costAttr, tokensAttr, callsAttr string, tokens int, cost float64) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"period": &types.AttributeValueMemberS{Value: periodKey},
		},
		UpdateExpression: aws.String("ADD #cost :cost, #tokens :tokens, #calls :one SET #label = if_not_exists(#label, :label)"),
		ExpressionAttributeNames: map[string]string{
			"#cost":   costAttr,
			"#tokens": tokensAttr,
			"#calls":  callsAttr,
			"#label":  labelAttr,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cost":   &types.AttributeValueMemberN{Value: strconv.FormatFloat(cost, 'f', -1, 64)},
			":tokens": &types.AttributeValueMemberN{Value: strconv.Itoa(tokens)},
			":one":    &types.AttributeValueMemberN{Value: "1"},
			":label":  &types.AttributeValueMemberS{Value: label},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to update %s record: %v", periodKey, err)
	}
	return nil
}

// DaySummary returns the aggregate for the current UTC day, zero-valued when
// no calls have been recorded yet.
func (s *Service) DaySummary(ctx context.Context) (*DayRecord, error) {
	day := time.Now().UTC().Format("2006-01-02")
	record := &DayRecord{Date: day}
	if err := s.getRecord(ctx, "day#"+day, record); err != nil {
		return nil, err
	}
	record.Date = day
	return record, nil
}

// MonthSummary returns the aggregate for the current UTC month, zero-valued
// when no calls have been recorded yet.
func (s *Service) MonthSummary(ctx context.Context) (*MonthRecord, error) {
	month := time.Now().UTC().Format("2006-01")
	record := &MonthRecord{Month: month}
	if err := s.getRecord(ctx, "month#"+month, record); err != nil {
		return nil, err
	}
	record.Month = month
	return record, nil
}

func (s *Service) getRecord(ctx context.Context, periodKey string, out interface{}) error {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"period": &types.AttributeValueMemberS{Value: periodKey},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to get %s record: %v", periodKey, err)
	}

	if result.Item == nil {
		return nil
	}

	if err := attributevalue.UnmarshalMap(result.Item, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s record: %v", periodKey, err)
	}
	return nil
}
