package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo reproduces DynamoDB's conditional atomic increment semantics
// for the single item shape the limiter uses.
type fakeDynamo struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{counts: make(map[string]int)}
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := params.Key["period"].(*types.AttributeValueMemberS).Value
	ceiling, err := strconv.Atoi(params.ExpressionAttributeValues[":ceiling"].(*types.AttributeValueMemberN).Value)
	if err != nil {
		return nil, err
	}

	current := f.counts[key]
	if current >= ceiling {
		return nil, &types.ConditionalCheckFailedException{
			Item: map[string]types.AttributeValue{
				"calls": &types.AttributeValueMemberN{Value: strconv.Itoa(current)},
			},
		}
	}

	f.counts[key]++
	return &dynamodb.UpdateItemOutput{
		Attributes: map[string]types.AttributeValue{
			"calls": &types.AttributeValueMemberN{Value: strconv.Itoa(f.counts[key])},
		},
	}, nil
}

func (f *fakeDynamo) stored(t *testing.T) int {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.LessOrEqual(t, len(f.counts), 1, "limiter must use one counter per day")
	for _, count := range f.counts {
		return count
	}
	return 0
}

func newTestService(fake *fakeDynamo, ceiling int) *Service {
	return &Service{client: fake, tableName: "test-usage-ledger", ceiling: ceiling}
}

func TestCheckCountsExactly(t *testing.T) {
	fake := newFakeDynamo()
	svc := newTestService(fake, 5)

	for n := 1; n <= 5; n++ {
		result := svc.Check(context.Background())
		assert.True(t, result.Allowed, "call %d within ceiling must be allowed", n)
		assert.Equal(t, n, result.Count, "post-increment count must be exact")
	}
	assert.Equal(t, 5, fake.stored(t))

	result := svc.Check(context.Background())
	assert.False(t, result.Allowed)
	assert.Equal(t, 5, result.Count)
	assert.Equal(t, 5, fake.stored(t), "rejected call must not mutate the counter")
}

func TestCheckCeilingRejection(t *testing.T) {
	fake := newFakeDynamo()
	svc := newTestService(fake, 2)

	svc.Check(context.Background())
	svc.Check(context.Background())

	result := svc.Check(context.Background())
	assert.Equal(t, CheckResult{Allowed: false, Count: 2}, result)
}

func TestCheckConcurrentFirstCalls(t *testing.T) {
	fake := newFakeDynamo()
	svc := newTestService(fake, 1000)

	const callers = 64
	var wg sync.WaitGroup
	accepted := make(chan int, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := svc.Check(context.Background())
			if result.Allowed {
				accepted <- result.Count
			}
		}()
	}
	wg.Wait()
	close(accepted)

	seen := make(map[int]bool)
	for count := range accepted {
		assert.False(t, seen[count], "no two accepted calls may observe the same count")
		seen[count] = true
	}
	assert.Equal(t, len(seen), fake.stored(t), "stored count must equal accepted calls")
	assert.Equal(t, callers, fake.stored(t))
}

func TestCheckFailsOpen(t *testing.T) {
	fake := newFakeDynamo()
	fake.err = fmt.Errorf("dynamodb unavailable")
	svc := newTestService(fake, 2000)

	result := svc.Check(context.Background())
	assert.Equal(t, CheckResult{Allowed: true, Count: 0}, result)
}
