package ddb

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/strindex/model"
	"github.com/hupe1980/strindex/store"
)

// mockClient is an in-memory DynamoDB mock for testing.
type mockClient struct {
	mu    sync.RWMutex
	items map[string]map[string]types.AttributeValue // ks -> item

	// failPut makes PutItem fail with the given error for matching keys.
	failPut func(ks string) error
	// unprocessedOnce makes the first BatchGetItem return all keys as
	// unprocessed before behaving normally.
	unprocessedOnce bool

	batchCalls int
}

func newMockClient() *mockClient {
	return &mockClient{
		items: make(map[string]map[string]types.AttributeValue),
	}
}

func (m *mockClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ks := params.Item["ks"].(*types.AttributeValueMemberS).Value
	if m.failPut != nil {
		if err := m.failPut(ks); err != nil {
			return nil, err
		}
	}

	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(ks)" {
		if _, exists := m.items[ks]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}

	m.items[ks] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockClient) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ks := params.Key["ks"].(*types.AttributeValueMemberS).Value
	if item, ok := m.items[ks]; ok {
		return &dynamodb.GetItemOutput{Item: item}, nil
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (m *mockClient) BatchGetItem(_ context.Context, params *dynamodb.BatchGetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	m.mu.Lock()
	m.batchCalls++
	unprocessed := m.unprocessedOnce
	m.unprocessedOnce = false
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := &dynamodb.BatchGetItemOutput{
		Responses:       make(map[string][]map[string]types.AttributeValue),
		UnprocessedKeys: make(map[string]types.KeysAndAttributes),
	}

	for table, kaa := range params.RequestItems {
		if len(kaa.Keys) > batchGetLimit {
			return nil, &types.ProvisionedThroughputExceededException{Message: aws.String("too many keys")}
		}
		if unprocessed {
			out.UnprocessedKeys[table] = types.KeysAndAttributes{Keys: kaa.Keys}
			continue
		}
		for _, key := range kaa.Keys {
			ks := key["ks"].(*types.AttributeValueMemberS).Value
			if item, ok := m.items[ks]; ok {
				out.Responses[table] = append(out.Responses[table], item)
			}
		}
	}
	return out, nil
}

func TestStore_InsertAndResolve(t *testing.T) {
	ctx := context.Background()
	s := NewStore(newMockClient(), "strindex")

	id, err := s.Insert(ctx, "metrics", 42, "http.server.duration", 1000)
	require.NoError(t, err)
	assert.EqualValues(t, 1000, id)

	got, err := s.Resolve(ctx, "metrics", 42, "http.server.duration")
	require.NoError(t, err)
	assert.EqualValues(t, 1000, got)

	str, err := s.ReverseResolve(ctx, "metrics", 42, 1000)
	require.NoError(t, err)
	assert.Equal(t, "http.server.duration", str)
}

func TestStore_ResolveNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewStore(newMockClient(), "strindex")

	_, err := s.Resolve(ctx, "metrics", 42, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.ReverseResolve(ctx, "metrics", 42, 12345678)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_LostRaceReturnsWinner(t *testing.T) {
	ctx := context.Background()
	client := newMockClient()
	s := NewStore(client, "strindex")

	id, err := s.Insert(ctx, "metrics", 42, "foo", 1000)
	require.NoError(t, err)
	assert.EqualValues(t, 1000, id)

	// Loser shows up with a different candidate and must re-read the
	// winner's ID rather than error.
	id, err = s.Insert(ctx, "metrics", 42, "foo", 2000)
	require.NoError(t, err)
	assert.EqualValues(t, 1000, id)

	// The winner's reverse lookup still resolves; the loser's candidate
	// only left an inert reverse row behind.
	str, err := s.ReverseResolve(ctx, "metrics", 42, 1000)
	require.NoError(t, err)
	assert.Equal(t, "foo", str)
}

func TestStore_ReverseSurvivesFailedInsertRetry(t *testing.T) {
	ctx := context.Background()
	client := newMockClient()

	// The reverse write fails once, as a transient throttle. The forward
	// row must not have committed, so the retry's candidate wins and both
	// directions resolve afterwards.
	failed := false
	client.failPut = func(ks string) error {
		if !failed && strings.HasPrefix(ks, "i#") {
			failed = true
			return &types.ProvisionedThroughputExceededException{Message: aws.String("slow down")}
		}
		return nil
	}
	s := NewStore(client, "strindex")

	_, err := s.Insert(ctx, "metrics", 42, "foo", 1000)
	require.ErrorIs(t, err, store.ErrThrottled)

	_, err = s.Resolve(ctx, "metrics", 42, "foo")
	assert.ErrorIs(t, err, store.ErrNotFound, "failed insert must not leave a forward row")

	id, err := s.Insert(ctx, "metrics", 42, "foo", 2000)
	require.NoError(t, err)
	assert.EqualValues(t, 2000, id)

	str, err := s.ReverseResolve(ctx, "metrics", 42, 2000)
	require.NoError(t, err)
	assert.Equal(t, "foo", str)
}

func TestStore_ResolveMany(t *testing.T) {
	ctx := context.Background()
	client := newMockClient()
	s := NewStore(client, "strindex")

	_, err := s.Insert(ctx, "metrics", 1, "a", 2)
	require.NoError(t, err)
	_, err = s.Insert(ctx, "metrics", 2, "b", 4)
	require.NoError(t, err)

	results, err := s.ResolveMany(ctx, "metrics", model.NewKeyCollection(map[model.TenantID][]string{
		1: {"a", "missing"},
		2: {"b"},
	}))
	require.NoError(t, err)

	assert.Equal(t, 2, results.Size())
	assert.Zero(t, results.FailedCount())
	id, ok := results.Get(2, "b")
	require.True(t, ok)
	assert.EqualValues(t, 4, id)
}

func TestStore_ResolveManyChunks(t *testing.T) {
	ctx := context.Background()
	client := newMockClient()
	s := NewStore(client, "strindex")

	keys := make(map[model.TenantID][]string)
	for i := 0; i < 150; i++ {
		keys[1] = append(keys[1], string(rune('a'+i%26))+string(rune('0'+i/26)))
	}
	_, err := s.ResolveMany(ctx, "metrics", model.NewKeyCollection(keys))
	require.NoError(t, err)
	assert.Equal(t, 2, client.batchCalls, "150 keys must split into two BatchGetItem calls")
}

func TestStore_ResolveManyRetriesUnprocessed(t *testing.T) {
	ctx := context.Background()
	client := newMockClient()
	client.unprocessedOnce = true
	s := NewStore(client, "strindex")

	_, err := s.Insert(ctx, "metrics", 1, "a", 2)
	require.NoError(t, err)

	results, err := s.ResolveMany(ctx, "metrics", model.NewKeyCollection(map[model.TenantID][]string{
		1: {"a"},
	}))
	require.NoError(t, err)

	id, ok := results.Get(1, "a")
	require.True(t, ok, "unprocessed keys must be re-issued")
	assert.EqualValues(t, 2, id)
}

func TestStore_ThrottlingMapsToErrThrottled(t *testing.T) {
	ctx := context.Background()
	client := newMockClient()
	client.failPut = func(string) error {
		return &types.ProvisionedThroughputExceededException{Message: aws.String("slow down")}
	}
	s := NewStore(client, "strindex")

	_, err := s.Insert(ctx, "metrics", 1, "a", 2)
	assert.ErrorIs(t, err, store.ErrThrottled)
}

func TestStore_Ping(t *testing.T) {
	ctx := context.Background()
	s := NewStore(newMockClient(), "strindex")

	assert.NoError(t, s.Ping(ctx))
}
