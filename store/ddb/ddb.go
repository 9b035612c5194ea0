// Package ddb implements a DynamoDB-backed store.Store.
//
// A single table holds both directions of the mapping:
//
//   - forward items:  ks = "s#<use>#<tenant>#<string>", id (number)
//   - reverse items:  ks = "i#<use>#<tenant>#<id>",     str (string)
//
// Insert-if-absent uses a conditional PutItem on the forward item; a
// ConditionalCheckFailedException means another writer won the race, and the
// loser reads back the winner's ID instead of erroring. The reverse item is
// written first and unconditionally: it is idempotent for a given (triple,
// id), and an orphaned reverse row from a failed or lost insert is inert
// since its ID is never returned to a caller. Forward-before-reverse would
// instead risk a committed forward row whose reverse lookup never resolves.
//
// Reverse partition keys embed the encoded (bit-reversed) ID produced by
// idcodec, so sequential allocations scatter across the table's key range.
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name strindex \
//	  --attribute-definitions AttributeName=ks,AttributeType=S \
//	  --key-schema AttributeName=ks,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
package ddb

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/time/rate"

	"github.com/hupe1980/strindex/model"
	"github.com/hupe1980/strindex/store"
)

// batchGetLimit is the DynamoDB BatchGetItem hard cap.
const batchGetLimit = 100

// maxUnprocessedRetries bounds re-issues of unprocessed batch keys.
const maxUnprocessedRetries = 3

// Client is the interface for the DynamoDB operations the store uses.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
}

// Options configures the store.
type Options struct {
	// WriteLimit caps Insert throughput, for provisioned-capacity tables.
	// Nil means unlimited.
	WriteLimit *rate.Limiter

	// ConsistentRead makes point reads strongly consistent.
	ConsistentRead bool
}

// Store is a DynamoDB-backed store.Store.
type Store struct {
	client    Client
	tableName string
	opts      Options
}

var _ store.Store = (*Store)(nil)

// NewStore creates a DynamoDB store on the given table.
func NewStore(client Client, tableName string, optFns ...func(*Options)) *Store {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{
		client:    client,
		tableName: tableName,
		opts:      opts,
	}
}

func forwardKey(useCase model.UseCase, tenant model.TenantID, s string) string {
	return fmt.Sprintf("s#%s#%d#%s", useCase, tenant, s)
}

func reverseKey(useCase model.UseCase, tenant model.TenantID, id model.ID) string {
	return fmt.Sprintf("i#%s#%d#%d", useCase, tenant, id)
}

// Resolve returns the ID stored for a triple.
func (s *Store) Resolve(ctx context.Context, useCase model.UseCase, tenant model.TenantID, str string) (model.ID, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            keyAttr(forwardKey(useCase, tenant, str)),
		ConsistentRead: aws.Bool(s.opts.ConsistentRead),
	})
	if err != nil {
		return 0, translateError(err)
	}
	if out.Item == nil {
		return 0, store.ErrNotFound
	}
	return itemID(out.Item)
}

// resolveConsistent is Resolve with a strongly consistent read, regardless of
// the configured read mode. Used after a lost insert race, where the winner's
// row may not yet be visible to eventually consistent reads.
func (s *Store) resolveConsistent(ctx context.Context, useCase model.UseCase, tenant model.TenantID, str string) (model.ID, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            keyAttr(forwardKey(useCase, tenant, str)),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return 0, translateError(err)
	}
	if out.Item == nil {
		return 0, store.ErrNotFound
	}
	return itemID(out.Item)
}

// ResolveMany resolves a batch via BatchGetItem, 100 keys per round trip.
// Unprocessed keys are re-issued a bounded number of times; keys of a failed
// chunk are recorded as per-key failures rather than failing the batch.
func (s *Store) ResolveMany(ctx context.Context, useCase model.UseCase, keys model.KeyCollection) (*model.KeyResults, error) {
	results := model.NewKeyResults()

	all := keys.Keys()
	for start := 0; start < len(all); start += batchGetLimit {
		end := min(start+batchGetLimit, len(all))
		s.resolveChunk(ctx, useCase, all[start:end], results)
	}
	return results, nil
}

func (s *Store) resolveChunk(ctx context.Context, useCase model.UseCase, chunk []model.Key, results *model.KeyResults) {
	byKS := make(map[string]model.Key, len(chunk))
	pending := make([]map[string]types.AttributeValue, 0, len(chunk))
	for _, k := range chunk {
		ks := forwardKey(useCase, k.Tenant, k.String)
		byKS[ks] = k
		pending = append(pending, keyAttr(ks))
	}

	for attempt := 0; len(pending) > 0 && attempt <= maxUnprocessedRetries; attempt++ {
		out, err := s.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
			RequestItems: map[string]types.KeysAndAttributes{
				s.tableName: {
					Keys:           pending,
					ConsistentRead: aws.Bool(s.opts.ConsistentRead),
				},
			},
		})
		if err != nil {
			err = translateError(err)
			for _, attr := range pending {
				k := byKS[attrKS(attr)]
				results.Add(model.KeyResult{Tenant: k.Tenant, String: k.String, Err: err})
			}
			return
		}

		for _, item := range out.Responses[s.tableName] {
			k, ok := byKS[attrKS(item)]
			if !ok {
				continue
			}
			id, err := itemID(item)
			if err != nil {
				results.Add(model.KeyResult{Tenant: k.Tenant, String: k.String, Err: err})
				continue
			}
			results.Add(model.KeyResult{Tenant: k.Tenant, String: k.String, ID: id})
		}

		pending = out.UnprocessedKeys[s.tableName].Keys
	}

	if len(pending) > 0 {
		for _, attr := range pending {
			k := byKS[attrKS(attr)]
			results.Add(model.KeyResult{Tenant: k.Tenant, String: k.String, Err: store.ErrThrottled})
		}
	}
}

// ReverseResolve returns the string stored under an ID.
func (s *Store) ReverseResolve(ctx context.Context, useCase model.UseCase, tenant model.TenantID, id model.ID) (string, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            keyAttr(reverseKey(useCase, tenant, id)),
		ConsistentRead: aws.Bool(s.opts.ConsistentRead),
	})
	if err != nil {
		return "", translateError(err)
	}
	if out.Item == nil {
		return "", store.ErrNotFound
	}
	attr, ok := out.Item["str"].(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("ddb: invalid str attribute")
	}
	return attr.Value, nil
}

// Insert writes the triple if absent; a lost race reads back the winner.
func (s *Store) Insert(ctx context.Context, useCase model.UseCase, tenant model.TenantID, str string, id model.ID) (model.ID, error) {
	if s.opts.WriteLimit != nil {
		if err := s.opts.WriteLimit.Wait(ctx); err != nil {
			return 0, err
		}
	}

	// Reverse item first. An orphaned reverse row is harmless because its
	// ID is only ever handed out after the forward row commits; the other
	// order can strand a committed forward row without its reverse item
	// when the second write fails, and no later attempt would repair it.
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"ks":  &types.AttributeValueMemberS{Value: reverseKey(useCase, tenant, id)},
			"str": &types.AttributeValueMemberS{Value: str},
		},
	})
	if err != nil {
		return 0, translateError(err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"ks": &types.AttributeValueMemberS{Value: forwardKey(useCase, tenant, str)},
			"id": &types.AttributeValueMemberN{Value: strconv.FormatInt(int64(id), 10)},
		},
		ConditionExpression: aws.String("attribute_not_exists(ks)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			// Another writer got there first; the mapping is append-only,
			// so the winner's ID is the answer. The re-read is strongly
			// consistent so the just-committed row is visible.
			return s.resolveConsistent(ctx, useCase, tenant, str)
		}
		return 0, translateError(err)
	}

	return id, nil
}

// Ping issues a point read against a sentinel key to verify connectivity.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       keyAttr("ping#sentinel"),
	})
	return translateError(err)
}

func keyAttr(ks string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"ks": &types.AttributeValueMemberS{Value: ks},
	}
}

func attrKS(item map[string]types.AttributeValue) string {
	if attr, ok := item["ks"].(*types.AttributeValueMemberS); ok {
		return attr.Value
	}
	return ""
}

func itemID(item map[string]types.AttributeValue) (model.ID, error) {
	attr, ok := item["id"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, errors.New("ddb: invalid id attribute")
	}
	id, err := strconv.ParseInt(attr.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ddb: failed to parse id: %w", err)
	}
	return model.ID(id), nil
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	var throughput *types.ProvisionedThroughputExceededException
	if errors.As(err, &throughput) {
		return fmt.Errorf("%w: %w", store.ErrThrottled, err)
	}
	var requestLimit *types.RequestLimitExceeded
	if errors.As(err, &requestLimit) {
		return fmt.Errorf("%w: %w", store.ErrThrottled, err)
	}
	return err
}
