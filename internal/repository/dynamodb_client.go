package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	skState            = "STATE#"
	defaultTTLDuration = 30 * 24 * time.Hour // 30-day TTL
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// stateRecord is the item layout of a persisted state blob.
type stateRecord struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	Data      []byte `dynamodbav:"data"`
	UpdatedAt string `dynamodbav:"updatedAt"`
	TTL       int64  `dynamodbav:"ttl,omitempty"`
}

// Client stores state blobs in a DynamoDB table, one item per key.
type Client struct {
	api       dynamodbAPI
	tableName string
	ttl       time.Duration
	tracer    trace.Tracer
	now       func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithTTL overrides the item expiry. A non-positive value disables TTL.
func WithTTL(d time.Duration) Option {
	return func(c *Client) {
		c.ttl = d
	}
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string, opts ...Option) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	c := &Client{
		api:       api,
		tableName: tableName,
		ttl:       defaultTTLDuration,
		tracer:    otel.Tracer("fun-bot.internal.repository.dynamodb"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get reads the blob stored under key. A missing item is reported as ok=false.
func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := c.tracer.Start(ctx, "repository.dynamodb.get")
	defer span.End()

	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: key},
			"SK": &types.AttributeValueMemberS{Value: skState},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		span.RecordError(err)
		return nil, false, fmt.Errorf("repository: Get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return nil, false, nil
	}

	var rec stateRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		span.RecordError(err)
		return nil, false, fmt.Errorf("repository: Get decode %q: %w", key, err)
	}
	// Expired items linger until DynamoDB sweeps them.
	if rec.TTL > 0 && rec.TTL <= c.now().Unix() {
		return nil, false, nil
	}
	return rec.Data, true, nil
}

// Put replaces the blob stored under key.
func (c *Client) Put(ctx context.Context, key string, blob []byte) error {
	ctx, span := c.tracer.Start(ctx, "repository.dynamodb.put")
	defer span.End()

	if strings.TrimSpace(key) == "" {
		return errors.New("repository: Put: key is required")
	}
	item, err := attributevalue.MarshalMap(c.newRecord(key, blob))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("repository: Put encode: %w", err)
	}
	if _, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      item,
	}); err != nil {
		span.RecordError(err)
		return fmt.Errorf("repository: Put: %w", err)
	}
	return nil
}

func (c *Client) newRecord(key string, blob []byte) stateRecord {
	now := c.now().UTC()
	rec := stateRecord{
		PK:        key,
		SK:        skState,
		Data:      blob,
		UpdatedAt: now.Format(time.RFC3339),
	}
	if c.ttl > 0 {
		rec.TTL = now.Add(c.ttl).Unix()
	}
	return rec
}
