package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
)

type fakeDynamo struct {
	getOut       *dynamodb.GetItemOutput
	getErr       error
	putErr       error
	lastGetInput *dynamodb.GetItemInput
	lastPutInput *dynamodb.PutItemInput
	puts         int
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.lastGetInput = in
	return f.getOut, f.getErr
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPutInput = in
	f.puts++
	return &dynamodb.PutItemOutput{}, f.putErr
}

var fixedNow = time.Date(2026, 2, 25, 10, 0, 0, 0, time.UTC)

func mustNewClient(t *testing.T, db *fakeDynamo, opts ...Option) *Client {
	t.Helper()
	c, err := New(db, "test-table", opts...)
	require.NoError(t, err)
	c.now = func() time.Time { return fixedNow }
	return c
}

func makeStateItem(pk string, data []byte, ttl int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: pk},
		"SK":        &types.AttributeValueMemberS{Value: skState},
		"data":      &types.AttributeValueMemberB{Value: data},
		"updatedAt": &types.AttributeValueMemberS{Value: "2026-02-25T09:00:00Z"},
		"ttl":       &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", ttl)},
	}
}

func TestGet_HappyPath(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{
		Item: makeStateItem("dialogState#abc", []byte(`{"stack":[]}`), fixedNow.Add(time.Hour).Unix()),
	}}
	c := mustNewClient(t, db)

	blob, ok, err := c.Get(context.Background(), "dialogState#abc")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"stack":[]}`, string(blob))
	require.Equal(t, "dialogState#abc", db.lastGetInput.Key["PK"].(*types.AttributeValueMemberS).Value)
	require.Equal(t, skState, db.lastGetInput.Key["SK"].(*types.AttributeValueMemberS).Value)
	require.True(t, *db.lastGetInput.ConsistentRead)
}

func TestGet_MissingItem(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{}}
	c := mustNewClient(t, db)

	blob, ok, err := c.Get(context.Background(), "user#u1")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, blob)
}

func TestGet_ExpiredItemIsAbsent(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{
		Item: makeStateItem("user#u1", []byte(`{}`), fixedNow.Add(-time.Minute).Unix()),
	}}
	c := mustNewClient(t, db)

	_, ok, err := c.Get(context.Background(), "user#u1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGet_GetItemError(t *testing.T) {
	db := &fakeDynamo{getErr: errors.New("boom")}
	c := mustNewClient(t, db)

	_, _, err := c.Get(context.Background(), "user#u1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Get item")
	require.ErrorContains(t, err, "boom")
}

func TestGet_MalformedItem(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{
		Item: map[string]types.AttributeValue{
			"PK":   &types.AttributeValueMemberS{Value: "user#u1"},
			"SK":   &types.AttributeValueMemberS{Value: skState},
			"data": &types.AttributeValueMemberS{Value: "not-bytes"},
			"ttl":  &types.AttributeValueMemberS{Value: "bad"},
		},
	}}
	c := mustNewClient(t, db)

	_, _, err := c.Get(context.Background(), "user#u1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Get decode")
}

func TestPut_HappyPath(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)

	err := c.Put(context.Background(), "dialogState#abc", []byte(`{"stack":[]}`))
	require.NoError(t, err)
	require.Equal(t, 1, db.puts)

	item := db.lastPutInput.Item
	require.Equal(t, "test-table", *db.lastPutInput.TableName)
	require.Equal(t, "dialogState#abc", item["PK"].(*types.AttributeValueMemberS).Value)
	require.Equal(t, skState, item["SK"].(*types.AttributeValueMemberS).Value)
	require.Equal(t, []byte(`{"stack":[]}`), item["data"].(*types.AttributeValueMemberB).Value)
	require.Equal(t, "2026-02-25T10:00:00Z", item["updatedAt"].(*types.AttributeValueMemberS).Value)
	require.Equal(t, fmt.Sprintf("%d", fixedNow.Add(defaultTTLDuration).Unix()), item["ttl"].(*types.AttributeValueMemberN).Value)
	require.Nil(t, db.lastPutInput.ConditionExpression)
}

func TestPut_WithoutTTL(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db, WithTTL(0))

	require.NoError(t, c.Put(context.Background(), "user#u1", []byte(`{}`)))
	_, hasTTL := db.lastPutInput.Item["ttl"]
	require.False(t, hasTTL)
}

func TestPut_DynamoError(t *testing.T) {
	db := &fakeDynamo{putErr: errors.New("ProvisionedThroughputExceededException")}
	c := mustNewClient(t, db)

	err := c.Put(context.Background(), "user#u1", []byte(`{}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "repository: Put")
}

func TestPut_MissingKey(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)

	err := c.Put(context.Background(), " ", []byte(`{}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "required")
	require.Zero(t, db.puts)
}

func TestPutThenGet_RoundTripsThroughRecordCodec(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)
	require.NoError(t, c.Put(context.Background(), "user#u1", []byte(`{"userId":"u1"}`)))

	db.getOut = &dynamodb.GetItemOutput{Item: db.lastPutInput.Item}
	blob, ok, err := c.Get(context.Background(), "user#u1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"userId":"u1"}`, string(blob))
}

func TestNew_NilAPI(t *testing.T) {
	_, err := New(nil, "test-table")
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be nil")
}

func TestNew_EmptyTableName(t *testing.T) {
	_, err := New(&fakeDynamo{}, " ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be empty")
}
