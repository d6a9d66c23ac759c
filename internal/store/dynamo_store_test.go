package store

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDynamo struct {
	getOut       *dynamodb.GetItemOutput
	getErr       error
	putErr       error
	lastGetInput *dynamodb.GetItemInput
	puts         []*dynamodb.PutItemInput
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.lastGetInput = in
	return f.getOut, f.getErr
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts = append(f.puts, in)
	return &dynamodb.PutItemOutput{}, f.putErr
}

func TestNewDynamoStateStore_Validation(t *testing.T) {
	_, err := NewDynamoStateStore(nil, "t", "p", "")
	require.Error(t, err)
	_, err = NewDynamoStateStore(&fakeDynamo{}, " ", "p", "")
	require.Error(t, err)
	_, err = NewDynamoStateStore(&fakeDynamo{}, "t", "", "")
	require.Error(t, err)
}

func TestDynamoStateStore_SaveThenLoad(t *testing.T) {
	db := &fakeDynamo{}
	s, err := NewDynamoStateStore(db, "sessions", "default", "")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.SaveSessionState(ctx, sampleState()))
	require.Len(t, db.puts, 1)
	put := db.puts[0]
	assert.Equal(t, "sessions", *put.TableName)
	assert.Equal(t, "SESSION#default", put.Item["PK"].(*types.AttributeValueMemberS).Value)
	assert.Equal(t, "1", put.Item["users"].(*types.AttributeValueMemberN).Value)

	db.getOut = &dynamodb.GetItemOutput{Item: put.Item}
	got, ok, err := s.LoadSessionState(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleState(), got)
	assert.True(t, *db.lastGetInput.ConsistentRead)
}

func TestDynamoStateStore_EachSaveIsAPut(t *testing.T) {
	db := &fakeDynamo{}
	s, err := NewDynamoStateStore(db, "sessions", "default", "")
	require.NoError(t, err)

	require.NoError(t, s.SaveSessionState(context.Background(), sampleState()))
	require.NoError(t, s.SaveSessionState(context.Background(), sampleState()))
	assert.Len(t, db.puts, 2)
}

func TestDynamoStateStore_LoadMissingAndErrors(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{}}
	s, err := NewDynamoStateStore(db, "sessions", "default", "")
	require.NoError(t, err)

	_, ok, err := s.LoadSessionState(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	db.getOut = &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"state": &types.AttributeValueMemberS{Value: "wrong type"},
	}}
	_, ok, err = s.LoadSessionState(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	db.getErr = errors.New("throttled")
	_, _, err = s.LoadSessionState(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")

	db.putErr = errors.New("denied")
	err = s.SaveSessionState(context.Background(), sampleState())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store: put session state")
}
