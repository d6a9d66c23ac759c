package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"pushchat/internal/domain"
)

const skState = "STATE"

// dynamodbAPI is the minimal DynamoDB interface required by DynamoStateStore.
// *dynamodb.Client satisfies it.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoStateStore persists the session state as one DynamoDB item per profile.
type DynamoStateStore struct {
	api       dynamodbAPI
	tableName string
	profile   string
	codec     snapshotCodec
}

// NewDynamoStateStore validates its arguments and returns a store for profile.
func NewDynamoStateStore(api dynamodbAPI, tableName, profile, passphrase string) (*DynamoStateStore, error) {
	if api == nil {
		return nil, errors.New("store: dynamodb api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("store: table name must not be empty")
	}
	if strings.TrimSpace(profile) == "" {
		return nil, errors.New("store: profile must not be empty")
	}
	return &DynamoStateStore{
		api:       api,
		tableName: tableName,
		profile:   strings.TrimSpace(profile),
		codec:     newSnapshotCodec(passphrase),
	}, nil
}

func sessionPK(profile string) string { return "SESSION#" + profile }

func (s *DynamoStateStore) key() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: sessionPK(s.profile)},
		"SK": &types.AttributeValueMemberS{Value: skState},
	}
}

// SaveSessionState replaces the stored item with a full snapshot.
func (s *DynamoStateStore) SaveSessionState(ctx context.Context, state domain.SessionState) error {
	b, err := s.codec.encode(state)
	if err != nil {
		return fmt.Errorf("store: encode session state: %w", err)
	}
	item := s.key()
	item["state"] = &types.AttributeValueMemberB{Value: b}
	item["users"] = &types.AttributeValueMemberN{Value: strconv.Itoa(len(state.Users))}
	item["updatedAt"] = &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)}

	if _, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("store: put session state: %w", err)
	}
	return nil
}

// LoadSessionState reads the item with a consistent read.
func (s *DynamoStateStore) LoadSessionState(ctx context.Context) (domain.SessionState, bool, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.key(),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.SessionState{}, false, fmt.Errorf("store: get session state: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.SessionState{}, false, nil
	}
	v, ok := out.Item["state"].(*types.AttributeValueMemberB)
	if !ok {
		return s.codec.decode(s.tableName, nil)
	}
	return s.codec.decode(s.tableName, v.Value)
}

// Compile-time assertion that DynamoStateStore implements domain.StateSink.
var _ domain.StateSink = (*DynamoStateStore)(nil)
