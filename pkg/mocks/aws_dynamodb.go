// Package mocks provides testify mocks for the DynamoDB read calls tablequery issues
package mocks

import (
	"context"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/mock"
)

// MockDynamoDBClient mocks the Query and Scan operations of the AWS DynamoDB client.
//
// Example usage:
//
//	mockClient := new(mocks.MockDynamoDBClient)
//	mockClient.On("Query", mock.Anything, mock.Anything, mock.Anything).
//		Return(mocks.QueryPage(items, lastKey), nil)
//
//	fetcher := query.NewFetcher(mockClient)
type MockDynamoDBClient struct {
	mock.Mock
}

// Query mocks the DynamoDB Query operation
func (m *MockDynamoDBClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, params, optFns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	output, ok := args.Get(0).(*dynamodb.QueryOutput)
	if !ok {
		panic("unexpected type: expected *dynamodb.QueryOutput")
	}
	return output, args.Error(1)
}

// Scan mocks the DynamoDB Scan operation
func (m *MockDynamoDBClient) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	args := m.Called(ctx, params, optFns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	output, ok := args.Get(0).(*dynamodb.ScanOutput)
	if !ok {
		panic("unexpected type: expected *dynamodb.ScanOutput")
	}
	return output, args.Error(1)
}

// QueryPage builds a QueryOutput carrying items and an optional continuation key
func QueryPage(items []map[string]types.AttributeValue, lastKey map[string]types.AttributeValue) *dynamodb.QueryOutput {
	return &dynamodb.QueryOutput{
		Items:            items,
		Count:            int32(len(items)),
		ScannedCount:     int32(len(items)),
		LastEvaluatedKey: lastKey,
	}
}

// ScanPage builds a ScanOutput carrying items and an optional continuation key
func ScanPage(items []map[string]types.AttributeValue, lastKey map[string]types.AttributeValue) *dynamodb.ScanOutput {
	return &dynamodb.ScanOutput{
		Items:            items,
		Count:            int32(len(items)),
		ScannedCount:     int32(len(items)),
		LastEvaluatedKey: lastKey,
	}
}

// Items builds n items with a string "id" attribute numbered from start
func Items(start, n int) []map[string]types.AttributeValue {
	items := make([]map[string]types.AttributeValue, n)
	for i := range items {
		items[i] = map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: "item-" + strconv.Itoa(start+i)},
		}
	}
	return items
}
