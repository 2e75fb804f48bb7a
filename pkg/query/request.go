package query

import (
	"maps"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Operation selects the DynamoDB read call a request is issued with
type Operation string

// Supported read operations
const (
	OperationQuery Operation = "query"
	OperationScan  Operation = "scan"
)

// Valid reports whether op names a supported operation
func (op Operation) Valid() bool {
	return op == OperationQuery || op == OperationScan
}

// Item is a single record as returned by the store
type Item = map[string]types.AttributeValue

// Request is a fully compiled query or scan. Empty fields are left out of the
// rendered SDK input.
type Request struct {
	ExpressionAttributeNames  map[string]string
	ExpressionAttributeValues map[string]types.AttributeValue
	ExclusiveStartKey         map[string]types.AttributeValue
	Limit                     *int32
	ScanIndexForward          *bool
	ConsistentRead            *bool
	Segment                   *int32
	TotalSegments             *int32
	Operation                 Operation
	TableName                 string
	IndexName                 string
	KeyConditionExpression    string
	FilterExpression          string
	ProjectionExpression      string
}

// Clone returns a copy that shares no maps or pointers with r
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	out := *r
	out.ExpressionAttributeNames = maps.Clone(r.ExpressionAttributeNames)
	out.ExpressionAttributeValues = maps.Clone(r.ExpressionAttributeValues)
	out.ExclusiveStartKey = maps.Clone(r.ExclusiveStartKey)
	out.Limit = clonePtr(r.Limit)
	out.ScanIndexForward = clonePtr(r.ScanIndexForward)
	out.ConsistentRead = clonePtr(r.ConsistentRead)
	out.Segment = clonePtr(r.Segment)
	out.TotalSegments = clonePtr(r.TotalSegments)
	return &out
}

func applyRequestReadFields(
	r *Request,
	indexName **string,
	filterExpression **string,
	projectionExpression **string,
	expressionAttributeNames *map[string]string,
	expressionAttributeValues *map[string]types.AttributeValue,
	limit **int32,
	exclusiveStartKey *map[string]types.AttributeValue,
	consistentRead **bool,
) {
	if r.IndexName != "" {
		*indexName = &r.IndexName
	}
	if r.FilterExpression != "" {
		*filterExpression = &r.FilterExpression
	}
	if r.ProjectionExpression != "" {
		*projectionExpression = &r.ProjectionExpression
	}
	if len(r.ExpressionAttributeNames) > 0 {
		*expressionAttributeNames = r.ExpressionAttributeNames
	}
	if len(r.ExpressionAttributeValues) > 0 {
		*expressionAttributeValues = r.ExpressionAttributeValues
	}
	if r.Limit != nil {
		*limit = r.Limit
	}
	if len(r.ExclusiveStartKey) > 0 {
		*exclusiveStartKey = r.ExclusiveStartKey
	}
	if r.ConsistentRead != nil {
		*consistentRead = r.ConsistentRead
	}
}

// QueryInput renders the request as a DynamoDB Query call
func (r *Request) QueryInput() *dynamodb.QueryInput {
	c := r.Clone()
	input := &dynamodb.QueryInput{
		TableName: &c.TableName,
	}

	applyRequestReadFields(
		c,
		&input.IndexName,
		&input.FilterExpression,
		&input.ProjectionExpression,
		&input.ExpressionAttributeNames,
		&input.ExpressionAttributeValues,
		&input.Limit,
		&input.ExclusiveStartKey,
		&input.ConsistentRead,
	)

	if c.KeyConditionExpression != "" {
		input.KeyConditionExpression = &c.KeyConditionExpression
	}
	if c.ScanIndexForward != nil {
		input.ScanIndexForward = c.ScanIndexForward
	}

	return input
}

// ScanInput renders the request as a DynamoDB Scan call. Key condition and
// sort direction do not apply to scans and are dropped.
func (r *Request) ScanInput() *dynamodb.ScanInput {
	c := r.Clone()
	input := &dynamodb.ScanInput{
		TableName: &c.TableName,
	}

	applyRequestReadFields(
		c,
		&input.IndexName,
		&input.FilterExpression,
		&input.ProjectionExpression,
		&input.ExpressionAttributeNames,
		&input.ExpressionAttributeValues,
		&input.Limit,
		&input.ExclusiveStartKey,
		&input.ConsistentRead,
	)

	// Parallel scan
	if c.Segment != nil {
		input.Segment = c.Segment
	}
	if c.TotalSegments != nil {
		input.TotalSegments = c.TotalSegments
	}

	return input
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
