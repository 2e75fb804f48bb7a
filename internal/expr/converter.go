package expr

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	queryErrors "github.com/theory-cloud/tablequery/pkg/errors"
)

// TimestampLayout is the ISO-8601 form dates are stored in: UTC with millisecond precision
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t the way date literals are bound into expressions
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ConvertToAttributeValue converts a Go literal to a DynamoDB AttributeValue.
// Dates become ISO-8601 strings; attribute values pass through unchanged;
// everything else, including types implementing attributevalue.Marshaler, goes
// through the SDK marshaler.
func ConvertToAttributeValue(value any) (types.AttributeValue, error) {
	switch v := value.(type) {
	case nil:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case types.AttributeValue:
		return v, nil
	case time.Time:
		return &types.AttributeValueMemberS{Value: FormatTimestamp(v)}, nil
	case *time.Time:
		if v == nil {
			return &types.AttributeValueMemberNULL{Value: true}, nil
		}
		return &types.AttributeValueMemberS{Value: FormatTimestamp(*v)}, nil
	}

	av, err := attributevalue.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %T: %w", queryErrors.ErrUnsupportedType, value, err)
	}
	return av, nil
}
