package expr

import (
	"fmt"

	queryErrors "github.com/theory-cloud/tablequery/pkg/errors"
)

// Attribute type codes accepted by attribute_type()
var typeCodes = map[string]string{
	"string":    "S",
	"stringSet": "SS",
	"number":    "N",
	"numberSet": "NS",
	"binary":    "B",
	"binarySet": "BS",
	"boolean":   "BOOL",
	"null":      "NULL",
	"list":      "L",
	"map":       "M",
}

// LegacyNumberSetCode is the code older clients emitted for number sets. DynamoDB
// rejects it; TypeCode returns "NS".
const LegacyNumberSetCode = "NN"

// TypeCode maps a logical type name to its DynamoDB type code
func TypeCode(typeName string) (string, error) {
	code, ok := typeCodes[typeName]
	if !ok {
		return "", fmt.Errorf("%w: %q", queryErrors.ErrUnknownAttributeType, typeName)
	}
	return code, nil
}

// ValidateKeyCondition checks that cond is a single sort key condition DynamoDB
// accepts next to the partition key equality: a comparison other than <>,
// BETWEEN, or begins_with. AND is rejected since the partition key equality is
// the only other term a key condition may carry.
func ValidateKeyCondition(cond Condition) error {
	switch c := cond.(type) {
	case nil:
		return queryErrors.ErrNilCondition
	case Comparison:
		if c.Operator == NotEqual {
			return fmt.Errorf("%w: <> is not allowed on keys", queryErrors.ErrInvalidKeyCondition)
		}
		if !c.Operator.Valid() {
			return fmt.Errorf("%w: %q", queryErrors.ErrInvalidOperator, string(c.Operator))
		}
		return nil
	case BetweenCond, BeginsWithCond:
		return nil
	case AndCond:
		return fmt.Errorf("%w: sort key condition cannot be an AND", queryErrors.ErrInvalidKeyCondition)
	default:
		return fmt.Errorf("%w: %T", queryErrors.ErrInvalidKeyCondition, cond)
	}
}
