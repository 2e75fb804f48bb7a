// Package errors defines error types and utilities for tablequery
package errors

import (
	"errors"
	"fmt"
)

// Builder configuration errors. These are raised while staging a request or at Build
// and always indicate a malformed request assembly.
var (
	// ErrIndexAlreadySet is returned when a secondary index is selected more than once
	ErrIndexAlreadySet = errors.New("index already set")

	// ErrKeysAlreadySet is returned when key parameters are supplied more than once
	ErrKeysAlreadySet = errors.New("keys already set")

	// ErrFilterAlreadySet is returned when a second filter mechanism is staged on one request
	ErrFilterAlreadySet = errors.New("filter already set")

	// ErrMissingPartitionKey is returned when a query is built without a partition key name and value
	ErrMissingPartitionKey = errors.New("missing partition key")

	// ErrMissingTableName is returned when a request has no table to target
	ErrMissingTableName = errors.New("missing table name")

	// ErrEmptyFilterValues is returned when a simple filter field has no values to match
	ErrEmptyFilterValues = errors.New("filter field has no values")

	// ErrInvalidSortDirection is returned for a sort direction other than asc or desc
	ErrInvalidSortDirection = errors.New("invalid sort direction")

	// ErrConflictingStartKey is returned when both a raw start key and an encoded cursor are supplied
	ErrConflictingStartKey = errors.New("start key and cursor are mutually exclusive")

	// ErrInvalidCursor is returned when a continuation cursor cannot be decoded
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrInvalidKeyCondition is returned when a sort key condition uses a form the store
	// does not accept in a key condition expression
	ErrInvalidKeyCondition = errors.New("invalid key condition")

	// ErrUnsupportedOperation is returned for an operation other than query or scan
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrNilRequest is returned when the fetch engine is handed a nil request
	ErrNilRequest = errors.New("request cannot be nil")
)

// Catalog lookup errors.
var (
	// ErrTableNotFound is returned when a table is not defined in the catalog
	ErrTableNotFound = errors.New("table not found")

	// ErrIndexNotFound is returned when an index is not defined on a catalog table
	ErrIndexNotFound = errors.New("index not found")
)

// Expression structural errors.
var (
	// ErrTooFewConditions is returned when And/Or is compiled with fewer than two members
	ErrTooFewConditions = errors.New("logical operator requires at least two conditions")

	// ErrNilCondition is returned when a nil condition is embedded in an expression
	ErrNilCondition = errors.New("condition cannot be nil")

	// ErrInvalidInList is returned when IN is compiled with zero or more than 100 members
	ErrInvalidInList = errors.New("invalid IN operand list")

	// ErrInvalidOperator is returned when a comparison uses an unknown comparator
	ErrInvalidOperator = errors.New("invalid comparison operator")

	// ErrInvalidAttributePath is returned when an attribute path fails validation
	ErrInvalidAttributePath = errors.New("invalid attribute path")

	// ErrPlaceholderConflict is returned when one name placeholder would stand for two different attributes
	ErrPlaceholderConflict = errors.New("placeholder already bound to a different attribute")

	// ErrUnsupportedType is returned when a literal cannot be converted to an attribute value
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrUnknownAttributeType is returned for an attribute_type check on an unknown type name
	ErrUnknownAttributeType = errors.New("unknown attribute type")
)

var builderErrors = []error{
	ErrIndexAlreadySet,
	ErrKeysAlreadySet,
	ErrFilterAlreadySet,
	ErrMissingPartitionKey,
	ErrMissingTableName,
	ErrEmptyFilterValues,
	ErrInvalidSortDirection,
	ErrConflictingStartKey,
	ErrInvalidCursor,
	ErrInvalidKeyCondition,
	ErrUnsupportedOperation,
	ErrNilRequest,
}

var expressionErrors = []error{
	ErrTooFewConditions,
	ErrNilCondition,
	ErrInvalidInList,
	ErrInvalidOperator,
	ErrInvalidAttributePath,
	ErrPlaceholderConflict,
	ErrUnsupportedType,
	ErrUnknownAttributeType,
}

// QueryError records the builder stage that rejected a request
type QueryError struct {
	Err   error
	Op    string
	Table string
}

// Error implements the error interface
func (e *QueryError) Error() string {
	if e == nil {
		return "tablequery: query error"
	}
	if e.Err == nil {
		return fmt.Sprintf("tablequery: %s failed", e.Op)
	}
	return fmt.Sprintf("tablequery: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *QueryError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError creates a new QueryError
func NewError(op, table string, err error) *QueryError {
	return &QueryError{
		Op:    op,
		Table: table,
		Err:   err,
	}
}

// IsBuilderError reports whether err is a builder configuration error
func IsBuilderError(err error) bool {
	return matchesAny(err, builderErrors)
}

// IsExpressionError reports whether err is an expression structural error
func IsExpressionError(err error) bool {
	return matchesAny(err, expressionErrors)
}

// IsMissingPartitionKey checks if a query was built without its partition key
func IsMissingPartitionKey(err error) bool {
	return errors.Is(err, ErrMissingPartitionKey)
}

func matchesAny(err error, targets []error) bool {
	if err == nil {
		return false
	}
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
