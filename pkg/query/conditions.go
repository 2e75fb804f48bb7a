package query

import (
	"github.com/theory-cloud/tablequery/internal/expr"
)

// Condition tree types, re-exported so callers outside this module can build filters
// and sort key conditions.
type (
	Condition     = expr.Condition
	Operand       = expr.Operand
	Comparator    = expr.Comparator
	AttributeName = expr.AttributeName
	Value         = expr.Value
	Size          = expr.Size
)

// Comparison operators
const (
	Equal          = expr.Equal
	NotEqual       = expr.NotEqual
	Less           = expr.Less
	LessOrEqual    = expr.LessOrEqual
	Greater        = expr.Greater
	GreaterOrEqual = expr.GreaterOrEqual
)

// Condition constructors
var (
	Name          = expr.Name
	NameAs        = expr.NameAs
	ValueOf       = expr.ValueOf
	ValueAs       = expr.ValueAs
	SizeOf        = expr.SizeOf
	Compare       = expr.Compare
	Eq            = expr.Eq
	Ne            = expr.Ne
	Lt            = expr.Lt
	Le            = expr.Le
	Gt            = expr.Gt
	Ge            = expr.Ge
	Between       = expr.Between
	BeginsWith    = expr.BeginsWith
	In            = expr.In
	And           = expr.And
	Or            = expr.Or
	Not           = expr.Not
	Exists        = expr.Exists
	NotExists     = expr.NotExists
	AttributeType = expr.AttributeType
	Contains      = expr.Contains
)
