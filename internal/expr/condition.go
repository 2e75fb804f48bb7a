package expr

import (
	"fmt"
	"strings"

	queryErrors "github.com/theory-cloud/tablequery/pkg/errors"
)

// MaxInOperands is the largest operand list DynamoDB accepts for IN
const MaxInOperands = 100

// Condition is a boolean-producing expression node. Size deliberately does not
// implement it.
type Condition interface {
	Operand
	condition()
}

// Comparator is one of the binary comparison operators
type Comparator string

// Comparison operators
const (
	Equal          Comparator = "="
	NotEqual       Comparator = "<>"
	Less           Comparator = "<"
	LessOrEqual    Comparator = "<="
	Greater        Comparator = ">"
	GreaterOrEqual Comparator = ">="
)

// Valid reports whether c is a known comparator
func (c Comparator) Valid() bool {
	switch c {
	case Equal, NotEqual, Less, LessOrEqual, Greater, GreaterOrEqual:
		return true
	default:
		return false
	}
}

// Comparison is "{left} {op} {right}"
type Comparison struct {
	Left     Operand
	Right    Operand
	Operator Comparator
}

// Compare builds a comparison between two operands
func Compare(left any, op Comparator, right any) Comparison {
	return Comparison{Left: toOperand(left), Operator: op, Right: toOperand(right)}
}

// Eq builds left = right
func Eq(left, right any) Comparison { return Compare(left, Equal, right) }

// Ne builds left <> right
func Ne(left, right any) Comparison { return Compare(left, NotEqual, right) }

// Lt builds left < right
func Lt(left, right any) Comparison { return Compare(left, Less, right) }

// Le builds left <= right
func Le(left, right any) Comparison { return Compare(left, LessOrEqual, right) }

// Gt builds left > right
func Gt(left, right any) Comparison { return Compare(left, Greater, right) }

// Ge builds left >= right
func Ge(left, right any) Comparison { return Compare(left, GreaterOrEqual, right) }

func (Comparison) condition() {}

func (c Comparison) build(t *Tracker) (string, error) {
	if !c.Operator.Valid() {
		return "", fmt.Errorf("%w: %q", queryErrors.ErrInvalidOperator, string(c.Operator))
	}
	left, err := resolveOperand(t, c.Left)
	if err != nil {
		return "", err
	}
	right, err := resolveOperand(t, c.Right)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %s", left, c.Operator, right), nil
}

// BetweenCond is "{operand} BETWEEN {low} AND {high}"
type BetweenCond struct {
	Operand Operand
	Low     Operand
	High    Operand
}

// Between builds an inclusive range check
func Between(operand, low, high any) BetweenCond {
	return BetweenCond{Operand: toOperand(operand), Low: toOperand(low), High: toOperand(high)}
}

func (BetweenCond) condition() {}

func (c BetweenCond) build(t *Tracker) (string, error) {
	parts, err := resolveAll(t, c.Operand, c.Low, c.High)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s BETWEEN %s AND %s", parts[0], parts[1], parts[2]), nil
}

// BeginsWithCond is "begins_with({operand}, {prefix})"
type BeginsWithCond struct {
	Operand Operand
	Prefix  Operand
}

// BeginsWith builds a prefix match
func BeginsWith(operand, prefix any) BeginsWithCond {
	return BeginsWithCond{Operand: toOperand(operand), Prefix: toOperand(prefix)}
}

func (BeginsWithCond) condition() {}

func (c BeginsWithCond) build(t *Tracker) (string, error) {
	parts, err := resolveAll(t, c.Operand, c.Prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("begins_with(%s, %s)", parts[0], parts[1]), nil
}

// InCond is "{operand} IN ({m1}, {m2}, ...)"
type InCond struct {
	Operand Operand
	Members []Operand
}

// In builds a membership check against between 1 and 100 members
func In(operand any, members ...any) InCond {
	return InCond{Operand: toOperand(operand), Members: toOperands(members)}
}

func (InCond) condition() {}

func (c InCond) build(t *Tracker) (string, error) {
	if len(c.Members) == 0 || len(c.Members) > MaxInOperands {
		return "", fmt.Errorf("%w: got %d members", queryErrors.ErrInvalidInList, len(c.Members))
	}
	operand, err := resolveOperand(t, c.Operand)
	if err != nil {
		return "", err
	}
	members, err := resolveAll(t, c.Members...)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s IN (%s)", operand, strings.Join(members, ", ")), nil
}

// AndCond joins two or more conditions with AND
type AndCond struct {
	Conditions []Condition
}

// And builds "({c1}) AND ({c2}) ..."
func And(conds ...Condition) AndCond {
	return AndCond{Conditions: conds}
}

func (AndCond) condition() {}

func (c AndCond) build(t *Tracker) (string, error) {
	return joinConditions(t, "AND", c.Conditions)
}

// OrCond joins two or more conditions with OR
type OrCond struct {
	Conditions []Condition
}

// Or builds "({c1}) OR ({c2}) ..."
func Or(conds ...Condition) OrCond {
	return OrCond{Conditions: conds}
}

func (OrCond) condition() {}

func (c OrCond) build(t *Tracker) (string, error) {
	return joinConditions(t, "OR", c.Conditions)
}

// NotCond negates a condition
type NotCond struct {
	Condition Condition
}

// Not builds "NOT ({c})"
func Not(cond Condition) NotCond {
	return NotCond{Condition: cond}
}

func (NotCond) condition() {}

func (c NotCond) build(t *Tracker) (string, error) {
	inner, err := t.Compile(c.Condition)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("NOT (%s)", inner), nil
}

// ExistsCond is attribute_exists(path)
type ExistsCond struct {
	Path AttributeName
}

// Exists builds attribute_exists(path)
func Exists(path string) ExistsCond {
	return ExistsCond{Path: Name(path)}
}

func (ExistsCond) condition() {}

func (c ExistsCond) build(t *Tracker) (string, error) {
	path, err := c.Path.build(t)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("attribute_exists(%s)", path), nil
}

// NotExistsCond is attribute_not_exists(path)
type NotExistsCond struct {
	Path AttributeName
}

// NotExists builds attribute_not_exists(path)
func NotExists(path string) NotExistsCond {
	return NotExistsCond{Path: Name(path)}
}

func (NotExistsCond) condition() {}

func (c NotExistsCond) build(t *Tracker) (string, error) {
	path, err := c.Path.build(t)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("attribute_not_exists(%s)", path), nil
}

// AttributeTypeCond is attribute_type(path, code). The type code is bound as a value.
type AttributeTypeCond struct {
	Path     AttributeName
	TypeName string
}

// AttributeType builds attribute_type(path, code) for a logical type name such as "stringSet"
func AttributeType(path, typeName string) AttributeTypeCond {
	return AttributeTypeCond{Path: Name(path), TypeName: typeName}
}

func (AttributeTypeCond) condition() {}

func (c AttributeTypeCond) build(t *Tracker) (string, error) {
	code, err := TypeCode(c.TypeName)
	if err != nil {
		return "", err
	}
	path, err := c.Path.build(t)
	if err != nil {
		return "", err
	}
	value, err := t.ResolveValue(code, "")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("attribute_type(%s, %s)", path, value), nil
}

// ContainsCond is contains(path, operand)
type ContainsCond struct {
	Path    AttributeName
	Operand Operand
}

// Contains builds contains(path, operand)
func Contains(path string, operand any) ContainsCond {
	return ContainsCond{Path: Name(path), Operand: toOperand(operand)}
}

func (ContainsCond) condition() {}

func (c ContainsCond) build(t *Tracker) (string, error) {
	path, err := c.Path.build(t)
	if err != nil {
		return "", err
	}
	operand, err := resolveOperand(t, c.Operand)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("contains(%s, %s)", path, operand), nil
}

func joinConditions(t *Tracker, op string, conds []Condition) (string, error) {
	if len(conds) < 2 {
		return "", fmt.Errorf("%w: %s got %d", queryErrors.ErrTooFewConditions, op, len(conds))
	}
	parts := make([]string, len(conds))
	for i, cond := range conds {
		compiled, err := t.Compile(cond)
		if err != nil {
			return "", err
		}
		parts[i] = "(" + compiled + ")"
	}
	return strings.Join(parts, " "+op+" "), nil
}

func resolveOperand(t *Tracker, op Operand) (string, error) {
	if op == nil {
		// a nil interface operand is the null literal
		return t.ResolveValue(nil, "")
	}
	return op.build(t)
}

func resolveAll(t *Tracker, ops ...Operand) ([]string, error) {
	out := make([]string, len(ops))
	for i, op := range ops {
		s, err := resolveOperand(t, op)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}
