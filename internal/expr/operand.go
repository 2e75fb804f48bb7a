package expr

import (
	"fmt"
)

// Operand is any node the tracker can resolve into expression text. The set of
// operands is closed: attribute names, literal values, size() and conditions.
type Operand interface {
	build(t *Tracker) (string, error)
}

// AttributeName references a stored attribute by dotted path, e.g. "parent.child"
type AttributeName struct {
	Path  string
	Alias string
}

// Name references the attribute at path
func Name(path string) AttributeName {
	return AttributeName{Path: path}
}

// NameAs references the attribute at path under an explicit placeholder token
func NameAs(path, alias string) AttributeName {
	return AttributeName{Path: path, Alias: alias}
}

func (n AttributeName) build(t *Tracker) (string, error) {
	return t.ResolveName(n.Path, n.Alias)
}

// Value is a literal bound through a value placeholder
type Value struct {
	Literal any
	Alias   string
}

// ValueOf wraps a literal. Plain Go values passed as operands are wrapped automatically.
func ValueOf(v any) Value {
	return Value{Literal: v}
}

// ValueAs wraps a literal whose placeholder uses alias instead of the default prefix
func ValueAs(v any, alias string) Value {
	return Value{Literal: v, Alias: alias}
}

func (v Value) build(t *Tracker) (string, error) {
	return t.ResolveValue(v.Literal, v.Alias)
}

// Size is the size() function. It produces a number, so it can be compared but
// never used where a condition is expected.
type Size struct {
	Path AttributeName
}

// SizeOf builds size(path)
func SizeOf(path string) Size {
	return Size{Path: Name(path)}
}

func (s Size) build(t *Tracker) (string, error) {
	path, err := s.Path.build(t)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("size(%s)", path), nil
}

func toOperand(v any) Operand {
	if op, ok := v.(Operand); ok {
		return op
	}
	return Value{Literal: v}
}

func toOperands(values []any) []Operand {
	ops := make([]Operand, len(values))
	for i, v := range values {
		ops[i] = toOperand(v)
	}
	return ops
}
