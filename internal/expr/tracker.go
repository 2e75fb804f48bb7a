// Package expr compiles condition trees into DynamoDB expression strings and the
// placeholder maps that go with them.
package expr

import (
	"fmt"
	"maps"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	queryErrors "github.com/theory-cloud/tablequery/pkg/errors"
	"github.com/theory-cloud/tablequery/pkg/validation"
)

// DefaultValueAlias prefixes value placeholders that were not given an alias
const DefaultValueAlias = "v_sub"

// Tracker allocates name and value placeholders for a single request build.
// It is not safe for concurrent use.
type Tracker struct {
	names        map[string]string
	derived      map[string]struct{}
	values       map[string]types.AttributeValue
	valueCounter int
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{
		names:   make(map[string]string),
		derived: make(map[string]struct{}),
		values:  make(map[string]types.AttributeValue),
	}
}

// Reset discards every placeholder and restarts value numbering at zero
func (t *Tracker) Reset() {
	clear(t.names)
	clear(t.derived)
	clear(t.values)
	t.valueCounter = 0
}

// ResolveName returns the placeholder path for a dotted attribute path. Each
// segment gets its own "#segment" placeholder; alias, when set, replaces the
// placeholder token of the final segment only. A segment outside
// [A-Za-z0-9_] without an alias gets a derived token ("user-id" becomes
// "#user_id", then "#user_id_1" on collision). Resolving the same path and
// alias twice yields the same placeholder.
func (t *Tracker) ResolveName(path, alias string) (string, error) {
	if err := validation.ValidateAttributePath(path); err != nil {
		return "", fmt.Errorf("%w: %w", queryErrors.ErrInvalidAttributePath, err)
	}
	if alias != "" {
		if err := validation.ValidatePlaceholderToken(alias); err != nil {
			return "", fmt.Errorf("%w: %w", queryErrors.ErrInvalidAttributePath, err)
		}
	}

	segments := strings.Split(path, ".")
	resolved := make([]string, len(segments))
	for i, segment := range segments {
		name, index, err := validation.SplitSegment(segment)
		if err != nil {
			return "", fmt.Errorf("%w: %w", queryErrors.ErrInvalidAttributePath, err)
		}

		var placeholder string
		switch {
		case alias != "" && i == len(segments)-1:
			placeholder, err = t.bindName("#"+alias, name, false)
		case validation.ValidatePlaceholderToken(name) != nil:
			placeholder = t.bindDerived(validation.SanitizePlaceholderToken(name), name)
		default:
			placeholder, err = t.bindName("#"+name, name, true)
		}
		if err != nil {
			return "", err
		}
		resolved[i] = placeholder + index
	}

	return strings.Join(resolved, "."), nil
}

// bindName binds placeholder to name. When yield is set, a placeholder already
// taken by a derived token moves name to a derived one instead; any other
// binding to a different name is a conflict.
func (t *Tracker) bindName(placeholder, name string, yield bool) (string, error) {
	bound, ok := t.names[placeholder]
	switch {
	case !ok:
		t.names[placeholder] = name
	case bound == name:
	default:
		if _, derived := t.derived[placeholder]; !derived || !yield {
			return "", fmt.Errorf("%w: %s", queryErrors.ErrPlaceholderConflict, placeholder)
		}
		return t.bindDerived(placeholder[1:], name), nil
	}
	return placeholder, nil
}

// bindDerived binds name to "#token", or to the first free "#token_N"
func (t *Tracker) bindDerived(token, name string) string {
	placeholder := "#" + token
	for n := 1; ; n++ {
		bound, ok := t.names[placeholder]
		if !ok {
			t.names[placeholder] = name
			t.derived[placeholder] = struct{}{}
			return placeholder
		}
		if bound == name {
			return placeholder
		}
		placeholder = fmt.Sprintf("#%s_%d", token, n)
	}
}

// ResolveValue converts value and binds it to a fresh ":alias<N>" placeholder.
// Identical literals are never shared between placeholders.
func (t *Tracker) ResolveValue(value any, alias string) (string, error) {
	if alias == "" {
		alias = DefaultValueAlias
	} else if err := validation.ValidatePlaceholderToken(alias); err != nil {
		return "", fmt.Errorf("%w: %w", queryErrors.ErrInvalidAttributePath, err)
	}

	av, err := ConvertToAttributeValue(value)
	if err != nil {
		return "", err
	}

	placeholder := fmt.Sprintf(":%s%d", alias, t.valueCounter)
	t.valueCounter++
	t.values[placeholder] = av
	return placeholder, nil
}

// Resolve compiles any operand. Conditions and Size nodes compile to their
// expression text, attribute names to placeholder paths, and anything else is
// bound as a literal value.
func (t *Tracker) Resolve(operand any) (string, error) {
	return toOperand(operand).build(t)
}

// Compile renders a condition tree against the tracker
func (t *Tracker) Compile(cond Condition) (string, error) {
	if cond == nil {
		return "", queryErrors.ErrNilCondition
	}
	return cond.build(t)
}

// Names returns a copy of the name placeholder map, or nil when no names were resolved
func (t *Tracker) Names() map[string]string {
	if len(t.names) == 0 {
		return nil
	}
	return maps.Clone(t.names)
}

// Values returns a copy of the value placeholder map, or nil when no values were bound
func (t *Tracker) Values() map[string]types.AttributeValue {
	if len(t.values) == 0 {
		return nil
	}
	return maps.Clone(t.values)
}
