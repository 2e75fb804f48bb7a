package query

import (
	"fmt"
	"slices"

	"github.com/theory-cloud/tablequery/internal/expr"
	queryErrors "github.com/theory-cloud/tablequery/pkg/errors"
)

// filterFromMap turns {field: [values]} into a condition. One value is an
// equality, several are an OR of equalities, and several fields are AND'd in
// field-name order. A single field is returned without the AND wrapper.
func filterFromMap(filter map[string][]any) (Condition, error) {
	if len(filter) == 0 {
		return nil, fmt.Errorf("%w: no fields", queryErrors.ErrEmptyFilterValues)
	}

	fields := make([]string, 0, len(filter))
	for field := range filter {
		fields = append(fields, field)
	}
	slices.Sort(fields)

	conds := make([]Condition, 0, len(fields))
	for _, field := range fields {
		values := filter[field]
		switch len(values) {
		case 0:
			return nil, fmt.Errorf("%w: %s", queryErrors.ErrEmptyFilterValues, field)
		case 1:
			conds = append(conds, expr.Eq(expr.Name(field), values[0]))
		default:
			alternatives := make([]Condition, len(values))
			for i, v := range values {
				alternatives[i] = expr.Eq(expr.Name(field), v)
			}
			conds = append(conds, expr.Or(alternatives...))
		}
	}

	if len(conds) == 1 {
		return conds[0], nil
	}
	return expr.And(conds...), nil
}
