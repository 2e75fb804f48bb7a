package query

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/theory-cloud/tablequery/internal/expr"
	queryErrors "github.com/theory-cloud/tablequery/pkg/errors"
)

// Sort directions accepted by Pagination.Sort
const (
	SortAscending  = "asc"
	SortDescending = "desc"
)

// KeyParams names the key attributes of the table or index being read and the
// values to match. SortCondition is used instead of SortKeyValue for range reads.
type KeyParams struct {
	PartitionKeyValue any
	SortKeyValue      any
	SortCondition     Condition
	PartitionKeyName  string
	SortKeyName       string
}

// hasPartitionKey treats an empty string value as missing; DynamoDB rejects empty key values.
func (k *KeyParams) hasPartitionKey() bool {
	return k != nil && k.PartitionKeyName != "" && k.PartitionKeyValue != nil && k.PartitionKeyValue != ""
}

// Pagination controls page size, sort direction and where to resume
type Pagination struct {
	StartKey map[string]types.AttributeValue
	Sort     string
	Cursor   string
	Limit    int32
}

func (p Pagination) validate() error {
	switch p.Sort {
	case "", SortAscending, SortDescending:
	default:
		return fmt.Errorf("%w: %q", queryErrors.ErrInvalidSortDirection, p.Sort)
	}
	if len(p.StartKey) > 0 && p.Cursor != "" {
		return queryErrors.ErrConflictingStartKey
	}
	return nil
}

func (p Pagination) startKey() (map[string]types.AttributeValue, error) {
	if len(p.StartKey) > 0 {
		return p.StartKey, nil
	}
	if p.Cursor == "" {
		return nil, nil
	}
	cursor, err := DecodeCursor(p.Cursor)
	if err != nil {
		return nil, err
	}
	return cursor.ToAttributeValues()
}

// ScanSegment selects one segment of a parallel scan
type ScanSegment struct {
	Segment       int32
	TotalSegments int32
}

// Params describes a read request in one value. Build compiles it; the zero
// value of every field means "not set".
type Params struct {
	Keys             *KeyParams
	Filter           map[string][]any
	FilterExpression Condition
	Raw              *Request
	Segment          *ScanSegment
	Table            string
	Index            string
	Fields           []string
	Pagination       Pagination
	ConsistentRead   bool
}

// Build compiles p into a request for op
func (p Params) Build(op Operation) (*Request, error) {
	return p.compile(op, expr.NewTracker())
}

func (p Params) validate(op Operation) error {
	if !op.Valid() {
		return fmt.Errorf("%w: %q", queryErrors.ErrUnsupportedOperation, string(op))
	}
	if p.Filter != nil && p.FilterExpression != nil {
		return queryErrors.ErrFilterAlreadySet
	}
	if op == OperationQuery && !p.Keys.hasPartitionKey() {
		return queryErrors.ErrMissingPartitionKey
	}
	if p.Keys != nil && p.Keys.SortCondition != nil {
		if err := expr.ValidateKeyCondition(p.Keys.SortCondition); err != nil {
			return err
		}
	}
	return p.Pagination.validate()
}

func (p Params) compile(op Operation, tracker *expr.Tracker) (*Request, error) {
	if op == "" {
		op = OperationQuery
	}
	tracker.Reset()

	if err := p.validate(op); err != nil {
		return nil, queryErrors.NewError("Build", p.Table, err)
	}

	req := &Request{}
	if p.Raw != nil {
		req = p.Raw.Clone()
	}
	req.Operation = op
	if p.Table != "" {
		req.TableName = p.Table
	}
	if req.TableName == "" {
		return nil, queryErrors.NewError("Build", p.Table, queryErrors.ErrMissingTableName)
	}

	steps := []struct {
		apply func(*Request, *expr.Tracker) error
		name  string
	}{
		{name: "keys", apply: p.applyKeyCondition},
		{name: "index", apply: p.applyIndex},
		{name: "filter", apply: p.applyFilter},
		{name: "projection", apply: p.applyProjection},
		{name: "pagination", apply: p.applyPagination},
		{name: "read options", apply: p.applyReadOptions},
	}
	for _, step := range steps {
		if err := step.apply(req, tracker); err != nil {
			return nil, queryErrors.NewError("Build", req.TableName, fmt.Errorf("%s: %w", step.name, err))
		}
	}

	if names := tracker.Names(); names != nil {
		req.ExpressionAttributeNames = names
	}
	if values := tracker.Values(); values != nil {
		req.ExpressionAttributeValues = values
	}
	return req, nil
}

func (p Params) applyKeyCondition(req *Request, tracker *expr.Tracker) error {
	if req.Operation != OperationQuery {
		return nil
	}

	keys := p.Keys
	cond := expr.Condition(expr.Eq(expr.Name(keys.PartitionKeyName), keys.PartitionKeyValue))
	switch {
	case keys.SortKeyName != "" && keys.SortKeyValue != nil:
		cond = expr.And(cond, expr.Eq(expr.Name(keys.SortKeyName), keys.SortKeyValue))
	case keys.SortCondition != nil:
		cond = expr.And(cond, keys.SortCondition)
	}

	compiled, err := tracker.Compile(cond)
	if err != nil {
		return err
	}
	req.KeyConditionExpression = compiled
	return nil
}

func (p Params) applyIndex(req *Request, _ *expr.Tracker) error {
	if p.Index != "" {
		req.IndexName = p.Index
	}
	return nil
}

func (p Params) applyFilter(req *Request, tracker *expr.Tracker) error {
	var cond Condition
	switch {
	case p.Filter != nil:
		compiled, err := filterFromMap(p.Filter)
		if err != nil {
			return err
		}
		cond = compiled
	case p.FilterExpression != nil:
		cond = p.FilterExpression
	default:
		return nil
	}

	compiled, err := tracker.Compile(cond)
	if err != nil {
		return err
	}
	req.FilterExpression = compiled
	return nil
}

// applyProjection always adds the key attributes; DynamoDB rejects a projection
// that names the same attribute twice.
func (p Params) applyProjection(req *Request, tracker *expr.Tracker) error {
	if len(p.Fields) == 0 {
		return nil
	}

	fields := slices.Clone(p.Fields)
	if p.Keys != nil {
		if p.Keys.PartitionKeyName != "" {
			fields = append(fields, p.Keys.PartitionKeyName)
		}
		if p.Keys.SortKeyName != "" {
			fields = append(fields, p.Keys.SortKeyName)
		}
	}

	placeholders := make([]string, 0, len(fields))
	for _, field := range fields {
		placeholder, err := tracker.ResolveName(field, "")
		if err != nil {
			return err
		}
		if !slices.Contains(placeholders, placeholder) {
			placeholders = append(placeholders, placeholder)
		}
	}
	req.ProjectionExpression = strings.Join(placeholders, ", ")
	return nil
}

func (p Params) applyPagination(req *Request, _ *expr.Tracker) error {
	page := p.Pagination
	if page.Limit > 0 {
		limit := page.Limit
		req.Limit = &limit
	}
	if page.Sort == SortDescending {
		forward := false
		req.ScanIndexForward = &forward
	}

	startKey, err := page.startKey()
	if err != nil {
		return err
	}
	if len(startKey) > 0 {
		req.ExclusiveStartKey = startKey
	}
	return nil
}

func (p Params) applyReadOptions(req *Request, _ *expr.Tracker) error {
	if p.ConsistentRead {
		consistent := true
		req.ConsistentRead = &consistent
	}
	if p.Segment != nil {
		segment, total := p.Segment.Segment, p.Segment.TotalSegments
		req.Segment = &segment
		req.TotalSegments = &total
	}
	return nil
}

// Builder stages a request one call at a time. The first failing call is
// recorded, leaves the builder unchanged, and is returned by Err and Build.
// A Builder is not safe for concurrent use.
type Builder struct {
	builderErr error
	tracker    *expr.Tracker
	params     Params
}

// NewBuilder starts a request against table
func NewBuilder(table string) *Builder {
	return &Builder{
		params:  Params{Table: table},
		tracker: expr.NewTracker(),
	}
}

// WithIndex selects a secondary index. It may be called once.
func (b *Builder) WithIndex(name string) *Builder {
	if b.params.Index != "" {
		b.recordBuilderError("WithIndex", queryErrors.ErrIndexAlreadySet)
		return b
	}
	b.params.Index = name
	return b
}

// WithKeys sets the key attributes and values. It may be called once.
func (b *Builder) WithKeys(keys KeyParams) *Builder {
	if b.params.Keys != nil {
		b.recordBuilderError("WithKeys", queryErrors.ErrKeysAlreadySet)
		return b
	}
	if keys.SortCondition != nil {
		if err := expr.ValidateKeyCondition(keys.SortCondition); err != nil {
			b.recordBuilderError("WithKeys", err)
			return b
		}
	}
	b.params.Keys = &keys
	return b
}

// WithFields sets the projection. Each call replaces the previous field list.
func (b *Builder) WithFields(fields ...string) *Builder {
	b.params.Fields = slices.Clone(fields)
	return b
}

// WithFilter filters on field equality: values of one field are OR'd, fields are AND'd
func (b *Builder) WithFilter(filter map[string][]any) *Builder {
	if b.hasFilter() {
		b.recordBuilderError("WithFilter", queryErrors.ErrFilterAlreadySet)
		return b
	}
	if _, err := filterFromMap(filter); err != nil {
		b.recordBuilderError("WithFilter", err)
		return b
	}
	b.params.Filter = filter
	return b
}

// WithFilterExpression filters with an arbitrary condition tree
func (b *Builder) WithFilterExpression(cond Condition) *Builder {
	if b.hasFilter() {
		b.recordBuilderError("WithFilterExpression", queryErrors.ErrFilterAlreadySet)
		return b
	}
	if cond == nil {
		b.recordBuilderError("WithFilterExpression", queryErrors.ErrNilCondition)
		return b
	}
	b.params.FilterExpression = cond
	return b
}

// WithPagination sets limit, sort direction and resume point
func (b *Builder) WithPagination(page Pagination) *Builder {
	if err := page.validate(); err != nil {
		b.recordBuilderError("WithPagination", err)
		return b
	}
	if page.Cursor != "" {
		if _, err := page.startKey(); err != nil {
			b.recordBuilderError("WithPagination", err)
			return b
		}
	}
	b.params.Pagination = page
	return b
}

// WithConsistentRead requests strongly consistent reads
func (b *Builder) WithConsistentRead() *Builder {
	b.params.ConsistentRead = true
	return b
}

// WithSegment restricts a scan to one segment of a parallel scan
func (b *Builder) WithSegment(segment, totalSegments int32) *Builder {
	b.params.Segment = &ScanSegment{Segment: segment, TotalSegments: totalSegments}
	return b
}

// WithRaw supplies request fields applied before everything else; any field the
// builder computes replaces the raw one.
func (b *Builder) WithRaw(raw Request) *Builder {
	b.params.Raw = raw.Clone()
	return b
}

// Params returns a copy of the staged parameters
func (b *Builder) Params() Params {
	out := b.params
	out.Fields = slices.Clone(b.params.Fields)
	if b.params.Keys != nil {
		keys := *b.params.Keys
		out.Keys = &keys
	}
	if b.params.Filter != nil {
		out.Filter = make(map[string][]any, len(b.params.Filter))
		for field, values := range b.params.Filter {
			out.Filter[field] = slices.Clone(values)
		}
	}
	out.Pagination.StartKey = maps.Clone(b.params.Pagination.StartKey)
	out.Raw = b.params.Raw.Clone()
	return out
}

// Err returns the first staging error, if any
func (b *Builder) Err() error {
	return b.builderErr
}

// Build compiles the staged request for op, which defaults to query. The builder
// stays usable; building twice yields identical requests.
func (b *Builder) Build(op Operation) (*Request, error) {
	if b.builderErr != nil {
		return nil, b.builderErr
	}
	return b.params.compile(op, b.tracker)
}

func (b *Builder) hasFilter() bool {
	return b.params.Filter != nil || b.params.FilterExpression != nil
}

// recordBuilderError keeps the first error only
func (b *Builder) recordBuilderError(op string, err error) {
	if err != nil && b.builderErr == nil {
		b.builderErr = queryErrors.NewError(op, b.params.Table, err)
	}
}
