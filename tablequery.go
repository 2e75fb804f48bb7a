// Package tablequery compiles DynamoDB query and scan requests and fetches
// their results page by page.
//
// Import path:
//
//	import "github.com/theory-cloud/tablequery"
//
// Request assembly lives in `pkg/query`; this package ties a client, a table
// catalog, logging and metrics together.
package tablequery

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	queryErrors "github.com/theory-cloud/tablequery/pkg/errors"
	"github.com/theory-cloud/tablequery/pkg/metrics"
	"github.com/theory-cloud/tablequery/pkg/query"
	"github.com/theory-cloud/tablequery/pkg/session"
	"github.com/theory-cloud/tablequery/pkg/tables"
)

// Re-export types for convenience.
type (
	Config  = session.Config
	Catalog = tables.Catalog
	Request = query.Request
	Page    = query.Page
	Item    = query.Item
)

// Option configures a DB
type Option func(*options)

type options struct {
	catalog   *tables.Catalog
	collector *metrics.Collector
	logger    zerolog.Logger
}

// WithLogger sets the logger used by the fetch engine
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics records store calls and pages on collector
func WithMetrics(collector *metrics.Collector) Option {
	return func(o *options) {
		o.collector = collector
	}
}

// WithCatalog sets the table catalog that Table resolves names against
func WithCatalog(catalog *tables.Catalog) Option {
	return func(o *options) {
		o.catalog = catalog
	}
}

// DB issues compiled requests against one DynamoDB client
type DB struct {
	session *session.Session
	fetcher *query.Fetcher
	catalog *tables.Catalog
}

// New builds a session from cfg and returns a DB over its client
func New(ctx context.Context, cfg Config, opts ...Option) (*DB, error) {
	sess, err := session.NewSession(ctx, &cfg)
	if err != nil {
		return nil, err
	}
	client, err := sess.Client()
	if err != nil {
		return nil, err
	}

	db := NewWithClient(client, opts...)
	db.session = sess
	return db, nil
}

// NewWithClient returns a DB over an existing client
func NewWithClient(client query.DynamoDBAPI, opts ...Option) *DB {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	fetcherOpts := []query.FetcherOption{query.WithLogger(o.logger)}
	if o.collector != nil {
		fetcherOpts = append(fetcherOpts, query.WithRecorder(o.collector))
	}

	return &DB{
		fetcher: query.NewFetcher(client, fetcherOpts...),
		catalog: o.catalog,
	}
}

// Session returns the session the DB was built from, or nil for NewWithClient
func (db *DB) Session() *session.Session {
	return db.session
}

// Fetcher returns the underlying fetch engine, for use with query.FetchAllInto
// and query.FetchPageInto.
func (db *DB) Fetcher() *query.Fetcher {
	return db.fetcher
}

// FetchPage returns one page of results for req
func (db *DB) FetchPage(ctx context.Context, req *Request) (*Page, error) {
	return db.fetcher.FetchPage(ctx, req)
}

// FetchAll returns every result for req, up to its limit
func (db *DB) FetchAll(ctx context.Context, req *Request) ([]Item, error) {
	return db.fetcher.FetchAll(ctx, req)
}

// Table returns a handle for a catalog table
func (db *DB) Table(name string) (*Table, error) {
	if db.catalog == nil {
		return nil, fmt.Errorf("%w: %s (no catalog configured)", queryErrors.ErrTableNotFound, name)
	}
	def, err := db.catalog.Table(name)
	if err != nil {
		return nil, err
	}
	return &Table{def: def}, nil
}

// Table starts builders with the table name and key attribute names filled in
type Table struct {
	def *tables.TableDefinition
}

// Name returns the table name
func (t *Table) Name() string {
	return t.def.Name
}

// Query starts a query on the table, or on index when it is non-empty, with
// the partition key bound to pkValue. A non-nil skValue adds a sort key
// equality condition.
func (t *Table) Query(index string, pkValue, skValue any) (*query.Builder, error) {
	keys, err := t.def.Keys(index)
	if err != nil {
		return nil, err
	}

	params := query.KeyParams{
		PartitionKeyName:  keys.PartitionKey,
		PartitionKeyValue: pkValue,
	}
	if skValue != nil {
		if keys.SortKey == "" {
			return nil, fmt.Errorf("%w: %s has no sort key", queryErrors.ErrInvalidKeyCondition, t.keySchemaName(index))
		}
		params.SortKeyName = keys.SortKey
		params.SortKeyValue = skValue
	}
	return t.builder(index).WithKeys(params), nil
}

// QueryWhere is Query with an arbitrary sort key condition, such as
// query.BeginsWith or query.Between on the sort key.
func (t *Table) QueryWhere(index string, pkValue any, sortCondition query.Condition) (*query.Builder, error) {
	keys, err := t.def.Keys(index)
	if err != nil {
		return nil, err
	}
	return t.builder(index).WithKeys(query.KeyParams{
		PartitionKeyName:  keys.PartitionKey,
		PartitionKeyValue: pkValue,
		SortCondition:     sortCondition,
	}), nil
}

// Scan starts a scan of the whole table
func (t *Table) Scan() *query.Builder {
	return query.NewBuilder(t.def.Name)
}

func (t *Table) builder(index string) *query.Builder {
	b := query.NewBuilder(t.def.Name)
	if index != "" {
		b.WithIndex(index)
	}
	return b
}

func (t *Table) keySchemaName(index string) string {
	if index == "" {
		return "table " + t.def.Name
	}
	return "index " + index
}
