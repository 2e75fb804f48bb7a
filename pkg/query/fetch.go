package query

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/theory-cloud/tablequery/internal/numutil"
	queryErrors "github.com/theory-cloud/tablequery/pkg/errors"
)

// DynamoDBAPI is the subset of the DynamoDB client the fetch engine calls
type DynamoDBAPI interface {
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Recorder receives fetch measurements. metrics.Collector implements it.
type Recorder interface {
	ObserveStoreCall(operation string, duration time.Duration, err error)
	ObservePage(operation string, items int)
}

// Page is the result of FetchPage
type Page struct {
	LastEvaluatedKey map[string]types.AttributeValue
	Cursor           string
	Items            []Item
	Calls            int
}

// HasMore reports whether the store has results past this page
func (p *Page) HasMore() bool {
	return p != nil && len(p.LastEvaluatedKey) > 0
}

// Fetcher runs compiled requests against DynamoDB, following continuation keys.
// It holds no per-fetch state and is safe for concurrent use.
type Fetcher struct {
	client   DynamoDBAPI
	recorder Recorder
	logger   zerolog.Logger
}

// FetcherOption configures a Fetcher
type FetcherOption func(*Fetcher)

// WithLogger sets the fetch logger. The default discards everything.
func WithLogger(logger zerolog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(recorder Recorder) FetcherOption {
	return func(f *Fetcher) {
		f.recorder = recorder
	}
}

// NewFetcher creates a fetch engine over client
func NewFetcher(client DynamoDBAPI, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client: client,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchPage returns up to the request's limit of items. When the store stops
// short of the limit because of its own response size cap, follow-up calls
// request the remainder. The returned cursor resumes after the last item.
func (f *Fetcher) FetchPage(ctx context.Context, req *Request) (*Page, error) {
	page, err := f.fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	sort := ""
	if req.ScanIndexForward != nil && !*req.ScanIndexForward {
		sort = SortDescending
	}
	page.Cursor, err = EncodeCursor(page.LastEvaluatedKey, req.IndexName, sort)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cursor: %w", err)
	}
	return page, nil
}

// FetchAll follows continuation keys until the store reports no more results,
// or the request's limit is reached. Result size is unbounded without a limit.
func (f *Fetcher) FetchAll(ctx context.Context, req *Request) ([]Item, error) {
	page, err := f.fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

type pagedReadExecutor interface {
	fetch(ctx context.Context, exclusiveStartKey map[string]types.AttributeValue, limit *int32) ([]Item, map[string]types.AttributeValue, error)
}

type queryPager struct {
	client DynamoDBAPI
	req    *Request
}

func (p queryPager) fetch(ctx context.Context, exclusiveStartKey map[string]types.AttributeValue, limit *int32) ([]Item, map[string]types.AttributeValue, error) {
	input := p.req.QueryInput()
	input.Limit = limit
	if exclusiveStartKey != nil {
		input.ExclusiveStartKey = exclusiveStartKey
	}

	output, err := p.client.Query(ctx, input)
	if err != nil {
		return nil, nil, err
	}
	return output.Items, output.LastEvaluatedKey, nil
}

type scanPager struct {
	client DynamoDBAPI
	req    *Request
}

func (p scanPager) fetch(ctx context.Context, exclusiveStartKey map[string]types.AttributeValue, limit *int32) ([]Item, map[string]types.AttributeValue, error) {
	input := p.req.ScanInput()
	input.Limit = limit
	if exclusiveStartKey != nil {
		input.ExclusiveStartKey = exclusiveStartKey
	}

	output, err := p.client.Scan(ctx, input)
	if err != nil {
		return nil, nil, err
	}
	return output.Items, output.LastEvaluatedKey, nil
}

func (f *Fetcher) pagerFor(req *Request) (pagedReadExecutor, Operation, error) {
	switch req.Operation {
	case OperationQuery, "":
		return queryPager{client: f.client, req: req}, OperationQuery, nil
	case OperationScan:
		return scanPager{client: f.client, req: req}, OperationScan, nil
	default:
		return nil, "", fmt.Errorf("%w: %q", queryErrors.ErrUnsupportedOperation, string(req.Operation))
	}
}

// isTruncated reports whether the store stopped on its own size cap rather than
// because the caller's limit was met or the results ran out.
func isTruncated(limit, itemsSoFar int, lastKey map[string]types.AttributeValue) bool {
	if len(lastKey) == 0 {
		return false
	}
	if limit > 0 {
		return itemsSoFar < limit
	}
	return true
}

func (f *Fetcher) fetch(ctx context.Context, req *Request) (*Page, error) {
	if req == nil {
		return nil, queryErrors.ErrNilRequest
	}
	req = req.Clone()

	pager, op, err := f.pagerFor(req)
	if err != nil {
		return nil, err
	}

	logger := f.logger.With().
		Str("fetch_id", uuid.NewString()).
		Str("table", req.TableName).
		Str("index", req.IndexName).
		Str("operation", string(op)).
		Logger()

	limit := 0
	if req.Limit != nil && *req.Limit > 0 {
		limit = int(*req.Limit)
	}

	started := time.Now()
	page := &Page{}
	startKey := req.ExclusiveStartKey
	pageLimit := numutil.RemainingLimit(limit, 0)

	for {
		callStarted := time.Now()
		items, lastKey, err := pager.fetch(ctx, startKey, pageLimit)
		f.observeStoreCall(op, time.Since(callStarted), err)
		if err != nil {
			LogStoreCallFailed(logger, page.Calls+1, err)
			return nil, err
		}

		page.Calls++
		page.Items = append(page.Items, items...)
		page.LastEvaluatedKey = lastKey
		f.observePage(op, len(items))

		truncated := isTruncated(limit, len(page.Items), lastKey)
		LogPageFetched(logger, page.Calls, len(items), len(page.Items), truncated)
		if !truncated {
			break
		}

		startKey = lastKey
		pageLimit = numutil.RemainingLimit(limit, len(page.Items))
	}

	LogFetchCompleted(logger, page.Calls, len(page.Items), page.HasMore(), time.Since(started))
	return page, nil
}

func (f *Fetcher) observeStoreCall(op Operation, d time.Duration, err error) {
	if f.recorder != nil {
		f.recorder.ObserveStoreCall(string(op), d, err)
	}
}

func (f *Fetcher) observePage(op Operation, items int) {
	if f.recorder != nil {
		f.recorder.ObservePage(string(op), items)
	}
}
