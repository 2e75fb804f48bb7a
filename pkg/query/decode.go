package query

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
)

// TypedPage is a Page whose items were decoded into T
type TypedPage[T any] struct {
	Cursor  string
	Items   []T
	HasMore bool
}

// FetchAllInto runs FetchAll and decodes every item into T using dynamodbav tags
func FetchAllInto[T any](ctx context.Context, f *Fetcher, req *Request) ([]T, error) {
	items, err := f.FetchAll(ctx, req)
	if err != nil {
		return nil, err
	}
	return UnmarshalItems[T](items)
}

// FetchPageInto runs FetchPage and decodes the page's items into T
func FetchPageInto[T any](ctx context.Context, f *Fetcher, req *Request) (*TypedPage[T], error) {
	page, err := f.FetchPage(ctx, req)
	if err != nil {
		return nil, err
	}
	items, err := UnmarshalItems[T](page.Items)
	if err != nil {
		return nil, err
	}
	return &TypedPage[T]{Items: items, Cursor: page.Cursor, HasMore: page.HasMore()}, nil
}

// UnmarshalItems decodes raw items into T
func UnmarshalItems[T any](items []Item) ([]T, error) {
	out := make([]T, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal items: %w", err)
	}
	return out, nil
}
