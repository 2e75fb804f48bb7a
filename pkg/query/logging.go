package query

import (
	"time"

	"github.com/rs/zerolog"
)

// Log event names
const (
	EventPageFetched     = "page_fetched"
	EventFetchCompleted  = "fetch_completed"
	EventStoreCallFailed = "store_call_failed"
)

// LogPageFetched logs one store response
func LogPageFetched(logger zerolog.Logger, page, items, total int, truncated bool) {
	logger.Debug().
		Str("event", EventPageFetched).
		Int("page", page).
		Int("items", items).
		Int("total_items", total).
		Bool("truncated", truncated).
		Msg("Page fetched")
}

// LogFetchCompleted logs the end of a page loop
func LogFetchCompleted(logger zerolog.Logger, pages, items int, hasMore bool, duration time.Duration) {
	logger.Debug().
		Str("event", EventFetchCompleted).
		Int("pages", pages).
		Int("items", items).
		Bool("has_more", hasMore).
		Dur("duration", duration).
		Msg("Fetch completed")
}

// LogStoreCallFailed logs a failed store call. The error is returned to the caller unchanged.
func LogStoreCallFailed(logger zerolog.Logger, page int, err error) {
	logger.Error().
		Str("event", EventStoreCallFailed).
		Int("page", page).
		Err(err).
		Msg("Store call failed")
}
