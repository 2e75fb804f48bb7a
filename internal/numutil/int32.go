// Package numutil converts item counts to the int32 fields the DynamoDB SDK uses.
package numutil

import "math"

// ClampToInt32 converts n to int32, clamping to the int32 range.
func ClampToInt32(n int) int32 {
	switch {
	case n > math.MaxInt32:
		return math.MaxInt32
	case n < math.MinInt32:
		return math.MinInt32
	default:
		return int32(n)
	}
}

// RemainingLimit returns the page limit for a follow-up call after fetched
// items of limit have been collected. It returns nil when limit is unbounded
// (zero or negative) and never returns less than 1 otherwise.
func RemainingLimit(limit, fetched int) *int32 {
	if limit <= 0 {
		return nil
	}
	remaining := ClampToInt32(max(limit-fetched, 1))
	return &remaining
}
