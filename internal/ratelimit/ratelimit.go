// Package ratelimit tracks the quota state Trading212 reports on its
// responses.
//
// Every Trading212 response carries five x-ratelimit-* headers describing
// the per-endpoint quota window. The request pipeline parses them into a
// Snapshot and records the latest one per endpoint, so callers can see how
// much headroom an endpoint has left before the API starts answering 429.
package ratelimit

import "time"

// Snapshot is the quota state of one endpoint as reported by the most
// recent response. Fields mirror the x-ratelimit-* headers.
type Snapshot struct {
	// Limit is the number of requests permitted per window.
	Limit int
	// Remaining is how many requests are left in the current window.
	Remaining int
	// Used is how many requests the current window has consumed.
	Used int
	// Reset is when the current window ends and the quota replenishes.
	Reset time.Time
	// Period is the length of the quota window.
	Period time.Duration
}

// Store holds the latest Snapshot per endpoint.
// Implementations must be safe for concurrent use: every session shares
// one Store.
type Store interface {
	// Get returns the most recent snapshot recorded for endpoint.
	Get(endpoint string) (Snapshot, bool)

	// Set records the snapshot for endpoint, replacing any previous one.
	Set(endpoint string, s Snapshot)
}
