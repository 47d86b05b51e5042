package t212

import (
	"net/url"
	"strconv"
)

// Query carries the optional parameters of the paginated history
// endpoints. Only set (non-nil) fields are encoded.
type Query struct {
	Cursor *int64
	Limit  *int
	Ticker *string
}

// Encode renders the query-string suffix for q. A Query with no set
// fields yields the empty string, so the request URL carries no "?".
func (q Query) Encode() string {
	params := url.Values{}
	if q.Cursor != nil {
		params.Set("cursor", strconv.FormatInt(*q.Cursor, 10))
	}
	if q.Limit != nil {
		params.Set("limit", strconv.Itoa(*q.Limit))
	}
	if q.Ticker != nil {
		params.Set("ticker", *q.Ticker)
	}
	if len(params) == 0 {
		return ""
	}
	return "?" + params.Encode()
}
