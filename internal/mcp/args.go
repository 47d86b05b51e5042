package mcp

import (
	"math"
	"sort"
	"time"

	"github.com/enderekici/trading212-mcp/internal/t212"
)

// argBag checks an untyped argument mapping and collects every field issue
// instead of stopping at the first, so one failed call reports everything
// that is wrong with it.
type argBag struct {
	args   map[string]any
	issues []t212.FieldIssue
}

func newArgBag(args map[string]any) *argBag {
	return &argBag{args: args}
}

func (b *argBag) addIssue(path, reason string) {
	b.issues = append(b.issues, t212.FieldIssue{Path: path, Reason: reason})
}

// err returns the collected Validation error, or nil when every check passed.
func (b *argBag) err() error {
	if len(b.issues) == 0 {
		return nil
	}
	return t212.NewValidationError(b.issues)
}

func (b *argBag) requireString(key string) string {
	v, present := b.args[key]
	if !present || v == nil {
		b.addIssue(key, "is required")
		return ""
	}
	s, ok := v.(string)
	if !ok {
		b.addIssue(key, "must be a string")
		return ""
	}
	if s == "" {
		b.addIssue(key, "must not be empty")
		return ""
	}
	return s
}

func (b *argBag) optionalString(key string) (string, bool) {
	v, present := b.args[key]
	if !present || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		b.addIssue(key, "must be a string")
		return "", false
	}
	return s, true
}

// requirePositive pulls a strictly positive number: order quantities and
// prices may never be zero or negative.
func (b *argBag) requirePositive(key string) float64 {
	v, present := b.args[key]
	if !present || v == nil {
		b.addIssue(key, "is required")
		return 0
	}
	n, ok := toFloat(v)
	if !ok {
		b.addIssue(key, "must be a number")
		return 0
	}
	if n <= 0 {
		b.addIssue(key, "must be a positive number")
		return 0
	}
	return n
}

func (b *argBag) optionalPositive(key string) (float64, bool) {
	v, present := b.args[key]
	if !present || v == nil {
		return 0, false
	}
	n, ok := toFloat(v)
	if !ok {
		b.addIssue(key, "must be a number")
		return 0, false
	}
	if n <= 0 {
		b.addIssue(key, "must be a positive number")
		return 0, false
	}
	return n, true
}

func (b *argBag) requireID(key string) int64 {
	v, present := b.args[key]
	if !present || v == nil {
		b.addIssue(key, "is required")
		return 0
	}
	n, ok := toFloat(v)
	if !ok || n != math.Trunc(n) {
		b.addIssue(key, "must be an integer")
		return 0
	}
	if n <= 0 {
		b.addIssue(key, "must be a positive integer")
		return 0
	}
	return int64(n)
}

func (b *argBag) optionalCursor(key string) *int64 {
	v, present := b.args[key]
	if !present || v == nil {
		return nil
	}
	n, ok := toFloat(v)
	if !ok || n != math.Trunc(n) {
		b.addIssue(key, "must be an integer")
		return nil
	}
	if n < 0 {
		b.addIssue(key, "must not be negative")
		return nil
	}
	c := int64(n)
	return &c
}

func (b *argBag) optionalPositiveInt(key string) *int {
	v, present := b.args[key]
	if !present || v == nil {
		return nil
	}
	n, ok := toFloat(v)
	if !ok || n != math.Trunc(n) {
		b.addIssue(key, "must be an integer")
		return nil
	}
	if n <= 0 {
		b.addIssue(key, "must be a positive integer")
		return nil
	}
	i := int(n)
	return &i
}

func (b *argBag) optionalBool(key string, defaultVal bool) bool {
	v, present := b.args[key]
	if !present || v == nil {
		return defaultVal
	}
	bv, ok := v.(bool)
	if !ok {
		b.addIssue(key, "must be a boolean")
		return defaultVal
	}
	return bv
}

// timeValidity decodes the optional order lifetime enum. Omitting it means
// DAY; supplying DAY explicitly validates to the same value.
func (b *argBag) timeValidity(key string) t212.TimeValidity {
	v, present := b.args[key]
	if !present || v == nil {
		return t212.TimeValidityDay
	}
	s, ok := v.(string)
	if !ok || !t212.ValidTimeValidity(s) {
		b.addIssue(key, `must be "DAY" or "GOOD_TILL_CANCEL"`)
		return t212.TimeValidityDay
	}
	return t212.TimeValidity(s)
}

func (b *argBag) requireDividendAction(key string) t212.DividendCashAction {
	v, present := b.args[key]
	if !present || v == nil {
		b.addIssue(key, "is required")
		return ""
	}
	return b.dividendAction(key, v)
}

func (b *argBag) optionalDividendAction(key string) (t212.DividendCashAction, bool) {
	v, present := b.args[key]
	if !present || v == nil {
		return "", false
	}
	action := b.dividendAction(key, v)
	return action, action != ""
}

func (b *argBag) dividendAction(key string, v any) t212.DividendCashAction {
	s, ok := v.(string)
	if !ok || !t212.ValidDividendCashAction(s) {
		b.addIssue(key, `must be "REINVEST" or "TO_ACCOUNT_CASH"`)
		return ""
	}
	return t212.DividendCashAction(s)
}

// requireShares decodes the ticker-to-weight mapping for pie tools. Each
// weight must be strictly positive. Keys are walked in sorted order so the
// issue list is deterministic.
func (b *argBag) requireShares(key string) map[string]float64 {
	v, present := b.args[key]
	if !present || v == nil {
		b.addIssue(key, "is required")
		return nil
	}
	return b.decodeShares(key, v)
}

func (b *argBag) optionalShares(key string) map[string]float64 {
	v, present := b.args[key]
	if !present || v == nil {
		return nil
	}
	return b.decodeShares(key, v)
}

func (b *argBag) decodeShares(key string, v any) map[string]float64 {
	raw, ok := v.(map[string]any)
	if !ok {
		b.addIssue(key, "must be an object mapping ticker to share weight")
		return nil
	}
	if len(raw) == 0 {
		b.addIssue(key, "must not be empty")
		return nil
	}

	tickers := make([]string, 0, len(raw))
	for ticker := range raw {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	shares := make(map[string]float64, len(raw))
	for _, ticker := range tickers {
		n, ok := toFloat(raw[ticker])
		if !ok {
			b.addIssue(key+"."+ticker, "must be a number")
			continue
		}
		if n <= 0 {
			b.addIssue(key+"."+ticker, "must be a positive number")
			continue
		}
		shares[ticker] = n
	}
	return shares
}

// requireTimestamp pulls a string and checks it parses as RFC 3339.
func (b *argBag) requireTimestamp(key string) string {
	s := b.requireString(key)
	if s == "" {
		return ""
	}
	if _, err := time.Parse(time.RFC3339, s); err != nil {
		b.addIssue(key, "must be an RFC 3339 timestamp")
		return ""
	}
	return s
}

// toFloat widens the numeric types a decoded JSON argument can arrive as.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
