package t212

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestClassifyPreservesTypedErrors(t *testing.T) {
	orig := NewAuthenticationError("bad key")
	wrapped := fmt.Errorf("calling account info: %w", orig)

	got := Classify(wrapped)
	if got.Kind != KindAuthentication {
		t.Errorf("expected kind %q, got %q", KindAuthentication, got.Kind)
	}
	if got.Message != "bad key" {
		t.Errorf("expected original message, got %q", got.Message)
	}
}

func TestClassifyWrapsUnknownErrors(t *testing.T) {
	got := Classify(errors.New("disk on fire"))
	if got.Kind != KindUnknown {
		t.Errorf("expected kind %q, got %q", KindUnknown, got.Kind)
	}
	if got.Code != CodeInternal {
		t.Errorf("expected code %q, got %q", CodeInternal, got.Code)
	}
	if got.Message != "disk on fire" {
		t.Errorf("unexpected message %q", got.Message)
	}
}

func TestValidationErrorJoinsIssues(t *testing.T) {
	err := NewValidationError([]FieldIssue{
		{Path: "quantity", Reason: "must be a positive number"},
		{Path: "ticker", Reason: "is required"},
	})
	if err.Kind != KindValidation {
		t.Errorf("expected kind %q, got %q", KindValidation, err.Kind)
	}
	want := "invalid arguments: quantity: must be a positive number; ticker: is required"
	if err.Message != want {
		t.Errorf("expected %q, got %q", want, err.Message)
	}
	if len(err.Issues) != 2 {
		t.Errorf("expected 2 issues, got %d", len(err.Issues))
	}
}

func TestRateLimitErrorMessageIncludesReset(t *testing.T) {
	reset := time.Unix(1700000100, 0).UTC()
	err := NewRateLimitError(60, reset)
	if !IsRateLimited(err) {
		t.Fatal("expected IsRateLimited to hold")
	}
	if err.RateLimit == nil || err.RateLimit.Limit != 60 {
		t.Fatalf("unexpected detail: %+v", err.RateLimit)
	}
	if want := reset.Format(time.RFC3339); !strings.Contains(err.Message, want) {
		t.Errorf("message %q missing reset %q", err.Message, want)
	}

	noReset := NewRateLimitError(0, time.Time{})
	if strings.Contains(noReset.Message, "resets at") {
		t.Errorf("message %q should not mention a reset time", noReset.Message)
	}
}

func TestUnknownToolError(t *testing.T) {
	err := NewUnknownToolError("get_weather")
	if err.Kind != KindValidation {
		t.Errorf("expected kind %q, got %q", KindValidation, err.Kind)
	}
	if err.Code != CodeUnknownTool {
		t.Errorf("expected code %q, got %q", CodeUnknownTool, err.Code)
	}
	if !strings.Contains(err.Message, `"get_weather"`) {
		t.Errorf("message %q missing tool name", err.Message)
	}
}
