package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestBaseErrorFormatting(t *testing.T) {
	err := ConfigError("invalid transport")
	if err.Error() != "invalid transport" {
		t.Errorf("Expected message only, got %q", err.Error())
	}

	detailed := err.WithDetail("transport must be stdio or sse")
	want := "invalid transport: transport must be stdio or sse"
	if detailed.Error() != want {
		t.Errorf("Expected %q, got %q", want, detailed.Error())
	}

	// WithDetail must not mutate the original
	if err.Details() != "" {
		t.Errorf("Original error mutated, details = %q", err.Details())
	}
}

func TestCategoryPredicates(t *testing.T) {
	cases := []struct {
		err       error
		predicate func(error) bool
		name      string
	}{
		{ConfigError("bad"), IsConfig, "config"},
		{ConnectionFailed("sse", "http://x", errors.New("refused")), IsConnection, "connection"},
		{Timeout("initialize", 5 * time.Second), IsTimeout, "timeout"},
		{APIError(-32601, "method not found", "tools/call"), IsAPI, "api"},
		{DataErrorf("invalid JSON"), IsData, "data"},
		{InvalidState("listTools", "closed"), IsState, "state"},
		{ServerNotConnected("remote"), IsNotFound, "not_found"},
		{Cancelled("readResource", context.Canceled), IsCancelled, "cancelled"},
	}

	for _, tc := range cases {
		if !tc.predicate(tc.err) {
			t.Errorf("%s predicate failed for %v", tc.name, tc.err)
		}
	}

	if IsTimeout(ConfigError("bad")) {
		t.Error("IsTimeout should not match a config error")
	}
	if IsTimeout(errors.New("plain")) {
		t.Error("IsTimeout should not match a plain error")
	}
}

func TestWrappedErrorChain(t *testing.T) {
	cause := errors.New("connection refused")
	err := ConnectionFailed("stdio", "", cause)

	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to find the cause through Unwrap")
	}

	// Predicate must see through fmt.Errorf wrapping as well
	wrapped := fmt.Errorf("connect %q: %w", "local", err)
	if !IsConnection(wrapped) {
		t.Error("IsConnection should match through fmt.Errorf wrapping")
	}

	mcpErr, ok := AsMCPError(wrapped)
	if !ok {
		t.Fatal("AsMCPError failed on wrapped error")
	}
	if mcpErr.Code() != CodeConnectionFailed {
		t.Errorf("Expected code %d, got %d", CodeConnectionFailed, mcpErr.Code())
	}
}

func TestFromContextError(t *testing.T) {
	if !IsTimeout(FromContextError("callTool", time.Second, context.DeadlineExceeded)) {
		t.Error("DeadlineExceeded should classify as timeout")
	}
	if !IsCancelled(FromContextError("callTool", time.Second, context.Canceled)) {
		t.Error("Canceled should classify as cancellation")
	}
}

func TestAPIErrorCarriesServerCode(t *testing.T) {
	err := APIError(-32002, "resource not found", "resources/read")
	if err.Code() != -32002 {
		t.Errorf("Expected server code -32002, got %d", err.Code())
	}
	if err.Context() == nil || err.Context().Method != "resources/read" {
		t.Error("Expected method recorded in error context")
	}
}

func TestToJSON(t *testing.T) {
	err := Timeout("initialize", 30*time.Second)
	m := err.ToJSON()

	if m["code"] != CodeTimeout {
		t.Errorf("Expected code %d in JSON map, got %v", CodeTimeout, m["code"])
	}
	if m["category"] != string(CategoryTimeout) {
		t.Errorf("Expected category %q, got %v", CategoryTimeout, m["category"])
	}
}
