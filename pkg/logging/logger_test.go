package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	mcperrors "github.com/modelctx/mcp-client-go/pkg/errors"
)

func newTestLogger(buf *bytes.Buffer) Logger {
	return New(buf, &TextFormatter{DisableColors: true, DisableTimestamp: true})
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	logger.Debug("hidden")
	logger.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Debug message should be filtered at InfoLevel")
	}
	if !strings.Contains(out, "shown") {
		t.Error("Info message should be emitted at InfoLevel")
	}

	logger.SetLevel(DebugLevel)
	logger.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("Debug message should be emitted at DebugLevel")
	}
}

func TestFieldsFormatting(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	logger.Info("connected", String("server", "local"), Int("timeout", 30))

	out := buf.String()
	if !strings.Contains(out, "server=local") {
		t.Errorf("Expected server field in output: %s", out)
	}
	if !strings.Contains(out, "timeout=30") {
		t.Errorf("Expected timeout field in output: %s", out)
	}
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	child := logger.WithFields(String("component", "sse"))
	child.Info("from child")
	logger.Info("from parent")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 log lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "sse") {
		t.Error("Child line should carry component field")
	}
	if strings.Contains(lines[1], "sse") {
		t.Error("Parent line must not carry the child's field")
	}
}

func TestWithErrorExtractsStructuredContext(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	err := mcperrors.ConnectionFailed("sse", "http://localhost:8000", errors.New("refused"))
	logger.WithError(err).Error("initialize failed")

	out := buf.String()
	if !strings.Contains(out, "error_category=transport") {
		t.Errorf("Expected error_category field, got: %s", out)
	}
}

func TestRequestIDFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	ctx := ContextWithRequestID(context.Background(), "req_7")
	logger.WithContext(ctx).Info("handled")

	if !strings.Contains(buf.String(), "[req_7]") {
		t.Errorf("Expected request id in output: %s", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, NewJSONFormatter())

	logger.Info("tool called", String("tool", "add"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if entry["msg"] != "tool called" {
		t.Errorf("Expected msg field, got %v", entry["msg"])
	}
	if entry["tool"] != "add" {
		t.Errorf("Expected tool field, got %v", entry["tool"])
	}
	if entry["level"] != "INFO" {
		t.Errorf("Expected level INFO, got %v", entry["level"])
	}
}
