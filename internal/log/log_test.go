package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Component: ComponentTasks, Output: &buf})

	logger.Info("created", FieldTaskID, "t1")
	logger.Debug("hidden")
	logger.WithComponent(ComponentFinance).Warn("over budget")

	out := buf.String()
	if !strings.Contains(out, "component=tasks") || !strings.Contains(out, "task_id=t1") {
		t.Errorf("missing fields in %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Error("debug record should be filtered at info level")
	}
	if !strings.Contains(out, "component=finance") {
		t.Errorf("component override missing in %q", out)
	}
}

func TestLogFields(t *testing.T) {
	fields := NewFields().
		WithOperation(OpTransfer).
		WithTransaction("bank", -500).
		WithError(nil).
		WithRecord("transactions", "")

	if _, ok := fields[FieldError]; ok {
		t.Error("nil error should not add a field")
	}
	if _, ok := fields[FieldRecordID]; ok {
		t.Error("empty id should not add a field")
	}
	if fields[FieldAmountCents] != int64(-500) {
		t.Errorf("amount = %v", fields[FieldAmountCents])
	}
	if len(fields.ToSlice()) != 2*len(fields) {
		t.Error("ToSlice should flatten key/value pairs")
	}

	fields.WithError(errors.New("boom"))
	if fields[FieldError] != "boom" {
		t.Errorf("error = %v", fields[FieldError])
	}
}

func TestContextCarriesLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Component: ComponentHTTP, Output: &buf}).With(FieldRequestID, "req-1")

	ctx := NewContext(context.Background(), logger)
	got := FromContext(ctx)
	if got.Component() != ComponentHTTP {
		t.Fatalf("component = %q", got.Component())
	}
	got.Info("hello")
	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Errorf("request id missing in %q", buf.String())
	}

	if FromContext(context.Background()).Component() != "unknown" {
		t.Error("empty context should fall back to the default logger")
	}
}
