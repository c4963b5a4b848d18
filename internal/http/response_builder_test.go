package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"taskfin/internal/core"
	"taskfin/internal/store"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		want       int
		wantField  string
		wantNotice bool
	}{
		{name: "bad request", err: badRequest("nope"), want: http.StatusBadRequest},
		{name: "validation", err: &core.ValidationError{Field: "title", Err: core.ErrEmptyTitle}, want: http.StatusUnprocessableEntity, wantField: "title"},
		{name: "wrapped not found", err: fmt.Errorf("task x: %w", core.ErrNotFound), want: http.StatusNotFound},
		{name: "nothing to undo", err: store.ErrNothingToUndo, want: http.StatusConflict},
		{name: "timeout", err: context.DeadlineExceeded, want: http.StatusGatewayTimeout, wantNotice: true},
		{name: "canceled", err: context.Canceled, want: 499},
		{name: "backend failure", err: errors.New("disk I/O error"), want: http.StatusBadGateway, wantNotice: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := statusFor(tt.err)
			if status != tt.want {
				t.Errorf("status = %d, want %d", status, tt.want)
			}
			if body.Field != tt.wantField {
				t.Errorf("field = %q, want %q", body.Field, tt.wantField)
			}
			if (body.Notification != "") != tt.wantNotice {
				t.Errorf("notification = %q", body.Notification)
			}
			if body.Error == "" {
				t.Error("empty error message")
			}
		})
	}
}

func TestBatchItems(t *testing.T) {
	task := core.Task{ID: "a", Title: "x"}
	items := batchItems([]store.BatchResult{
		{ID: "a", Task: &task},
		{ID: "b", Err: core.ErrNotFound},
	})
	if len(items) != 2 {
		t.Fatalf("got %d items", len(items))
	}
	if !items[0].OK || items[0].Task == nil || items[0].Error != "" {
		t.Errorf("items[0] = %+v", items[0])
	}
	if items[1].OK || items[1].Error == "" {
		t.Errorf("items[1] = %+v", items[1])
	}
}
