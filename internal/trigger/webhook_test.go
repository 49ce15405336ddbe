package trigger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/reposcribe/reposcribe/internal/config"
	"go.uber.org/zap"
)

func TestTriggerInvokesWebhookByProjectID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	inv, err := New(config.TriggerConfig{BaseURL: srv.URL, Timeout: 2 * time.Second}, zap.NewNop())
	if err != nil {
		t.Fatalf("new invoker: %v", err)
	}

	if err := inv.Trigger(context.Background(), "abc123"); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if gotPath != "/abc123" {
		t.Fatalf("expected path /abc123, got %q", gotPath)
	}
}

func TestTriggerFailsLoudlyOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	inv, err := New(config.TriggerConfig{BaseURL: srv.URL, Timeout: 2 * time.Second}, zap.NewNop())
	if err != nil {
		t.Fatalf("new invoker: %v", err)
	}

	if err := inv.Trigger(context.Background(), "abc123"); !errors.Is(err, ErrExecutionTrigger) {
		t.Fatalf("expected ErrExecutionTrigger, got %v", err)
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(config.TriggerConfig{}, zap.NewNop()); err == nil {
		t.Fatal("expected error for missing webhook URL")
	}
}
