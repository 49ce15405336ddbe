package cronjob

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/reposcribe/reposcribe/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestGateway(t *testing.T, handler http.Handler) Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	gw, err := New(config.CronJobConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return gw
}

func TestRegisterSendsJobWithAPIKey(t *testing.T) {
	var gotKey, gotID, gotCron string
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/jobs" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotKey = r.Header.Get("x-api-key")
		var body struct {
			ID       string `json:"id"`
			CronTime string `json:"cronTime"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		gotID = body.ID
		gotCron = body.CronTime
		w.WriteHeader(http.StatusCreated)
	}))

	require.NoError(t, gw.Register(context.Background(), "abc123", "0 9 * * *"))
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "abc123", gotID)
	assert.Equal(t, "0 9 * * *", gotCron)
}

func TestRegisterEmptyScheduleIsGuarded(t *testing.T) {
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty schedule")
	}))

	err := gw.Register(context.Background(), "abc123", "")
	require.ErrorIs(t, err, ErrNoSchedule)
}

func TestRegisterRejected(t *testing.T) {
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad cron expression", http.StatusBadRequest)
	}))

	err := gw.Register(context.Background(), "abc123", "not-a-cron")
	require.ErrorIs(t, err, ErrRejected)
}

func TestRegisterServerErrorIsTransport(t *testing.T) {
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	err := gw.Register(context.Background(), "abc123", "0 9 * * *")
	var transport *TransportError
	require.ErrorAs(t, err, &transport)
}

func TestUnregisterNotFound(t *testing.T) {
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/jobs/abc123" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	err := gw.Unregister(context.Background(), "abc123")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNewRequiresConfiguration(t *testing.T) {
	_, err := New(config.CronJobConfig{APIKey: "k"}, zap.NewNop())
	require.Error(t, err, "missing base URL must be rejected")

	_, err = New(config.CronJobConfig{BaseURL: "http://localhost"}, zap.NewNop())
	require.Error(t, err, "missing API key must be rejected")
}
