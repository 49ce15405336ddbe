// Package cronjob is the client for the external cron execution service.
// Jobs are keyed by project ID; the service fires the execution webhook on
// the registered cron schedule.
package cronjob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/reposcribe/reposcribe/internal/config"
	"go.uber.org/zap"
)

// Gateway registers and unregisters scheduled jobs.
//
// Both operations are idempotent for callers: registering an existing ID
// updates it, and ErrNotFound from Unregister may be treated as success.
type Gateway interface {
	Register(ctx context.Context, id, cronExpr string) error
	Unregister(ctx context.Context, id string) error
}

var (
	// ErrRejected means the service refused the request (4xx). Not retryable.
	ErrRejected = errors.New("cronjob_rejected")
	// ErrNotFound means the unregister target does not exist.
	ErrNotFound = errors.New("cronjob_not_found")
	// ErrNoSchedule means Register was called with an empty expression.
	ErrNoSchedule = errors.New("cronjob_no_schedule")
)

// TransportError wraps network failures and 5xx responses. Retryable.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("cronjob transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

// New builds the HTTP gateway. A missing base URL or API key is a
// configuration error, not a per-call failure.
func New(cfg config.CronJobConfig, log *zap.Logger) (Gateway, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("cron job base URL is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("cron job API key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.Named("cronjob.gateway"),
	}, nil
}

type registerRequest struct {
	ID       string `json:"id"`
	CronTime string `json:"cronTime"`
}

func (c *client) Register(ctx context.Context, id, cronExpr string) error {
	if strings.TrimSpace(cronExpr) == "" {
		return ErrNoSchedule
	}

	body, err := json.Marshal(registerRequest{ID: id, CronTime: cronExpr})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jobs", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, id); err != nil {
		return err
	}

	c.log.Info("cron job registered", zap.String("job_id", id), zap.String("cron", cronExpr))
	return nil
}

func (c *client) Unregister(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/jobs/"+id, nil)
	if err != nil {
		return err
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if err := c.checkStatus(resp, id); err != nil {
		return err
	}

	c.log.Info("cron job unregistered", zap.String("job_id", id))
	return nil
}

func (c *client) checkStatus(resp *http.Response, id string) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		detail := readBody(resp.Body)
		c.log.Warn("cron job request rejected",
			zap.String("job_id", id),
			zap.Int("status", resp.StatusCode),
			zap.String("body", detail),
		)
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	default:
		return &TransportError{Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
}

func readBody(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	return string(b)
}
