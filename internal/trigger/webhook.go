// Package trigger invokes the external workflow engine that generates and
// sends the actual report emails. The call is fire-and-forget with respect
// to report delivery; only reachability of the webhook is verified.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/reposcribe/reposcribe/internal/config"
	"go.uber.org/zap"
)

// Invoker starts a report run for a project.
type Invoker interface {
	Trigger(ctx context.Context, projectID string) error
}

// ErrExecutionTrigger means the webhook was unreachable or answered with a
// non-success status. Surfaced loudly since the caller otherwise believes a
// run started.
var ErrExecutionTrigger = errors.New("execution_trigger_failed")

type webhook struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// New builds the webhook invoker. A missing base URL is a configuration
// error.
func New(cfg config.TriggerConfig, log *zap.Logger) (Invoker, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("trigger webhook URL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &webhook{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.Named("trigger.webhook"),
	}, nil
}

func (w *webhook) Trigger(ctx context.Context, projectID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"/"+projectID, nil)
	if err != nil {
		return err
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExecutionTrigger, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrExecutionTrigger, resp.StatusCode)
	}

	w.log.Info("execution triggered", zap.String("project_id", projectID))
	return nil
}
