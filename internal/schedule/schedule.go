// Package schedule maps a report frequency to the cron expression consumed
// by the external scheduling service.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Frequencies accepted by the translator.
const (
	FrequencyDaily      = "daily"
	FrequencyWeekly     = "weekly"
	FrequencyTwiceDaily = "twice-daily"
	FrequencyMonthly    = "monthly"
	FrequencyOnEvent    = "on-event"
	FrequencyCustom     = "custom"
)

// Fixed expressions. All recurring reports run at 09:00 UTC; twice-daily adds
// an 18:00 run and weekly is anchored to Monday.
const (
	cronDaily      = "0 9 * * *"
	cronWeekly     = "0 9 * * 1"
	cronTwiceDaily = "0 9,18 * * *"
	cronMonthly    = "0 9 1 * *"
)

var (
	ErrUnsupportedFrequency = errors.New("unsupported_frequency")
	ErrInvalidSchedule      = errors.New("invalid_schedule")
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Cron translates a frequency (and, for "custom", a raw expression) into the
// cron expression registered with the scheduling service. The empty string
// result means "no recurring schedule" and is only produced for "on-event";
// such automations are never registered externally. Unknown frequencies are
// rejected rather than defaulted.
func Cron(frequency, custom string) (string, error) {
	switch strings.TrimSpace(frequency) {
	case FrequencyDaily:
		return cronDaily, nil
	case FrequencyWeekly:
		return cronWeekly, nil
	case FrequencyTwiceDaily:
		return cronTwiceDaily, nil
	case FrequencyMonthly:
		return cronMonthly, nil
	case FrequencyOnEvent:
		return "", nil
	case FrequencyCustom:
		expr := strings.TrimSpace(custom)
		if expr == "" {
			return "", fmt.Errorf("%w: custom expression is empty", ErrInvalidSchedule)
		}
		if _, err := parser.Parse(expr); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
		}
		return expr, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFrequency, frequency)
	}
}

// NextRun estimates the next execution after now for a translated expression.
// Returns nil for the no-schedule sentinel. Kept separate from Cron so the
// translation stays pure.
func NextRun(cronExpr string, now time.Time) *time.Time {
	expr := strings.TrimSpace(cronExpr)
	if expr == "" {
		return nil
	}
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil
	}
	next := sched.Next(now.UTC())
	return &next
}
