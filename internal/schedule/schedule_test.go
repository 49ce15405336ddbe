package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestCronFixedFrequencies(t *testing.T) {
	cases := map[string]string{
		FrequencyDaily:      "0 9 * * *",
		FrequencyWeekly:     "0 9 * * 1",
		FrequencyTwiceDaily: "0 9,18 * * *",
		FrequencyMonthly:    "0 9 1 * *",
	}

	for frequency, want := range cases {
		got, err := Cron(frequency, "")
		if err != nil {
			t.Fatalf("Cron(%q): %v", frequency, err)
		}
		if got != want {
			t.Fatalf("Cron(%q) = %q, want %q", frequency, got, want)
		}
	}
}

func TestCronOnEventProducesNoSchedule(t *testing.T) {
	got, err := Cron(FrequencyOnEvent, "")
	if err != nil {
		t.Fatalf("Cron(on-event): %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty schedule for on-event, got %q", got)
	}
}

func TestCronCustomPassthrough(t *testing.T) {
	got, err := Cron(FrequencyCustom, "15 7 * * 3")
	if err != nil {
		t.Fatalf("Cron(custom): %v", err)
	}
	if got != "15 7 * * 3" {
		t.Fatalf("expected passthrough expression, got %q", got)
	}
}

func TestCronCustomRejectsEmptyAndInvalid(t *testing.T) {
	for _, expr := range []string{"", "   ", "not a cron", "99 99 * * *"} {
		_, err := Cron(FrequencyCustom, expr)
		if !errors.Is(err, ErrInvalidSchedule) {
			t.Fatalf("Cron(custom, %q) = %v, want ErrInvalidSchedule", expr, err)
		}
	}
}

func TestCronRejectsUnknownFrequency(t *testing.T) {
	for _, frequency := range []string{"", "hourly", "sometimes"} {
		_, err := Cron(frequency, "")
		if !errors.Is(err, ErrUnsupportedFrequency) {
			t.Fatalf("Cron(%q) = %v, want ErrUnsupportedFrequency", frequency, err)
		}
	}
}

func TestNextRunDaily(t *testing.T) {
	now := time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC)
	next := NextRun("0 9 * * *", now)
	if next == nil {
		t.Fatal("expected next run for daily expression")
	}
	want := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("NextRun = %s, want %s", next, want)
	}
}

func TestNextRunNoSchedule(t *testing.T) {
	if next := NextRun("", time.Now()); next != nil {
		t.Fatalf("expected nil next run for empty expression, got %s", next)
	}
}
