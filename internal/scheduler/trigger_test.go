package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/forgo/maestro/internal/model"
)

func TestParseSchedule(t *testing.T) {
	tests := []struct {
		name      string
		frequency string
		timeOfDay string
		want      model.TriggerSpec
	}{
		{
			name:      "daily",
			frequency: "daily",
			timeOfDay: "09:00",
			want:      model.TriggerSpec{Type: model.TriggerCron, Frequency: model.FrequencyDaily, Hour: 9, Minute: 0},
		},
		{
			name:      "weekly mixed case",
			frequency: "Weekly",
			timeOfDay: "18:30",
			want:      model.TriggerSpec{Type: model.TriggerCron, Frequency: model.FrequencyWeekly, Hour: 18, Minute: 30},
		},
		{
			name:      "monthly",
			frequency: "MONTHLY",
			timeOfDay: "00:05",
			want:      model.TriggerSpec{Type: model.TriggerCron, Frequency: model.FrequencyMonthly, Hour: 0, Minute: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSchedule(tt.frequency, tt.timeOfDay)
			if err != nil {
				t.Fatalf("ParseSchedule() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseSchedule() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseScheduleRejectsBadInput(t *testing.T) {
	tests := []struct {
		name      string
		frequency string
		timeOfDay string
	}{
		{"unknown frequency", "hourly", "09:00"},
		{"hour out of range", "daily", "24:00"},
		{"minute out of range", "daily", "09:60"},
		{"not a time", "daily", "morning"},
		{"missing minute", "daily", "09"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSchedule(tt.frequency, tt.timeOfDay)
			if !errors.Is(err, ErrInvalidSchedule) {
				t.Errorf("ParseSchedule() error = %v, want ErrInvalidSchedule", err)
			}
		})
	}
}

func TestNextRunDaily(t *testing.T) {
	trigger := model.TriggerSpec{Type: model.TriggerCron, Frequency: model.FrequencyDaily, Hour: 9, Minute: 0}

	// Before today's fire time: fires today
	now := time.Date(2024, 1, 3, 7, 0, 0, 0, time.UTC)
	got, err := NextRun(trigger, now)
	if err != nil {
		t.Fatalf("NextRun() error = %v", err)
	}
	want := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NextRun() = %v, want %v", got, want)
	}

	// After today's fire time: fires tomorrow
	now = time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)
	got, err = NextRun(trigger, now)
	if err != nil {
		t.Fatalf("NextRun() error = %v", err)
	}
	want = time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NextRun() = %v, want %v", got, want)
	}
}

func TestNextRunWeeklyFiresNextMonday(t *testing.T) {
	trigger := model.TriggerSpec{Type: model.TriggerCron, Frequency: model.FrequencyWeekly, Hour: 9, Minute: 0}

	// 2024-01-03 is a Wednesday; the next Monday is 2024-01-08
	now := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)
	got, err := NextRun(trigger, now)
	if err != nil {
		t.Fatalf("NextRun() error = %v", err)
	}
	want := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NextRun() = %v, want %v", got, want)
	}

	// A Monday after the fire time rolls to the following Monday
	now = time.Date(2024, 1, 8, 9, 30, 0, 0, time.UTC)
	got, err = NextRun(trigger, now)
	if err != nil {
		t.Fatalf("NextRun() error = %v", err)
	}
	want = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NextRun() = %v, want %v", got, want)
	}

	// A Monday before the fire time fires the same day
	now = time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC)
	got, err = NextRun(trigger, now)
	if err != nil {
		t.Fatalf("NextRun() error = %v", err)
	}
	want = time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NextRun() = %v, want %v", got, want)
	}
}

func TestNextRunMonthlyFiresOnDayOne(t *testing.T) {
	trigger := model.TriggerSpec{Type: model.TriggerCron, Frequency: model.FrequencyMonthly, Hour: 6, Minute: 15}

	now := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
	got, err := NextRun(trigger, now)
	if err != nil {
		t.Fatalf("NextRun() error = %v", err)
	}
	want := time.Date(2024, 2, 1, 6, 15, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NextRun() = %v, want %v", got, want)
	}

	// December rolls over the year boundary
	now = time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC)
	got, err = NextRun(trigger, now)
	if err != nil {
		t.Fatalf("NextRun() error = %v", err)
	}
	want = time.Date(2025, 1, 1, 6, 15, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NextRun() = %v, want %v", got, want)
	}
}

func TestNextRunAtReturnsInstant(t *testing.T) {
	runAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	trigger := model.TriggerSpec{Type: model.TriggerAt, RunAt: runAt}

	// The instant is returned even when it is already in the past, so a
	// missed one-off fires immediately on the next scan.
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	got, err := NextRun(trigger, now)
	if err != nil {
		t.Fatalf("NextRun() error = %v", err)
	}
	if !got.Equal(runAt) {
		t.Errorf("NextRun() = %v, want %v", got, runAt)
	}
}

func TestNextRunIsAlwaysUTC(t *testing.T) {
	trigger := model.TriggerSpec{Type: model.TriggerCron, Frequency: model.FrequencyDaily, Hour: 9, Minute: 0}

	loc := time.FixedZone("UTC+5", 5*3600)
	now := time.Date(2024, 1, 3, 7, 0, 0, 0, loc) // 02:00 UTC

	got, err := NextRun(trigger, now)
	if err != nil {
		t.Fatalf("NextRun() error = %v", err)
	}
	want := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NextRun() = %v, want %v", got, want)
	}
	if got.Location() != time.UTC {
		t.Errorf("NextRun() location = %v, want UTC", got.Location())
	}
}
