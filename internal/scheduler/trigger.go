package scheduler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/forgo/maestro/internal/model"
)

// ErrInvalidSchedule indicates a frequency or time outside the supported
// grammar (daily/weekly/monthly at "HH:MM").
var ErrInvalidSchedule = errors.New("invalid schedule")

// ParseSchedule builds a cron trigger from a frequency name and an
// "HH:MM" time of day. Frequency matching is case-insensitive.
func ParseSchedule(frequency, timeOfDay string) (model.TriggerSpec, error) {
	var spec model.TriggerSpec

	switch model.Frequency(strings.ToLower(strings.TrimSpace(frequency))) {
	case model.FrequencyDaily:
		spec.Frequency = model.FrequencyDaily
	case model.FrequencyWeekly:
		spec.Frequency = model.FrequencyWeekly
	case model.FrequencyMonthly:
		spec.Frequency = model.FrequencyMonthly
	default:
		return spec, fmt.Errorf("%w: unknown frequency %q", ErrInvalidSchedule, frequency)
	}

	hour, minute, err := parseTimeOfDay(timeOfDay)
	if err != nil {
		return spec, err
	}

	spec.Type = model.TriggerCron
	spec.Hour = hour
	spec.Minute = minute
	return spec, nil
}

func parseTimeOfDay(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: time must be HH:MM, got %q", ErrInvalidSchedule, s)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: hour must be 0-23, got %q", ErrInvalidSchedule, parts[0])
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: minute must be 0-59, got %q", ErrInvalidSchedule, parts[1])
	}
	return hour, minute, nil
}

// NextRun computes the next fire time strictly after now, in UTC.
// For at triggers the instant itself is returned regardless of now; the
// scheduler never recomputes an at trigger after it fires.
func NextRun(trigger model.TriggerSpec, now time.Time) (time.Time, error) {
	now = now.UTC()

	switch trigger.Type {
	case model.TriggerAt:
		return trigger.RunAt.UTC(), nil
	case model.TriggerCron:
	default:
		return time.Time{}, fmt.Errorf("%w: unknown trigger type %q", ErrInvalidSchedule, trigger.Type)
	}

	switch trigger.Frequency {
	case model.FrequencyDaily:
		candidate := time.Date(now.Year(), now.Month(), now.Day(), trigger.Hour, trigger.Minute, 0, 0, time.UTC)
		if !candidate.After(now) {
			candidate = candidate.AddDate(0, 0, 1)
		}
		return candidate, nil

	case model.FrequencyWeekly:
		// Weekly jobs fire on Monday.
		days := (int(time.Monday) - int(now.Weekday()) + 7) % 7
		candidate := time.Date(now.Year(), now.Month(), now.Day(), trigger.Hour, trigger.Minute, 0, 0, time.UTC)
		candidate = candidate.AddDate(0, 0, days)
		if !candidate.After(now) {
			candidate = candidate.AddDate(0, 0, 7)
		}
		return candidate, nil

	case model.FrequencyMonthly:
		// Monthly jobs fire on day 1.
		candidate := time.Date(now.Year(), now.Month(), 1, trigger.Hour, trigger.Minute, 0, 0, time.UTC)
		if !candidate.After(now) {
			candidate = time.Date(now.Year(), now.Month()+1, 1, trigger.Hour, trigger.Minute, 0, 0, time.UTC)
		}
		return candidate, nil
	}

	return time.Time{}, fmt.Errorf("%w: unknown frequency %q", ErrInvalidSchedule, trigger.Frequency)
}
