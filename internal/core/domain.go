package core

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Entry is the sole persisted entity: one logged duration.
type Entry struct {
	ID        int64 // assigned by storage on creation, immutable
	Hours     int
	Minutes   int // values >= 60 are accepted and never normalized
	CreatedAt time.Time
}

var (
	ErrInvalidDuration = errors.New("invalid duration")
	ErrMissingEntryID  = errors.New("missing entry id")
)

// TotalMinutes returns the raw duration of the entry in minutes.
// Minutes beyond 59 contribute as-is; there is no carry into hours.
func (e Entry) TotalMinutes() int {
	return e.Hours*60 + e.Minutes
}

func (e Entry) Validate() error {
	if e.CreatedAt.IsZero() {
		return errors.New("created-at cannot be zero")
	}
	return nil
}

// ParseDurationField parses a single hours or minutes form field as a
// base-10 integer. Empty input, a bare sign, or any non-numeric text is
// rejected so it never reaches storage.
func ParseDurationField(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidDuration
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrInvalidDuration
	}
	return v, nil
}

// SplitMinutes splits a minute total into whole hours and remainder
// minutes for display. No rounding beyond the floor/mod split.
func SplitMinutes(total int) (hours, minutes int) {
	return total / 60, total % 60
}
