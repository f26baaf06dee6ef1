// Package core provides the time-entry domain model and the aggregation
// of entries into month and year duration totals.
package core

import (
	"strconv"
	"time"
)

// MonthTotal is the summed duration of all entries created in one
// calendar month.
type MonthTotal struct {
	Key     string // "YYYY-M", 1-indexed month, e.g. "2024-3"
	Year    int
	Month   int // 1-12
	Minutes int
}

// YearTotal is the summed duration of all entries created in one year.
type YearTotal struct {
	Year    int
	Minutes int
}

// MonthKey derives the month bucket key for a creation timestamp.
func MonthKey(t time.Time) string {
	return strconv.Itoa(t.Year()) + "-" + strconv.Itoa(int(t.Month()))
}

// TotalsByMonth groups entries by calendar month of their creation
// timestamp and sums their raw durations. Buckets appear in first-seen
// order over the input, not chronological order.
func TotalsByMonth(entries []Entry) []MonthTotal {
	var totals []MonthTotal
	index := make(map[string]int)
	for _, e := range entries {
		key := MonthKey(e.CreatedAt)
		i, ok := index[key]
		if !ok {
			i = len(totals)
			index[key] = i
			totals = append(totals, MonthTotal{
				Key:   key,
				Year:  e.CreatedAt.Year(),
				Month: int(e.CreatedAt.Month()),
			})
		}
		totals[i].Minutes += e.TotalMinutes()
	}
	return totals
}

// TotalsByYear groups entries by creation year and sums their raw
// durations, in first-seen order.
func TotalsByYear(entries []Entry) []YearTotal {
	var totals []YearTotal
	index := make(map[int]int)
	for _, e := range entries {
		year := e.CreatedAt.Year()
		i, ok := index[year]
		if !ok {
			i = len(totals)
			index[year] = i
			totals = append(totals, YearTotal{Year: year})
		}
		totals[i].Minutes += e.TotalMinutes()
	}
	return totals
}
