package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tempo/internal/core"
)

// parseEntryID extracts the entry id from the form body or, for bodyless
// requests, the URL query.
func parseEntryID(r *http.Request) (int64, error) {
	var raw string
	if err := r.ParseForm(); err == nil {
		raw = strings.TrimSpace(r.Form.Get("id"))
	}
	if raw == "" {
		raw = strings.TrimSpace(r.URL.Query().Get("id"))
	}
	if raw == "" {
		return 0, core.ErrMissingEntryID
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse entry id %q: %w", raw, err)
	}
	return id, nil
}

// formatClock renders a minute total as whole hours and zero-padded
// remainder minutes, e.g. 135 -> "2:15".
func formatClock(totalMinutes int) string {
	h, m := core.SplitMinutes(totalMinutes)
	return fmt.Sprintf("%d:%02d", h, m)
}

// formatEntryDuration shows the entry's fields as entered; out-of-range
// minutes appear as stored, e.g. "1:75".
func formatEntryDuration(e core.Entry) string {
	return fmt.Sprintf("%d:%02d", e.Hours, e.Minutes)
}

// formatEntryDate renders the creation date as zero-padded day/month/year.
func formatEntryDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
