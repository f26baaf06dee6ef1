package http

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"tempo/internal/core"
)

// View models handed to the templates.

type formView struct {
	Editing bool
	EntryID int64
	Hours   string
	Minutes string
}

type entryRow struct {
	ID       int64
	Duration string // raw hours:minutes, e.g. "1:75"
	Date     string // dd/mm/yyyy
	Editing  bool
}

type summaryRow struct {
	Label string
	Total string // whole hours : remainder minutes
}

type indexView struct {
	Form    formView
	Entries []entryRow
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	view := indexView{
		Form:    s.currentFormView(),
		Entries: s.entryRows(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index", view); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleSubmitEntry records a new entry, or overwrites the entry being
// edited. The response body is a fresh form fragment so the client
// swaps back to create mode.
func (s *Server) handleSubmitEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "method", r.Method, "url", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Invalid request format</div>`))
		return
	}

	hours, hErr := core.ParseDurationField(r.Form.Get("hours"))
	minutes, mErr := core.ParseDurationField(r.Form.Get("minutes"))
	if hErr != nil || mErr != nil {
		err := hErr
		if err == nil {
			err = mErr
		}
		slog.WarnContext(r.Context(), "Rejected entry input",
			"error", err,
			"hours", r.Form.Get("hours"),
			"minutes", r.Form.Get("minutes"))
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Hours and minutes must be whole numbers</div>`))
		return
	}

	wasEditing := s.tracker.Editing() != nil

	entry, err := s.tracker.Submit(r.Context(), hours, minutes)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to save entry",
			"error", err,
			"hours", hours,
			"minutes", minutes,
			"operation", "submit")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Error saving entry</div>`))
		return
	}

	s.summaryCache.Purge()

	slog.InfoContext(r.Context(), "Entry saved",
		"id", entry.ID,
		"hours", entry.Hours,
		"minutes", entry.Minutes,
		"edited", wasEditing)

	action := "recorded"
	if wasEditing {
		action = "updated"
	}
	successMsg := fmt.Sprintf("Entry %s: %d:%02d", action, entry.Hours, entry.Minutes)

	w.Header().Set("HX-Trigger", fmt.Sprintf(`{
		"entries:changed": {},
		"form:reset": {},
		"show-notification": {"type": "success", "message": "%s", "duration": 3000}
	}`, template.JSEscapeString(successMsg)))

	s.renderFragment(w, r, "entry_form", formView{})
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete && r.Method != http.MethodPost {
		w.Header().Set("Allow", "DELETE, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	id, err := parseEntryID(r)
	if err != nil {
		slog.WarnContext(r.Context(), "Delete entry request without valid id", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Missing entry id</div>`))
		return
	}

	if err := s.tracker.Delete(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Failed to delete entry",
			"error", err,
			"entry_id", id,
			"operation", "delete")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Error deleting entry</div>`))
		return
	}

	s.summaryCache.Purge()

	slog.InfoContext(r.Context(), "Entry deleted", "entry_id", id)

	w.Header().Set("HX-Trigger", `{
		"entries:changed": {},
		"show-notification": {"type": "success", "message": "Entry deleted", "duration": 2000}
	}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(""))
}

// handleEditEntry begins editing: the response is the form fragment
// pre-populated from the selected entry.
func (s *Server) handleEditEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	id, err := parseEntryID(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Missing entry id</div>`))
		return
	}

	if err := s.tracker.StartEdit(id); err != nil {
		slog.WarnContext(r.Context(), "Edit of unknown entry", "entry_id", id, "error", err)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<div class="error">Entry not found</div>`))
		return
	}

	slog.InfoContext(r.Context(), "Editing entry", "entry_id", id)

	w.Header().Set("HX-Trigger", `{"entries:changed": {}}`)
	s.renderFragment(w, r, "entry_form", s.currentFormView())
}

func (s *Server) handleCancelEdit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	s.tracker.CancelEdit()
	w.Header().Set("HX-Trigger", `{"entries:changed": {}}`)
	s.renderFragment(w, r, "entry_form", formView{})
}

func (s *Server) handleEntryList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.renderFragment(w, r, "entry_list", struct{ Entries []entryRow }{s.entryRows()})
}

func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.renderSummary(w, r, "month_summary", "month", func() []summaryRow {
		return monthRows(s.tracker.MonthTotals())
	})
}

func (s *Server) handleYearSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.renderSummary(w, r, "year_summary", "year", func() []summaryRow {
		return yearRows(s.tracker.YearTotals())
	})
}

// renderSummary serves a summary fragment through the LRU cache. The
// cache is purged on every mutation, so a hit is always consistent
// with the stored collection.
func (s *Server) renderSummary(w http.ResponseWriter, r *http.Request, name, key string, rows func() []summaryRow) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if cached, ok := s.summaryCache.Get(key); ok {
		_, _ = w.Write([]byte(cached))
		return
	}

	html, err := s.executeFragment(name, struct{ Rows []summaryRow }{rows()})
	if err != nil {
		slog.ErrorContext(r.Context(), "Summary template failed", "template", name, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.summaryCache.Set(key, html)
	_, _ = w.Write([]byte(html))
}

func (s *Server) renderFragment(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	html, err := s.executeFragment(name, data)
	if err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "template", name, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte(html))
}

func (s *Server) executeFragment(name string, data any) (template.HTML, error) {
	if s.templates == nil {
		return "", errors.New("templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func (s *Server) currentFormView() formView {
	editing := s.tracker.Editing()
	if editing == nil {
		return formView{}
	}
	return formView{
		Editing: true,
		EntryID: editing.ID,
		Hours:   fmt.Sprintf("%d", editing.Hours),
		Minutes: fmt.Sprintf("%d", editing.Minutes),
	}
}

func (s *Server) entryRows() []entryRow {
	editing := s.tracker.Editing()
	entries := s.tracker.Entries()

	rows := make([]entryRow, len(entries))
	for i, e := range entries {
		rows[i] = entryRow{
			ID:       e.ID,
			Duration: formatEntryDuration(e),
			Date:     formatEntryDate(e.CreatedAt),
			Editing:  editing != nil && editing.ID == e.ID,
		}
	}
	return rows
}

func monthRows(totals []core.MonthTotal) []summaryRow {
	rows := make([]summaryRow, len(totals))
	for i, t := range totals {
		rows[i] = summaryRow{Label: t.Key, Total: formatClock(t.Minutes)}
	}
	return rows
}

func yearRows(totals []core.YearTotal) []summaryRow {
	rows := make([]summaryRow, len(totals))
	for i, t := range totals {
		rows[i] = summaryRow{Label: fmt.Sprintf("%d", t.Year), Total: formatClock(t.Minutes)}
	}
	return rows
}
