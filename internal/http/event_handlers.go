package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/sladosa/diary-multiuser/internal/analytics"
	"github.com/sladosa/diary-multiuser/internal/auth"
	"github.com/sladosa/diary-multiuser/internal/export"
	"github.com/sladosa/diary-multiuser/internal/models"
	"github.com/sladosa/diary-multiuser/internal/repo"

	"github.com/go-chi/chi/v5"
)

// Aggregates and export render calendar fields in a fixed zone so results
// are reproducible regardless of server locale.
var reportLocation = time.UTC

type eventRequest struct {
	CategoryID      string          `json:"category_id"`
	OccurredAt      *FlexTime       `json:"occurred_at"`
	Comment         *string         `json:"comment"`
	DurationMinutes *int            `json:"duration_minutes"`
	Data            json.RawMessage `json:"data,omitempty"`
}

func (req eventRequest) draft() (models.EventDraft, error) {
	if req.CategoryID == "" {
		return models.EventDraft{}, errors.New("category_id required")
	}
	if req.OccurredAt == nil || req.OccurredAt.IsZero() {
		return models.EventDraft{}, errors.New("occurred_at required")
	}
	if req.DurationMinutes != nil && *req.DurationMinutes < 0 {
		return models.EventDraft{}, errors.New("duration_minutes must not be negative")
	}
	return models.EventDraft{
		CategoryID:      req.CategoryID,
		OccurredAt:      req.OccurredAt.Time,
		Comment:         req.Comment,
		DurationMinutes: req.DurationMinutes,
		Data:            req.Data,
	}, nil
}

func (a *API) handleListEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing user")
		return
	}
	plan, ok := a.planFromRequest(w, r, userID)
	if !ok {
		return
	}
	events, err := a.Repo.ListEvents(r.Context(), plan)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list events")
		return
	}
	total, err := a.Repo.CountEvents(r.Context(), plan)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to count events")
		return
	}
	if events == nil {
		events = []models.LabeledEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"total":  total,
		"page":   plan.Offset/plan.Limit + 1,
		"pages":  plan.Pages(total),
	})
}

func (a *API) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing user")
		return
	}
	var req eventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	draft, err := req.draft()
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	id, err := a.Repo.CreateEvent(r.Context(), userID, draft)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Category not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create event")
		return
	}
	writeJSON(w, http.StatusCreated, entityResponse{ID: id})
}

func (a *API) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing user")
		return
	}
	var req eventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	draft, err := req.draft()
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if err := a.Repo.UpdateEvent(r.Context(), id, userID, draft); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update event")
		return
	}
	writeJSON(w, http.StatusOK, entityResponse{ID: id})
}

func (a *API) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing user")
		return
	}
	if done := a.confirmDelete(w, r, userID, "event", id); !done {
		return
	}
	if err := a.Repo.DeleteEvent(r.Context(), id, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete event")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type bulkInsertRequest struct {
	Events []eventRequest `json:"events"`
}

// handleBulkInsertEvents writes the whole batch or nothing: one malformed
// entry rejects the request before any storage call, and storage errors
// roll back every row.
func (a *API) handleBulkInsertEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing user")
		return
	}
	var req bulkInsertRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Events) == 0 {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Events required")
		return
	}
	drafts := make([]models.EventDraft, 0, len(req.Events))
	for i, er := range req.Events {
		draft, err := er.draft()
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", fmt.Sprintf("event %d: %v", i+1, err))
			return
		}
		drafts = append(drafts, draft)
	}
	inserted, err := a.Repo.BulkInsertEvents(r.Context(), userID, drafts)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "One or more categories not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to insert events")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"inserted": inserted})
}

// handleImportEvents consumes the CSV import format. Rows that fail to
// parse are skipped with a warning; the surviving rows go through the same
// all-or-nothing bulk insert as the JSON endpoint.
func (a *API) handleImportEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing user")
		return
	}

	var body io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "File required")
			return
		}
		defer file.Close()
		body = file
	}

	drafts, warnings, err := export.ParseImport(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if warnings == nil {
		warnings = []string{}
	}
	inserted := 0
	if len(drafts) > 0 {
		inserted, err = a.Repo.BulkInsertEvents(r.Context(), userID, drafts)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				writeError(w, http.StatusNotFound, "NOT_FOUND", "One or more categories not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to import events")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"inserted": inserted,
		"skipped":  len(warnings),
		"warnings": warnings,
	})
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing user")
		return
	}
	plan, ok := a.planFromRequest(w, r, userID)
	if !ok {
		return
	}
	events, err := a.Repo.ListAllEvents(r.Context(), plan)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load events")
		return
	}
	writeJSON(w, http.StatusOK, analytics.Summarize(events, reportLocation))
}

func (a *API) handleExport(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing user")
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Format must be csv or xlsx")
		return
	}
	plan, ok := a.planFromRequest(w, r, userID)
	if !ok {
		return
	}
	events, err := a.Repo.ListAllEvents(r.Context(), plan)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load events")
		return
	}
	rows := export.Rows(events, reportLocation)
	filename := "events-" + time.Now().In(reportLocation).Format("20060102")

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`.csv"`)
		if err := export.WriteCSV(w, rows); err != nil {
			// headers are already out; nothing useful left to send
			log.Printf("csv export failed: %v", err)
		}
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`.xlsx"`)
		if err := export.WriteXLSX(w, rows); err != nil {
			log.Printf("xlsx export failed: %v", err)
		}
	}
}
