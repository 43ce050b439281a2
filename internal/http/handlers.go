package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sladosa/diary-multiuser/internal/query"
)

const maxBodyBytes = 1 << 20

// FlexTime accepts the timestamp shapes the dashboard sends: a bare date
// from <input type="date">, RFC3339, or RFC3339 without a zone.
type FlexTime struct {
	time.Time
}

func (ft *FlexTime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		ft.Time = t
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		ft.Time = t
		return nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		ft.Time = t
		return nil
	}
	return errors.New("invalid date/time format")
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid payload")
		return false
	}
	return true
}

// filterParams is the parsed but not yet area-resolved filter input.
type filterParams struct {
	filter  query.Filter
	areaIDs []string
}

func parseFilterParams(values url.Values) (filterParams, error) {
	var p filterParams

	p.filter.CategoryIDs = splitCSV(values["categories"])
	p.areaIDs = splitCSV(values["areas"])

	if raw := values.Get("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return p, errors.New("invalid from date")
		}
		p.filter.Start = &t
	}
	if raw := values.Get("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return p, errors.New("invalid to date")
		}
		p.filter.End = &t
	}
	p.filter.Search = values.Get("q")

	if raw := values.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, errors.New("invalid page")
		}
		p.filter.Page = n
	}
	if raw := values.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, errors.New("invalid page_size")
		}
		p.filter.PageSize = n
	}
	return p, nil
}

// splitCSV flattens repeated params and comma-separated lists into one
// id slice.
func splitCSV(raw []string) []string {
	var out []string
	for _, chunk := range raw {
		for _, part := range strings.Split(chunk, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// planFromRequest parses the filter controls and resolves selected areas
// into category ids through the taxonomy. Returns false after writing the
// error response.
func (a *API) planFromRequest(w http.ResponseWriter, r *http.Request, userID string) (query.Plan, bool) {
	params, err := parseFilterParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return query.Plan{}, false
	}
	if len(params.areaIDs) > 0 {
		ids, err := a.Repo.CategoryIDsForAreas(r.Context(), userID, params.areaIDs)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to resolve areas")
			return query.Plan{}, false
		}
		params.filter.AreaCategoryIDs = ids
		params.filter.AreasSelected = true
	}
	return query.Build(userID, params.filter), true
}
