package http

import (
	"errors"
	"net/http"

	"github.com/sladosa/diary-multiuser/internal/auth"
	"github.com/sladosa/diary-multiuser/internal/repo"

	"github.com/go-chi/chi/v5"
)

type areaRequest struct {
	Name string `json:"name"`
}

type categoryRequest struct {
	AreaID string `json:"area_id"`
	Name   string `json:"name"`
}

func (a *API) handleListAreas(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing user")
		return
	}
	areas, err := a.Repo.ListAreas(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list areas")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"areas": areas})
}

func (a *API) handleCreateArea(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing user")
		return
	}
	var req areaRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Name required")
		return
	}
	id, err := a.Repo.CreateArea(r.Context(), userID, req.Name)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			writeError(w, http.StatusConflict, "DUPLICATE", "Area with this name already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create area")
		return
	}
	writeJSON(w, http.StatusCreated, entityResponse{ID: id})
}

func (a *API) handleUpdateArea(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing user")
		return
	}
	var req areaRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Name required")
		return
	}
	if err := a.Repo.UpdateArea(r.Context(), id, userID, req.Name); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Area not found")
		case errors.Is(err, repo.ErrDuplicate):
			writeError(w, http.StatusConflict, "DUPLICATE", "Area with this name already exists")
		default:
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update area")
		}
		return
	}
	writeJSON(w, http.StatusOK, entityResponse{ID: id})
}

func (a *API) handleDeleteArea(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing user")
		return
	}
	if done := a.confirmDelete(w, r, userID, "area", id); !done {
		return
	}
	if err := a.Repo.DeleteArea(r.Context(), id, userID); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Area not found")
		case errors.Is(err, repo.ErrHasDependents):
			writeError(w, http.StatusConflict, "HAS_CATEGORIES", "Area still has categories")
		default:
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete area")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (a *API) handleListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing user")
		return
	}
	categories, err := a.Repo.ListCategories(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list categories")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (a *API) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing user")
		return
	}
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" || req.AreaID == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Area_id and name required")
		return
	}
	id, err := a.Repo.CreateCategory(r.Context(), userID, req.AreaID, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Area not found")
		case errors.Is(err, repo.ErrDuplicate):
			writeError(w, http.StatusConflict, "DUPLICATE", "Category with this name already exists in the area")
		default:
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create category")
		}
		return
	}
	writeJSON(w, http.StatusCreated, entityResponse{ID: id})
}

func (a *API) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing user")
		return
	}
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" || req.AreaID == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Area_id and name required")
		return
	}
	if err := a.Repo.UpdateCategory(r.Context(), id, userID, req.AreaID, req.Name); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Category not found")
		case errors.Is(err, repo.ErrDuplicate):
			writeError(w, http.StatusConflict, "DUPLICATE", "Category with this name already exists in the area")
		default:
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update category")
		}
		return
	}
	writeJSON(w, http.StatusOK, entityResponse{ID: id})
}

func (a *API) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing user")
		return
	}
	if done := a.confirmDelete(w, r, userID, "category", id); !done {
		return
	}
	if err := a.Repo.DeleteCategory(r.Context(), id, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Category not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete category")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// confirmDelete runs the two-step confirmation: the first DELETE for an
// entity arms it and answers 202, the second within the window falls
// through to the actual delete. `?confirm=cancel` disarms explicitly.
func (a *API) confirmDelete(w http.ResponseWriter, r *http.Request, userID, kind, id string) bool {
	if r.URL.Query().Get("confirm") == "cancel" {
		a.Deletes.Reset(userID, kind)
		writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
		return false
	}
	if !a.Deletes.Confirm(userID, kind, id) {
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "confirm_required"})
		return false
	}
	return true
}
