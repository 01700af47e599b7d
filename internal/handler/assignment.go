package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/thoughtcaptcha/backend/internal/model"
)

type createAssignmentRequest struct {
	PromptText string `json:"prompt_text"`
	IsCurrent  bool   `json:"is_current"`
}

type updateAssignmentRequest struct {
	PromptText *string `json:"prompt_text"`
	IsCurrent  *bool   `json:"is_current"`
}

func (h *Handler) handleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req createAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.PromptText) == "" {
		writeError(w, http.StatusBadRequest, "prompt_text is required")
		return
	}

	assignment, err := h.store.CreateAssignment(req.PromptText, req.IsCurrent)
	if err != nil {
		slog.Error("create assignment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create assignment")
		return
	}
	slog.Info("assignment created", "id", assignment.ID, "is_current", assignment.IsCurrent)
	writeJSON(w, http.StatusCreated, assignment)
}

func (h *Handler) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)
	assignments, err := h.store.ListAssignments(offset, limit)
	if err != nil {
		slog.Error("list assignments", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list assignments")
		return
	}
	if assignments == nil {
		assignments = []model.Assignment{}
	}
	writeJSON(w, http.StatusOK, assignments)
}

func (h *Handler) handleGetAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid assignment ID")
		return
	}
	assignment, err := h.store.GetAssignment(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "assignment not found")
		return
	}
	if err != nil {
		slog.Error("get assignment", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get assignment")
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}

func (h *Handler) handleCurrentAssignment(w http.ResponseWriter, r *http.Request) {
	assignment, err := h.store.GetCurrentAssignment()
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "no current assignment set")
		return
	}
	if err != nil {
		slog.Error("get current assignment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get current assignment")
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}

func (h *Handler) handleUpdateAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid assignment ID")
		return
	}
	var req updateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PromptText != nil && strings.TrimSpace(*req.PromptText) == "" {
		writeError(w, http.StatusBadRequest, "prompt_text must not be empty")
		return
	}

	assignment, err := h.store.UpdateAssignment(id, req.PromptText, req.IsCurrent)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "assignment not found")
		return
	}
	if err != nil {
		slog.Error("update assignment", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update assignment")
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}

func (h *Handler) handleSetCurrentAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid assignment ID")
		return
	}
	assignment, err := h.store.SetCurrentAssignment(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "assignment not found")
		return
	}
	if err != nil {
		slog.Error("set current assignment", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to set current assignment")
		return
	}
	slog.Info("current assignment switched", "id", id)
	writeJSON(w, http.StatusOK, assignment)
}
