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

// noAssignmentPrompt stands in for the assignment prompt when a
// submission was created without a linked assignment.
const noAssignmentPrompt = "No assignment prompt was provided."

type createSubmissionRequest struct {
	OriginalContent string `json:"original_content"`
	AssignmentID    *int64 `json:"assignment_id"`
}

type generateQuestionRequest struct {
	SubmissionID int64 `json:"submission_id"`
}

type verifyResponseRequest struct {
	SubmissionID    int64  `json:"submission_id"`
	StudentResponse string `json:"student_response"`
}

type updatePromptRequest struct {
	PromptText string `json:"prompt_text"`
}

func (h *Handler) handleSubmitAssignment(w http.ResponseWriter, r *http.Request) {
	var req createSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.OriginalContent) == "" {
		writeError(w, http.StatusBadRequest, "original_content is required")
		return
	}
	if req.AssignmentID != nil {
		exists, err := h.store.AssignmentExists(*req.AssignmentID)
		if err != nil {
			slog.Error("check assignment", "id", *req.AssignmentID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to create submission")
			return
		}
		if !exists {
			writeError(w, http.StatusNotFound, "assignment not found")
			return
		}
	}

	submission, err := h.store.CreateSubmission(req.OriginalContent, req.AssignmentID)
	if err != nil {
		slog.Error("create submission", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create submission")
		return
	}
	slog.Info("submission created", "id", submission.ID)
	writeJSON(w, http.StatusCreated, submission)
}

func (h *Handler) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)
	submissions, err := h.store.ListSubmissions(offset, limit)
	if err != nil {
		slog.Error("list submissions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list submissions")
		return
	}
	if submissions == nil {
		submissions = []model.Submission{}
	}
	writeJSON(w, http.StatusOK, submissions)
}

func (h *Handler) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid submission ID")
		return
	}
	submission, err := h.store.GetSubmission(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "submission not found")
		return
	}
	if err != nil {
		slog.Error("get submission", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get submission")
		return
	}
	writeJSON(w, http.StatusOK, submission)
}

// handleGenerateQuestion looks up the submission, relays its content to
// the LLM together with the assignment prompt and the configured system
// prompt, and persists the resulting question. A provider failure still
// produces a stored fallback question, never an HTTP error.
func (h *Handler) handleGenerateQuestion(w http.ResponseWriter, r *http.Request) {
	var req generateQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	submission, err := h.store.GetSubmission(req.SubmissionID)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "submission not found")
		return
	}
	if err != nil {
		slog.Error("get submission", "id", req.SubmissionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get submission")
		return
	}

	// A question is generated at most once; return the existing one
	// instead of paying for another completion.
	if submission.GeneratedQuestion != nil {
		writeJSON(w, http.StatusOK, submission)
		return
	}

	assignmentPrompt := noAssignmentPrompt
	if submission.Assignment != nil {
		assignmentPrompt = submission.Assignment.PromptText
	}

	systemPrompt, err := h.store.GetSystemPrompt()
	if err != nil {
		slog.Error("get system prompt", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load system prompt")
		return
	}

	result := h.llm.GenerateFollowUp(r.Context(), assignmentPrompt, submission.OriginalContent, systemPrompt.PromptText)
	if result.Fallback {
		slog.Warn("question generation fell back", "submission_id", submission.ID, "reason", result.Reason)
	}

	updated, err := h.store.SetGeneratedQuestion(submission.ID, result.Question)
	if err != nil {
		slog.Error("store generated question", "submission_id", submission.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save generated question")
		return
	}
	slog.Info("question generated", "submission_id", submission.ID, "fallback", result.Fallback)
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleVerifyResponse(w http.ResponseWriter, r *http.Request) {
	var req verifyResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.StudentResponse) == "" {
		writeError(w, http.StatusBadRequest, "student_response is required")
		return
	}

	submission, err := h.store.SetStudentResponse(req.SubmissionID, req.StudentResponse)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "submission not found")
		return
	}
	if err != nil {
		slog.Error("store student response", "submission_id", req.SubmissionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save response")
		return
	}
	slog.Info("student response recorded", "submission_id", submission.ID)
	writeJSON(w, http.StatusOK, submission)
}

func (h *Handler) handleGetSystemPrompt(w http.ResponseWriter, r *http.Request) {
	prompt, err := h.store.GetSystemPrompt()
	if err != nil {
		slog.Error("get system prompt", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load system prompt")
		return
	}
	writeJSON(w, http.StatusOK, prompt)
}

func (h *Handler) handleUpdateSystemPrompt(w http.ResponseWriter, r *http.Request) {
	var req updatePromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.PromptText) == "" {
		writeError(w, http.StatusBadRequest, "prompt_text is required")
		return
	}

	prompt, err := h.store.UpdateSystemPrompt(req.PromptText)
	if err != nil {
		slog.Error("update system prompt", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update system prompt")
		return
	}
	slog.Info("system prompt updated")
	writeJSON(w, http.StatusOK, prompt)
}
