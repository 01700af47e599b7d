package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/thoughtcaptcha/backend/internal/llm"
	"github.com/thoughtcaptcha/backend/internal/store"
)

// QuestionGenerator produces a follow-up question for a submission.
// Satisfied by *llm.Client.
type QuestionGenerator interface {
	GenerateFollowUp(ctx context.Context, assignmentPrompt, submissionContent, systemPrompt string) llm.QuestionResult
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store *store.Store
	llm   QuestionGenerator
}

// New creates a new Handler.
func New(s *store.Store, l QuestionGenerator) *Handler {
	return &Handler{store: s, llm: l}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/api/health", h.handleHealth)

	r.Route("/api/assignments", func(r chi.Router) {
		r.Post("/", h.handleCreateAssignment)
		r.Get("/", h.handleListAssignments)
		r.Get("/current", h.handleCurrentAssignment)
		r.Get("/{id}", h.handleGetAssignment)
		r.Put("/{id}", h.handleUpdateAssignment)
		r.Put("/{id}/set-current", h.handleSetCurrentAssignment)
	})

	r.Post("/api/submit-assignment", h.handleSubmitAssignment)
	r.Get("/api/submissions", h.handleListSubmissions)
	r.Get("/api/submissions/{id}", h.handleGetSubmission)
	r.Post("/api/generate-question", h.handleGenerateQuestion)
	r.Post("/api/verify-response", h.handleVerifyResponse)

	r.Get("/api/system-prompt", h.handleGetSystemPrompt)
	r.Put("/api/system-prompt", h.handleUpdateSystemPrompt)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// urlID parses the {id} route parameter.
func urlID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// pagination reads offset/limit query parameters with sane bounds.
func pagination(r *http.Request) (offset, limit int) {
	offset = intQueryParam(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	limit = intQueryParam(r, "limit", 100)
	if limit < 1 || limit > 100 {
		limit = 100
	}
	return offset, limit
}

func intQueryParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}
