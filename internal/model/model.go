package model

import "time"

// DefaultSystemPrompt is the instruction text used for question generation
// until a teacher customizes it through the API.
const DefaultSystemPrompt = "You are an AI assistant helping to verify student understanding. " +
	"Given the student's submission text, generate one concise follow-up question " +
	"that probes their understanding or asks for clarification on a specific aspect. " +
	"The question should be answerable in 60-90 seconds."

// Assignment is a teacher-authored prompt. At most one assignment is
// marked current at any time; new submissions default to it.
type Assignment struct {
	ID         int64     `json:"id"`
	PromptText string    `json:"prompt_text"`
	IsCurrent  bool      `json:"is_current"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Submission holds a student's original response, the follow-up question
// generated for it, and the student's answer to that question.
// Assignment is the resolved referenced assignment, or nil when the
// submission was created without one.
type Submission struct {
	ID                int64       `json:"id"`
	OriginalContent   string      `json:"original_content"`
	AssignmentID      *int64      `json:"assignment_id"`
	GeneratedQuestion *string     `json:"generated_question"`
	StudentResponse   *string     `json:"student_response"`
	CreatedAt         time.Time   `json:"created_at"`
	Assignment        *Assignment `json:"assignment,omitempty"`
}

// SystemPrompt is the single configurable instruction row (fixed ID 1).
type SystemPrompt struct {
	ID         int64  `json:"id"`
	PromptText string `json:"prompt_text"`
}
