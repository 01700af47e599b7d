package store

import (
	"database/sql"

	"github.com/thoughtcaptcha/backend/internal/model"
)

// systemPromptID is the fixed primary key of the single prompt row.
const systemPromptID = 1

// GetSystemPrompt returns the configured system prompt, creating the
// row with the default text on first read.
func (s *Store) GetSystemPrompt() (model.SystemPrompt, error) {
	var p model.SystemPrompt
	err := s.db.QueryRow(
		`SELECT id, prompt_text FROM system_prompts WHERE id = ?`, systemPromptID,
	).Scan(&p.ID, &p.PromptText)
	if err == sql.ErrNoRows {
		_, err = s.db.Exec(
			`INSERT INTO system_prompts (id, prompt_text) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`,
			systemPromptID, model.DefaultSystemPrompt,
		)
		if err != nil {
			return model.SystemPrompt{}, err
		}
		return model.SystemPrompt{ID: systemPromptID, PromptText: model.DefaultSystemPrompt}, nil
	}
	return p, err
}

// UpdateSystemPrompt replaces the system prompt text.
func (s *Store) UpdateSystemPrompt(promptText string) (model.SystemPrompt, error) {
	_, err := s.db.Exec(
		`INSERT INTO system_prompts (id, prompt_text) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET prompt_text = ?`,
		systemPromptID, promptText, promptText,
	)
	if err != nil {
		return model.SystemPrompt{}, err
	}
	return model.SystemPrompt{ID: systemPromptID, PromptText: promptText}, nil
}
