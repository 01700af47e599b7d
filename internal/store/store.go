package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/thoughtcaptcha/backend/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS assignments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		prompt_text TEXT NOT NULL,
		is_current INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS submissions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		original_content TEXT NOT NULL,
		assignment_id INTEGER,
		generated_question TEXT,
		student_response TEXT,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (assignment_id) REFERENCES assignments(id)
	);

	CREATE TABLE IF NOT EXISTS system_prompts (
		id INTEGER PRIMARY KEY,
		prompt_text TEXT NOT NULL
	);

	-- The database itself rejects a second current assignment.
	CREATE UNIQUE INDEX IF NOT EXISTS assignments_current_idx
		ON assignments (is_current) WHERE is_current = 1;
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateAssignment stores a new assignment. When isCurrent is true the
// new assignment immediately becomes the single current one.
func (s *Store) CreateAssignment(promptText string, isCurrent bool) (model.Assignment, error) {
	now := time.Now()
	res, err := s.db.Exec(
		`INSERT INTO assignments (prompt_text, is_current, created_at, updated_at) VALUES (?, 0, ?, ?)`,
		promptText, now, now,
	)
	if err != nil {
		return model.Assignment{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Assignment{}, err
	}
	if isCurrent {
		return s.SetCurrentAssignment(id)
	}
	return s.GetAssignment(id)
}

// GetAssignment returns an assignment by ID.
func (s *Store) GetAssignment(id int64) (model.Assignment, error) {
	var a model.Assignment
	err := s.db.QueryRow(
		`SELECT id, prompt_text, is_current, created_at, updated_at FROM assignments WHERE id = ?`, id,
	).Scan(&a.ID, &a.PromptText, &a.IsCurrent, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// AssignmentExists reports whether an assignment with the given ID exists.
func (s *Store) AssignmentExists(id int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM assignments WHERE id = ?)`, id).Scan(&exists)
	return exists, err
}

// ListAssignments returns assignments newest first.
func (s *Store) ListAssignments(offset, limit int) ([]model.Assignment, error) {
	rows, err := s.db.Query(
		`SELECT id, prompt_text, is_current, created_at, updated_at
		 FROM assignments ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var assignments []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.ID, &a.PromptText, &a.IsCurrent, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// GetCurrentAssignment returns the assignment flagged current.
// Returns sql.ErrNoRows when none is set.
func (s *Store) GetCurrentAssignment() (model.Assignment, error) {
	var a model.Assignment
	err := s.db.QueryRow(
		`SELECT id, prompt_text, is_current, created_at, updated_at FROM assignments WHERE is_current = 1`,
	).Scan(&a.ID, &a.PromptText, &a.IsCurrent, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// UpdateAssignment applies the provided fields to an assignment and
// refreshes updated_at. Nil fields are left untouched. Setting isCurrent
// to true runs the exclusivity switch.
func (s *Store) UpdateAssignment(id int64, promptText *string, isCurrent *bool) (model.Assignment, error) {
	if promptText != nil {
		res, err := s.db.Exec(
			`UPDATE assignments SET prompt_text = ?, updated_at = ? WHERE id = ?`,
			*promptText, time.Now(), id,
		)
		if err != nil {
			return model.Assignment{}, err
		}
		if err := requireRow(res); err != nil {
			return model.Assignment{}, err
		}
	}
	if isCurrent != nil {
		if *isCurrent {
			return s.SetCurrentAssignment(id)
		}
		res, err := s.db.Exec(
			`UPDATE assignments SET is_current = 0, updated_at = ? WHERE id = ?`,
			time.Now(), id,
		)
		if err != nil {
			return model.Assignment{}, err
		}
		if err := requireRow(res); err != nil {
			return model.Assignment{}, err
		}
	}
	return s.GetAssignment(id)
}

// SetCurrentAssignment makes the given assignment the only current one.
// The clear and set steps run in one transaction: an unknown ID rolls
// back entirely, leaving the previously current assignment in place.
func (s *Store) SetCurrentAssignment(id int64) (model.Assignment, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return model.Assignment{}, err
	}
	defer tx.Rollback()

	now := time.Now()
	if _, err := tx.Exec(
		`UPDATE assignments SET is_current = 0, updated_at = ? WHERE is_current = 1 AND id != ?`, now, id,
	); err != nil {
		return model.Assignment{}, err
	}

	res, err := tx.Exec(
		`UPDATE assignments SET is_current = 1, updated_at = ? WHERE id = ?`, now, id,
	)
	if err != nil {
		return model.Assignment{}, err
	}
	if err := requireRow(res); err != nil {
		return model.Assignment{}, err
	}

	var a model.Assignment
	if err := tx.QueryRow(
		`SELECT id, prompt_text, is_current, created_at, updated_at FROM assignments WHERE id = ?`, id,
	).Scan(&a.ID, &a.PromptText, &a.IsCurrent, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return model.Assignment{}, err
	}
	return a, tx.Commit()
}

// requireRow converts a zero-rows-affected update into sql.ErrNoRows.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
