package store

import (
	"database/sql"
	"time"

	"github.com/thoughtcaptcha/backend/internal/model"
)

const submissionColumns = `s.id, s.original_content, s.assignment_id, s.generated_question,
	s.student_response, s.created_at,
	a.id, a.prompt_text, a.is_current, a.created_at, a.updated_at`

// CreateSubmission stores a new submission. assignmentID may be nil;
// callers are expected to have validated a non-nil reference.
func (s *Store) CreateSubmission(originalContent string, assignmentID *int64) (model.Submission, error) {
	res, err := s.db.Exec(
		`INSERT INTO submissions (original_content, assignment_id, created_at) VALUES (?, ?, ?)`,
		originalContent, assignmentID, time.Now(),
	)
	if err != nil {
		return model.Submission{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Submission{}, err
	}
	return s.GetSubmission(id)
}

// GetSubmission returns a submission by ID with its referenced
// assignment resolved in the same query (nil when unlinked).
func (s *Store) GetSubmission(id int64) (model.Submission, error) {
	row := s.db.QueryRow(
		`SELECT `+submissionColumns+`
		 FROM submissions s
		 LEFT JOIN assignments a ON s.assignment_id = a.id
		 WHERE s.id = ?`, id,
	)
	return scanSubmission(row)
}

// ListSubmissions returns submissions newest first, each with its
// resolved assignment.
func (s *Store) ListSubmissions(offset, limit int) ([]model.Submission, error) {
	rows, err := s.db.Query(
		`SELECT `+submissionColumns+`
		 FROM submissions s
		 LEFT JOIN assignments a ON s.assignment_id = a.id
		 ORDER BY s.created_at DESC, s.id DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var submissions []model.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, sub)
	}
	return submissions, rows.Err()
}

// SetGeneratedQuestion stores the generated follow-up question and
// returns the updated submission.
func (s *Store) SetGeneratedQuestion(id int64, question string) (model.Submission, error) {
	res, err := s.db.Exec(`UPDATE submissions SET generated_question = ? WHERE id = ?`, question, id)
	if err != nil {
		return model.Submission{}, err
	}
	if err := requireRow(res); err != nil {
		return model.Submission{}, err
	}
	return s.GetSubmission(id)
}

// SetStudentResponse stores the student's answer to the follow-up
// question and returns the updated submission.
func (s *Store) SetStudentResponse(id int64, response string) (model.Submission, error) {
	res, err := s.db.Exec(`UPDATE submissions SET student_response = ? WHERE id = ?`, response, id)
	if err != nil {
		return model.Submission{}, err
	}
	if err := requireRow(res); err != nil {
		return model.Submission{}, err
	}
	return s.GetSubmission(id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (model.Submission, error) {
	var sub model.Submission
	var (
		aID      sql.NullInt64
		aPrompt  sql.NullString
		aCurrent sql.NullBool
		aCreated sql.NullTime
		aUpdated sql.NullTime
	)
	err := row.Scan(
		&sub.ID, &sub.OriginalContent, &sub.AssignmentID, &sub.GeneratedQuestion,
		&sub.StudentResponse, &sub.CreatedAt,
		&aID, &aPrompt, &aCurrent, &aCreated, &aUpdated,
	)
	if err != nil {
		return model.Submission{}, err
	}
	if aID.Valid {
		sub.Assignment = &model.Assignment{
			ID:         aID.Int64,
			PromptText: aPrompt.String,
			IsCurrent:  aCurrent.Bool,
			CreatedAt:  aCreated.Time,
			UpdatedAt:  aUpdated.Time,
		}
	}
	return sub, nil
}
