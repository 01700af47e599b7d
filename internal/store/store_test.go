package store

import (
	"database/sql"
	"testing"

	"github.com/thoughtcaptcha/backend/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestAssignment(t *testing.T, s *Store, promptText string, isCurrent bool) model.Assignment {
	t.Helper()
	a, err := s.CreateAssignment(promptText, isCurrent)
	if err != nil {
		t.Fatalf("createTestAssignment: %v", err)
	}
	return a
}

// currentCount counts assignments flagged current.
func currentCount(t *testing.T, s *Store) int {
	t.Helper()
	assignments, err := s.ListAssignments(0, 100)
	if err != nil {
		t.Fatalf("ListAssignments: %v", err)
	}
	count := 0
	for _, a := range assignments {
		if a.IsCurrent {
			count++
		}
	}
	return count
}

func TestAssignmentCRUD(t *testing.T) {
	s := newTestStore(t)

	a := createTestAssignment(t, s, "Explain gravity", false)
	if a.ID == 0 {
		t.Fatal("expected generated ID")
	}
	if a.IsCurrent {
		t.Error("new assignment should not be current")
	}
	if a.CreatedAt.IsZero() || a.UpdatedAt.IsZero() {
		t.Error("timestamps should be set at creation")
	}

	got, err := s.GetAssignment(a.ID)
	if err != nil {
		t.Fatalf("GetAssignment: %v", err)
	}
	if got.PromptText != "Explain gravity" {
		t.Errorf("expected prompt 'Explain gravity', got %q", got.PromptText)
	}

	if _, err := s.GetAssignment(9999); err != sql.ErrNoRows {
		t.Errorf("expected ErrNoRows, got %v", err)
	}

	exists, err := s.AssignmentExists(a.ID)
	if err != nil {
		t.Fatalf("AssignmentExists: %v", err)
	}
	if !exists {
		t.Error("expected assignment to exist")
	}
	exists, err = s.AssignmentExists(9999)
	if err != nil {
		t.Fatalf("AssignmentExists: %v", err)
	}
	if exists {
		t.Error("expected assignment to not exist")
	}
}

func TestListAssignmentsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	var ids []int64
	for _, text := range []string{"first", "second", "third", "fourth", "fifth"} {
		ids = append(ids, createTestAssignment(t, s, text, false).ID)
	}

	list, err := s.ListAssignments(0, 100)
	if err != nil {
		t.Fatalf("ListAssignments: %v", err)
	}
	if len(list) != 5 {
		t.Fatalf("expected 5 assignments, got %d", len(list))
	}
	for i, a := range list {
		want := ids[len(ids)-1-i]
		if a.ID != want {
			t.Errorf("position %d: expected id %d, got %d", i, want, a.ID)
		}
	}

	page, err := s.ListAssignments(1, 2)
	if err != nil {
		t.Fatalf("ListAssignments paged: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(page))
	}
	if page[0].ID != ids[3] || page[1].ID != ids[2] {
		t.Errorf("expected page [%d %d], got [%d %d]", ids[3], ids[2], page[0].ID, page[1].ID)
	}
}

func TestSetCurrentAssignmentExclusivity(t *testing.T) {
	s := newTestStore(t)
	a1 := createTestAssignment(t, s, "a1", false)
	a2 := createTestAssignment(t, s, "a2", false)
	a3 := createTestAssignment(t, s, "a3", false)

	// After each switch exactly one assignment is current, and it is
	// the most recently targeted one.
	for _, target := range []int64{a1.ID, a3.ID, a2.ID, a3.ID} {
		got, err := s.SetCurrentAssignment(target)
		if err != nil {
			t.Fatalf("SetCurrentAssignment(%d): %v", target, err)
		}
		if !got.IsCurrent {
			t.Errorf("returned assignment %d should be current", target)
		}
		if n := currentCount(t, s); n != 1 {
			t.Fatalf("after switching to %d: expected 1 current assignment, got %d", target, n)
		}
		current, err := s.GetCurrentAssignment()
		if err != nil {
			t.Fatalf("GetCurrentAssignment: %v", err)
		}
		if current.ID != target {
			t.Errorf("expected current assignment %d, got %d", target, current.ID)
		}
	}
}

func TestSetCurrentAssignmentUnknownID(t *testing.T) {
	s := newTestStore(t)
	a := createTestAssignment(t, s, "keep me current", true)

	if _, err := s.SetCurrentAssignment(9999); err != sql.ErrNoRows {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}

	// The failed switch must not clear the existing flag.
	current, err := s.GetCurrentAssignment()
	if err != nil {
		t.Fatalf("GetCurrentAssignment after failed switch: %v", err)
	}
	if current.ID != a.ID {
		t.Errorf("expected assignment %d to stay current, got %d", a.ID, current.ID)
	}
	if n := currentCount(t, s); n != 1 {
		t.Errorf("expected 1 current assignment, got %d", n)
	}
}

func TestCreateAssignmentAsCurrent(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetCurrentAssignment(); err != sql.ErrNoRows {
		t.Fatalf("expected ErrNoRows with empty table, got %v", err)
	}

	a1 := createTestAssignment(t, s, "a1", true)
	if !a1.IsCurrent {
		t.Error("a1 should be current")
	}

	a2 := createTestAssignment(t, s, "a2", true)
	if !a2.IsCurrent {
		t.Error("a2 should be current")
	}
	if n := currentCount(t, s); n != 1 {
		t.Errorf("expected 1 current assignment, got %d", n)
	}
	current, err := s.GetCurrentAssignment()
	if err != nil {
		t.Fatalf("GetCurrentAssignment: %v", err)
	}
	if current.ID != a2.ID {
		t.Errorf("expected %d current, got %d", a2.ID, current.ID)
	}
}

func TestUpdateAssignment(t *testing.T) {
	s := newTestStore(t)
	a := createTestAssignment(t, s, "original", true)

	newText := "revised"
	updated, err := s.UpdateAssignment(a.ID, &newText, nil)
	if err != nil {
		t.Fatalf("UpdateAssignment: %v", err)
	}
	if updated.PromptText != "revised" {
		t.Errorf("expected revised text, got %q", updated.PromptText)
	}
	if !updated.IsCurrent {
		t.Error("text-only update should not touch is_current")
	}
	if !updated.UpdatedAt.After(a.UpdatedAt) && !updated.UpdatedAt.Equal(a.UpdatedAt) {
		t.Error("updated_at should be refreshed")
	}

	notCurrent := false
	updated, err = s.UpdateAssignment(a.ID, nil, &notCurrent)
	if err != nil {
		t.Fatalf("UpdateAssignment clear current: %v", err)
	}
	if updated.IsCurrent {
		t.Error("is_current should be cleared")
	}
	if _, err := s.GetCurrentAssignment(); err != sql.ErrNoRows {
		t.Errorf("expected no current assignment, got %v", err)
	}

	current := true
	updated, err = s.UpdateAssignment(a.ID, nil, &current)
	if err != nil {
		t.Fatalf("UpdateAssignment set current: %v", err)
	}
	if !updated.IsCurrent {
		t.Error("is_current should be set")
	}

	if _, err := s.UpdateAssignment(9999, &newText, nil); err != sql.ErrNoRows {
		t.Errorf("expected ErrNoRows for unknown id, got %v", err)
	}
	if _, err := s.UpdateAssignment(9999, nil, nil); err != sql.ErrNoRows {
		t.Errorf("expected ErrNoRows for empty update of unknown id, got %v", err)
	}
}

func TestSystemPrompt(t *testing.T) {
	s := newTestStore(t)

	p, err := s.GetSystemPrompt()
	if err != nil {
		t.Fatalf("GetSystemPrompt: %v", err)
	}
	if p.ID != 1 {
		t.Errorf("expected prompt ID 1, got %d", p.ID)
	}
	if p.PromptText != model.DefaultSystemPrompt {
		t.Errorf("expected default prompt text, got %q", p.PromptText)
	}

	// The default row is created once; a second read returns the same row.
	again, err := s.GetSystemPrompt()
	if err != nil {
		t.Fatalf("GetSystemPrompt again: %v", err)
	}
	if again != p {
		t.Errorf("expected identical prompt, got %+v", again)
	}

	updated, err := s.UpdateSystemPrompt("Ask something tricky.")
	if err != nil {
		t.Fatalf("UpdateSystemPrompt: %v", err)
	}
	if updated.PromptText != "Ask something tricky." {
		t.Errorf("unexpected updated text %q", updated.PromptText)
	}
	p, err = s.GetSystemPrompt()
	if err != nil {
		t.Fatalf("GetSystemPrompt after update: %v", err)
	}
	if p.PromptText != "Ask something tricky." {
		t.Errorf("expected persisted text, got %q", p.PromptText)
	}
}
