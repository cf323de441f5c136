package domain

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusNotSubmitted Status = "not_submitted"
	StatusOnChecking   Status = "on_checking"
	StatusNeedFixes    Status = "need_fixes"
	StatusCompleted    Status = "completed"
)

// Meta holds statistics derived from the activity stream of one personal
// assignment. It is updated as a side effect of activity events, never edited
// directly.
type Meta struct {
	CommentCount     int
	LastActivityKind *ActivityKind
	LastActivityRole *AuthorRole
	FirstSolutionAt  *time.Time
	LastSolutionAt   *time.Time
	// FirstStudentActivityAt is set by the first student-authored event of
	// any kind. A comment counts as a submission the same way a solution
	// does.
	FirstStudentActivityAt *time.Time
}

// PersonalAssignment is one student's individual instance of a course
// assignment. Unique per (assignment, student) pair, trash included.
type PersonalAssignment struct {
	ID           uuid.UUID
	AssignmentID uuid.UUID
	StudentID    uuid.UUID
	Status       Status
	Score        *int
	// ScoreVersion advances on every score write and is the optimistic
	// concurrency marker compared during gradebook saves.
	ScoreVersion      int64
	Assignee          *uuid.UUID
	TriggerAutoAssign bool
	Meta              Meta
	CreatedAt         time.Time
	EditedAt          time.Time
	DeletedAt         *time.Time
}

// HasSubmission reports whether the student has ever submitted anything.
// Any student-authored comment or solution counts; a rollback to
// not_submitted is forbidden once this is true.
func (p *PersonalAssignment) HasSubmission() bool {
	return p.Meta.FirstSolutionAt != nil || p.Meta.FirstStudentActivityAt != nil
}

// CanTransition checks that moving a personal assignment of the given
// submission type to next is a legal state-machine step. Staleness of the
// caller's view of the current status is checked separately on save.
func CanTransition(next Status, submissionType SubmissionType, hasSubmission bool) error {
	if !next.IsValid() {
		return NewValidationError(CodeMalformed, "unknown status")
	}
	if next == StatusNeedFixes && submissionType == SubmissionTypeNoSubmit {
		return NewValidationError(CodeInvalid, "status not allowed for this submission type")
	}
	if next == StatusNotSubmitted && hasSubmission {
		return NewValidationError(CodeInvalid, "cannot roll back to not_submitted after a submission")
	}
	return nil
}
