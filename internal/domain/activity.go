package domain

import (
	"time"

	"github.com/google/uuid"
)

type ActivityKind string

const (
	ActivityKindComment  ActivityKind = "comment"
	ActivityKindSolution ActivityKind = "solution"
)

type AuthorRole string

const (
	AuthorRoleStudent AuthorRole = "student"
	AuthorRoleGrader  AuthorRole = "grader"
)

// ActivityEvent describes one comment or solution posted on a personal
// assignment. Events arrive from the submission pipeline; this core only
// reacts to them.
type ActivityEvent struct {
	PersonalAssignmentID uuid.UUID    `json:"personal_assignment_id"`
	Kind                 ActivityKind `json:"kind"`
	AuthorRole           AuthorRole   `json:"author_role"`
	OccurredAt           time.Time    `json:"occurred_at"`
}

func (k ActivityKind) IsValid() bool {
	return k == ActivityKindComment || k == ActivityKindSolution
}

func (r AuthorRole) IsValid() bool {
	return r == AuthorRoleStudent || r == AuthorRoleGrader
}
