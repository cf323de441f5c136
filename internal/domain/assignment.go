package domain

import (
	"time"

	"github.com/google/uuid"
)

type AssigneeMode string

const (
	AssigneeModeDisabled     AssigneeMode = "disabled"
	AssigneeModeManual       AssigneeMode = "manual"
	AssigneeModeGroupDefault AssigneeMode = "group_default"
	AssigneeModeGroupCustom  AssigneeMode = "group_custom"
)

type SubmissionType string

const (
	SubmissionTypeNoSubmit SubmissionType = "no_submit"
	SubmissionTypeOnline   SubmissionType = "online"
	SubmissionTypeExternal SubmissionType = "external"
)

type Assignment struct {
	ID             uuid.UUID
	CourseID       uuid.UUID
	Title          string
	AssigneeMode   AssigneeMode
	SubmissionType SubmissionType
	// RestrictedTo is the set of student groups allowed to see the assignment.
	// Empty means visible to every group of the course.
	RestrictedTo []uuid.UUID
	// Assignees is the manually pinned grader set, used only in manual mode.
	Assignees []uuid.UUID
	CreatedAt time.Time
	EditedAt  time.Time
}
