package domain

import (
	"time"

	"github.com/google/uuid"
)

// GraderLink ties one student group to one responsible grader. A nil
// AssignmentID makes the link the group-wide default used by the
// group_default mode; a set AssignmentID narrows it to one assignment for
// the group_custom mode. At most one link may exist per
// (group, grader, assignment-or-nil) tuple.
type GraderLink struct {
	ID           uuid.UUID
	GroupID      uuid.UUID
	GraderID     uuid.UUID
	AssignmentID *uuid.UUID
	CreatedAt    time.Time
}
