package domain

import (
	"time"

	"github.com/google/uuid"
)

type GroupKind string

const (
	// GroupKindSystem groups are derived from the academic branch and managed
	// automatically.
	GroupKindSystem GroupKind = "system"
	// GroupKindManual groups are named and maintained by a curator.
	GroupKindManual GroupKind = "manual"
)

type StudentGroup struct {
	ID            uuid.UUID
	CourseID      uuid.UUID
	Kind          GroupKind
	Name          string
	EnrollmentKey string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Enrollment links one student to one course and, while grouping is active,
// exactly one student group. Soft-deleted when a student leaves the course.
type Enrollment struct {
	ID           uuid.UUID
	CourseID     uuid.UUID
	StudentID    uuid.UUID
	GroupID      *uuid.UUID
	Grade        *string
	GradeVersion int64
	IsDeleted    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
