package service

import (
	"context"

	"github.com/google/uuid"

	"coursework_service/internal/domain"
)

// Notification topics produced by this service.
const (
	TopicAssignmentCompleted        = "assignment-completed"
	TopicPersonalAssignmentsChanged = "personal-assignments-changed"
)

type GroupStore interface {
	CreateGroup(ctx context.Context, group *domain.StudentGroup) error
	GetGroupByID(ctx context.Context, id uuid.UUID) (*domain.StudentGroup, error)
	ListGroupsByCourse(ctx context.Context, courseID uuid.UUID) ([]*domain.StudentGroup, error)
	GetActiveEnrollment(ctx context.Context, courseID, studentID uuid.UUID) (*domain.Enrollment, error)
	GetEnrollmentByID(ctx context.Context, id uuid.UUID) (*domain.Enrollment, error)
	ListActiveEnrollmentsByCourse(ctx context.Context, courseID uuid.UUID) ([]*domain.Enrollment, error)
	ListActiveEnrollmentsByGroup(ctx context.Context, groupID uuid.UUID) ([]*domain.Enrollment, error)
	UpdateEnrollmentGroup(ctx context.Context, enrollmentID, groupID uuid.UUID) error
	UpdateGradeVersioned(ctx context.Context, enrollmentID uuid.UUID, grade *string, capturedVersion int64) (bool, error)
}

type AssignmentStore interface {
	Create(ctx context.Context, assignment *domain.Assignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error)
	ListByCourse(ctx context.Context, courseID uuid.UUID) ([]*domain.Assignment, error)
	SetRestrictedTo(ctx context.Context, assignmentID uuid.UUID, groups []uuid.UUID) error
}

type PersonalStore interface {
	CreateIfAbsent(ctx context.Context, assignmentID, studentID uuid.UUID) (bool, error)
	GetActiveByID(ctx context.Context, id uuid.UUID) (*domain.PersonalAssignment, error)
	GetActiveByPair(ctx context.Context, assignmentID, studentID uuid.UUID) (*domain.PersonalAssignment, error)
	ExistsActive(ctx context.Context, assignmentID, studentID uuid.UUID) (bool, error)
	ListActiveByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]*domain.PersonalAssignment, error)
	ListTrashedByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]*domain.PersonalAssignment, error)
	ListActiveByCourse(ctx context.Context, courseID uuid.UUID) ([]*domain.PersonalAssignment, error)
	Trash(ctx context.Context, ids []uuid.UUID) error
	SetStatusIfCurrent(ctx context.Context, id uuid.UUID, old, next domain.Status) (bool, error)
	UpdateActivityState(ctx context.Context, p *domain.PersonalAssignment, readStatus domain.Status, readComments int) (bool, error)
	UpdateScoreVersioned(ctx context.Context, id uuid.UUID, score *int, capturedVersion int64) (bool, error)
	UpdateScore(ctx context.Context, id uuid.UUID, score int) error
	CountActiveForAssignmentAndGroup(ctx context.Context, assignmentID, groupID uuid.UUID) (int, error)
}

type GraderLinkStore interface {
	Insert(ctx context.Context, link *domain.GraderLink) error
	ListByScope(ctx context.Context, groupID uuid.UUID, assignmentID *uuid.UUID) ([]*domain.GraderLink, error)
	DeleteByScopeAndGraders(ctx context.Context, groupID uuid.UUID, assignmentID *uuid.UUID, graderIDs []uuid.UUID) error
}

// TxRunner joins every store call made inside fn into one transaction.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// CatalogClient answers whether a user teaches a course. Backed by the
// course/teacher catalog collaborator.
type CatalogClient interface {
	IsCourseTeacher(ctx context.Context, courseID, userID uuid.UUID) (bool, error)
}

// ProfileClient answers whether a student profile is academically active
// (not on leave). Backed by the student profile collaborator.
type ProfileClient interface {
	IsAcademicallyActive(ctx context.Context, studentID uuid.UUID) (bool, error)
}

// Notifier delivers fire-and-forget notification messages; failures are
// logged by the caller and never propagated.
type Notifier interface {
	Send(ctx context.Context, topic string, message interface{}) error
}
