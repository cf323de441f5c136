package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"coursework_service/internal/domain"
	"coursework_service/internal/repository"
)

// MembershipService is the thin operation surface over groups and
// enrollments. Enrollment creation itself belongs to an external
// collaborator; this service only reads membership and creates
// curator-named groups.
type MembershipService struct {
	groupStore GroupStore
}

func NewMembershipService(groupStore GroupStore) *MembershipService {
	return &MembershipService{groupStore: groupStore}
}

// CreateManualGroup creates a curator-named group in the course. The name
// must be unique among the course's manual groups.
func (s *MembershipService) CreateManualGroup(ctx context.Context, courseID uuid.UUID, name, enrollmentKey string) (*domain.StudentGroup, error) {
	if name == "" {
		return nil, domain.NewValidationError(domain.CodeRequired, "group name is required")
	}

	group := &domain.StudentGroup{
		CourseID:      courseID,
		Kind:          domain.GroupKindManual,
		Name:          name,
		EnrollmentKey: enrollmentKey,
	}
	if err := s.groupStore.CreateGroup(ctx, group); err != nil {
		if errors.Is(err, repository.ErrDuplicateGroup) {
			return nil, domain.NewValidationError(domain.CodeDuplicate, "group name already taken in this course")
		}
		return nil, err
	}
	return group, nil
}

// Groups lists the course's groups.
func (s *MembershipService) Groups(ctx context.Context, courseID uuid.UUID) ([]*domain.StudentGroup, error) {
	return s.groupStore.ListGroupsByCourse(ctx, courseID)
}

// Roster lists the active enrollments currently attached to the group.
func (s *MembershipService) Roster(ctx context.Context, groupID uuid.UUID) ([]*domain.Enrollment, error) {
	if _, err := s.groupStore.GetGroupByID(ctx, groupID); err != nil {
		return nil, err
	}
	return s.groupStore.ListActiveEnrollmentsByGroup(ctx, groupID)
}
