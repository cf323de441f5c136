package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"coursework_service/internal/domain"
)

type VisibilityService struct {
	groupStore      GroupStore
	assignmentStore AssignmentStore
	personalStore   PersonalStore
}

func NewVisibilityService(
	groupStore GroupStore,
	assignmentStore AssignmentStore,
	personalStore PersonalStore,
) *VisibilityService {
	return &VisibilityService{
		groupStore:      groupStore,
		assignmentStore: assignmentStore,
		personalStore:   personalStore,
	}
}

// IsVisible reports whether the assignment is open to the group: an empty
// restriction set means every group of the course sees it.
func IsVisible(assignment *domain.Assignment, groupID uuid.UUID) bool {
	if len(assignment.RestrictedTo) == 0 {
		return true
	}
	return lo.Contains(assignment.RestrictedTo, groupID)
}

// AvailableAssignments returns every assignment of the group's course the
// group is allowed to see.
func (s *VisibilityService) AvailableAssignments(ctx context.Context, groupID uuid.UUID) ([]*domain.Assignment, error) {
	group, err := s.groupStore.GetGroupByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	assignments, err := s.assignmentStore.ListByCourse(ctx, group.CourseID)
	if err != nil {
		return nil, err
	}

	return lo.Filter(assignments, func(a *domain.Assignment, _ int) bool {
		return IsVisible(a, groupID)
	}), nil
}

// GroupsAllowedForTransfer lists candidate destination groups in the same
// course that would not strand existing student work behind a restriction.
// This is an optimistic pre-filter for pickers; the authoritative per-student
// veto happens inside Transfer.
func (s *VisibilityService) GroupsAllowedForTransfer(ctx context.Context, sourceGroupID uuid.UUID) ([]*domain.StudentGroup, error) {
	source, err := s.groupStore.GetGroupByID(ctx, sourceGroupID)
	if err != nil {
		return nil, err
	}

	groups, err := s.groupStore.ListGroupsByCourse(ctx, source.CourseID)
	if err != nil {
		return nil, err
	}

	assignments, err := s.assignmentStore.ListByCourse(ctx, source.CourseID)
	if err != nil {
		return nil, err
	}

	sourceVisible := lo.Filter(assignments, func(a *domain.Assignment, _ int) bool {
		return IsVisible(a, sourceGroupID)
	})

	var allowed []*domain.StudentGroup
	for _, candidate := range groups {
		if candidate.ID == sourceGroupID {
			continue
		}

		losing := lo.Filter(sourceVisible, func(a *domain.Assignment, _ int) bool {
			return !IsVisible(a, candidate.ID)
		})

		safe := true
		for _, a := range losing {
			count, err := s.personalStore.CountActiveForAssignmentAndGroup(ctx, a.ID, sourceGroupID)
			if err != nil {
				return nil, err
			}
			if count > 0 {
				safe = false
				break
			}
		}
		if safe {
			allowed = append(allowed, candidate)
		}
	}
	return allowed, nil
}
