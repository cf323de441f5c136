package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"coursework_service/internal/domain"
	"coursework_service/internal/repository"
)

// ErrEnrollmentMissing means grader resolution needed the student's group
// but the student has no active enrollment in the course.
var ErrEnrollmentMissing = errors.New("student has no active enrollment")

// GraderResolver computes the currently responsible grader set for a
// personal assignment. Pure read: no side effects on any store.
type GraderResolver struct {
	assignmentStore AssignmentStore
	groupStore      GroupStore
	linkStore       GraderLinkStore
}

func NewGraderResolver(
	assignmentStore AssignmentStore,
	groupStore GroupStore,
	linkStore GraderLinkStore,
) *GraderResolver {
	return &GraderResolver{
		assignmentStore: assignmentStore,
		groupStore:      groupStore,
		linkStore:       linkStore,
	}
}

// ResolveGraders dispatches on the assignment's assignee mode. Multiple
// resolved graders is a valid outcome meaning shared responsibility; callers
// needing a single grader apply their own policy.
func (r *GraderResolver) ResolveGraders(ctx context.Context, p *domain.PersonalAssignment) ([]uuid.UUID, error) {
	assignment, err := r.assignmentStore.GetByID(ctx, p.AssignmentID)
	if err != nil {
		return nil, err
	}

	switch assignment.AssigneeMode {
	case domain.AssigneeModeDisabled:
		if p.Assignee != nil {
			return []uuid.UUID{*p.Assignee}, nil
		}
		return nil, nil

	case domain.AssigneeModeManual:
		return assignment.Assignees, nil

	case domain.AssigneeModeGroupDefault:
		groupID, err := r.studentGroup(ctx, assignment.CourseID, p.StudentID)
		if err != nil {
			return nil, err
		}
		return r.graders(ctx, groupID, nil)

	case domain.AssigneeModeGroupCustom:
		groupID, err := r.studentGroup(ctx, assignment.CourseID, p.StudentID)
		if err != nil {
			return nil, err
		}
		// Assignment-scoped links only: an empty custom set means "no
		// grader" even when a group-wide default exists.
		return r.graders(ctx, groupID, &assignment.ID)

	default:
		return nil, fmt.Errorf("unknown assignee mode %q", assignment.AssigneeMode)
	}
}

func (r *GraderResolver) studentGroup(ctx context.Context, courseID, studentID uuid.UUID) (uuid.UUID, error) {
	enrollment, err := r.groupStore.GetActiveEnrollment(ctx, courseID, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return uuid.Nil, ErrEnrollmentMissing
		}
		return uuid.Nil, err
	}
	if enrollment.GroupID == nil {
		return uuid.Nil, ErrEnrollmentMissing
	}
	return *enrollment.GroupID, nil
}

func (r *GraderResolver) graders(ctx context.Context, groupID uuid.UUID, assignmentID *uuid.UUID) ([]uuid.UUID, error) {
	links, err := r.linkStore.ListByScope(ctx, groupID, assignmentID)
	if err != nil {
		return nil, err
	}
	graders := make([]uuid.UUID, 0, len(links))
	for _, link := range links {
		graders = append(graders, link.GraderID)
	}
	return graders, nil
}
