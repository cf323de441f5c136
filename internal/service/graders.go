package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"coursework_service/internal/domain"
	"coursework_service/internal/repository"
)

type GraderRegistryService struct {
	linkStore  GraderLinkStore
	groupStore GroupStore
	catalog    CatalogClient
	tx         TxRunner
}

func NewGraderRegistryService(
	linkStore GraderLinkStore,
	groupStore GroupStore,
	catalog CatalogClient,
	tx TxRunner,
) *GraderRegistryService {
	return &GraderRegistryService{
		linkStore:  linkStore,
		groupStore: groupStore,
		catalog:    catalog,
		tx:         tx,
	}
}

// AddGraders links the graders to the group, optionally narrowed to one
// assignment. An already existing link fails the whole call; replacing a set
// is Update's job, never a silent overwrite here.
func (s *GraderRegistryService) AddGraders(ctx context.Context, groupID uuid.UUID, graders []uuid.UUID, assignmentID *uuid.UUID) error {
	group, err := s.groupStore.GetGroupByID(ctx, groupID)
	if err != nil {
		return err
	}
	if err := s.validateGraders(ctx, group.CourseID, graders); err != nil {
		return err
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, graderID := range graders {
			link := &domain.GraderLink{
				GroupID:      groupID,
				GraderID:     graderID,
				AssignmentID: assignmentID,
			}
			if err := s.linkStore.Insert(ctx, link); err != nil {
				if errors.Is(err, repository.ErrDuplicateLink) {
					return domain.NewValidationError(domain.CodeDuplicate, "grader link already exists")
				}
				return err
			}
		}
		return nil
	})
}

// UpdateGraders replaces the exact link set of the (group, assignment-or-nil)
// scope with graders: missing links are added, absent ones removed. Links in
// the other scope are left untouched.
func (s *GraderRegistryService) UpdateGraders(ctx context.Context, groupID uuid.UUID, graders []uuid.UUID, assignmentID *uuid.UUID) error {
	group, err := s.groupStore.GetGroupByID(ctx, groupID)
	if err != nil {
		return err
	}
	if err := s.validateGraders(ctx, group.CourseID, graders); err != nil {
		return err
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		links, err := s.linkStore.ListByScope(ctx, groupID, assignmentID)
		if err != nil {
			return err
		}
		current := lo.Map(links, func(l *domain.GraderLink, _ int) uuid.UUID { return l.GraderID })

		toAdd, toRemove := lo.Difference(graders, current)
		for _, graderID := range toAdd {
			link := &domain.GraderLink{
				GroupID:      groupID,
				GraderID:     graderID,
				AssignmentID: assignmentID,
			}
			if err := s.linkStore.Insert(ctx, link); err != nil {
				return err
			}
		}
		return s.linkStore.DeleteByScopeAndGraders(ctx, groupID, assignmentID, toRemove)
	})
}

// GetGraders returns the graders whose links match exactly the given
// assignment scope, in link-creation order. Group-wide links are not a
// fallback for an assignment scope; that asymmetry is what group_custom
// resolution relies on.
func (s *GraderRegistryService) GetGraders(ctx context.Context, groupID uuid.UUID, assignmentID *uuid.UUID) ([]uuid.UUID, error) {
	links, err := s.linkStore.ListByScope(ctx, groupID, assignmentID)
	if err != nil {
		return nil, err
	}
	return lo.Map(links, func(l *domain.GraderLink, _ int) uuid.UUID { return l.GraderID }), nil
}

func (s *GraderRegistryService) validateGraders(ctx context.Context, courseID uuid.UUID, graders []uuid.UUID) error {
	for _, graderID := range graders {
		ok, err := s.catalog.IsCourseTeacher(ctx, courseID, graderID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NewValidationError(domain.CodeInvalid, "grader is not a teacher of the course")
		}
	}
	return nil
}
