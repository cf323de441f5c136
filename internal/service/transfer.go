package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"coursework_service/internal/domain"
	"coursework_service/internal/metrics"
	"coursework_service/internal/repository"
	"coursework_service/pkg/logger"
)

// TransferService moves students between groups of one course. The whole
// batch is one transaction: if any student would be left with graded work
// behind a restriction, nobody moves.
type TransferService struct {
	groupStore      GroupStore
	assignmentStore AssignmentStore
	personalStore   PersonalStore
	notifier        Notifier
	tx              TxRunner
	logger          *logger.Logger
}

func NewTransferService(
	groupStore GroupStore,
	assignmentStore AssignmentStore,
	personalStore PersonalStore,
	notifier Notifier,
	tx TxRunner,
	log *logger.Logger,
) *TransferService {
	return &TransferService{
		groupStore:      groupStore,
		assignmentStore: assignmentStore,
		personalStore:   personalStore,
		notifier:        notifier,
		tx:              tx,
		logger:          log,
	}
}

func (s *TransferService) Transfer(ctx context.Context, sourceID, destinationID uuid.UUID, students []uuid.UUID) error {
	if sourceID == destinationID {
		return domain.NewValidationError(domain.CodeInvalid, "source and destination groups are the same")
	}

	var movedStudents []uuid.UUID
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		source, err := s.groupStore.GetGroupByID(ctx, sourceID)
		if err != nil {
			return err
		}
		destination, err := s.groupStore.GetGroupByID(ctx, destinationID)
		if err != nil {
			return err
		}
		if source.CourseID != destination.CourseID {
			return domain.NewValidationError(domain.CodeInvalid, "groups belong to different courses")
		}

		assignments, err := s.assignmentStore.ListByCourse(ctx, source.CourseID)
		if err != nil {
			return err
		}
		// Assignments the students lose and gain by moving.
		losing := lo.Filter(assignments, func(a *domain.Assignment, _ int) bool {
			return IsVisible(a, sourceID) && !IsVisible(a, destinationID)
		})
		gaining := lo.Filter(assignments, func(a *domain.Assignment, _ int) bool {
			return IsVisible(a, destinationID) && !IsVisible(a, sourceID)
		})

		// Students not currently enrolled in the source group are skipped,
		// not erred.
		var moving []*domain.Enrollment
		for _, studentID := range students {
			enrollment, err := s.groupStore.GetActiveEnrollment(ctx, source.CourseID, studentID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					continue
				}
				return err
			}
			if enrollment.GroupID == nil || *enrollment.GroupID != sourceID {
				continue
			}
			moving = append(moving, enrollment)
		}

		// Safety veto before any write: existing work on a restricted
		// assignment anywhere in the batch aborts the whole batch.
		for _, enrollment := range moving {
			for _, a := range losing {
				exists, err := s.personalStore.ExistsActive(ctx, a.ID, enrollment.StudentID)
				if err != nil {
					return err
				}
				if exists {
					metrics.TransfersRejected.Inc()
					return domain.NewValidationError(domain.CodeUnsafe, "transfer would orphan existing student work")
				}
			}
		}

		for _, enrollment := range moving {
			if err := s.groupStore.UpdateEnrollmentGroup(ctx, enrollment.ID, destinationID); err != nil {
				return err
			}
			// None should exist after the veto, but an assignment restricted
			// between check and write is covered inside the same transaction.
			var trash []uuid.UUID
			for _, a := range losing {
				p, err := s.personalStore.GetActiveByPair(ctx, a.ID, enrollment.StudentID)
				if err != nil {
					if errors.Is(err, repository.ErrNotFound) {
						continue
					}
					return err
				}
				trash = append(trash, p.ID)
			}
			if err := s.personalStore.Trash(ctx, trash); err != nil {
				return err
			}
			for _, a := range gaining {
				if _, err := s.personalStore.CreateIfAbsent(ctx, a.ID, enrollment.StudentID); err != nil {
					return err
				}
			}
			movedStudents = append(movedStudents, enrollment.StudentID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(movedStudents) > 0 {
		if err := s.notifier.Send(ctx, TopicPersonalAssignmentsChanged, map[string]interface{}{
			"source_group_id":      sourceID,
			"destination_group_id": destinationID,
			"student_ids":          movedStudents,
		}); err != nil {
			s.logger.Error("failed to send transfer notification", zap.Error(err))
		}
	}
	return nil
}
