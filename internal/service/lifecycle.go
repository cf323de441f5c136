package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"coursework_service/internal/domain"
	"coursework_service/internal/metrics"
	"coursework_service/pkg/logger"
)

// LifecycleService owns each student's personal copy of an assignment: its
// status state machine and the bulk membership operations keeping the set of
// personal assignments consistent with enrollment and visibility.
type LifecycleService struct {
	assignmentStore AssignmentStore
	groupStore      GroupStore
	personalStore   PersonalStore
	profiles        ProfileClient
	notifier        Notifier
	tx              TxRunner
	logger          *logger.Logger
}

func NewLifecycleService(
	assignmentStore AssignmentStore,
	groupStore GroupStore,
	personalStore PersonalStore,
	profiles ProfileClient,
	notifier Notifier,
	tx TxRunner,
	log *logger.Logger,
) *LifecycleService {
	return &LifecycleService{
		assignmentStore: assignmentStore,
		groupStore:      groupStore,
		personalStore:   personalStore,
		profiles:        profiles,
		notifier:        notifier,
		tx:              tx,
		logger:          log,
	}
}

// CreateAssignment persists a new assignment and provisions personal copies
// for every student who can currently see it.
func (s *LifecycleService) CreateAssignment(ctx context.Context, assignment *domain.Assignment) error {
	if assignment.Title == "" {
		return domain.NewValidationError(domain.CodeRequired, "assignment title is required")
	}
	if !assignment.AssigneeMode.IsValid() {
		return domain.NewValidationError(domain.CodeMalformed, "unknown assignee mode")
	}
	if !assignment.SubmissionType.IsValid() {
		return domain.NewValidationError(domain.CodeMalformed, "unknown submission type")
	}
	if len(assignment.Assignees) > 0 && assignment.AssigneeMode != domain.AssigneeModeManual {
		return domain.NewValidationError(domain.CodeInvalid, "assignees are only used in manual mode")
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.assignmentStore.Create(ctx, assignment); err != nil {
			return err
		}
		return s.CreateMissing(ctx, assignment.ID, domain.AllGroups())
	})
}

// SetStatus moves a personal assignment from old to next. A stale old value
// is reported as updated=false without an error; an illegal transition for
// the assignment's submission type is a validation error and changes
// nothing.
func (s *LifecycleService) SetStatus(ctx context.Context, personalID uuid.UUID, old, next domain.Status) (bool, error) {
	var (
		updated   bool
		completed bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.personalStore.GetActiveByID(ctx, personalID)
		if err != nil {
			return err
		}
		assignment, err := s.assignmentStore.GetByID(ctx, p.AssignmentID)
		if err != nil {
			return err
		}
		if err := domain.CanTransition(next, assignment.SubmissionType, p.HasSubmission()); err != nil {
			return err
		}

		updated, err = s.personalStore.SetStatusIfCurrent(ctx, personalID, old, next)
		if err != nil {
			return err
		}
		completed = updated && next == domain.StatusCompleted
		return nil
	})
	if err != nil {
		return false, err
	}

	if !updated {
		metrics.StaleStatusSaves.Inc()
		s.logger.Info("stale status, not updated",
			zap.String("personal_assignment_id", personalID.String()),
			zap.String("expected", string(old)),
		)
		return false, nil
	}

	metrics.StatusTransitions.WithLabelValues(string(next)).Inc()
	if completed {
		s.notify(ctx, TopicAssignmentCompleted, map[string]interface{}{
			"personal_assignment_id": personalID,
			"status":                 next,
		})
	}
	return true, nil
}

// CreateMissing creates absent personal assignments for every actively
// enrolled, academically active student whose group is both visible to the
// assignment and selected by scope. An explicit empty scope creates nothing.
func (s *LifecycleService) CreateMissing(ctx context.Context, assignmentID uuid.UUID, scope domain.GroupScope) error {
	if scope.Empty() {
		return nil
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		assignment, err := s.assignmentStore.GetByID(ctx, assignmentID)
		if err != nil {
			return err
		}
		enrollments, err := s.groupStore.ListActiveEnrollmentsByCourse(ctx, assignment.CourseID)
		if err != nil {
			return err
		}

		for _, e := range enrollments {
			if !s.eligible(assignment, e, scope) {
				continue
			}
			active, err := s.profiles.IsAcademicallyActive(ctx, e.StudentID)
			if err != nil {
				return err
			}
			if !active {
				continue
			}
			if _, err := s.personalStore.CreateIfAbsent(ctx, assignmentID, e.StudentID); err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveObsolete trashes personal assignments held by students outside the
// visible (and scope-selected) group set, deleting their dependent
// notification records. An explicit empty scope removes nothing.
func (s *LifecycleService) RemoveObsolete(ctx context.Context, assignmentID uuid.UUID, scope domain.GroupScope) error {
	if scope.Empty() {
		return nil
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		assignment, err := s.assignmentStore.GetByID(ctx, assignmentID)
		if err != nil {
			return err
		}
		enrollments, err := s.groupStore.ListActiveEnrollmentsByCourse(ctx, assignment.CourseID)
		if err != nil {
			return err
		}
		keep := make(map[uuid.UUID]bool, len(enrollments))
		for _, e := range enrollments {
			if s.eligible(assignment, e, scope) {
				keep[e.StudentID] = true
			}
		}

		personals, err := s.personalStore.ListActiveByAssignment(ctx, assignmentID)
		if err != nil {
			return err
		}
		var obsolete []uuid.UUID
		for _, p := range personals {
			if !keep[p.StudentID] {
				obsolete = append(obsolete, p.ID)
			}
		}
		return s.personalStore.Trash(ctx, obsolete)
	})
}

// Restrict replaces the assignment's visibility set and reconciles the
// personal assignments to it within the same transaction. An empty set
// opens the assignment to every group of the course.
func (s *LifecycleService) Restrict(ctx context.Context, assignmentID uuid.UUID, groups []uuid.UUID) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.assignmentStore.SetRestrictedTo(ctx, assignmentID, groups); err != nil {
			return err
		}
		return s.Sync(ctx, assignmentID)
	})
}

// Trashed lists the soft-deleted personal assignments of one assignment,
// kept for audit review.
func (s *LifecycleService) Trashed(ctx context.Context, assignmentID uuid.UUID) ([]*domain.PersonalAssignment, error) {
	return s.personalStore.ListTrashedByAssignment(ctx, assignmentID)
}

// Sync reconciles the personal assignment set to exactly the currently
// visible enrollments. Used after the assignment's restriction set changes.
func (s *LifecycleService) Sync(ctx context.Context, assignmentID uuid.UUID) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.CreateMissing(ctx, assignmentID, domain.AllGroups()); err != nil {
			return err
		}
		return s.RemoveObsolete(ctx, assignmentID, domain.AllGroups())
	})
}

// eligible: the enrollment's group must be visible to the assignment and
// selected by scope. Students without a group see only unrestricted
// assignments, and only under the all-groups scope.
func (s *LifecycleService) eligible(assignment *domain.Assignment, e *domain.Enrollment, scope domain.GroupScope) bool {
	if e.GroupID == nil {
		return len(assignment.RestrictedTo) == 0 && scope.All()
	}
	return IsVisible(assignment, *e.GroupID) && scope.Contains(*e.GroupID)
}

func (s *LifecycleService) notify(ctx context.Context, topic string, message interface{}) {
	if err := s.notifier.Send(ctx, topic, message); err != nil {
		s.logger.Error("failed to send notification", zap.String("topic", topic), zap.Error(err))
	}
}
