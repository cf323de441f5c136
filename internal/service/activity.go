package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"coursework_service/internal/domain"
	"coursework_service/internal/metrics"
	"coursework_service/pkg/logger"
)

// ActivityService reacts to comment/solution events from the submission
// pipeline: it keeps the derived meta statistics, advances freshly started
// work onto checking, and opportunistically pins a grader.
type ActivityService struct {
	personalStore PersonalStore
	resolver      *GraderResolver
	tx            TxRunner
	logger        *logger.Logger
}

func NewActivityService(
	personalStore PersonalStore,
	resolver *GraderResolver,
	tx TxRunner,
	log *logger.Logger,
) *ActivityService {
	return &ActivityService{
		personalStore: personalStore,
		resolver:      resolver,
		tx:            tx,
		logger:        log,
	}
}

// activityWriteAttempts bounds the re-read loop when the record is changed
// under the handler by a status save or another event.
const activityWriteAttempts = 3

func (s *ActivityService) HandleActivity(ctx context.Context, event domain.ActivityEvent) error {
	if !event.Kind.IsValid() || !event.AuthorRole.IsValid() {
		return domain.NewValidationError(domain.CodeMalformed, "unknown activity kind or author role")
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for attempt := 0; attempt < activityWriteAttempts; attempt++ {
			p, err := s.personalStore.GetActiveByID(ctx, event.PersonalAssignmentID)
			if err != nil {
				return err
			}
			readStatus, readComments := p.Status, p.Meta.CommentCount

			applyMeta(p, event)

			advanced := false
			outcome := assignNone
			if event.AuthorRole == domain.AuthorRoleStudent {
				if p.Status == domain.StatusNotSubmitted {
					p.Status = domain.StatusOnChecking
					advanced = true
				}
				outcome, err = s.autoAssign(ctx, p)
				if err != nil {
					return err
				}
			}

			// The write lands only if nobody moved status or comment_count
			// since the read above; otherwise the whole step is redone
			// against the fresh record.
			ok, err := s.personalStore.UpdateActivityState(ctx, p, readStatus, readComments)
			if err != nil {
				return err
			}
			if !ok {
				metrics.ActivityWriteConflicts.Inc()
				continue
			}

			if advanced {
				metrics.StatusTransitions.WithLabelValues(string(domain.StatusOnChecking)).Inc()
			}
			switch outcome {
			case assignPinned:
				metrics.AutoAssigned.Inc()
			case assignDeferred:
				metrics.AutoAssignDeferred.Inc()
			}
			return nil
		}
		return fmt.Errorf("gave up after %d conflicting writes for personal assignment %s",
			activityWriteAttempts, event.PersonalAssignmentID)
	})
}

type assignOutcome int

const (
	assignNone assignOutcome = iota
	assignPinned
	assignDeferred
)

// autoAssign pins a single resolved grader on qualifying student activity.
// A human-made assignment wins and is sticky: it clears the trigger without
// re-resolution. Zero or several resolved graders defer to the next event.
func (s *ActivityService) autoAssign(ctx context.Context, p *domain.PersonalAssignment) (assignOutcome, error) {
	if !p.TriggerAutoAssign {
		return assignNone, nil
	}
	if p.Assignee != nil {
		p.TriggerAutoAssign = false
		return assignNone, nil
	}

	graders, err := s.resolver.ResolveGraders(ctx, p)
	if err != nil {
		if errors.Is(err, ErrEnrollmentMissing) {
			s.logger.Warn("auto-assign skipped, no active enrollment",
				zap.String("personal_assignment_id", p.ID.String()))
			return assignNone, nil
		}
		return assignNone, err
	}

	if len(graders) != 1 {
		return assignDeferred, nil
	}

	assignee := graders[0]
	p.Assignee = &assignee
	p.TriggerAutoAssign = false
	return assignPinned, nil
}

func applyMeta(p *domain.PersonalAssignment, event domain.ActivityEvent) {
	kind := event.Kind
	role := event.AuthorRole
	p.Meta.LastActivityKind = &kind
	p.Meta.LastActivityRole = &role

	at := event.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}

	switch event.Kind {
	case domain.ActivityKindComment:
		p.Meta.CommentCount++
	case domain.ActivityKindSolution:
		if p.Meta.FirstSolutionAt == nil {
			firstAt := at
			p.Meta.FirstSolutionAt = &firstAt
		}
		lastAt := at
		p.Meta.LastSolutionAt = &lastAt
	}

	if role == domain.AuthorRoleStudent && p.Meta.FirstStudentActivityAt == nil {
		studentAt := at
		p.Meta.FirstStudentActivityAt = &studentAt
	}
}
