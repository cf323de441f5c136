package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"coursework_service/internal/domain"
	"coursework_service/internal/metrics"
	"coursework_service/internal/repository"
)

// GradebookService batch-saves score edits from the spreadsheet-like editor
// using optimistic per-cell version checks: a concurrent external change is
// surfaced for re-display, never silently overwritten.
type GradebookService struct {
	groupStore    GroupStore
	personalStore PersonalStore
	tx            TxRunner
}

func NewGradebookService(
	groupStore GroupStore,
	personalStore PersonalStore,
	tx TxRunner,
) *GradebookService {
	return &GradebookService{
		groupStore:    groupStore,
		personalStore: personalStore,
		tx:            tx,
	}
}

// BuildForm captures the current editable cells of one course together with
// the version markers the later save will be checked against.
func (s *GradebookService) BuildForm(ctx context.Context, courseID uuid.UUID) (*domain.GradebookForm, error) {
	form := &domain.GradebookForm{CourseID: courseID}

	personals, err := s.personalStore.ListActiveByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	for _, p := range personals {
		form.Scores = append(form.Scores, domain.ScoreCell{
			PersonalAssignmentID: p.ID,
			Score:                p.Score,
			Version:              p.ScoreVersion,
		})
	}

	enrollments, err := s.groupStore.ListActiveEnrollmentsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	for _, e := range enrollments {
		form.Grades = append(form.Grades, domain.GradeCell{
			EnrollmentID: e.ID,
			Grade:        e.Grade,
			Version:      e.GradeVersion,
		})
	}
	return form, nil
}

// SaveBatch applies the changed cells one by one. Cells whose stored version
// moved on since the form was built are conflicts: they keep their stored
// value and come back in the merged form with the authoritative state, next
// to the user's non-conflicting input, so the caller can re-render and ask
// the user to resolve.
func (s *GradebookService) SaveBatch(ctx context.Context, form domain.GradebookForm, save domain.GradebookSave) (*domain.SaveResult, error) {
	result := &domain.SaveResult{Form: form}

	scoreIdx := make(map[uuid.UUID]int, len(form.Scores))
	for i, cell := range form.Scores {
		scoreIdx[cell.PersonalAssignmentID] = i
	}
	gradeIdx := make(map[uuid.UUID]int, len(form.Grades))
	for i, cell := range form.Grades {
		gradeIdx[cell.EnrollmentID] = i
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, edit := range save.Scores {
			applied, err := s.personalStore.UpdateScoreVersioned(ctx, edit.PersonalAssignmentID, edit.Score, edit.Version)
			if err != nil {
				return err
			}
			i, ok := scoreIdx[edit.PersonalAssignmentID]
			if !ok {
				return domain.NewValidationError(domain.CodeInvalid, "edited score cell is not part of the form")
			}
			if applied {
				form.Scores[i] = domain.ScoreCell{
					PersonalAssignmentID: edit.PersonalAssignmentID,
					Score:                edit.Score,
					Version:              edit.Version + 1,
				}
				continue
			}

			result.ConflictedScores = append(result.ConflictedScores, edit.PersonalAssignmentID)
			current, err := s.personalStore.GetActiveByID(ctx, edit.PersonalAssignmentID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return fmt.Errorf("conflicted personal assignment vanished: %w", err)
				}
				return err
			}
			form.Scores[i] = domain.ScoreCell{
				PersonalAssignmentID: current.ID,
				Score:                current.Score,
				Version:              current.ScoreVersion,
			}
		}

		for _, edit := range save.Grades {
			applied, err := s.groupStore.UpdateGradeVersioned(ctx, edit.EnrollmentID, edit.Grade, edit.Version)
			if err != nil {
				return err
			}
			i, ok := gradeIdx[edit.EnrollmentID]
			if !ok {
				return domain.NewValidationError(domain.CodeInvalid, "edited grade cell is not part of the form")
			}
			if applied {
				form.Grades[i] = domain.GradeCell{
					EnrollmentID: edit.EnrollmentID,
					Grade:        edit.Grade,
					Version:      edit.Version + 1,
				}
				continue
			}

			result.ConflictedGrades = append(result.ConflictedGrades, edit.EnrollmentID)
			current, err := s.groupStore.GetEnrollmentByID(ctx, edit.EnrollmentID)
			if err != nil {
				return err
			}
			form.Grades[i] = domain.GradeCell{
				EnrollmentID: current.ID,
				Grade:        current.Grade,
				Version:      current.GradeVersion,
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	conflicts := len(result.ConflictedScores) + len(result.ConflictedGrades)
	if conflicts > 0 {
		result.HasConflicts = true
		metrics.GradebookConflicts.Add(float64(conflicts))
	}
	result.Form = form
	return result, nil
}

// ImportScores applies parsed score rows one by one, counting matches and
// successful writes. A failing row is recorded and skipped; it never aborts
// the rest of the batch.
func (s *GradebookService) ImportScores(ctx context.Context, rows []domain.ScoreRow) *domain.ImportResult {
	result := &domain.ImportResult{}
	for _, row := range rows {
		p, err := s.personalStore.GetActiveByPair(ctx, row.AssignmentID, row.StudentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				result.Errors = append(result.Errors,
					fmt.Errorf("no personal assignment for assignment %s student %s", row.AssignmentID, row.StudentID))
				continue
			}
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Found++

		if err := s.personalStore.UpdateScore(ctx, p.ID, row.Score); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Imported++
	}
	return result
}
