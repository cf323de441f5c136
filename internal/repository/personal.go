package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"coursework_service/internal/domain"
)

type PersonalRepository struct {
	db *sql.DB
}

func NewPersonalRepository(db *sql.DB) *PersonalRepository {
	return &PersonalRepository{db: db}
}

const personalColumns = `
	id, assignment_id, student_id, status, score, score_version, assignee,
	trigger_auto_assign, comment_count, last_activity_kind, last_activity_role,
	first_solution_at, last_solution_at, first_student_activity_at,
	created_at, edited_at, deleted_at`

func scanPersonal(row interface{ Scan(...interface{}) error }) (*domain.PersonalAssignment, error) {
	var p domain.PersonalAssignment
	err := row.Scan(
		&p.ID,
		&p.AssignmentID,
		&p.StudentID,
		&p.Status,
		&p.Score,
		&p.ScoreVersion,
		&p.Assignee,
		&p.TriggerAutoAssign,
		&p.Meta.CommentCount,
		&p.Meta.LastActivityKind,
		&p.Meta.LastActivityRole,
		&p.Meta.FirstSolutionAt,
		&p.Meta.LastSolutionAt,
		&p.Meta.FirstStudentActivityAt,
		&p.CreatedAt,
		&p.EditedAt,
		&p.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateIfAbsent inserts a fresh personal assignment in not_submitted state,
// or restores a trashed one for the same (assignment, student) pair. Returns
// false when an active record already exists.
func (r *PersonalRepository) CreateIfAbsent(ctx context.Context, assignmentID, studentID uuid.UUID) (bool, error) {
	query := `
		INSERT INTO personal_assignments
			(id, assignment_id, student_id, status, trigger_auto_assign, created_at, edited_at)
		VALUES ($1, $2, $3, $4, TRUE, $5, $5)
		ON CONFLICT (assignment_id, student_id) DO UPDATE
			SET deleted_at = NULL, edited_at = $5
			WHERE personal_assignments.deleted_at IS NOT NULL
	`

	id, err := uuid.NewV7()
	if err != nil {
		return false, fmt.Errorf("failed to generate UUID: %w", err)
	}

	result, err := queryer(ctx, r.db).ExecContext(ctx, query,
		id, assignmentID, studentID, domain.StatusNotSubmitted, time.Now(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to create personal assignment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

func (r *PersonalRepository) GetActiveByID(ctx context.Context, id uuid.UUID) (*domain.PersonalAssignment, error) {
	query := `SELECT ` + personalColumns + ` FROM personal_assignments WHERE id = $1 AND deleted_at IS NULL`

	p, err := scanPersonal(queryer(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get personal assignment: %w", err)
	}
	return p, nil
}

func (r *PersonalRepository) GetActiveByPair(ctx context.Context, assignmentID, studentID uuid.UUID) (*domain.PersonalAssignment, error) {
	query := `
		SELECT ` + personalColumns + `
		FROM personal_assignments
		WHERE assignment_id = $1 AND student_id = $2 AND deleted_at IS NULL
	`

	p, err := scanPersonal(queryer(ctx, r.db).QueryRowContext(ctx, query, assignmentID, studentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get personal assignment: %w", err)
	}
	return p, nil
}

func (r *PersonalRepository) ExistsActive(ctx context.Context, assignmentID, studentID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM personal_assignments
			WHERE assignment_id = $1 AND student_id = $2 AND deleted_at IS NULL
		)
	`

	var exists bool
	if err := queryer(ctx, r.db).QueryRowContext(ctx, query, assignmentID, studentID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check personal assignment: %w", err)
	}
	return exists, nil
}

func (r *PersonalRepository) ListActiveByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]*domain.PersonalAssignment, error) {
	query := `
		SELECT ` + personalColumns + `
		FROM personal_assignments
		WHERE assignment_id = $1 AND deleted_at IS NULL
		ORDER BY created_at
	`
	return r.list(ctx, query, assignmentID)
}

// ListTrashedByAssignment is the trash-side counterpart of
// ListActiveByAssignment, used for audit review of removed work.
func (r *PersonalRepository) ListTrashedByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]*domain.PersonalAssignment, error) {
	query := `
		SELECT ` + personalColumns + `
		FROM personal_assignments
		WHERE assignment_id = $1 AND deleted_at IS NOT NULL
		ORDER BY created_at
	`
	return r.list(ctx, query, assignmentID)
}

func (r *PersonalRepository) ListActiveByCourse(ctx context.Context, courseID uuid.UUID) ([]*domain.PersonalAssignment, error) {
	query := `
		SELECT p.id, p.assignment_id, p.student_id, p.status, p.score, p.score_version,
		       p.assignee, p.trigger_auto_assign, p.comment_count, p.last_activity_kind,
		       p.last_activity_role, p.first_solution_at, p.last_solution_at,
		       p.first_student_activity_at, p.created_at, p.edited_at, p.deleted_at
		FROM personal_assignments p
		JOIN assignments a ON a.id = p.assignment_id
		WHERE a.course_id = $1 AND p.deleted_at IS NULL
		ORDER BY p.created_at
	`
	return r.list(ctx, query, courseID)
}

func (r *PersonalRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.PersonalAssignment, error) {
	rows, err := queryer(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list personal assignments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var personals []*domain.PersonalAssignment
	for rows.Next() {
		p, err := scanPersonal(rows)
		if err != nil {
			return nil, err
		}
		personals = append(personals, p)
	}
	return personals, rows.Err()
}

// Trash soft-deletes the given personal assignments and hard-deletes their
// dependent notification records.
func (r *PersonalRepository) Trash(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	q := queryer(ctx, r.db)
	if _, err := q.ExecContext(ctx,
		`UPDATE personal_assignments SET deleted_at = $1, edited_at = $1 WHERE id = ANY($2) AND deleted_at IS NULL`,
		time.Now(), pq.Array(ids),
	); err != nil {
		return fmt.Errorf("failed to trash personal assignments: %w", err)
	}
	if _, err := q.ExecContext(ctx,
		`DELETE FROM personal_notifications WHERE personal_assignment_id = ANY($1)`,
		pq.Array(ids),
	); err != nil {
		return fmt.Errorf("failed to delete notification records: %w", err)
	}
	return nil
}

// SetStatusIfCurrent applies the transition only when the stored status still
// equals old. Returns false without error when the caller's view was stale.
func (r *PersonalRepository) SetStatusIfCurrent(ctx context.Context, id uuid.UUID, old, next domain.Status) (bool, error) {
	query := `
		UPDATE personal_assignments
		SET status = $1, edited_at = $2
		WHERE id = $3 AND status = $4 AND deleted_at IS NULL
	`

	result, err := queryer(ctx, r.db).ExecContext(ctx, query, next, time.Now(), id, old)
	if err != nil {
		return false, fmt.Errorf("failed to set status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

// UpdateActivityState persists the fields touched by activity handling:
// status, derived meta statistics, assignee and the auto-assign flag. The
// write lands only while status and comment_count still hold the values the
// caller read them at; false means a concurrent writer got there first and
// the caller must re-read before retrying.
func (r *PersonalRepository) UpdateActivityState(ctx context.Context, p *domain.PersonalAssignment, readStatus domain.Status, readComments int) (bool, error) {
	query := `
		UPDATE personal_assignments
		SET status = $1, assignee = $2, trigger_auto_assign = $3,
		    comment_count = $4, last_activity_kind = $5, last_activity_role = $6,
		    first_solution_at = $7, last_solution_at = $8,
		    first_student_activity_at = $9, edited_at = $10
		WHERE id = $11 AND status = $12 AND comment_count = $13 AND deleted_at IS NULL
	`

	result, err := queryer(ctx, r.db).ExecContext(ctx, query,
		p.Status,
		p.Assignee,
		p.TriggerAutoAssign,
		p.Meta.CommentCount,
		p.Meta.LastActivityKind,
		p.Meta.LastActivityRole,
		p.Meta.FirstSolutionAt,
		p.Meta.LastSolutionAt,
		p.Meta.FirstStudentActivityAt,
		time.Now(),
		p.ID,
		readStatus,
		readComments,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update personal assignment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

// UpdateScoreVersioned writes the score only when the stored version still
// matches the captured one, advancing the version on success. Returns false
// without error on a version mismatch.
func (r *PersonalRepository) UpdateScoreVersioned(ctx context.Context, id uuid.UUID, score *int, capturedVersion int64) (bool, error) {
	query := `
		UPDATE personal_assignments
		SET score = $1, score_version = score_version + 1, edited_at = $2
		WHERE id = $3 AND score_version = $4 AND deleted_at IS NULL
	`

	result, err := queryer(ctx, r.db).ExecContext(ctx, query, score, time.Now(), id, capturedVersion)
	if err != nil {
		return false, fmt.Errorf("failed to update score: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

// UpdateScore writes the score unconditionally, still advancing the version
// so concurrent gradebook editors see the change. Used by the import path.
func (r *PersonalRepository) UpdateScore(ctx context.Context, id uuid.UUID, score int) error {
	query := `
		UPDATE personal_assignments
		SET score = $1, score_version = score_version + 1, edited_at = $2
		WHERE id = $3 AND deleted_at IS NULL
	`

	result, err := queryer(ctx, r.db).ExecContext(ctx, query, score, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update score: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// CountActiveForAssignmentAndGroup counts active personal assignments of one
// assignment held by students currently in the given group. Used by the
// transfer pre-filter.
func (r *PersonalRepository) CountActiveForAssignmentAndGroup(ctx context.Context, assignmentID, groupID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM personal_assignments p
		JOIN assignments a ON a.id = p.assignment_id
		JOIN enrollments e ON e.course_id = a.course_id AND e.student_id = p.student_id
		WHERE p.assignment_id = $1 AND p.deleted_at IS NULL
		  AND e.group_id = $2 AND e.is_deleted = FALSE
	`

	var count int
	if err := queryer(ctx, r.db).QueryRowContext(ctx, query, assignmentID, groupID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count personal assignments: %w", err)
	}
	return count, nil
}
