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

// ErrDuplicateGroup reports a manual group whose name is already taken
// within the course.
var ErrDuplicateGroup = errors.New("student group already exists")

type GroupRepository struct {
	db *sql.DB
}

func NewGroupRepository(db *sql.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

const groupColumns = `id, course_id, kind, name, enrollment_key, created_at, updated_at`

func scanGroup(row interface{ Scan(...interface{}) error }) (*domain.StudentGroup, error) {
	var g domain.StudentGroup
	err := row.Scan(
		&g.ID,
		&g.CourseID,
		&g.Kind,
		&g.Name,
		&g.EnrollmentKey,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GroupRepository) CreateGroup(ctx context.Context, group *domain.StudentGroup) error {
	query := `
		INSERT INTO student_groups (id, course_id, kind, name, enrollment_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate UUID: %w", err)
	}

	now := time.Now()
	_, err = queryer(ctx, r.db).ExecContext(ctx, query,
		id,
		group.CourseID,
		group.Kind,
		group.Name,
		group.EnrollmentKey,
		now,
		now,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateGroup
		}
		return fmt.Errorf("failed to create student group: %w", err)
	}

	group.ID = id
	group.CreatedAt = now
	group.UpdatedAt = now
	return nil
}

func (r *GroupRepository) GetGroupByID(ctx context.Context, id uuid.UUID) (*domain.StudentGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM student_groups WHERE id = $1`

	group, err := scanGroup(queryer(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get student group: %w", err)
	}
	return group, nil
}

func (r *GroupRepository) ListGroupsByCourse(ctx context.Context, courseID uuid.UUID) ([]*domain.StudentGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM student_groups WHERE course_id = $1 ORDER BY name`

	rows, err := queryer(ctx, r.db).QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list student groups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var groups []*domain.StudentGroup
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

const enrollmentColumns = `id, course_id, student_id, group_id, grade, grade_version, is_deleted, created_at, updated_at`

func scanEnrollment(row interface{ Scan(...interface{}) error }) (*domain.Enrollment, error) {
	var e domain.Enrollment
	err := row.Scan(
		&e.ID,
		&e.CourseID,
		&e.StudentID,
		&e.GroupID,
		&e.Grade,
		&e.GradeVersion,
		&e.IsDeleted,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetActiveEnrollment returns the student's live enrollment in the course,
// or ErrNotFound when the student left or never enrolled.
func (r *GroupRepository) GetActiveEnrollment(ctx context.Context, courseID, studentID uuid.UUID) (*domain.Enrollment, error) {
	query := `
		SELECT ` + enrollmentColumns + `
		FROM enrollments
		WHERE course_id = $1 AND student_id = $2 AND is_deleted = FALSE
	`

	enrollment, err := scanEnrollment(queryer(ctx, r.db).QueryRowContext(ctx, query, courseID, studentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return enrollment, nil
}

func (r *GroupRepository) ListActiveEnrollmentsByCourse(ctx context.Context, courseID uuid.UUID) ([]*domain.Enrollment, error) {
	query := `
		SELECT ` + enrollmentColumns + `
		FROM enrollments
		WHERE course_id = $1 AND is_deleted = FALSE
		ORDER BY created_at
	`
	return r.listEnrollments(ctx, query, courseID)
}

func (r *GroupRepository) ListActiveEnrollmentsByGroup(ctx context.Context, groupID uuid.UUID) ([]*domain.Enrollment, error) {
	query := `
		SELECT ` + enrollmentColumns + `
		FROM enrollments
		WHERE group_id = $1 AND is_deleted = FALSE
		ORDER BY created_at
	`
	return r.listEnrollments(ctx, query, groupID)
}

func (r *GroupRepository) listEnrollments(ctx context.Context, query string, args ...interface{}) ([]*domain.Enrollment, error) {
	rows, err := queryer(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var enrollments []*domain.Enrollment
	for rows.Next() {
		enrollment, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		enrollments = append(enrollments, enrollment)
	}
	return enrollments, rows.Err()
}

func (r *GroupRepository) UpdateEnrollmentGroup(ctx context.Context, enrollmentID, groupID uuid.UUID) error {
	query := `
		UPDATE enrollments
		SET group_id = $1, updated_at = $2
		WHERE id = $3 AND is_deleted = FALSE
	`

	result, err := queryer(ctx, r.db).ExecContext(ctx, query, groupID, time.Now(), enrollmentID)
	if err != nil {
		return fmt.Errorf("failed to update enrollment group: %w", err)
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

// UpdateGradeVersioned writes the course-level grade only when the stored
// version still matches the captured one, advancing the version on success.
// Returns false without error on a version mismatch.
func (r *GroupRepository) UpdateGradeVersioned(ctx context.Context, enrollmentID uuid.UUID, grade *string, capturedVersion int64) (bool, error) {
	query := `
		UPDATE enrollments
		SET grade = $1, grade_version = grade_version + 1, updated_at = $2
		WHERE id = $3 AND grade_version = $4 AND is_deleted = FALSE
	`

	result, err := queryer(ctx, r.db).ExecContext(ctx, query, grade, time.Now(), enrollmentID, capturedVersion)
	if err != nil {
		return false, fmt.Errorf("failed to update grade: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

func (r *GroupRepository) GetEnrollmentByID(ctx context.Context, id uuid.UUID) (*domain.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1`

	enrollment, err := scanEnrollment(queryer(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return enrollment, nil
}
