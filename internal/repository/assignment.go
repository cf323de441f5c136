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

type AssignmentRepository struct {
	db *sql.DB
}

func NewAssignmentRepository(db *sql.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) Create(ctx context.Context, assignment *domain.Assignment) error {
	query := `
		INSERT INTO assignments (id, course_id, title, assignee_mode, submission_type, created_at, edited_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate UUID: %w", err)
	}

	now := time.Now()
	q := queryer(ctx, r.db)
	_, err = q.ExecContext(ctx, query,
		id,
		assignment.CourseID,
		assignment.Title,
		assignment.AssigneeMode,
		assignment.SubmissionType,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}

	for _, groupID := range assignment.RestrictedTo {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO assignment_restrictions (assignment_id, group_id) VALUES ($1, $2)`,
			id, groupID,
		); err != nil {
			return fmt.Errorf("failed to restrict assignment: %w", err)
		}
	}
	for _, graderID := range assignment.Assignees {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO assignment_assignees (assignment_id, grader_id) VALUES ($1, $2)`,
			id, graderID,
		); err != nil {
			return fmt.Errorf("failed to add assignee: %w", err)
		}
	}

	assignment.ID = id
	assignment.CreatedAt = now
	assignment.EditedAt = now
	return nil
}

func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error) {
	query := `
		SELECT id, course_id, title, assignee_mode, submission_type, created_at, edited_at
		FROM assignments
		WHERE id = $1
	`

	var a domain.Assignment
	err := queryer(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&a.ID,
		&a.CourseID,
		&a.Title,
		&a.AssigneeMode,
		&a.SubmissionType,
		&a.CreatedAt,
		&a.EditedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	if err := r.loadSets(ctx, []*domain.Assignment{&a}); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AssignmentRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]*domain.Assignment, error) {
	query := `
		SELECT id, course_id, title, assignee_mode, submission_type, created_at, edited_at
		FROM assignments
		WHERE course_id = $1
		ORDER BY created_at
	`

	rows, err := queryer(ctx, r.db).QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var assignments []*domain.Assignment
	for rows.Next() {
		var a domain.Assignment
		if err := rows.Scan(
			&a.ID,
			&a.CourseID,
			&a.Title,
			&a.AssigneeMode,
			&a.SubmissionType,
			&a.CreatedAt,
			&a.EditedAt,
		); err != nil {
			return nil, err
		}
		assignments = append(assignments, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadSets(ctx, assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// SetRestrictedTo replaces the visibility set of one assignment. An empty
// set makes the assignment visible to every group of the course again.
func (r *AssignmentRepository) SetRestrictedTo(ctx context.Context, assignmentID uuid.UUID, groups []uuid.UUID) error {
	q := queryer(ctx, r.db)
	if _, err := q.ExecContext(ctx,
		`DELETE FROM assignment_restrictions WHERE assignment_id = $1`, assignmentID,
	); err != nil {
		return fmt.Errorf("failed to clear restrictions: %w", err)
	}
	for _, groupID := range groups {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO assignment_restrictions (assignment_id, group_id) VALUES ($1, $2)`,
			assignmentID, groupID,
		); err != nil {
			return fmt.Errorf("failed to restrict assignment: %w", err)
		}
	}
	if _, err := q.ExecContext(ctx,
		`UPDATE assignments SET edited_at = $1 WHERE id = $2`, time.Now(), assignmentID,
	); err != nil {
		return fmt.Errorf("failed to touch assignment: %w", err)
	}
	return nil
}

// loadSets fills RestrictedTo and Assignees for the given assignments.
func (r *AssignmentRepository) loadSets(ctx context.Context, assignments []*domain.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Assignment, len(assignments))
	ids := make([]uuid.UUID, 0, len(assignments))
	for _, a := range assignments {
		byID[a.ID] = a
		ids = append(ids, a.ID)
	}

	q := queryer(ctx, r.db)
	rows, err := q.QueryContext(ctx, `
		SELECT assignment_id, group_id
		FROM assignment_restrictions
		WHERE assignment_id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load restrictions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var assignmentID, groupID uuid.UUID
		if err := rows.Scan(&assignmentID, &groupID); err != nil {
			return err
		}
		byID[assignmentID].RestrictedTo = append(byID[assignmentID].RestrictedTo, groupID)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	assigneeRows, err := q.QueryContext(ctx, `
		SELECT assignment_id, grader_id
		FROM assignment_assignees
		WHERE assignment_id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load assignees: %w", err)
	}
	defer func() { _ = assigneeRows.Close() }()
	for assigneeRows.Next() {
		var assignmentID, graderID uuid.UUID
		if err := assigneeRows.Scan(&assignmentID, &graderID); err != nil {
			return err
		}
		byID[assignmentID].Assignees = append(byID[assignmentID].Assignees, graderID)
	}
	return assigneeRows.Err()
}
