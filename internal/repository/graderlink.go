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

// ErrDuplicateLink reports an insert of an already existing
// (group, grader, assignment-or-nil) tuple.
var ErrDuplicateLink = errors.New("grader link already exists")

type GraderLinkRepository struct {
	db *sql.DB
}

func NewGraderLinkRepository(db *sql.DB) *GraderLinkRepository {
	return &GraderLinkRepository{db: db}
}

func (r *GraderLinkRepository) Insert(ctx context.Context, link *domain.GraderLink) error {
	query := `
		INSERT INTO grader_links (id, group_id, grader_id, assignment_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate UUID: %w", err)
	}

	now := time.Now()
	_, err = queryer(ctx, r.db).ExecContext(ctx, query,
		id,
		link.GroupID,
		link.GraderID,
		link.AssignmentID,
		now,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateLink
		}
		return fmt.Errorf("failed to insert grader link: %w", err)
	}

	link.ID = id
	link.CreatedAt = now
	return nil
}

// ListByScope returns the links matching exactly the given assignment scope:
// nil selects only the group-wide links, a concrete ID only the links
// narrowed to that assignment. There is no fallback between the two.
func (r *GraderLinkRepository) ListByScope(ctx context.Context, groupID uuid.UUID, assignmentID *uuid.UUID) ([]*domain.GraderLink, error) {
	query := `
		SELECT id, group_id, grader_id, assignment_id, created_at
		FROM grader_links
		WHERE group_id = $1 AND assignment_id IS NOT DISTINCT FROM $2
		ORDER BY created_at
	`

	rows, err := queryer(ctx, r.db).QueryContext(ctx, query, groupID, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grader links: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var links []*domain.GraderLink
	for rows.Next() {
		var link domain.GraderLink
		if err := rows.Scan(
			&link.ID,
			&link.GroupID,
			&link.GraderID,
			&link.AssignmentID,
			&link.CreatedAt,
		); err != nil {
			return nil, err
		}
		links = append(links, &link)
	}
	return links, rows.Err()
}

// DeleteByScopeAndGraders removes the links for the given graders within one
// (group, assignment-or-nil) scope, leaving the other scope untouched.
func (r *GraderLinkRepository) DeleteByScopeAndGraders(ctx context.Context, groupID uuid.UUID, assignmentID *uuid.UUID, graderIDs []uuid.UUID) error {
	if len(graderIDs) == 0 {
		return nil
	}

	query := `
		DELETE FROM grader_links
		WHERE group_id = $1 AND assignment_id IS NOT DISTINCT FROM $2 AND grader_id = ANY($3)
	`

	if _, err := queryer(ctx, r.db).ExecContext(ctx, query, groupID, assignmentID, pq.Array(graderIDs)); err != nil {
		return fmt.Errorf("failed to delete grader links: %w", err)
	}
	return nil
}
