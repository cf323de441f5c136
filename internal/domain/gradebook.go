package domain

import "github.com/google/uuid"

// ScoreCell is one editable personal-assignment score in the gradebook,
// together with the version marker captured when the form was generated.
type ScoreCell struct {
	PersonalAssignmentID uuid.UUID
	Score                *int
	Version              int64
}

// GradeCell is the course-level grade of one enrollment.
type GradeCell struct {
	EnrollmentID uuid.UUID
	Grade        *string
	Version      int64
}

type GradebookForm struct {
	CourseID uuid.UUID
	Scores   []ScoreCell
	Grades   []GradeCell
}

// GradebookSave lists only the cells the user actually changed; untouched
// cells stay in the form and are never written.
type GradebookSave struct {
	Scores []ScoreCell
	Grades []GradeCell
}

// SaveResult reports the outcome of a batch save. Conflicts are data, not
// errors: the returned form holds the merged state to re-render, with
// current authoritative values for conflicted cells and the user's input
// everywhere else.
type SaveResult struct {
	HasConflicts     bool
	ConflictedScores []uuid.UUID
	ConflictedGrades []uuid.UUID
	Form             GradebookForm
}

// ScoreRow is one parsed row of a score import. Parsing happens outside this
// core; a row that fails to apply must not abort the rest of the batch.
type ScoreRow struct {
	AssignmentID uuid.UUID
	StudentID    uuid.UUID
	Score        int
}

type ImportResult struct {
	Found    int
	Imported int
	Errors   []error
}
