package service_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"coursework_service/internal/domain"
	"coursework_service/internal/repository"
)

type fakeTx struct{}

func (fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memStore is an in-memory stand-in for all four repositories, close enough
// to the SQL semantics for service-level scenarios.
type memStore struct {
	groups        []*domain.StudentGroup
	enrollments   []*domain.Enrollment
	assignments   []*domain.Assignment
	personals     []*domain.PersonalAssignment
	links         []*domain.GraderLink
	notifications map[uuid.UUID]int // personal assignment -> pending notification records
}

func newMemStore() *memStore {
	return &memStore{notifications: make(map[uuid.UUID]int)}
}

func (s *memStore) addGroup(courseID uuid.UUID, name string) *domain.StudentGroup {
	g := &domain.StudentGroup{
		ID:       uuid.New(),
		CourseID: courseID,
		Kind:     domain.GroupKindManual,
		Name:     name,
	}
	s.groups = append(s.groups, g)
	return g
}

func (s *memStore) addEnrollment(courseID, studentID uuid.UUID, groupID *uuid.UUID) *domain.Enrollment {
	e := &domain.Enrollment{
		ID:        uuid.New(),
		CourseID:  courseID,
		StudentID: studentID,
		GroupID:   groupID,
	}
	s.enrollments = append(s.enrollments, e)
	return e
}

func (s *memStore) addAssignment(courseID uuid.UUID, mode domain.AssigneeMode, subType domain.SubmissionType, restrictedTo ...uuid.UUID) *domain.Assignment {
	a := &domain.Assignment{
		ID:             uuid.New(),
		CourseID:       courseID,
		Title:          "assignment",
		AssigneeMode:   mode,
		SubmissionType: subType,
		RestrictedTo:   restrictedTo,
	}
	s.assignments = append(s.assignments, a)
	return a
}

func (s *memStore) addPersonal(assignmentID, studentID uuid.UUID) *domain.PersonalAssignment {
	p := &domain.PersonalAssignment{
		ID:                uuid.New(),
		AssignmentID:      assignmentID,
		StudentID:         studentID,
		Status:            domain.StatusNotSubmitted,
		TriggerAutoAssign: true,
	}
	s.personals = append(s.personals, p)
	return p
}

func (s *memStore) addLink(groupID, graderID uuid.UUID, assignmentID *uuid.UUID) *domain.GraderLink {
	l := &domain.GraderLink{
		ID:           uuid.New(),
		GroupID:      groupID,
		GraderID:     graderID,
		AssignmentID: assignmentID,
	}
	s.links = append(s.links, l)
	return l
}

// GroupStore

func (s *memStore) CreateGroup(_ context.Context, group *domain.StudentGroup) error {
	for _, g := range s.groups {
		if g.CourseID == group.CourseID && g.Kind == domain.GroupKindManual && g.Name == group.Name {
			return repository.ErrDuplicateGroup
		}
	}
	group.ID = uuid.New()
	s.groups = append(s.groups, group)
	return nil
}

func (s *memStore) GetGroupByID(_ context.Context, id uuid.UUID) (*domain.StudentGroup, error) {
	for _, g := range s.groups {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) ListGroupsByCourse(_ context.Context, courseID uuid.UUID) ([]*domain.StudentGroup, error) {
	var out []*domain.StudentGroup
	for _, g := range s.groups {
		if g.CourseID == courseID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *memStore) GetActiveEnrollment(_ context.Context, courseID, studentID uuid.UUID) (*domain.Enrollment, error) {
	for _, e := range s.enrollments {
		if e.CourseID == courseID && e.StudentID == studentID && !e.IsDeleted {
			return e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) GetEnrollmentByID(_ context.Context, id uuid.UUID) (*domain.Enrollment, error) {
	for _, e := range s.enrollments {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) ListActiveEnrollmentsByCourse(_ context.Context, courseID uuid.UUID) ([]*domain.Enrollment, error) {
	var out []*domain.Enrollment
	for _, e := range s.enrollments {
		if e.CourseID == courseID && !e.IsDeleted {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) ListActiveEnrollmentsByGroup(_ context.Context, groupID uuid.UUID) ([]*domain.Enrollment, error) {
	var out []*domain.Enrollment
	for _, e := range s.enrollments {
		if e.GroupID != nil && *e.GroupID == groupID && !e.IsDeleted {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) UpdateEnrollmentGroup(_ context.Context, enrollmentID, groupID uuid.UUID) error {
	for _, e := range s.enrollments {
		if e.ID == enrollmentID && !e.IsDeleted {
			g := groupID
			e.GroupID = &g
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *memStore) UpdateGradeVersioned(_ context.Context, enrollmentID uuid.UUID, grade *string, capturedVersion int64) (bool, error) {
	for _, e := range s.enrollments {
		if e.ID == enrollmentID && !e.IsDeleted {
			if e.GradeVersion != capturedVersion {
				return false, nil
			}
			e.Grade = grade
			e.GradeVersion++
			return true, nil
		}
	}
	return false, nil
}

// AssignmentStore

func (s *memStore) Create(_ context.Context, a *domain.Assignment) error {
	a.ID = uuid.New()
	s.assignments = append(s.assignments, a)
	return nil
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Assignment, error) {
	for _, a := range s.assignments {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) ListByCourse(_ context.Context, courseID uuid.UUID) ([]*domain.Assignment, error) {
	var out []*domain.Assignment
	for _, a := range s.assignments {
		if a.CourseID == courseID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) SetRestrictedTo(_ context.Context, assignmentID uuid.UUID, groups []uuid.UUID) error {
	for _, a := range s.assignments {
		if a.ID == assignmentID {
			a.RestrictedTo = groups
			return nil
		}
	}
	return repository.ErrNotFound
}

// PersonalStore

func (s *memStore) CreateIfAbsent(_ context.Context, assignmentID, studentID uuid.UUID) (bool, error) {
	for _, p := range s.personals {
		if p.AssignmentID == assignmentID && p.StudentID == studentID {
			if p.DeletedAt != nil {
				p.DeletedAt = nil
				return true, nil
			}
			return false, nil
		}
	}
	s.personals = append(s.personals, &domain.PersonalAssignment{
		ID:                uuid.New(),
		AssignmentID:      assignmentID,
		StudentID:         studentID,
		Status:            domain.StatusNotSubmitted,
		TriggerAutoAssign: true,
	})
	return true, nil
}

// GetActiveByID hands out a snapshot, matching a SQL row read: later store
// writes do not show through the returned struct.
func (s *memStore) GetActiveByID(_ context.Context, id uuid.UUID) (*domain.PersonalAssignment, error) {
	for _, p := range s.personals {
		if p.ID == id && p.DeletedAt == nil {
			snapshot := *p
			return &snapshot, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) GetActiveByPair(_ context.Context, assignmentID, studentID uuid.UUID) (*domain.PersonalAssignment, error) {
	for _, p := range s.personals {
		if p.AssignmentID == assignmentID && p.StudentID == studentID && p.DeletedAt == nil {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) ExistsActive(ctx context.Context, assignmentID, studentID uuid.UUID) (bool, error) {
	_, err := s.GetActiveByPair(ctx, assignmentID, studentID)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (s *memStore) ListActiveByAssignment(_ context.Context, assignmentID uuid.UUID) ([]*domain.PersonalAssignment, error) {
	var out []*domain.PersonalAssignment
	for _, p := range s.personals {
		if p.AssignmentID == assignmentID && p.DeletedAt == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) ListTrashedByAssignment(_ context.Context, assignmentID uuid.UUID) ([]*domain.PersonalAssignment, error) {
	var out []*domain.PersonalAssignment
	for _, p := range s.personals {
		if p.AssignmentID == assignmentID && p.DeletedAt != nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) ListActiveByCourse(ctx context.Context, courseID uuid.UUID) ([]*domain.PersonalAssignment, error) {
	var out []*domain.PersonalAssignment
	for _, p := range s.personals {
		if p.DeletedAt != nil {
			continue
		}
		a, err := s.GetByID(ctx, p.AssignmentID)
		if err != nil {
			continue
		}
		if a.CourseID == courseID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) Trash(_ context.Context, ids []uuid.UUID) error {
	now := time.Now()
	for _, id := range ids {
		for _, p := range s.personals {
			if p.ID == id && p.DeletedAt == nil {
				at := now
				p.DeletedAt = &at
			}
		}
		delete(s.notifications, id)
	}
	return nil
}

func (s *memStore) SetStatusIfCurrent(_ context.Context, id uuid.UUID, old, next domain.Status) (bool, error) {
	for _, p := range s.personals {
		if p.ID == id && p.DeletedAt == nil {
			if p.Status != old {
				return false, nil
			}
			p.Status = next
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) UpdateActivityState(_ context.Context, updated *domain.PersonalAssignment, readStatus domain.Status, readComments int) (bool, error) {
	for _, p := range s.personals {
		if p.ID == updated.ID && p.DeletedAt == nil {
			if p.Status != readStatus || p.Meta.CommentCount != readComments {
				return false, nil
			}
			*p = *updated
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) UpdateScoreVersioned(_ context.Context, id uuid.UUID, score *int, capturedVersion int64) (bool, error) {
	for _, p := range s.personals {
		if p.ID == id && p.DeletedAt == nil {
			if p.ScoreVersion != capturedVersion {
				return false, nil
			}
			p.Score = score
			p.ScoreVersion++
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) UpdateScore(_ context.Context, id uuid.UUID, score int) error {
	for _, p := range s.personals {
		if p.ID == id && p.DeletedAt == nil {
			v := score
			p.Score = &v
			p.ScoreVersion++
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *memStore) CountActiveForAssignmentAndGroup(_ context.Context, assignmentID, groupID uuid.UUID) (int, error) {
	count := 0
	for _, p := range s.personals {
		if p.AssignmentID != assignmentID || p.DeletedAt != nil {
			continue
		}
		for _, e := range s.enrollments {
			if e.StudentID == p.StudentID && !e.IsDeleted && e.GroupID != nil && *e.GroupID == groupID {
				count++
				break
			}
		}
	}
	return count, nil
}

// GraderLinkStore

func (s *memStore) Insert(_ context.Context, link *domain.GraderLink) error {
	for _, l := range s.links {
		if l.GroupID == link.GroupID && l.GraderID == link.GraderID && sameScope(l.AssignmentID, link.AssignmentID) {
			return repository.ErrDuplicateLink
		}
	}
	link.ID = uuid.New()
	s.links = append(s.links, link)
	return nil
}

func (s *memStore) ListByScope(_ context.Context, groupID uuid.UUID, assignmentID *uuid.UUID) ([]*domain.GraderLink, error) {
	var out []*domain.GraderLink
	for _, l := range s.links {
		if l.GroupID == groupID && sameScope(l.AssignmentID, assignmentID) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *memStore) DeleteByScopeAndGraders(_ context.Context, groupID uuid.UUID, assignmentID *uuid.UUID, graderIDs []uuid.UUID) error {
	remove := make(map[uuid.UUID]bool, len(graderIDs))
	for _, id := range graderIDs {
		remove[id] = true
	}
	var kept []*domain.GraderLink
	for _, l := range s.links {
		if l.GroupID == groupID && sameScope(l.AssignmentID, assignmentID) && remove[l.GraderID] {
			continue
		}
		kept = append(kept, l)
	}
	s.links = kept
	return nil
}

func sameScope(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// allActiveProfiles accepts every student; tests needing leave behavior use
// the testutils mock instead.
type allActiveProfiles struct{}

func (allActiveProfiles) IsAcademicallyActive(context.Context, uuid.UUID) (bool, error) {
	return true, nil
}

type nopNotifier struct{}

func (nopNotifier) Send(context.Context, string, interface{}) error { return nil }
