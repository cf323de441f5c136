package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursework_service/internal/domain"
	"coursework_service/internal/service"
)

func TestIsVisible(t *testing.T) {
	g1 := uuid.New()
	g2 := uuid.New()

	unrestricted := &domain.Assignment{}
	assert.True(t, service.IsVisible(unrestricted, g1))
	assert.True(t, service.IsVisible(unrestricted, g2))

	restricted := &domain.Assignment{RestrictedTo: []uuid.UUID{g1}}
	assert.True(t, service.IsVisible(restricted, g1))
	assert.False(t, service.IsVisible(restricted, g2))
}

func TestAvailableAssignments(t *testing.T) {
	store := newMemStore()
	courseID := uuid.New()
	g1 := store.addGroup(courseID, "A")
	g2 := store.addGroup(courseID, "B")

	open := store.addAssignment(courseID, domain.AssigneeModeDisabled, domain.SubmissionTypeOnline)
	onlyG1 := store.addAssignment(courseID, domain.AssigneeModeDisabled, domain.SubmissionTypeOnline, g1.ID)

	svc := service.NewVisibilityService(store, store, store)

	forG1, err := svc.AvailableAssignments(context.Background(), g1.ID)
	require.NoError(t, err)
	assert.Len(t, forG1, 2)

	forG2, err := svc.AvailableAssignments(context.Background(), g2.ID)
	require.NoError(t, err)
	require.Len(t, forG2, 1)
	assert.Equal(t, open.ID, forG2[0].ID)
	assert.NotEqual(t, onlyG1.ID, forG2[0].ID)
}

func TestGroupsAllowedForTransfer(t *testing.T) {
	store := newMemStore()
	courseID := uuid.New()
	source := store.addGroup(courseID, "source")
	clean := store.addGroup(courseID, "clean")
	blocked := store.addGroup(courseID, "blocked")

	// Visible to source and clean, but not to blocked.
	restricted := store.addAssignment(courseID, domain.AssigneeModeDisabled, domain.SubmissionTypeOnline, source.ID, clean.ID)

	studentID := uuid.New()
	store.addEnrollment(courseID, studentID, &source.ID)
	store.addPersonal(restricted.ID, studentID)

	svc := service.NewVisibilityService(store, store, store)

	allowed, err := svc.GroupsAllowedForTransfer(context.Background(), source.ID)
	require.NoError(t, err)

	ids := make([]uuid.UUID, 0, len(allowed))
	for _, g := range allowed {
		ids = append(ids, g.ID)
	}
	assert.Contains(t, ids, clean.ID)
	assert.NotContains(t, ids, blocked.ID)
	assert.NotContains(t, ids, source.ID)
}

func TestGroupsAllowedForTransferNoWorkAtRisk(t *testing.T) {
	store := newMemStore()
	courseID := uuid.New()
	source := store.addGroup(courseID, "source")
	other := store.addGroup(courseID, "other")

	// Restricted away from other, but nobody has a record yet.
	store.addAssignment(courseID, domain.AssigneeModeDisabled, domain.SubmissionTypeOnline, source.ID)

	svc := service.NewVisibilityService(store, store, store)

	allowed, err := svc.GroupsAllowedForTransfer(context.Background(), source.ID)
	require.NoError(t, err)
	require.Len(t, allowed, 1)
	assert.Equal(t, other.ID, allowed[0].ID)
}
