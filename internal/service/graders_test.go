package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"coursework_service/internal/domain"
	"coursework_service/internal/service"
	"coursework_service/internal/testutils"
)

// teacherCatalog accepts every grader as a course teacher.
func teacherCatalog() *testutils.MockCatalogClient {
	catalog := new(testutils.MockCatalogClient)
	catalog.On("IsCourseTeacher", mock.Anything, mock.Anything, mock.Anything).
		Return(true, nil).Maybe()
	return catalog
}

func TestAddGraders(t *testing.T) {
	store := newMemStore()
	courseID := uuid.New()
	group := store.addGroup(courseID, "A")
	grader := uuid.New()

	t.Run("duplicate link is rejected, not overwritten", func(t *testing.T) {
		svc := service.NewGraderRegistryService(store, store, teacherCatalog(), fakeTx{})

		err := svc.AddGraders(context.Background(), group.ID, []uuid.UUID{grader}, nil)
		require.NoError(t, err)

		err = svc.AddGraders(context.Background(), group.ID, []uuid.UUID{grader}, nil)
		var vErr *domain.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, domain.CodeDuplicate, vErr.Code)
	})

	t.Run("same grader may be linked per-assignment next to group-wide", func(t *testing.T) {
		svc := service.NewGraderRegistryService(store, store, teacherCatalog(), fakeTx{})
		assignment := store.addAssignment(courseID, domain.AssigneeModeGroupCustom, domain.SubmissionTypeOnline)

		err := svc.AddGraders(context.Background(), group.ID, []uuid.UUID{grader}, &assignment.ID)
		require.NoError(t, err)
	})

	t.Run("non-teacher grader is invalid", func(t *testing.T) {
		catalog := new(testutils.MockCatalogClient)
		catalog.On("IsCourseTeacher", mock.Anything, courseID, mock.Anything).Return(false, nil)
		svc := service.NewGraderRegistryService(store, store, catalog, fakeTx{})

		err := svc.AddGraders(context.Background(), group.ID, []uuid.UUID{uuid.New()}, nil)
		var vErr *domain.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, domain.CodeInvalid, vErr.Code)
	})
}

func TestUpdateGraders(t *testing.T) {
	store := newMemStore()
	courseID := uuid.New()
	group := store.addGroup(courseID, "A")
	assignment := store.addAssignment(courseID, domain.AssigneeModeGroupCustom, domain.SubmissionTypeOnline)

	keep := uuid.New()
	dropped := uuid.New()
	added := uuid.New()
	custom := uuid.New()

	store.addLink(group.ID, keep, nil)
	store.addLink(group.ID, dropped, nil)
	store.addLink(group.ID, custom, &assignment.ID)

	svc := service.NewGraderRegistryService(store, store, teacherCatalog(), fakeTx{})

	err := svc.UpdateGraders(context.Background(), group.ID, []uuid.UUID{keep, added}, nil)
	require.NoError(t, err)

	groupWide, err := svc.GetGraders(context.Background(), group.ID, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{keep, added}, groupWide)

	// The assignment-scoped link survives a group-wide replace.
	scoped, err := svc.GetGraders(context.Background(), group.ID, &assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{custom}, scoped)
}

func TestGetGradersScopeIsExact(t *testing.T) {
	store := newMemStore()
	courseID := uuid.New()
	group := store.addGroup(courseID, "A")
	assignment := store.addAssignment(courseID, domain.AssigneeModeGroupCustom, domain.SubmissionTypeOnline)

	groupWide := uuid.New()
	store.addLink(group.ID, groupWide, nil)

	svc := service.NewGraderRegistryService(store, store, teacherCatalog(), fakeTx{})

	// No fallback: the assignment scope has no links of its own.
	scoped, err := svc.GetGraders(context.Background(), group.ID, &assignment.ID)
	require.NoError(t, err)
	assert.Empty(t, scoped)
}
