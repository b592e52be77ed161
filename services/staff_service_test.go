package services

import (
	"errors"
	"testing"
	"time"

	"github.com/kendall-kelly/maintenance-orders-api/models"
	"github.com/kendall-kelly/maintenance-orders-api/repositories"
	"github.com/kendall-kelly/maintenance-orders-api/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStaffService(t *testing.T) (*StaffService, *testClock) {
	t.Helper()

	logger := zerolog.Nop()
	clock := &testClock{now: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)}
	repo := repositories.NewStaffRepository(store.NewMemoryStore(0), logger)
	return NewStaffService(repo, clock.Now, logger), clock
}

func TestSaveStaff(t *testing.T) {
	service, clock := setupStaffService(t)

	member, err := service.SaveStaff(" Lee ", "0912-345-678")
	require.NoError(t, err)
	assert.Equal(t, "Lee", member.Name)
	assert.Equal(t, "0912-345-678", member.Phone)
	assert.Equal(t, clock.now, member.CreatedAt)

	_, err = service.SaveStaff("Chen", "")
	require.NoError(t, err)

	// Saving an existing name updates it in place
	clock.now = clock.now.Add(time.Hour)
	updated, err := service.SaveStaff("Lee", "02-1234-5678")
	require.NoError(t, err)
	assert.Equal(t, member.CreatedAt, updated.CreatedAt)

	members, err := service.ListStaff()
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "Lee", members[0].Name)
	assert.Equal(t, "02-1234-5678", members[0].Phone)
	assert.Equal(t, "Chen", members[1].Name)
}

func TestSaveStaffRequiresName(t *testing.T) {
	service, _ := setupStaffService(t)

	_, err := service.SaveStaff("   ", "0912")

	var validationErr *models.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, []string{"工務人員姓名不能為空"}, validationErr.Errors)
}

func TestGetAndDeleteStaff(t *testing.T) {
	service, _ := setupStaffService(t)

	_, err := service.SaveStaff("Lee", "")
	require.NoError(t, err)

	member, err := service.GetStaff("Lee")
	require.NoError(t, err)
	assert.Equal(t, "Lee", member.Name)

	require.NoError(t, service.DeleteStaff("Lee"))

	_, err = service.GetStaff("Lee")
	assert.ErrorIs(t, err, models.ErrStaffNotFound)
	assert.ErrorIs(t, service.DeleteStaff("Lee"), models.ErrStaffNotFound)
}
