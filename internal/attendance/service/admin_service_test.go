package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendsure/attendance-authority/internal/attendance/clock"
	"github.com/attendsure/attendance-authority/internal/attendance/directory"
	"github.com/attendsure/attendance-authority/internal/attendance/domain"
	"github.com/attendsure/attendance-authority/pkg/errors"
	"github.com/attendsure/attendance-authority/pkg/logger"
)

type fakeDirectoryClient struct {
	nextID       string
	createErr    error
	deleteErr    error
	deletedUsers []string
}

func (c *fakeDirectoryClient) CreateUser(ctx context.Context, req *directory.CreateUserRequest) (*directory.DirectoryUser, error) {
	if c.createErr != nil {
		return nil, c.createErr
	}
	return &directory.DirectoryUser{ID: c.nextID, Email: req.Email, Status: "active"}, nil
}

func (c *fakeDirectoryClient) DeleteUser(ctx context.Context, userID string) error {
	c.deletedUsers = append(c.deletedUsers, userID)
	return c.deleteErr
}

func newTestAdminService(t *testing.T, emp *fakeEmployeeStore, hol *fakeHolidayStore, off *fakeOfficeStore, dir *fakeDirectoryClient, audit *fakeAuditRecorder) *AdminService {
	t.Helper()
	log := logger.New("attendance-service-test", "test")
	clk := clock.NewFake(time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC))
	return NewAdminService(clk, emp, hol, off, dir, audit, log)
}

func TestAdminService_CreateEmployee_HappyPath(t *testing.T) {
	dir := &fakeDirectoryClient{nextID: "user-123"}
	audit := &fakeAuditRecorder{}
	svc := newTestAdminService(t, newFakeEmployeeStore(), &fakeHolidayStore{}, &fakeOfficeStore{}, dir, audit)

	emp, err := svc.CreateEmployee(context.Background(), "admin-1", NewEmployeeInput{
		Email: "new@x.com", Name: "Jane Doe", Salary: 50000,
	})

	require.NoError(t, err)
	assert.Equal(t, "user-123", emp.ID)
	assert.Equal(t, domain.RoleEmployee, emp.Role)
	assert.True(t, emp.IsActive)
	assert.Contains(t, audit.calls, "employee-created")
}

func TestAdminService_CreateEmployee_RollsBackOnEmployeeWriteFailure(t *testing.T) {
	dir := &fakeDirectoryClient{nextID: "user-456"}
	empStore := newFakeEmployeeStore()
	empStore.createErr = errors.Internal("write failed")
	svc := newTestAdminService(t, empStore, &fakeHolidayStore{}, &fakeOfficeStore{}, dir, &fakeAuditRecorder{})

	_, err := svc.CreateEmployee(context.Background(), "admin-1", NewEmployeeInput{
		Email: "new@x.com", Name: "Jane Doe", Salary: 50000,
	})

	require.Error(t, err)
	assert.Equal(t, []string{"user-456"}, dir.deletedUsers)
}

func TestAdminService_CreateHoliday(t *testing.T) {
	hol := &fakeHolidayStore{}
	audit := &fakeAuditRecorder{}
	svc := newTestAdminService(t, newFakeEmployeeStore(), hol, &fakeOfficeStore{}, &fakeDirectoryClient{}, audit)

	h, err := svc.CreateHoliday(context.Background(), "admin-1", "2026-08-15", "Independence Day", "")

	require.NoError(t, err)
	assert.Equal(t, "2026-08-15", h.Date)
	assert.Len(t, hol.holidays, 1)
	assert.Contains(t, audit.calls, "holiday-created")
}

func TestAdminService_AddOfficeLocation_DefaultsRadius(t *testing.T) {
	off := &fakeOfficeStore{}
	svc := newTestAdminService(t, newFakeEmployeeStore(), &fakeHolidayStore{}, off, &fakeDirectoryClient{}, &fakeAuditRecorder{})

	o, err := svc.AddOfficeLocation(context.Background(), "admin-1", "HQ", 12.97, 77.59, 0)

	require.NoError(t, err)
	assert.Equal(t, float64(defaultOfficeRadiusMeters), o.RadiusMeters)
}
