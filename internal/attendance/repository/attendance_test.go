package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendsure/attendance-authority/internal/attendance/domain"
	"github.com/attendsure/attendance-authority/internal/attendance/repository"
	"github.com/attendsure/attendance-authority/pkg/testutil"
)

func TestAttendanceRepository_CreateCheckIn_TakesOverBackfilledRow(t *testing.T) {
	db, mock := newTestDB(t)
	repo := repository.NewAttendanceRepository(db)

	mock.ExpectQuery("INSERT INTO attendance").
		WillReturnRows(testutil.MockRows("id").AddRow("att-existing"))

	a := &domain.Attendance{EmployeeID: "emp-1", Date: "2024-01-15", Status: domain.StatusAbsent}
	err := repo.CreateCheckIn(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, "att-existing", a.ID)

	mock.ExpectationsWereMet(t)
}

func TestAttendanceRepository_CreateCheckIn_AlreadyCheckedIn(t *testing.T) {
	db, mock := newTestDB(t)
	repo := repository.NewAttendanceRepository(db)

	// The guarded upsert matches no row when check_in_time is already set.
	mock.ExpectQuery("INSERT INTO attendance").WillReturnRows(testutil.MockRows("id"))

	a := &domain.Attendance{EmployeeID: "emp-1", Date: "2024-01-15", Status: domain.StatusAbsent}
	err := repo.CreateCheckIn(context.Background(), a)
	require.Error(t, err)

	mock.ExpectationsWereMet(t)
}

func TestAttendanceRepository_GetByEmployeeAndDate_None(t *testing.T) {
	db, mock := newTestDB(t)
	repo := repository.NewAttendanceRepository(db)

	mock.ExpectQuery("SELECT id, employee_id, date").
		WithArgs("emp-1", "2024-01-15").
		WillReturnRows(testutil.MockRows(
			"id", "employee_id", "date", "status", "check_in_time", "check_out_time",
			"check_in_lat", "check_in_lng", "check_in_accuracy",
			"check_out_lat", "check_out_lng", "check_out_accuracy",
			"work_hours", "is_location_flagged", "is_auto_calculated", "is_locked", "notes",
			"created_at", "updated_at",
		))

	a, err := repo.GetByEmployeeAndDate(context.Background(), "emp-1", "2024-01-15")
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestAttendanceRepository_CheckOut_NotFound(t *testing.T) {
	db, mock := newTestDB(t)
	repo := repository.NewAttendanceRepository(db)

	mock.ExpectExec("UPDATE attendance SET").WillReturnResult(sqlmock.NewResult(0, 0))

	now := time.Now()
	a := &domain.Attendance{ID: "att-1", CheckOutTime: &now, Status: domain.StatusPresent}
	err := repo.CheckOut(context.Background(), a)
	require.Error(t, err)
}

func TestAttendanceRepository_ApplyModification_Locked(t *testing.T) {
	db, mock := newTestDB(t)
	repo := repository.NewAttendanceRepository(db)

	mock.ExpectExec("UPDATE attendance SET").WillReturnResult(sqlmock.NewResult(0, 0))

	a := &domain.Attendance{ID: "att-1", Status: domain.StatusPresent}
	err := repo.ApplyModification(context.Background(), a)
	require.Error(t, err)
}
