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
	"github.com/attendsure/attendance-authority/pkg/database"
	"github.com/attendsure/attendance-authority/pkg/logger"
	"github.com/attendsure/attendance-authority/pkg/testutil"
)

func newTestDB(t *testing.T) (*database.DB, *testutil.MockDB) {
	t.Helper()
	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { mockDB.Close() })
	db := database.NewFromSqlxDB(mockDB.DB, logger.New("attendance-service-test", "test"))
	return db, mockDB
}

func TestEmployeeRepository_GetByEmail_NotFound(t *testing.T) {
	db, mock := newTestDB(t)
	repo := repository.NewEmployeeRepository(db)

	mock.ExpectQuery("SELECT id, name, email").
		WithArgs("missing@example.com").
		WillReturnRows(testutil.MockRows("id", "name", "email", "role", "is_active", "salary_monthly", "join_date",
			"device_public_key", "device_fingerprint", "device_registered_at", "created_at", "updated_at"))

	_, err := repo.GetByEmail(context.Background(), "missing@example.com")
	require.Error(t, err)
}

func TestEmployeeRepository_GetByEmail_Found(t *testing.T) {
	db, mock := newTestDB(t)
	repo := repository.NewEmployeeRepository(db)

	now := time.Now()
	rows := testutil.MockRows("id", "name", "email", "role", "is_active", "salary_monthly", "join_date",
		"device_public_key", "device_fingerprint", "device_registered_at", "created_at", "updated_at").
		AddRow("emp-1", "Asha Rao", "asha@example.com", "employee", true, int64(50000), now,
			nil, nil, nil, now, now)

	mock.ExpectQuery("SELECT id, name, email").
		WithArgs("asha@example.com").
		WillReturnRows(rows)

	emp, err := repo.GetByEmail(context.Background(), "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, "emp-1", emp.ID)
	assert.Equal(t, domain.RoleEmployee, emp.Role)
	assert.False(t, emp.HasDevice())

	mock.ExpectationsWereMet(t)
}

func TestEmployeeRepository_RegisterDevice_AlreadyBound(t *testing.T) {
	db, mock := newTestDB(t)
	repo := repository.NewEmployeeRepository(db)

	mock.ExpectExec("UPDATE employees").
		WithArgs("emp-1", "pem-data", (*string)(nil), testutil.AnyTime{}).
		WillReturnResult(sqlmock.NewResult(0, 0))

	now := time.Now()
	rows := testutil.MockRows("id", "name", "email", "role", "is_active", "salary_monthly", "join_date",
		"device_public_key", "device_fingerprint", "device_registered_at", "created_at", "updated_at")
	pem := "existing-pem"
	rows.AddRow("emp-1", "Asha Rao", "asha@example.com", "employee", true, int64(50000), now,
		&pem, nil, &now, now, now)
	mock.ExpectQuery("SELECT id, name, email").WithArgs("emp-1").WillReturnRows(rows)

	err := repo.RegisterDevice(context.Background(), "emp-1", "pem-data", nil, now)
	require.Error(t, err)

	mock.ExpectationsWereMet(t)
}
