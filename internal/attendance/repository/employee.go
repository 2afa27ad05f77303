package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/attendsure/attendance-authority/internal/attendance/domain"
	"github.com/attendsure/attendance-authority/pkg/database"
	"github.com/attendsure/attendance-authority/pkg/errors"
)

// employeeRow is the persisted shape of domain.Employee. The three
// device-binding fields are nullable together.
type employeeRow struct {
	ID                 string     `db:"id"`
	Name               string     `db:"name"`
	Email              string     `db:"email"`
	Role               string     `db:"role"`
	IsActive           bool       `db:"is_active"`
	SalaryMonthly      int64      `db:"salary_monthly"`
	JoinDate           time.Time  `db:"join_date"`
	DevicePublicKey    *string    `db:"device_public_key"`
	DeviceFingerprint  *string    `db:"device_fingerprint"`
	DeviceRegisteredAt *time.Time `db:"device_registered_at"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

func (r employeeRow) toDomain() *domain.Employee {
	return &domain.Employee{
		ID:                 r.ID,
		Name:               r.Name,
		Email:              r.Email,
		Role:               domain.Role(r.Role),
		IsActive:           r.IsActive,
		SalaryMonthly:      r.SalaryMonthly,
		JoinDate:           r.JoinDate,
		DevicePublicKey:    r.DevicePublicKey,
		DeviceFingerprint:  r.DeviceFingerprint,
		DeviceRegisteredAt: r.DeviceRegisteredAt,
	}
}

// EmployeeRepository persists domain.Employee rows.
type EmployeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new employee repository.
func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// Create inserts a new employee. emp.ID is normally the id assigned by
// the external user directory; when it is empty a random UUID is
// assigned here instead.
func (r *EmployeeRepository) Create(ctx context.Context, emp *domain.Employee) error {
	if emp.ID == "" {
		emp.ID = uuid.New().String()
	}
	if emp.Role == "" {
		emp.Role = domain.RoleEmployee
	}

	query := `
		INSERT INTO employees (
			id, name, email, role, is_active, salary_monthly, join_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		emp.ID, emp.Name, emp.Email, string(emp.Role), emp.IsActive, emp.SalaryMonthly, emp.JoinDate,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID loads an employee by id.
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	var row employeeRow
	query := `
		SELECT id, name, email, role, is_active, salary_monthly, join_date,
		       device_public_key, device_fingerprint, device_registered_at,
		       created_at, updated_at
		FROM employees WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("employee")
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// GetByEmail loads an employee by their unique email.
func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	var row employeeRow
	query := `
		SELECT id, name, email, role, is_active, salary_monthly, join_date,
		       device_public_key, device_fingerprint, device_registered_at,
		       created_at, updated_at
		FROM employees WHERE email = $1
	`
	if err := r.db.GetContext(ctx, &row, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("employee")
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// List returns up to limit employees, active or not. Payroll
// generation needs inactive employees too, since one with attendance
// in the month still gets a payroll row.
func (r *EmployeeRepository) List(ctx context.Context, limit int) ([]*domain.Employee, error) {
	var rows []employeeRow
	query := `
		SELECT id, name, email, role, is_active, salary_monthly, join_date,
		       device_public_key, device_fingerprint, device_registered_at,
		       created_at, updated_at
		FROM employees
		ORDER BY join_date
		LIMIT $1
	`
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, err
	}

	employees := make([]*domain.Employee, 0, len(rows))
	for _, row := range rows {
		employees = append(employees, row.toDomain())
	}
	return employees, nil
}

// HasAttendanceInMonth reports whether an employee has any attendance row
// in the given YYYY-MM month, used by generate-payroll to decide whether
// an inactive employee still gets a payroll row.
func (r *EmployeeRepository) HasAttendanceInMonth(ctx context.Context, employeeID, month string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM attendance WHERE employee_id = $1 AND date LIKE $2)`
	if err := r.db.GetContext(ctx, &exists, query, employeeID, month+"-%"); err != nil {
		return false, err
	}
	return exists, nil
}

// RegisterDevice atomically sets the three device-binding fields.
// Fails with ALREADY_EXISTS if a device is already bound.
func (r *EmployeeRepository) RegisterDevice(ctx context.Context, employeeID, publicKeyPEM string, fingerprint *string, at time.Time) error {
	query := `
		UPDATE employees
		SET device_public_key = $2, device_fingerprint = $3, device_registered_at = $4, updated_at = NOW()
		WHERE id = $1 AND device_public_key IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, employeeID, publicKeyPEM, fingerprint, at)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		if _, err := r.GetByID(ctx, employeeID); err != nil {
			return err
		}
		return errors.AlreadyExists("device already registered")
	}
	return nil
}

// ResetDevice clears all three device-binding fields together.
func (r *EmployeeRepository) ResetDevice(ctx context.Context, employeeID string) error {
	query := `
		UPDATE employees
		SET device_public_key = NULL, device_fingerprint = NULL, device_registered_at = NULL, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, employeeID)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("employee")
	}
	return nil
}

// Delete removes an employee row, used only for create-employee rollback.
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	return err
}
