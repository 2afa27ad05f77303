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

type payrollRow struct {
	ID         string `db:"id"`
	EmployeeID string `db:"employee_id"`
	Month      string `db:"month"`

	BaseSalary       int64   `db:"base_salary"`
	DailyRate        float64 `db:"daily_rate"`
	TotalWorkingDays int     `db:"total_working_days"`

	PresentDays int `db:"present_days"`
	HalfDays    int `db:"half_days"`
	AbsentDays  int `db:"absent_days"`
	SundayDays  int `db:"sunday_days"`
	HolidayDays int `db:"holiday_days"`
	LeaveDays   int `db:"leave_days"`

	NetSalary float64 `db:"net_salary"`
	IsLocked  bool    `db:"is_locked"`

	GeneratedBy string    `db:"generated_by"`
	GeneratedAt time.Time `db:"generated_at"`

	UnlockedBy   *string    `db:"unlocked_by"`
	UnlockedAt   *time.Time `db:"unlocked_at"`
	UnlockReason *string    `db:"unlock_reason"`
}

func (r payrollRow) toDomain() *domain.Payroll {
	p := &domain.Payroll{
		ID:               r.ID,
		EmployeeID:       r.EmployeeID,
		Month:            r.Month,
		BaseSalary:       r.BaseSalary,
		DailyRate:        r.DailyRate,
		TotalWorkingDays: r.TotalWorkingDays,
		PresentDays:      r.PresentDays,
		HalfDays:         r.HalfDays,
		AbsentDays:       r.AbsentDays,
		SundayDays:       r.SundayDays,
		HolidayDays:      r.HolidayDays,
		LeaveDays:        r.LeaveDays,
		NetSalary:        r.NetSalary,
		IsLocked:         r.IsLocked,
		GeneratedBy:      r.GeneratedBy,
		GeneratedAt:      r.GeneratedAt,
	}
	if r.UnlockedBy != nil {
		p.UnlockedBy = *r.UnlockedBy
	}
	if r.UnlockedAt != nil {
		p.UnlockedAt = *r.UnlockedAt
	}
	if r.UnlockReason != nil {
		p.UnlockReason = *r.UnlockReason
	}
	return p
}

// PayrollRepository persists domain.Payroll rows. The unique constraint
// on (employee_id, month) is the authoritative guard against two
// concurrent generates producing two rows.
type PayrollRepository struct {
	db *database.DB
}

// NewPayrollRepository creates a new payroll repository.
func NewPayrollRepository(db *database.DB) *PayrollRepository {
	return &PayrollRepository{db: db}
}

// ExistsForMonth reports whether any payroll row already covers month,
// which blocks a repeat generate-payroll.
func (r *PayrollRepository) ExistsForMonth(ctx context.Context, month string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM payroll WHERE month = $1)`
	if err := r.db.GetContext(ctx, &exists, query, month); err != nil {
		return false, err
	}
	return exists, nil
}

// GetByEmployeeAndMonth loads the payroll row for an employee in a month, if any.
func (r *PayrollRepository) GetByEmployeeAndMonth(ctx context.Context, employeeID, month string) (*domain.Payroll, error) {
	var row payrollRow
	query := `
		SELECT id, employee_id, month, base_salary, daily_rate, total_working_days,
		       present_days, half_days, absent_days, sunday_days, holiday_days, leave_days,
		       net_salary, is_locked, generated_by, generated_at, unlocked_by, unlocked_at, unlock_reason
		FROM payroll WHERE employee_id = $1 AND month = $2
	`
	if err := r.db.GetContext(ctx, &row, query, employeeID, month); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// ListByMonth loads every payroll row for a month.
func (r *PayrollRepository) ListByMonth(ctx context.Context, month string) ([]*domain.Payroll, error) {
	var rows []payrollRow
	query := `
		SELECT id, employee_id, month, base_salary, daily_rate, total_working_days,
		       present_days, half_days, absent_days, sunday_days, holiday_days, leave_days,
		       net_salary, is_locked, generated_by, generated_at, unlocked_by, unlocked_at, unlock_reason
		FROM payroll WHERE month = $1
	`
	if err := r.db.SelectContext(ctx, &rows, query, month); err != nil {
		return nil, err
	}

	payrolls := make([]*domain.Payroll, 0, len(rows))
	for _, row := range rows {
		payrolls = append(payrolls, row.toDomain())
	}
	return payrolls, nil
}

// Create inserts a locked payroll row. Fails with AlreadyExists on the
// unique (employee_id, month) conflict.
func (r *PayrollRepository) Create(ctx context.Context, p *domain.Payroll) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	query := `
		INSERT INTO payroll (
			id, employee_id, month, base_salary, daily_rate, total_working_days,
			present_days, half_days, absent_days, sunday_days, holiday_days, leave_days,
			net_salary, is_locked, generated_by, generated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.EmployeeID, p.Month, p.BaseSalary, p.DailyRate, p.TotalWorkingDays,
		p.PresentDays, p.HalfDays, p.AbsentDays, p.SundayDays, p.HolidayDays, p.LeaveDays,
		p.NetSalary, p.IsLocked, p.GeneratedBy, p.GeneratedAt,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// UpdateCounters rewrites the day counters and net salary for an
// existing payroll row, used by modify-attendance's unlocked-payroll
// adjustment path.
func (r *PayrollRepository) UpdateCounters(ctx context.Context, p *domain.Payroll) error {
	query := `
		UPDATE payroll SET
			present_days = $2, half_days = $3, absent_days = $4, sunday_days = $5,
			holiday_days = $6, leave_days = $7, net_salary = $8
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.PresentDays, p.HalfDays, p.AbsentDays, p.SundayDays, p.HolidayDays, p.LeaveDays, p.NetSalary,
	)
	return err
}

// Unlock clears is_locked and fills the unlock audit fields.
func (r *PayrollRepository) Unlock(ctx context.Context, p *domain.Payroll) error {
	query := `
		UPDATE payroll SET is_locked = false, unlocked_by = $2, unlocked_at = $3, unlock_reason = $4
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.UnlockedBy, p.UnlockedAt, p.UnlockReason)
	return err
}

// Delete removes a payroll row.
func (r *PayrollRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM payroll WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("payroll")
	}
	return nil
}

// WithTx runs fn with a transaction attached to ctx, letting the payroll
// insert and the attendance-lock update it triggers commit atomically.
func (r *PayrollRepository) WithTx(ctx context.Context, fn func(context.Context) error) error {
	return r.db.WithTx(ctx, fn)
}
