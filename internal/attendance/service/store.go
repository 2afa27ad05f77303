// Package service implements the Attendance Engine (C5) and Payroll
// Engine (C6): the per-day state machine and the month-end payroll
// generator. Both depend only on the narrow store interfaces below, so
// tests can inject an in-memory fake instead of a real database.
package service

import (
	"context"
	"time"

	"github.com/attendsure/attendance-authority/internal/attendance/domain"
)

// EmployeeStore is the subset of repository.EmployeeRepository the
// engines consume.
type EmployeeStore interface {
	Create(ctx context.Context, emp *domain.Employee) error
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	GetByEmail(ctx context.Context, email string) (*domain.Employee, error)
	List(ctx context.Context, limit int) ([]*domain.Employee, error)
	HasAttendanceInMonth(ctx context.Context, employeeID, month string) (bool, error)
	RegisterDevice(ctx context.Context, employeeID, publicKeyPEM string, fingerprint *string, at time.Time) error
	ResetDevice(ctx context.Context, employeeID string) error
	Delete(ctx context.Context, id string) error
}

// AttendanceStore is the subset of repository.AttendanceRepository the
// engines consume.
type AttendanceStore interface {
	GetByEmployeeAndDate(ctx context.Context, employeeID, date string) (*domain.Attendance, error)
	GetByID(ctx context.Context, id string) (*domain.Attendance, error)
	ListByEmployeeAndMonth(ctx context.Context, employeeID, month string) (map[string]*domain.Attendance, error)
	CreateCheckIn(ctx context.Context, a *domain.Attendance) error
	CreateBackfill(ctx context.Context, a *domain.Attendance) error
	CheckOut(ctx context.Context, a *domain.Attendance) error
	ApplyModification(ctx context.Context, a *domain.Attendance) error
	SetLockedForEmployeeMonth(ctx context.Context, employeeID, month string, locked bool) error
	DeleteAutoCalculatedForEmployeeMonth(ctx context.Context, employeeID, month string) (int64, error)
	CreateModification(ctx context.Context, m *domain.AttendanceModification) error
}

// PayrollStore is the subset of repository.PayrollRepository the
// engines consume.
type PayrollStore interface {
	ExistsForMonth(ctx context.Context, month string) (bool, error)
	GetByEmployeeAndMonth(ctx context.Context, employeeID, month string) (*domain.Payroll, error)
	ListByMonth(ctx context.Context, month string) ([]*domain.Payroll, error)
	Create(ctx context.Context, p *domain.Payroll) error
	UpdateCounters(ctx context.Context, p *domain.Payroll) error
	Unlock(ctx context.Context, p *domain.Payroll) error
	Delete(ctx context.Context, id string) error
	// WithTx runs fn with a transaction attached to ctx, so a payroll
	// insert and the attendance lock it triggers commit together.
	WithTx(ctx context.Context, fn func(context.Context) error) error
}

// HolidayStore is the subset of repository.HolidayRepository the payroll
// engine and the admin service consume.
type HolidayStore interface {
	ListInMonth(ctx context.Context, month string) ([]*domain.Holiday, error)
	Create(ctx context.Context, h *domain.Holiday) error
	Delete(ctx context.Context, id string) error
}

// LeaveStore is the subset of repository.LeaveRepository the payroll
// engine consumes.
type LeaveStore interface {
	ListApprovedInMonth(ctx context.Context, month string) (map[string]map[string]bool, error)
}

// OfficeLocationStore is the subset of repository.OfficeLocationRepository
// the attendance engine consumes for geofence evaluation and the admin
// service consumes for add-office-location.
type OfficeLocationStore interface {
	ListActive(ctx context.Context) ([]*domain.OfficeLocation, error)
	Create(ctx context.Context, o *domain.OfficeLocation) error
}

// AuditRecorder is the narrow view of audit.Writer the engines depend
// on, so engine tests can assert on what was recorded without a real
// store or publisher behind it.
type AuditRecorder interface {
	Record(ctx context.Context, actorID, action, targetID, targetType string, payload interface{})
}
