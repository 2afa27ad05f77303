package repository

import (
	"context"

	"github.com/attendsure/attendance-authority/internal/attendance/domain"
	"github.com/attendsure/attendance-authority/pkg/database"
)

type leaveRow struct {
	ID         string `db:"id"`
	EmployeeID string `db:"employee_id"`
	Date       string `db:"date"`
	Status     string `db:"status"`
}

func (r leaveRow) toDomain() *domain.Leave {
	return &domain.Leave{ID: r.ID, EmployeeID: r.EmployeeID, Date: r.Date, Status: domain.LeaveStatus(r.Status)}
}

// LeaveRepository reads domain.Leave rows. Only approved leaves
// participate in payroll.
type LeaveRepository struct {
	db *database.DB
}

// NewLeaveRepository creates a new leave repository.
func NewLeaveRepository(db *database.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// ListApprovedInMonth returns every approved leave whose date falls in
// the given YYYY-MM month, keyed by (employeeID, date).
func (r *LeaveRepository) ListApprovedInMonth(ctx context.Context, month string) (map[string]map[string]bool, error) {
	var rows []leaveRow
	query := `SELECT id, employee_id, date, status FROM leaves WHERE date LIKE $1 AND status = $2`
	if err := r.db.SelectContext(ctx, &rows, query, month+"-%", string(domain.LeaveApproved)); err != nil {
		return nil, err
	}

	byEmployee := make(map[string]map[string]bool)
	for _, row := range rows {
		if byEmployee[row.EmployeeID] == nil {
			byEmployee[row.EmployeeID] = make(map[string]bool)
		}
		byEmployee[row.EmployeeID][row.Date] = true
	}
	return byEmployee, nil
}
