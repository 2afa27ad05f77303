package service

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/attendsure/attendance-authority/internal/attendance/clock"
	"github.com/attendsure/attendance-authority/internal/attendance/domain"
	"github.com/attendsure/attendance-authority/internal/attendance/events"
	"github.com/attendsure/attendance-authority/pkg/errors"
	"github.com/attendsure/attendance-authority/pkg/logger"
	"github.com/attendsure/attendance-authority/pkg/messaging"
)

const maxPayrollEmployees = 100

// PayrollEngine implements month-end payroll generation, unlock and
// deletion.
type PayrollEngine struct {
	clock      clock.Oracle
	employees  EmployeeStore
	attendance AttendanceStore
	payroll    PayrollStore
	holidays   HolidayStore
	leaves     LeaveStore
	audit      AuditRecorder
	publisher  *events.AttendanceEventPublisher
	logger     *logger.Logger
}

// NewPayrollEngine creates a new payroll engine.
func NewPayrollEngine(
	clk clock.Oracle,
	employees EmployeeStore,
	attendance AttendanceStore,
	payroll PayrollStore,
	holidays HolidayStore,
	leaves LeaveStore,
	audit AuditRecorder,
	publisher *events.AttendanceEventPublisher,
	log *logger.Logger,
) *PayrollEngine {
	return &PayrollEngine{
		clock:      clk,
		employees:  employees,
		attendance: attendance,
		payroll:    payroll,
		holidays:   holidays,
		leaves:     leaves,
		audit:      audit,
		publisher:  publisher,
		logger:     log,
	}
}

// PayrollSummary is the per-employee result of a generate-payroll run.
type PayrollSummary struct {
	Payrolls []*domain.Payroll
}

// GeneratePayroll scans the month for every employee, backfills the
// days with no attendance, computes pro-rated net pay, and locks the
// payroll together with the attendance rows behind it.
func (e *PayrollEngine) GeneratePayroll(ctx context.Context, month, generatedBy string) (*PayrollSummary, error) {
	exists, err := e.payroll.ExistsForMonth(ctx, month)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.AlreadyExists("payroll for this month already exists; unlock or delete it first")
	}

	monthStart, daysInMonth, err := parseMonth(month)
	if err != nil {
		return nil, errors.ValidationError("month must be in YYYY-MM format")
	}

	employees, err := e.employees.List(ctx, maxPayrollEmployees)
	if err != nil {
		return nil, err
	}
	holidayDates, err := e.loadHolidayDates(ctx, month)
	if err != nil {
		return nil, err
	}
	leaveDates, err := e.leaves.ListApprovedInMonth(ctx, month)
	if err != nil {
		return nil, err
	}

	lastBillableDay := daysInMonth
	if month == e.clock.Today()[:7] {
		lastBillableDay = mustParseDay(e.clock.Today())
	}

	summary := &PayrollSummary{}

	for _, emp := range employees {
		hasAttendance, err := e.employees.HasAttendanceInMonth(ctx, emp.ID, month)
		if err != nil {
			return nil, err
		}
		if !emp.IsActive && !hasAttendance {
			continue
		}

		firstDay := firstWorkingDay(emp, monthStart, daysInMonth)
		if firstDay == 0 || firstDay > lastBillableDay {
			continue
		}

		existingByDate, err := e.attendance.ListByEmployeeAndMonth(ctx, emp.ID, month)
		if err != nil {
			return nil, err
		}

		payroll := &domain.Payroll{
			EmployeeID: emp.ID,
			Month:      month,
			BaseSalary: emp.SalaryMonthly,
			// The divisor is always calendar days, so daily rates summed
			// over the whole month equal the base salary; the billable
			// window only bounds which days are counted.
			DailyRate:        float64(emp.SalaryMonthly) / float64(daysInMonth),
			TotalWorkingDays: lastBillableDay - firstDay + 1,
			IsLocked:         true,
			GeneratedBy:      generatedBy,
			GeneratedAt:      e.clock.Now(),
		}

		for day := firstDay; day <= lastBillableDay; day++ {
			date := formatDate(monthStart, day)

			existing, ok := existingByDate[date]
			if !ok {
				existing, err = e.backfillAttendance(ctx, emp.ID, date, holidayDates, leaveDates)
				if err != nil {
					return nil, err
				}
			}

			incrementCounter(payroll, existing.Status)
		}

		payroll.NetSalary = payroll.DailyRate * payroll.PaidDays()

		if err := e.payroll.WithTx(ctx, func(txCtx context.Context) error {
			if err := e.payroll.Create(txCtx, payroll); err != nil {
				return err
			}
			return e.attendance.SetLockedForEmployeeMonth(txCtx, emp.ID, month, true)
		}); err != nil {
			return nil, err
		}

		summary.Payrolls = append(summary.Payrolls, payroll)

		e.publisher.PublishPayrollGenerated(ctx, messaging.PayrollGeneratedEvent{
			PayrollID:   payroll.ID,
			EmployeeID:  emp.ID,
			Month:       month,
			NetSalary:   payroll.NetSalary,
			GeneratedBy: generatedBy,
		})
	}

	e.audit.Record(ctx, generatedBy, "payroll-generated", month, "payroll", map[string]interface{}{
		"month":         month,
		"employeeCount": len(summary.Payrolls),
	})

	e.logger.Info().Str("month", month).Int("employee_count", len(summary.Payrolls)).Msg("payroll generated")
	return summary, nil
}

// backfillAttendance persists a locked, auto-calculated Attendance for
// a day with no existing record: Sunday, then holiday, then approved
// leave, then absent.
func (e *PayrollEngine) backfillAttendance(ctx context.Context, employeeID, date string, holidays map[string]bool, leaves map[string]map[string]bool) (*domain.Attendance, error) {
	status := domain.StatusAbsent
	switch {
	case isSunday(date):
		status = domain.StatusSunday
	case holidays[date]:
		status = domain.StatusHoliday
	case leaves[employeeID] != nil && leaves[employeeID][date]:
		status = domain.StatusLeave
	}

	attendance := &domain.Attendance{
		EmployeeID:       employeeID,
		Date:             date,
		Status:           status,
		IsAutoCalculated: true,
		IsLocked:         true,
	}
	if err := e.attendance.CreateBackfill(ctx, attendance); err != nil {
		return nil, err
	}
	return attendance, nil
}

func (e *PayrollEngine) loadHolidayDates(ctx context.Context, month string) (map[string]bool, error) {
	holidays, err := e.holidays.ListInMonth(ctx, month)
	if err != nil {
		return nil, err
	}
	dates := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		dates[h.Date] = true
	}
	return dates, nil
}

// UnlockPayroll unlocks every payroll row in a month and the attendance
// rows they cover.
func (e *PayrollEngine) UnlockPayroll(ctx context.Context, month, unlockedBy, reason string) error {
	if len(reason) < 10 {
		return errors.MissingReason()
	}

	payrolls, err := e.payroll.ListByMonth(ctx, month)
	if err != nil {
		return err
	}
	if len(payrolls) == 0 {
		return errors.NotFound("payroll")
	}

	now := e.clock.Now()
	for _, p := range payrolls {
		p.IsLocked = false
		p.UnlockedBy = unlockedBy
		p.UnlockedAt = now
		p.UnlockReason = reason

		if err := e.payroll.Unlock(ctx, p); err != nil {
			return err
		}
		if err := e.attendance.SetLockedForEmployeeMonth(ctx, p.EmployeeID, month, false); err != nil {
			return err
		}

		e.publisher.PublishPayrollUnlocked(ctx, messaging.PayrollUnlockedEvent{
			PayrollID:  p.ID,
			EmployeeID: p.EmployeeID,
			Month:      month,
			UnlockedBy: unlockedBy,
			Reason:     reason,
		})
	}

	e.audit.Record(ctx, unlockedBy, "payroll-unlocked", month, "payroll", map[string]interface{}{
		"month":  month,
		"reason": reason,
	})

	e.logger.Info().Str("month", month).Str("unlocked_by", unlockedBy).Msg("payroll unlocked")
	return nil
}

// DeletePayroll deletes every payroll row in a month along with the
// month's auto-calculated attendance; manually edited days survive.
func (e *PayrollEngine) DeletePayroll(ctx context.Context, month, deletedBy, reason string) error {
	if len(reason) < 10 {
		return errors.MissingReason()
	}

	payrolls, err := e.payroll.ListByMonth(ctx, month)
	if err != nil {
		return err
	}
	if len(payrolls) == 0 {
		return errors.NotFound("payroll")
	}

	var totalPayrollsDeleted, totalAttendanceDeleted int64

	for _, p := range payrolls {
		if err := e.payroll.Delete(ctx, p.ID); err != nil {
			return err
		}
		totalPayrollsDeleted++

		deleted, err := e.attendance.DeleteAutoCalculatedForEmployeeMonth(ctx, p.EmployeeID, month)
		if err != nil {
			return err
		}
		totalAttendanceDeleted += deleted

		e.publisher.PublishPayrollDeleted(ctx, messaging.PayrollDeletedEvent{
			PayrollID:  p.ID,
			EmployeeID: p.EmployeeID,
			Month:      month,
			DeletedBy:  deletedBy,
		})
	}

	e.audit.Record(ctx, deletedBy, "payroll-deleted", month, "payroll", map[string]interface{}{
		"month":                 month,
		"reason":                reason,
		"payrollsDeleted":       totalPayrollsDeleted,
		"autoAttendanceDeleted": totalAttendanceDeleted,
	})

	e.logger.Info().Str("month", month).Int64("payrolls_deleted", totalPayrollsDeleted).Int64("attendance_deleted", totalAttendanceDeleted).Msg("payroll deleted")
	return nil
}

// PayrollReportEntry is one employee's row in get-payroll-report: the
// payroll summary plus the daily attendance breakdown behind it.
type PayrollReportEntry struct {
	Payroll *domain.Payroll    `json:"payroll"`
	Days    []PayrollReportDay `json:"days"`
}

// PayrollReportDay is one day of the report breakdown. Times are
// rendered in the office timezone.
type PayrollReportDay struct {
	Date      string        `json:"date"`
	Status    domain.Status `json:"status"`
	CheckIn   string        `json:"checkIn,omitempty"`
	CheckOut  string        `json:"checkOut,omitempty"`
	WorkHours float64       `json:"workHours"`
}

// GetPayrollReport returns the per-employee payroll summaries for a
// month, each hydrated with its daily attendance breakdown.
func (e *PayrollEngine) GetPayrollReport(ctx context.Context, month string) ([]*PayrollReportEntry, error) {
	if month == "" {
		month = e.clock.Today()[:7]
	}

	payrolls, err := e.payroll.ListByMonth(ctx, month)
	if err != nil {
		return nil, err
	}

	officeTZ := e.clock.Now().Location()
	report := make([]*PayrollReportEntry, 0, len(payrolls))
	for _, p := range payrolls {
		byDate, err := e.attendance.ListByEmployeeAndMonth(ctx, p.EmployeeID, month)
		if err != nil {
			return nil, err
		}

		dates := make([]string, 0, len(byDate))
		for d := range byDate {
			dates = append(dates, d)
		}
		sort.Strings(dates)

		days := make([]PayrollReportDay, 0, len(dates))
		for _, d := range dates {
			a := byDate[d]
			day := PayrollReportDay{Date: d, Status: a.Status, WorkHours: a.WorkHours}
			if a.CheckInTime != nil {
				day.CheckIn = a.CheckInTime.In(officeTZ).Format("15:04:05")
			}
			if a.CheckOutTime != nil {
				day.CheckOut = a.CheckOutTime.In(officeTZ).Format("15:04:05")
			}
			days = append(days, day)
		}

		report = append(report, &PayrollReportEntry{Payroll: p, Days: days})
	}
	return report, nil
}

// --- date helpers ---------------------------------------------------------

// parseMonth parses a YYYY-MM string and returns the first day of that
// month and the number of calendar days it contains.
func parseMonth(month string) (time.Time, int, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, 0, err
	}
	daysInMonth := start.AddDate(0, 1, 0).Add(-24 * time.Hour).Day()
	return start, daysInMonth, nil
}

// firstWorkingDay returns the first billable day-of-month for an
// employee: their join day when it falls inside the month, 1 when they
// joined earlier, 0 when they joined after the month ended.
func firstWorkingDay(emp *domain.Employee, monthStart time.Time, daysInMonth int) int {
	if emp.JoinDate.IsZero() {
		return 1
	}
	monthEnd := monthStart.AddDate(0, 1, 0).Add(-24 * time.Hour)
	if emp.JoinDate.After(monthEnd) {
		return 0
	}
	if emp.JoinDate.Before(monthStart) {
		return 1
	}
	day := emp.JoinDate.Day()
	if day < 1 {
		return 1
	}
	return day
}

func formatDate(monthStart time.Time, day int) string {
	d := time.Date(monthStart.Year(), monthStart.Month(), day, 0, 0, 0, 0, time.UTC)
	return d.Format("2006-01-02")
}

func isSunday(date string) bool {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return false
	}
	return d.Weekday() == time.Sunday
}

func mustParseDay(date string) int {
	day, err := strconv.Atoi(date[8:10])
	if err != nil {
		return 1
	}
	return day
}
