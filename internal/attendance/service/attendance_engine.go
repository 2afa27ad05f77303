package service

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/attendsure/attendance-authority/internal/attendance/clock"
	"github.com/attendsure/attendance-authority/internal/attendance/crypto"
	"github.com/attendsure/attendance-authority/internal/attendance/domain"
	"github.com/attendsure/attendance-authority/internal/attendance/events"
	"github.com/attendsure/attendance-authority/internal/attendance/geo"
	"github.com/attendsure/attendance-authority/pkg/errors"
	"github.com/attendsure/attendance-authority/pkg/logger"
	"github.com/attendsure/attendance-authority/pkg/messaging"
)

// AttendanceEngine implements the per-day attendance state machine
// (check-in, check-out, device binding, admin modification).
type AttendanceEngine struct {
	clock      clock.Oracle
	attendance AttendanceStore
	employees  EmployeeStore
	payroll    PayrollStore
	offices    OfficeLocationStore
	audit      AuditRecorder
	publisher  *events.AttendanceEventPublisher
	logger     *logger.Logger
}

// NewAttendanceEngine creates a new attendance engine.
func NewAttendanceEngine(
	clk clock.Oracle,
	attendance AttendanceStore,
	employees EmployeeStore,
	payroll PayrollStore,
	offices OfficeLocationStore,
	audit AuditRecorder,
	publisher *events.AttendanceEventPublisher,
	log *logger.Logger,
) *AttendanceEngine {
	return &AttendanceEngine{
		clock:      clk,
		attendance: attendance,
		employees:  employees,
		payroll:    payroll,
		offices:    offices,
		audit:      audit,
		publisher:  publisher,
		logger:     log,
	}
}

// Location is the optional GPS reading attached to a check-in/out request.
type Location struct {
	Lat      float64
	Lng      float64
	Accuracy *float64
}

func (l *Location) toGeoPoint() *domain.GeoPoint {
	if l == nil {
		return nil
	}
	return &domain.GeoPoint{Lat: l.Lat, Lng: l.Lng, Accuracy: l.Accuracy}
}

// resolveAndVerify loads the employee by email and checks the device
// signature, the shared prefix of check-in and check-out.
func (e *AttendanceEngine) resolveAndVerify(ctx context.Context, email, signature, dataToVerify string) (*domain.Employee, error) {
	emp, err := e.employees.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !emp.HasDevice() {
		return nil, errors.DeviceNotRegistered()
	}
	if !crypto.VerifySignature(*emp.DevicePublicKey, dataToVerify, signature) {
		return nil, errors.InvalidSignature()
	}
	return emp, nil
}

func (e *AttendanceEngine) evaluateGeofence(ctx context.Context, loc *Location) geo.Result {
	if loc == nil {
		return geo.Result{Valid: true, Flagged: false}
	}

	offices, err := e.offices.ListActive(ctx)
	if err != nil {
		e.logger.Error().Err(err).Msg("failed to load office locations for geofence check")
		offices = nil
	}

	geoOffices := make([]geo.Office, 0, len(offices))
	for _, o := range offices {
		geoOffices = append(geoOffices, geo.Office{Latitude: o.Latitude, Longitude: o.Longitude, RadiusMeters: o.RadiusMeters})
	}

	return geo.Evaluate(loc.Lat, loc.Lng, loc.Accuracy, geoOffices)
}

// CheckIn records the day's check-in for the employee bound to the
// signing device.
func (e *AttendanceEngine) CheckIn(ctx context.Context, email, signature, dataToVerify string, loc *Location) (*domain.Attendance, error) {
	if !e.clock.CheckInAllowed() {
		return nil, errors.LateCheckIn()
	}

	emp, err := e.resolveAndVerify(ctx, email, signature, dataToVerify)
	if err != nil {
		return nil, err
	}

	today := e.clock.Today()
	existing, err := e.attendance.GetByEmployeeAndDate(ctx, emp.ID, today)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.CheckInTime != nil {
		return nil, errors.DuplicateCheckIn()
	}

	result := e.evaluateGeofence(ctx, loc)

	now := e.clock.Now()
	attendance := &domain.Attendance{
		EmployeeID:        emp.ID,
		Date:              today,
		Status:            domain.StatusAbsent,
		CheckInTime:       &now,
		CheckInLocation:   loc.toGeoPoint(),
		IsLocationFlagged: result.Flagged,
		IsAutoCalculated:  true,
		IsLocked:          false,
	}

	if err := e.attendance.CreateCheckIn(ctx, attendance); err != nil {
		return nil, err
	}

	e.audit.Record(ctx, emp.ID, "check-in", attendance.ID, "attendance", map[string]interface{}{
		"employeeId": emp.ID,
		"date":       today,
		"flagged":    result.Flagged,
	})
	e.publisher.PublishCheckedIn(ctx, messaging.AttendanceCheckedInEvent{
		AttendanceID: attendance.ID,
		EmployeeID:   emp.ID,
		Date:         today,
		CheckInTime:  now,
		Flagged:      result.Flagged,
	})

	e.logger.Info().Str("employee_id", emp.ID).Str("date", today).Msg("check-in recorded")
	return attendance, nil
}

// CheckOut records the day's check-out and derives the final status
// from the hours worked.
func (e *AttendanceEngine) CheckOut(ctx context.Context, email, signature, dataToVerify string, loc *Location) (*domain.Attendance, error) {
	if !e.clock.CheckOutAllowed() {
		return nil, errors.CheckoutWindowBlocked()
	}

	emp, err := e.resolveAndVerify(ctx, email, signature, dataToVerify)
	if err != nil {
		return nil, err
	}

	today := e.clock.Today()
	attendance, err := e.attendance.GetByEmployeeAndDate(ctx, emp.ID, today)
	if err != nil {
		return nil, err
	}
	if attendance == nil || attendance.CheckInTime == nil {
		return nil, errors.MissingCheckIn()
	}
	if attendance.CheckOutTime != nil {
		return nil, errors.DuplicateCheckOut()
	}

	result := e.evaluateGeofence(ctx, loc)

	now := e.clock.Now()
	workHours := computeWorkHours(*attendance.CheckInTime, now)
	status := deriveStatus(workHours)

	attendance.CheckOutTime = &now
	attendance.CheckOutLocation = loc.toGeoPoint()
	attendance.WorkHours = workHours
	attendance.Status = status
	attendance.IsLocationFlagged = attendance.IsLocationFlagged || result.Flagged

	if err := e.attendance.CheckOut(ctx, attendance); err != nil {
		return nil, err
	}

	e.audit.Record(ctx, emp.ID, "check-out", attendance.ID, "attendance", map[string]interface{}{
		"employeeId": emp.ID,
		"date":       today,
		"workHours":  workHours,
		"status":     status,
	})
	e.publisher.PublishCheckedOut(ctx, messaging.AttendanceCheckedOutEvent{
		AttendanceID: attendance.ID,
		EmployeeID:   emp.ID,
		Date:         today,
		CheckOutTime: now,
		WorkHours:    workHours,
		Status:       string(status),
	})

	e.logger.Info().Str("employee_id", emp.ID).Str("date", today).Float64("work_hours", workHours).Msg("check-out recorded")
	return attendance, nil
}

// computeWorkHours returns the hours between checkIn and checkOut,
// clamped to >= 0 and rounded to 2 decimals.
func computeWorkHours(checkIn, checkOut time.Time) float64 {
	hours := checkOut.Sub(checkIn).Hours()
	if hours < 0 {
		hours = 0
	}
	return math.Round(hours*100) / 100
}

// deriveStatus applies the work-hour bands: under 4 hours is absent,
// under 6 is a half day, 6 and up is present.
func deriveStatus(workHours float64) domain.Status {
	switch {
	case workHours < 4:
		return domain.StatusAbsent
	case workHours < 6:
		return domain.StatusHalfDay
	default:
		return domain.StatusPresent
	}
}

// RegisterDevice binds a device public key to an employee. Rebinding
// requires an admin reset first.
func (e *AttendanceEngine) RegisterDevice(ctx context.Context, email, publicKeyPEM string, fingerprint *string) error {
	emp, err := e.employees.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if emp.HasDevice() {
		return errors.AlreadyExists("device already registered")
	}
	if !crypto.ValidPublicKeyPEM(publicKeyPEM) {
		return errors.ValidationError("public key does not parse as PEM")
	}

	var hashedFingerprint *string
	if fingerprint != nil {
		hashed, err := hashFingerprint(*fingerprint)
		if err != nil {
			return errors.Internal("failed to process device fingerprint")
		}
		hashedFingerprint = &hashed
	}

	now := e.clock.Now()
	if err := e.employees.RegisterDevice(ctx, emp.ID, publicKeyPEM, hashedFingerprint, now); err != nil {
		return err
	}

	e.audit.Record(ctx, emp.ID, "device-registered", emp.ID, "employee", map[string]interface{}{"employeeId": emp.ID})
	e.publisher.PublishDeviceRegistered(ctx, messaging.DeviceRegisteredEvent{EmployeeID: emp.ID})

	e.logger.Info().Str("employee_id", emp.ID).Msg("device registered")
	return nil
}

// ResetDevice clears an employee's device binding (admin only; the
// admin gate is enforced by the caller before this runs).
func (e *AttendanceEngine) ResetDevice(ctx context.Context, employeeID, resetBy, reason string) error {
	if err := e.employees.ResetDevice(ctx, employeeID); err != nil {
		return err
	}

	e.audit.Record(ctx, resetBy, "device-reset", employeeID, "employee", map[string]interface{}{
		"employeeId": employeeID,
		"reason":     reason,
	})
	e.publisher.PublishDeviceReset(ctx, messaging.DeviceResetEvent{EmployeeID: employeeID, ResetBy: resetBy, Reason: reason})

	e.logger.Info().Str("employee_id", employeeID).Str("reset_by", resetBy).Msg("device reset")
	return nil
}

// GetMyAttendance returns the caller's own attendance rows for a month
// keyed by date.
func (e *AttendanceEngine) GetMyAttendance(ctx context.Context, employeeID, month string) (map[string]*domain.Attendance, error) {
	if _, err := e.employees.GetByID(ctx, employeeID); err != nil {
		return nil, err
	}
	if month == "" {
		month = e.clock.Today()[:7]
	}
	return e.attendance.ListByEmployeeAndMonth(ctx, employeeID, month)
}

// ModificationInput is the subset of an attendance row an admin may
// overwrite via modify-attendance.
type ModificationInput struct {
	CheckInTime  *time.Time
	CheckOutTime *time.Time
	Status       *domain.Status
}

// ModifyAttendance applies an admin edit to an unlocked attendance row,
// records the before/after snapshot, and keeps any covering payroll's
// counters in step (admin only; the admin gate is enforced by the
// caller before this runs).
func (e *AttendanceEngine) ModifyAttendance(ctx context.Context, attendanceID, modifiedBy, reason string, mod ModificationInput) (*domain.Attendance, error) {
	if len(reason) < 10 {
		return nil, errors.MissingReason()
	}

	attendance, err := e.attendance.GetByID(ctx, attendanceID)
	if err != nil {
		return nil, err
	}
	if attendance.IsLocked {
		return nil, errors.AttendanceLocked()
	}
	if mod.CheckInTime == nil && mod.CheckOutTime == nil && mod.Status == nil {
		return nil, errors.ValidationError("at least one modification field is required")
	}

	original := snapshotAttendance(attendance)
	oldStatus := attendance.Status
	fieldsChanged := make([]string, 0, 3)

	timesChanged := false
	if mod.CheckInTime != nil {
		attendance.CheckInTime = mod.CheckInTime
		fieldsChanged = append(fieldsChanged, "checkInTime")
		timesChanged = true
	}
	if mod.CheckOutTime != nil {
		attendance.CheckOutTime = mod.CheckOutTime
		fieldsChanged = append(fieldsChanged, "checkOutTime")
		timesChanged = true
	}

	if timesChanged && attendance.CheckInTime != nil && attendance.CheckOutTime != nil {
		attendance.WorkHours = computeWorkHours(*attendance.CheckInTime, *attendance.CheckOutTime)
	}

	if mod.Status != nil {
		attendance.Status = *mod.Status
		fieldsChanged = append(fieldsChanged, "status")
	} else if timesChanged && attendance.CheckInTime != nil && attendance.CheckOutTime != nil {
		attendance.Status = deriveStatus(attendance.WorkHours)
	}

	attendance.IsAutoCalculated = false

	if err := e.attendance.ApplyModification(ctx, attendance); err != nil {
		return nil, err
	}

	newValue := snapshotAttendance(attendance)
	modification := &domain.AttendanceModification{
		AttendanceID:  attendance.ID,
		EmployeeID:    attendance.EmployeeID,
		ModifiedBy:    modifiedBy,
		ModifiedAt:    e.clock.Now(),
		Reason:        reason,
		FieldChanged:  joinFields(fieldsChanged),
		OriginalValue: original,
		NewValue:      newValue,
	}
	if err := e.attendance.CreateModification(ctx, modification); err != nil {
		e.logger.Error().Err(err).Str("attendance_id", attendance.ID).Msg("failed to persist attendance modification record")
	}

	if oldStatus != attendance.Status {
		if err := e.adjustPayrollCounters(ctx, attendance.EmployeeID, attendance.Date, oldStatus, attendance.Status); err != nil {
			e.logger.Error().Err(err).Str("employee_id", attendance.EmployeeID).Msg("failed to adjust payroll counters after modification")
		}
	}

	e.audit.Record(ctx, modifiedBy, "attendance-modified", attendance.ID, "attendance", map[string]interface{}{
		"reason":        reason,
		"fieldsChanged": fieldsChanged,
	})

	e.publisher.PublishModified(ctx, messaging.AttendanceModifiedEvent{
		AttendanceID: attendance.ID,
		EmployeeID:   attendance.EmployeeID,
		ModifiedBy:   modifiedBy,
		Reason:       reason,
		FieldChanged: modification.FieldChanged,
	})

	return attendance, nil
}

// adjustPayrollCounters: if a payroll exists for the month covering
// date, move one day between its old-status and new-status counters
// and recompute net salary. Only
// reachable when the attendance is unlocked, so the payroll (if any)
// is also unlocked.
func (e *AttendanceEngine) adjustPayrollCounters(ctx context.Context, employeeID, date string, oldStatus, newStatus domain.Status) error {
	month := date[:7]
	payroll, err := e.payroll.GetByEmployeeAndMonth(ctx, employeeID, month)
	if err != nil {
		return err
	}
	if payroll == nil {
		return nil
	}

	decrementCounter(payroll, oldStatus)
	incrementCounter(payroll, newStatus)
	payroll.NetSalary = payroll.DailyRate * payroll.PaidDays()

	return e.payroll.UpdateCounters(ctx, payroll)
}

func decrementCounter(p *domain.Payroll, status domain.Status) {
	switch status {
	case domain.StatusPresent:
		p.PresentDays = clampNonNegative(p.PresentDays - 1)
	case domain.StatusHalfDay:
		p.HalfDays = clampNonNegative(p.HalfDays - 1)
	case domain.StatusAbsent:
		p.AbsentDays = clampNonNegative(p.AbsentDays - 1)
	case domain.StatusSunday:
		p.SundayDays = clampNonNegative(p.SundayDays - 1)
	case domain.StatusHoliday:
		p.HolidayDays = clampNonNegative(p.HolidayDays - 1)
	case domain.StatusLeave:
		p.LeaveDays = clampNonNegative(p.LeaveDays - 1)
	}
}

func incrementCounter(p *domain.Payroll, status domain.Status) {
	switch status {
	case domain.StatusPresent:
		p.PresentDays++
	case domain.StatusHalfDay:
		p.HalfDays++
	case domain.StatusAbsent:
		p.AbsentDays++
	case domain.StatusSunday:
		p.SundayDays++
	case domain.StatusHoliday:
		p.HolidayDays++
	case domain.StatusLeave:
		p.LeaveDays++
	}
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func joinFields(fields []string) string {
	out := ""
	for i, f := range fields {
		if i > 0 {
			out += ","
		}
		out += f
	}
	return out
}

func snapshotAttendance(a *domain.Attendance) string {
	snap := struct {
		CheckInTime  *time.Time    `json:"checkInTime"`
		CheckOutTime *time.Time    `json:"checkOutTime"`
		Status       domain.Status `json:"status"`
		WorkHours    float64       `json:"workHours"`
	}{a.CheckInTime, a.CheckOutTime, a.Status, a.WorkHours}

	b, err := json.Marshal(snap)
	if err != nil {
		return ""
	}
	return string(b)
}
