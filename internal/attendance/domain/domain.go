// Package domain holds the entities shared by the attendance and payroll
// engines. Types here carry no persistence or transport concerns.
package domain

import "time"

// Status is the closed set of attendance states for a single day.
type Status string

const (
	StatusPresent Status = "present"
	StatusHalfDay Status = "half_day"
	StatusAbsent  Status = "absent"
	StatusSunday  Status = "sunday"
	StatusHoliday Status = "holiday"
	StatusLeave   Status = "leave"
)

// Valid reports whether s is one of the six known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusHalfDay, StatusAbsent, StatusSunday, StatusHoliday, StatusLeave:
		return true
	}
	return false
}

// Role distinguishes an ordinary employee from an administrator.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// Employee is a member of the workforce this authority tracks.
type Employee struct {
	ID            string
	Name          string
	Email         string
	Role          Role
	IsActive      bool
	SalaryMonthly int64
	JoinDate      time.Time

	// Device binding. All three are set together and cleared together.
	DevicePublicKey    *string
	DeviceFingerprint  *string // bcrypt hash of the raw fingerprint, never the raw value
	DeviceRegisteredAt *time.Time
}

// HasDevice reports whether a device is currently bound to the employee.
func (e *Employee) HasDevice() bool {
	return e.DevicePublicKey != nil
}

// GeoPoint is an optional location reading attached to a check-in/out.
type GeoPoint struct {
	Lat      float64
	Lng      float64
	Accuracy *float64 // meters, optional
}

// Attendance is the unique per-(employee,date) attendance record.
type Attendance struct {
	ID         string
	EmployeeID string
	Date       string // YYYY-MM-DD, office-timezone calendar date
	Status     Status

	CheckInTime  *time.Time
	CheckOutTime *time.Time

	CheckInLocation  *GeoPoint
	CheckOutLocation *GeoPoint

	WorkHours         float64
	IsLocationFlagged bool
	IsAutoCalculated  bool
	IsLocked          bool
	Notes             string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AttendanceModification is the audit record of an admin edit to an
// Attendance row.
type AttendanceModification struct {
	ID            string
	AttendanceID  string
	EmployeeID    string
	ModifiedBy    string
	ModifiedAt    time.Time
	Reason        string
	FieldChanged  string // comma-separated field names
	OriginalValue string // serialized snapshot
	NewValue      string // serialized snapshot
}

// Holiday is a single calendar holiday, unique per date.
type Holiday struct {
	ID          string
	Date        string // YYYY-MM-DD
	Name        string
	Description string
}

// LeaveStatus is the approval state of a Leave request.
type LeaveStatus string

const (
	LeaveApproved LeaveStatus = "approved"
	LeavePending  LeaveStatus = "pending"
	LeaveRejected LeaveStatus = "rejected"
)

// Leave is a per-employee, per-date leave record. Only LeaveApproved
// participates in payroll.
type Leave struct {
	ID         string
	EmployeeID string
	Date       string // YYYY-MM-DD
	Status     LeaveStatus
}

// OfficeLocation is one of the geofenced office premises.
type OfficeLocation struct {
	ID           string
	Name         string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
	IsActive     bool
}

// Payroll is the unique per-(employee,month) payroll record.
type Payroll struct {
	ID         string
	EmployeeID string
	Month      string // YYYY-MM

	BaseSalary       int64
	DailyRate        float64
	TotalWorkingDays int

	PresentDays int
	HalfDays    int
	AbsentDays  int
	SundayDays  int
	HolidayDays int
	LeaveDays   int

	NetSalary float64

	IsLocked bool

	GeneratedBy string
	GeneratedAt time.Time

	UnlockedBy     string
	UnlockedAt     time.Time
	UnlockReason   string
}

// PaidDays returns the fractional number of days this payroll pays
// for: present, Sunday, holiday and leave count 1 each, a half day
// counts 0.5, absent counts 0.
func (p *Payroll) PaidDays() float64 {
	return float64(p.PresentDays+p.SundayDays+p.HolidayDays+p.LeaveDays) + 0.5*float64(p.HalfDays)
}

// AuditEvent is one row of the append-only, content-hashed audit stream.
type AuditEvent struct {
	ID                string
	Timestamp         time.Time
	ActorID           string
	Action            string
	TargetID          string
	TargetType        string
	Payload           string // serialized event-specific body
	Signature         string
	SignatureVerified bool
	Hash              string
	DeviceInfo        string
	IPAddress         string
}
