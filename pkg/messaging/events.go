package messaging

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types this service publishes.
const (
	EventAttendanceCheckedIn  = "attendance.checked_in"
	EventAttendanceCheckedOut = "attendance.checked_out"
	EventAttendanceModified   = "attendance.modified"
	EventDeviceRegistered     = "attendance.device.registered"
	EventDeviceReset          = "attendance.device.reset"

	EventPayrollGenerated = "payroll.generated"
	EventPayrollUnlocked  = "payroll.unlocked"
	EventPayrollDeleted   = "payroll.deleted"

	EventAuditRecorded = "audit.recorded"
)

// Exchange names
const (
	ExchangeAttendanceEvents = "attendance.events"
	ExchangePayrollEvents    = "payroll.events"
	ExchangeAuditEvents      = "attendance.audit"
)

// Event is the base event structure published on every exchange.
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// AttendanceCheckedInEvent is published on a successful check-in.
type AttendanceCheckedInEvent struct {
	AttendanceID string    `json:"attendance_id"`
	EmployeeID   string    `json:"employee_id"`
	Date         string    `json:"date"`
	CheckInTime  time.Time `json:"check_in_time"`
	Flagged      bool      `json:"is_location_flagged"`
}

// AttendanceCheckedOutEvent is published on a successful check-out.
type AttendanceCheckedOutEvent struct {
	AttendanceID string    `json:"attendance_id"`
	EmployeeID   string    `json:"employee_id"`
	Date         string    `json:"date"`
	CheckOutTime time.Time `json:"check_out_time"`
	WorkHours    float64   `json:"work_hours"`
	Status       string    `json:"status"`
}

// AttendanceModifiedEvent is published when an admin edits an unlocked
// attendance record.
type AttendanceModifiedEvent struct {
	AttendanceID string `json:"attendance_id"`
	EmployeeID   string `json:"employee_id"`
	ModifiedBy   string `json:"modified_by"`
	Reason       string `json:"reason"`
	FieldChanged string `json:"field_changed"`
}

// DeviceRegisteredEvent is published when a device is bound to an employee.
type DeviceRegisteredEvent struct {
	EmployeeID string `json:"employee_id"`
}

// DeviceResetEvent is published when an admin clears an employee's device binding.
type DeviceResetEvent struct {
	EmployeeID string `json:"employee_id"`
	ResetBy    string `json:"reset_by"`
	Reason     string `json:"reason"`
}

// PayrollGeneratedEvent is published when a month's payroll is generated and locked.
type PayrollGeneratedEvent struct {
	PayrollID   string  `json:"payroll_id"`
	EmployeeID  string  `json:"employee_id"`
	Month       string  `json:"month"`
	NetSalary   float64 `json:"net_salary"`
	GeneratedBy string  `json:"generated_by"`
}

// PayrollUnlockedEvent is published when an admin unlocks a generated payroll.
type PayrollUnlockedEvent struct {
	PayrollID  string `json:"payroll_id"`
	EmployeeID string `json:"employee_id"`
	Month      string `json:"month"`
	UnlockedBy string `json:"unlocked_by"`
	Reason     string `json:"reason"`
}

// PayrollDeletedEvent is published when an admin deletes a payroll, locked
// or unlocked.
type PayrollDeletedEvent struct {
	PayrollID  string `json:"payroll_id"`
	EmployeeID string `json:"employee_id"`
	Month      string `json:"month"`
	DeletedBy  string `json:"deleted_by"`
}

// AuditRecordedEvent mirrors a persisted AuditEvent row onto the audit
// exchange so downstream consumers can tail the tamper-evident stream
// without polling the store.
type AuditRecordedEvent struct {
	EventID    string `json:"event_id"`
	ActorID    string `json:"actor_id"`
	Action     string `json:"action"`
	TargetID   string `json:"target_id"`
	TargetType string `json:"target_type"`
	Hash       string `json:"hash"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), time.Now().Nanosecond()%10000)
}
