// Package events wraps the raw messaging.Publisher with one method per
// domain event this service emits, so the service layer never builds a
// messaging.XxxEvent struct or picks an exchange/routing key itself.
package events

import (
	"context"

	"github.com/attendsure/attendance-authority/pkg/logger"
	"github.com/attendsure/attendance-authority/pkg/messaging"
)

// AttendanceEventPublisher publishes attendance- and payroll-domain
// events onto their respective exchanges.
type AttendanceEventPublisher struct {
	attendance *messaging.Publisher
	payroll    *messaging.Publisher
	logger     *logger.Logger
}

// NewAttendanceEventPublisher creates the publisher pair backing this
// service's event catalog (pkg/messaging.Event* constants).
func NewAttendanceEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*AttendanceEventPublisher, error) {
	attendancePub, err := messaging.NewPublisher(rmq, messaging.ExchangeAttendanceEvents, "attendance-service", log)
	if err != nil {
		return nil, err
	}
	payrollPub, err := messaging.NewPublisher(rmq, messaging.ExchangePayrollEvents, "attendance-service", log)
	if err != nil {
		return nil, err
	}

	return &AttendanceEventPublisher{attendance: attendancePub, payroll: payrollPub, logger: log}, nil
}

// NewNoop returns a publisher with no backing RabbitMQ connection, for
// tests that exercise engine logic without a broker.
func NewNoop(log *logger.Logger) *AttendanceEventPublisher {
	return &AttendanceEventPublisher{logger: log}
}

// PublishCheckedIn announces a successful check-in.
func (p *AttendanceEventPublisher) PublishCheckedIn(ctx context.Context, data messaging.AttendanceCheckedInEvent) {
	if p.attendance == nil {
		return
	}
	if err := p.attendance.Publish(ctx, messaging.EventAttendanceCheckedIn, data); err != nil {
		p.logger.Error().Err(err).Str("attendance_id", data.AttendanceID).Msg("failed to publish check-in event")
	}
}

// PublishCheckedOut announces a successful check-out.
func (p *AttendanceEventPublisher) PublishCheckedOut(ctx context.Context, data messaging.AttendanceCheckedOutEvent) {
	if p.attendance == nil {
		return
	}
	if err := p.attendance.Publish(ctx, messaging.EventAttendanceCheckedOut, data); err != nil {
		p.logger.Error().Err(err).Str("attendance_id", data.AttendanceID).Msg("failed to publish check-out event")
	}
}

// PublishModified announces an admin edit to an attendance record.
func (p *AttendanceEventPublisher) PublishModified(ctx context.Context, data messaging.AttendanceModifiedEvent) {
	if p.attendance == nil {
		return
	}
	if err := p.attendance.Publish(ctx, messaging.EventAttendanceModified, data); err != nil {
		p.logger.Error().Err(err).Str("attendance_id", data.AttendanceID).Msg("failed to publish modification event")
	}
}

// PublishDeviceRegistered announces a new device binding.
func (p *AttendanceEventPublisher) PublishDeviceRegistered(ctx context.Context, data messaging.DeviceRegisteredEvent) {
	if p.attendance == nil {
		return
	}
	if err := p.attendance.Publish(ctx, messaging.EventDeviceRegistered, data); err != nil {
		p.logger.Error().Err(err).Str("employee_id", data.EmployeeID).Msg("failed to publish device registration event")
	}
}

// PublishDeviceReset announces an admin clearing a device binding.
func (p *AttendanceEventPublisher) PublishDeviceReset(ctx context.Context, data messaging.DeviceResetEvent) {
	if p.attendance == nil {
		return
	}
	if err := p.attendance.Publish(ctx, messaging.EventDeviceReset, data); err != nil {
		p.logger.Error().Err(err).Str("employee_id", data.EmployeeID).Msg("failed to publish device reset event")
	}
}

// PublishPayrollGenerated announces a month's payroll generation and lock.
func (p *AttendanceEventPublisher) PublishPayrollGenerated(ctx context.Context, data messaging.PayrollGeneratedEvent) {
	if p.payroll == nil {
		return
	}
	if err := p.payroll.Publish(ctx, messaging.EventPayrollGenerated, data); err != nil {
		p.logger.Error().Err(err).Str("payroll_id", data.PayrollID).Msg("failed to publish payroll generated event")
	}
}

// PublishPayrollUnlocked announces an admin unlocking a payroll.
func (p *AttendanceEventPublisher) PublishPayrollUnlocked(ctx context.Context, data messaging.PayrollUnlockedEvent) {
	if p.payroll == nil {
		return
	}
	if err := p.payroll.Publish(ctx, messaging.EventPayrollUnlocked, data); err != nil {
		p.logger.Error().Err(err).Str("payroll_id", data.PayrollID).Msg("failed to publish payroll unlocked event")
	}
}

// PublishPayrollDeleted announces an admin deleting a payroll, locked or
// unlocked.
func (p *AttendanceEventPublisher) PublishPayrollDeleted(ctx context.Context, data messaging.PayrollDeletedEvent) {
	if p.payroll == nil {
		return
	}
	if err := p.payroll.Publish(ctx, messaging.EventPayrollDeleted, data); err != nil {
		p.logger.Error().Err(err).Str("payroll_id", data.PayrollID).Msg("failed to publish payroll deleted event")
	}
}
