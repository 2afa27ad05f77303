package service

import (
	"context"
	"strings"
	"time"

	"github.com/attendsure/attendance-authority/internal/attendance/clock"
	"github.com/attendsure/attendance-authority/internal/attendance/directory"
	"github.com/attendsure/attendance-authority/internal/attendance/domain"
	"github.com/attendsure/attendance-authority/pkg/errors"
	"github.com/attendsure/attendance-authority/pkg/logger"
)

// DirectoryClient is the subset of directory.UserClient the admin
// service consumes for create-employee's provision/rollback pair.
type DirectoryClient interface {
	CreateUser(ctx context.Context, req *directory.CreateUserRequest) (*directory.DirectoryUser, error)
	DeleteUser(ctx context.Context, userID string) error
}

// AdminService implements the admin-only CRUD actions that aren't part
// of the attendance or payroll state machines: employee provisioning,
// holiday and office-location management.
type AdminService struct {
	clock     clock.Oracle
	employees EmployeeStore
	holidays  HolidayStore
	offices   OfficeLocationStore
	directory DirectoryClient
	audit     AuditRecorder
	logger    *logger.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(
	clk clock.Oracle,
	employees EmployeeStore,
	holidays HolidayStore,
	offices OfficeLocationStore,
	dir DirectoryClient,
	audit AuditRecorder,
	log *logger.Logger,
) *AdminService {
	return &AdminService{
		clock:     clk,
		employees: employees,
		holidays:  holidays,
		offices:   offices,
		directory: dir,
		audit:     audit,
		logger:    log,
	}
}

// NewEmployeeInput is the data:{...} payload of the create-employee
// action.
type NewEmployeeInput struct {
	Email    string
	Password string
	Name     string
	Salary   int64
	JoinDate *time.Time
}

// CreateEmployee is the only multi-resource mutation in this service:
// it provisions a directory login first, then writes the employee
// document using the directory's opaque user id. If the employee write
// fails, the directory entry is rolled back; a rollback failure is
// logged for manual reconciliation and the original error is what's
// returned.
func (s *AdminService) CreateEmployee(ctx context.Context, createdBy string, in NewEmployeeInput) (*domain.Employee, error) {
	if strings.TrimSpace(in.Email) == "" || strings.TrimSpace(in.Name) == "" {
		return nil, errors.ValidationError("email and name are required")
	}
	if in.Salary <= 0 {
		return nil, errors.ValidationError("salary must be a positive integer")
	}

	firstName, lastName := splitName(in.Name)
	user, err := s.directory.CreateUser(ctx, &directory.CreateUserRequest{
		Email:     in.Email,
		FirstName: firstName,
		LastName:  lastName,
	})
	if err != nil {
		return nil, err
	}

	joinDate := s.clock.Now()
	if in.JoinDate != nil {
		joinDate = *in.JoinDate
	}

	emp := &domain.Employee{
		ID:            user.ID,
		Name:          in.Name,
		Email:         in.Email,
		Role:          domain.RoleEmployee,
		IsActive:      true,
		SalaryMonthly: in.Salary,
		JoinDate:      joinDate,
	}

	if err := s.employees.Create(ctx, emp); err != nil {
		if rbErr := s.directory.DeleteUser(ctx, user.ID); rbErr != nil {
			s.logger.Error().Err(rbErr).Str("original_error", err.Error()).Str("user_id", user.ID).
				Msg("create-employee rollback failed; directory entry left orphaned")
		}
		return nil, err
	}

	s.audit.Record(ctx, createdBy, "employee-created", emp.ID, "employee", map[string]interface{}{
		"email": emp.Email,
	})

	s.logger.Info().Str("employee_id", emp.ID).Str("created_by", createdBy).Msg("employee created")
	return emp, nil
}

// CreateHoliday registers a calendar holiday, unique per date.
func (s *AdminService) CreateHoliday(ctx context.Context, createdBy, date, name, description string) (*domain.Holiday, error) {
	if strings.TrimSpace(date) == "" || strings.TrimSpace(name) == "" {
		return nil, errors.ValidationError("date and name are required")
	}

	h := &domain.Holiday{Date: date, Name: name, Description: description}
	if err := s.holidays.Create(ctx, h); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, createdBy, "holiday-created", h.ID, "holiday", map[string]interface{}{
		"date": date,
		"name": name,
	})
	return h, nil
}

// DeleteHoliday removes a calendar holiday.
func (s *AdminService) DeleteHoliday(ctx context.Context, deletedBy, holidayID string) error {
	if err := s.holidays.Delete(ctx, holidayID); err != nil {
		return err
	}

	s.audit.Record(ctx, deletedBy, "holiday-deleted", holidayID, "holiday", map[string]interface{}{})
	return nil
}

const defaultOfficeRadiusMeters = 100

// AddOfficeLocation registers a geofenced office premises; the radius
// defaults to 100m when unset.
func (s *AdminService) AddOfficeLocation(ctx context.Context, addedBy, name string, lat, lng float64, radiusMeters float64) (*domain.OfficeLocation, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.ValidationError("name is required")
	}
	if radiusMeters <= 0 {
		radiusMeters = defaultOfficeRadiusMeters
	}

	o := &domain.OfficeLocation{
		Name:         name,
		Latitude:     lat,
		Longitude:    lng,
		RadiusMeters: radiusMeters,
		IsActive:     true,
	}
	if err := s.offices.Create(ctx, o); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, addedBy, "office-location-added", o.ID, "office_location", map[string]interface{}{
		"name": name,
	})
	return o, nil
}

// splitName splits a display name into first/last for the directory's
// provisioning request; a single-word name becomes the first name with
// an empty last name.
func splitName(name string) (first, last string) {
	parts := strings.SplitN(strings.TrimSpace(name), " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
