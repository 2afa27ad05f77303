package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/attendsure/attendance-authority/internal/attendance/domain"
	"github.com/attendsure/attendance-authority/internal/attendance/service"
	"github.com/attendsure/attendance-authority/pkg/errors"
	"github.com/attendsure/attendance-authority/pkg/httputil"
)

type newEmployeeData struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password"`
	Name     string  `json:"name" validate:"required"`
	Salary   int64   `json:"salary" validate:"required,gt=0"`
	JoinDate *string `json:"joinDate,omitempty"`
}

type createEmployeeRequest struct {
	Data newEmployeeData `json:"data" validate:"required"`
}

// handleCreateEmployee provisions a directory login and the employee
// record behind it.
func (rt *Router) handleCreateEmployee(ctx context.Context, w http.ResponseWriter, callerID string, body []byte) error {
	var req createEmployeeRequest
	if err := decode(body, &req); err != nil {
		return err
	}
	if err := httputil.Validate(&req); err != nil {
		return err
	}

	var joinDate *time.Time
	if req.Data.JoinDate != nil {
		d, err := time.Parse("2006-01-02", *req.Data.JoinDate)
		if err != nil {
			return errors.ValidationError("joinDate must be in YYYY-MM-DD format")
		}
		joinDate = &d
	}

	emp, err := rt.admin.CreateEmployee(ctx, callerID, service.NewEmployeeInput{
		Email:    req.Data.Email,
		Password: req.Data.Password,
		Name:     req.Data.Name,
		Salary:   req.Data.Salary,
		JoinDate: joinDate,
	})
	if err != nil {
		return err
	}

	httputil.JSON(w, emp)
	return nil
}

type modificationFields struct {
	CheckInTime  *string `json:"checkInTime,omitempty"`
	CheckOutTime *string `json:"checkOutTime,omitempty"`
	Status       *string `json:"status,omitempty"`
}

type modifyAttendanceRequest struct {
	AttendanceID  string             `json:"attendanceId" validate:"required"`
	Reason        string             `json:"reason" validate:"required,min=10"`
	Modifications modificationFields `json:"modifications"`
}

// handleModifyAttendance parses an admin attendance edit and hands it
// to the attendance engine.
func (rt *Router) handleModifyAttendance(ctx context.Context, w http.ResponseWriter, callerID string, body []byte) error {
	var req modifyAttendanceRequest
	if err := decode(body, &req); err != nil {
		return err
	}
	if err := httputil.Validate(&req); err != nil {
		return err
	}

	mod := service.ModificationInput{}
	if req.Modifications.CheckInTime != nil {
		t, err := time.Parse(time.RFC3339, *req.Modifications.CheckInTime)
		if err != nil {
			return errors.ValidationError("checkInTime must be RFC3339")
		}
		mod.CheckInTime = &t
	}
	if req.Modifications.CheckOutTime != nil {
		t, err := time.Parse(time.RFC3339, *req.Modifications.CheckOutTime)
		if err != nil {
			return errors.ValidationError("checkOutTime must be RFC3339")
		}
		mod.CheckOutTime = &t
	}
	if req.Modifications.Status != nil {
		status := domain.Status(*req.Modifications.Status)
		if !status.Valid() {
			return errors.ValidationError("status is not a recognized attendance status")
		}
		mod.Status = &status
	}

	att, err := rt.attendance.ModifyAttendance(ctx, req.AttendanceID, callerID, req.Reason, mod)
	if err != nil {
		return err
	}
	rt.reportCache.invalidateAll()

	httputil.JSON(w, att)
	return nil
}

type resetDeviceRequest struct {
	EmployeeID string `json:"employeeId" validate:"required"`
	Reason     string `json:"reason" validate:"required,min=10"`
}

// handleResetDevice clears an employee's device binding.
func (rt *Router) handleResetDevice(ctx context.Context, w http.ResponseWriter, callerID string, body []byte) error {
	var req resetDeviceRequest
	if err := decode(body, &req); err != nil {
		return err
	}
	if err := httputil.Validate(&req); err != nil {
		return err
	}

	if err := rt.attendance.ResetDevice(ctx, req.EmployeeID, callerID, req.Reason); err != nil {
		return err
	}

	httputil.OK(w, "device reset", nil)
	return nil
}

type createHolidayRequest struct {
	Date        string `json:"date" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
}

// handleCreateHoliday registers a calendar holiday.
func (rt *Router) handleCreateHoliday(ctx context.Context, w http.ResponseWriter, callerID string, body []byte) error {
	var req createHolidayRequest
	if err := decode(body, &req); err != nil {
		return err
	}
	if err := httputil.Validate(&req); err != nil {
		return err
	}

	h, err := rt.admin.CreateHoliday(ctx, callerID, req.Date, req.Name, req.Description)
	if err != nil {
		return err
	}

	httputil.JSON(w, h)
	return nil
}

type deleteHolidayRequest struct {
	HolidayID string `json:"holidayId" validate:"required"`
}

// handleDeleteHoliday removes a calendar holiday.
func (rt *Router) handleDeleteHoliday(ctx context.Context, w http.ResponseWriter, callerID string, body []byte) error {
	var req deleteHolidayRequest
	if err := decode(body, &req); err != nil {
		return err
	}
	if err := httputil.Validate(&req); err != nil {
		return err
	}

	if err := rt.admin.DeleteHoliday(ctx, callerID, req.HolidayID); err != nil {
		return err
	}

	httputil.OK(w, "holiday deleted", nil)
	return nil
}

type addOfficeLocationRequest struct {
	Name         string  `json:"name" validate:"required"`
	Latitude     float64 `json:"latitude" validate:"required"`
	Longitude    float64 `json:"longitude" validate:"required"`
	RadiusMeters float64 `json:"radiusMeters,omitempty"`
}

// handleAddOfficeLocation registers a geofenced office premises;
// radius defaults to 100m when unset.
func (rt *Router) handleAddOfficeLocation(ctx context.Context, w http.ResponseWriter, callerID string, body []byte) error {
	var req addOfficeLocationRequest
	if err := decode(body, &req); err != nil {
		return err
	}
	if err := httputil.Validate(&req); err != nil {
		return err
	}

	o, err := rt.admin.AddOfficeLocation(ctx, callerID, req.Name, req.Latitude, req.Longitude, req.RadiusMeters)
	if err != nil {
		return err
	}

	httputil.JSON(w, o)
	return nil
}
