package handler

import (
	"context"
	"net/http"

	"github.com/attendsure/attendance-authority/internal/attendance/service"
	"github.com/attendsure/attendance-authority/pkg/httputil"
)

// locationRequest is the optional GPS reading attached to a
// check-in/out request.
type locationRequest struct {
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Accuracy *float64 `json:"accuracy,omitempty"`
}

func (l *locationRequest) toEngineLocation() *service.Location {
	if l == nil {
		return nil
	}
	return &service.Location{Lat: l.Lat, Lng: l.Lng, Accuracy: l.Accuracy}
}

type checkInOutRequest struct {
	Email        string           `json:"email" validate:"required,email"`
	Signature    string           `json:"signature" validate:"required"`
	DataToVerify string           `json:"dataToVerify" validate:"required"`
	Location     *locationRequest `json:"location,omitempty"`
}

// handleCheckIn parses and dispatches the check-in action.
func (rt *Router) handleCheckIn(ctx context.Context, w http.ResponseWriter, callerID string, body []byte) error {
	var req checkInOutRequest
	if err := decode(body, &req); err != nil {
		return err
	}
	if err := httputil.Validate(&req); err != nil {
		return err
	}

	att, err := rt.attendance.CheckIn(ctx, req.Email, req.Signature, req.DataToVerify, req.Location.toEngineLocation())
	if err != nil {
		return err
	}
	rt.reportCache.invalidateAll()

	httputil.JSON(w, att)
	return nil
}

// handleCheckOut parses and dispatches the check-out action.
func (rt *Router) handleCheckOut(ctx context.Context, w http.ResponseWriter, callerID string, body []byte) error {
	var req checkInOutRequest
	if err := decode(body, &req); err != nil {
		return err
	}
	if err := httputil.Validate(&req); err != nil {
		return err
	}

	att, err := rt.attendance.CheckOut(ctx, req.Email, req.Signature, req.DataToVerify, req.Location.toEngineLocation())
	if err != nil {
		return err
	}
	rt.reportCache.invalidateAll()

	httputil.JSON(w, map[string]interface{}{
		"status":    att.Status,
		"workHours": att.WorkHours,
	})
	return nil
}

type registerDeviceRequest struct {
	Email             string  `json:"email" validate:"required,email"`
	PublicKey         string  `json:"publicKey" validate:"required"`
	DeviceFingerprint *string `json:"deviceFingerprint,omitempty"`
}

// handleRegisterDevice binds a device public key to an employee.
func (rt *Router) handleRegisterDevice(ctx context.Context, w http.ResponseWriter, callerID string, body []byte) error {
	var req registerDeviceRequest
	if err := decode(body, &req); err != nil {
		return err
	}
	if err := httputil.Validate(&req); err != nil {
		return err
	}

	if err := rt.attendance.RegisterDevice(ctx, req.Email, req.PublicKey, req.DeviceFingerprint); err != nil {
		return err
	}

	httputil.OK(w, "device registered", nil)
	return nil
}
