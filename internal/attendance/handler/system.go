package handler

import (
	"context"
	"net/http"

	"github.com/attendsure/attendance-authority/pkg/httputil"
)

type systemInfoResponse struct {
	Now             string `json:"now"`
	Today           string `json:"today"`
	CheckInAllowed  bool   `json:"checkInAllowed"`
	CheckOutAllowed bool   `json:"checkOutAllowed"`
}

// handleGetSystemInfo answers get-system-info: a read-only view of what
// the clock oracle would answer right now, so a client can decide
// whether to attempt a check-in/out before trying.
func (rt *Router) handleGetSystemInfo(ctx context.Context, w http.ResponseWriter, callerID string, body []byte) error {
	httputil.JSON(w, systemInfoResponse{
		Now:             rt.clock.Now().Format("2006-01-02T15:04:05Z07:00"),
		Today:           rt.clock.Today(),
		CheckInAllowed:  rt.clock.CheckInAllowed(),
		CheckOutAllowed: rt.clock.CheckOutAllowed(),
	})
	return nil
}

type getMyAttendanceRequest struct {
	Month string `json:"month,omitempty"`
}

// handleGetMyAttendance answers get-my-attendance: a thin pass-through
// scoped to the caller's own employee id.
func (rt *Router) handleGetMyAttendance(ctx context.Context, w http.ResponseWriter, callerID string, body []byte) error {
	var req getMyAttendanceRequest
	if len(body) > 0 {
		if err := decode(body, &req); err != nil {
			return err
		}
	}

	records, err := rt.attendance.GetMyAttendance(ctx, callerID, req.Month)
	if err != nil {
		return err
	}

	httputil.JSON(w, records)
	return nil
}
