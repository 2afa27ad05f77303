// Package handler implements the action router: a single POST endpoint
// that parses {action, ...} JSON bodies, enforces the admin gate for
// admin-only actions, and dispatches to the attendance, payroll or
// admin service handling each action.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/attendsure/attendance-authority/internal/attendance/admin"
	"github.com/attendsure/attendance-authority/internal/attendance/clock"
	"github.com/attendsure/attendance-authority/internal/attendance/service"
	apperrors "github.com/attendsure/attendance-authority/pkg/errors"
	"github.com/attendsure/attendance-authority/pkg/httputil"
	"github.com/attendsure/attendance-authority/pkg/logger"
)

// adminActions is the admin-only subset of the action catalog.
var adminActions = map[string]bool{
	"create-employee":     true,
	"modify-attendance":   true,
	"reset-device":        true,
	"create-holiday":      true,
	"delete-holiday":      true,
	"add-office-location": true,
	"generate-payroll":    true,
	"unlock-payroll":      true,
	"delete-payroll":      true,
	"get-payroll-report":  true,
}

// Router dispatches action requests to the attendance, payroll and
// admin services.
type Router struct {
	clock       clock.Oracle
	attendance  *service.AttendanceEngine
	payroll     *service.PayrollEngine
	admin       *service.AdminService
	gate        *admin.Gate
	reportCache *reportCache
	logger      *logger.Logger
}

// New creates a new action Router.
func New(
	clk clock.Oracle,
	attendance *service.AttendanceEngine,
	payroll *service.PayrollEngine,
	adminSvc *service.AdminService,
	gate *admin.Gate,
	log *logger.Logger,
) *Router {
	return &Router{
		clock:       clk,
		attendance:  attendance,
		payroll:     payroll,
		admin:       adminSvc,
		gate:        gate,
		reportCache: newReportCache(),
		logger:      log,
	}
}

type actionEnvelope struct {
	Action string `json:"action"`
}

// Handle implements the single action-router endpoint:
// POST / with body {action, ...}, caller identity from the
// x-appwrite-user-id header. Unknown actions and malformed bodies never
// reach a handler; everything else always answers HTTP 200 with the
// {success, message?, data?, code?} envelope for business failures
// (httputil.Error), reserving real HTTP status codes for the transport
// failures below.
func (rt *Router) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.TransportError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var env actionEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		httputil.TransportError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if env.Action == "" {
		httputil.TransportError(w, http.StatusBadRequest, "action is required")
		return
	}

	callerID := httputil.GetCallerID(r.Context())
	ctx := r.Context()

	if adminActions[env.Action] {
		if err := rt.gate.Require(ctx, callerID); err != nil {
			httputil.Error(w, err)
			return
		}
	}

	handler, ok := rt.handlers()[env.Action]
	if !ok {
		httputil.Error(w, apperrors.InvalidAction(env.Action))
		return
	}

	defer func() {
		if p := recover(); p != nil {
			rt.logger.Error().Interface("panic", p).Str("action", env.Action).Msg("panic recovered in action handler")
			httputil.Error(w, apperrors.Internal("an unexpected error occurred"))
		}
	}()

	if err := handler(ctx, w, callerID, body); err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			httputil.Error(w, err)
			return
		}
		rt.logger.Error().Err(err).Str("action", env.Action).Msg("unhandled action error")
		httputil.Error(w, apperrors.Internal(err.Error()))
	}
}

type actionFunc func(ctx context.Context, w http.ResponseWriter, callerID string, body []byte) error

func (rt *Router) handlers() map[string]actionFunc {
	return map[string]actionFunc{
		"check-in":            rt.handleCheckIn,
		"check-out":           rt.handleCheckOut,
		"register-device":     rt.handleRegisterDevice,
		"get-system-info":     rt.handleGetSystemInfo,
		"get-my-attendance":   rt.handleGetMyAttendance,
		"create-employee":     rt.handleCreateEmployee,
		"modify-attendance":   rt.handleModifyAttendance,
		"reset-device":        rt.handleResetDevice,
		"create-holiday":      rt.handleCreateHoliday,
		"delete-holiday":      rt.handleDeleteHoliday,
		"add-office-location": rt.handleAddOfficeLocation,
		"generate-payroll":    rt.handleGeneratePayroll,
		"unlock-payroll":      rt.handleUnlockPayroll,
		"delete-payroll":      rt.handleDeletePayroll,
		"get-payroll-report":  rt.handleGetPayrollReport,
	}
}

func decode(body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		return apperrors.BadRequest("invalid request body")
	}
	return nil
}
