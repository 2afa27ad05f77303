package handler

import (
	"context"
	"net/http"

	"github.com/attendsure/attendance-authority/pkg/httputil"
)

type generatePayrollRequest struct {
	Month string `json:"month" validate:"required"`
}

// handleGeneratePayroll runs the month-end payroll generation.
func (rt *Router) handleGeneratePayroll(ctx context.Context, w http.ResponseWriter, callerID string, body []byte) error {
	var req generatePayrollRequest
	if err := decode(body, &req); err != nil {
		return err
	}
	if err := httputil.Validate(&req); err != nil {
		return err
	}

	summary, err := rt.payroll.GeneratePayroll(ctx, req.Month, callerID)
	if err != nil {
		return err
	}
	rt.reportCache.invalidateAll()

	httputil.JSON(w, summary)
	return nil
}

type unlockPayrollRequest struct {
	Month  string `json:"month" validate:"required"`
	Reason string `json:"reason" validate:"required,min=10"`
}

// handleUnlockPayroll unlocks a generated month for corrections.
func (rt *Router) handleUnlockPayroll(ctx context.Context, w http.ResponseWriter, callerID string, body []byte) error {
	var req unlockPayrollRequest
	if err := decode(body, &req); err != nil {
		return err
	}
	if err := httputil.Validate(&req); err != nil {
		return err
	}

	if err := rt.payroll.UnlockPayroll(ctx, req.Month, callerID, req.Reason); err != nil {
		return err
	}
	rt.reportCache.invalidateAll()

	httputil.OK(w, "payroll unlocked", nil)
	return nil
}

type deletePayrollRequest struct {
	Month  string `json:"month" validate:"required"`
	Reason string `json:"reason" validate:"required,min=10"`
}

// handleDeletePayroll deletes a month's payroll rows and their
// auto-calculated attendance.
func (rt *Router) handleDeletePayroll(ctx context.Context, w http.ResponseWriter, callerID string, body []byte) error {
	var req deletePayrollRequest
	if err := decode(body, &req); err != nil {
		return err
	}
	if err := httputil.Validate(&req); err != nil {
		return err
	}

	if err := rt.payroll.DeletePayroll(ctx, req.Month, callerID, req.Reason); err != nil {
		return err
	}
	rt.reportCache.invalidateAll()

	httputil.OK(w, "payroll deleted", nil)
	return nil
}

type getPayrollReportRequest struct {
	Month string `json:"month,omitempty"`
}

// handleGetPayrollReport serves the month report, backed by a
// short-lived in-process cache keyed by month.
func (rt *Router) handleGetPayrollReport(ctx context.Context, w http.ResponseWriter, callerID string, body []byte) error {
	var req getPayrollReportRequest
	if len(body) > 0 {
		if err := decode(body, &req); err != nil {
			return err
		}
	}

	if cached, ok := rt.reportCache.get(req.Month); ok {
		httputil.JSON(w, cached)
		return nil
	}

	report, err := rt.payroll.GetPayrollReport(ctx, req.Month)
	if err != nil {
		return err
	}

	rt.reportCache.set(req.Month, report)
	httputil.JSON(w, report)
	return nil
}
