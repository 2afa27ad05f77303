package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/attendsure/attendance-authority/internal/attendance/domain"
	"github.com/attendsure/attendance-authority/pkg/database"
	"github.com/attendsure/attendance-authority/pkg/errors"
)

type geoPointRow struct {
	Lat      *float64 `db:"lat"`
	Lng      *float64 `db:"lng"`
	Accuracy *float64 `db:"accuracy"`
}

func (g geoPointRow) toDomain() *domain.GeoPoint {
	if g.Lat == nil || g.Lng == nil {
		return nil
	}
	return &domain.GeoPoint{Lat: *g.Lat, Lng: *g.Lng, Accuracy: g.Accuracy}
}

type attendanceRow struct {
	ID         string `db:"id"`
	EmployeeID string `db:"employee_id"`
	Date       string `db:"date"`
	Status     string `db:"status"`

	CheckInTime  *time.Time `db:"check_in_time"`
	CheckOutTime *time.Time `db:"check_out_time"`

	CheckInLat      *float64 `db:"check_in_lat"`
	CheckInLng      *float64 `db:"check_in_lng"`
	CheckInAccuracy *float64 `db:"check_in_accuracy"`

	CheckOutLat      *float64 `db:"check_out_lat"`
	CheckOutLng      *float64 `db:"check_out_lng"`
	CheckOutAccuracy *float64 `db:"check_out_accuracy"`

	WorkHours         float64   `db:"work_hours"`
	IsLocationFlagged bool      `db:"is_location_flagged"`
	IsAutoCalculated  bool      `db:"is_auto_calculated"`
	IsLocked          bool      `db:"is_locked"`
	Notes             string    `db:"notes"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (r attendanceRow) toDomain() *domain.Attendance {
	a := &domain.Attendance{
		ID:                r.ID,
		EmployeeID:        r.EmployeeID,
		Date:              r.Date,
		Status:            domain.Status(r.Status),
		CheckInTime:       r.CheckInTime,
		CheckOutTime:      r.CheckOutTime,
		WorkHours:         r.WorkHours,
		IsLocationFlagged: r.IsLocationFlagged,
		IsAutoCalculated:  r.IsAutoCalculated,
		IsLocked:          r.IsLocked,
		Notes:             r.Notes,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	a.CheckInLocation = geoPointRow{Lat: r.CheckInLat, Lng: r.CheckInLng, Accuracy: r.CheckInAccuracy}.toDomain()
	a.CheckOutLocation = geoPointRow{Lat: r.CheckOutLat, Lng: r.CheckOutLng, Accuracy: r.CheckOutAccuracy}.toDomain()
	return a
}

// AttendanceRepository persists domain.Attendance and its modification
// audit trail. The unique constraint on (employee_id, date) is the
// authoritative guard for the one-row-per-day invariant; the engine's
// read-then-write is only a fast path in front of it.
type AttendanceRepository struct {
	db *database.DB
}

// NewAttendanceRepository creates a new attendance repository.
func NewAttendanceRepository(db *database.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// GetByEmployeeAndDate loads the attendance row for (employeeID, date), if any.
func (r *AttendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID, date string) (*domain.Attendance, error) {
	var row attendanceRow
	query := `
		SELECT id, employee_id, date, status, check_in_time, check_out_time,
		       check_in_lat, check_in_lng, check_in_accuracy,
		       check_out_lat, check_out_lng, check_out_accuracy,
		       work_hours, is_location_flagged, is_auto_calculated, is_locked, notes,
		       created_at, updated_at
		FROM attendance WHERE employee_id = $1 AND date = $2
	`
	if err := r.db.GetContext(ctx, &row, query, employeeID, date); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// GetByID loads a single attendance row by id.
func (r *AttendanceRepository) GetByID(ctx context.Context, id string) (*domain.Attendance, error) {
	var row attendanceRow
	query := `
		SELECT id, employee_id, date, status, check_in_time, check_out_time,
		       check_in_lat, check_in_lng, check_in_accuracy,
		       check_out_lat, check_out_lng, check_out_accuracy,
		       work_hours, is_location_flagged, is_auto_calculated, is_locked, notes,
		       created_at, updated_at
		FROM attendance WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("attendance")
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// ListByEmployeeAndMonth loads every attendance row for an employee whose
// date falls in the given YYYY-MM month, keyed by date.
func (r *AttendanceRepository) ListByEmployeeAndMonth(ctx context.Context, employeeID, month string) (map[string]*domain.Attendance, error) {
	var rows []attendanceRow
	query := `
		SELECT id, employee_id, date, status, check_in_time, check_out_time,
		       check_in_lat, check_in_lng, check_in_accuracy,
		       check_out_lat, check_out_lng, check_out_accuracy,
		       work_hours, is_location_flagged, is_auto_calculated, is_locked, notes,
		       created_at, updated_at
		FROM attendance WHERE employee_id = $1 AND date LIKE $2
	`
	if err := r.db.SelectContext(ctx, &rows, query, employeeID, month+"-%"); err != nil {
		return nil, err
	}

	byDate := make(map[string]*domain.Attendance, len(rows))
	for _, row := range rows {
		byDate[row.Date] = row.toDomain()
	}
	return byDate, nil
}

// CreateCheckIn upserts the attendance row for a fresh check-in. A
// payroll backfill may already have created a row for today with no
// check-in time; that row is taken over. A row that already carries a
// check-in time yields DuplicateCheckIn, including one written by a
// concurrent request that won the race on the unique (employee_id,
// date) index.
func (r *AttendanceRepository) CreateCheckIn(ctx context.Context, a *domain.Attendance) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}

	query := `
		INSERT INTO attendance (
			id, employee_id, date, status, check_in_time,
			check_in_lat, check_in_lng, check_in_accuracy,
			work_hours, is_location_flagged, is_auto_calculated, is_locked, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (employee_id, date) DO UPDATE SET
			status = EXCLUDED.status,
			check_in_time = EXCLUDED.check_in_time,
			check_in_lat = EXCLUDED.check_in_lat,
			check_in_lng = EXCLUDED.check_in_lng,
			check_in_accuracy = EXCLUDED.check_in_accuracy,
			is_location_flagged = EXCLUDED.is_location_flagged,
			is_auto_calculated = EXCLUDED.is_auto_calculated,
			is_locked = EXCLUDED.is_locked,
			updated_at = NOW()
		WHERE attendance.check_in_time IS NULL
		RETURNING id
	`

	var lat, lng, acc *float64
	if a.CheckInLocation != nil {
		lat, lng, acc = &a.CheckInLocation.Lat, &a.CheckInLocation.Lng, a.CheckInLocation.Accuracy
	}

	var id string
	if err := r.db.GetContext(ctx, &id, query,
		a.ID, a.EmployeeID, a.Date, string(a.Status), a.CheckInTime,
		lat, lng, acc,
		a.WorkHours, a.IsLocationFlagged, a.IsAutoCalculated, a.IsLocked, a.Notes,
	); err != nil {
		if err == sql.ErrNoRows {
			return errors.DuplicateCheckIn()
		}
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	a.ID = id
	return nil
}

// CreateBackfill inserts a payroll-backfilled attendance row. Named
// separately from CreateCheckIn since the caller never supplies
// check-in/out times.
func (r *AttendanceRepository) CreateBackfill(ctx context.Context, a *domain.Attendance) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}

	query := `
		INSERT INTO attendance (id, employee_id, date, status, is_auto_calculated, is_locked, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.EmployeeID, a.Date, string(a.Status), a.IsAutoCalculated, a.IsLocked, a.Notes,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// CheckOut records a check-out against an existing attendance row.
func (r *AttendanceRepository) CheckOut(ctx context.Context, a *domain.Attendance) error {
	query := `
		UPDATE attendance SET
			check_out_time = $2, check_out_lat = $3, check_out_lng = $4, check_out_accuracy = $5,
			work_hours = $6, status = $7, is_location_flagged = $8, updated_at = NOW()
		WHERE id = $1
	`

	var lat, lng, acc *float64
	if a.CheckOutLocation != nil {
		lat, lng, acc = &a.CheckOutLocation.Lat, &a.CheckOutLocation.Lng, a.CheckOutLocation.Accuracy
	}

	result, err := r.db.ExecContext(ctx, query,
		a.ID, a.CheckOutTime, lat, lng, acc, a.WorkHours, string(a.Status), a.IsLocationFlagged,
	)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("attendance")
	}
	return nil
}

// ApplyModification persists an admin modify-attendance edit. The
// is_locked guard enforces the payroll lock at the SQL layer, so a
// concurrent generate can't be raced past.
func (r *AttendanceRepository) ApplyModification(ctx context.Context, a *domain.Attendance) error {
	query := `
		UPDATE attendance SET
			check_in_time = $2, check_out_time = $3, status = $4, work_hours = $5,
			is_auto_calculated = false, updated_at = NOW()
		WHERE id = $1 AND is_locked = false
	`
	result, err := r.db.ExecContext(ctx, query, a.ID, a.CheckInTime, a.CheckOutTime, string(a.Status), a.WorkHours)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.AttendanceLocked()
	}
	return nil
}

// SetLockedForEmployeeMonth flips is_locked for every attendance row of
// an employee within a YYYY-MM month.
func (r *AttendanceRepository) SetLockedForEmployeeMonth(ctx context.Context, employeeID, month string, locked bool) error {
	query := `UPDATE attendance SET is_locked = $3, updated_at = NOW() WHERE employee_id = $1 AND date LIKE $2`
	_, err := r.db.ExecContext(ctx, query, employeeID, month+"-%", locked)
	return err
}

// DeleteAutoCalculatedForEmployeeMonth deletes every attendance row for
// an employee in a month that is still auto-calculated; manually edited
// days survive. Returns the number of rows removed.
func (r *AttendanceRepository) DeleteAutoCalculatedForEmployeeMonth(ctx context.Context, employeeID, month string) (int64, error) {
	query := `DELETE FROM attendance WHERE employee_id = $1 AND date LIKE $2 AND is_auto_calculated = true`
	result, err := r.db.ExecContext(ctx, query, employeeID, month+"-%")
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// CreateModification writes an AttendanceModification snapshot row.
func (r *AttendanceRepository) CreateModification(ctx context.Context, m *domain.AttendanceModification) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO attendance_modifications (
			id, attendance_id, employee_id, modified_by, modified_at,
			reason, field_changed, original_value, new_value
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.AttendanceID, m.EmployeeID, m.ModifiedBy, m.ModifiedAt,
		m.Reason, m.FieldChanged, m.OriginalValue, m.NewValue,
	)
	return err
}
