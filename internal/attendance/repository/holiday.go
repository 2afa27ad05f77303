package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/attendsure/attendance-authority/internal/attendance/domain"
	"github.com/attendsure/attendance-authority/pkg/database"
	"github.com/attendsure/attendance-authority/pkg/errors"
)

type holidayRow struct {
	ID          string `db:"id"`
	Date        string `db:"date"`
	Name        string `db:"name"`
	Description string `db:"description"`
}

func (r holidayRow) toDomain() *domain.Holiday {
	return &domain.Holiday{ID: r.ID, Date: r.Date, Name: r.Name, Description: r.Description}
}

// HolidayRepository persists domain.Holiday rows, unique per date.
type HolidayRepository struct {
	db *database.DB
}

// NewHolidayRepository creates a new holiday repository.
func NewHolidayRepository(db *database.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// ListInMonth returns every holiday whose date falls in the given YYYY-MM month.
func (r *HolidayRepository) ListInMonth(ctx context.Context, month string) ([]*domain.Holiday, error) {
	var rows []holidayRow
	query := `SELECT id, date, name, description FROM holidays WHERE date LIKE $1 ORDER BY date`
	if err := r.db.SelectContext(ctx, &rows, query, month+"-%"); err != nil {
		return nil, err
	}

	holidays := make([]*domain.Holiday, 0, len(rows))
	for _, row := range rows {
		holidays = append(holidays, row.toDomain())
	}
	return holidays, nil
}

// Create inserts a holiday. Fails with DuplicateHoliday on the unique date conflict.
func (r *HolidayRepository) Create(ctx context.Context, h *domain.Holiday) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}

	query := `INSERT INTO holidays (id, date, name, description) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, h.ID, h.Date, h.Name, h.Description)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// Delete removes a holiday by id.
func (r *HolidayRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("holiday")
	}
	return nil
}
