package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/attendsure/attendance-authority/internal/attendance/domain"
	"github.com/attendsure/attendance-authority/pkg/database"
)

type officeLocationRow struct {
	ID           string  `db:"id"`
	Name         string  `db:"name"`
	Latitude     float64 `db:"latitude"`
	Longitude    float64 `db:"longitude"`
	RadiusMeters float64 `db:"radius_meters"`
	IsActive     bool    `db:"is_active"`
}

func (r officeLocationRow) toDomain() *domain.OfficeLocation {
	return &domain.OfficeLocation{
		ID: r.ID, Name: r.Name, Latitude: r.Latitude, Longitude: r.Longitude,
		RadiusMeters: r.RadiusMeters, IsActive: r.IsActive,
	}
}

// OfficeLocationRepository persists domain.OfficeLocation rows, the
// geofence policy input for the Geofence Evaluator (C3).
type OfficeLocationRepository struct {
	db *database.DB
}

// NewOfficeLocationRepository creates a new office location repository.
func NewOfficeLocationRepository(db *database.DB) *OfficeLocationRepository {
	return &OfficeLocationRepository{db: db}
}

// ListActive returns every office location with is_active = true.
func (r *OfficeLocationRepository) ListActive(ctx context.Context) ([]*domain.OfficeLocation, error) {
	var rows []officeLocationRow
	query := `SELECT id, name, latitude, longitude, radius_meters, is_active FROM office_locations WHERE is_active = true`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	locations := make([]*domain.OfficeLocation, 0, len(rows))
	for _, row := range rows {
		locations = append(locations, row.toDomain())
	}
	return locations, nil
}

// Create inserts an office location. RadiusMeters defaults to 100 when
// unset.
func (r *OfficeLocationRepository) Create(ctx context.Context, o *domain.OfficeLocation) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.RadiusMeters == 0 {
		o.RadiusMeters = 100
	}
	o.IsActive = true

	query := `
		INSERT INTO office_locations (id, name, latitude, longitude, radius_meters, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query, o.ID, o.Name, o.Latitude, o.Longitude, o.RadiusMeters, o.IsActive)
	return err
}
