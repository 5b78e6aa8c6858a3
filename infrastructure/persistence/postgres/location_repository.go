package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Mr-Georgie/weather-api/application/ports"
	"github.com/Mr-Georgie/weather-api/domain/entities"
	"github.com/Mr-Georgie/weather-api/pkg/common"

	"go.uber.org/zap"
)

const locationColumns = `id, city, user_id, created_at, updated_at, deleted_at`

// LocationRepository stores favorites in the locations table.
type LocationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLocationRepository creates a new LocationRepository
func NewLocationRepository(db *sql.DB, logger *zap.Logger) *LocationRepository {
	return &LocationRepository{db: db, logger: logger}
}

func (r *LocationRepository) Create(ctx context.Context, location *entities.Location) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO locations (id, city, user_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		location.ID, location.City, location.UserID, location.CreatedAt, location.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("location %s: %w", location.City, ports.ErrDuplicate)
		}
		r.logger.Error("Failed to insert location", zap.Error(err), zap.String("user_id", location.UserID))
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

func (r *LocationRepository) GetByID(ctx context.Context, id string) (*entities.Location, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE id = $1 AND deleted_at IS NULL`, id)

	location, err := scanLocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("location %s: %w", id, ports.ErrNotFound)
	}
	return location, err
}

func (r *LocationRepository) ExistsForUser(ctx context.Context, userID, city string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM locations WHERE user_id = $1 AND city = $2 AND deleted_at IS NULL)`,
		userID, entities.NormalizeCity(city),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check location: %w", err)
	}
	return exists, nil
}

func (r *LocationRepository) ListByUser(ctx context.Context, userID string, page common.PaginationParams) ([]*entities.Location, int, error) {
	page = page.Normalize()

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM locations WHERE user_id = $1 AND deleted_at IS NULL`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count locations: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+locationColumns+` FROM locations
		 WHERE user_id = $1 AND deleted_at IS NULL
		 ORDER BY created_at DESC, id
		 LIMIT $2 OFFSET $3`,
		userID, page.Limit, page.CalculateOffset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	locations := make([]*entities.Location, 0, page.Limit)
	for rows.Next() {
		location, err := scanLocation(rows)
		if err != nil {
			return nil, 0, err
		}
		locations = append(locations, location)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate locations: %w", err)
	}
	return locations, total, nil
}

func (r *LocationRepository) SoftDelete(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE locations SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, now)
	if err != nil {
		return fmt.Errorf("soft delete location: %w", err)
	}
	return expectOneRow(res, "location", id)
}

func (r *LocationRepository) DistinctCities(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT city FROM locations WHERE deleted_at IS NULL ORDER BY city`)
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	defer rows.Close()

	var cities []string
	for rows.Next() {
		var city string
		if err := rows.Scan(&city); err != nil {
			return nil, fmt.Errorf("scan city: %w", err)
		}
		cities = append(cities, city)
	}
	return cities, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanLocation(s scanner) (*entities.Location, error) {
	var (
		location  entities.Location
		deletedAt sql.NullTime
	)
	if err := s.Scan(&location.ID, &location.City, &location.UserID, &location.CreatedAt, &location.UpdatedAt, &deletedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan location: %w", err)
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		location.DeletedAt = &t
	}
	return &location, nil
}
