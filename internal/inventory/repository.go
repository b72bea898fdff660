// internal/inventory/repository.go
package inventory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"garage-backoffice/internal/common/database"
	"garage-backoffice/internal/common/errors"
	"garage-backoffice/internal/common/logger"
)

// Repository persists the sales inventory and the rental fleet. Writes are
// mirrored into the search index when one is attached.
type Repository struct {
	db     *database.PostgresClient
	search *SearchIndex
	logger logger.Logger
}

func NewRepository(db *database.PostgresClient, search *SearchIndex, log logger.Logger) *Repository {
	return &Repository{db: db, search: search, logger: log}
}

// ==========================
// Vehicles
// ==========================

func (r *Repository) CreateVehicle(ctx context.Context, v *Vehicle) (string, error) {
	v.ID = uuid.New().String()
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	imagesJSON, err := json.Marshal(orEmpty(v.ImageURLs))
	if err != nil {
		return "", errors.NewStorageError("create_vehicle", err)
	}

	query := `
		INSERT INTO vehicles (
			id, make, model, year, mileage, price, energy_type, gearbox,
			description, image_urls, sold, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)`

	_, err = r.db.Exec(ctx, query,
		v.ID, v.Make, v.Model, v.Year, v.Mileage, v.Price.StringFixed(2),
		v.EnergyType, v.Gearbox, v.Description, imagesJSON, v.Sold, now,
	)
	if err != nil {
		return "", errors.NewStorageError("create_vehicle", err)
	}

	r.mirrorVehicle(ctx, v)
	return v.ID, nil
}

func (r *Repository) UpdateVehicle(ctx context.Context, v *Vehicle) error {
	v.UpdatedAt = time.Now().UTC()

	imagesJSON, err := json.Marshal(orEmpty(v.ImageURLs))
	if err != nil {
		return errors.NewStorageError("update_vehicle", err)
	}

	query := `
		UPDATE vehicles
		SET make = $2, model = $3, year = $4, mileage = $5, price = $6,
		    energy_type = $7, gearbox = $8, description = $9, image_urls = $10,
		    sold = $11, updated_at = $12
		WHERE id = $1`

	result, err := r.db.Exec(ctx, query,
		v.ID, v.Make, v.Model, v.Year, v.Mileage, v.Price.StringFixed(2),
		v.EnergyType, v.Gearbox, v.Description, imagesJSON, v.Sold, v.UpdatedAt,
	)
	if err != nil {
		return errors.NewStorageError("update_vehicle", err)
	}
	if err := requireAffected(result, "vehicles", v.ID); err != nil {
		return err
	}

	r.mirrorVehicle(ctx, v)
	return nil
}

func (r *Repository) DeleteVehicle(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return errors.NewStorageError("delete_vehicle", err)
	}
	if err := requireAffected(result, "vehicles", id); err != nil {
		return err
	}

	if r.search != nil {
		if err := r.search.RemoveVehicle(ctx, id); err != nil {
			r.logger.Warn("Failed to remove vehicle from search index", map[string]interface{}{
				"vehicle_id": id,
				"error":      err.Error(),
			})
		}
	}
	return nil
}

func (r *Repository) GetVehicle(ctx context.Context, id string) (*Vehicle, error) {
	row := r.db.QueryRow(ctx, vehicleColumns+` FROM vehicles WHERE id = $1`, id)
	v, err := scanVehicle(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewRecordNotFoundError("vehicles", id)
	}
	if err != nil {
		return nil, errors.NewStorageError("get_vehicle", err)
	}
	return v, nil
}

func (r *Repository) ListVehicles(ctx context.Context) ([]Vehicle, error) {
	rows, err := r.db.Query(ctx, vehicleColumns+` FROM vehicles ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.NewStorageError("list_vehicles", err)
	}
	defer rows.Close()

	var vehicles []Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, errors.NewStorageError("list_vehicles", err)
		}
		vehicles = append(vehicles, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("list_vehicles", err)
	}
	return vehicles, nil
}

func (r *Repository) mirrorVehicle(ctx context.Context, v *Vehicle) {
	if r.search == nil {
		return
	}
	if err := r.search.IndexVehicle(ctx, v); err != nil {
		r.logger.Warn("Failed to index vehicle for search", map[string]interface{}{
			"vehicle_id": v.ID,
			"error":      err.Error(),
		})
	}
}

// ==========================
// Rental vehicles
// ==========================

func (r *Repository) CreateRentalVehicle(ctx context.Context, v *RentalVehicle) (string, error) {
	v.ID = uuid.New().String()
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	imagesJSON, err := json.Marshal(orEmpty(v.ImageURLs))
	if err != nil {
		return "", errors.NewStorageError("create_rental_vehicle", err)
	}

	query := `
		INSERT INTO rental_vehicles (
			id, make, model, year, daily_rate, energy_type, seats,
			description, image_urls, available, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`

	_, err = r.db.Exec(ctx, query,
		v.ID, v.Make, v.Model, v.Year, v.DailyRate.StringFixed(2),
		v.EnergyType, v.Seats, v.Description, imagesJSON, v.Available, now,
	)
	if err != nil {
		return "", errors.NewStorageError("create_rental_vehicle", err)
	}
	return v.ID, nil
}

func (r *Repository) UpdateRentalVehicle(ctx context.Context, v *RentalVehicle) error {
	v.UpdatedAt = time.Now().UTC()

	imagesJSON, err := json.Marshal(orEmpty(v.ImageURLs))
	if err != nil {
		return errors.NewStorageError("update_rental_vehicle", err)
	}

	query := `
		UPDATE rental_vehicles
		SET make = $2, model = $3, year = $4, daily_rate = $5, energy_type = $6,
		    seats = $7, description = $8, image_urls = $9, available = $10,
		    updated_at = $11
		WHERE id = $1`

	result, err := r.db.Exec(ctx, query,
		v.ID, v.Make, v.Model, v.Year, v.DailyRate.StringFixed(2),
		v.EnergyType, v.Seats, v.Description, imagesJSON, v.Available, v.UpdatedAt,
	)
	if err != nil {
		return errors.NewStorageError("update_rental_vehicle", err)
	}
	return requireAffected(result, "rental_vehicles", v.ID)
}

func (r *Repository) DeleteRentalVehicle(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM rental_vehicles WHERE id = $1`, id)
	if err != nil {
		return errors.NewStorageError("delete_rental_vehicle", err)
	}
	return requireAffected(result, "rental_vehicles", id)
}

func (r *Repository) ListRentalVehicles(ctx context.Context) ([]RentalVehicle, error) {
	query := `
		SELECT id, make, model, year, daily_rate, energy_type, seats,
		       description, image_urls, available, created_at, updated_at
		FROM rental_vehicles
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, errors.NewStorageError("list_rental_vehicles", err)
	}
	defer rows.Close()

	var vehicles []RentalVehicle
	for rows.Next() {
		var (
			v          RentalVehicle
			rate       string
			imagesJSON []byte
		)
		err := rows.Scan(&v.ID, &v.Make, &v.Model, &v.Year, &rate, &v.EnergyType,
			&v.Seats, &v.Description, &imagesJSON, &v.Available, &v.CreatedAt, &v.UpdatedAt)
		if err != nil {
			return nil, errors.NewStorageError("list_rental_vehicles", err)
		}
		if v.DailyRate, err = decimal.NewFromString(rate); err != nil {
			return nil, errors.NewStorageError("list_rental_vehicles", err)
		}
		if err := json.Unmarshal(imagesJSON, &v.ImageURLs); err != nil {
			return nil, errors.NewStorageError("list_rental_vehicles", err)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("list_rental_vehicles", err)
	}
	return vehicles, nil
}

// ==========================
// Scanning helpers
// ==========================

const vehicleColumns = `
	SELECT id, make, model, year, mileage, price, energy_type, gearbox,
	       description, image_urls, sold, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVehicle(row rowScanner) (*Vehicle, error) {
	var (
		v          Vehicle
		price      string
		imagesJSON []byte
	)
	err := row.Scan(&v.ID, &v.Make, &v.Model, &v.Year, &v.Mileage, &price,
		&v.EnergyType, &v.Gearbox, &v.Description, &imagesJSON, &v.Sold,
		&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if v.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("invalid price %q: %w", price, err)
	}
	if err := json.Unmarshal(imagesJSON, &v.ImageURLs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal image urls: %w", err)
	}
	return &v, nil
}

func requireAffected(result sql.Result, collection, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.NewStorageError(collection, err)
	}
	if affected == 0 {
		return errors.NewRecordNotFoundError(collection, id)
	}
	return nil
}

func orEmpty(urls []string) []string {
	if urls == nil {
		return []string{}
	}
	return urls
}
