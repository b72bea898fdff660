// internal/inventory/repository_test.go
package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garage-backoffice/internal/common/database"
	"garage-backoffice/internal/common/errors"
	"garage-backoffice/internal/common/logger"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewRepository(&database.PostgresClient{DB: db}, nil, logger.NewTestLogger(t))
	return repo, mock
}

func TestCreateVehicle_AssignsIDAndTimestamps(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`INSERT INTO vehicles`).
		WithArgs(
			sqlmock.AnyArg(), "PEUGEOT", "308", 2019, 64000, "13990.00",
			"DIESEL", "MANUELLE", "Entretien garage", sqlmock.AnyArg(), false,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	v := &Vehicle{
		Make:        "PEUGEOT",
		Model:       "308",
		Year:        2019,
		Mileage:     64000,
		Price:       decimal.RequireFromString("13990"),
		EnergyType:  "DIESEL",
		Gearbox:     "MANUELLE",
		Description: "Entretien garage",
	}

	id, err := repo.CreateVehicle(context.Background(), v)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, v.ID)
	assert.False(t, v.CreatedAt.IsZero())
	assert.Equal(t, v.CreatedAt, v.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListVehicles_OrdersNewestFirst(t *testing.T) {
	repo, mock := newMockRepository(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "make", "model", "year", "mileage", "price", "energy_type",
		"gearbox", "description", "image_urls", "sold", "created_at", "updated_at",
	}).
		AddRow("v-2", "RENAULT", "CLIO V", 2021, 21000, "15490.00", "ESSENCE",
			"MANUELLE", "", []byte(`["https://bucket/clio.jpg"]`), false, now, now).
		AddRow("v-1", "PEUGEOT", "308", 2019, 64000, "13990.00", "DIESEL",
			"MANUELLE", "", []byte(`[]`), true, now.Add(-time.Hour), now)

	mock.ExpectQuery(`FROM vehicles ORDER BY created_at DESC`).WillReturnRows(rows)

	vehicles, err := repo.ListVehicles(context.Background())
	require.NoError(t, err)
	require.Len(t, vehicles, 2)
	assert.Equal(t, "v-2", vehicles[0].ID)
	assert.Equal(t, "15490.00", vehicles[0].Price.StringFixed(2))
	assert.Equal(t, []string{"https://bucket/clio.jpg"}, vehicles[0].ImageURLs)
	assert.True(t, vehicles[1].Sold)
}

func TestUpdateVehicle_UnknownID(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`UPDATE vehicles`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateVehicle(context.Background(), &Vehicle{
		ID:    "missing",
		Price: decimal.NewFromInt(1000),
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRecordNotFound))
}

func TestDeleteVehicle(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`DELETE FROM vehicles WHERE id = \$1`).
		WithArgs("v-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteVehicle(context.Background(), "v-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRentalVehicle(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`INSERT INTO rental_vehicles`).
		WithArgs(
			sqlmock.AnyArg(), "CITROEN", "C3", 2022, "45.00", "ESSENCE", 5,
			"", sqlmock.AnyArg(), true, sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := repo.CreateRentalVehicle(context.Background(), &RentalVehicle{
		Make:      "CITROEN",
		Model:     "C3",
		Year:      2022,
		DailyRate: decimal.NewFromInt(45),
		EnergyType: "ESSENCE",
		Seats:     5,
		Available: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRentalVehicles(t *testing.T) {
	repo, mock := newMockRepository(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "make", "model", "year", "daily_rate", "energy_type", "seats",
		"description", "image_urls", "available", "created_at", "updated_at",
	}).AddRow("r-1", "CITROEN", "C3", 2022, "45.00", "ESSENCE", 5,
		"", []byte(`[]`), true, now, now)

	mock.ExpectQuery(`FROM rental_vehicles\s+ORDER BY created_at DESC`).WillReturnRows(rows)

	vehicles, err := repo.ListRentalVehicles(context.Background())
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	assert.Equal(t, "45.00", vehicles[0].DailyRate.StringFixed(2))
	assert.True(t, vehicles[0].Available)
}
