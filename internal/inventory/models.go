// internal/inventory/models.go
package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// Vehicle is one entry of the sales inventory shown on the public listing.
type Vehicle struct {
	ID           string          `json:"id"`
	Make         string          `json:"make"`
	Model        string          `json:"model"`
	Year         int             `json:"year"`
	Mileage      int             `json:"mileage"`
	Price        decimal.Decimal `json:"price"`
	EnergyType   string          `json:"energyType"`
	Gearbox      string          `json:"gearbox"`
	Description  string          `json:"description"`
	ImageURLs    []string        `json:"imageUrls"`
	Sold         bool            `json:"sold"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// RentalVehicle is one entry of the rental fleet with a daily rate.
type RentalVehicle struct {
	ID          string          `json:"id"`
	Make        string          `json:"make"`
	Model       string          `json:"model"`
	Year        int             `json:"year"`
	DailyRate   decimal.Decimal `json:"dailyRate"`
	EnergyType  string          `json:"energyType"`
	Seats       int             `json:"seats"`
	Description string          `json:"description"`
	ImageURLs   []string        `json:"imageUrls"`
	Available   bool            `json:"available"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
