// internal/lookup/models.go
package lookup

import (
	"github.com/shopspring/decimal"
)

// VehicleInfo is the oracle's snapshot of a vehicle. It is copied into the
// registration at creation time and never re-fetched.
type VehicleInfo struct {
	Make              string `json:"make"`
	Model             string `json:"model"`
	Plate             string `json:"plate"`
	FirstRegistration string `json:"firstRegistration"`
	FiscalPower       int    `json:"fiscalPower"`
	CO2Emissions      int    `json:"co2Emissions"`
	EnergyType        string `json:"energyType"`
	BodyType          string `json:"bodyType"`
	IsCollection      bool   `json:"isCollection"`
	ImageURL          string `json:"imageUrl,omitempty"`
}

// Breakdown is the tiered yearly tax price returned by the oracle. The oracle
// total is authoritative for this regulated calculation; we only verify it.
type Breakdown struct {
	Y1    decimal.Decimal `json:"y1"`
	Y1Bis decimal.Decimal `json:"y1Bis"`
	Y2    decimal.Decimal `json:"y2"`
	Y3    decimal.Decimal `json:"y3"`
	Y4    decimal.Decimal `json:"y4"`
	Y5    decimal.Decimal `json:"y5"`
	Total decimal.Decimal `json:"total"`
}

// Sum adds the individual components.
func (b Breakdown) Sum() decimal.Decimal {
	return b.Y1.Add(b.Y1Bis).Add(b.Y2).Add(b.Y3).Add(b.Y4).Add(b.Y5)
}

// CheckTotal verifies the oracle's total against the component sum within a
// one-cent tolerance. A mismatch is reported, never corrected.
func (b Breakdown) CheckTotal() bool {
	tolerance := decimal.NewFromFloat(0.01)
	return b.Total.Sub(b.Sum()).Abs().LessThanOrEqual(tolerance)
}

// Result is a successful oracle response.
type Result struct {
	Vehicle VehicleInfo `json:"vehicle"`
	Price   Breakdown   `json:"price"`
}
