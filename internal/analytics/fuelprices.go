package analytics

import (
	"github.com/ukydev/motormate/internal/models"
	"github.com/ukydev/motormate/internal/numeric"
)

// MonthlyFuelPrice is the average price per unit paid in one month.
type MonthlyFuelPrice struct {
	Month        string  `json:"month"`
	AveragePrice float64 `json:"average_price"`
	TotalCost    float64 `json:"total_cost"`
	TotalFuel    float64 `json:"total_fuel"`
	FillUps      int     `json:"fill_ups"`
}

// FuelPrices is the fuel-price history view.
type FuelPrices struct {
	Window       Window             `json:"window"`
	VehicleID    string             `json:"vehicle_id,omitempty"`
	Months       []MonthlyFuelPrice `json:"months"`
	AveragePrice float64            `json:"average_price"`
	MinPrice     float64            `json:"min_price"`
	MaxPrice     float64            `json:"max_price"`
	Trend        Trend              `json:"trend"`
}

type fuelAcc struct {
	cost    float64
	fuel    float64
	fillUps int
}

// SummarizeFuelPrices computes monthly price per unit as the month's total
// amount over its total fuel added. Months with no fuel volume are kept
// with a zero price but left out of min, max and the trend.
func SummarizeFuelPrices(expenses []models.Expense) FuelPrices {
	var overall fuelAcc
	byMonth := make(map[string]*fuelAcc)
	for i := range expenses {
		e := &expenses[i]
		if !e.IsFuel() {
			continue
		}
		a := bucket(byMonth, monthKey(e.Date))
		a.cost += e.Amount
		a.fuel += e.FuelAdded()
		a.fillUps++
		overall.cost += e.Amount
		overall.fuel += e.FuelAdded()
	}

	fp := FuelPrices{
		Months:       make([]MonthlyFuelPrice, 0, len(byMonth)),
		AveragePrice: numeric.Round2(numeric.Ratio(overall.cost, overall.fuel)),
	}
	prices := make([]float64, 0, len(byMonth))
	for _, month := range sortedKeys(byMonth) {
		a := byMonth[month]
		price := numeric.Ratio(a.cost, a.fuel)
		fp.Months = append(fp.Months, MonthlyFuelPrice{
			Month:        month,
			AveragePrice: numeric.Round2(price),
			TotalCost:    numeric.Round2(a.cost),
			TotalFuel:    numeric.Round2(a.fuel),
			FillUps:      a.fillUps,
		})
		if a.fuel > 0 {
			prices = append(prices, price)
		}
	}
	for i, p := range prices {
		if i == 0 || p < fp.MinPrice {
			fp.MinPrice = p
		}
		if i == 0 || p > fp.MaxPrice {
			fp.MaxPrice = p
		}
	}
	fp.MinPrice = numeric.Round2(fp.MinPrice)
	fp.MaxPrice = numeric.Round2(fp.MaxPrice)
	fp.Trend = ClassifyTrend(prices, FuelPriceTrendThreshold)
	return fp
}
