// Command seeder fills a MotorMate account with demo data through the API.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/motormate/internal/models"
)

// vehicleTemplate is a demo vehicle and how it is driven.
type vehicleTemplate struct {
	Make       string
	Model      string
	FuelType   models.FuelType
	TankSize   float64 // liters per fill-up, before noise
	Efficiency float64 // km per liter, before noise
	DailyKm    float64
}

var templates = []vehicleTemplate{
	{Make: "Honda", Model: "City", FuelType: models.FuelPetrol, TankSize: 35, Efficiency: 15, DailyKm: 40},
	{Make: "Toyota", Model: "Innova", FuelType: models.FuelDiesel, TankSize: 50, Efficiency: 11, DailyKm: 60},
	{Make: "Maruti", Model: "Swift", FuelType: models.FuelPetrol, TankSize: 30, Efficiency: 19, DailyKm: 25},
	{Make: "Hyundai", Model: "Creta", FuelType: models.FuelDiesel, TankSize: 45, Efficiency: 14, DailyKm: 35},
}

var places = []string{"Home", "Office", "Airport", "Mall", "Station", "Gym", "School", "Warehouse"}

var purposes = []models.TripPurpose{
	models.PurposeCommute, models.PurposeBusiness, models.PurposePersonal,
	models.PurposeLeisure, models.PurposeDelivery,
}

// apiClient posts JSON to the MotorMate API with a bearer token.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL, token string) *apiClient {
	return &apiClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// post sends body and returns the id of the created record.
func (c *apiClient) post(path string, body interface{}) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	var result struct {
		Message string `json:"message"`
		Data    struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("POST %s failed with status %d: %s", path, resp.StatusCode, result.Message)
	}
	if result.Data.ID == "" {
		return "", fmt.Errorf("POST %s: no id in response", path)
	}
	return result.Data.ID, nil
}

// seeder generates a plausible history ending at now.
type seeder struct {
	api    *apiClient
	rnd    *rand.Rand
	now    time.Time
	months int
}

// seedVehicle creates the vehicle, its fill-ups and its trips. Fill-ups
// are posted in odometer order so every one links to its predecessor.
func (s *seeder) seedVehicle(tpl vehicleTemplate, index int) (fills, trips int, err error) {
	start := s.now.AddDate(0, -s.months, 0)
	odometer := int64(5000 + s.rnd.Intn(20000))

	vehicleID, err := s.api.post("/vehicles", models.VehicleRequest{
		Name:               fmt.Sprintf("%s %s", tpl.Make, tpl.Model),
		Make:               tpl.Make,
		Model:              tpl.Model,
		Year:               2016 + s.rnd.Intn(8),
		RegistrationNumber: fmt.Sprintf("MM%02d%04d", index+1, s.rnd.Intn(10000)),
		FuelType:           tpl.FuelType,
		Odometer:           odometer,
		PurchaseCost:       float64(8000 + s.rnd.Intn(20000)),
	})
	if err != nil {
		return 0, 0, fmt.Errorf("create vehicle: %w", err)
	}
	logger := log.WithFields(log.Fields{"vehicle_id": vehicleID, "make": tpl.Make, "model": tpl.Model})
	logger.Info("Created vehicle")

	price := 1.4 + s.rnd.Float64()*0.3
	for day := start; day.Before(s.now); {
		liters := tpl.TankSize * (0.7 + s.rnd.Float64()*0.3)
		distance := liters * tpl.Efficiency * (0.9 + s.rnd.Float64()*0.2)
		odometer += int64(distance)
		price += (s.rnd.Float64() - 0.45) * 0.04
		amount := round2(liters * price)

		if _, err := s.api.post("/expenses", models.ExpenseRequest{
			VehicleID:       vehicleID,
			ExpenseType:     models.ExpenseFuel,
			Amount:          amount,
			Date:            day,
			OdometerReading: &odometer,
			FuelAdded:       round2(liters),
			PricePerUnit:    round2(price),
			TotalFuel:       round2(liters),
			TotalCost:       amount,
			FullTank:        true,
		}); err != nil {
			return fills, trips, fmt.Errorf("create fill-up: %w", err)
		}
		fills++

		// The trips driven on this tank.
		for _, tripDay := range s.tripDays(day, distance, tpl.DailyKm) {
			if tripDay.After(s.now) {
				break
			}
			km := round2(tpl.DailyKm * (0.5 + s.rnd.Float64()))
			if _, err := s.api.post("/trips", models.TripRequest{
				VehicleID:     vehicleID,
				StartLocation: places[s.rnd.Intn(len(places))],
				EndLocation:   places[s.rnd.Intn(len(places))],
				Distance:      km,
				TotalCost:     round2(km / tpl.Efficiency * price),
				Purpose:       purposes[s.rnd.Intn(len(purposes))],
				Date:          tripDay,
			}); err != nil {
				return fills, trips, fmt.Errorf("create trip: %w", err)
			}
			trips++
		}

		days := int(distance/tpl.DailyKm) + 1
		day = day.AddDate(0, 0, days)
	}

	if _, err := s.api.post("/expenses", models.ExpenseRequest{
		VehicleID:          vehicleID,
		ExpenseType:        models.ExpenseService,
		Amount:             float64(80 + s.rnd.Intn(150)),
		Date:               s.now.Add(-24 * time.Hour),
		OdometerReading:    &odometer,
		ServiceType:        "oil_change",
		ServiceDescription: "Oil and filter change",
	}); err != nil {
		return fills, trips, fmt.Errorf("create service: %w", err)
	}

	logger.WithFields(log.Fields{"fill_ups": fills, "trips": trips}).Info("Seeded vehicle history")
	return fills, trips, nil
}

// tripDays picks up to three trip dates inside one tank's span.
func (s *seeder) tripDays(from time.Time, tankKm, dailyKm float64) []time.Time {
	span := int(tankKm/dailyKm) + 1
	n := 1 + s.rnd.Intn(3)
	out := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, from.AddDate(0, 0, (i*span)/n).Add(time.Duration(7+s.rnd.Intn(12))*time.Hour))
	}
	return out
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func main() {
	token := os.Getenv("SEED_AUTH_TOKEN")
	if token == "" {
		log.Fatal("SEED_AUTH_TOKEN is required: sign in through /api/auth/google and copy the token")
	}
	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}
	vehicles := getEnvInt("SEED_VEHICLES", 3)
	if vehicles > len(templates) {
		vehicles = len(templates)
	}

	s := &seeder{
		api:    newAPIClient(apiURL, token),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now().Truncate(time.Hour),
		months: getEnvInt("SEED_MONTHS", 6),
	}

	log.WithFields(log.Fields{
		"api_url":  apiURL,
		"vehicles": vehicles,
		"months":   s.months,
	}).Info("Seeding demo data")

	var totalFills, totalTrips int
	for i := 0; i < vehicles; i++ {
		fills, trips, err := s.seedVehicle(templates[i], i)
		totalFills += fills
		totalTrips += trips
		if err != nil {
			log.WithError(err).Error("Seeding stopped")
			os.Exit(1)
		}
	}
	log.WithFields(log.Fields{"fill_ups": totalFills, "trips": totalTrips}).Info("Seeding completed")
}
