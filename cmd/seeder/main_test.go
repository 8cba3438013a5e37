package main

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/motormate/internal/models"
)

// fakeAPI records what the seeder posts.
type fakeAPI struct {
	mu        sync.Mutex
	vehicles  int
	odometers []int64
	trips     []models.TripRequest
	services  int
	tokens    []string
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.tokens = append(f.tokens, r.Header.Get("Authorization"))

		switch r.URL.Path {
		case "/api/vehicles":
			f.vehicles++
		case "/api/expenses":
			var req models.ExpenseRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if req.ExpenseType == models.ExpenseFuel && assert.NotNil(t, req.OdometerReading) {
				f.odometers = append(f.odometers, *req.OdometerReading)
			} else if req.ExpenseType == models.ExpenseService {
				f.services++
			}
		case "/api/trips":
			var req models.TripRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			f.trips = append(f.trips, req)
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"65f1c0a2b3c4d5e6f7a8b9c0"}}`))
	})
}

func TestSeedVehicle(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler(t))
	defer srv.Close()

	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	s := &seeder{
		api:    newAPIClient(srv.URL+"/api", "seed-token"),
		rnd:    rand.New(rand.NewSource(7)),
		now:    now,
		months: 3,
	}

	fills, trips, err := s.seedVehicle(templates[0], 0)
	require.NoError(t, err)

	assert.Equal(t, 1, api.vehicles)
	assert.Equal(t, 1, api.services)
	assert.Equal(t, fills, len(api.odometers))
	assert.Equal(t, trips, len(api.trips))
	assert.Greater(t, fills, 3)
	assert.True(t, sort.SliceIsSorted(api.odometers, func(i, j int) bool { return api.odometers[i] < api.odometers[j] }))
	for i := 1; i < len(api.odometers); i++ {
		assert.Greater(t, api.odometers[i], api.odometers[i-1])
	}
	for _, tr := range api.trips {
		assert.False(t, tr.Date.After(now))
		assert.Greater(t, tr.Distance, 0.0)
	}
	for _, tok := range api.tokens {
		assert.Equal(t, "Bearer seed-token", tok)
	}
}

func TestAPIClientPostFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"Invalid token"}`))
	}))
	defer srv.Close()

	_, err := newAPIClient(srv.URL, "bad").post("/vehicles", map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid token")
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 13.33, round2(13.3333))
	assert.Equal(t, 1.6, round2(1.599))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("SEED_MONTHS", "9")
	assert.Equal(t, 9, getEnvInt("SEED_MONTHS", 6))
	t.Setenv("SEED_MONTHS", "-1")
	assert.Equal(t, 6, getEnvInt("SEED_MONTHS", 6))
}
