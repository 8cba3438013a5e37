package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ukydev/motormate/internal/middleware"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth      *AuthHandler
	Vehicles  *VehicleHandler
	Expenses  *ExpenseHandler
	Trips     *TripHandler
	Analytics *AnalyticsHandler
	Posts     *PostHandler
	Health    HealthCheck
}

// NewRouter mounts every route and wraps the mux with the request chain:
// logging, panic recovery, rate limiting, then authentication.
func NewRouter(h Handlers, authMW *middleware.AuthMiddleware, limiter *middleware.RateLimitMiddleware) http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, middleware.Route(fn))
	}

	handle("GET /health", healthHandler(h.Health))
	mux.Handle("GET /metrics", middleware.Route(promhttp.Handler()))

	handle("GET /api/auth/google", h.Auth.GoogleLogin)
	handle("GET /api/auth/google/callback", h.Auth.GoogleCallback)
	handle("GET /api/auth/profile", h.Auth.GetProfile)
	handle("PUT /api/auth/profile", h.Auth.UpdateProfile)

	handle("POST /api/vehicles", h.Vehicles.Create)
	handle("GET /api/vehicles", h.Vehicles.List)
	handle("GET /api/vehicles/{id}", h.Vehicles.Get)
	handle("PUT /api/vehicles/{id}", h.Vehicles.Update)
	handle("DELETE /api/vehicles/{id}", h.Vehicles.Delete)
	handle("GET /api/vehicles/{id}/stats", h.Vehicles.Stats)

	handle("POST /api/expenses", h.Expenses.Create)
	handle("GET /api/expenses", h.Expenses.List)
	handle("GET /api/expenses/{id}", h.Expenses.Get)
	handle("PUT /api/expenses/{id}", h.Expenses.Update)
	handle("DELETE /api/expenses/{id}", h.Expenses.Delete)
	handle("GET /api/expenses/stats/{vehicleId}", h.Expenses.Stats)
	handle("GET /api/expenses/fuel/{vehicleId}", h.Expenses.Fuel)
	handle("POST /api/expenses/calculate-mileage/{vehicleId}", h.Expenses.CalculateMileage)
	handle("GET /api/expenses/mileage-stats/{vehicleId}", h.Expenses.MileageStats)

	handle("POST /api/trips", h.Trips.Create)
	handle("GET /api/trips", h.Trips.List)
	handle("GET /api/trips/stats", h.Trips.Stats)
	handle("GET /api/trips/{id}", h.Trips.Get)
	handle("PUT /api/trips/{id}", h.Trips.Update)
	handle("DELETE /api/trips/{id}", h.Trips.Delete)

	handle("GET /api/analytics/total", h.Analytics.Total)
	handle("GET /api/analytics/vehicle/{vehicleId}", h.Analytics.Vehicle)
	handle("GET /api/analytics/comparative", h.Analytics.Comparative)
	handle("GET /api/analytics/fuel-prices", h.Analytics.FuelPrices)

	handle("POST /api/posts", h.Posts.Create)
	handle("GET /api/posts", h.Posts.List)
	handle("DELETE /api/posts/{id}", h.Posts.Delete)
	handle("POST /api/posts/{id}/like", h.Posts.Like)
	handle("POST /api/posts/{id}/dislike", h.Posts.Dislike)
	handle("POST /api/posts/{id}/report", h.Posts.Report)

	return middleware.Chain(mux,
		middleware.RequestLogger,
		middleware.Recover,
		limiter.RateLimit,
		authMW.Authenticate,
	)
}

func healthHandler(check HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				status["status"] = "degraded"
				status["database"] = err.Error()
				writeJSON(w, http.StatusServiceUnavailable, Envelope{Success: false, Data: status})
				return
			}
		}
		writeJSON(w, http.StatusOK, Envelope{Success: true, Data: status})
	}
}
