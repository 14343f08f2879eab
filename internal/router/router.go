package router

import (
	"net/http"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/metrics"
	"storefront/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	productHandler *handler.ProductHandler,
	orderHandler *handler.OrderHandler,
	authenticator auth.Authenticator,
	throttle config.ThrottleConfig,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})
	mux.Handle("GET /metrics", metrics.Handler())

	products := middleware.Permission(auth.ResourceProduct)
	mux.Handle("GET /products/{$}", products(http.HandlerFunc(productHandler.List)))
	mux.Handle("POST /products/{$}", products(http.HandlerFunc(productHandler.Create)))
	mux.Handle("GET /products/info/{$}", products(http.HandlerFunc(productHandler.Info)))
	mux.Handle("GET /products/{id}/{$}", products(http.HandlerFunc(productHandler.GetByID)))
	mux.Handle("PUT /products/{id}/{$}", products(http.HandlerFunc(productHandler.Update)))
	mux.Handle("PATCH /products/{id}/{$}", products(http.HandlerFunc(productHandler.Update)))
	mux.Handle("DELETE /products/{id}/{$}", products(http.HandlerFunc(productHandler.Delete)))

	orders := middleware.Permission(auth.ResourceOrder)
	mux.Handle("GET /orders/{$}", orders(http.HandlerFunc(orderHandler.List)))
	mux.Handle("POST /orders/{$}", orders(http.HandlerFunc(orderHandler.Create)))
	mux.Handle("GET /orders/user-orders/{$}", orders(http.HandlerFunc(orderHandler.UserOrders)))
	mux.Handle("GET /orders/{id}/{$}", orders(http.HandlerFunc(orderHandler.GetByID)))
	mux.Handle("PUT /orders/{id}/{$}", orders(http.HandlerFunc(orderHandler.Update)))
	mux.Handle("PATCH /orders/{id}/{$}", orders(http.HandlerFunc(orderHandler.Update)))
	mux.Handle("DELETE /orders/{id}/{$}", orders(http.HandlerFunc(orderHandler.Delete)))

	routeOf := func(r *http.Request) string {
		_, pattern := mux.Handler(r)
		return pattern
	}

	// Apply middleware in order: Recovery -> Logging -> Metrics -> CORS -> Authenticate -> Throttle
	var handler http.Handler = mux
	handler = middleware.Throttle(throttle, logger)(handler)
	handler = middleware.Authenticate(authenticator, logger)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.Metrics(routeOf)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
