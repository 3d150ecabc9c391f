package http

import (
	"net/http"
	"time"

	"github.com/chetanmadiwalar/AgroHub-sub000/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

type RouterConfig struct {
	Carts              CartService
	Checkouts          CheckoutService
	Orders             OrderReader
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	CheckoutLimiter    *BuyerRateLimiter
	ServerMetrics      *metrics.ServerMetrics
	Gatherer           prometheus.Gatherer
}

func NewRouter(cfg RouterConfig) http.Handler {
	cartHandler := NewCartHandler(cfg.Carts, cfg.RequestTimeout)
	checkoutHandler := NewCheckoutHandler(cfg.Checkouts, cfg.RequestTimeout)
	ordersHandler := NewOrdersHandler(cfg.Orders, cfg.RequestTimeout)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(AccessLog)
	if cfg.ServerMetrics != nil {
		r.Use(Metrics(cfg.ServerMetrics))
	}
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(cfg.Gatherer))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(BuyerIdentityMiddleware)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{product_ref}", cartHandler.UpdateQuantity)
			r.Delete("/items/{product_ref}", cartHandler.RemoveItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			if cfg.CheckoutLimiter != nil {
				r.Use(cfg.CheckoutLimiter.Middleware)
			}
			r.Post("/", checkoutHandler.Checkout)
			r.Post("/preview", checkoutHandler.Preview)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordersHandler.ListOrders)
			r.Get("/{order_id}", ordersHandler.GetOrder)
			r.Get("/groups/{group_token}", ordersHandler.GetOrderGroup)
		})
		r.Get("/seller/orders", ordersHandler.ListSellerOrders)
	})

	return r
}
