package httppresentation

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	appauth "github.com/Zhima-Mochi/storefront/internal/application/auth"
	appcart "github.com/Zhima-Mochi/storefront/internal/application/cart"
	appcatalog "github.com/Zhima-Mochi/storefront/internal/application/catalog"
	apporder "github.com/Zhima-Mochi/storefront/internal/application/order"
	"github.com/Zhima-Mochi/storefront/internal/domain/errs"
	"github.com/Zhima-Mochi/storefront/internal/observability"
)

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	headerIdempotencyKey = "Idempotency-Key"
	maxBodyBytes         = 1 << 20
)

// Services are the use cases served over HTTP.
type Services struct {
	Auth        *appauth.Service
	Catalog     *appcatalog.Service
	Cart        *appcart.Service
	CreateOrder *apporder.CreateOrderUseCase
	CancelOrder *apporder.CancelOrderUseCase
	Orders      *apporder.QueryUseCase
	OrderStatus *apporder.UpdateStatusUseCase
}

type Config struct {
	ServiceName    string
	Environment    string
	AllowedOrigin  string
	RequestTimeout time.Duration
	// Metrics is mounted on /metrics when set.
	Metrics http.Handler
	// Health reports store reachability on /api/health when set.
	Health func(ctx context.Context) error
}

type Handler struct {
	svc Services
	cfg Config
	log observability.Logger
	tel observability.Observability
}

func NewHandler(svc Services, cfg Config, tel observability.Observability) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Handler{
		svc: svc,
		cfg: cfg,
		log: tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tel: tel,
	}
}

// Router wires every route behind the middleware chain:
// CORS → trace → request logger → recover → metrics → access log → handler.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(
		h.withCORS,
		h.withTrace,
		h.withRequestLogger,
		h.withRecover,
		h.withHTTPMetrics,
		h.withAccessLog,
	)
	if h.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(h.cfg.RequestTimeout))
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	r.Get("/", h.handleInfo)
	if h.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.cfg.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.handleHealth)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.handleRegister)
			r.Post("/login", h.handleLogin)
			r.Group(func(r chi.Router) {
				r.Use(h.authenticate)
				r.Get("/profile", h.handleProfile)
				r.Put("/profile", h.handleUpdateProfile)
				r.Post("/change-password", h.handleChangePassword)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.handleListProducts)
			r.Get("/{id}", h.handleGetProduct)
			r.Group(func(r chi.Router) {
				r.Use(h.authenticate, h.requireAdmin)
				r.Post("/", h.handleCreateProduct)
				r.Put("/{id}", h.handleUpdateProduct)
				r.Delete("/{id}", h.handleDeleteProduct)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(h.authenticate)
			r.Get("/", h.handleGetCart)
			r.Post("/add", h.handleAddToCart)
			r.Post("/remove", h.handleRemoveFromCart)
			r.Post("/update", h.handleUpdateCart)
			r.Post("/clear", h.handleClearCart)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(h.authenticate)
			r.Post("/", h.handleCreateOrder)
			r.Get("/", h.handleListOrders)
			r.Get("/{id}", h.handleGetOrder)
			r.Post("/{id}/cancel", h.handleCancelOrder)
			r.With(h.requireAdmin).Patch("/{id}/status", h.handleUpdateOrderStatus)
		})
	})
	return r
}

func (h *Handler) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        h.cfg.ServiceName,
		"environment": h.cfg.Environment,
		"endpoints": map[string]string{
			"auth":     "/api/auth",
			"products": "/api/products",
			"cart":     "/api/cart",
			"orders":   "/api/orders",
		},
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Health != nil {
		if err := h.cfg.Health(r.Context()); err != nil {
			h.logger(r).Warn("health_check_failed", observability.Err(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "DOWN"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

type messageResponse struct {
	Message string `json:"message"`
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return errs.Validationf("invalid request body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
