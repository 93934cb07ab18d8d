// Package api exposes the storefront over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/otel/trace"

	"storefront/pkg/cart"
	"storefront/pkg/catalog"
	"storefront/pkg/logger"
	"storefront/pkg/order"
	"storefront/pkg/otel"
	"storefront/pkg/session"
)

// Authenticator resolves a session id to the caller's identity.
type Authenticator interface {
	Lookup(ctx context.Context, sid string) (session.Identity, error)
}

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the handlers' dependencies.
type Server struct {
	orders   *order.Service
	carts    *cart.Service
	ledger   catalog.Ledger
	sessions Authenticator
	health   Pinger
	log      *logger.Logger
	tracer   trace.Tracer
}

// Config lists the Server's collaborators. Health and Tracer are optional.
type Config struct {
	Orders   *order.Service
	Carts    *cart.Service
	Ledger   catalog.Ledger
	Sessions Authenticator
	Health   Pinger
	Log      *logger.Logger
	Tracer   trace.Tracer
}

// New returns a Server.
func New(cfg Config) *Server {
	return &Server{
		orders:   cfg.Orders,
		carts:    cfg.Carts,
		ledger:   cfg.Ledger,
		sessions: cfg.Sessions,
		health:   cfg.Health,
		log:      cfg.Log,
		tracer:   cfg.Tracer,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestIDMiddleware, s.traceMiddleware, s.logMiddleware)
	r.HandleFunc("/healthz", s.healthHandler).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/products/{id:[0-9]+}", s.getProductHandler).Methods(http.MethodGet)

	user := api.NewRoute().Subrouter()
	user.Use(s.authMiddleware)
	user.HandleFunc("/order/create", s.createOrderHandler).Methods(http.MethodPost)
	user.HandleFunc("/orders/{id:[0-9]+}", s.getOrderHandler).Methods(http.MethodGet)
	user.HandleFunc("/cart", s.getCartHandler).Methods(http.MethodGet)
	user.HandleFunc("/cart/add", s.addToCartHandler).Methods(http.MethodPost)
	user.HandleFunc("/cart/update", s.updateCartHandler).Methods(http.MethodPut)
	user.HandleFunc("/cart/remove", s.removeFromCartHandler).Methods(http.MethodDelete)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(s.authMiddleware, s.adminMiddleware)
	admin.HandleFunc("/orders", s.listOrdersHandler).Methods(http.MethodGet)
	admin.HandleFunc("/orders/status", s.updateOrderStatusHandler).Methods(http.MethodPut)
	admin.HandleFunc("/orders/payment", s.updatePaymentStatusHandler).Methods(http.MethodPut)
	admin.HandleFunc("/products/stock", s.adjustStockHandler).Methods(http.MethodPut)

	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)
	return r
}

type ctxKey int

const (
	identityKey ctxKey = iota
	requestIDKey
)

// WithIdentity attaches an authenticated identity to ctx.
func WithIdentity(ctx context.Context, id session.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the identity attached by the auth middleware.
func IdentityFrom(ctx context.Context) (session.Identity, bool) {
	id, ok := ctx.Value(identityKey).(session.Identity)
	return id, ok
}

func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.tracer != nil {
			ctx = otel.InjectTracing(ctx, s.tracer)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		reqID, _ := r.Context().Value(requestIDKey).(string)
		s.log.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", reqID,
		)
	})
}

// sessionID accepts "Bearer <id>", a bare Authorization value, or the
// session_id cookie.
func sessionID(r *http.Request) string {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie("session_id"); err == nil {
		return c.Value
	}
	return ""
}

// authMiddleware ensures a valid session exists.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := sessionID(r)
		if sid == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized - No token provided")
			return
		}
		id, err := s.sessions.Lookup(r.Context(), sid)
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) {
				s.log.Error(r.Context(), "session lookup", "error", err)
			}
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// adminMiddleware allows only the admin role through.
func (s *Server) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		if !ok || !id.IsAdmin() {
			writeError(w, http.StatusForbidden, "Forbidden - Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// healthHandler reports whether storage answers.
// @Summary Health check
// @Success 200
// @Failure 503
// @Router /healthz [get]
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			s.log.Warn(ctx, "health check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, response{Success: true})
}
