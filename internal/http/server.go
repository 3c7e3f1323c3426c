// Package http exposes the JSON API. Handlers parse and validate the
// request, delegate to the service layer, and translate domain errors
// into status codes.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/andersonmelo18/Financeiro/internal/invoice"
	"github.com/andersonmelo18/Financeiro/internal/services"
)

// Services bundles everything the API serves.
type Services struct {
	Cards       *services.CardService
	Expenses    *services.ExpenseService
	Fixed       *services.FixedExpenseService
	Pendencias  *services.PendenciaService
	Entries     *services.EntryService
	Specs       *services.SpecService
	Payments    *services.PaymentService
	Investments *services.InvestmentService
	Dashboard   *services.DashboardService
	Invoices    *invoice.Service
}

type Server struct {
	http.Server
	svc          Services
	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a
// ready-to-run http.Server.
func NewServer(addr string, svc Services) *Server {
	s := &Server{
		svc:         svc,
		rateLimiter: newRateLimiter(),
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", handleReady).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.withRequestLog, s.withSecurityHeaders, s.withRateLimit)

	api.HandleFunc("/cards", s.handleListCards).Methods(http.MethodGet)
	api.HandleFunc("/cards", s.handleCreateCard).Methods(http.MethodPost)
	api.HandleFunc("/cards/selectable", s.handleListSelectableCards).Methods(http.MethodGet)
	api.HandleFunc("/cards/{id}", s.handleUpdateCard).Methods(http.MethodPut)
	api.HandleFunc("/cards/{id}", s.handleDeleteCard).Methods(http.MethodDelete)
	api.HandleFunc("/cards/{id}/blocked", s.handleSetCardBlocked).Methods(http.MethodPut)

	api.HandleFunc("/months/{month}/summary", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/months/{month}/invoices", s.handleListInvoices).Methods(http.MethodGet)
	api.HandleFunc("/months/{month}/invoices/{card}/pay", s.handlePayInvoice).Methods(http.MethodPost)
	api.HandleFunc("/months/{month}/invoices/{card}/payment", s.handleReversePayment).Methods(http.MethodDelete)

	api.HandleFunc("/months/{month}/expenses", s.handleListExpenses).Methods(http.MethodGet)
	api.HandleFunc("/months/{month}/expenses", s.handleCreateExpense).Methods(http.MethodPost)
	api.HandleFunc("/months/{month}/expenses/{id}", s.handleUpdateExpense).Methods(http.MethodPut)
	api.HandleFunc("/months/{month}/expenses/{id}", s.handleDeleteExpense).Methods(http.MethodDelete)

	api.HandleFunc("/months/{month}/fixed", s.handleListFixed).Methods(http.MethodGet)
	api.HandleFunc("/months/{month}/fixed", s.handleCreateFixed).Methods(http.MethodPost)
	api.HandleFunc("/months/{month}/fixed/{id}", s.handleDeleteFixed).Methods(http.MethodDelete)
	api.HandleFunc("/months/{month}/fixed/{id}/pay", s.handlePayFixed).Methods(http.MethodPost)
	api.HandleFunc("/months/{month}/fixed/{id}/unpay", s.handleUnpayFixed).Methods(http.MethodPost)

	api.HandleFunc("/months/{month}/pendencias", s.handleListPendencias).Methods(http.MethodGet)
	api.HandleFunc("/months/{month}/pendencias", s.handleCreatePendencia).Methods(http.MethodPost)
	api.HandleFunc("/months/{month}/pendencias/{id}", s.handleUpdatePendencia).Methods(http.MethodPut)
	api.HandleFunc("/months/{month}/pendencias/{id}", s.handleDeletePendencia).Methods(http.MethodDelete)
	api.HandleFunc("/months/{month}/pendencias/{id}/pay", s.handlePayPendencia).Methods(http.MethodPost)
	api.HandleFunc("/months/{month}/pendencias/{id}/unpay", s.handleUnpayPendencia).Methods(http.MethodPost)

	api.HandleFunc("/months/{month}/entries", s.handleListEntries).Methods(http.MethodGet)
	api.HandleFunc("/months/{month}/entries", s.handleCreateEntry).Methods(http.MethodPost)
	api.HandleFunc("/months/{month}/entries/{id}", s.handleUpdateEntry).Methods(http.MethodPut)
	api.HandleFunc("/months/{month}/entries/{id}", s.handleDeleteEntry).Methods(http.MethodDelete)

	api.HandleFunc("/purchases", s.handleListPurchases).Methods(http.MethodGet)
	api.HandleFunc("/purchases", s.handleCreatePurchase).Methods(http.MethodPost)
	api.HandleFunc("/purchases/{id}", s.handleDeletePurchase).Methods(http.MethodDelete)
	api.HandleFunc("/purchases/{id}/reverse", s.handleReversePurchase).Methods(http.MethodPost)
	api.HandleFunc("/purchases/{id}/settle", s.handleSettlePurchase).Methods(http.MethodPost)

	api.HandleFunc("/investments", s.handleListInvestments).Methods(http.MethodGet)
	api.HandleFunc("/investments/aportes", s.handleAporte).Methods(http.MethodPost)
	api.HandleFunc("/investments/config", s.handleGetInvestmentConfig).Methods(http.MethodGet)
	api.HandleFunc("/investments/config", s.handleSetInvestmentConfig).Methods(http.MethodPut)
	api.HandleFunc("/investments/{id}/resgates", s.handleResgate).Methods(http.MethodPost)
	api.HandleFunc("/investments/{id}/value", s.handleManualUpdate).Methods(http.MethodPut)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops the server and its background cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// userID resolves the acting user. A missing header falls back to the
// single-user default.
func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return "default"
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		rw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP(r))
	})
}

func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// withRateLimit throttles mutating requests per client IP.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP(r)) {
			slog.WarnContext(r.Context(), "Rate limit exceeded",
				"client_ip", clientIP(r), "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
