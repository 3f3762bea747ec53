package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/batiwork/batiwork/internal/bookings"
	"github.com/batiwork/batiwork/internal/invoices"
	"github.com/batiwork/batiwork/internal/payments"
	"github.com/batiwork/batiwork/internal/projects"
	"github.com/batiwork/batiwork/internal/quotes"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	Pool            *pgxpool.Pool
	QuotesHandler   *quotes.Handler
	BookingsHandler *bookings.Handler
	InvoicesHandler *invoices.Handler
	PaymentsHandler *payments.Handler
	ProjectsHandler *projects.Handler
}

// NewRouter constructs the chi.Router with batiwork defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := params.Pool.Ping(ctx); err != nil {
			params.Logger.Error("healthz db ping", slog.Any("error", err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"degraded"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	paymentLimit := PaymentRateLimit(params.Config.PaymentRateLimit)

	r.Route("/projects", params.ProjectsHandler.MountRoutes)
	r.Route("/quotes", params.QuotesHandler.MountRoutes)
	r.Route("/bookings", func(br chi.Router) {
		params.BookingsHandler.MountRoutes(br)
		br.Group(func(pr chi.Router) {
			pr.Use(paymentLimit)
			params.PaymentsHandler.MountBookingRoutes(pr)
		})
	})
	r.Route("/invoices", func(ir chi.Router) {
		params.InvoicesHandler.MountRoutes(ir)
		ir.Group(func(pr chi.Router) {
			pr.Use(paymentLimit)
			params.PaymentsHandler.MountInvoiceRoutes(pr)
		})
	})
	r.Route("/payments", func(pr chi.Router) {
		pr.Use(paymentLimit)
		params.PaymentsHandler.MountRoutes(pr)
	})

	return r
}
