package payments

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/batiwork/batiwork/internal/platform/httpx"
	"github.com/batiwork/batiwork/internal/shared"
)

// Handler manages payment endpoints. Booking and invoice payment routes
// hang off their parent resources; reconciliation has its own prefix.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountBookingRoutes registers payment routes under a booking.
func (h *Handler) MountBookingRoutes(r chi.Router) {
	r.Get("/{id}/payments", h.listBookingPayments)
	r.Post("/{id}/payments", h.recordBookingPayment)
}

// MountInvoiceRoutes registers payment routes under an invoice.
func (h *Handler) MountInvoiceRoutes(r chi.Router) {
	r.Get("/{id}/payments", h.listInvoicePayments)
	r.Post("/{id}/payments", h.recordInvoicePayment)
}

// MountRoutes registers the standalone payment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/{id}/reconcile", h.reconcile)
}

func (h *Handler) recordBookingPayment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid booking id")
		return
	}

	var req RecordBookingPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}

	actorID := shared.ActorFromContext(r.Context())
	payment, err := h.service.RecordBookingPayment(r.Context(), id, req, actorID)
	if err != nil {
		h.logger.Warn("record booking payment", slog.Int64("booking_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}

func (h *Handler) recordInvoicePayment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid invoice id")
		return
	}

	var req RecordInvoicePaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}

	actorID := shared.ActorFromContext(r.Context())
	payment, err := h.service.RecordInvoicePayment(r.Context(), id, req, actorID)
	if err != nil {
		h.logger.Warn("record invoice payment", slog.Int64("invoice_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid payment id")
		return
	}

	actorID := shared.ActorFromContext(r.Context())
	payment, err := h.service.Reconcile(r.Context(), id, actorID)
	if err != nil {
		h.logger.Warn("reconcile payment", slog.Int64("payment_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payment)
}

func (h *Handler) listBookingPayments(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid booking id")
		return
	}

	page, perPage := shared.PageFromRequest(r)
	items, meta, err := h.service.ListBookingPayments(r.Context(), ListPaymentsRequest{
		ParentID: id, Page: page, PerPage: perPage,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"payments":   items,
		"pagination": meta,
	})
}

func (h *Handler) listInvoicePayments(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid invoice id")
		return
	}

	page, perPage := shared.PageFromRequest(r)
	items, meta, err := h.service.ListInvoicePayments(r.Context(), ListPaymentsRequest{
		ParentID: id, Page: page, PerPage: perPage,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"payments":   items,
		"pagination": meta,
	})
}
