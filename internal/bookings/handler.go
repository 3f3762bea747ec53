package bookings

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/batiwork/batiwork/internal/platform/httpx"
	"github.com/batiwork/batiwork/internal/shared"
)

// Handler manages booking endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers booking routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/statuses", h.statuses)
	r.Get("/{id}", h.get)
	r.Post("/{id}/transition", h.transition)
	r.Post("/{id}/rating", h.rating)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}

	actorID := shared.ActorFromContext(r.Context())
	booking, err := h.service.Create(r.Context(), req, actorID)
	if err != nil {
		h.logger.Error("create booking", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, booking)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid booking id")
		return
	}

	var req TransitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}

	actorID := shared.ActorFromContext(r.Context())
	booking, err := h.service.Transition(r.Context(), id, req.Status, actorID)
	if err != nil {
		h.logger.Warn("transition booking",
			slog.Int64("booking_id", id),
			slog.String("status", string(req.Status)),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, booking)
}

func (h *Handler) rating(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid booking id")
		return
	}

	var req RatingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}

	actorID := shared.ActorFromContext(r.Context())
	booking, err := h.service.RecordRating(r.Context(), id, req, actorID)
	if err != nil {
		h.logger.Warn("record rating", slog.Int64("booking_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, booking)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid booking id")
		return
	}

	booking, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, booking)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageFromRequest(r)
	req := ListBookingsRequest{
		ClientID: shared.ActorFromContext(r.Context()),
		Page:     page,
		PerPage:  perPage,
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := BookingStatus(s)
		req.Status = &status
	}

	items, meta, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list bookings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"bookings":   items,
		"pagination": meta,
	})
}

// statuses exposes the booking state machine vocabulary so clients can
// render and validate transitions without hardcoding it.
func (h *Handler) statuses(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{
		"statuses":    []BookingStatus{StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusRejected},
		"transitions": statusTransitions,
	})
}
