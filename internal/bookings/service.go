package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/batiwork/batiwork/internal/shared"
)

// Service owns booking lifecycle logic: creation with equipment children,
// the status state machine and post-completion ratings. Payment aggregates
// on bookings are written exclusively by the payments service.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

// Create registers a booking, optionally from an accepted quote, together
// with its equipment children in one atomic write.
func (s *Service) Create(ctx context.Context, req CreateBookingRequest, clientID int64) (*Booking, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	if !ValidType(req.BookingType) {
		return nil, shared.ValidationErrorf("unknown booking type %q", req.BookingType)
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, shared.ValidationErrorf("end_date must be after start_date")
	}
	if req.BookingType.RequiresEquipment() && len(req.EquipmentBookings) == 0 {
		return nil, shared.ValidationErrorf("booking type %q requires at least one equipment booking", req.BookingType)
	}
	for i, eq := range req.EquipmentBookings {
		if !eq.EndDate.After(eq.StartDate) {
			return nil, shared.ValidationErrorf("equipment booking %d: end_date must be after start_date", i)
		}
	}

	currency, err := shared.NormalizeCurrency(req.Currency)
	if err != nil {
		return nil, err
	}

	ok, err := s.repo.ClientActive(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("verify client: %w", err)
	}
	if !ok {
		return nil, shared.ValidationErrorf("client %d not found or inactive", clientID)
	}

	if req.QuoteID != nil {
		accepted, err := s.repo.QuoteAccepted(ctx, *req.QuoteID)
		if err != nil {
			return nil, fmt.Errorf("verify quote: %w", err)
		}
		if !accepted {
			return nil, shared.ValidationErrorf("quote %d is not accepted", *req.QuoteID)
		}
	}

	booking := Booking{
		BookingType:         req.BookingType,
		ClientID:            clientID,
		ProjectID:           req.ProjectID,
		QuoteID:             req.QuoteID,
		WorkerID:            req.WorkerID,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		Status:              StatusPending,
		PaymentStatus:       PaymentPending,
		TotalAmount:         req.TotalAmount,
		DepositAmount:       req.DepositAmount,
		Currency:            currency,
		Description:         req.Description,
		SpecialRequirements: req.SpecialRequirements,
		Notes:               req.Notes,
	}

	children := make([]EquipmentBooking, 0, len(req.EquipmentBookings))
	for _, eq := range req.EquipmentBookings {
		children = append(children, EquipmentBooking{
			EquipmentID: eq.EquipmentID,
			StartDate:   eq.StartDate,
			EndDate:     eq.EndDate,
			DailyRate:   eq.DailyRate,
			TotalAmount: eq.TotalAmount,
			Status:      StatusPending,
		})
	}

	created, err := s.repo.Create(ctx, booking, children)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	return created, nil
}

// Transition moves a booking along the status state machine. Entering
// in_progress stamps the actual start date; completing stamps the actual
// end date. Cancellation and rejection cascade to equipment children.
func (s *Service) Transition(ctx context.Context, bookingID int64, newStatus BookingStatus, actorID int64) (*Booking, error) {
	if !ValidStatus(newStatus) {
		return nil, shared.ValidationErrorf("unknown booking status %q", newStatus)
	}

	booking, err := s.repo.Get(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking.ClientID != actorID {
		return nil, fmt.Errorf("%w: booking belongs to another client", shared.ErrForbidden)
	}
	if !CanTransition(booking.Status, newStatus) {
		return nil, shared.TransitionErrorf("booking cannot move from %s to %s", booking.Status, newStatus)
	}

	now := time.Now().UTC()
	var actualStart, actualEnd *time.Time
	switch newStatus {
	case StatusInProgress:
		actualStart = &now
	case StatusCompleted:
		actualEnd = &now
	}

	updated, err := s.repo.UpdateStatus(ctx, bookingID, booking.Status, newStatus, actualStart, actualEnd)
	if err != nil {
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	if !updated {
		// The booking moved under us; let the caller re-read and retry.
		return nil, fmt.Errorf("%w: booking status changed concurrently", shared.ErrConcurrency)
	}
	return s.repo.Get(ctx, bookingID)
}

// RecordRating stores a 1-5 rating for one side of a completed booking.
// Each role rates at most once.
func (s *Service) RecordRating(ctx context.Context, bookingID int64, req RatingRequest, actorID int64) (*Booking, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}

	booking, err := s.repo.Get(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if req.Role == RoleClient && booking.ClientID != actorID {
		return nil, fmt.Errorf("%w: booking belongs to another client", shared.ErrForbidden)
	}
	if booking.Status != StatusCompleted {
		return nil, shared.TransitionErrorf("ratings require a completed booking, got %s", booking.Status)
	}

	switch req.Role {
	case RoleClient:
		if booking.ClientRating != nil {
			return nil, fmt.Errorf("%w: client rating already recorded", shared.ErrConflict)
		}
	case RoleWorker:
		if booking.WorkerRating != nil {
			return nil, fmt.Errorf("%w: worker rating already recorded", shared.ErrConflict)
		}
	}

	if err := s.repo.SetRating(ctx, bookingID, req.Role, req.Rating, req.Review); err != nil {
		return nil, fmt.Errorf("set rating: %w", err)
	}
	return s.repo.Get(ctx, bookingID)
}

// Get returns an active booking with its equipment children.
func (s *Service) Get(ctx context.Context, id int64) (*Booking, error) {
	return s.repo.Get(ctx, id)
}

// List returns a client's bookings with pagination metadata.
func (s *Service) List(ctx context.Context, req ListBookingsRequest) ([]Booking, shared.Pagination, error) {
	if req.Status != nil && !ValidStatus(*req.Status) {
		return nil, shared.Pagination{}, shared.ValidationErrorf("unknown booking status %q", *req.Status)
	}
	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(req.Page, req.PerPage, total), nil
}
