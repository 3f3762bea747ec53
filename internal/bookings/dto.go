package bookings

import "time"

// CreateBookingRequest carries the fields accepted when creating a booking.
// Amounts are in currency minor units.
type CreateBookingRequest struct {
	BookingType   BookingType `json:"booking_type" validate:"required"`
	ProjectID     *int64      `json:"project_id,omitempty" validate:"omitempty,gt=0"`
	QuoteID       *int64      `json:"quote_id,omitempty" validate:"omitempty,gt=0"`
	WorkerID      *int64      `json:"worker_id,omitempty" validate:"omitempty,gt=0"`
	StartDate     time.Time   `json:"start_date" validate:"required"`
	EndDate       time.Time   `json:"end_date" validate:"required"`
	TotalAmount   int64       `json:"total_amount" validate:"required,gt=0"`
	DepositAmount int64       `json:"deposit_amount" validate:"gte=0"`
	Currency      string      `json:"currency" validate:"omitempty,len=3"`

	Description         *string `json:"description,omitempty"`
	SpecialRequirements *string `json:"special_requirements,omitempty"`
	Notes               *string `json:"notes,omitempty"`

	EquipmentBookings []CreateEquipmentBookingReq `json:"equipment_bookings,omitempty" validate:"dive"`
}

// CreateEquipmentBookingReq describes one equipment child created with the
// booking.
type CreateEquipmentBookingReq struct {
	EquipmentID int64     `json:"equipment_id" validate:"required,gt=0"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required"`
	DailyRate   *int64    `json:"daily_rate,omitempty" validate:"omitempty,gte=0"`
	TotalAmount int64     `json:"total_amount" validate:"required,gt=0"`
}

// TransitionRequest asks for a booking status change.
type TransitionRequest struct {
	Status BookingStatus `json:"status" validate:"required"`
}

// RatingRequest records a post-completion rating.
type RatingRequest struct {
	Role   RaterRole `json:"role" validate:"required,oneof=client worker"`
	Rating int       `json:"rating" validate:"required,gte=1,lte=5"`
	Review *string   `json:"review,omitempty"`
}

// ListBookingsRequest filters and paginates booking listings.
type ListBookingsRequest struct {
	ClientID int64
	Status   *BookingStatus
	Page     int
	PerPage  int
}
