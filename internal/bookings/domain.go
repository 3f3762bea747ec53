package bookings

import "time"

// BookingStatus enumerates booking lifecycle states.
type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusInProgress BookingStatus = "in_progress"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
	StatusRejected   BookingStatus = "rejected"
)

// PaymentStatus enumerates the payment summary vocabulary exposed to
// callers. pending/partial/paid are derived from amounts; refunded and
// failed apply to individual payment records.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPartial  PaymentStatus = "partial"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

// BookingType enumerates what a booking reserves.
type BookingType string

const (
	TypeWorker    BookingType = "worker"
	TypeEquipment BookingType = "equipment"
	TypeBoth      BookingType = "both"
)

// RaterRole identifies which side of a booking leaves a rating.
type RaterRole string

const (
	RoleClient RaterRole = "client"
	RoleWorker RaterRole = "worker"
)

// statusTransitions is the complete legal transition set. Anything not
// listed here fails with an invalid-transition error.
var statusTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:    {StatusConfirmed, StatusCancelled, StatusRejected},
	StatusConfirmed:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted},
}

// CanTransition reports whether from → to is a legal booking transition.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s belongs to the booking status vocabulary.
func ValidStatus(s BookingStatus) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// ValidType reports whether t belongs to the booking type vocabulary.
func ValidType(t BookingType) bool {
	switch t {
	case TypeWorker, TypeEquipment, TypeBoth:
		return true
	}
	return false
}

// RequiresEquipment reports whether the booking type needs equipment children.
func (t BookingType) RequiresEquipment() bool {
	return t == TypeEquipment || t == TypeBoth
}

// Terminal reports whether no further status transitions exist from s.
func (s BookingStatus) Terminal() bool {
	return len(statusTransitions[s]) == 0
}

// Booking is the root financial commitment for worker and/or equipment
// services over a date range. Amounts are in currency minor units.
// PaidAmount only grows; PaymentStatus is derived from the amounts by the
// payment recorder, never set directly.
type Booking struct {
	ID          int64       `json:"id"`
	BookingType BookingType `json:"booking_type"`
	ClientID    int64       `json:"client_id"`
	ProjectID   *int64      `json:"project_id,omitempty"`
	QuoteID     *int64      `json:"quote_id,omitempty"`
	WorkerID    *int64      `json:"worker_id,omitempty"`

	StartDate       time.Time  `json:"start_date"`
	EndDate         time.Time  `json:"end_date"`
	ActualStartDate *time.Time `json:"actual_start_date,omitempty"`
	ActualEndDate   *time.Time `json:"actual_end_date,omitempty"`

	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`

	TotalAmount   int64  `json:"total_amount"`
	PaidAmount    int64  `json:"paid_amount"`
	DepositAmount int64  `json:"deposit_amount"`
	Currency      string `json:"currency"`

	Description         *string `json:"description,omitempty"`
	SpecialRequirements *string `json:"special_requirements,omitempty"`
	Notes               *string `json:"notes,omitempty"`

	ClientRating *int    `json:"client_rating,omitempty"`
	ClientReview *string `json:"client_review,omitempty"`
	WorkerRating *int    `json:"worker_rating,omitempty"`
	WorkerReview *string `json:"worker_review,omitempty"`

	EquipmentBookings []EquipmentBooking `json:"equipment_bookings,omitempty"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EquipmentBooking is a per-equipment-item sub-commitment owned by a
// booking. It never outlives its parent.
type EquipmentBooking struct {
	ID          int64 `json:"id"`
	BookingID   int64 `json:"booking_id"`
	EquipmentID int64 `json:"equipment_id"`

	StartDate       time.Time  `json:"start_date"`
	EndDate         time.Time  `json:"end_date"`
	ActualStartDate *time.Time `json:"actual_start_date,omitempty"`
	ActualEndDate   *time.Time `json:"actual_end_date,omitempty"`

	DailyRate   *int64        `json:"daily_rate,omitempty"`
	TotalAmount int64         `json:"total_amount"`
	Status      BookingStatus `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
