package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Organization is the tenant boundary
type Organization struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Profile represents a staff user
type Profile struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Email          string     `json:"email" db:"email"`
	FullName       string     `json:"full_name" db:"full_name"`
	PasswordHash   string     `json:"-" db:"password_hash"`
	OrganizationID *uuid.UUID `json:"organization_id" db:"organization_id"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// Member is a profile together with its roles, as shown on the team page
type Member struct {
	Profile
	Roles []Role `json:"roles"`
}

// Activity represents a bookable tour
type Activity struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	OrganizationID uuid.UUID       `json:"organization_id" db:"organization_id"`
	Name           string          `json:"name" db:"name"`
	Description    *string         `json:"description" db:"description"`
	Capacity       int             `json:"capacity" db:"capacity"`
	Price          decimal.Decimal `json:"price" db:"price"`
	PaymentType    PaymentType     `json:"payment_type" db:"payment_type"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// Slot is one scheduled departure of an activity. Date and Time are plain
// calendar values ("YYYY-MM-DD", "HH:MM") and are never converted to instants.
type Slot struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	OrganizationID     uuid.UUID `json:"organization_id" db:"organization_id"`
	ActivityID         uuid.UUID `json:"activity_id" db:"activity_id"`
	Date               string    `json:"date" db:"date"`
	Time               string    `json:"time" db:"time"`
	TotalSeats         int       `json:"total_seats" db:"total_seats"`
	ReservedSeats      int       `json:"reserved_seats" db:"reserved_seats"`
	DefaultPickupPoint *string   `json:"default_pickup_point" db:"default_pickup_point"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

// Reservation is a customer's booking against one slot
type Reservation struct {
	ID             uuid.UUID         `json:"id" db:"id"`
	OrganizationID uuid.UUID         `json:"organization_id" db:"organization_id"`
	SlotID         uuid.UUID         `json:"slot_id" db:"slot_id"`
	CustomerName   string            `json:"customer_name" db:"customer_name"`
	CustomerEmail  string            `json:"customer_email" db:"customer_email"`
	PeopleCount    int               `json:"people_count" db:"people_count"`
	AmountPaid     decimal.Decimal   `json:"amount_paid" db:"amount_paid"`
	PaymentMode    PaymentType       `json:"payment_mode" db:"payment_mode"`
	PickupPoint    *string           `json:"pickup_point" db:"pickup_point"`
	Status         ReservationStatus `json:"status" db:"status"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
}

// HoldsSeats reports whether the reservation counts against slot capacity
func (r *Reservation) HoldsSeats() bool {
	return r.Status != StatusCancelled
}

// SlotWithActivity is a slot joined with its activity
type SlotWithActivity struct {
	Slot
	Activity *Activity `json:"activity,omitempty"`
}

// ReservationWithSlot is a reservation joined with its slot and activity
type ReservationWithSlot struct {
	Reservation
	Slot *SlotWithActivity `json:"slot,omitempty"`
}

// DashboardStats summarizes one organization's activity
type DashboardStats struct {
	ActivitiesCount       int             `json:"activities_count"`
	UpcomingSlotsCount    int             `json:"upcoming_slots_count"`
	TodayReservations     int             `json:"today_reservations"`
	PendingReservations   int             `json:"pending_reservations"`
	ConfirmedRevenue      decimal.Decimal `json:"confirmed_revenue"`
	SeatsReservedUpcoming int             `json:"seats_reserved_upcoming"`
}

// SeatDrift is a slot whose stored reserved_seats disagrees with its reservations
type SeatDrift struct {
	SlotID         uuid.UUID `json:"slot_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	TotalSeats     int       `json:"total_seats"`
	Stored         int       `json:"stored"`
	Actual         int       `json:"actual"`
}

// Principal is the cached identity behind a session
type Principal struct {
	UserID         uuid.UUID  `json:"user_id"`
	Email          string     `json:"email"`
	OrganizationID *uuid.UUID `json:"organization_id"`
	Roles          []Role     `json:"roles"`
}
