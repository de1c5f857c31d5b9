package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SignUpRequest - регистрация сотрудника
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	FullName string `json:"full_name" binding:"required,max=200"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token   string  `json:"token"`
	Profile Profile `json:"profile"`
	Roles   []Role  `json:"roles"`
}

type UpdateProfileRequest struct {
	FullName string `json:"full_name" binding:"required,max=200"`
}

// MeResponse describes the caller's session
type MeResponse struct {
	Profile      Profile       `json:"profile"`
	Roles        []Role        `json:"roles"`
	Organization *Organization `json:"organization,omitempty"`
}

type CreateOrganizationRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

type JoinOrganizationRequest struct {
	OrganizationID uuid.UUID `json:"organization_id" binding:"required"`
}

type CreateActivityRequest struct {
	Name        string          `json:"name" binding:"required,max=200"`
	Description *string         `json:"description"`
	Capacity    int             `json:"capacity" binding:"required,min=1"`
	Price       decimal.Decimal `json:"price"`
	PaymentType PaymentType     `json:"payment_type" binding:"required,payment_type"`
}

type UpdateActivityRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string          `json:"description"`
	Capacity    *int             `json:"capacity" binding:"omitempty,min=1"`
	Price       *decimal.Decimal `json:"price"`
	PaymentType *PaymentType     `json:"payment_type" binding:"omitempty,payment_type"`
}

type ListActivitiesRequest struct {
	Query    string `form:"q"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"pageSize" binding:"omitempty,min=1,max=100"`
}

type CreateSlotRequest struct {
	ActivityID         uuid.UUID `json:"activity_id" binding:"required"`
	Date               string    `json:"date" binding:"required,calendar_date"`
	Time               string    `json:"time" binding:"required,clock_time"`
	TotalSeats         int       `json:"total_seats" binding:"required,min=1"`
	DefaultPickupPoint *string   `json:"default_pickup_point"`
}

// CreateRecurringSlotsRequest expands into one slot per generated date
type CreateRecurringSlotsRequest struct {
	ActivityID         uuid.UUID `json:"activity_id" binding:"required"`
	StartDate          string    `json:"start_date" binding:"required,calendar_date"`
	EndDate            string    `json:"end_date" binding:"omitempty,calendar_date"`
	Frequency          string    `json:"frequency" binding:"required,oneof=none weekly monthly quarterly yearly"`
	Weekdays           []int     `json:"weekdays" binding:"omitempty,dive,min=0,max=6"`
	Time               string    `json:"time" binding:"required,clock_time"`
	TotalSeats         int       `json:"total_seats" binding:"required,min=1"`
	DefaultPickupPoint *string   `json:"default_pickup_point"`
}

type UpdateSlotRequest struct {
	Date               *string `json:"date" binding:"omitempty,calendar_date"`
	Time               *string `json:"time" binding:"omitempty,clock_time"`
	TotalSeats         *int    `json:"total_seats" binding:"omitempty,min=1"`
	DefaultPickupPoint *string `json:"default_pickup_point"`
}

// SlotFilter narrows slot listings; From and To are inclusive
type SlotFilter struct {
	ActivityID *uuid.UUID `form:"-"`
	From       string     `form:"from" binding:"omitempty,calendar_date"`
	To         string     `form:"to" binding:"omitempty,calendar_date"`
}

// SlotFailure is one date of a recurring batch that could not be created
type SlotFailure struct {
	Date  string `json:"date"`
	Error string `json:"error"`
}

// BatchSlotResult reports per-date outcomes of a recurring batch
type BatchSlotResult struct {
	Requested []string      `json:"requested"`
	Created   []Slot        `json:"created"`
	Failed    []SlotFailure `json:"failed"`
}

// CalendarDay groups slots sharing a date
type CalendarDay struct {
	Date  string             `json:"date"`
	Slots []SlotWithActivity `json:"slots"`
}

type CreateReservationRequest struct {
	SlotID        uuid.UUID         `json:"slot_id" binding:"required"`
	CustomerName  string            `json:"customer_name" binding:"required,max=200"`
	CustomerEmail string            `json:"customer_email" binding:"required,email"`
	PeopleCount   int               `json:"people_count" binding:"required,min=1"`
	AmountPaid    decimal.Decimal   `json:"amount_paid"`
	PaymentMode   PaymentType       `json:"payment_mode" binding:"omitempty,payment_type"`
	PickupPoint   *string           `json:"pickup_point"`
	Status        ReservationStatus `json:"status" binding:"omitempty,reservation_status"`
}

// UpdateReservationRequest is a partial patch; nil fields are left unchanged
type UpdateReservationRequest struct {
	CustomerName  *string            `json:"customer_name" binding:"omitempty,min=1,max=200"`
	CustomerEmail *string            `json:"customer_email" binding:"omitempty,email"`
	PeopleCount   *int               `json:"people_count" binding:"omitempty,min=1"`
	AmountPaid    *decimal.Decimal   `json:"amount_paid"`
	PaymentMode   *PaymentType       `json:"payment_mode" binding:"omitempty,payment_type"`
	PickupPoint   *string            `json:"pickup_point"`
	Status        *ReservationStatus `json:"status" binding:"omitempty,reservation_status"`
}

// ReservationFilter holds exact-match filters combined with AND
type ReservationFilter struct {
	Date       string            `form:"date" binding:"omitempty,calendar_date"`
	ActivityID *uuid.UUID        `form:"-"`
	Status     ReservationStatus `form:"status" binding:"omitempty,reservation_status"`
}

// ReservationPartition splits reservations around today
type ReservationPartition struct {
	Upcoming []ReservationWithSlot `json:"upcoming"`
	Past     []ReservationWithSlot `json:"past"`
}

// WidgetReservationRequest is the public booking payload
type WidgetReservationRequest struct {
	SlotID        uuid.UUID `json:"slot_id" binding:"required"`
	CustomerName  string    `json:"customer_name" binding:"required,max=200"`
	CustomerEmail string    `json:"customer_email" binding:"required,email"`
	PeopleCount   int       `json:"people_count" binding:"required,min=1"`
	PickupPoint   *string   `json:"pickup_point"`
}

// WidgetReservationResult mirrors the public RPC response
type WidgetReservationResult struct {
	Success       bool       `json:"success"`
	ReservationID *uuid.UUID `json:"reservation_id,omitempty"`
	Error         string     `json:"error,omitempty"`
	Message       string     `json:"message,omitempty"`
}

type WidgetSlotsRequest struct {
	From string `form:"from" binding:"omitempty,calendar_date"`
	To   string `form:"to" binding:"omitempty,calendar_date"`
}

type PendingCountResponse struct {
	Count int `json:"count"`
}
