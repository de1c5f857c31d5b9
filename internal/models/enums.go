package models

import "fmt"

// Role is a staff permission inside an organization
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// PaymentType is how an activity is paid for, also used as a reservation's payment mode
type PaymentType string

const (
	PaymentFull    PaymentType = "full"
	PaymentDeposit PaymentType = "deposit"
	PaymentOnSite  PaymentType = "on_site"
)

func (p PaymentType) Valid() bool {
	switch p {
	case PaymentFull, PaymentDeposit, PaymentOnSite:
		return true
	}
	return false
}

func ParsePaymentType(s string) (PaymentType, error) {
	p := PaymentType(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown payment type %q", s)
	}
	return p, nil
}

// ReservationStatus is the lifecycle state of a reservation
type ReservationStatus string

const (
	StatusConfirmed ReservationStatus = "confirmed"
	StatusPending   ReservationStatus = "pending"
	StatusCancelled ReservationStatus = "cancelled"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusConfirmed, StatusPending, StatusCancelled:
		return true
	}
	return false
}

func ParseReservationStatus(s string) (ReservationStatus, error) {
	st := ReservationStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown reservation status %q", s)
	}
	return st, nil
}
