// Package widget drives the public booking widget: pick a date, pick a slot,
// fill in the form, submit. The flow never touches seat counts; it only calls
// the server-side booking entry point.
package widget

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tourdesk/internal/availability"
	"tourdesk/internal/models"

	"github.com/google/uuid"
)

type State int

const (
	SelectingDate State = iota
	SelectingSlot
	FillingForm
	Submitting
	Success
)

func (s State) String() string {
	switch s {
	case SelectingDate:
		return "selecting_date"
	case SelectingSlot:
		return "selecting_slot"
	case FillingForm:
		return "filling_form"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	ErrInvalidTransition = errors.New("action not allowed in current state")
	ErrNoSlotsOnDate     = errors.New("no available slot on this date")
	ErrUnknownSlot       = errors.New("slot is not available on the selected date")
)

// Booker is the server-side reservation entry point
type Booker interface {
	CreateReservation(ctx context.Context, req *models.WidgetReservationRequest) (*models.WidgetReservationResult, error)
}

// Form holds what the customer typed; it survives failed submissions
type Form struct {
	CustomerName  string
	CustomerEmail string
	PeopleCount   int
	PickupPoint   string
}

type Flow struct {
	booker Booker
	slots  []models.Slot

	state         State
	date          string
	slot          *models.Slot
	form          Form
	err           string
	reservationID *uuid.UUID
}

// New starts a flow over the bookable slots of one activity
func New(booker Booker, slots []models.Slot) *Flow {
	f := &Flow{booker: booker, state: SelectingDate, form: Form{PeopleCount: 1}}
	f.SetSlots(slots)
	return f
}

func (f *Flow) State() State { return f.state }
func (f *Flow) Date() string { return f.date }
func (f *Flow) Slot() *models.Slot { return f.slot }
func (f *Flow) Form() Form { return f.form }
func (f *Flow) Err() string { return f.err }
func (f *Flow) ReservationID() *uuid.UUID { return f.reservationID }

// SetSlots replaces the known slots, keeping only those with a free seat
func (f *Flow) SetSlots(slots []models.Slot) {
	f.slots = make([]models.Slot, 0, len(slots))
	for i := range slots {
		if availability.Bookable(&slots[i]) {
			f.slots = append(f.slots, slots[i])
		}
	}
}

// AvailableDates lists the dates that have at least one bookable slot, in order
func (f *Flow) AvailableDates() []string {
	seen := map[string]bool{}
	dates := []string{}
	for _, s := range f.slots {
		if !seen[s.Date] {
			seen[s.Date] = true
			dates = append(dates, s.Date)
		}
	}
	return dates
}

// SlotsOn returns the bookable slots on date
func (f *Flow) SlotsOn(date string) []models.Slot {
	out := []models.Slot{}
	for _, s := range f.slots {
		if s.Date == date {
			out = append(out, s)
		}
	}
	return out
}

// SelectDate moves to SelectingSlot when date has a bookable slot. A date can
// be re-picked until the form is submitted.
func (f *Flow) SelectDate(date string) error {
	if f.state != SelectingDate && f.state != SelectingSlot && f.state != FillingForm {
		return ErrInvalidTransition
	}
	if len(f.SlotsOn(date)) == 0 {
		return ErrNoSlotsOnDate
	}
	f.date = date
	f.slot = nil
	f.err = ""
	f.state = SelectingSlot
	return nil
}

// SelectSlot moves to FillingForm and pre-fills the pickup point from the slot
func (f *Flow) SelectSlot(id uuid.UUID) error {
	if f.state != SelectingSlot && f.state != FillingForm {
		return ErrInvalidTransition
	}
	for _, s := range f.SlotsOn(f.date) {
		if s.ID != id {
			continue
		}
		slot := s
		f.slot = &slot
		if slot.DefaultPickupPoint != nil {
			f.form.PickupPoint = *slot.DefaultPickupPoint
		}
		f.err = ""
		f.state = FillingForm
		return nil
	}
	return ErrUnknownSlot
}

// Fill replaces the form data
func (f *Flow) Fill(form Form) error {
	if f.state != FillingForm {
		return ErrInvalidTransition
	}
	f.form = form
	return nil
}

// Submit sends the form. On acceptance the flow ends in Success; on rejection
// or failure it returns to FillingForm with the message in Err and the form
// untouched. The returned error is non-nil only when the call itself failed.
func (f *Flow) Submit(ctx context.Context) error {
	if f.state != FillingForm || f.slot == nil {
		return ErrInvalidTransition
	}
	if msg := f.checkForm(); msg != "" {
		f.err = msg
		return nil
	}

	f.state = Submitting
	f.err = ""

	var pickup *string
	if p := strings.TrimSpace(f.form.PickupPoint); p != "" {
		pickup = &p
	}
	res, err := f.booker.CreateReservation(ctx, &models.WidgetReservationRequest{
		SlotID:        f.slot.ID,
		CustomerName:  strings.TrimSpace(f.form.CustomerName),
		CustomerEmail: strings.TrimSpace(f.form.CustomerEmail),
		PeopleCount:   f.form.PeopleCount,
		PickupPoint:   pickup,
	})
	if err != nil {
		f.fail("Reservation failed, please try again")
		return err
	}
	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = "Reservation failed"
		}
		f.fail(msg)
		return nil
	}

	f.reservationID = res.ReservationID
	f.state = Success
	return nil
}

func (f *Flow) fail(msg string) {
	f.err = msg
	f.state = FillingForm
}

// checkForm mirrors the server checks so obvious mistakes never leave the form.
// The server decides capacity; the local seat check only uses what was listed.
func (f *Flow) checkForm() string {
	switch {
	case strings.TrimSpace(f.form.CustomerName) == "":
		return "Name is required"
	case strings.TrimSpace(f.form.CustomerEmail) == "":
		return "Email is required"
	case f.form.PeopleCount < 1:
		return "At least one person is required"
	case !availability.SlotHasCapacity(f.slot, f.form.PeopleCount):
		return fmt.Sprintf("Only %d seats left for this departure", availability.ForSlot(f.slot))
	}
	return ""
}

// Back steps to the previous selection screen
func (f *Flow) Back() {
	switch f.state {
	case FillingForm:
		f.slot = nil
		f.err = ""
		f.state = SelectingSlot
	case SelectingSlot:
		f.date = ""
		f.state = SelectingDate
	}
}

// Reset starts a new booking over the same slots
func (f *Flow) Reset() {
	f.state = SelectingDate
	f.date = ""
	f.slot = nil
	f.form = Form{PeopleCount: 1}
	f.err = ""
	f.reservationID = nil
}
