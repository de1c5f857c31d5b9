// Package memstore is an in-memory implementation of the service store
// interfaces. Transactions are serialized by one lock and roll back by
// restoring a snapshot, which is enough to exercise the ledger's locking and
// atomicity rules without Postgres.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "tourdesk/internal/errors"
	"tourdesk/internal/models"

	"github.com/google/uuid"
)

type txKey struct{}

type data struct {
	orgs         map[uuid.UUID]models.Organization
	profiles     map[uuid.UUID]models.Profile
	roles        map[uuid.UUID]map[uuid.UUID][]models.Role
	activities   map[uuid.UUID]models.Activity
	slots        map[uuid.UUID]models.Slot
	reservations map[uuid.UUID]models.Reservation
}

func newData() data {
	return data{
		orgs:         map[uuid.UUID]models.Organization{},
		profiles:     map[uuid.UUID]models.Profile{},
		roles:        map[uuid.UUID]map[uuid.UUID][]models.Role{},
		activities:   map[uuid.UUID]models.Activity{},
		slots:        map[uuid.UUID]models.Slot{},
		reservations: map[uuid.UUID]models.Reservation{},
	}
}

func (d data) clone() data {
	c := newData()
	for k, v := range d.orgs {
		c.orgs[k] = v
	}
	for k, v := range d.profiles {
		c.profiles[k] = v
	}
	for user, byOrg := range d.roles {
		m := make(map[uuid.UUID][]models.Role, len(byOrg))
		for org, roles := range byOrg {
			m[org] = append([]models.Role(nil), roles...)
		}
		c.roles[user] = m
	}
	for k, v := range d.activities {
		c.activities[k] = v
	}
	for k, v := range d.slots {
		c.slots[k] = v
	}
	for k, v := range d.reservations {
		c.reservations[k] = v
	}
	return c
}

// Store holds every table. Use the accessor methods to get the per-entity views.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	d    data

	slotFailures map[string]error
	now          func() time.Time
}

func New() *Store {
	return &Store{d: newData(), slotFailures: map[string]error{}, now: time.Now}
}

// WithTx runs fn with exclusive write access. Any error restores the state
// seen when the transaction began. Nested calls join the outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.d.clone()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.d = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// write applies fn under the data lock. Outside a transaction it also takes
// the transaction lock so a rollback never discards it.
func (s *Store) write(ctx context.Context, fn func(d *data) error) error {
	if !inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.d)
}

func (s *Store) read(fn func(d *data)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.d)
}

func (s *Store) requireTx(ctx context.Context, op string) error {
	if !inTx(ctx) {
		return fmt.Errorf("%s: row lock requires a transaction", op)
	}
	return nil
}

// FailSlotCreate makes every slot insert dated date fail with err
func (s *Store) FailSlotCreate(date string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slotFailures[date] = err
}

// Seed helpers insert rows directly, bypassing services

func (s *Store) SeedOrganization(name string) models.Organization {
	o := models.Organization{ID: uuid.New(), Name: name, CreatedAt: s.now()}
	s.mu.Lock()
	s.d.orgs[o.ID] = o
	s.mu.Unlock()
	return o
}

func (s *Store) SeedActivity(orgID uuid.UUID, name string, capacity int) models.Activity {
	a := models.Activity{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           name,
		Capacity:       capacity,
		PaymentType:    models.PaymentFull,
		CreatedAt:      s.now(),
		UpdatedAt:      s.now(),
	}
	s.mu.Lock()
	s.d.activities[a.ID] = a
	s.mu.Unlock()
	return a
}

func (s *Store) SeedSlot(a models.Activity, date, clock string, total, reserved int) models.Slot {
	sl := models.Slot{
		ID:             uuid.New(),
		OrganizationID: a.OrganizationID,
		ActivityID:     a.ID,
		Date:           date,
		Time:           clock,
		TotalSeats:     total,
		ReservedSeats:  reserved,
		CreatedAt:      s.now(),
	}
	s.mu.Lock()
	s.d.slots[sl.ID] = sl
	s.mu.Unlock()
	return sl
}

func (s *Store) SeedReservation(r models.Reservation) models.Reservation {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt = s.now()
	s.mu.Lock()
	s.d.reservations[r.ID] = r
	s.mu.Unlock()
	return r
}

// Slot returns the current row, for assertions
func (s *Store) Slot(id uuid.UUID) (models.Slot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.d.slots[id]
	return sl, ok
}

// SlotReservations returns every reservation of a slot, for assertions
func (s *Store) SlotReservations(slotID uuid.UUID) []models.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Reservation
	for _, r := range s.d.reservations {
		if r.SlotID == slotID {
			out = append(out, r)
		}
	}
	return out
}

// setReserved enforces the same range check as the slots table constraint
func setReserved(d *data, slotID uuid.UUID, reserved int) error {
	sl, ok := d.slots[slotID]
	if !ok {
		return apperrors.NotFound("slot", slotID)
	}
	if reserved < 0 || reserved > sl.TotalSeats {
		return fmt.Errorf("set reserved seats: %w", apperrors.ErrCapacityExceeded)
	}
	sl.ReservedSeats = reserved
	d.slots[slotID] = sl
	return nil
}

func (d *data) slotWithActivity(sl models.Slot) models.SlotWithActivity {
	out := models.SlotWithActivity{Slot: sl}
	if a, ok := d.activities[sl.ActivityID]; ok {
		out.Activity = &a
	}
	return out
}

func (d *data) reservationWithSlot(r models.Reservation) models.ReservationWithSlot {
	out := models.ReservationWithSlot{Reservation: r}
	if sl, ok := d.slots[r.SlotID]; ok {
		joined := d.slotWithActivity(sl)
		out.Slot = &joined
	}
	return out
}

func (d *data) deleteSlot(id uuid.UUID) {
	delete(d.slots, id)
	for rid, r := range d.reservations {
		if r.SlotID == id {
			delete(d.reservations, rid)
		}
	}
}
