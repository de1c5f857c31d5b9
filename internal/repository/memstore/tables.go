package memstore

import (
	"context"
	"sort"
	"strings"

	apperrors "tourdesk/internal/errors"
	"tourdesk/internal/models"

	"github.com/google/uuid"
)

func (s *Store) Organizations() *Organizations { return &Organizations{s} }
func (s *Store) Profiles() *Profiles { return &Profiles{s} }
func (s *Store) Activities() *Activities { return &Activities{s} }
func (s *Store) Slots() *Slots { return &Slots{s} }
func (s *Store) Ledger() *Ledger { return &Ledger{s} }
func (s *Store) Reservations() *Reservations { return &Reservations{s} }

// Organizations

type Organizations struct{ s *Store }

func (o *Organizations) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return o.s.WithTx(ctx, fn)
}

func (o *Organizations) Create(ctx context.Context, org *models.Organization) error {
	return o.s.write(ctx, func(d *data) error {
		org.ID = uuid.New()
		org.CreatedAt = o.s.now()
		d.orgs[org.ID] = *org
		return nil
	})
}

func (o *Organizations) GetByID(_ context.Context, id uuid.UUID) (*models.Organization, error) {
	var out *models.Organization
	o.s.read(func(d *data) {
		if org, ok := d.orgs[id]; ok {
			out = &org
		}
	})
	return out, nil
}

// Profiles

type Profiles struct{ s *Store }

func (p *Profiles) Create(ctx context.Context, profile *models.Profile) (bool, error) {
	created := false
	err := p.s.write(ctx, func(d *data) error {
		for _, existing := range d.profiles {
			if strings.EqualFold(existing.Email, profile.Email) {
				return nil
			}
		}
		profile.ID = uuid.New()
		profile.CreatedAt = p.s.now()
		profile.UpdatedAt = profile.CreatedAt
		d.profiles[profile.ID] = *profile
		created = true
		return nil
	})
	return created, err
}

func (p *Profiles) GetByID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	var out *models.Profile
	p.s.read(func(d *data) {
		if pr, ok := d.profiles[id]; ok {
			out = &pr
		}
	})
	return out, nil
}

func (p *Profiles) GetByEmail(_ context.Context, email string) (*models.Profile, error) {
	var out *models.Profile
	p.s.read(func(d *data) {
		for _, pr := range d.profiles {
			if strings.EqualFold(pr.Email, email) {
				out = &pr
				return
			}
		}
	})
	return out, nil
}

func (p *Profiles) UpdateFullName(ctx context.Context, profile *models.Profile) (bool, error) {
	found := false
	err := p.s.write(ctx, func(d *data) error {
		pr, ok := d.profiles[profile.ID]
		if !ok {
			return nil
		}
		pr.FullName = profile.FullName
		pr.UpdatedAt = p.s.now()
		d.profiles[profile.ID] = pr
		profile.UpdatedAt = pr.UpdatedAt
		found = true
		return nil
	})
	return found, err
}

func (p *Profiles) SetOrganization(ctx context.Context, userID uuid.UUID, orgID *uuid.UUID) error {
	return p.s.write(ctx, func(d *data) error {
		pr, ok := d.profiles[userID]
		if !ok {
			return apperrors.NotFound("profile", userID)
		}
		if orgID != nil {
			if _, ok := d.orgs[*orgID]; !ok {
				return apperrors.NotFound("organization", *orgID)
			}
		}
		pr.OrganizationID = orgID
		d.profiles[userID] = pr
		return nil
	})
}

func (p *Profiles) AddRole(ctx context.Context, userID, orgID uuid.UUID, role models.Role) error {
	return p.s.write(ctx, func(d *data) error {
		byOrg := d.roles[userID]
		if byOrg == nil {
			byOrg = map[uuid.UUID][]models.Role{}
			d.roles[userID] = byOrg
		}
		for _, r := range byOrg[orgID] {
			if r == role {
				return nil
			}
		}
		byOrg[orgID] = append(byOrg[orgID], role)
		return nil
	})
}

func (p *Profiles) Roles(_ context.Context, userID, orgID uuid.UUID) ([]models.Role, error) {
	roles := []models.Role{}
	p.s.read(func(d *data) {
		roles = append(roles, d.roles[userID][orgID]...)
	})
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles, nil
}

func (p *Profiles) ListMembers(_ context.Context, orgID uuid.UUID) ([]models.Member, error) {
	members := []models.Member{}
	p.s.read(func(d *data) {
		for _, pr := range d.profiles {
			if pr.OrganizationID == nil || *pr.OrganizationID != orgID {
				continue
			}
			roles := append([]models.Role{}, d.roles[pr.ID][orgID]...)
			members = append(members, models.Member{Profile: pr, Roles: roles})
		}
	})
	sort.Slice(members, func(i, j int) bool { return members[i].FullName < members[j].FullName })
	return members, nil
}

func (p *Profiles) RemoveFromOrganization(ctx context.Context, orgID, userID uuid.UUID) (bool, error) {
	removed := false
	err := p.s.write(ctx, func(d *data) error {
		pr, ok := d.profiles[userID]
		if !ok || pr.OrganizationID == nil || *pr.OrganizationID != orgID {
			return nil
		}
		pr.OrganizationID = nil
		d.profiles[userID] = pr
		delete(d.roles[userID], orgID)
		removed = true
		return nil
	})
	return removed, err
}

// Activities

type Activities struct{ s *Store }

func (a *Activities) Create(ctx context.Context, act *models.Activity) error {
	return a.s.write(ctx, func(d *data) error {
		act.ID = uuid.New()
		act.CreatedAt = a.s.now()
		act.UpdatedAt = act.CreatedAt
		d.activities[act.ID] = *act
		return nil
	})
}

func (a *Activities) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Activity, error) {
	act, err := a.GetPublic(ctx, id)
	if act == nil || act.OrganizationID != orgID {
		return nil, err
	}
	return act, nil
}

func (a *Activities) GetPublic(_ context.Context, id uuid.UUID) (*models.Activity, error) {
	var out *models.Activity
	a.s.read(func(d *data) {
		if act, ok := d.activities[id]; ok {
			out = &act
		}
	})
	return out, nil
}

func (a *Activities) List(_ context.Context, orgID uuid.UUID) ([]models.Activity, error) {
	return a.filter(func(act *models.Activity) bool { return act.OrganizationID == orgID }), nil
}

func (a *Activities) ListByIDs(_ context.Context, orgID uuid.UUID, ids []uuid.UUID) ([]models.Activity, error) {
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return a.filter(func(act *models.Activity) bool {
		return act.OrganizationID == orgID && want[act.ID]
	}), nil
}

func (a *Activities) Search(_ context.Context, orgID uuid.UUID, text string, limit, offset int) ([]models.Activity, error) {
	needle := strings.ToLower(text)
	matched := a.filter(func(act *models.Activity) bool {
		if act.OrganizationID != orgID {
			return false
		}
		if needle == "" || strings.Contains(strings.ToLower(act.Name), needle) {
			return true
		}
		return act.Description != nil && strings.Contains(strings.ToLower(*act.Description), needle)
	})
	if offset >= len(matched) {
		return []models.Activity{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (a *Activities) ListAll(_ context.Context) ([]models.Activity, error) {
	return a.filter(func(*models.Activity) bool { return true }), nil
}

func (a *Activities) filter(keep func(*models.Activity) bool) []models.Activity {
	out := []models.Activity{}
	a.s.read(func(d *data) {
		for _, act := range d.activities {
			if keep(&act) {
				out = append(out, act)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (a *Activities) Update(ctx context.Context, act *models.Activity) error {
	return a.s.write(ctx, func(d *data) error {
		existing, ok := d.activities[act.ID]
		if !ok || existing.OrganizationID != act.OrganizationID {
			return nil
		}
		act.UpdatedAt = a.s.now()
		d.activities[act.ID] = *act
		return nil
	})
}

func (a *Activities) Delete(ctx context.Context, orgID, id uuid.UUID) (bool, error) {
	deleted := false
	err := a.s.write(ctx, func(d *data) error {
		act, ok := d.activities[id]
		if !ok || act.OrganizationID != orgID {
			return nil
		}
		delete(d.activities, id)
		for sid, sl := range d.slots {
			if sl.ActivityID == id {
				d.deleteSlot(sid)
			}
		}
		deleted = true
		return nil
	})
	return deleted, err
}

func (a *Activities) Count(_ context.Context, orgID uuid.UUID) (int, error) {
	n := 0
	a.s.read(func(d *data) {
		for _, act := range d.activities {
			if act.OrganizationID == orgID {
				n++
			}
		}
	})
	return n, nil
}

// Slots

type Slots struct{ s *Store }

func (sl *Slots) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return sl.s.WithTx(ctx, fn)
}

func (sl *Slots) Create(ctx context.Context, slot *models.Slot) error {
	return sl.s.write(ctx, func(d *data) error {
		if err := sl.s.slotFailures[slot.Date]; err != nil {
			return err
		}
		act, ok := d.activities[slot.ActivityID]
		if !ok || act.OrganizationID != slot.OrganizationID {
			return apperrors.NotFound("activity", slot.ActivityID)
		}
		slot.ID = uuid.New()
		slot.ReservedSeats = 0
		slot.CreatedAt = sl.s.now()
		d.slots[slot.ID] = *slot
		return nil
	})
}

func (sl *Slots) GetByID(_ context.Context, orgID, id uuid.UUID) (*models.SlotWithActivity, error) {
	var out *models.SlotWithActivity
	sl.s.read(func(d *data) {
		if slot, ok := d.slots[id]; ok && slot.OrganizationID == orgID {
			joined := d.slotWithActivity(slot)
			out = &joined
		}
	})
	return out, nil
}

func (sl *Slots) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Slot, error) {
	if err := sl.s.requireTx(ctx, "get slot for update"); err != nil {
		return nil, err
	}
	var out *models.Slot
	sl.s.read(func(d *data) {
		if slot, ok := d.slots[id]; ok {
			out = &slot
		}
	})
	return out, nil
}

func (sl *Slots) List(_ context.Context, orgID uuid.UUID, f models.SlotFilter) ([]models.SlotWithActivity, error) {
	out := []models.SlotWithActivity{}
	sl.s.read(func(d *data) {
		for _, slot := range d.slots {
			if slot.OrganizationID != orgID {
				continue
			}
			if f.ActivityID != nil && slot.ActivityID != *f.ActivityID {
				continue
			}
			if (f.From != "" && slot.Date < f.From) || (f.To != "" && slot.Date > f.To) {
				continue
			}
			out = append(out, d.slotWithActivity(slot))
		}
	})
	sort.Slice(out, func(i, j int) bool { return slotLess(&out[i].Slot, &out[j].Slot) })
	return out, nil
}

func (sl *Slots) ListByActivity(_ context.Context, activityID uuid.UUID, from, to string) ([]models.Slot, error) {
	out := []models.Slot{}
	sl.s.read(func(d *data) {
		for _, slot := range d.slots {
			if slot.ActivityID == activityID && slot.Date >= from && slot.Date <= to {
				out = append(out, slot)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return slotLess(&out[i], &out[j]) })
	return out, nil
}

func (sl *Slots) Update(ctx context.Context, slot *models.Slot) error {
	return sl.s.write(ctx, func(d *data) error {
		existing, ok := d.slots[slot.ID]
		if !ok || existing.OrganizationID != slot.OrganizationID {
			return nil
		}
		if slot.TotalSeats < existing.ReservedSeats {
			return apperrors.ErrCapacityExceeded
		}
		existing.Date = slot.Date
		existing.Time = slot.Time
		existing.TotalSeats = slot.TotalSeats
		existing.DefaultPickupPoint = slot.DefaultPickupPoint
		d.slots[slot.ID] = existing
		return nil
	})
}

func (sl *Slots) Delete(ctx context.Context, orgID, id uuid.UUID) (bool, error) {
	deleted := false
	err := sl.s.write(ctx, func(d *data) error {
		slot, ok := d.slots[id]
		if !ok || slot.OrganizationID != orgID {
			return nil
		}
		d.deleteSlot(id)
		deleted = true
		return nil
	})
	return deleted, err
}

func (sl *Slots) CountUpcoming(_ context.Context, orgID uuid.UUID, today string) (int, error) {
	n := 0
	sl.s.read(func(d *data) {
		for _, slot := range d.slots {
			if slot.OrganizationID == orgID && slot.Date >= today {
				n++
			}
		}
	})
	return n, nil
}

func (sl *Slots) FindSeatDrift(_ context.Context) ([]models.SeatDrift, error) {
	out := []models.SeatDrift{}
	sl.s.read(func(d *data) {
		held := map[uuid.UUID]int{}
		for _, r := range d.reservations {
			if r.HoldsSeats() {
				held[r.SlotID] += r.PeopleCount
			}
		}
		for _, slot := range d.slots {
			if held[slot.ID] != slot.ReservedSeats {
				out = append(out, models.SeatDrift{
					SlotID:         slot.ID,
					OrganizationID: slot.OrganizationID,
					TotalSeats:     slot.TotalSeats,
					Stored:         slot.ReservedSeats,
					Actual:         held[slot.ID],
				})
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].SlotID.String() < out[j].SlotID.String() })
	return out, nil
}

func slotLess(a, b *models.Slot) bool {
	if a.Date != b.Date {
		return a.Date < b.Date
	}
	return a.Time < b.Time
}

// Ledger

type Ledger struct{ s *Store }

func (l *Ledger) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return l.s.WithTx(ctx, fn)
}

func (l *Ledger) GetSlotForUpdate(ctx context.Context, id uuid.UUID) (*models.Slot, error) {
	return (&Slots{l.s}).GetForUpdate(ctx, id)
}

func (l *Ledger) SetReservedSeats(ctx context.Context, slotID uuid.UUID, reserved int) error {
	return l.s.write(ctx, func(d *data) error {
		return setReserved(d, slotID, reserved)
	})
}

func (l *Ledger) GetReservation(_ context.Context, id uuid.UUID) (*models.Reservation, error) {
	var out *models.Reservation
	l.s.read(func(d *data) {
		if r, ok := d.reservations[id]; ok {
			out = &r
		}
	})
	return out, nil
}

func (l *Ledger) GetReservationForUpdate(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	if err := l.s.requireTx(ctx, "get reservation for update"); err != nil {
		return nil, err
	}
	return l.GetReservation(ctx, id)
}

func (l *Ledger) InsertReservation(ctx context.Context, r *models.Reservation) error {
	return l.s.write(ctx, func(d *data) error {
		if _, ok := d.slots[r.SlotID]; !ok {
			return apperrors.NotFound("slot", r.SlotID)
		}
		r.ID = uuid.New()
		r.CreatedAt = l.s.now()
		d.reservations[r.ID] = *r
		return nil
	})
}

func (l *Ledger) UpdateReservation(ctx context.Context, r *models.Reservation) error {
	return l.s.write(ctx, func(d *data) error {
		if _, ok := d.reservations[r.ID]; !ok {
			return apperrors.NotFound("reservation", r.ID)
		}
		d.reservations[r.ID] = *r
		return nil
	})
}

func (l *Ledger) HeldSeats(_ context.Context, slotID uuid.UUID) (int, error) {
	n := 0
	l.s.read(func(d *data) {
		for _, r := range d.reservations {
			if r.SlotID == slotID && r.HoldsSeats() {
				n += r.PeopleCount
			}
		}
	})
	return n, nil
}

// Reservations

type Reservations struct{ s *Store }

func (rs *Reservations) GetByID(_ context.Context, orgID, id uuid.UUID) (*models.ReservationWithSlot, error) {
	var out *models.ReservationWithSlot
	rs.s.read(func(d *data) {
		if r, ok := d.reservations[id]; ok && r.OrganizationID == orgID {
			joined := d.reservationWithSlot(r)
			out = &joined
		}
	})
	return out, nil
}

func (rs *Reservations) List(_ context.Context, orgID uuid.UUID, f models.ReservationFilter) ([]models.ReservationWithSlot, error) {
	out := []models.ReservationWithSlot{}
	rs.s.read(func(d *data) {
		for _, r := range d.reservations {
			if r.OrganizationID != orgID {
				continue
			}
			if f.Status != "" && r.Status != f.Status {
				continue
			}
			joined := d.reservationWithSlot(r)
			if f.Date != "" && (joined.Slot == nil || joined.Slot.Date != f.Date) {
				continue
			}
			if f.ActivityID != nil && (joined.Slot == nil || joined.Slot.ActivityID != *f.ActivityID) {
				continue
			}
			out = append(out, joined)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Slot, out[j].Slot
		if a != nil && b != nil && (a.Date != b.Date || a.Time != b.Time) {
			return slotLess(&b.Slot, &a.Slot)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (rs *Reservations) CountByStatus(_ context.Context, orgID uuid.UUID, status models.ReservationStatus) (int, error) {
	n := 0
	rs.s.read(func(d *data) {
		for _, r := range d.reservations {
			if r.OrganizationID == orgID && r.Status == status {
				n++
			}
		}
	})
	return n, nil
}
