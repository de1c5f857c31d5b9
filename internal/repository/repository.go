package repository

import (
	"database/sql"
	"errors"

	"tourdesk/internal/database"

	"github.com/google/uuid"
)

type Repositories struct {
	Organizations *OrganizationRepository
	Profiles      *ProfileRepository
	Activities    *ActivityRepository
	Slots         *SlotRepository
	Reservations  *ReservationRepository
	Ledger        *LedgerRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Organizations: NewOrganizationRepository(db),
		Profiles:      NewProfileRepository(db),
		Activities:    NewActivityRepository(db),
		Slots:         NewSlotRepository(db),
		Reservations:  NewReservationRepository(db),
		Ledger:        NewLedgerRepository(db),
	}
}

func errorsIsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
