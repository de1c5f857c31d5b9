package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabels(t *testing.T) {
	assert.Equal(t, "Deposit required", PaymentDeposit.Label(LocaleEN))
	assert.Equal(t, "Deposit required", PaymentDeposit.Label(LocaleFR))
	assert.Equal(t, "En attente", StatusPending.Label(LocaleFR))
	assert.Equal(t, "Pending", StatusPending.Label("de"))
	assert.Equal(t, "archived", ReservationStatus("archived").Label(LocaleEN))

	table := Labels("xx")
	assert.Equal(t, LocaleEN, table.Locale)
	assert.Len(t, table.PaymentTypes, 3)
	assert.Len(t, table.Statuses, 3)
}

func TestParseEnums(t *testing.T) {
	p, err := ParsePaymentType("on_site")
	require.NoError(t, err)
	assert.Equal(t, PaymentOnSite, p)

	_, err = ParsePaymentType("cash")
	assert.Error(t, err)

	s, err := ParseReservationStatus("cancelled")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, s)

	_, err = ParseReservationStatus("")
	assert.Error(t, err)

	r := &Reservation{Status: StatusPending}
	assert.True(t, r.HoldsSeats())
	r.Status = StatusCancelled
	assert.False(t, r.HoldsSeats())
}
