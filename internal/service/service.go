package service

import (
	"context"

	"tourdesk/internal/logger"
)

// Dependencies wires stores and optional infrastructure into the services.
// Index and Cache may be nil.
type Dependencies struct {
	Organizations OrganizationStore
	Profiles      ProfileStore
	Activities    ActivityStore
	Slots         SlotStore
	Reservations  ReservationStore
	Ledger        LedgerStore
	Publisher     EventPublisher
	Index         ActivityIndex
	Cache         Cache
	Tokens        TokenIssuer
	Clock         Clock
}

type Services struct {
	Auth          *AuthService
	Organizations *OrganizationService
	Team          *TeamService
	Activities    *ActivityService
	Slots         *SlotService
	Ledger        *LedgerService
	Reservations  *ReservationService
	Widget        *WidgetService
	Dashboard     *DashboardService
}

func NewServices(d Dependencies) *Services {
	if d.Publisher == nil {
		d.Publisher = nopPublisher{}
	}

	ledger := NewLedgerService(d.Ledger, d.Publisher)
	if d.Clock != nil {
		ledger.now = d.Clock
	}
	auth := NewAuthService(d.Profiles, d.Organizations, d.Tokens, d.Cache)

	return &Services{
		Auth:          auth,
		Organizations: NewOrganizationService(d.Organizations, d.Profiles, d.Cache),
		Team:          NewTeamService(d.Profiles, d.Cache),
		Activities:    NewActivityService(d.Activities, d.Index, d.Cache, d.Publisher),
		Slots:         NewSlotService(d.Slots, d.Activities, d.Publisher, d.Clock),
		Ledger:        ledger,
		Reservations:  NewReservationService(d.Reservations, d.Clock),
		Widget:        NewWidgetService(d.Activities, d.Slots, ledger, d.Cache, d.Clock),
		Dashboard:     NewDashboardService(d.Activities, d.Slots, d.Reservations, d.Clock),
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) error { return nil }

// publish sends an event after a committed mutation. Delivery failures are
// logged and never fail the mutation.
func publish(ctx context.Context, p EventPublisher, subject string, evt interface{}, fields ...any) {
	if p == nil {
		return
	}
	if err := p.Publish(subject, evt); err != nil {
		args := append([]any{"error", err, "event_type", subject}, fields...)
		logger.WithContext(ctx).Error("Failed to publish event", args...)
	}
}
