package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"tourdesk/internal/auth"
	"tourdesk/internal/config"
	"tourdesk/internal/database"
	"tourdesk/internal/logger"
	"tourdesk/internal/models"
	"tourdesk/internal/recurrence"
	"tourdesk/internal/repository"
	"tourdesk/internal/service"
	"tourdesk/internal/session"

	"github.com/shopspring/decimal"
)

var (
	email    = flag.String("email", "demo@tourdesk.local", "Email of the demo admin")
	password = flag.String("password", "demo-password", "Password of the demo admin")
	orgName  = flag.String("org-name", "Demo Tours", "Name of the demo organization")
	weeks    = flag.Int("weeks", 8, "How many weeks of departures to generate")
	dryRun   = flag.Bool("dry-run", false, "Show what would be generated without making changes")
)

type demoActivity struct {
	Name     string
	Capacity int
	Payment  models.PaymentType
	Weekdays []int
	Time     string
	Pickup   string
}

var catalogue = []demoActivity{
	{Name: "Sunrise kayak", Capacity: 8, Payment: models.PaymentFull, Weekdays: []int{1, 3, 5}, Time: "06:30", Pickup: "Harbour gate"},
	{Name: "Old town walking tour", Capacity: 20, Payment: models.PaymentOnSite, Weekdays: []int{0, 2, 4, 6}, Time: "10:00", Pickup: "Clock tower"},
	{Name: "Canyon jeep safari", Capacity: 12, Payment: models.PaymentDeposit, Weekdays: []int{2, 6}, Time: "08:00", Pickup: "Hotel lobby"},
	{Name: "Night food crawl", Capacity: 15, Payment: models.PaymentFull, Weekdays: []int{4, 5}, Time: "19:30", Pickup: "Central market"},
}

// Generator seeds a demo tenant through the service layer, so every rule
// that applies to staff requests applies to the generated data too.
type Generator struct {
	services *service.Services
}

func main() {
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Starting demo data generator...")

	if *dryRun {
		describe()
		return
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	repos := repository.NewRepositories(db)
	g := &Generator{services: service.NewServices(service.Dependencies{
		Organizations: repos.Organizations,
		Profiles:      repos.Profiles,
		Activities:    repos.Activities,
		Slots:         repos.Slots,
		Reservations:  repos.Reservations,
		Ledger:        repos.Ledger,
		Tokens:        auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpireHours),
	})}

	ctx := logger.ContextWithRequestID(context.Background(), logger.NewRequestID())
	if err := g.Generate(ctx); err != nil {
		slog.Error("Failed to generate demo data", "error", err)
		os.Exit(1)
	}

	slog.Info("Demo data generation completed successfully!")
}

func describe() {
	start, end := window()
	for _, a := range catalogue {
		slots, err := recurrence.Count(recurrence.Rule{
			StartDate: start,
			EndDate:   end,
			Frequency: recurrence.Weekly,
			Weekdays:  a.Weekdays,
		})
		if err != nil {
			slog.Error("[DRY RUN] Activity schedule is invalid", "name", a.Name, "error", err)
			continue
		}
		slog.Info("[DRY RUN] Would create activity",
			"name", a.Name, "capacity", a.Capacity, "payment_type", a.Payment,
			"weekdays", a.Weekdays, "time", a.Time, "slots", slots)
	}
}

// window is the date range of generated departures, starting tomorrow
func window() (string, string) {
	start := time.Now().AddDate(0, 0, 1)
	end := start.AddDate(0, 0, 7*(*weeks))
	return start.Format("2006-01-02"), end.Format("2006-01-02")
}

func (g *Generator) Generate(ctx context.Context) error {
	sess, err := g.admin(ctx)
	if err != nil {
		return err
	}

	start, end := window()

	for _, a := range catalogue {
		activity, err := g.services.Activities.Create(ctx, sess, &models.CreateActivityRequest{
			Name:        a.Name,
			Capacity:    a.Capacity,
			Price:       decimal.NewFromInt(int64(rand.Intn(90)+10) * 5),
			PaymentType: a.Payment,
		})
		if err != nil {
			return fmt.Errorf("failed to create activity %q: %w", a.Name, err)
		}

		pickup := a.Pickup
		result, err := g.services.Slots.CreateRecurring(ctx, sess, &models.CreateRecurringSlotsRequest{
			ActivityID:         activity.ID,
			StartDate:          start,
			EndDate:            end,
			Frequency:          string(recurrence.Weekly),
			Weekdays:           a.Weekdays,
			Time:               a.Time,
			TotalSeats:         a.Capacity,
			DefaultPickupPoint: &pickup,
		})
		if err != nil {
			return fmt.Errorf("failed to create slots for %q: %w", a.Name, err)
		}

		slog.Info("Generated activity",
			"activity_id", activity.ID, "name", activity.Name,
			"slots_created", len(result.Created), "slots_failed", len(result.Failed))
	}
	return nil
}

// admin signs up the demo user, or signs in when it already exists, and
// makes sure it administers an organization.
func (g *Generator) admin(ctx context.Context) (*session.Session, error) {
	token, err := g.services.Auth.SignUp(ctx, &models.SignUpRequest{Email: *email, Password: *password, FullName: "Demo Admin"})
	if err != nil {
		token, err = g.services.Auth.SignIn(ctx, &models.SignInRequest{Email: *email, Password: *password})
		if err != nil {
			return nil, fmt.Errorf("failed to sign in demo user: %w", err)
		}
	}

	sess, err := g.services.Auth.Session(ctx, token.Profile.ID)
	if err != nil {
		return nil, err
	}
	if sess.OrganizationID != nil {
		slog.Info("Demo user already belongs to an organization", "organization_id", *sess.OrganizationID)
		return sess, nil
	}

	org, err := g.services.Organizations.Create(ctx, sess, &models.CreateOrganizationRequest{Name: *orgName})
	if err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}
	slog.Info("Created organization", "organization_id", org.ID, "name", org.Name)

	return g.services.Auth.Session(ctx, token.Profile.ID)
}
