package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"tourdesk/internal/auth"
	apperrors "tourdesk/internal/errors"
	"tourdesk/internal/middleware"
	"tourdesk/internal/models"
	"tourdesk/internal/repository/memstore"
	"tourdesk/internal/service"
	"tourdesk/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router *gin.Engine
	store  *memstore.Store
}

func setupRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.RegisterGin()

	store := memstore.New()
	tokens := auth.NewJWTService("handlers-test", 1)
	services := service.NewServices(service.Dependencies{
		Organizations: store.Organizations(),
		Profiles:      store.Profiles(),
		Activities:    store.Activities(),
		Slots:         store.Slots(),
		Reservations:  store.Reservations(),
		Ledger:        store.Ledger(),
		Publisher:     &memstore.Publisher{},
		Tokens:        tokens,
	})
	h := NewHandlers(services)

	r := gin.New()
	api := r.Group("/api")
	{
		api.POST("/auth/signup", h.SignUp)
		api.POST("/auth/signin", h.SignIn)
		api.GET("/labels", h.Labels)
		api.POST("/widget/reservations", h.WidgetReservation)
		api.GET("/widget/activities/:id", h.WidgetActivity)

		staff := api.Group("", middleware.Auth(tokens, services.Auth))
		{
			staff.GET("/auth/me", h.Me)
			staff.PATCH("/auth/me", h.UpdateMe)
			staff.POST("/organizations", h.CreateOrganization)
			staff.POST("/organizations/join", h.JoinOrganization)
			staff.POST("/activities", h.CreateActivity)
			staff.GET("/activities/:id", h.GetActivity)
			staff.POST("/slots", h.CreateSlot)
			staff.POST("/slots/recurring", h.CreateRecurringSlots)
			staff.GET("/slots", h.ListSlots)
			staff.POST("/reservations", h.CreateReservation)
			staff.GET("/reservations", h.ListReservations)
			staff.POST("/reservations/:id/cancel", h.CancelReservation)
			staff.PATCH("/reservations/:id", h.UpdateReservation)
			staff.GET("/reservations/pending-count", h.PendingReservationsCount)
			staff.DELETE("/team/:id", middleware.RequireRole(models.RoleAdmin), h.RemoveTeamMember)
		}
	}

	return &testEnv{router: r, store: store}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// staffWithOrg signs up a user and creates an organization, making them admin
func (e *testEnv) staffWithOrg(t *testing.T, email string) (string, models.Organization) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/signup", "", models.SignUpRequest{
		Email: email, Password: "correct-horse", FullName: "Test Staff",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token := decode[models.TokenResponse](t, w).Token

	w = e.do(t, http.MethodPost, "/api/organizations", token, models.CreateOrganizationRequest{Name: "Lagoon Tours"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return token, decode[models.Organization](t, w)
}

func (e *testEnv) seedSlot(t *testing.T, token string, total int) models.Slot {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/activities", token, map[string]any{
		"name": "Reef snorkel", "capacity": 12, "price": "45.00", "payment_type": "deposit",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	activity := decode[models.Activity](t, w)

	w = e.do(t, http.MethodPost, "/api/slots", token, models.CreateSlotRequest{
		ActivityID: activity.ID, Date: "2099-06-01", Time: "09:00", TotalSeats: total,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Slot](t, w)
}

func TestRequiresBearerToken(t *testing.T) {
	env := setupRouter(t)

	w := env.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/auth/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateMe(t *testing.T) {
	env := setupRouter(t)
	token, _ := env.staffWithOrg(t, "rename@example.com")

	w := env.do(t, http.MethodPatch, "/api/auth/me", token, map[string]string{"full_name": " Marta Reis "})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Marta Reis", decode[models.Profile](t, w).FullName)

	w = env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Marta Reis", decode[models.MeResponse](t, w).Profile.FullName)

	w = env.do(t, http.MethodPatch, "/api/auth/me", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]any](t, w)["fields"], "full_name")

	w = env.do(t, http.MethodPatch, "/api/auth/me", "", map[string]string{"full_name": "Anyone"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSignUpValidation(t *testing.T) {
	env := setupRouter(t)

	w := env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "nope", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := decode[struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}](t, w)
	assert.Contains(t, body.Fields, "email")
	assert.Contains(t, body.Fields, "password")
	assert.Contains(t, body.Fields, "full_name")
}

func TestStaffReservationLifecycle(t *testing.T) {
	env := setupRouter(t)
	token, _ := env.staffWithOrg(t, "owner@example.com")
	slot := env.seedSlot(t, token, 3)

	w := env.do(t, http.MethodPost, "/api/reservations", token, models.CreateReservationRequest{
		SlotID: slot.ID, CustomerName: "Ana", CustomerEmail: "ana@example.com", PeopleCount: 2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reservation := decode[models.Reservation](t, w)
	assert.Equal(t, models.StatusConfirmed, reservation.Status)

	// 1 seat left
	w = env.do(t, http.MethodPost, "/api/reservations", token, models.CreateReservationRequest{
		SlotID: slot.ID, CustomerName: "Ben", CustomerEmail: "ben@example.com", PeopleCount: 2,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	conflict := decode[map[string]any](t, w)
	assert.EqualValues(t, 1, conflict["available"])

	w = env.do(t, http.MethodPost, "/api/reservations/"+reservation.ID.String()+"/cancel", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusCancelled, decode[models.Reservation](t, w).Status)

	// cancelling twice is a no-op
	w = env.do(t, http.MethodPost, "/api/reservations/"+reservation.ID.String()+"/cancel", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	stored, ok := env.store.Slot(slot.ID)
	require.True(t, ok)
	assert.Equal(t, 0, stored.ReservedSeats)

	w = env.do(t, http.MethodGet, "/api/reservations?status=cancelled", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.ReservationWithSlot](t, w), 1)
}

func TestUpdateReservationPeopleCount(t *testing.T) {
	env := setupRouter(t)
	token, _ := env.staffWithOrg(t, "owner@example.com")
	slot := env.seedSlot(t, token, 4)

	w := env.do(t, http.MethodPost, "/api/reservations", token, models.CreateReservationRequest{
		SlotID: slot.ID, CustomerName: "Ana", CustomerEmail: "ana@example.com", PeopleCount: 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[models.Reservation](t, w).ID.String()

	w = env.do(t, http.MethodPatch, "/api/reservations/"+id, token, map[string]int{"people_count": 5})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPatch, "/api/reservations/"+id, token, map[string]int{"people_count": 4})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored, _ := env.store.Slot(slot.ID)
	assert.Equal(t, 4, stored.ReservedSeats)
}

func TestTenantIsolation(t *testing.T) {
	env := setupRouter(t)
	ownerToken, _ := env.staffWithOrg(t, "owner@example.com")
	slot := env.seedSlot(t, ownerToken, 3)
	otherToken, _ := env.staffWithOrg(t, "rival@example.com")

	w := env.do(t, http.MethodPost, "/api/reservations", otherToken, models.CreateReservationRequest{
		SlotID: slot.ID, CustomerName: "Eve", CustomerEmail: "eve@example.com", PeopleCount: 1,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/activities/"+slot.ActivityID.String(), otherToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNoOrganizationIsForbidden(t *testing.T) {
	env := setupRouter(t)
	w := env.do(t, http.MethodPost, "/api/auth/signup", "", models.SignUpRequest{
		Email: "loner@example.com", Password: "correct-horse", FullName: "Lone Wolf",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	token := decode[models.TokenResponse](t, w).Token

	w = env.do(t, http.MethodGet, "/api/reservations", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStaffCannotRemoveTeamMembers(t *testing.T) {
	env := setupRouter(t)
	_, org := env.staffWithOrg(t, "owner@example.com")

	w := env.do(t, http.MethodPost, "/api/auth/signup", "", models.SignUpRequest{
		Email: "guide@example.com", Password: "correct-horse", FullName: "Guide",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	guide := decode[models.TokenResponse](t, w)

	w = env.do(t, http.MethodPost, "/api/organizations/join", guide.Token, models.JoinOrganizationRequest{OrganizationID: org.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodDelete, "/api/team/"+uuid.NewString(), guide.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRecurringSlotsEndpoint(t *testing.T) {
	env := setupRouter(t)
	token, _ := env.staffWithOrg(t, "owner@example.com")
	slot := env.seedSlot(t, token, 3)

	w := env.do(t, http.MethodPost, "/api/slots/recurring", token, models.CreateRecurringSlotsRequest{
		ActivityID: slot.ActivityID,
		StartDate:  "2099-01-01",
		EndDate:    "2099-01-14",
		Frequency:  "weekly",
		Weekdays:   []int{1, 3},
		Time:       "10:00",
		TotalSeats: 6,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	result := decode[models.BatchSlotResult](t, w)
	assert.Len(t, result.Created, 4)
	assert.Empty(t, result.Failed)

	w = env.do(t, http.MethodGet, "/api/slots?activity_id="+slot.ActivityID.String()+"&from=2099-01-01&to=2099-01-31", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.SlotWithActivity](t, w), 4)

	w = env.do(t, http.MethodGet, "/api/slots?activity_id=bogus", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWidgetReservation(t *testing.T) {
	env := setupRouter(t)
	token, org := env.staffWithOrg(t, "owner@example.com")
	slot := env.seedSlot(t, token, 2)

	w := env.do(t, http.MethodPost, "/api/widget/reservations", "", models.WidgetReservationRequest{
		SlotID: slot.ID, CustomerName: "Walk In", CustomerEmail: "walk@example.com", PeopleCount: 2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	result := decode[models.WidgetReservationResult](t, w)
	assert.True(t, result.Success)
	require.NotNil(t, result.ReservationID)

	reservations := env.store.SlotReservations(slot.ID)
	require.Len(t, reservations, 1)
	assert.Equal(t, org.ID, reservations[0].OrganizationID)
	assert.Equal(t, models.StatusPending, reservations[0].Status)
	assert.Equal(t, models.PaymentOnSite, reservations[0].PaymentMode)

	w = env.do(t, http.MethodPost, "/api/widget/reservations", "", models.WidgetReservationRequest{
		SlotID: slot.ID, CustomerName: "Late", CustomerEmail: "late@example.com", PeopleCount: 1,
	})
	require.Equal(t, http.StatusOK, w.Code)
	rejected := decode[models.WidgetReservationResult](t, w)
	assert.False(t, rejected.Success)
	assert.Equal(t, "Only 0 seats left for this departure", rejected.Error)

	w = env.do(t, http.MethodGet, "/api/reservations/pending-count", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[models.PendingCountResponse](t, w).Count)
}

func TestWidgetActivityBadID(t *testing.T) {
	env := setupRouter(t)

	w := env.do(t, http.MethodGet, "/api/widget/activities/123", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/widget/activities/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLabelsEndpoint(t *testing.T) {
	env := setupRouter(t)

	w := env.do(t, http.MethodGet, "/api/labels?locale=fr", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	table := decode[models.LabelTable](t, w)
	assert.Equal(t, models.LocaleFR, table.Locale)
	assert.Equal(t, "Annulée", table.Statuses[models.StatusCancelled])
}

func TestHandleServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		code int
	}{
		{"validation", apperrors.Invalid("date", "is required"), http.StatusBadRequest},
		{"capacity", apperrors.CapacityExceeded(3, 1), http.StatusConflict},
		{"seats constraint", fmt.Errorf("set reserved seats: %w", apperrors.ErrCapacityExceeded), http.StatusConflict},
		{"not found", apperrors.NotFound("slot", 1), http.StatusNotFound},
		{"unauthorized", apperrors.ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", apperrors.ErrForbidden, http.StatusForbidden},
		{"transient", apperrors.Transient("list slots", errors.New("conn reset")), http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			handleServiceError(c, tc.err, "do thing")

			assert.Equal(t, tc.code, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}
