package api

import (
	"context"
	"fmt"
	"net/http"

	"tourdesk/internal/auth"
	"tourdesk/internal/cache"
	"tourdesk/internal/config"
	"tourdesk/internal/database"
	"tourdesk/internal/handlers"
	"tourdesk/internal/logger"
	"tourdesk/internal/messaging"
	"tourdesk/internal/metrics"
	"tourdesk/internal/middleware"
	"tourdesk/internal/models"
	"tourdesk/internal/repository"
	"tourdesk/internal/search"
	"tourdesk/internal/service"
	"tourdesk/internal/validation"

	"github.com/gin-gonic/gin"
)

// Server представляет HTTP сервер API
type Server struct {
	router    *gin.Engine
	config    *config.Config
	db        *database.DB
	publisher messaging.Publisher
	valkey    *cache.ValkeyClient
	services  *service.Services
}

// RouterConfig описывает все, что нужно роутеру
type RouterConfig struct {
	Services       *service.Services
	Tokens         middleware.TokenValidator
	AllowedOrigins []string
	MetricsEnabled bool
	Health         gin.HandlerFunc
}

// NewServer подключает инфраструктуру и создает сервер.
// Valkey и Elasticsearch необязательны: при ошибке подключения сервис работает без них.
func NewServer(cfg *config.Config) (*Server, error) {
	gin.SetMode(cfg.GinMode)

	// Подключаемся к базе данных
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Запускаем миграции
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Подключаемся к NATS
	publisher, err := messaging.Connect(cfg.NATS)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	s := &Server{config: cfg, db: db, publisher: publisher}
	tokens := auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpireHours)

	deps := service.Dependencies{
		Publisher: publisher,
		Tokens:    tokens,
	}
	repos := repository.NewRepositories(db)
	deps.Organizations = repos.Organizations
	deps.Profiles = repos.Profiles
	deps.Activities = repos.Activities
	deps.Slots = repos.Slots
	deps.Reservations = repos.Reservations
	deps.Ledger = repos.Ledger

	if cfg.Valkey.Enabled {
		valkey, err := cache.NewValkeyClient(cfg.Valkey)
		if err != nil {
			logger.Get().Warn("Valkey unavailable, running without cache", "error", err)
		} else {
			s.valkey = valkey
			deps.Cache = valkey
		}
	}

	if cfg.Elasticsearch.Enabled {
		es, err := search.NewElasticsearchClient(cfg.Elasticsearch)
		if err != nil {
			logger.Get().Warn("Elasticsearch unavailable, search falls back to SQL", "error", err)
		} else {
			deps.Index = es
		}
	}

	s.services = service.NewServices(deps)

	s.router = NewRouter(RouterConfig{
		Services:       s.services,
		Tokens:         tokens,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		MetricsEnabled: cfg.MetricsEnabled,
		Health:         s.healthCheck,
	})

	return s, nil
}

// NewRouter создает gin-роутер со всеми маршрутами
func NewRouter(rc RouterConfig) *gin.Engine {
	validation.RegisterGin()

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS(rc.AllowedOrigins))
	router.Use(middleware.Logger())
	if rc.MetricsEnabled {
		router.Use(middleware.Metrics())
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	health := rc.Health
	if health == nil {
		health = func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "tourdesk-api"})
		}
	}
	router.GET("/health", health)

	h := handlers.NewHandlers(rc.Services)
	requireAuth := middleware.Auth(rc.Tokens, rc.Services.Auth)

	api := router.Group("/api")

	// Публичные маршруты
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/signup", h.SignUp)
		authRoutes.POST("/signin", h.SignIn)
		authRoutes.GET("/me", requireAuth, h.Me)
		authRoutes.PATCH("/me", requireAuth, h.UpdateMe)
	}

	widget := api.Group("/widget")
	{
		widget.GET("/activities/:id", h.WidgetActivity)
		widget.GET("/activities/:id/slots", h.WidgetSlots)
		widget.POST("/reservations", h.WidgetReservation)
	}

	api.GET("/labels", h.Labels)

	// Маршруты сотрудников
	staff := api.Group("", requireAuth)
	{
		orgs := staff.Group("/organizations")
		{
			orgs.POST("", h.CreateOrganization)
			orgs.POST("/join", h.JoinOrganization)
		}

		activities := staff.Group("/activities")
		{
			activities.GET("", h.ListActivities)
			activities.POST("", h.CreateActivity)
			activities.GET("/:id", h.GetActivity)
			activities.PUT("/:id", h.UpdateActivity)
			activities.DELETE("/:id", h.DeleteActivity)
		}

		slots := staff.Group("/slots")
		{
			slots.GET("", h.ListSlots)
			slots.POST("", h.CreateSlot)
			slots.POST("/recurring", h.CreateRecurringSlots)
			slots.GET("/calendar", h.SlotCalendar)
			slots.GET("/schedule", h.SlotSchedule)
			slots.GET("/:id", h.GetSlot)
			slots.PUT("/:id", h.UpdateSlot)
			slots.DELETE("/:id", h.DeleteSlot)
		}

		reservations := staff.Group("/reservations")
		{
			reservations.GET("", h.ListReservations)
			reservations.POST("", h.CreateReservation)
			reservations.GET("/partitioned", h.PartitionedReservations)
			reservations.GET("/pending-count", h.PendingReservationsCount)
			reservations.GET("/:id", h.GetReservation)
			reservations.PATCH("/:id", h.UpdateReservation)
			reservations.POST("/:id/cancel", h.CancelReservation)
		}

		team := staff.Group("/team")
		{
			team.GET("", h.ListTeam)
			team.DELETE("/:id", middleware.RequireRole(models.RoleAdmin), h.RemoveTeamMember)
		}

		staff.GET("/dashboard", h.Dashboard)
	}

	return router
}

// healthCheck обрабатывает health check запросы
func (s *Server) healthCheck(c *gin.Context) {
	check := s.db.HealthCheck(c.Request.Context())
	status := http.StatusOK
	if check.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status":   check.Status,
		"service":  "tourdesk-api",
		"database": check,
	})
}

// GetRouter возвращает роутер для тестирования
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup закрывает соединения
func (s *Server) Cleanup(ctx context.Context) error {
	log := logger.WithContext(ctx)

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			log.Error("Error closing NATS connection", "error", err)
		}
	}

	if s.valkey != nil {
		if err := s.valkey.Close(); err != nil {
			log.Error("Error closing Valkey connection", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
