package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tourdesk/internal/auth"
	apperrors "tourdesk/internal/errors"
	"tourdesk/internal/logger"
	"tourdesk/internal/metrics"
	"tourdesk/internal/models"
	"tourdesk/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// TokenValidator проверяет bearer-токен
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// SessionResolver строит сессию по пользователю из токена
type SessionResolver interface {
	Session(ctx context.Context, userID uuid.UUID) (*session.Session, error)
}

// RequestID присваивает запросу идентификатор и кладет его в контекст для логов
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = logger.NewRequestID()
		}

		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), requestID))

		c.Next()
	}
}

// CORS middleware для обработки CORS запросов
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+RequestIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Logger middleware для структурированного логирования запросов
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		if status < 400 {
			return
		}

		logFields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status_code", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		}
		if len(c.Errors) > 0 {
			logFields = append(logFields, "error", c.Errors.String())
		}

		// WithContext добавляет request_id, user_id и organization_id
		log := logger.WithContext(c.Request.Context())
		if status >= 500 {
			log.Error("Request completed with error", logFields...)
		} else {
			log.Warn("Request rejected", logFields...)
		}
	}
}

// Recovery middleware для восстановления после паники с детальным логированием
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.WithContext(c.Request.Context()).Error("PANIC recovered",
			"panic", recovered,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		)

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		c.Abort()
	})
}

// Metrics записывает количество и длительность запросов по шаблону маршрута
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Auth проверяет Bearer-токен и кладет сессию сотрудника в контекст запроса.
// Организация и роли берутся из базы (через кеш) на каждый запрос.
func Auth(tokens TokenValidator, sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.Header("WWW-Authenticate", `Bearer realm="tourdesk"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		claims, err := tokens.Validate(strings.TrimSpace(raw))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		ctx := c.Request.Context()
		sess, err := sessions.Session(ctx, claims.UserID)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUnauthorized):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			case apperrors.IsTransient(err):
				logger.WithContext(ctx).Warn("Session lookup failed", "user_id", claims.UserID, "error", err)
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
			default:
				logger.WithContext(ctx).Error("Session lookup failed", "user_id", claims.UserID, "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
			return
		}

		c.Set("user_id", sess.UserID)
		c.Request = c.Request.WithContext(session.WithContext(ctx, sess))

		c.Next()
	}
}

// RequireRole пропускает только сотрудников с ролью role в своей организации
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := session.FromContext(c.Request.Context())
		if _, err := sess.RequireRole(role); err != nil {
			status := http.StatusForbidden
			if errors.Is(err, apperrors.ErrUnauthorized) {
				status = http.StatusUnauthorized
			}
			slog.Debug("Role check failed", "role", role, "error", err)
			c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
			return
		}
		c.Next()
	}
}
