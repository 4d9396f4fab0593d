// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, identity resolution, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/tbourn/go-homework-backend/internal/cache"
	"github.com/tbourn/go-homework-backend/internal/config"
	"github.com/tbourn/go-homework-backend/internal/http/handlers"
	"github.com/tbourn/go-homework-backend/internal/http/middleware"
	"github.com/tbourn/go-homework-backend/internal/notify"
	"github.com/tbourn/go-homework-backend/internal/repo"
	"github.com/tbourn/go-homework-backend/internal/services"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), identity,
// idempotency and rate limiting, CORS and security headers, health and
// metrics endpoints, and then mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Identity: resolve X-User-ID to an account and role
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per user/IP, bypass on replay)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, memCache *cache.Cache, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key", // project-specific sensitive header example
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Resolve the acting identity before anything keyed by user
	r.Use(middleware.Identity(db))

	// 8) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 9) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderUserID, middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderUserID, middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db/cache
	dispatcher := &notify.Dispatcher{DB: db, Log: log.With().Str("component", "notify").Logger()}
	pricingSvc := &services.PricingService{DB: db, Cache: memCache, TTL: cfg.Cache}
	orderSvc := &services.OrderService{
		DB:             db,
		Pricing:        pricingSvc,
		Dispatcher:     dispatcher,
		Cache:          memCache,
		Log:            log.With().Str("component", "orders").Logger(),
		ListTTL:        cfg.Cache.TTLShort,
		IdempotencyTTL: cfg.IdempotencyTTL,
	}
	notifSvc := &services.NotificationService{
		DB:          db,
		Dispatcher:  dispatcher,
		Cache:       memCache,
		FeedTTL:     cfg.Cache.TTLShort,
		TemplateTTL: cfg.Cache.TTLLong,
	}
	userSvc := &services.UserService{
		DB:         db,
		Pricing:    pricingSvc,
		Dispatcher: dispatcher,
		Log:        log.With().Str("component", "users").Logger(),
	}
	statsSvc := &services.StatsService{DB: db}

	h := handlers.New(orderSvc, pricingSvc, notifSvc, userSvc, statsSvc)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Orders
		api.POST("/orders", h.SubmitOrder)
		api.GET("/orders", h.ListOrders)
		api.GET("/orders/:id", h.GetOrder)
		api.POST("/orders/:id/status", h.TransitionOrder)
		api.POST("/orders/:id/assignee", h.AssignOrder)
		api.POST("/orders/:id/change-requests", h.RequestChanges)
		api.POST("/orders/:id/proposals", h.ProposeChange)
		api.POST("/orders/:id/proposals/decision", h.ResolveProposal)
		api.POST("/orders/:id/files", h.UploadFiles)

		// Pricing and fees
		api.GET("/pricing/quote", h.Quote)
		api.GET("/pricing/settings", h.GetPricingSettings)
		api.PUT("/pricing/settings", h.SavePricingSettings)
		api.GET("/pricing/agents/:id/tiers", h.GetAgentTiers)
		api.PUT("/pricing/agents/:id/tiers", h.SaveAgentTiers)
		api.GET("/fees/super-workers", h.ListSuperWorkerFees)
		api.PUT("/fees/super-workers/:id", h.SetSuperWorkerFee)
		api.GET("/fees/agents", h.ListAgentFees)
		api.PUT("/fees/agents/:id", h.SetAgentFee)

		// Notifications
		api.GET("/notifications", h.ListNotifications)
		api.POST("/notifications/read", h.MarkNotificationsRead)
		api.POST("/notifications/broadcast", h.Broadcast)
		api.GET("/notifications/templates", h.ListTemplates)
		api.PUT("/notifications/templates/:id", h.SaveTemplate)

		// Users and reference codes
		api.POST("/users/register", h.Register)
		api.GET("/users/me", h.Me)
		api.GET("/users", h.ListUsers)
		api.PUT("/users/:id/role", h.UpdateUserRole)
		api.POST("/reference-codes", h.CreateReferenceCode)

		// Stats
		api.GET("/stats/dashboard", h.Dashboard)
		api.GET("/stats/series", h.Series)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
