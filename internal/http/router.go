// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
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
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/leadline/go-crm-backend/internal/config"
	"github.com/leadline/go-crm-backend/internal/domain"
	"github.com/leadline/go-crm-backend/internal/http/handlers"
	"github.com/leadline/go-crm-backend/internal/http/middleware"
	"github.com/leadline/go-crm-backend/internal/repo"
	"github.com/leadline/go-crm-backend/internal/services"
)

// leadRepoShim adapts the repository free functions to the services.LeadRepo
// interface expected by the LeadService. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type leadRepoShim struct{}

// FindLeadByExternalID proxies repo.FindLeadByExternalID.
func (leadRepoShim) FindLeadByExternalID(ctx context.Context, db *gorm.DB, externalID string) (*domain.Lead, error) {
	return repo.FindLeadByExternalID(ctx, db, externalID)
}

// CreateLead proxies repo.CreateLead.
func (leadRepoShim) CreateLead(ctx context.Context, db *gorm.DB, externalID string) (*domain.Lead, error) {
	return repo.CreateLead(ctx, db, externalID)
}

// GetLead proxies repo.GetLead.
func (leadRepoShim) GetLead(ctx context.Context, db *gorm.DB, id uint) (*domain.Lead, error) {
	return repo.GetLead(ctx, db, id)
}

// CountLeads proxies repo.CountLeads (pagination support).
func (leadRepoShim) CountLeads(ctx context.Context, db *gorm.DB, externalID string) (int64, error) {
	return repo.CountLeads(ctx, db, externalID)
}

// ListLeadsPage proxies repo.ListLeadsPage (pagination support).
func (leadRepoShim) ListLeadsPage(ctx context.Context, db *gorm.DB, externalID string, offset, limit int) ([]domain.Lead, error) {
	return repo.ListLeadsPage(ctx, db, externalID, offset, limit)
}

// distributionRepoShim adapts repo free functions to services.DistributionRepo.
type distributionRepoShim struct{}

// FindSourceByCode proxies repo.FindSourceByCode.
func (distributionRepoShim) FindSourceByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Source, error) {
	return repo.FindSourceByCode(ctx, db, code)
}

// ListWeightsForSource proxies repo.ListWeightsForSource.
func (distributionRepoShim) ListWeightsForSource(ctx context.Context, db *gorm.DB, sourceID uint) ([]domain.OperatorSourceWeight, error) {
	return repo.ListWeightsForSource(ctx, db, sourceID)
}

// CountActiveContacts proxies repo.CountActiveContacts.
func (distributionRepoShim) CountActiveContacts(ctx context.Context, db *gorm.DB, operatorID uint) (int, error) {
	return repo.CountActiveContacts(ctx, db, operatorID)
}

// CreateContact proxies repo.CreateContact.
func (distributionRepoShim) CreateContact(ctx context.Context, db *gorm.DB, leadID, sourceID uint, operatorID *uint, message string) (*domain.Contact, error) {
	return repo.CreateContact(ctx, db, leadID, sourceID, operatorID, message)
}

// operatorRepoShim adapts repo free functions to services.OperatorRepo.
type operatorRepoShim struct{}

// CreateOperator proxies repo.CreateOperator.
func (operatorRepoShim) CreateOperator(ctx context.Context, db *gorm.DB, name string, isActive bool, maxLoad int) (*domain.Operator, error) {
	return repo.CreateOperator(ctx, db, name, isActive, maxLoad)
}

// GetOperator proxies repo.GetOperator.
func (operatorRepoShim) GetOperator(ctx context.Context, db *gorm.DB, id uint) (*domain.Operator, error) {
	return repo.GetOperator(ctx, db, id)
}

// ListOperatorsPage proxies repo.ListOperatorsPage.
func (operatorRepoShim) ListOperatorsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Operator, error) {
	return repo.ListOperatorsPage(ctx, db, offset, limit)
}

// CountOperators proxies repo.CountOperators.
func (operatorRepoShim) CountOperators(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountOperators(ctx, db)
}

// UpdateOperator proxies repo.UpdateOperator.
func (operatorRepoShim) UpdateOperator(ctx context.Context, db *gorm.DB, id uint, fields map[string]any) error {
	return repo.UpdateOperator(ctx, db, id, fields)
}

// sourceRepoShim adapts repo free functions to services.SourceRepo.
type sourceRepoShim struct{}

// CreateSource proxies repo.CreateSource.
func (sourceRepoShim) CreateSource(ctx context.Context, db *gorm.DB, code, name string) (*domain.Source, error) {
	return repo.CreateSource(ctx, db, code, name)
}

// GetSource proxies repo.GetSource.
func (sourceRepoShim) GetSource(ctx context.Context, db *gorm.DB, id uint) (*domain.Source, error) {
	return repo.GetSource(ctx, db, id)
}

// ListSourcesPage proxies repo.ListSourcesPage.
func (sourceRepoShim) ListSourcesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Source, error) {
	return repo.ListSourcesPage(ctx, db, offset, limit)
}

// CountSources proxies repo.CountSources.
func (sourceRepoShim) CountSources(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountSources(ctx, db)
}

// GetOperator proxies repo.GetOperator (weight validation support).
func (sourceRepoShim) GetOperator(ctx context.Context, db *gorm.DB, id uint) (*domain.Operator, error) {
	return repo.GetOperator(ctx, db, id)
}

// ListWeightsForSource proxies repo.ListWeightsForSource.
func (sourceRepoShim) ListWeightsForSource(ctx context.Context, db *gorm.DB, sourceID uint) ([]domain.OperatorSourceWeight, error) {
	return repo.ListWeightsForSource(ctx, db, sourceID)
}

// ReplaceWeights proxies repo.ReplaceWeights.
func (sourceRepoShim) ReplaceWeights(ctx context.Context, db *gorm.DB, sourceID uint, entries []repo.WeightEntry) ([]domain.OperatorSourceWeight, error) {
	return repo.ReplaceWeights(ctx, db, sourceID, entries)
}

// contactRepoShim adapts repo free functions to services.ContactRepo.
type contactRepoShim struct{}

// GetContact proxies repo.GetContact.
func (contactRepoShim) GetContact(ctx context.Context, db *gorm.DB, id uint) (*domain.Contact, error) {
	return repo.GetContact(ctx, db, id)
}

// CountContacts proxies repo.CountContacts.
func (contactRepoShim) CountContacts(ctx context.Context, db *gorm.DB, f repo.ContactFilter) (int64, error) {
	return repo.CountContacts(ctx, db, f)
}

// ListContactsPage proxies repo.ListContactsPage.
func (contactRepoShim) ListContactsPage(ctx context.Context, db *gorm.DB, f repo.ContactFilter, offset, limit int) ([]domain.Contact, error) {
	return repo.ListContactsPage(ctx, db, f, offset, limit)
}

// CompleteContact proxies repo.CompleteContact.
func (contactRepoShim) CompleteContact(ctx context.Context, db *gorm.DB, id uint) error {
	return repo.CompleteContact(ctx, db, id)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per client IP, bypass on replay)
//  9. CORS, gzip, and security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction (lead identifiers are PII)
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key",
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting). The middleware only
	// checks key shape and existence; the registration handler performs the
	// authoritative (external_id, source_code, key) replay.
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, key string, now time.Time) (bool, error) {
			exists, err := repo.HasIdempotencyKey(ctx, db, key, now)
			if err != nil {
				return false, nil
			}
			return exists, nil
		},
	))

	// 8) Token-bucket rate limiter per client IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
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
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Response compression (skip the Prometheus scrape endpoint)
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

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

	// Swagger UI (opt-in; keep off in production unless needed)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	leadSvc := services.NewLeadService(db, leadRepoShim{})
	distSvc := services.NewDistributionService(db, distributionRepoShim{}, leadSvc)
	contactSvc := services.NewContactService(db, contactRepoShim{})
	operatorSvc := services.NewOperatorService(db, operatorRepoShim{})
	sourceSvc := services.NewSourceService(db, sourceRepoShim{})
	h := handlers.New(distSvc, contactSvc, operatorSvc, sourceSvc, leadSvc)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Contacts
		api.POST("/contacts", h.RegisterContact)
		api.GET("/contacts", h.ListContacts)
		api.GET("/contacts/:id", h.GetContact)
		api.PATCH("/contacts/:id/status", h.CompleteContact)

		// Operators
		api.POST("/operators", h.CreateOperator)
		api.GET("/operators", h.ListOperators)
		api.GET("/operators/:id", h.GetOperator)
		api.PATCH("/operators/:id", h.UpdateOperator)

		// Sources and routing weights
		api.POST("/sources", h.CreateSource)
		api.GET("/sources", h.ListSources)
		api.GET("/sources/:id", h.GetSource)
		api.GET("/sources/:id/operators", h.ListSourceWeights)
		api.POST("/sources/:id/operators", h.ReplaceSourceWeights)

		// Leads (read-only)
		api.GET("/leads", h.ListLeads)
		api.GET("/leads/:id", h.GetLead)
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
