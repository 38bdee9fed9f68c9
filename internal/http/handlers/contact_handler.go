// Contact HTTP handlers.
//
// This file exposes REST endpoints for contact resources:
//   - POST  /contacts              (register a contact; runs distribution)
//   - GET   /contacts              (list, filtered + paginated, ETag support)
//   - GET   /contacts/{id}         (fetch one)
//   - PATCH /contacts/{id}/status  (completion event: active -> completed)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses.
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// registration exists for (external_id, source_code, key), the handler
// returns the originally created contact and sets `Idempotency-Replayed:
// true` instead of distributing a second one.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/leadline/go-crm-backend/internal/domain"
	"github.com/leadline/go-crm-backend/internal/http/middleware"
	"github.com/leadline/go-crm-backend/internal/repo"
	"github.com/leadline/go-crm-backend/internal/services"
	"github.com/leadline/go-crm-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// DistributionService defines the routing decision consumed by the contact
// registration endpoint. Implementations must be safe for concurrent use and
// honor the provided context for cancellation.
type DistributionService interface {
	// Distribute resolves the lead, validates the source, and creates the
	// contact with a weighted-pick operator or with none.
	Distribute(ctx context.Context, externalID, sourceCode, message string) (*domain.Contact, error)
}

// ContactService defines contact reads and the completion transition.
type ContactService interface {
	// Get fetches a contact by id.
	Get(ctx context.Context, id uint) (*domain.Contact, error)
	// ListPage returns a filtered page of contacts and the total count.
	ListPage(ctx context.Context, f repo.ContactFilter, page, pageSize int) ([]domain.Contact, int64, error)
	// Complete marks an active contact completed.
	Complete(ctx context.Context, id uint) (*domain.Contact, error)
}

// OperatorService defines operator roster operations consumed by handlers.
type OperatorService interface {
	// Create inserts a new operator.
	Create(ctx context.Context, name string, isActive bool, maxLoad int) (*domain.Operator, error)
	// Get fetches an operator by id.
	Get(ctx context.Context, id uint) (*domain.Operator, error)
	// ListPage returns a page of operators and the total count.
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Operator, int64, error)
	// Update applies a partial update and returns the refreshed operator.
	Update(ctx context.Context, id uint, upd services.OperatorUpdate) (*domain.Operator, error)
}

// SourceService defines source and routing-configuration operations.
type SourceService interface {
	// Create inserts a new source with a unique code.
	Create(ctx context.Context, code, name string) (*domain.Source, error)
	// Get fetches a source by id.
	Get(ctx context.Context, id uint) (*domain.Source, error)
	// ListPage returns a page of sources and the total count.
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Source, int64, error)
	// Weights returns the source's current weight rows.
	Weights(ctx context.Context, sourceID uint) ([]domain.OperatorSourceWeight, error)
	// ReplaceWeights installs a full routing configuration for the source.
	ReplaceWeights(ctx context.Context, sourceID uint, entries []repo.WeightEntry) ([]domain.OperatorSourceWeight, error)
}

// LeadService defines lead read access consumed by handlers.
type LeadService interface {
	// Get fetches a lead with its contact history.
	Get(ctx context.Context, id uint) (*domain.Lead, error)
	// ListPage returns a page of leads, optionally filtered by external id.
	ListPage(ctx context.Context, externalID string, page, pageSize int) ([]domain.Lead, int64, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for contacts, operators, sources, and leads.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	distSvc     DistributionService
	contactSvc  ContactService
	operatorSvc OperatorService
	sourceSvc   SourceService
	leadSvc     LeadService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(distSvc DistributionService, contactSvc ContactService, operatorSvc OperatorService, sourceSvc SourceService, leadSvc LeadService) *Handlers {
	return &Handlers{
		distSvc:     distSvc,
		contactSvc:  contactSvc,
		operatorSvc: operatorSvc,
		sourceSvc:   sourceSvc,
		leadSvc:     leadSvc,
	}
}

//
// DTOs
//

// RegisterContactRequest is the JSON payload for registering a contact.
type RegisterContactRequest struct {
	// ExternalID is the lead's stable key: phone, email, or bot user id.
	ExternalID string `json:"external_id" binding:"required,min=1,max=128" example:"tg:348901234"`
	// SourceCode identifies the inbound channel.
	SourceCode string `json:"source_code" binding:"required,min=1,max=64" example:"bot_telegram"`
	// Message optionally carries the first message text.
	Message string `json:"message" example:"Hi, I'd like a quote"`
}

// CompleteContactRequest is the JSON payload for the status transition.
type CompleteContactRequest struct {
	// Status must be "completed"; no other transition exists.
	Status string `json:"status" binding:"required" example:"completed"`
}

// ListContactsResponse wraps a page of contacts and pagination information.
type ListContactsResponse struct {
	Contacts   []domain.Contact `json:"contacts"`
	Pagination Pagination       `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// contactFilterFromQuery builds the list filter from optional query params.
func contactFilterFromQuery(c *gin.Context) repo.ContactFilter {
	return repo.ContactFilter{
		OperatorID: uint(utils.AtoiDefault(c.Query("operator_id"), 0)),
		SourceID:   uint(utils.AtoiDefault(c.Query("source_id"), 0)),
		LeadID:     uint(utils.AtoiDefault(c.Query("lead_id"), 0)),
	}
}

// distributionDB exposes the concrete service's DB handle for best-effort
// idempotency reads/writes; nil when the service is a test fake.
func (h *Handlers) distributionDB() *gorm.DB {
	if svc, ok := h.distSvc.(*services.DistributionService); ok {
		return svc.DB
	}
	return nil
}

//
// Handlers
//

// RegisterContact godoc
// @ID          registerContact
// @Summary     Register an incoming contact
// @Description Resolves (or creates) the lead by external_id, then routes the contact
// @Description to an operator by per-source weights and load limits. When no eligible
// @Description operator has spare capacity the contact is created unassigned.
// @Description Supports idempotency via the Idempotency-Key header (same key → same contact).
// @Tags        Contacts
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.RegisterContactRequest  true  "Contact registration payload"
//
// @Success     201  {object}  domain.Contact
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Source not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /contacts [post]
func (h *Handlers) RegisterContact(c *gin.Context) {
	ctx := c.Request.Context()

	var req RegisterContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "external_id and source_code required")
		return
	}
	externalID := strings.TrimSpace(req.ExternalID)
	sourceCode := strings.TrimSpace(req.SourceCode)
	if externalID == "" || sourceCode == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "external_id and source_code required")
		return
	}

	// Idempotency (replay path) – read validated key if present.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" {
		if db := h.distributionDB(); db != nil {
			if rec, err := repo.GetIdempotency(ctx, db, externalID, sourceCode, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if prev, err2 := repo.GetContact(ctx, db, rec.ContactID); err2 == nil {
					c.Header("Idempotency-Replayed", "true")
					ok(c, http.StatusCreated, prev)
					return
				}
			}
		}
	}

	contact, err := h.distSvc.Distribute(ctx, externalID, sourceCode, req.Message)
	if err != nil {
		switch err {
		case services.ErrSourceNotFound:
			fail(c, http.StatusNotFound, ErrCodeSourceNotFound,
				fmt.Sprintf("source with code '%s' not found", sourceCode))
		case services.ErrEmptyExternalID:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "external_id required")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeDistributeFailed, err.Error())
		}
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" {
		if db := h.distributionDB(); db != nil {
			ttl := 24 * time.Hour
			_, _ = repo.CreateIdempotency(ctx, db, externalID, sourceCode, idemKey, contact.ID, http.StatusCreated, ttl)
		}
	}

	ok(c, http.StatusCreated, contact)
}

// ListContacts godoc
// @ID          listContacts
// @Summary     List contacts (filtered, paginated)
// @Description Returns a page of contacts, optionally filtered by operator_id,
// @Description source_id, or lead_id. Supports weak ETag via If-None-Match.
// @Tags        Contacts
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       operator_id    query   int     false "Filter by operator"
// @Param       source_id      query   int     false "Filter by source"
// @Param       lead_id        query   int     false "Filter by lead"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListContactsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /contacts [get]
func (h *Handlers) ListContacts(c *gin.Context) {
	ctx := c.Request.Context()
	filter := contactFilterFromQuery(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if db := h.distributionDB(); db != nil {
		count, maxTS, err := repo.ContactsStats(ctx, db, filter)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"contacts:%d:%d:%d:%d:%d"`,
				filter.OperatorID, filter.SourceID, filter.LeadID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.contactSvc.ListPage(ctx, filter, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, ListContactsResponse{
		Contacts:   items,
		Pagination: paginationOf(page, pageSize, total),
	})
}

// GetContact godoc
// @ID          getContact
// @Summary     Fetch a contact
// @Tags        Contacts
// @Produce     json
//
// @Param       id  path  int  true  "Contact ID"  minimum(1)
//
// @Success     200  {object} domain.Contact
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Contact not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /contacts/{id} [get]
func (h *Handlers) GetContact(c *gin.Context) {
	id, okID := parseID(c, "id")
	if !okID {
		return
	}

	contact, err := h.contactSvc.Get(c.Request.Context(), id)
	if err != nil {
		if err == services.ErrContactNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "contact not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, contact)
}

// CompleteContact godoc
// @ID          completeContact
// @Summary     Complete a contact
// @Description Transitions a contact from active to completed, freeing its
// @Description operator's capacity. Completed is terminal.
// @Tags        Contacts
// @Accept      json
// @Produce     json
//
// @Param       id    path  int  true  "Contact ID"  minimum(1)
// @Param       body  body  handlers.CompleteContactRequest  true  "Target status"
//
// @Success     200  {object} domain.Contact
// @Failure     400  {object} handlers.ErrorResponse "Bad request / illegal transition"
// @Failure     404  {object} handlers.ErrorResponse "Contact not found"
// @Failure     409  {object} handlers.ErrorResponse "Contact already completed"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /contacts/{id}/status [patch]
func (h *Handlers) CompleteContact(c *gin.Context) {
	id, okID := parseID(c, "id")
	if !okID {
		return
	}

	var req CompleteContactRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status != domain.ContactStatusCompleted {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, `status must be "completed"`)
		return
	}

	contact, err := h.contactSvc.Complete(c.Request.Context(), id)
	if err != nil {
		switch err {
		case services.ErrContactNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "contact not found")
		case services.ErrContactNotActive:
			fail(c, http.StatusConflict, ErrCodeConflict, "contact is not active")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, contact)
}
