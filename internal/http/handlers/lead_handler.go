// Lead HTTP handlers.
//
// Leads are created implicitly by contact registration, never through this
// API; these endpoints only expose lead history:
//   - GET /leads       (list, optional external_id filter, ETag support)
//   - GET /leads/{id}  (fetch one with its contacts)
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/leadline/go-crm-backend/internal/domain"
	"github.com/leadline/go-crm-backend/internal/repo"
	"github.com/leadline/go-crm-backend/internal/services"
)

// ListLeadsResponse wraps a page of leads and pagination information.
type ListLeadsResponse struct {
	Leads      []domain.Lead `json:"leads"`
	Pagination Pagination    `json:"pagination"`
}

// ListLeads godoc
// @ID          listLeads
// @Summary     List leads (paginated)
// @Description Returns a page of leads, optionally filtered by exact external_id.
// @Description Supports weak ETag via If-None-Match and may return 304.
// @Tags        Leads
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       external_id    query   string  false "Exact external id filter"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListLeadsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /leads [get]
func (h *Handlers) ListLeads(c *gin.Context) {
	ctx := c.Request.Context()
	externalID := strings.TrimSpace(c.Query("external_id"))
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if svc, okSvc := h.leadSvc.(*services.LeadService); okSvc && svc.DB != nil {
		count, maxTS, err := repo.LeadsStats(ctx, svc.DB, externalID)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"leads:%s:%d:%d"`, externalID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.leadSvc.ListPage(ctx, externalID, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, ListLeadsResponse{
		Leads:      items,
		Pagination: paginationOf(page, pageSize, total),
	})
}

// GetLead godoc
// @ID          getLead
// @Summary     Fetch a lead with its contact history
// @Tags        Leads
// @Produce     json
//
// @Param       id  path  int  true  "Lead ID"  minimum(1)
//
// @Success     200  {object} domain.Lead
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Lead not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /leads/{id} [get]
func (h *Handlers) GetLead(c *gin.Context) {
	id, okID := parseID(c, "id")
	if !okID {
		return
	}

	lead, err := h.leadSvc.Get(c.Request.Context(), id)
	if err != nil {
		if err == services.ErrLeadNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "lead not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, lead)
}
