// Source HTTP handlers.
//
// This file exposes REST endpoints for inbound channels and their routing
// configuration:
//   - POST /sources                 (create; code must be unique)
//   - GET  /sources                 (list, paginated)
//   - GET  /sources/{id}            (fetch one)
//   - POST /sources/{id}/operators  (replace the full weight set)
//   - GET  /sources/{id}/operators  (current weight rows)
//
// The weight-replacement endpoint is the only write path into the routing
// configuration: it swaps the entire set atomically, so distribution readers
// always see one consistent configuration generation.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/leadline/go-crm-backend/internal/domain"
	"github.com/leadline/go-crm-backend/internal/repo"
	"github.com/leadline/go-crm-backend/internal/services"
)

//
// DTOs
//

// CreateSourceRequest is the JSON payload for creating a source.
type CreateSourceRequest struct {
	// Code is the unique channel handle used by contact registrations.
	Code string `json:"code" binding:"required,min=1,max=64" example:"bot_telegram"`
	// Name is the human-readable channel name.
	Name string `json:"name" binding:"required,min=1,max=255" example:"Telegram bot"`
}

// OperatorWeightEntry is one element of a routing configuration.
type OperatorWeightEntry struct {
	// OperatorID references an existing operator.
	OperatorID uint `json:"operator_id" binding:"required,min=1" example:"3"`
	// Weight is the operator's relative share (>= 1).
	Weight int `json:"weight" binding:"required,min=1" example:"30"`
}

// ReplaceWeightsRequest carries the full weight set for a source. An empty
// list is legal and clears the configuration.
type ReplaceWeightsRequest struct {
	OperatorWeights []OperatorWeightEntry `json:"operator_weights"`
}

// ListSourcesResponse wraps a page of sources and pagination information.
type ListSourcesResponse struct {
	Sources    []domain.Source `json:"sources"`
	Pagination Pagination      `json:"pagination"`
}

//
// Handlers
//

// CreateSource godoc
// @ID          createSource
// @Summary     Create a source
// @Tags        Sources
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateSourceRequest  true  "Source payload"
//
// @Success     201  {object}  domain.Source
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Code already exists"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /sources [post]
func (h *Handlers) CreateSource(c *gin.Context) {
	var req CreateSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "code and name required")
		return
	}

	src, err := h.sourceSvc.Create(c.Request.Context(), req.Code, req.Name)
	if err != nil {
		if err == services.ErrDuplicateSourceCode {
			fail(c, http.StatusConflict, ErrCodeConflict, "source code already exists")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, src)
}

// ListSources godoc
// @ID          listSources
// @Summary     List sources (paginated)
// @Tags        Sources
// @Produce     json
//
// @Param       page       query  int  false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListSourcesResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /sources [get]
func (h *Handlers) ListSources(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.sourceSvc.ListPage(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, ListSourcesResponse{
		Sources:    items,
		Pagination: paginationOf(page, pageSize, total),
	})
}

// GetSource godoc
// @ID          getSource
// @Summary     Fetch a source
// @Tags        Sources
// @Produce     json
//
// @Param       id  path  int  true  "Source ID"  minimum(1)
//
// @Success     200  {object} domain.Source
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Source not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /sources/{id} [get]
func (h *Handlers) GetSource(c *gin.Context) {
	id, okID := parseID(c, "id")
	if !okID {
		return
	}

	src, err := h.sourceSvc.Get(c.Request.Context(), id)
	if err != nil {
		if err == services.ErrSourceNotFound {
			fail(c, http.StatusNotFound, ErrCodeSourceNotFound, "source not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, src)
}

// ReplaceSourceWeights godoc
// @ID          replaceSourceWeights
// @Summary     Replace a source's operator weights
// @Description Deletes the source's existing weight rows and installs the given
// @Description set in one transaction. Idempotent: applying the same set twice
// @Description leaves exactly those rows.
// @Tags        Sources
// @Accept      json
// @Produce     json
//
// @Param       id    path  int  true  "Source ID"  minimum(1)
// @Param       body  body  handlers.ReplaceWeightsRequest  true  "Full weight set"
//
// @Success     200  {array}  domain.OperatorSourceWeight
// @Failure     400  {object} handlers.ErrorResponse "Bad request / invalid weight"
// @Failure     404  {object} handlers.ErrorResponse "Source or operator not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /sources/{id}/operators [post]
func (h *Handlers) ReplaceSourceWeights(c *gin.Context) {
	id, okID := parseID(c, "id")
	if !okID {
		return
	}

	var req ReplaceWeightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	entries := make([]repo.WeightEntry, 0, len(req.OperatorWeights))
	for _, w := range req.OperatorWeights {
		entries = append(entries, repo.WeightEntry{OperatorID: w.OperatorID, Weight: w.Weight})
	}

	rows, err := h.sourceSvc.ReplaceWeights(c.Request.Context(), id, entries)
	if err != nil {
		switch err {
		case services.ErrSourceNotFound:
			fail(c, http.StatusNotFound, ErrCodeSourceNotFound, "source not found")
		case services.ErrOperatorNotFound:
			fail(c, http.StatusNotFound, ErrCodeOperatorNotFound, "operator not found")
		case services.ErrInvalidWeight:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, rows)
}

// ListSourceWeights godoc
// @ID          listSourceWeights
// @Summary     List a source's operator weights
// @Tags        Sources
// @Produce     json
//
// @Param       id  path  int  true  "Source ID"  minimum(1)
//
// @Success     200  {array}  domain.OperatorSourceWeight
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Source not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /sources/{id}/operators [get]
func (h *Handlers) ListSourceWeights(c *gin.Context) {
	id, okID := parseID(c, "id")
	if !okID {
		return
	}

	rows, err := h.sourceSvc.Weights(c.Request.Context(), id)
	if err != nil {
		if err == services.ErrSourceNotFound {
			fail(c, http.StatusNotFound, ErrCodeSourceNotFound, "source not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, rows)
}
