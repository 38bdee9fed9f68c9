// Operator HTTP handlers.
//
// This file exposes REST endpoints for the operator roster:
//   - POST  /operators        (create)
//   - GET   /operators        (list, paginated)
//   - GET   /operators/{id}   (fetch one)
//   - PATCH /operators/{id}   (partial update: name, is_active, max_load)
//
// Deactivating an operator or lowering its max_load only affects future
// routing decisions; already-assigned active contacts are untouched.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/leadline/go-crm-backend/internal/domain"
	"github.com/leadline/go-crm-backend/internal/services"
)

//
// DTOs
//

// CreateOperatorRequest is the JSON payload for creating an operator.
type CreateOperatorRequest struct {
	// Name is the operator's display name.
	Name string `json:"name" binding:"required,min=1,max=255" example:"Alice Novak"`
	// IsActive controls routing eligibility; defaults to true.
	IsActive *bool `json:"is_active" example:"true"`
	// MaxLoad caps concurrently active contacts; defaults to 10.
	MaxLoad *int `json:"max_load" example:"10"`
}

// UpdateOperatorRequest is the JSON payload for a partial operator update.
// Absent fields are left unchanged.
type UpdateOperatorRequest struct {
	Name     *string `json:"name" example:"Alice N."`
	IsActive *bool   `json:"is_active" example:"false"`
	MaxLoad  *int    `json:"max_load" example:"15"`
}

// ListOperatorsResponse wraps a page of operators and pagination information.
type ListOperatorsResponse struct {
	Operators  []domain.Operator `json:"operators"`
	Pagination Pagination        `json:"pagination"`
}

//
// Handlers
//

// CreateOperator godoc
// @ID          createOperator
// @Summary     Create an operator
// @Tags        Operators
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateOperatorRequest  true  "Operator payload"
//
// @Success     201  {object}  domain.Operator
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /operators [post]
func (h *Handlers) CreateOperator(c *gin.Context) {
	var req CreateOperatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name required")
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	maxLoad := 10
	if req.MaxLoad != nil {
		maxLoad = *req.MaxLoad
	}

	op, err := h.operatorSvc.Create(c.Request.Context(), req.Name, isActive, maxLoad)
	if err != nil {
		if err == services.ErrInvalidMaxLoad {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, op)
}

// ListOperators godoc
// @ID          listOperators
// @Summary     List operators (paginated)
// @Tags        Operators
// @Produce     json
//
// @Param       page       query  int  false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListOperatorsResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /operators [get]
func (h *Handlers) ListOperators(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.operatorSvc.ListPage(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, ListOperatorsResponse{
		Operators:  items,
		Pagination: paginationOf(page, pageSize, total),
	})
}

// GetOperator godoc
// @ID          getOperator
// @Summary     Fetch an operator
// @Tags        Operators
// @Produce     json
//
// @Param       id  path  int  true  "Operator ID"  minimum(1)
//
// @Success     200  {object} domain.Operator
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Operator not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /operators/{id} [get]
func (h *Handlers) GetOperator(c *gin.Context) {
	id, okID := parseID(c, "id")
	if !okID {
		return
	}

	op, err := h.operatorSvc.Get(c.Request.Context(), id)
	if err != nil {
		if err == services.ErrOperatorNotFound {
			fail(c, http.StatusNotFound, ErrCodeOperatorNotFound, "operator not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, op)
}

// UpdateOperator godoc
// @ID          updateOperator
// @Summary     Update an operator
// @Description Partial update of name, activity flag, and load ceiling.
// @Tags        Operators
// @Accept      json
// @Produce     json
//
// @Param       id    path  int  true  "Operator ID"  minimum(1)
// @Param       body  body  handlers.UpdateOperatorRequest  true  "Fields to update"
//
// @Success     200  {object} domain.Operator
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Operator not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /operators/{id} [patch]
func (h *Handlers) UpdateOperator(c *gin.Context) {
	id, okID := parseID(c, "id")
	if !okID {
		return
	}

	var req UpdateOperatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	op, err := h.operatorSvc.Update(c.Request.Context(), id, services.OperatorUpdate{
		Name:     req.Name,
		IsActive: req.IsActive,
		MaxLoad:  req.MaxLoad,
	})
	if err != nil {
		switch err {
		case services.ErrOperatorNotFound:
			fail(c, http.StatusNotFound, ErrCodeOperatorNotFound, "operator not found")
		case services.ErrInvalidMaxLoad:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, op)
}
