// Package services – OperatorService
//
// This file implements the OperatorService, which manages the operator
// roster: creation, paginated listing, and partial updates of name, activity
// flag, and load ceiling. The max_load >= 1 rule is enforced here so the
// distribution path can rely on it.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/leadline/go-crm-backend/internal/domain"
)

// OperatorRepo defines the repository contract required by OperatorService.
type OperatorRepo interface {
	// CreateOperator inserts a new operator row.
	CreateOperator(ctx context.Context, db *gorm.DB, name string, isActive bool, maxLoad int) (*domain.Operator, error)

	// GetOperator fetches an operator by id.
	GetOperator(ctx context.Context, db *gorm.DB, id uint) (*domain.Operator, error)

	// ListOperatorsPage returns a page of operators.
	ListOperatorsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Operator, error)

	// CountOperators returns the total number of operators for pagination.
	CountOperators(ctx context.Context, db *gorm.DB) (int64, error)

	// UpdateOperator applies a partial column update.
	UpdateOperator(ctx context.Context, db *gorm.DB, id uint, fields map[string]any) error
}

// OperatorUpdate carries the optional fields of a partial operator update.
// Nil fields are left untouched.
type OperatorUpdate struct {
	Name     *string
	IsActive *bool
	MaxLoad  *int
}

// OperatorService provides operator roster operations.
type OperatorService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the operator repository used by this service.
	Repo OperatorRepo
}

// NewOperatorService constructs an OperatorService.
func NewOperatorService(db *gorm.DB, r OperatorRepo) *OperatorService {
	return &OperatorService{DB: db, Repo: r}
}

// Create inserts a new operator. The name is trimmed; maxLoad must be >= 1.
func (s *OperatorService) Create(ctx context.Context, name string, isActive bool, maxLoad int) (*domain.Operator, error) {
	if maxLoad < 1 {
		return nil, ErrInvalidMaxLoad
	}
	return s.Repo.CreateOperator(ctx, s.DB, strings.TrimSpace(name), isActive, maxLoad)
}

// Get returns an operator by id, or ErrOperatorNotFound.
func (s *OperatorService) Get(ctx context.Context, id uint) (*domain.Operator, error) {
	op, err := s.Repo.GetOperator(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOperatorNotFound
	}
	return op, err
}

// ListPage returns a page of operators and the total count, applying
// defaults for invalid page/pageSize.
func (s *OperatorService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Operator, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountOperators(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Operator{}, 0, nil
	}

	items, err := s.Repo.ListOperatorsPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// Update applies a partial update (name, activity, load ceiling) and returns
// the refreshed operator. ErrInvalidMaxLoad when the new ceiling is < 1;
// ErrOperatorNotFound when the operator does not exist. Lowering max_load
// below an operator's current load is allowed: it only stops new
// assignments, existing active contacts are untouched.
func (s *OperatorService) Update(ctx context.Context, id uint, upd OperatorUpdate) (*domain.Operator, error) {
	fields := map[string]any{}
	if upd.Name != nil {
		fields["name"] = strings.TrimSpace(*upd.Name)
	}
	if upd.IsActive != nil {
		fields["is_active"] = *upd.IsActive
	}
	if upd.MaxLoad != nil {
		if *upd.MaxLoad < 1 {
			return nil, ErrInvalidMaxLoad
		}
		fields["max_load"] = *upd.MaxLoad
	}

	if len(fields) > 0 {
		if err := s.Repo.UpdateOperator(ctx, s.DB, id, fields); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrOperatorNotFound
			}
			return nil, err
		}
	}
	return s.Get(ctx, id)
}
