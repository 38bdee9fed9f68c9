// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Operator
// model.
//
// Functions:
//
//   - CreateOperator(ctx, db, name, isActive, maxLoad) -> *domain.Operator, error
//     Inserts a new Operator row with UTC timestamp.
//
//   - GetOperator(ctx, db, id) -> *domain.Operator, error
//     Fetches a single operator by ID, or ErrNotFound if missing.
//
//   - ListOperatorsPage(ctx, db, offset, limit) -> []domain.Operator, error
//     Returns a paginated slice of operators ordered by id.
//
//   - UpdateOperator(ctx, db, id, fields) -> error
//     Applies a partial update (name, is_active, max_load); ErrNotFound when
//     no row was touched.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/leadline/go-crm-backend/internal/domain"
)

// CreateOperator inserts a new Operator row.
func CreateOperator(ctx context.Context, db *gorm.DB, name string, isActive bool, maxLoad int) (*domain.Operator, error) {
	op := &domain.Operator{
		Name:      name,
		IsActive:  isActive,
		MaxLoad:   maxLoad,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(op).Error; err != nil {
		return nil, err
	}
	return op, nil
}

// GetOperator fetches a single operator by its ID, or ErrNotFound if missing.
func GetOperator(ctx context.Context, db *gorm.DB, id uint) (*domain.Operator, error) {
	var op domain.Operator
	if err := db.WithContext(ctx).First(&op, id).Error; err != nil {
		return nil, err
	}
	return &op, nil
}

// ListOperatorsPage returns a paginated slice of operators ordered by id.
func ListOperatorsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Operator, error) {
	var out []domain.Operator
	err := db.WithContext(ctx).
		Order("id asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountOperators returns the total number of operators.
func CountOperators(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Operator{}).Count(&total).Error
	return total, err
}

// UpdateOperator applies a partial update to the operator identified by id.
// The fields map uses column names (name, is_active, max_load). If no rows
// are affected (operator missing), it returns ErrNotFound. On DB error, the
// raw error is returned.
func UpdateOperator(ctx context.Context, db *gorm.DB, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := db.WithContext(ctx).
		Model(&domain.Operator{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
