// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Source
// model (inbound channels).
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/leadline/go-crm-backend/internal/domain"
)

// CreateSource inserts a new Source row with the given code and name.
// Returns ErrDuplicate when a source with that code already exists.
func CreateSource(ctx context.Context, db *gorm.DB, code, name string) (*domain.Source, error) {
	s := &domain.Source{
		Code:      code,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return s, nil
}

// FindSourceByCode fetches a source by its unique code.
// Returns ErrNotFound when no such source exists.
func FindSourceByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Source, error) {
	var s domain.Source
	err := db.WithContext(ctx).
		Where("code = ?", code).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSource fetches a source by primary key, or ErrNotFound if missing.
func GetSource(ctx context.Context, db *gorm.DB, id uint) (*domain.Source, error) {
	var s domain.Source
	if err := db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSourcesPage returns a paginated slice of sources ordered by id.
func ListSourcesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Source, error) {
	var out []domain.Source
	err := db.WithContext(ctx).
		Order("id asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountSources returns the total number of sources.
func CountSources(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Source{}).Count(&total).Error
	return total, err
}
