// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Lead model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a lead is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - A Lead insert that loses the find-or-create race against a concurrent
//     insert of the same external id surfaces as ErrDuplicate, which the
//     lead service resolves by re-fetching the winner's row.
//   - On other DB errors, the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/leadline/go-crm-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates a unique-constraint violation on insert (duplicate
// lead external id, source code, weight pair, or idempotency key).
var ErrDuplicate = errors.New("duplicate")

// isUniqueViolation reports whether err is a unique-constraint failure.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations,
// so the message is inspected in addition to gorm's sentinel.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}

// CreateLead inserts a new Lead row with the given external id.
// Returns ErrDuplicate when a lead with that external id already exists.
func CreateLead(ctx context.Context, db *gorm.DB, externalID string) (*domain.Lead, error) {
	l := &domain.Lead{
		ExternalID: externalID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(l).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return l, nil
}

// FindLeadByExternalID fetches a lead by its caller-supplied external id.
// Returns ErrNotFound when no such lead exists.
func FindLeadByExternalID(ctx context.Context, db *gorm.DB, externalID string) (*domain.Lead, error) {
	var l domain.Lead
	err := db.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetLead fetches a lead by primary key with its contact history preloaded,
// ordered oldest first. Returns ErrNotFound when the lead does not exist.
func GetLead(ctx context.Context, db *gorm.DB, id uint) (*domain.Lead, error) {
	var l domain.Lead
	err := db.WithContext(ctx).
		Preload("Contacts", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at asc")
		}).
		First(&l, id).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// CountLeads returns the total number of leads, optionally filtered by an
// exact external id. On DB error, it returns the error.
func CountLeads(ctx context.Context, db *gorm.DB, externalID string) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.Lead{})
	if externalID != "" {
		q = q.Where("external_id = ?", externalID)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// ListLeadsPage returns a paginated slice of leads ordered by creation time
// descending, optionally filtered by exact external id. Use CountLeads to
// obtain the total for pagination metadata.
func ListLeadsPage(ctx context.Context, db *gorm.DB, externalID string, offset, limit int) ([]domain.Lead, error) {
	q := db.WithContext(ctx).Model(&domain.Lead{})
	if externalID != "" {
		q = q.Where("external_id = ?", externalID)
	}
	var out []domain.Lead
	err := q.Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
