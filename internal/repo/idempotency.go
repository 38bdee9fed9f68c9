// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the Idempotency
// model used to implement safe-retry semantics for contact registration.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leadline/go-crm-backend/internal/domain"
)

// GetIdempotency returns a non-expired record for (externalID, sourceCode,
// key) or ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, externalID, sourceCode, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(externalID) == "" || strings.TrimSpace(sourceCode) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("external_id = ? AND source_code = ? AND key = ? AND expires_at > ?", externalID, sourceCode, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &rec, err
}

// HasIdempotencyKey reports whether any non-expired record exists with the
// given key, regardless of registration identity. Used by the middleware to
// flag probable replays for rate-limit bypass; handlers perform the precise
// (external_id, source_code, key) lookup.
func HasIdempotencyKey(ctx context.Context, db *gorm.DB, key string, now time.Time) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Idempotency{}).
		Where("key = ? AND expires_at > ?", key, now).
		Count(&n).Error
	return n > 0, err
}

// CreateIdempotency inserts a record pointing at the contact produced by the
// original request and returns ErrDuplicate on unique violation.
func CreateIdempotency(ctx context.Context, db *gorm.DB, externalID, sourceCode, key string, contactID uint, status int, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	rec := &domain.Idempotency{
		ID:         uuid.NewString(),
		ExternalID: externalID,
		SourceCode: sourceCode,
		Key:        key,
		ContactID:  contactID,
		Status:     status,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}
