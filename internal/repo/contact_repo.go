// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Contact
// model, including the active-load count that the capacity guard consults.
//
// Error semantics follow the other repositories: ErrNotFound for missing
// rows, raw gorm errors otherwise.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/leadline/go-crm-backend/internal/domain"
)

// ContactFilter narrows contact list queries. Zero-valued fields are ignored.
type ContactFilter struct {
	OperatorID uint
	SourceID   uint
	LeadID     uint
}

// apply composes the filter's WHERE clauses onto q.
func (f ContactFilter) apply(q *gorm.DB) *gorm.DB {
	if f.OperatorID != 0 {
		q = q.Where("operator_id = ?", f.OperatorID)
	}
	if f.SourceID != 0 {
		q = q.Where("source_id = ?", f.SourceID)
	}
	if f.LeadID != 0 {
		q = q.Where("lead_id = ?", f.LeadID)
	}
	return q
}

// CreateContact inserts a new active Contact referencing the lead, the
// source, and the possibly-nil chosen operator. CreatedAt is set to UTC and
// never updated afterwards.
func CreateContact(ctx context.Context, db *gorm.DB, leadID, sourceID uint, operatorID *uint, message string) (*domain.Contact, error) {
	c := &domain.Contact{
		LeadID:     leadID,
		SourceID:   sourceID,
		OperatorID: operatorID,
		Status:     domain.ContactStatusActive,
		Message:    message,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetContact fetches a contact by primary key, or ErrNotFound if missing.
func GetContact(ctx context.Context, db *gorm.DB, id uint) (*domain.Contact, error) {
	var c domain.Contact
	if err := db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// CountActiveContacts returns the operator's current load: the number of its
// contacts still in the active status. Completed contacts never count.
func CountActiveContacts(ctx context.Context, db *gorm.DB, operatorID uint) (int, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Contact{}).
		Where("operator_id = ? AND status = ?", operatorID, domain.ContactStatusActive).
		Count(&total).Error
	return int(total), err
}

// CountContacts returns the total number of contacts matching the filter.
func CountContacts(ctx context.Context, db *gorm.DB, f ContactFilter) (int64, error) {
	var total int64
	err := f.apply(db.WithContext(ctx).Model(&domain.Contact{})).Count(&total).Error
	return total, err
}

// ListContactsPage returns a paginated slice of contacts matching the filter,
// ordered by creation time descending (most recent first).
func ListContactsPage(ctx context.Context, db *gorm.DB, f ContactFilter, offset, limit int) ([]domain.Contact, error) {
	var out []domain.Contact
	err := f.apply(db.WithContext(ctx)).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CompleteContact transitions a contact from active to completed. If no rows
// are affected (contact missing or already completed), it returns
// ErrNotFound; the service layer distinguishes the two cases.
func CompleteContact(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).
		Model(&domain.Contact{}).
		Where("id = ? AND status = ?", id, domain.ContactStatusActive).
		Update("status", domain.ContactStatusCompleted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
