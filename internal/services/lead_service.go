// Package services – LeadService
//
// This file implements the LeadService, which owns lead identity: mapping a
// caller-supplied external id (phone, email, bot user id) to a stable Lead
// row, creating one lazily on first contact. Resolution is safe to call
// repeatedly and concurrently for the same external id; the unique constraint
// on external_id is the backstop, and a lost insert race is resolved by
// re-fetching the winner's row rather than surfacing an error.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/leadline/go-crm-backend/internal/domain"
	"github.com/leadline/go-crm-backend/internal/repo"
)

// LeadRepo defines the repository contract required by LeadService.
type LeadRepo interface {
	// FindLeadByExternalID fetches a lead by its external id.
	FindLeadByExternalID(ctx context.Context, db *gorm.DB, externalID string) (*domain.Lead, error)

	// CreateLead inserts a lead row; repo.ErrDuplicate on a lost insert race.
	CreateLead(ctx context.Context, db *gorm.DB, externalID string) (*domain.Lead, error)

	// GetLead fetches a lead by id with its contacts preloaded.
	GetLead(ctx context.Context, db *gorm.DB, id uint) (*domain.Lead, error)

	// CountLeads returns the total for pagination, optionally filtered.
	CountLeads(ctx context.Context, db *gorm.DB, externalID string) (int64, error)

	// ListLeadsPage returns a page of leads, optionally filtered.
	ListLeadsPage(ctx context.Context, db *gorm.DB, externalID string, offset, limit int) ([]domain.Lead, error)
}

// LeadService provides lead resolution and read access to lead history.
type LeadService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the lead repository used by this service.
	Repo LeadRepo
}

// NewLeadService constructs a LeadService.
func NewLeadService(db *gorm.DB, r LeadRepo) *LeadService {
	return &LeadService{DB: db, Repo: r}
}

// Resolve returns the Lead identified by externalID, creating it if absent.
// Repeated calls with the same external id always return the same lead
// identity and never create a second row: when the insert loses a race and
// violates the uniqueness constraint, the existing row is re-fetched and
// returned. Resolution has no side effects beyond lead creation.
func (s *LeadService) Resolve(ctx context.Context, externalID string) (*domain.Lead, error) {
	if externalID == "" {
		return nil, ErrEmptyExternalID
	}

	lead, err := s.Repo.FindLeadByExternalID(ctx, s.DB, externalID)
	if err == nil {
		return lead, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	lead, err = s.Repo.CreateLead(ctx, s.DB, externalID)
	if errors.Is(err, repo.ErrDuplicate) {
		// A concurrent resolve won the insert; its row is the lead.
		return s.Repo.FindLeadByExternalID(ctx, s.DB, externalID)
	}
	return lead, err
}

// Get returns a lead by id with its contact history, or ErrLeadNotFound.
func (s *LeadService) Get(ctx context.Context, id uint) (*domain.Lead, error) {
	lead, err := s.Repo.GetLead(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLeadNotFound
	}
	return lead, err
}

// ListPage returns a page of leads optionally filtered by exact external id,
// applying defaults for invalid page/pageSize, plus the total count.
func (s *LeadService) ListPage(ctx context.Context, externalID string, page, pageSize int) ([]domain.Lead, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountLeads(ctx, s.DB, externalID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Lead{}, 0, nil
	}

	items, err := s.Repo.ListLeadsPage(ctx, s.DB, externalID, offset, pageSize)
	return items, total, err
}
