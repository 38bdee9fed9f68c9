// Package services – ContactService
//
// Read access to contacts plus the completion transition. Completion is the
// external collaborator surface the distribution core relies on: marking a
// contact completed is what frees its operator's capacity. The only legal
// transition is active -> completed; completed is terminal.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/leadline/go-crm-backend/internal/domain"
	"github.com/leadline/go-crm-backend/internal/repo"
)

// ContactRepo defines the repository contract required by ContactService.
type ContactRepo interface {
	// GetContact fetches a contact by id.
	GetContact(ctx context.Context, db *gorm.DB, id uint) (*domain.Contact, error)

	// CountContacts returns the filtered total for pagination.
	CountContacts(ctx context.Context, db *gorm.DB, f repo.ContactFilter) (int64, error)

	// ListContactsPage returns a filtered page of contacts.
	ListContactsPage(ctx context.Context, db *gorm.DB, f repo.ContactFilter, offset, limit int) ([]domain.Contact, error)

	// CompleteContact flips an active contact to completed.
	CompleteContact(ctx context.Context, db *gorm.DB, id uint) error
}

// ContactService provides contact reads and the completion transition.
type ContactService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the contact repository used by this service.
	Repo ContactRepo
}

// NewContactService constructs a ContactService.
func NewContactService(db *gorm.DB, r ContactRepo) *ContactService {
	return &ContactService{DB: db, Repo: r}
}

// Get returns a contact by id, or ErrContactNotFound.
func (s *ContactService) Get(ctx context.Context, id uint) (*domain.Contact, error) {
	c, err := s.Repo.GetContact(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrContactNotFound
	}
	return c, err
}

// ListPage returns a filtered page of contacts and the total count, applying
// defaults for invalid page/pageSize.
func (s *ContactService) ListPage(ctx context.Context, f repo.ContactFilter, page, pageSize int) ([]domain.Contact, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountContacts(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Contact{}, 0, nil
	}

	items, err := s.Repo.ListContactsPage(ctx, s.DB, f, offset, pageSize)
	return items, total, err
}

// Complete marks an active contact completed, freeing its operator's
// capacity for new assignments. ErrContactNotFound when the contact does not
// exist; ErrContactNotActive when it exists but was already completed.
func (s *ContactService) Complete(ctx context.Context, id uint) (*domain.Contact, error) {
	err := s.Repo.CompleteContact(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Distinguish "missing" from "already completed".
		if _, getErr := s.Repo.GetContact(ctx, s.DB, id); getErr == nil {
			return nil, ErrContactNotActive
		}
		return nil, ErrContactNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}
