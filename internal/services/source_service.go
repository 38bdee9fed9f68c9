// Package services – SourceService
//
// This file implements the SourceService, which manages inbound channels and
// their routing configuration. Weight sets are replaced wholesale per source:
// the service validates every referenced operator and weight first, then
// hands the full set to the repository, which deletes and inserts inside one
// transaction. Nothing on the distribution path ever mutates weight rows.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/leadline/go-crm-backend/internal/domain"
	"github.com/leadline/go-crm-backend/internal/repo"
)

// SourceRepo defines the repository contract required by SourceService.
type SourceRepo interface {
	// CreateSource inserts a source; repo.ErrDuplicate on a taken code.
	CreateSource(ctx context.Context, db *gorm.DB, code, name string) (*domain.Source, error)

	// GetSource fetches a source by id.
	GetSource(ctx context.Context, db *gorm.DB, id uint) (*domain.Source, error)

	// ListSourcesPage returns a page of sources.
	ListSourcesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Source, error)

	// CountSources returns the total number of sources for pagination.
	CountSources(ctx context.Context, db *gorm.DB) (int64, error)

	// GetOperator verifies a referenced operator exists.
	GetOperator(ctx context.Context, db *gorm.DB, id uint) (*domain.Operator, error)

	// ListWeightsForSource returns the source's current weight rows.
	ListWeightsForSource(ctx context.Context, db *gorm.DB, sourceID uint) ([]domain.OperatorSourceWeight, error)

	// ReplaceWeights swaps the source's weight set in one transaction.
	ReplaceWeights(ctx context.Context, db *gorm.DB, sourceID uint, entries []repo.WeightEntry) ([]domain.OperatorSourceWeight, error)
}

// SourceService provides source and routing-configuration operations.
type SourceService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the source repository used by this service.
	Repo SourceRepo
}

// NewSourceService constructs a SourceService.
func NewSourceService(db *gorm.DB, r SourceRepo) *SourceService {
	return &SourceService{DB: db, Repo: r}
}

// Create inserts a new source. Codes are trimmed and must be unique;
// ErrDuplicateSourceCode when the code is already taken.
func (s *SourceService) Create(ctx context.Context, code, name string) (*domain.Source, error) {
	src, err := s.Repo.CreateSource(ctx, s.DB, strings.TrimSpace(code), strings.TrimSpace(name))
	if errors.Is(err, repo.ErrDuplicate) {
		return nil, ErrDuplicateSourceCode
	}
	return src, err
}

// Get returns a source by id, or ErrSourceNotFound.
func (s *SourceService) Get(ctx context.Context, id uint) (*domain.Source, error) {
	src, err := s.Repo.GetSource(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSourceNotFound
	}
	return src, err
}

// ListPage returns a page of sources and the total count, applying defaults
// for invalid page/pageSize.
func (s *SourceService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Source, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountSources(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Source{}, 0, nil
	}

	items, err := s.Repo.ListSourcesPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// Weights returns the current weight rows for a source, with operators
// joined. ErrSourceNotFound when the source does not exist.
func (s *SourceService) Weights(ctx context.Context, sourceID uint) ([]domain.OperatorSourceWeight, error) {
	if _, err := s.Get(ctx, sourceID); err != nil {
		return nil, err
	}
	return s.Repo.ListWeightsForSource(ctx, s.DB, sourceID)
}

// ReplaceWeights validates and installs a full routing configuration for the
// source, replacing whatever was there before. Validation rules:
//   - the source must exist (ErrSourceNotFound),
//   - every weight must be >= 1 (ErrInvalidWeight),
//   - every referenced operator must exist (ErrOperatorNotFound).
//
// The operation is idempotent: applying the same set twice leaves exactly
// those rows. An empty set is legal and removes the source's configuration,
// after which every new contact on it goes unassigned.
func (s *SourceService) ReplaceWeights(ctx context.Context, sourceID uint, entries []repo.WeightEntry) ([]domain.OperatorSourceWeight, error) {
	if _, err := s.Get(ctx, sourceID); err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Weight < 1 {
			return nil, ErrInvalidWeight
		}
		if _, err := s.Repo.GetOperator(ctx, s.DB, e.OperatorID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrOperatorNotFound
			}
			return nil, err
		}
	}
	return s.Repo.ReplaceWeights(ctx, s.DB, sourceID, entries)
}
