// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// OperatorSourceWeight routing configuration table.
//
// The weight set for a source is only ever rewritten wholesale: ReplaceWeights
// deletes the existing rows and inserts the new set inside one transaction, so
// a concurrent distribution observes either the previous or the next
// configuration generation, never a partial mix.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/leadline/go-crm-backend/internal/domain"
)

// WeightEntry is one (operator, weight) element of a source configuration.
type WeightEntry struct {
	OperatorID uint
	Weight     int
}

// ListWeightsForSource returns all weight rows for sourceID with their
// operators joined, ordered by row id. The stable order matters to the
// selector's tie-break behavior in tests.
func ListWeightsForSource(ctx context.Context, db *gorm.DB, sourceID uint) ([]domain.OperatorSourceWeight, error) {
	var out []domain.OperatorSourceWeight
	err := db.WithContext(ctx).
		Preload("Operator").
		Where("source_id = ?", sourceID).
		Order("id asc").
		Find(&out).Error
	return out, err
}

// ReplaceWeights deletes every weight row for sourceID and inserts the given
// entries in their place, all inside a single transaction. Calling it twice
// with the same set leaves exactly those rows: no duplicates, no leftovers.
//
// Referential validity of operator ids is the caller's concern (the source
// service verifies each operator exists before invoking this).
func ReplaceWeights(ctx context.Context, db *gorm.DB, sourceID uint, entries []WeightEntry) ([]domain.OperatorSourceWeight, error) {
	rows := make([]domain.OperatorSourceWeight, 0, len(entries))
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("source_id = ?", sourceID).
			Delete(&domain.OperatorSourceWeight{}).Error; err != nil {
			return err
		}
		for _, e := range entries {
			row := domain.OperatorSourceWeight{
				OperatorID: e.OperatorID,
				SourceID:   sourceID,
				Weight:     e.Weight,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
