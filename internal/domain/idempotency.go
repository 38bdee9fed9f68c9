// Package domain defines the core persistence models for the application.
// These types are used by GORM for database schema mapping and are shared
// across the repository and service layers.
package domain

import "time"

// Idempotency represents a recorded result of a previously processed contact
// registration, keyed by (external_id, source_code, key). It enables safe
// retries of POST /contacts: a replayed request returns the originally
// created contact instead of distributing a second one.
type Idempotency struct {
	ID         string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	ExternalID string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_ext_source_key,priority:1"`
	SourceCode string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_ext_source_key,priority:2"`
	Key        string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_ext_source_key,priority:3"`
	ContactID  uint      `gorm:"not null"`
	Status     int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt  time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt  time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
