// Package domain defines the persistence models for leads, sources,
// operators, routing weights, and contacts. These types are mapped with GORM
// and form the core data layer of the contact distribution backend.
package domain

import "time"

// Contact status values. A contact is created active and may later be marked
// completed by an external completion event; completed is terminal.
const (
	ContactStatusActive    = "active"
	ContactStatusCompleted = "completed"
)

// Lead represents a prospective customer identified by a stable external key
// (phone number, email, or messenger user id). One Lead exists per distinct
// external id; the row is created lazily on the lead's first contact and is
// never deleted by this service.
type Lead struct {
	ID         uint      `json:"id"          gorm:"primaryKey"`
	ExternalID string    `json:"external_id" gorm:"type:varchar(128);not null;uniqueIndex:ux_leads_external_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Contacts is the lead's contact history, preloaded only where the
	// API returns a detailed lead view.
	Contacts []Contact `json:"contacts,omitempty" gorm:"foreignKey:LeadID"`
}

// TableName returns the database table name for Lead.
func (Lead) TableName() string { return "leads" }

// Source represents an inbound channel (e.g. "bot_telegram") through which
// contacts arrive. The code is the caller-facing unique handle; routing
// configuration is attached per source via OperatorSourceWeight rows.
type Source struct {
	ID        uint      `json:"id"   gorm:"primaryKey"`
	Code      string    `json:"code" gorm:"type:varchar(64);not null;uniqueIndex:ux_sources_code"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Source.
func (Source) TableName() string { return "sources" }

// Operator represents a human agent who handles contacts.
//
// Fields:
//   - IsActive: inactive operators never receive new contacts, regardless of
//     configured weights.
//   - MaxLoad: capacity ceiling on concurrently active contacts (>= 1,
//     enforced at the service boundary).
type Operator struct {
	ID        uint      `json:"id"        gorm:"primaryKey"`
	Name      string    `json:"name"      gorm:"type:varchar(255);not null"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	MaxLoad   int       `json:"max_load"  gorm:"not null;default:10"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Operator.
func (Operator) TableName() string { return "operators" }

// OperatorSourceWeight is the routing configuration table: one row per
// (operator, source) pair carrying a positive integer weight that sets the
// operator's relative share of new contacts on that source.
//
// The set of rows for a source is only ever replaced wholesale
// (delete-then-insert inside one transaction), never patched row by row, so
// a concurrent reader observes either the old or the new configuration
// generation in full.
type OperatorSourceWeight struct {
	ID         uint `json:"id"          gorm:"primaryKey"`
	OperatorID uint `json:"operator_id" gorm:"not null;uniqueIndex:ux_operator_source,priority:1"`
	SourceID   uint `json:"source_id"   gorm:"not null;uniqueIndex:ux_operator_source,priority:2"`
	Weight     int  `json:"weight"      gorm:"not null;default:1"`

	// Operator is joined by the eligibility query; weight rows are
	// cascade-deleted when their operator or source is removed.
	Operator Operator `json:"operator,omitempty" gorm:"foreignKey:OperatorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Source   Source   `json:"-"                  gorm:"foreignKey:SourceID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for OperatorSourceWeight.
func (OperatorSourceWeight) TableName() string { return "operator_source_weights" }

// Contact represents one instance of a lead reaching out via a source.
// OperatorID is nullable: "unassigned" is a valid terminal outcome when no
// eligible operator has spare capacity, not an error.
//
// Status transitions active -> completed exactly once; only active contacts
// count toward an operator's load. CreatedAt is set at creation and is
// immutable thereafter.
type Contact struct {
	ID         uint      `json:"id"          gorm:"primaryKey"`
	LeadID     uint      `json:"lead_id"     gorm:"not null;index:idx_contacts_lead"`
	SourceID   uint      `json:"source_id"   gorm:"not null;index:idx_contacts_source"`
	OperatorID *uint     `json:"operator_id" gorm:"index:idx_contacts_operator_status,priority:1"`
	Status     string    `json:"status"      gorm:"type:varchar(16);not null;default:'active';check:status IN ('active','completed');index:idx_contacts_operator_status,priority:2"`
	Message    string    `json:"message,omitempty" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Lead     Lead      `json:"-" gorm:"foreignKey:LeadID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Source   Source    `json:"-" gorm:"foreignKey:SourceID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Operator *Operator `json:"-" gorm:"foreignKey:OperatorID;references:ID"`
}

// TableName returns the database table name for Contact.
func (Contact) TableName() string { return "contacts" }
