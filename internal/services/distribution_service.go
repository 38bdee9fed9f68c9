// Package services – DistributionService
//
// This file implements DistributionService, the application-level component
// that routes an incoming contact to an operator. It sequences lead
// resolution, source validation, eligibility filtering, capacity pruning, a
// weighted probabilistic pick, and a final capacity re-check into one
// decision, then persists the resulting contact (assigned or unassigned).
//
// Concurrency model: each Distribute call performs its own reads and one
// insert against the shared store; there is no cross-request lock and no
// transaction spanning the read-candidates → pick → write sequence. Two
// concurrent calls may observe the same load snapshot and both select the
// same operator; the re-check immediately before commit shrinks that window
// but does not close it. Rare, small overshoot is an accepted trade-off,
// preferred over serializing every distribution through a global lock.
//
// Observability: Distribute is OpenTelemetry-instrumented and records the
// outcome (assigned/unassigned) in Prometheus counters.
package services

import (
	"context"
	"errors"
	"math/rand/v2"

	"gorm.io/gorm"

	"github.com/leadline/go-crm-backend/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Candidate pairs an eligible operator with its configured weight for the
// source being distributed.
type Candidate struct {
	Operator domain.Operator
	Weight   int
}

// DistributionRepo defines the persistence contract required by
// DistributionService. Lead resolution goes through LeadService instead.
type DistributionRepo interface {
	// FindSourceByCode fetches a source by its unique code.
	FindSourceByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Source, error)

	// ListWeightsForSource returns the source's weight rows with operators
	// joined, in stable row order.
	ListWeightsForSource(ctx context.Context, db *gorm.DB, sourceID uint) ([]domain.OperatorSourceWeight, error)

	// CountActiveContacts returns the operator's current load.
	CountActiveContacts(ctx context.Context, db *gorm.DB, operatorID uint) (int, error)

	// CreateContact inserts the resulting contact row.
	CreateContact(ctx context.Context, db *gorm.DB, leadID, sourceID uint, operatorID *uint, message string) (*domain.Contact, error)
}

// DistributionService makes the contact routing decision.
type DistributionService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the distribution repository used by this service.
	Repo DistributionRepo
	// Leads resolves external ids to lead rows.
	Leads *LeadService

	// Rand returns a uniform draw in [0,1). Injected so tests can substitute
	// a deterministic source to assert exact tie-break behavior.
	Rand func() float64
}

// NewDistributionService constructs a DistributionService with the default
// randomness source.
func NewDistributionService(db *gorm.DB, r DistributionRepo, leads *LeadService) *DistributionService {
	return &DistributionService{
		DB:    db,
		Repo:  r,
		Leads: leads,
		Rand:  rand.Float64,
	}
}

// Candidates computes the eligible operator set for sourceID: every weight
// row for the source whose operator is active. Operators with no weight row
// are never candidates; configuration is opt-in per source. Row order is
// preserved so the selector's tie-break behavior is reproducible.
//
// Load is not consulted here; capacity pruning is a separate guard step.
func (s *DistributionService) Candidates(ctx context.Context, sourceID uint) ([]Candidate, error) {
	rows, err := s.Repo.ListWeightsForSource(ctx, s.DB, sourceID)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		if !row.Operator.IsActive {
			continue
		}
		out = append(out, Candidate{Operator: row.Operator, Weight: row.Weight})
	}
	return out, nil
}

// CurrentLoad returns the operator's count of active contacts.
func (s *DistributionService) CurrentLoad(ctx context.Context, operatorID uint) (int, error) {
	return s.Repo.CountActiveContacts(ctx, s.DB, operatorID)
}

// underCapacity reports whether the operator can take one more active contact.
func (s *DistributionService) underCapacity(ctx context.Context, op *domain.Operator) (bool, error) {
	load, err := s.CurrentLoad(ctx, op.ID)
	if err != nil {
		return false, err
	}
	return load < op.MaxLoad, nil
}

// pickOperator performs a single probabilistic pick over the candidate list.
//
// Let total be the sum of weights. A uniform r in [0,total) is drawn and the
// list is walked in the order given, accumulating weights; the first operator
// whose running sum is >= r wins, which realizes selection probability
// weight/total. Empty input returns nil; so does a zero total, which is
// unreachable under correct input since weights are constrained >= 1 at the
// configuration boundary.
//
// The pick mutates no state.
func pickOperator(candidates []Candidate, rnd func() float64) *domain.Operator {
	if len(candidates) == 0 {
		return nil
	}

	total := 0
	for _, c := range candidates {
		total += c.Weight
	}
	if total <= 0 {
		return nil
	}

	r := rnd() * float64(total)

	running := 0.0
	for i := range candidates {
		running += float64(candidates[i].Weight)
		if running >= r {
			return &candidates[i].Operator
		}
	}
	// Unreachable for r < total; guard against float edge cases.
	return &candidates[len(candidates)-1].Operator
}

// Distribute routes one incoming contact: it resolves the lead, validates the
// source, computes the eligible candidate set, prunes operators already at
// capacity, performs the weighted pick, re-checks the picked operator's
// capacity, and persists the contact with the chosen operator or with none.
//
// The lead is resolved before the source code is validated, so an unknown
// source still leaves the (idempotently) resolved lead behind. This matches
// the long-standing behavior callers observe; reordering would be a breaking
// change.
//
// "No operator available" is not an error: the contact is persisted
// unassigned. ErrSourceNotFound is returned for an unknown source code; store
// faults propagate as-is. On any failure before the final insert, nothing is
// persisted (beyond the resolved lead). There are no internal retries: a
// picked operator that lost the capacity race yields an unassigned contact,
// never a re-pick among the remaining candidates.
func (s *DistributionService) Distribute(ctx context.Context, externalID, sourceCode, message string) (*domain.Contact, error) {
	tr := otel.Tracer("services/DistributionService")
	ctx, span := tr.Start(ctx, "Distribute",
		trace.WithAttributes(
			attribute.String("source.code", sourceCode),
		),
	)
	defer span.End()

	// 1. Resolve (or lazily create) the lead.
	lead, err := s.Leads.Resolve(ctx, externalID)
	if err != nil {
		return nil, err
	}

	// 2. Validate the source code.
	source, err := s.Repo.FindSourceByCode(ctx, s.DB, sourceCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSourceNotFound
		}
		return nil, err
	}

	// 3. Eligibility: active operators configured for this source.
	candidates, err := s.Candidates(ctx, source.ID)
	if err != nil {
		return nil, err
	}

	// 4. Prune candidates already at or over their load ceiling.
	available := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		ok, err := s.underCapacity(ctx, &c.Operator)
		if err != nil {
			return nil, err
		}
		if ok {
			available = append(available, c)
		}
	}

	// 5. Weighted pick, then one capacity re-check on the winner. The
	// re-check narrows the window in which two concurrent distributions
	// both saw spare capacity; losing it demotes the pick to unassigned.
	var picked *domain.Operator
	if len(available) > 0 {
		picked = pickOperator(available, s.Rand)
		if picked != nil {
			ok, err := s.underCapacity(ctx, picked)
			if err != nil {
				return nil, err
			}
			if !ok {
				picked = nil
			}
		}
	}

	// 6. Persist the contact, assigned or not.
	var operatorID *uint
	if picked != nil {
		operatorID = &picked.ID
	}
	contact, err := s.Repo.CreateContact(ctx, s.DB, lead.ID, source.ID, operatorID, message)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("distribution.candidates", len(candidates)),
		attribute.Int("distribution.available", len(available)),
		attribute.Bool("distribution.assigned", picked != nil),
	)
	observeDistribution(sourceCode, picked != nil, len(available))

	return contact, nil
}
