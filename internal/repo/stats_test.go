package repo

import (
	"context"
	"testing"
	"time"

	"github.com/leadline/go-crm-backend/internal/domain"
)

func TestContactsStats_EmptyReturnsNilTimestamp(t *testing.T) {
	db := newRepoDB(t, &domain.Contact{})

	count, maxTS, err := ContactsStats(context.Background(), db, ContactFilter{})
	if err != nil {
		t.Fatalf("ContactsStats: %v", err)
	}
	if count != 0 || maxTS != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, maxTS)
	}
}

func TestContactsStats_CountAndLatestTimestamp(t *testing.T) {
	db := newRepoDB(t, &domain.Contact{})

	t1 := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	op := uint(1)
	for _, ts := range []time.Time{t1, t2} {
		c := domain.Contact{LeadID: 1, SourceID: 1, OperatorID: &op, Status: domain.ContactStatusActive, UpdatedAt: ts}
		if err := db.Create(&c).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	count, maxTS, err := ContactsStats(context.Background(), db, ContactFilter{OperatorID: 1})
	if err != nil {
		t.Fatalf("ContactsStats: %v", err)
	}
	if count != 2 || maxTS == nil {
		t.Fatalf("unexpected stats: count=%d maxTS=%v", count, maxTS)
	}
	if !maxTS.Equal(t2) {
		t.Fatalf("maxTS = %v; want %v", maxTS, t2)
	}
}

func TestLeadsStats_FilterByExternalID(t *testing.T) {
	db := newRepoDB(t, &domain.Lead{})

	for _, id := range []string{"a", "a2", "b"} {
		l := domain.Lead{ExternalID: id}
		if err := db.Create(&l).Error; err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}

	count, maxTS, err := LeadsStats(context.Background(), db, "")
	if err != nil || count != 3 || maxTS == nil {
		t.Fatalf("unfiltered stats: count=%d maxTS=%v err=%v", count, maxTS, err)
	}

	count, _, err = LeadsStats(context.Background(), db, "b")
	if err != nil || count != 1 {
		t.Fatalf("filtered stats: count=%d err=%v; want 1", count, err)
	}

	count, maxTS, err = LeadsStats(context.Background(), db, "missing")
	if err != nil || count != 0 || maxTS != nil {
		t.Fatalf("missing filter: count=%d maxTS=%v err=%v; want (0, nil)", count, maxTS, err)
	}
}
