package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/leadline/go-crm-backend/internal/domain"
)

// ----- Fake repo -----

type fakeOperatorRepo struct {
	createName     string
	createIsActive bool
	createMaxLoad  int
	createOp       *domain.Operator
	createErr      error

	getID  uint
	getOp  *domain.Operator
	getErr error

	countTotal int64
	countErr   error

	pageOffset int
	pageLimit  int
	pageItems  []domain.Operator
	pageErr    error

	updateID     uint
	updateFields map[string]any
	updateErr    error
}

func (r *fakeOperatorRepo) CreateOperator(ctx context.Context, db *gorm.DB, name string, isActive bool, maxLoad int) (*domain.Operator, error) {
	r.createName, r.createIsActive, r.createMaxLoad = name, isActive, maxLoad
	if r.createOp != nil || r.createErr != nil {
		return r.createOp, r.createErr
	}
	return &domain.Operator{ID: 1, Name: name, IsActive: isActive, MaxLoad: maxLoad}, nil
}

func (r *fakeOperatorRepo) GetOperator(ctx context.Context, db *gorm.DB, id uint) (*domain.Operator, error) {
	r.getID = id
	return r.getOp, r.getErr
}

func (r *fakeOperatorRepo) ListOperatorsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Operator, error) {
	r.pageOffset, r.pageLimit = offset, limit
	return r.pageItems, r.pageErr
}

func (r *fakeOperatorRepo) CountOperators(ctx context.Context, db *gorm.DB) (int64, error) {
	return r.countTotal, r.countErr
}

func (r *fakeOperatorRepo) UpdateOperator(ctx context.Context, db *gorm.DB, id uint, fields map[string]any) error {
	r.updateID, r.updateFields = id, fields
	return r.updateErr
}

// ----- Tests -----

func TestOperatorCreate_TrimsNameAndForwards(t *testing.T) {
	r := &fakeOperatorRepo{}
	s := NewOperatorService(nil, r)

	op, err := s.Create(context.Background(), "  Alice  ", true, 5)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.createName != "Alice" || !r.createIsActive || r.createMaxLoad != 5 {
		t.Fatalf("repo args: name=%q active=%v maxLoad=%d", r.createName, r.createIsActive, r.createMaxLoad)
	}
	if op.Name != "Alice" {
		t.Fatalf("unexpected operator: %+v", op)
	}
}

func TestOperatorCreate_RejectsMaxLoadBelowOne(t *testing.T) {
	s := NewOperatorService(nil, &fakeOperatorRepo{})

	for _, ml := range []int{0, -1, -100} {
		if _, err := s.Create(context.Background(), "x", true, ml); !errors.Is(err, ErrInvalidMaxLoad) {
			t.Errorf("maxLoad=%d: expected ErrInvalidMaxLoad, got %v", ml, err)
		}
	}
}

func TestOperatorGet_NotFoundMapping(t *testing.T) {
	s := NewOperatorService(nil, &fakeOperatorRepo{getErr: gorm.ErrRecordNotFound})

	if _, err := s.Get(context.Background(), 2); !errors.Is(err, ErrOperatorNotFound) {
		t.Fatalf("expected ErrOperatorNotFound, got %v", err)
	}
}

func TestOperatorListPage_DefaultsAndShortCircuit(t *testing.T) {
	r := &fakeOperatorRepo{countTotal: 0}
	s := NewOperatorService(nil, r)

	items, total, err := s.ListPage(context.Background(), -3, 0)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Fatalf("expected empty page, got total=%d len=%d", total, len(items))
	}
}

func TestOperatorListPage_OffsetLimit(t *testing.T) {
	r := &fakeOperatorRepo{
		countTotal: 50,
		pageItems:  []domain.Operator{{ID: 1}, {ID: 2}},
	}
	s := NewOperatorService(nil, r)

	items, total, err := s.ListPage(context.Background(), 2, 15)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 50 || len(items) != 2 {
		t.Fatalf("total/items = %d/%d", total, len(items))
	}
	if r.pageOffset != 15 || r.pageLimit != 15 {
		t.Fatalf("offset/limit = %d/%d; want 15/15", r.pageOffset, r.pageLimit)
	}
}

func TestOperatorUpdate_PartialFieldsOnly(t *testing.T) {
	refreshed := &domain.Operator{ID: 9, Name: "n", IsActive: false, MaxLoad: 3}
	r := &fakeOperatorRepo{getOp: refreshed}
	s := NewOperatorService(nil, r)

	active := false
	op, err := s.Update(context.Background(), 9, OperatorUpdate{IsActive: &active})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if op != refreshed {
		t.Fatalf("expected refreshed operator, got %+v", op)
	}
	if len(r.updateFields) != 1 {
		t.Fatalf("expected exactly one updated column, got %v", r.updateFields)
	}
	if v, ok := r.updateFields["is_active"]; !ok || v != false {
		t.Fatalf("is_active not in update fields: %v", r.updateFields)
	}
}

func TestOperatorUpdate_NoFieldsSkipsWrite(t *testing.T) {
	r := &fakeOperatorRepo{getOp: &domain.Operator{ID: 9}}
	s := NewOperatorService(nil, r)

	if _, err := s.Update(context.Background(), 9, OperatorUpdate{}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if r.updateFields != nil {
		t.Fatalf("no write expected for empty update, got %v", r.updateFields)
	}
}

func TestOperatorUpdate_InvalidMaxLoad(t *testing.T) {
	s := NewOperatorService(nil, &fakeOperatorRepo{})

	bad := 0
	if _, err := s.Update(context.Background(), 1, OperatorUpdate{MaxLoad: &bad}); !errors.Is(err, ErrInvalidMaxLoad) {
		t.Fatalf("expected ErrInvalidMaxLoad, got %v", err)
	}
}

func TestOperatorUpdate_NotFoundMapping(t *testing.T) {
	r := &fakeOperatorRepo{updateErr: gorm.ErrRecordNotFound}
	s := NewOperatorService(nil, r)

	name := "new"
	if _, err := s.Update(context.Background(), 404, OperatorUpdate{Name: &name}); !errors.Is(err, ErrOperatorNotFound) {
		t.Fatalf("expected ErrOperatorNotFound, got %v", err)
	}
}

func TestOperatorUpdate_TrimsName(t *testing.T) {
	r := &fakeOperatorRepo{getOp: &domain.Operator{ID: 1}}
	s := NewOperatorService(nil, r)

	name := "  Bob  "
	if _, err := s.Update(context.Background(), 1, OperatorUpdate{Name: &name}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if r.updateFields["name"] != "Bob" {
		t.Fatalf("name not trimmed: %v", r.updateFields["name"])
	}
}
