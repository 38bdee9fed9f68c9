package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/leadline/go-crm-backend/internal/domain"
	"github.com/leadline/go-crm-backend/internal/repo"
	"github.com/leadline/go-crm-backend/internal/services"
)

// ---------- ListLeads ----------

func TestListLeads_ETag304_and_Filter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newHandlerDB(t)

	leadSvc := services.NewLeadService(db, testLeadRepo{})
	h := New(stubDistSvc{}, stubContactSvc{}, stubOperatorSvc{}, stubSourceSvc{}, leadSvc)

	for _, ext := range []string{"tg:1", "tg:2", "mail:a"} {
		if _, err := repo.CreateLead(context.Background(), db, ext); err != nil {
			t.Fatalf("seed %s: %v", ext, err)
		}
	}

	r := gin.New()
	r.GET("/leads", h.ListLeads)

	// Compute expected ETag for the filtered view
	count, maxTS, err := repo.LeadsStats(context.Background(), db, "tg:1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var ts int64
	if maxTS != nil {
		ts = maxTS.Unix()
	}
	etag := fmt.Sprintf(`W/"leads:%s:%d:%d"`, "tg:1", count, ts)

	// 304 path
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/leads?external_id=tg:1", nil)
	req.Header.Set("If-None-Match", etag)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Fatalf("etag 304 -> %d", w.Code)
	}

	// 200 filtered
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leads?external_id=tg:1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("list -> %d body=%s", w.Code, w.Body.String())
	}
	if w.Header().Get("ETag") == "" {
		t.Fatal("expected ETag header on 200")
	}
	var out ListLeadsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.Pagination.Total != 1 || len(out.Leads) != 1 || out.Leads[0].ExternalID != "tg:1" {
		t.Fatalf("filtered page mismatch: %#v", out)
	}

	// 200 unfiltered sees all three
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leads", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("list all -> %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil || out.Pagination.Total != 3 {
		t.Fatalf("unfiltered total: %#v err=%v", out.Pagination, err)
	}
}

func TestListLeads_ServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := New(stubDistSvc{}, stubContactSvc{}, stubOperatorSvc{}, stubSourceSvc{}, stubLeadSvc{
		listPage: func(context.Context, string, int, int) ([]domain.Lead, int64, error) {
			return nil, 0, gorm.ErrInvalidDB
		},
	})
	r := gin.New()
	r.GET("/leads", h.ListLeads)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leads", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("list error -> %d", w.Code)
	}
}

// ---------- GetLead ----------

func TestGetLead_BadID_NotFound_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := New(stubDistSvc{}, stubContactSvc{}, stubOperatorSvc{}, stubSourceSvc{}, stubLeadSvc{
		get: func(ctx context.Context, id uint) (*domain.Lead, error) {
			if id == 404 {
				return nil, services.ErrLeadNotFound
			}
			return &domain.Lead{ID: id, ExternalID: "tg:1"}, nil
		},
	})
	r := gin.New()
	r.GET("/leads/:id", h.GetLead)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leads/-3", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad id -> %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leads/404", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing -> %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leads/12", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("get -> %d", w.Code)
	}
	var out domain.Lead
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil || out.ID != 12 {
		t.Fatalf("lead: %#v err=%v", out, err)
	}
}
