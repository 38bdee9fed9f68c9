package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/leadline/go-crm-backend/internal/domain"
	"github.com/leadline/go-crm-backend/internal/repo"
	"github.com/leadline/go-crm-backend/internal/services"
)

// ---------- CreateSource ----------

func TestCreateSource_BadJSON_Conflict_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Bad JSON -> 400
	{
		h := newStubHandlers()
		r := gin.New()
		r.POST("/sources", h.CreateSource)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sources", bytes.NewBufferString(`{"code":"x"}`)))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("missing name -> %d", w.Code)
		}
	}

	// Duplicate code -> 409
	{
		h := New(stubDistSvc{}, stubContactSvc{}, stubOperatorSvc{}, stubSourceSvc{
			create: func(context.Context, string, string) (*domain.Source, error) {
				return nil, services.ErrDuplicateSourceCode
			},
		}, stubLeadSvc{})
		r := gin.New()
		r.POST("/sources", h.CreateSource)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sources",
			bytes.NewBufferString(`{"code":"bot","name":"Bot"}`)))
		if w.Code != http.StatusConflict {
			t.Fatalf("duplicate -> %d", w.Code)
		}
		var er ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil || er.Code != ErrCodeConflict {
			t.Fatalf("error envelope: %#v err=%v", er, err)
		}
	}

	// Success -> 201
	{
		h := newStubHandlers()
		r := gin.New()
		r.POST("/sources", h.CreateSource)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sources",
			bytes.NewBufferString(`{"code":"bot_telegram","name":"Telegram bot"}`)))
		if w.Code != http.StatusCreated {
			t.Fatalf("create -> %d body=%s", w.Code, w.Body.String())
		}
		var out domain.Source
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil || out.Code != "bot_telegram" {
			t.Fatalf("source: %#v err=%v", out, err)
		}
	}
}

// ---------- ListSources / GetSource ----------

func TestListSources_Page(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := New(stubDistSvc{}, stubContactSvc{}, stubOperatorSvc{}, stubSourceSvc{
		listPage: func(ctx context.Context, page, pageSize int) ([]domain.Source, int64, error) {
			return []domain.Source{{ID: 1, Code: "bot"}}, 1, nil
		},
	}, stubLeadSvc{})
	r := gin.New()
	r.GET("/sources", h.ListSources)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sources", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("list -> %d", w.Code)
	}
	var out ListSourcesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(out.Sources) != 1 || out.Pagination.Total != 1 || out.Pagination.HasNext {
		t.Fatalf("response mismatch: %#v", out)
	}
}

func TestGetSource_NotFound_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := New(stubDistSvc{}, stubContactSvc{}, stubOperatorSvc{}, stubSourceSvc{
		get: func(ctx context.Context, id uint) (*domain.Source, error) {
			if id == 404 {
				return nil, services.ErrSourceNotFound
			}
			return &domain.Source{ID: id, Code: "bot"}, nil
		},
	}, stubLeadSvc{})
	r := gin.New()
	r.GET("/sources/:id", h.GetSource)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sources/404", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing -> %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sources/2", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("get -> %d", w.Code)
	}
}

// ---------- ReplaceSourceWeights ----------

func TestReplaceSourceWeights_Mapping_and_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var captured []repo.WeightEntry
	h := New(stubDistSvc{}, stubContactSvc{}, stubOperatorSvc{}, stubSourceSvc{
		replace: func(ctx context.Context, sourceID uint, entries []repo.WeightEntry) ([]domain.OperatorSourceWeight, error) {
			switch sourceID {
			case 404:
				return nil, services.ErrSourceNotFound
			case 405:
				return nil, services.ErrOperatorNotFound
			case 400:
				return nil, services.ErrInvalidWeight
			case 500:
				return nil, gorm.ErrInvalidDB
			}
			captured = entries
			rows := make([]domain.OperatorSourceWeight, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, domain.OperatorSourceWeight{SourceID: sourceID, OperatorID: e.OperatorID, Weight: e.Weight})
			}
			return rows, nil
		},
	}, stubLeadSvc{})
	r := gin.New()
	r.POST("/sources/:id/operators", h.ReplaceSourceWeights)

	post := func(id, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sources/"+id+"/operators", bytes.NewBufferString(body)))
		return w
	}

	if w := post("1", "{bad"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad json -> %d", w.Code)
	}
	if w := post("404", `{"operator_weights":[]}`); w.Code != http.StatusNotFound {
		t.Fatalf("missing source -> %d", w.Code)
	}
	if w := post("405", `{"operator_weights":[{"operator_id":99,"weight":1}]}`); w.Code != http.StatusNotFound {
		t.Fatalf("missing operator -> %d", w.Code)
	}
	if w := post("400", `{"operator_weights":[{"operator_id":1,"weight":1}]}`); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid weight -> %d", w.Code)
	}
	if w := post("500", `{"operator_weights":[]}`); w.Code != http.StatusInternalServerError {
		t.Fatalf("internal -> %d", w.Code)
	}

	w := post("3", `{"operator_weights":[{"operator_id":1,"weight":10},{"operator_id":2,"weight":30}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("replace -> %d body=%s", w.Code, w.Body.String())
	}
	if len(captured) != 2 || captured[0] != (repo.WeightEntry{OperatorID: 1, Weight: 10}) {
		t.Fatalf("entries mismatch: %#v", captured)
	}
	var rows []domain.OperatorSourceWeight
	if err := json.Unmarshal(w.Body.Bytes(), &rows); err != nil || len(rows) != 2 {
		t.Fatalf("rows: %#v err=%v", rows, err)
	}

	// Empty set is legal and clears the configuration.
	captured = nil
	if w := post("3", `{"operator_weights":[]}`); w.Code != http.StatusOK {
		t.Fatalf("clear -> %d", w.Code)
	}
	if len(captured) != 0 {
		t.Fatalf("expected empty entries, got %#v", captured)
	}
}

// ---------- ListSourceWeights ----------

func TestListSourceWeights_NotFound_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := New(stubDistSvc{}, stubContactSvc{}, stubOperatorSvc{}, stubSourceSvc{
		weights: func(ctx context.Context, sourceID uint) ([]domain.OperatorSourceWeight, error) {
			if sourceID == 404 {
				return nil, services.ErrSourceNotFound
			}
			return []domain.OperatorSourceWeight{{SourceID: sourceID, OperatorID: 1, Weight: 10}}, nil
		},
	}, stubLeadSvc{})
	r := gin.New()
	r.GET("/sources/:id/operators", h.ListSourceWeights)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sources/404/operators", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing -> %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sources/5/operators", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("list -> %d", w.Code)
	}
	var rows []domain.OperatorSourceWeight
	if err := json.Unmarshal(w.Body.Bytes(), &rows); err != nil || len(rows) != 1 || rows[0].Weight != 10 {
		t.Fatalf("rows: %#v err=%v", rows, err)
	}
}
