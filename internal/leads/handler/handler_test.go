package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"clinic_marketing_backend/internal/leads/repository"
	"clinic_marketing_backend/internal/leads/service"
	"clinic_marketing_backend/internal/leads/transport"
	"clinic_marketing_backend/platform/logger"
	"clinic_marketing_backend/platform/validator"
)

type storeConfig struct{}

func (storeConfig) GetStoreTimeout() time.Duration { return time.Second }

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.NewWithWriter("production", io.Discard)
	svc := service.New(repository.NewMemoryStore(), nil, nil, storeConfig{}, log)
	h := New(svc, validator.New())

	r := gin.New()
	r.POST("/ingest/leads/:userId/interactions", h.RecordInteraction)
	r.POST("/ingest/leads/:userId/signals", h.RecordSignal)
	r.GET("/admin/leads", h.ListLeads)
	r.GET("/admin/leads/:userId", h.GetLead)
	r.PATCH("/admin/leads/:userId/status", h.SetStatus)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRecordInteractionAndFetch(t *testing.T) {
	r := newRouter()

	w := do(r, http.MethodPost, "/ingest/leads/u1/interactions",
		`{"message":"do you do LASIK?","surgeries":["LASIK"],"priceInquiry":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodGet, "/admin/leads/u1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var lead transport.LeadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &lead); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if lead.LeadScore != 45 || lead.LeadStatus != "cold" {
		t.Fatalf("expected 45/cold, got %d/%s", lead.LeadScore, lead.LeadStatus)
	}
	if len(lead.ConversationHistory) != 1 {
		t.Fatalf("expected history in detail view")
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	r := newRouter()
	w := do(r, http.MethodPost, "/ingest/leads/u1/signals", `{"kind":"symptom","value":"dry eyes","score":100}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestInvalidSignalKindRejected(t *testing.T) {
	r := newRouter()
	w := do(r, http.MethodPost, "/ingest/leads/u1/signals", `{"kind":"appointment"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSetStatusInvalidAndMissing(t *testing.T) {
	r := newRouter()
	if w := do(r, http.MethodPatch, "/admin/leads/ghost/status", `{"status":"hot"}`); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown lead, got %d", w.Code)
	}

	do(r, http.MethodPost, "/ingest/leads/u1/signals", `{"kind":"message","message":"hi"}`)
	if w := do(r, http.MethodPatch, "/admin/leads/u1/status", `{"status":"boiling"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid status, got %d", w.Code)
	}
}

func TestListLeadsShape(t *testing.T) {
	r := newRouter()
	do(r, http.MethodPost, "/ingest/leads/u1/signals", `{"kind":"message"}`)
	do(r, http.MethodPost, "/ingest/leads/u2/signals", `{"kind":"message"}`)

	w := do(r, http.MethodGet, "/admin/leads?page=1&pageSize=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var list transport.LeadListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Total != 2 || list.TotalPages != 2 || len(list.Items) != 1 {
		t.Fatalf("unexpected list %+v", list)
	}
	if list.Items[0].ConversationHistory != nil {
		t.Fatalf("list view must omit history")
	}
}
