package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-docgen-backend/internal/domain"
	"github.com/tbourn/go-docgen-backend/internal/search"
	"github.com/tbourn/go-docgen-backend/internal/services"
	"github.com/tbourn/go-docgen-backend/internal/structure"
)

// ---------- ConfigureDocument ----------

func TestConfigureDocument_Validation_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// bad UUID
	{
		h := newStubHandlers()
		r := gin.New()
		r.POST("/projects/:id/configure", h.ConfigureDocument)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/projects/nope/configure",
			bytes.NewBufferString(`{"structure":{"sections":[]}}`))
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("bad uuid -> %d", w.Code)
		}
	}

	// missing structure
	{
		h := newStubHandlers()
		r := gin.New()
		r.POST("/projects/:id/configure", h.ConfigureDocument)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/projects/"+uuid.NewString()+"/configure",
			bytes.NewBufferString(`{}`))
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("missing structure -> %d", w.Code)
		}
	}

	// end-to-end against real services: invalid outline -> 400, valid -> 200
	{
		db := newHandlerDB(t)
		p := &domain.Project{ID: uuid.NewString(), UserID: "u1", Kind: domain.KindWord, Title: "T", MainTopic: "M"}
		if err := db.Create(p).Error; err != nil {
			t.Fatalf("seed project: %v", err)
		}
		h := New(services.NewProjectService(db), services.NewDocumentService(db), stubGenerationSvc{},
			stubRefinementSvc{}, stubFeedbackSvc{}, stubExportSvc{}, stubTemplateSvc{})
		r := gin.New()
		r.POST("/projects/:id/configure", h.ConfigureDocument)

		// Word project configured with slides -> validation error
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/projects/"+p.ID+"/configure",
			bytes.NewBufferString(`{"structure":{"slides":[{"id":"slide-1","title":"A","order":0}]}}`))
		req.Header.Set("X-User-ID", "u1")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("wrong vocabulary -> %d body=%s", w.Code, w.Body.String())
		}
		var er ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
			t.Fatalf("json: %v", err)
		}
		if er.Code != ErrCodeInvalidStructure {
			t.Fatalf("code = %q", er.Code)
		}

		// valid outline -> 200
		w = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodPost, "/projects/"+p.ID+"/configure",
			bytes.NewBufferString(`{"structure":{"sections":[{"id":"section-1","title":"Intro","order":0},{"id":"section-2","title":"Market","order":1}]}}`))
		req.Header.Set("X-User-ID", "u1")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("configure -> %d body=%s", w.Code, w.Body.String())
		}
		var doc domain.Document
		if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
			t.Fatalf("json: %v", err)
		}
		if doc.ProjectID != p.ID || doc.Version < 1 {
			t.Fatalf("unexpected document: %#v", doc)
		}
	}
}

// ---------- GetDocument ----------

func TestGetDocument_CreatesDefault(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newHandlerDB(t)
	p := &domain.Project{ID: uuid.NewString(), UserID: "u1", Kind: domain.KindPowerPoint, Title: "Deck", MainTopic: "AI"}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	h := New(services.NewProjectService(db), services.NewDocumentService(db), stubGenerationSvc{},
		stubRefinementSvc{}, stubFeedbackSvc{}, stubExportSvc{}, stubTemplateSvc{})
	r := gin.New()
	r.GET("/projects/:id/document", h.GetDocument)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/projects/"+p.ID+"/document", nil)
	req.Header.Set("X-User-ID", "u1")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get document -> %d body=%s", w.Code, w.Body.String())
	}
	var doc domain.Document
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("json: %v", err)
	}
	if doc.ProjectID != p.ID {
		t.Fatalf("project mismatch: %#v", doc)
	}
	// Default outline uses the PowerPoint vocabulary
	var outline map[string]json.RawMessage
	if err := json.Unmarshal(doc.Structure, &outline); err != nil {
		t.Fatalf("outline json: %v", err)
	}
	if _, okKey := outline["slides"]; !okKey {
		t.Fatalf("expected slides outline, got %s", string(doc.Structure))
	}

	// Second fetch returns the same document
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/projects/"+p.ID+"/document", nil)
	req.Header.Set("X-User-ID", "u1")
	r.ServeHTTP(w, req)
	var again domain.Document
	if err := json.Unmarshal(w.Body.Bytes(), &again); err != nil {
		t.Fatalf("json: %v", err)
	}
	if again.ID != doc.ID {
		t.Fatalf("second fetch created a new document: %q vs %q", again.ID, doc.ID)
	}
}

// ---------- UpdateStructure ----------

func TestUpdateStructure_DocumentMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)

	errSvc := stubDocumentSvc{
		updateStr: func(ctx context.Context, u, pid string, raw []byte) (*domain.Document, error) {
			return nil, services.ErrDocumentNotFound
		},
	}
	h := New(stubProjectSvc{}, errSvc, stubGenerationSvc{},
		stubRefinementSvc{}, stubFeedbackSvc{}, stubExportSvc{}, stubTemplateSvc{})
	r := gin.New()
	r.PUT("/projects/:id/document/structure", h.UpdateStructure)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/projects/"+uuid.NewString()+"/document/structure",
		bytes.NewBufferString(`{"structure":{"sections":[{"id":"section-1","title":"A","order":0}]}}`))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing document -> %d", w.Code)
	}
}

// ---------- ReorderDocument ----------

func TestReorderDocument_Validation_KindFlows(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// empty orders -> 400
	{
		h := newStubHandlers()
		r := gin.New()
		r.POST("/projects/:id/document/reorder", h.ReorderDocument)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/projects/"+uuid.NewString()+"/document/reorder",
			bytes.NewBufferString(`{"orders":{}}`))
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("empty orders -> %d", w.Code)
		}
	}

	// the project's kind flows into the reorder call
	{
		var gotKind structure.Kind
		projSvc := stubProjectSvc{
			get: func(ctx context.Context, u, id string) (*domain.Project, error) {
				return &domain.Project{ID: id, UserID: u, Kind: domain.KindPowerPoint}, nil
			},
		}
		docSvc := stubDocumentSvc{
			reorder: func(ctx context.Context, u, pid string, want structure.Kind, orders map[string]int) (*domain.Document, error) {
				gotKind = want
				return &domain.Document{ID: uuid.NewString(), ProjectID: pid, Version: 2}, nil
			},
		}
		h := New(projSvc, docSvc, stubGenerationSvc{},
			stubRefinementSvc{}, stubFeedbackSvc{}, stubExportSvc{}, stubTemplateSvc{})
		r := gin.New()
		r.POST("/projects/:id/document/reorder", h.ReorderDocument)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/projects/"+uuid.NewString()+"/document/reorder",
			bytes.NewBufferString(`{"orders":{"slide-1":1,"slide-2":0}}`))
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("reorder -> %d body=%s", w.Code, w.Body.String())
		}
		if gotKind != structure.PowerPoint {
			t.Fatalf("kind = %q", gotKind)
		}
	}
}

// ---------- SearchDocument ----------

func TestSearchDocument_MissingQuery_Clamp_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// missing q -> 400
	{
		h := newStubHandlers()
		r := gin.New()
		r.GET("/projects/:id/document/search", h.SearchDocument)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/projects/"+uuid.NewString()+"/document/search", nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("missing q -> %d", w.Code)
		}
	}

	// top_k is clamped and nil results become an empty slice
	{
		var gotTopK int
		docSvc := stubDocumentSvc{
			search: func(ctx context.Context, u, pid, q string, topK int) ([]search.Result, error) {
				gotTopK = topK
				return nil, nil
			},
		}
		h := New(stubProjectSvc{}, docSvc, stubGenerationSvc{},
			stubRefinementSvc{}, stubFeedbackSvc{}, stubExportSvc{}, stubTemplateSvc{})
		r := gin.New()
		r.GET("/projects/:id/document/search", h.SearchDocument)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet,
			"/projects/"+uuid.NewString()+"/document/search?q=solar&top_k=9999", nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("search -> %d body=%s", w.Code, w.Body.String())
		}
		if gotTopK != 20 {
			t.Fatalf("top_k clamp = %d", gotTopK)
		}
		var out SearchResponse
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("json: %v", err)
		}
		if out.Query != "solar" || out.Results == nil || len(out.Results) != 0 {
			t.Fatalf("unexpected response: %#v", out)
		}
	}
}
