package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	chatservice "github.com/vaidikdevsen/friday-ai/backend/internal/service/chat"
	"github.com/vaidikdevsen/friday-ai/backend/internal/store"
)

func setupRouter(t *testing.T) (*chi.Mux, *chatservice.Service) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "friday.db"))
	if err != nil {
		t.Fatalf("store.Open err: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	chatSvc, err := chatservice.NewService(st)
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}
	handler := New(chatSvc)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, chatSvc
}

func TestCreateConversation(t *testing.T) {
	r, _ := setupRouter(t)

	payload, _ := json.Marshal(map[string]string{"title": "sketches"})
	req := httptest.NewRequest(http.MethodPost, "/conversations", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	var conv struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &conv); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if conv.ID == "" || conv.Title != "sketches" {
		t.Fatalf("unexpected conversation: %+v", conv)
	}
}

func TestCreateConversationEmptyBody(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/conversations", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
}

func TestListConversationsWithSearch(t *testing.T) {
	r, svc := setupRouter(t)
	ctx := context.Background()

	svc.Create(ctx, "Mountain sketches")
	svc.Create(ctx, "City nights")

	req := httptest.NewRequest(http.MethodGet, "/conversations?q=mountain", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var summaries []map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 match, got %d", len(summaries))
	}
	if summaries[0]["title"] != "Mountain sketches" {
		t.Fatalf("unexpected match: %v", summaries[0])
	}
}

func TestRenameConversation(t *testing.T) {
	r, svc := setupRouter(t)
	conv, _ := svc.Create(context.Background(), "draft")

	payload, _ := json.Marshal(map[string]string{"title": "final"})
	req := httptest.NewRequest(http.MethodPatch, "/conversations/"+conv.ID, bytes.NewReader(payload))
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	active, _ := svc.Active(context.Background())
	if active.Title != "final" {
		t.Fatalf("title = %q", active.Title)
	}
}

func TestRenameUnknownConversation(t *testing.T) {
	r, _ := setupRouter(t)

	payload, _ := json.Marshal(map[string]string{"title": "x"})
	req := httptest.NewRequest(http.MethodPatch, "/conversations/missing", bytes.NewReader(payload))
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestDeleteLastConversationCreatesReplacement(t *testing.T) {
	r, svc := setupRouter(t)
	ctx := context.Background()
	only, _ := svc.Create(ctx, "only")

	req := httptest.NewRequest(http.MethodDelete, "/conversations/"+only.ID, nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	list := svc.List(ctx)
	if len(list) != 1 {
		t.Fatalf("expected exactly one conversation, got %d", len(list))
	}
	if list[0].ID == only.ID {
		t.Fatal("expected a fresh replacement conversation")
	}

	active, ok := svc.Active(ctx)
	if !ok || active.ID != list[0].ID {
		t.Fatal("replacement must be active")
	}
}

func TestDeleteAllCreatesReplacement(t *testing.T) {
	r, svc := setupRouter(t)
	ctx := context.Background()
	svc.Create(ctx, "a")
	svc.Create(ctx, "b")

	req := httptest.NewRequest(http.MethodDelete, "/conversations", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if len(svc.List(ctx)) != 1 {
		t.Fatal("expected exactly one fresh conversation")
	}
}

func TestSwitchConversation(t *testing.T) {
	r, svc := setupRouter(t)
	ctx := context.Background()
	first, _ := svc.Create(ctx, "first")
	svc.Create(ctx, "second")

	req := httptest.NewRequest(http.MethodPost, "/conversations/"+first.ID+"/activate", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	active, _ := svc.Active(ctx)
	if active.ID != first.ID {
		t.Fatalf("active = %s, want %s", active.ID, first.ID)
	}
}

func TestSwitchUnknownConversation(t *testing.T) {
	r, svc := setupRouter(t)
	ctx := context.Background()
	current, _ := svc.Create(ctx, "current")

	req := httptest.NewRequest(http.MethodPost, "/conversations/missing/activate", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}

	active, _ := svc.Active(ctx)
	if active.ID != current.ID {
		t.Fatal("failed switch must not move the active pointer")
	}
}
