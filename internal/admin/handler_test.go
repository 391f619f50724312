package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tiffinflow/relay/internal/catalog"
)

const testToken = "owner-token"

func newTestRouter(t *testing.T) (http.Handler, *catalog.BoltStore) {
	t.Helper()
	store, err := catalog.NewBoltStore(filepath.Join(t.TempDir(), "admin.db"))
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	r := chi.NewRouter()
	r.Mount("/api/menus", NewHandler(store, testToken, zerolog.Nop()).Routes())
	return r, store
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequiresToken(t *testing.T) {
	h, _ := newTestRouter(t)

	for _, token := range []string{"", "wrong"} {
		rec := do(t, h, http.MethodGet, "/api/menus", token, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("token %q: expected 401, got %d", token, rec.Code)
		}
	}
}

func TestPutGetListDelete(t *testing.T) {
	h, store := newTestRouter(t)

	rec := do(t, h, http.MethodPut, "/api/menus/sharma", testToken,
		`{"name":"Sharma Kitchen","items":"Dal Rice","price":100}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	stored, err := store.Get(context.Background(), "sharma")
	if err != nil || stored == nil || stored.Price != "100" {
		t.Fatalf("expected stored entry, got %+v, %v", stored, err)
	}

	rec = do(t, h, http.MethodGet, "/api/menus/sharma", testToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET: expected 200, got %d", rec.Code)
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["id"] != "sharma" || got["name"] != "Sharma Kitchen" || got["items"] != "Dal Rice" || got["price"] != float64(100) {
		t.Fatalf("unexpected body %v", got)
	}

	do(t, h, http.MethodPut, "/api/menus/anna", testToken, `{"name":"Annapurna"}`)
	rec = do(t, h, http.MethodGet, "/api/menus", testToken, "")
	var list []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 2 || list[0]["id"] != "anna" || list[1]["id"] != "sharma" {
		t.Fatalf("unexpected list %v", list)
	}

	rec = do(t, h, http.MethodDelete, "/api/menus/sharma", testToken, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE: expected 204, got %d", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/api/menus/sharma", testToken, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET after delete: expected 404, got %d", rec.Code)
	}
}

func TestPutValidation(t *testing.T) {
	h, _ := newTestRouter(t)

	for name, body := range map[string]string{
		"not json":     `{`,
		"missing name": `{"items":"Poha"}`,
		"blank name":   `{"name":"   "}`,
		"bad price":    `{"name":"x","price":{"a":1}}`,
		"bool price":   `{"name":"x","price":true}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodPut, "/api/menus/k1", testToken, body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}
