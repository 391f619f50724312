package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tiffinflow/relay/internal/upstream"
)

func newFirebase(t *testing.T, routes map[string]string) (*FirebaseStore, *[]string) {
	t.Helper()
	var hits []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, r.URL.RequestURI())
		body, ok := routes[r.URL.Path]
		if !ok {
			w.Write([]byte("null"))
			return
		}
		if body == "500" {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"internal"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewFirebaseStore(srv.URL+"/", ""), &hits
}

func TestFirebaseList(t *testing.T) {
	s, hits := newFirebase(t, map[string]string{
		"/menus.json": `{
			"sharma": {"name": "Sharma Kitchen", "items": "Dal Rice", "price": 100},
			"anna":   {"name": "Annapurna", "items": ["Roti", "Sabzi"], "price": "90"},
			"gone":   null
		}`,
	})

	entries, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", entries)
	}
	if entries[0].ID != "anna" || entries[0].Items != "Roti, Sabzi" || entries[0].Price != "90" {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if entries[1].ID != "sharma" || entries[1].Name != "Sharma Kitchen" || entries[1].Price != "100" {
		t.Fatalf("unexpected second entry %+v", entries[1])
	}
	if (*hits)[0] != "/menus.json" {
		t.Fatalf("unexpected request %q", (*hits)[0])
	}
}

func TestFirebaseListArrayAndNull(t *testing.T) {
	s, _ := newFirebase(t, map[string]string{
		"/menus.json": `[null, {"name": "One"}, {"name": "Two"}]`,
	})
	entries, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != "1" || entries[1].ID != "2" {
		t.Fatalf("unexpected entries %+v", entries)
	}

	empty, _ := newFirebase(t, nil)
	entries, err = empty.List(context.Background())
	if err != nil {
		t.Fatalf("List on null: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %+v", entries)
	}
}

func TestFirebaseListOddRecords(t *testing.T) {
	s, _ := newFirebase(t, map[string]string{
		"/menus.json": `{
			"k1": {"name": "Sharma Kitchen", "items": "Dal Rice", "price": 100},
			"k2": {"name": "Annapurna", "items": 42},
			"k3": {"name": "Maa Ki Rasoi", "items": [{"name": "Dal", "price": 50}], "price": {"amount": 80}},
			"k4": "closed today"
		}`,
		"/menus/k2.json": `{"name": "Annapurna", "items": 42}`,
	})

	entries, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected every record listed, got %+v", entries)
	}
	if entries[1].Name != "Annapurna" || entries[1].Items != "42" {
		t.Fatalf("unexpected k2 %+v", entries[1])
	}
	if entries[2].Items != "Dal" || entries[2].Price != "" {
		t.Fatalf("unexpected k3 %+v", entries[2])
	}
	if entries[3].ID != "k4" || entries[3].Name != "" {
		t.Fatalf("unexpected k4 %+v", entries[3])
	}

	e, err := s.Get(context.Background(), "k2")
	if err != nil || e == nil || e.Items != "42" {
		t.Fatalf("expected k2 found, got %+v, %v", e, err)
	}
}

func TestFirebaseGet(t *testing.T) {
	s, hits := newFirebase(t, map[string]string{
		"/menus/sharma.json": `{"name": "Sharma Kitchen", "items": "Dal Rice", "price": 100}`,
	})

	e, err := s.Get(context.Background(), "sharma")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if e == nil || e.ID != "sharma" || e.Name != "Sharma Kitchen" || e.Items != "Dal Rice" || e.Price != "100" {
		t.Fatalf("unexpected entry %+v", e)
	}

	missing, err := s.Get(context.Background(), "nobody")
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for missing id, got %+v, %v", missing, err)
	}

	blank, err := s.Get(context.Background(), "  ")
	if err != nil || blank != nil {
		t.Fatalf("expected (nil, nil) for blank id, got %+v, %v", blank, err)
	}
	if len(*hits) != 2 {
		t.Fatalf("blank id must not hit the store, got %v", *hits)
	}
}

func TestFirebaseAuthParam(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.URL.Query().Get("auth")
		w.Write([]byte("null"))
	}))
	defer srv.Close()

	s := NewFirebaseStore(srv.URL, "db-secret")
	if _, err := s.List(context.Background()); err != nil {
		t.Fatalf("List: %v", err)
	}
	if gotAuth != "db-secret" {
		t.Fatalf("expected auth param, got %q", gotAuth)
	}
}

func TestFirebaseErrors(t *testing.T) {
	s, _ := newFirebase(t, map[string]string{
		"/menus.json":     "500",
		"/menus/bad.json": `{"name": "Sharma`,
	})

	_, err := s.List(context.Background())
	var apiErr *upstream.Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected upstream 500, got %v", err)
	}
	if body, ok := upstream.Body(err); !ok || body != `{"error":"internal"}` {
		t.Fatalf("expected error body, got %q", body)
	}

	_, err = s.Get(context.Background(), "bad")
	if upstream.Classify(err) != upstream.KindDecode {
		t.Fatalf("expected decode error, got %v", err)
	}
}
