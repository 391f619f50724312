package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tiffinflow/relay/internal/upstream"
)

const serviceFirebase = "firebase"

// FirebaseStore reads menus from a Firebase Realtime Database over REST.
// Reference: https://firebase.google.com/docs/reference/rest/database
type FirebaseStore struct {
	baseURL string
	auth    string
	http    *http.Client
}

func NewFirebaseStore(baseURL, auth string) *FirebaseStore {
	return &FirebaseStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		auth:    auth,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// List returns every entry under /menus. A missing node yields an empty list.
func (s *FirebaseStore) List(ctx context.Context) ([]Entry, error) {
	body, err := s.get(ctx, "/menus.json")
	if err != nil {
		return nil, fmt.Errorf("listing menus: %w", err)
	}
	body = bytes.TrimSpace(body)

	// Firebase renders objects with sequential integer keys as arrays.
	if len(body) > 0 && body[0] == '[' {
		var list []*Entry
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, &upstream.DecodeError{Service: serviceFirebase, Err: err}
		}
		m := make(map[string]*Entry, len(list))
		for i, e := range list {
			m[strconv.Itoa(i)] = e
		}
		return fromMap(m), nil
	}

	var m map[string]*Entry
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, &upstream.DecodeError{Service: serviceFirebase, Err: err}
	}
	return fromMap(m), nil
}

// Get returns the entry at /menus/{id}, or nil when the node is null.
func (s *FirebaseStore) Get(ctx context.Context, id string) (*Entry, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	body, err := s.get(ctx, "/menus/"+url.PathEscape(id)+".json")
	if err != nil {
		return nil, fmt.Errorf("getting menu %s: %w", id, err)
	}

	var e *Entry
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, &upstream.DecodeError{Service: serviceFirebase, Err: err}
	}
	if e == nil {
		return nil, nil
	}
	e.ID = id
	return e, nil
}

func (s *FirebaseStore) get(ctx context.Context, path string) ([]byte, error) {
	u := s.baseURL + path
	if s.auth != "" {
		u += "?auth=" + url.QueryEscape(s.auth)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, upstream.FromResponse(serviceFirebase, resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return body, nil
}

var _ Store = (*FirebaseStore)(nil)
