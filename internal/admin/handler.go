package admin

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tiffinflow/relay/internal/catalog"
)

// MenuStore is a catalog.Store that can also be edited.
type MenuStore interface {
	catalog.Store
	Put(ctx context.Context, e catalog.Entry) error
	Delete(ctx context.Context, id string) error
}

type menuJSON struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Items catalog.Items `json:"items,omitempty"`
	Price catalog.Price `json:"price,omitempty"`
}

type menuInput struct {
	Name  string          `json:"name"`
	Items catalog.Items   `json:"items"`
	Price json.RawMessage `json:"price"`
}

type errorJSON struct {
	Error string `json:"error"`
}

// Handler serves the menu admin API used by kitchen owners when the
// relay runs on the local bolt store.
type Handler struct {
	store MenuStore
	token string
	log   zerolog.Logger
}

func NewHandler(s MenuStore, token string, logger zerolog.Logger) *Handler {
	return &Handler{
		store: s,
		token: token,
		log:   logger.With().Str("component", "admin").Logger(),
	}
}

// Routes returns the /api/menus subrouter, guarded by the bearer token.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.requireToken)
	r.Get("/", h.HandleList)
	r.Get("/{id}", h.HandleGet)
	r.Put("/{id}", h.HandlePut)
	r.Delete("/{id}", h.HandleDelete)
	return r
}

func (h *Handler) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if h.token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
			writeJSON(w, http.StatusUnauthorized, errorJSON{Error: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("listing menus")
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "could not list menus"})
		return
	}

	out := make([]menuJSON, len(entries))
	for i, e := range entries {
		out[i] = toJSON(e)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	e, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Str("kitchen_id", id).Msg("getting menu")
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "could not load menu"})
		return
	}
	if e == nil {
		writeJSON(w, http.StatusNotFound, errorJSON{Error: "menu not found"})
		return
	}
	writeJSON(w, http.StatusOK, toJSON(*e))
}

func (h *Handler) HandlePut(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	var in menuInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "name is required"})
		return
	}

	price, ok := parsePrice(in.Price)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "price must be a number or a string"})
		return
	}

	e := catalog.Entry{ID: id, Name: strings.TrimSpace(in.Name), Items: in.Items, Price: price}
	if err := h.store.Put(r.Context(), e); err != nil {
		h.log.Error().Err(err).Str("kitchen_id", id).Msg("saving menu")
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "could not save menu"})
		return
	}

	h.log.Info().Str("kitchen_id", id).Str("name", e.Name).Msg("menu saved")
	writeJSON(w, http.StatusOK, toJSON(e))
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.Delete(r.Context(), id); err != nil {
		h.log.Error().Err(err).Str("kitchen_id", id).Msg("deleting menu")
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "could not delete menu"})
		return
	}
	h.log.Info().Str("kitchen_id", id).Msg("menu deleted")
	w.WriteHeader(http.StatusNoContent)
}

// parsePrice accepts an absent price, null, a number or a string. The
// store tolerates other shapes on read, but owners must not write them.
func parsePrice(raw json.RawMessage) (catalog.Price, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", true
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	switch v.(type) {
	case string, float64:
	default:
		return "", false
	}
	var p catalog.Price
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", false
	}
	return p, true
}

func toJSON(e catalog.Entry) menuJSON {
	return menuJSON{ID: e.ID, Name: e.Name, Items: e.Items, Price: e.Price}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
