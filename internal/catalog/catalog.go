package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Entry is one kitchen's menu for the day, keyed by ID in the store.
type Entry struct {
	ID    string `json:"-"`
	Name  string `json:"name"`
	Items Items  `json:"items,omitempty"`
	Price Price  `json:"price,omitempty"`
}

// Store reads menus. Get returns (nil, nil) when the id does not exist.
type Store interface {
	List(ctx context.Context) ([]Entry, error)
	Get(ctx context.Context, id string) (*Entry, error)
}

// UnmarshalJSON never fails on a well-formed document: a field of an
// unexpected type is rendered as text or left empty, and a record that is
// not an object decodes as an entry with no fields.
func (e *Entry) UnmarshalJSON(b []byte) error {
	var raw struct {
		Name  json.RawMessage `json:"name"`
		Items Items           `json:"items"`
		Price Price           `json:"price"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		*e = Entry{}
		return nil
	}
	*e = Entry{Name: rawText(raw.Name), Items: raw.Items, Price: raw.Price}
	return nil
}

// Price is stored either as a JSON number or a string. Any other shape
// decodes as an empty price.
type Price string

func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && (b[0] == '"' || b[0] == '-' || (b[0] >= '0' && b[0] <= '9')) {
		*p = Price(rawText(b))
		return nil
	}
	*p = ""
	return nil
}

func (p Price) MarshalJSON() ([]byte, error) {
	var n json.Number
	if err := json.Unmarshal([]byte(p), &n); err == nil {
		return []byte(n.String()), nil
	}
	return json.Marshal(string(p))
}

// IsZero reports whether the price is missing or zero.
func (p Price) IsZero() bool {
	if p == "" {
		return true
	}
	f, err := strconv.ParseFloat(string(p), 64)
	return err == nil && f == 0
}

// Items is the day's dishes. Stores hold one string, a list of strings,
// or a list of dish objects with a name; lists are joined with ", ".
type Items string

func (it *Items) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(b, &list); err == nil {
			parts := make([]string, 0, len(list))
			for _, el := range list {
				if s := dishText(el); s != "" {
					parts = append(parts, s)
				}
			}
			*it = Items(strings.Join(parts, ", "))
			return nil
		}
	}
	*it = Items(rawText(b))
	return nil
}

func dishText(b json.RawMessage) string {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var dish struct {
			Name json.RawMessage `json:"name"`
		}
		if err := json.Unmarshal(b, &dish); err == nil {
			if name := rawText(dish.Name); name != "" {
				return name
			}
		}
	}
	return rawText(b)
}

// rawText renders a JSON value as display text: strings unquoted and
// trimmed, null as empty, anything else as compact JSON.
func rawText(b json.RawMessage) string {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return ""
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			return strings.TrimSpace(s)
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		return string(b)
	}
	return buf.String()
}

// fromMap turns a store object keyed by id into entries sorted by id.
func fromMap(m map[string]*Entry) []Entry {
	entries := make([]Entry, 0, len(m))
	for id, e := range m {
		if e == nil {
			continue
		}
		e.ID = id
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}
