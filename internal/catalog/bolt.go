package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var menusBucket = []byte("menus")

var ErrInvalidID = errors.New("menu id is required")

// BoltStore keeps menus in a local bbolt file. It is the editable
// alternative to FirebaseStore and backs the admin API.
type BoltStore struct {
	db *bolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(menusBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating menus bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) List(_ context.Context) ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(menusBucket).ForEach(func(k, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("decoding menu %s: %w", k, err)
			}
			e.ID = string(k)
			entries = append(entries, e)
			return nil
		})
	})
	return entries, err
}

func (s *BoltStore) Get(_ context.Context, id string) (*Entry, error) {
	var e *Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(menusBucket).Get([]byte(id))
		if v == nil {
			return nil
		}
		e = &Entry{}
		return json.Unmarshal(v, e)
	})
	if err != nil {
		return nil, err
	}
	if e != nil {
		e.ID = id
	}
	return e, nil
}

func (s *BoltStore) Put(_ context.Context, e Entry) error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrInvalidID
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		return tx.Bucket(menusBucket).Put([]byte(e.ID), data)
	})
}

func (s *BoltStore) Delete(_ context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(menusBucket).Delete([]byte(id))
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

var _ Store = (*BoltStore)(nil)
