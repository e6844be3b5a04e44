package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"research-terminal/internal/api"
)

// Store keeps transient backend data (keyword lists, indexed contents) so
// that repeated renders and page switches don't hit the backend again.
// Nothing here is authoritative; every entry can be dropped at any time.
type Store struct {
	db         *badger.DB
	keywordTTL time.Duration
}

// Open opens the store at dir. An empty dir keeps everything in memory.
func Open(dir string, keywordTTL time.Duration) (*Store, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	return &Store{db: db, keywordTTL: keywordTTL}, nil
}

func keywordsKey(id string) []byte { return []byte("ref:" + id + ":keywords") }
func contentsKey(id string) []byte { return []byte("ref:" + id + ":contents") }

// Keywords returns the cached keyword list for a reference.
func (s *Store) Keywords(id string) ([]string, bool) {
	var keywords []string
	if !s.get(keywordsKey(id), &keywords) {
		return nil, false
	}
	return keywords, true
}

// PutKeywords caches a reference's keywords. Empty lists are not cached:
// the backend may still be extracting them.
func (s *Store) PutKeywords(id string, keywords []string) error {
	if len(keywords) == 0 {
		return nil
	}
	return s.put(keywordsKey(id), keywords, s.keywordTTL)
}

// Contents returns a cached reference (with contents) by id.
func (s *Store) Contents(id string) (*api.Reference, bool) {
	var ref api.Reference
	if !s.get(contentsKey(id), &ref) {
		return nil, false
	}
	return &ref, true
}

// PutContents caches an indexed reference. Unindexed references are skipped
// since their contents are still changing.
func (s *Store) PutContents(ref *api.Reference) error {
	if ref == nil || !ref.Indexed {
		return nil
	}
	return s.put(contentsKey(ref.ID), ref, 0)
}

// Invalidate drops everything cached for a reference.
func (s *Store) Invalidate(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(keywordsKey(id)); err != nil {
			return err
		}
		return txn.Delete(contentsKey(id))
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) put(key []byte, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key, data)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

// get decodes the value at key into out; misses and corrupt entries both
// report false.
func (s *Store) get(key []byte, out interface{}) bool {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
	return err == nil
}
