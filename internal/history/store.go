// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Keys sort by creation time: prediction:<unix nanos, 20 digits>:<id>.
const keyPrefix = "prediction:"

// DefaultListLimit applies when a Query leaves Limit unset.
const DefaultListLimit = 50

// ErrInvalidEntry is returned by Put for entries missing an id or domain.
var ErrInvalidEntry = errors.New("invalid history entry")

// Options configures Open.
type Options struct {
	// Path is the badger directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps everything in RAM; used by tests and ephemeral setups.
	InMemory bool
}

// Query filters List.
type Query struct {
	Domain string
	Limit  int
}

// Store persists history entries in badger.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) a store.
func Open(opts Options) (*Store, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Path == "" {
			return nil, errors.New("history path is required")
		}
		bopts = badger.DefaultOptions(opts.Path)
	}
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func entryKey(e *Entry) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", keyPrefix, e.CreatedAt.UnixNano(), e.ID))
}

// Put stores an entry.
func (s *Store) Put(ctx context.Context, e *Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.ID == "" || e.Domain == "" {
		return ErrInvalidEntry
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(entryKey(e), data); err != nil {
			return fmt.Errorf("set entry: %w", err)
		}
		return nil
	})
}

// List returns entries newest first.
func (s *Store) List(ctx context.Context, q Query) ([]Entry, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	entries := make([]Entry, 0, limit)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// In reverse mode Seek lands on the last key <= the target.
		seek := append([]byte(keyPrefix), 0xFF)
		for it.Seek(seek); it.ValidForPrefix([]byte(keyPrefix)); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var e Entry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				return fmt.Errorf("decode entry %s: %w", it.Item().Key(), err)
			}
			if q.Domain != "" && e.Domain != q.Domain {
				continue
			}

			entries = append(entries, e)
			if len(entries) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

// Prune keeps the newest maxEntries entries and deletes the rest.
// maxEntries <= 0 disables pruning.
func (s *Store) Prune(ctx context.Context, maxEntries int) (int, error) {
	if maxEntries <= 0 {
		return 0, nil
	}

	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		seen := 0
		for it.Seek(append([]byte(keyPrefix), 0xFF)); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			seen++
			if seen > maxEntries {
				keys = append(keys, it.Item().KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan history: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	wb := s.db.NewWriteBatch()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			wb.Cancel()
			return 0, fmt.Errorf("delete entry: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("flush deletes: %w", err)
	}
	return len(keys), nil
}
