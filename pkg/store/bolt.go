// Engage Core
// Copyright (c) 2026 The Kimya Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Engage Core.
//
// Engage Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Engage Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Engage Core.  If not, see <http://www.gnu.org/licenses/>.

package store

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	bolt "go.etcd.io/bbolt"
)

var sessionBucket = []byte("session")

// BoltStore persists session state to a bbolt file so client reloads within
// the same service session restore their state.
type BoltStore struct {
	db *bolt.DB
}

// Open opens (or creates) the session store at path. If the file cannot be
// opened the returned Store is a MemoryStore and a warning is logged; the
// caller never has to handle storage failure. When fresh is true any
// existing session state is discarded.
func Open(path string, fresh bool) Store {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		log.Warn().Err(err).Str("path", path).
			Msg("session store unavailable, using in-memory store")
		return NewMemoryStore()
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		log.Warn().Err(err).Str("path", path).
			Msg("session store unavailable, using in-memory store")
		return NewMemoryStore()
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if fresh {
			if tx.Bucket(sessionBucket) != nil {
				if err := tx.DeleteBucket(sessionBucket); err != nil {
					return err
				}
			}
		}
		_, err := tx.CreateBucketIfNotExists(sessionBucket)
		return err
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to prepare session bucket, using in-memory store")
		_ = db.Close()
		return NewMemoryStore()
	}

	return &BoltStore{db: db}
}

func (s *BoltStore) Get(key string) (string, bool) {
	var val string
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		if data := tx.Bucket(sessionBucket).Get([]byte(key)); data != nil {
			val = string(data)
			found = true
		}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("session store read failed")
		return "", false
	}
	return val, found
}

func (s *BoltStore) Set(key, value string) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Put([]byte(key), []byte(value))
	})
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("session store write failed")
	}
}

func (s *BoltStore) SetAll(kv map[string]string) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(sessionBucket)
		for k, v := range kv {
			if err := bucket.Put([]byte(k), []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Msg("session store batch write failed")
	}
}

func (s *BoltStore) Delete(key string) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Delete([]byte(key))
	})
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("session store delete failed")
	}
}

// Close releases the backing file.
func (s *BoltStore) Close() error {
	return s.db.Close() //nolint:wrapcheck // direct passthrough
}
