// Package store implements the content store: the path <-> FileID <->
// content mapping. A file, once loaded, is never evicted or mutated for
// the lifetime of the server.
package store

import (
	"os"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/cespare/xxhash/v2"

	lcierrors "github.com/standardbeagle/searchd/internal/errors"
	"github.com/standardbeagle/searchd/internal/logging"
	"github.com/standardbeagle/searchd/internal/types"
)

var log = logging.For("store")

// ContentStore holds (FileID -> content) and (FileID -> path) under one
// reader-writer lock, so the two maps are always updated together and
// readers never observe one without the other.
type ContentStore struct {
	mu       sync.RWMutex
	contents map[types.FileID][]byte
	paths    map[types.FileID]string

	// loaded is a probabilistic fast-reject layer in front of IsLoaded:
	// a bloom "definitely not present" answer skips the locked map
	// lookup entirely. A bloom "maybe present" always falls through to
	// the exact check below, so false positives never violate the
	// load-once invariant.
	loaded *bloom.BloomFilter
}

// New creates an empty content store sized for an expected file count
// (used only to size the bloom filter; the exact maps grow unbounded).
func New(expectedFiles uint) *ContentStore {
	if expectedFiles == 0 {
		expectedFiles = 1024
	}
	return &ContentStore{
		contents: make(map[types.FileID][]byte),
		paths:    make(map[types.FileID]string),
		loaded:   bloom.NewWithEstimates(expectedFiles, 0.01),
	}
}

// FileIDForPath derives the FileID for path without opening it, so
// callers (the reindex fan-out) can test membership before reading the
// file at all.
func FileIDForPath(path string) types.FileID {
	h := xxhash.Sum64String(path)
	if h == uint64(types.SentinelFileID) {
		// Vanishingly unlikely (1 in 2^64); nudge off the sentinel so a
		// real file is never silently treated as "load failed".
		h = 1
	}
	return types.FileID(h)
}

// IsLoaded reports whether path has already been loaded, without
// opening it.
func (s *ContentStore) IsLoaded(path string) bool {
	return s.IsLoadedID(FileIDForPath(path))
}

// IsLoadedID reports whether id is present in the store.
func (s *ContentStore) IsLoadedID(id types.FileID) bool {
	idBytes := fileIDBytes(id)

	s.mu.RLock()
	maybeLoaded := s.loaded.Test(idBytes)
	s.mu.RUnlock()
	if !maybeLoaded {
		return false
	}

	s.mu.RLock()
	_, ok := s.paths[id]
	s.mu.RUnlock()
	return ok
}

// Load opens and fully reads path, computes its FileID, and records it.
// A path that is already loaded is not read again; its first content is
// kept. It returns the sentinel FileID on open/read failure; the sentinel
// is never indexed and never returned to clients.
func (s *ContentStore) Load(path string) types.FileID {
	id := FileIDForPath(path)
	if s.IsLoadedID(id) {
		return id
	}

	content, err := os.ReadFile(path)
	if err != nil {
		log.Error("failed to load %s: %v", path, lcierrors.NewFileError("read", path, err))
		return types.SentinelFileID
	}

	s.mu.Lock()
	if _, ok := s.paths[id]; !ok {
		s.contents[id] = content
		s.paths[id] = path
		s.loaded.Add(fileIDBytes(id))
	}
	s.mu.Unlock()

	return id
}

// Content returns the bytes for id, or nil if unknown.
func (s *ContentStore) Content(id types.FileID) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.contents[id]
}

// Path returns the path for id, or "" if unknown.
func (s *ContentStore) Path(id types.FileID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paths[id]
}

// Count returns the number of loaded files.
func (s *ContentStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.paths)
}

func fileIDBytes(id types.FileID) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(id >> (8 * i))
	}
	return b
}
