package cache

import (
	"encoding/json"
	"maps"
	"slices"
	"sync"

	"github.com/jrsteele09/go-finance-client/graphql"
)

// Store caches query results keyed by operation name and variables. It plays the
// role of the transport's in-memory cache: it is purged on logout.
//
// Results are copied on the way in and out, so callers may modify what they get.
type Store struct {
	entries    map[string]*graphql.Result
	generation uint64
	lock       sync.RWMutex
}

func New() *Store {
	return &Store{
		entries: make(map[string]*graphql.Result),
	}
}

// Key derives the cache key of an operation. encoding/json sorts map keys, so
// equal variables give equal keys.
func Key(op *graphql.Operation) string {
	vars, err := json.Marshal(op.Variables)
	if err != nil {
		return op.Name
	}
	return op.Name + ":" + string(vars)
}

func (s *Store) Get(op *graphql.Operation) (*graphql.Result, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	r, ok := s.entries[Key(op)]
	if !ok {
		return nil, false
	}
	return clone(r), true
}

func (s *Store) Put(op *graphql.Operation, r *graphql.Result) {
	if r == nil {
		return
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.entries[Key(op)] = clone(r)
}

// Generation changes every time the cache is purged.
func (s *Store) Generation() uint64 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.generation
}

// PutIfGeneration stores r only if no purge happened since generation was
// read. A result fetched before a logout is dropped instead of outliving it.
func (s *Store) PutIfGeneration(op *graphql.Operation, r *graphql.Result, generation uint64) bool {
	if r == nil {
		return false
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.generation != generation {
		return false
	}
	s.entries[Key(op)] = clone(r)
	return true
}

// Purge drops every cached result.
func (s *Store) Purge() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.entries = make(map[string]*graphql.Result)
	s.generation++
}

func (s *Store) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.entries)
}

func clone(r *graphql.Result) *graphql.Result {
	c := &graphql.Result{Data: slices.Clone(r.Data)}
	if r.Errors != nil {
		c.Errors = make([]graphql.Error, len(r.Errors))
		for i, e := range r.Errors {
			e.Path = slices.Clone(e.Path)
			e.Extensions = maps.Clone(e.Extensions)
			c.Errors[i] = e
		}
	}
	return c
}
