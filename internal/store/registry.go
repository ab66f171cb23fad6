package store

import (
	"sync"

	"github.com/fabricadesoftware/vumock/internal/domain"
)

// Registry resolves the store that owns a request, keyed by the access key
// the request authenticated with. Server keys reach the management API,
// client keys reach the query API; the two key spaces never mix.
type Registry struct {
	mu          sync.RWMutex
	stores      []*Store
	byServerKey map[string]*Store
	byClientKey map[string]*Store
}

func NewRegistry() *Registry {
	return &Registry{
		byServerKey: make(map[string]*Store),
		byClientKey: make(map[string]*Store),
	}
}

// Add registers a database store under both of its key pairs.
func (r *Registry) Add(s *Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores = append(r.stores, s)
	r.byServerKey[s.db.ServerAccessKey] = s
	r.byClientKey[s.db.ClientAccessKey] = s
}

func (r *Registry) ByServerKey(accessKey string) (*Store, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byServerKey[accessKey]
	return s, ok
}

func (r *Registry) ByClientKey(accessKey string) (*Store, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byClientKey[accessKey]
	return s, ok
}

// Databases lists the registered databases in insertion order.
func (r *Registry) Databases() []*domain.Database {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dbs := make([]*domain.Database, 0, len(r.stores))
	for _, s := range r.stores {
		dbs = append(dbs, s.db)
	}
	return dbs
}
