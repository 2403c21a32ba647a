package controller

import (
	"context"
	"sync"
	"time"

	"github.com/belzunces/monsieurchef/internal/service"
)

// Registry keeps one Controller per client session.
type Registry struct {
	store     service.IRecipeStore
	converter service.IConverter
	archive   service.IPhotoArchive
	now       func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	ctrl     *Controller
	lastSeen time.Time
}

// NewRegistry creates an empty registry. archive may be nil.
func NewRegistry(store service.IRecipeStore, converter service.IConverter, archive service.IPhotoArchive) *Registry {
	return &Registry{
		store:     store,
		converter: converter,
		archive:   archive,
		now:       time.Now,
		entries:   make(map[string]*entry),
	}
}

// Get returns the session's controller, creating and initializing it on first use.
func (r *Registry) Get(ctx context.Context, sessionID string) (*Controller, error) {
	r.mu.Lock()
	if e, ok := r.entries[sessionID]; ok {
		e.lastSeen = r.now()
		r.mu.Unlock()
		return e.ctrl, nil
	}
	r.mu.Unlock()

	ctrl := New(sessionID, r.store, r.converter, r.archive)
	if err := ctrl.Init(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another request for the same session may have won the race.
	if e, ok := r.entries[sessionID]; ok {
		e.lastSeen = r.now()
		return e.ctrl, nil
	}
	r.entries[sessionID] = &entry{ctrl: ctrl, lastSeen: r.now()}
	return ctrl, nil
}

// Sweep forgets controllers idle for longer than maxIdle and returns how
// many were dropped. The session pointer in the store is kept, so a
// returning client gets a fresh controller with the same user.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxIdle)
	dropped := 0
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			delete(r.entries, id)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of live controllers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
