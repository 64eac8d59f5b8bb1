package chain

import (
	"fmt"
	"sync"
)

// Registry owns one chain per corridor and enforces the
// single-writer-per-corridor rule with one mutation lock per CorridorID.
//
// Distinct corridors never contend: each entry carries its own lock, so a
// slow append on one corridor cannot stall reads or writes on another.
type Registry struct {
	mu      sync.RWMutex
	entries map[CorridorID]*entry
}

type entry struct {
	mu    sync.RWMutex
	chain *Chain
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[CorridorID]*entry)}
}

// Establish creates the chain for a new corridor. Establishing the same
// corridor twice is an error.
func (r *Registry) Establish(id CorridorID, genesisRoot string) error {
	c, err := New(id, genesisRoot)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; ok {
		return fmt.Errorf("%w: %s", ErrCorridorExists, id)
	}
	r.entries[id] = &entry{chain: c}
	return nil
}

func (r *Registry) lookup(id CorridorID) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCorridor, id)
	}
	return e, nil
}

// Update runs fn with exclusive access to the corridor's chain. Appends and
// checkpoint creation go through here.
func (r *Registry) Update(id CorridorID, fn func(*Chain) error) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.chain)
}

// View runs fn with shared read access to the corridor's chain. fn must not
// mutate the chain.
func (r *Registry) View(id CorridorID, fn func(*Chain) error) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fn(e.chain)
}

// Append appends one sealed receipt to its corridor's chain.
func (r *Registry) Append(rec Receipt) error {
	return r.Update(rec.Corridor, func(c *Chain) error {
		return c.Append(rec)
	})
}

// CreateCheckpoint snapshots the corridor's chain.
func (r *Registry) CreateCheckpoint(id CorridorID) (Checkpoint, error) {
	var cp Checkpoint
	err := r.Update(id, func(c *Chain) error {
		var cerr error
		cp, cerr = c.CreateCheckpoint()
		return cerr
	})
	return cp, err
}

// Corridors returns the established corridor ids in unspecified order.
func (r *Registry) Corridors() []CorridorID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]CorridorID, 0, len(r.entries))
	for id := range r.entries {
		out = append(out, id)
	}
	return out
}
