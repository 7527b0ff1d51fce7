package collision

import (
	"fmt"
	"iter"
	"slices"

	"github.com/zeusync/vipers/internal/core/observability/log"
	"github.com/zeusync/vipers/internal/core/systems/physics"
)

// Manager is the broad phase: a registry of live colliders tested pairwise
// once per tick. The cost is quadratic in registered colliders, not in
// segments, so a segmented body counts once however detailed it is.
//
// The registry holds colliders without owning them. An entity must release
// its Registration before dropping its collider. Manager is not safe for
// concurrent use.
type Manager struct {
	entries []*Registration
	index   map[Collider]int
	logger  log.Log
}

// Registration is the handle returned by Register. Releasing it is the only
// way an owner should take its collider out of the manager.
type Registration struct {
	manager  *Manager
	collider Collider
}

// Collider returns the registered collider.
func (r *Registration) Collider() Collider { return r.collider }

// Registered reports whether this handle still holds a registration.
func (r *Registration) Registered() bool {
	if r == nil || r.manager == nil {
		return false
	}
	i, ok := r.manager.index[r.collider]
	return ok && r.manager.entries[i] == r
}

// Release deregisters the collider. Repeated calls are no-ops, and a stale
// handle never removes a newer registration of the same collider.
func (r *Registration) Release() {
	if !r.Registered() {
		return
	}
	r.manager.remove(r.collider)
	r.manager = nil
}

// NewManager returns an empty manager.
func NewManager(logger log.Log) *Manager {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Manager{
		index:  make(map[Collider]int),
		logger: logger.Named("collision"),
	}
}

// Register adds c. Registering a collider that is already live fails with
// ErrAlreadyRegistered.
func (m *Manager) Register(c Collider) (*Registration, error) {
	if isNil(c) {
		return nil, ErrNilCollider
	}
	if _, ok := m.index[c]; ok {
		return nil, fmt.Errorf("register %s: %w", c.ID(), ErrAlreadyRegistered)
	}
	r := &Registration{manager: m, collider: c}
	m.index[c] = len(m.entries)
	m.entries = append(m.entries, r)
	m.logger.Debug("collider registered",
		log.String("collider", c.ID()),
		log.Bool("active", c.Active()),
		log.Int("registered", len(m.entries)))
	return r, nil
}

// Deregister removes c. Unknown colliders are ignored.
func (m *Manager) Deregister(c Collider) {
	i, ok := m.index[c]
	if !ok {
		return
	}
	m.entries[i].manager = nil
	m.remove(c)
}

func (m *Manager) remove(c Collider) {
	i := m.index[c]
	delete(m.index, c)
	m.entries = slices.Delete(m.entries, i, i+1)
	for j := i; j < len(m.entries); j++ {
		m.index[m.entries[j].collider] = j
	}
	m.logger.Debug("collider deregistered",
		log.String("collider", c.ID()),
		log.Int("registered", len(m.entries)))
}

// Contains reports whether c is registered.
func (m *Manager) Contains(c Collider) bool {
	_, ok := m.index[c]
	return ok
}

// Len returns the number of registered colliders.
func (m *Manager) Len() int { return len(m.entries) }

// Colliders iterates in registration order.
func (m *Manager) Colliders() iter.Seq[Collider] {
	return func(yield func(Collider) bool) {
		for _, r := range m.entries {
			if !yield(r.collider) {
				return
			}
		}
	}
}

// CheckForCollisions tests every unordered pair of registered colliders
// once, in registration order.
func (m *Manager) CheckForCollisions() []Result {
	var out []Result
	for i, ra := range m.entries {
		for _, rb := range m.entries[i+1:] {
			out = append(out, Collide(ra.collider, rb.collider)...)
		}
	}
	return out
}

// CheckCandidate tests c against every registered collider other than
// itself. c does not need to be registered. Results list c first.
func (m *Manager) CheckCandidate(c Collider) []Result {
	var out []Result
	for _, r := range m.entries {
		out = append(out, Collide(c, r.collider)...)
	}
	return out
}

// IsOccupied reports whether shape overlaps any registered collider. The
// probe counts as active, so static geometry is included.
func (m *Manager) IsOccupied(shape physics.Shape) bool {
	probe := &Body{shape: shape, active: true}
	for _, r := range m.entries {
		if len(Collide(probe, r.collider)) > 0 {
			return true
		}
	}
	return false
}
