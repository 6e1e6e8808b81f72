package backends

import (
	"fmt"
	"strings"
	"sync"

	"github.com/castanaut/castanaut/types"
	"github.com/castanaut/castanaut/utils"
)

// Factory constructs a backend bound to its host.
type Factory func(host Host) (Backend, error)

// Entry is one registered backend variant.
type Entry struct {
	ID      string
	Label   string
	Probe   Probe
	Factory Factory
}

// Registry is an ordered table of backend variants. Resolution walks it in
// registration order.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
	index   map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		index: make(map[string]int),
	}
}

// Register adds a backend variant. Registering an existing id replaces its
// label, probe and factory but keeps its position.
func (r *Registry) Register(id, label string, probe Probe, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := Entry{ID: id, Label: label, Probe: probe, Factory: factory}
	if i, exists := r.index[id]; exists {
		r.entries[i] = entry
		return
	}

	r.index[id] = len(r.entries)
	r.entries = append(r.entries, entry)
	utils.Verbose("Registered backend: %s (%s)", id, label)
}

// Entries returns a snapshot of the registrations in order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Reset drops every registration. Intended for tests.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = nil
	r.index = make(map[string]int)
}

// Resolve returns an instance of the first backend whose probe succeeds.
// A probe that fails or panics counts as unsupported.
func (r *Registry) Resolve(host Host) (Backend, error) {
	entries := r.Entries()

	labels := make([]string, 0, len(entries))
	for _, entry := range entries {
		labels = append(labels, entry.Label)
		if !probeSupported(entry) {
			continue
		}

		utils.Verbose("Selected backend: %s", entry.Label)
		backend, err := entry.Factory(host)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize backend %s: %w", entry.Label, err)
		}
		return backend, nil
	}

	return nil, fmt.Errorf("%w (tried: [%s])", types.ErrNoCompatibleBackend, strings.Join(labels, ", "))
}

func probeSupported(entry Entry) (supported bool) {
	if entry.Probe == nil {
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			utils.Verbose("probe for %s panicked: %v", entry.ID, r)
			supported = false
		}
	}()

	ok, err := entry.Probe.Supported()
	if err != nil {
		utils.Verbose("probe for %s failed: %v", entry.ID, err)
		return false
	}
	return ok
}

// Supported runs the entry's probe with the same rules as Resolve.
func (e Entry) Supported() bool {
	return probeSupported(e)
}
