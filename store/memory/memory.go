// Package memory provides an in-memory rentroll.Store.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/compliance-engine/generic"
	"github.com/warp/compliance-engine/rentroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	properties map[string]rentroll.Property
	snapshots  map[string]map[string]rentroll.Snapshot // property -> snapshot ID
	units      map[string]map[string]rentroll.Unit     // property -> unit ID
}

func New() *Memory {
	return &Memory{
		properties: make(map[string]rentroll.Property),
		snapshots:  make(map[string]map[string]rentroll.Snapshot),
		units:      make(map[string]map[string]rentroll.Unit),
	}
}

// SavePropertySnapshot stores a deep copy so callers can keep mutating
// their value.
func (m *Memory) SavePropertySnapshot(_ context.Context, ps *rentroll.PropertySnapshot) error {
	cp, err := deepCopy(ps)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	pid := cp.Property.ID
	m.properties[pid] = cp.Property

	if m.snapshots[pid] == nil {
		m.snapshots[pid] = make(map[string]rentroll.Snapshot)
	}
	cp.Snapshot.PropertyID = pid
	m.snapshots[pid][cp.Snapshot.ID] = cp.Snapshot

	if m.units[pid] == nil {
		m.units[pid] = make(map[string]rentroll.Unit)
	}
	for _, u := range cp.Units {
		u.PropertyID = pid
		m.units[pid][u.ID] = mergeUnit(m.units[pid][u.ID], u)
	}
	return nil
}

// mergeUnit upserts leases by ID so a later upload adds to the history
// instead of replacing it.
func mergeUnit(existing, incoming rentroll.Unit) rentroll.Unit {
	if existing.ID == "" {
		return incoming
	}
	byID := make(map[string]int, len(existing.Leases))
	for i, l := range existing.Leases {
		byID[l.ID] = i
	}
	leases := existing.Leases
	for _, l := range incoming.Leases {
		if i, ok := byID[l.ID]; ok {
			leases[i] = l
			continue
		}
		leases = append(leases, l)
	}
	incoming.Leases = leases
	return incoming
}

func (m *Memory) LoadPropertySnapshot(_ context.Context, propertyID, snapshotID string) (*rentroll.PropertySnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prop, ok := m.properties[propertyID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", generic.ErrPropertyNotFound, propertyID)
	}
	snap, ok := m.snapshots[propertyID][snapshotID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", generic.ErrSnapshotNotFound, snapshotID)
	}

	ps := &rentroll.PropertySnapshot{Property: prop, Snapshot: snap}
	for _, u := range m.units[propertyID] {
		ps.Units = append(ps.Units, u)
	}
	sort.Slice(ps.Units, func(i, j int) bool { return ps.Units[i].ID < ps.Units[j].ID })
	return deepCopy(ps)
}

func (m *Memory) ListProperties(_ context.Context) ([]rentroll.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]rentroll.Property, 0, len(m.properties))
	for _, p := range m.properties {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) ListSnapshots(_ context.Context, propertyID string) ([]rentroll.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.properties[propertyID]; !ok {
		return nil, fmt.Errorf("%w: %s", generic.ErrPropertyNotFound, propertyID)
	}
	out := make([]rentroll.Snapshot, 0, len(m.snapshots[propertyID]))
	for _, s := range m.snapshots[propertyID] {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *Memory) DeleteProperty(_ context.Context, propertyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.properties[propertyID]; !ok {
		return fmt.Errorf("%w: %s", generic.ErrPropertyNotFound, propertyID)
	}
	delete(m.properties, propertyID)
	delete(m.snapshots, propertyID)
	delete(m.units, propertyID)
	return nil
}

// deepCopy round-trips through JSON; the model has no unexported state.
func deepCopy(ps *rentroll.PropertySnapshot) (*rentroll.PropertySnapshot, error) {
	b, err := json.Marshal(ps)
	if err != nil {
		return nil, fmt.Errorf("failed to copy snapshot: %w", err)
	}
	var out rentroll.PropertySnapshot
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("failed to copy snapshot: %w", err)
	}
	return &out, nil
}

var _ rentroll.Store = (*Memory)(nil)
