package rentroll

import "context"

// =============================================================================
// STORE - Persistence of rent roll inputs
// =============================================================================

// Store persists the records a PropertySnapshot is assembled from. Derived
// values (buckets, statuses, targets) are never stored: they are recomputed
// by the Engine on every read.
//
// Implementations:
//   - store/sqlite: SQLite, auto-migrated
//   - store/memory: In-memory, for tests and demos
type Store interface {
	// SavePropertySnapshot upserts the property, the snapshot, and every unit,
	// lease, tenancy, resident and document it carries.
	SavePropertySnapshot(ctx context.Context, ps *PropertySnapshot) error

	// LoadPropertySnapshot assembles the property at one snapshot with all of
	// its units and their complete lease history.
	// Returns generic.ErrPropertyNotFound or generic.ErrSnapshotNotFound.
	LoadPropertySnapshot(ctx context.Context, propertyID, snapshotID string) (*PropertySnapshot, error)

	// ListProperties returns all properties ordered by name.
	ListProperties(ctx context.Context) ([]Property, error)

	// ListSnapshots returns a property's snapshots, most recent date first.
	ListSnapshots(ctx context.Context, propertyID string) ([]Snapshot, error)

	// DeleteProperty removes a property and everything under it.
	DeleteProperty(ctx context.Context, propertyID string) error
}
