/*
Package sqlite provides a SQLite-backed implementation of rentroll.Store.

PURPOSE:
  Persists the input records of the compliance engine: properties,
  rent roll snapshots, units, leases, tenancies, residents and income
  documents. Buckets and verification statuses are derived on read and
  never written here.

KEY TABLES:
  properties:       Compliance configuration; limit tables as JSON columns
  snapshots:        Dated rent roll uploads (optional income limits JSON)
  units:            Physical units of a property
  leases:           Every lease ever recorded against a unit
  tenancies:        Lease <-> snapshot links (what makes a lease "current")
  residents:        Household members per lease
  income_documents: Uploaded income proofs per resident

UPSERT SEMANTICS:
  Every save is an upsert keyed by record ID. Re-importing a snapshot
  replaces changed fields and adds new records; it never removes leases
  created by other uploads. Lease history is what inheritance feeds on.

MONEY:
  Amounts are stored as TEXT (decimal.String()) to keep exact values.
  NULL means "not reported", which is different from zero.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. A save runs in one transaction.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/compliance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ps, err := store.LoadPropertySnapshot(ctx, propertyID, snapshotID)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - rentroll/store.go: Interface definition
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/compliance-engine/compliance"
	"github.com/warp/compliance-engine/generic"
	"github.com/warp/compliance-engine/rentroll"
	"github.com/warp/compliance-engine/verification"
)

// Store implements rentroll.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ rentroll.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS properties (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT '',
		standard TEXT NOT NULL,
		custom_percent TEXT,
		rent_analysis BOOLEAN DEFAULT FALSE,
		utility_allowances_enabled BOOLEAN DEFAULT FALSE,
		utility_allowances_json TEXT,
		rent_limits_json TEXT,
		income_limits_json TEXT,
		total_units INTEGER DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		date TEXT,
		uploaded_at TEXT NOT NULL,
		income_limits_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_property_date
		ON snapshots(property_id, date DESC);

	CREATE TABLE IF NOT EXISTS units (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		unit_number TEXT NOT NULL,
		bedrooms INTEGER,
		square_footage INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_units_property
		ON units(property_id);

	CREATE TABLE IF NOT EXISTS leases (
		id TEXT PRIMARY KEY,
		unit_id TEXT NOT NULL REFERENCES units(id) ON DELETE CASCADE,
		start_date TEXT,
		end_date TEXT,
		rent TEXT,
		lease_type TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_leases_unit
		ON leases(unit_id);

	-- snapshot_id is not a foreign key: a lease may be imported with links
	-- to snapshots uploaded separately.
	CREATE TABLE IF NOT EXISTS tenancies (
		id TEXT PRIMARY KEY,
		lease_id TEXT NOT NULL REFERENCES leases(id) ON DELETE CASCADE,
		snapshot_id TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tenancies_lease
		ON tenancies(lease_id);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_tenancies_unique
		ON tenancies(lease_id, snapshot_id);

	CREATE TABLE IF NOT EXISTS residents (
		id TEXT PRIMARY KEY,
		lease_id TEXT NOT NULL REFERENCES leases(id) ON DELETE CASCADE,
		name TEXT NOT NULL DEFAULT '',
		annualized_income TEXT,
		verified_income TEXT,
		original_income TEXT,
		income_finalized BOOLEAN DEFAULT FALSE,
		has_no_income BOOLEAN DEFAULT FALSE,
		finalized_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_residents_lease
		ON residents(lease_id);

	CREATE TABLE IF NOT EXISTS income_documents (
		id TEXT PRIMARY KEY,
		resident_id TEXT NOT NULL REFERENCES residents(id) ON DELETE CASCADE,
		doc_type TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		uploaded_at TEXT NOT NULL,
		computed_income TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_documents_resident
		ON income_documents(resident_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// SAVE
// =============================================================================

// SavePropertySnapshot upserts every record of ps in one transaction.
func (s *Store) SavePropertySnapshot(ctx context.Context, ps *rentroll.PropertySnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveProperty(ctx, tx, ps.Property); err != nil {
		return fmt.Errorf("failed to save property %s: %w", ps.Property.ID, err)
	}
	if err := saveSnapshot(ctx, tx, ps.Property.ID, ps.Snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", ps.Snapshot.ID, err)
	}
	for _, u := range ps.Units {
		if err := saveUnit(ctx, tx, ps.Property.ID, u); err != nil {
			return fmt.Errorf("failed to save unit %s: %w", u.UnitNumber, err)
		}
	}

	return tx.Commit()
}

func saveProperty(ctx context.Context, db execer, p rentroll.Property) error {
	query := `
		INSERT INTO properties (id, name, state, standard, custom_percent, rent_analysis,
			utility_allowances_enabled, utility_allowances_json, rent_limits_json,
			income_limits_json, total_units, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			state = excluded.state,
			standard = excluded.standard,
			custom_percent = excluded.custom_percent,
			rent_analysis = excluded.rent_analysis,
			utility_allowances_enabled = excluded.utility_allowances_enabled,
			utility_allowances_json = excluded.utility_allowances_json,
			rent_limits_json = excluded.rent_limits_json,
			income_limits_json = excluded.income_limits_json,
			total_units = excluded.total_units,
			updated_at = excluded.updated_at
	`

	var customPercent sql.NullString
	if p.Standard.Kind == compliance.StandardCustom80 {
		customPercent = nullString(p.Standard.CustomPercent.String())
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.ExecContext(ctx, query,
		p.ID, p.Name, p.State, string(p.Standard.Kind), customPercent,
		p.RentAnalysis, p.UtilityAllowancesEnabled,
		toJSON(p.UtilityAllowances), toJSON(p.RentLimits), toJSON(p.IncomeLimits),
		p.TotalUnits, now, now,
	)
	return err
}

func saveSnapshot(ctx context.Context, db execer, propertyID string, snap rentroll.Snapshot) error {
	query := `
		INSERT INTO snapshots (id, property_id, date, uploaded_at, income_limits_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			uploaded_at = excluded.uploaded_at,
			income_limits_json = excluded.income_limits_json
	`

	uploaded := snap.UploadedAt
	if uploaded.IsZero() {
		uploaded = time.Now()
	}
	_, err := db.ExecContext(ctx, query,
		snap.ID, propertyID, nullDate(&snap.Date),
		uploaded.UTC().Format(time.RFC3339), toJSON(snap.IncomeLimits),
	)
	return err
}

func saveUnit(ctx context.Context, db execer, propertyID string, u rentroll.Unit) error {
	query := `
		INSERT INTO units (id, property_id, unit_number, bedrooms, square_footage)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			unit_number = excluded.unit_number,
			bedrooms = excluded.bedrooms,
			square_footage = excluded.square_footage
	`
	if _, err := db.ExecContext(ctx, query, u.ID, propertyID, u.UnitNumber, nullInt(u.Bedrooms), nullInt(u.SquareFootage)); err != nil {
		return err
	}

	for _, l := range u.Leases {
		if err := saveLease(ctx, db, u.ID, l); err != nil {
			return fmt.Errorf("lease %s: %w", l.ID, err)
		}
	}
	return nil
}

func saveLease(ctx context.Context, db execer, unitID string, l rentroll.Lease) error {
	query := `
		INSERT INTO leases (id, unit_id, start_date, end_date, rent, lease_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			rent = excluded.rent,
			lease_type = excluded.lease_type
	`
	created := l.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := db.ExecContext(ctx, query,
		l.ID, unitID, nullDate(l.Term.Start), nullDate(l.Term.End),
		nullDecimal(l.Rent), string(l.Type), created.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return err
	}

	for _, t := range l.Tenancies {
		_, err := db.ExecContext(ctx, `
			INSERT OR IGNORE INTO tenancies (id, lease_id, snapshot_id) VALUES (?, ?, ?)`,
			t.ID, l.ID, t.SnapshotID,
		)
		if err != nil {
			return err
		}
	}

	for _, r := range l.Residents {
		if err := saveResident(ctx, db, l.ID, r); err != nil {
			return fmt.Errorf("resident %s: %w", r.ID, err)
		}
	}
	return nil
}

func saveResident(ctx context.Context, db execer, leaseID string, r rentroll.Resident) error {
	query := `
		INSERT INTO residents (id, lease_id, name, annualized_income, verified_income,
			original_income, income_finalized, has_no_income, finalized_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			annualized_income = excluded.annualized_income,
			verified_income = excluded.verified_income,
			original_income = excluded.original_income,
			income_finalized = excluded.income_finalized,
			has_no_income = excluded.has_no_income,
			finalized_at = excluded.finalized_at
	`
	_, err := db.ExecContext(ctx, query,
		r.ID, leaseID, r.Name,
		nullDecimal(r.AnnualizedIncome), nullDecimal(r.VerifiedIncome), nullDecimal(r.OriginalIncome),
		r.IncomeFinalized, r.HasNoIncome, nullTime(r.FinalizedAt),
	)
	if err != nil {
		return err
	}

	for _, d := range r.Documents {
		_, err := db.ExecContext(ctx, `
			INSERT INTO income_documents (id, resident_id, doc_type, status, uploaded_at, computed_income)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				doc_type = excluded.doc_type,
				status = excluded.status,
				computed_income = excluded.computed_income`,
			d.ID, r.ID, d.Type, string(d.Status),
			d.UploadedAt.UTC().Format(time.RFC3339), nullDecimal(d.ComputedIncome),
		)
		if err != nil {
			return fmt.Errorf("document %s: %w", d.ID, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD
// =============================================================================

const propertyColumns = `id, name, state, standard, custom_percent, rent_analysis,
	utility_allowances_enabled, utility_allowances_json, rent_limits_json,
	income_limits_json, total_units`

// LoadPropertySnapshot assembles the property at one snapshot.
func (s *Store) LoadPropertySnapshot(ctx context.Context, propertyID, snapshotID string) (*rentroll.PropertySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prop, err := scanProperty(s.db.QueryRowContext(ctx,
		"SELECT "+propertyColumns+" FROM properties WHERE id = ?", propertyID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", generic.ErrPropertyNotFound, propertyID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load property: %w", err)
	}

	snap, err := scanSnapshot(s.db.QueryRowContext(ctx,
		"SELECT id, property_id, date, uploaded_at, income_limits_json FROM snapshots WHERE id = ? AND property_id = ?",
		snapshotID, propertyID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", generic.ErrSnapshotNotFound, snapshotID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	units, err := s.loadUnits(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	return &rentroll.PropertySnapshot{Property: prop, Snapshot: snap, Units: units}, nil
}

// loadUnits loads every unit with its complete lease history. Each table is
// read once and stitched together by ID.
func (s *Store) loadUnits(ctx context.Context, propertyID string) ([]rentroll.Unit, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, unit_number, bedrooms, square_footage FROM units WHERE property_id = ? ORDER BY id",
		propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load units: %w", err)
	}
	var units []rentroll.Unit
	unitIdx := make(map[string]int)
	for rows.Next() {
		var u rentroll.Unit
		var bedrooms, sqft sql.NullInt64
		if err := rows.Scan(&u.ID, &u.UnitNumber, &bedrooms, &sqft); err != nil {
			rows.Close()
			return nil, err
		}
		u.PropertyID = propertyID
		u.Bedrooms = intPtr(bedrooms)
		u.SquareFootage = intPtr(sqft)
		unitIdx[u.ID] = len(units)
		units = append(units, u)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	leases, err := s.loadLeases(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	for _, l := range leases {
		if i, ok := unitIdx[l.UnitID]; ok {
			units[i].Leases = append(units[i].Leases, l)
		}
	}
	return units, nil
}

func (s *Store) loadLeases(ctx context.Context, propertyID string) ([]rentroll.Lease, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.id, l.unit_id, l.start_date, l.end_date, l.rent, l.lease_type, l.created_at
		FROM leases l JOIN units u ON u.id = l.unit_id
		WHERE u.property_id = ?
		ORDER BY l.created_at, l.id`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load leases: %w", err)
	}
	var leases []rentroll.Lease
	leaseIdx := make(map[string]int)
	for rows.Next() {
		var l rentroll.Lease
		var start, end, rent sql.NullString
		var leaseType, created string
		if err := rows.Scan(&l.ID, &l.UnitID, &start, &end, &rent, &leaseType, &created); err != nil {
			rows.Close()
			return nil, err
		}
		l.Term = generic.Term{Start: parseDate(start), End: parseDate(end)}
		l.Rent = parseDecimal(rent)
		l.Type = rentroll.LeaseType(leaseType)
		l.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		leaseIdx[l.ID] = len(leases)
		leases = append(leases, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Tenancies
	trows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.lease_id, t.snapshot_id
		FROM tenancies t
		JOIN leases l ON l.id = t.lease_id
		JOIN units u ON u.id = l.unit_id
		WHERE u.property_id = ?
		ORDER BY t.id`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenancies: %w", err)
	}
	for trows.Next() {
		var t rentroll.Tenancy
		if err := trows.Scan(&t.ID, &t.LeaseID, &t.SnapshotID); err != nil {
			trows.Close()
			return nil, err
		}
		if i, ok := leaseIdx[t.LeaseID]; ok {
			leases[i].Tenancies = append(leases[i].Tenancies, t)
		}
	}
	trows.Close()
	if err := trows.Err(); err != nil {
		return nil, err
	}

	residents, err := s.loadResidents(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	for _, r := range residents {
		if i, ok := leaseIdx[r.LeaseID]; ok {
			leases[i].Residents = append(leases[i].Residents, r)
		}
	}
	return leases, nil
}

func (s *Store) loadResidents(ctx context.Context, propertyID string) ([]rentroll.Resident, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.lease_id, r.name, r.annualized_income, r.verified_income,
			r.original_income, r.income_finalized, r.has_no_income, r.finalized_at
		FROM residents r
		JOIN leases l ON l.id = r.lease_id
		JOIN units u ON u.id = l.unit_id
		WHERE u.property_id = ?
		ORDER BY r.id`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load residents: %w", err)
	}
	var residents []rentroll.Resident
	residentIdx := make(map[string]int)
	for rows.Next() {
		var r rentroll.Resident
		var annualized, verified, original, finalizedAt sql.NullString
		if err := rows.Scan(&r.ID, &r.LeaseID, &r.Name, &annualized, &verified,
			&original, &r.IncomeFinalized, &r.HasNoIncome, &finalizedAt); err != nil {
			rows.Close()
			return nil, err
		}
		r.AnnualizedIncome = parseDecimal(annualized)
		r.VerifiedIncome = parseDecimal(verified)
		r.OriginalIncome = parseDecimal(original)
		r.FinalizedAt = parseTime(finalizedAt)
		residentIdx[r.ID] = len(residents)
		residents = append(residents, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	drows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.resident_id, d.doc_type, d.status, d.uploaded_at, d.computed_income
		FROM income_documents d
		JOIN residents r ON r.id = d.resident_id
		JOIN leases l ON l.id = r.lease_id
		JOIN units u ON u.id = l.unit_id
		WHERE u.property_id = ?
		ORDER BY d.uploaded_at, d.id`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	defer drows.Close()
	for drows.Next() {
		var d rentroll.IncomeDocument
		var status, uploaded string
		var computed sql.NullString
		if err := drows.Scan(&d.ID, &d.ResidentID, &d.Type, &status, &uploaded, &computed); err != nil {
			return nil, err
		}
		d.Status = verification.DocumentStatus(status)
		d.UploadedAt, _ = time.Parse(time.RFC3339, uploaded)
		d.ComputedIncome = parseDecimal(computed)
		if i, ok := residentIdx[d.ResidentID]; ok {
			residents[i].Documents = append(residents[i].Documents, d)
		}
	}
	return residents, drows.Err()
}

// =============================================================================
// LISTING AND DELETION
// =============================================================================

// ListProperties returns all properties ordered by name.
func (s *Store) ListProperties(ctx context.Context) ([]rentroll.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+propertyColumns+" FROM properties ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var props []rentroll.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	return props, rows.Err()
}

// ListSnapshots returns a property's snapshots, most recent first.
func (s *Store) ListSnapshots(ctx context.Context, propertyID string) ([]rentroll.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM properties WHERE id = ?", propertyID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", generic.ErrPropertyNotFound, propertyID)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, property_id, date, uploaded_at, income_limits_json FROM snapshots WHERE property_id = ? ORDER BY date DESC, id DESC",
		propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []rentroll.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// DeleteProperty removes a property; foreign keys cascade to its records.
func (s *Store) DeleteProperty(ctx context.Context, propertyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM properties WHERE id = ?", propertyID)
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", generic.ErrPropertyNotFound, propertyID)
	}
	return tx.Commit()
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"income_documents", "residents", "tenancies", "leases", "units", "snapshots", "properties"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// SCANNING
// =============================================================================

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(row rowScanner) (rentroll.Property, error) {
	var p rentroll.Property
	var standard string
	var customPercent, allowances, rentLimits, incomeLimits sql.NullString
	err := row.Scan(&p.ID, &p.Name, &p.State, &standard, &customPercent, &p.RentAnalysis,
		&p.UtilityAllowancesEnabled, &allowances, &rentLimits, &incomeLimits, &p.TotalUnits)
	if err != nil {
		return p, err
	}

	p.Standard = compliance.Standard{Kind: compliance.StandardKind(standard)}
	if pct := parseDecimal(customPercent); pct != nil {
		p.Standard.CustomPercent = *pct
	}
	if err := fromJSON(allowances, &p.UtilityAllowances); err != nil {
		return p, err
	}
	if err := fromJSON(rentLimits, &p.RentLimits); err != nil {
		return p, err
	}
	if err := fromJSON(incomeLimits, &p.IncomeLimits); err != nil {
		return p, err
	}
	return p, nil
}

func scanSnapshot(row rowScanner) (rentroll.Snapshot, error) {
	var snap rentroll.Snapshot
	var date, limits sql.NullString
	var uploaded string
	if err := row.Scan(&snap.ID, &snap.PropertyID, &date, &uploaded, &limits); err != nil {
		return snap, err
	}
	if d := parseDate(date); d != nil {
		snap.Date = *d
	}
	snap.UploadedAt, _ = time.Parse(time.RFC3339, uploaded)
	if err := fromJSON(limits, &snap.IncomeLimits); err != nil {
		return snap, err
	}
	return snap, nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullDate(d *generic.Date) sql.NullString {
	if d == nil || d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func parseDecimal(s sql.NullString) *decimal.Decimal {
	if !s.Valid {
		return nil
	}
	return generic.ParseMoneyPtr(s.String)
}

func parseDate(s sql.NullString) *generic.Date {
	if !s.Valid {
		return nil
	}
	return generic.ParseDatePtr(s.String)
}

func parseTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

// toJSON returns NULL for empty tables.
func toJSON[T ~map[K]V, K comparable, V any](m T) sql.NullString {
	if len(m) == 0 {
		return sql.NullString{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

func fromJSON(s sql.NullString, dst any) error {
	if !s.Valid || s.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s.String), dst); err != nil {
		return fmt.Errorf("failed to decode JSON column: %w", err)
	}
	return nil
}
