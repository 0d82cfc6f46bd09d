package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Repository defines the snapshot persistence interface for the registry.
//
// The registry is authoritative at runtime; a Repository is touched only at
// the lifecycle edges: LoadAll at startup, SaveAll at shutdown. This
// abstraction enables unit testing without database dependencies.
type Repository interface {
	// LoadAll retrieves the persisted device snapshot.
	LoadAll(ctx context.Context) ([]Device, error)

	// SaveAll replaces the persisted snapshot with the given devices.
	SaveAll(ctx context.Context, devices []*Device) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository backed by the given database.
// The devices table must already exist (database.DB.Bootstrap).
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// LoadAll retrieves all persisted devices.
func (r *SQLiteRepository) LoadAll(ctx context.Context) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT device_id, name, category, transport_kind, status,
		       last_seen, attributes, port, created_manually, created_at, updated_at
		FROM devices`)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only cursor

	var devices []Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}

	return devices, nil
}

// SaveAll replaces the snapshot table contents in a single transaction.
func (r *SQLiteRepository) SaveAll(ctx context.Context, devices []*Device) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning snapshot transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM devices`); err != nil {
		return fmt.Errorf("clearing snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO devices (device_id, name, category, transport_kind, status,
		                     last_seen, attributes, port, created_manually,
		                     created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing snapshot insert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck // Transaction-scoped statement

	for _, d := range devices {
		attrs, err := json.Marshal(d.Attributes)
		if err != nil {
			return fmt.Errorf("marshalling attributes for %s: %w", d.ID, err)
		}

		var lastSeen any
		if !d.LastSeen.IsZero() {
			lastSeen = d.LastSeen.UTC()
		}

		_, err = stmt.ExecContext(ctx,
			d.ID, d.Name, string(d.Category), string(d.Transport), string(d.Status),
			lastSeen, string(attrs), d.Port, d.CreatedManually,
			d.CreatedAt.UTC(), d.UpdatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("inserting device %s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}

	return nil
}

// scanDevice reads one device row.
func scanDevice(rows *sql.Rows) (Device, error) {
	var (
		d        Device
		lastSeen sql.NullTime
		attrs    string
	)

	err := rows.Scan(
		&d.ID, &d.Name, (*string)(&d.Category), (*string)(&d.Transport), (*string)(&d.Status),
		&lastSeen, &attrs, &d.Port, &d.CreatedManually, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return Device{}, fmt.Errorf("scanning device row: %w", err)
	}

	if lastSeen.Valid {
		d.LastSeen = lastSeen.Time.UTC()
	} else {
		d.LastSeen = time.Time{}
	}

	if attrs != "" {
		if err := json.Unmarshal([]byte(attrs), &d.Attributes); err != nil {
			return Device{}, fmt.Errorf("unmarshalling attributes for %s: %w", d.ID, err)
		}
	}

	return d, nil
}
