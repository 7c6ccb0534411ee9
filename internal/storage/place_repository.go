package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/room-vacancy/backend/internal/places"
	"github.com/room-vacancy/backend/internal/storage/models"
)

// PlaceRepository stores the place resolution cache in SQLite. It satisfies
// places.Store.
type PlaceRepository struct {
	BaseRepository
}

// NewPlaceRepository creates a new place repository.
func NewPlaceRepository(db *DB) *PlaceRepository {
	return &PlaceRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Load reads both caches.
func (r *PlaceRepository) Load(ctx context.Context) (places.Snapshot, error) {
	snap := places.Snapshot{
		Places:   make(map[string]models.PlaceRecord),
		Failures: make(map[string]string),
	}

	rows, err := r.DB().QueryContext(ctx, `
		SELECT canonical_name, name, lat, lng, address, place_id, url, city, district
		FROM places
	`)
	if err != nil {
		return places.Snapshot{}, fmt.Errorf("querying places: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec models.PlaceRecord
		var city, district sql.NullString
		if err := rows.Scan(
			&rec.CanonicalName, &rec.Name, &rec.Latitude, &rec.Longitude,
			&rec.FormattedAddress, &rec.PlaceID, &rec.URL, &city, &district,
		); err != nil {
			return places.Snapshot{}, fmt.Errorf("scanning place: %w", err)
		}
		rec.City = nullableString(city)
		rec.District = nullableString(district)
		snap.Places[rec.CanonicalName] = rec
	}
	if err := rows.Err(); err != nil {
		return places.Snapshot{}, fmt.Errorf("iterating places: %w", err)
	}

	failures, err := r.DB().QueryContext(ctx, "SELECT name, reason FROM place_failures")
	if err != nil {
		return places.Snapshot{}, fmt.Errorf("querying place failures: %w", err)
	}
	defer failures.Close()

	for failures.Next() {
		var name, reason string
		if err := failures.Scan(&name, &reason); err != nil {
			return places.Snapshot{}, fmt.Errorf("scanning place failure: %w", err)
		}
		snap.Failures[name] = reason
	}
	if err := failures.Err(); err != nil {
		return places.Snapshot{}, fmt.Errorf("iterating place failures: %w", err)
	}

	return snap, nil
}

// Save upserts every entry of both caches in one transaction.
func (r *PlaceRepository) Save(ctx context.Context, snap places.Snapshot) error {
	now := r.Now()

	return r.Transaction(ctx, func(tx *sql.Tx) error {
		placeStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO places (
				canonical_name, name, lat, lng, address, place_id, url, city, district, resolved_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(canonical_name) DO UPDATE SET
				name = excluded.name, lat = excluded.lat, lng = excluded.lng,
				address = excluded.address, place_id = excluded.place_id, url = excluded.url,
				city = excluded.city, district = excluded.district
		`)
		if err != nil {
			return fmt.Errorf("preparing place upsert: %w", err)
		}
		defer placeStmt.Close()

		for _, rec := range snap.Places {
			if _, err := placeStmt.ExecContext(ctx,
				rec.CanonicalName, rec.Name, rec.Latitude, rec.Longitude,
				rec.FormattedAddress, rec.PlaceID, rec.URL, rec.City, rec.District, now,
			); err != nil {
				return fmt.Errorf("upserting place %s: %w", rec.CanonicalName, err)
			}
		}

		failureStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO place_failures (name, reason, recorded_at) VALUES (?, ?, ?)
			ON CONFLICT(name) DO NOTHING
		`)
		if err != nil {
			return fmt.Errorf("preparing failure insert: %w", err)
		}
		defer failureStmt.Close()

		for name, reason := range snap.Failures {
			if _, err := failureStmt.ExecContext(ctx, name, reason, now); err != nil {
				return fmt.Errorf("inserting failure %s: %w", name, err)
			}
		}

		return nil
	})
}

// Count returns the number of resolved places and recorded failures.
func (r *PlaceRepository) Count(ctx context.Context) (resolved, failed int, err error) {
	err = r.DB().QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM places), (SELECT COUNT(*) FROM place_failures)
	`).Scan(&resolved, &failed)
	if err != nil {
		return 0, 0, fmt.Errorf("counting places: %w", err)
	}
	return resolved, failed, nil
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
