package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/osscompliance/catreg/internal/domain"
)

// ReleaseStore handles release persistence operations. Alongside the document
// it maintains the release_relations index table, one row per outgoing
// relationship edge, so reverse lookups do not need to scan JSON.
type ReleaseStore struct {
	store *Store
}

func decodeRelease(doc string, etag int64) (*domain.Release, error) {
	var r domain.Release
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return nil, fmt.Errorf("failed to decode release document: %w", err)
	}
	r.ETag = etag
	return &r, nil
}

func syncReleaseRelations(tx *sql.Tx, r *domain.Release) error {
	if _, err := tx.Exec("DELETE FROM release_relations WHERE release_id = ?", r.ID); err != nil {
		return fmt.Errorf("failed to clear release relations: %w", err)
	}
	for linkedID := range r.ReleaseIDToRelationship {
		_, err := tx.Exec(`
			INSERT INTO release_relations (release_id, linked_release_id)
			VALUES (?, ?)
		`, r.ID, linkedID)
		if err != nil {
			return fmt.Errorf("failed to index release relation: %w", err)
		}
	}
	return nil
}

// Get retrieves a release by id.
func (rs *ReleaseStore) Get(id string) (*domain.Release, error) {
	var doc string
	var etag int64
	err := rs.store.db.QueryRow("SELECT doc, etag FROM releases WHERE id = ?", id).Scan(&doc, &etag)
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Kind: domain.DocumentKindRelease, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get release: %w", err)
	}
	return decodeRelease(doc, etag)
}

// GetBulk retrieves the releases for the given ids, skipping missing ones.
func (rs *ReleaseStore) GetBulk(ids []string) ([]*domain.Release, error) {
	releases := make([]*domain.Release, 0, len(ids))
	for _, id := range ids {
		r, err := rs.Get(id)
		if err != nil {
			if _, ok := err.(*domain.NotFoundError); ok {
				continue
			}
			return nil, err
		}
		releases = append(releases, r)
	}
	return releases, nil
}

// Add inserts a new release and indexes its relationship edges.
func (rs *ReleaseStore) Add(r *domain.Release) error {
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode release document: %w", err)
	}

	return rs.store.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO releases (id, component_id, name, version, doc)
			VALUES (?, ?, ?, ?, ?)
		`, r.ID, r.ComponentID, r.Name, r.Version, string(doc))
		if err != nil {
			return fmt.Errorf("failed to insert release: %w", err)
		}
		if err := syncReleaseRelations(tx, r); err != nil {
			return err
		}
		r.ETag = 1
		return nil
	})
}

// Put updates an existing release with compare-and-swap on its ETag and
// rebuilds its relationship index rows.
func (rs *ReleaseStore) Put(r *domain.Release) error {
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode release document: %w", err)
	}

	return rs.store.withTx(func(tx *sql.Tx) error {
		var currentETag int64
		err := tx.QueryRow("SELECT etag FROM releases WHERE id = ?", r.ID).Scan(&currentETag)
		if err == sql.ErrNoRows {
			return &domain.NotFoundError{Kind: domain.DocumentKindRelease, ID: r.ID}
		}
		if err != nil {
			return fmt.Errorf("failed to get current etag: %w", err)
		}
		if err := checkETag(currentETag, r.ETag); err != nil {
			return err
		}

		_, err = tx.Exec(`
			UPDATE releases
			SET component_id = ?, name = ?, version = ?, doc = ?, etag = etag + 1,
			    updated_at = strftime('%Y-%m-%dT%H:%M:%SZ','now')
			WHERE id = ?
		`, r.ComponentID, r.Name, r.Version, string(doc), r.ID)
		if err != nil {
			return fmt.Errorf("failed to update release: %w", err)
		}
		if err := syncReleaseRelations(tx, r); err != nil {
			return err
		}

		r.ETag = currentETag + 1
		return nil
	})
}

// Delete removes a release and its relationship index rows.
func (rs *ReleaseStore) Delete(id string) error {
	return rs.store.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec("DELETE FROM releases WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete release: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if n == 0 {
			return &domain.NotFoundError{Kind: domain.DocumentKindRelease, ID: id}
		}
		if _, err := tx.Exec("DELETE FROM release_relations WHERE release_id = ?", id); err != nil {
			return fmt.Errorf("failed to clear release relations: %w", err)
		}
		return nil
	})
}

// ByComponent returns all releases belonging to the given component.
func (rs *ReleaseStore) ByComponent(componentID string) ([]*domain.Release, error) {
	return rs.query("SELECT doc, etag FROM releases WHERE component_id = ? ORDER BY version, id", componentID)
}

// ByNameAndVersion returns all releases with the given name and version.
func (rs *ReleaseStore) ByNameAndVersion(name, version string) ([]*domain.Release, error) {
	return rs.query("SELECT doc, etag FROM releases WHERE name = ? AND version = ? ORDER BY id", name, version)
}

// Referencing returns all releases that carry a relationship edge pointing at
// the given release.
func (rs *ReleaseStore) Referencing(releaseID string) ([]*domain.Release, error) {
	return rs.query(`
		SELECT r.doc, r.etag FROM releases r
		JOIN release_relations rr ON rr.release_id = r.id
		WHERE rr.linked_release_id = ?
		ORDER BY r.id
	`, releaseID)
}

func (rs *ReleaseStore) query(q string, args ...interface{}) ([]*domain.Release, error) {
	rows, err := rs.store.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query releases: %w", err)
	}
	defer rows.Close()

	var releases []*domain.Release
	for rows.Next() {
		var doc string
		var etag int64
		if err := rows.Scan(&doc, &etag); err != nil {
			return nil, fmt.Errorf("failed to scan release: %w", err)
		}
		r, err := decodeRelease(doc, etag)
		if err != nil {
			return nil, err
		}
		releases = append(releases, r)
	}
	return releases, rows.Err()
}
