package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/osscompliance/catreg/internal/domain"
)

// VulnerabilityRelationStore handles release-to-vulnerability link records.
type VulnerabilityRelationStore struct {
	store *Store
}

// Add inserts a new vulnerability relation.
func (vs *VulnerabilityRelationStore) Add(rel *domain.ReleaseVulnerabilityRelation) error {
	doc, err := json.Marshal(rel)
	if err != nil {
		return fmt.Errorf("failed to encode vulnerability relation: %w", err)
	}
	_, err = vs.store.db.Exec(`
		INSERT INTO vulnerability_relations (id, release_id, vulnerability_id, doc)
		VALUES (?, ?, ?, ?)
	`, rel.ID, rel.ReleaseID, rel.VulnerabilityID, string(doc))
	if err != nil {
		return fmt.Errorf("failed to insert vulnerability relation: %w", err)
	}
	rel.ETag = 1
	return nil
}

// Put updates an existing vulnerability relation with compare-and-swap on its ETag.
func (vs *VulnerabilityRelationStore) Put(rel *domain.ReleaseVulnerabilityRelation) error {
	doc, err := json.Marshal(rel)
	if err != nil {
		return fmt.Errorf("failed to encode vulnerability relation: %w", err)
	}
	return vs.store.withTx(func(tx *sql.Tx) error {
		var currentETag int64
		err := tx.QueryRow("SELECT etag FROM vulnerability_relations WHERE id = ?", rel.ID).Scan(&currentETag)
		if err == sql.ErrNoRows {
			return &domain.NotFoundError{Kind: domain.DocumentKindVulnerabilityRelation, ID: rel.ID}
		}
		if err != nil {
			return fmt.Errorf("failed to get current etag: %w", err)
		}
		if err := checkETag(currentETag, rel.ETag); err != nil {
			return err
		}

		_, err = tx.Exec(`
			UPDATE vulnerability_relations
			SET release_id = ?, vulnerability_id = ?, doc = ?, etag = etag + 1
			WHERE id = ?
		`, rel.ReleaseID, rel.VulnerabilityID, string(doc), rel.ID)
		if err != nil {
			return fmt.Errorf("failed to update vulnerability relation: %w", err)
		}
		rel.ETag = currentETag + 1
		return nil
	})
}

// Delete removes a vulnerability relation by id.
func (vs *VulnerabilityRelationStore) Delete(id string) error {
	res, err := vs.store.db.Exec("DELETE FROM vulnerability_relations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete vulnerability relation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return &domain.NotFoundError{Kind: domain.DocumentKindVulnerabilityRelation, ID: id}
	}
	return nil
}

// ByRelease returns all vulnerability relations pointing at the given release.
func (vs *VulnerabilityRelationStore) ByRelease(releaseID string) ([]*domain.ReleaseVulnerabilityRelation, error) {
	rows, err := vs.store.db.Query(`
		SELECT doc, etag FROM vulnerability_relations WHERE release_id = ? ORDER BY id
	`, releaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query vulnerability relations: %w", err)
	}
	defer rows.Close()

	var relations []*domain.ReleaseVulnerabilityRelation
	for rows.Next() {
		var doc string
		var etag int64
		if err := rows.Scan(&doc, &etag); err != nil {
			return nil, fmt.Errorf("failed to scan vulnerability relation: %w", err)
		}
		var rel domain.ReleaseVulnerabilityRelation
		if err := json.Unmarshal([]byte(doc), &rel); err != nil {
			return nil, fmt.Errorf("failed to decode vulnerability relation: %w", err)
		}
		rel.ETag = etag
		relations = append(relations, &rel)
	}
	return relations, rows.Err()
}

// ByReleaseAndVulnerability returns the relation linking the given release and
// vulnerability, or nil when none exists.
func (vs *VulnerabilityRelationStore) ByReleaseAndVulnerability(releaseID, vulnerabilityID string) (*domain.ReleaseVulnerabilityRelation, error) {
	var doc string
	var etag int64
	err := vs.store.db.QueryRow(`
		SELECT doc, etag FROM vulnerability_relations
		WHERE release_id = ? AND vulnerability_id = ?
	`, releaseID, vulnerabilityID).Scan(&doc, &etag)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query vulnerability relation: %w", err)
	}
	var rel domain.ReleaseVulnerabilityRelation
	if err := json.Unmarshal([]byte(doc), &rel); err != nil {
		return nil, fmt.Errorf("failed to decode vulnerability relation: %w", err)
	}
	rel.ETag = etag
	return &rel, nil
}
