package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/osscompliance/catreg/internal/domain"
)

// ProjectStore handles project persistence operations. It maintains the
// project_usages index table, one row per release usage, for reverse lookups.
type ProjectStore struct {
	store *Store
}

func syncProjectUsages(tx *sql.Tx, p *domain.Project) error {
	if _, err := tx.Exec("DELETE FROM project_usages WHERE project_id = ?", p.ID); err != nil {
		return fmt.Errorf("failed to clear project usages: %w", err)
	}
	for releaseID := range p.ReleaseIDToUsage {
		_, err := tx.Exec(`
			INSERT INTO project_usages (project_id, release_id)
			VALUES (?, ?)
		`, p.ID, releaseID)
		if err != nil {
			return fmt.Errorf("failed to index project usage: %w", err)
		}
	}
	return nil
}

// Get retrieves a project by id.
func (ps *ProjectStore) Get(id string) (*domain.Project, error) {
	var doc string
	var etag int64
	err := ps.store.db.QueryRow("SELECT doc, etag FROM projects WHERE id = ?", id).Scan(&doc, &etag)
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Kind: domain.DocumentKindProject, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	var p domain.Project
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, fmt.Errorf("failed to decode project document: %w", err)
	}
	p.ETag = etag
	return &p, nil
}

// Add inserts a new project and indexes its release usages.
func (ps *ProjectStore) Add(p *domain.Project) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode project document: %w", err)
	}
	return ps.store.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO projects (id, name, doc)
			VALUES (?, ?, ?)
		`, p.ID, p.Name, string(doc))
		if err != nil {
			return fmt.Errorf("failed to insert project: %w", err)
		}
		if err := syncProjectUsages(tx, p); err != nil {
			return err
		}
		p.ETag = 1
		return nil
	})
}

// Put updates an existing project with compare-and-swap on its ETag and
// rebuilds its usage index rows.
func (ps *ProjectStore) Put(p *domain.Project) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode project document: %w", err)
	}
	return ps.store.withTx(func(tx *sql.Tx) error {
		var currentETag int64
		err := tx.QueryRow("SELECT etag FROM projects WHERE id = ?", p.ID).Scan(&currentETag)
		if err == sql.ErrNoRows {
			return &domain.NotFoundError{Kind: domain.DocumentKindProject, ID: p.ID}
		}
		if err != nil {
			return fmt.Errorf("failed to get current etag: %w", err)
		}
		if err := checkETag(currentETag, p.ETag); err != nil {
			return err
		}

		_, err = tx.Exec(`
			UPDATE projects
			SET name = ?, doc = ?, etag = etag + 1,
			    updated_at = strftime('%Y-%m-%dT%H:%M:%SZ','now')
			WHERE id = ?
		`, p.Name, string(doc), p.ID)
		if err != nil {
			return fmt.Errorf("failed to update project: %w", err)
		}
		if err := syncProjectUsages(tx, p); err != nil {
			return err
		}

		p.ETag = currentETag + 1
		return nil
	})
}

// UsingRelease returns all projects that record a usage of the given release.
func (ps *ProjectStore) UsingRelease(releaseID string) ([]*domain.Project, error) {
	rows, err := ps.store.db.Query(`
		SELECT p.doc, p.etag FROM projects p
		JOIN project_usages pu ON pu.project_id = p.id
		WHERE pu.release_id = ?
		ORDER BY p.id
	`, releaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects by release: %w", err)
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		var doc string
		var etag int64
		if err := rows.Scan(&doc, &etag); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		var p domain.Project
		if err := json.Unmarshal([]byte(doc), &p); err != nil {
			return nil, fmt.Errorf("failed to decode project document: %w", err)
		}
		p.ETag = etag
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}
