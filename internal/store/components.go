package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/osscompliance/catreg/internal/domain"
)

// ComponentStore handles component persistence operations.
type ComponentStore struct {
	store *Store
}

func scanComponent(row *sql.Row) (*domain.Component, error) {
	var doc string
	var etag int64
	if err := row.Scan(&doc, &etag); err != nil {
		return nil, err
	}
	var c domain.Component
	if err := json.Unmarshal([]byte(doc), &c); err != nil {
		return nil, fmt.Errorf("failed to decode component document: %w", err)
	}
	c.ETag = etag
	return &c, nil
}

// Get retrieves a component by id.
func (cs *ComponentStore) Get(id string) (*domain.Component, error) {
	row := cs.store.db.QueryRow("SELECT doc, etag FROM components WHERE id = ?", id)
	c, err := scanComponent(row)
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Kind: domain.DocumentKindComponent, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get component: %w", err)
	}
	return c, nil
}

// GetBulk retrieves the components for the given ids, skipping missing ones.
func (cs *ComponentStore) GetBulk(ids []string) ([]*domain.Component, error) {
	components := make([]*domain.Component, 0, len(ids))
	for _, id := range ids {
		c, err := cs.Get(id)
		if err != nil {
			if _, ok := err.(*domain.NotFoundError); ok {
				continue
			}
			return nil, err
		}
		components = append(components, c)
	}
	return components, nil
}

// Add inserts a new component. The component's ETag is set to the initial value.
func (cs *ComponentStore) Add(c *domain.Component) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode component document: %w", err)
	}
	_, err = cs.store.db.Exec(`
		INSERT INTO components (id, name, name_lower, doc)
		VALUES (?, ?, ?, ?)
	`, c.ID, c.Name, strings.ToLower(c.Name), string(doc))
	if err != nil {
		return fmt.Errorf("failed to insert component: %w", err)
	}
	c.ETag = 1
	return nil
}

// Put updates an existing component with compare-and-swap on its ETag. On
// success the component's ETag is advanced to the stored value.
func (cs *ComponentStore) Put(c *domain.Component) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode component document: %w", err)
	}

	return cs.store.withTx(func(tx *sql.Tx) error {
		var currentETag int64
		err := tx.QueryRow("SELECT etag FROM components WHERE id = ?", c.ID).Scan(&currentETag)
		if err == sql.ErrNoRows {
			return &domain.NotFoundError{Kind: domain.DocumentKindComponent, ID: c.ID}
		}
		if err != nil {
			return fmt.Errorf("failed to get current etag: %w", err)
		}
		if err := checkETag(currentETag, c.ETag); err != nil {
			return err
		}

		_, err = tx.Exec(`
			UPDATE components
			SET name = ?, name_lower = ?, doc = ?, etag = etag + 1,
			    updated_at = strftime('%Y-%m-%dT%H:%M:%SZ','now')
			WHERE id = ?
		`, c.Name, strings.ToLower(c.Name), string(doc), c.ID)
		if err != nil {
			return fmt.Errorf("failed to update component: %w", err)
		}

		c.ETag = currentETag + 1
		return nil
	})
}

// Delete removes a component by id.
func (cs *ComponentStore) Delete(id string) error {
	res, err := cs.store.db.Exec("DELETE FROM components WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete component: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return &domain.NotFoundError{Kind: domain.DocumentKindComponent, ID: id}
	}
	return nil
}

// IDsByName returns the ids of all components whose name matches
// case-insensitively.
func (cs *ComponentStore) IDsByName(name string) ([]string, error) {
	rows, err := cs.store.db.Query("SELECT id FROM components WHERE name_lower = ?", strings.ToLower(name))
	if err != nil {
		return nil, fmt.Errorf("failed to query components by name: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan component id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// All returns every component ordered by name.
func (cs *ComponentStore) All() ([]*domain.Component, error) {
	rows, err := cs.store.db.Query("SELECT doc, etag FROM components ORDER BY name_lower, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query components: %w", err)
	}
	defer rows.Close()

	var components []*domain.Component
	for rows.Next() {
		var doc string
		var etag int64
		if err := rows.Scan(&doc, &etag); err != nil {
			return nil, fmt.Errorf("failed to scan component: %w", err)
		}
		var c domain.Component
		if err := json.Unmarshal([]byte(doc), &c); err != nil {
			return nil, fmt.Errorf("failed to decode component document: %w", err)
		}
		c.ETag = etag
		components = append(components, &c)
	}
	return components, rows.Err()
}
