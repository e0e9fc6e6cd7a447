package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/osscompliance/catreg/internal/domain"
)

// VendorStore handles vendor persistence operations.
type VendorStore struct {
	store *Store
}

// Get retrieves a vendor by id.
func (vs *VendorStore) Get(id string) (*domain.Vendor, error) {
	var doc string
	var etag int64
	err := vs.store.db.QueryRow("SELECT doc, etag FROM vendors WHERE id = ?", id).Scan(&doc, &etag)
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Kind: domain.DocumentKindVendor, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vendor: %w", err)
	}
	var v domain.Vendor
	if err := json.Unmarshal([]byte(doc), &v); err != nil {
		return nil, fmt.Errorf("failed to decode vendor document: %w", err)
	}
	v.ETag = etag
	return &v, nil
}

// Add inserts a new vendor.
func (vs *VendorStore) Add(v *domain.Vendor) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode vendor document: %w", err)
	}
	_, err = vs.store.db.Exec(`
		INSERT INTO vendors (id, full_name, doc)
		VALUES (?, ?, ?)
	`, v.ID, v.Fullname, string(doc))
	if err != nil {
		return fmt.Errorf("failed to insert vendor: %w", err)
	}
	v.ETag = 1
	return nil
}

// Put updates an existing vendor with compare-and-swap on its ETag.
func (vs *VendorStore) Put(v *domain.Vendor) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode vendor document: %w", err)
	}
	return vs.store.withTx(func(tx *sql.Tx) error {
		var currentETag int64
		err := tx.QueryRow("SELECT etag FROM vendors WHERE id = ?", v.ID).Scan(&currentETag)
		if err == sql.ErrNoRows {
			return &domain.NotFoundError{Kind: domain.DocumentKindVendor, ID: v.ID}
		}
		if err != nil {
			return fmt.Errorf("failed to get current etag: %w", err)
		}
		if err := checkETag(currentETag, v.ETag); err != nil {
			return err
		}

		_, err = tx.Exec(`
			UPDATE vendors SET full_name = ?, doc = ?, etag = etag + 1 WHERE id = ?
		`, v.Fullname, string(doc), v.ID)
		if err != nil {
			return fmt.Errorf("failed to update vendor: %w", err)
		}
		v.ETag = currentETag + 1
		return nil
	})
}
