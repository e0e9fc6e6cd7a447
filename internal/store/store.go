// Package store provides a persistence layer for catalog documents. Documents
// are stored as JSON alongside indexed identity columns, with etag-based
// optimistic concurrency on every update.
package store

import (
	"database/sql"
	"fmt"

	"github.com/osscompliance/catreg/internal/db"
	"github.com/osscompliance/catreg/internal/domain"
)

// Store is the root store that provides access to document-specific stores.
type Store struct {
	db *db.DB

	// Document-specific stores
	Components    *ComponentStore
	Releases      *ReleaseStore
	Vendors       *VendorStore
	Projects      *ProjectStore
	Usages        *AttachmentUsageStore
	VulnRelations *VulnerabilityRelationStore
	Ratings       *RatingStore
}

// New creates a new Store wrapping the given database connection.
func New(database *db.DB) *Store {
	s := &Store{db: database}
	s.Components = &ComponentStore{store: s}
	s.Releases = &ReleaseStore{store: s}
	s.Vendors = &VendorStore{store: s}
	s.Projects = &ProjectStore{store: s}
	s.Usages = &AttachmentUsageStore{store: s}
	s.VulnRelations = &VulnerabilityRelationStore{store: s}
	s.Ratings = &RatingStore{store: s}
	return s
}

// DB returns the underlying database connection (for read-only queries).
func (s *Store) DB() *db.DB {
	return s.db
}

// withTx executes fn within a transaction. If fn returns nil, the transaction
// is committed; otherwise it is rolled back.
func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

// checkETag verifies etag matches if ifMatch > 0, returns ETagMismatchError on mismatch.
func checkETag(currentETag, ifMatch int64) error {
	if ifMatch > 0 && currentETag != ifMatch {
		return &domain.ETagMismatchError{Expected: ifMatch, Actual: currentETag}
	}
	return nil
}
