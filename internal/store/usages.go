package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/osscompliance/catreg/internal/domain"
)

// AttachmentUsageStore handles attachment usage persistence operations.
type AttachmentUsageStore struct {
	store *Store
}

// Add inserts a new attachment usage.
func (us *AttachmentUsageStore) Add(u *domain.AttachmentUsage) error {
	doc, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to encode attachment usage: %w", err)
	}
	_, err = us.store.db.Exec(`
		INSERT INTO attachment_usages (id, owner_release_id, used_by_release_id, doc)
		VALUES (?, ?, ?, ?)
	`, u.ID, u.OwnerReleaseID, u.UsedByReleaseID, string(doc))
	if err != nil {
		return fmt.Errorf("failed to insert attachment usage: %w", err)
	}
	u.ETag = 1
	return nil
}

// Put updates an existing attachment usage with compare-and-swap on its ETag.
func (us *AttachmentUsageStore) Put(u *domain.AttachmentUsage) error {
	doc, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to encode attachment usage: %w", err)
	}
	return us.store.withTx(func(tx *sql.Tx) error {
		var currentETag int64
		err := tx.QueryRow("SELECT etag FROM attachment_usages WHERE id = ?", u.ID).Scan(&currentETag)
		if err == sql.ErrNoRows {
			return &domain.NotFoundError{Kind: domain.DocumentKindAttachmentUsage, ID: u.ID}
		}
		if err != nil {
			return fmt.Errorf("failed to get current etag: %w", err)
		}
		if err := checkETag(currentETag, u.ETag); err != nil {
			return err
		}

		_, err = tx.Exec(`
			UPDATE attachment_usages
			SET owner_release_id = ?, used_by_release_id = ?, doc = ?, etag = etag + 1
			WHERE id = ?
		`, u.OwnerReleaseID, u.UsedByReleaseID, string(doc), u.ID)
		if err != nil {
			return fmt.Errorf("failed to update attachment usage: %w", err)
		}
		u.ETag = currentETag + 1
		return nil
	})
}

// ByRelease returns all usages that reference the given release as owner or
// consumer.
func (us *AttachmentUsageStore) ByRelease(releaseID string) ([]*domain.AttachmentUsage, error) {
	rows, err := us.store.db.Query(`
		SELECT doc, etag FROM attachment_usages
		WHERE owner_release_id = ? OR used_by_release_id = ?
		ORDER BY id
	`, releaseID, releaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attachment usages: %w", err)
	}
	defer rows.Close()

	var usages []*domain.AttachmentUsage
	for rows.Next() {
		var doc string
		var etag int64
		if err := rows.Scan(&doc, &etag); err != nil {
			return nil, fmt.Errorf("failed to scan attachment usage: %w", err)
		}
		var u domain.AttachmentUsage
		if err := json.Unmarshal([]byte(doc), &u); err != nil {
			return nil, fmt.Errorf("failed to decode attachment usage: %w", err)
		}
		u.ETag = etag
		usages = append(usages, &u)
	}
	return usages, rows.Err()
}
