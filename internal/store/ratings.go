package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/osscompliance/catreg/internal/domain"
)

// RatingStore handles project vulnerability rating persistence. It maintains
// the rating_releases index table, one row per release id appearing anywhere
// in the nested status map.
type RatingStore struct {
	store *Store
}

func syncRatingReleases(tx *sql.Tx, rating *domain.ProjectVulnerabilityRating) error {
	if _, err := tx.Exec("DELETE FROM rating_releases WHERE rating_id = ?", rating.ID); err != nil {
		return fmt.Errorf("failed to clear rating releases: %w", err)
	}
	seen := make(map[string]bool)
	for _, byRelease := range rating.Statuses {
		for releaseID := range byRelease {
			if seen[releaseID] {
				continue
			}
			seen[releaseID] = true
			_, err := tx.Exec(`
				INSERT INTO rating_releases (rating_id, release_id)
				VALUES (?, ?)
			`, rating.ID, releaseID)
			if err != nil {
				return fmt.Errorf("failed to index rating release: %w", err)
			}
		}
	}
	return nil
}

// Add inserts a new rating and indexes the release ids it references.
func (rs *RatingStore) Add(rating *domain.ProjectVulnerabilityRating) error {
	doc, err := json.Marshal(rating)
	if err != nil {
		return fmt.Errorf("failed to encode rating document: %w", err)
	}
	return rs.store.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO project_ratings (id, project_id, doc)
			VALUES (?, ?, ?)
		`, rating.ID, rating.ProjectID, string(doc))
		if err != nil {
			return fmt.Errorf("failed to insert rating: %w", err)
		}
		if err := syncRatingReleases(tx, rating); err != nil {
			return err
		}
		rating.ETag = 1
		return nil
	})
}

// Put updates an existing rating with compare-and-swap on its ETag and
// rebuilds its release index rows.
func (rs *RatingStore) Put(rating *domain.ProjectVulnerabilityRating) error {
	doc, err := json.Marshal(rating)
	if err != nil {
		return fmt.Errorf("failed to encode rating document: %w", err)
	}
	return rs.store.withTx(func(tx *sql.Tx) error {
		var currentETag int64
		err := tx.QueryRow("SELECT etag FROM project_ratings WHERE id = ?", rating.ID).Scan(&currentETag)
		if err == sql.ErrNoRows {
			return &domain.NotFoundError{Kind: domain.DocumentKindProjectRating, ID: rating.ID}
		}
		if err != nil {
			return fmt.Errorf("failed to get current etag: %w", err)
		}
		if err := checkETag(currentETag, rating.ETag); err != nil {
			return err
		}

		_, err = tx.Exec(`
			UPDATE project_ratings
			SET project_id = ?, doc = ?, etag = etag + 1
			WHERE id = ?
		`, rating.ProjectID, string(doc), rating.ID)
		if err != nil {
			return fmt.Errorf("failed to update rating: %w", err)
		}
		if err := syncRatingReleases(tx, rating); err != nil {
			return err
		}
		rating.ETag = currentETag + 1
		return nil
	})
}

// ByRelease returns all ratings that reference the given release in their
// nested status map.
func (rs *RatingStore) ByRelease(releaseID string) ([]*domain.ProjectVulnerabilityRating, error) {
	rows, err := rs.store.db.Query(`
		SELECT pr.doc, pr.etag FROM project_ratings pr
		JOIN rating_releases rr ON rr.rating_id = pr.id
		WHERE rr.release_id = ?
		ORDER BY pr.id
	`, releaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings by release: %w", err)
	}
	defer rows.Close()

	var ratings []*domain.ProjectVulnerabilityRating
	for rows.Next() {
		var doc string
		var etag int64
		if err := rows.Scan(&doc, &etag); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		var rating domain.ProjectVulnerabilityRating
		if err := json.Unmarshal([]byte(doc), &rating); err != nil {
			return nil, fmt.Errorf("failed to decode rating document: %w", err)
		}
		rating.ETag = etag
		ratings = append(ratings, &rating)
	}
	return ratings, rows.Err()
}
