// Package moderation tracks proposed edits awaiting approval. Open requests
// block merges, splits and deletions on the documents they reference.
package moderation

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/osscompliance/catreg/internal/db"
	"github.com/osscompliance/catreg/internal/domain"
	"github.com/osscompliance/catreg/internal/id"
)

// Store persists moderation requests.
type Store struct {
	db *db.DB
}

// NewStore creates a moderation Store over the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Add inserts a new moderation request. A missing id or timestamp is filled in.
func (s *Store) Add(req *domain.ModerationRequest) error {
	if req.ID == "" {
		req.ID = id.New()
	}
	if req.State == "" {
		req.State = domain.ModerationStatePending
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now().UTC()
	}

	doc, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode moderation request: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO moderation_requests (id, document_id, document_kind, state, requesting_user, doc, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, req.ID, req.DocumentID, string(req.DocumentKind), string(req.State), req.RequestingUser,
		string(doc), req.Timestamp.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert moderation request: %w", err)
	}
	req.ETag = 1
	return nil
}

// Get retrieves a moderation request by id.
func (s *Store) Get(requestID string) (*domain.ModerationRequest, error) {
	var doc, state string
	var etag int64
	err := s.db.QueryRow("SELECT doc, state, etag FROM moderation_requests WHERE id = ?", requestID).
		Scan(&doc, &state, &etag)
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Kind: domain.DocumentKindModeration, ID: requestID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get moderation request: %w", err)
	}
	var req domain.ModerationRequest
	if err := json.Unmarshal([]byte(doc), &req); err != nil {
		return nil, fmt.Errorf("failed to decode moderation request: %w", err)
	}
	req.State = domain.ModerationState(state)
	req.ETag = etag
	return &req, nil
}

// OpenByDocument returns the open (pending or in-progress) requests for a
// document, oldest first.
func (s *Store) OpenByDocument(documentID string) ([]*domain.ModerationRequest, error) {
	rows, err := s.db.Query(`
		SELECT doc, state, etag FROM moderation_requests
		WHERE document_id = ? AND state IN (?, ?)
		ORDER BY rowid
	`, documentID, string(domain.ModerationStatePending), string(domain.ModerationStateInProgress))
	if err != nil {
		return nil, fmt.Errorf("failed to query moderation requests: %w", err)
	}
	defer rows.Close()

	var requests []*domain.ModerationRequest
	for rows.Next() {
		var doc, state string
		var etag int64
		if err := rows.Scan(&doc, &state, &etag); err != nil {
			return nil, fmt.Errorf("failed to scan moderation request: %w", err)
		}
		var req domain.ModerationRequest
		if err := json.Unmarshal([]byte(doc), &req); err != nil {
			return nil, fmt.Errorf("failed to decode moderation request: %w", err)
		}
		req.State = domain.ModerationState(state)
		req.ETag = etag
		requests = append(requests, &req)
	}
	return requests, rows.Err()
}

// IsUnderModeration reports whether the document has any open request.
func (s *Store) IsUnderModeration(documentID string) (bool, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM moderation_requests
		WHERE document_id = ? AND state IN (?, ?)
	`, documentID, string(domain.ModerationStatePending), string(domain.ModerationStateInProgress)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to count moderation requests: %w", err)
	}
	return count > 0, nil
}

// CreateOrUpdateRequest coalesces repeat submissions: an open request by the
// same user on the same document is replaced with the new delta instead of
// piling up a second request.
func (s *Store) CreateOrUpdateRequest(req *domain.ModerationRequest) error {
	open, err := s.OpenByDocument(req.DocumentID)
	if err != nil {
		return err
	}
	for _, existing := range open {
		if existing.RequestingUser != req.RequestingUser {
			continue
		}
		existing.ComponentAdditions = req.ComponentAdditions
		existing.ComponentDeletions = req.ComponentDeletions
		existing.ReleaseAdditions = req.ReleaseAdditions
		existing.ReleaseDeletions = req.ReleaseDeletions
		existing.Timestamp = time.Now().UTC()

		doc, err := json.Marshal(existing)
		if err != nil {
			return fmt.Errorf("failed to encode moderation request: %w", err)
		}
		_, err = s.db.Exec(`
			UPDATE moderation_requests SET doc = ?, etag = etag + 1 WHERE id = ?
		`, string(doc), existing.ID)
		if err != nil {
			return fmt.Errorf("failed to update moderation request: %w", err)
		}
		*req = *existing
		return nil
	}
	return s.Add(req)
}

// SetState transitions a request to the given state.
func (s *Store) SetState(requestID string, state domain.ModerationState) error {
	if err := domain.ValidateModerationState(string(state)); err != nil {
		return err
	}

	req, err := s.Get(requestID)
	if err != nil {
		return err
	}
	req.State = state

	doc, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode moderation request: %w", err)
	}
	_, err = s.db.Exec(`
		UPDATE moderation_requests SET state = ?, doc = ?, etag = etag + 1 WHERE id = ?
	`, string(state), string(doc), requestID)
	if err != nil {
		return fmt.Errorf("failed to update moderation request: %w", err)
	}
	return nil
}
