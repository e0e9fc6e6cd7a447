// Package changelog records append-only audit entries for catalog documents.
// Entries are written after the durable write they describe and are never
// read back as a source of entity state.
package changelog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/osscompliance/catreg/internal/db"
	"github.com/osscompliance/catreg/internal/domain"
)

// Recorder appends change-log entries to the database.
type Recorder struct {
	db *db.DB
}

// NewRecorder creates a Recorder writing to the given database.
func NewRecorder(database *db.DB) *Recorder {
	return &Recorder{db: database}
}

// Record appends one entry. A zero Timestamp is filled with the current time.
func (r *Recorder) Record(entry *domain.ChangeLogEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("failed to encode changes: %w", err)
	}

	res, err := r.db.Exec(`
		INSERT INTO changelog (document_id, document_kind, operation, user_edited,
			reference_doc_id, reference_doc_operation, changes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.DocumentID, string(entry.DocumentType), string(entry.Operation), entry.UserEdited,
		nullable(entry.ReferenceDocID), nullable(string(entry.ReferenceDocOperation)),
		string(changes), entry.Timestamp.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert changelog entry: %w", err)
	}

	entry.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get changelog entry id: %w", err)
	}
	return nil
}

// RecordDiff diffs two versions of a document and appends one entry. A nil
// oldDoc means creation, a nil newDoc means deletion.
func (r *Recorder) RecordDiff(documentID string, kind domain.DocumentKind, op domain.Operation,
	actor string, oldDoc, newDoc interface{}, refDocID string, refOp domain.Operation) error {

	changes, err := DiffDocuments(oldDoc, newDoc)
	if err != nil {
		return err
	}
	return r.Record(&domain.ChangeLogEntry{
		DocumentID:            documentID,
		DocumentType:          kind,
		Operation:             op,
		UserEdited:            actor,
		Changes:               changes,
		ReferenceDocID:        refDocID,
		ReferenceDocOperation: refOp,
	})
}

// ByDocument returns all entries for a document, oldest first.
func (r *Recorder) ByDocument(documentID string) ([]*domain.ChangeLogEntry, error) {
	rows, err := r.db.Query(`
		SELECT id, document_id, document_kind, operation, user_edited,
			reference_doc_id, reference_doc_operation, changes, created_at
		FROM changelog WHERE document_id = ? ORDER BY id
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query changelog: %w", err)
	}
	defer rows.Close()

	var entries []*domain.ChangeLogEntry
	for rows.Next() {
		var e domain.ChangeLogEntry
		var refID, refOp *string
		var changes, createdAt string
		err := rows.Scan(&e.ID, &e.DocumentID, &e.DocumentType, &e.Operation, &e.UserEdited,
			&refID, &refOp, &changes, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan changelog entry: %w", err)
		}
		if refID != nil {
			e.ReferenceDocID = *refID
		}
		if refOp != nil {
			e.ReferenceDocOperation = domain.Operation(*refOp)
		}
		if err := json.Unmarshal([]byte(changes), &e.Changes); err != nil {
			return nil, fmt.Errorf("failed to decode changes: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			e.Timestamp = ts
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
