package domain

import (
	"fmt"
	"strings"
)

// NotFoundError is returned when a required lookup misses
type NotFoundError struct {
	Kind DocumentKind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// HTTPStatus returns the HTTP-style code for the condition.
func (e *NotFoundError) HTTPStatus() int {
	return 404
}

// ETagMismatchError is returned when a revision token doesn't match
type ETagMismatchError struct {
	Expected int64
	Actual   int64
}

func (e *ETagMismatchError) Error() string {
	return fmt.Sprintf("etag mismatch: expected %d, actual %d", e.Expected, e.Actual)
}

// CheckETag verifies etag matches if ifMatch > 0, returns ETagMismatchError on mismatch.
func CheckETag(currentETag, ifMatch int64) error {
	if ifMatch > 0 && currentETag != ifMatch {
		return &ETagMismatchError{Expected: ifMatch, Actual: currentETag}
	}
	return nil
}

// ValidateDocumentKind validates a satellite record's document kind
func ValidateDocumentKind(kind string) error {
	switch DocumentKind(kind) {
	case DocumentKindComponent, DocumentKindRelease, DocumentKindProject:
		return nil
	default:
		return fmt.Errorf("invalid document kind: must be one of: component, release, project")
	}
}

// ValidateModerationState validates a moderation request state
func ValidateModerationState(state string) error {
	switch ModerationState(state) {
	case ModerationStatePending, ModerationStateInProgress, ModerationStateApproved, ModerationStateRejected:
		return nil
	default:
		return fmt.Errorf("invalid moderation state: must be one of: pending, in_progress, approved, rejected")
	}
}

// ValidateReleaseRelationship validates a relationship kind
func ValidateReleaseRelationship(rel string) error {
	switch ReleaseRelationship(rel) {
	case RelationshipContained, RelationshipReferred, RelationshipUnknown,
		RelationshipDynamicallyLinked, RelationshipStaticallyLinked,
		RelationshipSideBySide, RelationshipStandalone, RelationshipInternalUse,
		RelationshipOptional, RelationshipToBeReplaced, RelationshipCodeSnippet:
		return nil
	default:
		return fmt.Errorf("invalid release relationship: %q", rel)
	}
}

// IsOpenModeration reports whether the request still blocks its document.
// PENDING and IN_PROGRESS both count; everything else is closed.
func IsOpenModeration(state ModerationState) bool {
	return state == ModerationStatePending || state == ModerationStateInProgress
}

// TrimStringSet trims whitespace from every element and drops empties.
func TrimStringSet(set []string) []string {
	out := set[:0]
	for _, s := range set {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// TrimComponentFields normalizes the free-text identity fields on a component.
func TrimComponentFields(c *Component) {
	c.Name = strings.TrimSpace(c.Name)
	c.Description = strings.TrimSpace(c.Description)
	c.Homepage = strings.TrimSpace(c.Homepage)
	c.Categories = TrimStringSet(c.Categories)
}

// TrimReleaseFields normalizes the free-text identity fields on a release.
func TrimReleaseFields(r *Release) {
	r.Name = strings.TrimSpace(r.Name)
	r.Version = strings.TrimSpace(r.Version)
	r.CPEID = strings.TrimSpace(r.CPEID)
	r.SourceCodeDownloadURL = strings.TrimSpace(r.SourceCodeDownloadURL)
	r.BinaryDownloadURL = strings.TrimSpace(r.BinaryDownloadURL)
	r.Languages = TrimStringSet(r.Languages)
	r.OperatingSystems = TrimStringSet(r.OperatingSystems)
	r.SoftwarePlatforms = TrimStringSet(r.SoftwarePlatforms)
	r.MainLicenseIDs = TrimStringSet(r.MainLicenseIDs)
	r.Contributors = TrimStringSet(r.Contributors)
	r.Moderators = TrimStringSet(r.Moderators)
}

// HasDuplicateAttachments reports whether the same content id appears twice.
func HasDuplicateAttachments(attachments []Attachment) bool {
	seen := make(map[string]struct{}, len(attachments))
	for _, a := range attachments {
		if _, ok := seen[a.AttachmentContentID]; ok {
			return true
		}
		seen[a.AttachmentContentID] = struct{}{}
	}
	return false
}

// AttachmentContentIDs extracts the content ids of a set of attachments.
func AttachmentContentIDs(attachments []Attachment) []string {
	out := make([]string, 0, len(attachments))
	for _, a := range attachments {
		out = append(out, a.AttachmentContentID)
	}
	return out
}
