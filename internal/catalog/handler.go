// Package catalog implements the consistency engine for the component
// catalog: create/update/delete of components and releases, merge and split
// with reference rewriting, duplicate detection, derived-field maintenance
// and audit logging.
package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/osscompliance/catreg/internal/changelog"
	"github.com/osscompliance/catreg/internal/domain"
	"github.com/osscompliance/catreg/internal/moderation"
	"github.com/osscompliance/catreg/internal/notify"
	"github.com/osscompliance/catreg/internal/permission"
	"github.com/osscompliance/catreg/internal/store"
)

// Options tune handler behavior.
type Options struct {
	// DefaultCategory is assigned to components created without categories.
	DefaultCategory string
	// MainlineStateForUsers allows non-admin users to set mainline state.
	MainlineStateForUsers bool
}

// DefaultOptions returns the standard handler options.
func DefaultOptions() Options {
	return Options{DefaultCategory: "Default_Category"}
}

// Handler coordinates catalog operations across the store, the moderation
// queue, the change log and the notifier.
type Handler struct {
	store      *store.Store
	changes    *changelog.Recorder
	moderation *moderation.Store
	perms      permission.Evaluator
	notifier   *notify.Dispatcher
	log        zerolog.Logger
	opts       Options
}

// New creates a Handler. The notifier may be nil; notifications are then
// skipped.
func New(s *store.Store, changes *changelog.Recorder, mod *moderation.Store,
	perms permission.Evaluator, notifier *notify.Dispatcher, log zerolog.Logger, opts Options) *Handler {

	if opts.DefaultCategory == "" {
		opts.DefaultCategory = DefaultOptions().DefaultCategory
	}
	return &Handler{
		store:      s,
		changes:    changes,
		moderation: mod,
		perms:      perms,
		notifier:   notifier,
		log:        log,
		opts:       opts,
	}
}

// AddResult is the outcome of an add operation. ID is set on SUCCESS, and on
// DUPLICATE when exactly one existing document matched.
type AddResult struct {
	Status domain.RequestStatus
	ID     string
}

func today() string {
	return time.Now().UTC().Format("2006-01-02")
}

func equalsIgnoreCase(a, b string) bool {
	return strings.EqualFold(a, b)
}

func (h *Handler) recordDiff(docID string, kind domain.DocumentKind, op domain.Operation,
	actor string, oldDoc, newDoc interface{}, refDocID string, refOp domain.Operation) {

	err := h.changes.RecordDiff(docID, kind, op, actor, oldDoc, newDoc, refDocID, refOp)
	if err != nil {
		// The durable write already happened; a failed audit append must not
		// fail the operation.
		h.log.Error().Err(err).Str("document_id", docID).Msg("failed to record changelog entry")
	}
}

func (h *Handler) notifyComment(clearingRequestID, author, text string) {
	if h.notifier == nil {
		return
	}
	h.notifier.EnqueueComment(clearingRequestID, author, text)
}

func (h *Handler) notifyMail(recipients []string, subject, body string) {
	if h.notifier == nil || len(recipients) == 0 {
		return
	}
	h.notifier.EnqueueMail(recipients, subject, body)
}

// notifyComponentUpdate mails the component's watchers (creator, moderators,
// subscribers) about a change, skipping whoever made it.
func (h *Handler) notifyComponentUpdate(c *domain.Component, user permission.User) {
	recipients := domain.UnionSets(c.Moderators, c.Subscribers)
	recipients = domain.AddToSet(recipients, c.CreatedBy)
	recipients = domain.RemoveFromSet(recipients, user.Email)
	h.notifyMail(recipients, "component "+c.Name+" updated",
		fmt.Sprintf("%s changed component %s", user.Email, c.ID))
}

// notifyReleaseUpdate does the same for a release's watchers.
func (h *Handler) notifyReleaseUpdate(r *domain.Release, user permission.User) {
	recipients := domain.UnionSets(r.Moderators, r.Subscribers)
	recipients = domain.AddToSet(recipients, r.CreatedBy)
	recipients = domain.RemoveFromSet(recipients, user.Email)
	h.notifyMail(recipients, "release "+r.Name+" "+r.Version+" updated",
		fmt.Sprintf("%s changed release %s", user.Email, r.ID))
}
