package catalog

import (
	"github.com/osscompliance/catreg/internal/domain"
	"github.com/osscompliance/catreg/internal/moderation"
	"github.com/osscompliance/catreg/internal/permission"
)

// AcceptModerationRequest applies a parked edit to its document and closes
// the request. The accepting user needs write access on the document.
func (h *Handler) AcceptModerationRequest(requestID string, user permission.User) (domain.RequestStatus, error) {
	req, err := h.moderation.Get(requestID)
	if err != nil {
		return domain.StatusFailure, err
	}
	if !domain.IsOpenModeration(req.State) {
		return domain.StatusInvalidInput, nil
	}

	switch req.DocumentKind {
	case domain.DocumentKindComponent:
		c, err := h.store.Components.Get(req.DocumentID)
		if err != nil {
			return domain.StatusFailure, err
		}
		if !h.perms.Allowed(permission.ActionWrite, user, c.CreatedBy, c.Moderators) {
			return domain.StatusAccessDenied, nil
		}
		before := c.Clone()
		moderation.ApplyComponentDelta(c, req.ComponentAdditions, req.ComponentDeletions)
		if err := h.recomputeDerivedFields(c); err != nil {
			return domain.StatusFailure, err
		}
		if err := h.store.Components.Put(c); err != nil {
			return domain.StatusFailure, err
		}
		h.recordDiff(c.ID, domain.DocumentKindComponent, domain.OperationModerationAccept,
			user.Email, before, c, requestID, "")
	case domain.DocumentKindRelease:
		r, err := h.store.Releases.Get(req.DocumentID)
		if err != nil {
			return domain.StatusFailure, err
		}
		if !h.perms.Allowed(permission.ActionWrite, user, r.CreatedBy, r.Moderators) {
			return domain.StatusAccessDenied, nil
		}
		before := r.Clone()
		moderation.ApplyReleaseDelta(r, req.ReleaseAdditions, req.ReleaseDeletions)
		h.autosetClearingState(r)
		if err := h.store.Releases.Put(r); err != nil {
			return domain.StatusFailure, err
		}
		h.recordDiff(r.ID, domain.DocumentKindRelease, domain.OperationModerationAccept,
			user.Email, before, r, requestID, "")
	default:
		return domain.StatusInvalidInput, nil
	}

	if err := h.moderation.SetState(requestID, domain.ModerationStateApproved); err != nil {
		return domain.StatusFailure, err
	}
	h.notifyMail([]string{req.RequestingUser}, "moderation request accepted",
		"your proposed changes to "+req.DocumentID+" were applied")

	h.log.Info().Str("request_id", requestID).Str("document_id", req.DocumentID).Msg("moderation request accepted")
	return domain.StatusSuccess, nil
}

// RejectModerationRequest closes a request without applying it.
func (h *Handler) RejectModerationRequest(requestID string, user permission.User) (domain.RequestStatus, error) {
	req, err := h.moderation.Get(requestID)
	if err != nil {
		return domain.StatusFailure, err
	}
	if !domain.IsOpenModeration(req.State) {
		return domain.StatusInvalidInput, nil
	}
	if err := h.moderation.SetState(requestID, domain.ModerationStateRejected); err != nil {
		return domain.StatusFailure, err
	}
	h.notifyMail([]string{req.RequestingUser}, "moderation request rejected",
		"your proposed changes to "+req.DocumentID+" were declined")
	return domain.StatusSuccess, nil
}
