package catalog

import (
	"fmt"

	"github.com/osscompliance/catreg/internal/domain"
	"github.com/osscompliance/catreg/internal/permission"
)

// SplitComponent moves attachments and releases from the source component to
// the target. srcUpdate and targetUpdate are the desired end states of the
// two documents; what actually moved is derived by diffing them against the
// stored versions. When nothing moved the call is a no-op SUCCESS and leaves
// no audit trail.
func (h *Handler) SplitComponent(srcUpdate, targetUpdate *domain.Component, user permission.User) (domain.RequestStatus, error) {
	if srcUpdate.ID == targetUpdate.ID {
		return domain.StatusInvalidInput, nil
	}
	source, err := h.store.Components.Get(srcUpdate.ID)
	if err != nil {
		return domain.StatusFailure, err
	}
	target, err := h.store.Components.Get(targetUpdate.ID)
	if err != nil {
		return domain.StatusFailure, err
	}

	if !h.perms.Allowed(permission.ActionWrite, user, source.CreatedBy, source.Moderators) ||
		!h.perms.Allowed(permission.ActionWrite, user, target.CreatedBy, target.Moderators) {
		return domain.StatusAccessDenied, nil
	}
	blocked, err := h.anyUnderModeration(source.ID, target.ID)
	if err != nil {
		return domain.StatusFailure, err
	}
	if blocked {
		return domain.StatusInUse, nil
	}

	movedReleases := movedIDs(source.ReleaseIDs, targetUpdate.ReleaseIDs)
	movedAttachments := movedAttachmentSet(source.Attachments, targetUpdate.Attachments)
	if len(movedReleases) == 0 && len(movedAttachments) == 0 {
		return domain.StatusSuccess, nil
	}

	sourceBefore := source.Clone()
	targetBefore := target.Clone()

	// Attachments move by content id.
	for _, contentID := range movedAttachments {
		for i, a := range source.Attachments {
			if a.AttachmentContentID != contentID {
				continue
			}
			target.Attachments = append(target.Attachments, a)
			source.Attachments = append(source.Attachments[:i], source.Attachments[i+1:]...)
			break
		}
	}

	// Releases are re-homed with the usual rename and conflict suffix.
	keptVersions := make(map[string]bool)
	for _, releaseID := range target.ReleaseIDs {
		r, err := h.store.Releases.Get(releaseID)
		if err != nil {
			if _, ok := err.(*domain.NotFoundError); ok {
				continue
			}
			return domain.StatusFailure, err
		}
		keptVersions[r.Version] = true
	}
	for _, releaseID := range movedReleases {
		r, err := h.store.Releases.Get(releaseID)
		if err != nil {
			if _, ok := err.(*domain.NotFoundError); ok {
				continue
			}
			return domain.StatusFailure, err
		}
		before := r.Clone()
		r.ComponentID = target.ID
		r.Name = target.Name
		if keptVersions[r.Version] {
			r.Version = fmt.Sprintf("%s_conflict (%s)", r.Version, r.ID)
		}
		keptVersions[r.Version] = true
		if err := h.store.Releases.Put(r); err != nil {
			return domain.StatusFailure, err
		}
		h.recordDiff(r.ID, domain.DocumentKindRelease, domain.OperationReleaseUpdate,
			user.Email, before, r, source.ID, domain.OperationSplitComponent)

		source.ReleaseIDs = domain.RemoveFromSet(source.ReleaseIDs, releaseID)
		target.ReleaseIDs = domain.AddToSet(target.ReleaseIDs, releaseID)
	}

	if err := h.recomputeDerivedFields(target); err != nil {
		return domain.StatusFailure, err
	}
	if err := h.recomputeDerivedFields(source); err != nil {
		return domain.StatusFailure, err
	}

	// Target first, same crash posture as merge.
	if err := h.store.Components.Put(target); err != nil {
		return domain.StatusFailure, err
	}
	if err := h.store.Components.Put(source); err != nil {
		return domain.StatusFailure, err
	}

	h.recordDiff(target.ID, domain.DocumentKindComponent, domain.OperationUpdate,
		user.Email, targetBefore, target, source.ID, domain.OperationSplitComponent)
	h.recordDiff(source.ID, domain.DocumentKindComponent, domain.OperationUpdate,
		user.Email, sourceBefore, source, target.ID, domain.OperationSplitComponent)

	h.notifyComponentUpdate(target, user)
	h.notifyComponentUpdate(source, user)

	h.log.Info().Str("source_id", source.ID).Str("target_id", target.ID).
		Int("releases_moved", len(movedReleases)).Int("attachments_moved", len(movedAttachments)).
		Msg("component split")
	return domain.StatusSuccess, nil
}

// movedIDs returns the ids present both in the source's current set and the
// target's desired set: those are the ones the caller wants moved.
func movedIDs(sourceCurrent, targetDesired []string) []string {
	var moved []string
	for _, id := range targetDesired {
		if domain.SetContains(sourceCurrent, id) {
			moved = append(moved, id)
		}
	}
	return moved
}

func movedAttachmentSet(sourceCurrent, targetDesired []domain.Attachment) []string {
	current := make(map[string]bool, len(sourceCurrent))
	for _, a := range sourceCurrent {
		current[a.AttachmentContentID] = true
	}
	var moved []string
	for _, a := range targetDesired {
		if current[a.AttachmentContentID] {
			moved = append(moved, a.AttachmentContentID)
		}
	}
	return moved
}
