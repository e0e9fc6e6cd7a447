package catalog

import (
	"fmt"

	"github.com/osscompliance/catreg/internal/domain"
	"github.com/osscompliance/catreg/internal/permission"
)

// MergeComponents folds the source component into the target and deletes the
// source. The selection document carries the chosen value for every plain
// field and the kept attachments; release ownership is not selectable, the
// merged component owns the union of both release id sets. Multi-document:
// the target is persisted before the source is touched, so a crash leaves
// the catalog over-linked, never under-linked.
func (h *Handler) MergeComponents(targetID, sourceID string, selection *domain.Component, user permission.User) (domain.RequestStatus, error) {
	if targetID == sourceID {
		return domain.StatusInvalidInput, nil
	}
	target, err := h.store.Components.Get(targetID)
	if err != nil {
		return domain.StatusFailure, err
	}
	source, err := h.store.Components.Get(sourceID)
	if err != nil {
		return domain.StatusFailure, err
	}

	if !permission.CanMergeComponents(h.perms, user, target, source) {
		return domain.StatusAccessDenied, nil
	}
	blocked, err := h.anyUnderModeration(targetID, sourceID)
	if err != nil {
		return domain.StatusFailure, err
	}
	if blocked {
		return domain.StatusInUse, nil
	}

	targetBefore := target.Clone()
	mergeComponentPlainFields(target, source, selection)
	target.Attachments = cloneSelectedAttachments(selection.Attachments)

	if err := h.transferReleases(target, source, user); err != nil {
		return domain.StatusFailure, err
	}
	if err := h.recomputeDerivedFields(target); err != nil {
		return domain.StatusFailure, err
	}

	if err := h.store.Components.Put(target); err != nil {
		return domain.StatusFailure, err
	}

	// Detach the source's releases before deleting it so a failed delete
	// cannot leave releases claimed by two components.
	source.ReleaseIDs = nil
	if err := h.store.Components.Put(source); err != nil {
		return domain.StatusFailure, err
	}
	if err := h.store.Components.Delete(sourceID); err != nil {
		return domain.StatusFailure, err
	}

	h.recordDiff(targetID, domain.DocumentKindComponent, domain.OperationUpdate,
		user.Email, targetBefore, target, sourceID, domain.OperationMergeComponent)
	h.recordDiff(sourceID, domain.DocumentKindComponent, domain.OperationDelete,
		user.Email, source, nil, targetID, domain.OperationMergeComponent)

	h.notifyComponentUpdate(target, user)

	h.log.Info().Str("target_id", targetID).Str("source_id", sourceID).Msg("components merged")
	return domain.StatusSuccess, nil
}

// MergeReleases folds the source release into the target, rewrites every
// reference to the source across the catalog and deletes the source.
func (h *Handler) MergeReleases(targetID, sourceID string, selection *domain.Release, user permission.User) (domain.RequestStatus, error) {
	if targetID == sourceID {
		return domain.StatusInvalidInput, nil
	}
	target, err := h.store.Releases.Get(targetID)
	if err != nil {
		return domain.StatusFailure, err
	}
	source, err := h.store.Releases.Get(sourceID)
	if err != nil {
		return domain.StatusFailure, err
	}

	if !permission.CanMergeReleases(h.perms, user, target, source) {
		return domain.StatusAccessDenied, nil
	}
	blocked, err := h.anyUnderModeration(targetID, sourceID)
	if err != nil {
		return domain.StatusFailure, err
	}
	if blocked {
		return domain.StatusInUse, nil
	}

	targetBefore := target.Clone()
	mergeReleasePlainFields(target, source, selection)
	target.Attachments = cloneSelectedAttachments(selection.Attachments)
	mergeRelationshipEdges(target, source)
	h.autosetClearingState(target)

	if err := h.store.Releases.Put(target); err != nil {
		return domain.StatusFailure, err
	}

	if err := h.updateParentsAfterReleaseMerge(target, source, user); err != nil {
		return domain.StatusFailure, err
	}

	// Reference rewrite is not transactional: individual failures are logged
	// and skipped so one broken record cannot wedge the whole merge.
	h.rewriteReleaseReferences(sourceID, targetID, user)
	h.rewriteProjectUsages(sourceID, targetID, user)
	h.rewriteAttachmentUsages(sourceID, targetID, user)
	h.rewriteVulnerabilityRelations(sourceID, targetID, user)
	h.rewriteVulnerabilityRatings(sourceID, targetID, user)

	if err := h.store.Releases.Delete(sourceID); err != nil {
		return domain.StatusFailure, err
	}

	h.recordDiff(targetID, domain.DocumentKindRelease, domain.OperationUpdate,
		user.Email, targetBefore, target, sourceID, domain.OperationMergeRelease)
	h.recordDiff(sourceID, domain.DocumentKindRelease, domain.OperationDelete,
		user.Email, source, nil, targetID, domain.OperationMergeRelease)

	h.notifyReleaseUpdate(target, user)

	h.log.Info().Str("target_id", targetID).Str("source_id", sourceID).Msg("releases merged")
	return domain.StatusSuccess, nil
}

func (h *Handler) anyUnderModeration(ids ...string) (bool, error) {
	for _, docID := range ids {
		under, err := h.moderation.IsUnderModeration(docID)
		if err != nil {
			return false, err
		}
		if under {
			return true, nil
		}
	}
	return false, nil
}

// mergeComponentPlainFields copies the selected value of every plain field
// onto the target. Displaced creators are kept reachable as moderators.
func mergeComponentPlainFields(target, source, selection *domain.Component) {
	displaced := []string{}
	if selection.CreatedBy != target.CreatedBy && target.CreatedBy != "" {
		displaced = append(displaced, target.CreatedBy)
	}
	if selection.CreatedBy != source.CreatedBy && source.CreatedBy != "" {
		displaced = append(displaced, source.CreatedBy)
	}

	target.Name = selection.Name
	target.Description = selection.Description
	target.Categories = domain.SortedCopy(selection.Categories)
	target.ComponentType = selection.ComponentType
	target.Homepage = selection.Homepage
	target.Blog = selection.Blog
	target.Wiki = selection.Wiki
	target.MailingList = selection.MailingList
	target.DefaultVendorID = selection.DefaultVendorID
	target.ComponentOwner = selection.ComponentOwner
	target.OwnerGroup = selection.OwnerGroup
	target.OwnerCountry = selection.OwnerCountry
	target.ExternalIDs = cloneOrNil(selection.ExternalIDs)
	target.AdditionalData = cloneOrNil(selection.AdditionalData)
	target.Moderators = domain.SortedCopy(selection.Moderators)
	target.Subscribers = domain.SortedCopy(selection.Subscribers)
	target.Roles = cloneRolesOrNil(selection.Roles)
	target.CreatedBy = selection.CreatedBy
	if selection.CreatedOn != "" {
		target.CreatedOn = selection.CreatedOn
	}

	for _, creator := range displaced {
		if creator != target.CreatedBy {
			target.Moderators = domain.AddToSet(target.Moderators, creator)
		}
	}
}

// mergeReleasePlainFields does the same for releases.
func mergeReleasePlainFields(target, source, selection *domain.Release) {
	displaced := []string{}
	if selection.CreatedBy != target.CreatedBy && target.CreatedBy != "" {
		displaced = append(displaced, target.CreatedBy)
	}
	if selection.CreatedBy != source.CreatedBy && source.CreatedBy != "" {
		displaced = append(displaced, source.CreatedBy)
	}

	target.Name = selection.Name
	target.Version = selection.Version
	target.VendorID = selection.VendorID
	target.CPEID = selection.CPEID
	target.ReleaseDate = selection.ReleaseDate
	target.Languages = domain.SortedCopy(selection.Languages)
	target.OperatingSystems = domain.SortedCopy(selection.OperatingSystems)
	target.SoftwarePlatforms = domain.SortedCopy(selection.SoftwarePlatforms)
	target.MainLicenseIDs = domain.SortedCopy(selection.MainLicenseIDs)
	target.SourceCodeDownloadURL = selection.SourceCodeDownloadURL
	target.BinaryDownloadURL = selection.BinaryDownloadURL
	target.Contributors = domain.SortedCopy(selection.Contributors)
	target.Moderators = domain.SortedCopy(selection.Moderators)
	target.Subscribers = domain.SortedCopy(selection.Subscribers)
	target.Roles = cloneRolesOrNil(selection.Roles)
	target.ExternalIDs = cloneOrNil(selection.ExternalIDs)
	if selection.ClearingInformation != nil {
		ci := *selection.ClearingInformation
		target.ClearingInformation = &ci
	}
	if selection.EccInformation != nil {
		ecc := *selection.EccInformation
		target.EccInformation = &ecc
	}
	if selection.MainlineState != "" {
		target.MainlineState = selection.MainlineState
	}
	target.CreatedBy = selection.CreatedBy
	if selection.CreatedOn != "" {
		target.CreatedOn = selection.CreatedOn
	}

	for _, creator := range displaced {
		if creator != target.CreatedBy {
			target.Moderators = domain.AddToSet(target.Moderators, creator)
		}
	}
}

// mergeRelationshipEdges folds the source's outgoing edges into the target
// without overwriting, then strips self-edges.
func mergeRelationshipEdges(target, source *domain.Release) {
	for linkedID, rel := range source.ReleaseIDToRelationship {
		if target.ReleaseIDToRelationship == nil {
			target.ReleaseIDToRelationship = make(map[string]domain.ReleaseRelationship)
		}
		if _, exists := target.ReleaseIDToRelationship[linkedID]; !exists {
			target.ReleaseIDToRelationship[linkedID] = rel
		}
	}
	delete(target.ReleaseIDToRelationship, target.ID)
	delete(target.ReleaseIDToRelationship, source.ID)
}

// transferReleases re-homes every source release onto the target and renames
// all releases of the merged component to the selected name, suffixing
// colliding versions. The merged release id set is the union of the two
// stored documents' sets; the selection has no say over release ownership.
func (h *Handler) transferReleases(target, source *domain.Component, user permission.User) error {
	keptVersions := make(map[string]bool)
	for _, releaseID := range target.ReleaseIDs {
		r, err := h.store.Releases.Get(releaseID)
		if err != nil {
			if _, ok := err.(*domain.NotFoundError); ok {
				continue
			}
			return err
		}
		keptVersions[r.Version] = true
		if r.Name == target.Name {
			continue
		}
		before := r.Clone()
		r.Name = target.Name
		if err := h.store.Releases.Put(r); err != nil {
			return err
		}
		h.recordDiff(r.ID, domain.DocumentKindRelease, domain.OperationReleaseUpdate,
			user.Email, before, r, target.ID, domain.OperationMergeComponent)
	}

	for _, releaseID := range source.ReleaseIDs {
		r, err := h.store.Releases.Get(releaseID)
		if err != nil {
			if _, ok := err.(*domain.NotFoundError); ok {
				continue
			}
			return err
		}
		before := r.Clone()
		r.ComponentID = target.ID
		r.Name = target.Name
		if keptVersions[r.Version] {
			r.Version = fmt.Sprintf("%s_conflict (%s)", r.Version, r.ID)
		}
		keptVersions[r.Version] = true
		if err := h.store.Releases.Put(r); err != nil {
			return err
		}
		h.recordDiff(r.ID, domain.DocumentKindRelease, domain.OperationReleaseUpdate,
			user.Email, before, r, target.ID, domain.OperationMergeComponent)
	}

	target.ReleaseIDs = domain.UnionSets(target.ReleaseIDs, source.ReleaseIDs)
	return nil
}

// updateParentsAfterReleaseMerge maintains the release id sets and derived
// fields of the components owning the merged releases.
func (h *Handler) updateParentsAfterReleaseMerge(target, source *domain.Release, user permission.User) error {
	componentIDs := []string{source.ComponentID}
	if target.ComponentID != source.ComponentID {
		componentIDs = append(componentIDs, target.ComponentID)
	}
	for _, componentID := range componentIDs {
		component, err := h.store.Components.Get(componentID)
		if err != nil {
			if _, ok := err.(*domain.NotFoundError); ok {
				continue
			}
			return err
		}
		before := component.Clone()
		component.ReleaseIDs = domain.RemoveFromSet(component.ReleaseIDs, source.ID)
		if componentID == target.ComponentID {
			component.ReleaseIDs = domain.AddToSet(component.ReleaseIDs, target.ID)
		}
		if err := h.recomputeDerivedFields(component); err != nil {
			return err
		}
		if err := h.store.Components.Put(component); err != nil {
			return err
		}
		h.recordDiff(component.ID, domain.DocumentKindComponent, domain.OperationComponentUpdate,
			user.Email, before, component, target.ID, domain.OperationMergeRelease)
	}
	return nil
}

func cloneSelectedAttachments(attachments []domain.Attachment) []domain.Attachment {
	if attachments == nil {
		return nil
	}
	out := make([]domain.Attachment, len(attachments))
	copy(out, attachments)
	return out
}

func cloneOrNil(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneRolesOrNil(m map[string][]string) map[string][]string {
	if m == nil {
		return nil
	}
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = domain.SortedCopy(v)
	}
	return out
}
