package catalog

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/osscompliance/catreg/internal/domain"
	"github.com/osscompliance/catreg/internal/id"
	"github.com/osscompliance/catreg/internal/moderation"
	"github.com/osscompliance/catreg/internal/permission"
)

// AddRelease validates and creates a release under its component. Release
// identity for duplicate detection is the case-sensitive (name, version) pair.
func (h *Handler) AddRelease(r *domain.Release, user permission.User) (AddResult, error) {
	domain.TrimReleaseFields(r)
	if r.Name == "" || r.Version == "" {
		return AddResult{Status: domain.StatusNamingError}, nil
	}
	if domain.HasDuplicateAttachments(r.Attachments) {
		return AddResult{Status: domain.StatusDuplicateAttachment}, nil
	}

	component, err := h.store.Components.Get(r.ComponentID)
	if err != nil {
		if _, ok := err.(*domain.NotFoundError); ok {
			return AddResult{Status: domain.StatusInvalidInput}, nil
		}
		return AddResult{Status: domain.StatusFailure}, err
	}

	dups, err := h.store.Releases.ByNameAndVersion(r.Name, r.Version)
	if err != nil {
		return AddResult{Status: domain.StatusFailure}, err
	}
	if len(dups) > 0 {
		result := AddResult{Status: domain.StatusDuplicate}
		if len(dups) == 1 {
			result.ID = dups[0].ID
		}
		return result, nil
	}

	if r.ID == "" {
		r.ID = id.New()
	}
	r.CreatedBy = user.Email
	r.CreatedOn = today()
	h.autosetClearingState(r)
	h.autosetEccInformation(r, component, user)
	h.gateMainlineState(r, nil, user)

	if err := h.store.Releases.Add(r); err != nil {
		return AddResult{Status: domain.StatusFailure}, err
	}
	h.recordDiff(r.ID, domain.DocumentKindRelease, domain.OperationReleaseCreate, user.Email, nil, r, "", "")

	// Link into the parent and refresh derived fields.
	componentBefore := component.Clone()
	component.ReleaseIDs = domain.AddToSet(component.ReleaseIDs, r.ID)
	if err := h.recomputeDerivedFields(component); err != nil {
		return AddResult{Status: domain.StatusFailure}, err
	}
	if err := h.store.Components.Put(component); err != nil {
		return AddResult{Status: domain.StatusFailure}, err
	}
	h.recordDiff(component.ID, domain.DocumentKindComponent, domain.OperationComponentUpdate,
		user.Email, componentBefore, component, r.ID, domain.OperationReleaseCreate)

	h.log.Info().Str("release_id", r.ID).Str("name", r.Name).Str("version", r.Version).Msg("release created")
	return AddResult{Status: domain.StatusSuccess, ID: r.ID}, nil
}

// GetRelease retrieves a release by id.
func (h *Handler) GetRelease(releaseID string) (*domain.Release, error) {
	return h.store.Releases.Get(releaseID)
}

// ReleasesByComponent lists the releases of a component.
func (h *Handler) ReleasesByComponent(componentID string) ([]*domain.Release, error) {
	return h.store.Releases.ByComponent(componentID)
}

// UpdateRelease applies an edited release document. Export-control fields
// need WRITE_ECC; users without write access get a moderation request.
func (h *Handler) UpdateRelease(r *domain.Release, user permission.User) (domain.RequestStatus, error) {
	current, err := h.store.Releases.Get(r.ID)
	if err != nil {
		return domain.StatusFailure, err
	}

	domain.TrimReleaseFields(r)
	if r.Name == "" || r.Version == "" {
		return domain.StatusNamingError, nil
	}
	if domain.HasDuplicateAttachments(r.Attachments) {
		return domain.StatusDuplicateAttachment, nil
	}
	dup, err := h.changeWouldResultInDuplicateRelease(current, r)
	if err != nil {
		return domain.StatusFailure, err
	}
	if dup {
		return domain.StatusDuplicate, nil
	}
	if r.ComponentID != current.ComponentID {
		if _, err := h.store.Components.Get(r.ComponentID); err != nil {
			if _, ok := err.(*domain.NotFoundError); ok {
				return domain.StatusInvalidInput, nil
			}
			return domain.StatusFailure, err
		}
	}

	if !h.perms.Allowed(permission.ActionWrite, user, current.CreatedBy, current.Moderators) {
		return h.parkReleaseEdit(current, r, user)
	}

	if eccChanged(current.EccInformation, r.EccInformation) {
		if !h.perms.Allowed(permission.ActionWriteECC, user, current.CreatedBy, current.Moderators) {
			return domain.StatusAccessDenied, nil
		}
		stampEccAssessor(r.EccInformation, user)
	}

	r.CreatedBy = current.CreatedBy
	r.CreatedOn = current.CreatedOn
	r.ETag = current.ETag
	h.autosetClearingState(r)
	h.gateMainlineState(r, current, user)

	if err := h.store.Releases.Put(r); err != nil {
		return domain.StatusFailure, err
	}
	h.recordDiff(r.ID, domain.DocumentKindRelease, domain.OperationReleaseUpdate, user.Email, current, r, "", "")

	if err := h.refreshParents(current, r, user); err != nil {
		return domain.StatusFailure, err
	}
	h.announceAttachmentChanges(current, r, user)
	h.notifyReleaseUpdate(r, user)

	return domain.StatusSuccess, nil
}

// DeleteRelease removes a release. Releases linked from other releases or
// used by projects are in use and cannot be deleted.
func (h *Handler) DeleteRelease(releaseID string, user permission.User) (domain.RequestStatus, error) {
	r, err := h.store.Releases.Get(releaseID)
	if err != nil {
		return domain.StatusFailure, err
	}

	referencing, err := h.store.Releases.Referencing(releaseID)
	if err != nil {
		return domain.StatusFailure, err
	}
	if len(referencing) > 0 {
		return domain.StatusInUse, nil
	}
	projects, err := h.store.Projects.UsingRelease(releaseID)
	if err != nil {
		return domain.StatusFailure, err
	}
	if len(projects) > 0 {
		return domain.StatusInUse, nil
	}
	under, err := h.moderation.IsUnderModeration(releaseID)
	if err != nil {
		return domain.StatusFailure, err
	}
	if under {
		return domain.StatusInUse, nil
	}
	if !h.perms.Allowed(permission.ActionDelete, user, r.CreatedBy, r.Moderators) {
		return domain.StatusAccessDenied, nil
	}

	if err := h.store.Releases.Delete(releaseID); err != nil {
		return domain.StatusFailure, err
	}
	h.recordDiff(releaseID, domain.DocumentKindRelease, domain.OperationReleaseDelete, user.Email, r, nil, "", "")

	component, err := h.store.Components.Get(r.ComponentID)
	if err == nil {
		before := component.Clone()
		component.ReleaseIDs = domain.RemoveFromSet(component.ReleaseIDs, releaseID)
		if err := h.recomputeDerivedFields(component); err != nil {
			return domain.StatusFailure, err
		}
		if err := h.store.Components.Put(component); err != nil {
			return domain.StatusFailure, err
		}
		h.recordDiff(component.ID, domain.DocumentKindComponent, domain.OperationComponentUpdate,
			user.Email, before, component, releaseID, domain.OperationReleaseDelete)
	} else if _, ok := err.(*domain.NotFoundError); !ok {
		return domain.StatusFailure, err
	}

	h.log.Info().Str("release_id", releaseID).Msg("release deleted")
	return domain.StatusSuccess, nil
}

func (h *Handler) parkReleaseEdit(current, edited *domain.Release, user permission.User) (domain.RequestStatus, error) {
	additions, deletions := moderation.ReleaseDelta(current, edited)
	req := &domain.ModerationRequest{
		DocumentID:       current.ID,
		DocumentKind:     domain.DocumentKindRelease,
		RequestingUser:   user.Email,
		ReleaseAdditions: additions,
		ReleaseDeletions: deletions,
	}
	if err := h.moderation.CreateOrUpdateRequest(req); err != nil {
		return domain.StatusFailure, err
	}
	h.notifyMail(current.Moderators, "moderation request for release "+current.Name+" "+current.Version,
		fmt.Sprintf("%s proposed changes to release %s", user.Email, current.ID))
	return domain.StatusModerationPending, nil
}

// refreshParents recomputes derived fields on the affected components,
// handling the release moving between components.
func (h *Handler) refreshParents(before, after *domain.Release, user permission.User) error {
	componentIDs := []string{after.ComponentID}
	if before.ComponentID != after.ComponentID {
		componentIDs = append(componentIDs, before.ComponentID)
	}
	for _, componentID := range componentIDs {
		component, err := h.store.Components.Get(componentID)
		if err != nil {
			if _, ok := err.(*domain.NotFoundError); ok {
				continue
			}
			return err
		}
		if componentID == after.ComponentID {
			component.ReleaseIDs = domain.AddToSet(component.ReleaseIDs, after.ID)
		} else {
			component.ReleaseIDs = domain.RemoveFromSet(component.ReleaseIDs, after.ID)
		}
		if err := h.recomputeDerivedFields(component); err != nil {
			return err
		}
		if err := h.store.Components.Put(component); err != nil {
			return err
		}
	}
	return nil
}

// announceAttachmentChanges posts a comment on the clearing requests of
// projects using this release when its attachment set changed.
func (h *Handler) announceAttachmentChanges(before, after *domain.Release, user permission.User) {
	if h.notifier == nil {
		return
	}
	beforeIDs := domain.SortedCopy(domain.AttachmentContentIDs(before.Attachments))
	afterIDs := domain.SortedCopy(domain.AttachmentContentIDs(after.Attachments))
	if domain.EqualSets(beforeIDs, afterIDs) {
		return
	}

	projects, err := h.store.Projects.UsingRelease(after.ID)
	if err != nil {
		h.log.Error().Err(err).Str("release_id", after.ID).Msg("failed to resolve projects for attachment comment")
		return
	}
	text := fmt.Sprintf("attachments of release %s %s changed", after.Name, after.Version)
	for _, p := range projects {
		if p.ClearingRequestID == "" {
			continue
		}
		h.notifyComment(p.ClearingRequestID, user.Email, text)
	}
}

// autosetClearingState derives the clearing state from the best clearing
// report attachment. Manual tool states survive when no report exists yet.
func (h *Handler) autosetClearingState(r *domain.Release) {
	computed := domain.ClearingStateNew
	for _, a := range r.Attachments {
		if a.Type != domain.AttachmentTypeClearingReport {
			continue
		}
		if a.CheckStatus == domain.CheckStatusAccepted {
			computed = domain.ClearingStateApproved
			break
		}
		computed = domain.ClearingStateReportAvailable
	}
	if computed == domain.ClearingStateNew &&
		(r.ClearingState == domain.ClearingStateSentToTool || r.ClearingState == domain.ClearingStateUnderClearing) {
		return
	}
	r.ClearingState = computed
}

// autosetEccInformation fills the export-control classification for open
// source releases with a resolvable source download URL.
func (h *Handler) autosetEccInformation(r *domain.Release, component *domain.Component, user permission.User) {
	if r.EccInformation != nil && r.EccInformation.Status != "" && r.EccInformation.Status != domain.EccStatusOpen {
		return
	}
	if component.ComponentType != domain.ComponentTypeOSS || !isValidURL(r.SourceCodeDownloadURL) {
		return
	}
	if r.EccInformation == nil {
		r.EccInformation = &domain.EccInformation{}
	}
	r.EccInformation.Status = domain.EccStatusApproved
	r.EccInformation.AL = "N"
	r.EccInformation.ECCN = "N"
	r.EccInformation.Comment = "automatically set"
	stampEccAssessor(r.EccInformation, user)
}

// gateMainlineState keeps mainline decisions with admins unless configured
// otherwise. Non-privileged creates get OPEN; non-privileged updates keep the
// previous value.
func (h *Handler) gateMainlineState(r *domain.Release, previous *domain.Release, user permission.User) {
	if h.opts.MainlineStateForUsers || user.Group == permission.GroupAdmin || user.Group == permission.GroupClearingAdmin {
		if r.MainlineState == "" {
			r.MainlineState = domain.MainlineStateOpen
		}
		return
	}
	if previous == nil {
		r.MainlineState = domain.MainlineStateOpen
		return
	}
	r.MainlineState = previous.MainlineState
}

func (h *Handler) changeWouldResultInDuplicateRelease(before, after *domain.Release) (bool, error) {
	if before.Name == after.Name && before.Version == after.Version {
		return false, nil
	}
	existing, err := h.store.Releases.ByNameAndVersion(after.Name, after.Version)
	if err != nil {
		return false, err
	}
	for _, r := range existing {
		if r.ID != before.ID {
			return true, nil
		}
	}
	return false, nil
}

func eccChanged(before, after *domain.EccInformation) bool {
	if before == nil && after == nil {
		return false
	}
	if before == nil || after == nil {
		return true
	}
	return *before != *after
}

func stampEccAssessor(ecc *domain.EccInformation, user permission.User) {
	if ecc == nil {
		return
	}
	ecc.AssessorContactPerson = user.Email
	ecc.AssessorDepartment = user.Department
	ecc.AssessmentDate = today()
}

func isValidURL(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https" || parsed.Scheme == "ftp") && parsed.Host != ""
}
