package catalog

import (
	"fmt"

	"github.com/osscompliance/catreg/internal/domain"
	"github.com/osscompliance/catreg/internal/id"
	"github.com/osscompliance/catreg/internal/moderation"
	"github.com/osscompliance/catreg/internal/permission"
)

// AddComponent validates and creates a component. Component names are unique
// case-insensitively; on DUPLICATE with exactly one match the result carries
// the existing id.
func (h *Handler) AddComponent(c *domain.Component, user permission.User) (AddResult, error) {
	domain.TrimComponentFields(c)
	if c.Name == "" {
		return AddResult{Status: domain.StatusNamingError}, nil
	}
	if domain.HasDuplicateAttachments(c.Attachments) {
		return AddResult{Status: domain.StatusDuplicateAttachment}, nil
	}

	dupIDs, err := h.store.Components.IDsByName(c.Name)
	if err != nil {
		return AddResult{Status: domain.StatusFailure}, err
	}
	if len(dupIDs) > 0 {
		result := AddResult{Status: domain.StatusDuplicate}
		if len(dupIDs) == 1 {
			result.ID = dupIDs[0]
		}
		return result, nil
	}

	if c.ID == "" {
		c.ID = id.New()
	}
	if len(c.Categories) == 0 {
		c.Categories = []string{h.opts.DefaultCategory}
	}
	c.CreatedBy = user.Email
	c.CreatedOn = today()

	if err := h.store.Components.Add(c); err != nil {
		return AddResult{Status: domain.StatusFailure}, err
	}
	h.recordDiff(c.ID, domain.DocumentKindComponent, domain.OperationCreate, user.Email, nil, c, "", "")

	h.log.Info().Str("component_id", c.ID).Str("name", c.Name).Msg("component created")
	return AddResult{Status: domain.StatusSuccess, ID: c.ID}, nil
}

// GetComponent retrieves a component with its derived fields recomputed from
// the current state of its releases.
func (h *Handler) GetComponent(componentID string) (*domain.Component, error) {
	c, err := h.store.Components.Get(componentID)
	if err != nil {
		return nil, err
	}
	if err := h.recomputeDerivedFields(c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateComponent applies an edited component document. Users without write
// access get their edit parked as a moderation request instead.
func (h *Handler) UpdateComponent(c *domain.Component, user permission.User) (domain.RequestStatus, error) {
	current, err := h.store.Components.Get(c.ID)
	if err != nil {
		return domain.StatusFailure, err
	}

	domain.TrimComponentFields(c)
	if c.Name == "" {
		return domain.StatusNamingError, nil
	}
	if domain.HasDuplicateAttachments(c.Attachments) {
		return domain.StatusDuplicateAttachment, nil
	}
	dup, err := h.changeWouldResultInDuplicateComponent(current, c)
	if err != nil {
		return domain.StatusFailure, err
	}
	if dup {
		return domain.StatusDuplicate, nil
	}

	if !h.perms.Allowed(permission.ActionWrite, user, current.CreatedBy, current.Moderators) {
		return h.parkComponentEdit(current, c, user)
	}

	// Identity fields never change through the update path.
	c.CreatedBy = current.CreatedBy
	c.CreatedOn = current.CreatedOn
	c.ETag = current.ETag

	if c.Name != current.Name {
		if err := h.propagateComponentName(c, user); err != nil {
			return domain.StatusFailure, err
		}
	}
	if err := h.recomputeDerivedFields(c); err != nil {
		return domain.StatusFailure, err
	}

	if err := h.store.Components.Put(c); err != nil {
		return domain.StatusFailure, err
	}
	h.recordDiff(c.ID, domain.DocumentKindComponent, domain.OperationUpdate, user.Email, current, c, "", "")
	h.notifyComponentUpdate(c, user)

	return domain.StatusSuccess, nil
}

// DeleteComponent removes a component. Components still holding releases are
// in use and cannot be deleted.
func (h *Handler) DeleteComponent(componentID string, user permission.User) (domain.RequestStatus, error) {
	c, err := h.store.Components.Get(componentID)
	if err != nil {
		return domain.StatusFailure, err
	}
	if len(c.ReleaseIDs) > 0 {
		return domain.StatusInUse, nil
	}
	under, err := h.moderation.IsUnderModeration(componentID)
	if err != nil {
		return domain.StatusFailure, err
	}
	if under {
		return domain.StatusInUse, nil
	}
	if !h.perms.Allowed(permission.ActionDelete, user, c.CreatedBy, c.Moderators) {
		return domain.StatusAccessDenied, nil
	}

	if err := h.store.Components.Delete(componentID); err != nil {
		return domain.StatusFailure, err
	}
	h.recordDiff(componentID, domain.DocumentKindComponent, domain.OperationDelete, user.Email, c, nil, "", "")

	h.log.Info().Str("component_id", componentID).Msg("component deleted")
	return domain.StatusSuccess, nil
}

// parkComponentEdit turns a forbidden direct edit into a moderation request.
func (h *Handler) parkComponentEdit(current, edited *domain.Component, user permission.User) (domain.RequestStatus, error) {
	additions, deletions := moderation.ComponentDelta(current, edited)
	req := &domain.ModerationRequest{
		DocumentID:         current.ID,
		DocumentKind:       domain.DocumentKindComponent,
		RequestingUser:     user.Email,
		ComponentAdditions: additions,
		ComponentDeletions: deletions,
	}
	if err := h.moderation.CreateOrUpdateRequest(req); err != nil {
		return domain.StatusFailure, err
	}
	h.notifyMail(current.Moderators, "moderation request for component "+current.Name,
		fmt.Sprintf("%s proposed changes to component %s", user.Email, current.ID))
	return domain.StatusModerationPending, nil
}

// propagateComponentName renames all releases of the component to the new
// component name, one change-log entry each.
func (h *Handler) propagateComponentName(c *domain.Component, user permission.User) error {
	releases, err := h.store.Releases.ByComponent(c.ID)
	if err != nil {
		return err
	}
	for _, r := range releases {
		if r.Name == c.Name {
			continue
		}
		before := r.Clone()
		r.Name = c.Name
		if err := h.store.Releases.Put(r); err != nil {
			return err
		}
		h.recordDiff(r.ID, domain.DocumentKindRelease, domain.OperationReleaseUpdate,
			user.Email, before, r, c.ID, domain.OperationComponentUpdate)
	}
	return nil
}

// recomputeDerivedFields rebuilds the component's union fields from its
// current releases.
func (h *Handler) recomputeDerivedFields(c *domain.Component) error {
	releases, err := h.store.Releases.GetBulk(c.ReleaseIDs)
	if err != nil {
		return err
	}

	var languages, oses, platforms, licenses, vendors []string
	for _, r := range releases {
		languages = domain.UnionSets(languages, r.Languages)
		oses = domain.UnionSets(oses, r.OperatingSystems)
		platforms = domain.UnionSets(platforms, r.SoftwarePlatforms)
		licenses = domain.UnionSets(licenses, r.MainLicenseIDs)
		if r.VendorID != "" {
			vendor, err := h.store.Vendors.Get(r.VendorID)
			if err != nil {
				if _, ok := err.(*domain.NotFoundError); ok {
					continue
				}
				return err
			}
			name := vendor.Fullname
			if name == "" {
				name = vendor.Shortname
			}
			vendors = domain.AddToSet(vendors, name)
		}
	}

	c.Languages = languages
	c.OperatingSystems = oses
	c.SoftwarePlatforms = platforms
	c.MainLicenseIDs = licenses
	c.VendorNames = vendors
	return nil
}

// changeWouldResultInDuplicateComponent applies the identity-unchanged
// short-circuit before the name lookup.
func (h *Handler) changeWouldResultInDuplicateComponent(before, after *domain.Component) (bool, error) {
	if equalsIgnoreCase(before.Name, after.Name) {
		return false, nil
	}
	ids, err := h.store.Components.IDsByName(after.Name)
	if err != nil {
		return false, err
	}
	for _, existing := range ids {
		if existing != before.ID {
			return true, nil
		}
	}
	return false, nil
}
