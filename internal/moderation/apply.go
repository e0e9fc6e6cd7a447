package moderation

import "github.com/osscompliance/catreg/internal/domain"

// ComponentDelta splits an edited component against the current document
// into a request's additions and deletions payload. Additions carry the full
// edited document; deletions carry the set members and map keys the edit
// removed.
func ComponentDelta(current, edited *domain.Component) (additions, deletions *domain.Component) {
	additions = edited.Clone()
	deletions = &domain.Component{
		Categories:  domain.DiffSets(current.Categories, edited.Categories),
		Moderators:  domain.DiffSets(current.Moderators, edited.Moderators),
		Subscribers: domain.DiffSets(current.Subscribers, edited.Subscribers),
	}
	deletions.ExternalIDs = removedKeys(current.ExternalIDs, edited.ExternalIDs)
	deletions.AdditionalData = removedKeys(current.AdditionalData, edited.AdditionalData)
	return additions, deletions
}

// ReleaseDelta does the same for releases, including removed relationship
// edges.
func ReleaseDelta(current, edited *domain.Release) (additions, deletions *domain.Release) {
	additions = edited.Clone()
	deletions = &domain.Release{
		Languages:         domain.DiffSets(current.Languages, edited.Languages),
		OperatingSystems:  domain.DiffSets(current.OperatingSystems, edited.OperatingSystems),
		SoftwarePlatforms: domain.DiffSets(current.SoftwarePlatforms, edited.SoftwarePlatforms),
		MainLicenseIDs:    domain.DiffSets(current.MainLicenseIDs, edited.MainLicenseIDs),
		Contributors:      domain.DiffSets(current.Contributors, edited.Contributors),
		Moderators:        domain.DiffSets(current.Moderators, edited.Moderators),
	}
	for k, v := range current.ReleaseIDToRelationship {
		if _, ok := edited.ReleaseIDToRelationship[k]; !ok {
			if deletions.ReleaseIDToRelationship == nil {
				deletions.ReleaseIDToRelationship = make(map[string]domain.ReleaseRelationship)
			}
			deletions.ReleaseIDToRelationship[k] = v
		}
	}
	deletions.ExternalIDs = removedKeys(current.ExternalIDs, edited.ExternalIDs)
	return additions, deletions
}

func removedKeys(current, edited map[string]string) map[string]string {
	var removed map[string]string
	for k, v := range current {
		if _, ok := edited[k]; !ok {
			if removed == nil {
				removed = make(map[string]string)
			}
			removed[k] = v
		}
	}
	return removed
}

// ApplyComponentDelta applies a request's additions and deletions to a
// component in place. Scalar fields take the addition value when set; set
// fields remove the deletions first and then add the additions.
func ApplyComponentDelta(c *domain.Component, additions, deletions *domain.Component) {
	if deletions != nil {
		for _, v := range deletions.Categories {
			c.Categories = domain.RemoveFromSet(c.Categories, v)
		}
		for _, v := range deletions.Moderators {
			c.Moderators = domain.RemoveFromSet(c.Moderators, v)
		}
		for _, v := range deletions.Subscribers {
			c.Subscribers = domain.RemoveFromSet(c.Subscribers, v)
		}
		for k := range deletions.ExternalIDs {
			delete(c.ExternalIDs, k)
		}
		for k := range deletions.AdditionalData {
			delete(c.AdditionalData, k)
		}
	}
	if additions == nil {
		return
	}

	if additions.Name != "" {
		c.Name = additions.Name
	}
	if additions.Description != "" {
		c.Description = additions.Description
	}
	if additions.ComponentType != "" {
		c.ComponentType = additions.ComponentType
	}
	if additions.Homepage != "" {
		c.Homepage = additions.Homepage
	}
	if additions.Blog != "" {
		c.Blog = additions.Blog
	}
	if additions.Wiki != "" {
		c.Wiki = additions.Wiki
	}
	if additions.MailingList != "" {
		c.MailingList = additions.MailingList
	}
	if additions.DefaultVendorID != "" {
		c.DefaultVendorID = additions.DefaultVendorID
	}
	if additions.ComponentOwner != "" {
		c.ComponentOwner = additions.ComponentOwner
	}
	if additions.OwnerGroup != "" {
		c.OwnerGroup = additions.OwnerGroup
	}
	if additions.OwnerCountry != "" {
		c.OwnerCountry = additions.OwnerCountry
	}
	for _, v := range additions.Categories {
		c.Categories = domain.AddToSet(c.Categories, v)
	}
	for _, v := range additions.Moderators {
		c.Moderators = domain.AddToSet(c.Moderators, v)
	}
	for _, v := range additions.Subscribers {
		c.Subscribers = domain.AddToSet(c.Subscribers, v)
	}
	for k, v := range additions.ExternalIDs {
		if c.ExternalIDs == nil {
			c.ExternalIDs = make(map[string]string)
		}
		c.ExternalIDs[k] = v
	}
	for k, v := range additions.AdditionalData {
		if c.AdditionalData == nil {
			c.AdditionalData = make(map[string]string)
		}
		c.AdditionalData[k] = v
	}
}

// ApplyReleaseDelta applies a request's additions and deletions to a release
// in place, following the same rules as ApplyComponentDelta.
func ApplyReleaseDelta(r *domain.Release, additions, deletions *domain.Release) {
	if deletions != nil {
		for _, v := range deletions.Languages {
			r.Languages = domain.RemoveFromSet(r.Languages, v)
		}
		for _, v := range deletions.OperatingSystems {
			r.OperatingSystems = domain.RemoveFromSet(r.OperatingSystems, v)
		}
		for _, v := range deletions.SoftwarePlatforms {
			r.SoftwarePlatforms = domain.RemoveFromSet(r.SoftwarePlatforms, v)
		}
		for _, v := range deletions.MainLicenseIDs {
			r.MainLicenseIDs = domain.RemoveFromSet(r.MainLicenseIDs, v)
		}
		for _, v := range deletions.Contributors {
			r.Contributors = domain.RemoveFromSet(r.Contributors, v)
		}
		for _, v := range deletions.Moderators {
			r.Moderators = domain.RemoveFromSet(r.Moderators, v)
		}
		for k := range deletions.ReleaseIDToRelationship {
			delete(r.ReleaseIDToRelationship, k)
		}
		for k := range deletions.ExternalIDs {
			delete(r.ExternalIDs, k)
		}
	}
	if additions == nil {
		return
	}

	if additions.Name != "" {
		r.Name = additions.Name
	}
	if additions.Version != "" {
		r.Version = additions.Version
	}
	if additions.VendorID != "" {
		r.VendorID = additions.VendorID
	}
	if additions.CPEID != "" {
		r.CPEID = additions.CPEID
	}
	if additions.ReleaseDate != "" {
		r.ReleaseDate = additions.ReleaseDate
	}
	if additions.SourceCodeDownloadURL != "" {
		r.SourceCodeDownloadURL = additions.SourceCodeDownloadURL
	}
	if additions.BinaryDownloadURL != "" {
		r.BinaryDownloadURL = additions.BinaryDownloadURL
	}
	for _, v := range additions.Languages {
		r.Languages = domain.AddToSet(r.Languages, v)
	}
	for _, v := range additions.OperatingSystems {
		r.OperatingSystems = domain.AddToSet(r.OperatingSystems, v)
	}
	for _, v := range additions.SoftwarePlatforms {
		r.SoftwarePlatforms = domain.AddToSet(r.SoftwarePlatforms, v)
	}
	for _, v := range additions.MainLicenseIDs {
		r.MainLicenseIDs = domain.AddToSet(r.MainLicenseIDs, v)
	}
	for _, v := range additions.Contributors {
		r.Contributors = domain.AddToSet(r.Contributors, v)
	}
	for _, v := range additions.Moderators {
		r.Moderators = domain.AddToSet(r.Moderators, v)
	}
	for k, v := range additions.ReleaseIDToRelationship {
		if r.ReleaseIDToRelationship == nil {
			r.ReleaseIDToRelationship = make(map[string]domain.ReleaseRelationship)
		}
		r.ReleaseIDToRelationship[k] = v
	}
	for k, v := range additions.ExternalIDs {
		if r.ExternalIDs == nil {
			r.ExternalIDs = make(map[string]string)
		}
		r.ExternalIDs[k] = v
	}
}
