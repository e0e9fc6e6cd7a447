package domain

// Deep copies. Orchestrators snapshot documents before mutating them and diff
// the snapshot against the persisted result; a shared backing array or map
// would corrupt that diff, so every reference field is copied.

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneRoles(m map[string][]string) map[string][]string {
	if m == nil {
		return nil
	}
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = cloneStrings(v)
	}
	return out
}

func cloneAttachments(a []Attachment) []Attachment {
	if a == nil {
		return nil
	}
	out := make([]Attachment, len(a))
	copy(out, a)
	return out
}

// Clone returns a deep copy of the component.
func (c *Component) Clone() *Component {
	if c == nil {
		return nil
	}
	out := *c
	out.Categories = cloneStrings(c.Categories)
	out.ExternalIDs = cloneStringMap(c.ExternalIDs)
	out.AdditionalData = cloneStringMap(c.AdditionalData)
	out.ReleaseIDs = cloneStrings(c.ReleaseIDs)
	out.Languages = cloneStrings(c.Languages)
	out.OperatingSystems = cloneStrings(c.OperatingSystems)
	out.SoftwarePlatforms = cloneStrings(c.SoftwarePlatforms)
	out.VendorNames = cloneStrings(c.VendorNames)
	out.MainLicenseIDs = cloneStrings(c.MainLicenseIDs)
	out.Attachments = cloneAttachments(c.Attachments)
	out.Moderators = cloneStrings(c.Moderators)
	out.Subscribers = cloneStrings(c.Subscribers)
	out.Roles = cloneRoles(c.Roles)
	return &out
}

// Clone returns a deep copy of the release.
func (r *Release) Clone() *Release {
	if r == nil {
		return nil
	}
	out := *r
	out.Languages = cloneStrings(r.Languages)
	out.OperatingSystems = cloneStrings(r.OperatingSystems)
	out.SoftwarePlatforms = cloneStrings(r.SoftwarePlatforms)
	out.MainLicenseIDs = cloneStrings(r.MainLicenseIDs)
	if r.ReleaseIDToRelationship != nil {
		out.ReleaseIDToRelationship = make(map[string]ReleaseRelationship, len(r.ReleaseIDToRelationship))
		for k, v := range r.ReleaseIDToRelationship {
			out.ReleaseIDToRelationship[k] = v
		}
	}
	out.Attachments = cloneAttachments(r.Attachments)
	if r.ClearingInformation != nil {
		ci := *r.ClearingInformation
		out.ClearingInformation = &ci
	}
	if r.EccInformation != nil {
		ecc := *r.EccInformation
		out.EccInformation = &ecc
	}
	out.Contributors = cloneStrings(r.Contributors)
	out.Moderators = cloneStrings(r.Moderators)
	out.Subscribers = cloneStrings(r.Subscribers)
	out.Roles = cloneRoles(r.Roles)
	out.ExternalIDs = cloneStringMap(r.ExternalIDs)
	return &out
}

// Clone returns a deep copy of the project.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	out := *p
	if p.ReleaseIDToUsage != nil {
		out.ReleaseIDToUsage = make(map[string]ProjectReleaseRelationship, len(p.ReleaseIDToUsage))
		for k, v := range p.ReleaseIDToUsage {
			out.ReleaseIDToUsage[k] = v
		}
	}
	return &out
}

// Clone returns a deep copy of the usage record.
func (u *AttachmentUsage) Clone() *AttachmentUsage {
	if u == nil {
		return nil
	}
	out := *u
	return &out
}

// Clone returns a deep copy of the relation.
func (v *ReleaseVulnerabilityRelation) Clone() *ReleaseVulnerabilityRelation {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

// Clone returns a deep copy of the rating, including the nested status maps.
func (r *ProjectVulnerabilityRating) Clone() *ProjectVulnerabilityRating {
	if r == nil {
		return nil
	}
	out := *r
	if r.Statuses != nil {
		out.Statuses = make(map[string]map[string][]VulnerabilityCheckStatus, len(r.Statuses))
		for vulnID, byRelease := range r.Statuses {
			inner := make(map[string][]VulnerabilityCheckStatus, len(byRelease))
			for relID, list := range byRelease {
				cp := make([]VulnerabilityCheckStatus, len(list))
				copy(cp, list)
				inner[relID] = cp
			}
			out.Statuses[vulnID] = inner
		}
	}
	return &out
}
