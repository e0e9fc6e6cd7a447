package catalog

import (
	"github.com/osscompliance/catreg/internal/domain"
	"github.com/osscompliance/catreg/internal/permission"
)

// The rewriters below retarget every reference from a merged-away source
// release to its target. The shared rule: the source key is always removed,
// and the target key is inserted only when not already present, so an
// existing reference to the target is never overwritten. Failures on
// individual records are logged and skipped; the merge carries on.

func (h *Handler) rewriteReleaseReferences(sourceID, targetID string, user permission.User) {
	referencing, err := h.store.Releases.Referencing(sourceID)
	if err != nil {
		h.log.Error().Err(err).Str("source_id", sourceID).Msg("failed to find referencing releases")
		return
	}
	for _, r := range referencing {
		before := r.Clone()
		rel, ok := r.ReleaseIDToRelationship[sourceID]
		if !ok {
			continue
		}
		delete(r.ReleaseIDToRelationship, sourceID)
		if _, exists := r.ReleaseIDToRelationship[targetID]; !exists && r.ID != targetID {
			r.ReleaseIDToRelationship[targetID] = rel
		}
		if err := h.store.Releases.Put(r); err != nil {
			h.log.Error().Err(err).Str("release_id", r.ID).Msg("failed to rewrite release reference")
			continue
		}
		h.recordDiff(r.ID, domain.DocumentKindRelease, domain.OperationReleaseUpdate,
			user.Email, before, r, targetID, domain.OperationMergeRelease)
	}
}

func (h *Handler) rewriteProjectUsages(sourceID, targetID string, user permission.User) {
	projects, err := h.store.Projects.UsingRelease(sourceID)
	if err != nil {
		h.log.Error().Err(err).Str("source_id", sourceID).Msg("failed to find using projects")
		return
	}
	for _, p := range projects {
		usage, ok := p.ReleaseIDToUsage[sourceID]
		if !ok {
			continue
		}
		before := p.Clone()
		delete(p.ReleaseIDToUsage, sourceID)
		if _, exists := p.ReleaseIDToUsage[targetID]; !exists {
			p.ReleaseIDToUsage[targetID] = usage
		}
		if err := h.store.Projects.Put(p); err != nil {
			h.log.Error().Err(err).Str("project_id", p.ID).Msg("failed to rewrite project usage")
			continue
		}
		h.recordDiff(p.ID, domain.DocumentKindProject, domain.OperationUpdate,
			user.Email, before, p, targetID, domain.OperationMergeRelease)
	}
}

func (h *Handler) rewriteAttachmentUsages(sourceID, targetID string, user permission.User) {
	usages, err := h.store.Usages.ByRelease(sourceID)
	if err != nil {
		h.log.Error().Err(err).Str("source_id", sourceID).Msg("failed to find attachment usages")
		return
	}
	for _, u := range usages {
		before := u.Clone()
		changed := false
		if u.OwnerReleaseID == sourceID {
			u.OwnerReleaseID = targetID
			changed = true
		}
		if u.UsedByReleaseID == sourceID {
			u.UsedByReleaseID = targetID
			changed = true
		}
		if !changed {
			continue
		}
		if err := h.store.Usages.Put(u); err != nil {
			h.log.Error().Err(err).Str("usage_id", u.ID).Msg("failed to rewrite attachment usage")
			continue
		}
		h.recordDiff(u.ID, domain.DocumentKindAttachmentUsage, domain.OperationUpdate,
			user.Email, before, u, targetID, domain.OperationMergeRelease)
	}
}

func (h *Handler) rewriteVulnerabilityRelations(sourceID, targetID string, user permission.User) {
	relations, err := h.store.VulnRelations.ByRelease(sourceID)
	if err != nil {
		h.log.Error().Err(err).Str("source_id", sourceID).Msg("failed to find vulnerability relations")
		return
	}
	for _, rel := range relations {
		existing, err := h.store.VulnRelations.ByReleaseAndVulnerability(targetID, rel.VulnerabilityID)
		if err != nil {
			h.log.Error().Err(err).Str("relation_id", rel.ID).Msg("failed to check target vulnerability relation")
			continue
		}
		if existing != nil {
			// Target already tracks this vulnerability; the source's link is
			// redundant and goes away.
			if err := h.store.VulnRelations.Delete(rel.ID); err != nil {
				h.log.Error().Err(err).Str("relation_id", rel.ID).Msg("failed to delete redundant vulnerability relation")
			}
			continue
		}
		before := rel.Clone()
		rel.ReleaseID = targetID
		if err := h.store.VulnRelations.Put(rel); err != nil {
			h.log.Error().Err(err).Str("relation_id", rel.ID).Msg("failed to rewrite vulnerability relation")
			continue
		}
		h.recordDiff(rel.ID, domain.DocumentKindVulnerabilityRelation, domain.OperationUpdate,
			user.Email, before, rel, targetID, domain.OperationMergeRelease)
	}
}

func (h *Handler) rewriteVulnerabilityRatings(sourceID, targetID string, user permission.User) {
	ratings, err := h.store.Ratings.ByRelease(sourceID)
	if err != nil {
		h.log.Error().Err(err).Str("source_id", sourceID).Msg("failed to find vulnerability ratings")
		return
	}
	for _, rating := range ratings {
		before := rating.Clone()
		changed := false
		for vulnID, byRelease := range rating.Statuses {
			statuses, ok := byRelease[sourceID]
			if !ok {
				continue
			}
			delete(byRelease, sourceID)
			if _, exists := byRelease[targetID]; !exists {
				byRelease[targetID] = statuses
			}
			rating.Statuses[vulnID] = byRelease
			changed = true
		}
		if !changed {
			continue
		}
		if err := h.store.Ratings.Put(rating); err != nil {
			h.log.Error().Err(err).Str("rating_id", rating.ID).Msg("failed to rewrite vulnerability rating")
			continue
		}
		h.recordDiff(rating.ID, domain.DocumentKindProjectRating, domain.OperationUpdate,
			user.Email, before, rating, targetID, domain.OperationMergeRelease)
	}
}
