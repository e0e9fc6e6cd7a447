package catalog

import "github.com/osscompliance/catreg/internal/domain"

// LinkedRelease is one node reached while walking the relationship graph.
type LinkedRelease struct {
	Release      *domain.Release
	Relationship domain.ReleaseRelationship
	Depth        int
}

// LinkedReleases walks the relationship graph from the given release in
// depth-first order. The graph may contain cycles; each release is visited at
// most once.
func (h *Handler) LinkedReleases(rootID string) ([]LinkedRelease, error) {
	root, err := h.store.Releases.Get(rootID)
	if err != nil {
		return nil, err
	}

	visited := map[string]bool{rootID: true}
	var linked []LinkedRelease
	if err := h.walkLinked(root, 1, visited, &linked); err != nil {
		return nil, err
	}
	return linked, nil
}

func (h *Handler) walkLinked(r *domain.Release, depth int, visited map[string]bool, out *[]LinkedRelease) error {
	for _, linkedID := range domain.SortedCopy(relationshipKeys(r)) {
		if visited[linkedID] {
			continue
		}
		visited[linkedID] = true

		linked, err := h.store.Releases.Get(linkedID)
		if err != nil {
			if _, ok := err.(*domain.NotFoundError); ok {
				// Dangling edge; skip it rather than fail the whole walk.
				h.log.Warn().Str("release_id", r.ID).Str("linked_id", linkedID).Msg("dangling release link")
				continue
			}
			return err
		}
		*out = append(*out, LinkedRelease{
			Release:      linked,
			Relationship: r.ReleaseIDToRelationship[linkedID],
			Depth:        depth,
		})
		if err := h.walkLinked(linked, depth+1, visited, out); err != nil {
			return err
		}
	}
	return nil
}

func relationshipKeys(r *domain.Release) []string {
	keys := make([]string, 0, len(r.ReleaseIDToRelationship))
	for k := range r.ReleaseIDToRelationship {
		keys = append(keys, k)
	}
	return keys
}
