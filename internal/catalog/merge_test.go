package catalog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osscompliance/catreg/internal/domain"
)

// mergeFixture builds two components with one release each plus the records
// that reference the source release from every satellite kind.
type mergeFixture struct {
	target, source         *domain.Component
	targetRel, sourceRel   *domain.Release
	referencing            *domain.Release
	project                *domain.Project
	usage                  *domain.AttachmentUsage
	vulnRelation           *domain.ReleaseVulnerabilityRelation
	rating                 *domain.ProjectVulnerabilityRating
}

func newMergeFixture(t *testing.T, h *Handler) *mergeFixture {
	t.Helper()
	f := &mergeFixture{}

	f.target = mustAddComponent(t, h, &domain.Component{Name: "zlib"}, admin)
	f.source = mustAddComponent(t, h, &domain.Component{Name: "zlib-fork"}, plainJoe)
	f.targetRel = mustAddRelease(t, h, &domain.Release{
		ComponentID: f.target.ID, Name: "zlib", Version: "1.2.8", Languages: []string{"C"},
	}, admin)
	f.sourceRel = mustAddRelease(t, h, &domain.Release{
		ComponentID: f.source.ID, Name: "zlib-fork", Version: "1.2.8-fork", Languages: []string{"C", "asm"},
	}, plainJoe)

	f.referencing = mustAddRelease(t, h, &domain.Release{
		ComponentID: f.target.ID, Name: "zlib", Version: "9.9",
		ReleaseIDToRelationship: map[string]domain.ReleaseRelationship{
			f.sourceRel.ID: domain.RelationshipStaticallyLinked,
		},
	}, admin)

	f.project = &domain.Project{
		ID: "proj-1", Name: "Device", ClearingRequestID: "cr-1",
		ReleaseIDToUsage: map[string]domain.ProjectReleaseRelationship{
			f.sourceRel.ID: {Relation: domain.RelationshipContained},
		},
	}
	require.NoError(t, h.store.Projects.Add(f.project))

	f.usage = &domain.AttachmentUsage{ID: "usage-1", OwnerReleaseID: f.sourceRel.ID, AttachmentContentID: "att-1"}
	require.NoError(t, h.store.Usages.Add(f.usage))

	f.vulnRelation = &domain.ReleaseVulnerabilityRelation{ID: "vr-1", ReleaseID: f.sourceRel.ID, VulnerabilityID: "CVE-2024-0001"}
	require.NoError(t, h.store.VulnRelations.Add(f.vulnRelation))

	f.rating = &domain.ProjectVulnerabilityRating{
		ID: "rating-1", ProjectID: "proj-1",
		Statuses: map[string]map[string][]domain.VulnerabilityCheckStatus{
			"CVE-2024-0001": {
				f.sourceRel.ID: {{CheckedBy: "sec@example.org", Status: "checked"}},
			},
		},
	}
	require.NoError(t, h.store.Ratings.Add(f.rating))

	return f
}

func releaseSelection(target, source *domain.Release) *domain.Release {
	sel := target.Clone()
	sel.Attachments = append(sel.Attachments, source.Attachments...)
	return sel
}

func TestMergeReleasesRewritesEveryReferenceKind(t *testing.T) {
	h, s := newTestHandler(t)
	f := newMergeFixture(t, h)

	status, err := h.MergeReleases(f.targetRel.ID, f.sourceRel.ID, releaseSelection(f.targetRel, f.sourceRel), admin)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSuccess, status)

	// Source release is gone.
	_, err = s.Releases.Get(f.sourceRel.ID)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)

	// Release relationship edge retargeted.
	ref, err := s.Releases.Get(f.referencing.ID)
	require.NoError(t, err)
	assert.NotContains(t, ref.ReleaseIDToRelationship, f.sourceRel.ID)
	assert.Equal(t, domain.RelationshipStaticallyLinked, ref.ReleaseIDToRelationship[f.targetRel.ID])

	// Project usage retargeted.
	p, err := s.Projects.Get("proj-1")
	require.NoError(t, err)
	assert.NotContains(t, p.ReleaseIDToUsage, f.sourceRel.ID)
	assert.Equal(t, domain.RelationshipContained, p.ReleaseIDToUsage[f.targetRel.ID].Relation)

	// Attachment usage retargeted.
	usages, err := s.Usages.ByRelease(f.targetRel.ID)
	require.NoError(t, err)
	require.Len(t, usages, 1)
	assert.Equal(t, f.targetRel.ID, usages[0].OwnerReleaseID)

	// Vulnerability relation retargeted.
	vr, err := s.VulnRelations.ByReleaseAndVulnerability(f.targetRel.ID, "CVE-2024-0001")
	require.NoError(t, err)
	require.NotNil(t, vr)

	// Rating nested map retargeted.
	ratings, err := s.Ratings.ByRelease(f.targetRel.ID)
	require.NoError(t, err)
	require.Len(t, ratings, 1)
	assert.Contains(t, ratings[0].Statuses["CVE-2024-0001"], f.targetRel.ID)
	assert.NotContains(t, ratings[0].Statuses["CVE-2024-0001"], f.sourceRel.ID)

	// Nothing anywhere still references the source.
	leftovers, err := s.Releases.Referencing(f.sourceRel.ID)
	require.NoError(t, err)
	assert.Empty(t, leftovers)
	projects, err := s.Projects.UsingRelease(f.sourceRel.ID)
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestMergeReleasesNoOverwriteOnConflict(t *testing.T) {
	h, s := newTestHandler(t)
	f := newMergeFixture(t, h)

	// The referencing release already links the target too, with a different
	// relationship. That edge must survive untouched.
	ref, err := s.Releases.Get(f.referencing.ID)
	require.NoError(t, err)
	ref.ReleaseIDToRelationship[f.targetRel.ID] = domain.RelationshipSideBySide
	require.NoError(t, s.Releases.Put(ref))

	// Same for the project usage map.
	p, err := s.Projects.Get("proj-1")
	require.NoError(t, err)
	p.ReleaseIDToUsage[f.targetRel.ID] = domain.ProjectReleaseRelationship{Relation: domain.RelationshipReferred}
	require.NoError(t, s.Projects.Put(p))

	// And the vulnerability relation.
	require.NoError(t, s.VulnRelations.Add(&domain.ReleaseVulnerabilityRelation{
		ID: "vr-target", ReleaseID: f.targetRel.ID, VulnerabilityID: "CVE-2024-0001",
	}))

	status, err := h.MergeReleases(f.targetRel.ID, f.sourceRel.ID, releaseSelection(f.targetRel, f.sourceRel), admin)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSuccess, status)

	ref, err = s.Releases.Get(f.referencing.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RelationshipSideBySide, ref.ReleaseIDToRelationship[f.targetRel.ID])

	p, err = s.Projects.Get("proj-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RelationshipReferred, p.ReleaseIDToUsage[f.targetRel.ID].Relation)

	// The source's redundant vulnerability link was dropped, not re-pointed.
	relations, err := s.VulnRelations.ByRelease(f.targetRel.ID)
	require.NoError(t, err)
	require.Len(t, relations, 1)
	assert.Equal(t, "vr-target", relations[0].ID)
}

func TestMergeReleasesPermissions(t *testing.T) {
	h, _ := newTestHandler(t)
	f := newMergeFixture(t, h)

	// Joe created the source but has no write on the target.
	status, err := h.MergeReleases(f.targetRel.ID, f.sourceRel.ID, releaseSelection(f.targetRel, f.sourceRel), plainJoe)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccessDenied, status)
}

func TestMergeBlockedByOpenModeration(t *testing.T) {
	h, _ := newTestHandler(t)
	f := newMergeFixture(t, h)

	require.NoError(t, h.moderation.Add(&domain.ModerationRequest{
		DocumentID:   f.sourceRel.ID,
		DocumentKind: domain.DocumentKindRelease,
		RequestingUser: "someone@example.org",
	}))

	status, err := h.MergeReleases(f.targetRel.ID, f.sourceRel.ID, releaseSelection(f.targetRel, f.sourceRel), admin)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInUse, status)
}

func TestMergeComponentsMovesReleasesAndSuffixesConflicts(t *testing.T) {
	h, s := newTestHandler(t)

	target := mustAddComponent(t, h, &domain.Component{Name: "zlib"}, admin)
	source := mustAddComponent(t, h, &domain.Component{Name: "zlib-fork"}, plainJoe)
	keep := mustAddRelease(t, h, &domain.Release{ComponentID: target.ID, Name: "zlib", Version: "1.2.8"}, admin)
	moved := mustAddRelease(t, h, &domain.Release{ComponentID: source.ID, Name: "zlib-fork", Version: "1.2.8"}, plainJoe)

	target, err := s.Components.Get(target.ID)
	require.NoError(t, err)
	source, err = s.Components.Get(source.ID)
	require.NoError(t, err)

	selection := target.Clone()
	selection.ReleaseIDs = domain.UnionSets(target.ReleaseIDs, source.ReleaseIDs)

	status, err := h.MergeComponents(target.ID, source.ID, selection, admin)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSuccess, status)

	// Source component gone, releases re-homed.
	_, err = s.Components.Get(source.ID)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)

	got, err := s.Releases.Get(moved.ID)
	require.NoError(t, err)
	assert.Equal(t, target.ID, got.ComponentID)
	assert.Equal(t, "zlib", got.Name)
	assert.Equal(t, fmt.Sprintf("1.2.8_conflict (%s)", moved.ID), got.Version)

	kept, err := s.Releases.Get(keep.ID)
	require.NoError(t, err)
	assert.Equal(t, "1.2.8", kept.Version)

	mergedTarget, err := s.Components.Get(target.ID)
	require.NoError(t, err)
	assert.True(t, domain.SetContains(mergedTarget.ReleaseIDs, moved.ID))

	// Two top-level audit entries: target update and source delete.
	targetLog, err := h.changes.ByDocument(target.ID)
	require.NoError(t, err)
	last := targetLog[len(targetLog)-1]
	assert.Equal(t, domain.OperationUpdate, last.Operation)
	assert.Equal(t, source.ID, last.ReferenceDocID)
	assert.Equal(t, domain.OperationMergeComponent, last.ReferenceDocOperation)

	sourceLog, err := h.changes.ByDocument(source.ID)
	require.NoError(t, err)
	last = sourceLog[len(sourceLog)-1]
	assert.Equal(t, domain.OperationDelete, last.Operation)
	assert.Equal(t, target.ID, last.ReferenceDocID)
}

func TestMergeComponentsTransfersReleasesNotInSelection(t *testing.T) {
	h, s := newTestHandler(t)

	target := mustAddComponent(t, h, &domain.Component{Name: "zlib"}, admin)
	source := mustAddComponent(t, h, &domain.Component{Name: "zlib-fork"}, plainJoe)
	orphanCandidate := mustAddRelease(t, h, &domain.Release{ComponentID: source.ID, Name: "zlib-fork", Version: "2.0"}, plainJoe)

	target, err := s.Components.Get(target.ID)
	require.NoError(t, err)

	// The selection lists only the target's releases. Release ownership is
	// not selectable: the source's release must still move over.
	selection := target.Clone()
	selection.ReleaseIDs = domain.SortedCopy(target.ReleaseIDs)

	status, err := h.MergeComponents(target.ID, source.ID, selection, admin)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSuccess, status)

	moved, err := s.Releases.Get(orphanCandidate.ID)
	require.NoError(t, err)
	assert.Equal(t, target.ID, moved.ComponentID)

	merged, err := s.Components.Get(target.ID)
	require.NoError(t, err)
	assert.True(t, domain.SetContains(merged.ReleaseIDs, orphanCandidate.ID))
}

func TestMergeComponentsRenamesTargetReleasesToSelectedName(t *testing.T) {
	h, s := newTestHandler(t)

	target := mustAddComponent(t, h, &domain.Component{Name: "zlib"}, admin)
	source := mustAddComponent(t, h, &domain.Component{Name: "zlib-fork"}, plainJoe)
	existing := mustAddRelease(t, h, &domain.Release{ComponentID: target.ID, Name: "zlib", Version: "1.2.8"}, admin)

	target, err := s.Components.Get(target.ID)
	require.NoError(t, err)

	// The selection picks the source's name; the target's own release must
	// follow it.
	selection := target.Clone()
	selection.Name = "zlib-fork"

	status, err := h.MergeComponents(target.ID, source.ID, selection, admin)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSuccess, status)

	renamed, err := s.Releases.Get(existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "zlib-fork", renamed.Name)
}

func TestMergeReleasesRewriteEntriesReferenceTarget(t *testing.T) {
	h, s := newTestHandler(t)
	f := newMergeFixture(t, h)

	status, err := h.MergeReleases(f.targetRel.ID, f.sourceRel.ID, releaseSelection(f.targetRel, f.sourceRel), admin)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSuccess, status)

	refLog, err := h.changes.ByDocument(f.referencing.ID)
	require.NoError(t, err)
	require.NotEmpty(t, refLog)
	last := refLog[len(refLog)-1]
	assert.Equal(t, f.targetRel.ID, last.ReferenceDocID)
	assert.Equal(t, domain.OperationMergeRelease, last.ReferenceDocOperation)

	projLog, err := h.changes.ByDocument(f.project.ID)
	require.NoError(t, err)
	require.NotEmpty(t, projLog)
	assert.Equal(t, f.targetRel.ID, projLog[len(projLog)-1].ReferenceDocID)

	_, err = s.Releases.Get(f.sourceRel.ID)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestMergeComponentsCreatorDisplacement(t *testing.T) {
	h, s := newTestHandler(t)

	target := mustAddComponent(t, h, &domain.Component{Name: "zlib"}, admin)
	source := mustAddComponent(t, h, &domain.Component{Name: "zlib-fork"}, plainJoe)

	target, err := s.Components.Get(target.ID)
	require.NoError(t, err)
	selection := target.Clone()
	// The selection keeps the target's creator; the source's creator is
	// displaced and must stay reachable as a moderator.
	status, err := h.MergeComponents(target.ID, source.ID, selection, admin)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSuccess, status)

	merged, err := s.Components.Get(target.ID)
	require.NoError(t, err)
	assert.Equal(t, admin.Email, merged.CreatedBy)
	assert.True(t, domain.SetContains(merged.Moderators, plainJoe.Email))
}

func TestMergeComponentsSelfMerge(t *testing.T) {
	h, _ := newTestHandler(t)
	c := mustAddComponent(t, h, &domain.Component{Name: "zlib"}, admin)

	status, err := h.MergeComponents(c.ID, c.ID, c.Clone(), admin)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInvalidInput, status)
}

func TestMergeReleasesAcrossComponentsUpdatesBothParents(t *testing.T) {
	h, s := newTestHandler(t)
	f := newMergeFixture(t, h)

	status, err := h.MergeReleases(f.targetRel.ID, f.sourceRel.ID, releaseSelection(f.targetRel, f.sourceRel), admin)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSuccess, status)

	sourceComp, err := s.Components.Get(f.source.ID)
	require.NoError(t, err)
	assert.False(t, domain.SetContains(sourceComp.ReleaseIDs, f.sourceRel.ID))
	// Derived fields recomputed: the fork's languages are gone with its release.
	assert.Empty(t, sourceComp.Languages)

	targetComp, err := s.Components.Get(f.target.ID)
	require.NoError(t, err)
	assert.True(t, domain.SetContains(targetComp.ReleaseIDs, f.targetRel.ID))
}
