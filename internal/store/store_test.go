package store

import (
	"testing"

	"github.com/osscompliance/catreg/internal/domain"
	"github.com/osscompliance/catreg/internal/testutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(testutil.TempDB(t))
}

func TestComponentAddGetPut(t *testing.T) {
	s := newTestStore(t)

	c := &domain.Component{
		ID:        "comp-1",
		Name:      "Zlib",
		CreatedBy: "user@example.org",
	}
	if err := s.Components.Add(c); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if c.ETag != 1 {
		t.Errorf("expected etag 1 after add, got %d", c.ETag)
	}

	got, err := s.Components.Get("comp-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "Zlib" || got.CreatedBy != "user@example.org" {
		t.Errorf("unexpected component: %+v", got)
	}

	got.Description = "compression library"
	if err := s.Components.Put(got); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if got.ETag != 2 {
		t.Errorf("expected etag 2 after put, got %d", got.ETag)
	}

	again, err := s.Components.Get("comp-1")
	if err != nil {
		t.Fatalf("Get after put failed: %v", err)
	}
	if again.Description != "compression library" {
		t.Errorf("description not persisted: %+v", again)
	}
}

func TestComponentPutETagMismatch(t *testing.T) {
	s := newTestStore(t)

	c := &domain.Component{ID: "comp-1", Name: "Zlib"}
	if err := s.Components.Add(c); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	stale, err := s.Components.Get("comp-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	fresh, _ := s.Components.Get("comp-1")
	fresh.Description = "first writer"
	if err := s.Components.Put(fresh); err != nil {
		t.Fatalf("first Put failed: %v", err)
	}

	stale.Description = "second writer"
	err = s.Components.Put(stale)
	if err == nil {
		t.Fatal("expected etag mismatch, got nil")
	}
	if _, ok := err.(*domain.ETagMismatchError); !ok {
		t.Fatalf("expected ETagMismatchError, got %T: %v", err, err)
	}
}

func TestComponentGetNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Components.Get("missing")
	if err == nil {
		t.Fatal("expected error for missing component")
	}
	if _, ok := err.(*domain.NotFoundError); !ok {
		t.Fatalf("expected NotFoundError, got %T: %v", err, err)
	}
}

func TestComponentIDsByNameCaseInsensitive(t *testing.T) {
	s := newTestStore(t)

	for _, c := range []*domain.Component{
		{ID: "a", Name: "OpenSSL"},
		{ID: "b", Name: "openssl"},
		{ID: "c", Name: "zlib"},
	} {
		if err := s.Components.Add(c); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	ids, err := s.Components.IDsByName("OPENSSL")
	if err != nil {
		t.Fatalf("IDsByName failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 matches, got %v", ids)
	}
}

func TestReleaseRelationIndex(t *testing.T) {
	s := newTestStore(t)

	base := &domain.Release{ID: "rel-base", ComponentID: "comp-1", Name: "zlib", Version: "1.2.8"}
	if err := s.Releases.Add(base); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	linking := &domain.Release{
		ID: "rel-link", ComponentID: "comp-2", Name: "app", Version: "2.0",
		ReleaseIDToRelationship: map[string]domain.ReleaseRelationship{
			"rel-base": domain.RelationshipContained,
		},
	}
	if err := s.Releases.Add(linking); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	refs, err := s.Releases.Referencing("rel-base")
	if err != nil {
		t.Fatalf("Referencing failed: %v", err)
	}
	if len(refs) != 1 || refs[0].ID != "rel-link" {
		t.Fatalf("expected rel-link to reference rel-base, got %+v", refs)
	}

	// Dropping the edge must drop the index row too.
	linking.ReleaseIDToRelationship = nil
	if err := s.Releases.Put(linking); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	refs, err = s.Releases.Referencing("rel-base")
	if err != nil {
		t.Fatalf("Referencing failed: %v", err)
	}
	if len(refs) != 0 {
		t.Fatalf("expected no references after unlink, got %+v", refs)
	}
}

func TestReleaseByComponentAndByNameVersion(t *testing.T) {
	s := newTestStore(t)

	for _, r := range []*domain.Release{
		{ID: "r1", ComponentID: "comp-1", Name: "zlib", Version: "1.2.8"},
		{ID: "r2", ComponentID: "comp-1", Name: "zlib", Version: "1.2.11"},
		{ID: "r3", ComponentID: "comp-2", Name: "zlib-ng", Version: "1.2.8"},
	} {
		if err := s.Releases.Add(r); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	byComponent, err := s.Releases.ByComponent("comp-1")
	if err != nil {
		t.Fatalf("ByComponent failed: %v", err)
	}
	if len(byComponent) != 2 {
		t.Fatalf("expected 2 releases for comp-1, got %d", len(byComponent))
	}

	byNV, err := s.Releases.ByNameAndVersion("zlib", "1.2.8")
	if err != nil {
		t.Fatalf("ByNameAndVersion failed: %v", err)
	}
	if len(byNV) != 1 || byNV[0].ID != "r1" {
		t.Fatalf("expected r1, got %+v", byNV)
	}
}

func TestProjectUsageIndex(t *testing.T) {
	s := newTestStore(t)

	p := &domain.Project{
		ID: "proj-1", Name: "Device",
		ReleaseIDToUsage: map[string]domain.ProjectReleaseRelationship{
			"rel-1": {Relation: domain.RelationshipContained},
		},
	}
	if err := s.Projects.Add(p); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	projects, err := s.Projects.UsingRelease("rel-1")
	if err != nil {
		t.Fatalf("UsingRelease failed: %v", err)
	}
	if len(projects) != 1 || projects[0].ID != "proj-1" {
		t.Fatalf("expected proj-1, got %+v", projects)
	}

	projects, err = s.Projects.UsingRelease("rel-2")
	if err != nil {
		t.Fatalf("UsingRelease failed: %v", err)
	}
	if len(projects) != 0 {
		t.Fatalf("expected no projects for rel-2, got %+v", projects)
	}
}

func TestRatingReleaseIndex(t *testing.T) {
	s := newTestStore(t)

	rating := &domain.ProjectVulnerabilityRating{
		ID: "rating-1", ProjectID: "proj-1",
		Statuses: map[string]map[string][]domain.VulnerabilityCheckStatus{
			"CVE-2024-0001": {
				"rel-1": {{CheckedBy: "sec@example.org", Status: "checked"}},
			},
		},
	}
	if err := s.Ratings.Add(rating); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	ratings, err := s.Ratings.ByRelease("rel-1")
	if err != nil {
		t.Fatalf("ByRelease failed: %v", err)
	}
	if len(ratings) != 1 || ratings[0].ID != "rating-1" {
		t.Fatalf("expected rating-1, got %+v", ratings)
	}
}

func TestAttachmentUsageByRelease(t *testing.T) {
	s := newTestStore(t)

	for _, u := range []*domain.AttachmentUsage{
		{ID: "u1", OwnerReleaseID: "rel-1", AttachmentContentID: "att-1"},
		{ID: "u2", UsedByReleaseID: "rel-1", AttachmentContentID: "att-2"},
		{ID: "u3", OwnerReleaseID: "rel-2", AttachmentContentID: "att-3"},
	} {
		if err := s.Usages.Add(u); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	usages, err := s.Usages.ByRelease("rel-1")
	if err != nil {
		t.Fatalf("ByRelease failed: %v", err)
	}
	if len(usages) != 2 {
		t.Fatalf("expected 2 usages for rel-1, got %d", len(usages))
	}
}

func TestVulnerabilityRelationLookup(t *testing.T) {
	s := newTestStore(t)

	rel := &domain.ReleaseVulnerabilityRelation{ID: "vr1", ReleaseID: "rel-1", VulnerabilityID: "CVE-2024-0001"}
	if err := s.VulnRelations.Add(rel); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	found, err := s.VulnRelations.ByReleaseAndVulnerability("rel-1", "CVE-2024-0001")
	if err != nil {
		t.Fatalf("ByReleaseAndVulnerability failed: %v", err)
	}
	if found == nil || found.ID != "vr1" {
		t.Fatalf("expected vr1, got %+v", found)
	}

	missing, err := s.VulnRelations.ByReleaseAndVulnerability("rel-2", "CVE-2024-0001")
	if err != nil {
		t.Fatalf("ByReleaseAndVulnerability failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unrelated release, got %+v", missing)
	}
}
