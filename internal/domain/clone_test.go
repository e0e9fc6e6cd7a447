package domain

import "testing"

func TestComponentCloneIsDeep(t *testing.T) {
	orig := &Component{
		ID:          "c-1",
		Name:        "zlib",
		Categories:  []string{"library"},
		ReleaseIDs:  []string{"r-1"},
		ExternalIDs: map[string]string{"purl": "pkg:generic/zlib"},
		Roles:       map[string][]string{"committer": {"a@example.org"}},
		Attachments: []Attachment{{AttachmentContentID: "sha-1", Filename: "src.tgz"}},
	}

	c := orig.Clone()
	c.Categories[0] = "framework"
	c.ReleaseIDs = AddToSet(c.ReleaseIDs, "r-2")
	c.ExternalIDs["purl"] = "changed"
	c.Roles["committer"][0] = "b@example.org"
	c.Attachments[0].Filename = "other.tgz"

	if orig.Categories[0] != "library" {
		t.Error("categories shared between clone and original")
	}
	if len(orig.ReleaseIDs) != 1 {
		t.Error("release ids shared between clone and original")
	}
	if orig.ExternalIDs["purl"] != "pkg:generic/zlib" {
		t.Error("external ids shared between clone and original")
	}
	if orig.Roles["committer"][0] != "a@example.org" {
		t.Error("roles shared between clone and original")
	}
	if orig.Attachments[0].Filename != "src.tgz" {
		t.Error("attachments shared between clone and original")
	}
}

func TestReleaseCloneIsDeep(t *testing.T) {
	orig := &Release{
		ID:                      "r-1",
		Name:                    "zlib",
		Version:                 "1.2.11",
		ReleaseIDToRelationship: map[string]ReleaseRelationship{"r-2": RelationshipContained},
		ClearingInformation:     &ClearingInformation{},
		EccInformation:          &EccInformation{Status: EccStatusOpen},
	}

	r := orig.Clone()
	r.ReleaseIDToRelationship["r-3"] = RelationshipReferred
	r.EccInformation.Status = EccStatusApproved

	if len(orig.ReleaseIDToRelationship) != 1 {
		t.Error("relationship map shared between clone and original")
	}
	if orig.EccInformation.Status != EccStatusOpen {
		t.Error("ecc information shared between clone and original")
	}
}

func TestCloneNilReceiver(t *testing.T) {
	var c *Component
	if c.Clone() != nil {
		t.Error("expected nil clone of nil component")
	}
	var r *Release
	if r.Clone() != nil {
		t.Error("expected nil clone of nil release")
	}
}
