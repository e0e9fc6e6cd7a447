package domain

import (
	"reflect"
	"testing"
)

func TestAddToSet(t *testing.T) {
	set := []string{"b", "d"}

	set = AddToSet(set, "c")
	if !reflect.DeepEqual(set, []string{"b", "c", "d"}) {
		t.Errorf("expected sorted insert, got %v", set)
	}

	// Duplicate and empty are no-ops
	set = AddToSet(set, "c")
	set = AddToSet(set, "")
	if !reflect.DeepEqual(set, []string{"b", "c", "d"}) {
		t.Errorf("expected no change, got %v", set)
	}
}

func TestRemoveFromSet(t *testing.T) {
	set := RemoveFromSet([]string{"a", "b", "c"}, "b")
	if !reflect.DeepEqual(set, []string{"a", "c"}) {
		t.Errorf("expected [a c], got %v", set)
	}

	set = RemoveFromSet(set, "nope")
	if !reflect.DeepEqual(set, []string{"a", "c"}) {
		t.Errorf("expected no change, got %v", set)
	}
}

func TestUnionSets(t *testing.T) {
	got := UnionSets([]string{"c", "a"}, []string{"b", "a", ""})
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("expected [a b c], got %v", got)
	}

	if got := UnionSets(nil, nil); len(got) != 0 {
		t.Errorf("expected empty union, got %v", got)
	}
}

func TestDiffSets(t *testing.T) {
	got := DiffSets([]string{"a", "b", "c"}, []string{"b"})
	if !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Errorf("expected [a c], got %v", got)
	}
}

func TestEqualSets(t *testing.T) {
	if !EqualSets([]string{"b", "a"}, []string{"a", "b"}) {
		t.Error("expected order-blind equality")
	}
	if EqualSets([]string{"a"}, []string{"a", "b"}) {
		t.Error("expected length mismatch to fail")
	}
	if EqualSets([]string{"a", "x"}, []string{"a", "b"}) {
		t.Error("expected element mismatch to fail")
	}
}

func TestSortedCopyDoesNotMutate(t *testing.T) {
	orig := []string{"c", "a", "b"}
	got := SortedCopy(orig)
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("expected sorted copy, got %v", got)
	}
	if !reflect.DeepEqual(orig, []string{"c", "a", "b"}) {
		t.Errorf("original mutated: %v", orig)
	}
}
