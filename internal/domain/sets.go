package domain

import "sort"

// String-slice sets. Persisted order is sorted so document JSON stays stable
// across recomputes and diffs don't report phantom changes.

// SetContains reports whether set contains v.
func SetContains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// AddToSet returns set with v added if not already present.
func AddToSet(set []string, v string) []string {
	if v == "" || SetContains(set, v) {
		return set
	}
	set = append(set, v)
	sort.Strings(set)
	return set
}

// RemoveFromSet returns set without v.
func RemoveFromSet(set []string, v string) []string {
	out := set[:0]
	for _, s := range set {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

// UnionSets returns the sorted union of a and b.
func UnionSets(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, s := range a {
		if _, ok := seen[s]; !ok && s != "" {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	for _, s := range b {
		if _, ok := seen[s]; !ok && s != "" {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// DiffSets returns the elements of a that are not in b.
func DiffSets(a, b []string) []string {
	var out []string
	for _, s := range a {
		if !SetContains(b, s) {
			out = append(out, s)
		}
	}
	return out
}

// EqualSets reports whether a and b contain the same elements, order-blind.
func EqualSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, s := range a {
		if !SetContains(b, s) {
			return false
		}
	}
	return true
}

// SortedCopy returns a sorted copy of set.
func SortedCopy(set []string) []string {
	out := make([]string, len(set))
	copy(out, set)
	sort.Strings(out)
	return out
}
