package changelog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/osscompliance/catreg/internal/domain"
)

// DiffDocuments computes the field-level changes between two versions of a
// document. A nil side means creation or deletion; those entries carry no
// field diffs, the document snapshot is the other side. Fields are compared
// by their JSON encoding and returned in field-name order.
func DiffDocuments(oldDoc, newDoc interface{}) ([]domain.FieldChange, error) {
	if oldDoc == nil || newDoc == nil {
		return nil, nil
	}
	oldFields, err := documentFields(oldDoc)
	if err != nil {
		return nil, err
	}
	newFields, err := documentFields(newDoc)
	if err != nil {
		return nil, err
	}

	names := make(map[string]bool, len(oldFields)+len(newFields))
	for name := range oldFields {
		names[name] = true
	}
	for name := range newFields {
		names[name] = true
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	var changes []domain.FieldChange
	for _, name := range sorted {
		oldVal := oldFields[name]
		newVal := newFields[name]
		if bytes.Equal(oldVal, newVal) {
			continue
		}
		changes = append(changes, domain.FieldChange{
			Field: name,
			Old:   string(oldVal),
			New:   string(newVal),
		})
	}
	return changes, nil
}

func documentFields(doc interface{}) (map[string]json.RawMessage, error) {
	if doc == nil {
		return nil, nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode document fields: %w", err)
	}
	return fields, nil
}

// RenderTextDiff renders a unified diff for a multi-line field value, for
// display in the admin CLI. Single-line values render as an old/new pair.
func RenderTextDiff(field, oldVal, newVal string) string {
	if !strings.Contains(oldVal, "\n") && !strings.Contains(newVal, "\n") {
		return fmt.Sprintf("%s: %s -> %s", field, oldVal, newVal)
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldVal),
		B:        difflib.SplitLines(newVal),
		FromFile: field + " (old)",
		ToFile:   field + " (new)",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return fmt.Sprintf("%s: %s -> %s", field, oldVal, newVal)
	}
	return text
}
