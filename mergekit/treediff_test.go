package mergekit

import (
	"context"
	"strings"
	"testing"

	kiterrors "github.com/c0deZ3R0/go-merge-kit/errors"
)

func TestDiff_IdenticalDocuments(t *testing.T) {
	doc := []byte(`{"a":1,"b":2}`)
	result, err := Diff(doc, doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Distance != 0 {
		t.Fatalf("expected distance 0, got %d", result.Distance)
	}
	for _, op := range result.EditScript {
		if op.Type != EditEqual {
			t.Fatalf("expected only equal ops, got %v at %s", op.Type, op.Path)
		}
	}
}

func TestDiff_Update(t *testing.T) {
	result, err := Diff([]byte(`{"a":1}`), []byte(`{"a":2}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Distance != 1 {
		t.Fatalf("expected distance 1, got %d", result.Distance)
	}
	if len(result.EditScript) != 1 {
		t.Fatalf("expected one op, got %d", len(result.EditScript))
	}
	op := result.EditScript[0]
	if op.Type != EditUpdate {
		t.Fatalf("expected update, got %v", op.Type)
	}
	if op.Path != "root.a" {
		t.Fatalf("unexpected path %q", op.Path)
	}
	if op.OldValue != float64(1) || op.NewValue != float64(2) {
		t.Fatalf("unexpected values old=%v new=%v", op.OldValue, op.NewValue)
	}
}

func TestDiff_InsertAndDelete(t *testing.T) {
	result, err := Diff([]byte(`{"a":1,"b":2}`), []byte(`{"a":1,"c":3}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Distance != 2 {
		t.Fatalf("expected distance 2, got %d", result.Distance)
	}

	var sawDelete, sawInsert bool
	for _, op := range result.EditScript {
		switch op.Type {
		case EditDelete:
			sawDelete = true
			if op.Path != "root.b" {
				t.Fatalf("unexpected delete path %q", op.Path)
			}
			if op.OldValue != float64(2) {
				t.Fatalf("unexpected delete payload %v", op.OldValue)
			}
		case EditInsert:
			sawInsert = true
			if op.Path != "root.c" {
				t.Fatalf("unexpected insert path %q", op.Path)
			}
			if op.NewValue != float64(3) {
				t.Fatalf("unexpected insert payload %v", op.NewValue)
			}
		}
	}
	if !sawDelete || !sawInsert {
		t.Fatalf("expected delete and insert ops, got %v", result.EditScript)
	}
}

func TestDiff_ArrayElements(t *testing.T) {
	result, err := Diff([]byte(`[1,2]`), []byte(`[1,2,3]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Distance != 1 {
		t.Fatalf("expected distance 1, got %d", result.Distance)
	}

	last := result.EditScript[len(result.EditScript)-1]
	if last.Type != EditInsert || last.Path != "root.[2]" {
		t.Fatalf("expected insert at root.[2], got %v at %q", last.Type, last.Path)
	}
}

func TestDiff_SubtreePayload(t *testing.T) {
	result, err := Diff([]byte(`{"o":{"x":1}}`), []byte(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.EditScript) != 1 {
		t.Fatalf("expected one op, got %d", len(result.EditScript))
	}
	op := result.EditScript[0]
	if op.Type != EditDelete || op.Path != "root.o" {
		t.Fatalf("expected delete of root.o, got %v at %q", op.Type, op.Path)
	}
	subtree, ok := op.OldValue.(map[string]any)
	if !ok || subtree["x"] != float64(1) {
		t.Fatalf("expected the whole subtree as payload, got %v", op.OldValue)
	}
}

func TestDiff_OpOrdering(t *testing.T) {
	// Shared labels are diffed first, then deletions, then insertions.
	result, err := Diff([]byte(`{"a":1,"m":9,"z":1}`), []byte(`{"a":2,"m":9,"n":5}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var kinds []EditOpType
	for _, op := range result.EditScript {
		kinds = append(kinds, op.Type)
	}
	want := []EditOpType{EditUpdate, EditEqual, EditDelete, EditInsert}
	if len(kinds) != len(want) {
		t.Fatalf("expected %d ops, got %v", len(want), kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("expected op order %v, got %v", want, kinds)
		}
	}
}

func TestDiff_NullVersusEmptyContainer(t *testing.T) {
	// A null leaf is structurally different from an empty container.
	result, err := Diff([]byte(`{}`), []byte(`null`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Distance != 1 {
		t.Fatalf("expected distance 1, got %d", result.Distance)
	}
	if len(result.EditScript) != 1 {
		t.Fatalf("expected one op, got %v", result.EditScript)
	}
	op := result.EditScript[0]
	if op.Type != EditUpdate || op.Path != "root" {
		t.Fatalf("expected update at root, got %v at %q", op.Type, op.Path)
	}
}

func TestDiff_NestedNullVersusEmptyContainer(t *testing.T) {
	result, err := Diff([]byte(`{"a":[]}`), []byte(`{"a":null}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Distance != 1 {
		t.Fatalf("expected distance 1, got %d", result.Distance)
	}
	op := result.EditScript[0]
	if op.Type != EditUpdate || op.Path != "root.a" {
		t.Fatalf("expected update at root.a, got %v at %q", op.Type, op.Path)
	}
}

func TestDiff_EmptyContainersAreEqual(t *testing.T) {
	for name, docs := range map[string][2]string{
		"object vs object": {`{}`, `{}`},
		"array vs array":   {`[]`, `[]`},
		"object vs array":  {`{}`, `[]`},
		"null vs null":     {`null`, `null`},
	} {
		t.Run(name, func(t *testing.T) {
			result, err := Diff([]byte(docs[0]), []byte(docs[1]))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Distance != 0 {
				t.Fatalf("expected distance 0, got %d", result.Distance)
			}
		})
	}
}

func TestDiff_ScalarRoots(t *testing.T) {
	result, err := Diff([]byte(`1`), []byte(`2`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Distance != 1 {
		t.Fatalf("expected distance 1, got %d", result.Distance)
	}
	if result.EditScript[0].Path != "root" {
		t.Fatalf("unexpected path %q", result.EditScript[0].Path)
	}
}

func TestDiff_UnsupportedContent(t *testing.T) {
	if _, err := Diff([]byte("not json"), []byte(`{"a":1}`)); !kiterrors.IsUnsupportedContent(err) {
		t.Fatalf("expected UNSUPPORTED_CONTENT for side A, got %v", err)
	}
	if _, err := Diff([]byte(`{"a":1}`), []byte("not json")); !kiterrors.IsUnsupportedContent(err) {
		t.Fatalf("expected UNSUPPORTED_CONTENT for side B, got %v", err)
	}
}

func TestDiff_DeeplyNestedDocument(t *testing.T) {
	// The explicit work stack keeps deep nesting from exhausting the call stack.
	depth := 5000
	open := strings.Repeat(`{"n":`, depth)
	close_ := strings.Repeat(`}`, depth)
	docA := []byte(open + `1` + close_)
	docB := []byte(open + `2` + close_)

	result, err := Diff(docA, docB)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Distance != 1 {
		t.Fatalf("expected distance 1, got %d", result.Distance)
	}
}

func TestDiffer_ComputePersists(t *testing.T) {
	store := newMockStore()
	differ := NewDiffer(WithDiffStore(store))

	result, err := differ.Compute(context.Background(), []byte(`{"a":1}`), []byte(`{"a":2}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(result.RecordID, "tree-diff-") {
		t.Fatalf("unexpected record id %q", result.RecordID)
	}

	record, found, err := store.Get(context.Background(), CollectionTreeDiff, result.RecordID)
	if err != nil || !found {
		t.Fatalf("expected persisted diff record, found=%v err=%v", found, err)
	}
	if record["distance"] != int64(1) {
		t.Fatalf("unexpected persisted distance %v", record["distance"])
	}
}

func TestDiffer_ComputeWithoutStore(t *testing.T) {
	differ := NewDiffer()
	result, err := differ.Compute(context.Background(), []byte(`{"a":1}`), []byte(`{"a":1}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RecordID != "" {
		t.Fatalf("expected no record id without a store, got %q", result.RecordID)
	}
}
