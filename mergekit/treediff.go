package mergekit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"sort"

	"github.com/google/uuid"

	kiterrors "github.com/c0deZ3R0/go-merge-kit/errors"
	"github.com/c0deZ3R0/go-merge-kit/logging"
)

// EditOpType enumerates tree edit operations.
type EditOpType string

const (
	EditEqual  EditOpType = "equal"
	EditUpdate EditOpType = "update"
	EditInsert EditOpType = "insert"
	EditDelete EditOpType = "delete"
)

// EditOp is one operation in a structural edit script. Path is a dotted path
// from the root label; OldValue/NewValue carry the affected scalar or subtree
// where applicable.
type EditOp struct {
	Type     EditOpType `json:"type"`
	Path     string     `json:"path"`
	OldValue any        `json:"oldValue,omitempty"`
	NewValue any        `json:"newValue,omitempty"`
}

// DiffResult pairs a structural edit script with its scalar distance, the
// count of non-equal operations. Distance is zero iff the two documents are
// deeply equal.
type DiffResult struct {
	EditScript []EditOp
	Distance   int64

	// RecordID is set when the differ persisted the result.
	RecordID string
}

// treeNode is the ephemeral labeled tree used for structural diffing.
// A node is either a leaf carrying a scalar value or an internal node with
// labeled children: array-derived children carry positional labels ("[0]",
// "[1]", ...), object-derived children carry key labels. raw retains the
// original subtree for insert/delete payloads. leaf distinguishes a null
// leaf (value nil, leaf true) from an empty container (no children, leaf
// false); the two are structurally different documents.
type treeNode struct {
	label    string
	value    any
	leaf     bool
	children []*treeNode
	raw      any
}

// Differ computes structural diffs between two JSON documents. The zero value
// is usable; an optional RecordStore persists computed results.
type Differ struct {
	store  RecordStore
	logger *logging.Logger
	newID  func() string
}

// DifferOption configures a Differ.
type DifferOption interface{ applyDiffer(*Differ) }

type differOptionFn func(*Differ)

func (f differOptionFn) applyDiffer(d *Differ) { f(d) }

// WithDiffStore attaches a RecordStore; computed diffs are persisted to the
// "tree-diff" collection under a generated id.
func WithDiffStore(store RecordStore) DifferOption {
	return differOptionFn(func(d *Differ) { d.store = store })
}

// WithDiffLogger attaches a logger for diff bookkeeping.
func WithDiffLogger(l *logging.Logger) DifferOption {
	return differOptionFn(func(d *Differ) { d.logger = l })
}

// NewDiffer constructs a Differ.
func NewDiffer(opts ...DifferOption) *Differ {
	d := &Differ{newID: uuid.NewString}
	for _, opt := range opts {
		opt.applyDiffer(d)
	}
	if d.logger == nil {
		d.logger = logging.WithComponent(logging.Component("differ"))
	}
	return d
}

// Diff computes the structural edit script and distance between two JSON
// documents without persistence. Parse failure on either side yields an
// UNSUPPORTED_CONTENT error, not a fallback.
func Diff(contentA, contentB []byte) (DiffResult, error) {
	return (&Differ{}).diff(contentA, contentB)
}

// Compute diffs the two documents and, when a store is configured, persists
// the edit script and distance under a generated record id.
func (d *Differ) Compute(ctx context.Context, contentA, contentB []byte) (DiffResult, error) {
	result, err := d.diff(contentA, contentB)
	if err != nil {
		return DiffResult{}, err
	}

	if d.store != nil {
		script, err := json.Marshal(result.EditScript)
		if err != nil {
			return DiffResult{}, kiterrors.NewWithComponent(kiterrors.OpDiff, "differ", err)
		}

		id := "tree-diff-" + d.generateID()
		record := Record{
			"id":         id,
			"editScript": string(script),
			"distance":   result.Distance,
		}
		if err := d.store.Put(ctx, CollectionTreeDiff, id, record); err != nil {
			return DiffResult{}, kiterrors.WrapStorage(err, kiterrors.OpDiff, "differ")
		}
		result.RecordID = id

		if d.logger != nil {
			d.logger.DebugContext(ctx, "diff result persisted",
				slog.String("record_id", id),
				slog.Int64("distance", result.Distance),
			)
		}
	}

	return result, nil
}

func (d *Differ) diff(contentA, contentB []byte) (DiffResult, error) {
	var valA, valB any
	if err := json.Unmarshal(contentA, &valA); err != nil {
		return DiffResult{}, kiterrors.NewUnsupportedContentError(kiterrors.OpDiff,
			fmt.Errorf("content A is not a valid tree structure: %w", err))
	}
	if err := json.Unmarshal(contentB, &valB); err != nil {
		return DiffResult{}, kiterrors.NewUnsupportedContentError(kiterrors.OpDiff,
			fmt.Errorf("content B is not a valid tree structure: %w", err))
	}

	ops := diffTrees(jsonToTree(valA, "root"), jsonToTree(valB, "root"))

	var distance int64
	for _, op := range ops {
		if op.Type != EditEqual {
			distance++
		}
	}

	return DiffResult{EditScript: ops, Distance: distance}, nil
}

func (d *Differ) generateID() string {
	if d.newID != nil {
		return d.newID()
	}
	return uuid.NewString()
}

// jsonToTree converts a decoded JSON value into a labeled tree. The walk uses
// an explicit stack so deeply nested documents cannot exhaust the call stack.
func jsonToTree(value any, label string) *treeNode {
	root := &treeNode{label: label, raw: value}
	stack := []*treeNode{root}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch v := node.raw.(type) {
		case []any:
			node.children = make([]*treeNode, 0, len(v))
			for i, item := range v {
				child := &treeNode{label: fmt.Sprintf("[%d]", i), raw: item}
				node.children = append(node.children, child)
				stack = append(stack, child)
			}
		case map[string]any:
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			node.children = make([]*treeNode, 0, len(v))
			for _, k := range keys {
				child := &treeNode{label: k, raw: v[k]}
				node.children = append(node.children, child)
				stack = append(stack, child)
			}
		default:
			// Scalar or null leaf.
			node.value = v
			node.leaf = true
		}
	}

	return root
}

// diffFrame is one unit of pending diff work: either a node pair to expand or
// a pre-computed op to emit.
type diffFrame struct {
	a, b *treeNode
	op   *EditOp
	path string
}

// diffTrees walks both trees in pre-order with an explicit work stack. At each
// internal node, shared child labels are recursed in order, then deletions
// (labels only in A) and insertions (labels only in B) are appended.
func diffTrees(a, b *treeNode) []EditOp {
	var ops []EditOp
	stack := []diffFrame{{a: a, b: b}}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if frame.op != nil {
			ops = append(ops, *frame.op)
			continue
		}

		nodeA, nodeB := frame.a, frame.b
		current := joinPath(frame.path, nodeA.label)

		// Leaf comparison. Leaf-ness is part of the comparison: a null leaf
		// never equals an empty container, while two empty containers do.
		if len(nodeA.children) == 0 && len(nodeB.children) == 0 {
			if nodeA.leaf == nodeB.leaf && reflect.DeepEqual(nodeA.value, nodeB.value) {
				ops = append(ops, EditOp{Type: EditEqual, Path: current})
			} else {
				ops = append(ops, EditOp{Type: EditUpdate, Path: current, OldValue: nodeA.value, NewValue: nodeB.value})
			}
			continue
		}

		labelsA := make(map[string]*treeNode, len(nodeA.children))
		for _, child := range nodeA.children {
			labelsA[child.label] = child
		}
		labelsB := make(map[string]*treeNode, len(nodeB.children))
		for _, child := range nodeB.children {
			labelsB[child.label] = child
		}

		var pending []diffFrame
		for _, childA := range nodeA.children {
			if childB, ok := labelsB[childA.label]; ok {
				pending = append(pending, diffFrame{a: childA, b: childB, path: current})
			}
		}
		for _, childA := range nodeA.children {
			if _, ok := labelsB[childA.label]; !ok {
				pending = append(pending, diffFrame{op: &EditOp{
					Type:     EditDelete,
					Path:     current + "." + childA.label,
					OldValue: childA.raw,
				}})
			}
		}
		for _, childB := range nodeB.children {
			if _, ok := labelsA[childB.label]; !ok {
				pending = append(pending, diffFrame{op: &EditOp{
					Type:     EditInsert,
					Path:     current + "." + childB.label,
					NewValue: childB.raw,
				}})
			}
		}

		// Reverse push keeps the stack popping in document order.
		for i := len(pending) - 1; i >= 0; i-- {
			stack = append(stack, pending[i])
		}
	}

	return ops
}

func joinPath(path, label string) string {
	if path == "" {
		return label
	}
	return path + "." + label
}
