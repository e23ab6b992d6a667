package mergekit

import (
	"encoding/json"
	"reflect"
	"sort"

	kiterrors "github.com/c0deZ3R0/go-merge-kit/errors"
)

// StructuralMerger performs a three-way recursive merge over structured
// content. Inputs are attempted as JSON first; when any side fails to parse,
// the merge falls back entirely to the line-oriented algorithm.
type StructuralMerger struct {
	lines LineMerger
}

func (StructuralMerger) Name() string { return "recursive-merge" }

func (StructuralMerger) ContentTypes() []string {
	return []string{"application/json", "text/yaml", "text/xml", "text/plain"}
}

// Merge reconciles ours and theirs against base, walking JSON documents
// recursively and merging each level independently. A clean result is
// serialized back to pretty-printed JSON.
func (m StructuralMerger) Merge(base, ours, theirs []byte) (Result, error) {
	if err := requireUTF8(base, ours, theirs); err != nil {
		return Result{}, err
	}

	var baseVal, oursVal, theirsVal any
	if json.Unmarshal(base, &baseVal) != nil ||
		json.Unmarshal(ours, &oursVal) != nil ||
		json.Unmarshal(theirs, &theirsVal) != nil {
		// Not structured content on all three sides: line merge instead.
		return m.lines.Merge(base, ours, theirs)
	}

	merged, region, ok := mergeValues(baseVal, oursVal, theirsVal)
	if !ok {
		return conflictResult([]Region{region}), nil
	}

	out, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return Result{}, kiterrors.NewWithComponent(kiterrors.OpMerge, "structural-merger", err)
	}
	return cleanResult(out), nil
}

// mergeValues applies the three-way rule to one subtree. Objects merge per
// key over the union of all three key sets; anything else (scalars, arrays,
// type-mismatched branches) merges as a whole value. The first key conflict
// aborts the remaining object merge and propagates that single region.
func mergeValues(base, ours, theirs any) (merged any, region Region, ok bool) {
	baseObj, baseIsObj := base.(map[string]any)
	oursObj, oursIsObj := ours.(map[string]any)
	theirsObj, theirsIsObj := theirs.(map[string]any)

	if baseIsObj && oursIsObj && theirsIsObj {
		result := make(map[string]any, len(oursObj))
		for _, key := range unionKeys(baseObj, oursObj, theirsObj) {
			// Missing keys are treated as JSON null.
			bv := baseObj[key]
			ov := oursObj[key]
			tv := theirsObj[key]

			switch {
			case jsonEqual(ov, tv):
				result[key] = ov
			case jsonEqual(ov, bv):
				result[key] = tv
			case jsonEqual(tv, bv):
				result[key] = ov
			default:
				sub, subRegion, subOK := mergeValues(bv, ov, tv)
				if !subOK {
					return nil, subRegion, false
				}
				result[key] = sub
			}
		}
		return result, nil, true
	}

	switch {
	case jsonEqual(ours, theirs):
		return ours, nil, true
	case jsonEqual(ours, base):
		return theirs, nil, true
	case jsonEqual(theirs, base):
		return ours, nil, true
	}
	return nil, valueConflictRegion(ours, theirs), false
}

// valueConflictRegion renders a conflict region from both sides' pretty-printed JSON.
func valueConflictRegion(ours, theirs any) Region {
	oursJSON, err := json.MarshalIndent(ours, "", "  ")
	if err != nil {
		oursJSON = nil
	}
	theirsJSON, err := json.MarshalIndent(theirs, "", "  ")
	if err != nil {
		theirsJSON = nil
	}
	return Region(conflictMarker(string(oursJSON), string(theirsJSON)))
}

// unionKeys returns the sorted union of the maps' key sets.
func unionKeys(maps ...map[string]any) []string {
	set := make(map[string]struct{})
	for _, m := range maps {
		for k := range m {
			set[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// jsonEqual compares two decoded JSON values deeply.
func jsonEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
