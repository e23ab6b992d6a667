package mergekit

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	kiterrors "github.com/c0deZ3R0/go-merge-kit/errors"
)

// LineMerger performs a classic three-way merge over newline-delimited text.
// It compares ours and theirs against a common base: non-conflicting changes
// merge automatically, conflicting changes produce marker regions. Lines are
// aligned best-effort, index for index; there is no LCS re-synchronization.
type LineMerger struct{}

func (LineMerger) Name() string { return "three-way" }

func (LineMerger) ContentTypes() []string {
	return []string{"text/plain", "text/*"}
}

// Merge reconciles ours and theirs against base line by line.
func (m LineMerger) Merge(base, ours, theirs []byte) (Result, error) {
	if err := requireUTF8(base, ours, theirs); err != nil {
		return Result{}, err
	}

	// Trivial cases
	if bytes.Equal(ours, theirs) {
		return cleanResult(ours), nil
	}
	if bytes.Equal(ours, base) {
		return cleanResult(theirs), nil
	}
	if bytes.Equal(theirs, base) {
		return cleanResult(ours), nil
	}

	return mergeLines(string(base), string(ours), string(theirs)), nil
}

// requireUTF8 rejects non-UTF8 input with an UNSUPPORTED_CONTENT error.
func requireUTF8(inputs ...[]byte) error {
	for _, in := range inputs {
		if !utf8.Valid(in) {
			return kiterrors.NewUnsupportedContentError(kiterrors.OpMerge,
				fmt.Errorf("content must be valid UTF-8 text"))
		}
	}
	return nil
}

// conflictMarker wraps both sides of an irreconcilable change in the standard
// marker format.
func conflictMarker(ours, theirs string) string {
	return fmt.Sprintf("<<<<<<< ours\n%s\n=======\n%s\n>>>>>>> theirs", ours, theirs)
}

// mergeLines walks three independent line indices in lockstep. Agreement with
// the base decides which side changed a line; when both sides changed it
// independently, a conflict region is emitted and all indices still advance.
func mergeLines(base, ours, theirs string) Result {
	baseLines := strings.Split(base, "\n")
	ourLines := strings.Split(ours, "\n")
	theirLines := strings.Split(theirs, "\n")

	var resultLines []string
	var regions []Region

	baseIdx, oursIdx, theirsIdx := 0, 0, 0
	for baseIdx < len(baseLines) || oursIdx < len(ourLines) || theirsIdx < len(theirLines) {
		if baseIdx >= len(baseLines) {
			// Base exhausted: handle the remaining tails in one step.
			oursRemaining := ourLines[oursIdx:]
			theirsRemaining := theirLines[theirsIdx:]

			switch {
			case linesEqual(oursRemaining, theirsRemaining):
				resultLines = append(resultLines, oursRemaining...)
			case len(oursRemaining) == 0:
				resultLines = append(resultLines, theirsRemaining...)
			case len(theirsRemaining) == 0:
				resultLines = append(resultLines, oursRemaining...)
			default:
				marker := conflictMarker(strings.Join(oursRemaining, "\n"), strings.Join(theirsRemaining, "\n"))
				regions = append(regions, Region(marker))
				resultLines = append(resultLines, marker)
			}
			break
		}

		baseLine := baseLines[baseIdx]
		ourLine, oursOK := lineAt(ourLines, oursIdx)
		theirLine, theirsOK := lineAt(theirLines, theirsIdx)

		switch {
		case oursOK == theirsOK && ourLine == theirLine:
			// Both sides agree (or both have run out).
			if oursOK {
				resultLines = append(resultLines, ourLine)
			}
		case oursOK && ourLine == baseLine && !(theirsOK && theirLine == baseLine):
			// Theirs changed this line, ours did not.
			if theirsOK {
				resultLines = append(resultLines, theirLine)
			}
		case theirsOK && theirLine == baseLine && !(oursOK && ourLine == baseLine):
			// Ours changed this line, theirs did not.
			if oursOK {
				resultLines = append(resultLines, ourLine)
			}
		default:
			// Both sides changed this line independently.
			marker := conflictMarker(ourLine, theirLine)
			regions = append(regions, Region(marker))
			resultLines = append(resultLines, marker)
		}

		baseIdx++
		oursIdx++
		theirsIdx++
	}

	if len(regions) > 0 {
		return conflictResult(regions)
	}
	return cleanResult([]byte(strings.Join(resultLines, "\n")))
}

func lineAt(lines []string, idx int) (string, bool) {
	if idx < len(lines) {
		return lines[idx], true
	}
	return "", false
}

func linesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
