// Package mergekit reconciles divergent edits to shared content back to a
// common ancestor. It provides a line-oriented three-way merger, a recursive
// structural merger for JSON documents, a structural tree differ, and a
// conflict registry that applies resolution policies or defers to a human.
package mergekit

// Merger is the Strategy interface for three-way content mergers.
// Implementations are pure: they neither block nor touch shared state, so a
// single Merger value is safe for concurrent use.
type Merger interface {
	// Name returns the merger's registered name (e.g. "three-way").
	Name() string

	// ContentTypes lists the content types this merger accepts.
	ContentTypes() []string

	// Merge reconciles ours and theirs against their common ancestor base.
	// Content that cannot be merged (invalid UTF-8) yields an error carrying
	// errors.ErrCodeUnsupportedContent.
	Merge(base, ours, theirs []byte) (Result, error)
}

var (
	_ Merger = (*LineMerger)(nil)
	_ Merger = (*StructuralMerger)(nil)
)
