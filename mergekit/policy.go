package mergekit

// StrategyLastWriterWins is the only resolution strategy currently shipped.
// Policy.Strategy is an open identifier so additional strategies can be
// registered via WithStrategy without changing the registry's contract.
const StrategyLastWriterWins = "last-writer-wins"

// ResolvedByManual marks records closed by a human choice.
const ResolvedByManual = "manual"

// Conflict record statuses. The lifecycle is detected -> resolved; resolution
// is terminal.
const (
	ConflictDetected = "detected"
	ConflictResolved = "resolved"
)

// Policy is a named, prioritized strategy for automatic conflict resolution.
// Higher priority wins when the registry selects a policy.
type Policy struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
	Strategy string `json:"strategy"`
}

// ConflictDetail captures the two divergent versions plus the optional common
// base and caller-supplied context.
type ConflictDetail struct {
	Base     *string `json:"base,omitempty"`
	Version1 string  `json:"version1"`
	Version2 string  `json:"version2"`
	Context  string  `json:"context"`
}

// ConflictRecord is the persisted lifecycle record for a detected conflict.
type ConflictRecord struct {
	ConflictID  string         `json:"conflictId"`
	Status      string         `json:"status"`
	Detail      ConflictDetail `json:"detail"`
	ResolvedBy  string         `json:"resolvedBy,omitempty"`
	ChosenValue string         `json:"chosenValue,omitempty"`
}

// Strategy applies a resolution policy to a conflict's detail and returns the
// winning value.
type Strategy interface {
	Name() string
	Apply(detail ConflictDetail) (string, error)
}

// LastWriterWins resolves by taking the later write, version2.
type LastWriterWins struct{}

var _ Strategy = (*LastWriterWins)(nil)

func (LastWriterWins) Name() string { return StrategyLastWriterWins }

func (LastWriterWins) Apply(detail ConflictDetail) (string, error) {
	return detail.Version2, nil
}
