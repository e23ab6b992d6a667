package mergekit

// Status tags a merge outcome. The set is closed: a merge either produced a
// clean result or a non-empty list of conflict regions.
type Status string

const (
	StatusClean     Status = "clean"
	StatusConflicts Status = "conflicts"
)

// Region is a conflict region: a byte blob containing both sides' content
// wrapped in conflict markers (<<<<<<< ours ... ======= ... >>>>>>> theirs).
type Region []byte

// Result is the outcome of a three-way merge.
// Invariants:
// - Status == StatusClean: Merged holds the output and never contains marker text
// - Status == StatusConflicts: Regions has at least one region, Merged is nil
type Result struct {
	Status  Status
	Merged  []byte
	Regions []Region
}

// Clean reports whether the merge completed without conflicts.
func (r Result) Clean() bool { return r.Status == StatusClean }

func cleanResult(merged []byte) Result {
	return Result{Status: StatusClean, Merged: merged}
}

func conflictResult(regions []Region) Result {
	return Result{Status: StatusConflicts, Regions: regions}
}
