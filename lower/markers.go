package lower

// Marker lines printed by generated simulation drivers. The execution
// coordinator parses them back into the unified report shape, so they are
// part of the artifact contract.
const (
	// MarkFail reports a failed expect:
	// FAULT-FAIL action=<i> path=<p> expect=<d> actual=<d>
	MarkFail = "FAULT-FAIL"
	// MarkGuard reports a violated guarantee monitor:
	// FAULT-GUARD action=<i>
	MarkGuard = "FAULT-GUARD"
	// MarkDone terminates a run: FAULT-DONE checks=<d> failures=<d>
	MarkDone = "FAULT-DONE"
	// MarkCheck labels one formal obligation in solver output:
	// FAULT-CHECK <k> action=<i>
	MarkCheck = "FAULT-CHECK"
)
