package engine

import "errors"

var (
	// ErrUnresolvedDependency is returned at construction when a declared
	// dependency id does not name a known step
	ErrUnresolvedDependency = errors.New("unresolved dependency")

	// ErrFlowBranches is returned at construction when a flow step feeds
	// more than one flow downstream; branching flow sub-graphs are not
	// supported
	ErrFlowBranches = errors.New("flow sub-graph branches")

	// ErrNotRunning is a contract violation: ExecuteStep was called while
	// the run was not in the initialised or processing state
	ErrNotRunning = errors.New("run is not in a runnable state")

	// ErrInvalidStepStatus is a contract violation: a step returned a
	// status outside the handled set
	ErrInvalidStepStatus = errors.New("step returned invalid status")

	// ErrRunAborted wraps the failure that triggered the abort protocol
	ErrRunAborted = errors.New("run aborted")

	// ErrRunDisabled is reported when a disabled dataflow is asked to run
	// outside a dry run or manual trigger
	ErrRunDisabled = errors.New("dataflow is disabled")
)
