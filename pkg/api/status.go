package api

import "github.com/weirlabs/weir/internal/util"

// Status is an execution signal exchanged between the engine and its steps.
// The set is closed: any other value returned by a step is a programming
// contract violation, never silently ignored
type Status string

const (
	// StatusNew is the state of a step or run before initialisation
	StatusNew Status = "new"

	// StatusInitialised indicates resources are prepared and a run may begin
	StatusInitialised Status = "initialised"

	// StatusBlocked indicates a connector cannot progress until an upstream
	// produces what it needs
	StatusBlocked Status = "blocked"

	// StatusWaiting indicates a flow step cannot progress until an upstream
	// produces a record
	StatusWaiting Status = "waiting"

	// StatusProcessing indicates a run is actively draining its queue
	StatusProcessing Status = "processing"

	// StatusFlowing indicates a flow step produced or passed through a
	// record and is ready to hand it downstream
	StatusFlowing Status = "flowing"

	// StatusFinished indicates permanent completion; no more output follows
	StatusFinished Status = "finished"

	// StatusCancelled indicates voluntary termination without completing;
	// downstreams treat it the same as finished
	StatusCancelled Status = "cancelled"

	// StatusAborted indicates an unrecoverable failure
	StatusAborted Status = "aborted"

	// StatusFinalised indicates resources have been released after a run
	StatusFinalised Status = "finalised"
)

var validStatuses = util.SetOf(
	StatusNew,
	StatusInitialised,
	StatusBlocked,
	StatusWaiting,
	StatusProcessing,
	StatusFlowing,
	StatusFinished,
	StatusCancelled,
	StatusAborted,
	StatusFinalised,
)

// Valid returns true if the status belongs to the closed status set
func (s Status) Valid() bool {
	return validStatuses.Contains(s)
}

// IsTerminal returns true if a step reporting this status will produce no
// further output
func (s Status) IsTerminal() bool {
	switch s {
	case StatusFinished, StatusCancelled, StatusAborted:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}
