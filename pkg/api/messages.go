package api

import "time"

type (
	// ErrorResponse is the standard error payload returned by the HTTP API
	ErrorResponse struct {
		Error  string `json:"error"`
		Status int    `json:"status"`
	}

	// RunState is a point-in-time snapshot of a single dataflow run
	RunState struct {
		ID         RunID      `json:"id"`
		DataflowID DataflowID `json:"dataflow_id"`
		Name       string     `json:"name"`
		Status     Status     `json:"status"`
		DryRun     bool       `json:"dry_run"`
		Automated  bool       `json:"automated"`
		StartedAt  time.Time  `json:"started_at"`
		Error      string     `json:"error,omitempty"`
	}

	// TriggerRequest asks the server to begin a run of a dataflow
	TriggerRequest struct {
		DryRun bool `json:"dry_run,omitempty"`
	}

	// ScheduleRequest asks the server to begin an automated run at a time
	ScheduleRequest struct {
		At time.Time `json:"at"`
	}
)
