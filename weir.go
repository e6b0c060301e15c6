// Package weir provides a pull-based dataflow execution engine. A dataflow
// is a directed acyclic graph of steps; connector steps process discrete
// units of work while flow steps stream records through bounded sub-graphs.
package weir

const (
	// Name is the service name reported in logs and API responses
	Name = "weir"

	// Version is the current release version
	Version = "0.3.0"
)
