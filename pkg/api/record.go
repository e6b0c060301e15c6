package api

import "maps"

type (
	// Record is a single unit of data moving through a flow sub-graph
	Record map[string]any

	// Vars is a named set of run-scoped variable values
	Vars map[string]any
)

// Clone returns a shallow copy of the record
func (r Record) Clone() Record {
	return maps.Clone(r)
}

// Set returns a copy of the record with the named field set
func (r Record) Set(name string, value any) Record {
	res := maps.Clone(r)
	if res == nil {
		res = Record{}
	}
	res[name] = value
	return res
}
