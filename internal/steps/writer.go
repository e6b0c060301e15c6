package steps

import (
	"context"
	"encoding/json"

	"github.com/weirlabs/weir/pkg/api"
)

// NDJSONWriter is a flow sink. It writes each record it pulls from its
// upstream as a single JSON line on the run's output writer, passing the
// record through so a downstream (usually the injected cap) can drain it
type NDJSONWriter struct {
	Base
	written int
}

const TypeNDJSONWriter = "writer-ndjson"

func init() {
	Default().MustRegister(TypeNDJSONWriter, NewNDJSONWriter)
}

// NewNDJSONWriter constructs an NDJSON writer step from its definition
func NewNDJSONWriter(def *api.StepDef) (Step, error) {
	return &NDJSONWriter{Base: NewBase(def)}, nil
}

func (s *NDJSONWriter) IsFlow() bool {
	return true
}

// Execute pulls one record from upstream and writes it as a JSON line
func (s *NDJSONWriter) Execute(context.Context) (api.Status, error) {
	src, ok := s.source()
	if !ok {
		return s.finished()
	}

	rec, ok := src.Take()
	if !ok {
		if src.Done() {
			return s.finished()
		}
		return s.waiting()
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return s.aborted(err)
	}
	if _, err := s.Run().Output.Write(append(line, '\n')); err != nil {
		return s.aborted(err)
	}
	s.written++

	return s.flowing(rec)
}

// Written returns the number of records written so far
func (s *NDJSONWriter) Written() int {
	return s.written
}
