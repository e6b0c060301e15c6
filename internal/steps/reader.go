package steps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/weirlabs/weir/pkg/api"
)

type (
	// JSONReader is a flow source. It iterates the records of a JSON array
	// held in its configuration, optionally addressed by a gjson path, and
	// emits one record per activation
	JSONReader struct {
		Base
		config  jsonReaderConfig
		records []api.Record
		pos     int
	}

	jsonReaderConfig struct {
		Source json.RawMessage `json:"source"`
		Path   string          `json:"path,omitempty"`
	}
)

const TypeJSONReader = "reader-json"

var (
	ErrReaderSourceEmpty   = errors.New("reader source empty")
	ErrReaderSourceInvalid = errors.New("reader source is not valid JSON")
	ErrReaderNotArray      = errors.New("reader source is not an array")
)

func init() {
	Default().MustRegister(TypeJSONReader, NewJSONReader)
}

// NewJSONReader constructs a JSON reader step from its definition
func NewJSONReader(def *api.StepDef) (Step, error) {
	s := &JSONReader{Base: NewBase(def)}
	if err := json.Unmarshal(def.Config, &s.config); err != nil {
		return nil, fmt.Errorf("step %s: %w", def.ID, err)
	}
	if len(s.config.Source) == 0 {
		return nil, fmt.Errorf("%w: step %s", ErrReaderSourceEmpty, def.ID)
	}
	return s, nil
}

func (s *JSONReader) IsFlow() bool {
	return true
}

// Initialise parses the configured source into the record iterator
func (s *JSONReader) Initialise(ctx context.Context, rc *RunContext) error {
	if err := s.Base.Initialise(ctx, rc); err != nil {
		return err
	}

	doc := string(s.config.Source)
	if !gjson.Valid(doc) {
		return fmt.Errorf("%w: step %s", ErrReaderSourceInvalid, s.Def().ID)
	}

	result := gjson.Parse(doc)
	if s.config.Path != "" {
		result = result.Get(s.config.Path)
	}
	if !result.IsArray() {
		return fmt.Errorf("%w: step %s", ErrReaderNotArray, s.Def().ID)
	}

	for _, item := range result.Array() {
		s.records = append(s.records, toRecord(item))
	}
	return nil
}

// Execute emits the next record, or finishes when the source is drained
func (s *JSONReader) Execute(context.Context) (api.Status, error) {
	if s.pos >= len(s.records) {
		return s.finished()
	}
	rec := s.records[s.pos]
	s.pos++
	return s.flowing(rec)
}

func toRecord(item gjson.Result) api.Record {
	if value, ok := item.Value().(map[string]any); ok {
		return api.Record(value)
	}
	return api.Record{"value": item.Value()}
}
