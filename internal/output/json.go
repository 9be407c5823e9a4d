package output

import (
	"encoding/json"
	"io"

	"github.com/stolostron/capitest/internal/report"
	"github.com/stolostron/capitest/internal/suite"
)

// JSONRenderer emits structured execution data.
type JSONRenderer struct {
	out io.Writer
}

// NewJSON creates a JSON renderer writing to out.
func NewJSON(out io.Writer) *JSONRenderer {
	return &JSONRenderer{out: out}
}

// Listing is the JSON document produced by list mode.
type Listing struct {
	Suites  []suite.Definition   `json:"suites"`
	Invalid []suite.InvalidEntry `json:"invalid"`
}

// Render encodes the run report as JSON.
func (j *JSONRenderer) Render(run report.RunReport) error {
	return j.encode(run)
}

// RenderList encodes the registry contents as JSON.
func (j *JSONRenderer) RenderList(defs []suite.Definition, invalid []suite.InvalidEntry) error {
	listing := Listing{Suites: defs, Invalid: invalid}
	if listing.Suites == nil {
		listing.Suites = []suite.Definition{}
	}
	if listing.Invalid == nil {
		listing.Invalid = []suite.InvalidEntry{}
	}
	return j.encode(listing)
}

func (j *JSONRenderer) encode(v any) error {
	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
