package suite

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed suite.schema.json
var schemaJSON []byte

const schemaURL = "suite.schema.json"

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal suite schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("add suite schema: %w", err)
	}
	return c.Compile(schemaURL)
})

// Loader reads suite records from disk.
type Loader struct {
	Root           string
	DefaultTimeout int
}

// NewLoader constructs a Loader that resolves paths relative to root.
func NewLoader(root string, defaultTimeout int) *Loader {
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultTimeoutSeconds
	}
	return &Loader{Root: root, DefaultTimeout: defaultTimeout}
}

// LoadAll parses every path. Malformed records become invalid entries; only
// a duplicate id fails the whole load.
func (l *Loader) LoadAll(paths []string) (*Registry, error) {
	var (
		defs    []Definition
		invalid []InvalidEntry
	)
	for _, relPath := range paths {
		full := relPath
		if !filepath.IsAbs(full) {
			full = filepath.Join(l.Root, relPath)
		}
		data, err := os.ReadFile(full)
		if err != nil {
			invalid = append(invalid, InvalidEntry{
				ID:     stem(relPath),
				Path:   relPath,
				Reason: fmt.Sprintf("read: %v", err),
			})
			continue
		}
		def, err := l.Decode(data, relPath)
		if err != nil {
			var entry InvalidEntry
			if errors.As(err, &entry) {
				invalid = append(invalid, entry)
				continue
			}
			return nil, err
		}
		defs = append(defs, def)
	}
	return NewRegistry(defs, invalid)
}

// Decode validates and converts one suite record. Validation failures are
// returned as InvalidEntry.
func (l *Loader) Decode(data []byte, displayPath string) (Definition, error) {
	id := stem(displayPath)
	invalid := func(format string, args ...any) (Definition, error) {
		return Definition{}, InvalidEntry{ID: id, Path: displayPath, Reason: fmt.Sprintf(format, args...)}
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return invalid("parse: %v", err)
	}
	if raw == nil {
		return invalid("empty suite record")
	}
	record, ok := raw.(map[string]any)
	if !ok {
		return invalid("suite record must be a mapping")
	}
	if declared, ok := record["id"].(string); ok && declared != "" {
		id = declared
	}

	if reason := validateSchema(record); reason != "" {
		return invalid("%s", reason)
	}

	var doc suiteDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return invalid("decode: %v", err)
	}

	def := Definition{
		ID:            id,
		Name:          doc.Name,
		Description:   doc.Description,
		Path:          displayPath,
		ExecutionMode: ModeSequential,
		StopOnFailure: doc.StopOnFailure,
		Tags:          normalizeTags(doc.Tags),
		Vars:          convertVars(doc.Vars),
		Steps:         make([]Step, 0, len(doc.Steps)),
	}
	if doc.ExecutionMode != "" {
		def.ExecutionMode = ExecutionMode(doc.ExecutionMode)
	}
	if doc.Schedule != nil {
		def.Schedule = fmt.Sprint(doc.Schedule)
	}

	for idx, stepDoc := range doc.Steps {
		step := Step{
			Name:           strings.TrimSpace(stepDoc.Name),
			Description:    stepDoc.Description,
			TimeoutSeconds: l.DefaultTimeout,
			Required:       true,
			Vars:           convertVars(stepDoc.Vars),
		}
		if step.Name == "" {
			return invalid("steps[%d]: name is required", idx)
		}
		if stepDoc.TimeoutSeconds != nil {
			if *stepDoc.TimeoutSeconds <= 0 {
				return invalid("steps[%d]: timeoutSeconds must be a positive integer", idx)
			}
			if *stepDoc.TimeoutSeconds > MaxTimeoutSeconds {
				return invalid("steps[%d]: timeoutSeconds must not exceed %d", idx, MaxTimeoutSeconds)
			}
			step.TimeoutSeconds = *stepDoc.TimeoutSeconds
		}
		if stepDoc.Required != nil {
			step.Required = *stepDoc.Required
		}
		def.Steps = append(def.Steps, step)
	}

	return def, nil
}

func validateSchema(record map[string]any) string {
	sch, err := compiledSchema()
	if err != nil {
		return err.Error()
	}
	// Round-trip through JSON so YAML scalars become the json.Number values
	// the validator expects.
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Sprintf("encode for validation: %v", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Sprintf("encode for validation: %v", err)
	}
	if err := sch.Validate(inst); err != nil {
		return compactValidationError(err)
	}
	return ""
}

// compactValidationError folds the validator's multi-line report into one
// line, dropping the header that names the schema URL.
func compactValidationError(err error) string {
	lines := strings.Split(err.Error(), "\n")
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) && len(lines) > 1 {
		lines = lines[1:]
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimPrefix(strings.TrimSpace(line), "- ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "; ")
}

type suiteDocument struct {
	ID            string         `yaml:"id"`
	Name          string         `yaml:"name"`
	Description   string         `yaml:"description"`
	ExecutionMode string         `yaml:"executionMode"`
	StopOnFailure bool           `yaml:"stopOnFailure"`
	Tags          []string       `yaml:"tags"`
	Vars          map[string]any `yaml:"vars"`
	Schedule      any            `yaml:"schedule"`
	Steps         []stepDocument `yaml:"steps"`
}

type stepDocument struct {
	Name           string         `yaml:"name"`
	Description    string         `yaml:"description"`
	TimeoutSeconds *int           `yaml:"timeoutSeconds"`
	Required       *bool          `yaml:"required"`
	Vars           map[string]any `yaml:"vars"`
}

func convertVars(input map[string]any) map[string]string {
	if len(input) == 0 {
		return nil
	}
	out := make(map[string]string, len(input))
	keys := make([]string, 0, len(input))
	for k := range input {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out[k] = fmt.Sprint(input[k])
	}
	return out
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
