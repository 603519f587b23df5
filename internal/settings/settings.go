// Package settings loads YAML settings documents and validates them against
// closed CUE definitions.
package settings

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	apperrors "simflow/internal/errors"
)

// Schema definitions
const (
	CaseSettings         = "#CaseSettings"
	VerificationSettings = "#VerificationSettings"
	RunSettings          = "#RunSettings"
	PlotOptions          = "#PlotOptions"
	ScratchSettings      = "#ScratchSettings"
)

//go:embed schema.cue
var schemaSource string

// Validator checks documents against the embedded schema
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewValidator compiles the embedded schema
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("invalid settings schema: %w", err)
	}
	return &Validator{ctx: ctx, schema: schema}, nil
}

// Validate checks a decoded YAML document against a definition
func (v *Validator) Validate(definition string, doc any) error {
	def := v.schema.LookupPath(cue.ParsePath(definition))
	if !def.Exists() {
		return fmt.Errorf("unknown settings definition %s", definition)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	value := v.ctx.CompileBytes(data)
	if err := value.Err(); err != nil {
		return err
	}
	if err := def.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return apperrors.ValidationError(fmt.Sprintf("settings do not match %s: %s", definition, cueerrors.Details(err, nil)))
	}
	return nil
}

// Decode validates a YAML document, then decodes it into out
func (v *Validator) Decode(data []byte, definition string, out any) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return apperrors.InvalidInput(fmt.Sprintf("invalid YAML: %v", err))
	}
	if doc == nil {
		return apperrors.InvalidInput("settings document is empty")
	}
	if err := v.Validate(definition, doc); err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return apperrors.InvalidInput(fmt.Sprintf("invalid settings: %v", err))
	}
	return nil
}

// Load reads, validates and decodes a YAML settings file
func Load(path, definition string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	v, err := NewValidator()
	if err != nil {
		return err
	}
	if err := v.Decode(data, definition, out); err != nil {
		return apperrors.Wrapf(err, "settings file %s", path)
	}
	return nil
}
