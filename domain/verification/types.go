// Package verification defines the records exchanged by solution verification
// tools: per-trajectory verification results and the aggregated case result.
package verification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"simflow/domain/convergence"
)

// Metadata keys
const (
	KeyElementSizeVariableName = "element_size_variable_name"
	KeyOutputName              = "output_name"
	KeyNbMeshes                = "nb_meshes"
	KeyVariableNames           = "variable_names"
)

// Sample holds the components of one variable for one mesh
type Sample []float64

// UnmarshalJSON accepts a number or a list of numbers
func (s *Sample) UnmarshalJSON(data []byte) error {
	var scalar float64
	if err := json.Unmarshal(data, &scalar); err == nil {
		*s = Sample{scalar}
		return nil
	}
	var values []float64
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("sample must be a number or a list of numbers: %w", err)
	}
	*s = values
	return nil
}

// MarshalJSON writes single-component samples as plain numbers
func (s Sample) MarshalJSON() ([]byte, error) {
	if len(s) == 1 {
		return json.Marshal(s[0])
	}
	return json.Marshal([]float64(s))
}

// Variable is one named column of a simulation-and-reference dataset
type Variable struct {
	Name    string   `json:"name"`
	Samples []Sample `json:"values"`
}

// Flatten returns the samples in row-major order
func (v Variable) Flatten() []float64 {
	var out []float64
	for _, s := range v.Samples {
		out = append(out, s...)
	}
	return out
}

// Dataset holds the simulated and reference variables of one trajectory, one
// sample per mesh refinement step
type Dataset struct {
	Variables []Variable `json:"columns"`
}

// NewDataset builds a dataset of scalar samples from ordered names and values
func NewDataset(names []string, values map[string][]float64) Dataset {
	ds := Dataset{}
	for _, name := range names {
		v := Variable{Name: name}
		for _, x := range values[name] {
			v.Samples = append(v.Samples, Sample{x})
		}
		ds.Variables = append(ds.Variables, v)
	}
	return ds
}

// VariableNames returns the variable names in dataset order
func (d Dataset) VariableNames() []string {
	names := make([]string, len(d.Variables))
	for i, v := range d.Variables {
		names[i] = v.Name
	}
	return names
}

// Variable returns the named variable
func (d Dataset) Variable(name string) (Variable, bool) {
	for _, v := range d.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// Len returns the number of samples (mesh refinement steps)
func (d Dataset) Len() int {
	if len(d.Variables) == 0 {
		return 0
	}
	return len(d.Variables[0].Samples)
}

// Fold is the extrapolation produced by one cross-validation fold
type Fold struct {
	Name    string
	QExtrap Sample
}

// Folds is an ordered mapping of fold name to extrapolation
type Folds []Fold

// Extrapolated returns all extrapolated values, fold by fold
func (f Folds) Extrapolated() []float64 {
	var out []float64
	for _, fold := range f {
		out = append(out, fold.QExtrap...)
	}
	return out
}

type foldBody struct {
	QExtrap Sample `json:"q_extrap"`
}

// UnmarshalJSON decodes an object of folds, keeping document order
func (f *Folds) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*f = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("cross_validation must be a JSON object")
	}
	var folds Folds
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := keyTok.(string)
		var body foldBody
		if err := dec.Decode(&body); err != nil {
			return fmt.Errorf("fold %s: %w", name, err)
		}
		if len(body.QExtrap) == 0 {
			return fmt.Errorf("fold %s has no q_extrap", name)
		}
		folds = append(folds, Fold{Name: name, QExtrap: body.QExtrap})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*f = folds
	return nil
}

// MarshalJSON encodes the folds as an ordered object
func (f Folds) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fold := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(fold.Name)
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(foldBody{QExtrap: fold.QExtrap})
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Metadata describes how a verification result was produced
type Metadata struct {
	Settings map[string]any `json:"settings"`
	Misc     map[string]any `json:"misc"`
}

// ElementSizeVariableName returns misc.element_size_variable_name
func (m Metadata) ElementSizeVariableName() string {
	name, _ := m.Misc[KeyElementSizeVariableName].(string)
	return name
}

// OutputName returns the output of interest declared in the settings, then misc
func (m Metadata) OutputName() string {
	if name, ok := m.Settings[KeyOutputName].(string); ok {
		return name
	}
	name, _ := m.Misc[KeyOutputName].(string)
	return name
}

// VerificationResult is the record of one solution verification: the
// simulated and reference values along one refinement trajectory, and the
// extrapolation of each cross-validation fold. It is not modified once produced.
type VerificationResult struct {
	Metadata               Metadata `json:"metadata"`
	SimulationAndReference Dataset  `json:"simulation_and_reference"`
	CrossValidation        Folds    `json:"cross_validation"`
}

// ReadResults decodes a JSON array of verification results
func ReadResults(r io.Reader) ([]VerificationResult, error) {
	var results []VerificationResult
	if err := json.NewDecoder(r).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode verification results: %w", err)
	}
	return results, nil
}

// CaseMetadata is recorded from the first aggregated result
type CaseMetadata struct {
	Settings                map[string]any `json:"settings"`
	ElementSizeVariableName string         `json:"element_size_variable_name"`
	OutputName              string         `json:"output_name"`
	NbMeshes                int            `json:"nb_meshes"`
	VariableNames           []string       `json:"variable_names"`
}

// SolutionVerificationCaseResult owns the aggregated convergence table of
// several verification results
type SolutionVerificationCaseResult struct {
	Metadata        CaseMetadata       `json:"metadata"`
	ConvergenceData *convergence.Table `json:"convergence_data"`
}

// TrajectoryCount returns the number of trajectories in the convergence data
func (r *SolutionVerificationCaseResult) TrajectoryCount() (int, error) {
	return convergence.CountTrajectories(r.ConvergenceData.Len(), r.Metadata.NbMeshes)
}
