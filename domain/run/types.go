// Package run holds the archived record of one integrated model execution.
package run

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"simflow/domain/core"
	"simflow/domain/curve"
	"simflow/domain/model"
)

// Result is an archived model execution
type Result struct {
	ID           core.ResultID          `json:"id" db:"id"`
	Experiment   core.Experiment        `json:"experiment" db:"experiment"`
	Model        string                 `json:"model" db:"model"`
	LoadCase     string                 `json:"load_case" db:"load_case"`
	Date         time.Time              `json:"date" db:"date"`
	ErrorCode    int                    `json:"error_code" db:"error_code"`
	CPUTime      float64                `json:"cpu_time" db:"cpu_time"`
	JobDirectory string                 `json:"job_directory" db:"job_directory"`
	Fingerprint  string                 `json:"fingerprint" db:"fingerprint"`
	Inputs       model.Data             `json:"inputs"`
	Scalars      map[string]float64     `json:"scalars"`
	Curves       map[string]curve.Curve `json:"curves"`
}

// Succeeded reports whether the execution finished without error
func (r *Result) Succeeded() bool {
	return r.ErrorCode == model.ErrorCodeSuccess
}

// NewResult records the output of one execution. Length-one outputs become
// scalars; the declared curves are extracted from vector outputs.
func NewResult(experiment core.Experiment, m *model.IntegratedModel, inputs, outputs model.Data, jobDirectory string) *Result {
	r := &Result{
		ID:           core.NewResultID(),
		Experiment:   experiment,
		Model:        m.Name(),
		LoadCase:     m.LoadCase(),
		Date:         time.Now().UTC(),
		JobDirectory: jobDirectory,
		Fingerprint:  Fingerprint(m.Name(), m.LoadCase(), inputs),
		Inputs:       inputs.Copy(),
		Scalars:      map[string]float64{},
		Curves:       map[string]curve.Curve{},
	}
	if code, ok := outputs.Scalar(model.ErrorCodeOutput); ok {
		r.ErrorCode = int(code)
	}
	r.CPUTime, _ = outputs.Scalar(model.CPUTimeOutput)

	for name, values := range outputs {
		if len(values) == 1 {
			r.Scalars[name] = values[0]
		}
	}
	for _, spec := range m.Curves() {
		c, err := curve.New(spec.X, spec.Y, outputs[spec.X], outputs[spec.Y])
		if err != nil || c.Len() == 0 {
			continue
		}
		r.Curves[CurveKey(spec)] = c
	}
	return r
}

// CurveKey names an archived curve
func CurveKey(spec model.CurveSpec) string {
	return spec.Y + "_vs_" + spec.X
}

// Fingerprint hashes a model, load case and input values so that identical
// executions can be recognised in the archive
func Fingerprint(modelName, loadCase string, inputs model.Data) string {
	var b strings.Builder
	fmt.Fprintf(&b, "model:%s|load_case:%s", modelName, loadCase)
	for _, name := range inputs.Names() {
		fmt.Fprintf(&b, "|%s:%v", name, inputs[name])
	}
	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", hash)
}
