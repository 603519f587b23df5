// Package report summarises solution verification cases and renders them
// as markdown and HTML reports.
package report

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"simflow/domain/convergence"
	"simflow/domain/verification"
)

// TrajectorySummary describes the discretization error of one trajectory
type TrajectorySummary struct {
	Index             int     `json:"index"`
	FinestElementSize float64 `json:"finest_element_size"`
	FinestValue       float64 `json:"finest_value"`
	Reference         float64 `json:"reference"`
	// RelativeError is |finest - reference| / |reference|, NaN without reference
	RelativeError float64 `json:"relative_error"`
	FoldMean      float64 `json:"fold_mean"`
	FoldStdDev    float64 `json:"fold_std_dev"`
	FoldMin       float64 `json:"fold_min"`
	FoldMax       float64 `json:"fold_max"`
}

// Summarize computes per trajectory the spread of the fold extrapolations
// and the error of the finest mesh, taken as the last row of the trajectory
func Summarize(result *verification.SolutionVerificationCaseResult, outputName string) ([]TrajectorySummary, error) {
	if outputName == "" {
		outputName = result.Metadata.OutputName
	}
	trajectories, err := result.ConvergenceData.Trajectories(result.Metadata.NbMeshes)
	if err != nil {
		return nil, err
	}

	refColumn := convergence.ReferenceColumn(outputName)
	summaries := make([]TrajectorySummary, 0, len(trajectories))
	for i, traj := range trajectories {
		values, err := traj.Column(outputName)
		if err != nil {
			return nil, err
		}
		folds, err := traj.Column(convergence.ExtrapolatedValuesColumn)
		if err != nil {
			return nil, err
		}
		last := len(values) - 1
		s := TrajectorySummary{
			Index:         i,
			FinestValue:   values[last],
			Reference:     math.NaN(),
			RelativeError: math.NaN(),
		}
		if h, err := traj.Column(result.Metadata.ElementSizeVariableName); err == nil {
			s.FinestElementSize = h[last]
		}
		if refs, err := traj.Column(refColumn); err == nil {
			s.Reference = refs[0]
			if s.Reference != 0 {
				s.RelativeError = math.Abs(s.FinestValue-s.Reference) / math.Abs(s.Reference)
			}
		}

		data := stats.Float64Data(folds)
		if s.FoldMean, err = stats.Mean(data); err != nil {
			return nil, fmt.Errorf("trajectory %d: %w", i, err)
		}
		if s.FoldStdDev, err = stats.StandardDeviation(data); err != nil {
			return nil, fmt.Errorf("trajectory %d: %w", i, err)
		}
		if s.FoldMin, err = stats.Min(data); err != nil {
			return nil, fmt.Errorf("trajectory %d: %w", i, err)
		}
		if s.FoldMax, err = stats.Max(data); err != nil {
			return nil, fmt.Errorf("trajectory %d: %w", i, err)
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}
