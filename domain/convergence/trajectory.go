package convergence

import (
	"fmt"

	"simflow/domain/core"
)

// CountTrajectories returns the number of refinement trajectories held by
// totalRows rows when each trajectory has meshes rows. The division must be exact.
func CountTrajectories(totalRows, meshes int) (int, error) {
	if meshes <= 0 {
		return 0, fmt.Errorf("%w: %d", core.ErrInvalidMeshCount, meshes)
	}
	if totalRows < 0 || totalRows%meshes != 0 {
		return 0, core.NewNotMultipleError(totalRows, meshes)
	}
	return totalRows / meshes, nil
}

// Trajectory returns the rows [i*meshes, (i+1)*meshes) of the table
func (t *Table) Trajectory(i, meshes int) (*Table, error) {
	count, err := CountTrajectories(t.Len(), meshes)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= count {
		return nil, core.NewIndexError("trajectory", i, count)
	}
	return t.Slice(i*meshes, (i+1)*meshes)
}

// Trajectories splits the table into its contiguous, equal-length trajectory blocks
func (t *Table) Trajectories(meshes int) ([]*Table, error) {
	count, err := CountTrajectories(t.Len(), meshes)
	if err != nil {
		return nil, err
	}
	out := make([]*Table, 0, count)
	for i := 0; i < count; i++ {
		block, err := t.Slice(i*meshes, (i+1)*meshes)
		if err != nil {
			return nil, err
		}
		out = append(out, block)
	}
	return out, nil
}

// Divisor returns values[*index], or 1 when index is nil
func Divisor(values []float64, index *int) (float64, error) {
	if index == nil {
		return 1.0, nil
	}
	if *index < 0 || *index >= len(values) {
		return 0, core.NewIndexError("normalization", *index, len(values))
	}
	d := values[*index]
	if d == 0 {
		return 0, fmt.Errorf("%w: value at index %d is zero", core.ErrZeroNormalization, *index)
	}
	return d, nil
}

// Normalize divides every value by values[*index], so that the value at index
// becomes exactly 1. A nil index returns a copy of the values.
func Normalize(values []float64, index *int) ([]float64, error) {
	d, err := Divisor(values, index)
	if err != nil {
		return nil, err
	}
	return DivideBy(values, d), nil
}

// DivideBy returns a copy of values divided element-wise by d
func DivideBy(values []float64, d float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v / d
	}
	return out
}
