package analytic

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simflow/domain/core"
	"simflow/domain/model"
)

func TestAnalyticDisciplineTransform(t *testing.T) {
	d, err := New("input_transform", map[string]string{"length": "lengthOverWidth*width"})
	require.NoError(t, err)
	assert.Equal(t, []string{"lengthOverWidth", "width"}, d.InputNames())
	assert.Equal(t, []string{"length"}, d.OutputNames())

	out, err := d.Execute(context.Background(), model.Data{"lengthOverWidth": {2}, "width": {10}})
	require.NoError(t, err)
	assert.Equal(t, []float64{20}, out["length"])
}

func TestAnalyticDisciplineBroadcast(t *testing.T) {
	d, err := New("ramp", map[string]string{"f": "fraction*force"})
	require.NoError(t, err)

	out, err := d.Execute(context.Background(), model.Data{"fraction": {0.5, 1, 2}, "force": {10}})
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 10, 20}, out["f"])

	_, err = d.Execute(context.Background(), model.Data{"fraction": {1, 2}, "force": {1, 2, 3}})
	assert.True(t, errors.Is(err, core.ErrSizeMismatch))

	_, err = d.Execute(context.Background(), model.Data{"fraction": {1}})
	assert.True(t, errors.Is(err, core.ErrMissingInput))
}

func TestAnalyticDisciplineFunctions(t *testing.T) {
	d, err := New("f", map[string]string{"y": "pow(x, 3) + abs(z) + max(x, z)"})
	require.NoError(t, err)
	out, err := d.Execute(context.Background(), model.Data{"x": {2}, "z": {-1}})
	require.NoError(t, err)
	assert.InDelta(t, 11.0, out["y"][0], 1e-12)
}

func TestAnalyticDisciplineParseError(t *testing.T) {
	_, err := New("bad", map[string]string{"y": "x *"})
	assert.Error(t, err)
}

func TestBendingTestAnalytical(t *testing.T) {
	m, err := CreateModel("BendingTestAnalytical", "Cantilever")
	require.NoError(t, err)
	assert.Equal(t, "Beam", m.LoadCaseDomain())

	out, err := m.Execute(context.Background(), model.Data{})
	require.NoError(t, err)

	inertia := 40.0 * 125 / 12
	want := CantileverDeflection(100, 600, 210000, inertia)
	assert.InDelta(t, want, out[VarDplt][0], 1e-9*want)
	assert.Len(t, out[VarImposedDplt], 10)
	assert.InDelta(t, want, out[VarImposedDplt][9], 1e-9*want)
	assert.InDelta(t, 100, out[VarReaction][9], 1e-12)
}

func TestBeamFiniteDifferenceConvergesWithOrderTwo(t *testing.T) {
	m, err := CreateModel("BendingTestFiniteDifference", "Cantilever")
	require.NoError(t, err)

	inertia := 40.0 * 125 / 12
	exact := CantileverDeflection(100, 600, 210000, inertia)

	var errs []float64
	for _, h := range []float64{100, 50, 25} {
		out, err := m.Execute(context.Background(), model.Data{VarElementSize: {h}})
		require.NoError(t, err)
		require.Equal(t, []float64{model.ErrorCodeSuccess}, out[model.ErrorCodeOutput])
		errs = append(errs, math.Abs(out[VarDplt][0]-exact))
	}
	assert.InDelta(t, 2.0, math.Log2(errs[0]/errs[1]), 0.05)
	assert.InDelta(t, 2.0, math.Log2(errs[1]/errs[2]), 0.05)
}

func TestCatalog(t *testing.T) {
	assert.Equal(t, []string{"BendingTestAnalytical", "BendingTestFiniteDifference"}, AvailableModels())
	assert.Equal(t, []string{"Cantilever"}, AvailableLoadCases("BendingTestAnalytical"))
	assert.Empty(t, AvailableLoadCases("Unknown"))

	_, err := CreateModel("BendingTestAnalytical", "Tension")
	assert.True(t, core.IsNotFoundError(err))
}
