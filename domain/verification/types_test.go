package verification

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultJSON = `[
  {
    "metadata": {
      "settings": {"output_name": "y", "reference": 6},
      "misc": {"element_size_variable_name": "h"}
    },
    "simulation_and_reference": {
      "columns": [
        {"name": "h", "values": [1.0, 0.5, 0.25]},
        {"name": "y", "values": [10, 8, [7]]}
      ]
    },
    "cross_validation": {
      "2": {"q_extrap": 6.2},
      "0": {"q_extrap": [6.0]},
      "1": {"q_extrap": 6.1}
    }
  }
]`

func TestReadResults(t *testing.T) {
	results, err := ReadResults(strings.NewReader(resultJSON))
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "h", r.Metadata.ElementSizeVariableName())
	assert.Equal(t, "y", r.Metadata.OutputName())
	assert.Equal(t, []string{"h", "y"}, r.SimulationAndReference.VariableNames())
	assert.Equal(t, 3, r.SimulationAndReference.Len())

	y, ok := r.SimulationAndReference.Variable("y")
	require.True(t, ok)
	assert.Equal(t, []float64{10, 8, 7}, y.Flatten())

	// folds keep document order, not key order
	require.Len(t, r.CrossValidation, 3)
	assert.Equal(t, "2", r.CrossValidation[0].Name)
	assert.Equal(t, []float64{6.2, 6.0, 6.1}, r.CrossValidation.Extrapolated())
}

func TestFoldsRoundTrip(t *testing.T) {
	folds := Folds{{Name: "b", QExtrap: Sample{1.5}}, {Name: "a", QExtrap: Sample{2, 3}}}

	data, err := json.Marshal(folds)
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":{"q_extrap":1.5},"a":{"q_extrap":[2,3]}}`, string(data))
	assert.True(t, strings.Index(string(data), `"b"`) < strings.Index(string(data), `"a"`))
}

func TestFoldWithoutExtrapolationIsRejected(t *testing.T) {
	var folds Folds
	err := json.Unmarshal([]byte(`{"0": {}}`), &folds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no q_extrap")
}

func TestSampleRejectsStrings(t *testing.T) {
	var s Sample
	assert.Error(t, json.Unmarshal([]byte(`"7"`), &s))
}

func TestMultiComponentFlatten(t *testing.T) {
	v := Variable{Name: "u", Samples: []Sample{{1, 2}, {3, 4}}}
	assert.Equal(t, []float64{1, 2, 3, 4}, v.Flatten())
}

func TestNewDataset(t *testing.T) {
	ds := NewDataset([]string{"h", "y"}, map[string][]float64{"h": {1, 0.5}, "y": {3, 2}})
	assert.Equal(t, []string{"h", "y"}, ds.VariableNames())
	assert.Equal(t, 2, ds.Len())
	_, ok := ds.Variable("z")
	assert.False(t, ok)
}
