package analytic

import (
	"fmt"
	"sort"

	"simflow/domain/core"
	"simflow/domain/model"
)

const beamDomain = "Beam"

type constructor func(loadCase string) (*model.IntegratedModel, error)

var catalog = map[string]map[string]constructor{
	"BendingTestAnalytical": {
		"Cantilever": func(loadCase string) (*model.IntegratedModel, error) {
			section, err := newSection()
			if err != nil {
				return nil, err
			}
			bending, err := newCantilever()
			if err != nil {
				return nil, err
			}
			return model.NewIntegratedModel(loadCase, []model.Discipline{section, bending},
				model.WithName("BendingTestAnalytical"),
				model.WithLoadCaseDomain(beamDomain),
				model.WithDefaults(BeamDefaults()),
				model.WithCurves(model.CurveSpec{X: VarImposedDplt, Y: VarReaction}),
			), nil
		},
	},
	"BendingTestFiniteDifference": {
		"Cantilever": func(loadCase string) (*model.IntegratedModel, error) {
			section, err := newSection()
			if err != nil {
				return nil, err
			}
			return model.NewIntegratedModel(loadCase, []model.Discipline{section, BeamFiniteDifference{}},
				model.WithName("BendingTestFiniteDifference"),
				model.WithLoadCaseDomain(beamDomain),
				model.WithDefaults(BeamDefaults()),
			), nil
		},
	},
}

// CreateModel builds a catalogued model for one of its load cases
func CreateModel(modelName, loadCase string) (*model.IntegratedModel, error) {
	cases, ok := catalog[modelName]
	if !ok {
		return nil, fmt.Errorf("%w: model %s", core.ErrNotFound, modelName)
	}
	build, ok := cases[loadCase]
	if !ok {
		return nil, fmt.Errorf("%w: load case %s of model %s", core.ErrNotFound, loadCase, modelName)
	}
	return build(loadCase)
}

// AvailableModels returns the catalogued model names, sorted
func AvailableModels() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AvailableLoadCases returns the load cases of a model, sorted
func AvailableLoadCases(modelName string) []string {
	var names []string
	for name := range catalog[modelName] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
