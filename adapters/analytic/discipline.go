// Package analytic provides disciplines whose outputs are closed-form
// expressions of their inputs, written in HCL expression syntax.
package analytic

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"simflow/domain/core"
	"simflow/domain/model"
)

// functions available inside expressions
var functions = map[string]function.Function{
	"abs":   stdlib.AbsoluteFunc,
	"ceil":  stdlib.CeilFunc,
	"floor": stdlib.FloorFunc,
	"log":   stdlib.LogFunc,
	"max":   stdlib.MaxFunc,
	"min":   stdlib.MinFunc,
	"pow":   stdlib.PowFunc,
}

// Discipline evaluates one expression per output. Inputs may be vectors: an
// output is evaluated element-wise, length-one inputs being broadcast.
type Discipline struct {
	name    string
	outputs []string
	exprs   map[string]hcl.Expression
	inputs  map[string][]string
}

// New parses the output expressions, e.g. {"length": "lengthOverWidth*width"}
func New(name string, expressions map[string]string) (*Discipline, error) {
	d := &Discipline{
		name:   name,
		exprs:  make(map[string]hcl.Expression, len(expressions)),
		inputs: make(map[string][]string, len(expressions)),
	}
	for output := range expressions {
		d.outputs = append(d.outputs, output)
	}
	sort.Strings(d.outputs)

	for _, output := range d.outputs {
		expr, diags := hclsyntax.ParseExpression([]byte(expressions[output]), output, hcl.Pos{Line: 1, Column: 1})
		if diags.HasErrors() {
			return nil, fmt.Errorf("discipline %s: invalid expression for %s: %s", name, output, diags.Error())
		}
		seen := map[string]bool{}
		for _, traversal := range expr.Variables() {
			root := traversal.RootName()
			if !seen[root] {
				seen[root] = true
				d.inputs[output] = append(d.inputs[output], root)
			}
		}
		sort.Strings(d.inputs[output])
		d.exprs[output] = expr
	}
	return d, nil
}

func (d *Discipline) Name() string { return d.name }

// InputNames returns every variable referenced by an expression
func (d *Discipline) InputNames() []string {
	seen := map[string]bool{}
	var names []string
	for _, output := range d.outputs {
		for _, in := range d.inputs[output] {
			if !seen[in] {
				seen[in] = true
				names = append(names, in)
			}
		}
	}
	sort.Strings(names)
	return names
}

func (d *Discipline) OutputNames() []string {
	return append([]string(nil), d.outputs...)
}

// Execute evaluates every output expression
func (d *Discipline) Execute(ctx context.Context, in model.Data) (model.Data, error) {
	out := model.Data{}
	for _, output := range d.outputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		values, err := d.evaluate(output, in)
		if err != nil {
			return nil, err
		}
		out[output] = values
	}
	return out, nil
}

func (d *Discipline) evaluate(output string, in model.Data) ([]float64, error) {
	n := 1
	for _, name := range d.inputs[output] {
		v, ok := in[name]
		if !ok || len(v) == 0 {
			return nil, fmt.Errorf("%w: %s needs %s", core.ErrMissingInput, output, name)
		}
		if len(v) > 1 {
			if n > 1 && len(v) != n {
				return nil, fmt.Errorf("%w: %s combines inputs of length %d and %d", core.ErrSizeMismatch, output, n, len(v))
			}
			n = len(v)
		}
	}

	values := make([]float64, n)
	for k := 0; k < n; k++ {
		vars := make(map[string]cty.Value, len(d.inputs[output]))
		for _, name := range d.inputs[output] {
			v := in[name]
			if len(v) == 1 {
				vars[name] = cty.NumberFloatVal(v[0])
			} else {
				vars[name] = cty.NumberFloatVal(v[k])
			}
		}
		evalCtx := &hcl.EvalContext{Variables: vars, Functions: functions}
		val, diags := d.exprs[output].Value(evalCtx)
		if diags.HasErrors() {
			return nil, fmt.Errorf("discipline %s: evaluating %s: %s", d.name, output, diags.Error())
		}
		if val.IsNull() || !val.IsKnown() || val.Type() != cty.Number {
			return nil, fmt.Errorf("discipline %s: %s must evaluate to a number, got %s", d.name, output, val.Type().FriendlyName())
		}
		f, _ := val.AsBigFloat().Float64()
		values[k] = f
	}
	return values, nil
}
