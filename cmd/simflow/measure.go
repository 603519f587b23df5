package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"simflow/adapters/excel"
	"simflow/app"
	"simflow/domain/core"
	"simflow/domain/curve"
)

func newMeasureCmd(opts *rootOptions) *cobra.Command {
	var s curve.Settings
	var dataFile, resultID, curveKey string

	cmd := &cobra.Command{
		Use:   "measure <measure-class>",
		Short: "Compute a direct measure on a curve",
		Long: `Compute a direct measure (` + strings.Join(curve.Names(), ", ") + `) on a curve read
from a data file (JSON object of columns, csv or xlsx) or from an archived result.

Example: simflow measure MaxStrength --data curve.csv --x-name imposed_dplt --y-name reaction_forces`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data map[string][]float64
			var err error
			switch {
			case dataFile != "":
				data, err = readColumns(dataFile)
			case resultID != "":
				data, err = archivedCurve(cmd.Context(), opts, resultID, curveKey, &s)
			default:
				err = fmt.Errorf("%w: --data or --result", core.ErrMissingInput)
			}
			if err != nil {
				return err
			}
			if s.MeasureName == "" {
				s.MeasureName = args[0]
			}

			c, err := opts.container(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer c.Shutdown()
			tool, err := c.Tools.Create(app.ToolDirectMeasure)
			if err != nil {
				return err
			}
			out, err := tool.Execute(cmd.Context(), map[string]any{
				"measure_class": args[0],
				"x_name":        s.XName,
				"y_name":        s.YName,
				"measure_name":  s.MeasureName,
				"data":          data,
			})
			if err != nil {
				return err
			}
			opts.console.values(out.(map[string]float64))
			return nil
		},
	}
	cmd.Flags().StringVar(&dataFile, "data", "", "JSON, csv or xlsx file holding the curve columns")
	cmd.Flags().StringVar(&resultID, "result", "", "archived result id")
	cmd.Flags().StringVar(&curveKey, "curve", "", "curve key of the archived result, Y_vs_X")
	cmd.Flags().StringVar(&s.XName, "x-name", "", "x variable")
	cmd.Flags().StringVar(&s.YName, "y-name", "", "y variable")
	cmd.Flags().StringVar(&s.MeasureName, "measure-name", "", "name of the computed scalar (default the measure class)")
	return cmd
}

// readColumns loads named columns from a JSON object, csv or xlsx file
func readColumns(path string) (map[string][]float64, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var data map[string][]float64
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		return data, nil
	}
	table, err := excel.NewDataReader(path).ReadTable()
	if err != nil {
		return nil, err
	}
	data := make(map[string][]float64, len(table.Names()))
	for _, name := range table.Names() {
		data[name], _ = table.Column(name)
	}
	return data, nil
}

// archivedCurve returns the columns of one curve of an archived result and
// defaults the settings to its variable names
func archivedCurve(ctx context.Context, opts *rootOptions, id, key string, s *curve.Settings) (map[string][]float64, error) {
	c, err := opts.container(ctx, true)
	if err != nil {
		return nil, err
	}
	defer c.Shutdown()

	result, err := c.Archive.Get(ctx, core.ResultID(id))
	if err != nil {
		return nil, err
	}
	cv, ok := result.Curves[key]
	if !ok {
		return nil, fmt.Errorf("%w: result %s has no curve %q", core.ErrNotFound, id, key)
	}
	if s.XName == "" {
		s.XName = cv.XName
	}
	if s.YName == "" {
		s.YName = cv.YName
	}
	return map[string][]float64{cv.XName: cv.X, cv.YName: cv.Y}, nil
}
