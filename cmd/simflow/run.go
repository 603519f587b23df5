package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"simflow/adapters/analytic"
	"simflow/app"
	"simflow/domain/core"
	"simflow/domain/model"
	"simflow/domain/run"
	"simflow/internal/scratch"
	"simflow/internal/settings"
)

// runSettings is the document read by `simflow run --settings`
type runSettings struct {
	Model      string               `yaml:"model"`
	LoadCase   string               `yaml:"load_case"`
	Experiment string               `yaml:"experiment"`
	Inputs     model.Data           `yaml:"inputs"`
	Sweep      map[string][]float64 `yaml:"sweep"`
	Scratch    *scratch.Settings    `yaml:"scratch"`
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var settingsFile string
	var inputs, sweep []string
	s := runSettings{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a model over an input sweep and archive the results",
		Long: `Execute a model once per combination of the swept inputs. Every run gets
its own scratch job directory and its result is archived.

Example: simflow run --model BendingTestFiniteDifference --load-case Cantilever \
    --input force=100 --sweep element_size=50,25,12.5 --experiment mesh`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if settingsFile != "" {
				if err := settings.Load(settingsFile, settings.RunSettings, &s); err != nil {
					return err
				}
			}
			if s.Inputs == nil {
				s.Inputs = model.Data{}
			}
			if err := parseAssignments(inputs, s.Inputs); err != nil {
				return err
			}
			if s.Sweep == nil {
				s.Sweep = map[string][]float64{}
			}
			if err := parseAssignments(sweep, s.Sweep); err != nil {
				return err
			}
			return runSweep(cmd.Context(), opts, s)
		},
	}

	cmd.Flags().StringVar(&settingsFile, "settings", "", "YAML run settings")
	cmd.Flags().StringVar(&s.Model, "model", "", "model name ("+strings.Join(analytic.AvailableModels(), ", ")+")")
	cmd.Flags().StringVar(&s.LoadCase, "load-case", "Cantilever", "load case")
	cmd.Flags().StringVar(&s.Experiment, "experiment", "default", "experiment the results are archived under")
	cmd.Flags().StringArrayVar(&inputs, "input", nil, "input value, name=v1[,v2...]")
	cmd.Flags().StringArrayVar(&sweep, "sweep", nil, "swept input, name=v1,v2,...")
	return cmd
}

func runSweep(ctx context.Context, opts *rootOptions, s runSettings) error {
	m, err := analytic.CreateModel(s.Model, s.LoadCase)
	if err != nil {
		return err
	}
	scratchSettings, err := opts.scratchSettings()
	if err != nil {
		return err
	}
	if s.Scratch != nil {
		scratchSettings = mergeScratch(scratchSettings, *s.Scratch)
	}

	c, err := opts.container(ctx, true)
	if err != nil {
		return err
	}
	defer c.Shutdown()

	runner := app.NewModelRunner(c.Archive, scratchSettings, opts.logger)
	combinations := expandSweep(s.Inputs, s.Sweep)
	results := make([]*run.Result, len(combinations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.cfg.MaxWorkers)
	for i, in := range combinations {
		i, in := i, in
		g.Go(func() error {
			r, _, err := runner.Run(gctx, m, core.Experiment(s.Experiment), in)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	opts.console.header("%s / %s: %d runs archived in experiment %s", m.Name(), m.LoadCase(), len(results), s.Experiment)
	failed := 0
	for _, r := range results {
		if !r.Succeeded() {
			failed++
			opts.console.failure("%s failed (error code %d)", r.ID, r.ErrorCode)
			continue
		}
		opts.console.success("%s  cpu %.3gs", r.ID, r.CPUTime)
		opts.console.values(r.Scalars)
	}
	if failed > 0 {
		opts.console.warn("%d of %d runs failed", failed, len(results))
	}
	return nil
}

// mergeScratch overlays the non-empty fields of override
func mergeScratch(base, override scratch.Settings) scratch.Settings {
	if override.Root != "" {
		base.Root = override.Root
	}
	if override.JobName != "" {
		base.JobName = override.JobName
	}
	if override.Persistency != "" {
		base.Persistency = override.Persistency
	}
	if override.Naming != "" {
		base.Naming = override.Naming
	}
	return base
}

// parseAssignments reads name=v1,v2 flags into out
func parseAssignments(flags []string, out map[string][]float64) error {
	for _, flag := range flags {
		name, raw, ok := strings.Cut(flag, "=")
		if !ok || name == "" {
			return fmt.Errorf("%w: expected name=values, got %q", core.ErrMissingInput, flag)
		}
		var values []float64
		for _, item := range strings.Split(raw, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(item), 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			values = append(values, v)
		}
		out[name] = values
	}
	return nil
}

// expandSweep returns one input set per combination of the swept values,
// the first swept name (in name order) varying slowest
func expandSweep(base model.Data, sweep map[string][]float64) []model.Data {
	names := make([]string, 0, len(sweep))
	for name := range sweep {
		names = append(names, name)
	}
	sort.Strings(names)

	combinations := []model.Data{base.Copy()}
	for _, name := range names {
		var next []model.Data
		for _, c := range combinations {
			for _, v := range sweep[name] {
				in := c.Copy()
				in[name] = []float64{v}
				next = append(next, in)
			}
		}
		combinations = next
	}
	return combinations
}
