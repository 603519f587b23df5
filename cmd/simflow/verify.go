package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"simflow/adapters/excel"
	adapterfigure "simflow/adapters/figure"
	"simflow/app"
	"simflow/domain/verification"
	"simflow/internal/report"
	"simflow/internal/scratch"
	"simflow/internal/settings"
)

func newVerifyCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Solution verification: extrapolation and case analysis",
	}
	cmd.AddCommand(newExtrapolateCmd(opts), newCaseCmd(opts))
	return cmd
}

func newExtrapolateCmd(opts *rootOptions) *cobra.Command {
	var output string
	var noArchive bool

	cmd := &cobra.Command{
		Use:   "extrapolate <settings.yaml>",
		Short: "Run a model on refined meshes and extrapolate an output to zero element size",
		Long: `Run the model of the settings once per element size, fit q(h) = q0 + C h^p
and cross-validate the extrapolation. The verification result is written as
a JSON list that 'simflow verify case' reads.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var doc map[string]any
			if err := settings.Load(args[0], settings.VerificationSettings, &doc); err != nil {
				return err
			}
			if output == "" {
				output, _ = doc["output_file"].(string)
			}
			return runExtrapolation(cmd.Context(), opts, doc, output, !noArchive)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "JSON file receiving the verification result (default stdout)")
	cmd.Flags().BoolVar(&noArchive, "no-archive", false, "do not archive the individual runs")
	return cmd
}

func runExtrapolation(ctx context.Context, opts *rootOptions, doc map[string]any, output string, archived bool) error {
	c, err := opts.container(ctx, archived)
	if err != nil {
		return err
	}
	defer c.Shutdown()

	tool, err := c.Tools.Create(app.ToolSolutionVerification)
	if err != nil {
		return err
	}
	out, err := tool.Execute(ctx, doc)
	if err != nil {
		return err
	}
	result := out.(*verification.VerificationResult)

	data, err := json.MarshalIndent([]verification.VerificationResult{*result}, "", "  ")
	if err != nil {
		return err
	}
	if output == "" {
		_, err = opts.console.w.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	opts.console.success("Verification result written to %s", output)
	opts.console.line("  extrapolated value %v, observed order %v",
		result.Metadata.Misc["extrapolated_value"], result.Metadata.Misc["observed_order"])
	return nil
}

// caseSettings is the document read by `simflow verify case`
type caseSettings struct {
	ResultsFiles     []string        `yaml:"results_files"`
	WorkingDirectory string          `yaml:"working_directory"`
	Plot             app.PlotOptions `yaml:"plot"`
	Export           string          `yaml:"export"`
	Report           bool            `yaml:"report"`
}

// caseOutcome summarises one analysed case for the console
type caseOutcome struct {
	file         string
	trajectories int
	figures      []string
	report       string
	export       string
	summaries    []report.TrajectorySummary
}

func newCaseCmd(opts *rootOptions) *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "case <case.yaml>...",
		Short: "Aggregate verification results and plot their convergence",
		Long: `Aggregate the verification results listed by each case file into one
convergence table, then render the convergence and CPU time compromise
figures, the report and the table export the case asks for. Case files are
analysed concurrently.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outcomes := make([]*caseOutcome, len(args))
			g := new(errgroup.Group)
			g.SetLimit(opts.cfg.MaxWorkers)
			for i, file := range args {
				i, file := i, file
				g.Go(func() error {
					outcome, err := analyseCase(opts, file, show)
					if err != nil {
						return fmt.Errorf("%s: %w", file, err)
					}
					outcomes[i] = outcome
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			for _, o := range outcomes {
				printOutcome(opts.console, o)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&show, "show", false, "open the figures in a browser")
	return cmd
}

// analyseCase runs one case file. Relative paths are resolved against the
// directory of the case file.
func analyseCase(opts *rootOptions, file string, show bool) (*caseOutcome, error) {
	var s caseSettings
	if err := settings.Load(file, settings.CaseSettings, &s); err != nil {
		return nil, err
	}
	base := filepath.Dir(file)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	var results []verification.VerificationResult
	for _, name := range s.ResultsFiles {
		f, err := os.Open(resolve(name))
		if err != nil {
			return nil, fmt.Errorf("failed to open results: %w", err)
		}
		batch, err := verification.ReadResults(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		results = append(results, batch...)
	}

	workDir, err := caseDirectory(opts, resolve(s.WorkingDirectory))
	if err != nil {
		return nil, err
	}
	s.Plot.Directory = resolve(s.Plot.Directory)
	s.Plot.Show = s.Plot.Show || show

	vc := app.NewSolutionVerificationCase(workDir, adapterfigure.BrowserViewer{}, opts.logger)
	result, err := vc.Execute(results)
	if err != nil {
		return nil, err
	}
	outcome := &caseOutcome{file: file}
	if outcome.trajectories, err = result.TrajectoryCount(); err != nil {
		return nil, err
	}

	figures, err := vc.PlotResults(result, s.Plot)
	if err != nil {
		return nil, err
	}
	if s.Plot.Save {
		format := s.Plot.FileFormat
		if format == "" {
			format = adapterfigure.FormatHTML
		}
		for _, key := range sortedKeys(figures) {
			outcome.figures = append(outcome.figures, figures[key].FileName(format))
		}
	}

	if outcome.summaries, err = report.Summarize(result, s.Plot.OutputName); err != nil {
		return nil, err
	}
	if s.Report {
		if outcome.report, err = report.Write(workDir, result, outcome.summaries, outcome.figures); err != nil {
			return nil, err
		}
	}
	if s.Export != "" {
		outcome.export = resolve(s.Export)
		if err := excel.WriteTable(outcome.export, result.ConvergenceData); err != nil {
			return nil, err
		}
	}
	return outcome, nil
}

// caseDirectory returns the configured working directory of a case, or a
// fresh numbered directory under {WORKING_DIRECTORY}/verification_case so
// that cases analysed together never share output files
func caseDirectory(opts *rootOptions, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	sc, err := scratch.New(scratch.Settings{
		Root:        opts.cfg.WorkingDirectory,
		Persistency: scratch.Keep,
		Naming:      scratch.Numbered,
	}, "verification_case", "")
	if err != nil {
		return "", err
	}
	return sc.CreateJobDirectory()
}

func printOutcome(c *console, o *caseOutcome) {
	c.header("%s: %d trajectories", o.file, o.trajectories)
	for _, s := range o.summaries {
		c.line("  trajectory %d: finest %g, folds %g ± %g", s.Index, s.FinestValue, s.FoldMean, s.FoldStdDev)
	}
	for _, f := range o.figures {
		c.success("  figure %s", f)
	}
	if o.report != "" {
		c.success("  report %s", o.report)
	}
	if o.export != "" {
		c.success("  table %s", o.export)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
