package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"simflow/domain/verification"
)

// FileName is the name of the HTML report written in the working directory
const FileName = "verification_case_report.html"

// Markdown renders the case metadata, summaries and figure links
func Markdown(result *verification.SolutionVerificationCaseResult, summaries []TrajectorySummary, figures []string) string {
	var b strings.Builder
	meta := result.Metadata
	fmt.Fprintf(&b, "# Solution verification case: %s\n\n", meta.OutputName)
	fmt.Fprintf(&b, "- Element size variable: `%s`\n", meta.ElementSizeVariableName)
	fmt.Fprintf(&b, "- Meshes per trajectory: %d\n", meta.NbMeshes)
	fmt.Fprintf(&b, "- Trajectories: %d\n", len(summaries))
	fmt.Fprintf(&b, "- Variables: %s\n\n", strings.Join(meta.VariableNames, ", "))

	b.WriteString("## Trajectories\n\n")
	b.WriteString("| Trajectory | Finest size | Finest value | Reference | Relative error | Fold mean | Fold std | Fold range |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|\n")
	for _, s := range summaries {
		fmt.Fprintf(&b, "| %d | %g | %g | %s | %s | %g | %.3g | [%g, %g] |\n",
			s.Index, s.FinestElementSize, s.FinestValue,
			optional(s.Reference, "%g"), optional(s.RelativeError*100, "%.3g%%"),
			s.FoldMean, s.FoldStdDev, s.FoldMin, s.FoldMax)
	}

	if len(figures) > 0 {
		b.WriteString("\n## Figures\n\n")
		for _, f := range figures {
			fmt.Fprintf(&b, "- [%s](%s)\n", filepath.Base(f), filepath.Base(f))
		}
	}
	return b.String()
}

func optional(v float64, format string) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf(format, v)
}

// HTML converts a markdown document into a complete HTML page
func HTML(md, title string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: title,
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML([]byte(md), p, renderer)
}

// Write renders the report of a case into dir and returns its path
func Write(dir string, result *verification.SolutionVerificationCaseResult, summaries []TrajectorySummary, figures []string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName)
	page := HTML(Markdown(result, summaries, figures), "Solution verification case")
	if err := os.WriteFile(path, page, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
