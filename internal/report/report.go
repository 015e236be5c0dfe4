// Package report renders an experiment readout as markdown and HTML for
// the service layer. It formats already-computed results; no statistics
// happen here.
package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"abx/domain/experiment"
)

// Readout collects the pieces of one experiment analysis for rendering.
// Nil sections are omitted.
type Readout struct {
	Experiment string
	Effect     *experiment.EstimationResult
	SRM        *experiment.SRMResult
	Theta      *float64
}

// Markdown renders the readout as a markdown document.
func Markdown(r Readout) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Experiment readout: %s\n\n", r.Experiment)

	if r.Effect != nil {
		fmt.Fprintf(&b, "## Treatment effect\n\n")
		fmt.Fprintf(&b, "- Estimate: **%.6g** (SE %.6g)\n", r.Effect.Estimate, r.Effect.StdErr)
		fmt.Fprintf(&b, "- %.0f%% CI: [%.6g, %.6g]\n", r.Effect.Confidence*100, r.Effect.Lower, r.Effect.Upper)
		fmt.Fprintf(&b, "- Sample sizes: %d vs %d\n\n", r.Effect.NA, r.Effect.NB)
	}
	if r.Theta != nil {
		fmt.Fprintf(&b, "## Covariate adjustment\n\n")
		fmt.Fprintf(&b, "- CUPED theta: %.6g\n\n", *r.Theta)
	}
	if r.SRM != nil {
		fmt.Fprintf(&b, "## Sample ratio check\n\n")
		fmt.Fprintf(&b, "- Chi-square: %.4f (df %d), p = %.4g\n", r.SRM.Statistic, r.SRM.DF, r.SRM.PValue)
		if r.SRM.PValue < 0.001 {
			fmt.Fprintf(&b, "- **Sample ratio mismatch detected — do not trust the effect estimate.**\n")
		} else {
			fmt.Fprintf(&b, "- Allocation consistent with the intended split.\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// HTML renders the readout's markdown to HTML.
func HTML(r Readout) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(Markdown(r)), p, renderer)
}
