package report

import (
	"strings"
	"testing"

	"abx/domain/experiment"
)

func fullReadout() Readout {
	theta := 0.42
	return Readout{
		Experiment: "exp-123",
		Effect: &experiment.EstimationResult{
			Estimate:   0.5,
			StdErr:     0.1,
			Lower:      0.3,
			Upper:      0.7,
			Confidence: 0.95,
			NA:         500,
			NB:         500,
		},
		SRM: &experiment.SRMResult{
			Statistic: 0.2,
			PValue:    0.65,
			DF:        1,
		},
		Theta: &theta,
	}
}

func TestMarkdownSections(t *testing.T) {
	md := Markdown(fullReadout())
	for _, want := range []string{
		"# Experiment readout: exp-123",
		"## Treatment effect",
		"95% CI: [0.3, 0.7]",
		"500 vs 500",
		"## Covariate adjustment",
		"CUPED theta: 0.42",
		"## Sample ratio check",
		"Allocation consistent",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestMarkdownOmitsNilSections(t *testing.T) {
	md := Markdown(Readout{Experiment: "exp-1"})
	if strings.Contains(md, "Treatment effect") || strings.Contains(md, "Sample ratio") {
		t.Fatalf("nil sections must be omitted:\n%s", md)
	}
}

func TestMarkdownFlagsMismatch(t *testing.T) {
	r := fullReadout()
	r.SRM.PValue = 1e-6
	md := Markdown(r)
	if !strings.Contains(md, "Sample ratio mismatch detected") {
		t.Fatalf("decisive mismatch must carry a warning:\n%s", md)
	}
}

func TestHTMLRendering(t *testing.T) {
	out := string(HTML(fullReadout()))
	if !strings.Contains(out, "<h1") || !strings.Contains(out, "exp-123") {
		t.Fatalf("expected rendered headings, got:\n%s", out)
	}
	if !strings.Contains(out, "<li>") {
		t.Fatalf("expected rendered list items, got:\n%s", out)
	}
}
