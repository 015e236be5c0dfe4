package api

import (
	"abx/domain/core"
	"abx/domain/experiment"
)

// DatasetPayload is the wire form of an experiment dataset. Optional
// columns are omitted or null; a null in Baseline marks a missing value.
type DatasetPayload struct {
	Units    []string   `json:"units" binding:"required"`
	Groups   []string   `json:"groups" binding:"required"`
	Metric   []float64  `json:"metric" binding:"required"`
	Exposed  []bool     `json:"exposed,omitempty"`
	Baseline []*float64 `json:"baseline,omitempty"`
}

// Dataset converts the payload into a validated domain dataset.
func (p *DatasetPayload) Dataset() (*experiment.Dataset, error) {
	cols := experiment.Columns{
		Metric:  p.Metric,
		Exposed: p.Exposed,
	}
	for _, u := range p.Units {
		cols.Units = append(cols.Units, core.UnitID(u))
	}
	for _, g := range p.Groups {
		cols.Groups = append(cols.Groups, experiment.Group(g))
	}
	if p.Baseline != nil {
		cols.Baseline = make([]float64, len(p.Baseline))
		for i, v := range p.Baseline {
			if v == nil {
				cols.Baseline[i] = nan
				continue
			}
			cols.Baseline[i] = *v
		}
	}
	return experiment.New(cols)
}

// DiffRequest asks for a Welch difference-in-means interval.
type DiffRequest struct {
	ExperimentID string    `json:"experiment_id"`
	Metric       string    `json:"metric"`
	GroupA       []float64 `json:"group_a" binding:"required"`
	GroupB       []float64 `json:"group_b" binding:"required"`
	Confidence   float64   `json:"confidence"`
}

// RatioRequest asks for a delta-method ratio-of-means interval.
type RatioRequest struct {
	ExperimentID string    `json:"experiment_id"`
	Metric       string    `json:"metric"`
	NumA         []float64 `json:"num_a" binding:"required"`
	DenA         []float64 `json:"den_a" binding:"required"`
	NumB         []float64 `json:"num_b" binding:"required"`
	DenB         []float64 `json:"den_b" binding:"required"`
	Confidence   float64   `json:"confidence"`
}

// CupedRequest asks for a CUPED adjustment of a dataset. When Covariate is
// omitted the dataset's baseline column is used.
type CupedRequest struct {
	Dataset   DatasetPayload `json:"dataset" binding:"required"`
	Covariate []*float64     `json:"covariate,omitempty"`
}

// CupedResponse reports the fitted coefficient, the adjusted metric column
// and any units excluded from estimation.
type CupedResponse struct {
	Theta          float64   `json:"theta"`
	AdjustedMetric []float64 `json:"adjusted_metric"`
	DroppedUnits   []string  `json:"dropped_units,omitempty"`
}

// SRMRequest asks for a sample-ratio-mismatch test.
type SRMRequest struct {
	ExperimentID string    `json:"experiment_id"`
	Observed     []int64   `json:"observed" binding:"required"`
	Expected     []float64 `json:"expected" binding:"required"`
}

// SequentialRequest asks for an anytime-valid Bernoulli interval.
type SequentialRequest struct {
	ExperimentID string  `json:"experiment_id"`
	Metric       string  `json:"metric"`
	Successes    int64   `json:"successes"`
	Trials       int64   `json:"trials" binding:"required"`
	Alpha        float64 `json:"alpha" binding:"required"`
}

// SequentialDiffRequest asks for an anytime-valid interval on the
// difference of two Bernoulli rates.
type SequentialDiffRequest struct {
	ExperimentID       string  `json:"experiment_id"`
	Metric             string  `json:"metric"`
	SuccessesControl   int64   `json:"successes_control"`
	TrialsControl      int64   `json:"trials_control" binding:"required"`
	SuccessesTreatment int64   `json:"successes_treatment"`
	TrialsTreatment    int64   `json:"trials_treatment" binding:"required"`
	Alpha              float64 `json:"alpha" binding:"required"`
}

// ReportRequest asks for a rendered experiment readout.
type ReportRequest struct {
	ExperimentID string                       `json:"experiment_id" binding:"required"`
	Effect       *experiment.EstimationResult `json:"effect,omitempty"`
	SRM          *experiment.SRMResult        `json:"srm,omitempty"`
	Theta        *float64                     `json:"theta,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
