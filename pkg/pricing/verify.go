package pricing

import "math"

// DefaultDiscrepancyThreshold is the relative price difference, in percent,
// above which Verify reports a discrepancy.
const DefaultDiscrepancyThreshold = 1.0

// Discrepancy is a price mismatch between two tables for one model.
type Discrepancy struct {
	Model string `json:"model"`

	ReferenceInput  float64 `json:"reference_input_per_1k"`
	CandidateInput  float64 `json:"candidate_input_per_1k"`
	InputDiffPct    float64 `json:"input_diff_pct"`
	ReferenceOutput float64 `json:"reference_output_per_1k"`
	CandidateOutput float64 `json:"candidate_output_per_1k"`
	OutputDiffPct   float64 `json:"output_diff_pct"`
}

// VerifyReport compares two tables by model name.
type VerifyReport struct {
	ReferenceModels int `json:"reference_models"`
	CandidateModels int `json:"candidate_models"`

	// MissingInCandidate lists models only the reference has.
	MissingInCandidate []string `json:"missing_in_candidate,omitempty"`

	// MissingInReference lists models only the candidate has.
	MissingInReference []string `json:"missing_in_reference,omitempty"`

	Discrepancies []Discrepancy `json:"discrepancies,omitempty"`
}

// OK reports whether the tables agree.
func (r VerifyReport) OK() bool {
	return len(r.MissingInCandidate) == 0 && len(r.MissingInReference) == 0 && len(r.Discrepancies) == 0
}

// Verify compares candidate against reference using
// DefaultDiscrepancyThreshold.
func Verify(reference, candidate *Table) VerifyReport {
	return VerifyWithThreshold(reference, candidate, DefaultDiscrepancyThreshold)
}

// VerifyWithThreshold compares candidate against reference. Models are matched
// by name; for models with several versions the first declared entry is
// compared. A price pair is a discrepancy when it differs by more than
// thresholdPct percent of the reference price. A non-positive threshold means
// DefaultDiscrepancyThreshold.
func VerifyWithThreshold(reference, candidate *Table, thresholdPct float64) VerifyReport {
	if thresholdPct <= 0 {
		thresholdPct = DefaultDiscrepancyThreshold
	}

	refFirst := firstByModel(reference)
	candFirst := firstByModel(candidate)

	report := VerifyReport{
		ReferenceModels: len(refFirst),
		CandidateModels: len(candFirst),
	}

	for _, model := range reference.Models() {
		if _, ok := candFirst[model]; !ok {
			report.MissingInCandidate = append(report.MissingInCandidate, model)
		}
	}
	for _, model := range candidate.Models() {
		if _, ok := refFirst[model]; !ok {
			report.MissingInReference = append(report.MissingInReference, model)
		}
	}

	for _, model := range reference.Models() {
		cand, ok := candFirst[model]
		if !ok {
			continue
		}
		ref := refFirst[model]

		inDiff := diffPct(ref.InputCostPer1K, cand.InputCostPer1K)
		outDiff := diffPct(ref.OutputCostPer1K, cand.OutputCostPer1K)
		if inDiff > thresholdPct || outDiff > thresholdPct {
			report.Discrepancies = append(report.Discrepancies, Discrepancy{
				Model:           model,
				ReferenceInput:  ref.InputCostPer1K,
				CandidateInput:  cand.InputCostPer1K,
				InputDiffPct:    inDiff,
				ReferenceOutput: ref.OutputCostPer1K,
				CandidateOutput: cand.OutputCostPer1K,
				OutputDiffPct:   outDiff,
			})
		}
	}

	return report
}

func firstByModel(t *Table) map[string]PriceEntry {
	out := make(map[string]PriceEntry)
	for _, e := range t.entries {
		if _, ok := out[e.Model]; !ok {
			out[e.Model] = e
		}
	}
	return out
}

func diffPct(ref, cand float64) float64 {
	return math.Abs(ref-cand) / math.Max(ref, 1e-7) * 100
}
