package entities

import (
	"encoding/json"

	"github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"
)

// AnalysisResult is the payload stored with a completed upload. Keys this
// type does not know about are kept and written back unchanged.
type AnalysisResult struct {
	CellCount       int
	CellTypes       []string
	ConfidenceScore float64
	Classification  *string
	Extra           map[string]json.RawMessage
}

var knownAnalysisKeys = []string{"cell_count", "cell_types", "confidence_score", "classification"}

// Verdict returns the classification, treating absence as Unknown.
func (a *AnalysisResult) Verdict() valueobjects.Classification {
	if a == nil || a.Classification == nil {
		return valueobjects.ClassificationUnknown
	}
	return valueobjects.ParseClassification(*a.Classification)
}

// MarshalJSON implements json.Marshaler
func (a AnalysisResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(a.Extra)+4)
	for k, v := range a.Extra {
		out[k] = v
	}
	out["cell_count"] = a.CellCount
	out["cell_types"] = a.CellTypes
	out["confidence_score"] = a.ConfidenceScore
	if a.Classification != nil {
		out["classification"] = *a.Classification
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler
func (a *AnalysisResult) UnmarshalJSON(data []byte) error {
	var known struct {
		CellCount       int      `json:"cell_count"`
		CellTypes       []string `json:"cell_types"`
		ConfidenceScore float64  `json:"confidence_score"`
		Classification  *string  `json:"classification"`
	}
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range knownAnalysisKeys {
		delete(raw, k)
	}
	if len(raw) == 0 {
		raw = nil
	}

	*a = AnalysisResult{
		CellCount:       known.CellCount,
		CellTypes:       known.CellTypes,
		ConfidenceScore: known.ConfidenceScore,
		Classification:  known.Classification,
		Extra:           raw,
	}
	return nil
}
