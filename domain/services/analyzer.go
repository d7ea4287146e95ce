package services

import (
	"math/rand/v2"

	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
)

// ImageAnalyzer turns a selected file into an analysis result
type ImageAnalyzer interface {
	Analyze(file entities.FileHandle) entities.AnalysisResult
}

const (
	minCellCount     = 50
	cellCountSpan    = 500 // yields 50..549
	minConfidence    = 0.7
	confidenceSpread = 0.3
)

// DetectedCellTypes is the fixed label set reported for every file
var DetectedCellTypes = []string{"Red Blood Cells", "White Blood Cells", "Platelets"}

// MockAnalyzer fabricates results. It never looks at the file contents and
// its output is not reproducible. It is placeholder logic, not a model.
type MockAnalyzer struct {
	intN    func(n int) int
	float64 func() float64
}

// NewMockAnalyzer uses the global math/rand/v2 source
func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{intN: rand.IntN, float64: rand.Float64}
}

// Analyze implements ImageAnalyzer
func (a *MockAnalyzer) Analyze(_ entities.FileHandle) entities.AnalysisResult {
	return entities.AnalysisResult{
		CellCount:       a.intN(cellCountSpan) + minCellCount,
		CellTypes:       append([]string(nil), DetectedCellTypes...),
		ConfidenceScore: a.float64()*confidenceSpread + minConfidence,
	}
}
