package report

import (
	"math"

	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"
)

// Statistics are the aggregates shown in a report
type Statistics struct {
	TotalAnalyses  int `json:"totalAnalyses"`
	MalignantCount int `json:"malignantCount"`
	BenignCount    int `json:"benignCount"`
	AvgConfidence  int `json:"avgConfidence"`
	TotalCells     int `json:"totalCells"`
}

// ComputeStatistics aggregates the selected records. Anything that is not
// malignant counts as benign, and the average confidence is a rounded
// percentage.
func ComputeStatistics(records []entities.UploadRecord) Statistics {
	stats := Statistics{TotalAnalyses: len(records)}
	if len(records) == 0 {
		return stats
	}

	var confidenceSum float64
	for i := range records {
		if records[i].Classification() == valueobjects.ClassificationMalignant {
			stats.MalignantCount++
		}
		confidenceSum += records[i].ConfidenceScore
		stats.TotalCells += records[i].CellCount
	}

	stats.BenignCount = stats.TotalAnalyses - stats.MalignantCount
	stats.AvgConfidence = roundHalfUp(confidenceSum / float64(len(records)) * 100)
	return stats
}

// roundHalfUp rounds .5 towards +Inf, matching Math.round for the
// non-negative values seen here.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
