package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

func record(id, classification string, confidence float64, cells int) entities.UploadRecord {
	result := &entities.AnalysisResult{CellCount: cells, ConfidenceScore: confidence}
	if classification != "" {
		result.Classification = &classification
	}
	return entities.UploadRecord{
		ID:              id,
		Filename:        id + ".png",
		AnalysisResult:  result,
		CellCount:       cells,
		CellTypes:       []string{"Platelets"},
		ConfidenceScore: confidence,
		Status:          valueobjects.StatusCompleted,
		CreatedAt:       time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestComputeStatistics(t *testing.T) {
	tests := []struct {
		name    string
		records []entities.UploadRecord
		want    Statistics
	}{
		{
			name:    "empty selection",
			records: nil,
			want:    Statistics{},
		},
		{
			name: "one malignant one benign",
			records: []entities.UploadRecord{
				record("a", "malignant", 0.9, 100),
				record("b", "benign", 0.8, 50),
			},
			want: Statistics{TotalAnalyses: 2, MalignantCount: 1, BenignCount: 1, AvgConfidence: 85, TotalCells: 150},
		},
		{
			name: "unknown classification counts as benign",
			records: []entities.UploadRecord{
				record("a", "", 0.7, 10),
				record("b", "suspicious", 0.71, 20),
				record("c", "malignant", 0.72, 30),
			},
			want: Statistics{TotalAnalyses: 3, MalignantCount: 1, BenignCount: 2, AvgConfidence: 71, TotalCells: 60},
		},
		{
			name:    "half rounds up",
			records: []entities.UploadRecord{record("a", "", 0.125, 1), record("b", "", 0.125, 1)},
			want:    Statistics{TotalAnalyses: 2, BenignCount: 2, AvgConfidence: 13, TotalCells: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeStatistics(tt.records))
		})
	}
}

func TestAssemble_EmptySelection(t *testing.T) {
	a := NewAssembler("")
	now := time.Date(2024, 6, 2, 8, 30, 0, 0, time.UTC)

	doc := a.Assemble(DefaultConfig(), []entities.UploadRecord{}, Statistics{}, "Dr. Ada", now)

	assert.Equal(t, DefaultOrganizationName, doc.OrganizationName)
	assert.Equal(t, "2024-06-02T08:30:00.000Z", doc.GeneratedAt)
	assert.NotNil(t, doc.SelectedUploads)
	assert.Empty(t, doc.SelectedUploads)

	var buf bytes.Buffer
	require.NoError(t, jsonRenderer{}.Render(&buf, doc))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "Dr. Ada", decoded["generatedBy"])
	assert.Equal(t, []interface{}{}, decoded["selectedUploads"])
	assert.Equal(t, map[string]interface{}{
		"totalAnalyses": float64(0), "malignantCount": float64(0), "benignCount": float64(0),
		"avgConfidence": float64(0), "totalCells": float64(0),
	}, decoded["statistics"])
}

func TestAssemble_EmbedsInputs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Title = "Weekly"
	cfg.Notes = "n"
	cfg.DateRange = DateRange{Start: "2024-06-01", End: "2024-06-07"}
	records := []entities.UploadRecord{record("a", "malignant", 0.9, 100)}
	stats := ComputeStatistics(records)

	doc := NewAssembler("Lab 7").Assemble(cfg, records, stats, "a@x", time.Now())

	assert.Equal(t, "Weekly", doc.Title)
	assert.Equal(t, "Lab 7", doc.OrganizationName)
	assert.Equal(t, stats, doc.Statistics)
	assert.Equal(t, cfg.DateRange, doc.DateRange)
	require.Len(t, doc.SelectedUploads, 1)

	records[0].Filename = "changed"
	assert.Equal(t, "a.png", doc.SelectedUploads[0].Filename, "assembler copies its input")
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Title = "   "

	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, "Selection Required", pkgerrors.NotificationFor(err).Title, "selection is checked first")

	cfg.SelectedUploads = []string{"a"}
	err = cfg.Validate()
	assert.Equal(t, "Title Required", pkgerrors.NotificationFor(err).Title)

	cfg.Title = "Report"
	assert.NoError(t, cfg.Validate())
}

func TestConfig_ApplyTemplate(t *testing.T) {
	weekly, err := DefaultConfig().ApplyTemplate(TemplateWeeklySummary)
	require.NoError(t, err)
	assert.Equal(t, "Weekly Analysis Summary", weekly.Title)
	assert.False(t, weekly.IncludeDetailedResults)

	clinical, err := DefaultConfig().ApplyTemplate(TemplateClinicalReport)
	require.NoError(t, err)
	assert.True(t, clinical.IncludeImages)
	assert.True(t, clinical.IncludeTechnicalDetails)

	_, err = DefaultConfig().ApplyTemplate("monthly")
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestFilename(t *testing.T) {
	at := time.Date(2024, 6, 2, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "Weekly_Analysis_Summary_2024-06-02.json", Filename("Weekly  Analysis\tSummary", at, "json"))
	assert.Equal(t, "Q2_2024-06-02.html", Filename("Q2", at, "html"))
}

func TestRendererFor(t *testing.T) {
	r, err := RendererFor(FormatHTML)
	require.NoError(t, err)
	assert.Equal(t, "html", r.Extension())

	r, err = RendererFor(FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "application/json", r.ContentType())

	for _, f := range []Format{FormatPDF, FormatDOCX} {
		_, err := RendererFor(f)
		require.Error(t, err)
		assert.Equal(t, "Format Not Supported", pkgerrors.NotificationFor(err).Title)
	}
}

func TestHTMLRenderer_RespectsSections(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Title = "Clinical <Report>"
	cfg.IncludeTechnicalDetails = true
	cfg.IncludeStatistics = false
	records := []entities.UploadRecord{record("rec-1", "malignant", 0.93, 321)}
	doc := NewAssembler("").Assemble(cfg, records, ComputeStatistics(records), "Dr. Ada", time.Now())

	var buf bytes.Buffer
	require.NoError(t, htmlRenderer{}.Render(&buf, doc))
	out := buf.String()

	assert.Contains(t, out, "Clinical &lt;Report&gt;")
	assert.Contains(t, out, "Detailed Results")
	assert.Contains(t, out, "rec-1")
	assert.Contains(t, out, "93.0%")
	assert.Contains(t, out, `class="malignant"`)
	assert.NotContains(t, out, "<h2>Statistics</h2>")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" HTML ")
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}
