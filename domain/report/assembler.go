package report

import (
	"regexp"
	"strings"
	"time"

	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
)

// DefaultOrganizationName is stamped on every report unless configured otherwise
const DefaultOrganizationName = "CytoSight Medical Center"

// Document is the assembled report. Its JSON form is the downloadable file.
type Document struct {
	Title                   string                  `json:"title"`
	IncludeSummary          bool                    `json:"includeSummary"`
	IncludeDetailedResults  bool                    `json:"includeDetailedResults"`
	IncludeImages           bool                    `json:"includeImages"`
	IncludeStatistics       bool                    `json:"includeStatistics"`
	IncludeTechnicalDetails bool                    `json:"includeTechnicalDetails"`
	Format                  Format                  `json:"format"`
	SelectedUploads         []entities.UploadRecord `json:"selectedUploads"`
	DateRange               DateRange               `json:"dateRange"`
	Notes                   string                  `json:"notes"`
	Statistics              Statistics              `json:"statistics"`
	GeneratedBy             string                  `json:"generatedBy"`
	GeneratedAt             string                  `json:"generatedAt"`
	OrganizationName        string                  `json:"organizationName"`
}

// Assembler builds report documents. It performs no I/O.
type Assembler struct {
	organization string
}

// NewAssembler creates an assembler stamping the given organization name
func NewAssembler(organization string) *Assembler {
	if strings.TrimSpace(organization) == "" {
		organization = DefaultOrganizationName
	}
	return &Assembler{organization: organization}
}

// Assemble combines the config, the selected records and their statistics.
// An empty selection still yields a well-formed document.
func (a *Assembler) Assemble(cfg Config, selected []entities.UploadRecord, stats Statistics, author string, now time.Time) Document {
	records := make([]entities.UploadRecord, len(selected))
	copy(records, selected)

	format := cfg.Format
	if format == "" {
		format = FormatJSON
	}

	return Document{
		Title:                   cfg.Title,
		IncludeSummary:          cfg.IncludeSummary,
		IncludeDetailedResults:  cfg.IncludeDetailedResults,
		IncludeImages:           cfg.IncludeImages,
		IncludeStatistics:       cfg.IncludeStatistics,
		IncludeTechnicalDetails: cfg.IncludeTechnicalDetails,
		Format:                  format,
		SelectedUploads:         records,
		DateRange:               cfg.DateRange,
		Notes:                   cfg.Notes,
		Statistics:              stats,
		GeneratedBy:             author,
		GeneratedAt:             now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		OrganizationName:        a.organization,
	}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Filename is {title with whitespace runs replaced by "_"}_{YYYY-MM-DD}.{ext}
func Filename(title string, generatedAt time.Time, ext string) string {
	return whitespaceRun.ReplaceAllString(title, "_") + "_" + generatedAt.UTC().Format("2006-01-02") + "." + ext
}
