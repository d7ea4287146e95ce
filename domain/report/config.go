package report

import (
	"fmt"
	"strings"

	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

// Format is the requested output format of a report
type Format string

const (
	FormatJSON Format = "json"
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// ParseFormat accepts any known format name, case-insensitively. Whether the
// format can actually be rendered is decided by RendererFor.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatHTML, FormatPDF, FormatDOCX:
		return f, nil
	case "":
		return FormatJSON, nil
	default:
		return "", pkgerrors.NewValidationError(fmt.Sprintf("unknown report format %q", s))
	}
}

// DateRange is the optional period a report covers. Dates are kept as the
// user entered them (YYYY-MM-DD or empty).
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Config describes what a report should contain. It has no identity and is
// never persisted.
type Config struct {
	Title                   string    `json:"title"`
	IncludeSummary          bool      `json:"includeSummary"`
	IncludeDetailedResults  bool      `json:"includeDetailedResults"`
	IncludeImages           bool      `json:"includeImages"`
	IncludeStatistics       bool      `json:"includeStatistics"`
	IncludeTechnicalDetails bool      `json:"includeTechnicalDetails"`
	Format                  Format    `json:"format"`
	SelectedUploads         []string  `json:"selectedUploads"`
	DateRange               DateRange `json:"dateRange"`
	Notes                   string    `json:"notes"`
}

// DefaultConfig matches the report form's initial state
func DefaultConfig() Config {
	return Config{
		IncludeSummary:         true,
		IncludeDetailedResults: true,
		IncludeStatistics:      true,
		Format:                 FormatJSON,
		SelectedUploads:        []string{},
	}
}

// Validate checks the selection first and the title second, the same order
// the report form reports them in.
func (c Config) Validate() error {
	if len(c.SelectedUploads) == 0 {
		return pkgerrors.NewValidationError("Selection Required").
			WithNotification("Selection Required", "Please select at least one analysis to include in the report.")
	}
	if strings.TrimSpace(c.Title) == "" {
		return pkgerrors.NewValidationError("Title Required").
			WithNotification("Title Required", "Please provide a title for your report.")
	}
	return nil
}

// Template names the quick-start presets
type Template string

const (
	TemplateWeeklySummary  Template = "weekly-summary"
	TemplateClinicalReport Template = "clinical-report"
)

// ApplyTemplate overlays a preset onto c. Fields the preset does not mention
// are left as they are.
func (c Config) ApplyTemplate(t Template) (Config, error) {
	switch t {
	case "":
		return c, nil
	case TemplateWeeklySummary:
		c.Title = "Weekly Analysis Summary"
		c.IncludeSummary = true
		c.IncludeStatistics = true
		c.IncludeDetailedResults = false
	case TemplateClinicalReport:
		c.Title = "Detailed Clinical Report"
		c.IncludeSummary = true
		c.IncludeDetailedResults = true
		c.IncludeImages = true
		c.IncludeTechnicalDetails = true
	default:
		return c, pkgerrors.NewValidationError(fmt.Sprintf("unknown report template %q", t))
	}
	return c, nil
}
