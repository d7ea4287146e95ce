package report

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var htmlTemplate = template.Must(template.New("report.html.tmpl").Funcs(template.FuncMap{
	"percent": func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) },
	"join":    strings.Join,
	"verdict": func(r entities.UploadRecord) string { return r.Classification().Label() },
	"date":    func(r entities.UploadRecord) string { return r.CreatedAt.UTC().Format("2006-01-02 15:04") },
}).ParseFS(templateFS, "templates/report.html.tmpl"))

// Renderer writes a document in one output format
type Renderer interface {
	ContentType() string
	Extension() string
	Render(w io.Writer, doc Document) error
}

// RendererFor returns the renderer for f. PDF and DOCX are rejected rather
// than silently downgraded to JSON.
func RendererFor(f Format) (Renderer, error) {
	switch f {
	case FormatJSON, "":
		return jsonRenderer{}, nil
	case FormatHTML:
		return htmlRenderer{}, nil
	case FormatPDF, FormatDOCX:
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("format %s is not supported", f)).
			WithNotification("Format Not Supported", fmt.Sprintf("%s reports are not available yet. Choose HTML or JSON.", strings.ToUpper(string(f))))
	default:
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("unknown report format %q", f))
	}
}

type jsonRenderer struct{}

func (jsonRenderer) ContentType() string { return "application/json" }
func (jsonRenderer) Extension() string   { return "json" }

func (jsonRenderer) Render(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

type htmlRenderer struct{}

func (htmlRenderer) ContentType() string { return "text/html; charset=utf-8" }
func (htmlRenderer) Extension() string   { return "html" }

func (htmlRenderer) Render(w io.Writer, doc Document) error {
	return htmlTemplate.Execute(w, doc)
}
