package printer

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

// Printer writes colored CLI output. Out receives results, Err receives
// failures.
type Printer struct {
	Out io.Writer
	Err io.Writer
}

// New returns a printer on stdout and stderr
func New() *Printer {
	return &Printer{Out: os.Stdout, Err: os.Stderr}
}

// Success prints a success message in green with a checkmark prefix
func (p *Printer) Success(format string, a ...any) {
	green.Fprintf(p.Out, "✓ %s\n", fmt.Sprintf(format, a...))
}

// Info prints an informational message in the default color
func (p *Printer) Info(format string, a ...any) {
	fmt.Fprintf(p.Out, format+"\n", a...)
}

// Warning prints a warning message in yellow
func (p *Printer) Warning(format string, a ...any) {
	yellow.Fprintf(p.Out, "⚠️  %s\n", fmt.Sprintf(format, a...))
}

// Error prints a formatted error with title, explanation and suggestions to
// Err and returns a plain error carrying the title for Cobra.
func (p *Printer) Error(title, explanation string, suggestions []string) error {
	red.Fprintf(p.Err, "%s\n\n", title)
	if explanation != "" {
		fmt.Fprintf(p.Err, "%s\n", explanation)
	}

	switch len(suggestions) {
	case 0:
	case 1:
		fmt.Fprintf(p.Err, "\n%s\n", suggestions[0])
	default:
		fmt.Fprintf(p.Err, "\nEither:\n")
		for i, s := range suggestions {
			fmt.Fprintf(p.Err, "  %d. %s\n", i+1, s)
		}
	}
	return fmt.Errorf("%s", title)
}

// Failure prints err the way the web client would show it: the
// notification title and description.
func (p *Printer) Failure(err error, suggestions ...string) error {
	n := pkgerrors.NotificationFor(err)
	return p.Error(n.Title, n.Description, suggestions)
}

// Uploads prints analysis records as a table
func (p *Printer) Uploads(records []entities.UploadRecord) {
	if len(records) == 0 {
		faint.Fprintln(p.Out, "No analyses yet.")
		return
	}
	tw := tabwriter.NewWriter(p.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFILE\tSTATUS\tCLASSIFICATION\tCONFIDENCE\tCELLS\tCREATED")
	for _, r := range records {
		confidence := "-"
		if r.Status.IsCompleted() {
			confidence = fmt.Sprintf("%d%%", r.ConfidencePercent())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			r.ID, r.Filename, r.Status, r.AnalysisResult.Verdict(), confidence, r.CellCount,
			r.CreatedAt.Format("2006-01-02 15:04"))
	}
	tw.Flush()
}

// Threads prints discussion threads with their comment counts
func (p *Printer) Threads(threads []entities.ThreadView) {
	if len(threads) == 0 {
		faint.Fprintln(p.Out, "No discussions yet.")
		return
	}
	for _, t := range threads {
		cyan.Fprintf(p.Out, "%s", t.Title)
		faint.Fprintf(p.Out, "  %s · %d comments\n", t.ID, len(t.Comments))
		if body := strings.TrimSpace(t.Content); body != "" {
			fmt.Fprintf(p.Out, "  %s\n", body)
		}
	}
}
