package commands

import (
	"github.com/kwansinnn/cytosight-all-detect/application/workspace"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"
	"github.com/kwansinnn/cytosight-all-detect/domain/report"
	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
	"github.com/kwansinnn/cytosight-all-detect/pkg/utils"
)

// AnalyzeUploadCommand runs the analyzer on a selected file and stores the
// result
type AnalyzeUploadCommand struct {
	Session *auth.Session
	File    entities.FileHandle
}

// Validate checks the file name is present. The accepted types are checked
// by the workspace.
func (c AnalyzeUploadCommand) Validate() error {
	return utils.ValidateStruct(struct {
		File string `validate:"notblank"`
	}{c.File.Name})
}

// DeleteUploadCommand removes one of the user's analysis records
type DeleteUploadCommand struct {
	Session  *auth.Session
	UploadID string `validate:"notblank"`
}

func (c DeleteUploadCommand) Validate() error { return utils.ValidateStruct(c) }

// CreateThreadCommand posts a discussion thread, optionally with an image.
// Title and content are validated by the workspace.
type CreateThreadCommand struct {
	Session  *auth.Session
	Title    string
	Content  string
	ImageURL *string
	Image    *workspace.Image
}

func (c CreateThreadCommand) Validate() error { return nil }

// DeleteThreadCommand removes a thread the session user owns
type DeleteThreadCommand struct {
	Session  *auth.Session
	ThreadID string `validate:"notblank"`
}

func (c DeleteThreadCommand) Validate() error { return utils.ValidateStruct(c) }

// AddCommentCommand posts a comment on a thread
type AddCommentCommand struct {
	Session  *auth.Session
	ThreadID string `validate:"notblank"`
	Content  string
}

func (c AddCommentCommand) Validate() error { return utils.ValidateStruct(c) }

// ToggleMarkerCommand flips the session user's favorite or focus marker
type ToggleMarkerCommand struct {
	Session  *auth.Session
	ThreadID string `validate:"notblank"`
	Kind     valueobjects.MarkerKind
}

func (c ToggleMarkerCommand) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}
	_, err := valueobjects.ParseMarkerKind(string(c.Kind))
	return err
}

// MarkerState is the result of a toggle
type MarkerState struct {
	ThreadID string                  `json:"threadId"`
	Kind     valueobjects.MarkerKind `json:"kind"`
	Present  bool                    `json:"present"`
}

// GenerateReportCommand assembles and renders a report over a selection of
// the user's completed analyses
type GenerateReportCommand struct {
	Session  *auth.Session
	Config   report.Config
	Template report.Template
}

// Validate applies the template and checks the selection before the title
func (c GenerateReportCommand) Validate() error {
	cfg, err := c.Config.ApplyTemplate(c.Template)
	if err != nil {
		return err
	}
	return cfg.Validate()
}

// GeneratedReport is the downloadable artifact
type GeneratedReport struct {
	Filename    string          `json:"filename"`
	ContentType string          `json:"contentType"`
	Body        []byte          `json:"-"`
	Document    report.Document `json:"document"`
}
