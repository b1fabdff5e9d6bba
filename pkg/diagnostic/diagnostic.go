package diagnostic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/walteh/jsemit/pkg/inline"
	"github.com/walteh/jsemit/pkg/output"
	"go.uber.org/multierr"
	"gitlab.com/tozd/go/errors"
)

// Diagnostics represents diagnostic information that can be formatted in different ways
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
}

// Diagnostic represents a single diagnostic message. Lines and columns are
// 1-based.
type Diagnostic struct {
	File     string
	Message  string
	Line     int
	Column   int
	EndLine  int
	EndCol   int
	Severity DiagnosticSeverity
	// Internal is set for emitter bugs as opposed to input problems.
	Internal bool
}

// DiagnosticSeverity represents the severity level of a diagnostic
type DiagnosticSeverity string

const (
	Error   DiagnosticSeverity = "error"
	Warning DiagnosticSeverity = "warning"
)

func (d *Diagnostics) Empty() bool {
	return d == nil || len(d.Errors)+len(d.Warnings) == 0
}

// FromError turns the fatal errors of translating file into diagnostics.
// Errors combined with multierr each get their own diagnostic.
func FromError(file string, err error) *Diagnostics {
	diags := &Diagnostics{
		Errors:   make([]Diagnostic, 0),
		Warnings: make([]Diagnostic, 0),
	}

	for _, e := range multierr.Errors(err) {
		diags.Errors = append(diags.Errors, fromOne(file, e))
	}
	return diags
}

func fromOne(file string, err error) Diagnostic {
	d := Diagnostic{
		File:     file,
		Message:  err.Error(),
		Line:     1,
		Column:   1,
		EndLine:  1,
		EndCol:   1,
		Severity: Error,
	}

	var te *inline.TemplateError
	switch {
	case errors.As(err, &te):
		d.Message = te.Error()
		if te.Span.File != "" {
			// report at the call site the template was expanded for
			d.File = te.Span.File
		}
		if te.Span.Line > 0 {
			d.Line, d.Column = te.Span.Line, max(te.Span.Column, 1)
			d.EndLine, d.EndCol = d.Line, d.Column
		} else {
			// editors count columns in UTF-16 units, the lexer counts runes
			r := te.Token.GetRange(te.Template)
			d.Line, d.Column = r.Start.Line+1, r.Start.Character+1
			d.EndLine, d.EndCol = r.End.Line+1, r.End.Character+1
		}
	case errors.Is(err, output.ErrDesynchronized):
		d.Internal = true
	}

	return d
}

// Formatter formats diagnostics into different output formats
type Formatter interface {
	// Format formats diagnostics into a specific output format
	Format(diagnostics *Diagnostics) ([]byte, error)
}

// VSCodeFormatter formats diagnostics into VSCode-compatible format
type VSCodeFormatter struct{}

func NewVSCodeFormatter() *VSCodeFormatter {
	return &VSCodeFormatter{}
}

type vscodePosition struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type vscodeRange struct {
	Start vscodePosition `json:"start"`
	End   vscodePosition `json:"end"`
}

type vscodeDiagnostic struct {
	Severity int         `json:"severity"`
	Message  string      `json:"message"`
	Source   string      `json:"source,omitempty"`
	Range    vscodeRange `json:"range"`
}

// Format implements Formatter
func (f *VSCodeFormatter) Format(diagnostics *Diagnostics) ([]byte, error) {
	if diagnostics == nil {
		return nil, errors.Errorf("diagnostics is nil")
	}

	result := make([]vscodeDiagnostic, 0, len(diagnostics.Errors)+len(diagnostics.Warnings))

	// VSCode severities: Error = 1, Warning = 2
	for _, d := range diagnostics.Errors {
		result = append(result, toVSCode(d, 1))
	}
	for _, d := range diagnostics.Warnings {
		result = append(result, toVSCode(d, 2))
	}

	return json.Marshal(result)
}

func toVSCode(d Diagnostic, severity int) vscodeDiagnostic {
	return vscodeDiagnostic{
		Severity: severity,
		Message:  d.Message,
		Source:   d.File,
		Range: vscodeRange{
			// VSCode is 0-based
			Start: vscodePosition{Line: d.Line - 1, Character: d.Column - 1},
			End:   vscodePosition{Line: d.EndLine - 1, Character: d.EndCol - 1},
		},
	}
}

// TextFormatter writes one file:line:col line per diagnostic.
type TextFormatter struct {
	WithColor bool
}

func (f *TextFormatter) Format(diagnostics *Diagnostics) ([]byte, error) {
	if diagnostics == nil {
		return nil, errors.Errorf("diagnostics is nil")
	}

	var sb strings.Builder
	write := func(d Diagnostic, c *color.Color) {
		sev := string(d.Severity)
		if d.Internal {
			sev = "internal " + sev
		}
		if f.WithColor {
			sev = c.Sprint(sev)
		}
		fmt.Fprintf(&sb, "%s:%d:%d: %s: %s\n", d.File, d.Line, d.Column, sev, d.Message)
	}

	for _, d := range diagnostics.Errors {
		write(d, color.New(color.FgRed, color.Bold))
	}
	for _, d := range diagnostics.Warnings {
		write(d, color.New(color.FgYellow))
	}

	return []byte(sb.String()), nil
}
