package inline

import (
	"fmt"
	"strings"

	"github.com/walteh/jsemit/pkg/position"
	"gitlab.com/tozd/go/errors"
)

var (
	ErrTemplateSyntax        = errors.Base("template syntax error")
	ErrUnresolvedPlaceholder = errors.Base("unresolved placeholder")
)

// TemplateError describes a template that cannot be expanded. It wraps one of
// ErrTemplateSyntax or ErrUnresolvedPlaceholder.
type TemplateError struct {
	Err      error
	Template string
	// Key is the placeholder key as written, empty for syntax errors that do
	// not get as far as a key.
	Key    string
	Reason string
	// Token is the offending text and its byte offset in Template.
	Token position.RawPosition
	// Line and Column locate Token inside Template, 1-based.
	Line   int
	Column int
	// Span is the call site the template was expanded for.
	Span Span
}

func (e *TemplateError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Err.Error())
	if e.Key != "" {
		fmt.Fprintf(&sb, " %q", e.Key)
	}
	if e.Reason != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Reason)
	}
	fmt.Fprintf(&sb, " in template %q at %d:%d", e.Template, e.Line, e.Column)
	if e.Span != (Span{}) {
		fmt.Fprintf(&sb, " (%s)", e.Span)
	}
	return sb.String()
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

func unresolved(call *Call, tmpl *Template, ph *Placeholder, reason string) error {
	return errors.WithStack(&TemplateError{
		Err:      ErrUnresolvedPlaceholder,
		Template: tmpl.Source,
		Key:      ph.Key.String(),
		Reason:   reason,
		Token:    position.NewBasicPosition(ph.Source, ph.Pos.Offset),
		Line:     ph.Pos.Line,
		Column:   ph.Pos.Column,
		Span:     call.Span,
	})
}
