package inline

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/jsemit/pkg/output"
	"gitlab.com/tozd/go/errors"
)

type mode int

const (
	modeValue mode = iota
	modeReference
	modeNullableReference
)

// nullableTemp names the unwrapped receiver inside a nullable reference.
const nullableTemp = "$t"

// Expand writes the template of call with every placeholder substituted.
func Expand(ctx context.Context, w *output.Stack, call *Call) error {
	return emit(ctx, w, call, modeValue)
}

// EmitReference writes the template of call wrapped in a function whose
// parameters mirror the member's, so the result can be passed around as a
// callback.
func EmitReference(ctx context.Context, w *output.Stack, call *Call) error {
	return emit(ctx, w, call, modeReference)
}

// EmitNullableReference is EmitReference for a member of a nullable value:
// the receiver becomes the first wrapper parameter.
func EmitNullableReference(ctx context.Context, w *output.Stack, call *Call) error {
	return emit(ctx, w, call, modeNullableReference)
}

type expansion struct {
	call *Call
	args *Arguments
	mode mode

	params      *Parameter
	paramsIndex int
	tmpl        *Template
}

func emit(ctx context.Context, w *output.Stack, call *Call, m mode) error {
	if call == nil {
		return errors.New("inline call is nil")
	}

	x := &expansion{
		call: call,
		args: call.Arguments,
		mode: m,
	}
	if x.args == nil {
		x.args = &Arguments{}
	}
	x.params, x.paramsIndex = call.Method.params()

	if m != modeValue && call.Method == nil {
		return errors.Errorf("reference to template %q has no member", call.Template)
	}

	tmpl, err := Parse(call.Template)
	if err != nil {
		return withSpan(err, call.Span)
	}

	if m == modeValue {
		if rewritten, ok := x.rewriteVariadic(tmpl); ok {
			zerolog.Ctx(ctx).Debug().
				Str("template", call.Template).
				Str("rewritten", rewritten).
				Msg("variadic call rewritten to apply form")

			tmpl, err = Parse(rewritten)
			if err != nil {
				return withSpan(err, call.Span)
			}
		}
	}
	x.tmpl = tmpl

	cp := w.Checkpoint()

	var body strings.Builder
	for _, seg := range tmpl.Segments {
		if seg.Placeholder == nil {
			body.WriteString(seg.Text)
			continue
		}

		ph := seg.Placeholder
		text, err := w.Capture(func() error {
			return x.placeholder(ctx, w, ph)
		})
		if err != nil {
			return err
		}
		body.WriteString(text)
	}

	if err := w.Verify(cp); err != nil {
		return err
	}

	if m != modeValue {
		if _, err := w.WriteString("function ("); err != nil {
			return err
		}
		if err := x.writeWrapperParameters(w); err != nil {
			return err
		}
		if _, err := w.WriteString(") { return "); err != nil {
			return err
		}
	}

	if _, err := w.WriteString(body.String()); err != nil {
		return err
	}

	if m != modeValue {
		if _, err := w.WriteString("; }"); err != nil {
			return err
		}
	}

	return nil
}

func withSpan(err error, span Span) error {
	var te *TemplateError
	if errors.As(err, &te) && te.Span == (Span{}) {
		te.Span = span
	}
	return err
}

func (x *expansion) placeholder(ctx context.Context, w *output.Stack, ph *Placeholder) error {
	if x.mode != modeValue {
		return x.referencePlaceholder(ctx, w, ph)
	}
	return x.valuePlaceholder(ctx, w, ph)
}

// ignoreArray reports whether a params reference is written without array
// brackets. The splice prefix, the raw modifier or a missing params
// expression suppress the brackets, the array modifier restores them.
func (x *expansion) ignoreArray(ph *Placeholder) bool {
	if ph.Modifier == ModifierArray {
		return false
	}
	return ph.Splice || ph.Modifier == ModifierRaw || x.args.ParamsExpr == nil
}

func (x *expansion) isParams(key Key) bool {
	n, ok := key.(Named)
	return ok && x.params != nil && n.Name == x.params.Name
}

func (x *expansion) isExtension() bool {
	return x.call.Method != nil && x.call.Method.IsExtension
}

// isReceiver reports whether key names the receiver in value mode.
func (x *expansion) isReceiver(key Key) bool {
	switch k := key.(type) {
	case ThisRef:
		return true
	case Named:
		return x.args.ThisName != "" && k.Name == x.args.ThisName
	case Positional:
		return k.Index == 0 && x.isExtension()
	default:
		return false
	}
}

// arguments returns the argument list keys index into. An extension method
// sees its receiver as argument zero.
func (x *expansion) arguments() []Argument {
	if !x.isExtension() || x.args.This == nil {
		return x.args.Named
	}
	all := make([]Argument, 0, len(x.args.Named)+1)
	all = append(all, Argument{Name: x.args.ThisName, Expr: x.args.This, Type: x.args.ThisType})
	return append(all, x.args.Named...)
}

func (x *expansion) lookup(key Key) []Argument {
	args := x.arguments()
	switch k := key.(type) {
	case Positional:
		if k.Index < len(args) {
			return args[k.Index : k.Index+1]
		}
		return nil
	case Named:
		var out []Argument
		for _, a := range args {
			if a.Name == k.Name {
				out = append(out, a)
			}
		}
		return out
	default:
		return nil
	}
}

func (x *expansion) typeArgument(key Key) (*TypeArgument, bool) {
	n, ok := key.(Named)
	if !ok {
		return nil, false
	}
	var found *TypeArgument
	for i := range x.args.TypeArguments {
		ta := &x.args.TypeArguments[i]
		if ta.Name != n.Name {
			continue
		}
		if ta.Syntax != nil {
			return ta, true
		}
		if found == nil && ta.Type != nil {
			found = ta
		}
	}
	return found, found != nil
}

func (x *expansion) valuePlaceholder(ctx context.Context, w *output.Stack, ph *Placeholder) error {
	if x.isReceiver(ph.Key) {
		return x.writeReceiver(ctx, w, ph)
	}

	if args := x.lookup(ph.Key); len(args) > 0 {
		switch {
		case ph.Modifier == ModifierType:
			return x.writeArgumentType(w, ph, args)
		case len(args) > 1 || x.isParams(ph.Key):
			return x.writeParams(ctx, w, ph, args)
		default:
			return x.writeSingle(ctx, w, ph, args[0])
		}
	}

	if x.isParams(ph.Key) {
		// params parameter with no values passed
		return x.writeParams(ctx, w, ph, nil)
	}

	if ta, ok := x.typeArgument(ph.Key); ok {
		if ta.Syntax != nil {
			return ta.Syntax.Emit(ctx, w)
		}
		_, err := w.WriteString(ta.Type.Name())
		return err
	}

	return unresolved(x.call, x.tmpl, ph, "no argument, receiver or type parameter")
}

func (x *expansion) writeReceiver(ctx context.Context, w *output.Stack, ph *Placeholder) error {
	if ph.Modifier == ModifierType {
		if x.args.ThisType == nil {
			return unresolved(x.call, x.tmpl, ph, "receiver type is unknown")
		}
		_, err := w.WriteString(x.args.ThisType.Name())
		return err
	}

	if x.args.This == nil {
		return unresolved(x.call, x.tmpl, ph, "call has no receiver")
	}
	return renderInto(ctx, w, x.args.This, false)
}

func (x *expansion) writeArgumentType(w *output.Stack, ph *Placeholder, args []Argument) error {
	if x.isParams(ph.Key) && x.params.Type != nil {
		_, err := w.WriteString(x.params.Type.Name())
		return err
	}
	if args[0].Type == nil {
		return unresolved(x.call, x.tmpl, ph, "argument type is unknown")
	}
	_, err := w.WriteString(args[0].Type.Name())
	return err
}

// writeParams writes a variadic capture, an array literal unless brackets are
// suppressed. A call in normal form already passes an array and is never
// wrapped again.
func (x *expansion) writeParams(ctx context.Context, w *output.Stack, ph *Placeholder, args []Argument) error {
	ignore := x.ignoreArray(ph) || x.args.Form == FormNormal

	if !ignore {
		if _, err := w.WriteString("["); err != nil {
			return err
		}
	}

	if len(args) == 1 && args[0].Expr == nil {
		if _, err := w.WriteString("null"); err != nil {
			return err
		}
	} else if err := writeList(ctx, w, args); err != nil {
		return err
	}

	if !ignore {
		if _, err := w.WriteString("]"); err != nil {
			return err
		}
	}
	return nil
}

func (x *expansion) writeSingle(ctx context.Context, w *output.Stack, ph *Placeholder, arg Argument) error {
	if arg.Expr == nil {
		_, err := w.WriteString("null")
		return err
	}
	return renderInto(ctx, w, arg.Expr, ph.Modifier == ModifierRaw)
}

// renderInto renders expr in its own frame and writes the result re-indented
// to the current level. raw strips the quotes of a string literal.
func renderInto(ctx context.Context, w *output.Stack, expr Expression, raw bool) error {
	s, err := w.Capture(func() error {
		return expr.Emit(ctx, w)
	})
	if err != nil {
		return err
	}

	if raw {
		s = unquote(s)
	}

	_, err = w.WriteString(w.IndentString(s))
	return err
}

// unquote drops the quotes of a double quoted string literal. Any other text,
// "a" + "b" included, is returned as is.
func unquote(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	inner := s[1 : len(s)-1]
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '\\':
			// an escape as the last byte escapes the closing quote
			if i == len(inner)-1 {
				return s
			}
			i++
		case '"':
			return s
		}
	}
	return inner
}

func writeList(ctx context.Context, w *output.Stack, args []Argument) error {
	for i, a := range args {
		if i > 0 {
			if _, err := w.WriteString(", "); err != nil {
				return err
			}
		}
		if a.Expr == nil {
			if _, err := w.WriteString("null"); err != nil {
				return err
			}
			continue
		}
		if err := a.Expr.Emit(ctx, w); err != nil {
			return err
		}
	}
	return nil
}
