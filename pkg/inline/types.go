// Package inline expands inline-code templates attached to native members into
// JavaScript text.
//
// A template such as
//
//	Bridge.Nullable.getValueOrDefault({this}, {0})
//
// references the receiver and the call arguments through placeholders of the
// form {[*]key[:modifier]}. Expansion renders every referenced expression into
// its own output frame and splices the text back into the template.
package inline

import (
	"context"
	"fmt"

	"github.com/walteh/jsemit/pkg/output"
)

// Expression is anything that can render itself as target code. Emit writes
// to the top frame of w and must leave w balanced.
type Expression interface {
	Emit(ctx context.Context, w *output.Stack) error
}

// Type is a resolved type handle.
type Type interface {
	// Name is the runtime name emitted code refers to the type by.
	Name() string
	IsArray() bool
}

// TypeName is a Type known only by its runtime name.
type TypeName struct {
	Runtime string
	Array   bool
}

func (t TypeName) Name() string  { return t.Runtime }
func (t TypeName) IsArray() bool { return t.Array }

// Raw is an expression whose rendering is already known.
type Raw string

func (r Raw) Emit(ctx context.Context, w *output.Stack) error {
	_, err := w.WriteString(string(r))
	return err
}

func (r Raw) String() string {
	return string(r)
}

// Argument is one call-site argument bound to a parameter.
type Argument struct {
	// Name of the parameter the argument is bound to.
	Name string
	// Expr renders the argument; nil renders null.
	Expr Expression
	// Type is the static type of the argument, nil when unknown.
	Type Type
}

type TypeArgument struct {
	Name string
	Type Type
	// Syntax is the explicit type reference written at the call site, if any.
	// It wins over Type.
	Syntax Expression
}

// CallForm tells how the values of a params parameter were passed.
type CallForm int

const (
	// FormUnknown is used when the member is not invoked, e.g. a property get.
	FormUnknown CallForm = iota
	// FormNormal means the params argument was passed as one array value.
	FormNormal
	// FormExpanded means every params value was passed separately.
	FormExpanded
)

func (f CallForm) String() string {
	switch f {
	case FormNormal:
		return "normal"
	case FormExpanded:
		return "expanded"
	default:
		return "unknown"
	}
}

// Arguments is the resolved argument binding of one call site.
type Arguments struct {
	// Named holds the arguments in call order.
	Named []Argument
	// This is the receiver expression; nil for static calls.
	This     Expression
	ThisName string
	ThisType Type

	TypeArguments []TypeArgument

	Form CallForm
	// ParamsExpr is the expression passed for the params parameter. It is nil
	// when no distinguishable params argument is present.
	ParamsExpr Expression
}

type Parameter struct {
	Name     string
	Type     Type
	IsParams bool
}

// Method is the member the template is attached to.
type Method struct {
	Name           string
	Parameters     []Parameter
	TypeParameters []string
	IsExtension    bool
}

// params returns the params parameter and its index, or nil.
func (m *Method) params() (*Parameter, int) {
	if m == nil {
		return nil, -1
	}
	for i := range m.Parameters {
		if m.Parameters[i].IsParams {
			return &m.Parameters[i], i
		}
	}
	return nil, -1
}

func (m *Method) parameter(name string) (*Parameter, bool) {
	if m == nil {
		return nil, false
	}
	for i := range m.Parameters {
		if m.Parameters[i].Name == name {
			return &m.Parameters[i], true
		}
	}
	return nil, false
}

func (m *Method) hasTypeParameter(name string) bool {
	if m == nil {
		return false
	}
	for _, tp := range m.TypeParameters {
		if tp == name {
			return true
		}
	}
	return false
}

// Span is where a call appears in the original source.
type Span struct {
	File   string
	Line   int
	Column int
}

func (s Span) String() string {
	if s.File == "" && s.Line == 0 {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// Call is one use of a templated member.
type Call struct {
	Template  string
	Arguments *Arguments
	Method    *Method
	// TargetIsType is set when the member is accessed through a type rather
	// than an instance.
	TargetIsType bool
	// Locals maps parameter names to the local names they were renamed to.
	Locals map[string]string
	Span   Span
}

var _ Expression = (*Call)(nil)

// Emit expands the call in value mode, so a Call can be an argument of
// another Call.
func (c *Call) Emit(ctx context.Context, w *output.Stack) error {
	return Expand(ctx, w, c)
}

// Reference renders a call as a function value instead of a call.
type Reference struct {
	Call     *Call
	Nullable bool
}

var _ Expression = Reference{}

func (r Reference) Emit(ctx context.Context, w *output.Stack) error {
	if r.Nullable {
		return EmitNullableReference(ctx, w, r.Call)
	}
	return EmitReference(ctx, w, r.Call)
}
