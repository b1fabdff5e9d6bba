package inline

import (
	"context"
	"strconv"
	"strings"

	"github.com/walteh/jsemit/pkg/identifier"
	"github.com/walteh/jsemit/pkg/output"
)

// wrapperParameters lists the parameter names of the function a reference is
// wrapped in: type parameters, the nullable receiver, then the member
// parameters. An extension method's receiver parameter is dropped unless the
// reference is bound to a type, where the caller passes it explicitly.
func (x *expansion) wrapperParameters() []string {
	m := x.call.Method

	var names []string
	for _, tp := range m.TypeParameters {
		names = append(names, identifier.Safe(tp))
	}

	params := m.Parameters
	if x.mode == modeNullableReference {
		names = append(names, nullableTemp)
	} else if m.IsExtension && !x.call.TargetIsType && len(params) > 0 {
		params = params[1:]
	}

	for _, p := range params {
		names = append(names, x.parameterName(p.Name))
	}
	return names
}

func (x *expansion) writeWrapperParameters(w *output.Stack) error {
	_, err := w.WriteString(strings.Join(x.wrapperParameters(), ", "))
	return err
}

// wrapperParamsIndex is the position of the params parameter in the wrapper
// parameter list, or -1.
func (x *expansion) wrapperParamsIndex() int {
	if x.params == nil {
		return -1
	}
	m := x.call.Method
	idx := len(m.TypeParameters) + x.paramsIndex
	if x.mode == modeNullableReference {
		idx++
	} else if m.IsExtension && !x.call.TargetIsType {
		idx--
	}
	return idx
}

// parameterName renames reserved words and applies the local rename map.
func (x *expansion) parameterName(name string) string {
	name = identifier.Safe(name)
	if local, ok := x.call.Locals[name]; ok {
		return local
	}
	return name
}

func (x *expansion) receiverParameter() string {
	m := x.call.Method
	if m == nil || !m.IsExtension || len(m.Parameters) == 0 {
		return ""
	}
	return m.Parameters[0].Name
}

func (x *expansion) referencePlaceholder(ctx context.Context, w *output.Stack, ph *Placeholder) error {
	m := x.call.Method

	var name string
	switch k := ph.Key.(type) {
	case ThisRef:
		return x.referenceReceiver(ctx, w, ph)
	case Positional:
		if k.Index >= len(m.Parameters) {
			return unresolved(x.call, x.tmpl, ph, "member has "+strconv.Itoa(len(m.Parameters))+" parameters")
		}
		name = m.Parameters[k.Index].Name
	case Named:
		name = k.Name
	}

	if recv := x.receiverParameter(); recv != "" && name == recv {
		if x.call.TargetIsType {
			_, err := w.WriteString(x.parameterName(name))
			return err
		}
		return x.writeBoundReceiver(ctx, w, ph)
	}

	if x.isParams(Named{Name: name}) && !x.ignoreArray(ph) {
		_, err := w.WriteString("Array.prototype.slice.call(arguments, " + strconv.Itoa(x.wrapperParamsIndex()) + ")")
		return err
	}

	if _, ok := m.parameter(name); !ok && !m.hasTypeParameter(name) {
		return unresolved(x.call, x.tmpl, ph, "member "+strconv.Quote(m.Name)+" has no such parameter")
	}

	_, err := w.WriteString(x.parameterName(name))
	return err
}

func (x *expansion) referenceReceiver(ctx context.Context, w *output.Stack, ph *Placeholder) error {
	switch {
	case x.mode == modeNullableReference:
		_, err := w.WriteString(nullableTemp)
		return err
	case x.call.Method.IsExtension && x.call.TargetIsType && x.receiverParameter() != "":
		_, err := w.WriteString(x.parameterName(x.receiverParameter()))
		return err
	default:
		return x.writeBoundReceiver(ctx, w, ph)
	}
}

func (x *expansion) writeBoundReceiver(ctx context.Context, w *output.Stack, ph *Placeholder) error {
	if x.args.This == nil {
		return unresolved(x.call, x.tmpl, ph, "reference has no bound receiver")
	}
	return renderInto(ctx, w, x.args.This, false)
}
