// Package fixture reads a resolved call site from YAML, so templates can be
// expanded without a compiler front end.
package fixture

import (
	"bytes"
	"context"
	"strings"

	"github.com/spf13/afero"
	"github.com/walteh/jsemit/pkg/inline"
	"github.com/walteh/jsemit/pkg/output"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeValue     Mode = "value"
	ModeReference Mode = "reference"
	ModeNullable  Mode = "nullable"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeValue:
		return ModeValue, nil
	case ModeReference, ModeNullable:
		return Mode(s), nil
	default:
		return "", errors.Errorf("unknown mode %q", s)
	}
}

type Fixture struct {
	Mode Mode `yaml:"mode,omitempty"`
	// Indent is the indentation level the call is emitted at.
	Indent int `yaml:"indent,omitempty"`
	Call   `yaml:",inline"`
}

type Call struct {
	Template      string            `yaml:"template"`
	Method        *Method           `yaml:"method,omitempty"`
	TargetIsType  bool              `yaml:"target_is_type,omitempty"`
	This          string            `yaml:"this,omitempty"`
	ThisName      string            `yaml:"this_name,omitempty"`
	ThisType      string            `yaml:"this_type,omitempty"`
	Form          string            `yaml:"form,omitempty"`
	ParamsExpr    string            `yaml:"params_expr,omitempty"`
	Arguments     []Argument        `yaml:"arguments,omitempty"`
	TypeArguments []TypeArgument    `yaml:"type_arguments,omitempty"`
	Locals        map[string]string `yaml:"locals,omitempty"`
	Span          *Span             `yaml:"span,omitempty"`
}

type Method struct {
	Name           string      `yaml:"name"`
	Extension      bool        `yaml:"extension,omitempty"`
	TypeParameters []string    `yaml:"type_parameters,omitempty"`
	Parameters     []Parameter `yaml:"parameters,omitempty"`
}

type Parameter struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type,omitempty"`
	Params bool   `yaml:"params,omitempty"`
}

// Argument is either a literal expression or a nested call.
type Argument struct {
	Name string `yaml:"name,omitempty"`
	Expr string `yaml:"expr,omitempty"`
	Type string `yaml:"type,omitempty"`
	Null bool   `yaml:"null,omitempty"`
	Call *Call  `yaml:"call,omitempty"`
}

type TypeArgument struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type,omitempty"`
	Syntax string `yaml:"syntax,omitempty"`
}

type Span struct {
	File   string `yaml:"file"`
	Line   int    `yaml:"line"`
	Column int    `yaml:"column"`
}

func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, errors.Errorf("parsing fixture: %w", err)
	}

	mode, err := ParseMode(string(f.Mode))
	if err != nil {
		return nil, err
	}
	f.Mode = mode
	return &f, nil
}

func Load(fs afero.Fs, path string) (*Fixture, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Errorf("reading fixture: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, errors.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Emit expands the fixture in its mode.
func (f *Fixture) Emit(ctx context.Context, w *output.Stack) error {
	call, err := f.Call.Build()
	if err != nil {
		return err
	}

	for i := 0; i < f.Indent; i++ {
		w.Indent()
	}
	defer func() {
		for i := 0; i < f.Indent; i++ {
			w.Outdent()
		}
	}()

	switch f.Mode {
	case ModeReference:
		return inline.EmitReference(ctx, w, call)
	case ModeNullable:
		return inline.EmitNullableReference(ctx, w, call)
	default:
		return inline.Expand(ctx, w, call)
	}
}

// Build converts the description into an inline call.
func (c *Call) Build() (*inline.Call, error) {
	form, err := parseForm(c.Form)
	if err != nil {
		return nil, err
	}

	args := &inline.Arguments{
		ThisName: c.ThisName,
		Form:     form,
	}
	if c.This != "" {
		args.This = inline.Raw(c.This)
	}
	if c.ThisType != "" {
		args.ThisType = typeOf(c.ThisType)
	}
	if c.ParamsExpr != "" {
		args.ParamsExpr = inline.Raw(c.ParamsExpr)
	}

	for i, a := range c.Arguments {
		arg := inline.Argument{Name: a.Name}
		if a.Type != "" {
			arg.Type = typeOf(a.Type)
		}

		switch {
		case a.Call != nil:
			nested, err := a.Call.Build()
			if err != nil {
				return nil, errors.Errorf("argument %d: %w", i, err)
			}
			arg.Expr = nested
		case a.Null:
		case a.Expr != "":
			arg.Expr = inline.Raw(a.Expr)
		default:
			return nil, errors.Errorf("argument %d: one of expr, call or null is required", i)
		}

		args.Named = append(args.Named, arg)
	}

	for _, ta := range c.TypeArguments {
		t := inline.TypeArgument{Name: ta.Name}
		if ta.Type != "" {
			t.Type = typeOf(ta.Type)
		}
		if ta.Syntax != "" {
			t.Syntax = inline.Raw(ta.Syntax)
		}
		args.TypeArguments = append(args.TypeArguments, t)
	}

	call := &inline.Call{
		Template:     c.Template,
		Arguments:    args,
		TargetIsType: c.TargetIsType,
		Locals:       c.Locals,
	}
	if c.Span != nil {
		call.Span = inline.Span{File: c.Span.File, Line: c.Span.Line, Column: c.Span.Column}
	}

	if m := c.Method; m != nil {
		call.Method = &inline.Method{
			Name:           m.Name,
			IsExtension:    m.Extension,
			TypeParameters: m.TypeParameters,
		}
		for _, p := range m.Parameters {
			param := inline.Parameter{Name: p.Name, IsParams: p.Params}
			if p.Type != "" {
				param.Type = typeOf(p.Type)
			}
			call.Method.Parameters = append(call.Method.Parameters, param)
		}
	}

	return call, nil
}

func parseForm(s string) (inline.CallForm, error) {
	switch s {
	case "":
		return inline.FormUnknown, nil
	case "normal":
		return inline.FormNormal, nil
	case "expanded":
		return inline.FormExpanded, nil
	default:
		return inline.FormUnknown, errors.Errorf("unknown call form %q", s)
	}
}

// typeOf reads a runtime type name. A trailing [] marks an array type.
func typeOf(name string) inline.TypeName {
	return inline.TypeName{Runtime: name, Array: strings.HasSuffix(name, "[]")}
}
