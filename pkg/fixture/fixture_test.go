package fixture_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/jsemit/pkg/fixture"
	"github.com/walteh/jsemit/pkg/inline"
	"github.com/walteh/jsemit/pkg/output"
)

func TestFixture_Emit(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "variadic apply",
			yaml: `
template: "Bridge.String.format({format}, {*args})"
method:
  name: Format
  parameters:
    - {name: format, type: System.String}
    - {name: args, type: "System.Object[]", params: true}
form: normal
params_expr: values
arguments:
  - {name: format, expr: '"{0}"'}
  - {name: args, expr: values, type: "System.Object[]"}
`,
			want: `Bridge.String.format.apply(Bridge.String, ["{0}"].concat(values))`,
		},
		{
			name: "nested call and null",
			yaml: `
template: "Bridge.toArray({0}, {1})"
arguments:
  - name: source
    call:
      template: "{this}.getEnumerator()"
      this: list
  - {name: other, "null": true}
`,
			want: "Bridge.toArray(list.getEnumerator(), null)",
		},
		{
			name: "type argument",
			yaml: `
template: "Bridge.getDefaultValue({T})"
type_arguments:
  - {name: T, type: System.Int32}
`,
			want: "Bridge.getDefaultValue(System.Int32)",
		},
		{
			name: "reference",
			yaml: `
mode: reference
template: "Bridge.Linq.where({source}, {predicate})"
method:
  name: Where
  extension: true
  parameters: [{name: source}, {name: predicate}]
this: list
`,
			want: "function (predicate) { return Bridge.Linq.where(list, predicate); }",
		},
		{
			name: "nullable reference",
			yaml: `
mode: nullable
template: "Bridge.Nullable.getValueOrDefault({this}, {0})"
method:
  name: GetValueOrDefault
  parameters: [{name: defaultValue}]
`,
			want: "function ($t, defaultValue) { return Bridge.Nullable.getValueOrDefault($t, defaultValue); }",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := fixture.Parse([]byte(tt.yaml))
			require.NoError(t, err)

			w := output.NewStack()
			require.NoError(t, f.Emit(context.Background(), w))
			assert.Equal(t, tt.want, w.String())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown field", yaml: "template: x\nargs: []\n"},
		{name: "unknown mode", yaml: "template: x\nmode: lazy\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fixture.Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestCall_Build(t *testing.T) {
	c := &fixture.Call{
		Template: "f({0})",
		Form:     "expanded",
		ThisType: "Demo.Point",
		Span:     &fixture.Span{File: "Program.cs", Line: 4, Column: 2},
		Arguments: []fixture.Argument{
			{Name: "xs", Expr: "arr", Type: "System.Int32[]"},
		},
	}

	call, err := c.Build()
	require.NoError(t, err)
	assert.Equal(t, inline.FormExpanded, call.Arguments.Form)
	assert.Equal(t, inline.Span{File: "Program.cs", Line: 4, Column: 2}, call.Span)
	assert.Equal(t, "Demo.Point", call.Arguments.ThisType.Name())
	require.Len(t, call.Arguments.Named, 1)
	assert.True(t, call.Arguments.Named[0].Type.IsArray())

	_, err = (&fixture.Call{Form: "sideways"}).Build()
	assert.Error(t, err)

	_, err = (&fixture.Call{Arguments: []fixture.Argument{{Name: "empty"}}}).Build()
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/f/call.yaml", []byte("template: \"{this}.length\"\nthis: s\n"), 0o644))

	f, err := fixture.Load(fs, "/f/call.yaml")
	require.NoError(t, err)
	assert.Equal(t, fixture.ModeValue, f.Mode)

	w := output.NewStack()
	require.NoError(t, f.Emit(context.Background(), w))
	assert.Equal(t, "s.length", w.String())

	_, err = fixture.Load(fs, "/f/missing.yaml")
	assert.Error(t, err)
}

func TestFixture_Indent(t *testing.T) {
	f, err := fixture.Parse([]byte(`
indent: 1
template: "run({0})"
arguments:
  - expr: "function () {\n  return 1;\n}"
`))
	require.NoError(t, err)

	w := output.NewStack()
	w.SetIndentUnit("\t")
	require.NoError(t, f.Emit(context.Background(), w))
	assert.Equal(t, "run(function () {\n\t  return 1;\n\t})", w.String())
	assert.Equal(t, 0, w.Level())
}
