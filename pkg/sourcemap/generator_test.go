package sourcemap_test

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/jsemit/pkg/output"
	"github.com/walteh/jsemit/pkg/sourcemap"
	"gitlab.com/tozd/go/errors"
)

var m = sourcemap.FormatMarker

func TestFormatMarker(t *testing.T) {
	assert.Equal(t, "/*##|2,14,7|##*/", sourcemap.FormatMarker(2, 14, 7))
}

func TestGenerate_ConsecutiveMarkersShareOrigin(t *testing.T) {
	content := m(0, 1, 1) + m(0, 2, 1) + m(1, 3, 4) + m(0, 9, 9) + "var x = 1;"

	res, err := sourcemap.Generate(context.Background(), content, sourcemap.Options{
		ScriptFileName: "out/app.js",
		SourceFiles:    []string{"A.cs", "B.cs"},
	})
	require.NoError(t, err)

	code, _, err := sourcemap.ParseTrailer(res.Content)
	require.NoError(t, err)
	assert.Equal(t, "var x = 1;", code)
	assert.Equal(t, 4, res.Markers)

	got, err := res.Document.Decode()
	require.NoError(t, err)
	require.Len(t, got, 4)
	for _, mp := range got {
		assert.Equal(t, 0, mp.GeneratedLine)
		assert.Equal(t, 0, mp.GeneratedColumn)
	}
}

func TestGenerate_Positions(t *testing.T) {
	content := "var a;\n" +
		m(0, 1, 1) + "var b = " + m(0, 1, 9) + "f();\n" +
		m(1, 5, 2) + "x;" + m(1, 6, 1) + m(0, 2, 3) + "\n" +
		"\"é😀\"" + m(1, 7, 7) + ";"

	res, err := sourcemap.Generate(context.Background(), content, sourcemap.Options{
		ScriptFileName: "app.js",
		ProjectRoot:    "/proj",
		SourceFiles:    []string{"/proj/src/A.cs", "/proj/src/B.cs"},
	})
	require.NoError(t, err)

	assert.Equal(t, "app.js", res.Document.File)
	assert.Equal(t, []string{"src/A.cs", "src/B.cs"}, res.Document.Sources)
	assert.True(t, strings.HasPrefix(res.Content, "var a;\nvar b = f();\nx;\n\"é😀\";\n"+sourcemap.TrailerPrefix), res.Content)

	got, err := res.Document.Decode()
	require.NoError(t, err)

	type pos struct{ gl, gc, src, sl, sc int }
	var positions []pos
	for _, mp := range got {
		positions = append(positions, pos{mp.GeneratedLine, mp.GeneratedColumn, mp.SourceIndex, mp.SourceLine, mp.SourceColumn})
	}

	assert.Equal(t, []pos{
		{1, 0, 0, 0, 0},
		{1, 8, 0, 0, 8},
		{2, 0, 1, 4, 1},
		{2, 2, 1, 5, 0},
		{2, 2, 0, 1, 2},
		// columns count UTF-16 units
		{3, 5, 1, 6, 6},
	}, positions)
}

func TestGenerate_SourcesContent(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/B.cs", []byte("class B {}"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/A.cs", []byte("class A {}"), 0o644))

	res, err := sourcemap.Generate(context.Background(), m(1, 1, 1)+"b;"+m(0, 1, 1)+"a;", sourcemap.Options{
		ScriptFileName: "app.js",
		ProjectRoot:    "/proj",
		SourceFiles:    []string{"/proj/A.cs", "/proj/B.cs"},
		Names:          []string{"A", "B"},
		Fs:             fs,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"B.cs", "A.cs"}, res.Document.Sources)
	assert.Equal(t, []string{"class B {}", "class A {}"}, res.Document.SourcesContent)
	assert.Equal(t, []string{"A", "B"}, res.Document.Names)
}

func TestGenerate_MissingSourceContent(t *testing.T) {
	_, err := sourcemap.Generate(context.Background(), m(0, 1, 1)+"a;", sourcemap.Options{
		SourceFiles: []string{"/nope/A.cs"},
		Fs:          afero.NewMemMapFs(),
	})
	require.Error(t, err)
}

func TestGenerate_UnknownSourceIndex(t *testing.T) {
	_, err := sourcemap.Generate(context.Background(), "a;"+m(3, 1, 1)+"b;", sourcemap.Options{
		SourceFiles: []string{"A.cs"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sourcemap.ErrDesynchronized))
	assert.True(t, errors.Is(err, output.ErrDesynchronized))
}

func TestGenerate_NoMarkers(t *testing.T) {
	res, err := sourcemap.Generate(context.Background(), "plain();", sourcemap.Options{ScriptFileName: "x.js"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Markers)
	assert.Empty(t, res.Document.Mappings)

	code, doc, err := sourcemap.ParseTrailer(res.Content)
	require.NoError(t, err)
	assert.Equal(t, "plain();", code)
	assert.Equal(t, "x.js", doc.File)
}

func TestParseTrailer(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		res, err := sourcemap.Generate(context.Background(), "a;\n"+m(0, 3, 1)+"b;", sourcemap.Options{
			ScriptFileName: "x.js",
			SourceFiles:    []string{"A.cs"},
		})
		require.NoError(t, err)

		code, doc, err := sourcemap.ParseTrailer(res.Content)
		require.NoError(t, err)
		assert.Equal(t, "a;\nb;", code)
		assert.Equal(t, res.Document, doc)
	})

	t.Run("missing", func(t *testing.T) {
		_, _, err := sourcemap.ParseTrailer("a;")
		assert.ErrorIs(t, err, sourcemap.ErrNoTrailer)
	})

	t.Run("corrupt payload", func(t *testing.T) {
		_, _, err := sourcemap.ParseTrailer("a;\n" + sourcemap.TrailerPrefix + "!!!")
		assert.Error(t, err)
	})
}

func TestStrip(t *testing.T) {
	code, n := sourcemap.Strip("a;" + m(0, 1, 1) + "b;" + m(2, 3, 4) + "/*##|x,1,1|##*/")
	assert.Equal(t, "a;b;/*##|x,1,1|##*/", code)
	assert.Equal(t, 2, n)
}
