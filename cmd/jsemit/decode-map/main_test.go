package decode_map

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/jsemit/pkg/sourcemap"
	"gitlab.com/tozd/go/errors"
)

func writeMapped(t *testing.T) afero.Fs {
	t.Helper()

	b := sourcemap.NewBuilder("out.js", "")
	b.RecordLocation(1, 1, "a.cs", 1, 1)
	b.RecordLocation(1, 5, "", 0, 0)
	b.RecordLocation(2, 3, "b.cs", 4, 2)
	b.AddMapping(sourcemap.Mapping{
		GeneratedLine: 2,
		SourceIndex:   b.AddSource("a.cs"),
		SourceLine:    9,
		SourceColumn:  4,
		NameIndex:     b.AddName("run"),
	})

	doc, err := b.Build(nil)
	require.NoError(t, err)
	content, err := sourcemap.AppendTrailer("a();\n  b();\nrun();", doc)
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out.js", []byte(content), 0o644))
	return fs
}

func rows(out string) [][]string {
	var res [][]string
	for _, line := range strings.Split(out, "\n") {
		if f := strings.Fields(line); len(f) > 0 {
			res = append(res, f)
		}
	}
	return res
}

func TestRun_Table(t *testing.T) {
	me := &Handler{fs: writeMapped(t)}

	var stdout bytes.Buffer
	require.NoError(t, me.Run(context.Background(), &stdout, "/out.js"))

	got := rows(stdout.String())
	assert.Contains(t, got, []string{"1:0", "a.cs", "1:0", "-"})
	assert.Contains(t, got, []string{"1:4", "-", "-", "-"})
	assert.Contains(t, got, []string{"2:2", "b.cs", "4:1", "-"})
	assert.Contains(t, got, []string{"3:0", "a.cs", "10:4", "run"})
	assert.Contains(t, stdout.String(), "out.js")
}

func TestRun_JSON(t *testing.T) {
	me := &Handler{fs: writeMapped(t), json: true}

	var stdout bytes.Buffer
	require.NoError(t, me.Run(context.Background(), &stdout, "/out.js"))

	var doc sourcemap.Document
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &doc))
	assert.Equal(t, 3, doc.Version)
	assert.Equal(t, []string{"a.cs", "b.cs"}, doc.Sources)
	assert.Equal(t, []string{"run"}, doc.Names)
}

func TestRun_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/plain.js", []byte("var a = 1;"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/broken.js", []byte("x;\n"+sourcemap.TrailerPrefix+"!!!"), 0o644))

	me := &Handler{fs: fs}

	err := me.Run(context.Background(), &bytes.Buffer{}, "/plain.js")
	assert.True(t, errors.Is(err, sourcemap.ErrNoTrailer))

	err = me.Run(context.Background(), &bytes.Buffer{}, "/broken.js")
	assert.Error(t, err)

	err = me.Run(context.Background(), &bytes.Buffer{}, "/missing.js")
	assert.Error(t, err)
}

func TestRun_NegativeSourceIndex(t *testing.T) {
	doc := &sourcemap.Document{Version: 3, File: "out.js", Sources: []string{"a.cs"}, Names: []string{}, Mappings: "AAAA,AFAA"}
	content, err := sourcemap.AppendTrailer("x;", doc)
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out.js", []byte(content), 0o644))

	me := &Handler{fs: fs}
	var stdout bytes.Buffer
	err = me.Run(context.Background(), &stdout, "/out.js")
	assert.True(t, errors.Is(err, sourcemap.ErrInvalidMappings))
	assert.Empty(t, stdout.String())
}

func TestRender_OutOfRangeIndices(t *testing.T) {
	doc := &sourcemap.Document{File: "out.js", Sources: []string{"a.cs"}, Names: []string{"run"}}
	out := render(doc, []sourcemap.Mapping{
		{GeneratedLine: 0, SourceIndex: -2, NameIndex: sourcemap.NoIndex},
		{GeneratedLine: 1, SourceIndex: 3, NameIndex: sourcemap.NoIndex},
		{GeneratedLine: 2, SourceIndex: 0, NameIndex: -5},
	})

	got := rows(out)
	assert.Contains(t, got, []string{"1:0", "-", "-", "-"})
	assert.Contains(t, got, []string{"2:0", "-", "-", "-"})
	assert.Contains(t, got, []string{"3:0", "a.cs", "1:0", "-"})
}
