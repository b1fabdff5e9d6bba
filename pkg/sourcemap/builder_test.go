package sourcemap_test

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/jsemit/pkg/sourcemap"
)

type location struct {
	genLine, genCol int
	source          string
	srcLine, srcCol int
}

func TestBuilder_Mappings(t *testing.T) {
	b := sourcemap.NewBuilder("out.js", "")
	b.RecordLocation(1, 1, "a.cs", 1, 1)
	b.RecordLocation(1, 5, "a.cs", 2, 3)
	b.RecordLocation(2, 3, "b.cs", 1, 1)

	doc, err := b.Build(nil)
	require.NoError(t, err)

	assert.Equal(t, "AAAA,IACE;ECDF", doc.Mappings)
	assert.Equal(t, []string{"a.cs", "b.cs"}, doc.Sources)
	assert.Equal(t, 3, doc.Version)
	assert.Equal(t, "out.js", doc.File)
}

func TestBuilder_SortsBeforeEncoding(t *testing.T) {
	in := []location{
		{3, 10, "b.cs", 7, 2},
		{1, 1, "a.cs", 1, 1},
		{2, 4, "", 0, 0},
		{1, 12, "a.cs", 1, 9},
		{5, 1, "b.cs", 1, 1},
		{1, 6, "b.cs", 40, 13},
		{3, 2, "a.cs", 3, 5},
	}

	b := sourcemap.NewBuilder("out.js", "")
	for _, l := range in {
		b.RecordLocation(l.genLine, l.genCol, l.source, l.srcLine, l.srcCol)
	}

	doc, err := b.Build(nil)
	require.NoError(t, err)

	got, err := sourcemap.DecodeMappings(doc.Mappings)
	require.NoError(t, err)

	index := map[string]int{"": sourcemap.NoIndex}
	for i, s := range doc.Sources {
		index[s] = i
	}

	var want []sourcemap.Mapping
	for _, l := range in {
		m := sourcemap.Mapping{
			GeneratedLine:   l.genLine - 1,
			GeneratedColumn: l.genCol - 1,
			SourceIndex:     index[l.source],
			NameIndex:       sourcemap.NoIndex,
		}
		if l.source != "" {
			m.SourceLine = l.srcLine - 1
			m.SourceColumn = l.srcCol - 1
		}
		want = append(want, m)
	}
	sort.SliceStable(want, func(i, j int) bool {
		if want[i].GeneratedLine != want[j].GeneratedLine {
			return want[i].GeneratedLine < want[j].GeneratedLine
		}
		return want[i].GeneratedColumn < want[j].GeneratedColumn
	})

	assert.Equal(t, want, got)
	assert.Equal(t, []string{"b.cs", "a.cs"}, doc.Sources, "sources are indexed by first use")
}

func TestBuilder_UnmappedSentinel(t *testing.T) {
	b := sourcemap.NewBuilder("out.js", "")
	b.RecordLocation(1, 1, "", 0, 0)
	b.RecordLocation(1, 3, "a.cs", 1, 1)

	doc, err := b.Build(nil)
	require.NoError(t, err)
	assert.Equal(t, "A,EAAA", doc.Mappings)

	got, err := doc.Decode()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, sourcemap.NoIndex, got[0].SourceIndex)
	assert.Equal(t, 0, got[1].SourceIndex)
}

func TestBuilder_Names(t *testing.T) {
	b := sourcemap.NewBuilder("out.js", "")
	assert.Equal(t, 0, b.AddName("main"))
	assert.Equal(t, 1, b.AddName("helper"))
	assert.Equal(t, 0, b.AddName("main"))

	src := b.AddSource("a.cs")
	b.AddMapping(sourcemap.Mapping{SourceIndex: src, NameIndex: 1})
	b.AddMapping(sourcemap.Mapping{GeneratedColumn: 4, SourceIndex: src, SourceColumn: 2, NameIndex: 0})

	doc, err := b.Build(nil)
	require.NoError(t, err)
	assert.Equal(t, "AAAAC,IAAED", doc.Mappings)
	assert.Equal(t, []string{"main", "helper"}, doc.Names)

	got, err := doc.Decode()
	require.NoError(t, err)
	assert.Equal(t, 1, got[0].NameIndex)
	assert.Equal(t, 0, got[1].NameIndex)
}

func TestBuilder_Errors(t *testing.T) {
	t.Run("unknown source index", func(t *testing.T) {
		b := sourcemap.NewBuilder("out.js", "")
		b.AddMapping(sourcemap.Mapping{SourceIndex: 2, NameIndex: sourcemap.NoIndex})
		_, err := b.Build(nil)
		assert.ErrorIs(t, err, sourcemap.ErrDesynchronized)
	})

	t.Run("contents do not match sources", func(t *testing.T) {
		b := sourcemap.NewBuilder("out.js", "")
		b.RecordLocation(1, 1, "a.cs", 1, 1)
		_, err := b.Build([]string{"a", "b"})
		assert.Error(t, err)
	})
}

func TestDocument_Marshal(t *testing.T) {
	b := sourcemap.NewBuilder("out.js", "src")
	b.RecordLocation(1, 1, "a.cs", 1, 1)

	doc, err := b.Build([]string{"class A {}"})
	require.NoError(t, err)

	data, err := doc.Marshal()
	require.NoError(t, err)
	assert.Equal(t,
		`{"version":3,"file":"out.js","sourceRoot":"src","sources":["a.cs"],"names":[],"mappings":"AAAA","sourcesContent":["class A {}"]}`,
		string(data))
}

func TestDocument_MarshalEmpty(t *testing.T) {
	doc, err := sourcemap.NewBuilder("out.js", "").Build(nil)
	require.NoError(t, err)

	data, err := doc.Marshal()
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"sources":[]`), string(data))
	assert.NotContains(t, string(data), "sourcesContent")
}

func TestDecodeMappings_Errors(t *testing.T) {
	for _, in := range []string{
		"A!",
		"AA",
		"AAAAAA",
		"g",
		// source index 0 then -2
		"AAAA,AFAA",
		"AFAA",
		// source index lands on -1
		"ADAA",
		"AAAAD",
		"AADA",
		"D",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := sourcemap.DecodeMappings(in)
			assert.ErrorIs(t, err, sourcemap.ErrInvalidMappings)
		})
	}
}
