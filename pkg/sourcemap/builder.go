// Package sourcemap builds the source map of one generated file.
//
// Emission writes markers naming a source position just before the text they
// describe. Generate strips them, records where each one sat in the stripped
// text, and appends the encoded map as an inline data URL trailer.
package sourcemap

import (
	"encoding/json"
	"sort"

	"github.com/walteh/jsemit/pkg/output"
	"gitlab.com/tozd/go/errors"
)

// ErrDesynchronized is the frame stack error: a marker and the source list
// disagree the same way unbalanced frames do.
var ErrDesynchronized = output.ErrDesynchronized

// NoIndex marks a Mapping without a source or without a name.
const NoIndex = -1

// Mapping is one generated position and what it came from. All fields are
// zero-based.
type Mapping struct {
	GeneratedLine   int
	GeneratedColumn int
	// SourceIndex is NoIndex for a position that maps to nothing.
	SourceIndex  int
	SourceLine   int
	SourceColumn int
	NameIndex    int
}

// Document is a version 3 source map.
type Document struct {
	Version        int      `json:"version"`
	File           string   `json:"file"`
	SourceRoot     string   `json:"sourceRoot"`
	Sources        []string `json:"sources"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
}

func (d *Document) Marshal() ([]byte, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, errors.Errorf("marshaling source map: %w", err)
	}
	return b, nil
}

// Decode returns the mappings of the document.
func (d *Document) Decode() ([]Mapping, error) {
	return DecodeMappings(d.Mappings)
}

// Builder collects mappings for one generated file.
type Builder struct {
	file       string
	sourceRoot string

	sources     []string
	sourceIndex map[string]int
	names       []string
	nameIndex   map[string]int

	mappings []Mapping
}

func NewBuilder(file, sourceRoot string) *Builder {
	return &Builder{
		file:        file,
		sourceRoot:  sourceRoot,
		sourceIndex: make(map[string]int),
		nameIndex:   make(map[string]int),
	}
}

// AddSource interns path and returns its index. Indices follow first use.
func (b *Builder) AddSource(path string) int {
	if i, ok := b.sourceIndex[path]; ok {
		return i
	}
	i := len(b.sources)
	b.sources = append(b.sources, path)
	b.sourceIndex[path] = i
	return i
}

// AddName interns a symbol name and returns its index.
func (b *Builder) AddName(name string) int {
	if i, ok := b.nameIndex[name]; ok {
		return i
	}
	i := len(b.names)
	b.names = append(b.names, name)
	b.nameIndex[name] = i
	return i
}

// Sources returns the interned source paths in index order.
func (b *Builder) Sources() []string {
	return append([]string(nil), b.sources...)
}

func (b *Builder) AddMapping(m Mapping) {
	b.mappings = append(b.mappings, m)
}

// RecordLocation maps a generated position to a source position. All inputs
// are 1-based. An empty sourcePath records a position that maps to nothing.
func (b *Builder) RecordLocation(genLine, genCol int, sourcePath string, srcLine, srcCol int) {
	m := Mapping{
		GeneratedLine:   genLine - 1,
		GeneratedColumn: genCol - 1,
		SourceIndex:     NoIndex,
		NameIndex:       NoIndex,
	}
	if sourcePath != "" {
		m.SourceIndex = b.AddSource(sourcePath)
		m.SourceLine = srcLine - 1
		m.SourceColumn = srcCol - 1
	}
	b.AddMapping(m)
}

// Len is the number of recorded mappings.
func (b *Builder) Len() int {
	return len(b.mappings)
}

// Build encodes the recorded mappings. sourcesContent, when given, is
// indexed like the sources.
func (b *Builder) Build(sourcesContent []string) (*Document, error) {
	for _, m := range b.mappings {
		if m.SourceIndex >= len(b.sources) || m.SourceIndex < NoIndex {
			return nil, errors.Errorf("%w: mapping at %d:%d names source %d of %d",
				ErrDesynchronized, m.GeneratedLine, m.GeneratedColumn, m.SourceIndex, len(b.sources))
		}
		if m.NameIndex >= len(b.names) || m.NameIndex < NoIndex {
			return nil, errors.Errorf("%w: mapping at %d:%d names symbol %d of %d",
				ErrDesynchronized, m.GeneratedLine, m.GeneratedColumn, m.NameIndex, len(b.names))
		}
	}
	if len(sourcesContent) > 0 && len(sourcesContent) != len(b.sources) {
		return nil, errors.Errorf("%d source contents for %d sources", len(sourcesContent), len(b.sources))
	}

	sorted := append([]Mapping(nil), b.mappings...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].GeneratedLine != sorted[j].GeneratedLine {
			return sorted[i].GeneratedLine < sorted[j].GeneratedLine
		}
		return sorted[i].GeneratedColumn < sorted[j].GeneratedColumn
	})

	return &Document{
		Version:        3,
		File:           b.file,
		SourceRoot:     b.sourceRoot,
		Sources:        append([]string{}, b.sources...),
		Names:          append([]string{}, b.names...),
		Mappings:       encodeMappings(sorted),
		SourcesContent: sourcesContent,
	}, nil
}

// encodeMappings writes sorted mappings as ';' separated lines of ','
// separated segments. The generated column is relative to the previous
// segment on the same line. Source and name fields are relative to the
// previous segment that carried them, across lines.
func encodeMappings(sorted []Mapping) string {
	var (
		buf      []byte
		line     int
		col      int
		src      int
		srcLine  int
		srcCol   int
		name     int
		lineHead = true
	)

	for _, m := range sorted {
		for line < m.GeneratedLine {
			buf = append(buf, ';')
			line++
			col = 0
			lineHead = true
		}
		if !lineHead {
			buf = append(buf, ',')
		}
		lineHead = false

		buf = EncodeVLQ(buf, m.GeneratedColumn-col)
		col = m.GeneratedColumn

		if m.SourceIndex == NoIndex {
			continue
		}

		buf = EncodeVLQ(buf, m.SourceIndex-src)
		buf = EncodeVLQ(buf, m.SourceLine-srcLine)
		buf = EncodeVLQ(buf, m.SourceColumn-srcCol)
		src, srcLine, srcCol = m.SourceIndex, m.SourceLine, m.SourceColumn

		if m.NameIndex != NoIndex {
			buf = EncodeVLQ(buf, m.NameIndex-name)
			name = m.NameIndex
		}
	}

	return string(buf)
}
