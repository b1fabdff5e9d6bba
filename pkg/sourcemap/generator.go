package sourcemap

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/jsemit/pkg/position"
	"gitlab.com/tozd/go/errors"
)

var markerRegexp = regexp.MustCompile(`/\*##\|(\d+),(\d+),(\d+)\|##\*/`)

// FormatMarker returns the marker for a 1-based source position in the
// source with the given index.
func FormatMarker(index, line, col int) string {
	return fmt.Sprintf("/*##|%d,%d,%d|##*/", index, line, col)
}

type Options struct {
	// ScriptFileName is the generated file, only its base name is kept.
	ScriptFileName string
	SourceRoot     string
	// ProjectRoot is stripped from source paths.
	ProjectRoot string
	// SourceFiles are the paths marker indices refer to.
	SourceFiles []string
	// Names are symbol names carried in the document.
	Names []string
	// Fs, when set, is read for sourcesContent.
	Fs afero.Fs
}

type Result struct {
	// Content is the stripped text with the map trailer appended.
	Content  string
	Document *Document
	Markers  int
}

// Generate strips every marker from content and returns the text with its
// source map attached.
//
// A marker's generated position is where it sits once every earlier marker is
// gone. The cursor only ever advances over stripped text, so the position of
// marker n is the position of marker n-1 plus the text between them, and the
// text offset is the raw offset minus the bytes already removed.
func Generate(ctx context.Context, content string, opts Options) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	b := NewBuilder(filepath.Base(opts.ScriptFileName), opts.SourceRoot)
	for _, name := range opts.Names {
		b.AddName(name)
	}

	// rebased path -> path as given, for reading contents
	origin := make(map[string]string)

	var (
		out     strings.Builder
		cursor  = position.NewCursor()
		last    int
		removed int
		markers = markerRegexp.FindAllStringSubmatchIndex(content, -1)
	)
	out.Grow(len(content))

	for _, m := range markers {
		chunk := content[last:m[0]]
		out.WriteString(chunk)
		cursor.Advance(chunk)

		if cursor.Offset() != m[0]-removed {
			return nil, errors.Errorf("%w: marker at byte %d resolved to %d", ErrDesynchronized, m[0], cursor.Offset())
		}

		marker := content[m[0]:m[1]]
		index, line, col, err := parseMarker(content, m)
		if err != nil {
			return nil, err
		}
		if index >= len(opts.SourceFiles) {
			return nil, errors.Errorf("%w: marker %s names source %d of %d",
				ErrDesynchronized, marker, index, len(opts.SourceFiles))
		}

		path := opts.SourceFiles[index]
		rel := rebase(opts.ProjectRoot, path)
		origin[rel] = path

		at := cursor.Place()
		b.RecordLocation(at.Line+1, at.Character+1, rel, line, col)

		removed += m[1] - m[0]
		last = m[1]
	}
	out.WriteString(content[last:])

	var contents []string
	if opts.Fs != nil {
		for _, src := range b.Sources() {
			data, err := afero.ReadFile(opts.Fs, origin[src])
			if err != nil {
				return nil, errors.Errorf("reading source %q: %w", origin[src], err)
			}
			contents = append(contents, string(data))
		}
	}

	doc, err := b.Build(contents)
	if err != nil {
		return nil, err
	}

	code, err := AppendTrailer(out.String(), doc)
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Str("file", doc.File).
		Int("markers", len(markers)).
		Int("sources", len(doc.Sources)).
		Str("stripped", humanize.Bytes(uint64(removed))).
		Msg("source map generated")

	return &Result{Content: code, Document: doc, Markers: len(markers)}, nil
}

func parseMarker(content string, m []int) (index, line, col int, err error) {
	var v [3]int
	for i := range v {
		group := content[m[2+2*i]:m[3+2*i]]
		v[i], err = strconv.Atoi(group)
		if err != nil {
			return 0, 0, 0, errors.Errorf("%w: marker %s: %s", ErrDesynchronized, content[m[0]:m[1]], err.Error())
		}
	}
	return v[0], v[1], v[2], nil
}

func rebase(root, path string) string {
	if root == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Strip removes every marker from content without building a map.
func Strip(content string) (string, int) {
	n := 0
	out := markerRegexp.ReplaceAllStringFunc(content, func(string) string {
		n++
		return ""
	})
	return out, n
}
