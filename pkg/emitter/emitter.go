// Package emitter is the translation unit of one generated file. It owns the
// frame stack and the source list, and attaches the source map at the end.
package emitter

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/jsemit/pkg/inline"
	"github.com/walteh/jsemit/pkg/output"
	"github.com/walteh/jsemit/pkg/sourcemap"
	"gitlab.com/tozd/go/errors"
)

type Options struct {
	ScriptFileName string
	ProjectRoot    string
	SourceRoot     string
	// SourceMaps enables markers and the trailer.
	SourceMaps bool
	Names      []string
	// Fs, when set, supplies sourcesContent.
	Fs         afero.Fs
	IndentUnit string
}

type Emitter struct {
	opts Options
	w    *output.Stack

	sources     []string
	sourceIndex map[string]int
	markers     int
	finished    bool
}

func New(opts Options) *Emitter {
	w := output.NewStack()
	if opts.IndentUnit != "" {
		w.SetIndentUnit(opts.IndentUnit)
	}
	return &Emitter{
		opts:        opts,
		w:           w,
		sourceIndex: make(map[string]int),
	}
}

// Output is the stack all emission writes to.
func (e *Emitter) Output() *output.Stack {
	return e.w
}

// Sources lists the source paths marked so far, in marker index order.
func (e *Emitter) Sources() []string {
	return append([]string(nil), e.sources...)
}

// Mark writes a marker for the 1-based source position. It does nothing when
// source maps are off.
func (e *Emitter) Mark(sourcePath string, line, col int) error {
	if !e.opts.SourceMaps || sourcePath == "" {
		return nil
	}

	idx, ok := e.sourceIndex[sourcePath]
	if !ok {
		idx = len(e.sources)
		e.sources = append(e.sources, sourcePath)
		e.sourceIndex[sourcePath] = idx
	}

	e.markers++
	_, err := e.w.WriteString(sourcemap.FormatMarker(idx, line, col))
	return err
}

func (e *Emitter) Inline(ctx context.Context, call *inline.Call) error {
	return inline.Expand(ctx, e.w, call)
}

func (e *Emitter) Reference(ctx context.Context, call *inline.Call) error {
	return inline.EmitReference(ctx, e.w, call)
}

func (e *Emitter) NullableReference(ctx context.Context, call *inline.Call) error {
	return inline.EmitNullableReference(ctx, e.w, call)
}

// Finish returns the generated text. The stack must be back at its root
// frame.
func (e *Emitter) Finish(ctx context.Context) (string, error) {
	if e.finished {
		return "", errors.Errorf("%s already finished", e.opts.ScriptFileName)
	}
	e.finished = true

	if d := e.w.Depth(); d != 1 {
		return "", errors.Errorf("%w: %d frames open at end of %s", output.ErrDesynchronized, d-1, e.opts.ScriptFileName)
	}

	content := e.w.String()
	if !e.opts.SourceMaps {
		return content, nil
	}

	res, err := sourcemap.Generate(ctx, content, sourcemap.Options{
		ScriptFileName: e.opts.ScriptFileName,
		SourceRoot:     e.opts.SourceRoot,
		ProjectRoot:    e.opts.ProjectRoot,
		SourceFiles:    e.sources,
		Names:          e.opts.Names,
		Fs:             e.opts.Fs,
	})
	if err != nil {
		return "", err
	}

	if res.Markers != e.markers {
		return "", errors.Errorf("%w: wrote %d markers, found %d", output.ErrDesynchronized, e.markers, res.Markers)
	}

	return res.Content, nil
}

// Translate runs fn against a fresh emitter and finishes it. On error no text
// is returned.
func Translate(ctx context.Context, opts Options, fn func(context.Context, *Emitter) error) (string, error) {
	logger := zerolog.Ctx(ctx).With().Str("file", opts.ScriptFileName).Logger()
	ctx = logger.WithContext(ctx)

	e := New(opts)
	if err := fn(ctx, e); err != nil {
		logger.Debug().Err(err).Msg("translation failed")
		return "", err
	}

	content, err := e.Finish(ctx)
	if err != nil {
		logger.Debug().Err(err).Msg("translation failed")
		return "", err
	}

	logger.Debug().Int("markers", e.markers).Int("sources", len(e.sources)).Msg("translated")
	return content, nil
}
