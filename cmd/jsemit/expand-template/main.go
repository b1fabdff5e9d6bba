package expand_template

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/editorconfig/editorconfig-core-go/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/walteh/jsemit/pkg/diagnostic"
	"github.com/walteh/jsemit/pkg/emitter"
	"github.com/walteh/jsemit/pkg/fixture"
	"gitlab.com/tozd/go/errors"
)

type Handler struct {
	mode       string
	format     string
	indent     string
	noColor    bool
	sourceMaps bool

	fs afero.Fs
	// editorconfig looks up the indentation of a path, nil skips the lookup.
	editorconfig func(path string) (*editorconfig.Definition, error)
}

func NewExpandTemplateCommand() *cobra.Command {
	me := &Handler{
		fs:           afero.NewOsFs(),
		editorconfig: editorconfig.GetDefinitionForFilename,
	}

	cmd := &cobra.Command{
		Use:   "expand-template <fixture.yaml>",
		Short: "expand the inline template of a call site described in YAML",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().StringVar(&me.mode, "mode", "", "value, reference or nullable; overrides the fixture")
	cmd.Flags().StringVar(&me.format, "format", "text", "diagnostic format on failure: text or vscode")
	cmd.Flags().StringVar(&me.indent, "indent", "", "indent unit: tab or a number of spaces; defaults to .editorconfig")
	cmd.Flags().BoolVar(&me.noColor, "no-color", false, "disable colored diagnostics")
	cmd.Flags().BoolVar(&me.sourceMaps, "source-maps", false, "mark the fixture span and attach an inline source map")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0])
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, stdout, stderr io.Writer, path string) error {
	f, err := fixture.Load(me.fs, path)
	if err != nil {
		return err
	}

	if me.mode != "" {
		mode, err := fixture.ParseMode(me.mode)
		if err != nil {
			return err
		}
		f.Mode = mode
	}

	unit, err := me.indentUnit(ctx, path)
	if err != nil {
		return err
	}

	zerolog.Ctx(ctx).Debug().Str("fixture", path).Str("mode", string(f.Mode)).Msg("expanding template")

	opts := emitter.Options{
		ScriptFileName: scriptName(path),
		SourceMaps:     me.sourceMaps,
		IndentUnit:     unit,
	}

	content, err := emitter.Translate(ctx, opts, func(ctx context.Context, e *emitter.Emitter) error {
		if span := f.Span; span != nil {
			if err := e.Mark(span.File, span.Line, max(span.Column, 1)); err != nil {
				return err
			}
		}
		return f.Emit(ctx, e.Output())
	})
	if err != nil {
		if ferr := me.report(stderr, path, err); ferr != nil {
			return ferr
		}
		return errors.Errorf("expanding %s: %w", path, err)
	}

	if _, err := fmt.Fprintln(stdout, content); err != nil {
		return errors.Errorf("writing output: %w", err)
	}
	return nil
}

// scriptName is the generated file a fixture stands for, the fixture name
// with a .js extension.
func scriptName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".js"
}

func (me *Handler) report(stderr io.Writer, path string, err error) error {
	var formatter diagnostic.Formatter
	switch me.format {
	case "vscode":
		formatter = diagnostic.NewVSCodeFormatter()
	case "text", "":
		formatter = &diagnostic.TextFormatter{WithColor: !me.noColor}
	default:
		return errors.Errorf("unknown diagnostic format %q", me.format)
	}

	data, ferr := formatter.Format(diagnostic.FromError(path, err))
	if ferr != nil {
		return ferr
	}
	_, werr := stderr.Write(data)
	return werr
}

func (me *Handler) indentUnit(ctx context.Context, path string) (string, error) {
	if me.indent != "" {
		return ParseIndent(me.indent)
	}
	if me.editorconfig == nil {
		return "", nil
	}

	def, err := me.editorconfig(path)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("path", path).Msg("reading .editorconfig")
		return "", nil
	}
	return IndentFromEditorconfig(def), nil
}

// ParseIndent reads the --indent flag.
func ParseIndent(s string) (string, error) {
	if s == "tab" {
		return "\t", nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return "", errors.Errorf("invalid indent %q: want tab or a number of spaces", s)
	}
	return strings.Repeat(" ", n), nil
}

func IndentFromEditorconfig(def *editorconfig.Definition) string {
	if def == nil {
		return ""
	}
	switch def.IndentStyle {
	case "tab":
		return "\t"
	case "space":
		if n, err := strconv.Atoi(def.IndentSize); err == nil && n > 0 {
			return strings.Repeat(" ", n)
		}
	}
	return ""
}
