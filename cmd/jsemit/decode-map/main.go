package decode_map

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/walteh/jsemit/pkg/position"
	"github.com/walteh/jsemit/pkg/sourcemap"
	"gitlab.com/tozd/go/errors"
)

type Handler struct {
	json bool

	fs afero.Fs
}

func NewDecodeMapCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "decode-map <file.js>",
		Short: "print the inline source map of a generated file",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().BoolVar(&me.json, "json", false, "print the source map document instead of a table")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context(), cmd.OutOrStdout(), args[0])
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, stdout io.Writer, path string) error {
	data, err := afero.ReadFile(me.fs, path)
	if err != nil {
		return errors.Errorf("reading %s: %w", path, err)
	}

	_, doc, err := sourcemap.ParseTrailer(string(data))
	if err != nil {
		return errors.Errorf("%s: %w", path, err)
	}

	if me.json {
		out, err := doc.Marshal()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(stdout, string(out)); err != nil {
			return errors.Errorf("writing document: %w", err)
		}
		return nil
	}

	mappings, err := doc.Decode()
	if err != nil {
		return errors.Errorf("%s: %w", path, err)
	}

	zerolog.Ctx(ctx).Debug().Str("file", path).Int("mappings", len(mappings)).Msg("decoded source map")

	if _, err := io.WriteString(stdout, render(doc, mappings)+"\n"); err != nil {
		return errors.Errorf("writing mappings: %w", err)
	}
	return nil
}

// render lists mappings with 1-based lines and 0-based columns, the way
// editors report them.
func render(doc *sourcemap.Document, mappings []sourcemap.Mapping) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false

	tbl.SetTitle(doc.File)
	tbl.AppendHeader(table.Row{"generated", "source", "original", "name"})

	for _, m := range mappings {
		generated := position.Place{Line: m.GeneratedLine, Character: m.GeneratedColumn}.String()
		if m.SourceIndex < 0 || m.SourceIndex >= len(doc.Sources) {
			tbl.AppendRow(table.Row{generated, "-", "-", "-"})
			continue
		}

		name := "-"
		if m.NameIndex >= 0 && m.NameIndex < len(doc.Names) {
			name = doc.Names[m.NameIndex]
		}

		tbl.AppendRow(table.Row{
			generated,
			doc.Sources[m.SourceIndex],
			position.Place{Line: m.SourceLine, Character: m.SourceColumn}.String(),
			name,
		})
	}

	return tbl.Render()
}
