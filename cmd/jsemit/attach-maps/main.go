package attach_maps

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/walteh/jsemit/pkg/config"
	"github.com/walteh/jsemit/pkg/diagnostic"
	"github.com/walteh/jsemit/pkg/sourcemap"
	"go.uber.org/multierr"
	"gitlab.com/tozd/go/errors"
)

type Handler struct {
	configPath string
	outDir     string
	dryRun     bool
	noColor    bool
	// levelFlag is set when --log-level was given, which wins over the config.
	levelFlag  bool

	fs  afero.Fs
	dir string
}

func NewAttachMapsCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "attach-maps <glob>...",
		Short: "strip source markers from generated files and attach inline source maps",
		Args:  cobra.MinimumNArgs(1),
	}

	cmd.Flags().StringVar(&me.configPath, "config", "", "config file (default: jsemit.yaml, jsemit.yml or jsemit.hcl in the working directory)")
	cmd.Flags().StringVar(&me.outDir, "out", "", "write results to this directory instead of the configured output")
	cmd.Flags().BoolVar(&me.dryRun, "dry-run", false, "report what would be written")
	cmd.Flags().BoolVar(&me.noColor, "no-color", false, "disable colored diagnostics")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.levelFlag = cmd.Flags().Changed("log-level")
		if me.dir == "" {
			wd, err := os.Getwd()
			if err != nil {
				return errors.Errorf("getting working directory: %w", err)
			}
			me.dir = wd
		}
		return me.Run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args)
	}

	return cmd
}

type fileResult struct {
	path    string
	out     string
	markers int
	sources int
	before  int
	after   int
}

func (me *Handler) Run(ctx context.Context, stdout, stderr io.Writer, patterns []string) error {
	cfg, err := me.loadConfig()
	if err != nil {
		return err
	}

	ctx, err = me.withConfigLevel(ctx, cfg)
	if err != nil {
		return err
	}
	logger := zerolog.Ctx(ctx)
	if me.outDir != "" {
		cfg.Output.Dir = me.absolute(me.outDir)
	}

	files, err := me.glob(patterns)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.Errorf("no files match %v", patterns)
	}

	logger.Debug().Strs("files", files).Str("project_root", cfg.ProjectRoot).Msg("attaching source maps")

	var (
		errs    error
		results []fileResult
	)
	for _, file := range files {
		res, err := me.attach(ctx, cfg, file)
		if err != nil {
			errs = multierr.Append(errs, errors.Errorf("%s: %w", file, err))
			if ferr := me.report(stderr, file, err); ferr != nil {
				return ferr
			}
			continue
		}
		results = append(results, *res)
	}

	if err := me.summary(stdout, results); err != nil {
		return err
	}

	return errs
}

func (me *Handler) loadConfig() (*config.Config, error) {
	path := me.configPath
	if path == "" {
		found, err := config.Discover(me.fs, me.dir)
		if errors.Is(err, config.ErrNotFound) {
			cfg := config.Default()
			cfg.ProjectRoot = me.dir
			return cfg, nil
		}
		if err != nil {
			return nil, err
		}
		path = found
	}

	cfg, err := config.Load(me.fs, me.absolute(path))
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func (me *Handler) withConfigLevel(ctx context.Context, cfg *config.Config) (context.Context, error) {
	if me.levelFlag || cfg.LogLevel == "" {
		return ctx, nil
	}
	level, err := cfg.Level()
	if err != nil {
		return ctx, err
	}
	logger := zerolog.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		return ctx, nil
	}
	return logger.Level(level).WithContext(ctx), nil
}

func (me *Handler) absolute(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(me.dir, path)
}

// glob expands patterns relative to the working directory. Results are
// sorted and unique.
func (me *Handler) glob(patterns []string) ([]string, error) {
	fsys := afero.NewIOFS(afero.NewBasePathFs(me.fs, me.dir))

	seen := make(map[string]bool)
	var out []string
	for _, pattern := range patterns {
		if filepath.IsAbs(pattern) {
			rel, err := filepath.Rel(me.dir, pattern)
			if err != nil {
				return nil, errors.Errorf("pattern %q: %w", pattern, err)
			}
			pattern = rel
		}

		matches, err := doublestar.Glob(fsys, filepath.ToSlash(pattern))
		if err != nil {
			return nil, errors.Errorf("pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			p := filepath.Join(me.dir, filepath.FromSlash(m))
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}

	sort.Strings(out)
	return out, nil
}

func (me *Handler) attach(ctx context.Context, cfg *config.Config, file string) (*fileResult, error) {
	data, err := afero.ReadFile(me.fs, file)
	if err != nil {
		return nil, errors.Errorf("reading: %w", err)
	}
	content := string(data)

	res := &fileResult{path: file, out: cfg.OutputPath(file), before: len(content)}

	var code string
	if cfg.SourceMapsEnabled() {
		opts := sourcemap.Options{
			ScriptFileName: file,
			SourceRoot:     cfg.SourceRoot,
			ProjectRoot:    cfg.ProjectRoot,
			SourceFiles:    cfg.SourcePaths(),
			Names:          cfg.Names,
		}
		if cfg.EmbedSourcesContent {
			opts.Fs = me.fs
		}

		gen, err := sourcemap.Generate(ctx, content, opts)
		if err != nil {
			return nil, err
		}
		code = gen.Content
		res.markers = gen.Markers
		res.sources = len(gen.Document.Sources)
	} else {
		code, res.markers = sourcemap.Strip(content)
	}
	res.after = len(code)

	zerolog.Ctx(ctx).Info().
		Str("file", file).
		Str("out", res.out).
		Int("markers", res.markers).
		Str("size", humanize.Bytes(uint64(res.after))).
		Msg("source map attached")

	if me.dryRun {
		return res, nil
	}

	if err := me.fs.MkdirAll(filepath.Dir(res.out), 0o755); err != nil {
		return nil, errors.Errorf("creating output directory: %w", err)
	}
	if err := afero.WriteFile(me.fs, res.out, []byte(code), 0o644); err != nil {
		return nil, errors.Errorf("writing %s: %w", res.out, err)
	}
	return res, nil
}

func (me *Handler) report(stderr io.Writer, file string, err error) error {
	formatter := &diagnostic.TextFormatter{WithColor: !me.noColor}
	data, ferr := formatter.Format(diagnostic.FromError(file, err))
	if ferr != nil {
		return ferr
	}
	_, werr := stderr.Write(data)
	return werr
}

func (me *Handler) summary(stdout io.Writer, results []fileResult) error {
	if len(results) == 0 {
		return nil
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false

	tbl.AppendHeader(table.Row{"file", "output", "markers", "sources", "before", "after"})
	for _, r := range results {
		tbl.AppendRow(table.Row{
			me.relative(r.path),
			me.relative(r.out),
			r.markers,
			r.sources,
			humanize.Bytes(uint64(r.before)),
			humanize.Bytes(uint64(r.after)),
		})
	}

	if _, err := io.WriteString(stdout, tbl.Render()+"\n"); err != nil {
		return errors.Errorf("writing summary: %w", err)
	}
	return nil
}

func (me *Handler) relative(path string) string {
	if rel, err := filepath.Rel(me.dir, path); err == nil {
		return rel
	}
	return path
}
