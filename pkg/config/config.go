package config

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// FileNames are looked up, in order, by Discover.
var FileNames = []string{"jsemit.yaml", "jsemit.yml", "jsemit.hcl"}

var ErrNotFound = errors.Base("no jsemit config found")

// Config describes one project whose generated files get source maps.
type Config struct {
	// ProjectRoot is stripped from source paths. Relative to the config file.
	ProjectRoot string `yaml:"project_root,omitempty" hcl:"project_root,optional"`
	SourceRoot  string `yaml:"source_root,omitempty" hcl:"source_root,optional"`
	// Sources are the files marker indices refer to, relative to ProjectRoot.
	Sources []string `yaml:"sources,omitempty" hcl:"sources,optional"`
	Names   []string `yaml:"names,omitempty" hcl:"names,optional"`

	SourceMaps          *bool  `yaml:"source_maps,omitempty" hcl:"source_maps,optional"`
	EmbedSourcesContent bool   `yaml:"embed_sources_content,omitempty" hcl:"embed_sources_content,optional"`
	// LogLevel applies when no --log-level flag is given. Empty keeps the
	// CLI default.
	LogLevel            string `yaml:"log_level,omitempty" hcl:"log_level,optional"`

	Output *OutputBlock `yaml:"output,omitempty" hcl:"output,block"`

	// dir holds the config file, empty for Default.
	dir string
}

type OutputBlock struct {
	// Dir receives the rewritten files, empty rewrites them in place.
	Dir string `yaml:"dir,omitempty" hcl:"dir,optional"`
	// Suffix is inserted before the extension of every output file.
	Suffix string `yaml:"suffix,omitempty" hcl:"suffix,optional"`
}

func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Discover finds the first of FileNames in dir.
func Discover(fs afero.Fs, dir string) (string, error) {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		ok, err := afero.Exists(fs, p)
		if err != nil {
			return "", errors.Errorf("checking %s: %w", p, err)
		}
		if ok {
			return p, nil
		}
	}
	return "", errors.Errorf("%w in %s", ErrNotFound, dir)
}

// Load reads a YAML (.yaml, .yml) or HCL config file.
func Load(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	var cfg *Config
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		cfg, err = decodeYAML(data)
	} else {
		cfg, err = decodeHCL(data, path)
	}
	if err != nil {
		return nil, err
	}

	if _, err := cfg.Level(); err != nil {
		return nil, errors.Errorf("%s: %w", path, err)
	}

	cfg.dir = filepath.Dir(path)
	cfg.applyDefaults()
	return cfg, nil
}

func decodeYAML(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &cfg, nil
}

func decodeHCL(data []byte, path string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		abs = filepath.Dir(path)
	}

	ctx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"config_dir": cty.StringVal(filepath.ToSlash(abs)),
		},
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, ctx, &cfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.SourceMaps == nil {
		on := true
		c.SourceMaps = &on
	}
	if c.Output == nil {
		c.Output = &OutputBlock{}
	}
	if c.Output.Dir != "" && !filepath.IsAbs(c.Output.Dir) && c.dir != "" {
		c.Output.Dir = filepath.Join(c.dir, c.Output.Dir)
	}

	switch {
	case c.ProjectRoot == "":
		c.ProjectRoot = c.dir
	case !filepath.IsAbs(c.ProjectRoot) && c.dir != "":
		c.ProjectRoot = filepath.Join(c.dir, c.ProjectRoot)
	}
}

// Level parses LogLevel. An empty LogLevel is zerolog.NoLevel.
func (c *Config) Level() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, errors.Errorf("log_level: %w", err)
	}
	return level, nil
}

func (c *Config) SourceMapsEnabled() bool {
	return c.SourceMaps != nil && *c.SourceMaps
}

// SourcePaths resolves Sources against ProjectRoot.
func (c *Config) SourcePaths() []string {
	out := make([]string, 0, len(c.Sources))
	for _, s := range c.Sources {
		if filepath.IsAbs(s) {
			out = append(out, s)
			continue
		}
		out = append(out, filepath.Join(c.ProjectRoot, s))
	}
	return out
}

// OutputPath is where the rewritten form of file goes.
func (c *Config) OutputPath(file string) string {
	out := file
	if c.Output.Suffix != "" {
		ext := filepath.Ext(out)
		out = strings.TrimSuffix(out, ext) + c.Output.Suffix + ext
	}
	if c.Output.Dir != "" {
		out = filepath.Join(c.Output.Dir, filepath.Base(out))
	}
	return out
}
