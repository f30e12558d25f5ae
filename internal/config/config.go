// Package config holds generator settings read from flowgen.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the project root when no path is given.
const DefaultFile = "flowgen.yaml"

// Config is the full generator configuration.
type Config struct {
	OutDir        string   `yaml:"out_dir"`
	SharedTypes   string   `yaml:"shared_types"`
	SpecsFilename string   `yaml:"specs_filename"`
	Formatter     string   `yaml:"formatter"`
	PrettierBin   string   `yaml:"prettier_bin"`
	Concurrency   int      `yaml:"concurrency"`
	LogLevel      string   `yaml:"log_level"`
	Flows         []string `yaml:"flows"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() Config {
	return Config{
		OutDir:        "src/domain/flows",
		SharedTypes:   "src/domain/shared/types.ts",
		SpecsFilename: "decide.specs.ts",
		Formatter:     "whitespace",
		PrettierBin:   "prettier",
		Concurrency:   8,
		LogLevel:      "info",
	}
}

var (
	formatters     = []string{"none", "whitespace", "prettier"}
	specsFilenames = []string{"decide.specs.ts", "specs.ts"}
	logLevels      = []string{"debug", "info", "warn", "error"}
)

// Load reads path over Defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, leaving unset keys untouched.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing yaml: %w", err)
	}
	return nil
}

// Validate rejects settings the generator cannot honor.
func (c Config) Validate() error {
	var errs []error
	if c.OutDir == "" {
		errs = append(errs, errors.New("out_dir must not be empty"))
	}
	if c.SharedTypes == "" {
		errs = append(errs, errors.New("shared_types must not be empty"))
	}
	if !slices.Contains(formatters, c.Formatter) {
		errs = append(errs, fmt.Errorf("formatter %q: want one of %v", c.Formatter, formatters))
	}
	if !slices.Contains(specsFilenames, c.SpecsFilename) {
		errs = append(errs, fmt.Errorf("specs_filename %q: want one of %v", c.SpecsFilename, specsFilenames))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be positive, got %d", c.Concurrency))
	}
	if !slices.Contains(logLevels, c.LogLevel) {
		errs = append(errs, fmt.Errorf("log_level %q: want one of %v", c.LogLevel, logLevels))
	}
	return errors.Join(errs...)
}

// Includes reports whether flow passes the flow allow-list.
func (c Config) Includes(flow string) bool {
	return len(c.Flows) == 0 || slices.Contains(c.Flows, flow)
}
