// Command flowgen scaffolds event-sourced TypeScript slices from a flow model.
//
//	flowgen generate model.json   write every planned file
//	flowgen plan model.cue        print the file plan without writing
//	flowgen enums model.yaml      print the synthesized shared enums
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/matthewbaird/flowgen/internal/config"
	"github.com/matthewbaird/flowgen/internal/eventbus"
	"github.com/matthewbaird/flowgen/internal/format"
	"github.com/matthewbaird/flowgen/internal/generator"
	"github.com/matthewbaird/flowgen/internal/loader"
	"github.com/matthewbaird/flowgen/internal/plan"
)

var rootCmd = &cobra.Command{
	Use:   "flowgen",
	Short: "Scaffold event-sourced TypeScript slices from a flow model",
	Long: `flowgen reads a flow model (JSON, YAML or CUE) describing command, query and
react slices with given/when/then examples, and writes Emmett command handlers,
deciders, projections, reactors, GraphQL resolvers and their specs.

Settings come from flowgen.yaml in the project root, overridden by flags and
FLOWGEN_* environment variables (a .env file is honored).`,
	SilenceUsage: true,
}

func main() {
	_ = godotenv.Load()
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	rootCmd.AddCommand(generateCmd(), planCmd(), enumsCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("FLOWGEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	f := rootCmd.PersistentFlags()
	f.String("root", "", "project root (default: nearest dir with flowgen.yaml, package.json or .git)")
	f.StringP("config", "c", "", "config file (default: <root>/flowgen.yaml)")
	f.String("out-dir", "", "slice output directory, relative to the root")
	f.String("shared-types", "", "shared types module, relative to the root")
	f.String("specs-filename", "", "command slice spec file name (decide.specs.ts or specs.ts)")
	f.String("formatter", "", "formatter: none, whitespace or prettier")
	f.String("prettier-bin", "", "prettier executable")
	f.Int("concurrency", 0, "slices rendered in parallel")
	f.String("log-level", "", "debug, info, warn or error")
	f.StringSlice("flow", nil, "only render these flows (repeatable)")
	f.String("path", "", "CUE path of the document inside the model")
	for _, name := range []string{
		"root", "config", "out-dir", "shared-types", "specs-filename", "formatter",
		"prettier-bin", "concurrency", "log-level", "flow", "path",
	} {
		_ = viper.BindPFlag(name, f.Lookup(name))
	}
}

func generateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate <model>",
		Short: "Render every slice and write the files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRun(cmd.Context(), args[0], func(env *runEnv, res *generator.Result) error {
				if err := (plan.DirWriter{Root: env.root}).Write(res.Files); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d files (%d new enums)\n", len(res.Files), len(res.NewEnums))
				return nil
			})
		},
	}
}

func planCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <model>",
		Short: "Print the file plan without writing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRun(cmd.Context(), args[0], func(_ *runEnv, res *generator.Result) error {
				renderPlan(cmd.OutOrStdout(), res.Files)
				return nil
			})
		},
	}
}

func enumsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enums <model>",
		Short: "Print the shared enums derived from the model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRun(cmd.Context(), args[0], func(_ *runEnv, res *generator.Result) error {
				renderEnums(cmd.OutOrStdout(), res.Enums, res.NewEnums)
				return nil
			})
		},
	}
}

type runEnv struct {
	root   string
	cfg    config.Config
	logger *slog.Logger
}

// withRun loads settings and the model, generates the plan and hands it to fn.
// The event bus is drained before withRun returns.
func withRun(ctx context.Context, modelPath string, fn func(*runEnv, *generator.Result) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	env, err := setup()
	if err != nil {
		return err
	}

	doc, err := loader.Load(modelPath, loader.Options{Path: viper.GetString("path")})
	if err != nil {
		return err
	}

	formatter, err := format.New(env.cfg.Formatter, env.cfg.PrettierBin)
	if err != nil {
		return err
	}

	bus := eventbus.New(0, env.logger)
	counter := eventbus.NewCounterConsumer()
	bus.Subscribe("log", eventbus.NewLogConsumer(env.logger))
	bus.Subscribe("counter", counter)
	busCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	bus.Start(busCtx)

	sharedTypes, err := relativeTo(env.root, env.cfg.SharedTypes)
	if err != nil {
		bus.Stop()
		return err
	}
	gen := generator.New(generator.Options{
		OutDir:        env.cfg.OutDir,
		SharedTypes:   sharedTypes,
		SpecsFilename: env.cfg.SpecsFilename,
		Concurrency:   env.cfg.Concurrency,
		Flows:         env.cfg,
	}, formatter, os.DirFS(env.root), bus, env.logger)

	res, err := gen.Generate(ctx, doc)
	bus.Stop()
	if dropped := bus.Dropped(); dropped > 0 {
		env.logger.Warn("progress events dropped", "count", dropped)
	}
	if err != nil {
		return err
	}
	env.logger.Debug("run summary",
		"slices", counter.Count(eventbus.SliceRendered),
		"files", counter.Count(eventbus.FilePlanned))
	return fn(env, res)
}

// setup resolves the project root, reads flowgen.yaml and applies flag and
// environment overrides.
func setup() (*runEnv, error) {
	root := viper.GetString("root")
	if root == "" {
		var err error
		if root, err = findProjectRoot(); err != nil {
			return nil, err
		}
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	cfgPath := viper.GetString("config")
	if cfgPath == "" {
		cfgPath = filepath.Join(root, config.DefaultFile)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	applyOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)
	return &runEnv{root: root, cfg: cfg, logger: logger}, nil
}

func applyOverrides(cfg *config.Config) {
	if viper.IsSet("out-dir") {
		cfg.OutDir = viper.GetString("out-dir")
	}
	if viper.IsSet("shared-types") {
		cfg.SharedTypes = viper.GetString("shared-types")
	}
	if viper.IsSet("specs-filename") {
		cfg.SpecsFilename = viper.GetString("specs-filename")
	}
	if viper.IsSet("formatter") {
		cfg.Formatter = viper.GetString("formatter")
	}
	if viper.IsSet("prettier-bin") {
		cfg.PrettierBin = viper.GetString("prettier-bin")
	}
	if viper.IsSet("concurrency") {
		cfg.Concurrency = viper.GetInt("concurrency")
	}
	if viper.IsSet("log-level") {
		cfg.LogLevel = viper.GetString("log-level")
	}
	if viper.IsSet("flow") {
		cfg.Flows = viper.GetStringSlice("flow")
	}
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// relativeTo turns p into a slash path under root, which is how the
// generator addresses the existing-files FS.
func relativeTo(root, p string) (string, error) {
	if !filepath.IsAbs(p) {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}
	rel, err := filepath.Rel(root, p)
	if err != nil || !fs.ValidPath(filepath.ToSlash(rel)) {
		return "", fmt.Errorf("shared types module %s is outside the project root %s", p, root)
	}
	return filepath.ToSlash(rel), nil
}

var rootMarkers = []string{config.DefaultFile, "package.json", ".git"}

func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		for _, m := range rootMarkers {
			if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("no project root found (looked for flowgen.yaml, package.json, .git)")
		}
		dir = parent
	}
}
