package commands

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gitlab.com/tozd/go/errors"

	"github.com/ElonVolo/evcodeshift/cmd/evcodeshift/opts"
	"github.com/ElonVolo/evcodeshift/pkg/config"
	"github.com/ElonVolo/evcodeshift/pkg/controller"
	"github.com/ElonVolo/evcodeshift/pkg/log"
	"github.com/ElonVolo/evcodeshift/pkg/metrics"
	"github.com/ElonVolo/evcodeshift/pkg/status"
)

// runFlags are the run command flags; each one overrides the config field
// of the same name when set
type runFlags struct {
	transform   string
	dialect     string
	parser      string
	dry         bool
	print       bool
	workers     int
	chunkSize   int
	include     []string
	ignore      []string
	extensions  []string
	options     map[string]string
	metricsAddr string

	verbose     bool
	inProcess   bool
	failOnError bool
}

// NewRunCmd creates the run command
func NewRunCmd(root *opts.RootOpts) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Apply a transform to files and directories",
		Long: `Run discovers the files below the given paths, splits them into batches and
hands the batches to workers. Each file ends up ok (rewritten), unchanged,
skipped or failed; a summary is printed at the end.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "run").Logger().WithContext(cmd.Context())

			cfg, err := loadConfig(ctx, root.ConfigFile)
			if err != nil {
				return err
			}
			if err := config.ApplyEnv(cfg); err != nil {
				return err
			}
			flags.apply(cmd.Flags(), cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			return run(ctx, cmd, cfg, flags, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.transform, "transform", "t", "", "built-in transform name or path to a transform executable or rules file")
	f.StringVar(&flags.dialect, "dialect", "", `how the transform is loaded: "" (native), "go" or "rules"`)
	f.StringVar(&flags.parser, "parser", "", "parser handed to the transform, overriding its own preference")
	f.BoolVar(&flags.dry, "dry", false, "do not write files, report statistics instead")
	f.BoolVarP(&flags.print, "print", "p", false, "print transformed sources to stdout")
	f.IntVarP(&flags.workers, "workers", "w", 0, "number of workers (default: cpus - 1)")
	f.IntVar(&flags.chunkSize, "chunk-size", 0, "files per batch")
	f.StringSliceVar(&flags.include, "include", nil, "globs selecting files below directories")
	f.StringSliceVar(&flags.ignore, "ignore", nil, "globs of files to leave alone")
	f.StringSliceVar(&flags.extensions, "extensions", nil, "file extensions to process, without the dot")
	f.StringToStringVarP(&flags.options, "option", "o", nil, "key=value options passed to the transform")
	f.StringVar(&flags.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while running")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "also list unchanged and skipped files")
	f.BoolVar(&flags.inProcess, "in-process", false, "run workers inside this process")
	f.BoolVar(&flags.failOnError, "fail-on-error", false, "exit non-zero when any file failed")

	return cmd
}

// loadConfig loads path, or the config found in the working directory. No
// config at all is fine, flags can carry everything.
func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Errorf("getting working directory: %w", err)
		}
		found, ok := config.Find(wd)
		if !ok {
			zerolog.Ctx(ctx).Debug().Str("dir", wd).Msg("no config file found")
			return &config.Config{}, nil
		}
		path = found
	}
	return config.Load(ctx, path)
}

func (f *runFlags) apply(set *pflag.FlagSet, cfg *config.Config) {
	if set.Changed("transform") {
		cfg.Transform = f.transform
	}
	if set.Changed("dialect") {
		cfg.Dialect = f.dialect
	}
	if set.Changed("parser") {
		cfg.Parser = f.parser
	}
	if set.Changed("dry") {
		cfg.Dry = f.dry
	}
	if set.Changed("print") {
		cfg.Print = f.print
	}
	if set.Changed("workers") {
		cfg.Workers = f.workers
	}
	if set.Changed("chunk-size") {
		cfg.ChunkSize = f.chunkSize
	}
	if set.Changed("include") {
		cfg.Include = f.include
	}
	if set.Changed("ignore") {
		cfg.Ignore = f.ignore
	}
	if set.Changed("extensions") {
		cfg.Extensions = f.extensions
	}
	if set.Changed("metrics-addr") {
		cfg.MetricsAddr = f.metricsAddr
	}
	if len(f.options) > 0 {
		if cfg.Options == nil {
			cfg.Options = map[string]any{}
		}
		for k, v := range f.options {
			cfg.Options[k] = v
		}
	}
}

func run(ctx context.Context, cmd *cobra.Command, cfg *config.Config, flags *runFlags, roots []string) error {
	logger := zerolog.Ctx(ctx)
	console := log.New(cmd.OutOrStdout(), *logger).WithVerbose(flags.verbose)
	ctx = log.NewContext(ctx, console)

	files, err := controller.Discover(ctx, roots, controller.Filter{
		Include:    cfg.Include,
		Ignore:     cfg.Ignore,
		Extensions: cfg.Extensions,
	})
	if err != nil {
		return errors.Errorf("discovering files: %w", err)
	}

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		addr, err := m.Serve(ctx, cfg.MetricsAddr)
		if err != nil {
			return errors.Errorf("serving metrics: %w", err)
		}
		logger.Info().Str("addr", addr.String()).Msg("serving metrics")
	}

	console.StartRun(ctx, log.RunOperation{
		Transform: cfg.Transform,
		Dialect:   cfg.Dialect,
		Files:     len(files),
		Workers:   cfg.Workers,
		Dry:       cfg.Dry,
	})

	ctrl := controller.New(controller.Options{
		Transform: cfg.Transform,
		Dialect:   cfg.Dialect,
		Workers:   cfg.Workers,
		ChunkSize: cfg.ChunkSize,
		Batch:     cfg.BatchOptions(),
		InProcess: flags.inProcess,
		Stdout:    cmd.OutOrStdout(),
		OnEvent: func(ev status.Event) {
			console.LogEvent(ctx, ev)
			m.Observe(ev)
		},
	})

	summary, err := ctrl.Run(ctx, files)
	m.ObserveRun(summary.Elapsed)
	console.EndRun(ctx, summary)
	if err != nil {
		console.Error(err)
		return errors.Errorf("running %s: %w", cfg.Transform, err)
	}

	if flags.failOnError && summary.Error > 0 {
		return errors.Errorf("%d of %d files failed", summary.Error, summary.Total())
	}
	return nil
}
