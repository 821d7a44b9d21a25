/*
Copyright 2025 Lumina Contributors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Main entrypoint for the cloudcash CLI.
//
// Coverage: Excluded - main entrypoints are tested via the internal/app suite

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nextdoor/cloudcash/internal/app"
	"github.com/nextdoor/cloudcash/pkg/aws"
	"github.com/nextdoor/cloudcash/pkg/config"
	"github.com/nextdoor/cloudcash/pkg/metrics"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// flags holds the command-line options shared by every command.
type flags struct {
	configPath    string
	constantsPath string
	output        string
	metricsFile   string
	cacheDir      string
	logLevel      string
	logFormat     string
	progress      bool
}

// coverage:ignore - main entrypoint
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	f := &flags{}

	rootCmd := &cobra.Command{
		Use:   "cloudcash",
		Short: "Reconcile EC2 instances against Reserved Instances and price the fleet",
		Long: `cloudcash lists the running EC2 instances and active Reserved Instances of
every configured account, matches instances to reservations, prices each
instance from the EC2 pricing catalog and writes a monthly cost statement
showing the savings further reservations would bring.

Examples:
  cloudcash --config settings.yaml
  cloudcash --config settings.yaml --output statement.html --progress
  cloudcash validate --config settings.yaml`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatement(cmd, f)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "settings.yaml", "path to the settings file")
	pf.StringVar(&f.constantsPath, "constants", "", "path to a constants file (default: built-in constants)")
	pf.StringVarP(&f.output, "output", "o", "", "path of the HTML statement (default: bill.html)")
	pf.StringVar(&f.metricsFile, "metrics-file", "", "write run metrics to this file in Prometheus text format")
	pf.StringVar(&f.cacheDir, "cache-dir", "", "directory for downloaded pricing documents (default: cache)")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error (default: info)")
	pf.StringVar(&f.logFormat, "log-format", "console", "log format: console or json")
	rootCmd.Flags().BoolVar(&f.progress, "progress", false, "show a progress spinner while scanning")

	rootCmd.AddCommand(newValidateCommand(f), newVersionCommand())
	return rootCmd
}

func newValidateCommand(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:          "validate",
		Short:        "Check that every configured account can be reached",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, sync, err := setup(cmd, f)
			if err != nil {
				return err
			}
			defer sync()

			ctx := cmd.Context()
			client, err := aws.NewClient(ctx, aws.ClientConfig{DefaultRegion: cfg.DefaultRegion})
			if err != nil {
				return fmt.Errorf("failed to create AWS client: %w", err)
			}

			reg := prometheus.NewRegistry()
			m := metrics.NewMetrics(reg)
			err = app.ValidateAccounts(ctx, cfg, aws.NewAccountValidator(client), m, log)
			if cfg.MetricsFile != "" {
				if werr := metrics.WriteToTextfile(cfg.MetricsFile, reg); werr != nil {
					log.Error(werr, "failed to write metrics file", "path", cfg.MetricsFile)
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d accounts validated\n", len(cfg.Accounts))
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cloudcash version %s\n", version)
		},
	}
}

func runStatement(cmd *cobra.Command, f *flags) error {
	cfg, log, sync, err := setup(cmd, f)
	if err != nil {
		return err
	}
	defer sync()

	runID := uuid.NewString()
	opts := app.Options{
		Stdout: cmd.OutOrStdout(),
		RunID:  runID,
		Log:    log,
	}

	if f.progress {
		s := spinner.New(spinner.CharSets[9], 200*time.Millisecond, spinner.WithWriter(os.Stderr))
		s.Suffix = " Loading pricing catalog ..."
		s.Start()
		defer s.Stop()
		opts.Progress = func(account, region string) {
			s.Lock()
			s.Suffix = fmt.Sprintf(" Scanning %s in %s ...", account, region)
			s.Unlock()
		}
	}

	if _, err := app.Run(cmd.Context(), cfg, opts); err != nil {
		log.Error(err, "run failed")
		return err
	}
	return nil
}

// setup loads the settings, applies command-line overrides and builds the
// logger. The returned func flushes the logger.
func setup(cmd *cobra.Command, f *flags) (*config.Config, logr.Logger, func(), error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, logr.Discard(), func() {}, err
	}

	flagSet := cmd.Flags()
	if flagSet.Changed("constants") {
		cfg.ConstantsFile = f.constantsPath
	}
	if flagSet.Changed("output") {
		cfg.Output = f.output
	}
	if flagSet.Changed("metrics-file") {
		cfg.MetricsFile = f.metricsFile
	}
	if flagSet.Changed("cache-dir") {
		cfg.CacheDir = f.cacheDir
	}
	if flagSet.Changed("log-level") {
		cfg.LogLevel = f.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, logr.Discard(), func() {}, fmt.Errorf("invalid configuration: %w", err)
		}
	}

	zapLog, err := newZapLogger(cfg.LogLevel, f.logFormat)
	if err != nil {
		return nil, logr.Discard(), func() {}, err
	}
	return cfg, zapr.NewLogger(zapLog), func() { _ = zapLog.Sync() }, nil
}

// newZapLogger builds the zap logger backing logr. Debug level enables the
// V(1) per-item diagnostics.
func newZapLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch format {
	case "console":
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("invalid log format %q: must be console or json", format)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), lvl)
	return zap.New(core), nil
}
