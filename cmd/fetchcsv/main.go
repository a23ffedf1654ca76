package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/fetchcsv/internal/pipeline"
	"github.com/ajitpratap0/fetchcsv/pkg/config"
	nerrors "github.com/ajitpratap0/fetchcsv/pkg/errors"
	"github.com/ajitpratap0/fetchcsv/pkg/logger"
	"github.com/ajitpratap0/fetchcsv/pkg/metrics"
	"github.com/ajitpratap0/fetchcsv/pkg/observability"
)

var version = "dev"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	exitCode := 0

	root := &cobra.Command{
		Use:   "fetchcsv",
		Short: "Fetch JSON from a URL and save it as CSV",
		Long: `fetchcsv fetches a JSON document over HTTP(S), normalizes it into rows and
writes the rows to a CSV file with a sorted header.

Example:
  fetchcsv --url https://api.example.com/items --out data/items.csv --max-rows 100`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configFile, _ := cmd.Flags().GetString(config.FlagConfig)
			cfg, err := config.Resolve(cmd.Flags(), configFile)
			if err != nil {
				return err
			}
			exitCode, err = runPipeline(ctx, cfg, stdout, stderr)
			return err
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	config.RegisterFlags(root.PersistentFlags())

	// Version command
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(stdout, "fetchcsv %s\n", version)
			fmt.Fprintf(stdout, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(stdout, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	// Config command prints the resolved configuration without fetching
	root.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			configFile, _ := cmd.Flags().GetString(config.FlagConfig)
			cfg, err := config.Resolve(cmd.Flags(), configFile)
			if err != nil {
				return err
			}
			data, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = stdout.Write(data)
			return err
		},
	})

	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "ERROR: %s\n", err)
		return 1
	}
	return exitCode
}

// runPipeline sets up logging, validates cfg, sets up metrics and tracing
// and executes the pipeline. Setup failures are returned; pipeline failures
// are reported by the pipeline itself and only reflected in the exit code.
func runPipeline(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) (int, error) {
	logCfg := cfg.LoggerConfig()
	logCfg.Console = stderr
	log, err := logger.New(logCfg)
	if err != nil {
		return 1, err
	}
	defer log.Close()

	if err := cfg.Validate(); err != nil {
		log.Error(fmt.Sprintf("ERROR: %s", err), zap.String("error_type", string(nerrors.TypeOf(err))))
		return 1, err
	}

	tracingCfg := observability.TracingConfig{
		ServiceName:    "fetchcsv",
		ServiceVersion: version,
	}
	if cfg.Telemetry.TraceFile != "" {
		traceFile, err := os.Create(cfg.Telemetry.TraceFile)
		if err != nil {
			return 1, fmt.Errorf("failed to create trace file: %w", err)
		}
		defer traceFile.Close()
		tracingCfg.Output = traceFile
	}
	tracing, err := observability.NewTracing(tracingCfg)
	if err != nil {
		return 1, err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			log.Warn("failed to flush traces", zap.Error(err))
		}
	}()

	p := pipeline.Build(cfg, log.Logger,
		pipeline.WithMetrics(metrics.NewCollector()),
		pipeline.WithTracer(tracing.Tracer()),
		pipeline.WithOutput(stdout, stderr),
	)
	return p.Execute(ctx), nil
}
