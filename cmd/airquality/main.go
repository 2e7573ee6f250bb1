// Command airquality cleans a district air-quality export, derives season
// and grade columns, writes the cleaned table, prints a statistics report and
// renders charts.
//
// Usage:
//
//	airquality [run] [--input=PATH] [--output=PATH]
//	airquality serve [--input=PATH] [--output=PATH]
package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/couchcryptid/air-quality-etl/internal/config"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
)

type cli struct {
	Run   runCmd   `cmd:"" default:"withargs" help:"Run the pipeline once and print the report."`
	Serve serveCmd `cmd:"" help:"Run the pipeline, then serve health, metrics and report endpoints."`
}

// sourceFlags override the file locations from the environment.
type sourceFlags struct {
	Input  string `help:"Source table (.csv or .xlsx). Overrides INPUT_PATH." placeholder:"PATH"`
	Output string `help:"Cleaned output CSV. Overrides OUTPUT_PATH." placeholder:"PATH"`
}

func (f sourceFlags) apply(cfg *config.Config) {
	if f.Input != "" {
		cfg.InputPath = f.Input
	}
	if f.Output != "" {
		cfg.OutputPath = f.Output
	}
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name("airquality"),
		kong.Description("District air-quality ETL and report."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	if err := kctx.Run(cfg, logger); err != nil {
		logger.Error("airquality failed", "command", kctx.Command(), "error", err)
		os.Exit(1)
	}
}
