// Command finml runs the financial regression pipeline.
//
// Usage:
//
//	finml run   [-config file] (-file prices.csv | -ticker AAPL [-start ...] [-end ...] | -synthetic) [flags]
//	finml serve [-config file] [-addr :8080]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ezoic/finml/charts"
	"github.com/ezoic/finml/datasource"
	"github.com/ezoic/finml/features"
	"github.com/ezoic/finml/internal/config"
	"github.com/ezoic/finml/pipeline"
	"github.com/ezoic/finml/pkg/log"
)

const usage = `usage: finml <command> [flags]

commands:
  run    run every stage once and write the report, figures and CSV
  serve  serve an interactive session over HTTP
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "run":
		err = runCommand(ctx, os.Args[2:], os.Stdout)
	case "serve":
		err = serveCommand(ctx, os.Args[2:])
	case "-h", "-help", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		log.GetLogger().Error("finml failed", log.ErrorKey, fmt.Sprintf("%+v", err))
		os.Exit(1)
	}
}

// loadConfig reads the configuration and installs the logger it describes.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	log.SetupLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	return cfg, nil
}

// sessionOptions maps configuration onto the stage parameters.
func sessionOptions(cfg *config.Config) pipeline.Options {
	p := cfg.Pipeline
	return pipeline.Options{
		Seed:             p.Seed,
		TestSize:         p.TestSize,
		OutlierThreshold: p.OutlierThreshold,
		Features: features.Options{
			ShortWindow:      p.ShortWindow,
			LongWindow:       p.LongWindow,
			VolatilityWindow: p.VolatilityWindow,
		},
		PreviewRows: p.PreviewRows,
		ChartSize:   charts.Size{Width: cfg.Charts.Width, Height: cfg.Charts.Height},
	}
}

func provider(cfg *config.Config) (datasource.Provider, error) {
	return datasource.NewProvider(datasource.ProviderOptions{
		Name:      cfg.Market.Provider,
		BaseURL:   cfg.Market.BaseURL,
		APIKey:    cfg.Market.APIKey,
		APISecret: cfg.Market.APISecret,
		Timeout:   cfg.Market.Timeout,
	})
}
