package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"postcal/internal/config"
	appLog "postcal/internal/log"
	"postcal/internal/pipeline"
)

// flagConfig holds CLI flag values that override the config file.
type flagConfig struct {
	configPath string
	postalCode string
	output     string
	logLevel   string
}

func main() {
	os.Exit(run())
}

func run() int {
	defer appLog.Sync()

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		fmt.Fprintf(os.Stderr, "Kunde inte läsa konfiguration: %v\n", err)
		return pipeline.ExitConfigFailed
	}

	// CLI flags override config file values if provided.
	conf.SetPostalCode(flags.postalCode)
	if flags.output != "" {
		conf.OutputPath = flags.output
	}
	if flags.logLevel != "" {
		conf.LogLevel = flags.logLevel
	}

	level, err := appLog.ParseLevel(conf.LogLevel)
	if err != nil {
		appLog.Error("invalid log level; using info", err)
	}
	appLog.SetLevel(level)

	if err := conf.Validate(); err != nil {
		appLog.Error("invalid config", err, "config_path", flags.configPath)
		fmt.Fprintf(os.Stderr, "Ogiltig konfiguration: %v\n", err)
		return pipeline.ExitConfigFailed
	}

	appLog.Info("postcal starting", "version", pipeline.Version)
	appLog.Debug("effective config",
		"postal_code", conf.PostalCode,
		"endpoint", conf.Endpoint,
		"timeout", conf.Timeout,
		"output_path", conf.OutputPath,
		"calendar_name", conf.CalendarName,
		"timezone", conf.Timezone,
	)

	// Root context, cancelled on SIGINT/SIGTERM so the request is aborted.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return pipeline.ExitCode(pipeline.New(conf, os.Stdout, os.Stderr).Run(ctx))
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "", "Path to YAML config file (empty: built-in defaults)")
	flag.StringVar(&cfg.postalCode, "postal-code", "", "Postal code (overrides config if set)")
	flag.StringVar(&cfg.output, "output", "", "Calendar output path (overrides config if set)")
	flag.StringVar(&cfg.logLevel, "log-level", "", "Log level: debug, info or error")

	flag.Parse()

	return cfg
}
