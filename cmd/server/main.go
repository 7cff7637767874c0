// Command server runs the searchd file search daemon: `server
// <files_directory> <port>`.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/searchd/internal/config"
	"github.com/standardbeagle/searchd/internal/logging"
	"github.com/standardbeagle/searchd/internal/metrics"
	"github.com/standardbeagle/searchd/internal/server"
	"github.com/standardbeagle/searchd/internal/version"
)

func main() {
	app := &cli.App{
		Name:                   "searchd",
		Usage:                  "concurrent full-text file search server",
		Version:                version.Version,
		UseShortOptionHandling: true,
		ArgsUsage:              "<files_directory> <port>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "trace|debug|info|warn|error|critical",
				Value: "",
			},
			&cli.BoolFlag{
				Name:  "log-json",
				Usage: "emit structured JSON logs instead of console output",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "worker pool size (0 = hardware_parallelism-1)",
				Value: 0,
			},
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "serve Prometheus metrics on a separate listener",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "metrics listener address",
				Value: ":9090",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit(fmt.Sprintf("usage: %s <files_directory> <port>", c.App.Name), 1)
	}

	root := c.Args().Get(0)
	port, err := parsePort(c.Args().Get(1))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	cfg, err := config.Load(root, port)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load config: %v", err), 1)
	}
	if c.Int("workers") > 0 {
		cfg.Pool.Workers = c.Int("workers")
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if c.Bool("log-json") {
		cfg.Log.JSON = true
	}
	if c.Bool("metrics") {
		cfg.Metrics.Enabled = true
	}
	if addr := c.String("metrics-addr"); c.IsSet("metrics-addr") && addr != "" {
		cfg.Metrics.Addr = addr
	}

	v := config.NewValidator()
	if err := v.ValidateAndSetDefaults(cfg); err != nil {
		return cli.Exit(fmt.Sprintf("invalid configuration: %v", err), 1)
	}

	logging.Init(logging.Options{
		Level:   parseLogLevel(cfg.Log.Level),
		Console: !cfg.Log.JSON,
	})
	log := logging.For("main")

	srv, err := server.New(cfg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to create server: %v", err), 1)
	}

	var metricsSrv *metrics.Server
	if cfg.Metrics.Enabled {
		metricsSrv = metrics.NewServer(cfg.Metrics.Addr)
		metricsSrv.Start()
		log.Info("metrics listening on %s", cfg.Metrics.Addr)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		if err := srv.Stop(); err != nil {
			log.Error("error during shutdown: %v", err)
		}
		if metricsSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			metricsSrv.Stop(ctx)
		}
	}()

	if err := srv.Start(); err != nil {
		return cli.Exit(fmt.Sprintf("server failed: %v", err), 1)
	}
	return nil
}

func parsePort(s string) (int, error) {
	var port int
	if _, err := fmt.Sscanf(s, "%d", &port); err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", s, err)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range", port)
	}
	return port, nil
}

func parseLogLevel(s string) logging.Level {
	switch s {
	case "trace":
		return logging.TraceLevel
	case "debug":
		return logging.DebugLevel
	case "warn":
		return logging.WarnLevel
	case "error":
		return logging.ErrorLevel
	case "critical":
		return logging.CriticalLevel
	default:
		return logging.InfoLevel
	}
}
