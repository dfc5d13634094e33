//go:build !tinygo

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"kestrel/app"
	"kestrel/hal"
	"kestrel/internal/buildinfo"
	"kestrel/internal/config"
)

func main() {
	var (
		cfgPath     string
		hz          uint64
		ticks       uint64
		metricsAddr string
		logLevel    string
		dev         bool
		showVersion bool
	)
	flag.StringVar(&cfgPath, "config", "", "Path to a YAML config file.")
	flag.Uint64Var(&hz, "hz", 0, "Tick rate (overrides kernel.ticks_per_second).")
	flag.Uint64Var(&ticks, "ticks", 0, "Stop after N ticks (0 = run forever).")
	flag.StringVar(&metricsAddr, "metrics", "", "Serve Prometheus metrics on this address.")
	flag.StringVar(&logLevel, "log-level", "", "Log level (overrides host.log_level).")
	flag.BoolVar(&dev, "dev", false, "Human-readable development logging.")
	flag.BoolVar(&showVersion, "version", false, "Print the build version and exit.")
	flag.Parse()

	if showVersion {
		fmt.Println(buildinfo.String())
		return
	}

	cfg := config.Default()
	if cfgPath != "" {
		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "hz":
			cfg.Kernel.TicksPerSecond = hz
		case "ticks":
			cfg.Host.Ticks = ticks
		case "metrics":
			cfg.Host.MetricsAddr = metricsAddr
		case "log-level":
			cfg.Host.LogLevel = logLevel
		case "dev":
			cfg.Host.Development = dev
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := hal.NewLogger(cfg.Host.LogLevel, cfg.Host.Development)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer log.Sync()

	if err := run(log, cfg); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error("kestrel stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(log *zap.Logger, cfg config.Config) error {
	h := hal.NewHost(hal.HostConfig{
		Logger:         log,
		TicksPerSecond: cfg.Kernel.TicksPerSecond,
		MPURegions:     cfg.Kernel.MPURegions,
	})
	sys, err := app.New(h, app.Config{
		Kernel:      cfg.KernelConfig(),
		UserRegions: cfg.Regions(),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return hal.RunHeadless(ctx, h, &sys.Init, hal.HeadlessConfig{
		Ticks:       cfg.Host.Ticks,
		MetricsAddr: cfg.Host.MetricsAddr,
	})
}
