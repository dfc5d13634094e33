//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"kestrel/internal/kstats"
	"kestrel/kernel"
)

// HeadlessConfig controls the host runner.
type HeadlessConfig struct {
	// Ticks stops the runner after N timer interrupts (0 = run forever).
	Ticks uint64
	// MetricsAddr serves Prometheus metrics when non-empty.
	MetricsAddr string
}

// RunHeadless boots init on h and drives its timer interrupt until ctx is
// done, the tick budget is spent, or the kernel halts.
func RunHeadless(ctx context.Context, h *Host, init *kernel.InitState, cfg HeadlessConfig) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	go kernel.Main(h, init)

	g.Go(func() error {
		defer cancel()
		err := h.RunTicker(ctx, cfg.Ticks)
		if errors.Is(err, ErrHalted) {
			return err
		}
		if err == nil {
			h.log.Info("tick budget spent", zap.Uint64("ticks", cfg.Ticks))
		}
		return err
	})

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			kstats.NewCollector(&init.Kernel),
			collectors.NewGoCollector(),
		)
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			h.log.Info("serving metrics", zap.String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, stop := context.WithTimeout(context.Background(), time.Second)
			defer stop()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}
