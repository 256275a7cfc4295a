package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/marginpilot/api"
	"github.com/rustyeddy/marginpilot/ocr"
	"github.com/rustyeddy/marginpilot/quotes"
	"github.com/rustyeddy/marginpilot/session"
)

var (
	serveAddr    string
	serveRefresh time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the risk views over HTTP",
	Long: `Start the JSON API. Prometheus metrics are exposed at /metrics.

With --refresh, prices are pulled from the quote sources on that interval and
a margin snapshot is journaled after each successful refresh.

Example:
  marginpilot serve --addr :8080 --refresh 5m`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().DurationVar(&serveRefresh, "refresh", 0, "background price refresh interval (0 disables)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, closeFn, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	src, closeQuotes, err := quoteSource(quotes.NewMetrics(reg))
	if err != nil {
		return err
	}
	defer closeQuotes()

	ex := ocr.New(ocr.Config{
		BaseURL: cfg.OCR.BaseURL,
		APIKey:  cfg.OCR.APIKey,
		Model:   cfg.OCR.Model,
		Timeout: cfg.OCR.Timeout,
	}, log)

	gin.SetMode(gin.ReleaseMode)
	srv := api.NewServer(s, src, ex, log, reg)

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := srv.Run(gctx, addr)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	if serveRefresh > 0 {
		g.Go(func() error {
			refreshLoop(gctx, s, src, serveRefresh)
			return nil
		})
	}
	return g.Wait()
}

// refreshLoop pulls prices every interval until ctx is done. Failures are
// logged and the previous prices kept.
func refreshLoop(ctx context.Context, s *session.Session, src quotes.Source, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			prices, err := s.RefreshPrices(ctx, src)
			if err != nil {
				log.Warn("background refresh", zap.Error(err))
				continue
			}
			log.Debug("background refresh", zap.Int("symbols", len(prices)))
		}
	}
}
