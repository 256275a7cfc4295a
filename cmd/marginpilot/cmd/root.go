package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/marginpilot/config"
	"github.com/rustyeddy/marginpilot/journal"
	"github.com/rustyeddy/marginpilot/logging"
	"github.com/rustyeddy/marginpilot/quotes"
	"github.com/rustyeddy/marginpilot/session"
)

var rootCmd = &cobra.Command{
	Use:   "marginpilot",
	Short: "Margin account risk monitor for stocks and options",
	Long: `Marginpilot tracks a margin brokerage account and tells you how close it is
to a margin call.

It provides tools for:
  - Margin usage, equity and health level for the whole account
  - Per-position analysis and what-if liquidation
  - Market-wide and single-symbol stress tests
  - Options delta, leverage and expiration P&L
  - Day-trade P&L and pattern-day-trader tracking
  - Live quotes, brokerage CSV import and screenshot extraction`,
	SilenceUsage:      true,
	PersistentPreRunE: loadApp,
}

var (
	cfgFile  string
	dbPath   string
	logLevel string

	cfg *config.Config
	log *zap.Logger
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "marginpilot.yaml", "config file (used when present)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the SQLite journal (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
}

func loadApp(cmd *cobra.Command, args []string) error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if dbPath != "" {
		c.Journal.DBPath = dbPath
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}

	l, err := logging.New(c.Log.Level)
	if err != nil {
		return err
	}
	cfg, log = c, l
	return nil
}

// openSession opens the journal and loads the book. The returned func
// closes the journal.
func openSession(ctx context.Context) (*session.Session, func(), error) {
	store, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}
	closeFn := func() {
		if err := store.Close(); err != nil {
			log.Warn("close journal", zap.Error(err))
		}
	}

	loc, err := cfg.Location()
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	s, err := session.Open(ctx, store,
		session.WithLocation(loc),
		session.WithPolicy(cfg.Policy()),
		session.WithLogger(log),
	)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return s, closeFn, nil
}

// quoteSource builds the configured fallback chain. The returned func
// releases the quote cache.
func quoteSource(metrics *quotes.Metrics) (*quotes.Fallback, func(), error) {
	opts := quotes.DefaultHTTPOptions()
	if cfg.Quotes.Timeout > 0 {
		opts.Timeout = cfg.Quotes.Timeout
	}
	opts.MaxRetries = cfg.Quotes.MaxRetries

	var sources []quotes.Source
	for _, name := range cfg.Quotes.Sources {
		switch name {
		case "yahoo":
			sources = append(sources, quotes.NewYahoo(cfg.Quotes.YahooURL, opts))
		case "finnhub":
			sources = append(sources, quotes.NewFinnhub(cfg.Quotes.FinnhubURL, cfg.Quotes.FinnhubAPIKey, opts))
		}
	}

	cache, err := quotes.NewCache(0, cfg.Quotes.CacheTTL)
	if err != nil {
		return nil, nil, err
	}
	f := quotes.NewFallback(sources,
		quotes.WithCache(cache),
		quotes.WithLogger(log),
		quotes.WithMetrics(metrics),
	)
	return f, cache.Close, nil
}
