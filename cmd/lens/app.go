package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"MarketLens/internal/analyzer"
	"MarketLens/internal/cache"
	"MarketLens/internal/collector"
	"MarketLens/internal/config"
	"MarketLens/internal/logging"
	"MarketLens/internal/model"
	"MarketLens/internal/plot"
	"MarketLens/internal/recorder"
)

var timeNow = time.Now

var configPath = flag.String("config", defaultConfigPath(), "Path to the YAML configuration file")

func defaultConfigPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

// app bundles what every subcommand needs.
type app struct {
	cfg    *config.Config
	log    *zap.SugaredLogger
	engine *analyzer.Engine
	sync   func() error
}

func newApp() (*app, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	zl, err := logging.New(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger := zl.Sugar()

	fetcher := newFetcher(cfg)
	logger.Infof("data source: %s", fetcher.Name())

	pc := cache.New(cache.Options{Size: cfg.Cache.Size, TTL: cfg.Cache.TTL})
	eng := analyzer.NewEngine(fetcher, pc, plot.NewMarkdownSink(os.Stdout), logger)
	return &app{cfg: cfg, log: logger, engine: eng, sync: zl.Sync}, nil
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	var f collector.Fetcher
	switch cfg.DataSource.Provider {
	case "rest":
		f = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.Timeout)
	default:
		f = collector.NewYahooFetcher(cfg.Proxy, cfg.DataSource.Timeout)
	}
	return collector.NewRateLimitedFetcher(f, cfg.DataSource.RequestsPerSecond, cfg.DataSource.Burst)
}

// openRecorder falls back to a no-op recorder when SQLite is unavailable.
func (a *app) openRecorder() recorder.Recorder {
	if a.cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(a.cfg.Database.SQLitePath, a.log)
	if err != nil {
		a.log.Warnf("init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}

func (a *app) close() {
	_ = a.sync()
}

// instrumentFlags are the -start/-end flags shared by analysis commands.
type instrumentFlags struct {
	start, end string
}

func (f *instrumentFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.start, "start", "", "First day of the period (YYYY-MM-DD)")
	fs.StringVar(&f.end, "end", "", "Last day of the period (YYYY-MM-DD, defaults to today)")
}

func (f *instrumentFlags) instrument(ticker string) (model.Instrument, error) {
	if f.start == "" {
		return model.Instrument{}, fmt.Errorf("-start is required")
	}
	start, err := civil.ParseDate(f.start)
	if err != nil {
		return model.Instrument{}, fmt.Errorf("invalid -start: %w", err)
	}
	end := civil.DateOf(timeNow())
	if f.end != "" {
		if end, err = civil.ParseDate(f.end); err != nil {
			return model.Instrument{}, fmt.Errorf("invalid -end: %w", err)
		}
	}
	return model.NewInstrument(strings.ToUpper(ticker), start, end)
}

func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err == nil {
		if out, err := r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Print(md)
}
