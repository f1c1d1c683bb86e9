package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/google/subcommands"

	"MarketLens/internal/analyzer"
	"MarketLens/internal/model"
	"MarketLens/internal/plot"
	"MarketLens/internal/recorder"
)

type analyzeCmd struct {
	inst   instrumentFlags
	freq   string
	window int
	chart  bool
	record bool
}

func (*analyzeCmd) Name() string     { return "analyze" }
func (*analyzeCmd) Synopsis() string { return "report returns and risk for one or more tickers" }
func (*analyzeCmd) Usage() string {
	return `lens analyze -start <date> [-end <date>] [-freq W|M|Q|A] [-window n] [-chart] TICKER...

  Computes mean and volatility of daily log returns, optionally of returns
  resampled to a coarser frequency, and the annualised performance.
`
}

func (c *analyzeCmd) SetFlags(f *flag.FlagSet) {
	c.inst.register(f)
	f.StringVar(&c.freq, "freq", "", "Resampling frequency (W, M, Q, A)")
	f.IntVar(&c.window, "window", 0, "Rolling window in trading days (0 disables)")
	f.BoolVar(&c.chart, "chart", false, "Append a chart of the daily log returns")
	f.BoolVar(&c.record, "record", true, "Store the reports in the SQLite database")
}

func (c *analyzeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one ticker is required")
		return subcommands.ExitUsageError
	}
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	rec := recorder.Recorder(recorder.NewNoopRecorder())
	if c.record {
		rec = a.openRecorder()
	}
	defer rec.Close()

	status := subcommands.ExitSuccess
	for _, ticker := range f.Args() {
		inst, err := c.inst.instrument(ticker)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		rep, err := a.engine.Report(ctx, inst, c.freq)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", ticker, err)
			status = subcommands.ExitFailure
			continue
		}
		if err := rec.RecordReport(recorder.FromReport(rep, "cli")); err != nil {
			a.log.Errorf("record report %s: %v", inst.Ticker, err)
		}

		md := reportMarkdown(rep)
		if c.window > 0 {
			rolling, err := c.rollingMarkdown(ctx, a, inst)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s: %v\n", ticker, err)
				status = subcommands.ExitFailure
			}
			md += rolling
		}
		if c.chart {
			r, err := a.engine.PricesWithReturns(ctx, inst)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s: %v\n", ticker, err)
				status = subcommands.ExitFailure
			} else {
				md += "\n" + plot.Markdown(analyzer.ReturnsChart(r, model.ChartLine))
			}
		}
		printMarkdown(md)
	}
	st := a.engine.Cache.Stats()
	a.log.Debugf("price cache: %d entries, %d hits, %d misses", st.Entries, st.Hits, st.Misses)
	return status
}

func (c *analyzeCmd) rollingMarkdown(ctx context.Context, a *app, inst model.Instrument) (string, error) {
	mean, err := a.engine.RollingMean(ctx, inst, c.window)
	if err != nil {
		return "", err
	}
	vol, err := a.engine.RollingVolatility(ctx, inst, c.window)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("\n| Rolling (%d days) | Latest |\n| --- | ---: |\n| Mean | %s |\n| Volatility | %s |\n",
		c.window, cell(last(mean)), cell(last(vol))), nil
}

func reportMarkdown(rep *model.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s → %s, %d observations\n\n", rep.Instrument.Ticker, rep.Instrument.Start, rep.Instrument.End, rep.Observations)
	b.WriteString("| Statistic | Value |\n| --- | ---: |\n")
	fmt.Fprintf(&b, "| Mean daily log return | %s |\n", cell(rep.MeanReturn))
	fmt.Fprintf(&b, "| Daily volatility | %s |\n", cell(rep.StdReturn))
	if rep.Frequency != "" {
		fmt.Fprintf(&b, "| Mean %s log return | %s |\n", rep.Frequency, cell(rep.FreqMean))
		fmt.Fprintf(&b, "| %s volatility | %s |\n", rep.Frequency, cell(rep.FreqStd))
	}
	fmt.Fprintf(&b, "\n**Annualised** %s\n", rep.Annualised)
	return b.String()
}

func cell(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.6f", v)
}

func last(v []float64) float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	return v[len(v)-1]
}
