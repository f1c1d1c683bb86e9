package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type plotCmd struct {
	inst instrumentFlags
	kind string
}

func (*plotCmd) Name() string     { return "plot" }
func (*plotCmd) Synopsis() string { return "chart prices or returns of a ticker" }
func (*plotCmd) Usage() string {
	return `lens plot -start <date> [-end <date>] [-kind prices|ts|hist] TICKER

  Renders closing prices, the log return time series or a histogram of
  log returns to the terminal.
`
}

func (c *plotCmd) SetFlags(f *flag.FlagSet) {
	c.inst.register(f)
	f.StringVar(&c.kind, "kind", "prices", "Chart kind: prices, ts (returns) or hist (return histogram)")
}

func (c *plotCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one ticker is required")
		return subcommands.ExitUsageError
	}
	inst, err := c.inst.instrument(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	if c.kind == "prices" {
		err = a.engine.PlotPrices(ctx, inst)
	} else {
		err = a.engine.PlotReturns(ctx, inst, c.kind)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
