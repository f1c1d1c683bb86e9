package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"

	"MarketLens/internal/notifier"
	"MarketLens/internal/scheduler"
)

type watchCmd struct {
	runOnStart bool
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "re-analyse the watchlist on a schedule and answer Telegram commands" }
func (*watchCmd) Usage() string {
	return `lens watch [-run-on-start]

  Runs until interrupted. Reports go to Telegram when a bot token and chat id
  are configured, to the log otherwise.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.runOnStart, "run-on-start", os.Getenv("RUN_ON_START") == "true", "Run the watchlist report immediately")
}

func (c *watchCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()
	a.log.Infof("MarketLens watcher starting...")

	rec := a.openRecorder()
	defer rec.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		n  notifier.Notifier
		tn *notifier.TelegramNotifier
	)
	if a.cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy, a.log)
		n = tn
	} else {
		a.log.Warnf("telegram not configured, reports go to the log")
		n = &notifier.LogNotifier{Logger: a.log}
	}

	sched := scheduler.NewScheduler(ctx, a.engine, n, rec, a.cfg.Watchlist, a.log)
	if err := sched.Register(a.cfg.Schedule.ReportCron); err != nil {
		a.log.Errorf("register cron tasks: %v", err)
		return subcommands.ExitFailure
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		sched.Go(func() { tn.StartPolling(ctx, sched.HandleCommand) })
		a.log.Infof("telegram polling started")
	}

	if c.runOnStart {
		a.log.Infof("run-on-start enabled, executing watchlist report now")
		sched.Trigger()
	}

	a.log.Infof("MarketLens is watching %d instruments. Press Ctrl+C to stop.", len(a.cfg.Watchlist))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	a.log.Infof("shutdown signal received, stopping...")
	cancel()
	st := a.engine.Cache.Stats()
	a.log.Infof("price cache: %d entries, %d hits, %d misses", st.Entries, st.Hits, st.Misses)
	return subcommands.ExitSuccess
}
