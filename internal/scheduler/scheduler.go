package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"MarketLens/internal/analyzer"
	"MarketLens/internal/config"
	"MarketLens/internal/model"
	"MarketLens/internal/notifier"
	"MarketLens/internal/recorder"
)

const (
	defaultLookbackDays = 365
	historyLimit        = 10
	sendRetries         = 3
)

// Scheduler re-analyses the watchlist on a cron schedule and answers chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Engine    *analyzer.Engine
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Watchlist []config.WatchItem
	Logger    *zap.SugaredLogger
	Ctx       context.Context
	// Now is the clock used to anchor lookback windows.
	Now func() time.Time

	wg sync.WaitGroup
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, eng *analyzer.Engine, n notifier.Notifier, rec recorder.Recorder,
	watchlist []config.WatchItem, logger *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Engine:    eng,
		Notifier:  n,
		Recorder:  rec,
		Watchlist: watchlist,
		Logger:    logger,
		Ctx:       ctx,
		Now:       time.Now,
	}
}

// Register adds the watchlist report job.
func (s *Scheduler) Register(reportCron string) error {
	if _, err := s.Cron.AddFunc(reportCron, s.reportTask); err != nil {
		return fmt.Errorf("register report task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Infof("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs and goroutines
// started with Go to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.wg.Wait()
	s.Logger.Infof("scheduler stopped")
}

// Go runs fn in a goroutine that Stop waits for.
func (s *Scheduler) Go(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

// RunNow executes the report job immediately.
func (s *Scheduler) RunNow() {
	s.reportTask()
}

// Trigger starts the report job in the background (for RUN_ON_START).
func (s *Scheduler) Trigger() {
	s.Go(s.reportTask)
}

func (s *Scheduler) reportTask() {
	s.Logger.Infof("running watchlist report for %d instruments", len(s.Watchlist))
	for _, item := range s.Watchlist {
		lookback := item.LookbackDays
		if lookback <= 0 {
			lookback = defaultLookbackDays
		}
		inst, err := s.window(item.Ticker, lookback)
		if err != nil {
			s.Logger.Errorf("watch %s: %v", item.Ticker, err)
			continue
		}
		rep, err := s.analyse(s.Ctx, inst, item.Frequency, "watch")
		if err != nil {
			s.Logger.Errorf("watch %s: %v", item.Ticker, err)
			s.trySend(fmt.Sprintf("❌ %s 分析失败: %v", item.Ticker, err))
			continue
		}
		s.trySend(notifier.FormatReport(rep))
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	switch fields[0] {
	case "/perf":
		return s.perfCommand(ctx, fields[1:])
	case "/history":
		if len(fields) != 2 {
			return "用法: /history TICKER"
		}
		ticker := strings.ToUpper(fields[1])
		snaps, err := s.Recorder.Recent(ticker, historyLimit)
		if err != nil {
			s.Logger.Errorf("load history %s: %v", ticker, err)
			return fmt.Sprintf("❌ 读取历史失败: %v", err)
		}
		return notifier.FormatHistory(ticker, snaps)
	case "/watchlist":
		return s.formatWatchlist()
	case "/cache":
		return s.cacheCommand(fields[1:])
	default:
		return notifier.FormatHelp()
	}
}

// perfCommand accepts TICKER, TICKER FREQ, TICKER START END or TICKER START END FREQ.
func (s *Scheduler) perfCommand(ctx context.Context, args []string) string {
	var (
		inst model.Instrument
		freq string
		err  error
	)
	switch len(args) {
	case 1, 2:
		inst, err = s.window(args[0], defaultLookbackDays)
		if len(args) == 2 {
			freq = args[1]
		}
	case 3, 4:
		inst, err = parseInstrument(args[0], args[1], args[2])
		if len(args) == 4 {
			freq = args[3]
		}
	default:
		return "用法: /perf TICKER [START END] [FREQ]"
	}
	if err != nil {
		return fmt.Sprintf("❌ 参数错误: %v", err)
	}
	rep, err := s.analyse(ctx, inst, freq, "command")
	if err != nil {
		return fmt.Sprintf("❌ %s 分析失败: %v", inst.Ticker, err)
	}
	return notifier.FormatReport(rep)
}

func (s *Scheduler) analyse(ctx context.Context, inst model.Instrument, freq, source string) (*model.Report, error) {
	rep, err := s.Engine.Report(ctx, inst, freq)
	if err != nil {
		return nil, err
	}
	if err := s.Recorder.RecordReport(recorder.FromReport(rep, source)); err != nil {
		s.Logger.Errorf("record report %s: %v", inst.Ticker, err)
	}
	return rep, nil
}

func (s *Scheduler) window(ticker string, lookbackDays int) (model.Instrument, error) {
	end := civil.DateOf(s.Now())
	return model.NewInstrument(strings.ToUpper(ticker), end.AddDays(-lookbackDays), end)
}

// cacheCommand reports price cache usage; "/cache clear" also empties it.
func (s *Scheduler) cacheCommand(args []string) string {
	st := s.Engine.Cache.Stats()
	msg := fmt.Sprintf("🗄 缓存: %d 条 | 命中 %d | 未命中 %d", st.Entries, st.Hits, st.Misses)
	if len(args) == 1 && args[0] == "clear" {
		s.Engine.Cache.Purge()
		s.Logger.Infof("price cache purged (%d entries)", st.Entries)
		msg += "\n已清空"
	}
	return msg
}

func (s *Scheduler) formatWatchlist() string {
	if len(s.Watchlist) == 0 {
		return "观察列表为空"
	}
	var b strings.Builder
	b.WriteString("👀 <b>观察列表</b>\n\n")
	for _, item := range s.Watchlist {
		freq := item.Frequency
		if freq == "" {
			freq = "-"
		}
		b.WriteString(fmt.Sprintf("• %s  %d天  %s\n", item.Ticker, item.LookbackDays, freq))
	}
	return b.String()
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, sendRetries); err != nil {
		s.Logger.Errorf("send notification: %v", err)
	}
}

func parseInstrument(ticker, start, end string) (model.Instrument, error) {
	sd, err := civil.ParseDate(start)
	if err != nil {
		return model.Instrument{}, fmt.Errorf("start date %q: %w", start, err)
	}
	ed, err := civil.ParseDate(end)
	if err != nil {
		return model.Instrument{}, fmt.Errorf("end date %q: %w", end, err)
	}
	return model.NewInstrument(strings.ToUpper(ticker), sd, ed)
}
