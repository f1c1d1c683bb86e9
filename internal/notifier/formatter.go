package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"

	"MarketLens/internal/model"
	"MarketLens/internal/recorder"
)

// FormatReport formats an analysis report into a Telegram message.
func FormatReport(rep *model.Report) string {
	var b strings.Builder
	inst := rep.Instrument

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s → %s\n\n", html.EscapeString(inst.Ticker), inst.Start, inst.End))
	b.WriteString(fmt.Sprintf("观测数: %d\n", rep.Observations))
	b.WriteString(fmt.Sprintf("日均对数收益: %s\n", pct(rep.MeanReturn)))
	b.WriteString(fmt.Sprintf("日波动率: %s\n", pct(rep.StdReturn)))
	if rep.Frequency != "" {
		b.WriteString(fmt.Sprintf("%s 均值: %s | 标准差: %s\n", rep.Frequency, pct(rep.FreqMean), pct(rep.FreqStd)))
	}
	b.WriteString(fmt.Sprintf("\n💰 <b>年化</b> %s\n", rep.Annualised))
	return b.String()
}

// FormatHistory lists recorded snapshots, newest first.
func FormatHistory(ticker string, snaps []recorder.Snapshot) string {
	if len(snaps) == 0 {
		return fmt.Sprintf("%s 暂无历史记录", html.EscapeString(ticker))
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗂 <b>%s 历史</b>\n\n", html.EscapeString(ticker)))
	for _, s := range snaps {
		b.WriteString(fmt.Sprintf("%s  %s→%s  Return: %s | Risk: %s\n",
			s.RecordedAt.Format("2006-01-02 15:04"), s.Start, s.End, num(s.AnnualReturn), num(s.AnnualRisk)))
	}
	return b.String()
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	return "可用命令:\n" +
		"• /perf TICKER [START END] [FREQ]\n" +
		"• /history TICKER\n" +
		"• /watchlist\n" +
		"• /cache [clear]"
}

func pct(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%+.3f%%", v*100)
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", v)
}
