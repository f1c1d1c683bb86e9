package notifier

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketLens/internal/logging"
	"MarketLens/internal/model"
	"MarketLens/internal/recorder"
)

func testNotifier(srv *httptest.Server) *TelegramNotifier {
	tn := NewTelegramNotifier("TOKEN", "42", "", logging.Nop())
	tn.APIBase = srv.URL
	tn.Client = srv.Client()
	tn.Backoff = time.Millisecond
	return tn
}

func TestSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	require.NoError(t, testNotifier(srv).Send(context.Background(), "hello"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestSendWithRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	require.NoError(t, testNotifier(srv).SendWithRetry(context.Background(), "x", 3))
	assert.Equal(t, int32(3), calls.Load())
}

func TestSendWithRetry_Exhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := testNotifier(srv).SendWithRetry(context.Background(), "x", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 3 retries exhausted")
	assert.Contains(t, err.Error(), "status 502")
	assert.Equal(t, int32(3), calls.Load())
}

func TestStartPolling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		polls int32
		sent  []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTOKEN/getUpdates":
			if atomic.AddInt32(&polls, 1) == 1 {
				assert.Equal(t, "0", r.URL.Query().Get("offset"))
				w.Write([]byte(`{"ok":true,"result":[{"update_id":5,"message":{"text":" /watchlist "}},{"update_id":6}]}`))
				return
			}
			assert.Equal(t, "7", r.URL.Query().Get("offset"))
			cancel()
			w.Write([]byte(`{"ok":true,"result":[]}`))
		case "/botTOKEN/sendMessage":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			sent = append(sent, body["text"])
			w.Write([]byte(`{"ok":true}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	var commands []string
	testNotifier(srv).StartPolling(ctx, func(_ context.Context, cmd string) string {
		commands = append(commands, cmd)
		return "reply to " + cmd
	})

	assert.Equal(t, []string{"/watchlist"}, commands)
	assert.Equal(t, []string{"reply to /watchlist"}, sent)
}

func TestFormatReport(t *testing.T) {
	rep := &model.Report{
		Instrument: model.Instrument{
			Ticker: "SPY",
			Start:  civil.Date{Year: 2024, Month: 1, Day: 1},
			End:    civil.Date{Year: 2024, Month: 12, Day: 31},
		},
		Observations: 251,
		MeanReturn:   0.0009,
		StdReturn:    math.NaN(),
		Annualised:   model.Performance{Return: 0.227, Risk: 0.175},
	}

	msg := FormatReport(rep)
	assert.Contains(t, msg, "<b>SPY</b> | 2024-01-01 → 2024-12-31")
	assert.Contains(t, msg, "观测数: 251")
	assert.Contains(t, msg, "+0.090%")
	assert.Contains(t, msg, "日波动率: n/a")
	assert.Contains(t, msg, "Return: 0.227 | Risk: 0.175")
	assert.NotContains(t, msg, "均值")

	rep.Frequency = "M"
	rep.FreqMean = 0.02
	rep.FreqStd = 0.04
	assert.Contains(t, FormatReport(rep), "M 均值: +2.000% | 标准差: +4.000%")
}

func TestFormatHistory(t *testing.T) {
	assert.Equal(t, "SPY 暂无历史记录", FormatHistory("SPY", nil))

	msg := FormatHistory("SPY", []recorder.Snapshot{{
		RecordedAt:   time.Date(2024, 6, 30, 22, 0, 0, 0, time.UTC),
		Start:        "2023-07-01",
		End:          "2024-06-30",
		AnnualReturn: 0.12,
		AnnualRisk:   math.NaN(),
	}})
	assert.Contains(t, msg, "2024-06-30 22:00  2023-07-01→2024-06-30  Return: 0.120 | Risk: n/a")
}

func TestFormatHelp(t *testing.T) {
	help := FormatHelp()
	for _, cmd := range []string{"/perf", "/history", "/watchlist", "/cache"} {
		assert.Contains(t, help, cmd)
	}
}
