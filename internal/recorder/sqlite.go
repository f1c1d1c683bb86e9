package recorder

import (
	"database/sql"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists report snapshots to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.SugaredLogger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.SugaredLogger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the watcher writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Infof("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS report_snapshots (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			ticker        TEXT NOT NULL,
			start_date    TEXT NOT NULL,
			end_date      TEXT NOT NULL,
			observations  INTEGER,
			mean_return   REAL,
			std_return    REAL,
			frequency     TEXT,
			freq_mean     REAL,
			freq_std      REAL,
			annual_return REAL,
			annual_risk   REAL,
			source        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_report_ticker_ts ON report_snapshots(ticker, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordReport(snap *Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := snap.RecordedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO report_snapshots
		(timestamp, ticker, start_date, end_date, observations,
		 mean_return, std_return, frequency, freq_mean, freq_std,
		 annual_return, annual_risk, source)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		ts.Unix(), snap.Ticker, snap.Start, snap.End, snap.Observations,
		nullable(snap.MeanReturn), nullable(snap.StdReturn), snap.Frequency,
		nullable(snap.FreqMean), nullable(snap.FreqStd),
		nullable(snap.AnnualReturn), nullable(snap.AnnualRisk), snap.Source,
	)
	return err
}

// Recent returns the latest snapshots for ticker, newest first.
func (r *SQLiteRecorder) Recent(ticker string, limit int) ([]Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT timestamp, ticker, start_date, end_date, observations,
		mean_return, std_return, frequency, freq_mean, freq_std,
		annual_return, annual_risk, source
		FROM report_snapshots WHERE ticker = ? ORDER BY timestamp DESC, id DESC LIMIT ?`,
		ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var (
			s                                   Snapshot
			ts                                  int64
			mean, std, fMean, fStd, aRet, aRisk sql.NullFloat64
		)
		if err := rows.Scan(&ts, &s.Ticker, &s.Start, &s.End, &s.Observations,
			&mean, &std, &s.Frequency, &fMean, &fStd, &aRet, &aRisk, &s.Source); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		s.RecordedAt = time.Unix(ts, 0)
		s.MeanReturn = fromNullable(mean)
		s.StdReturn = fromNullable(std)
		s.FreqMean = fromNullable(fMean)
		s.FreqStd = fromNullable(fStd)
		s.AnnualReturn = fromNullable(aRet)
		s.AnnualRisk = fromNullable(aRisk)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Infof("closing sqlite recorder")
	return r.db.Close()
}

// nullable stores undefined statistics as NULL.
func nullable(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
