package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"LeveredVault/internal/model"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the service writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	// Amounts are stored as decimal text so no precision is lost.
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS balance_snapshots (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp         INTEGER NOT NULL,
			account           TEXT NOT NULL,
			native_balance    TEXT,
			wrapped_balance   TEXT,
			vault_balance     TEXT,
			allowance         TEXT,
			missing           TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_account_ts ON balance_snapshots(account, timestamp)`,

		`CREATE TABLE IF NOT EXISTS evaluations (
			id             TEXT PRIMARY KEY,
			timestamp      INTEGER NOT NULL,
			account        TEXT,
			kind           TEXT,
			currency       TEXT,
			amount         TEXT,
			outcome        TEXT,
			action         TEXT,
			enabled        INTEGER,
			warning        TEXT,
			source         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_ts ON evaluations(timestamp)`,

		`CREATE TABLE IF NOT EXISTS pending_events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			account     TEXT,
			action      TEXT,
			phase       TEXT,
			elapsed_ms  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pending_ts ON pending_events(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSnapshot(snap *model.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := snap.FetchedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO balance_snapshots
		(timestamp, account, native_balance, wrapped_balance, vault_balance, allowance, missing)
		VALUES (?,?,?,?,?,?,?)`,
		ts.Unix(), snap.Account,
		snap.Balances.Native.String(), snap.Balances.Wrapped.String(), snap.Balances.Vault.String(),
		snap.Allowance.Amount.String(), strings.Join(snap.Missing, ","),
	)
	return err
}

func (r *SQLiteRecorder) RecordEvaluation(evt *Evaluation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := evt.Decision
	_, err := r.db.Exec(`INSERT INTO evaluations
		(id, timestamp, account, kind, currency, amount, outcome, action, enabled, warning, source)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		uuid.NewString(), time.Now().Unix(), evt.Account, string(evt.Kind), string(evt.Currency),
		evt.Amount, string(d.Outcome), string(d.Action), d.Enabled, d.Warning, evt.Source,
	)
	return err
}

func (r *SQLiteRecorder) RecordPending(evt *PendingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO pending_events
		(timestamp, account, action, phase, elapsed_ms)
		VALUES (?,?,?,?,?)`,
		time.Now().Unix(), evt.Account, string(evt.Action), evt.Phase, evt.Elapsed.Milliseconds(),
	)
	return err
}

// LatestSnapshot returns the most recent stored snapshot for account, or
// nil when none exists.
func (r *SQLiteRecorder) LatestSnapshot(account string) (*model.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		ts                              int64
		native, wrapped, vault, allowed string
		missing                         string
	)
	err := r.db.QueryRow(`SELECT timestamp, native_balance, wrapped_balance, vault_balance, allowance, missing
		FROM balance_snapshots WHERE account = ? ORDER BY id DESC LIMIT 1`, account).
		Scan(&ts, &native, &wrapped, &vault, &allowed, &missing)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}

	snap := &model.Snapshot{Account: account, FetchedAt: time.Unix(ts, 0)}
	fields := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&snap.Balances.Native, native},
		{&snap.Balances.Wrapped, wrapped},
		{&snap.Balances.Vault, vault},
		{&snap.Allowance.Amount, allowed},
	}
	for _, f := range fields {
		d, err := decimal.NewFromString(f.src)
		if err != nil {
			return nil, fmt.Errorf("parse stored amount %q: %w", f.src, err)
		}
		*f.dst = d
	}
	if missing != "" {
		snap.Missing = strings.Split(missing, ",")
	}
	return snap, nil
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
