package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"LeveredVault/internal/collector"
	"LeveredVault/internal/eligibility"
	"LeveredVault/internal/metrics"
	"LeveredVault/internal/model"
	"LeveredVault/internal/notifier"
	"LeveredVault/internal/pending"
	"LeveredVault/internal/recorder"
)

// Options configures a Scheduler.
type Options struct {
	Accounts    []common.Address
	SnapshotTTL time.Duration
	Labels      notifier.Labels
}

// Scheduler runs the refresh and summary jobs and serves evaluations
// against the latest snapshot of each account.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Pending   *pending.Registry
	Notifier  notifier.Sender
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics
	Ctx       context.Context

	opts   Options
	logger *zap.Logger

	watched map[common.Address]bool

	mu     sync.Mutex
	latest map[common.Address]*model.Snapshot // watched accounts only
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, reg *pending.Registry, sender notifier.Sender,
	rec recorder.Recorder, m *metrics.Metrics, opts Options, logger *zap.Logger) *Scheduler {
	watched := make(map[common.Address]bool, len(opts.Accounts))
	for _, a := range opts.Accounts {
		watched[a] = true
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Pending:   reg,
		Notifier:  sender,
		Recorder:  rec,
		Metrics:   m,
		Ctx:       ctx,
		opts:      opts,
		logger:    logger,
		watched:   watched,
		latest:    make(map[common.Address]*model.Snapshot),
	}
}

// RegisterAll registers the refresh and summary tasks.
func (s *Scheduler) RegisterAll(refreshCron, summaryCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	if _, err := s.Cron.AddFunc(summaryCron, s.summaryTask); err != nil {
		return fmt.Errorf("register summary task: %w", err)
	}
	return nil
}

// Start restores the last stored snapshots and starts the cron scheduler.
func (s *Scheduler) Start() {
	s.restore()
	s.Cron.Start()
	s.logger.Info("scheduler started", zap.Int("accounts", len(s.opts.Accounts)))
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// Accounts returns the watched accounts.
func (s *Scheduler) Accounts() []common.Address {
	return s.opts.Accounts
}

// restore seeds the cache from the recorder so changes made while the
// service was down are reported by the first refresh.
func (s *Scheduler) restore() {
	for _, account := range s.opts.Accounts {
		snap, err := s.Recorder.LatestSnapshot(account.Hex())
		if err != nil {
			s.logger.Warn("restore snapshot", zap.String("account", account.Hex()), zap.Error(err))
			continue
		}
		if snap == nil {
			continue
		}
		s.mu.Lock()
		if s.latest[account] == nil {
			s.latest[account] = snap
		}
		s.mu.Unlock()
	}
}

// RefreshNow runs the refresh task immediately.
func (s *Scheduler) RefreshNow() {
	s.refreshTask()
}

func (s *Scheduler) refreshTask() {
	s.logger.Debug("running refresh task")
	for _, account := range s.opts.Accounts {
		snap, err := s.collect(s.Ctx, account)
		if err != nil {
			s.logger.Error("refresh account", zap.String("account", account.Hex()), zap.Error(err))
			continue
		}
		prev := s.store(account, snap)
		if prev != nil && snap.Changed(prev) {
			s.trySend(notifier.FormatChange(prev, snap, s.opts.Labels))
		}
	}
}

func (s *Scheduler) summaryTask() {
	s.logger.Info("running summary task")
	for _, account := range s.opts.Accounts {
		snap, err := s.Snapshot(s.Ctx, account)
		if err != nil {
			s.logger.Error("summary snapshot", zap.String("account", account.Hex()), zap.Error(err))
			continue
		}
		s.trySend(notifier.FormatSnapshot(snap, s.opts.Labels))
	}
}

// Snapshot returns the cached snapshot for account when it is younger than
// the configured TTL, otherwise reads a fresh one.
func (s *Scheduler) Snapshot(ctx context.Context, account common.Address) (*model.Snapshot, error) {
	s.mu.Lock()
	cached := s.latest[account]
	s.mu.Unlock()
	if cached != nil && time.Since(cached.FetchedAt) < s.opts.SnapshotTTL {
		return cached, nil
	}

	snap, err := s.collect(ctx, account)
	if err != nil {
		return nil, err
	}
	s.store(account, snap)
	return snap, nil
}

// Deposit evaluates a deposit for account against its current snapshot and
// pending action.
func (s *Scheduler) Deposit(ctx context.Context, account common.Address, amount decimal.Decimal, currency model.Currency, source string) (model.Decision, *model.Snapshot, error) {
	snap, err := s.Snapshot(ctx, account)
	if err != nil {
		return model.Decision{}, nil, err
	}
	d := eligibility.EvaluateDeposit(eligibility.DepositInput{
		Currency:  currency,
		Amount:    amount,
		Balances:  snap.Balances,
		Allowance: snap.Allowance,
	})
	d = s.gate(account, d)
	s.recordEvaluation(&recorder.Evaluation{
		Account:  account.Hex(),
		Kind:     recorder.KindDeposit,
		Currency: currency,
		Amount:   amount.String(),
		Decision: d,
		Source:   source,
	})
	return d, snap, nil
}

// Withdraw evaluates a withdrawal for account against its current snapshot
// and pending action.
func (s *Scheduler) Withdraw(ctx context.Context, account common.Address, amount decimal.Decimal, source string) (model.Decision, *model.Snapshot, error) {
	snap, err := s.Snapshot(ctx, account)
	if err != nil {
		return model.Decision{}, nil, err
	}
	d := eligibility.EvaluateWithdraw(eligibility.WithdrawInput{Amount: amount, Balances: snap.Balances})
	d = s.gate(account, d)
	s.recordEvaluation(&recorder.Evaluation{
		Account:  account.Hex(),
		Kind:     recorder.KindWithdraw,
		Amount:   amount.String(),
		Decision: d,
		Source:   source,
	})
	return d, snap, nil
}

func (s *Scheduler) gate(account common.Address, d model.Decision) model.Decision {
	action, _ := s.Pending.Current(account.Hex())
	return eligibility.Gate(d, action)
}

func (s *Scheduler) collect(ctx context.Context, account common.Address) (*model.Snapshot, error) {
	start := time.Now()
	snap, err := s.Collector.Collect(ctx, account)
	if s.Metrics != nil {
		s.Metrics.SnapshotDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, err
	}
	if s.Metrics != nil {
		for _, f := range snap.Missing {
			s.Metrics.SnapshotMissing.WithLabelValues(f).Inc()
		}
	}
	if err := s.Recorder.RecordSnapshot(snap); err != nil {
		s.logger.Error("record snapshot", zap.String("account", snap.Account), zap.Error(err))
	}
	return snap, nil
}

// store replaces the cached snapshot and returns the previous one. Only
// watched accounts are cached.
func (s *Scheduler) store(account common.Address, snap *model.Snapshot) *model.Snapshot {
	if !s.watched[account] {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.latest[account]
	s.latest[account] = snap
	return prev
}

func (s *Scheduler) recordEvaluation(evt *recorder.Evaluation) {
	if s.Metrics != nil {
		s.Metrics.Evaluations.WithLabelValues(string(evt.Kind), string(evt.Decision.Outcome)).Inc()
	}
	if err := s.Recorder.RecordEvaluation(evt); err != nil {
		s.logger.Error("record evaluation", zap.Error(err))
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.logger.Error("send notification", zap.Error(err))
	}
}
