package recorder

import (
	"time"

	"LeveredVault/internal/model"
)

// EvaluationKind separates deposit and withdrawal decisions.
type EvaluationKind string

const (
	KindDeposit  EvaluationKind = "DEPOSIT"
	KindWithdraw EvaluationKind = "WITHDRAW"
)

// Evaluation is one evaluator call and its result.
type Evaluation struct {
	Account  string
	Kind     EvaluationKind
	Currency model.Currency // empty for withdrawals
	Amount   string
	Decision model.Decision
	Source   string // "api", "telegram"
}

// PendingEvent records a PendingAction transition.
type PendingEvent struct {
	Account string
	Action  model.PendingAction
	Phase   string // "BEGIN" or "FINISH"
	Elapsed time.Duration
}

// Recorder persists history for later analysis.
type Recorder interface {
	RecordSnapshot(snap *model.Snapshot) error
	RecordEvaluation(evt *Evaluation) error
	RecordPending(evt *PendingEvent) error
	// LatestSnapshot returns the newest stored snapshot for account, or nil.
	LatestSnapshot(account string) (*model.Snapshot, error)
	Close() error
}
