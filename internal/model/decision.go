package model

import "github.com/shopspring/decimal"

// Outcome is the eligibility verdict for a requested deposit or withdrawal.
type Outcome string

const (
	OutcomeRequiresApproval  Outcome = "REQUIRES_APPROVAL"
	OutcomeInsufficientFunds Outcome = "INSUFFICIENT_FUNDS"
	OutcomeReadyToDeposit    Outcome = "READY_TO_DEPOSIT"
	OutcomeReadyToWithdraw   Outcome = "READY_TO_WITHDRAW"
	OutcomeBlocked           Outcome = "BLOCKED"
)

// Action is the trigger a rendering layer should offer.
type Action string

const (
	ActionApprove  Action = "APPROVE"
	ActionDeposit  Action = "DEPOSIT"
	ActionWithdraw Action = "WITHDRAW"
)

// Decision is the evaluator result plus the hints needed to render it.
type Decision struct {
	Outcome       Outcome         `json:"outcome"`
	Action        Action          `json:"action"`
	Enabled       bool            `json:"enabled"`
	ApproveAmount decimal.Decimal `json:"approve_amount"`
	Warning       string          `json:"warning,omitempty"`
}
