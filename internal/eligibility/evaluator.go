// Package eligibility decides whether a deposit or withdrawal can proceed.
// Every function here is pure.
package eligibility

import (
	"github.com/shopspring/decimal"

	"LeveredVault/internal/model"
	"LeveredVault/internal/units"
)

const (
	WarningDepositFunds  = "You have insufficient funds to complete this deposit. Please increase your funds or alter the deposit amount before continuing."
	WarningWithdrawFunds = "You have insufficient funds to complete this withdrawal. Please alter the withdraw amount before continuing."
)

// DepositInput is everything a deposit decision depends on.
type DepositInput struct {
	Currency  model.Currency
	Amount    decimal.Decimal
	Balances  model.AccountBalances
	Allowance model.AllowanceState
}

// WithdrawInput is everything a withdrawal decision depends on.
type WithdrawInput struct {
	Amount   decimal.Decimal
	Balances model.AccountBalances
}

// EvaluateDeposit maps a deposit request to exactly one outcome.
// Order: non-positive amount, then allowance, then balance.
func EvaluateDeposit(in DepositInput) model.Decision {
	amount := units.NonNegative(in.Amount)
	d := model.Decision{Action: model.ActionDeposit}

	if !in.Currency.Valid() {
		d.Outcome = model.OutcomeBlocked
		return d
	}

	insufficient := amount.GreaterThan(spendable(in.Currency, in.Balances))
	if insufficient {
		d.Warning = WarningDepositFunds
	}

	switch {
	case !amount.IsPositive():
		d.Outcome = model.OutcomeBlocked
	case requiresApproval(in.Currency, amount, in.Allowance):
		d.Outcome = model.OutcomeRequiresApproval
		d.Action = model.ActionApprove
		d.ApproveAmount = amount
		d.Enabled = true
	case insufficient:
		d.Outcome = model.OutcomeInsufficientFunds
	default:
		d.Outcome = model.OutcomeReadyToDeposit
		d.Enabled = true
	}
	return d
}

// EvaluateWithdraw maps a withdrawal request to exactly one outcome.
func EvaluateWithdraw(in WithdrawInput) model.Decision {
	amount := units.NonNegative(in.Amount)
	d := model.Decision{Action: model.ActionWithdraw}

	switch {
	case amount.GreaterThan(units.NonNegative(in.Balances.Vault)):
		d.Outcome = model.OutcomeInsufficientFunds
		d.Warning = WarningWithdrawFunds
	case amount.IsPositive():
		d.Outcome = model.OutcomeReadyToWithdraw
		d.Enabled = true
	default:
		d.Outcome = model.OutcomeBlocked
	}
	return d
}

// Gate disables the decision's trigger while another action is in flight.
// The outcome is left untouched.
func Gate(d model.Decision, pending model.PendingAction) model.Decision {
	if pending != "" && pending != model.PendingNone {
		d.Enabled = false
	}
	return d
}

func spendable(c model.Currency, b model.AccountBalances) decimal.Decimal {
	if c == model.CurrencyWrapped {
		return units.NonNegative(b.Wrapped)
	}
	return units.NonNegative(b.Native)
}

// requiresApproval only applies to the wrapped token; native deposits carry
// value with the call and need no allowance.
func requiresApproval(c model.Currency, amount decimal.Decimal, a model.AllowanceState) bool {
	if c != model.CurrencyWrapped {
		return false
	}
	allowance := units.NonNegative(a.Amount)
	return allowance.IsZero() || amount.GreaterThan(allowance)
}
