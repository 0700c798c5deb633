package notifier

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"LeveredVault/internal/eligibility"
	"LeveredVault/internal/model"
)

var labels = Labels{Native: "MATIC", Wrapped: "WMATIC", Vault: "LVT", Places: 4}

func TestFormatDepositDecision_Approve(t *testing.T) {
	amount := decimal.NewFromInt(5)
	d := eligibility.EvaluateDeposit(eligibility.DepositInput{
		Currency:  model.CurrencyWrapped,
		Amount:    amount,
		Balances:  model.AccountBalances{Wrapped: decimal.NewFromInt(10)},
		Allowance: model.AllowanceState{Amount: decimal.NewFromInt(2)},
	})
	msg := FormatDepositDecision(amount, model.CurrencyWrapped, d, labels)
	for _, want := range []string{"Deposit 5 WMATIC", "approval required", "approve 5 WMATIC"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in message:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "Warning") {
		t.Errorf("unexpected warning in message:\n%s", msg)
	}
}

func TestFormatWithdrawDecision_Warning(t *testing.T) {
	amount := decimal.NewFromInt(50)
	d := eligibility.EvaluateWithdraw(eligibility.WithdrawInput{
		Amount:   amount,
		Balances: model.AccountBalances{Vault: decimal.NewFromInt(20)},
	})
	msg := FormatWithdrawDecision(amount, d, labels)
	if !strings.Contains(msg, "Withdraw 50 LVT") || !strings.Contains(msg, "insufficient funds to complete this withdrawal") {
		t.Errorf("unexpected message:\n%s", msg)
	}
}

func TestFormatSnapshot(t *testing.T) {
	snap := &model.Snapshot{
		Account:   "0x00000000000000000000000000000000000000A1",
		Balances:  model.AccountBalances{Native: decimal.RequireFromString("1.234567")},
		Missing:   []string{model.FieldVault},
		FetchedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	msg := FormatSnapshot(snap, labels)
	for _, want := range []string{"0x0000…00A1", "MATIC balance: 1.2345", "unavailable (shown as 0): vault_token_balance", "2024-01-02 03:04:05"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in message:\n%s", want, msg)
		}
	}
}

func TestFormatChange_OnlyChangedRows(t *testing.T) {
	prev := &model.Snapshot{Account: "0xa1", Balances: model.AccountBalances{Native: decimal.NewFromInt(10), Vault: decimal.NewFromInt(1)}}
	cur := &model.Snapshot{Account: "0xa1", Balances: model.AccountBalances{Native: decimal.NewFromInt(7), Vault: decimal.NewFromInt(1)}}
	msg := FormatChange(prev, cur, labels)
	if !strings.Contains(msg, "MATIC: 10 → 7") {
		t.Errorf("expected native change in message:\n%s", msg)
	}
	if strings.Contains(msg, "LVT") {
		t.Errorf("unchanged vault balance should be omitted:\n%s", msg)
	}
}
