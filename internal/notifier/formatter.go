package notifier

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"

	"LeveredVault/internal/model"
	"LeveredVault/internal/units"
)

// Labels names the assets in messages.
type Labels struct {
	Native  string
	Wrapped string
	Vault   string
	Places  int32
}

func (l Labels) symbol(c model.Currency) string {
	if c == model.CurrencyWrapped {
		return l.Wrapped
	}
	return l.Native
}

func (l Labels) amount(d decimal.Decimal) string {
	return units.Format(d, l.Places)
}

var outcomeText = map[model.Outcome]string{
	model.OutcomeRequiresApproval:  "approval required",
	model.OutcomeInsufficientFunds: "insufficient funds",
	model.OutcomeReadyToDeposit:    "ready to deposit",
	model.OutcomeReadyToWithdraw:   "ready to withdraw",
	model.OutcomeBlocked:           "enter an amount greater than zero",
}

// FormatDepositDecision renders a deposit decision as a Telegram message.
func FormatDepositDecision(amount decimal.Decimal, c model.Currency, d model.Decision, l Labels) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>Deposit %s %s</b>\n\n", outcomeIcon(d.Outcome), l.amount(amount), l.symbol(c)))
	b.WriteString(fmt.Sprintf("Result: %s\n", outcomeText[d.Outcome]))
	if d.Action == model.ActionApprove {
		b.WriteString(fmt.Sprintf("Next step: approve %s %s for the vault\n", l.amount(d.ApproveAmount), l.Wrapped))
	}
	writeWarning(&b, d)
	return b.String()
}

// FormatWithdrawDecision renders a withdrawal decision as a Telegram message.
func FormatWithdrawDecision(amount decimal.Decimal, d model.Decision, l Labels) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>Withdraw %s %s</b>\n\n", outcomeIcon(d.Outcome), l.amount(amount), l.Vault))
	b.WriteString(fmt.Sprintf("Result: %s\n", outcomeText[d.Outcome]))
	writeWarning(&b, d)
	return b.String()
}

// FormatSnapshot formats an account's balances for display.
func FormatSnapshot(snap *model.Snapshot, l Labels) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>Vault account</b> %s\n\n", shortAddress(snap.Account)))
	b.WriteString(fmt.Sprintf("%s balance: %s\n", l.Native, l.amount(snap.Balances.Native)))
	b.WriteString(fmt.Sprintf("%s balance: %s\n", l.Wrapped, l.amount(snap.Balances.Wrapped)))
	b.WriteString(fmt.Sprintf("%s balance: %s\n", l.Vault, l.amount(snap.Balances.Vault)))
	b.WriteString(fmt.Sprintf("%s allowance: %s\n", l.Wrapped, l.amount(snap.Allowance.Amount)))
	if len(snap.Missing) > 0 {
		b.WriteString(fmt.Sprintf("⚠️ unavailable (shown as 0): %s\n", strings.Join(snap.Missing, ", ")))
	}
	b.WriteString(fmt.Sprintf("Updated: %s\n", snap.FetchedAt.Format("2006-01-02 15:04:05")))
	return b.String()
}

// FormatChange reports how an account moved between two snapshots.
func FormatChange(prev, cur *model.Snapshot, l Labels) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔔 <b>Balance change</b> %s\n\n", shortAddress(cur.Account)))
	rows := []struct {
		label    string
		from, to decimal.Decimal
	}{
		{l.Native, prev.Balances.Native, cur.Balances.Native},
		{l.Wrapped, prev.Balances.Wrapped, cur.Balances.Wrapped},
		{l.Vault, prev.Balances.Vault, cur.Balances.Vault},
		{l.Wrapped + " allowance", prev.Allowance.Amount, cur.Allowance.Amount},
	}
	for _, r := range rows {
		if r.from.Equal(r.to) {
			continue
		}
		b.WriteString(fmt.Sprintf("%s: %s → %s\n", r.label, l.amount(r.from), l.amount(r.to)))
	}
	return b.String()
}

// FormatHelp lists the chat commands.
func FormatHelp(l Labels) string {
	return fmt.Sprintf("Commands:\n• /balances\n• /deposit &lt;amount&gt; [%s|%s]\n• /withdraw &lt;amount&gt;\n• /help",
		l.Native, l.Wrapped)
}

func writeWarning(b *strings.Builder, d model.Decision) {
	if d.Warning != "" {
		b.WriteString(fmt.Sprintf("\n⚠️ <b>Warning</b>: %s\n", html.EscapeString(d.Warning)))
	}
}

func outcomeIcon(o model.Outcome) string {
	switch o {
	case model.OutcomeReadyToDeposit, model.OutcomeReadyToWithdraw:
		return "✅"
	case model.OutcomeRequiresApproval:
		return "📝"
	case model.OutcomeInsufficientFunds:
		return "❌"
	default:
		return "⏸"
	}
}

func shortAddress(a string) string {
	if len(a) <= 12 {
		return a
	}
	return a[:6] + "…" + a[len(a)-4:]
}
