package scheduler

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"LeveredVault/internal/model"
	"LeveredVault/internal/notifier"
	"LeveredVault/internal/units"
)

// HandleCommand processes a chat command and returns a reply.
// Evaluations run against the first watched account.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp(s.opts.Labels)
	}
	// Telegram appends "@botname" to commands in group chats.
	name := strings.ToLower(strings.SplitN(fields[0], "@", 2)[0])
	args := fields[1:]

	switch name {
	case "/balances":
		account, ok := s.commandAccount(args)
		if !ok {
			return "No watched account configured."
		}
		snap, err := s.Snapshot(ctx, account)
		if err != nil {
			return fmt.Sprintf("❌ Could not read balances: %v", err)
		}
		return notifier.FormatSnapshot(snap, s.opts.Labels)

	case "/deposit":
		account, ok := s.commandAccount(nil)
		if !ok {
			return "No watched account configured."
		}
		if len(args) == 0 {
			return notifier.FormatHelp(s.opts.Labels)
		}
		currency := model.CurrencyNative
		if len(args) > 1 {
			c, err := model.ParseCurrency(args[1])
			if err != nil {
				return fmt.Sprintf("❌ %v", err)
			}
			currency = c
		}
		amount := units.ParseAmount(args[0])
		d, _, err := s.Deposit(ctx, account, amount, currency, "telegram")
		if err != nil {
			return fmt.Sprintf("❌ Could not evaluate deposit: %v", err)
		}
		return notifier.FormatDepositDecision(amount, currency, d, s.opts.Labels)

	case "/withdraw":
		account, ok := s.commandAccount(nil)
		if !ok {
			return "No watched account configured."
		}
		if len(args) == 0 {
			return notifier.FormatHelp(s.opts.Labels)
		}
		amount := units.ParseAmount(args[0])
		d, _, err := s.Withdraw(ctx, account, amount, "telegram")
		if err != nil {
			return fmt.Sprintf("❌ Could not evaluate withdrawal: %v", err)
		}
		return notifier.FormatWithdrawDecision(amount, d, s.opts.Labels)

	default:
		return notifier.FormatHelp(s.opts.Labels)
	}
}

// commandAccount picks an explicit hex address argument if given, else the
// first watched account.
func (s *Scheduler) commandAccount(args []string) (common.Address, bool) {
	if len(args) > 0 && common.IsHexAddress(args[0]) {
		return common.HexToAddress(args[0]), true
	}
	if len(s.opts.Accounts) == 0 {
		return common.Address{}, false
	}
	return s.opts.Accounts[0], true
}
