package model

import (
	"fmt"
	"strings"
)

// PendingAction is the transaction a caller currently has in flight.
type PendingAction string

const (
	PendingNone        PendingAction = "NONE"
	PendingApproving   PendingAction = "APPROVING"
	PendingDepositing  PendingAction = "DEPOSITING"
	PendingWithdrawing PendingAction = "WITHDRAWING"
)

func ParsePendingAction(s string) (PendingAction, error) {
	switch a := PendingAction(strings.ToUpper(strings.TrimSpace(s))); a {
	case PendingNone, PendingApproving, PendingDepositing, PendingWithdrawing:
		return a, nil
	case "":
		return PendingNone, nil
	default:
		return "", fmt.Errorf("unknown pending action %q", s)
	}
}
