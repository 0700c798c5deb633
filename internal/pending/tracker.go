// Package pending tracks the single in-flight transaction per account.
package pending

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"LeveredVault/internal/model"
)

var (
	ErrActionInFlight = errors.New("another action is already in flight")
	ErrInvalidAction  = errors.New("cannot begin the NONE action")
)

// Tracker holds one account's PendingAction with concurrency safety.
type Tracker struct {
	mu        sync.Mutex
	current   model.PendingAction
	startedAt time.Time
}

// NewTracker returns a tracker with nothing in flight.
func NewTracker() *Tracker {
	return &Tracker{current: model.PendingNone}
}

// Begin marks action as in flight. It fails if anything else is.
func (t *Tracker) Begin(action model.PendingAction) error {
	if action == model.PendingNone || action == "" {
		return ErrInvalidAction
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current != model.PendingNone {
		return fmt.Errorf("begin %s while %s: %w", action, t.current, ErrActionInFlight)
	}
	t.current = action
	t.startedAt = time.Now()
	return nil
}

// Finish clears action. It reports false when action was not the one in
// flight, which leaves the tracker unchanged.
func (t *Tracker) Finish(action model.PendingAction) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current != action || action == model.PendingNone {
		return false
	}
	t.current = model.PendingNone
	t.startedAt = time.Time{}
	return true
}

// Current returns the in-flight action and when it began.
func (t *Tracker) Current() (model.PendingAction, time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current, t.startedAt
}

// Registry holds a Tracker per account with an action in flight. An
// account's entry is created by Begin and dropped by Finish, so idle
// accounts cost nothing.
type Registry struct {
	mu       sync.Mutex
	trackers map[string]*Tracker
	logger   *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{trackers: make(map[string]*Tracker), logger: logger}
}

// Accounts are matched case-insensitively.
func key(account string) string { return strings.ToLower(account) }

// Begin marks action as in flight for account.
func (r *Registry) Begin(account string, action model.PendingAction) error {
	if action == model.PendingNone || action == "" {
		return ErrInvalidAction
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trackers[key(account)]
	if !ok {
		t = NewTracker()
	}
	if err := t.Begin(action); err != nil {
		return err
	}
	r.trackers[key(account)] = t
	r.logger.Debug("pending action started", zap.String("account", account), zap.String("action", string(action)))
	return nil
}

// Finish clears action for account and drops its tracker. It reports false
// when action was not the one in flight.
func (r *Registry) Finish(account string, action model.PendingAction) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trackers[key(account)]
	if !ok || !t.Finish(action) {
		return false
	}
	delete(r.trackers, key(account))
	r.logger.Debug("pending action finished", zap.String("account", account), zap.String("action", string(action)))
	return true
}

// Current returns the in-flight action for account and when it began.
// Accounts with nothing in flight report PendingNone and a zero time.
func (r *Registry) Current(account string) (model.PendingAction, time.Time) {
	r.mu.Lock()
	t, ok := r.trackers[key(account)]
	r.mu.Unlock()
	if !ok {
		return model.PendingNone, time.Time{}
	}
	return t.Current()
}

// InFlight counts accounts with an action in flight.
func (r *Registry) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trackers)
}
