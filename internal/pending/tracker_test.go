package pending

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"LeveredVault/internal/model"
)

func TestTracker_BeginFinish(t *testing.T) {
	tr := NewTracker()
	a, _ := tr.Current()
	assert.Equal(t, model.PendingNone, a)

	require.NoError(t, tr.Begin(model.PendingApproving))
	err := tr.Begin(model.PendingDepositing)
	assert.ErrorIs(t, err, ErrActionInFlight)

	assert.False(t, tr.Finish(model.PendingDepositing), "finishing a different action must be ignored")
	a, started := tr.Current()
	assert.Equal(t, model.PendingApproving, a)
	assert.False(t, started.IsZero())

	assert.True(t, tr.Finish(model.PendingApproving))
	require.NoError(t, tr.Begin(model.PendingDepositing))
}

func TestTracker_BeginNone(t *testing.T) {
	tr := NewTracker()
	assert.ErrorIs(t, tr.Begin(model.PendingNone), ErrInvalidAction)
	assert.False(t, tr.Finish(model.PendingNone))
}

func TestTracker_OneInFlightUnderContention(t *testing.T) {
	tr := NewTracker()
	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tr.Begin(model.PendingWithdrawing) == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	a, _ := r.Current("0xAbC")
	assert.Equal(t, model.PendingNone, a)
	assert.Equal(t, 0, r.InFlight(), "reading an idle account must not create an entry")

	require.NoError(t, r.Begin("0xAbC", model.PendingDepositing))
	assert.ErrorIs(t, r.Begin("0xabc", model.PendingApproving), ErrActionInFlight)
	a, started := r.Current("0xabc")
	assert.Equal(t, model.PendingDepositing, a)
	assert.False(t, started.IsZero())

	require.NoError(t, r.Begin("0xdef", model.PendingWithdrawing))
	assert.Equal(t, 2, r.InFlight())

	assert.False(t, r.Finish("0xabc", model.PendingWithdrawing))
	assert.True(t, r.Finish("0xABC", model.PendingDepositing))
	assert.Equal(t, 1, r.InFlight())
	assert.False(t, r.Finish("0xabc", model.PendingDepositing), "second finish must be a no-op")
}

func TestRegistry_IdleAccountsAreNotRetained(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	for i := 0; i < 100; i++ {
		account := fmt.Sprintf("0x%040x", i)
		r.Current(account)
		assert.ErrorIs(t, r.Begin(account, model.PendingNone), ErrInvalidAction)
		assert.False(t, r.Finish(account, model.PendingApproving))
	}
	assert.Equal(t, 0, r.InFlight())
	assert.Empty(t, r.trackers)
}

func TestRegistry_OneInFlightUnderContention(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Begin("0xabc", model.PendingApproving) == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}
