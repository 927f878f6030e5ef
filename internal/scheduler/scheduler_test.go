package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"investx/internal/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type settler struct {
	calls    atomic.Int32
	accounts []uint
	n        int
	err      error
}

func (s *settler) SettleDue(_ context.Context, accountID uint) (int, error) {
	s.calls.Add(1)
	s.accounts = append(s.accounts, accountID)
	return s.n, s.err
}

func TestRunOnceSettlesAllAccounts(t *testing.T) {
	st := &settler{n: 3}
	s, err := scheduler.New("*/5 * * * *", st)
	require.NoError(t, err)

	n, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []uint{0}, st.accounts)
}

func TestRunOncePropagatesError(t *testing.T) {
	boom := errors.New("db down")
	s, err := scheduler.New("@hourly", &settler{n: 1, err: boom})
	require.NoError(t, err)

	n, err := s.RunOnce(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n)
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := scheduler.New("every five minutes", &settler{})
	assert.Error(t, err)
}

func TestStartRunsJob(t *testing.T) {
	st := &settler{}
	s, err := scheduler.New("@every 1s", st)
	require.NoError(t, err)
	s.Start()

	assert.Eventually(t, func() bool { return st.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	s.Stop(ctx)
}
