package vkloop

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAlreadySatisfied(t *testing.T) {
	tok := AlreadySatisfied()
	require.True(t, tok.Satisfied())
	require.NoError(t, tok.Wait())
	require.False(t, tok.Consumed())
}

func TestPendingTokenWaitIdempotent(t *testing.T) {
	waits := 0
	tok := PendingToken(func() error {
		waits++
		return nil
	}, nil)

	require.False(t, tok.Satisfied())
	require.NoError(t, tok.Wait())
	require.NoError(t, tok.Wait())
	require.Equal(t, 1, waits)
	require.True(t, tok.Satisfied())
}

func TestPendingTokenPoll(t *testing.T) {
	done := false
	tok := PendingToken(nil, func() bool { return done })

	require.False(t, tok.Satisfied())
	done = true
	require.True(t, tok.Satisfied())
}

func TestPendingTokenWaitError(t *testing.T) {
	calls := 0
	tok := PendingToken(func() error {
		calls++
		if calls == 1 {
			return fmt.Errorf("device lost")
		}
		return nil
	}, nil)

	require.Error(t, tok.Wait())
	require.False(t, tok.Satisfied())
	require.NoError(t, tok.Wait())
}

func TestReclaimRunsReleasesOnce(t *testing.T) {
	done := false
	tok := PendingToken(nil, func() bool { return done })

	released := 0
	tok.Attach(func() { released++ })
	tok.Attach(func() { released++ })

	require.False(t, tok.Reclaim())
	require.Equal(t, 0, released)

	done = true
	require.True(t, tok.Reclaim())
	require.Equal(t, 2, released)

	require.True(t, tok.Reclaim())
	require.Equal(t, 2, released)
}

func TestConsumeTwicePanics(t *testing.T) {
	tok := AlreadySatisfied()
	tok.Consume()
	require.True(t, tok.Consumed())
	require.Panics(t, func() { tok.Consume() })
}
