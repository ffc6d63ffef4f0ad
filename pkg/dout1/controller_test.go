package dout1

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhadysydney/fridge-controll-app/pkg/store"
	"github.com/mhadysydney/fridge-controll-app/pkg/store/models"
)

const testIMEI = "356307042441013"

type fakeSender struct {
	commands []string
	err      error
}

func (f *fakeSender) Send(_ context.Context, command string) error {
	f.commands = append(f.commands, command)
	return f.err
}

func newController(t *testing.T) (*Controller, *store.GORMStore) {
	t.Helper()

	s, err := store.New(&store.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return New(Config{}, s, nil), s
}

func ts(s string) time.Time {
	t, err := models.ParseTime(s)
	if err != nil {
		panic(err)
	}
	return t
}

func seedState(t *testing.T, s store.Store, state models.DOUT1State) {
	t.Helper()
	state.IMEI = testIMEI
	require.NoError(t, s.UpsertDOUT1State(context.Background(), &state))
}

func getState(t *testing.T, s store.Store) *models.DOUT1State {
	t.Helper()
	state, err := s.GetDOUT1State(context.Background(), testIMEI)
	require.NoError(t, err)
	return state
}

func TestObserve(t *testing.T) {
	ctx := context.Background()

	t.Run("FirstZeroCreatesRow", func(t *testing.T) {
		c, s := newController(t)
		sender := &fakeSender{}

		require.NoError(t, c.Observe(ctx, testIMEI, ts("2024-01-01 00:00:00"), 0, sender))

		state := getState(t, s)
		require.NotNil(t, state.LastZeroTime)
		assert.Equal(t, "2024-01-01 00:00:00", *state.LastZeroTime)
		assert.False(t, state.Active)
		assert.Nil(t, state.DeactivateTime)
		assert.Empty(t, sender.commands)
	})

	t.Run("FirstNonzeroCreatesRowWithoutZeroTime", func(t *testing.T) {
		c, s := newController(t)

		require.NoError(t, c.Observe(ctx, testIMEI, ts("2024-01-01 00:00:00"), 1, &fakeSender{}))

		state := getState(t, s)
		assert.Nil(t, state.LastZeroTime)
		assert.False(t, state.Active)
	})

	t.Run("ActivationAfterTwelveHoursOfZeros", func(t *testing.T) {
		c, s := newController(t)
		zero := "2024-01-01 00:00:00"
		seedState(t, s, models.DOUT1State{LastZeroTime: &zero})
		sender := &fakeSender{}

		require.NoError(t, c.Observe(ctx, testIMEI, ts("2024-01-01 12:00:01"), 0, sender))

		assert.Equal(t, []string{CommandActivate}, sender.commands)
		state := getState(t, s)
		assert.True(t, state.Active)
		require.NotNil(t, state.LastZeroTime)
		assert.Equal(t, zero, *state.LastZeroTime)
		require.NotNil(t, state.DeactivateTime)
		assert.Equal(t, "2024-01-01 13:06:41", *state.DeactivateTime)
	})

	t.Run("ExactlyTwelveHoursDoesNotActivate", func(t *testing.T) {
		c, s := newController(t)
		zero := "2024-01-01 00:00:00"
		seedState(t, s, models.DOUT1State{LastZeroTime: &zero})
		sender := &fakeSender{}

		require.NoError(t, c.Observe(ctx, testIMEI, ts("2024-01-01 12:00:00"), 0, sender))

		assert.Empty(t, sender.commands)
		assert.False(t, getState(t, s).Active)
	})

	t.Run("FailedActivationLeavesStateUntouched", func(t *testing.T) {
		c, s := newController(t)
		zero := "2024-01-01 00:00:00"
		seedState(t, s, models.DOUT1State{LastZeroTime: &zero})
		sender := &fakeSender{err: errors.New("device timeout")}

		require.NoError(t, c.Observe(ctx, testIMEI, ts("2024-01-01 12:00:01"), 0, sender))

		state := getState(t, s)
		assert.False(t, state.Active)
		assert.Nil(t, state.DeactivateTime)

		// The transition retries once the device answers again.
		sender.err = nil
		require.NoError(t, c.Observe(ctx, testIMEI, ts("2024-01-01 12:05:00"), 0, sender))
		assert.True(t, getState(t, s).Active)
	})

	t.Run("ExpiryDeactivates", func(t *testing.T) {
		c, s := newController(t)
		zero := "2024-01-01 00:00:00"
		deact := "2024-01-01 13:06:41"
		seedState(t, s, models.DOUT1State{LastZeroTime: &zero, Active: true, DeactivateTime: &deact})
		sender := &fakeSender{}

		require.NoError(t, c.Observe(ctx, testIMEI, ts("2024-01-01 13:06:41"), 0, sender))

		assert.Equal(t, []string{CommandDeactivate}, sender.commands)
		state := getState(t, s)
		assert.False(t, state.Active)
		assert.Nil(t, state.DeactivateTime)
	})

	t.Run("FailedDeactivationRetriesNextObservation", func(t *testing.T) {
		c, s := newController(t)
		deact := "2024-01-01 13:06:41"
		seedState(t, s, models.DOUT1State{Active: true, DeactivateTime: &deact})
		sender := &fakeSender{err: errors.New("no response")}

		require.NoError(t, c.Observe(ctx, testIMEI, ts("2024-01-01 13:06:41"), 1, sender))
		assert.True(t, getState(t, s).Active)

		sender.err = nil
		require.NoError(t, c.Observe(ctx, testIMEI, ts("2024-01-01 13:10:00"), 1, sender))
		assert.False(t, getState(t, s).Active)
	})

	t.Run("NonzeroResetsZeroRun", func(t *testing.T) {
		c, s := newController(t)
		zero := "2024-01-01 00:00:00"
		seedState(t, s, models.DOUT1State{LastZeroTime: &zero})
		sender := &fakeSender{}

		require.NoError(t, c.Observe(ctx, testIMEI, ts("2024-01-01 06:00:00"), 1, sender))
		assert.Nil(t, getState(t, s).LastZeroTime)

		// The window restarts: a zero twelve hours later starts a new run
		// instead of activating.
		require.NoError(t, c.Observe(ctx, testIMEI, ts("2024-01-01 18:00:00"), 0, sender))
		assert.Empty(t, sender.commands)
		state := getState(t, s)
		assert.False(t, state.Active)
		require.NotNil(t, state.LastZeroTime)
		assert.Equal(t, "2024-01-01 18:00:00", *state.LastZeroTime)
	})

	t.Run("ZerosWhileActiveDoNotReactivate", func(t *testing.T) {
		c, s := newController(t)
		zero := "2024-01-01 00:00:00"
		deact := "2024-01-01 13:06:41"
		seedState(t, s, models.DOUT1State{LastZeroTime: &zero, Active: true, DeactivateTime: &deact})
		sender := &fakeSender{}

		require.NoError(t, c.Observe(ctx, testIMEI, ts("2024-01-01 12:30:00"), 0, sender))

		assert.Empty(t, sender.commands)
		assert.True(t, getState(t, s).Active)
	})

	t.Run("Idempotence", func(t *testing.T) {
		c, s := newController(t)
		zero := "2024-01-01 00:00:00"
		seedState(t, s, models.DOUT1State{LastZeroTime: &zero})
		sender := &fakeSender{}

		at := ts("2024-01-01 12:00:01")
		require.NoError(t, c.Observe(ctx, testIMEI, at, 0, sender))
		first := getState(t, s)

		require.NoError(t, c.Observe(ctx, testIMEI, at, 0, sender))
		second := getState(t, s)

		assert.Equal(t, first, second)
		assert.Equal(t, []string{CommandActivate}, sender.commands)
	})

	t.Run("ActiveImpliesDeactivateTimeInFuture", func(t *testing.T) {
		c, s := newController(t)
		zero := "2024-01-01 00:00:00"
		seedState(t, s, models.DOUT1State{LastZeroTime: &zero})

		at := ts("2024-01-01 12:00:01")
		require.NoError(t, c.Observe(ctx, testIMEI, at, 0, &fakeSender{}))

		state := getState(t, s)
		require.True(t, state.Active)
		require.NotNil(t, state.DeactivateTime)
		deactivateAt, err := models.ParseTime(*state.DeactivateTime)
		require.NoError(t, err)
		assert.True(t, deactivateAt.After(at))
	})
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, uint16(179), cfg.IOID)
	assert.Equal(t, 12*time.Hour, cfg.ZeroTimeout)
	assert.Equal(t, 4000*time.Second, cfg.ActivationDuration)
	assert.NoError(t, cfg.Validate())
}
