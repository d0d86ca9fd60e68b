package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mesrof/internal/core"
	"mesrof/internal/storage"
)

func laptopGoal() core.FinancialGoal {
	return core.FinancialGoal{
		Title:        "Laptop",
		TargetAmount: core.MoneyFromInt(1000),
		Deadline:     core.NewDate(2024, 12, 31),
		Category:     "tech",
		Emoji:        "💻",
	}
}

func TestGoalService_Contribute(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	n := &recordingNotifier{}
	svc := NewGoalService(store, n)
	svc.SetClock(func() time.Time { return fixedNow })

	id, err := svc.CreateGoal(ctx, laptopGoal())
	require.NoError(t, err)

	g, err := svc.Contribute(ctx, id, core.MoneyFromInt(600))
	require.NoError(t, err)
	assert.Equal(t, "600", g.CurrentAmount.String())
	assert.False(t, bool(g.IsCompleted))
	assert.Empty(t, n.goals)

	g, err = svc.Contribute(ctx, id, core.MoneyFromInt(400))
	require.NoError(t, err)
	assert.True(t, bool(g.IsCompleted))
	assert.Equal(t, []string{"Laptop"}, n.goals)

	// Further contributions do not announce the goal again.
	_, err = svc.Contribute(ctx, id, core.MoneyFromInt(50))
	require.NoError(t, err)
	assert.Len(t, n.goals, 1)

	stored, err := store.GetFinancialGoal(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "1050", stored.CurrentAmount.String())
	assert.True(t, bool(stored.IsCompleted))
}

func TestGoalService_CreateGoalValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewGoalService(openStore(t), nil)
	svc.SetClock(func() time.Time { return fixedNow })

	past := laptopGoal()
	past.Deadline = core.NewDate(2024, 1, 1)
	_, err := svc.CreateGoal(ctx, past)
	assert.ErrorIs(t, err, core.ErrInvalidDeadline)

	short := laptopGoal()
	short.Title = "TV"
	_, err = svc.CreateGoal(ctx, short)
	assert.ErrorIs(t, err, core.ErrInvalidTitle)
}

func TestGoalService_CreateAlreadyReached(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	n := &recordingNotifier{}
	svc := NewGoalService(store, n)
	svc.SetClock(func() time.Time { return fixedNow })

	g := laptopGoal()
	g.CurrentAmount = core.MoneyFromInt(1000)
	id, err := svc.CreateGoal(ctx, g)
	require.NoError(t, err)

	stored, err := store.GetFinancialGoal(ctx, id)
	require.NoError(t, err)
	assert.True(t, bool(stored.IsCompleted))
	assert.Equal(t, []string{"Laptop"}, n.goals)
}

func TestGoalService_ContributeErrors(t *testing.T) {
	ctx := context.Background()
	svc := NewGoalService(openStore(t), nil)

	_, err := svc.Contribute(ctx, "missing", core.MoneyFromInt(1))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = svc.Contribute(ctx, "missing", core.MoneyFromInt(-5))
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestReminderIntent(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	n := &recordingNotifier{}

	sent, err := ReminderIntent(ctx, store, n)
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, []string{"20:00"}, n.reminders)

	require.NoError(t, store.UpdateUserSettings(ctx, core.SettingsUpdate{DailyReminder: core.Ptr(false)}))
	sent, err = ReminderIntent(ctx, store, n)
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Len(t, n.reminders, 1)
}
