package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mesrof/internal/core"
	"mesrof/internal/notify"
)

type GoalStore interface {
	AddFinancialGoal(ctx context.Context, g core.FinancialGoal) error
	GetFinancialGoal(ctx context.Context, id string) (*core.FinancialGoal, error)
	UpdateFinancialGoal(ctx context.Context, id string, u core.GoalUpdate) error
}

// GoalService creates goals and records contributions towards them. A goal
// whose current amount reaches its target is marked completed once and
// announced through the notifier.
type GoalService struct {
	store    GoalStore
	notifier notify.Notifier
	now      func() time.Time
}

func NewGoalService(store GoalStore, notifier notify.Notifier) *GoalService {
	return &GoalService{store: store, notifier: notifier, now: time.Now}
}

// SetClock replaces the time source used for deadline validation.
func (s *GoalService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateGoal validates g against the current time and stores it.
func (s *GoalService) CreateGoal(ctx context.Context, g core.FinancialGoal) (string, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if err := g.Validate(s.now()); err != nil {
		return "", fmt.Errorf("validate goal: %w", err)
	}
	reached := !bool(g.IsCompleted) && g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount.Decimal)
	if reached {
		g.IsCompleted = true
	}
	if err := s.store.AddFinancialGoal(ctx, g); err != nil {
		return "", fmt.Errorf("save goal: %w", err)
	}
	if reached {
		s.achieved(ctx, g.Title)
	}
	return g.ID, nil
}

// Contribute adds amount to the goal's current amount and returns the
// updated goal.
func (s *GoalService) Contribute(ctx context.Context, id string, amount core.Money) (*core.FinancialGoal, error) {
	if err := amount.Validate(); err != nil {
		return nil, fmt.Errorf("validate contribution: %w", err)
	}
	g, err := s.store.GetFinancialGoal(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("contribute to goal: %w", err)
	}

	current := g.CurrentAmount.Plus(amount)
	u := core.GoalUpdate{CurrentAmount: &current}
	reached := !bool(g.IsCompleted) && current.GreaterThanOrEqual(g.TargetAmount.Decimal)
	if reached {
		u.IsCompleted = core.Ptr(true)
	}
	if err := s.store.UpdateFinancialGoal(ctx, id, u); err != nil {
		return nil, fmt.Errorf("contribute to goal: %w", err)
	}

	g.CurrentAmount = current
	if reached {
		g.IsCompleted = true
		s.achieved(ctx, g.Title)
	}
	return g, nil
}

func (s *GoalService) achieved(ctx context.Context, title string) {
	slog.InfoContext(ctx, "Goal completed", "title", title)
	if s.notifier == nil {
		return
	}
	if err := s.notifier.GoalAchieved(ctx, title); err != nil {
		slog.ErrorContext(ctx, "Failed to send goal notification", "title", title, "error", err)
	}
}
