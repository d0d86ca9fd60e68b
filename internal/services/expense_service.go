package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"mesrof/internal/core"
	"mesrof/internal/notify"
)

// BudgetWarningThreshold is the share of a category budget, in percent,
// from which a new expense raises a budget warning.
const BudgetWarningThreshold = 80.0

// ExpenseStore is the part of the record store the expense service uses.
type ExpenseStore interface {
	AddExpense(ctx context.Context, e core.Expense) error
	GetExpenseByID(ctx context.Context, id string) (*core.Expense, error)
	UpdateExpense(ctx context.Context, id string, u core.ExpenseUpdate) error
	DeleteExpense(ctx context.Context, id string) error
	GetUserSettings(ctx context.Context) (*core.UserSettings, error)
	GetCategorySpending(ctx context.Context, month core.Month) ([]core.CategorySpending, error)
}

// Invalidator drops derived data after a write, see analytics.Service.
type Invalidator interface {
	Invalidate()
}

// ExpenseService validates and stores expenses, then checks the category
// budget and emits a warning intent when it is nearly used up.
type ExpenseService struct {
	store    ExpenseStore
	notifier notify.Notifier
	reports  Invalidator
}

// NewExpenseService wires the service. notifier and reports may be nil.
func NewExpenseService(store ExpenseStore, notifier notify.Notifier, reports Invalidator) *ExpenseService {
	return &ExpenseService{
		store:    store,
		notifier: notifier,
		reports:  reports,
	}
}

// CreateExpense stores e, assigning a fresh id when e.ID is empty, and
// returns the id. Notification failures are logged and never fail the call.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validate expense: %w", err)
	}
	if err := s.store.AddExpense(ctx, e); err != nil {
		return "", fmt.Errorf("save expense: %w", err)
	}
	s.changed()

	slog.InfoContext(ctx, "Expense created", "id", e.ID, "amount", e.Amount.String(), "category", string(e.Category))
	s.checkBudget(ctx, e.Category, core.MonthOf(e.Date.Time))
	return e.ID, nil
}

// UpdateExpense applies the patch and re-checks the budget of the
// expense's category.
func (s *ExpenseService) UpdateExpense(ctx context.Context, id string, u core.ExpenseUpdate) error {
	if err := s.store.UpdateExpense(ctx, id, u); err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	s.changed()

	if u.Amount == nil && u.Category == nil && u.Date == nil {
		return nil
	}
	e, err := s.store.GetExpenseByID(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to reload expense for budget check", "id", id, "error", err)
		return nil
	}
	s.checkBudget(ctx, e.Category, core.MonthOf(e.Date.Time))
	return nil
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, id string) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.changed()
	return nil
}

func (s *ExpenseService) changed() {
	if s.reports != nil {
		s.reports.Invalidate()
	}
}

// checkBudget warns when the category has a budget and the month's spending
// in it reached BudgetWarningThreshold percent. Both the notifications and
// budget warnings settings must be on.
func (s *ExpenseService) checkBudget(ctx context.Context, category core.Category, month core.Month) {
	if s.notifier == nil {
		return
	}
	settings, err := s.store.GetUserSettings(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read settings for budget check", "error", err)
		return
	}
	if !settings.NotificationsEnabled || !settings.BudgetWarnings {
		return
	}

	spending, err := s.store.GetCategorySpending(ctx, month)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read category spending", "month", month.String(), "error", err)
		return
	}
	for _, cs := range spending {
		if cs.Category.ID != string(category) {
			continue
		}
		pct := math.Round(cs.Percentage()*100) / 100
		if pct < BudgetWarningThreshold {
			return
		}
		if err := s.notifier.BudgetWarning(ctx, string(category), pct); err != nil {
			slog.ErrorContext(ctx, "Failed to send budget warning", "category", string(category), "error", err)
		}
		return
	}
}
