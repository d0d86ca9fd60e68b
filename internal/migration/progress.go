package migration

import (
	"context"
	"fmt"

	"mesrof/internal/legacy"
)

// tracker keeps the migrated-id sets and persists them under
// legacy.KeyMigrationProgress after every change.
type tracker struct {
	ctx      context.Context
	store    legacy.Store
	progress *legacy.Progress
	expenses map[string]bool
	goals    map[string]bool
}

func newTracker(ctx context.Context, store legacy.Store, p *legacy.Progress) *tracker {
	t := &tracker{
		ctx:      ctx,
		store:    store,
		progress: p,
		expenses: make(map[string]bool, len(p.Expenses)),
		goals:    make(map[string]bool, len(p.Goals)),
	}
	for _, id := range p.Expenses {
		t.expenses[id] = true
	}
	for _, id := range p.Goals {
		t.goals[id] = true
	}
	return t
}

func (t *tracker) doneExpense(id string) error {
	t.expenses[id] = true
	t.progress.Expenses = append(t.progress.Expenses, id)
	return t.save()
}

func (t *tracker) doneGoal(id string) error {
	t.goals[id] = true
	t.progress.Goals = append(t.progress.Goals, id)
	return t.save()
}

func (t *tracker) save() error {
	if err := legacy.SetJSON(t.ctx, t.store, legacy.KeyMigrationProgress, t.progress); err != nil {
		return fmt.Errorf("save migration progress: %w", err)
	}
	return nil
}
