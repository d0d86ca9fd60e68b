package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"mesrof/internal/backup"
	"mesrof/internal/cli"
	"mesrof/internal/core"
	"mesrof/internal/legacy"
	"mesrof/internal/migration"
	"mesrof/internal/services"
)

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

// monthFlag parses an optional YYYY-MM value, defaulting to the current month.
func monthFlag(s string) (core.Month, error) {
	if s == "" {
		return core.MonthOf(cli.Now()), nil
	}
	return core.ParseMonth(s)
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runMigrate(ctx context.Context, a *app, args []string) error {
	fs := newFlags("migrate")
	clearLegacy := fs.Bool("clear-legacy", false, "remove legacy data after a completed migration")
	if err := parse(fs, args); err != nil {
		return err
	}

	res, err := cli.MigrateLegacy(ctx, a.logger, a.cfg, a.store)
	if err != nil {
		return err
	}
	if *clearLegacy {
		if err := migration.ClearLegacyData(ctx, legacy.NewFileStore(a.cfg.LegacyStorePath)); err != nil {
			return err
		}
		a.logger.InfoContext(ctx, "Legacy data removed", "path", a.cfg.LegacyStorePath)
	}
	return a.printJSON(res)
}

func runExport(ctx context.Context, a *app, args []string) error {
	fs := newFlags("export")
	out := fs.String("o", "", "output file, defaults to a dated file in BACKUP_DIR")
	if err := parse(fs, args); err != nil {
		return err
	}

	b, err := a.store.ExportAllData(ctx, a.cfg.AppVersion)
	if err != nil {
		return err
	}
	path := *out
	if path == "" {
		path, err = backup.WriteFile(a.cfg.BackupDir, b, cli.Now())
	} else {
		err = backup.WriteTo(path, b)
	}
	if err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "Backup written", "path", path, "expenses", len(b.Expenses), "goals", len(b.FinancialGoals))
	fmt.Fprintln(a.out, path)
	return nil
}

func runImport(ctx context.Context, a *app, args []string) error {
	fs := newFlags("import")
	in := fs.String("i", "", "backup file to restore")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *in == "" {
		return errUsage
	}

	b, err := backup.ReadFile(*in)
	if err != nil {
		return err
	}
	if err := a.store.ImportData(ctx, *b); err != nil {
		return err
	}
	a.reports.Invalidate()
	a.logger.InfoContext(ctx, "Backup restored", "path", *in, "expenses", len(b.Expenses), "goals", len(b.FinancialGoals))
	return nil
}

func runExportXLSX(ctx context.Context, a *app, args []string) error {
	fs := newFlags("export-xlsx")
	out := fs.String("o", "", "output workbook")
	monthStr := fs.String("month", "", "restrict to one month (YYYY-MM)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *out == "" {
		return errUsage
	}

	var (
		expenses []core.Expense
		month    *core.Month
		err      error
	)
	if *monthStr != "" {
		m, err := core.ParseMonth(*monthStr)
		if err != nil {
			return err
		}
		month = &m
		expenses, err = a.store.GetExpensesByMonth(ctx, m)
		if err != nil {
			return err
		}
	} else {
		expenses, err = a.store.GetExpenses(ctx, 0)
		if err != nil {
			return err
		}
	}
	totals, err := a.store.GetCategoryTotals(ctx, month)
	if err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create workbook: %w", err)
	}
	if err := backup.WriteXLSX(f, expenses, totals); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close workbook: %w", err)
	}
	a.logger.InfoContext(ctx, "Workbook written", "path", *out, "expenses", len(expenses))
	return nil
}

func runStats(ctx context.Context, a *app, args []string) error {
	fs := newFlags("stats")
	monthStr := fs.String("month", "", "month (YYYY-MM), defaults to the current one")
	if err := parse(fs, args); err != nil {
		return err
	}
	month, err := monthFlag(*monthStr)
	if err != nil {
		return err
	}

	stats, err := a.store.GetMonthlyStats(ctx, month)
	if err != nil {
		return err
	}
	categories, err := a.store.GetCategoryTotals(ctx, &month)
	if err != nil {
		return err
	}
	moods, err := a.store.GetMoodTotals(ctx, &month)
	if err != nil {
		return err
	}
	daily, err := a.store.GetDailyTotals(ctx, month)
	if err != nil {
		return err
	}
	return a.printJSON(map[string]any{
		"stats":      stats,
		"categories": categories,
		"moods":      moods,
		"daily":      daily,
	})
}

func runHealth(ctx context.Context, a *app, args []string) error {
	fs := newFlags("health")
	monthStr := fs.String("month", "", "month (YYYY-MM), defaults to the current one")
	if err := parse(fs, args); err != nil {
		return err
	}
	month, err := monthFlag(*monthStr)
	if err != nil {
		return err
	}

	report, err := a.reports.MonthReport(ctx, month, cli.Now())
	if err != nil {
		return err
	}
	return a.printJSON(report)
}

func runSnapshot(ctx context.Context, a *app, args []string) error {
	fs := newFlags("snapshot")
	monthStr := fs.String("month", "", "month (YYYY-MM), defaults to the current one")
	if err := parse(fs, args); err != nil {
		return err
	}
	month, err := monthFlag(*monthStr)
	if err != nil {
		return err
	}

	mb, err := a.store.SnapshotMonthlyBudget(ctx, month)
	if err != nil {
		return err
	}
	a.reports.Invalidate()
	return a.printJSON(mb)
}

func runAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlags("add")
	amountStr := fs.String("amount", "", "amount, dot or comma decimals")
	category := fs.String("category", "", "one of food, transport, bills, entertainment, health, shopping, education, other")
	mood := fs.String("mood", string(core.MoodNeutral), "happy, neutral or stressed")
	dateStr := fs.String("date", "", "date (YYYY-MM-DD or RFC 3339), defaults to now")
	note := fs.String("note", "", "optional note")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *amountStr == "" || *category == "" {
		return errUsage
	}

	amount, err := core.ParseAmount(*amountStr)
	if err != nil {
		return err
	}
	date := core.NewDateTime(cli.Now())
	if *dateStr != "" {
		if date, err = core.ParseDate(*dateStr); err != nil {
			return err
		}
	}

	svc := services.NewExpenseService(a.store, a.notifier, a.reports)
	id, err := svc.CreateExpense(ctx, core.Expense{
		Amount:   amount,
		Category: core.Category(strings.ToLower(*category)),
		Mood:     core.Mood(strings.ToLower(*mood)),
		Date:     date,
		Note:     *note,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, id)
	return nil
}

func runContribute(ctx context.Context, a *app, args []string) error {
	fs := newFlags("contribute")
	goalID := fs.String("goal", "", "goal id")
	amountStr := fs.String("amount", "", "amount to add")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *goalID == "" || *amountStr == "" {
		return errUsage
	}

	amount, err := core.ParseAmount(*amountStr)
	if err != nil {
		return err
	}
	g, err := services.NewGoalService(a.store, a.notifier).Contribute(ctx, *goalID, amount)
	if err != nil {
		return err
	}
	return a.printJSON(g)
}

func runRemind(ctx context.Context, a *app, args []string) error {
	if err := parse(newFlags("remind"), args); err != nil {
		return err
	}
	sent, err := services.ReminderIntent(ctx, a.store, a.notifier)
	if err != nil {
		return err
	}
	if !sent {
		a.logger.InfoContext(ctx, "Daily reminder disabled in settings")
	}
	return nil
}

func runClear(ctx context.Context, a *app, args []string) error {
	fs := newFlags("clear")
	yes := fs.Bool("yes", false, "confirm deletion of all expenses and goals")
	if err := parse(fs, args); err != nil {
		return err
	}
	if !*yes {
		return errors.New("refusing to clear data without -yes")
	}

	if err := a.store.ClearAllData(ctx); err != nil {
		return err
	}
	a.reports.Invalidate()
	a.logger.InfoContext(ctx, "All data cleared")
	return nil
}
