package backup

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"mesrof/internal/core"
)

const (
	ExpensesSheet = "Expenses"
	SummarySheet  = "Summary"
)

var (
	expenseHeaders = []string{"Date", "Category", "Mood", "Amount", "Note"}
	summaryHeaders = []string{"Category", "Total", "Count"}
)

// WriteXLSX renders a workbook with one row per expense and a summary sheet
// of category totals.
func WriteXLSX(w io.Writer, expenses []core.Expense, totals []core.CategoryTotal) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExpensesSheet); err != nil {
		return fmt.Errorf("create expenses sheet: %w", err)
	}
	if err := writeRow(f, ExpensesSheet, 1, toAny(expenseHeaders)); err != nil {
		return err
	}
	for i, e := range expenses {
		row := []any{e.Date.DayKey(), string(e.Category), string(e.Mood), e.Amount.Float(), e.Note}
		if err := writeRow(f, ExpensesSheet, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	if err := writeRow(f, SummarySheet, 1, toAny(summaryHeaders)); err != nil {
		return err
	}
	for i, t := range totals {
		if err := writeRow(f, SummarySheet, i+2, []any{string(t.Category), t.Total.Float(), t.Count}); err != nil {
			return err
		}
	}

	f.SetColWidth(ExpensesSheet, "A", "A", 12)
	f.SetColWidth(ExpensesSheet, "B", "C", 15)
	f.SetColWidth(ExpensesSheet, "D", "D", 12)
	f.SetColWidth(ExpensesSheet, "E", "E", 40)
	f.SetColWidth(SummarySheet, "A", "B", 15)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
