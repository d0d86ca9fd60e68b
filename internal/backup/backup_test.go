package backup

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"mesrof/internal/core"
)

func sampleBackup() *core.Backup {
	settings := core.DefaultUserSettings(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	return &core.Backup{
		Expenses: []core.Expense{{
			ID:       "e1",
			Amount:   core.NewMoney(12.5),
			Category: core.CategoryFood,
			Date:     core.NewDate(2024, 3, 2),
			Mood:     core.MoodHappy,
			Note:     "lunch",
		}},
		UserSettings: &settings,
		ExportDate:   core.NewDate(2024, 3, 20),
		AppVersion:   "1.0.0",
	}
}

func TestFileName(t *testing.T) {
	got := FileName(time.Date(2024, 3, 20, 23, 30, 0, 0, time.UTC))
	if got != "mesrof_backup_2024-03-20.json" {
		t.Errorf("FileName = %s", got)
	}
}

func TestEncodeDecode(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sampleBackup()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\n  \"expenses\"") {
		t.Errorf("expected indented output, got %s", buf.String())
	}

	b, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Expenses) != 1 || b.Expenses[0].Amount.String() != "12.5" || b.Expenses[0].Note != "lunch" {
		t.Errorf("unexpected expenses %+v", b.Expenses)
	}
	if b.UserSettings == nil || b.UserSettings.ReminderTime != "20:00" {
		t.Errorf("unexpected settings %+v", b.UserSettings)
	}
}

func TestDecodeHistoricalFormat(t *testing.T) {
	doc := `{
		"expenses": [{"id": "a", "amount": 30, "category": "bills", "date": "2024-03-05T10:00:00.000Z", "mood": "stressed"}],
		"financial_goals": [{"id": "g", "title": "Car", "target_amount": 5000, "current_amount": 0,
			"deadline": "2025-01-01", "category": "", "emoji": "", "is_completed": 0}],
		"export_date": "2024-03-20T00:00:00.000Z"
	}`
	b, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if len(b.FinancialGoals) != 1 || bool(b.FinancialGoals[0].IsCompleted) {
		t.Errorf("unexpected goals %+v", b.FinancialGoals)
	}
	if b.UserSettings != nil {
		t.Error("absent settings should stay nil")
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := map[string]string{
		"not json":        `{"expenses": [`,
		"array":           `[1, 2]`,
		"no sections":     `{"app_version": "1.0.0"}`,
		"null sections":   `{"expenses": null, "user_settings": null}`,
		"bad date":        `{"expenses": [{"id": "a", "amount": 1, "category": "food", "date": "yesterday", "mood": "happy"}]}`,
		"amount as words": `{"expenses": [{"id": "a", "amount": "ten", "category": "food", "date": "2024-03-01", "mood": "happy"}]}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc))
			if !errors.Is(err, ErrMalformedBackup) {
				t.Errorf("expected ErrMalformedBackup, got %v", err)
			}
		})
	}
}

func TestWriteAndReadFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backups")
	now := time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)

	path, err := WriteFile(dir, sampleBackup(), now)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "mesrof_backup_2024-03-20.json" {
		t.Errorf("path = %s", path)
	}
	b, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if b.AppVersion != "1.0.0" || len(b.Expenses) != 1 {
		t.Errorf("unexpected backup %+v", b)
	}

	if _, err := ReadFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	totals := []core.CategoryTotal{{Category: core.CategoryFood, Total: core.NewMoney(12.5), Count: 1}}
	if err := WriteXLSX(&buf, sampleBackup().Expenses, totals); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows(ExpensesSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0][0] != "Date" {
		t.Fatalf("unexpected rows %v", rows)
	}
	if rows[1][0] != "2024-03-02" || rows[1][1] != "food" || rows[1][3] != "12.5" || rows[1][4] != "lunch" {
		t.Errorf("unexpected expense row %v", rows[1])
	}

	summary, err := f.GetRows(SummarySheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(summary) != 2 || summary[1][0] != "food" || summary[1][2] != "1" {
		t.Errorf("unexpected summary %v", summary)
	}
}
