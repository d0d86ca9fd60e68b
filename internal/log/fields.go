package log

import "fmt"

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldCommand   = "command"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldID        = "id"
	FieldMonth     = "month"
	FieldCategory  = "category"
	FieldAmount    = "amount"
	FieldCount     = "count"
	FieldPath      = "path"
	FieldDuration  = "duration_ms"
)

const (
	ComponentApp       = "app"
	ComponentCLI       = "cli"
	ComponentStorage   = "storage"
	ComponentLegacy    = "legacy"
	ComponentMigration = "migration"
	ComponentAnalytics = "analytics"
	ComponentExpense   = "expense"
	ComponentGoal      = "goal"
	ComponentNotify    = "notify"
	ComponentAMQP      = "amqp"
	ComponentBackup    = "backup"
	ComponentCache     = "cache"
)

const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpMigrate  = "migrate"
	OpExport   = "export"
	OpImport   = "import"
	OpClear    = "clear"
	OpReport   = "report"
	OpNotify   = "notify"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields builds key/value pairs for slog.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithExpense adds the identifying fields of an expense.
func (f LogFields) WithExpense(id string, amount fmt.Stringer, category string) LogFields {
	f[FieldID] = id
	f[FieldAmount] = amount.String()
	f[FieldCategory] = category
	return f
}

func (f LogFields) WithMonth(month fmt.Stringer) LogFields {
	f[FieldMonth] = month.String()
	return f
}

func (f LogFields) WithCount(n int) LogFields {
	f[FieldCount] = n
	return f
}

// ToSlice flattens the fields for slog's variadic args.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
