// Package notify emits notification intents: budget warnings, achieved
// goals and the daily reminder. Delivery and scheduling belong to whoever
// consumes the intents.
package notify

import (
	"context"
	"log/slog"

	"mesrof/internal/amqp"
)

// Notifier is the outbound port used by the services.
type Notifier interface {
	BudgetWarning(ctx context.Context, category string, percentage float64) error
	GoalAchieved(ctx context.Context, title string) error
	DailyReminder(ctx context.Context, at string) error
	Close() error
}

// LogNotifier records intents in the log only.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) BudgetWarning(ctx context.Context, category string, percentage float64) error {
	n.logger.WarnContext(ctx, "Budget warning", "category", category, "percentage", percentage)
	return nil
}

func (n *LogNotifier) GoalAchieved(ctx context.Context, title string) error {
	n.logger.InfoContext(ctx, "Goal achieved", "title", title)
	return nil
}

func (n *LogNotifier) DailyReminder(ctx context.Context, at string) error {
	n.logger.InfoContext(ctx, "Daily reminder", "at", at)
	return nil
}

func (n *LogNotifier) Close() error { return nil }

// Publisher is the part of amqp.Client the AMQP notifier needs.
type Publisher interface {
	Publish(ctx context.Context, msg *amqp.NotificationMessage) error
	Close() error
}

// AMQPNotifier publishes each intent as a NotificationMessage.
type AMQPNotifier struct {
	publisher Publisher
}

func NewAMQPNotifier(p Publisher) *AMQPNotifier {
	return &AMQPNotifier{publisher: p}
}

func (n *AMQPNotifier) BudgetWarning(ctx context.Context, category string, percentage float64) error {
	return n.publisher.Publish(ctx, amqp.NewBudgetWarningMessage(category, percentage))
}

func (n *AMQPNotifier) GoalAchieved(ctx context.Context, title string) error {
	return n.publisher.Publish(ctx, amqp.NewGoalAchievedMessage(title))
}

func (n *AMQPNotifier) DailyReminder(ctx context.Context, at string) error {
	return n.publisher.Publish(ctx, amqp.NewDailyReminderMessage(at))
}

func (n *AMQPNotifier) Close() error {
	return n.publisher.Close()
}
