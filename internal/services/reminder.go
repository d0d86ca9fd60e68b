package services

import (
	"context"
	"fmt"

	"mesrof/internal/core"
	"mesrof/internal/notify"
)

type SettingsReader interface {
	GetUserSettings(ctx context.Context) (*core.UserSettings, error)
}

// ReminderIntent emits the daily reminder intent at the configured time when
// notifications and the daily reminder are both enabled. It reports whether
// an intent was sent. Scheduling is left to the consumer.
func ReminderIntent(ctx context.Context, store SettingsReader, n notify.Notifier) (bool, error) {
	settings, err := store.GetUserSettings(ctx)
	if err != nil {
		return false, fmt.Errorf("read settings: %w", err)
	}
	if !settings.NotificationsEnabled || !settings.DailyReminder {
		return false, nil
	}
	if err := n.DailyReminder(ctx, settings.ReminderTime); err != nil {
		return false, fmt.Errorf("send daily reminder: %w", err)
	}
	return true, nil
}
