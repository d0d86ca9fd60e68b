package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Notification kinds.
const (
	KindBudgetWarning = "budget_warning"
	KindGoalAchieved  = "goal_achieved"
	KindDailyReminder = "daily_reminder"
)

// NotificationMessage is a notification intent. Consumers render and
// deliver it; this side never schedules anything.
type NotificationMessage struct {
	Kind       string    `json:"kind"`
	Category   string    `json:"category,omitempty"`
	Percentage float64   `json:"percentage,omitempty"`
	Title      string    `json:"title,omitempty"`
	At         string    `json:"at,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewBudgetWarningMessage(category string, percentage float64) *NotificationMessage {
	return &NotificationMessage{Kind: KindBudgetWarning, Category: category, Percentage: percentage, Timestamp: time.Now()}
}

func NewGoalAchievedMessage(title string) *NotificationMessage {
	return &NotificationMessage{Kind: KindGoalAchieved, Title: title, Timestamp: time.Now()}
}

func NewDailyReminderMessage(at string) *NotificationMessage {
	return &NotificationMessage{Kind: KindDailyReminder, At: at, Timestamp: time.Now()}
}

func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// NotificationMessageFromJSON decodes a message and checks its kind.
func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Kind {
	case KindBudgetWarning, KindGoalAchieved, KindDailyReminder:
		return &msg, nil
	default:
		return nil, fmt.Errorf("unknown notification kind %q", msg.Kind)
	}
}
