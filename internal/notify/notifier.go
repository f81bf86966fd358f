package notify

import (
	"log"

	"trackmate/internal/core/model"
)

// Notifier delivers a user-facing alert. Delivery mechanics (channels,
// icons, gateway apps) live behind this interface.
type Notifier interface {
	Notify(category model.NotificationCategory, title, body string)
}

// LogNotifier writes alerts to the process log. Used when no delivery
// backend is configured, and as the fallback sink in tests.
type LogNotifier struct{}

func (LogNotifier) Notify(category model.NotificationCategory, title, body string) {
	log.Printf("[notify] %s: %s - %s", category, title, body)
}
