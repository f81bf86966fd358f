package notify

import (
	"testing"
	"time"

	"trackmate/internal/core/model"
	"trackmate/internal/core/repository"
)

type recordingNotifier struct {
	sent []model.NotificationCategory
}

func (n *recordingNotifier) Notify(category model.NotificationCategory, title, body string) {
	n.sent = append(n.sent, category)
}

func newTestPolicy(start time.Time) (*Policy, *recordingNotifier, *time.Time) {
	sink := &recordingNotifier{}
	policy := NewPolicy(repository.NewInMemoryCooldownRepository(), sink)
	clock := start
	policy.now = func() time.Time { return clock }
	return policy, sink, &clock
}

func TestNotifySuppressedWithinCooldown(t *testing.T) {
	policy, sink, clock := newTestPolicy(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	if !policy.Notify(model.CategoryBatteryLow, "Battery low", "20%") {
		t.Fatal("first battery alert should be emitted")
	}

	*clock = clock.Add(2 * time.Hour)
	if policy.Notify(model.CategoryBatteryLow, "Battery low", "18%") {
		t.Error("alert inside the 6h cooldown should be suppressed")
	}
	if len(sink.sent) != 1 {
		t.Errorf("got %d notifications, want 1", len(sink.sent))
	}
}

func TestNotifyEmittedAfterCooldown(t *testing.T) {
	policy, sink, clock := newTestPolicy(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	policy.Notify(model.CategoryBatteryLow, "Battery low", "20%")
	*clock = clock.Add(BatteryLowCooldown + time.Minute)
	if !policy.Notify(model.CategoryBatteryLow, "Battery low", "15%") {
		t.Error("alert after the cooldown should be emitted")
	}
	if len(sink.sent) != 2 {
		t.Errorf("got %d notifications, want 2", len(sink.sent))
	}
}

func TestNotifySuppressionLeavesTimestamp(t *testing.T) {
	policy, sink, clock := newTestPolicy(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	policy.Notify(model.CategoryProximity, "Proximity", "near exit")
	*clock = clock.Add(4 * time.Minute)
	policy.Notify(model.CategoryProximity, "Proximity", "near exit")

	// Had the suppressed attempt refreshed the timestamp, this one would
	// still be inside the window.
	*clock = clock.Add(90 * time.Second)
	if !policy.Notify(model.CategoryProximity, "Proximity", "near exit") {
		t.Error("suppressed attempt must not extend the cooldown window")
	}
	if len(sink.sent) != 2 {
		t.Errorf("got %d notifications, want 2", len(sink.sent))
	}
}

func TestGpsErrorHasNoCooldown(t *testing.T) {
	policy, sink, _ := newTestPolicy(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	policy.Notify(model.CategoryGpsError, "Locator error", "no response")
	policy.Notify(model.CategoryGpsError, "Locator error", "no response")
	if len(sink.sent) != 2 {
		t.Errorf("got %d notifications, want 2", len(sink.sent))
	}
}

func TestCategoriesCoolDownIndependently(t *testing.T) {
	policy, sink, _ := newTestPolicy(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	policy.Notify(model.CategoryBatteryLow, "Battery low", "20%")
	if !policy.Notify(model.CategoryProximity, "Proximity", "near exit") {
		t.Error("battery cooldown must not affect proximity alerts")
	}
	if len(sink.sent) != 2 {
		t.Errorf("got %d notifications, want 2", len(sink.sent))
	}
}
