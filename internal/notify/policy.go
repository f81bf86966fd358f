package notify

import (
	"log"
	"sync"
	"time"

	"trackmate/internal/core/model"
	"trackmate/internal/core/repository"
)

// Cooldown windows per category. GpsError has no window: the state machine
// already bounds it to one notification per exhausted session.
const (
	BatteryLowCooldown = 6 * time.Hour
	ProximityCooldown  = 5 * time.Minute
	DefaultCooldown    = 5 * time.Minute
)

// Policy rate-limits alerts per category against persisted last-sent
// timestamps. A suppressed alert leaves the timestamp untouched.
type Policy struct {
	mu        sync.Mutex
	cooldowns repository.CooldownRepository
	notifier  Notifier
	windows   map[model.NotificationCategory]time.Duration
	now       func() time.Time
}

func NewPolicy(cooldowns repository.CooldownRepository, notifier Notifier) *Policy {
	return &Policy{
		cooldowns: cooldowns,
		notifier:  notifier,
		windows: map[model.NotificationCategory]time.Duration{
			model.CategoryBatteryLow: BatteryLowCooldown,
			model.CategoryProximity:  ProximityCooldown,
			model.CategoryDefault:    DefaultCooldown,
			model.CategoryGpsError:   0,
		},
		now: time.Now,
	}
}

// Notify delivers the alert unless the category is still cooling down.
// Reports whether the alert was actually emitted.
func (p *Policy) Notify(category model.NotificationCategory, title, body string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	window := p.windows[category]

	if window > 0 {
		lastSentAt, err := p.cooldowns.LastSentAt(category)
		if err != nil {
			// Fail open: a broken cooldown read must not silence alerts.
			log.Printf("[notify] cooldown lookup failed for %s: %v", category, err)
		} else if !lastSentAt.IsZero() && now.Sub(lastSentAt) < window {
			log.Printf("[notify] suppressing %s alert, %s since last", category, now.Sub(lastSentAt).Round(time.Second))
			return false
		}
	}

	p.notifier.Notify(category, title, body)

	if err := p.cooldowns.MarkSent(category, now); err != nil {
		log.Printf("[notify] failed to record %s cooldown: %v", category, err)
	}
	return true
}
