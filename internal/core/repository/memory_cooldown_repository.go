package repository

import (
	"sync"
	"time"

	"trackmate/internal/core/model"
)

type inMemoryCooldownRepository struct {
	lastSent map[model.NotificationCategory]time.Time
	mutex    sync.RWMutex
}

func NewInMemoryCooldownRepository() CooldownRepository {
	return &inMemoryCooldownRepository{
		lastSent: make(map[model.NotificationCategory]time.Time),
	}
}

func (r *inMemoryCooldownRepository) LastSentAt(category model.NotificationCategory) (time.Time, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.lastSent[category], nil
}

func (r *inMemoryCooldownRepository) MarkSent(category model.NotificationCategory, at time.Time) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.lastSent[category] = at
	return nil
}
