package repository

import (
	"sync"
	"time"

	"trackmate/internal/core/model"
)

type inMemorySessionRepository struct {
	sessions map[string]*model.PollingSession
	mutex    sync.RWMutex
}

func NewInMemorySessionRepository() SessionRepository {
	return &inMemorySessionRepository{
		sessions: make(map[string]*model.PollingSession),
	}
}

func (r *inMemorySessionRepository) Save(session *model.PollingSession) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	session.UpdatedAt = time.Now().UTC()
	stored := *session
	r.sessions[session.LocatorNumber] = &stored
	return nil
}

func (r *inMemorySessionRepository) Find(locatorNumber string) (*model.PollingSession, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	session, exists := r.sessions[locatorNumber]
	if !exists {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (r *inMemorySessionRepository) FindAwaiting() ([]*model.PollingSession, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var result []*model.PollingSession
	for _, session := range r.sessions {
		if session.State == model.SessionAwaitingResponse {
			copied := *session
			result = append(result, &copied)
		}
	}
	return result, nil
}
