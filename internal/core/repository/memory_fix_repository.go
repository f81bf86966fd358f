package repository

import (
	"sync"

	"trackmate/internal/core/model"
)

type inMemoryFixRepository struct {
	fixes []*model.Fix
	mutex sync.RWMutex
}

func NewInMemoryFixRepository() FixRepository {
	return &inMemoryFixRepository{}
}

func (r *inMemoryFixRepository) Create(fix *model.Fix) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.fixes = append(r.fixes, fix)
	return nil
}

func (r *inMemoryFixRepository) FindByUserID(userID string, limit int) ([]*model.Fix, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var result []*model.Fix
	// Newest first, matching the Mongo sort.
	for i := len(r.fixes) - 1; i >= 0; i-- {
		if r.fixes[i].UserID == userID {
			result = append(result, r.fixes[i])
			if limit > 0 && len(result) >= limit {
				break
			}
		}
	}
	return result, nil
}

func (r *inMemoryFixRepository) FindLatestByUserID(userID string) (*model.Fix, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var latest *model.Fix
	for _, fix := range r.fixes {
		if fix.UserID != userID {
			continue
		}
		if latest == nil || fix.Timestamp.After(latest.Timestamp) {
			latest = fix
		}
	}
	return latest, nil
}

func (r *inMemoryFixRepository) DeleteByUserID(userID string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	kept := r.fixes[:0]
	for _, fix := range r.fixes {
		if fix.UserID != userID {
			kept = append(kept, fix)
		}
	}
	r.fixes = kept
	return nil
}
