package repository

import (
	"sync"

	"trackmate/internal/core/model"
)

type inMemoryBoundaryRepository struct {
	boundaries map[string]*model.Boundary
	mutex      sync.RWMutex
}

func NewInMemoryBoundaryRepository() BoundaryRepository {
	return &inMemoryBoundaryRepository{
		boundaries: make(map[string]*model.Boundary),
	}
}

func (r *inMemoryBoundaryRepository) Create(boundary *model.Boundary) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.boundaries[boundary.ID] = boundary
	return nil
}

func (r *inMemoryBoundaryRepository) FindByUserID(userID string) ([]*model.Boundary, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var result []*model.Boundary
	for _, boundary := range r.boundaries {
		if boundary.UserID == userID {
			result = append(result, boundary)
		}
	}
	return result, nil
}

func (r *inMemoryBoundaryRepository) Delete(id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	delete(r.boundaries, id)
	return nil
}

func (r *inMemoryBoundaryRepository) DeleteByUserID(userID string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for id, boundary := range r.boundaries {
		if boundary.UserID == userID {
			delete(r.boundaries, id)
		}
	}
	return nil
}
