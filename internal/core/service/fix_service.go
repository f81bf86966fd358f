package service

import (
	"context"
	"errors"

	"trackmate/internal/cache"
	"trackmate/internal/core/model"
	"trackmate/internal/core/repository"
)

const DefaultFixHistoryLimit = 100

type FixService interface {
	AddFix(userID string, latitude, longitude float64, batteryPercent int) (*model.Fix, error)
	GetFixes(userID string, limit int) ([]*model.Fix, error)
	GetLatestFix(userID string) (*model.Fix, error)
	PurgeFixes(userID string) error
}

type fixService struct {
	fixes    repository.FixRepository
	fixCache *cache.Cache
}

func NewFixService(fixes repository.FixRepository, fixCache *cache.Cache) FixService {
	return &fixService{
		fixes:    fixes,
		fixCache: fixCache,
	}
}

// AddFix records a manually supplied location, outside the SMS flow.
func (s *fixService) AddFix(userID string, latitude, longitude float64, batteryPercent int) (*model.Fix, error) {
	if userID == "" {
		return nil, errors.New("invalid user ID")
	}
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return nil, errors.New("coordinates out of range")
	}

	fix := model.NewFix(userID, latitude, longitude, batteryPercent)
	if err := s.fixes.Create(fix); err != nil {
		return nil, err
	}
	s.fixCache.SetLatestFix(context.Background(), fix)
	return fix, nil
}

func (s *fixService) GetFixes(userID string, limit int) ([]*model.Fix, error) {
	if userID == "" {
		return nil, errors.New("invalid user ID")
	}
	if limit <= 0 {
		limit = DefaultFixHistoryLimit
	}
	return s.fixes.FindByUserID(userID, limit)
}

func (s *fixService) GetLatestFix(userID string) (*model.Fix, error) {
	if userID == "" {
		return nil, errors.New("invalid user ID")
	}
	if fix := s.fixCache.LatestFix(context.Background(), userID); fix != nil {
		return fix, nil
	}
	return s.fixes.FindLatestByUserID(userID)
}

// PurgeFixes drops the stored location history, mirroring the device-side
// clear-memory command.
func (s *fixService) PurgeFixes(userID string) error {
	if userID == "" {
		return errors.New("invalid user ID")
	}
	if err := s.fixes.DeleteByUserID(userID); err != nil {
		return err
	}
	s.fixCache.InvalidateLatestFix(context.Background(), userID)
	return nil
}
