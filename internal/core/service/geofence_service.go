package service

import (
	"context"
	"errors"
	"log"

	"trackmate/internal/cache"
	"trackmate/internal/core/model"
	"trackmate/internal/core/repository"
	"trackmate/internal/geo"
	"trackmate/internal/notify"
)

// ProximityThreshold is the boundary-closeness fraction at or below which a
// fix inside a safe zone is considered about to leave it.
const ProximityThreshold = 0.15

var ErrBoundaryNotFound = errors.New("boundary not found")

// GeofenceService manages safe zones and evaluates the latest fix against
// them on a schedule.
type GeofenceService interface {
	CreateBoundary(userID string, vertices []model.LatLng) (*model.Boundary, error)
	ListBoundaries(userID string) ([]*model.Boundary, error)
	DeleteBoundary(userID, id string) error
	DeleteAllBoundaries(userID string) error
	Evaluate(userID string)
}

type geofenceService struct {
	boundaries repository.BoundaryRepository
	fixes      repository.FixRepository
	fixCache   *cache.Cache
	policy     *notify.Policy
}

func NewGeofenceService(
	boundaries repository.BoundaryRepository,
	fixes repository.FixRepository,
	fixCache *cache.Cache,
	policy *notify.Policy,
) GeofenceService {
	return &geofenceService{
		boundaries: boundaries,
		fixes:      fixes,
		fixCache:   fixCache,
		policy:     policy,
	}
}

func (s *geofenceService) CreateBoundary(userID string, vertices []model.LatLng) (*model.Boundary, error) {
	boundary, err := model.NewBoundary(userID, vertices)
	if err != nil {
		return nil, err
	}
	if err := s.boundaries.Create(boundary); err != nil {
		return nil, err
	}
	return boundary, nil
}

func (s *geofenceService) ListBoundaries(userID string) ([]*model.Boundary, error) {
	return s.boundaries.FindByUserID(userID)
}

// DeleteBoundary removes one zone, refusing to touch another user's record.
func (s *geofenceService) DeleteBoundary(userID, id string) error {
	boundaries, err := s.boundaries.FindByUserID(userID)
	if err != nil {
		return err
	}
	for _, boundary := range boundaries {
		if boundary.ID == id {
			return s.boundaries.Delete(id)
		}
	}
	return ErrBoundaryNotFound
}

func (s *geofenceService) DeleteAllBoundaries(userID string) error {
	return s.boundaries.DeleteByUserID(userID)
}

// Evaluate checks the latest known fix against every safe zone. It alerts
// when no zones are configured, when the fix sits outside all of them, or
// when it is inside one but close to its edge. Alert pressure is bounded by
// the notification policy, so running this often is safe.
func (s *geofenceService) Evaluate(userID string) {
	fix := s.latestFix(userID)
	if fix == nil {
		log.Printf("[geofence] no fix on record for user %s, skipping evaluation", userID)
		return
	}

	boundaries, err := s.boundaries.FindByUserID(userID)
	if err != nil {
		log.Printf("[geofence] boundary lookup failed: %v", err)
		return
	}
	if len(boundaries) == 0 {
		s.policy.Notify(model.CategoryDefault,
			"No Safe Zones",
			"Location tracking is active but no safe zones are configured.")
		return
	}

	point := geo.Point{Lat: fix.Latitude, Lng: fix.Longitude}
	closest := -1.0
	for _, boundary := range boundaries {
		polygon := polygonOf(boundary)
		if !geo.IsInside(point, polygon) {
			continue
		}
		fraction := geo.BoundaryProximityFraction(point, polygon)
		if closest < 0 || fraction > closest {
			closest = fraction
		}
	}

	if closest < 0 {
		s.policy.Notify(model.CategoryDefault,
			"Outside Safe Zone",
			"GPS Locator is outside all safe zones.")
		return
	}
	if closest <= ProximityThreshold {
		s.policy.Notify(model.CategoryProximity,
			"Approaching Safe Zone Edge",
			"GPS Locator is close to the edge of a safe zone.")
	}
}

// latestFix prefers the cache and falls back to storage.
func (s *geofenceService) latestFix(userID string) *model.Fix {
	if fix := s.fixCache.LatestFix(context.Background(), userID); fix != nil {
		return fix
	}
	fix, err := s.fixes.FindLatestByUserID(userID)
	if err != nil {
		log.Printf("[geofence] fix lookup failed: %v", err)
		return nil
	}
	return fix
}

func polygonOf(boundary *model.Boundary) []geo.Point {
	polygon := make([]geo.Point, len(boundary.Vertices))
	for i, v := range boundary.Vertices {
		polygon[i] = geo.Point{Lat: v.Latitude, Lng: v.Longitude}
	}
	return polygon
}
