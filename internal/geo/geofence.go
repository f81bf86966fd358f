package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

const earthRadiusMeters = 6371000.0

// Point is a coordinate pair in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

// HaversineMeters returns the great-circle distance between two points in
// meters.
func HaversineMeters(a, b Point) float64 {
	p1 := s2.LatLngFromDegrees(a.Lat, a.Lng)
	p2 := s2.LatLngFromDegrees(b.Lat, b.Lng)
	return p1.Distance(p2).Radians() * earthRadiusMeters
}

// Centroid returns the arithmetic mean of the vertices. An approximation,
// adequate at the polygon sizes a safe zone covers.
func Centroid(polygon []Point) Point {
	if len(polygon) == 0 {
		return Point{}
	}
	var sumLat, sumLng float64
	for _, p := range polygon {
		sumLat += p.Lat
		sumLng += p.Lng
	}
	return Point{
		Lat: sumLat / float64(len(polygon)),
		Lng: sumLng / float64(len(polygon)),
	}
}

// IsInside reports whether point lies inside the polygon using the even-odd
// ray casting rule. The vertex list is treated as a closed loop; the edge
// from the last vertex back to the first is implicit.
func IsInside(point Point, polygon []Point) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	j := len(polygon) - 1
	for i := 0; i < len(polygon); i++ {
		if (polygon[i].Lat > point.Lat) != (polygon[j].Lat > point.Lat) &&
			point.Lng < (polygon[j].Lng-polygon[i].Lng)*(point.Lat-polygon[i].Lat)/(polygon[j].Lat-polygon[i].Lat)+polygon[i].Lng {
			inside = !inside
		}
		j = i
	}
	return inside
}

// BoundaryProximityFraction returns how deep inside the polygon the point
// sits, normalized to [0,1]: 0 at (or outside) the boundary, 1 at the
// center. "Near exit" only matters while inside, so an outside point is
// definitionally 0.
func BoundaryProximityFraction(point Point, polygon []Point) float64 {
	if !IsInside(point, polygon) {
		return 0
	}

	minEdge := math.MaxFloat64
	for i := range polygon {
		j := (i + 1) % len(polygon)
		if d := distanceToSegment(point, polygon[i], polygon[j]); d < minEdge {
			minEdge = d
		}
	}

	center := Centroid(polygon)
	var maxRadius float64
	for _, v := range polygon {
		if d := HaversineMeters(center, v); d > maxRadius {
			maxRadius = d
		}
	}
	if maxRadius <= 0 {
		return 0
	}

	frac := minEdge / maxRadius
	if frac < 0 {
		return 0
	}
	if frac > 1 {
		return 1
	}
	return frac
}

// distanceToSegment returns the distance in meters from point to the great
// circle segment between a and b, via the along-track decomposition of the
// haversine distances.
func distanceToSegment(point, a, b Point) float64 {
	d13 := HaversineMeters(a, point)
	d23 := HaversineMeters(b, point)
	d12 := HaversineMeters(a, b)

	// Degenerate segment: either endpoint will do.
	if d12 < 1.0 {
		return math.Min(d13, d23)
	}

	along := (d13*d13 + d12*d12 - d23*d23) / (2 * d12)
	if along <= 0 {
		return d13
	}
	if along >= d12 {
		return d23
	}

	cross := d13*d13 - along*along
	if cross <= 0 {
		return 0
	}
	return math.Sqrt(cross)
}
