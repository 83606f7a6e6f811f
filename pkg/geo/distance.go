package geo

import (
	"math"

	"github.com/golang/geo/s2"
	"github.com/lintang-b-s/carpoolnav/pkg/datastructure"
)

const (
	earthRadiusKM = 6371.0
	earthRadiusM  = 6371007
)

func havFunction(angleRad float64) float64 {
	return (1 - math.Cos(angleRad)) / 2.0
}

func degreeToRadians(angle float64) float64 {
	return angle * (math.Pi / 180.0)
}

// CalculateHaversineDistance returns the great circle distance in km.
func CalculateHaversineDistance(latOne, longOne, latTwo, longTwo float64) float64 {
	latOne = degreeToRadians(latOne)
	longOne = degreeToRadians(longOne)
	latTwo = degreeToRadians(latTwo)
	longTwo = degreeToRadians(longTwo)

	a := havFunction(latOne-latTwo) + math.Cos(latOne)*math.Cos(latTwo)*havFunction(longOne-longTwo)
	c := 2.0 * math.Asin(math.Sqrt(a))
	return earthRadiusKM * c
}

// Distance returns the geodesic distance between a and b in meter.
func Distance(a, b datastructure.Coordinate) float64 {
	return s2.LatLngFromDegrees(a.Lat, a.Lon).Distance(s2.LatLngFromDegrees(b.Lat, b.Lon)).Radians() * earthRadiusM
}

// PolylineLength sums the distances between consecutive points, in meter.
func PolylineLength(points []datastructure.Coordinate) float64 {
	length := 0.0
	for i := 1; i < len(points); i++ {
		length += Distance(points[i-1], points[i])
	}
	return length
}

// PointLinePerpendicularDistance returns the distance in meter from p to the segment (a, b).
func PointLinePerpendicularDistance(a, b, p datastructure.Coordinate) float64 {
	ap := s2.PointFromLatLng(s2.LatLngFromDegrees(a.Lat, a.Lon))
	bp := s2.PointFromLatLng(s2.LatLngFromDegrees(b.Lat, b.Lon))
	pp := s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lon))
	return s2.DistanceFromSegment(pp, ap, bp).Radians() * earthRadiusM
}
