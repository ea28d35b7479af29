package common

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadiusMeters matches the radius orb/geo uses for haversine distances.
const EarthRadiusMeters = 6378137.0

// LocalPlane is an equirectangular projection centered on an origin point.
// It maps lon/lat degrees to east/north meters and back.
// Error grows with distance from the origin; at walking scales
// (a few kilometers) it is well under GPS noise.
type LocalPlane struct {
	Origin orb.Point
	cosLat float64
}

func NewLocalPlane(origin orb.Point) LocalPlane {
	return LocalPlane{
		Origin: origin,
		cosLat: math.Cos(origin.Lat() * math.Pi / 180),
	}
}

// ToLocal returns the east and north offsets of p from the origin, in meters.
// Longitude differences take the short way around the antimeridian.
func (lp LocalPlane) ToLocal(p orb.Point) (east, north float64) {
	east = degToRad(WrapLongitude(p.Lon()-lp.Origin.Lon())) * EarthRadiusMeters * lp.cosLat
	north = degToRad(p.Lat()-lp.Origin.Lat()) * EarthRadiusMeters
	return east, north
}

// ToPoint is the inverse of ToLocal.
func (lp LocalPlane) ToPoint(east, north float64) orb.Point {
	lat := lp.Origin.Lat() + radToDeg(north/EarthRadiusMeters)
	lon := lp.Origin.Lon()
	if lp.cosLat != 0 {
		lon += radToDeg(east / (EarthRadiusMeters * lp.cosLat))
	}
	return orb.Point{WrapLongitude(lon), lat}
}

// Planar returns p projected as an orb.Point in meters, for use with orb/planar.
func (lp LocalPlane) Planar(p orb.Point) orb.Point {
	e, n := lp.ToLocal(p)
	return orb.Point{e, n}
}

// WrapLongitude normalizes degrees into [-180, 180).
func WrapLongitude(d float64) float64 {
	if d >= -180 && d < 180 {
		return d
	}
	d = math.Mod(d+180, 360)
	if d < 0 {
		d += 360
	}
	return d - 180
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }
func radToDeg(r float64) float64 { return r * 180 / math.Pi }
