// Package path keeps the append-only log of smoothed points for a session
// and a simplified polyline of it for display.
//
// Simplification is online: a new point becomes a vertex only if its
// perpendicular distance from the line through the last two vertices
// exceeds the tolerance. Vertices are never removed or reordered once kept.
// A straight walk therefore keeps only its endpoints; LineString extends
// the vertices with the latest point so the drawn path reaches the walker.
package path

import (
	"math"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
	"github.com/rotblauer/walkd/common"
	"github.com/rotblauer/walkd/types/fix"
)

type Smoother struct {
	ToleranceMeters float64

	mu     sync.RWMutex
	points []fix.FilteredPoint
	kept   []fix.FilteredPoint
}

func NewSmoother(toleranceMeters float64) *Smoother {
	return &Smoother{
		ToleranceMeters: toleranceMeters,
		points:          make([]fix.FilteredPoint, 0),
		kept:            make([]fix.FilteredPoint, 0),
	}
}

// Append adds the next accepted point. Points must be appended in time order.
func (s *Smoother) Append(p fix.FilteredPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.points = append(s.points, p)
	if s.retain(p) {
		s.kept = append(s.kept, p)
	}
}

func (s *Smoother) retain(p fix.FilteredPoint) bool {
	n := len(s.kept)
	switch n {
	case 0:
		return true
	case 1:
		return geo.DistanceHaversine(s.kept[0].Point(), p.Point()) > s.ToleranceMeters
	}
	a, b := s.kept[n-2].Point(), s.kept[n-1].Point()
	lp := common.NewLocalPlane(b)
	return perpendicularDistance(lp.Planar(a), lp.Planar(b), lp.Planar(p.Point())) > s.ToleranceMeters
}

// perpendicularDistance is the distance from p to the infinite line through a and b,
// all in planar meters.
func perpendicularDistance(a, b, p orb.Point) float64 {
	base := planar.Distance(a, b)
	if base == 0 {
		return planar.Distance(a, p)
	}
	return 2 * math.Abs(planar.Area(orb.Ring{a, b, p, a})) / base
}

// SimplifiedPath returns a snapshot of the simplified polyline vertices.
func (s *Smoother) SimplifiedPath() []fix.FilteredPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]fix.FilteredPoint, len(s.kept))
	copy(out, s.kept)
	return out
}

// Path returns a snapshot of every point appended so far.
func (s *Smoother) Path() []fix.FilteredPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]fix.FilteredPoint, len(s.points))
	copy(out, s.points)
	return out
}

// Len is the number of points appended.
func (s *Smoother) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

// Tail returns the latest appended point if it is not a vertex.
func (s *Smoother) Tail() (fix.FilteredPoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tail()
}

func (s *Smoother) tail() (fix.FilteredPoint, bool) {
	if len(s.points) == 0 || len(s.kept) == 0 {
		return fix.FilteredPoint{}, false
	}
	last := s.points[len(s.points)-1]
	if last == s.kept[len(s.kept)-1] {
		return fix.FilteredPoint{}, false
	}
	return last, true
}

// LineString returns the simplified path as a geometry, ending at the tail.
func (s *Smoother) LineString() orb.LineString {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ls := make(orb.LineString, 0, len(s.kept)+1)
	for _, p := range s.kept {
		ls = append(ls, p.Point())
	}
	if t, ok := s.tail(); ok {
		ls = append(ls, t.Point())
	}
	return ls
}
