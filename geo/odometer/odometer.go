package odometer

import (
	"sync"

	"github.com/paulmach/orb/geo"
	"github.com/rotblauer/walkd/types/fix"
)

// Odometer integrates great-circle distance over accepted points.
// Integrate must be called exactly once per accepted point, in order.
// Calling it twice for the same point counts the same leg twice.
type Odometer struct {
	mu          sync.RWMutex
	prev        *fix.FilteredPoint
	totalMeters float64
	integrated  int
}

func New() *Odometer {
	return &Odometer{}
}

// Integrate adds the leg from the previous point to p and returns the updated total.
func (o *Odometer) Integrate(p fix.FilteredPoint) float64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.prev != nil {
		o.totalMeters += geo.DistanceHaversine(o.prev.Point(), p.Point())
	}
	cp := p
	o.prev = &cp
	o.integrated++
	return o.totalMeters
}

func (o *Odometer) TotalMeters() float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.totalMeters
}

// LastIntegratedIndex is the path index of the last integrated point, or -1.
func (o *Odometer) LastIntegratedIndex() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.integrated - 1
}
