/*
Package kalman smooths accepted GPS fixes with a constant-velocity Kalman filter.

The state is [east, north, vEast, vNorth] in meters and m/s on a local plane
centered at the first fix of the session. Process noise is continuous white
acceleration with spectral density q; measurement noise comes from each
fix's reported horizontal accuracy, so a 20m fix pulls the estimate less
than a 5m fix.
*/
package kalman

import (
	"math"

	"github.com/rotblauer/walkd/common"
	"github.com/rotblauer/walkd/types/fix"
	"gonum.org/v1/gonum/mat"
)

// minAccuracyMeters bounds measurement variance away from zero.
const minAccuracyMeters = 1.0

// Filter is a stateful 2-axis constant-velocity Kalman filter.
// It is owned by one session and must not be shared across goroutines.
type Filter struct {
	q               float64
	initVelVariance float64

	initialized bool
	plane       common.LocalPlane
	lastMillis  int64

	x *mat.VecDense // [e, n, ve, vn]
	p *mat.Dense    // 4x4 error covariance

	// measurement model, constant
	h *mat.Dense
}

// State is a copy of the filter's internal estimate.
type State struct {
	Initialized       bool
	EstimatedLat      float64
	EstimatedLon      float64
	EstimatedVelocity float64

	// Covariance is the 4x4 error covariance, row-major,
	// over [east, north, vEast, vNorth].
	Covariance [16]float64
}

// NewFilter returns a filter with process noise q (m²/s³) and the initial
// velocity variance, (m/s)², used on the first fix.
func NewFilter(q, initialVelocityVariance float64) *Filter {
	f := &Filter{
		q:               q,
		initVelVariance: initialVelocityVariance,
		h: mat.NewDense(2, 4, []float64{
			1, 0, 0, 0,
			0, 1, 0, 0,
		}),
	}
	f.Reset()
	return f
}

// Reset clears the estimate. Call it once, at session start.
// Resetting mid-session makes the next fix a new origin and shows up
// as a discontinuity in the path.
func (f *Filter) Reset() {
	f.initialized = false
	f.plane = common.LocalPlane{}
	f.lastMillis = 0
	f.x = mat.NewVecDense(4, nil)
	f.p = mat.NewDense(4, 4, nil)
}

func measurementVariance(accuracy float64) float64 {
	if !(accuracy >= minAccuracyMeters) {
		accuracy = minAccuracyMeters
	}
	return accuracy * accuracy
}

// Update folds one accepted fix into the estimate and returns the smoothed point.
// Fixes must arrive in non-decreasing time order; a fix at the same instant
// as the previous one is a correction without a predict step.
func (f *Filter) Update(rf fix.RawFix) fix.FilteredPoint {
	r := measurementVariance(rf.HorizontalAccuracy)

	if !f.initialized {
		f.plane = common.NewLocalPlane(rf.Point())
		f.x = mat.NewVecDense(4, nil)
		f.p = mat.NewDense(4, 4, []float64{
			r, 0, 0, 0,
			0, r, 0, 0,
			0, 0, f.initVelVariance, 0,
			0, 0, 0, f.initVelVariance,
		})
		f.lastMillis = rf.TimestampMillis
		f.initialized = true
		return f.point(rf.TimestampMillis)
	}

	if dt := float64(rf.TimestampMillis-f.lastMillis) / 1000; dt > 0 {
		f.predict(dt)
	}
	f.correct(rf, r)
	if rf.TimestampMillis > f.lastMillis {
		f.lastMillis = rf.TimestampMillis
	}
	return f.point(rf.TimestampMillis)
}

// predict advances the state by dt seconds: x = F x, P = F P Fᵀ + Q.
func (f *Filter) predict(dt float64) {
	F := mat.NewDense(4, 4, []float64{
		1, 0, dt, 0,
		0, 1, 0, dt,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})

	dt2 := dt * dt
	dt3 := dt2 * dt
	q := f.q
	Q := mat.NewDense(4, 4, []float64{
		q * dt3 / 3, 0, q * dt2 / 2, 0,
		0, q * dt3 / 3, 0, q * dt2 / 2,
		q * dt2 / 2, 0, q * dt, 0,
		0, q * dt2 / 2, 0, q * dt,
	})

	var x mat.VecDense
	x.MulVec(F, f.x)
	f.x = &x

	var p mat.Dense
	p.Product(F, f.p, F.T())
	p.Add(&p, Q)
	f.p = &p
}

// correct blends the prediction with the measurement.
func (f *Filter) correct(rf fix.RawFix, r float64) {
	east, north := f.plane.ToLocal(rf.Point())
	z := mat.NewVecDense(2, []float64{east, north})
	R := mat.NewDense(2, 2, []float64{
		r, 0,
		0, r,
	})

	// Innovation y = z - H x
	var hx, y mat.VecDense
	hx.MulVec(f.h, f.x)
	y.SubVec(z, &hx)

	// S = H P Hᵀ + R
	var s mat.Dense
	s.Product(f.h, f.p, f.h.T())
	s.Add(&s, R)

	var sInv mat.Dense
	if err := sInv.Inverse(&s); err != nil {
		// R is bounded below, so S is positive definite; keep the prediction if not.
		return
	}

	// K = P Hᵀ S⁻¹
	var k mat.Dense
	k.Product(f.p, f.h.T(), &sInv)

	var ky mat.VecDense
	ky.MulVec(&k, &y)
	var x mat.VecDense
	x.AddVec(f.x, &ky)
	f.x = &x

	// P = (I - K H) P, symmetrized against rounding drift.
	var kh mat.Dense
	kh.Mul(&k, f.h)
	ikh := identity4()
	ikh.Sub(ikh, &kh)
	var p mat.Dense
	p.Mul(ikh, f.p)
	var pt mat.Dense
	pt.CloneFrom(p.T())
	p.Add(&p, &pt)
	p.Scale(0.5, &p)
	f.p = &p
}

func identity4() *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
}

func (f *Filter) velocity() float64 {
	return math.Hypot(f.x.AtVec(2), f.x.AtVec(3))
}

func (f *Filter) point(ts int64) fix.FilteredPoint {
	pt := f.plane.ToPoint(f.x.AtVec(0), f.x.AtVec(1))
	return fix.FilteredPoint{
		Latitude:        pt.Lat(),
		Longitude:       pt.Lon(),
		TimestampMillis: ts,
		Velocity:        f.velocity(),
	}
}

// State returns a copy of the current estimate.
func (f *Filter) State() State {
	s := State{Initialized: f.initialized}
	if !f.initialized {
		return s
	}
	pt := f.plane.ToPoint(f.x.AtVec(0), f.x.AtVec(1))
	s.EstimatedLat = pt.Lat()
	s.EstimatedLon = pt.Lon()
	s.EstimatedVelocity = f.velocity()
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			s.Covariance[i*4+j] = f.p.At(i, j)
		}
	}
	return s
}
