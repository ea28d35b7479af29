package tracker

import (
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Feature renders the simplified path as a GeoJSON LineString with the
// session summary as properties. The line ends at the latest point.
// With a single point the geometry is that point, or nil if there is none.
func (s *Session) Feature() *geojson.Feature {
	s.mu.RLock()
	sum := s.summary()
	ls := s.smoother.LineString()
	s.mu.RUnlock()

	var g orb.Geometry
	switch len(ls) {
	case 0:
	case 1:
		g = ls[0]
	default:
		g = ls
	}
	f := geojson.NewFeature(g)
	f.Properties["Points"] = sum.Points
	f.Properties["Vertices"] = sum.Vertices
	f.Properties["Distance"] = math.Round(sum.TotalMeters)
	f.Properties["Steps"] = sum.TotalSteps
	f.Properties["Duration"] = sum.Duration.Round(time.Second).Seconds()
	f.Properties["Walking_Duration"] = sum.WalkingTime.Round(time.Second).Seconds()
	f.Properties["Speed_Mean"] = sum.SpeedMean
	f.Properties["Speed_Median"] = sum.SpeedMedian
	f.Properties["Speed_P95"] = sum.SpeedP95
	f.Properties["Rejected"] = sum.Stats.Rejected()
	if sum.Points > 0 {
		f.Properties["Time_Start_Unix"] = sum.Start.Unix()
		f.Properties["Time_Start_RFC3339"] = sum.Start.Format(time.RFC3339)
		f.Properties["Time_End_Unix"] = sum.End.Unix()
		f.Properties["Time_End_RFC3339"] = sum.End.Format(time.RFC3339)
	}
	return f
}
