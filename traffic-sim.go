package mlnes

// traffic-sim.go holds the samplers that drive the traffic clients.
// Interarrival times are drawn by inversion from a single uniform draw
import (
	"math"
)

var rdigits uint = 15

// round computed simulation time to avoid non-sensical comparisons
// induced by rounding error
func roundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// geoSlots returns the number of whole slots until the next success in a
// sequence of Bernoulli trials with per-slot probability pr, sampled by
// inversion from the uniform draw u01.  The count is always at least 1.
// Callers must ensure 0 < pr < 1
func geoSlots(u01, pr float64) int {
	return int(math.Floor(math.Log(u01)/math.Log(1.0-pr))) + 1
}

// sampleGeoInterval has the function signature expected by a traffic
// client for drawing a next interarrival time.  params holds the
// per-slot arrival probability and the slot duration
func sampleGeoInterval(u01 float64, params []float64) float64 {
	slots := geoSlots(u01, params[0])
	return roundFloat(float64(slots)*params[1], rdigits)
}

// sampleConstInterval has the function signature expected by a traffic
// client for drawing a next interarrival time, here a constant held in
// params[0]
func sampleConstInterval(u01 float64, params []float64) float64 {
	return params[0]
}
