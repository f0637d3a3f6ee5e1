package scoring

import (
	"math"
	"time"
)

// DecayWeight computes exp(-deltaDays/tau).
func DecayWeight(deltaDays float64, tau float64) float64 {
	if tau <= 0 {
		return 0
	}
	return math.Exp(-deltaDays / tau)
}

// recencyWeightedMean weights each score by its age relative to the newest
// timestamp, so the latest assessment always has weight 1.
func recencyWeightedMean(scores []float64, times []time.Time, tauDays float64) float64 {
	if len(scores) == 0 || len(scores) != len(times) {
		return 0
	}

	newest := times[0]
	for _, t := range times[1:] {
		if t.After(newest) {
			newest = t
		}
	}

	sum, weights := 0.0, 0.0
	for i, s := range scores {
		age := newest.Sub(times[i]).Hours() / 24
		w := DecayWeight(age, tauDays)
		sum += w * s
		weights += w
	}
	if weights == 0 {
		return 0
	}
	return sum / weights
}
