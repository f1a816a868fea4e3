package orchestrator

const (
	highPerformance = 0.8
	lowPerformance  = 0.4
	weightStep      = 0.1
	weightFloor     = 0.0
	weightCeiling   = 2.0
)

// AdjustWeights nudges focus-area weights from observed per-agent
// performance scores in [0,1]: above 0.8 earns +0.1, below 0.4 costs 0.1,
// clamped to [0,2]. Pure function over a batch that has fully settled;
// the input map is never mutated and adjustments never apply mid-flight.
func AdjustWeights(weights map[string]float64, performance map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(weights))
	for area, w := range weights {
		out[area] = w
	}
	for area, score := range performance {
		w, ok := out[area]
		if !ok {
			continue
		}
		switch {
		case score > highPerformance:
			w += weightStep
		case score < lowPerformance:
			w -= weightStep
		}
		if w < weightFloor {
			w = weightFloor
		}
		if w > weightCeiling {
			w = weightCeiling
		}
		out[area] = w
	}
	return out
}
