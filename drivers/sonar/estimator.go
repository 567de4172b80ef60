package sonar

import "rangecode-go/x/mathx"

// Confidence tiers by population standard deviation of the history window.
// The fixed thresholds are a heuristic, not derived from sensor noise.
var confidenceTiers = [...]struct {
	below float32
	score uint8
}{
	{1, 90},
	{5, 75},
	{10, 60},
}

const confidenceFloor = 40

// Confidence maps a history dispersion to a 0..100 trust score.
func Confidence(stdDev float32) uint8 {
	for _, t := range confidenceTiers {
		if stdDev < t.below {
			return t.score
		}
	}
	return confidenceFloor
}

// Estimator extrapolates a reading from History when no plausible
// measurement is available, and remembers its last prediction for Verify.
type Estimator struct {
	Min, Max        float32
	VerifyDelta     float32
	VerifyTolerance float32

	last float32
}

func newEstimator(c Config) Estimator {
	return Estimator{
		Min:             c.MinDistance,
		Max:             c.MaxDistance,
		VerifyDelta:     c.VerifyDelta,
		VerifyTolerance: c.VerifyTolerance,
	}
}

// Predict returns d_c + (d_c - d_p) from the two newest samples, clamped to
// [Min, Max], with a confidence from the window's dispersion. With fewer
// than two samples it returns the no-data reading {Max, 0, predicted}.
func (e *Estimator) Predict(h *History) Reading {
	if h.Len() < 2 {
		return Reading{Distance: e.Max, Confidence: 0, Predicted: true}
	}
	cur, prev := h.Latest(1), h.Latest(2)
	e.last = mathx.Clamp(cur+(cur-prev), e.Min, e.Max)
	return Reading{
		Distance:   e.last,
		Confidence: Confidence(mathx.PopStdDev(h.Window())),
		Predicted:  true,
	}
}

// Last returns the most recent prediction (0 before the first one).
func (e *Estimator) Last() float32 { return e.last }

// Verify reports whether measured lies strictly within VerifyTolerance of
// the last prediction advanced by VerifyDelta. The delta is a fixed
// per-cycle approach heuristic for mobile units.
func (e *Estimator) Verify(measured float32) bool {
	return mathx.Abs(measured-(e.last+e.VerifyDelta)) < e.VerifyTolerance
}
