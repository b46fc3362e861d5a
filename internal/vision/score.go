package vision

import "math"

// FusionWeights combines four distance metrics into one confidence.
// The weights are a deployment-wide tuning knob, not per-request state.
type FusionWeights struct {
	Euclidean   float64
	Cosine      float64
	Manhattan   float64
	Correlation float64
}

// DefaultFusionWeights favours cosine similarity, which behaves best on
// the normalised histogram blocks of the signature.
var DefaultFusionWeights = FusionWeights{
	Euclidean:   0.35,
	Cosine:      0.40,
	Manhattan:   0.15,
	Correlation: 0.10,
}

// Distance rescaling constants: 1/(1+d/scale) maps an unbounded
// distance into (0,1].
const (
	euclideanScale = 100
	manhattanScale = 1000
	cosineEpsilon  = 1e-10
)

// Score computes the fused similarity confidence between two signatures,
// clamped to [0,1]. Both signatures must have the same length.
func Score(a, b []float32, w FusionWeights) float64 {
	var (
		sumSqDiff  float64 // for euclidean
		sumAbsDiff float64 // for manhattan
		dot        float64
		normA      float64
		normB      float64
		sumA       float64
		sumB       float64
	)

	n := len(a)
	for i := 0; i < n; i++ {
		av := float64(a[i])
		bv := float64(b[i])
		d := av - bv
		sumSqDiff += d * d
		sumAbsDiff += math.Abs(d)
		dot += av * bv
		normA += av * av
		normB += bv * bv
		sumA += av
		sumB += bv
	}

	euclidean := 1 / (1 + math.Sqrt(sumSqDiff)/euclideanScale)
	manhattan := 1 / (1 + sumAbsDiff/manhattanScale)
	cosine := dot / (math.Sqrt(normA)*math.Sqrt(normB) + cosineEpsilon)
	correlation := pearson(a, b, sumA/float64(n), sumB/float64(n))

	confidence := w.Euclidean*euclidean +
		w.Cosine*cosine +
		w.Manhattan*manhattan +
		w.Correlation*correlation

	return math.Max(0, math.Min(1, confidence))
}

// Match reports whether two signatures belong to the same person under
// the given tolerance. A tolerance of 0.5 requires confidence >= 0.5.
func Match(a, b []float32, w FusionWeights, tolerance float64) (bool, float64) {
	confidence := Score(a, b, w)
	return confidence >= 1-tolerance, confidence
}

func pearson(a, b []float32, meanA, meanB float64) float64 {
	var cov, varA, varB float64
	for i := range a {
		da := float64(a[i]) - meanA
		db := float64(b[i]) - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	denom := math.Sqrt(varA) * math.Sqrt(varB)
	if denom == 0 {
		return 0
	}
	return cov / denom
}

// MultiScore is the outcome of comparing one unknown signature against
// an identity's accumulated sample set.
type MultiScore struct {
	Matched    bool
	Confidence float64 // 0.7*best + 0.3*avg, the reported confidence
	Best       float64 // highest single-sample confidence, gates the match
}

// ScoreMulti compares the unknown signature against every known
// signature of one identity. The best single confidence gates the match
// decision, so one good enrollment sample is enough to unlock
// recognition; the average smooths the reported confidence so a single
// lucky outlier does not dominate it.
func ScoreMulti(known [][]float32, unknown []float32, w FusionWeights, tolerance float64) MultiScore {
	if len(known) == 0 {
		return MultiScore{}
	}

	var best, sum float64
	for _, k := range known {
		conf := Score(k, unknown, w)
		sum += conf
		if conf > best {
			best = conf
		}
	}
	avg := sum / float64(len(known))

	return MultiScore{
		Matched:    best >= 1-tolerance,
		Confidence: 0.7*best + 0.3*avg,
		Best:       best,
	}
}
