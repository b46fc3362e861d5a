package vision

import (
	"math"
	"testing"
)

// makeSig produces a deterministic pseudo-random signature so tests
// don't depend on the encoder.
func makeSig(seed uint32) []float32 {
	sig := make([]float32, SignatureDim)
	state := seed
	for i := range sig {
		state = state*1664525 + 1013904223
		sig[i] = float32(state%1000) / 1000
	}
	return sig
}

// oneHot builds a signature that is zero everywhere except one index.
// Two different one-hots are about as dissimilar as signatures get.
func oneHot(idx int) []float32 {
	sig := make([]float32, SignatureDim)
	sig[idx] = 1
	return sig
}

func TestScoreSelfMatch(t *testing.T) {
	a := makeSig(1)
	conf := Score(a, a, DefaultFusionWeights)
	if conf < 0.999 {
		t.Errorf("self match confidence = %f, want ~1", conf)
	}
	if conf > 1 {
		t.Errorf("confidence %f exceeds 1", conf)
	}
}

func TestScoreBounds(t *testing.T) {
	cases := [][2][]float32{
		{makeSig(1), makeSig(2)},
		{oneHot(0), oneHot(100)},
		{makeSig(3), oneHot(7)},
	}
	for i, c := range cases {
		conf := Score(c[0], c[1], DefaultFusionWeights)
		if conf < 0 || conf > 1 {
			t.Errorf("case %d: confidence %f out of [0,1]", i, conf)
		}
		if math.IsNaN(conf) {
			t.Errorf("case %d: confidence is NaN", i)
		}
	}
}

func TestScoreNearDuplicateBeatsUnrelated(t *testing.T) {
	a := makeSig(1)
	dup := make([]float32, len(a))
	for i := range a {
		dup[i] = a[i] + 0.001
	}
	unrelated := makeSig(99)

	dupConf := Score(a, dup, DefaultFusionWeights)
	unrelConf := Score(a, unrelated, DefaultFusionWeights)
	if dupConf <= unrelConf {
		t.Errorf("near duplicate %f should beat unrelated %f", dupConf, unrelConf)
	}
}

func TestMatchTolerance(t *testing.T) {
	a := makeSig(1)

	ok, conf := Match(a, a, DefaultFusionWeights, 0.5)
	if !ok {
		t.Errorf("self match rejected at tolerance 0.5 (confidence %f)", conf)
	}

	// Orthogonal one-hots sit just below the 0.5 gate.
	ok, conf = Match(oneHot(0), oneHot(1), DefaultFusionWeights, 0.5)
	if ok {
		t.Errorf("orthogonal signatures matched at tolerance 0.5 (confidence %f)", conf)
	}
}

func TestScoreMultiSingleSample(t *testing.T) {
	a := makeSig(1)
	b := makeSig(2)

	single := Score(a, b, DefaultFusionWeights)
	multi := ScoreMulti([][]float32{a}, b, DefaultFusionWeights, 0.5)

	// With one known signature, best and average coincide, so the
	// blended confidence degenerates to the plain score.
	if math.Abs(multi.Confidence-single) > 1e-9 {
		t.Errorf("single-sample confidence %f != plain score %f", multi.Confidence, single)
	}
	if math.Abs(multi.Best-single) > 1e-9 {
		t.Errorf("single-sample best %f != plain score %f", multi.Best, single)
	}
}

func TestScoreMultiBestGatesMatch(t *testing.T) {
	unknown := makeSig(1)
	exact := unknown
	far := oneHot(0)

	multi := ScoreMulti([][]float32{far, exact}, unknown, DefaultFusionWeights, 0.5)
	if !multi.Matched {
		t.Errorf("best sample scores ~1, expected match (best=%f)", multi.Best)
	}
	if multi.Best < 0.999 {
		t.Errorf("best = %f, want ~1", multi.Best)
	}
	// A poor extra sample drags the blended confidence below best but
	// must not flip the decision.
	if multi.Confidence >= multi.Best {
		t.Errorf("confidence %f should be below best %f with a far sample present", multi.Confidence, multi.Best)
	}
}

func TestScoreMultiEmptyKnown(t *testing.T) {
	multi := ScoreMulti(nil, makeSig(1), DefaultFusionWeights, 0.5)
	if multi.Matched || multi.Confidence != 0 || multi.Best != 0 {
		t.Errorf("empty known set should yield zero result, got %+v", multi)
	}
}
