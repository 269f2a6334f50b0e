// Package match implements the 1-to-N sweep that compares a probe signature
// against every gallery signature and picks the best acceptable entry.
package match

import (
	"fmt"
	"math"
	"strings"
)

// Metric names a comparison function.
type Metric string

const (
	// Euclidean is the L2 distance between embeddings (lower is better).
	Euclidean Metric = "euclidean"
	// Cosine is 1 - cosine similarity (lower is better).
	Cosine Metric = "cosine"
	// NCC is the normalized cross-correlation of two equally sized patches (higher is better).
	NCC Metric = "ncc"
)

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(strings.ToLower(strings.TrimSpace(s))); m {
	case Euclidean, Cosine, NCC:
		return m, nil
	default:
		return "", fmt.Errorf("unknown metric %q (want euclidean, cosine or ncc)", s)
	}
}

// DefaultThreshold is the acceptance threshold used when none is configured.
func (m Metric) DefaultThreshold() float64 {
	if m == Cosine {
		return 0.07
	}
	return 0.6
}

// IsDistance reports whether lower scores mean closer matches.
func (m Metric) IsDistance() bool {
	return m != NCC
}

// Score applies the metric to two signatures.
func (m Metric) Score(a, b []float32) float64 {
	switch m {
	case Cosine:
		return CosineDistance(a, b)
	case NCC:
		return NormalizedCrossCorrelation(a, b)
	default:
		return EuclideanDistance(a, b)
	}
}

// EuclideanDistance returns the L2 distance between a and b.
// Vectors of different or zero length are infinitely far apart.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// CosineDistance returns 1 - cos(a, b), in [0, 2].
// A zero vector has no direction, so it is treated as orthogonal (1.0).
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1.0
	}
	var dot, sumA, sumB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		sumA += float64(a[i]) * float64(a[i])
		sumB += float64(b[i]) * float64(b[i])
	}
	if sumA == 0 || sumB == 0 {
		return 1.0
	}
	sim := dot / (math.Sqrt(sumA) * math.Sqrt(sumB))
	// Clamp rounding noise
	sim = math.Max(-1, math.Min(1, sim))
	return 1.0 - sim
}

// NormalizedCrossCorrelation computes the zero-mean normalized correlation of two
// equally sized templates, the single-position result of OpenCV's TM_CCOEFF_NORMED.
// Returns 0 for mismatched sizes or flat (zero-variance) patches.
func NormalizedCrossCorrelation(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	n := float64(len(a))
	var meanA, meanB float64
	for i := range a {
		meanA += float64(a[i])
		meanB += float64(b[i])
	}
	meanA /= n
	meanB /= n

	var num, energyA, energyB float64
	for i := range a {
		da := float64(a[i]) - meanA
		db := float64(b[i]) - meanB
		num += da * db
		energyA += da * da
		energyB += db * db
	}
	if energyA == 0 || energyB == 0 {
		return 0
	}
	return num / math.Sqrt(energyA*energyB)
}

// Result is the outcome of one Identify sweep.
type Result struct {
	Index      int // -1 when nothing passed the threshold
	Score      float64
	Confidence float64
	Known      bool
}

// Matcher pairs a metric with its acceptance threshold.
type Matcher struct {
	Metric    Metric
	Threshold float64
}

// Identify sweeps the gallery linearly.
//
// Distance metrics take the argmin and accept it when it is within Threshold.
// NCC keeps the highest similarity strictly above Threshold.
func (m Matcher) Identify(gallery [][]float32, probe []float32) Result {
	unknown := Result{Index: -1}
	if len(gallery) == 0 {
		return unknown
	}

	if m.Metric.IsDistance() {
		best, bestDist := -1, math.Inf(1)
		for i, sig := range gallery {
			if d := m.Metric.Score(sig, probe); d < bestDist {
				best, bestDist = i, d
			}
		}
		if best == -1 || bestDist > m.Threshold {
			unknown.Score = bestDist
			return unknown
		}
		return Result{Index: best, Score: bestDist, Confidence: 1 - bestDist, Known: true}
	}

	res := unknown
	bestSim := 0.0
	for i, sig := range gallery {
		s := m.Metric.Score(probe, sig)
		if s > m.Threshold && s > bestSim {
			res = Result{Index: i, Score: s, Confidence: s, Known: true}
			bestSim = s
		}
	}
	return res
}
