// Package dsp holds the pure numeric primitives shared by the bit codec's
// encoder and decoder: windowing, FFT, zero-crossing counting,
// autocorrelation, and frequency-range classification. It is a flat
// collection of functions rather than a base class hierarchy; both the
// encoder and decoder import it directly.
package dsp

import "math"

// RaisedCosineFade applies a raised-cosine fade-in and fade-out to the
// first and last fraction of samples in place, leaving the interior
// unwindowed so the block's frequency content stays pure.
func RaisedCosineFade(samples []float64, fraction float64) {
	n := len(samples)
	if n == 0 || fraction <= 0 {
		return
	}
	edge := int(float64(n) * fraction)
	if edge > n/2 {
		edge = n / 2
	}
	for i := 0; i < edge; i++ {
		// 0 -> 1 raised-cosine ramp
		gain := 0.5 * (1 - math.Cos(math.Pi*float64(i)/float64(edge)))
		samples[i] *= gain
		samples[n-1-i] *= gain
	}
}

// Hamming returns an n-point Hamming window.
func Hamming(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := 0; i < n; i++ {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}
