// Package bitcodec implements the FSK bit codec: encoding a single logical
// bit into a fixed-length block of audio samples, and recovering a bit (with
// confidence) from such a block using three independent analysis methods
// combined by weighted vote.
package bitcodec

import (
	"math"

	"github.com/vhs-sync/timecode/internal/dsp"
	"github.com/vhs-sync/timecode/pkg/vhs"
)

const (
	amplitude    = 0.6
	fadeFraction = 0.05
)

// EncodeBit renders symbol as `sampleCount` samples of its nominal FSK
// tone at amplitude 0.6, fading the first/last 5% to suppress transients.
// startPhase is the running phase (radians) carried from the previous bit
// so tone generation stays continuous across bit boundaries; the returned
// endPhase feeds the next call.
func EncodeBit(symbol vhs.BitSymbol, sampleCount, sampleRate int, startPhase float64) (samples []float64, endPhase float64) {
	freq := dsp.ToneFrequency(int(symbol))
	samples = make([]float64, sampleCount)
	omega := 2 * math.Pi * freq / float64(sampleRate)
	phase := startPhase
	for i := 0; i < sampleCount; i++ {
		samples[i] = amplitude * math.Sin(phase)
		phase += omega
	}
	dsp.RaisedCosineFade(samples, fadeFraction)

	// Normalize the carried phase into [0, 2pi) to avoid unbounded growth
	// over long contiguous sections.
	endPhase = math.Mod(phase, 2*math.Pi)
	if endPhase < 0 {
		endPhase += 2 * math.Pi
	}
	return samples, endPhase
}

// weightFFT, weightZCR and weightAutocorr are the fixed voting weights.
const (
	weightFFT       = 2.0
	weightZCR       = 1.0
	weightAutocorr  = 1.0
)

type methodResult struct {
	symbol     vhs.BitSymbol
	confidence vhs.BitConfidence
	weight     float64
	ok         bool
}

// DecodeBit runs the FFT, zero-crossing-rate and autocorrelation methods
// over samples and combines them by weighted vote. Returns nil if no
// method produced a decision — decoding never panics or errors on a
// no-decision outcome.
func DecodeBit(samples []float64, sampleRate int) *vhs.DecodedBit {
	results := []methodResult{
		toResult(analyzeFFT(samples, sampleRate), weightFFT),
		toResult(analyzeZeroCrossing(samples, sampleRate), weightZCR),
		toResult(analyzeAutocorrelation(samples, sampleRate), weightAutocorr),
	}
	return vote(results)
}

func toResult(r *methodResult, weight float64) methodResult {
	if r == nil {
		return methodResult{ok: false}
	}
	r.weight = weight
	r.ok = true
	return *r
}
