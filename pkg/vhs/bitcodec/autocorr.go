package bitcodec

import (
	"github.com/vhs-sync/timecode/internal/dsp"
	"github.com/vhs-sync/timecode/pkg/vhs"
)

// analyzeAutocorrelation finds the largest autocorrelation local maximum
// within lags corresponding to 500-2000Hz (not necessarily the first peak
// in that range), inverts it to a frequency, and
// classifies it. Confidence comes from the peak-to-sidelobe ratio.
func analyzeAutocorrelation(samples []float64, sampleRate int) *methodResult {
	if len(samples) < 4 {
		return nil
	}
	minLag, maxLag := dsp.FrequencyToLagRange(500, 2000, sampleRate)
	ac := dsp.Autocorrelate(samples, maxLag)

	lag, confidence, ok := dsp.AutocorrPeakLag(ac, minLag, maxLag)
	if !ok {
		return nil
	}
	freq := dsp.LagToFrequency(lag, sampleRate)

	symbol, ok := dsp.ClassifyFrequency(freq)
	if !ok {
		return nil
	}

	return &methodResult{symbol: vhs.BitSymbol(symbol), confidence: confidence}
}
