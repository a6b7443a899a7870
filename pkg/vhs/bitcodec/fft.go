package bitcodec

import (
	"github.com/vhs-sync/timecode/internal/dsp"
	"github.com/vhs-sync/timecode/pkg/vhs"
)

// analyzeFFT computes the magnitude spectrum, locates the peak frequency,
// and classifies it into the Zero or One band. Confidence is the peak
// bin's energy (squared magnitude) divided by the total spectral energy in
// the combined Zero∪One bands, clamped to [0,1]. The block is Hamming-windowed before the
// transform to suppress the spectral leakage a bare rectangular window
// would otherwise spread the tone's energy into neighboring bins.
func analyzeFFT(samples []float64, sampleRate int) *methodResult {
	if len(samples) < 2 {
		return nil
	}
	windowed := make([]float64, len(samples))
	win := dsp.Hamming(len(samples))
	for i, s := range samples {
		windowed[i] = s * win[i]
	}
	spectrum := dsp.FFTReal(windowed)
	mag := dsp.MagnitudeSpectrum(spectrum)
	if len(mag) == 0 {
		return nil
	}

	bin, peakMag := dsp.PeakBin(mag)
	if peakMag <= 0 {
		return nil
	}
	peakFreq := dsp.BinFrequency(bin, len(samples), sampleRate)

	symbol, ok := dsp.ClassifyFrequency(peakFreq)
	if !ok {
		return nil
	}

	var bandEnergy float64
	for i, m := range mag {
		f := dsp.BinFrequency(i, len(samples), sampleRate)
		if dsp.ZeroRange.Contains(f) || dsp.OneRange.Contains(f) {
			bandEnergy += m * m
		}
	}
	confidence := 0.0
	if bandEnergy > 0 {
		confidence = peakMag * peakMag / bandEnergy
	}
	if confidence > 1 {
		confidence = 1
	}

	return &methodResult{symbol: vhs.BitSymbol(symbol), confidence: confidence}
}
