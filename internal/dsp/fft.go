package dsp

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFTReal computes the forward FFT of a real-valued frame.
func FFTReal(frame []float64) []complex128 {
	return fft.FFTReal(frame)
}

// MagnitudeSpectrum returns the magnitude of the first half of a complex
// spectrum (the non-redundant half for a real input).
func MagnitudeSpectrum(spectrum []complex128) []float64 {
	half := len(spectrum) / 2
	mag := make([]float64, half)
	for i := 0; i < half; i++ {
		mag[i] = cmplx.Abs(spectrum[i])
	}
	return mag
}

// BinFrequency converts an FFT bin index to its centre frequency in Hz.
func BinFrequency(bin, fftSize, sampleRate int) float64 {
	return float64(bin) * float64(sampleRate) / float64(fftSize)
}

// PeakBin returns the index and magnitude of the largest bin in mag.
func PeakBin(mag []float64) (bin int, magnitude float64) {
	for i, m := range mag {
		if m > magnitude {
			magnitude = m
			bin = i
		}
	}
	return bin, magnitude
}
