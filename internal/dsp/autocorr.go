package dsp

import "math"

// Autocorrelate computes the unnormalized autocorrelation of samples for
// lags 0..maxLag (inclusive), via direct time-domain summation. Bit windows
// in this codec are tiny (tens of samples), so an O(n*maxLag) computation
// is both correct and fast enough without an FFT backend.
func Autocorrelate(samples []float64, maxLag int) []float64 {
	n := len(samples)
	if maxLag >= n {
		maxLag = n - 1
	}
	out := make([]float64, maxLag+1)
	for lag := 0; lag <= maxLag; lag++ {
		var sum float64
		for i := 0; i+lag < n; i++ {
			sum += samples[i] * samples[i+lag]
		}
		out[lag] = sum
	}
	return out
}

// AutocorrPeakLag finds the local-maximum lag in [minLag, maxLag] with the
// largest autocorrelation value, and returns it along with the
// peak-to-sidelobe confidence. It takes the largest local maximum rather
// than the first one, and applies no threshold relative to the zero-lag
// energy.
func AutocorrPeakLag(ac []float64, minLag, maxLag int) (lag int, confidence float64, ok bool) {
	if len(ac) == 0 || ac[0] <= 0 {
		return 0, 0, false
	}
	if maxLag >= len(ac) {
		maxLag = len(ac) - 1
	}
	if minLag < 1 {
		minLag = 1
	}
	if minLag > maxLag {
		return 0, 0, false
	}

	bestLag := -1
	bestVal := 0.0
	for l := minLag; l <= maxLag; l++ {
		if l-1 >= minLag && ac[l] <= ac[l-1] {
			continue
		}
		if l+1 <= maxLag && ac[l] <= ac[l+1] {
			continue
		}
		if ac[l] > bestVal {
			bestVal = ac[l]
			bestLag = l
		}
	}
	if bestLag < 0 {
		return 0, 0, false
	}

	// peak-to-sidelobe: compare the chosen peak to the mean of the other
	// candidate lags in range, as 1 - meanSide/peak clamped to [0,1].
	var sideSum float64
	sideCount := 0
	for l := minLag; l <= maxLag; l++ {
		if l == bestLag {
			continue
		}
		sideSum += ac[l]
		sideCount++
	}
	meanSide := 0.0
	if sideCount > 0 {
		meanSide = sideSum / float64(sideCount)
	}
	ratio := 1.0
	if bestVal > 0 {
		ratio = 1 - meanSide/bestVal
	}
	conf := math.Max(0, math.Min(1, ratio))
	return bestLag, conf, true
}

// LagToFrequency converts an autocorrelation lag (in samples) to Hz.
func LagToFrequency(lag, sampleRate int) float64 {
	if lag <= 0 {
		return 0
	}
	return float64(sampleRate) / float64(lag)
}

// FrequencyToLagRange converts a [minFreq, maxFreq] band to the
// corresponding [minLag, maxLag] autocorrelation lag range.
func FrequencyToLagRange(minFreq, maxFreq float64, sampleRate int) (minLag, maxLag int) {
	maxLag = int(float64(sampleRate) / minFreq)
	minLag = int(float64(sampleRate) / maxFreq)
	if minLag < 1 {
		minLag = 1
	}
	return minLag, maxLag
}
