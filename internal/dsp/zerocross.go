package dsp

// CountZeroCrossings counts sign changes across a block of samples.
func CountZeroCrossings(samples []float64) int {
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] >= 0) != (samples[i] >= 0) {
			crossings++
		}
	}
	return crossings
}

// ZeroCrossingFrequency converts a crossing count over a block into an
// estimated frequency: crossings * sample_rate / (2 * sample_count).
func ZeroCrossingFrequency(crossings, sampleCount, sampleRate int) float64 {
	if sampleCount == 0 {
		return 0
	}
	return float64(crossings) * float64(sampleRate) / (2 * float64(sampleCount))
}
