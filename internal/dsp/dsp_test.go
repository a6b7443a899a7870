package dsp

import (
	"math"
	"testing"
)

func TestHamming(t *testing.T) {
	sizes := []int{128, 256, 512, 1024}

	for _, size := range sizes {
		window := Hamming(size)

		if len(window) != size {
			t.Errorf("expected window size %d, got %d", size, len(window))
		}

		for i, val := range window {
			if val < 0 || val > 1 {
				t.Errorf("window value %d out of range [0,1]: %f", i, val)
			}
		}

		if window[0] >= window[size/2] {
			t.Error("Hamming window should be lower at edges")
		}
	}
}

func TestRaisedCosineFadePreservesInterior(t *testing.T) {
	n := 1000
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 1.0
	}
	RaisedCosineFade(samples, 0.05)

	if samples[0] >= 0.01 {
		t.Errorf("expected near-zero at first sample, got %f", samples[0])
	}
	if samples[n/2] != 1.0 {
		t.Errorf("expected unwindowed interior, got %f at midpoint", samples[n/2])
	}
	if samples[n-1] >= 0.01 {
		t.Errorf("expected near-zero at last sample, got %f", samples[n-1])
	}
}

func TestClassifyFrequency(t *testing.T) {
	tests := []struct {
		freq   float64
		symbol int
		ok     bool
	}{
		{800, 0, true},
		{650, 0, true},
		{950, 0, true},
		{1600, 1, true},
		{1350, 1, true},
		{1850, 1, true},
		{1100, 0, false}, // guard band
		{100, 0, false},
		{5000, 0, false},
	}
	for _, tt := range tests {
		sym, ok := ClassifyFrequency(tt.freq)
		if ok != tt.ok {
			t.Errorf("freq %v: expected ok=%v, got %v", tt.freq, tt.ok, ok)
			continue
		}
		if ok && sym != tt.symbol {
			t.Errorf("freq %v: expected symbol %d, got %d", tt.freq, tt.symbol, sym)
		}
	}
}

func TestZeroCrossingFrequency(t *testing.T) {
	sampleRate := 48000
	freq := 800.0
	n := 1000
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	crossings := CountZeroCrossings(samples)
	est := ZeroCrossingFrequency(crossings, n, sampleRate)
	if math.Abs(est-freq) > 50 {
		t.Errorf("expected frequency near %v, got %v", freq, est)
	}
}

func TestAutocorrPeakLagRecoversFrequency(t *testing.T) {
	sampleRate := 48000
	freq := 1600.0
	n := 200
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	ac := Autocorrelate(samples, n-1)
	minLag, maxLag := FrequencyToLagRange(500, 2000, sampleRate)
	lag, conf, ok := AutocorrPeakLag(ac, minLag, maxLag)
	if !ok {
		t.Fatal("expected a peak lag to be found")
	}
	got := LagToFrequency(lag, sampleRate)
	if math.Abs(got-freq) > 150 {
		t.Errorf("expected frequency near %v, got %v (confidence %v)", freq, got, conf)
	}
}

func TestShortTermRMS(t *testing.T) {
	samples := make([]float64, 1000)
	for i := range samples {
		samples[i] = 1.0
	}
	env := ShortTermRMS(samples, 100, 100)
	if len(env) != 10 {
		t.Fatalf("expected 10 windows, got %d", len(env))
	}
	for _, v := range env {
		if math.Abs(v-1.0) > 1e-9 {
			t.Errorf("expected RMS 1.0, got %v", v)
		}
	}
}
