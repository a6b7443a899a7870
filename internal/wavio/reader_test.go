package wavio

import (
	"math"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/roundtrip.wav"

	samples := make([]float64, 4800)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*800*float64(i)/48000)
	}

	if err := WriteFloat64(path, samples, 48000); err != nil {
		t.Fatalf("WriteFloat64 failed: %v", err)
	}

	got, sampleRate, err := ReadFloat64(path)
	if err != nil {
		t.Fatalf("ReadFloat64 failed: %v", err)
	}
	if sampleRate != 48000 {
		t.Errorf("got sample rate %d, want 48000", sampleRate)
	}
	if len(got) != len(samples) {
		t.Fatalf("got %d samples, want %d", len(got), len(samples))
	}

	const tolerance = 1.0 / 32768.0 * 1.5
	for i := range samples {
		if math.Abs(got[i]-samples[i]) > tolerance {
			t.Fatalf("sample %d: got %v, want %v (16-bit quantisation tolerance exceeded)", i, got[i], samples[i])
		}
	}
}

func TestReadFloat64NonExistent(t *testing.T) {
	_, _, err := ReadFloat64("nonexistent-file.wav")
	if err == nil {
		t.Error("expected error when reading non-existent file")
	}
}

func TestWriteFloat64ClipsOutOfRangeSamples(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/clipped.wav"

	samples := []float64{2.0, -2.0, 0.0}
	if err := WriteFloat64(path, samples, 48000); err != nil {
		t.Fatalf("WriteFloat64 failed: %v", err)
	}

	got, _, err := ReadFloat64(path)
	if err != nil {
		t.Fatalf("ReadFloat64 failed: %v", err)
	}
	if got[0] < 0.99 {
		t.Errorf("expected clipped sample near 1.0, got %v", got[0])
	}
	if got[1] > -0.99 {
		t.Errorf("expected clipped sample near -1.0, got %v", got[1])
	}
}

func TestSimulateWowFlutterPreservesApproximateLength(t *testing.T) {
	samples := make([]float64, 48000)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * 1000 * float64(i) / 48000)
	}

	jittered := SimulateWowFlutter(samples, 48000, 0.002)
	if len(jittered) == 0 {
		t.Fatal("expected non-empty output")
	}
	ratio := float64(len(jittered)) / float64(len(samples))
	if ratio < 0.95 || ratio > 1.05 {
		t.Errorf("jittered length ratio %v outside expected small-depth bound", ratio)
	}
}

func TestSimulateWowFlutterEmptyInput(t *testing.T) {
	if out := SimulateWowFlutter(nil, 48000, 0.002); out != nil {
		t.Errorf("expected nil output for empty input, got %v", out)
	}
}
