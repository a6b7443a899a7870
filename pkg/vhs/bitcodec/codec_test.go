package bitcodec

import (
	"math"
	"testing"

	"github.com/vhs-sync/timecode/pkg/vhs"
)

const sampleRate = 48000

func TestEncodeDecodeRoundTrip(t *testing.T) {
	symbols := []vhs.BitSymbol{vhs.Zero, vhs.One}
	sampleCounts := []int{480, 600, 1500}

	for _, sym := range symbols {
		for _, n := range sampleCounts {
			samples, _ := EncodeBit(sym, n, sampleRate, 0)
			decoded := DecodeBit(samples, sampleRate)
			if decoded == nil {
				t.Fatalf("symbol=%v n=%d: expected a decision, got none", sym, n)
			}
			if decoded.Symbol != sym {
				t.Errorf("symbol=%v n=%d: expected %v, got %v", sym, n, sym, decoded.Symbol)
			}
			if decoded.Confidence <= 0.8 {
				t.Errorf("symbol=%v n=%d: expected confidence > 0.8, got %v", sym, n, decoded.Confidence)
			}
		}
	}
}

func TestEncodePhaseContinuity(t *testing.T) {
	n := 600
	samples1, phase1 := EncodeBit(vhs.Zero, n, sampleRate, 0)
	samples2, _ := EncodeBit(vhs.Zero, n, sampleRate, phase1)

	// The phase at the boundary should continue smoothly: the last sample
	// of block 1 and first sample of block 2 shouldn't show a wrap-around
	// discontinuity larger than a single sample step would produce.
	if len(samples1) == 0 || len(samples2) == 0 {
		t.Fatal("expected non-empty sample blocks")
	}
	diff := samples2[0] - samples1[len(samples1)-1]
	if diff > 1.5*amplitude || diff < -1.5*amplitude {
		t.Errorf("phase discontinuity too large: %v", diff)
	}
}

func TestDecodeNoSignalReturnsNil(t *testing.T) {
	silence := make([]float64, 600)
	decoded := DecodeBit(silence, sampleRate)
	if decoded != nil {
		t.Errorf("expected nil decision on silence, got %+v", decoded)
	}
}

func TestDecodeOutOfBandToneIsNoDecision(t *testing.T) {
	// 1kHz sits in the guard band between the Zero and One ranges.
	n := 600
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amplitude * math.Sin(2*math.Pi*1000*float64(i)/float64(sampleRate))
	}
	decoded := DecodeBit(samples, sampleRate)
	if decoded != nil {
		t.Errorf("expected guard-band tone to be a no-decision, got %+v", decoded)
	}
}
