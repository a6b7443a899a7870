package bitcodec

import (
	"math"

	"github.com/vhs-sync/timecode/internal/dsp"
	"github.com/vhs-sync/timecode/pkg/vhs"
)

// analyzeZeroCrossing estimates frequency from the block's zero-crossing
// rate and classifies it. Confidence = 1 - |measured-nominal|/(nominal*0.5),
// floored at 0.
func analyzeZeroCrossing(samples []float64, sampleRate int) *methodResult {
	if len(samples) < 2 {
		return nil
	}
	crossings := dsp.CountZeroCrossings(samples)
	measured := dsp.ZeroCrossingFrequency(crossings, len(samples), sampleRate)

	symbol, ok := dsp.ClassifyFrequency(measured)
	if !ok {
		return nil
	}
	nominal := dsp.ToneFrequency(symbol)
	confidence := 1 - math.Abs(measured-nominal)/(nominal*0.5)
	if confidence < 0 {
		confidence = 0
	}

	return &methodResult{symbol: vhs.BitSymbol(symbol), confidence: confidence}
}
