// Package locker finds the Timecode-phase sample/frame ranges within an
// arbitrary captured audio+video stream believed to contain one or more
// 4-phase test-pattern cycles. It is the step that keeps the
// TestChart phase's 1 kHz tone from ever reaching the Frame Codec.
package locker

import (
	"math"

	"github.com/vhs-sync/timecode/internal/dsp"
	"github.com/vhs-sync/timecode/pkg/vhs"
)

// energyLevel classifies one RMS-envelope window.
type energyLevel int

const (
	levelAmbiguous energyLevel = iota
	levelHigh
	levelLow
)

// Thresholds tunes the High/Low RMS classification. The defaults assume
// samples normalised to [-1, 1]; the source this codec replaces expressed
// them against int16-scaled audio (RMS > 1000, RMS < 100), so the defaults
// here are that same pair divided by 32768.
type Thresholds struct {
	High float64
	Low  float64
}

// DefaultThresholds returns the normalised-float equivalent of the
// int16-scale thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{High: 1000.0 / 32768.0, Low: 100.0 / 32768.0}
}

func (t Thresholds) classify(rms float64) energyLevel {
	if rms > t.High {
		return levelHigh
	}
	if rms < t.Low {
		return levelLow
	}
	return levelAmbiguous
}

// LockCycles locates every validated cycle's Timecode-phase boundaries
// within audioSamples. firstCycleAtZero is a hint
// that the stream's first sample is the start of a cycle's TestChart phase
// (true for synthetic files generated with no lead-in; false for captures,
// where the search must find the first cycle like any other). If no cycle
// validates, returns a nil slice and a NoSignal diagnostic; this is a
// normal outcome, not an error. A non-nil error return means the call
// itself could not proceed (bad parameters or a broken internal invariant),
// which is a distinct failure mode from "no cycle found".
func LockCycles(audioSamples []float64, sampleRate int, fps vhs.Rational, phaseLengths vhs.PhaseLengths, firstCycleAtZero bool) ([]vhs.LockedRegion, vhs.Diagnostic, error) {
	return LockCyclesWithThresholds(audioSamples, sampleRate, fps, phaseLengths, firstCycleAtZero, DefaultThresholds())
}

// LockCyclesWithThresholds is LockCycles with an explicit Thresholds
// override, for captures whose noise floor or tape-path gain don't match
// the defaults.
func LockCyclesWithThresholds(audioSamples []float64, sampleRate int, fps vhs.Rational, phaseLengths vhs.PhaseLengths, firstCycleAtZero bool, thresholds Thresholds) ([]vhs.LockedRegion, vhs.Diagnostic, error) {
	if sampleRate <= 0 || fps.Num <= 0 || fps.Den <= 0 {
		return nil, vhs.Diagnostic{}, vhs.NewMalformedInput("non-positive sample rate or fps", map[string]any{
			"sample_rate": sampleRate, "fps_num": fps.Num, "fps_den": fps.Den,
		})
	}
	if phaseLengths.TotalFrames() <= 0 {
		return nil, vhs.Diagnostic{}, vhs.NewMalformedInput("phase lengths sum to zero or fewer frames", map[string]any{"phase_lengths": phaseLengths})
	}
	if len(audioSamples) == 0 {
		return nil, vhs.Diagnostic{Kind: vhs.NoSignal, Reason: "empty audio input"}, nil
	}

	samplesPerFrameExact := float64(sampleRate) * float64(fps.Den) / float64(fps.Num)
	window := int(math.Round(samplesPerFrameExact / 4))
	if window < 1 {
		window = 1
	}
	envelope := dsp.ShortTermRMS(audioSamples, window, window)
	if len(envelope) == 0 {
		return nil, vhs.Diagnostic{Kind: vhs.NoSignal, Reason: "audio shorter than one RMS window", Context: map[string]any{"window_samples": window}}, nil
	}

	levels := make([]energyLevel, len(envelope))
	for i, rms := range envelope {
		levels[i] = thresholds.classify(rms)
	}

	testChartWindows := phaseLengths.TestChartFrames * 4
	preSilenceWindows := phaseLengths.PreSilenceFrames * 4
	minHighRun := int(math.Ceil(0.8 * float64(testChartWindows)))
	minLowRun := int(math.Ceil(0.5 * float64(preSilenceWindows)))

	candidates := candidateStarts(levels, minHighRun, minLowRun)
	if firstCycleAtZero && (len(candidates) == 0 || candidates[0] != 0) {
		candidates = append([]int{0}, candidates...)
	}

	var regions []vhs.LockedRegion
	for _, windowIndex := range candidates {
		sCycle := refineCycleStart(audioSamples, uint64(windowIndex*window), window, thresholds)
		region, ok := validateCandidate(audioSamples, sampleRate, fps, phaseLengths, samplesPerFrameExact, window, sCycle, thresholds)
		if !ok {
			continue
		}
		if overlapsAny(regions, region) {
			continue
		}
		regions = append(regions, region)
	}

	for _, r := range regions {
		if r.AudioSampleEndExclusive <= r.AudioSampleStart || r.VideoFrameEndExclusive <= r.VideoFrameStart {
			return nil, vhs.Diagnostic{}, vhs.NewInvariantViolation("locked region has non-positive width", map[string]any{"region": r})
		}
	}

	if len(regions) == 0 {
		return nil, vhs.Diagnostic{Kind: vhs.NoSignal, Reason: "no cycle validated against the expected phase structure"}, nil
	}
	return regions, vhs.Diagnostic{}, nil
}

// refineCycleStart sharpens a window-granularity cycle-start estimate to
// sample accuracy. The coarse search only knows which `window`-sized block
// the TestChart tone begins in; this rescans sample-by-sample across the
// window before and after that estimate for the first sample whose
// window-length RMS already reads High. That window holds the onset
// somewhere inside it, so the scan then takes the first sample within it
// louder than the High threshold and returns the sample before it: a tone
// that starts at phase zero has a zero-valued first sample.
// Without this pass the locked boundary can only ever land on a multiple of
// window, even when the capture's lead-in silence is not.
func refineCycleStart(audioSamples []float64, coarse uint64, window int, thresholds Thresholds) uint64 {
	lo := int64(coarse) - int64(window)
	if lo < 0 {
		lo = 0
	}
	hi := int64(coarse) + int64(window)
	if hi > int64(len(audioSamples))-int64(window) {
		hi = int64(len(audioSamples)) - int64(window)
	}
	for s := lo; s <= hi; s++ {
		if thresholds.classify(dsp.RMS(audioSamples[s:s+int64(window)])) != levelHigh {
			continue
		}
		for i := s; i < s+int64(window); i++ {
			if math.Abs(audioSamples[i]) > thresholds.High {
				if i > 0 {
					return uint64(i - 1)
				}
				return 0
			}
		}
		return uint64(s)
	}
	return coarse
}

// candidateStarts scans the classified envelope for a High run of at least
// minHighRun windows immediately followed by a Low run of at least
// minLowRun windows, returning the window index each such High run begins
// at.
func candidateStarts(levels []energyLevel, minHighRun, minLowRun int) []int {
	var starts []int
	i := 0
	for i < len(levels) {
		if levels[i] != levelHigh {
			i++
			continue
		}
		highStart := i
		for i < len(levels) && levels[i] == levelHigh {
			i++
		}
		highRun := i - highStart
		if highRun < minHighRun {
			continue
		}
		lowStart := i
		for i < len(levels) && levels[i] == levelLow {
			i++
		}
		lowRun := i - lowStart
		if lowRun < minLowRun {
			continue
		}
		starts = append(starts, highStart)
	}
	return starts
}

// validateCandidate checks that the Timecode phase has non-Low energy and
// PostSilence is Low, and if it passes, computes the exact
// LockedRegion via the frame-exact boundary formulas.
func validateCandidate(audioSamples []float64, sampleRate int, fps vhs.Rational, phaseLengths vhs.PhaseLengths, samplesPerFrameExact float64, window int, sCycle uint64, thresholds Thresholds) (vhs.LockedRegion, bool) {
	framesBeforeTimecode := uint64(phaseLengths.TestChartFrames + phaseLengths.PreSilenceFrames)
	framesThroughTimecode := framesBeforeTimecode + uint64(phaseLengths.TimecodeFrames)
	framesThroughPostSilence := framesThroughTimecode + uint64(phaseLengths.PostSilenceFrames)

	sTimecodeStart := sCycle + roundSamples(framesBeforeTimecode, samplesPerFrameExact)
	sTimecodeEnd := sCycle + roundSamples(framesThroughTimecode, samplesPerFrameExact)
	sPostSilenceEnd := sCycle + roundSamples(framesThroughPostSilence, samplesPerFrameExact)

	if sPostSilenceEnd > uint64(len(audioSamples)) {
		return vhs.LockedRegion{}, false
	}

	timecodeEnvelope := dsp.ShortTermRMS(audioSamples[sTimecodeStart:sTimecodeEnd], window, window)
	if !anyNonLow(timecodeEnvelope, thresholds) {
		return vhs.LockedRegion{}, false
	}

	postSilenceEnvelope := dsp.ShortTermRMS(audioSamples[sTimecodeEnd:sPostSilenceEnd], window, window)
	if !allLow(postSilenceEnvelope, thresholds) {
		return vhs.LockedRegion{}, false
	}

	fCycle := sampleToFrame(sCycle, samplesPerFrameExact)
	return vhs.LockedRegion{
		VideoFrameStart:         fCycle + framesBeforeTimecode,
		VideoFrameEndExclusive:  fCycle + framesThroughTimecode,
		AudioSampleStart:        sTimecodeStart,
		AudioSampleEndExclusive: sTimecodeEnd,
	}, true
}

func roundSamples(frames uint64, samplesPerFrameExact float64) uint64 {
	return uint64(math.Round(float64(frames) * samplesPerFrameExact))
}

func sampleToFrame(s uint64, samplesPerFrameExact float64) uint64 {
	return uint64(math.Round(float64(s) / samplesPerFrameExact))
}

func anyNonLow(envelope []float64, thresholds Thresholds) bool {
	for _, rms := range envelope {
		if thresholds.classify(rms) != levelLow {
			return true
		}
	}
	return false
}

func allLow(envelope []float64, thresholds Thresholds) bool {
	for _, rms := range envelope {
		if thresholds.classify(rms) != levelLow {
			return false
		}
	}
	return true
}

func overlapsAny(regions []vhs.LockedRegion, candidate vhs.LockedRegion) bool {
	for _, r := range regions {
		if candidate.AudioSampleStart < r.AudioSampleEndExclusive && r.AudioSampleStart < candidate.AudioSampleEndExclusive {
			return true
		}
	}
	return false
}
