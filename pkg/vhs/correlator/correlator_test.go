package correlator

import (
	"math"
	"testing"

	"github.com/vhs-sync/timecode/pkg/vhs"
)

const sampleRate = 48000

func syntheticDetections(n int, offsetSeconds float64, fps vhs.Rational) (video, audio []vhs.TimecodeDetection) {
	fpsFloat := fps.Float()
	for k := 0; k < n; k++ {
		video = append(video, vhs.TimecodeDetection{
			VideoFrameIndex: uint64(k),
			FrameID:         uint32(k),
			Confidence:      0.9,
		})
		audioTime := float64(k)/fpsFloat + offsetSeconds
		audio = append(audio, vhs.TimecodeDetection{
			SamplePosition: uint64(math.Round(audioTime * float64(sampleRate))),
			FrameID:        uint32(k),
			Confidence:     0.8,
		})
	}
	return video, audio
}

func TestCorrelatePerfectReferenceSubSampleOffset(t *testing.T) {
	video, audio := syntheticDetections(700, 0, vhs.FpsPAL)
	report, err := Correlate(video, audio, sampleRate, vhs.FpsPAL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.MatchCount != 700 {
		t.Fatalf("got %d matches, want 700", report.MatchCount)
	}
	if math.Abs(report.MeanOffset) >= 1e-5 {
		t.Errorf("mean offset %v exceeds sub-sample bound", report.MeanOffset)
	}
	if math.Abs(report.MeanConfidence-0.8) > 1e-12 {
		t.Errorf("got mean confidence %v, want 0.8 (min of 0.9 and 0.8 every match)", report.MeanConfidence)
	}
}

func TestCorrelateKnownOffset(t *testing.T) {
	const wantOffset = 0.0412
	video, audio := syntheticDetections(200, wantOffset, vhs.FpsPAL)
	report, err := Correlate(video, audio, sampleRate, vhs.FpsPAL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(report.MeanOffset-wantOffset) > 1e-4 {
		t.Errorf("got mean offset %v, want %v", report.MeanOffset, wantOffset)
	}
}

func TestCorrelateSkipsMissingIDsSequentially(t *testing.T) {
	video := []vhs.TimecodeDetection{
		{VideoFrameIndex: 0, FrameID: 0, Confidence: 1},
		{VideoFrameIndex: 1, FrameID: 1, Confidence: 1},
		{VideoFrameIndex: 2, FrameID: 2, Confidence: 1},
	}
	audio := []vhs.TimecodeDetection{
		{SamplePosition: 0, FrameID: 0, Confidence: 1},
		{SamplePosition: 1920, FrameID: 2, Confidence: 1}, // id 1 missing in audio
	}
	report, err := Correlate(video, audio, sampleRate, vhs.FpsPAL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.MatchCount != 2 {
		t.Fatalf("got %d matches, want 2", report.MatchCount)
	}
	if report.PerMatch[0].FrameID != 0 || report.PerMatch[1].FrameID != 2 {
		t.Errorf("unexpected matched ids: %+v", report.PerMatch)
	}
}

func TestCorrelateRepeatedIDsAcrossCyclesPairSequentially(t *testing.T) {
	// Two concatenated cycles of 3 ids each: the k-th occurrence of an id in
	// video must pair with the k-th occurrence in audio, not every occurrence
	// with every occurrence.
	video := []vhs.TimecodeDetection{
		{VideoFrameIndex: 0, FrameID: 0, Confidence: 1},
		{VideoFrameIndex: 1, FrameID: 1, Confidence: 1},
		{VideoFrameIndex: 2, FrameID: 2, Confidence: 1},
		{VideoFrameIndex: 100, FrameID: 0, Confidence: 1},
		{VideoFrameIndex: 101, FrameID: 1, Confidence: 1},
		{VideoFrameIndex: 102, FrameID: 2, Confidence: 1},
	}
	audio := []vhs.TimecodeDetection{
		{SamplePosition: 0, FrameID: 0, Confidence: 1},
		{SamplePosition: 1920, FrameID: 1, Confidence: 1},
		{SamplePosition: 3840, FrameID: 2, Confidence: 1},
		{SamplePosition: 192000, FrameID: 0, Confidence: 1},
		{SamplePosition: 193920, FrameID: 1, Confidence: 1},
		{SamplePosition: 195840, FrameID: 2, Confidence: 1},
	}
	report, err := Correlate(video, audio, sampleRate, vhs.FpsPAL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.MatchCount != 6 {
		t.Fatalf("got %d matches, want 6 (no cross-cycle explosion)", report.MatchCount)
	}
}

func TestCorrelateEmptyInputs(t *testing.T) {
	report, err := Correlate(nil, nil, sampleRate, vhs.FpsPAL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.MatchCount != 0 {
		t.Errorf("expected 0 matches, got %d", report.MatchCount)
	}
}

func TestCorrelateMalformedParameters(t *testing.T) {
	if _, err := Correlate(nil, nil, 0, vhs.FpsPAL); err == nil {
		t.Error("expected an error for a non-positive sample rate")
	}
	if _, err := Correlate(nil, nil, sampleRate, vhs.Rational{Num: 0, Den: 1}); err == nil {
		t.Error("expected an error for a non-positive fps numerator")
	}
}

func TestCorrelateWithOutlierTrimRemovesOutlier(t *testing.T) {
	video, audio := syntheticDetections(50, 0, vhs.FpsPAL)
	// Inject one offset detection: half a frame period (960 samples) late,
	// far from every other match yet still between ids 24 and 26 in sample
	// order, so the sequential matcher still pairs it with video id 25.
	audio[25].SamplePosition += 960

	withOutlier, err := Correlate(video, audio, sampleRate, vhs.FpsPAL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	trimmed, err := CorrelateWithOutlierTrim(video, audio, sampleRate, vhs.FpsPAL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trimmed.OutliersTrimmed == 0 {
		t.Fatal("expected at least one outlier trimmed")
	}
	if trimmed.MatchCount != withOutlier.MatchCount-trimmed.OutliersTrimmed {
		t.Errorf("match count %d inconsistent with trimmed count %d out of %d", trimmed.MatchCount, trimmed.OutliersTrimmed, withOutlier.MatchCount)
	}
	if trimmed.StdDev >= withOutlier.StdDev {
		t.Errorf("expected trimmed std dev (%v) to be lower than untrimmed (%v)", trimmed.StdDev, withOutlier.StdDev)
	}
}
