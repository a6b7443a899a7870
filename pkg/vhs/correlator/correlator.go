// Package correlator resolves the timing offset between a video-timecode
// sequence and an audio-timecode sequence detected from the same capture.
package correlator

import (
	"math"
	"sort"

	"github.com/vhs-sync/timecode/pkg/vhs"
)

// Correlate pairs video and audio detections by frame id, sequentially and
// in temporal order: the k-th occurrence of id X in video pairs with the
// k-th occurrence of id X in audio. This is deliberately O(|V| + |A|), not
// an exhaustive cross product, because ids repeat across cycles and an
// exhaustive match would produce spurious cross-cycle pairings.
//
// video and audio need not be pre-sorted; Correlate sorts its own copies
// before matching.
//
// Returns a MalformedInput error if sampleRate or fps is non-positive,
// since either would turn every offset computation into a division by
// zero.
func Correlate(video, audio []vhs.TimecodeDetection, sampleRate int, fps vhs.Rational) (vhs.OffsetReport, error) {
	if sampleRate <= 0 || fps.Num <= 0 || fps.Den <= 0 {
		return vhs.OffsetReport{}, vhs.NewMalformedInput("non-positive sample rate or fps", map[string]any{
			"sample_rate": sampleRate, "fps_num": fps.Num, "fps_den": fps.Den,
		})
	}

	v := sortedByVideoPosition(video)
	a := sortedByAudioPosition(audio)

	var matches []vhs.OffsetMatch
	i, j := 0, 0
	fpsFloat := fps.Float()
	for i < len(v) && j < len(a) {
		switch {
		case v[i].FrameID == a[j].FrameID:
			videoTime := float64(v[i].VideoFrameIndex) / fpsFloat
			audioTime := float64(a[j].SamplePosition) / float64(sampleRate)
			matches = append(matches, vhs.OffsetMatch{
				FrameID:          v[i].FrameID,
				VideoTimeSeconds: videoTime,
				AudioTimeSeconds: audioTime,
				OffsetSeconds:    audioTime - videoTime,
				Confidence:       math.Min(v[i].Confidence, a[j].Confidence),
			})
			i++
			j++
		case v[i].FrameID < a[j].FrameID:
			i++
		default:
			j++
		}
	}

	return buildReport(matches)
}

// CorrelateWithOutlierTrim runs Correlate, then discards any match whose
// offset lies more than 3 standard deviations from the mean in a single
// pass and recomputes statistics.
func CorrelateWithOutlierTrim(video, audio []vhs.TimecodeDetection, sampleRate int, fps vhs.Rational) (vhs.OffsetReport, error) {
	report, err := Correlate(video, audio, sampleRate, fps)
	if err != nil {
		return vhs.OffsetReport{}, err
	}
	if report.MatchCount == 0 || report.StdDev == 0 {
		return report, nil
	}

	kept := make([]vhs.OffsetMatch, 0, len(report.PerMatch))
	trimmed := 0
	for _, m := range report.PerMatch {
		if math.Abs(m.OffsetSeconds-report.MeanOffset) > 3*report.StdDev {
			trimmed++
			continue
		}
		kept = append(kept, m)
	}
	if trimmed == 0 {
		return report, nil
	}

	refined, err := buildReport(kept)
	if err != nil {
		return vhs.OffsetReport{}, err
	}
	refined.OutliersTrimmed = trimmed
	return refined, nil
}

// buildReport aggregates per-match statistics. mean and stdDev are plain
// sums-of-floats over matches whose inputs were already validated by
// Correlate's parameter check, so a NaN here means the arithmetic itself
// broke an invariant, not that the caller passed bad data.
func buildReport(matches []vhs.OffsetMatch) (vhs.OffsetReport, error) {
	if len(matches) == 0 {
		return vhs.OffsetReport{}, nil
	}

	var sum, confSum, min, max float64
	min = math.Inf(1)
	max = math.Inf(-1)
	for _, m := range matches {
		sum += m.OffsetSeconds
		confSum += m.Confidence
		if m.OffsetSeconds < min {
			min = m.OffsetSeconds
		}
		if m.OffsetSeconds > max {
			max = m.OffsetSeconds
		}
	}
	mean := sum / float64(len(matches))

	var sqDiffSum float64
	for _, m := range matches {
		d := m.OffsetSeconds - mean
		sqDiffSum += d * d
	}
	stdDev := math.Sqrt(sqDiffSum / float64(len(matches)))

	if math.IsNaN(mean) || math.IsNaN(stdDev) {
		return vhs.OffsetReport{}, vhs.NewInvariantViolation("offset statistics produced NaN over validated matches", map[string]any{"match_count": len(matches)})
	}

	return vhs.OffsetReport{
		MeanOffset:     mean,
		StdDev:         stdDev,
		MinOffset:      min,
		MaxOffset:      max,
		MatchCount:     len(matches),
		MeanConfidence: confSum / float64(len(matches)),
		PerMatch:       matches,
	}, nil
}

func sortedByVideoPosition(detections []vhs.TimecodeDetection) []vhs.TimecodeDetection {
	out := make([]vhs.TimecodeDetection, len(detections))
	copy(out, detections)
	sort.SliceStable(out, func(i, j int) bool { return out[i].VideoFrameIndex < out[j].VideoFrameIndex })
	return out
}

func sortedByAudioPosition(detections []vhs.TimecodeDetection) []vhs.TimecodeDetection {
	out := make([]vhs.TimecodeDetection, len(detections))
	copy(out, detections)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SamplePosition < out[j].SamplePosition })
	return out
}
