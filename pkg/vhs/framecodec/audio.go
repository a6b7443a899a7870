package framecodec

import (
	"math"
	"sort"

	"github.com/vhs-sync/timecode/pkg/vhs"
	"github.com/vhs-sync/timecode/pkg/vhs/bitcodec"
)

// DecodeMode selects strict (frame-perfect, self-test) vs tolerant
// (captured, mechanically jittered) audio decoding.
type DecodeMode int

const (
	Strict DecodeMode = iota
	Tolerant
)

// DecodeOptions tunes the tolerant sliding-window search. SlideDivisor
// defaults to 8, so the slide step is bit_samples/SlideDivisor.
type DecodeOptions struct {
	SlideDivisor int
}

func defaultOptions() DecodeOptions { return DecodeOptions{SlideDivisor: 8} }

// EncodeFrameAudio renders one frame's 32-bit record as `blockSamples` audio
// samples. Bit boundaries within the block are derived by per-bit rounding
// from the block start, since bit width is a floating-point quantity, and
// phase carries continuously both within the frame and, via
// startPhase/returned endPhase, across frames in a contiguous section.
func EncodeFrameAudio(frameID uint32, blockSamples, sampleRate int, startPhase float64) (samples []float64, endPhase float64) {
	checksum := ComputeChecksum(frameID)
	bits := frameBits(frameID, checksum)

	samples = make([]float64, blockSamples)
	samplesPerBitExact := float64(blockSamples) / 32.0
	phase := startPhase

	for i := 0; i < 32; i++ {
		start := int(math.Round(float64(i) * samplesPerBitExact))
		end := int(math.Round(float64(i+1) * samplesPerBitExact))
		if end > blockSamples {
			end = blockSamples
		}
		if start >= end {
			continue
		}
		sym := vhs.BitSymbol(bits[i])
		bitSamples, newPhase := bitcodec.EncodeBit(sym, end-start, sampleRate, phase)
		copy(samples[start:end], bitSamples)
		phase = newPhase
	}
	return samples, phase
}

// decodeBlock attempts to decode one 32-bit frame record out of a
// frame-length block of samples, using the same per-bit boundary rounding
// rule as the encoder. Returns ok=false if any bit fails to decode or the
// checksum does not validate.
func decodeBlock(block []float64, sampleRate int) (frameID uint32, meanConfidence float64, ok bool) {
	blockSamples := len(block)
	if blockSamples < 32 {
		return 0, 0, false
	}
	samplesPerBitExact := float64(blockSamples) / 32.0

	var bits [32]int
	var confSum float64

	for i := 0; i < 32; i++ {
		start := int(math.Round(float64(i) * samplesPerBitExact))
		end := int(math.Round(float64(i+1) * samplesPerBitExact))
		if end > blockSamples {
			end = blockSamples
		}
		if start >= end {
			return 0, 0, false
		}
		decoded := bitcodec.DecodeBit(block[start:end], sampleRate)
		if decoded == nil {
			return 0, 0, false
		}
		bits[i] = int(decoded.Symbol)
		confSum += decoded.Confidence
	}

	id, checksum := bitsToFrame(bits)
	if ComputeChecksum(id) != checksum {
		return 0, 0, false
	}
	return id, confSum / 32.0, true
}

// DecodeAudioTimecodes decodes the Timecode-phase audio section in
// `samples` into a sequence of checksum-valid frame detections.
// `frameBlockSamples` is round(samples_per_frame), i.e. the block size one
// encoded frame occupies.
//
// In Strict mode, only exact frame-aligned boundaries are tried; a frame
// is reported only if all 32 bits decode and the checksum passes.
//
// In Tolerant mode, the exact boundaries are tried first, then a sliding
// family of offsets at step = bit_samples/SlideDivisor is evaluated across
// the whole buffer; any offset producing a checksum-valid frame is a
// candidate. Duplicate detections for the same frame id within one
// frame-length of each other are merged, keeping the highest confidence
// one, since VHS mechanical jitter shifts effective sample timing by
// fractions of a frame.
//
// Returns a MalformedInput error if frameBlockSamples or sampleRate is
// non-positive, or if mode is Tolerant over an empty buffer (the sliding
// search has nothing to slide over). An empty buffer in Strict mode is not
// malformed, it just yields zero detections.
func DecodeAudioTimecodes(samples []float64, sampleRate int, frameBlockSamples int, mode DecodeMode, opts ...DecodeOptions) ([]vhs.TimecodeDetection, error) {
	if frameBlockSamples <= 0 || sampleRate <= 0 {
		return nil, vhs.NewMalformedInput("non-positive frame block size or sample rate", map[string]any{
			"frame_block_samples": frameBlockSamples,
			"sample_rate":         sampleRate,
		})
	}
	if len(samples) == 0 {
		if mode == Tolerant {
			return nil, vhs.NewMalformedInput("tolerant decode requires a non-empty buffer", nil)
		}
		return nil, nil
	}
	options := defaultOptions()
	if len(opts) > 0 {
		options = opts[0]
	}

	var detections []vhs.TimecodeDetection

	// Exact frame-aligned boundaries, always tried.
	for start := 0; start+frameBlockSamples <= len(samples); start += frameBlockSamples {
		block := samples[start : start+frameBlockSamples]
		if id, conf, ok := decodeBlock(block, sampleRate); ok {
			detections = append(detections, vhs.TimecodeDetection{
				SamplePosition: uint64(start),
				FrameID:        id,
				Confidence:     conf,
			})
		}
	}

	if mode == Tolerant {
		bitSamples := float64(frameBlockSamples) / 32.0
		slideStep := int(bitSamples / float64(options.SlideDivisor))
		if slideStep < 1 {
			slideStep = 1
		}
		for start := 0; start+frameBlockSamples <= len(samples); start += slideStep {
			block := samples[start : start+frameBlockSamples]
			if id, conf, ok := decodeBlock(block, sampleRate); ok {
				detections = append(detections, vhs.TimecodeDetection{
					SamplePosition: uint64(start),
					FrameID:        id,
					Confidence:     conf,
				})
			}
		}
		detections = mergeDuplicates(detections, frameBlockSamples)
	}

	sort.Slice(detections, func(i, j int) bool {
		return detections[i].SamplePosition < detections[j].SamplePosition
	})
	return detections, nil
}

// mergeDuplicates collapses detections that share a frame id and whose
// sample positions lie within one frame-length of each other, keeping the
// highest-confidence one.
func mergeDuplicates(detections []vhs.TimecodeDetection, frameBlockSamples int) []vhs.TimecodeDetection {
	sort.Slice(detections, func(i, j int) bool {
		return detections[i].SamplePosition < detections[j].SamplePosition
	})

	kept := make([]vhs.TimecodeDetection, 0, len(detections))
	for _, d := range detections {
		merged := false
		for i := range kept {
			if kept[i].FrameID != d.FrameID {
				continue
			}
			delta := int64(kept[i].SamplePosition) - int64(d.SamplePosition)
			if delta < 0 {
				delta = -delta
			}
			if delta <= int64(frameBlockSamples) {
				if d.Confidence > kept[i].Confidence {
					kept[i] = d
				}
				merged = true
				break
			}
		}
		if !merged {
			kept = append(kept, d)
		}
	}
	return kept
}
