// Package vhs implements the VHS timecode codec and sync-offset correlator
// core: a frame-accurate FSK audio codec, a binary-strip video codec, the
// 4-phase test-pattern generator, the cycle locker, and the sequential
// correlator. Every type and function in this package is pure and
// synchronous; nothing here touches a file, a socket, the clock, or the
// environment.
package vhs

import "fmt"

// Rational is an exact fps representation, avoiding the float truncation
// bug that the system this codec replaces suffered from (PAL 25/1, NTSC
// 30000/1001).
type Rational struct {
	Num, Den int64
}

func (r Rational) Float() float64 { return float64(r.Num) / float64(r.Den) }

func (r Rational) String() string { return fmt.Sprintf("%d/%d", r.Num, r.Den) }

var (
	FpsPAL  = Rational{25, 1}
	FpsNTSC = Rational{30000, 1001}
)

// FormatParameters is immutable configuration shared by every component.
type FormatParameters struct {
	Fps              Rational
	VideoWidth       int
	VideoHeight      int
	AudioSampleRate  int
}

// SamplesPerFrameExact returns sample_rate / fps as an unrounded float64.
// Callers must never truncate this to an integer and multiply by a frame
// index — see GenerateCycle / LockCycles for the correct per-frame rounding
// rule.
func (p FormatParameters) SamplesPerFrameExact() float64 {
	return float64(p.AudioSampleRate) * float64(p.Fps.Den) / float64(p.Fps.Num)
}

// PAL returns the standard PAL format parameters (25fps, 720x576, 48kHz).
func PAL() FormatParameters {
	return FormatParameters{Fps: FpsPAL, VideoWidth: 720, VideoHeight: 576, AudioSampleRate: 48000}
}

// NTSC returns the standard NTSC format parameters (30000/1001 fps, 720x480, 48kHz).
func NTSC() FormatParameters {
	return FormatParameters{Fps: FpsNTSC, VideoWidth: 720, VideoHeight: 480, AudioSampleRate: 48000}
}

// BitSymbol is a logical FSK bit.
type BitSymbol int

const (
	Zero BitSymbol = iota
	One
)

func (s BitSymbol) String() string {
	if s == One {
		return "1"
	}
	return "0"
}

// BitConfidence is in [0.0, 1.0].
type BitConfidence = float64

// DecodedBit is the result of a successful bit decode. Use a *DecodedBit
// (nil on no-decision) rather than a boolean ok flag, matching the rest of
// this package's "no-decision is a normal value" error model.
type DecodedBit struct {
	Symbol     BitSymbol
	Confidence BitConfidence
}

// FrameRecord is the atomic 32-bit payload: a 24-bit frame id and its 8-bit
// checksum. Never mutated after construction.
type FrameRecord struct {
	FrameID  uint32 // 0..16_777_215 (24 bits)
	Checksum uint8
}

// TimecodeDetection is one successful, checksum-validated decode of a
// 32-bit frame record, positioned either in audio sample space or video
// frame space (exactly one of the two position fields is meaningful,
// depending on which decoder produced it).
type TimecodeDetection struct {
	SamplePosition   uint64 // valid for audio detections
	VideoFrameIndex  uint64 // valid for video detections
	FrameID          uint32
	Confidence       float64
}

// CyclePhase names one quarter of the 4-phase test-pattern cycle.
type CyclePhase int

const (
	TestChart CyclePhase = iota
	PreSilence
	Timecode
	PostSilence
)

func (p CyclePhase) String() string {
	switch p {
	case TestChart:
		return "TestChart"
	case PreSilence:
		return "PreSilence"
	case Timecode:
		return "Timecode"
	case PostSilence:
		return "PostSilence"
	default:
		return "Unknown"
	}
}

// PhaseLengths gives the frame-count duration of each of the 4 phases.
type PhaseLengths struct {
	TestChartFrames   int
	PreSilenceFrames  int
	TimecodeFrames    int
	PostSilenceFrames int
}

// TotalFrames is the length of one full cycle in frames.
func (p PhaseLengths) TotalFrames() int {
	return p.TestChartFrames + p.PreSilenceFrames + p.TimecodeFrames + p.PostSilenceFrames
}

// DefaultPhaseLengthsPAL is the standard PAL cycle: 75/25/750/25 frames.
func DefaultPhaseLengthsPAL() PhaseLengths {
	return PhaseLengths{TestChartFrames: 75, PreSilenceFrames: 25, TimecodeFrames: 750, PostSilenceFrames: 25}
}

// DefaultPhaseLengthsNTSC rounds the same wall-clock durations to the
// nearest frame at NTSC's 30000/1001 fps.
func DefaultPhaseLengthsNTSC() PhaseLengths {
	pal := DefaultPhaseLengthsPAL()
	scale := FpsNTSC.Float() / FpsPAL.Float()
	round := func(n int) int { return int(float64(n)*scale + 0.5) }
	return PhaseLengths{
		TestChartFrames:   round(pal.TestChartFrames),
		PreSilenceFrames:  round(pal.PreSilenceFrames),
		TimecodeFrames:    round(pal.TimecodeFrames),
		PostSilenceFrames: round(pal.PostSilenceFrames),
	}
}

// LockedRegion identifies the Timecode phase of one cycle within a captured
// stream: exact frame and sample boundaries.
type LockedRegion struct {
	VideoFrameStart        uint64
	VideoFrameEndExclusive uint64
	AudioSampleStart       uint64
	AudioSampleEndExclusive uint64
}

// OffsetMatch is one paired detection between video and audio sequences.
type OffsetMatch struct {
	FrameID         uint32
	VideoTimeSeconds float64
	AudioTimeSeconds float64
	OffsetSeconds    float64 // audio_time - video_time
	Confidence       float64
}

// OffsetReport is the Correlator's final output.
type OffsetReport struct {
	MeanOffset     float64
	StdDev         float64
	MinOffset      float64
	MaxOffset      float64
	MatchCount     int
	MeanConfidence float64
	PerMatch       []OffsetMatch

	// OutliersTrimmed records how many matches were discarded by the
	// optional 3-sigma refinement pass (§4.5); zero if trimming was not
	// requested or nothing was trimmed.
	OutliersTrimmed int
}
