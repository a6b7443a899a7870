// Package pattern emits the synchronised audio+video test stream, a
// repeating 4-phase cycle (TestChart, PreSilence, Timecode, PostSilence),
// that the rest of the core locks onto and decodes.
package pattern

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/vhs-sync/timecode/pkg/vhs"
	"github.com/vhs-sync/timecode/pkg/vhs/framecodec"
)

const (
	testChartToneHz    = 1000.0
	testChartAmplitude = 0.6
)

// AudioBlock is one contiguous run of samples handed to the caller's audio
// callback, tagged with the absolute sample offset it starts at so callers
// can splice phases back together without re-deriving timing themselves.
type AudioBlock struct {
	StartSample uint64
	Samples     []float64
}

// VideoFrame is one pixel buffer handed to the caller's video callback,
// tagged with its absolute frame index within the whole stream.
type VideoFrame struct {
	Index uint64
	Image *image.Gray
}

// AudioOutFunc receives one phase's worth of audio, already split into
// per-frame blocks so frame-exact boundaries are visible to the caller.
type AudioOutFunc func(AudioBlock)

// VideoFrameOutFunc receives one rendered frame.
type VideoFrameOutFunc func(VideoFrame)

// GenerateCycle drives audioOut/videoOut with the sample blocks and frame
// pixel buffers for cycle number cycleIndex (0-based), honouring
// params.Fps/params.AudioSampleRate/params.VideoHeight and the given phase
// lengths. It does not mux or write files; callers compose cycles into
// files via an external muxer.
//
// Each phase's oscillator (the TestChart tone, the Timecode FSK carrier)
// starts at phase zero: the silence either side of the Timecode phase
// means no cross-cycle or cross-phase continuity is observable, so nothing
// needs to be threaded in or out of this call.
func GenerateCycle(params vhs.FormatParameters, cycleIndex uint64, lengths vhs.PhaseLengths, audioOut AudioOutFunc, videoOut VideoFrameOutFunc) {
	cycleFrames := uint64(lengths.TotalFrames())
	firstFrame := cycleIndex * cycleFrames
	samplesPerFrameExact := params.SamplesPerFrameExact()
	firstSample := frameStartSample(0, firstFrame, samplesPerFrameExact)

	frameIndex := firstFrame
	sampleCursor := firstSample

	emitTestChart(params, lengths.TestChartFrames, &frameIndex, &sampleCursor, samplesPerFrameExact, audioOut, videoOut)
	emitSilencePhase(params, vhs.PreSilence, lengths.PreSilenceFrames, &frameIndex, &sampleCursor, samplesPerFrameExact, audioOut, videoOut)
	emitTimecode(params, lengths.TimecodeFrames, &frameIndex, &sampleCursor, samplesPerFrameExact, audioOut, videoOut)
	emitSilencePhase(params, vhs.PostSilence, lengths.PostSilenceFrames, &frameIndex, &sampleCursor, samplesPerFrameExact, audioOut, videoOut)
}

// frameStartSample never truncates samples_per_frame to an integer and
// multiplies; it always rounds each
// frame's start independently from the section's absolute start sample.
func frameStartSample(sectionStartSample, frameOffset uint64, samplesPerFrameExact float64) uint64 {
	return sectionStartSample + uint64(math.Round(float64(frameOffset)*samplesPerFrameExact))
}

func emitTestChart(params vhs.FormatParameters, frames int, frameIndex, sampleCursor *uint64, samplesPerFrameExact float64, audioOut AudioOutFunc, videoOut VideoFrameOutFunc) {
	phase := 0.0
	phaseStartFrame := *frameIndex
	phaseStartSample := *sampleCursor

	chart := renderTestChart(params)

	for k := 0; k < frames; k++ {
		start := frameStartSample(phaseStartSample, uint64(k), samplesPerFrameExact)
		end := frameStartSample(phaseStartSample, uint64(k+1), samplesPerFrameExact)
		n := int(end - start)

		samples := make([]float64, n)
		for i := range samples {
			samples[i] = testChartAmplitude * math.Sin(phase)
			phase += 2 * math.Pi * testChartToneHz / float64(params.AudioSampleRate)
		}
		audioOut(AudioBlock{StartSample: start, Samples: samples})
		videoOut(VideoFrame{Index: phaseStartFrame + uint64(k), Image: chart})
	}

	*frameIndex = phaseStartFrame + uint64(frames)
	*sampleCursor = frameStartSample(phaseStartSample, uint64(frames), samplesPerFrameExact)
}

func emitSilencePhase(params vhs.FormatParameters, cyclePhase vhs.CyclePhase, frames int, frameIndex, sampleCursor *uint64, samplesPerFrameExact float64, audioOut AudioOutFunc, videoOut VideoFrameOutFunc) {
	phaseStartFrame := *frameIndex
	phaseStartSample := *sampleCursor
	blackFrame := image.NewGray(image.Rect(0, 0, params.VideoWidth, params.VideoHeight))

	for k := 0; k < frames; k++ {
		start := frameStartSample(phaseStartSample, uint64(k), samplesPerFrameExact)
		end := frameStartSample(phaseStartSample, uint64(k+1), samplesPerFrameExact)
		n := int(end - start)

		audioOut(AudioBlock{StartSample: start, Samples: make([]float64, n)})
		videoOut(VideoFrame{Index: phaseStartFrame + uint64(k), Image: blackFrame})
	}

	*frameIndex = phaseStartFrame + uint64(frames)
	*sampleCursor = frameStartSample(phaseStartSample, uint64(frames), samplesPerFrameExact)
}

// emitTimecode renders the Timecode phase: frame k (0-based from the phase
// start) carries frame id k in both the FSK audio and the visual binary
// strip. The FSK carrier's phase is
// threaded continuously from one frame's block to the next so the tone
// never clicks at a frame boundary.
func emitTimecode(params vhs.FormatParameters, frames int, frameIndex, sampleCursor *uint64, samplesPerFrameExact float64, audioOut AudioOutFunc, videoOut VideoFrameOutFunc) {
	phaseStartFrame := *frameIndex
	phaseStartSample := *sampleCursor
	phase := 0.0

	for k := 0; k < frames; k++ {
		start := frameStartSample(phaseStartSample, uint64(k), samplesPerFrameExact)
		end := frameStartSample(phaseStartSample, uint64(k+1), samplesPerFrameExact)
		n := int(end - start)

		samples, newPhase := framecodec.EncodeFrameAudio(uint32(k), n, params.AudioSampleRate, phase)
		phase = newPhase
		audioOut(AudioBlock{StartSample: start, Samples: samples})

		frame := image.NewGray(image.Rect(0, 0, params.VideoWidth, params.VideoHeight))
		framecodec.EncodeFrameVideo(frame, uint32(k))
		videoOut(VideoFrame{Index: phaseStartFrame + uint64(k), Image: frame})
	}

	*frameIndex = phaseStartFrame + uint64(frames)
	*sampleCursor = frameStartSample(phaseStartSample, uint64(frames), samplesPerFrameExact)
}

// renderTestChart is a fixed flat mid-grey field. The generator's job is
// to present a stable, easily distinguished-from-black image; content
// beyond that (bars, burst patterns) is outside this package's scope.
func renderTestChart(params vhs.FormatParameters) *image.Gray {
	frame := image.NewGray(image.Rect(0, 0, params.VideoWidth, params.VideoHeight))
	for y := 0; y < params.VideoHeight; y++ {
		for x := 0; x < params.VideoWidth; x++ {
			frame.SetGray(x, y, color.Gray{Y: 128})
		}
	}
	return frame
}

// FrameLabel is the decimal HH:MM:SS:FF overlay a Timecode-phase frame may
// carry alongside its binary strip, for human-readable capture review.
type FrameLabel struct {
	Timecode    string
	FrameNumber uint32
}

// LabelForFrame renders frameNumber's timecode string at the given nominal
// frame rate (25 for PAL, 30 for NTSC display rate, matching the
// generator's own HH:MM:SS:FF convention).
func LabelForFrame(frameNumber uint32, nominalFps int) FrameLabel {
	totalSeconds := int64(frameNumber) / int64(nominalFps)
	frameRemainder := int64(frameNumber) % int64(nominalFps)
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	return FrameLabel{
		Timecode:    fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frameRemainder),
		FrameNumber: frameNumber,
	}
}

// Metadata is the JSON-serialisable description of a generated stream,
// mirroring the sidecar metadata file the original generator writes
// alongside its video output so downstream tooling (or a human) can verify
// what parameters produced a given capture.
type Metadata struct {
	FormatType      string  `json:"format_type"`
	Fps             float64 `json:"fps"`
	VideoWidth      int     `json:"video_width"`
	VideoHeight     int     `json:"video_height"`
	AudioSampleRate int     `json:"audio_sample_rate"`
	CycleCount      int     `json:"cycle_count"`
	PhaseLengths    struct {
		TestChartFrames  int `json:"test_chart_frames"`
		PreSilenceFrames int `json:"pre_silence_frames"`
		TimecodeFrames   int `json:"timecode_frames"`
		PostSilenceFrames int `json:"post_silence_frames"`
	} `json:"phase_lengths"`
}

// BuildMetadata assembles a Metadata record for the given parameters.
func BuildMetadata(params vhs.FormatParameters, lengths vhs.PhaseLengths, cycleCount int, formatType string) Metadata {
	m := Metadata{
		FormatType:      formatType,
		Fps:             params.Fps.Float(),
		VideoWidth:      params.VideoWidth,
		VideoHeight:     params.VideoHeight,
		AudioSampleRate: params.AudioSampleRate,
		CycleCount:      cycleCount,
	}
	m.PhaseLengths.TestChartFrames = lengths.TestChartFrames
	m.PhaseLengths.PreSilenceFrames = lengths.PreSilenceFrames
	m.PhaseLengths.TimecodeFrames = lengths.TimecodeFrames
	m.PhaseLengths.PostSilenceFrames = lengths.PostSilenceFrames
	return m
}
