package vhs_test

import (
	"image"
	"math"
	"testing"

	"github.com/vhs-sync/timecode/internal/wavio"
	"github.com/vhs-sync/timecode/pkg/vhs"
	"github.com/vhs-sync/timecode/pkg/vhs/correlator"
	"github.com/vhs-sync/timecode/pkg/vhs/framecodec"
	"github.com/vhs-sync/timecode/pkg/vhs/locker"
	"github.com/vhs-sync/timecode/pkg/vhs/pattern"
)

// TestFullPipelineSubSampleOffset chains GenerateCycle, LockCycles, the
// Frame Codec decoders, and Correlate over one clean PAL cycle end to end.
// With no corruption or jitter anywhere in the path, the recovered mean
// offset between the video and audio timecode streams must be sub-sample:
// smaller in magnitude than one sample period.
func TestFullPipelineSubSampleOffset(t *testing.T) {
	params := vhs.PAL()
	lengths := vhs.DefaultPhaseLengthsPAL()

	var audio []float64
	var frames []*image.Gray
	pattern.GenerateCycle(params, 0, lengths, func(b pattern.AudioBlock) {
		audio = append(audio, b.Samples...)
	}, func(f pattern.VideoFrame) {
		frames = append(frames, f.Image)
	})

	regions, diag, err := locker.LockCycles(audio, params.AudioSampleRate, params.Fps, lengths, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(regions) != 1 {
		t.Fatalf("expected exactly 1 locked region, got %d (diagnostic: %v)", len(regions), diag)
	}
	region := regions[0]

	frameBlockSamples := int(math.Round(params.SamplesPerFrameExact()))
	audioSlice := audio[region.AudioSampleStart:region.AudioSampleEndExclusive]
	audioDetections, err := framecodec.DecodeAudioTimecodes(audioSlice, params.AudioSampleRate, frameBlockSamples, framecodec.Tolerant)
	if err != nil {
		t.Fatalf("unexpected error decoding audio: %v", err)
	}
	for i := range audioDetections {
		audioDetections[i].SamplePosition += region.AudioSampleStart
	}

	videoFrames := frames[region.VideoFrameStart:region.VideoFrameEndExclusive]
	videoDetections, err := framecodec.DecodeVideoTimecodes(videoFrames, region.VideoFrameStart)
	if err != nil {
		t.Fatalf("unexpected error decoding video: %v", err)
	}

	report, err := correlator.Correlate(videoDetections, audioDetections, params.AudioSampleRate, params.Fps)
	if err != nil {
		t.Fatalf("unexpected error correlating: %v", err)
	}
	if report.MatchCount == 0 {
		t.Fatal("expected at least one matched pair")
	}

	samplePeriod := 1.0 / float64(params.AudioSampleRate)
	if math.Abs(report.MeanOffset) >= samplePeriod {
		t.Errorf("got mean offset %v, want |mean offset| < %v (one sample period)", report.MeanOffset, samplePeriod)
	}
}

// TestAudioDecodeToleratesWowFlutterJitter reproduces the VHS jitter
// tolerance claim: a ±0.1% time-varying resample of a clean Timecode
// phase (simulating mechanical wow/flutter) should drop strict-mode
// detection below half the frame count while tolerant-mode detection
// stays at 80% or higher, and correlating the recovered audio detections
// against the (unperturbed) video detections keeps offset std_dev under
// 5ms.
func TestAudioDecodeToleratesWowFlutterJitter(t *testing.T) {
	params := vhs.PAL()
	const frameCount = 750 // vhs.DefaultPhaseLengthsPAL().TimecodeFrames
	frameBlockSamples := int(math.Round(params.SamplesPerFrameExact()))

	var cleanAudio []float64
	var videoFrames []*image.Gray
	phase := 0.0
	for id := 0; id < frameCount; id++ {
		samples, newPhase := framecodec.EncodeFrameAudio(uint32(id), frameBlockSamples, params.AudioSampleRate, phase)
		phase = newPhase
		cleanAudio = append(cleanAudio, samples...)

		frame := image.NewGray(image.Rect(0, 0, params.VideoWidth, params.VideoHeight))
		framecodec.EncodeFrameVideo(frame, uint32(id))
		videoFrames = append(videoFrames, frame)
	}

	videoDetections, err := framecodec.DecodeVideoTimecodes(videoFrames, 0)
	if err != nil {
		t.Fatalf("unexpected error decoding video: %v", err)
	}
	if len(videoDetections) != frameCount {
		t.Fatalf("expected all %d reference video frames to decode, got %d", frameCount, len(videoDetections))
	}

	jittered := wavio.SimulateWowFlutter(cleanAudio, params.AudioSampleRate, 0.001)

	strictDetections, err := framecodec.DecodeAudioTimecodes(jittered, params.AudioSampleRate, frameBlockSamples, framecodec.Strict)
	if err != nil {
		t.Fatalf("unexpected error decoding strict: %v", err)
	}
	if got, want := float64(len(strictDetections))/float64(frameCount), 0.5; got >= want {
		t.Errorf("got strict detection ratio %v, want < %v under ±0.1%% jitter", got, want)
	}

	tolerantDetections, err := framecodec.DecodeAudioTimecodes(jittered, params.AudioSampleRate, frameBlockSamples, framecodec.Tolerant)
	if err != nil {
		t.Fatalf("unexpected error decoding tolerant: %v", err)
	}
	if got, want := float64(len(tolerantDetections))/float64(frameCount), 0.8; got < want {
		t.Errorf("got tolerant detection ratio %v, want >= %v under ±0.1%% jitter", got, want)
	}

	report, err := correlator.Correlate(videoDetections, tolerantDetections, params.AudioSampleRate, params.Fps)
	if err != nil {
		t.Fatalf("unexpected error correlating: %v", err)
	}
	if report.StdDev >= 0.005 {
		t.Errorf("got offset std_dev %v, want < 0.005s (5ms) under ±0.1%% jitter", report.StdDev)
	}
}
