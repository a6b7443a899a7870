package vhssync

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/vhs-sync/timecode/internal/ffmpeg"
	"github.com/vhs-sync/timecode/internal/wavio"
	"github.com/vhs-sync/timecode/pkg/logger"
	"github.com/vhs-sync/timecode/pkg/utils"
	"github.com/vhs-sync/timecode/pkg/vhs"
	"github.com/vhs-sync/timecode/pkg/vhs/correlator"
	"github.com/vhs-sync/timecode/pkg/vhs/framecodec"
	"github.com/vhs-sync/timecode/pkg/vhs/locker"
	"github.com/vhs-sync/timecode/pkg/vhs/pattern"
	"github.com/vhs-sync/timecode/pkg/vhssync/store"
)

// service is the default Service implementation.
type service struct {
	config *Config
	log    Logger
	store  RunStore
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	var runStore RunStore
	var err error
	if cfg.Store != nil {
		runStore = cfg.Store
	} else {
		runStore, err = store.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create run store: %w", err)
		}
	}

	return &service{config: cfg, log: cfg.Logger, store: runStore}, nil
}

// GenerateCycles renders cycleCount cycles of the configured format's
// 4-phase pattern, writing one mono WAV and a sequence of numbered PNG
// frames, driving the generator cycleCount times.
func (s *service) GenerateCycles(ctx context.Context, audioPath, framesDir string, cycleCount int) (Metadata, error) {
	s.log.Infof("Generating %d cycle(s) at %s (%s)", cycleCount, s.config.Format.Fps, audioPath)

	if err := utils.MakeDir(framesDir); err != nil {
		return Metadata{}, fmt.Errorf("creating frames directory: %w", err)
	}

	var allSamples []float64
	frameCount := 0
	var writeErr error

	for cycleIndex := 0; cycleIndex < cycleCount; cycleIndex++ {
		if err := ctx.Err(); err != nil {
			return Metadata{}, err
		}
		pattern.GenerateCycle(s.config.Format, uint64(cycleIndex), s.config.PhaseLengths,
			func(block pattern.AudioBlock) {
				allSamples = append(allSamples, block.Samples...)
			},
			func(frame pattern.VideoFrame) {
				framePath := filepath.Join(framesDir, fmt.Sprintf("frame-%08d.png", frame.Index))
				if err := writePNG(framePath, frame.Image); err != nil {
					writeErr = err
					return
				}
				frameCount++
			},
		)
	}
	if writeErr != nil {
		return Metadata{}, fmt.Errorf("writing generated frame: %w", writeErr)
	}

	if err := wavio.WriteFloat64(audioPath, allSamples, s.config.Format.AudioSampleRate); err != nil {
		return Metadata{}, fmt.Errorf("writing generated audio: %w", err)
	}

	s.log.Infof("Wrote %d samples and %d frames", len(allSamples), frameCount)

	return Metadata{
		AudioPath:  audioPath,
		FramesDir:  framesDir,
		FrameCount: frameCount,
		FormatType: formatName(s.config.Format),
		Fps:        s.config.Format.Fps.Float(),
	}, nil
}

// AnalyzeCapture locks onto each cycle's Timecode phase in audioPath and
// framePaths, decodes both detection streams within the locked bounds, and
// correlates them.
func (s *service) AnalyzeCapture(ctx context.Context, audioPath string, framePaths []string, sourceLabel string) (vhs.OffsetReport, error) {
	s.log.Infof("Analyzing capture: %s (%d frames)", audioPath, len(framePaths))

	samples, sampleRate, err := wavio.ReadFloat64(audioPath)
	if err != nil {
		return vhs.OffsetReport{}, fmt.Errorf("reading audio: %w", err)
	}

	sorted := append([]string(nil), framePaths...)
	sort.Strings(sorted)

	return s.analyze(ctx, samples, sampleRate, sorted, sourceLabel)
}

// AnalyzeFile demuxes capturePath with ffmpeg and runs AnalyzeCapture over
// the extracted audio and frames, mirroring the generator's external-muxer
// boundary on the decode side.
func (s *service) AnalyzeFile(ctx context.Context, capturePath string) (vhs.OffsetReport, error) {
	s.log.Infof("Demuxing capture file: %s", capturePath)

	workDir := filepath.Join(s.config.TempDir, fmt.Sprintf("vhssync-%s", filepath.Base(capturePath)))
	if err := utils.MakeDir(workDir); err != nil {
		return vhs.OffsetReport{}, fmt.Errorf("creating work dir: %w", err)
	}
	defer func() {
		if err := utils.DeleteDir(workDir); err != nil {
			s.log.Warnf("failed to clean up work dir %s: %v", workDir, err)
		}
	}()

	audioPath, err := ffmpeg.ExtractMonoAudio(ctx, capturePath, workDir, ffmpeg.ExtractAudioConfig{
		SampleRate: s.config.SampleRate,
	})
	if err != nil {
		return vhs.OffsetReport{}, fmt.Errorf("extracting audio: %w", err)
	}

	framesDir := filepath.Join(workDir, "frames")
	framePaths, err := ffmpeg.ExtractGrayFrames(ctx, capturePath, framesDir, ffmpeg.ExtractFramesConfig{})
	if err != nil {
		return vhs.OffsetReport{}, fmt.Errorf("extracting frames: %w", err)
	}

	return s.AnalyzeCapture(ctx, audioPath, framePaths, filepath.Base(capturePath))
}

func (s *service) analyze(ctx context.Context, samples []float64, sampleRate int, framePaths []string, sourceLabel string) (vhs.OffsetReport, error) {
	if err := ctx.Err(); err != nil {
		return vhs.OffsetReport{}, err
	}

	regions, diag, err := locker.LockCycles(samples, sampleRate, s.config.Format.Fps, s.config.PhaseLengths, false)
	if err != nil {
		return vhs.OffsetReport{}, fmt.Errorf("locking cycles: %w", err)
	}
	if diag.Kind == vhs.NoSignal {
		s.log.Warnf("no cycle lock found: %s", diag.Reason)
		return vhs.OffsetReport{}, nil
	}
	s.log.Infof("Locked %d cycle(s)", len(regions))

	frameBlockSamples := int(math.Round(s.config.Format.SamplesPerFrameExact()))

	var audioDetections, videoDetections []vhs.TimecodeDetection
	for _, region := range regions {
		audioSlice := samples[region.AudioSampleStart:region.AudioSampleEndExclusive]
		audioDecoded, err := framecodec.DecodeAudioTimecodes(audioSlice, sampleRate, frameBlockSamples, framecodec.Tolerant)
		if err != nil {
			return vhs.OffsetReport{}, fmt.Errorf("decoding audio timecodes: %w", err)
		}
		for _, d := range audioDecoded {
			d.SamplePosition += region.AudioSampleStart
			audioDetections = append(audioDetections, d)
		}

		videoFrames, err := loadFrameRange(framePaths, region.VideoFrameStart, region.VideoFrameEndExclusive)
		if err != nil {
			return vhs.OffsetReport{}, fmt.Errorf("loading video frames: %w", err)
		}
		videoDecoded, err := framecodec.DecodeVideoTimecodes(videoFrames, region.VideoFrameStart)
		if err != nil {
			return vhs.OffsetReport{}, fmt.Errorf("decoding video timecodes: %w", err)
		}
		videoDetections = append(videoDetections, videoDecoded...)
	}

	s.log.Infof("Decoded %d audio detection(s), %d video detection(s)", len(audioDetections), len(videoDetections))

	report, err := correlator.CorrelateWithOutlierTrim(videoDetections, audioDetections, sampleRate, s.config.Format.Fps)
	if err != nil {
		return vhs.OffsetReport{}, fmt.Errorf("correlating detections: %w", err)
	}

	runID, err := s.store.SaveReport(report, sourceLabel)
	if err != nil {
		s.log.Errorf("failed to persist run: %v", err)
	} else {
		s.log.Infof("Saved run %s: %d matches, mean offset %.6fs", runID, report.MatchCount, report.MeanOffset)
	}

	return report, nil
}

func (s *service) ListRuns(ctx context.Context) ([]RunSummary, error) {
	return s.store.ListRuns()
}

func (s *service) GetRun(ctx context.Context, runID string) (RunDetail, error) {
	return s.store.GetRun(runID)
}

func (s *service) Close() error {
	return s.store.Close()
}

// loadFrameRange decodes paths[start:endExclusive] as grayscale images,
// accepting either the PGM frames ffmpeg.ExtractGrayFrames produces or the
// PNG frames GenerateCycles writes.
func loadFrameRange(paths []string, start, endExclusive uint64) ([]*image.Gray, error) {
	if endExclusive > uint64(len(paths)) {
		endExclusive = uint64(len(paths))
	}
	if start >= endExclusive {
		return nil, nil
	}
	out := make([]*image.Gray, 0, endExclusive-start)
	for _, p := range paths[start:endExclusive] {
		img, err := loadGrayFrame(p)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", p, err)
		}
		out = append(out, img)
	}
	return out, nil
}

func loadGrayFrame(path string) (*image.Gray, error) {
	if filepath.Ext(path) == ".pgm" {
		return ffmpeg.ReadPGM(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	gray := image.NewGray(img.Bounds())
	for y := img.Bounds().Min.Y; y < img.Bounds().Max.Y; y++ {
		for x := img.Bounds().Min.X; x < img.Bounds().Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray, nil
}

func formatName(params vhs.FormatParameters) string {
	if params.Fps == vhs.FpsNTSC {
		return "NTSC"
	}
	return "PAL"
}

func writePNG(path string, img *image.Gray) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
