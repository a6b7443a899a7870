// Package ffmpeg shells out to ffmpeg to pull the mono audio track and the
// frame sequence out of a muxed capture file, so the pure core never has
// to know about containers or video codecs: the core does not mux, does
// not write files, and does not encode H.264. This package covers the
// demux side only: it writes the extracted WAV and frame images to disk,
// and does no muxing or H.264 encoding.
package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/vhs-sync/timecode/pkg/utils"
)

// ExtractAudioConfig tunes ExtractMonoAudio.
type ExtractAudioConfig struct {
	SampleRate int // defaults to 48000 if zero, matching the core's default format
}

// ExtractMonoAudio demuxes inputPath's audio track to a 16-bit PCM mono WAV
// file at outputDir, via ffmpeg. The caller then loads it with
// wavio.ReadFloat64 and feeds the samples to locker.LockCycles.
func ExtractMonoAudio(ctx context.Context, inputPath, outputDir string, cfg ExtractAudioConfig) (string, error) {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 48000
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	if err := utils.MakeDir(outputDir); err != nil {
		return "", err
	}

	baseName := filepath.Base(inputPath)
	outputPath := filepath.Join(outputDir, baseName+".audio.wav")
	tmpPath := outputPath + ".tmp.wav"
	defer os.Remove(tmpPath)

	cmd := exec.CommandContext(
		ctx,
		"ffmpeg",
		"-y",
		"-v", "quiet",
		"-i", inputPath,
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", cfg.SampleRate),
		"-c:a", "pcm_s16le",
		tmpPath,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("ffmpeg audio extraction failed: %v (%s)", err, out)
	}

	if err := utils.MoveFile(tmpPath, outputPath); err != nil {
		return "", err
	}
	return outputPath, nil
}

// ExtractFramesConfig tunes ExtractGrayFrames.
type ExtractFramesConfig struct {
	StartFrame int // 0-based frame offset to start extraction from
	Count      int // number of frames to extract; 0 means all remaining
}

// ExtractGrayFrames demuxes inputPath's video track to a sequence of
// numbered PGM frames under outputDir, via ffmpeg. PGM (not PNG) is used
// because it decodes to 8-bit grayscale with no colour-space or gamma
// surprises, matching the luminance-only strip the Frame Codec reads.
func ExtractGrayFrames(ctx context.Context, inputPath, outputDir string, cfg ExtractFramesConfig) ([]string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
	}

	if err := utils.MakeDir(outputDir); err != nil {
		return nil, err
	}

	pattern := filepath.Join(outputDir, "frame-%08d.pgm")
	args := []string{"-y", "-v", "quiet", "-i", inputPath, "-pix_fmt", "gray"}
	if cfg.StartFrame > 0 {
		args = append(args, "-vf", fmt.Sprintf("select='gte(n\\,%d)'", cfg.StartFrame), "-vsync", "0")
	}
	if cfg.Count > 0 {
		args = append(args, "-frames:v", fmt.Sprintf("%d", cfg.Count))
	}
	args = append(args, pattern)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffmpeg frame extraction failed: %v (%s)", err, out)
	}

	matches, err := filepath.Glob(filepath.Join(outputDir, "frame-*.pgm"))
	if err != nil {
		return nil, err
	}
	return matches, nil
}
