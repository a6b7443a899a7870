package vhssync

import (
	"context"

	"github.com/vhs-sync/timecode/pkg/vhs"
	"github.com/vhs-sync/timecode/pkg/vhssync/store"
)

// Service is the orchestration surface the cmd/ tools drive: it wires the
// pure pkg/vhs core to real files via internal/wavio and internal/ffmpeg,
// and persists run history via a Store.
type Service interface {
	// GenerateCycles renders cycleCount consecutive cycles of the 4-phase
	// test pattern to an audio WAV file at audioPath and one numbered PNG
	// frame per video frame under framesDir, returning the metadata record
	// for the generated stream.
	GenerateCycles(ctx context.Context, audioPath, framesDir string, cycleCount int) (Metadata, error)

	// AnalyzeCapture locks onto and decodes a previously captured audio
	// file plus an ordered sequence of extracted grayscale video frames,
	// correlates the two, persists the resulting report under sourceLabel,
	// and returns it.
	AnalyzeCapture(ctx context.Context, audioPath string, framePaths []string, sourceLabel string) (vhs.OffsetReport, error)

	// AnalyzeFile demuxes a muxed capture file (audio + video) with ffmpeg
	// and then runs AnalyzeCapture over the result.
	AnalyzeFile(ctx context.Context, capturePath string) (vhs.OffsetReport, error)

	// ListRuns returns summaries of every previously persisted analysis run.
	ListRuns(ctx context.Context) ([]RunSummary, error)

	// GetRun returns one persisted run's full report by ID.
	GetRun(ctx context.Context, runID string) (RunDetail, error)

	Close() error
}

// Logger is the subset of pkg/logger's interface the orchestration layer
// depends on, so it can be swapped in tests without pulling in the real
// logger's terminal/output machinery.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}

// RunStore persists OffsetReport run history. The default implementation
// is pkg/vhssync/store's gorm/sqlite-backed Store.
type RunStore = store.Store
