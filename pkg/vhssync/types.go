package vhssync

import "github.com/vhs-sync/timecode/pkg/vhssync/store"

// RunSummary and RunDetail are the store package's run-history types,
// re-exported here so callers of Service never need to import
// pkg/vhssync/store directly.
type RunSummary = store.RunSummary
type RunDetail = store.RunDetail

// Metadata is GenerateCycles' return value: where it wrote its output plus
// the format it was generated at.
type Metadata struct {
	AudioPath  string
	FramesDir  string
	FrameCount int
	FormatType string
	Fps        float64
}
