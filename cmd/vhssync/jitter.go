package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/vhs-sync/timecode/internal/wavio"
)

// handleSimulateJitter resamples a WAV file with a small time-varying
// speed factor to mimic VHS mechanical wow/flutter, for exercising the
// tolerant audio decoder against non-exact frame boundaries.
func handleSimulateJitter() {
	args := flag.CommandLine.Args()
	if len(args) < 2 {
		fmt.Println("Usage: vhssync simulate-jitter <in.wav> <out.wav> [--depth 0.002]")
		os.Exit(1)
	}
	inputPath, outputPath := args[0], args[1]

	jitterCmd := flag.NewFlagSet("simulate-jitter", flag.ExitOnError)
	depth := jitterCmd.Float64("depth", 0.002, "fractional speed deviation")
	jitterCmd.Parse(args[2:])

	samples, sampleRate, err := wavio.ReadFloat64(inputPath)
	if err != nil {
		fmt.Printf("Failed to read %s: %v\n", inputPath, err)
		os.Exit(1)
	}

	jittered := wavio.SimulateWowFlutter(samples, sampleRate, *depth)

	if err := wavio.WriteFloat64(outputPath, jittered, sampleRate); err != nil {
		fmt.Printf("Failed to write %s: %v\n", outputPath, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d jittered samples (depth=%.4f) to %s\n", len(jittered), *depth, outputPath)
}
