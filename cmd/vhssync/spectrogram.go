package main

import (
	"flag"
	"fmt"
	"image"
	"image/draw"
	"os"

	"github.com/eligwz/spectrogram"

	"github.com/vhs-sync/timecode/internal/wavio"
)

// handleSpectrogram renders a PNG spectrogram of a WAV file, for visually
// verifying FSK tone placement in a captured or generated file.
func handleSpectrogram() {
	args := flag.CommandLine.Args()
	if len(args) < 2 {
		fmt.Println("Usage: vhssync spectrogram <audio.wav> <output.png>")
		os.Exit(1)
	}
	inputPath, outputPath := args[0], args[1]

	samples, sampleRate, err := wavio.ReadFloat64(inputPath)
	if err != nil {
		fmt.Printf("Failed to read %s: %v\n", inputPath, err)
		os.Exit(1)
	}

	const width, height = 2048, 512
	img := spectrogram.NewImage128(image.Rect(0, 0, width, height))
	black := spectrogram.ParseColor("000000")
	draw.Draw(img, img.Bounds(), image.NewUniform(black), image.Point{}, draw.Src)

	spectrogram.Drawfft(
		img,
		samples,
		uint32(sampleRate),
		uint32(height),
		false, // RECTANGLE: use Hamming window
		false, // DFT: use FFT
		true,  // MAG: magnitude
		false, // LOG10: linear scale
	)

	if err := spectrogram.SavePng(img, outputPath); err != nil {
		fmt.Printf("Failed to save %s: %v\n", outputPath, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote spectrogram to %s (%d samples @ %d Hz)\n", outputPath, len(samples), sampleRate)
}
