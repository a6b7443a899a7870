package ffmpeg

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestPGM(t *testing.T, width, height int, fill func(x, y int) byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.pgm")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	if _, err := f.WriteString("P5\n# comment line\n"); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if _, err := f.WriteString("4 3\n255\n"); err != nil {
		t.Fatalf("write dims: %v", err)
	}
	pix := make([]byte, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pix[y*width+x] = fill(x, y)
		}
	}
	if _, err := f.Write(pix); err != nil {
		t.Fatalf("write pixels: %v", err)
	}
	return path
}

func TestReadPGMRoundTrip(t *testing.T) {
	path := writeTestPGM(t, 4, 3, func(x, y int) byte {
		return byte((x + y*4) * 10)
	})

	img, err := ReadPGM(path)
	if err != nil {
		t.Fatalf("ReadPGM failed: %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Fatalf("got dimensions %dx%d, want 4x3", img.Bounds().Dx(), img.Bounds().Dy())
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			want := byte((x + y*4) * 10)
			got := img.GrayAt(x, y).Y
			if got != want {
				t.Errorf("pixel (%d,%d): got %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestReadPGMRejectsWrongMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.pgm")
	if err := os.WriteFile(path, []byte("P6\n4 3\n255\n\x00\x00\x00"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadPGM(path); err == nil {
		t.Error("expected error for non-P5 magic")
	}
}

func TestReadPGMRejectsNonByteMaxVal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad16.pgm")
	if err := os.WriteFile(path, []byte("P5\n2 2\n65535\n\x00\x00\x00\x00\x00\x00\x00\x00"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadPGM(path); err == nil {
		t.Error("expected error for maxval != 255")
	}
}

func TestReadPGMNonExistent(t *testing.T) {
	if _, err := ReadPGM("nonexistent.pgm"); err == nil {
		t.Error("expected error for missing file")
	}
}
