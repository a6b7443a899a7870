package ffmpeg

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"
)

// ReadPGM decodes a binary (P5) grayscale PGM file, the format
// ExtractGrayFrames writes, into an *image.Gray. Neither the standard
// library's image package nor anything in this module's dependency set
// decodes PGM, so this is a small, self-contained parser rather than a
// general-purpose image codec.
func ReadPGM(path string) (*image.Gray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)

	magic, err := readToken(r)
	if err != nil {
		return nil, err
	}
	if magic != "P5" {
		return nil, fmt.Errorf("not a binary PGM file (magic %q)", magic)
	}

	width, err := readIntToken(r)
	if err != nil {
		return nil, err
	}
	height, err := readIntToken(r)
	if err != nil {
		return nil, err
	}
	maxVal, err := readIntToken(r)
	if err != nil {
		return nil, err
	}
	if maxVal != 255 {
		return nil, fmt.Errorf("unsupported PGM maxval %d: only 255 (8-bit) supported", maxVal)
	}

	img := image.NewGray(image.Rect(0, 0, width, height))
	if _, err := io.ReadFull(r, img.Pix); err != nil {
		return nil, fmt.Errorf("reading PGM pixel data: %w", err)
	}
	return img, nil
}

// readToken skips leading whitespace and comments (lines starting with #)
// then reads one whitespace-delimited token.
func readToken(r *bufio.Reader) (string, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '#' {
			if _, err := r.ReadString('\n'); err != nil {
				return "", err
			}
			continue
		}
		if isSpace(b) {
			continue
		}
		var token []byte
		token = append(token, b)
		for {
			b, err := r.ReadByte()
			if err != nil || isSpace(b) {
				return string(token), nil
			}
			token = append(token, b)
		}
	}
}

func readIntToken(r *bufio.Reader) (int, error) {
	tok, err := readToken(r)
	if err != nil {
		return 0, err
	}
	var n int
	for _, c := range tok {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("expected integer, got %q", tok)
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
