package framecodec

import (
	"image"
	"image/color"

	"github.com/vhs-sync/timecode/pkg/vhs"
)

const (
	stripRows    = 20
	sideMargin   = 40
	numBlocks    = 32
	sampleRegion = 6 // NxN averaging window centred on each block, for decode

	cornerMinBrightness = 200 // a "marker" pixel must be at least this bright
	cornerSearchSize    = 24  // corner markers are searched within this many px of each edge
)

// blockBounds returns the horizontal [x0, x1) pixel range of the i-th of
// 32 equal-width blocks within the strip, which spans [sideMargin,
// width-sideMargin). The MSB of the frame id occupies block 0 (leftmost).
func blockBounds(i, width int) (x0, x1 int) {
	available := width - 2*sideMargin
	blockWidth := available / numBlocks
	x0 = sideMargin + i*blockWidth
	x1 = x0 + blockWidth
	if i == numBlocks-1 {
		x1 = width - sideMargin
	}
	return x0, x1
}

// EncodeFrameVideo stamps the 32-block binary strip for frameID onto the
// top `stripRows` rows of frame, excluding the outermost `sideMargin`
// pixels on each side. Block i is solid white (255) for bit=1, solid black
// (0) for bit=0, left-to-right = MSB-to-LSB of (24-bit id || 8-bit
// checksum).
func EncodeFrameVideo(frame *image.Gray, frameID uint32) {
	checksum := ComputeChecksum(frameID)
	bits := frameBits(frameID, checksum)
	bounds := frame.Bounds()
	width := bounds.Dx()

	for i := 0; i < numBlocks; i++ {
		x0, x1 := blockBounds(i, width)
		val := uint8(0)
		if bits[i] == 1 {
			val = 255
		}
		for y := bounds.Min.Y; y < bounds.Min.Y+stripRows && y < bounds.Max.Y; y++ {
			for x := bounds.Min.X + x0; x < bounds.Min.X+x1; x++ {
				frame.SetGray(x, y, color.Gray{Y: val})
			}
		}
	}
}

// DecodeSingleFrameVisual reads the 32-block binary strip out of frame,
// averaging a sampleRegion x sampleRegion window centred on each block and
// thresholding at 128. Returns ok=false if the recomputed
// checksum does not match.
func DecodeSingleFrameVisual(frame *image.Gray) (frameID uint32, confidence float64, ok bool) {
	bounds := frame.Bounds()
	width := bounds.Dx()
	if width <= 2*sideMargin || bounds.Dy() < stripRows {
		return 0, 0, false
	}

	var bits [32]int
	centreY := bounds.Min.Y + stripRows/2

	for i := 0; i < numBlocks; i++ {
		x0, x1 := blockBounds(i, width)
		centreX := bounds.Min.X + (x0+x1)/2
		avg := averageRegion(frame, centreX, centreY, sampleRegion)
		if avg >= 128 {
			bits[i] = 1
		}
	}

	id, checksum := bitsToFrame(bits)
	if ComputeChecksum(id) != checksum {
		return 0, 0, false
	}
	return id, 0.90, true
}

// averageRegion averages an nxn window of gray pixel values centred on
// (cx, cy), clamped to the image bounds.
func averageRegion(frame *image.Gray, cx, cy, n int) float64 {
	bounds := frame.Bounds()
	half := n / 2
	var sum float64
	var count int
	for y := cy - half; y < cy+half; y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		for x := cx - half; x < cx+half; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X {
				continue
			}
			sum += float64(frame.GrayAt(x, y).Y)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// DecodeFrameCorners is a fallback decode path for captures where mechanical
// VHS jitter or cropping has shifted the strip enough that the fixed
// sideMargin assumption no longer holds. It looks for a bright marker glyph
// in the frame's top-left and top-right corners only, uses them to re-derive the
// strip's actual left/right edges, and re-reads the 32-block strip within
// that corrected span. Grayscale captures carry no red/blue marker colour,
// so corners are identified purely by brightness; this trades the original
// two-colour marker scheme for one the monochrome core frame buffer can
// still express, at a lower confidence than the margin-based decode.
func DecodeFrameCorners(frame *image.Gray) (frameID uint32, confidence float64, ok bool) {
	bounds := frame.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 2*sideMargin || height < stripRows+cornerSearchSize {
		return 0, 0, false
	}

	leftX, leftOK := findCornerMarkerX(frame, bounds.Min.X, bounds.Min.X+cornerSearchSize, 1)
	rightX, rightOK := findCornerMarkerX(frame, bounds.Max.X-1, bounds.Max.X-1-cornerSearchSize, -1)
	if !leftOK || !rightOK {
		return 0, 0, false
	}

	stripLeft := leftX + sideMargin
	stripRight := rightX - sideMargin
	stripWidth := stripRight - stripLeft
	if stripWidth <= 0 {
		return 0, 0, false
	}

	var bits [32]int
	centreY := bounds.Min.Y + stripRows/2
	blockWidth := stripWidth / numBlocks

	for i := 0; i < numBlocks; i++ {
		x0 := stripLeft + i*blockWidth
		x1 := x0 + blockWidth
		if i == numBlocks-1 {
			x1 = stripRight
		}
		centreX := (x0 + x1) / 2
		avg := averageRegion(frame, centreX, centreY, sampleRegion)
		if avg >= 128 {
			bits[i] = 1
		}
	}

	id, checksum := bitsToFrame(bits)
	if ComputeChecksum(id) != checksum {
		return 0, 0, false
	}
	return id, 0.70, true
}

// findCornerMarkerX scans columns from `start` towards `limit` in `step`s,
// looking for the first column within the corner-search strip whose peak
// brightness exceeds cornerMinBrightness, taken as the marker's inner edge.
func findCornerMarkerX(frame *image.Gray, start, limit, step int) (x int, ok bool) {
	bounds := frame.Bounds()
	for x := start; (step > 0 && x < limit) || (step < 0 && x > limit); x += step {
		if x < bounds.Min.X || x >= bounds.Max.X {
			break
		}
		for y := bounds.Min.Y; y < bounds.Min.Y+cornerSearchSize && y < bounds.Max.Y; y++ {
			if frame.GrayAt(x, y).Y >= cornerMinBrightness {
				return x, true
			}
		}
	}
	return 0, false
}

// DecodeFrameOCR is an unimplemented extension point for a burned-in
// decimal timecode readout, the last-resort fallback when neither the
// margin-based strip decode nor the corner-relative one validates. A real
// implementation needs a digit template bank and a glyph-segmentation pass
// over a caller-supplied region of interest; matching templates against the
// monochrome core buffer alone, with no font/geometry parameters, would
// produce decodes no more trustworthy than a guess, so this is deliberately
// left unimplemented rather than faked. It always reports no decision and
// DecodeVideoTimecodes never calls it; callers needing OCR recovery supply
// their own template-matched reader and feed its results into the same
// vhs.TimecodeDetection stream.
func DecodeFrameOCR(frame *image.Gray) (frameID uint32, confidence float64, ok bool) {
	return 0, 0, false
}

// DecodeVideoTimecodes runs DecodeSingleFrameVisual, falling back to
// DecodeFrameCorners, over a sequence of frames, returning one detection per
// frame that decodes successfully under either path. videoFrameIndex on
// each detection is firstFrameIndex+i for the i-th element of frames.
//
// Returns a MalformedInput error if any frame is nil or its dimensions
// disagree with the first frame's; a capture with inconsistent frame sizes
// means the extraction step upstream is broken, not that this particular
// frame has no signal.
func DecodeVideoTimecodes(frames []*image.Gray, firstFrameIndex uint64) ([]vhs.TimecodeDetection, error) {
	var width, height int
	for i, frame := range frames {
		if frame == nil {
			return nil, vhs.NewMalformedInput("nil video frame", map[string]any{"index": i})
		}
		b := frame.Bounds()
		if i == 0 {
			width, height = b.Dx(), b.Dy()
			continue
		}
		if b.Dx() != width || b.Dy() != height {
			return nil, vhs.NewMalformedInput("inconsistent frame dimensions", map[string]any{
				"index": i, "want_width": width, "want_height": height, "got_width": b.Dx(), "got_height": b.Dy(),
			})
		}
	}

	var detections []vhs.TimecodeDetection
	for i, frame := range frames {
		id, conf, ok := DecodeSingleFrameVisual(frame)
		if !ok {
			id, conf, ok = DecodeFrameCorners(frame)
		}
		if !ok {
			continue
		}
		detections = append(detections, vhs.TimecodeDetection{
			VideoFrameIndex: firstFrameIndex + uint64(i),
			FrameID:         id,
			Confidence:      conf,
		})
	}
	return detections, nil
}
