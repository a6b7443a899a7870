package framecodec

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/vhs-sync/timecode/pkg/vhs"
	"github.com/vhs-sync/timecode/pkg/vhs/bitcodec"
)

func TestComputeChecksumBoundaryIDs(t *testing.T) {
	ids := []uint32{0, 1, 1<<24 - 1, 12345}
	for _, id := range ids {
		cs := ComputeChecksum(id)
		bits := frameBits(id, cs)
		gotID, gotCS := bitsToFrame(bits)
		if gotID != id || gotCS != cs {
			t.Errorf("id=%d: round trip through frameBits/bitsToFrame got id=%d cs=%d, want id=%d cs=%d", id, gotID, gotCS, id, cs)
		}
	}
}

func TestComputeChecksumDeterministic(t *testing.T) {
	if ComputeChecksum(12345) != ComputeChecksum(12345) {
		t.Error("checksum is not deterministic")
	}
	if ComputeChecksum(1) == ComputeChecksum(2) {
		t.Error("expected distinct frame ids to usually produce distinct checksums")
	}
}

func TestAudioEncodeDecodeRoundTripStrict(t *testing.T) {
	const sampleRate = 48000
	const frameBlockSamples = 1600 // 48000/30

	ids := []uint32{0, 1, 42, 1<<24 - 1}
	for _, id := range ids {
		samples, _ := EncodeFrameAudio(id, frameBlockSamples, sampleRate, 0)
		detections, err := DecodeAudioTimecodes(samples, sampleRate, frameBlockSamples, Strict)
		if err != nil {
			t.Fatalf("id=%d: unexpected error: %v", id, err)
		}
		if len(detections) != 1 {
			t.Fatalf("id=%d: expected exactly 1 detection, got %d", id, len(detections))
		}
		if detections[0].FrameID != id {
			t.Errorf("id=%d: decoded frame id %d", id, detections[0].FrameID)
		}
	}
}

func TestAudioEncodeDecodeRoundTripMultiFrameStrict(t *testing.T) {
	const sampleRate = 48000
	const frameBlockSamples = 1600

	var all []float64
	phase := 0.0
	wantIDs := []uint32{100, 101, 102, 103}
	for _, id := range wantIDs {
		var samples []float64
		samples, phase = EncodeFrameAudio(id, frameBlockSamples, sampleRate, phase)
		all = append(all, samples...)
	}

	detections, err := DecodeAudioTimecodes(all, sampleRate, frameBlockSamples, Strict)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(detections) != len(wantIDs) {
		t.Fatalf("expected %d detections, got %d", len(wantIDs), len(detections))
	}
	for i, d := range detections {
		if d.FrameID != wantIDs[i] {
			t.Errorf("detection %d: got frame id %d, want %d", i, d.FrameID, wantIDs[i])
		}
	}
}

func TestAudioDecodeToleratesSubFrameShift(t *testing.T) {
	const sampleRate = 48000
	const frameBlockSamples = 1600

	samples, _ := EncodeFrameAudio(77, frameBlockSamples, sampleRate, 0)
	// bitSamples = 1600/32 = 50, slideStep = 50/SlideDivisor (default 8) = 6;
	// pick a shift that lands exactly on a slide-search offset so this
	// exercises the search itself rather than its sub-sample tolerance.
	shift := 96
	padded := make([]float64, shift+len(samples))
	copy(padded[shift:], samples)

	strictDetections, err := DecodeAudioTimecodes(padded, sampleRate, frameBlockSamples, Strict)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(strictDetections) != 0 {
		t.Fatalf("expected strict mode to miss a shifted frame, got %d detections", len(strictDetections))
	}

	tolerant, err := DecodeAudioTimecodes(padded, sampleRate, frameBlockSamples, Tolerant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tolerant) != 1 {
		t.Fatalf("expected tolerant mode to find exactly 1 detection, got %d", len(tolerant))
	}
	if tolerant[0].FrameID != 77 {
		t.Errorf("got frame id %d, want 77", tolerant[0].FrameID)
	}
}

func TestAudioDecodeEmptyInput(t *testing.T) {
	detections, err := DecodeAudioTimecodes(nil, 48000, 1600, Strict)
	if err != nil {
		t.Errorf("expected empty input in strict mode to be a normal zero result, got error: %v", err)
	}
	if detections != nil {
		t.Errorf("expected nil detections for empty input, got %v", detections)
	}
}

func TestAudioDecodeMalformedInput(t *testing.T) {
	if _, err := DecodeAudioTimecodes([]float64{1, 2, 3}, 48000, 0, Strict); err == nil {
		t.Error("expected an error for a non-positive frame block size")
	}
	if _, err := DecodeAudioTimecodes([]float64{1, 2, 3}, 0, 1600, Strict); err == nil {
		t.Error("expected an error for a non-positive sample rate")
	}
	if _, err := DecodeAudioTimecodes(nil, 48000, 1600, Tolerant); err == nil {
		t.Error("expected an error for a tolerant decode over an empty buffer")
	}
}

// TestAudioDecodeRejectsSingleBitCorruption re-renders the middle bit of
// frame 200's encoded block with the opposite symbol, corrupting exactly
// one bit. Strict decode must then drop frame 200 on a checksum mismatch
// while leaving its neighbors 199 and 201 untouched, and must not report
// any detection for the corrupted block under a different frame id.
func TestAudioDecodeRejectsSingleBitCorruption(t *testing.T) {
	const sampleRate = 48000
	const frameBlockSamples = 1600

	ids := []uint32{199, 200, 201}
	offsets := make(map[uint32]int, len(ids))
	var all []float64
	phase := 0.0
	for _, id := range ids {
		offsets[id] = len(all)
		samples, newPhase := EncodeFrameAudio(id, frameBlockSamples, sampleRate, phase)
		phase = newPhase
		all = append(all, samples...)
	}

	bits := frameBits(200, ComputeChecksum(200))
	const bitIndex = 16 // the middle of the 32-bit record
	flipped := vhs.BitSymbol(1 - bits[bitIndex])
	samplesPerBitExact := float64(frameBlockSamples) / 32.0
	bitStart := int(math.Round(float64(bitIndex) * samplesPerBitExact))
	bitEnd := int(math.Round(float64(bitIndex+1) * samplesPerBitExact))
	corrupt, _ := bitcodec.EncodeBit(flipped, bitEnd-bitStart, sampleRate, 0)
	frame200Start := offsets[200]
	copy(all[frame200Start+bitStart:frame200Start+bitEnd], corrupt)

	detections, err := DecodeAudioTimecodes(all, sampleRate, frameBlockSamples, Strict)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	present := map[uint32]bool{}
	for _, d := range detections {
		present[d.FrameID] = true
		if d.FrameID == 200 {
			t.Errorf("expected frame 200 to fail checksum validation after the bit flip, got detection %+v", d)
		}
		if d.FrameID != 199 && d.FrameID != 200 && d.FrameID != 201 {
			t.Errorf("unexpected spurious detection in the corrupted window: %+v", d)
		}
	}
	if !present[199] {
		t.Error("expected frame 199 to still decode after its neighbor's corruption")
	}
	if !present[201] {
		t.Error("expected frame 201 to still decode after its neighbor's corruption")
	}
}

func TestVideoEncodeDecodeRoundTrip(t *testing.T) {
	ids := []uint32{0, 1, 1<<24 - 1, 999999}
	for _, id := range ids {
		frame := image.NewGray(image.Rect(0, 0, 720, 480))
		EncodeFrameVideo(frame, id)
		gotID, conf, ok := DecodeSingleFrameVisual(frame)
		if !ok {
			t.Fatalf("id=%d: expected decode to succeed", id)
		}
		if gotID != id {
			t.Errorf("id=%d: decoded %d", id, gotID)
		}
		if conf != 0.90 {
			t.Errorf("id=%d: expected confidence 0.90, got %v", id, conf)
		}
	}
}

func TestVideoDecodeRejectsCorruptedStrip(t *testing.T) {
	frame := image.NewGray(image.Rect(0, 0, 720, 480))
	EncodeFrameVideo(frame, 555)

	// Flip the first block's pixels, which should invalidate the checksum.
	x0, x1 := blockBounds(0, 720)
	for y := 0; y < stripRows; y++ {
		for x := x0; x < x1; x++ {
			v := frame.GrayAt(x, y).Y
			frame.SetGray(x, y, color.Gray{Y: 255 - v})
		}
	}

	_, _, ok := DecodeSingleFrameVisual(frame)
	if ok {
		t.Error("expected corrupted strip to fail checksum validation")
	}
}

func TestVideoDecodeTooNarrowFrame(t *testing.T) {
	frame := image.NewGray(image.Rect(0, 0, 2*sideMargin, 480))
	_, _, ok := DecodeSingleFrameVisual(frame)
	if ok {
		t.Error("expected a frame narrower than the margins to fail decode")
	}
}

func TestDecodeVideoTimecodesSequence(t *testing.T) {
	var frames []*image.Gray
	ids := []uint32{10, 11, 12}
	for _, id := range ids {
		frame := image.NewGray(image.Rect(0, 0, 720, 480))
		EncodeFrameVideo(frame, id)
		frames = append(frames, frame)
	}

	detections, err := DecodeVideoTimecodes(frames, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(detections) != len(ids) {
		t.Fatalf("expected %d detections, got %d", len(ids), len(detections))
	}
	for i, d := range detections {
		if d.FrameID != ids[i] {
			t.Errorf("detection %d: got frame id %d, want %d", i, d.FrameID, ids[i])
		}
		if d.VideoFrameIndex != 1000+uint64(i) {
			t.Errorf("detection %d: got video frame index %d, want %d", i, d.VideoFrameIndex, 1000+uint64(i))
		}
	}
}

func TestDecodeVideoTimecodesRejectsInconsistentDimensions(t *testing.T) {
	frames := []*image.Gray{
		image.NewGray(image.Rect(0, 0, 720, 480)),
		image.NewGray(image.Rect(0, 0, 640, 480)),
	}
	if _, err := DecodeVideoTimecodes(frames, 0); err == nil {
		t.Error("expected an error for a frame sequence with inconsistent dimensions")
	}
}

func TestDecodeVideoTimecodesRejectsNilFrame(t *testing.T) {
	frames := []*image.Gray{image.NewGray(image.Rect(0, 0, 720, 480)), nil}
	if _, err := DecodeVideoTimecodes(frames, 0); err == nil {
		t.Error("expected an error for a nil frame")
	}
}
