// Package wavio reads and writes the mono float64 sample slices the core
// operates on, plus the wow/flutter jitter simulation used to exercise the
// tolerant audio decoder against mechanically-timed capture artefacts.
// This is an I/O adapter: nothing in here is part of the pure core.
package wavio

import (
	"errors"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ReadFloat64 reads a WAV file and returns mono, normalised samples in
// [-1, 1] and the sample rate. Stereo input is downmixed by averaging
// channels.
func ReadFloat64(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, 0, errors.New("not a valid WAV file")
	}

	duration, err := decoder.Duration()
	if err != nil {
		return nil, 0, err
	}
	totalSamples := int(duration.Seconds()*float64(decoder.SampleRate)+0.5) * int(decoder.NumChans)

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: int(decoder.NumChans),
			SampleRate:  int(decoder.SampleRate),
		},
		Data:           make([]int, totalSamples),
		SourceBitDepth: int(decoder.BitDepth),
	}
	n, err := decoder.PCMBuffer(buf)
	if err != nil {
		return nil, 0, err
	}
	buf.Data = buf.Data[:n]

	maxVal := float64(int(1) << (uint(decoder.BitDepth) - 1))
	channels := int(decoder.NumChans)
	switch channels {
	case 1:
		out := make([]float64, len(buf.Data))
		for i, v := range buf.Data {
			out[i] = float64(v) / maxVal
		}
		return out, int(decoder.SampleRate), nil
	case 2:
		frames := len(buf.Data) / 2
		out := make([]float64, frames)
		for i := 0; i < frames; i++ {
			l := float64(buf.Data[2*i]) / maxVal
			r := float64(buf.Data[2*i+1]) / maxVal
			out[i] = (l + r) * 0.5
		}
		return out, int(decoder.SampleRate), nil
	default:
		return nil, 0, errors.New("unsupported channel count: only mono/stereo supported")
	}
}

// WriteFloat64 writes mono samples in [-1, 1] to path as a 16-bit PCM WAV
// file at the given sample rate, clipping any sample outside range.
func WriteFloat64(path string, samples []float64, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := wav.NewEncoder(f, sampleRate, 16, 1, 1)

	ints := make([]int, len(samples))
	for i, s := range samples {
		ints[i] = int(clampInt16(s))
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:   ints,
	}
	if err := encoder.Write(buf); err != nil {
		return err
	}
	return encoder.Close()
}

func clampInt16(s float64) int16 {
	v := s * 32767.0
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// SimulateWowFlutter resamples samples by a slowly time-varying factor to
// mimic VHS mechanical tape-speed jitter: a dominant ~0.5 Hz "wow" wobble
// plus faster ~6 Hz "flutter", combined at the given depth (fractional
// speed deviation, e.g. 0.002 for 0.2%). Used only by tests and debug
// tooling exercising the Frame Codec's tolerant decode mode against
// non-exact frame boundaries — never by the core itself.
func SimulateWowFlutter(samples []float64, sampleRate int, depth float64) []float64 {
	if len(samples) == 0 {
		return nil
	}
	const wowHz = 0.5
	const flutterHz = 6.0

	out := make([]float64, 0, len(samples))
	srcPos := 0.0
	t := 0.0
	dt := 1.0 / float64(sampleRate)

	for srcPos < float64(len(samples)-1) {
		speed := 1.0 + depth*(0.7*sineAt(wowHz, t)+0.3*sineAt(flutterHz, t))
		out = append(out, lerpSample(samples, srcPos))
		srcPos += speed
		t += dt
	}
	return out
}

func sineAt(hz, t float64) float64 {
	return math.Sin(2 * math.Pi * hz * t)
}

// lerpSample linearly interpolates samples at fractional index pos.
func lerpSample(samples []float64, pos float64) float64 {
	i0 := int(pos)
	i1 := i0 + 1
	if i1 >= len(samples) {
		return samples[i0]
	}
	frac := pos - float64(i0)
	return samples[i0]*(1-frac) + samples[i1]*frac
}
