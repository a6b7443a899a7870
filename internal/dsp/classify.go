package dsp

// FreqRange is an inclusive [Low, High] frequency band in Hz.
type FreqRange struct{ Low, High float64 }

// Zero classifies to [650, 950] Hz, One to [1350, 1850] Hz, with a 400 Hz
// guard band between them. Frequencies outside either range are a
// no-decision.
var (
	ZeroRange = FreqRange{650, 950}
	OneRange  = FreqRange{1350, 1850}
)

func (r FreqRange) Contains(freq float64) bool { return freq >= r.Low && freq <= r.High }

// ClassifyFrequency maps a measured frequency to a bit symbol. ok is false
// if freq falls in the guard band or outside both ranges.
func ClassifyFrequency(freq float64) (symbol int, ok bool) {
	switch {
	case ZeroRange.Contains(freq):
		return 0, true
	case OneRange.Contains(freq):
		return 1, true
	default:
		return 0, false
	}
}

// ToneFrequency returns the nominal FSK tone for a bit symbol (0 -> 800Hz, 1 -> 1600Hz).
func ToneFrequency(symbol int) float64 {
	if symbol == 1 {
		return 1600
	}
	return 800
}
