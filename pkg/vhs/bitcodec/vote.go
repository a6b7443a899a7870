package bitcodec

import "github.com/vhs-sync/timecode/pkg/vhs"

// vote implements the weighted-vote rule:
//  1. discard methods with no decision
//  2. sum weights per classified symbol
//  3. the winning symbol has the greater total weight
//  4. on an exact tie, use the decision of the single highest-confidence method
//  5. returned confidence is the weight-weighted mean of the winning methods
//  6. if zero methods decided, return nil
func vote(results []methodResult) *vhs.DecodedBit {
	var weightZero, weightOne float64
	var confSumZero, confSumOne float64
	any := false

	for _, r := range results {
		if !r.ok {
			continue
		}
		any = true
		if r.symbol == vhs.Zero {
			weightZero += r.weight
			confSumZero += r.weight * r.confidence
		} else {
			weightOne += r.weight
			confSumOne += r.weight * r.confidence
		}
	}
	if !any {
		return nil
	}

	if weightZero == weightOne {
		return tieBreak(results)
	}

	if weightZero > weightOne {
		return &vhs.DecodedBit{Symbol: vhs.Zero, Confidence: safeMean(confSumZero, weightZero)}
	}
	return &vhs.DecodedBit{Symbol: vhs.One, Confidence: safeMean(confSumOne, weightOne)}
}

// tieBreak picks the decision of the single method with the highest
// confidence among those that produced one.
func tieBreak(results []methodResult) *vhs.DecodedBit {
	best := -1
	for i, r := range results {
		if !r.ok {
			continue
		}
		if best < 0 || r.confidence > results[best].confidence {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	return &vhs.DecodedBit{Symbol: results[best].symbol, Confidence: results[best].confidence}
}

func safeMean(sum, weight float64) float64 {
	if weight == 0 {
		return 0
	}
	return sum / weight
}
