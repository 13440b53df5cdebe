// Package window implements the windowing engine (spec.md §4.7): linear
// window/level mapping from stored 16-bit pixels to 8-bit display, plus
// optimal-window computation from a percentile histogram. Grounded on the
// teacher repo's pkg/dicos numeric-conversion helpers (clamp-and-scale
// loops), generalized to spec.md's exact formulas rather than the
// teacher's DICOS-specific threat-display ranges.
package window

import (
	"github.com/jpfielding/dcmvol/pkg/dcmvol/dcmerr"
)

// Apply maps pixels16 to 8-bit display values using a linear window/level:
// out[i] = clamp(0, 255, (pixels16[i] - (center - width/2)) * 255/width).
func Apply(pixels16 []uint16, center, width float64) ([]byte, error) {
	if width <= 0 || len(pixels16) == 0 {
		return nil, dcmerr.NewInvalidArgument("window width must be positive and input non-empty")
	}
	minLevel := center - width/2
	out := make([]byte, len(pixels16))
	for i, v := range pixels16 {
		val := (float64(v) - minLevel) * 255 / width
		out[i] = clampByte(val)
	}
	return out, nil
}

func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// Optimal computes a window/level from a 256-bin histogram of pixels
// spanning [min, max]: center is the midpoint between the 1st and 99th
// percentile bins, width their span (minimum 1). Degenerate input (empty or
// uniform) returns (mean, max(max-min, 1)).
func Optimal(pixels []uint16) (center, width float64) {
	if len(pixels) == 0 {
		return 0, 1
	}

	minV, maxV := pixels[0], pixels[0]
	var sum float64
	for _, v := range pixels {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
		sum += float64(v)
	}
	mean := sum / float64(len(pixels))

	if maxV == minV {
		return mean, 1
	}

	const bins = 256
	span := float64(maxV) - float64(minV)
	binWidth := span / bins

	hist := make([]int, bins)
	for _, v := range pixels {
		b := int((float64(v) - float64(minV)) / binWidth)
		if b >= bins {
			b = bins - 1
		}
		if b < 0 {
			b = 0
		}
		hist[b]++
	}

	n := len(pixels)
	threshold1 := n / 100
	threshold99 := n * 99 / 100

	var cumulative int
	var p1, p99 float64
	foundP1, foundP99 := false, false
	for b := 0; b < bins; b++ {
		cumulative += hist[b]
		mid := float64(minV) + (float64(b)+0.5)*binWidth
		if !foundP1 && cumulative >= threshold1 {
			p1 = mid
			foundP1 = true
		}
		if !foundP99 && cumulative >= threshold99 {
			p99 = mid
			foundP99 = true
			break
		}
	}
	if !foundP1 {
		p1 = float64(minV)
	}
	if !foundP99 {
		p99 = float64(maxV)
	}

	center = (p1 + p99) / 2
	width = p99 - p1
	if width < 1 {
		width = 1
	}
	return center, width
}

// ApplyBatch runs Apply across input-length-aligned slices of pixels,
// centers, and widths. A length mismatch is a contract violation, not an
// error: it yields an empty result rather than a partial one.
func ApplyBatch(pixelSets [][]uint16, centers, widths []float64) [][]byte {
	if len(pixelSets) != len(centers) || len(centers) != len(widths) {
		return nil
	}
	out := make([][]byte, len(pixelSets))
	for i := range pixelSets {
		result, err := Apply(pixelSets[i], centers[i], widths[i])
		if err != nil {
			out[i] = nil
			continue
		}
		out[i] = result
	}
	return out
}
