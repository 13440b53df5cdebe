// Package seriesvalidate checks cross-slice geometric consistency for a
// candidate series (spec.md §4.8 Pass 1). Grounded on the teacher repo's
// pkg/dicos/validate.go ValidationError/ValidationResult accumulation
// pattern, repurposed from DICOM-conformance attribute checking to
// cross-slice geometry comparisons.
package seriesvalidate

import (
	"fmt"
	"math"

	"github.com/jpfielding/dcmvol/pkg/dcmvol/dcmerr"
	"github.com/jpfielding/dcmvol/pkg/dcmvol/header"
)

const orientationTolerance = 1e-4

// Mismatch is one geometric inconsistency found between a slice and the
// reference geometry captured from the first valid slice.
type Mismatch struct {
	Path string
	Kind dcmerr.InconsistentKind
	Detail string
}

func (m Mismatch) Error() string {
	return fmt.Sprintf("%s: %s: %s", m.Path, m.Kind, m.Detail)
}

// Result accumulates every mismatch found across a candidate series.
type Result struct {
	Mismatches []Mismatch
}

func (r Result) IsValid() bool { return len(r.Mismatches) == 0 }

// Reference is the geometry captured from the first valid slice, against
// which every subsequent slice is checked.
type Reference struct {
	SamplesPerPixel int
	BitDepth        int
	Width, Height   int
	PixelRepresentationSigned bool
	OrientationRow, OrientationCol [3]float64
	HasOrientation bool
}

// NewReference captures the fields of g that later slices must match.
func NewReference(g header.Geometry) Reference {
	return Reference{
		SamplesPerPixel:           g.SamplesPerPixel,
		BitDepth:                  g.BitDepth,
		Width:                     g.Width,
		Height:                    g.Height,
		PixelRepresentationSigned: g.PixelRepresentationSigned,
		OrientationRow:            g.OrientationRow,
		OrientationCol:            g.OrientationCol,
		HasOrientation:            g.HasOrientation,
	}
}

// Check compares g (from the slice at path) against ref, appending any
// mismatch to result.
func Check(result *Result, ref Reference, path string, g header.Geometry) {
	if g.SamplesPerPixel != 1 || g.BitDepth != 16 {
		result.Mismatches = append(result.Mismatches, Mismatch{
			Path: path, Kind: dcmerr.Dimensions,
			Detail: fmt.Sprintf("expected samples_per_pixel=1 bit_depth=16, got samples=%d bit_depth=%d", g.SamplesPerPixel, g.BitDepth),
		})
	}
	if g.Width != ref.Width || g.Height != ref.Height {
		result.Mismatches = append(result.Mismatches, Mismatch{
			Path: path, Kind: dcmerr.Dimensions,
			Detail: fmt.Sprintf("expected %dx%d, got %dx%d", ref.Width, ref.Height, g.Width, g.Height),
		})
	}
	if g.PixelRepresentationSigned != ref.PixelRepresentationSigned {
		result.Mismatches = append(result.Mismatches, Mismatch{
			Path: path, Kind: dcmerr.PixelRepresentation,
			Detail: "pixel_representation differs from the series reference",
		})
	}
	if ref.HasOrientation && g.HasOrientation {
		if !vectorClose(ref.OrientationRow, g.OrientationRow, orientationTolerance) ||
			!vectorClose(ref.OrientationCol, g.OrientationCol, orientationTolerance) {
			result.Mismatches = append(result.Mismatches, Mismatch{
				Path: path, Kind: dcmerr.Orientation,
				Detail: "image orientation differs from the series reference beyond tolerance",
			})
		}
	}
}

func vectorClose(a, b [3]float64, tol float64) bool {
	for i := 0; i < 3; i++ {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}
