package series

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jpfielding/dcmvol/internal/dicomtest"
	"github.com/jpfielding/dcmvol/pkg/dcmvol/header"
	"github.com/jpfielding/dcmvol/pkg/dcmvol/seriesvalidate"
	"github.com/stretchr/testify/require"
)

// buildSliceFile writes one 2x2, 16-bit, unsigned uncompressed slice to dir,
// carrying only SliceThickness (no SpacingBetweenSlices) and no position, so
// Load's Z-spacing reconciliation must fall back to the tag entirely.
func buildSliceFile(t *testing.T, dir, name string) string {
	t.Helper()
	b := dicomtest.New()
	b.Element(0x0002, 0x0010, "UI", dicomtest.Str("1.2.840.10008.1.2.1"))
	b.Element(0x0028, 0x0010, "US", dicomtest.US(2)) // Rows
	b.Element(0x0028, 0x0011, "US", dicomtest.US(2)) // Columns
	b.Element(0x0028, 0x0100, "US", dicomtest.US(16))
	b.Element(0x0028, 0x0002, "US", dicomtest.US(1))
	b.Element(0x0018, 0x0050, "DS", dicomtest.Str("2.5")) // SliceThickness only
	b.Element(0x7FE0, 0x0010, "OW", []byte{0, 0, 1, 0, 2, 0, 3, 0})

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, b.Bytes(), 0o644))
	return path
}

func refWithOrientation() seriesvalidate.Reference {
	return seriesvalidate.Reference{
		Width: 2, Height: 2,
		OrientationRow: [3]float64{1, 0, 0},
		OrientationCol: [3]float64{0, 1, 0},
		HasOrientation: true,
	}
}

func TestOrder_SortsByProjectionOntoSliceNormal(t *testing.T) {
	ref := refWithOrientation()
	slices := []slice{
		{path: "c", geometry: header.Geometry{HasPosition: true, ImagePositionPatient: [3]float64{0, 0, 20}}},
		{path: "a", geometry: header.Geometry{HasPosition: true, ImagePositionPatient: [3]float64{0, 0, 0}}},
		{path: "b", geometry: header.Geometry{HasPosition: true, ImagePositionPatient: [3]float64{0, 0, 10}}},
	}

	normal, hasOrientation := order(slices, ref)
	require.True(t, hasOrientation)
	require.InDelta(t, 1.0, normal[2], 1e-9) // cross(row=X, col=Y) = Z

	require.Equal(t, "a", slices[0].path)
	require.Equal(t, "b", slices[1].path)
	require.Equal(t, "c", slices[2].path)
}

func TestOrder_FallsBackToInstanceNumberWithoutPosition(t *testing.T) {
	ref := seriesvalidate.Reference{Width: 2, Height: 2}
	slices := []slice{
		{path: "second", geometry: header.Geometry{HasInstanceNumber: true, InstanceNumber: 2}},
		{path: "first", geometry: header.Geometry{HasInstanceNumber: true, InstanceNumber: 1}},
	}

	_, hasOrientation := order(slices, ref)
	require.False(t, hasOrientation)
	require.Equal(t, "first", slices[0].path)
	require.Equal(t, "second", slices[1].path)
}

func TestOrder_FallsBackToPathWhenNoInstanceNumber(t *testing.T) {
	ref := seriesvalidate.Reference{Width: 2, Height: 2}
	slices := []slice{
		{path: "z.dcm"},
		{path: "a.dcm"},
	}
	order(slices, ref)
	require.Equal(t, "a.dcm", slices[0].path)
	require.Equal(t, "z.dcm", slices[1].path)
}

func TestReconcileZSpacing_PrefersTagOnlyWhenComputedDiffersBeyondTolerance(t *testing.T) {
	slices := []slice{
		{hasT: true, t: 0, geometry: header.Geometry{HasSpacingZ: true, SpacingZ: 5.0}},
		{hasT: true, t: 1.0}, // computed spacing 1.0mm vs tag 5.0mm: diff 4.0 > 0.2
		{hasT: true, t: 2.0},
	}
	got := reconcileZSpacing(slices, seriesvalidate.Reference{})
	require.Equal(t, 5.0, got)
}

func TestReconcileZSpacing_PrefersComputedWhenWithinTolerance(t *testing.T) {
	slices := []slice{
		{hasT: true, t: 0, geometry: header.Geometry{HasSpacingZ: true, SpacingZ: 1.05}},
		{hasT: true, t: 1.0},
		{hasT: true, t: 2.0},
	}
	got := reconcileZSpacing(slices, seriesvalidate.Reference{})
	require.InDelta(t, 1.0, got, 1e-9)
}

func TestReconcileZSpacing_FallsBackToTagWithFewerThanTwoPositionedSlices(t *testing.T) {
	slices := []slice{
		{hasT: false, geometry: header.Geometry{HasSpacingZ: true, SpacingZ: 2.5}},
	}
	got := reconcileZSpacing(slices, seriesvalidate.Reference{})
	require.Equal(t, 2.5, got)
}

func TestCrossAndNormalize(t *testing.T) {
	n := crossProduct([3]float64{1, 0, 0}, [3]float64{0, 1, 0})
	require.Equal(t, [3]float64{0, 0, 1}, n)

	v := normalizeVec([3]float64{3, 4, 0})
	require.InDelta(t, 0.6, v[0], 1e-9)
	require.InDelta(t, 0.8, v[1], 1e-9)
}

func TestLoad_SliceThicknessOnlySeriesUsesTagSpacingEndToEnd(t *testing.T) {
	dir := t.TempDir()
	buildSliceFile(t, dir, "a.dcm")
	buildSliceFile(t, dir, "b.dcm")

	vol, err := Load(context.Background(), dir, nil)
	require.NoError(t, err)
	require.Equal(t, 2.5, vol.SpacingZ)
	require.Equal(t, 2, vol.Depth)
}
