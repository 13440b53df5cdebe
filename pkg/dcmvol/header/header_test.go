package header

import (
	"testing"

	"github.com/jpfielding/dcmvol/internal/dicomtest"
	"github.com/stretchr/testify/require"
)

// buildS1 constructs spec scenario S1: a minimal 2x2, 8-bit, single-sample
// uncompressed file.
func buildS1(photometric string) []byte {
	b := dicomtest.New()
	b.Element(0x0002, 0x0010, "UI", dicomtest.Str("1.2.840.10008.1.2.1"))
	b.Element(0x0028, 0x0010, "US", dicomtest.US(2)) // Rows
	b.Element(0x0028, 0x0011, "US", dicomtest.US(2)) // Columns
	b.Element(0x0028, 0x0100, "US", dicomtest.US(8)) // BitsAllocated
	b.Element(0x0028, 0x0002, "US", dicomtest.US(1)) // SamplesPerPixel
	if photometric != "" {
		b.Element(0x0028, 0x0004, "CS", dicomtest.Str(photometric))
	}
	b.Element(0x7FE0, 0x0010, "OB", []byte{0x10, 0x20, 0x30, 0x40})
	return b.Bytes()
}

func TestWalk_S1_Uncompressed8Bit(t *testing.T) {
	res, err := Walk(buildS1(""))
	require.NoError(t, err)
	require.Equal(t, 2, res.Geometry.Width)
	require.Equal(t, 2, res.Geometry.Height)
	require.Equal(t, 8, res.Geometry.BitDepth)
	require.Equal(t, 1, res.Geometry.SamplesPerPixel)
	require.GreaterOrEqual(t, res.PixelDataOffset, 0)
	require.Equal(t, uint32(4), res.PixelDataLength)
}

func TestWalk_S2_Monochrome1RecordedInGeometry(t *testing.T) {
	res, err := Walk(buildS1("MONOCHROME1"))
	require.NoError(t, err)
	require.Equal(t, "MONOCHROME1", res.Geometry.PhotometricInterpretation)
}

func TestWalk_S3_Signed16Bit(t *testing.T) {
	b := dicomtest.New()
	b.Element(0x0002, 0x0010, "UI", dicomtest.Str("1.2.840.10008.1.2.1"))
	b.Element(0x0028, 0x0010, "US", dicomtest.US(2))
	b.Element(0x0028, 0x0011, "US", dicomtest.US(2))
	b.Element(0x0028, 0x0100, "US", dicomtest.US(16))
	b.Element(0x0028, 0x0002, "US", dicomtest.US(1))
	b.Element(0x0028, 0x0103, "US", dicomtest.US(1)) // PixelRepresentation = signed
	pixels := []byte{
		0x00, 0x80, // -32768
		0xFF, 0xFF, // -1
		0x00, 0x00, // 0
		0xFF, 0x7F, // 32767
	}
	b.Element(0x7FE0, 0x0010, "OW", pixels)

	res, err := Walk(b.Bytes())
	require.NoError(t, err)
	require.Equal(t, 16, res.Geometry.BitDepth)
	require.True(t, res.Geometry.PixelRepresentationSigned)
	require.Equal(t, uint32(len(pixels)), res.PixelDataLength)
}

func TestWalk_RejectsMissingSignature(t *testing.T) {
	_, err := Walk(make([]byte, 200))
	require.Error(t, err)
}

func TestWalk_WithoutGroupLengthFallsBackToPerElementScan(t *testing.T) {
	// S1 never writes FileMetaInformationGroupLength (0002,0000), exercising
	// walkMetaGroup's per-element group==0x0002 fallback loop.
	res, err := Walk(buildS1(""))
	require.NoError(t, err)
	require.Equal(t, "1.2.840.10008.1.2.1", res.Geometry.TransferSyntaxUID)
}

func TestWalk_SliceThicknessAloneSetsHasSpacingZ(t *testing.T) {
	// A series carrying only SliceThickness (no SpacingBetweenSlices) must
	// still report a usable tag_z: reconcileZSpacing's fallback is gated
	// entirely on HasSpacingZ.
	b := dicomtest.New()
	b.Element(0x0002, 0x0010, "UI", dicomtest.Str("1.2.840.10008.1.2.1"))
	b.Element(0x0028, 0x0010, "US", dicomtest.US(2))
	b.Element(0x0028, 0x0011, "US", dicomtest.US(2))
	b.Element(0x0028, 0x0100, "US", dicomtest.US(8))
	b.Element(0x0028, 0x0002, "US", dicomtest.US(1))
	b.Element(0x0018, 0x0050, "DS", dicomtest.Str("1.0"))
	b.Element(0x7FE0, 0x0010, "OB", []byte{0x10, 0x20, 0x30, 0x40})

	res, err := Walk(b.Bytes())
	require.NoError(t, err)
	require.True(t, res.Geometry.HasSpacingZ)
	require.Equal(t, 1.0, res.Geometry.SpacingZ)
	require.Equal(t, 1.0, res.Geometry.TagSpacingZ)
}
