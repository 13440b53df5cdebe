package pixel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecode_Mono8Uninverted(t *testing.T) {
	raw := []byte{0x00, 0x10, 0xFF, 0x7F}
	f, err := Decode(raw, Options{Width: 2, Height: 2, SamplesPerPixel: 1, BitDepth: 8})
	require.NoError(t, err)
	require.Equal(t, []uint16{0x00, 0x10, 0xFF, 0x7F}, f.Data)
}

func TestDecode_Mono8Monochrome1Inversion(t *testing.T) {
	raw := []byte{0x00, 0xFF, 0x80}
	f, err := Decode(raw, Options{Width: 3, Height: 1, SamplesPerPixel: 1, BitDepth: 8,
		PhotometricInterpretation: "MONOCHROME1"})
	require.NoError(t, err)
	require.Equal(t, []uint16{255, 0, 127}, f.Data)
}

func TestDecode_Mono8Involution(t *testing.T) {
	raw := []byte{0x2A}
	opt := Options{Width: 1, Height: 1, SamplesPerPixel: 1, BitDepth: 8, PhotometricInterpretation: "MONOCHROME1"}
	once, err := Decode(raw, opt)
	require.NoError(t, err)
	twice, err := Decode([]byte{byte(once.Data[0])}, opt)
	require.NoError(t, err)
	require.Equal(t, raw[0], byte(twice.Data[0]))
}

func TestDecode_Mono16UnsignedUninverted(t *testing.T) {
	raw := []byte{0x34, 0x12} // little-endian 0x1234
	f, err := Decode(raw, Options{Width: 1, Height: 1, SamplesPerPixel: 1, BitDepth: 16})
	require.NoError(t, err)
	require.Equal(t, []uint16{0x1234}, f.Data)
}

func TestDecode_Mono16UnsignedMonochrome1Inversion(t *testing.T) {
	raw := []byte{0x00, 0x00} // 0
	f, err := Decode(raw, Options{Width: 1, Height: 1, SamplesPerPixel: 1, BitDepth: 16,
		PhotometricInterpretation: "MONOCHROME1"})
	require.NoError(t, err)
	require.Equal(t, uint16(65535), f.Data[0])
}

func TestDecode_Mono16SignedNormalization(t *testing.T) {
	cases := []struct {
		raw  []byte
		want uint16
	}{
		{[]byte{0x00, 0x80}, 0},     // -32768 -> 0
		{[]byte{0xFF, 0xFF}, 32767}, // -1 -> 32767
		{[]byte{0x00, 0x00}, 32768}, // 0 -> 32768
		{[]byte{0xFF, 0x7F}, 65535}, // 32767 -> 65535
	}
	for _, c := range cases {
		f, err := Decode(c.raw, Options{Width: 1, Height: 1, SamplesPerPixel: 1, BitDepth: 16,
			PixelRepresentationSigned: true})
		require.NoError(t, err)
		require.Equal(t, c.want, f.Data[0])
	}
}

func TestDecode_Mono16SignedMonochrome1UsesWraparoundNotSimpleSubtraction(t *testing.T) {
	// v=0 (raw signed -32768) normalizes to 0, then MONOCHROME1 inversion is
	// 32768-(0-32768) computed with uint16 wraparound, NOT 65535-0.
	f, err := Decode([]byte{0x00, 0x80}, Options{Width: 1, Height: 1, SamplesPerPixel: 1, BitDepth: 16,
		PixelRepresentationSigned: true, PhotometricInterpretation: "MONOCHROME1"})
	require.NoError(t, err)
	require.Equal(t, uint16(0), f.Data[0])
	require.NotEqual(t, uint16(65535), f.Data[0])
}

func TestDecode_RGB8(t *testing.T) {
	raw := []byte{1, 2, 3, 4, 5, 6}
	f, err := Decode(raw, Options{Width: 2, Height: 1, SamplesPerPixel: 3, BitDepth: 8})
	require.NoError(t, err)
	require.Equal(t, 3, f.SamplesPerPixel)
	require.Equal(t, []uint16{1, 2, 3, 4, 5, 6}, f.Data)
}

func TestDecode_UnknownShapeReturnsNilNil(t *testing.T) {
	f, err := Decode([]byte{1, 2, 3}, Options{Width: 1, Height: 1, SamplesPerPixel: 2, BitDepth: 8})
	require.NoError(t, err)
	require.Nil(t, f)
}

func TestDecode_ShortReadReturnsError(t *testing.T) {
	_, err := Decode([]byte{1}, Options{Width: 2, Height: 2, SamplesPerPixel: 1, BitDepth: 8})
	require.Error(t, err)
}
