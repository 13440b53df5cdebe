package jpeglossless

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtend_ZeroCategoryIsZero(t *testing.T) {
	require.Equal(t, 0, extend(0, 0))
}

func TestExtend_PositiveAndNegativeRanges(t *testing.T) {
	// SSSS=3 covers [-7,-4] U [4,7]; bits < 2^(3-1)=4 means negative range.
	require.Equal(t, 4, extend(4, 3))
	require.Equal(t, 7, extend(7, 3))
	require.Equal(t, -7, extend(0, 3))
	require.Equal(t, -4, extend(3, 3))
}

func TestPredict_FirstPixelIsHalfDynamicRange(t *testing.T) {
	currRow := make([]int, 4)
	prevRow := make([]int, 4)
	require.Equal(t, 128, predict(currRow, prevRow, 0, 0, 8))
	require.Equal(t, 512, predict(currRow, prevRow, 0, 0, 10))
}

func TestPredict_FirstRowUsesLeftNeighbor(t *testing.T) {
	currRow := []int{10, 20, 30, 40}
	prevRow := make([]int, 4)
	require.Equal(t, 10, predict(currRow, prevRow, 1, 0, 8))
	require.Equal(t, 20, predict(currRow, prevRow, 2, 0, 8))
}

func TestPredict_FirstColumnOfEveryRowIsHalfDynamicRange(t *testing.T) {
	// Every first pixel of a row is the constant half-dynamic-range
	// predictor, not the pixel above it, regardless of prevRow's contents.
	currRow := make([]int, 4)
	prevRow := []int{5, 15, 25, 35}
	require.Equal(t, 128, predict(currRow, prevRow, 0, 1, 8))
	require.Equal(t, 512, predict(currRow, prevRow, 0, 1, 10))
}

func TestPredict_InteriorAlwaysUsesLeftNeighbor(t *testing.T) {
	// Resolved behavior: regardless of the negotiated predictor, interior
	// pixels always use the SV1 left-neighbor rule.
	currRow := []int{7, 9, 11}
	prevRow := []int{100, 200, 300}
	require.Equal(t, 7, predict(currRow, prevRow, 1, 1, 8))
	require.Equal(t, 9, predict(currRow, prevRow, 2, 1, 8))
}

func TestBitReader_ByteStuffingRemovesTrailingZero(t *testing.T) {
	br := newBitReader(bytes.NewReader([]byte{0xAB, 0xFF, 0x00, 0xCD}))
	b1, err := br.readByte()
	require.NoError(t, err)
	require.Equal(t, byte(0xAB), b1)

	b2, err := br.readByte()
	require.NoError(t, err)
	require.Equal(t, byte(0xFF), b2)

	b3, err := br.readByte()
	require.NoError(t, err)
	require.Equal(t, byte(0xCD), b3)
}

func TestBitReader_RestartMarkerIsDiscardedNotData(t *testing.T) {
	// 0xFF 0xD0 is a restart marker (RST0): bitReader swallows it and
	// continues with the next real byte rather than surfacing it as data.
	br := newBitReader(bytes.NewReader([]byte{0xAA, 0xFF, 0xD0, 0xBB}))
	b1, err := br.readByte()
	require.NoError(t, err)
	require.Equal(t, byte(0xAA), b1)

	b2, err := br.readByte()
	require.NoError(t, err)
	require.Equal(t, byte(0xBB), b2)
}

func TestBitReader_UnstuffedFFMarkerEndsStream(t *testing.T) {
	// 0xFF followed by a non-zero, non-restart byte (e.g. EOI's 0xD9)
	// terminates the entropy segment.
	br := newBitReader(bytes.NewReader([]byte{0xAA, 0xFF, 0xD9}))
	b1, err := br.readByte()
	require.NoError(t, err)
	require.Equal(t, byte(0xAA), b1)

	_, err = br.readByte()
	require.Error(t, err)
}

func TestBitReader_ReadBitsMSBFirst(t *testing.T) {
	br := newBitReader(bytes.NewReader([]byte{0b10110000}))
	v, err := br.readBits(3)
	require.NoError(t, err)
	require.Equal(t, 0b101, v)
}

// buildSingleCodeStream assembles a minimal one-pixel JPEG Lossless SV1
// bitstream: SOI, SOF3 (1x1, given precision), a DHT with a single 1-bit
// code mapping to SSSS=0, SOS (predictor 1), one entropy byte whose top bit
// selects that code, then EOI.
func buildSingleCodeStream(precision byte) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xD8}) // SOI

	buf.Write([]byte{0xFF, 0xC3}) // SOF3
	buf.Write([]byte{0x00, 0x0B}) // length = 11
	buf.Write([]byte{precision, 0x00, 0x01, 0x00, 0x01, 0x01, 0x01, 0x11, 0x00})

	buf.Write([]byte{0xFF, 0xC4}) // DHT
	buf.Write([]byte{0x00, 0x14}) // length = 20
	buf.WriteByte(0x00)           // table class 0, id 0
	bits := make([]byte, 16)
	bits[0] = 1 // one code of length 1
	buf.Write(bits)
	buf.WriteByte(0x00) // SSSS value for that code

	buf.Write([]byte{0xFF, 0xDA}) // SOS
	buf.Write([]byte{0x00, 0x08}) // length = 8
	buf.Write([]byte{0x01, 0x01, 0x00, 0x01, 0x00, 0x00})

	buf.WriteByte(0x00) // entropy-coded data: single 0 bit selects the code

	buf.Write([]byte{0xFF, 0xD9}) // EOI
	return buf.Bytes()
}

func TestDecode_SinglePixelFrameUsesHalfDynamicRange(t *testing.T) {
	frame, err := Decode(bytes.NewReader(buildSingleCodeStream(8)))
	require.NoError(t, err)
	require.Equal(t, 1, frame.Width)
	require.Equal(t, 1, frame.Height)
	require.Equal(t, 8, frame.Precision)
	require.Equal(t, []uint16{128}, frame.Data)
}

func TestDecode_RejectsStreamWithoutSOI(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte{0x00, 0x00, 0x00, 0x00}))
	require.Error(t, err)
}
