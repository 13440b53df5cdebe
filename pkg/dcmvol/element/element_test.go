package element

import (
	"testing"

	"github.com/jpfielding/dcmvol/pkg/dcmvol/bytecursor"
	"github.com/jpfielding/dcmvol/pkg/dcmvol/tag"
	"github.com/jpfielding/dcmvol/pkg/dcmvol/vr"
	"github.com/stretchr/testify/require"
)

func littleU16(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }

func TestReadElement_ExplicitShortVR(t *testing.T) {
	// (0028,0010) US, length 2, value 0x0002
	data := append([]byte{0x28, 0x00, 0x10, 0x00}, []byte("US")...)
	data = append(data, littleU16(2)...)
	data = append(data, littleU16(2)...)

	c := bytecursor.New(data)
	state := &State{Endian: bytecursor.LittleEndian, ExplicitVR: true}
	el := ReadElement(c, state)

	require.Equal(t, tag.New(0x0028, 0x0010), el.Tag)
	require.Equal(t, vr.US, el.VR)
	require.Equal(t, uint32(2), el.Length)
	require.False(t, el.UndefinedLength)
}

func TestReadElement_ExplicitLongVR(t *testing.T) {
	// (7FE0,0010) OB, 2 reserved bytes, 4-byte length of 4
	data := append([]byte{0xE0, 0x7F, 0x10, 0x00}, []byte("OB")...)
	data = append(data, 0x00, 0x00)
	data = append(data, 4, 0, 0, 0)
	data = append(data, 0xDE, 0xAD, 0xBE, 0xEF)

	c := bytecursor.New(data)
	state := &State{Endian: bytecursor.LittleEndian, ExplicitVR: true}
	el := ReadElement(c, state)

	require.Equal(t, vr.OB, el.VR)
	require.Equal(t, uint32(4), el.Length)
}

func TestReadElement_UndefinedLengthSequence(t *testing.T) {
	data := append([]byte{0x00, 0x00, 0x41, 0x00}, []byte("SQ")...)
	data = append(data, 0x00, 0x00)
	data = append(data, 0xFF, 0xFF, 0xFF, 0xFF)

	c := bytecursor.New(data)
	state := &State{Endian: bytecursor.LittleEndian, ExplicitVR: true}
	el := ReadElement(c, state)

	require.True(t, el.UndefinedLength)
	require.Equal(t, uint32(0), el.Length)
	require.True(t, state.InSequence)
}

func TestReadElement_ImplicitVRAlways32BitLength(t *testing.T) {
	data := append([]byte{0x28, 0x00, 0x10, 0x00}, 2, 0, 0, 0)
	data = append(data, 0xAA, 0xBB)

	c := bytecursor.New(data)
	state := &State{Endian: bytecursor.LittleEndian, ExplicitVR: false}
	el := ReadElement(c, state)

	require.Equal(t, vr.ImplicitRaw, el.VR)
	require.Equal(t, uint32(2), el.Length)
}

func TestReadElement_Group0800BigEndianQuirkRemapsToGroup0008(t *testing.T) {
	data := append([]byte{0x08, 0x00, 0x00, 0x60}, []byte("CS")...)
	data = append(data, 0x00, 0x02)
	data = append(data, []byte("CT")...)

	c := bytecursor.New(data)
	state := &State{Endian: bytecursor.BigEndian, ExplicitVR: true}
	el := ReadElement(c, state)

	require.Equal(t, tag.New(0x0008, 0x0060), el.Tag)
	require.Equal(t, bytecursor.LittleEndian, state.Endian)
}

func TestReadElement_Length13QuirkBecomes10BeforeOddOffsetSeen(t *testing.T) {
	data := append([]byte{0x28, 0x00, 0x10, 0x00}, []byte("LO")...)
	data = append(data, littleU16(13)...)
	data = append(data, make([]byte, 13)...)

	c := bytecursor.New(data)
	state := &State{Endian: bytecursor.LittleEndian, ExplicitVR: true}
	el := ReadElement(c, state)

	require.Equal(t, uint32(10), el.Length)
}

func TestReadElement_Length13QuirkDoesNotApplyAfterOddOffsetSeen(t *testing.T) {
	state := &State{Endian: bytecursor.LittleEndian, ExplicitVR: true, SeenOddOffset: true}

	data := append([]byte{0x28, 0x00, 0x10, 0x00}, []byte("LO")...)
	data = append(data, littleU16(13)...)
	data = append(data, make([]byte, 13)...)
	c := bytecursor.New(data)
	el := ReadElement(c, state)

	require.Equal(t, uint32(13), el.Length)
}

func TestReadElement_DelimiterItemsClearInSequence(t *testing.T) {
	state := &State{Endian: bytecursor.LittleEndian, ExplicitVR: true, InSequence: true}
	data := []byte{0xFE, 0xFF, 0xDD, 0xE0, 0x00, 0x00, 0x00, 0x00}
	c := bytecursor.New(data)
	el := ReadElement(c, state)

	require.Equal(t, tag.SequenceDelimitationItem, el.Tag)
	require.False(t, state.InSequence)
}
