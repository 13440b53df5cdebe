// Package element implements the DICOM element header parser (spec.md
// §4.3): given a cursor positioned at a tag, it resolves the element's VR
// and length according to the transfer syntax in effect, tracks the single
// level of sequence nesting the metadata dictionary needs, and applies the
// two known producer quirks (group 0x0800 byte-order confusion, and the
// length==13 miscount). Grounded on the teacher repo's pkg/dicos/reader.go
// readElementWithTag/readTag/isLongVR logic, restructured into a standalone
// component per spec.md's component boundary (C3 sits below HeaderWalker,
// not inside it).
package element

import (
	"github.com/jpfielding/dcmvol/pkg/dcmvol/bytecursor"
	"github.com/jpfielding/dcmvol/pkg/dcmvol/tag"
	"github.com/jpfielding/dcmvol/pkg/dcmvol/vr"
)

// State carries the parser's running state across successive ReadElement
// calls on the same stream: the transfer-syntax encoding flags, whether any
// odd byte offset has yet been observed (gates the length==13 quirk), and
// whether the cursor is currently inside a sequence item (drives the ">"
// metadata prefix HeaderWalker applies).
type State struct {
	Endian     bytecursor.Endian
	ExplicitVR bool

	SeenOddOffset bool
	InSequence    bool
}

// Element is one parsed element header: its tag, resolved VR, value length,
// and the cursor offset at which its value begins.
type Element struct {
	Tag         tag.Tag
	VR          vr.VR
	Length      uint32
	ValueOffset int
	// UndefinedLength is true when the stream length field was 0xFFFFFFFF
	// (sequences and encapsulated pixel data); Length is reported as 0 in
	// that case and the caller must honor the matching delimiter instead.
	UndefinedLength bool
}

// ReadElement reads one element header at c's current position, mutating
// state to reflect what was observed. It never returns an error for
// malformed-but-parseable headers; callers detect EOF via c.Remaining().
func ReadElement(c *bytecursor.Cursor, state *State) Element {
	group, _ := c.ReadU16(state.Endian)
	elem, _ := c.ReadU16(state.Endian)

	// Known GE/Philips quirk: group 0x0800 appears when a big-endian stream
	// was produced with the wrong endianness for the file meta group;
	// flipping to the other endian and remapping to the real group 0x0008
	// recovers the intended tag.
	if group == 0x0800 && state.Endian == bytecursor.BigEndian {
		state.Endian = bytecursor.LittleEndian
		group = 0x0008
	}

	t := tag.New(group, elem)
	noteOffset(state, c.Pos())

	var resolvedVR vr.VR
	var length uint32

	if !state.ExplicitVR {
		// Implicit VR: the four bytes immediately following the tag are
		// always a 32-bit length; VR is recovered later from the tag
		// dictionary (HeaderWalker's job, not this component's).
		length, _ = c.ReadU32(state.Endian)
		resolvedVR = vr.ImplicitRaw
	} else {
		b := c.Bytes(4)
		for len(b) < 4 {
			b = append(b, 0)
		}
		candidate := vr.FromBytes(b[0], b[1])

		switch {
		case candidate != vr.Unknown && candidate.IsLongLength():
			if b[2] == 0 || b[3] == 0 {
				length, _ = c.ReadU32(state.Endian)
				resolvedVR = candidate
			} else {
				length = decodeU32(b, state.Endian)
				resolvedVR = vr.ImplicitRaw
			}
		case candidate != vr.Unknown:
			length = uint32(decodeU16(b[2], b[3], state.Endian))
			resolvedVR = candidate
		default:
			length = decodeU32(b, state.Endian)
			resolvedVR = vr.ImplicitRaw
		}
	}

	undefinedLength := false
	if length == 0xFFFFFFFF {
		length = 0
		undefinedLength = true
		state.InSequence = true
	}

	remaining := uint32(c.Remaining())
	if length > remaining {
		length = remaining
	}

	if length == 13 && !state.SeenOddOffset {
		length = 10
	}

	noteOffset(state, c.Pos())

	switch t {
	case tag.ItemDelimitationItem, tag.SequenceDelimitationItem:
		state.InSequence = false
	}

	return Element{
		Tag:             t,
		VR:              resolvedVR,
		Length:          length,
		ValueOffset:     c.Pos(),
		UndefinedLength: undefinedLength,
	}
}

func noteOffset(state *State, pos int) {
	if pos%2 != 0 {
		state.SeenOddOffset = true
	}
}

func decodeU32(b []byte, e bytecursor.Endian) uint32 {
	if e == bytecursor.BigEndian {
		return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	}
	return uint32(b[3])<<24 | uint32(b[2])<<16 | uint32(b[1])<<8 | uint32(b[0])
}

func decodeU16(b2, b3 byte, e bytecursor.Endian) uint16 {
	if e == bytecursor.BigEndian {
		return uint16(b2)<<8 | uint16(b3)
	}
	return uint16(b3)<<8 | uint16(b2)
}
