// Package vr defines the DICOM Value Representation codes and the length-field
// rules the element parser needs to decode them. Grounded on the teacher
// repo's pkg/dicos/vr package, narrowed to the long-length set spec.md
// actually names.
package vr

// VR is a two-letter DICOM Value Representation code, plus two sentinels:
// ImplicitRaw (VR unknown because the stream is implicit-VR encoded) and
// Unknown (VR byte pair did not match any known code).
type VR string

// Standard DICOM Value Representations.
const (
	AE VR = "AE" // Application Entity
	AS VR = "AS" // Age String
	AT VR = "AT" // Attribute Tag
	CS VR = "CS" // Code String
	DA VR = "DA" // Date
	DS VR = "DS" // Decimal String
	DT VR = "DT" // DateTime
	FL VR = "FL" // Floating Point Single
	FD VR = "FD" // Floating Point Double
	IS VR = "IS" // Integer String
	LO VR = "LO" // Long String
	LT VR = "LT" // Long Text
	OB VR = "OB" // Other Byte String
	OD VR = "OD" // Other Double String
	OF VR = "OF" // Other Float String
	OL VR = "OL" // Other Long
	OW VR = "OW" // Other Word String
	PN VR = "PN" // Person Name
	SH VR = "SH" // Short String
	SL VR = "SL" // Signed Long
	SQ VR = "SQ" // Sequence of Items
	SS VR = "SS" // Signed Short
	ST VR = "ST" // Short Text
	TM VR = "TM" // Time
	UC VR = "UC" // Unlimited Characters
	UI VR = "UI" // Unique Identifier
	UL VR = "UL" // Unsigned Long
	UN VR = "UN" // Unknown value representation
	UR VR = "UR" // Universal Resource Identifier
	US VR = "US" // Unsigned Short
	UT VR = "UT" // Unlimited Text

	// ImplicitRaw marks an element whose VR was never declared in the
	// stream (implicit VR transfer syntax); its length field is always
	// 32-bit and its value is treated as opaque unless recovered from the
	// tag dictionary.
	ImplicitRaw VR = "__implicit__"
	// Unknown marks a 2-byte VR field that did not match any of the codes
	// above.
	Unknown VR = "__unknown__"
)

// longLength is the subset of explicit VRs that use a 4-byte length field
// (with 2 reserved bytes) instead of a 2-byte length field. spec.md fixes
// this set at exactly {OB, OW, SQ, UN, UT} — narrower than some DICOM
// toolkits (which also long-form OD/OF/OL/UC/UR); matching spec.md's set
// keeps the element parser's length-resolution table (§4.3) exact.
var longLength = map[VR]bool{
	OB: true,
	OW: true,
	SQ: true,
	UN: true,
	UT: true,
}

// IsLongLength reports whether this VR uses a 4-byte length field under
// explicit VR encoding.
func (v VR) IsLongLength() bool {
	return longLength[v]
}

// IsString reports whether this VR's value is textual.
func (v VR) IsString() bool {
	switch v {
	case AE, AS, CS, DA, DS, DT, IS, LO, LT, PN, SH, ST, TM, UC, UI, UR, UT:
		return true
	default:
		return false
	}
}

// IsBinary reports whether this VR's value is fixed-width binary.
func (v VR) IsBinary() bool {
	switch v {
	case AT, FL, FD, OB, OD, OF, OL, OW, SL, SS, UL, UN, US:
		return true
	default:
		return false
	}
}

// IsSequence reports whether this VR introduces a nested item sequence.
func (v VR) IsSequence() bool {
	return v == SQ
}

// ValueSize returns the fixed per-value size in bytes for fixed-width VRs,
// or 0 when the value is variable-length.
func (v VR) ValueSize() int {
	switch v {
	case AT, FL, SL, UL:
		return 4
	case FD:
		return 8
	case SS, US:
		return 2
	default:
		return 0
	}
}

// fromBytes resolves the 2-byte ASCII VR code read from the stream into a
// VR constant, or Unknown if it matches nothing recognized.
func fromBytes(b0, b1 byte) VR {
	candidate := VR([]byte{b0, b1})
	switch candidate {
	case AE, AS, AT, CS, DA, DS, DT, FL, FD, IS, LO, LT, OB, OD, OF, OL, OW,
		PN, SH, SL, SQ, SS, ST, TM, UC, UI, UL, UN, UR, US, UT:
		return candidate
	default:
		return Unknown
	}
}

// FromBytes is the exported form of fromBytes, used by the element parser
// to classify the two candidate VR bytes it reads at each element header.
func FromBytes(b0, b1 byte) VR {
	return fromBytes(b0, b1)
}
