// Package transfer resolves DICOM Transfer Syntax UIDs to the three encoding
// flags the rest of the decoder needs: explicit/implicit VR, byte order, and
// whether pixel data is compressed. Grounded on the teacher repo's
// pkg/dicos/transfer package, trimmed to the syntaxes spec.md actually
// supports or explicitly rejects (§6).
package transfer

// UID is a DICOM transfer syntax UID string.
type UID string

// Supported and explicitly-rejected transfer syntaxes (spec.md §6).
const (
	ImplicitVRLittleEndian UID = "1.2.840.10008.1.2"
	ExplicitVRLittleEndian UID = "1.2.840.10008.1.2.1"
	ExplicitVRBigEndian    UID = "1.2.840.10008.1.2.2"
	JPEGLosslessP14        UID = "1.2.840.10008.1.2.4.57"
	JPEGLosslessP14SV1     UID = "1.2.840.10008.1.2.4.70"

	// Rejected cleanly per spec.md Non-goals: JPEG baseline/extended, JPEG-LS,
	// JPEG 2000, RLE. Listed so FromUID can classify them by name rather than
	// falling through to the unknown-UID default.
	JPEGBaseline     UID = "1.2.840.10008.1.2.4.50"
	JPEGExtended     UID = "1.2.840.10008.1.2.4.51"
	JPEGLSLossless   UID = "1.2.840.10008.1.2.4.80"
	JPEGLSNearLossy  UID = "1.2.840.10008.1.2.4.81"
	JPEG2000Lossless UID = "1.2.840.10008.1.2.4.90"
	JPEG2000         UID = "1.2.840.10008.1.2.4.91"
	RLELossless      UID = "1.2.840.10008.1.2.5"
)

// Flags is the resolved encoding behavior for a transfer syntax.
type Flags struct {
	ExplicitVR bool
	BigEndian  bool
	Compressed bool
	// Rejected is set for transfer syntaxes spec.md requires rejecting with
	// UnsupportedTransferSyntax rather than decoding.
	Rejected bool
}

// rejected is the set of compressed transfer syntaxes spec.md requires
// rejecting cleanly instead of decoding.
var rejected = map[UID]bool{
	JPEGBaseline:     true,
	JPEGExtended:     true,
	JPEGLSLossless:   true,
	JPEGLSNearLossy:  true,
	JPEG2000Lossless: true,
	JPEG2000:         true,
	RLELossless:      true,
}

// FromUID resolves a transfer syntax UID to its encoding flags. Unknown UIDs
// default to uncompressed/little-endian/explicit, matching the reference
// decoder's lenient fallback for producer UIDs it has never seen.
func FromUID(uid string) Flags {
	u := UID(uid)
	switch u {
	case ImplicitVRLittleEndian:
		return Flags{ExplicitVR: false, BigEndian: false, Compressed: false}
	case ExplicitVRLittleEndian:
		return Flags{ExplicitVR: true, BigEndian: false, Compressed: false}
	case ExplicitVRBigEndian:
		return Flags{ExplicitVR: true, BigEndian: true, Compressed: false}
	case JPEGLosslessP14, JPEGLosslessP14SV1:
		return Flags{ExplicitVR: true, BigEndian: false, Compressed: true}
	}
	if rejected[u] {
		return Flags{ExplicitVR: true, BigEndian: false, Compressed: true, Rejected: true}
	}
	return Flags{ExplicitVR: true, BigEndian: false, Compressed: false}
}

// IsJPEGLossless reports whether uid is one of the two JPEG Lossless Process
// 14 transfer syntaxes this module decodes.
func IsJPEGLossless(uid string) bool {
	u := UID(uid)
	return u == JPEGLosslessP14 || u == JPEGLosslessP14SV1
}

// Name returns a short human-readable label, used in error messages and the
// CLI's text-format output.
func Name(uid string) string {
	switch UID(uid) {
	case ImplicitVRLittleEndian:
		return "Implicit VR Little Endian"
	case ExplicitVRLittleEndian:
		return "Explicit VR Little Endian"
	case ExplicitVRBigEndian:
		return "Explicit VR Big Endian"
	case JPEGLosslessP14:
		return "JPEG Lossless, Non-Hierarchical (Process 14)"
	case JPEGLosslessP14SV1:
		return "JPEG Lossless, Non-Hierarchical, First-Order Prediction (Process 14 SV1)"
	case JPEGBaseline:
		return "JPEG Baseline (Process 1)"
	case JPEGExtended:
		return "JPEG Extended (Process 2 & 4)"
	case JPEGLSLossless:
		return "JPEG-LS Lossless"
	case JPEGLSNearLossy:
		return "JPEG-LS Near-Lossless"
	case JPEG2000Lossless:
		return "JPEG 2000 Lossless"
	case JPEG2000:
		return "JPEG 2000"
	case RLELossless:
		return "RLE Lossless"
	default:
		return uid
	}
}
