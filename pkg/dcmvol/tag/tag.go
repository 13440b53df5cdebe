// Package tag implements the DICOM tag dictionary: a pure, read-only lookup
// from (group, element) to a VR code and human-readable description.
// Grounded on the teacher repo's pkg/dicos/tag package (the Tag type and its
// module-grouped organization), restructured into the single static
// key_hex8 -> "VRDescription" table spec.md §4.2 requires, and trimmed of
// the teacher's DICOS-specific (threat-detection, dual-energy) tags, which
// describe a security-screening IOD outside this module's medical-imaging
// scope (see DESIGN.md).
package tag

import "fmt"

// Tag is a 32-bit (group, element) pair identifying a DICOM attribute.
type Tag uint32

// New builds a Tag from its group and element halves.
func New(group, element uint16) Tag {
	return Tag(uint32(group)<<16 | uint32(element))
}

// Group returns the tag's group number.
func (t Tag) Group() uint16 { return uint16(t >> 16) }

// Element returns the tag's element number.
func (t Tag) Element() uint16 { return uint16(t) }

// IsPrivate reports whether the tag's group is odd, the DICOM convention for
// vendor-private attributes.
func (t Tag) IsPrivate() bool {
	return t.Group()%2 == 1
}

// Format renders the tag as "(GGGG,EEEE)" in upper-case hex, matching
// spec.md §4.2's format_tag contract.
func (t Tag) Format() string {
	return fmt.Sprintf("(%04X,%04X)", t.Group(), t.Element())
}

// Sequence delimiter sentinels (spec.md §3).
const (
	Item                    = Tag(0xFFFEE000)
	ItemDelimitationItem    = Tag(0xFFFEE00D)
	SequenceDelimitationItem = Tag(0xFFFEE0DD)
)

// Commonly referenced tags, named for readability at call sites. Values
// match the DICOM standard and the teacher's tag/tag.go constants.
const (
	FileMetaInformationGroupLength = Tag(0x00020000)
	TransferSyntaxUID              = Tag(0x00020010)

	Modality          = Tag(0x00080060)
	InstanceNumber    = Tag(0x00200013)
	SOPInstanceUID    = Tag(0x00080018)
	PixelData         = Tag(0x7FE00010)
	IconImageSequence = Tag(0x00880200)

	SamplesPerPixel           = Tag(0x00280002)
	PhotometricInterpretation = Tag(0x00280004)
	PlanarConfiguration       = Tag(0x00280006)
	NumberOfFrames            = Tag(0x00280008)
	Rows                      = Tag(0x00280010)
	Columns                   = Tag(0x00280011)
	PixelSpacing              = Tag(0x00280030)
	BitsAllocated             = Tag(0x00280100)
	BitsStored                = Tag(0x00280101)
	HighBit                   = Tag(0x00280102)
	PixelRepresentation       = Tag(0x00280103)
	WindowCenter              = Tag(0x00281050)
	WindowWidth               = Tag(0x00281051)
	RescaleIntercept          = Tag(0x00281052)
	RescaleSlope              = Tag(0x00281053)
	RescaleType               = Tag(0x00281054)
	RedPaletteColorLUTData    = Tag(0x00281201)
	GreenPaletteColorLUTData  = Tag(0x00281202)
	BluePaletteColorLUTData   = Tag(0x00281203)

	ImagePositionPatient    = Tag(0x00200032)
	ImageOrientationPatient = Tag(0x00200037)
	SliceLocation           = Tag(0x00201041)

	SliceThickness       = Tag(0x00180050)
	SpacingBetweenSlices = Tag(0x00180088)
)

// dictionary maps a tag's hex8 key to a "VRDescription" string: the first
// two characters are the VR code, the remainder is the description. Unknown
// tags are simply absent from the map (spec.md §4.2: lookups do not fail).
var dictionary = map[uint32]string{
	0x00020000: "ULFileMetaInformationGroupLength",
	0x00020002: "UIMediaStorageSOPClassUID",
	0x00020003: "UIMediaStorageSOPInstanceUID",
	0x00020010: "UITransferSyntaxUID",
	0x00020012: "UIImplementationClassUID",
	0x00020013: "SHImplementationVersionName",

	0x00080016: "UISOPClassUID",
	0x00080018: "UISOPInstanceUID",
	0x00080020: "DAStudyDate",
	0x00080021: "DASeriesDate",
	0x00080030: "TMStudyTime",
	0x00080050: "SHAccessionNumber",
	0x00080060: "CSModality",
	0x00080070: "LOManufacturer",
	0x00080090: "PNReferringPhysicianName",
	0x00081030: "LOStudyDescription",
	0x0008103E: "LOSeriesDescription",

	0x00100010: "PNPatientName",
	0x00100020: "LOPatientID",
	0x00100030: "DAPatientBirthDate",
	0x00100040: "CSPatientSex",

	0x00180050: "DSSliceThickness",
	0x00180060: "DSKVP",
	0x00180088: "DSSpacingBetweenSlices",
	0x00181150: "ISExposureTime",
	0x00181151: "ISXRayTubeCurrent",

	0x0020000D: "UIStudyInstanceUID",
	0x0020000E: "UISeriesInstanceUID",
	0x00200011: "ISSeriesNumber",
	0x00200013: "ISInstanceNumber",
	0x00200032: "DSImagePositionPatient",
	0x00200037: "DSImageOrientationPatient",
	0x00200052: "UIFrameOfReferenceUID",
	0x00201041: "DSSliceLocation",

	0x00280002: "USSamplesPerPixel",
	0x00280004: "CSPhotometricInterpretation",
	0x00280006: "USPlanarConfiguration",
	0x00280008: "ISNumberOfFrames",
	0x00280010: "USRows",
	0x00280011: "USColumns",
	0x00280030: "DSPixelSpacing",
	0x00280100: "USBitsAllocated",
	0x00280101: "USBitsStored",
	0x00280102: "USHighBit",
	0x00280103: "USPixelRepresentation",
	0x00281050: "DSWindowCenter",
	0x00281051: "DSWindowWidth",
	0x00281052: "DSRescaleIntercept",
	0x00281053: "DSRescaleSlope",
	0x00281054: "LORescaleType",
	0x00281101: "USRedPaletteColorLUTDescriptor",
	0x00281102: "USGreenPaletteColorLUTDescriptor",
	0x00281103: "USBluePaletteColorLUTDescriptor",
	0x00281201: "OWRedPaletteColorLUTData",
	0x00281202: "OWGreenPaletteColorLUTData",
	0x00281203: "OWBluePaletteColorLUTData",

	0x00880200: "SQIconImageSequence",

	0x7FE00010: "OWPixelData",
}

// Lookup returns the VR code and description registered for t, or ("", "")
// if t is not present (an absent description renders as "Private Tag" by
// the caller, per spec.md §3).
func Lookup(t Tag) (vrCode, description string) {
	entry, ok := dictionary[uint32(t)]
	if !ok || len(entry) < 2 {
		return "", ""
	}
	return entry[:2], entry[2:]
}

// VRCode returns only the VR code registered for t.
func VRCode(t Tag) string {
	vrCode, _ := Lookup(t)
	return vrCode
}

// Description returns only the description registered for t, or "Private
// Tag" if t is unknown or private, matching spec.md §3's fallback.
func Description(t Tag) string {
	_, desc := Lookup(t)
	if desc == "" {
		return "Private Tag"
	}
	return desc
}
