// Package header implements the DICOM header walker (spec.md §4.4): it
// verifies the PS3.10 preamble, walks the file meta group to resolve the
// transfer syntax, then iterates dataset elements until pixel data is
// reached, populating both a formatted metadata dictionary and a typed
// image-geometry descriptor along the way. Grounded on the teacher repo's
// pkg/dicos/reader.go ReadDataset/readElementWithTag loop, restructured to
// separate element-header decoding (pkg/dcmvol/element) from the
// dictionary-and-geometry bookkeeping done here.
package header

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/jpfielding/dcmvol/pkg/dcmvol/bytecursor"
	"github.com/jpfielding/dcmvol/pkg/dcmvol/dcmerr"
	"github.com/jpfielding/dcmvol/pkg/dcmvol/element"
	"github.com/jpfielding/dcmvol/pkg/dcmvol/tag"
	"github.com/jpfielding/dcmvol/pkg/dcmvol/transfer"
	"github.com/jpfielding/dcmvol/pkg/dcmvol/vr"
)

// maxElements caps the number of elements walked before giving up and
// attempting pixel-offset recovery, matching spec.md §4.4's safety cap.
const maxElements = 10000

// Geometry is the typed subset of metadata the rest of the decoder needs
// directly, rather than re-parsing formatted strings out of Metadata.
type Geometry struct {
	Width, Height int
	BitDepth      int
	SamplesPerPixel int
	PixelRepresentationSigned bool
	PhotometricInterpretation string
	PlanarConfiguration int
	NumberOfFrames int

	WindowCenter, WindowWidth float64
	HasWindow bool

	RescaleSlope, RescaleIntercept float64

	PixelSpacingX, PixelSpacingY float64
	HasPixelSpacing bool

	SpacingZ    float64
	HasSpacingZ bool
	TagSpacingZ float64

	OrientationRow, OrientationCol [3]float64
	HasOrientation                 bool

	ImagePositionPatient [3]float64
	HasPosition          bool

	InstanceNumber    int
	HasInstanceNumber bool

	TransferSyntaxUID string
	BigEndian         bool
	ExplicitVR        bool
	Compressed        bool

	RedLUT, GreenLUT, BlueLUT []byte
}

// Result is everything HeaderWalker produces from one file.
type Result struct {
	Geometry Geometry
	Metadata map[tag.Tag]string

	// PixelDataOffset is the byte offset of PixelData's value (the first
	// byte after its tag/VR/length header), or -1 if PixelData was never
	// located (and the trailing-bytes heuristic also failed).
	PixelDataOffset int
	PixelDataLength uint32
	PixelDataUndefinedLength bool
	RecoveredPixelOffset     bool
}

// Walk parses data as a DICOM Part 10 stream: 128-byte preamble, "DICM"
// magic, file meta group, then dataset elements up to PixelData.
func Walk(data []byte) (*Result, error) {
	if len(data) < 132 || string(data[128:132]) != "DICM" {
		return nil, dcmerr.NewNotDicom()
	}

	c := bytecursor.New(data)
	c.Seek(132)

	res := &Result{
		Metadata:        make(map[tag.Tag]string),
		PixelDataOffset: -1,
	}
	res.Geometry.RescaleSlope = 1
	res.Geometry.RescaleIntercept = 0

	state := &element.State{Endian: bytecursor.LittleEndian, ExplicitVR: true}

	walkMetaGroup(c, state, res)

	flags := transfer.FromUID(res.Geometry.TransferSyntaxUID)
	state.Endian = bytecursor.LittleEndian
	if flags.BigEndian {
		state.Endian = bytecursor.BigEndian
	}
	state.ExplicitVR = flags.ExplicitVR
	res.Geometry.BigEndian = flags.BigEndian
	res.Geometry.ExplicitVR = flags.ExplicitVR
	res.Geometry.Compressed = flags.Compressed

	count := 0
	for c.Remaining() > 0 && count < maxElements {
		count++
		el := element.ReadElement(c, state)

		if el.Tag == tag.PixelData {
			res.PixelDataOffset = el.ValueOffset
			res.PixelDataLength = el.Length
			res.PixelDataUndefinedLength = el.UndefinedLength
			return res, nil
		}

		handleElement(c, state, res, el)
	}

	if res.PixelDataOffset < 0 {
		recoverTrailingPixelOffset(data, res)
	}

	return res, nil
}

// walkMetaGroup consumes the group-0002 file meta elements, which are
// always Explicit VR Little Endian regardless of the main dataset's
// transfer syntax. It stops once FileMetaInformationGroupLength bytes have
// been consumed, or as soon as a non-0002 group is seen (defensive fallback
// for files with a missing or wrong group length).
func walkMetaGroup(c *bytecursor.Cursor, state *element.State, res *Result) {
	start := c.Pos()
	metaEl := element.ReadElement(c, state)
	if metaEl.Tag != tag.FileMetaInformationGroupLength {
		// Unusual but not fatal: rewind and fall through to per-element
		// group checks below.
		c.Seek(start)
	} else {
		groupLen, _ := c.ReadU32(bytecursor.LittleEndian)
		metaEnd := metaEl.ValueOffset + int(groupLen)
		for c.Pos() < metaEnd && c.Remaining() > 0 {
			el := element.ReadElement(c, state)
			captureMetaElement(c, el, res)
		}
		return
	}

	for c.Remaining() > 0 {
		peeked := c.Peek(2)
		if len(peeked) < 2 {
			return
		}
		group := uint16(peeked[0]) | uint16(peeked[1])<<8
		if state.Endian == bytecursor.BigEndian {
			group = uint16(peeked[0])<<8 | uint16(peeked[1])
		}
		if group != 0x0002 {
			return
		}
		el := element.ReadElement(c, state)
		captureMetaElement(c, el, res)
	}
}

func captureMetaElement(c *bytecursor.Cursor, el element.Element, res *Result) {
	if el.Tag == tag.TransferSyntaxUID {
		s, _ := c.ReadString(int(el.Length))
		res.Geometry.TransferSyntaxUID = s
		return
	}
	c.Skip(int(el.Length))
}

// handleElement dispatches one dataset element to its typed handler (if
// any) and records a formatted metadata string, per spec.md §4.4. The icon
// image sequence and private sequences are skipped without a metadata entry.
// In an implicit-VR stream the element's VR is first recovered from the tag
// dictionary; tags the dictionary does not know stay ImplicitRaw.
func handleElement(c *bytecursor.Cursor, state *element.State, res *Result, el element.Element) {
	if el.VR == vr.ImplicitRaw && !state.ExplicitVR {
		if code := tag.VRCode(el.Tag); len(code) == 2 {
			if recovered := vr.FromBytes(code[0], code[1]); recovered != vr.Unknown {
				el.VR = recovered
			}
		}
	}

	switch el.Tag {
	case tag.RedPaletteColorLUTData, tag.GreenPaletteColorLUTData, tag.BluePaletteColorLUTData:
		raw := c.Bytes(int(el.Length))
		lut := downsampleLUT(raw)
		switch el.Tag {
		case tag.RedPaletteColorLUTData:
			res.Geometry.RedLUT = lut
		case tag.GreenPaletteColorLUTData:
			res.Geometry.GreenLUT = lut
		case tag.BluePaletteColorLUTData:
			res.Geometry.BlueLUT = lut
		}
		recordMetadata(res, state, el.Tag, fmt.Sprintf("%d LUT entries", len(lut)))
		return
	}

	if el.VR.IsSequence() {
		handleSequence(c, state, res, el)
		return
	}

	value := readGenericValue(c, state, el)
	applyTypedHandler(res, el.Tag, value)
	recordMetadata(res, state, el.Tag, value)
}

func handleSequence(c *bytecursor.Cursor, state *element.State, res *Result, el element.Element) {
	if el.UndefinedLength {
		skipSequenceItems(c, state.Endian)
		// The delimiter has been consumed: the cursor is no longer inside
		// the sequence.
		state.InSequence = false
	} else {
		c.Skip(int(el.Length))
	}
	if el.Tag == tag.IconImageSequence || el.Tag.IsPrivate() {
		return
	}
	recordMetadata(res, state, el.Tag, "")
}

func skipSequenceItems(c *bytecursor.Cursor, e bytecursor.Endian) {
	for c.Remaining() >= 8 {
		group, _ := c.ReadU16(e)
		elem, _ := c.ReadU16(e)
		length, _ := c.ReadU32(e)
		t := tag.New(group, elem)
		switch t {
		case tag.SequenceDelimitationItem:
			return
		case tag.Item:
			if length == 0xFFFFFFFF {
				skipItemContent(c, e)
			} else {
				c.Skip(int(length))
			}
		default:
			return
		}
	}
}

func skipItemContent(c *bytecursor.Cursor, e bytecursor.Endian) {
	for c.Remaining() >= 8 {
		group, _ := c.ReadU16(e)
		elem, _ := c.ReadU16(e)
		length, _ := c.ReadU32(e)
		t := tag.New(group, elem)
		if t == tag.ItemDelimitationItem {
			return
		}
		if length == 0xFFFFFFFF {
			skipItemContent(c, e)
		} else {
			c.Skip(int(length))
		}
	}
}

// readGenericValue reads an element's value into a display string per the
// VR-keyed dispatch table in spec.md §4.4, advancing the cursor regardless
// of whether the value is ultimately needed.
func readGenericValue(c *bytecursor.Cursor, state *element.State, el element.Element) string {
	switch el.VR {
	case vr.AE, vr.AS, vr.AT, vr.CS, vr.DA, vr.DS, vr.DT, vr.IS, vr.LO, vr.LT, vr.PN, vr.SH, vr.ST, vr.TM, vr.UI:
		s, _ := c.ReadString(int(el.Length))
		return s
	case vr.US:
		n := int(el.Length) / 2
		parts := make([]string, 0, n)
		for i := 0; i < n; i++ {
			v, _ := c.ReadU16(state.Endian)
			parts = append(parts, strconv.Itoa(int(v)))
		}
		return strings.Join(parts, " ")
	case vr.FD:
		n := int(el.Length) / 8
		parts := make([]string, 0, n)
		for i := 0; i < n; i++ {
			v, _ := c.ReadF64(state.Endian)
			parts = append(parts, strconv.FormatFloat(v, 'g', -1, 64))
		}
		return strings.Join(parts, " ")
	case vr.FL:
		n := int(el.Length) / 4
		parts := make([]string, 0, n)
		for i := 0; i < n; i++ {
			v, _ := c.ReadF32(state.Endian)
			parts = append(parts, strconv.FormatFloat(float64(v), 'g', -1, 32))
		}
		return strings.Join(parts, " ")
	case vr.ImplicitRaw:
		if el.Length <= 44 {
			s, _ := c.ReadString(int(el.Length))
			return s
		}
		c.Skip(int(el.Length))
		return ""
	default:
		c.Skip(int(el.Length))
		return ""
	}
}

func recordMetadata(res *Result, state *element.State, t tag.Tag, value string) {
	desc := tag.Description(t)
	s := fmt.Sprintf("%s: %s", desc, value)
	if state.InSequence {
		s = ">" + s
	}
	res.Metadata[t] = s
}

func downsampleLUT(raw []byte) []byte {
	if len(raw)%2 != 0 {
		return nil
	}
	out := make([]byte, len(raw)/2)
	for i := range out {
		// Keep the high byte of each little-endian 16-bit LUT entry.
		out[i] = raw[i*2+1]
	}
	return out
}

func applyTypedHandler(res *Result, t tag.Tag, value string) {
	g := &res.Geometry
	switch t {
	case tag.PhotometricInterpretation:
		g.PhotometricInterpretation = value
	case tag.NumberOfFrames:
		g.NumberOfFrames = parseInt(value, 1)
	case tag.SamplesPerPixel:
		g.SamplesPerPixel = parseInt(value, 1)
	case tag.PlanarConfiguration:
		g.PlanarConfiguration = parseInt(value, 0)
	case tag.Rows:
		g.Height = parseInt(value, 0)
	case tag.Columns:
		g.Width = parseInt(value, 0)
	case tag.PixelSpacing:
		parts := strings.Split(value, "\\")
		if len(parts) >= 2 {
			g.PixelSpacingY = parseFloat(parts[0], 1)
			g.PixelSpacingX = parseFloat(parts[1], 1)
			g.HasPixelSpacing = true
		}
	case tag.ImageOrientationPatient:
		parts := strings.Split(value, "\\")
		if len(parts) >= 6 {
			var row, col [3]float64
			for i := 0; i < 3; i++ {
				row[i] = parseFloat(parts[i], 0)
				col[i] = parseFloat(parts[i+3], 0)
			}
			g.OrientationRow = normalize(row)
			g.OrientationCol = normalize(col)
			g.HasOrientation = true
		}
	case tag.ImagePositionPatient:
		parts := strings.Split(value, "\\")
		if len(parts) >= 3 {
			for i := 0; i < 3; i++ {
				g.ImagePositionPatient[i] = parseFloat(parts[i], 0)
			}
			g.HasPosition = true
		}
	case tag.SliceThickness:
		g.TagSpacingZ = parseFloat(value, 0)
		if !g.HasSpacingZ {
			g.SpacingZ = g.TagSpacingZ
		}
		g.HasSpacingZ = true
	case tag.SpacingBetweenSlices:
		z := parseFloat(value, 0)
		g.SpacingZ = z
		g.TagSpacingZ = z
		g.HasSpacingZ = true
	case tag.BitsAllocated:
		g.BitDepth = parseInt(value, 0)
	case tag.PixelRepresentation:
		g.PixelRepresentationSigned = parseInt(value, 0) == 1
	case tag.WindowCenter:
		parts := strings.Split(value, "\\")
		g.WindowCenter = parseFloat(parts[len(parts)-1], 0)
		g.HasWindow = true
	case tag.WindowWidth:
		parts := strings.Split(value, "\\")
		g.WindowWidth = parseFloat(parts[len(parts)-1], 0)
		g.HasWindow = true
	case tag.RescaleIntercept:
		g.RescaleIntercept = parseFloat(value, 0)
	case tag.RescaleSlope:
		g.RescaleSlope = parseFloat(value, 1)
	case tag.InstanceNumber:
		g.InstanceNumber = parseInt(value, 0)
		g.HasInstanceNumber = true
	}
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseFloat(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}

func normalize(v [3]float64) [3]float64 {
	mag := v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
	if mag <= 0 {
		return v
	}
	m := math.Sqrt(mag)
	return [3]float64{v[0] / m, v[1] / m, v[2] / m}
}

// recoverTrailingPixelOffset implements spec.md §4.4's fallback: if
// PixelData was never located but w·h·samples·(bits/8) bytes fit exactly at
// the file's tail, assume that is the pixel data and warn.
func recoverTrailingPixelOffset(data []byte, res *Result) {
	g := res.Geometry
	if g.Width <= 0 || g.Height <= 0 || g.SamplesPerPixel <= 0 || g.BitDepth <= 0 {
		return
	}
	expected := g.Width * g.Height * g.SamplesPerPixel * (g.BitDepth / 8)
	if expected <= 0 || expected > len(data) {
		return
	}
	offset := len(data) - expected
	slog.Warn("PixelData element not found; recovering from trailing bytes",
		slog.Int("offset", offset), slog.Int("expected_bytes", expected))
	res.PixelDataOffset = offset
	res.PixelDataLength = uint32(expected)
	res.RecoveredPixelOffset = true
}
