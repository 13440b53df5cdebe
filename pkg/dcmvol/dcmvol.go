// Package dcmvol is the public facade (spec.md §4.9): FileDecoder for a
// single file's header and pixel data, and the PixelBuffer value type the
// rest of the API exchanges. Grounded on the teacher repo's
// pkg/dicos/dicos.go (ReadFile/ReadBuffer/GetPixelData convenience layer)
// and decode.go (compressed-frame dispatch), rewritten against this
// module's own header/pixel/jpeglossless/transfer packages instead of the
// teacher's Dataset/PixelData types.
package dcmvol

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/jpfielding/dcmvol/pkg/compress/jpeglossless"
	"github.com/jpfielding/dcmvol/pkg/dcmvol/bytecursor"
	"github.com/jpfielding/dcmvol/pkg/dcmvol/dcmerr"
	"github.com/jpfielding/dcmvol/pkg/dcmvol/header"
	"github.com/jpfielding/dcmvol/pkg/dcmvol/pixel"
	"github.com/jpfielding/dcmvol/pkg/dcmvol/tag"
	"github.com/jpfielding/dcmvol/pkg/dcmvol/transfer"
)

// PixelBuffer is the decoded pixel payload returned by FileDecoder.Pixels.
type PixelBuffer struct {
	Width, Height   int
	SamplesPerPixel int
	IsSigned        bool
	Data            []uint16
}

// FileDecoder parses one DICOM file's header eagerly and its pixel data
// lazily. Per spec.md §5, each FileDecoder instance serializes its own
// decode work behind a mutex; it is not meant to be shared for concurrent
// pixel access without that serialization (SeriesAssembler instead creates
// a separate FileDecoder for each slice).
type FileDecoder struct {
	path string
	data []byte

	mu     sync.Mutex
	header *header.Result
	pixels *PixelBuffer
}

// FromPath reads and parses the DICOM file at path.
func FromPath(path string) (*FileDecoder, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, dcmerr.NewFileNotFound(path)
		}
		return nil, dcmerr.NewIo(err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, dcmerr.NewIo(err)
	}
	d, err := FromBytes(data)
	if err != nil {
		if de, ok := err.(*dcmerr.DecodeError); ok {
			de.Path = path
		}
		return nil, err
	}
	d.path = path
	return d, nil
}

// FromBytes parses an in-memory DICOM file.
func FromBytes(data []byte) (*FileDecoder, error) {
	res, err := header.Walk(data)
	if err != nil {
		return nil, err
	}
	return &FileDecoder{data: data, header: res}, nil
}

// Info returns the formatted "<description>: <value>" metadata string
// recorded for t, or "" if t was never seen.
func (d *FileDecoder) Info(t tag.Tag) string {
	return d.header.Metadata[t]
}

// Int parses the raw numeric fields HeaderWalker already extracted into
// Geometry for the handful of tags it tracks; for anything else it is not
// a typed accessor, matching spec.md's "read the parsed metadata
// dictionary" framing rather than a generic numeric parser over every tag.
func (d *FileDecoder) Int(t tag.Tag) (int, bool) {
	g := d.header.Geometry
	switch t {
	case tag.Rows:
		return g.Height, g.Height != 0
	case tag.Columns:
		return g.Width, g.Width != 0
	case tag.BitsAllocated:
		return g.BitDepth, g.BitDepth != 0
	case tag.SamplesPerPixel:
		return g.SamplesPerPixel, true
	case tag.NumberOfFrames:
		return g.NumberOfFrames, true
	case tag.InstanceNumber:
		return g.InstanceNumber, g.HasInstanceNumber
	case tag.PixelRepresentation:
		if g.PixelRepresentationSigned {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Float mirrors Int for the typed floating-point geometry fields.
func (d *FileDecoder) Float(t tag.Tag) (float64, bool) {
	g := d.header.Geometry
	switch t {
	case tag.WindowCenter:
		return g.WindowCenter, g.HasWindow
	case tag.WindowWidth:
		return g.WindowWidth, g.HasWindow
	case tag.RescaleIntercept:
		return g.RescaleIntercept, true
	case tag.RescaleSlope:
		return g.RescaleSlope, true
	case tag.SliceThickness, tag.SpacingBetweenSlices:
		return g.SpacingZ, g.HasSpacingZ
	default:
		return 0, false
	}
}

// Geometry exposes the typed image descriptor HeaderWalker produced.
func (d *FileDecoder) Geometry() header.Geometry {
	return d.header.Geometry
}

// Pixels decodes and returns this file's pixel data, caching the result.
// Uncompressed transfer syntaxes are handled by pkg/dcmvol/pixel directly;
// JPEG Lossless transfer syntaxes are parsed from the encapsulated item
// stream and handed to pkg/compress/jpeglossless.
func (d *FileDecoder) Pixels() (*PixelBuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pixels != nil {
		return d.pixels, nil
	}
	if d.header.PixelDataOffset < 0 {
		return nil, dcmerr.NewInvalidDicomFormat("no pixel data located")
	}

	g := d.header.Geometry
	flags := transfer.FromUID(g.TransferSyntaxUID)
	if flags.Rejected {
		return nil, dcmerr.NewUnsupportedTransferSyntax(g.TransferSyntaxUID)
	}

	var buf *PixelBuffer
	var err error
	if flags.Compressed {
		buf, err = d.decodeCompressed(g)
	} else {
		buf, err = d.decodeUncompressed(g)
	}
	if err != nil {
		return nil, err
	}
	d.pixels = buf
	return buf, nil
}

func (d *FileDecoder) decodeUncompressed(g header.Geometry) (*PixelBuffer, error) {
	if g.Width <= 0 || g.Height <= 0 {
		return nil, dcmerr.NewInvalidDicomFormat("missing Rows/Columns")
	}
	raw := d.data[d.header.PixelDataOffset:]
	need := int(d.header.PixelDataLength)
	if need > 0 && need <= len(raw) {
		raw = raw[:need]
	}

	frame, err := pixel.Decode(raw, pixel.Options{
		Width: g.Width, Height: g.Height,
		SamplesPerPixel:           g.SamplesPerPixel,
		BitDepth:                  g.BitDepth,
		PixelRepresentationSigned: g.PixelRepresentationSigned,
		PhotometricInterpretation: g.PhotometricInterpretation,
	})
	if err != nil {
		return nil, err
	}
	if frame == nil {
		return nil, dcmerr.NewUnsupportedPixelShape(g.SamplesPerPixel, g.BitDepth)
	}
	return &PixelBuffer{
		Width: frame.Width, Height: frame.Height,
		SamplesPerPixel: frame.SamplesPerPixel, IsSigned: frame.IsSigned,
		Data: frame.Data,
	}, nil
}

func (d *FileDecoder) decodeCompressed(g header.Geometry) (*PixelBuffer, error) {
	if !transfer.IsJPEGLossless(g.TransferSyntaxUID) {
		return nil, dcmerr.NewUnsupportedTransferSyntax(g.TransferSyntaxUID)
	}

	items, err := readEncapsulatedItems(d.data, d.header.PixelDataOffset)
	if err != nil {
		return nil, dcmerr.NewInvalidDicomFormat(err.Error())
	}
	if len(items) == 0 {
		return nil, dcmerr.NewInvalidDicomFormat("encapsulated pixel data has no items")
	}
	// items[0] is the Basic Offset Table; frame payloads follow.
	frameItems := items
	if len(items) > 1 {
		frameItems = items[1:]
	}
	if len(frameItems) == 0 {
		return nil, dcmerr.NewInvalidDicomFormat("encapsulated pixel data has no frame items")
	}

	frame, err := jpeglossless.Decode(bytes.NewReader(frameItems[0]))
	if err != nil {
		return nil, dcmerr.NewFailedToDecode(d.path)
	}

	return &PixelBuffer{
		Width: frame.Width, Height: frame.Height,
		SamplesPerPixel: 1, IsSigned: g.PixelRepresentationSigned,
		Data: frame.Data,
	}, nil
}

// readEncapsulatedItems walks the Item (FFFE,E000)-delimited sequence that
// follows an undefined-length PixelData element, returning each item's raw
// payload in order.
func readEncapsulatedItems(data []byte, offset int) ([][]byte, error) {
	c := bytecursor.New(data)
	c.Seek(offset)

	var items [][]byte
	for c.Remaining() >= 8 {
		group, _ := c.ReadU16(bytecursor.LittleEndian)
		elem, _ := c.ReadU16(bytecursor.LittleEndian)
		length, _ := c.ReadU32(bytecursor.LittleEndian)
		t := tag.New(group, elem)
		if t == tag.SequenceDelimitationItem {
			break
		}
		if t != tag.Item {
			return nil, fmt.Errorf("unexpected tag %s in encapsulated pixel data", t.Format())
		}
		items = append(items, c.Bytes(int(length)))
	}
	return items, nil
}
