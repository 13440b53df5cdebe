// Package pixel implements the uncompressed pixel reader (spec.md §4.5): it
// dispatches on (samples_per_pixel, bit_depth), applying signed-to-unsigned
// normalization and MONOCHROME1 inversion the way the rest of the decoder
// expects every downstream buffer to look. Grounded on the teacher repo's
// pkg/dicos/pixeldata.go frame-extraction loop, generalized from the
// teacher's fixed DICOS pixel shapes to the dispatch table spec.md §4.5
// names explicitly.
package pixel

import (
	"encoding/binary"

	"github.com/jpfielding/dcmvol/pkg/dcmvol/dcmerr"
)

const (
	monochrome1 = "MONOCHROME1"
)

// Frame is one decoded image frame, normalized to unsigned samples per
// spec.md §4.1: signed sources are shifted by -math.MinInt16 so all
// downstream code (windowing, series assembly) treats every buffer as u16,
// with IsSigned preserved for clients that need to reinterpret.
type Frame struct {
	Width, Height   int
	SamplesPerPixel int
	IsSigned        bool
	// Data holds Width*Height*SamplesPerPixel samples. For 8-bit sources
	// each sample still occupies one uint16 (zero-extended), keeping a
	// single element type across the whole decoder.
	Data []uint16
}

// Options carries the geometry fields UncompressedPixelReader needs, a
// narrow slice of header.Geometry so this package does not import header
// (which would create an import cycle once header starts calling into
// pixel for fallback recovery sizing).
type Options struct {
	Width, Height             int
	SamplesPerPixel           int
	BitDepth                  int
	PixelRepresentationSigned bool
	PhotometricInterpretation string
}

// Decode dispatches on (SamplesPerPixel, BitDepth) per spec.md §4.5. Unknown
// combinations return a nil Frame and no error; FileDecoder.Pixels turns a
// nil Frame into an UnsupportedPixelShape error.
func Decode(raw []byte, opt Options) (*Frame, error) {
	switch {
	case opt.SamplesPerPixel == 1 && opt.BitDepth == 8:
		return decodeMono8(raw, opt)
	case opt.SamplesPerPixel == 1 && opt.BitDepth == 16:
		return decodeMono16(raw, opt)
	case opt.SamplesPerPixel == 3 && opt.BitDepth == 8:
		return decodeRGB8(raw, opt)
	default:
		return nil, nil
	}
}

func decodeMono8(raw []byte, opt Options) (*Frame, error) {
	n := opt.Width * opt.Height
	if len(raw) < n {
		return nil, dcmerr.NewShortRead(n, len(raw), 0)
	}
	data := make([]uint16, n)
	invert := opt.PhotometricInterpretation == monochrome1
	for i := 0; i < n; i++ {
		v := raw[i]
		if invert {
			v = 255 - v
		}
		data[i] = uint16(v)
	}
	return &Frame{
		Width: opt.Width, Height: opt.Height, SamplesPerPixel: 1,
		IsSigned: opt.PixelRepresentationSigned, Data: data,
	}, nil
}

func decodeMono16(raw []byte, opt Options) (*Frame, error) {
	n := opt.Width * opt.Height
	need := n * 2
	if len(raw) < need {
		return nil, dcmerr.NewShortRead(need, len(raw), 0)
	}
	data := make([]uint16, n)
	invert := opt.PhotometricInterpretation == monochrome1
	for i := 0; i < n; i++ {
		raw16 := binary.LittleEndian.Uint16(raw[i*2 : i*2+2])
		var v uint16
		if opt.PixelRepresentationSigned {
			signed := int16(raw16)
			v = uint16(int32(signed) + 32768)
			if invert {
				v = uint16(32768 - (int32(v) - 32768))
			}
		} else {
			v = raw16
			if invert {
				v = 65535 - v
			}
		}
		data[i] = v
	}
	return &Frame{
		Width: opt.Width, Height: opt.Height, SamplesPerPixel: 1,
		IsSigned: opt.PixelRepresentationSigned, Data: data,
	}, nil
}

func decodeRGB8(raw []byte, opt Options) (*Frame, error) {
	n := opt.Width * opt.Height * 3
	if len(raw) < n {
		return nil, dcmerr.NewShortRead(n, len(raw), 0)
	}
	data := make([]uint16, n)
	for i := 0; i < n; i++ {
		data[i] = uint16(raw[i])
	}
	return &Frame{
		Width: opt.Width, Height: opt.Height, SamplesPerPixel: 3,
		IsSigned: false, Data: data,
	}, nil
}
