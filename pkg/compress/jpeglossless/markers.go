// Package jpeglossless implements the ITU-T T.81 Annex H lossless Huffman
// JPEG bitstream used by DICOM's JPEG Lossless, Non-Hierarchical, First
// Order Prediction transfer syntaxes (1.2.840.10008.1.2.4.57 and .70).
// Grounded on the teacher repo's pkg/compress/jpegli package (marker
// grammar, Huffman table construction, and predictive reconstruction loop),
// adapted to decode directly into the flat []uint16 sample buffer the rest
// of this module uses rather than an image.Image.
package jpeglossless

import (
	"fmt"
	"io"
	"log/slog"
)

// JPEG markers relevant to the lossless Huffman profile.
const (
	markerSOI  = 0xFFD8
	markerEOI  = 0xFFD9
	markerSOF3 = 0xFFC3
	markerDHT  = 0xFFC4
	markerSOS  = 0xFFDA
	markerDRI  = 0xFFDD
)

// Frame is one decoded grayscale frame.
type Frame struct {
	Width, Height int
	Precision     int
	Data          []uint16
}

type componentInfo struct {
	id         int
	tableIndex int
}

type huffmanTable struct {
	bits   [17]int
	values []byte
	codes  []uint16
	sizes  []int
	lookup [256]int16
}

type decoder struct {
	r io.Reader

	precision int
	width     int
	height    int

	compInfo []componentInfo
	dcTables [4]*huffmanTable

	predictor  int
	pointTrans int

	restartInterval int
}

// Decode reads one JPEG Lossless bitstream from r.
func Decode(r io.Reader) (*Frame, error) {
	d := &decoder{r: r}
	return d.decode()
}

func (d *decoder) decode() (*Frame, error) {
	if err := d.expectMarker(markerSOI); err != nil {
		return nil, fmt.Errorf("expected SOI: %w", err)
	}

	for {
		marker, err := d.readMarker()
		if err != nil {
			return nil, err
		}

		switch marker {
		case markerSOF3:
			if err := d.readSOF(); err != nil {
				return nil, err
			}
		case markerDHT:
			if err := d.readDHT(); err != nil {
				return nil, err
			}
		case markerSOS:
			return d.decodeScan()
		case markerDRI:
			if err := d.readDRI(); err != nil {
				return nil, err
			}
		case markerEOI:
			return nil, fmt.Errorf("unexpected EOI before scan data")
		default:
			if marker >= 0xFFC0 && marker <= 0xFFCF && marker != markerSOF3 {
				return nil, fmt.Errorf("unsupported SOF marker: 0x%04X", marker)
			}
			if err := d.skipMarkerData(); err != nil {
				return nil, err
			}
		}
	}
}

func (d *decoder) expectMarker(expected int) error {
	var buf [2]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return err
	}
	marker := int(buf[0])<<8 | int(buf[1])
	if marker != expected {
		return fmt.Errorf("expected marker 0x%04X, got 0x%04X", expected, marker)
	}
	return nil
}

func (d *decoder) readMarker() (int, error) {
	var buf [2]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return 0, err
	}
	if buf[0] != 0xFF {
		return 0, fmt.Errorf("expected marker, got 0x%02X", buf[0])
	}
	for buf[1] == 0xFF {
		if _, err := io.ReadFull(d.r, buf[1:]); err != nil {
			return 0, err
		}
	}
	return int(buf[0])<<8 | int(buf[1]), nil
}

func (d *decoder) skipMarkerData() error {
	var lenBuf [2]byte
	if _, err := io.ReadFull(d.r, lenBuf[:]); err != nil {
		return err
	}
	length := int(lenBuf[0])<<8 | int(lenBuf[1]) - 2
	if length > 0 {
		_, err := io.CopyN(io.Discard, d.r, int64(length))
		return err
	}
	return nil
}

func (d *decoder) readSOF() error {
	var lenBuf [2]byte
	if _, err := io.ReadFull(d.r, lenBuf[:]); err != nil {
		return err
	}
	length := int(lenBuf[0])<<8 | int(lenBuf[1]) - 2

	data := make([]byte, length)
	if _, err := io.ReadFull(d.r, data); err != nil {
		return err
	}

	d.precision = int(data[0])
	d.height = int(data[1])<<8 | int(data[2])
	d.width = int(data[3])<<8 | int(data[4])
	components := int(data[5])

	d.compInfo = make([]componentInfo, components)
	for i := 0; i < components; i++ {
		offset := 6 + i*3
		d.compInfo[i] = componentInfo{id: int(data[offset]), tableIndex: 0}
	}

	slog.Debug("jpeglossless: SOF3 parsed",
		slog.Int("precision", d.precision), slog.Int("width", d.width),
		slog.Int("height", d.height), slog.Int("components", components))
	return nil
}

func (d *decoder) readDHT() error {
	var lenBuf [2]byte
	if _, err := io.ReadFull(d.r, lenBuf[:]); err != nil {
		return err
	}
	length := int(lenBuf[0])<<8 | int(lenBuf[1]) - 2

	data := make([]byte, length)
	if _, err := io.ReadFull(d.r, data); err != nil {
		return err
	}

	offset := 0
	for offset < len(data) {
		tableInfo := data[offset]
		tableClass := int(tableInfo >> 4)
		tableID := int(tableInfo & 0x0F)
		offset++

		if tableClass != 0 {
			// Lossless mode only uses DC (class 0) tables; skip AC defs.
			var count int
			for i := 0; i < 16; i++ {
				count += int(data[offset+i])
			}
			offset += 16 + count
			continue
		}
		if tableID >= 4 {
			return fmt.Errorf("invalid Huffman table ID: %d", tableID)
		}

		ht := &huffmanTable{}
		var totalCodes int
		for i := 0; i < 16; i++ {
			ht.bits[i+1] = int(data[offset+i])
			totalCodes += ht.bits[i+1]
		}
		offset += 16

		ht.values = make([]byte, totalCodes)
		copy(ht.values, data[offset:offset+totalCodes])
		offset += totalCodes

		generateHuffmanCodes(ht)
		d.dcTables[tableID] = ht
	}
	return nil
}

func generateHuffmanCodes(ht *huffmanTable) {
	var totalCodes int
	for i := 1; i <= 16; i++ {
		totalCodes += ht.bits[i]
	}
	ht.codes = make([]uint16, totalCodes)
	ht.sizes = make([]int, totalCodes)

	k := 0
	for i := 1; i <= 16; i++ {
		for j := 0; j < ht.bits[i]; j++ {
			ht.sizes[k] = i
			k++
		}
	}

	code := uint16(0)
	if totalCodes > 0 {
		si := ht.sizes[0]
		for k := 0; k < totalCodes; k++ {
			for ht.sizes[k] > si {
				code <<= 1
				si++
			}
			ht.codes[k] = code
			code++
		}
	}

	for i := range ht.lookup {
		ht.lookup[i] = -1
	}
	for k := 0; k < totalCodes; k++ {
		size := ht.sizes[k]
		if size <= 8 {
			base := ht.codes[k] << (8 - size)
			count := 1 << (8 - size)
			for i := 0; i < count; i++ {
				ht.lookup[int(base)+i] = int16(size)<<8 | int16(ht.values[k])
			}
		}
	}
}

func (d *decoder) readDRI() error {
	var buf [4]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return err
	}
	d.restartInterval = int(buf[2])<<8 | int(buf[3])
	return nil
}

func (d *decoder) readSOS() error {
	var lenBuf [2]byte
	if _, err := io.ReadFull(d.r, lenBuf[:]); err != nil {
		return err
	}
	length := int(lenBuf[0])<<8 | int(lenBuf[1]) - 2

	data := make([]byte, length)
	if _, err := io.ReadFull(d.r, data); err != nil {
		return err
	}

	numComponents := int(data[0])
	offset := 1
	for i := 0; i < numComponents; i++ {
		selector := int(data[offset])
		tableMapping := int(data[offset+1])
		offset += 2
		for j := range d.compInfo {
			if d.compInfo[j].id == selector {
				d.compInfo[j].tableIndex = tableMapping >> 4
			}
		}
	}

	d.predictor = int(data[offset]) // Ss: predictor selection value
	offset++
	offset++ // Se, always 0 for lossless

	d.pointTrans = int(data[offset]) & 0x0F // Al, point transform

	if d.predictor != 1 {
		slog.Warn("jpeglossless: non-SV1 predictor in a SV1 stream, decoding as predictor 1 anyway",
			slog.Int("predictor", d.predictor))
	}

	return nil
}
