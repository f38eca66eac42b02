package marker

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

type recordHeader struct {
	XOffset, XTile uint8
	_              [2]byte
	YOffset, YTile uint8
	_              [2]byte
	Icon           uint32
	DescLen        uint16
}

const recordHeaderSize = 14

// Decode parses a marker block and returns its markers normalized (see
// Normalize), each placed on floor z.
//
// An empty block yields no markers and no error. A block too short for
// what it declares yields ErrTruncatedMarkerBlock and no markers. Bytes
// following the last declared record are ignored.
func Decode(block []byte, z int) ([]Marker, error) {
	if len(block) == 0 {
		return nil, nil
	}

	r := bytes.NewReader(block)
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, errors.Wrapf(ErrTruncatedMarkerBlock, "count: %d bytes", len(block))
	}
	// Every record takes at least a header; refuse counts that cannot fit
	// before allocating for them.
	if uint64(count)*recordHeaderSize > uint64(r.Len()) {
		return nil, errors.Wrapf(ErrTruncatedMarkerBlock, "%d records declared, %d bytes remain", count, r.Len())
	}

	dec := charmap.Windows1252.NewDecoder()
	ms := make([]Marker, 0, count)
	for i := uint32(0); i < count; i++ {
		var h recordHeader
		if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
			return nil, errors.Wrapf(ErrTruncatedMarkerBlock, "record %d header: %v", i, err)
		}
		if int(h.DescLen) > r.Len() {
			return nil, errors.Wrapf(ErrTruncatedMarkerBlock, "record %d description: need %d bytes, %d remain", i, h.DescLen, r.Len())
		}
		raw := make([]byte, h.DescLen)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, errors.Wrapf(ErrTruncatedMarkerBlock, "record %d description: %v", i, err)
		}
		desc, err := dec.Bytes(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "marker: record %d description", i)
		}
		ms = append(ms, Marker{
			X:           int(h.XTile)<<8 | int(h.XOffset),
			Y:           int(h.YTile)<<8 | int(h.YOffset),
			Z:           z,
			Icon:        Icon(h.Icon),
			Description: string(desc),
		})
	}
	return Normalize(ms), nil
}

// Encode writes markers as a block, in the given order. The floor of each
// marker is not stored.
//
// Callers wanting the client's canonical order pass the markers through
// Normalize first.
func Encode(ms []Marker) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(ms))); err != nil {
		return nil, err
	}
	enc := charmap.Windows1252.NewEncoder()
	for _, m := range ms {
		if m.X < 0 || m.X > MaxCoord || m.Y < 0 || m.Y > MaxCoord {
			return nil, errors.Wrapf(ErrMarkerOutOfRange, "%s: position", m)
		}
		desc, err := enc.Bytes([]byte(m.Description))
		if err != nil {
			return nil, errors.Wrapf(ErrMarkerOutOfRange, "%s: description not representable in Windows-1252: %v", m, err)
		}
		if len(desc) > 0xFFFF {
			return nil, errors.Wrapf(ErrMarkerOutOfRange, "%s: description is %d bytes", m, len(desc))
		}
		h := recordHeader{
			XOffset: uint8(m.X),
			XTile:   uint8(m.X >> 8),
			YOffset: uint8(m.Y),
			YTile:   uint8(m.Y >> 8),
			Icon:    uint32(m.Icon),
			DescLen: uint16(len(desc)),
		}
		if err := binary.Write(buf, binary.LittleEndian, &h); err != nil {
			return nil, err
		}
		buf.Write(desc)
	}
	return buf.Bytes(), nil
}
