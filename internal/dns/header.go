package dns

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the wire size of a DNS message header: six 16-bit fields,
// always 12 bytes regardless of what follows.
const HeaderSize = 12

// Header is the fixed 12-byte preamble of every DNS message (RFC 1035
// §4.1.1): a transaction id, the flag bits (see enums.go), and the four
// section counts that tell a parser how many questions/records follow.
type Header struct {
	ID      uint16
	Flags   uint16
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// Marshal writes the header in its fixed big-endian layout.
func (h Header) Marshal() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	for i, v := range [6]uint16{h.ID, h.Flags, h.QDCount, h.ANCount, h.NSCount, h.ARCount} {
		binary.BigEndian.PutUint16(buf[i*2:i*2+2], v)
	}
	return buf, nil
}

// ParseHeader reads the 12-byte header starting at *pos and advances *pos
// past it.
func ParseHeader(msg []byte, pos *int) (Header, error) {
	if *pos+HeaderSize > len(msg) {
		return Header{}, fmt.Errorf("%w: header truncated", ErrMalformed)
	}
	var fields [6]uint16
	for i := range fields {
		fields[i] = binary.BigEndian.Uint16(msg[*pos+i*2 : *pos+i*2+2])
	}
	*pos += HeaderSize
	return Header{
		ID:      fields[0],
		Flags:   fields[1],
		QDCount: fields[2],
		ANCount: fields[3],
		NSCount: fields[4],
		ARCount: fields[5],
	}, nil
}
