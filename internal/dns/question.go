package dns

import (
	"encoding/binary"
	"fmt"
)

// Question is one entry of a message's question section (RFC 1035
// §4.1.2): the name being asked about, plus the record type and class
// wanted.
type Question struct {
	Name  string
	Type  uint16
	Class uint16
}

// Marshal encodes the question as name-label-sequence + QTYPE + QCLASS.
func (q Question) Marshal() ([]byte, error) {
	nameWire, err := EncodeName(q.Name)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(nameWire)+4)
	copy(out, nameWire)
	binary.BigEndian.PutUint16(out[len(nameWire):], q.Type)
	binary.BigEndian.PutUint16(out[len(nameWire)+2:], q.Class)
	return out, nil
}

// ParseQuestion reads one question starting at *pos and advances *pos past
// it. The name is normalized (NormalizeName) so later lookups don't have to
// care about case or a trailing root dot.
func ParseQuestion(msg []byte, pos *int) (Question, error) {
	name, err := DecodeName(msg, pos)
	if err != nil {
		return Question{}, err
	}
	if *pos+4 > len(msg) {
		return Question{}, fmt.Errorf("%w: question truncated after name %q", ErrMalformed, name)
	}
	q := Question{
		Name:  NormalizeName(name),
		Type:  binary.BigEndian.Uint16(msg[*pos : *pos+2]),
		Class: binary.BigEndian.Uint16(msg[*pos+2 : *pos+4]),
	}
	*pos += 4
	return q, nil
}
