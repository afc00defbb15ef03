package dns

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// maxCompressionDepth bounds how many compression pointers DecodeName will
// chase while resolving one name, independent of the loop-detection map —
// a cheap second line of defense against pathological but non-cyclic
// pointer chains.
const maxCompressionDepth = 10

// NormalizeName lowercases name and strips a trailing root dot, so two
// spellings of the same name (RFC 4343 case-insensitivity, RFC 1035's
// optional trailing dot) compare equal.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimRight(name, "."))
}

// EncodeName renders domain as a sequence of length-prefixed labels
// terminated by a zero-length (root) label, e.g. "www.example.com" becomes
// 0x03 www 0x07 example 0x03 com 0x00. It does not perform message
// compression — that needs knowledge of names already written elsewhere in
// the message, which only Packet.Marshal has.
func EncodeName(domain string) ([]byte, error) {
	if domain == "" {
		return nil, fmt.Errorf("%w: empty domain name", ErrMalformed)
	}
	domain = strings.TrimRight(domain, ".")
	if domain == "" {
		return []byte{0}, nil
	}

	labels := strings.Split(domain, ".")
	out := make([]byte, 0, len(domain)+2)
	for _, label := range labels {
		if label == "" {
			return nil, fmt.Errorf("%w: empty label in domain name %q", ErrMalformed, domain)
		}
		if len(label) > 63 {
			return nil, fmt.Errorf("%w: label %q exceeds 63 bytes", ErrMalformed, label)
		}
		for i := 0; i < len(label); i++ {
			if label[i] > 0x7F {
				return nil, fmt.Errorf("%w: non-ASCII byte in domain name %q", ErrMalformed, domain)
			}
		}
		out = append(out, byte(len(label)))
		out = append(out, label...)
	}
	out = append(out, 0)

	if len(out) > 255 {
		return nil, fmt.Errorf("%w: encoded name %d bytes exceeds 255-byte limit", ErrMalformed, len(out))
	}
	return out, nil
}

// DecodeName reads a (possibly compressed) name starting at *pos and
// advances *pos past it — including any compression pointer, which is
// always exactly 2 bytes regardless of how far it jumps.
func DecodeName(msg []byte, pos *int) (string, error) {
	return (&nameDecoder{msg: msg, seen: make(map[int]struct{})}).decodeAt(pos, 0)
}

// nameDecoder tracks the state shared across the recursive pointer-chasing
// calls DecodeName may make: which offsets have already been visited, so a
// pointer cycle is caught even if it never revisits the same offset twice
// in a row.
type nameDecoder struct {
	msg  []byte
	seen map[int]struct{}
}

func (d *nameDecoder) decodeAt(pos *int, depth int) (string, error) {
	if depth > maxCompressionDepth {
		return "", fmt.Errorf("%w: compression pointer chain too deep", ErrMalformed)
	}
	if *pos < 0 || *pos >= len(d.msg) {
		return "", fmt.Errorf("%w: name decode ran past end of message", ErrMalformed)
	}

	var labels []string
	for {
		if *pos >= len(d.msg) {
			return "", fmt.Errorf("%w: name decode ran past end of message", ErrMalformed)
		}
		lead := d.msg[*pos]
		*pos++

		switch {
		case lead == 0:
			return strings.Join(labels, "."), nil
		case lead&0xC0 == 0xC0:
			tail, err := d.followPointer(pos, lead, depth)
			if err != nil {
				return "", err
			}
			if tail != "" {
				labels = append(labels, tail)
			}
			return strings.Join(labels, "."), nil
		case lead&0xC0 != 0:
			return "", fmt.Errorf("%w: reserved label length bits set", ErrMalformed)
		default:
			label, err := d.readLabel(pos, int(lead))
			if err != nil {
				return "", err
			}
			labels = append(labels, label)
		}
	}
}

// followPointer resolves a 2-byte compression pointer (RFC 1035 §4.1.4):
// the low 6 bits of lead plus the following byte form a 14-bit offset from
// the start of the message.
func (d *nameDecoder) followPointer(pos *int, lead byte, depth int) (string, error) {
	if *pos >= len(d.msg) {
		return "", fmt.Errorf("%w: truncated compression pointer", ErrMalformed)
	}
	target := int(binary.BigEndian.Uint16([]byte{lead & 0x3F, d.msg[*pos]}))
	*pos++

	if target >= len(d.msg) {
		return "", fmt.Errorf("%w: compression pointer targets offset %d past message end", ErrMalformed, target)
	}
	if _, dup := d.seen[target]; dup {
		return "", fmt.Errorf("%w: compression pointer loop at offset %d", ErrMalformed, target)
	}
	d.seen[target] = struct{}{}

	jump := target
	return d.decodeAt(&jump, depth+1)
}

func (d *nameDecoder) readLabel(pos *int, length int) (string, error) {
	if *pos+length > len(d.msg) {
		return "", fmt.Errorf("%w: label of length %d runs past end of message", ErrMalformed, length)
	}
	raw := d.msg[*pos : *pos+length]
	*pos += length
	for _, b := range raw {
		if b > 0x7F {
			return "", fmt.Errorf("%w: non-ASCII byte in decoded label", ErrMalformed)
		}
	}
	return string(raw), nil
}
