package dns

import (
	"encoding/binary"
	"fmt"
	"net"
)

// Record is a resource record as it appears in a message's answer,
// authority, or additional section (RFC 1035 §4.1.3). Data holds the
// type-specific RDATA, decoded where this package understands the type:
//
//   - A / AAAA / OPT / anything unrecognized: []byte (raw RDATA)
//   - CNAME / NS / PTR: string (a decoded name)
//   - MX: MXData
//   - TXT: string, []string, or []byte
type Record struct {
	Name  string
	Type  uint16
	Class uint16
	TTL   uint32
	Data  any
}

// MXData is the RDATA of an MX record: a preference value and the mail
// exchange's hostname.
type MXData struct {
	Preference uint16
	Exchange   string
}

// recordFixedFieldsSize is TYPE + CLASS + TTL + RDLENGTH, the part of a
// record that precedes its name-variable RDATA.
const recordFixedFieldsSize = 10

// ParseRecord reads one resource record starting at *pos and advances *pos
// past it, including its RDATA.
func ParseRecord(msg []byte, pos *int) (Record, error) {
	name, err := DecodeName(msg, pos)
	if err != nil {
		return Record{}, err
	}
	if *pos+recordFixedFieldsSize > len(msg) {
		return Record{}, fmt.Errorf("%w: record %q truncated before RDLENGTH", ErrMalformed, name)
	}
	rrType := binary.BigEndian.Uint16(msg[*pos : *pos+2])
	rrClass := binary.BigEndian.Uint16(msg[*pos+2 : *pos+4])
	ttl := binary.BigEndian.Uint32(msg[*pos+4 : *pos+8])
	rdlen := int(binary.BigEndian.Uint16(msg[*pos+8 : *pos+10]))
	*pos += recordFixedFieldsSize

	rdataStart := *pos
	if rdataStart+rdlen > len(msg) {
		return Record{}, fmt.Errorf("%w: record %q RDATA runs past end of message", ErrMalformed, name)
	}

	data, err := parseRData(msg, pos, RecordType(rrType), rdataStart, rdlen)
	if err != nil {
		return Record{}, err
	}
	return Record{Name: name, Type: rrType, Class: rrClass, TTL: ttl, Data: data}, nil
}

func parseRData(msg []byte, pos *int, rrType RecordType, rdataStart, rdlen int) (any, error) {
	switch rrType {
	case TypeCNAME, TypeNS, TypePTR:
		target, err := DecodeName(msg, pos)
		if err != nil {
			return nil, err
		}
		if *pos-rdataStart != rdlen {
			return nil, fmt.Errorf("%w: RDLENGTH mismatch decoding name-typed record", ErrMalformed)
		}
		return target, nil
	case TypeMX:
		if *pos+2 > len(msg) {
			return nil, fmt.Errorf("%w: truncated MX preference", ErrMalformed)
		}
		pref := binary.BigEndian.Uint16(msg[*pos : *pos+2])
		*pos += 2
		exchange, err := DecodeName(msg, pos)
		if err != nil {
			return nil, err
		}
		if *pos-rdataStart != rdlen {
			return nil, fmt.Errorf("%w: RDLENGTH mismatch decoding MX record", ErrMalformed)
		}
		return MXData{Preference: pref, Exchange: exchange}, nil
	default:
		raw := make([]byte, rdlen)
		copy(raw, msg[*pos:*pos+rdlen])
		*pos += rdlen
		return raw, nil
	}
}

// Marshal encodes the record as NAME + TYPE + CLASS + TTL + RDLENGTH +
// RDATA. OPT pseudo-records always encode their name as the root (a single
// zero byte), per RFC 6891.
func (rr Record) Marshal() ([]byte, error) {
	nameWire := []byte{0}
	if rr.Type != uint16(TypeOPT) {
		encoded, err := EncodeName(rr.Name)
		if err != nil {
			return nil, err
		}
		nameWire = encoded
	}

	rdata, err := rr.encodeRData()
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(nameWire)+recordFixedFieldsSize+len(rdata))
	n := copy(out, nameWire)
	binary.BigEndian.PutUint16(out[n:], rr.Type)
	binary.BigEndian.PutUint16(out[n+2:], rr.Class)
	binary.BigEndian.PutUint32(out[n+4:], rr.TTL)
	binary.BigEndian.PutUint16(out[n+8:], uint16(len(rdata)))
	copy(out[n+recordFixedFieldsSize:], rdata)
	return out, nil
}

func (rr Record) encodeRData() ([]byte, error) {
	switch RecordType(rr.Type) {
	case TypeA:
		return fixedLengthAddress(rr.Data, 4)
	case TypeAAAA:
		return fixedLengthAddress(rr.Data, 16)
	case TypeMX:
		mx, ok := rr.Data.(MXData)
		if !ok {
			return nil, fmt.Errorf("%w: MX record requires MXData, got %T", ErrMalformed, rr.Data)
		}
		exchange, err := EncodeName(mx.Exchange)
		if err != nil {
			return nil, err
		}
		out := make([]byte, 2+len(exchange))
		binary.BigEndian.PutUint16(out, mx.Preference)
		copy(out[2:], exchange)
		return out, nil
	case TypeCNAME, TypeNS, TypePTR:
		name, ok := rr.Data.(string)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: name-typed record requires a non-empty string, got %T", ErrMalformed, rr.Data)
		}
		return EncodeName(name)
	case TypeTXT:
		return encodeTXT(rr.Data)
	case TypeOPT:
		if rr.Data == nil {
			return nil, nil
		}
		raw, ok := rr.Data.([]byte)
		if !ok {
			return nil, fmt.Errorf("%w: OPT record requires raw []byte RDATA, got %T", ErrMalformed, rr.Data)
		}
		return raw, nil
	default:
		if raw, ok := rr.Data.([]byte); ok {
			return raw, nil
		}
		return nil, fmt.Errorf("%w: no encoder for record type %d with data %T", ErrMalformed, rr.Type, rr.Data)
	}
}

func fixedLengthAddress(data any, want int) ([]byte, error) {
	raw, ok := data.([]byte)
	if !ok || len(raw) != want {
		return nil, fmt.Errorf("%w: address record requires exactly %d bytes", ErrMalformed, want)
	}
	return raw, nil
}

// encodeTXT packs TXT RDATA as one or more length-prefixed character
// strings (RFC 1035 §3.3.14). A plain string longer than 255 bytes is
// split into consecutive 255-byte chunks; []string lets a caller control
// the chunk boundaries directly; []byte passes through already-encoded
// RDATA untouched.
func encodeTXT(v any) ([]byte, error) {
	switch t := v.(type) {
	case string:
		return chunkTXTString([]byte(t)), nil
	case []string:
		var out []byte
		for _, s := range t {
			chunk := []byte(s)
			if len(chunk) > 255 {
				return nil, fmt.Errorf("%w: TXT character-string exceeds 255 bytes", ErrMalformed)
			}
			out = append(out, byte(len(chunk)))
			out = append(out, chunk...)
		}
		return out, nil
	case []byte:
		return t, nil
	default:
		return nil, fmt.Errorf("%w: TXT record requires string, []string, or []byte, got %T", ErrMalformed, v)
	}
}

func chunkTXTString(b []byte) []byte {
	out := make([]byte, 0, len(b)+len(b)/255+1)
	for len(b) > 255 {
		out = append(out, 255)
		out = append(out, b[:255]...)
		b = b[255:]
	}
	out = append(out, byte(len(b)))
	out = append(out, b...)
	return out
}

// IPv4 returns the dotted-decimal form of an A record's address, or
// ("", false) if rr is not a well-formed A record.
func (rr Record) IPv4() (string, bool) {
	if RecordType(rr.Type) != TypeA {
		return "", false
	}
	raw, ok := rr.Data.([]byte)
	if !ok || len(raw) != 4 {
		return "", false
	}
	return net.IPv4(raw[0], raw[1], raw[2], raw[3]).String(), true
}

// IPv6 returns the string form of an AAAA record's address, or ("", false)
// if rr is not a well-formed AAAA record.
func (rr Record) IPv6() (string, bool) {
	if RecordType(rr.Type) != TypeAAAA {
		return "", false
	}
	raw, ok := rr.Data.([]byte)
	if !ok || len(raw) != 16 {
		return "", false
	}
	return net.IP(raw).String(), true
}
