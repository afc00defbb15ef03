package dns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordMarshalAcrossTypes(t *testing.T) {
	cases := map[string]Record{
		"A":     {Name: "example.com", Type: uint16(TypeA), Class: uint16(ClassIN), TTL: 300, Data: []byte{192, 0, 2, 1}},
		"AAAA":  {Name: "example.com", Type: uint16(TypeAAAA), Class: uint16(ClassIN), TTL: 300, Data: []byte{0x20, 0x01, 0x0d, 0xb8, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}},
		"CNAME": {Name: "www.example.com", Type: uint16(TypeCNAME), Class: uint16(ClassIN), TTL: 3600, Data: "example.com"},
		"NS":    {Name: "example.com", Type: uint16(TypeNS), Class: uint16(ClassIN), TTL: 86400, Data: "ns1.example.com"},
		"MX":    {Name: "example.com", Type: uint16(TypeMX), Class: uint16(ClassIN), TTL: 3600, Data: MXData{Preference: 10, Exchange: "mail.example.com"}},
		"TXT string":  {Name: "example.com", Type: uint16(TypeTXT), Class: uint16(ClassIN), TTL: 300, Data: "hello world"},
		"TXT strings": {Name: "example.com", Type: uint16(TypeTXT), Class: uint16(ClassIN), TTL: 300, Data: []string{"hello", "world"}},
		"TXT raw":     {Name: "example.com", Type: uint16(TypeTXT), Class: uint16(ClassIN), TTL: 300, Data: []byte("raw bytes")},
		"SOA opaque":  {Name: "example.com", Type: uint16(TypeSOA), Class: uint16(ClassIN), TTL: 86400, Data: []byte{0x01, 0x02, 0x03}},
	}

	for name, rr := range cases {
		t.Run(name, func(t *testing.T) {
			wire, err := rr.Marshal()
			require.NoError(t, err)
			assert.NotEmpty(t, wire)
		})
	}
}

func TestRecordMarshalARDLength(t *testing.T) {
	rr := Record{Name: "example.com", Type: uint16(TypeA), Class: uint16(ClassIN), TTL: 300, Data: []byte{192, 0, 2, 1}}

	wire, err := rr.Marshal()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(wire), 17)

	rdlenPos := len(wire) - 4 - 2
	rdlen := int(wire[rdlenPos])<<8 | int(wire[rdlenPos+1])
	assert.Equal(t, 4, rdlen)
}

func TestRecordMarshalRejectsMismatchedAddressData(t *testing.T) {
	cases := map[string]Record{
		"A wrong go type":  {Type: uint16(TypeA), Data: "not bytes"},
		"AAAA wrong width": {Type: uint16(TypeAAAA), Data: []byte{1, 2, 3, 4}},
	}
	for name, rr := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := rr.Marshal()
			assert.Error(t, err)
		})
	}
}

func TestRecordIPv4(t *testing.T) {
	rr := Record{Type: uint16(TypeA), Data: []byte{192, 0, 2, 1}}
	ip, ok := rr.IPv4()
	require.True(t, ok)
	assert.Equal(t, "192.0.2.1", ip)
}

func TestRecordIPv4RejectsNonARecord(t *testing.T) {
	rr := Record{Type: uint16(TypeAAAA), Data: []byte{1, 2, 3, 4}}
	_, ok := rr.IPv4()
	assert.False(t, ok)
}

func TestRecordIPv6(t *testing.T) {
	rr := Record{Type: uint16(TypeAAAA), Data: []byte{0x20, 0x01, 0x0d, 0xb8, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}}
	ip, ok := rr.IPv6()
	require.True(t, ok)
	assert.Equal(t, "2001:db8::1", ip)
}

func TestRecordIPv6RejectsNonAAAARecord(t *testing.T) {
	rr := Record{Type: uint16(TypeA), Data: []byte{1, 2, 3, 4}}
	_, ok := rr.IPv6()
	assert.False(t, ok)
}

func TestParseRecordDecodesAnARecord(t *testing.T) {
	wire := []byte{
		7, 'e', 'x', 'a', 'm', 'p', 'l', 'e',
		3, 'c', 'o', 'm',
		0,
		0, 1,
		0, 1,
		0, 0, 1, 44, // TTL 300
		0, 4,
		192, 0, 2, 1,
	}

	pos := 0
	rr, err := ParseRecord(wire, &pos)
	require.NoError(t, err)

	assert.Equal(t, "example.com", rr.Name)
	assert.Equal(t, uint16(TypeA), rr.Type)
	assert.Equal(t, uint16(ClassIN), rr.Class)
	assert.Equal(t, uint32(300), rr.TTL)

	data, ok := rr.Data.([]byte)
	require.True(t, ok, "expected []byte data, got %T", rr.Data)
	assert.Len(t, data, 4)
}

func TestRecordMarshalParseRoundTripCNAME(t *testing.T) {
	want := Record{Name: "www.example.com", Type: uint16(TypeCNAME), Class: uint16(ClassIN), TTL: 3600, Data: "target.example.com"}

	wire, err := want.Marshal()
	require.NoError(t, err)

	pos := 0
	got, err := ParseRecord(wire, &pos)
	require.NoError(t, err)

	assert.Equal(t, want.Type, got.Type)
	target, ok := got.Data.(string)
	require.True(t, ok, "expected string data, got %T", got.Data)
	assert.Equal(t, "target.example.com", target)
}

func TestParseRecordDecodesMXPreferenceAndExchange(t *testing.T) {
	wire := []byte{
		7, 'e', 'x', 'a', 'm', 'p', 'l', 'e',
		3, 'c', 'o', 'm',
		0,
		0, 15,
		0, 1,
		0, 0, 14, 16, // TTL 3600
		0, 20, // RDLEN
		0, 10, // preference
		4, 'm', 'a', 'i', 'l',
		7, 'e', 'x', 'a', 'm', 'p', 'l', 'e',
		3, 'c', 'o', 'm',
		0,
	}

	pos := 0
	rr, err := ParseRecord(wire, &pos)
	require.NoError(t, err)

	assert.Equal(t, uint16(TypeMX), rr.Type)
	mx, ok := rr.Data.(MXData)
	require.True(t, ok, "expected MXData, got %T", rr.Data)
	assert.Equal(t, uint16(10), mx.Preference)
	assert.Equal(t, "mail.example.com", mx.Exchange)
}

func TestParseRecordRejectsTruncatedRData(t *testing.T) {
	wire := []byte{
		7, 'e', 'x', 'a', 'm', 'p', 'l', 'e',
		3, 'c', 'o', 'm',
		0,
		0, 1,
		0, 1,
		0, 0, 1, 44,
		0, 4, // RDLEN says 4 bytes follow, but none do
	}

	pos := 0
	_, err := ParseRecord(wire, &pos)
	assert.Error(t, err)
}
