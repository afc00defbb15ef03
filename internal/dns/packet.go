package dns

import "fmt"

// Packet is a full DNS message (RFC 1035 §4): the header plus its four
// sections. Authorities/Additionals are carried through for completeness
// but this forwarder's reply paths only ever populate Questions/Answers.
type Packet struct {
	Header      Header
	Questions   []Question
	Answers     []Record
	Authorities []Record
	Additionals []Record
}

// Marshal serializes the packet: header first (with section counts
// recomputed from the slice lengths, not trusted from Header), then
// questions, then the three record sections in order.
func (p Packet) Marshal() ([]byte, error) {
	h := p.Header
	h.QDCount = uint16(len(p.Questions))
	h.ANCount = uint16(len(p.Answers))
	h.NSCount = uint16(len(p.Authorities))
	h.ARCount = uint16(len(p.Additionals))

	hb, err := h.Marshal()
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, estimatedPacketSize(p))
	out = append(out, hb...)
	for _, q := range p.Questions {
		qb, err := q.Marshal()
		if err != nil {
			return nil, fmt.Errorf("marshaling question %q: %w", q.Name, err)
		}
		out = append(out, qb...)
	}
	for _, section := range [][]Record{p.Answers, p.Authorities, p.Additionals} {
		for _, rr := range section {
			rb, err := rr.Marshal()
			if err != nil {
				return nil, fmt.Errorf("marshaling record %q: %w", rr.Name, err)
			}
			out = append(out, rb...)
		}
	}
	return out, nil
}

// estimatedPacketSize guesses a starting capacity so Marshal rarely has to
// grow its output slice; actual encoded sizes vary with name compression
// opportunities this package doesn't take, so this is deliberately
// generous rather than exact.
func estimatedPacketSize(p Packet) int {
	const avgQuestionSize = 50
	const avgRecordSize = 100
	return HeaderSize + len(p.Questions)*avgQuestionSize +
		(len(p.Answers)+len(p.Authorities)+len(p.Additionals))*avgRecordSize
}

// ParsePacket decodes a full DNS message. Each section's pre-allocated
// capacity is the header count capped by MaxQuestions/MaxRRPerSection, but
// every entry the header declares must parse: a message that runs out of
// bytes before its declared counts are satisfied is an error.
func ParsePacket(msg []byte) (Packet, error) {
	pos := 0
	h, err := ParseHeader(msg, &pos)
	if err != nil {
		return Packet{}, err
	}

	p := Packet{Header: h}
	p.Questions, err = parseSection(msg, &pos, h.QDCount, MaxQuestions, ParseQuestion)
	if err != nil {
		return Packet{}, err
	}
	p.Answers, err = parseSection(msg, &pos, h.ANCount, MaxRRPerSection, ParseRecord)
	if err != nil {
		return Packet{}, err
	}
	p.Authorities, err = parseSection(msg, &pos, h.NSCount, MaxRRPerSection, ParseRecord)
	if err != nil {
		return Packet{}, err
	}
	p.Additionals, err = parseSection(msg, &pos, h.ARCount, MaxRRPerSection, ParseRecord)
	if err != nil {
		return Packet{}, err
	}
	return p, nil
}

// parseSection reads count entries of one message section with parseOne,
// pre-sizing the result slice to min(count, capLimit) so an inflated count
// field in a short message can't force a huge allocation up front.
func parseSection[T any](msg []byte, pos *int, count uint16, capLimit int, parseOne func([]byte, *int) (T, error)) ([]T, error) {
	prealloc := int(count)
	if prealloc > capLimit {
		prealloc = capLimit
	}
	out := make([]T, 0, prealloc)
	for i := uint16(0); i < count; i++ {
		item, err := parseOne(msg, pos)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
