package dns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionMarshalAppendsTypeAndClass(t *testing.T) {
	q := Question{Name: "example.com", Type: uint16(TypeA), Class: uint16(ClassIN)}

	wire, err := q.Marshal()
	require.NoError(t, err)

	// "example.com" -> [7]example[3]com[0] = 13 bytes, + 2 (type) + 2 (class)
	require.Len(t, wire, 13+4)
	assert.Equal(t, uint16(TypeA), uint16(wire[len(wire)-4])<<8|uint16(wire[len(wire)-3]))
	assert.Equal(t, uint16(ClassIN), uint16(wire[len(wire)-2])<<8|uint16(wire[len(wire)-1]))
}

func TestQuestionMarshalRejectsOversizedLabel(t *testing.T) {
	label := make([]byte, 70)
	for i := range label {
		label[i] = 'a'
	}
	q := Question{Name: string(label) + ".com", Type: uint16(TypeA), Class: uint16(ClassIN)}

	_, err := q.Marshal()
	assert.Error(t, err)
}

func TestParseQuestionDecodesNameTypeClass(t *testing.T) {
	wire := []byte{
		3, 'w', 'w', 'w',
		7, 'e', 'x', 'a', 'm', 'p', 'l', 'e',
		3, 'c', 'o', 'm',
		0,
		0, 1,
		0, 1,
	}

	pos := 0
	q, err := ParseQuestion(wire, &pos)
	require.NoError(t, err)

	assert.Equal(t, "www.example.com", q.Name)
	assert.Equal(t, uint16(TypeA), q.Type)
	assert.Equal(t, uint16(ClassIN), q.Class)
	assert.Equal(t, len(wire), pos)
}

func TestParseQuestionRejectsMissingTypeClass(t *testing.T) {
	wire := []byte{
		7, 'e', 'x', 'a', 'm', 'p', 'l', 'e',
		3, 'c', 'o', 'm',
		0,
	}

	pos := 0
	_, err := ParseQuestion(wire, &pos)
	assert.Error(t, err)
}

func TestQuestionMarshalParseRoundTrip(t *testing.T) {
	want := Question{Name: "test.example.com", Type: uint16(TypeAAAA), Class: uint16(ClassIN)}

	wire, err := want.Marshal()
	require.NoError(t, err)

	pos := 0
	got, err := ParseQuestion(wire, &pos)
	require.NoError(t, err)

	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Type, got.Type)
	assert.Equal(t, want.Class, got.Class)
}

func TestParseQuestionReadsConsecutiveQuestions(t *testing.T) {
	wire := []byte{
		7, 'e', 'x', 'a', 'm', 'p', 'l', 'e',
		3, 'c', 'o', 'm',
		0,
		0, 1,
		0, 1,
		4, 't', 'e', 's', 't',
		3, 'c', 'o', 'm',
		0,
		0, 28,
		0, 1,
	}

	pos := 0
	first, err := ParseQuestion(wire, &pos)
	require.NoError(t, err)
	assert.Equal(t, "example.com", first.Name)
	assert.Equal(t, uint16(TypeA), first.Type)

	second, err := ParseQuestion(wire, &pos)
	require.NoError(t, err)
	assert.Equal(t, "test.com", second.Name)
	assert.Equal(t, uint16(TypeAAAA), second.Type)
}
