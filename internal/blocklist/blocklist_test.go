package blocklist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHostsFormat(t *testing.T) {
	body := []byte(`# comment
0.0.0.0 ads.example.com
0.0.0.0 localhost
0.0.0.0 tracker.example.net # trailing comment

127.0.0.1 also-blocked.example.org
`)
	names, err := Parse(body, FormatHosts)
	require.NoError(t, err)
	assert.Contains(t, names, "ads.example.com")
	assert.Contains(t, names, "tracker.example.net")
	assert.Contains(t, names, "also-blocked.example.org")
	assert.NotContains(t, names, "localhost")
}

func TestParseDomainsFormat(t *testing.T) {
	body := []byte("ads.example.com\n# skip\ntracker.example.net\n")
	names, err := Parse(body, FormatDomains)
	require.NoError(t, err)
	assert.Len(t, names, 2)
}

func TestParseAdblockFormat(t *testing.T) {
	body := []byte("||ads.example.com^\n||tracker.example.net^$third-party\n! comment\n")
	names, err := Parse(body, FormatAdblock)
	require.NoError(t, err)
	assert.Contains(t, names, "ads.example.com")
	assert.Contains(t, names, "tracker.example.net")
}

func TestParseRejectsOversizedLabel(t *testing.T) {
	long := make([]byte, 64)
	for i := range long {
		long[i] = 'a'
	}
	body := append(long, []byte(".example.com\n")...)
	names, err := Parse(body, FormatDomains)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatHosts, detectFormat([]byte("0.0.0.0 ads.example.com\n")))
	assert.Equal(t, FormatAdblock, detectFormat([]byte("||ads.example.com^\n")))
	assert.Equal(t, FormatDomains, detectFormat([]byte("ads.example.com\n")))
}

func TestSetBlockedIsNormalized(t *testing.T) {
	s := NewSet()
	s.replace(map[string]struct{}{"ads.example.com": {}})

	assert.True(t, s.Blocked("ADS.example.com."))
	assert.False(t, s.Blocked("clean.example.com"))
	assert.Equal(t, 1, s.Len())
}
