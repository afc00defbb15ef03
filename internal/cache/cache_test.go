package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vinayakankugoyal/rdns-forwarder/internal/dns"
)

func TestSetGetRoundTrip(t *testing.T) {
	c := New()
	now := time.Now()
	key := Key{Name: "example.com", Type: 1, Class: 1}
	answers := []dns.Record{{Name: "example.com", Type: 1, Class: 1, TTL: 600, Data: []byte{1, 2, 3, 4}}}

	c.Set(key, answers, now)

	got, ok := c.Get(key, now.Add(time.Second))
	require.True(t, ok)
	assert.Equal(t, answers, got)
}

func TestGetMissing(t *testing.T) {
	c := New()
	_, ok := c.Get(Key{Name: "nope.example.com", Type: 1, Class: 1}, time.Now())
	assert.False(t, ok)
}

func TestEffectiveTTLFloor(t *testing.T) {
	c := New()
	now := time.Now()
	key := Key{Name: "short.example.com", Type: 1, Class: 1}
	answers := []dns.Record{{TTL: 5, Data: []byte{0, 0, 0, 0}}}

	c.Set(key, answers, now)

	// Below the 300s floor, so still present just under 300s later...
	_, ok := c.Get(key, now.Add(MinTTL-time.Second))
	assert.True(t, ok)

	// ...and gone once the floor elapses.
	_, ok = c.Get(key, now.Add(MinTTL+time.Second))
	assert.False(t, ok)
}

func TestEffectiveTTLTakesMinimumAcrossAnswers(t *testing.T) {
	c := New()
	now := time.Now()
	key := Key{Name: "multi.example.com", Type: 1, Class: 1}
	answers := []dns.Record{
		{TTL: 1000, Data: []byte{1, 1, 1, 1}},
		{TTL: 400, Data: []byte{2, 2, 2, 2}},
	}

	c.Set(key, answers, now)

	_, ok := c.Get(key, now.Add(399*time.Second))
	assert.True(t, ok)
	_, ok = c.Get(key, now.Add(401*time.Second))
	assert.False(t, ok)
}

func TestEmptyAnswersUsesFloor(t *testing.T) {
	c := New()
	now := time.Now()
	key := Key{Name: "empty.example.com", Type: 1, Class: 1}

	c.Set(key, nil, now)

	_, ok := c.Get(key, now.Add(MinTTL-time.Second))
	assert.True(t, ok)
}

func TestCleanupRemovesExpiredOnly(t *testing.T) {
	c := New()
	now := time.Now()

	expired := Key{Name: "expired.example.com", Type: 1, Class: 1}
	fresh := Key{Name: "fresh.example.com", Type: 1, Class: 1}

	c.Set(expired, []byte4Answer(), now.Add(-time.Hour))
	c.Set(fresh, []byte4Answer(), now)

	removed := c.Cleanup(now)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, c.Len())

	_, ok := c.Get(fresh, now)
	assert.True(t, ok)
}

func byte4Answer() []dns.Record {
	return []dns.Record{{TTL: 600, Data: []byte{9, 9, 9, 9}}}
}
