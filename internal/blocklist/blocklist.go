// Package blocklist maintains the set of domain names this forwarder
// sinkholes, refreshed wholesale from a remote source.
package blocklist

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/vinayakankugoyal/rdns-forwarder/internal/dns"
)

// Set is an atomically-swapped flat collection of blocked domain names.
// Refreshes replace the whole set rather than mutating it in place, so a
// reader never observes a partially-updated list.
type Set struct {
	names atomic.Pointer[map[string]struct{}]
}

// NewSet returns an empty blocklist set.
func NewSet() *Set {
	s := &Set{}
	empty := make(map[string]struct{})
	s.names.Store(&empty)
	return s
}

// NewSetWithNames returns a blocklist set pre-populated with names,
// normalized the same way Blocked looks them up. Useful for static
// blocklists and for tests that need a populated set without a Source.
func NewSetWithNames(names ...string) *Set {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[dns.NormalizeName(n)] = struct{}{}
	}
	s := &Set{}
	s.names.Store(&m)
	return s
}

// Blocked reports whether name is in the current set. name is passed
// through dns.NormalizeName first, so case and a trailing root dot do not
// affect the result.
func (s *Set) Blocked(name string) bool {
	m := s.names.Load()
	_, ok := (*m)[dns.NormalizeName(name)]
	return ok
}

// Len reports the number of entries in the current set.
func (s *Set) Len() int {
	return len(*s.names.Load())
}

// replace atomically swaps in a freshly parsed set of names.
func (s *Set) replace(names map[string]struct{}) {
	s.names.Store(&names)
}

// Source fetches and periodically refreshes a Set from a remote blocklist.
type Source struct {
	URL             string
	Format          ListFormat
	RefreshInterval time.Duration

	client *http.Client
	set    *Set
}

// NewSource builds a Source targeting url. When format is FormatUnknown,
// the format is auto-detected from each fetched body.
func NewSource(url string, format ListFormat, refreshInterval time.Duration) *Source {
	return &Source{
		URL:             url,
		Format:          format,
		RefreshInterval: refreshInterval,
		client:          &http.Client{Timeout: 30 * time.Second},
		set:             NewSet(),
	}
}

// Set returns the backing Set, safe to query concurrently with Refresh.
func (s *Source) Set() *Set {
	return s.set
}

// Refresh fetches the blocklist and atomically replaces the set's contents.
// The existing set is left untouched if the fetch or parse fails.
func (s *Source) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return fmt.Errorf("building blocklist request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching blocklist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("blocklist source returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return fmt.Errorf("reading blocklist body: %w", err)
	}

	format := s.Format
	if format == FormatUnknown {
		format = detectFormat(body)
	}

	names, err := Parse(body, format)
	if err != nil {
		return fmt.Errorf("parsing blocklist: %w", err)
	}

	s.set.replace(names)
	return nil
}

// initialRefreshDelay is the grace period before the first refresh, giving
// the rest of the process (listener, metrics server) time to come up before
// the first blocklist fetch runs.
const initialRefreshDelay = 500 * time.Millisecond

// RunRefreshLoop waits initialRefreshDelay, refreshes once, then refreshes
// again every s.RefreshInterval until ctx is canceled. Failures are returned
// via the onError callback rather than aborting the loop, so a single bad
// fetch does not stop future refreshes.
func (s *Source) RunRefreshLoop(ctx context.Context, onError func(error)) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(initialRefreshDelay):
	}

	if err := s.Refresh(ctx); err != nil && onError != nil {
		onError(err)
	}

	ticker := time.NewTicker(s.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil && onError != nil {
				onError(err)
			}
		}
	}
}
