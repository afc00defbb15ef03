package blocklist

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/vinayakankugoyal/rdns-forwarder/internal/dns"
)

// ListFormat identifies the textual grammar a blocklist source uses.
type ListFormat int

const (
	// FormatUnknown asks Source to auto-detect the format from content.
	FormatUnknown ListFormat = iota
	// FormatHosts is the `0.0.0.0 <name> [# comment]` hosts-file grammar
	// spec.md §4.3 describes as the baseline format (e.g. StevenBlack's
	// list). Lines starting with 127.0.0.1 are accepted as well.
	FormatHosts
	// FormatDomains is a bare newline-separated list of domain names.
	FormatDomains
	// FormatAdblock is Adblock Plus filter syntax (`||example.com^`).
	FormatAdblock
)

// RcodeStrategy names the two ways a blocked query can be answered:
// RcodeSinkhole (a synthesized 0.0.0.0 A record) and RcodeNXDomain. Nothing
// in this module reads it; the engine always answers blocked queries with
// the sinkhole record from dns.BuildBlockedAnswer.
type RcodeStrategy int

const (
	RcodeSinkhole RcodeStrategy = iota
	RcodeNXDomain
)

// detectFormat guesses a blocklist's format from its first non-comment,
// non-blank line.
func detectFormat(body []byte) ListFormat {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		switch {
		case strings.HasPrefix(line, "||"):
			return FormatAdblock
		case strings.HasPrefix(line, "0.0.0.0") || strings.HasPrefix(line, "127.0.0.1"):
			return FormatHosts
		default:
			return FormatDomains
		}
	}
	return FormatDomains
}

// Parse reads body according to format and returns the set of normalized
// domain names it names.
func Parse(body []byte, format ListFormat) (map[string]struct{}, error) {
	names := make(map[string]struct{})
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var name string
		var ok bool
		switch format {
		case FormatHosts:
			name, ok = parseHostsLine(line)
		case FormatAdblock:
			name, ok = parseAdblockLine(line)
		case FormatDomains, FormatUnknown:
			name, ok = parseDomainsLine(line)
		default:
			return nil, fmt.Errorf("unknown blocklist format %d", format)
		}
		if !ok {
			continue
		}
		if !isValidDomain(name) {
			continue
		}
		names[dns.NormalizeName(name)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning blocklist: %w", err)
	}
	return names, nil
}

// parseHostsLine extracts a domain name from a `0.0.0.0 name [name2 ...]
// [# comment]` hosts-file line. Only the first name is used; additional
// aliases on the same line are accepted by the grammar but unused here
// since spec.md's blocklist has no concept of aliasing.
func parseHostsLine(line string) (string, bool) {
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		line = strings.TrimSpace(line[:idx])
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", false
	}
	ip := fields[0]
	if ip != "0.0.0.0" && ip != "127.0.0.1" {
		return "", false
	}
	name := fields[1]
	if name == "localhost" || name == "localhost.localdomain" || name == "broadcasthost" {
		return "", false
	}
	return name, true
}

// parseAdblockLine extracts a domain name from `||example.com^` style
// Adblock Plus filter syntax, skipping anything more elaborate (path
// filters, exceptions, element hiding rules).
func parseAdblockLine(line string) (string, bool) {
	if !strings.HasPrefix(line, "||") {
		return "", false
	}
	rest := line[2:]
	end := strings.IndexAny(rest, "^/$")
	if end >= 0 {
		rest = rest[:end]
	}
	if rest == "" {
		return "", false
	}
	return rest, true
}

// parseDomainsLine extracts a domain name from a bare domain-per-line list,
// skipping comment lines.
func parseDomainsLine(line string) (string, bool) {
	if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
		return "", false
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", false
	}
	return fields[0], true
}

// isValidDomain rejects obviously malformed names (empty labels, labels
// over 63 bytes, names over 255 bytes) using the same limits the wire
// codec enforces, so nothing unencodable ends up in the set.
func isValidDomain(name string) bool {
	name = dns.NormalizeName(name)
	if name == "" || len(name) > 255 {
		return false
	}
	labels := strings.Split(name, ".")
	for _, l := range labels {
		if l == "" || len(l) > 63 {
			return false
		}
	}
	return true
}
