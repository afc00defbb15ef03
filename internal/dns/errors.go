// Package dns implements just enough of RFC 1035 to parse and build the
// DNS messages this forwarder needs: header, question, and the handful of
// resource record types a caching forwarder actually sees on the wire
// (A, AAAA, CNAME, NS, PTR, MX, TXT, plus opaque passthrough for anything
// else, including EDNS OPT pseudo-records).
//
// Every decode/encode error returned from this package wraps ErrMalformed,
// so callers can classify "bad bytes on the wire" with a single errors.Is
// check instead of matching on message text. ParseRequestBounded's own
// request checks (size, QR flag, opcode, section counts) return plain
// errors that do not wrap ErrMalformed.
package dns

import "errors"

// ErrMalformed is the sentinel wrapped by every name, header, question and
// record parse/encode failure in this package.
var ErrMalformed = errors.New("dns: malformed message")
