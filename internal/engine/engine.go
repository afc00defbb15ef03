// Package engine implements the two-socket forwarding pipeline: it accepts
// client queries, answers from the blocklist or cache where possible, and
// otherwise forwards to a single upstream resolver over a shared socket,
// demultiplexing replies via a rewritten transaction id.
//
// This design is a deliberate departure from a per-query dialed connection:
// a single shared upstream socket plus a process-wide wrapping id counter
// lets one goroutine drain upstream replies for every in-flight forward,
// rather than one connection per outstanding query.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/vinayakankugoyal/rdns-forwarder/internal/blocklist"
	"github.com/vinayakankugoyal/rdns-forwarder/internal/cache"
	"github.com/vinayakankugoyal/rdns-forwarder/internal/dns"
	"github.com/vinayakankugoyal/rdns-forwarder/internal/helpers"
	"github.com/vinayakankugoyal/rdns-forwarder/internal/logbus"
	"github.com/vinayakankugoyal/rdns-forwarder/internal/metrics"
	"github.com/vinayakankugoyal/rdns-forwarder/internal/pool"
)

// reaperInterval is the shared cadence for both the cache reaper and the
// pending-map reaper.
const reaperInterval = 10 * time.Second

// pendingStaleAfter bounds how long a forwarded query may sit unanswered in
// the pending map before the reaper discards it as a leak.
const pendingStaleAfter = 5 * time.Second

// maxDatagramSize is the largest UDP datagram this engine reads; spec.md
// assumes 512-byte classic DNS with no EDNS(0) size negotiation, so this is
// generously sized for header + worst-case label expansion, not tuned for
// performance.
const maxDatagramSize = 4096

// pendingEntry tracks one outstanding forward awaiting an upstream reply.
type pendingEntry struct {
	ClientAddr *net.UDPAddr
	OriginalID uint16
	SentAt     time.Time
}

// Config carries everything the engine needs to bind its sockets and reach
// upstream.
type Config struct {
	ListenAddr   string
	UpstreamAddr string

	// PendingStaleAfter overrides pendingStaleAfter when non-zero.
	PendingStaleAfter time.Duration
}

// Engine owns the client and upstream sockets and the state shared across
// its ingress, egress, and reaper loops.
type Engine struct {
	clientConn   *net.UDPConn
	upstreamConn *net.UDPConn
	upstreamAddr *net.UDPAddr

	cache      *cache.Cache
	blocklist  *blocklist.Set
	metrics    *metrics.Registry
	logs       *logbus.Bus
	log        *slog.Logger
	idCounter  atomic.Uint32
	bufferPool *pool.Pool[[]byte]

	pendingMu         sync.Mutex
	pending           map[uint16]pendingEntry
	pendingStaleAfter time.Duration
}

// New binds both UDP sockets and returns a ready-to-run Engine. The caller
// must call Run to start processing.
func New(cfg Config, c *cache.Cache, bl *blocklist.Set, m *metrics.Registry, logs *logbus.Bus, log *slog.Logger) (*Engine, error) {
	listenAddr, err := net.ResolveUDPAddr("udp", cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("resolving listen address %q: %w", cfg.ListenAddr, err)
	}
	clientConn, err := net.ListenUDP("udp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("binding client socket on %q: %w", cfg.ListenAddr, err)
	}

	upstreamAddr, err := net.ResolveUDPAddr("udp", cfg.UpstreamAddr)
	if err != nil {
		clientConn.Close()
		return nil, fmt.Errorf("resolving upstream address %q: %w", cfg.UpstreamAddr, err)
	}
	upstreamConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		clientConn.Close()
		return nil, fmt.Errorf("binding upstream socket: %w", err)
	}

	tuneSocketBuffers(clientConn, log)
	tuneSocketBuffers(upstreamConn, log)

	staleAfter := pendingStaleAfter
	if cfg.PendingStaleAfter > 0 {
		staleAfter = cfg.PendingStaleAfter
	}

	return &Engine{
		clientConn:        clientConn,
		upstreamConn:      upstreamConn,
		upstreamAddr:      upstreamAddr,
		cache:             c,
		blocklist:         bl,
		metrics:           m,
		logs:              logs,
		log:               log,
		pending:           make(map[uint16]pendingEntry),
		pendingStaleAfter: staleAfter,
		bufferPool: pool.New(func() []byte {
			return make([]byte, maxDatagramSize)
		}),
	}, nil
}

// Run starts the ingress loop, the upstream egress loop, and the shared
// reaper, and blocks until ctx is canceled. Shutdown is wholesale: both
// sockets are closed, which unblocks the read loops with an error.
func (e *Engine) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		e.ingressLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		e.egressLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		e.reapLoop(ctx)
	}()

	<-ctx.Done()
	e.clientConn.Close()
	e.upstreamConn.Close()
	wg.Wait()
	return nil
}

// ingressLoop is I1: one goroutine per inbound client datagram.
func (e *Engine) ingressLoop(ctx context.Context) {
	for {
		buf := e.bufferPool.Get()
		n, addr, err := e.clientConn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				e.log.Warn("client socket read error", "error", err)
				return
			}
		}

		if addr.IP.Equal(e.upstreamAddr.IP) && addr.Port == e.upstreamAddr.Port {
			e.bufferPool.Put(buf[:maxDatagramSize])
			continue
		}

		msg := make([]byte, n)
		copy(msg, buf[:n])
		e.bufferPool.Put(buf[:maxDatagramSize])

		go e.handleRequest(msg, addr)
	}
}

// handleRequest is I2: blocklist, then cache, then forward.
func (e *Engine) handleRequest(msg []byte, clientAddr *net.UDPAddr) {
	start := time.Now()

	req, err := dns.ParseRequestBounded(msg)
	if err != nil {
		e.log.Debug("dropping malformed query", "error", err, "client", clientAddr)
		return
	}

	q := req.Questions[0]
	if len(req.Questions) > 1 {
		e.log.Debug("query has extra questions, only processing the first", "count", len(req.Questions), "name", q.Name)
	}

	traceID := uuid.NewString()[:8]

	if e.blocklist.Blocked(q.Name) {
		e.metrics.BlockedRequests.Inc()
		reply := dns.BuildBlockedAnswer(req)
		e.sendToClient(reply, clientAddr)
		e.metrics.ObserveLatency(time.Since(start))
		e.logf("BLOCKED %s [%s]", q.Name, traceID)
		return
	}

	if answers, ok := e.cache.Get(cache.KeyFor(q), time.Now()); ok {
		e.metrics.CacheHits.Inc()
		reply := buildAnsweredReply(req, q, answers)
		e.sendToClient(reply, clientAddr)
		elapsed := time.Since(start)
		e.metrics.ObserveLatency(elapsed)
		e.logf("CACHE HIT %s (%s) [%s]", q.Name, elapsed, traceID)
		return
	}

	e.metrics.CacheMisses.Inc()
	e.forward(req, q, clientAddr, traceID)
}

// forward is I2 step 5: allocate a rewritten id, record the pending entry,
// and send the original request upstream under that id.
func (e *Engine) forward(req dns.Packet, q dns.Question, clientAddr *net.UDPAddr, traceID string) {
	rewrittenID := uint16(e.idCounter.Add(1))

	e.pendingMu.Lock()
	e.pending[rewrittenID] = pendingEntry{
		ClientAddr: clientAddr,
		OriginalID: req.Header.ID,
		SentAt:     time.Now(),
	}
	e.pendingMu.Unlock()

	fwd := req
	fwd.Header.ID = rewrittenID
	b, err := fwd.Marshal()
	if err != nil {
		e.log.Warn("failed to marshal forwarded query", "error", err, "name", q.Name)
		return
	}

	if _, err := e.upstreamConn.WriteToUDP(b, e.upstreamAddr); err != nil {
		e.log.Warn("upstream send failed, pending entry left for reaper", "error", err, "name", q.Name, "rewritten_id", rewrittenID)
		return
	}
	e.logf("FORWARDED %s -> %s [%s]", q.Name, e.upstreamAddr, traceID)
}

// egressLoop is I3: the long-lived upstream receive loop.
func (e *Engine) egressLoop(ctx context.Context) {
	buf := make([]byte, maxDatagramSize)
	for {
		n, addr, err := e.upstreamConn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				e.log.Warn("upstream socket read error", "error", err)
				return
			}
		}

		if !addr.IP.Equal(e.upstreamAddr.IP) || addr.Port != e.upstreamAddr.Port {
			e.log.Debug("dropping datagram from unexpected source", "source", addr)
			continue
		}

		msg := make([]byte, n)
		copy(msg, buf[:n])
		e.handleUpstreamReply(msg)
	}
}

func (e *Engine) handleUpstreamReply(msg []byte) {
	parsed, err := dns.ParsePacket(msg)
	if err != nil {
		e.log.Debug("dropping malformed upstream reply", "error", err)
		return
	}

	rid := parsed.Header.ID
	e.pendingMu.Lock()
	entry, ok := e.pending[rid]
	if ok {
		delete(e.pending, rid)
	}
	e.pendingMu.Unlock()

	if !ok {
		e.log.Debug("unmatched upstream response", "rewritten_id", rid)
		return
	}

	elapsed := time.Since(entry.SentAt)
	e.metrics.ObserveLatency(elapsed)

	reply := dns.BuildForwardedReply(parsed, entry.OriginalID)
	e.sendToClient(reply, entry.ClientAddr)

	if len(parsed.Questions) > 0 {
		e.cache.Set(cache.KeyFor(parsed.Questions[0]), parsed.Answers, time.Now())
	}

	e.logf("FORWARDED reply for %s (%s)", firstQuestionName(parsed), elapsed)
}

// reapLoop is I4 plus the pending-map reaper, sharing one ticker.
func (e *Engine) reapLoop(ctx context.Context) {
	ticker := time.NewTicker(reaperInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed := e.cache.Cleanup(now)
			stale := e.reapPending(now)
			if removed > 0 || stale > 0 {
				e.log.Debug("reaper swept stale state", "cache_entries_removed", removed, "pending_entries_removed", stale)
			}
		}
	}
}

// reapPending discards pending entries older than e.pendingStaleAfter,
// per spec.md §9's recommended default.
func (e *Engine) reapPending(now time.Time) int {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()

	removed := 0
	for id, entry := range e.pending {
		if now.Sub(entry.SentAt) > e.pendingStaleAfter {
			delete(e.pending, id)
			removed++
		}
	}
	return removed
}

func (e *Engine) sendToClient(reply dns.Packet, addr *net.UDPAddr) {
	b, err := reply.Marshal()
	if err != nil {
		e.log.Warn("failed to marshal client reply", "error", err, "client", addr)
		return
	}
	if _, err := e.clientConn.WriteToUDP(b, addr); err != nil {
		e.log.Warn("client send failed", "error", err, "client", addr)
	}
}

func (e *Engine) logf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	e.log.Info(line)
	e.logs.Publish(line)
}

// buildAnsweredReply constructs the cache-hit path's client reply: qr=1,
// ra=1, ancount=len(answers), authority/additional cleared. The blocklist
// path builds its reply with dns.BuildBlockedAnswer instead.
func buildAnsweredReply(req dns.Packet, q dns.Question, answers []dns.Record) dns.Packet {
	flags := dns.QRFlag | dns.RAFlag | (req.Header.Flags & dns.RDFlag)
	h := dns.Header{
		ID:      req.Header.ID,
		Flags:   flags,
		QDCount: 1,
		ANCount: helpers.ClampIntToUint16(len(answers)),
	}
	return dns.Packet{Header: h, Questions: []dns.Question{q}, Answers: answers}
}

func firstQuestionName(p dns.Packet) string {
	if len(p.Questions) == 0 {
		return "?"
	}
	return p.Questions[0].Name
}
