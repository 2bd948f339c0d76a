package gossip

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tutu-network/gossipd/internal/crypto"
	"github.com/tutu-network/gossipd/internal/domain"
	"github.com/tutu-network/gossipd/internal/infra/observability"
	"github.com/tutu-network/gossipd/internal/membership"
	"github.com/tutu-network/gossipd/internal/rumorstore"
	"github.com/tutu-network/gossipd/internal/wire"
)

// ackEnvelope is what the inbound loop hands to the ack-routing goroutine:
// a decoded Ack SwimMessage plus the UDP address it actually arrived from
// (used for NAT-address correction).
type ackEnvelope struct {
	addr *net.UDPAddr
	msg  wire.SwimMessage
}

// Server owns the member list, rumor store, and the five long-lived loops:
// Inbound-SWIM, Outbound-SWIM, Expiry, Gossip-Push, Gossip-Pull. It is a
// pure context object — loops hold a reference to it and never copy it.
type Server struct {
	cfg    Config
	ring   *crypto.Ring
	logger *log.Logger
	tracer *observability.Tracer

	members *membership.List
	rumors  *rumorstore.Store

	conn     *net.UDPConn
	selfAddr *net.UDPAddr

	gossipLn net.Listener

	blacklist sync.Map // member-id -> struct{}

	pause atomic.Bool

	ackCh   chan ackEnvelope
	pending sync.Map // member-id -> chan struct{}, in-flight probe waiters

	onJoin  func(id string)
	onLeave func(id string)

	electionsMu sync.Mutex
	elections   map[string]*electionState // service-group -> local coordinator state
}

// New creates a Server for the given self Member. ring may be
// crypto.NewUnencryptedRing() for a plaintext cluster.
func New(self domain.Member, cfg Config, ring *crypto.Ring) *Server {
	s := &Server{
		cfg:       cfg,
		ring:      ring,
		logger:    log.New(os.Stderr, "[gossip] ", log.LstdFlags),
		tracer:    observability.NewTracer(observability.DefaultTracerConfig()),
		rumors:    nil, // set below, needs s.members.AliveCount as liveFunc
		ackCh:     make(chan ackEnvelope, cfg.AckBufferSize),
		elections: make(map[string]*electionState),
	}
	s.members = membership.New(self)
	s.rumors = rumorstore.New(s.members.AliveCount)
	return s
}

// OnJoin registers a callback fired whenever a member that was not live
// (unknown, or Confirmed) is observed Alive or Suspect.
func (s *Server) OnJoin(f func(id string)) { s.onJoin = f }

// OnLeave registers a callback fired when a member transitions to Confirmed or Departed.
func (s *Server) OnLeave(f func(id string)) { s.onLeave = f }

// Members returns the local membership.List, shared by reference.
func (s *Server) Members() *membership.List { return s.members }

// Rumors returns the local rumorstore.Store, shared by reference.
func (s *Server) Rumors() *rumorstore.Store { return s.rumors }

// Tracer returns the span tracer recording this server's probe cycles and
// gossip rounds.
func (s *Server) Tracer() *observability.Tracer { return s.tracer }

// Pause toggles the cooperative pause flag: every loop sleeps 100ms between
// iterations instead of doing work, without dropping connections.
func (s *Server) Pause(v bool) { s.pause.Store(v) }

func (s *Server) paused() bool { return s.pause.Load() }

// Blacklist adds a member-id to the inbound blacklist (messages from a
// blacklisted id are dropped, except Acks that still need routing).
func (s *Server) Blacklist(id string) { s.blacklist.Store(id, struct{}{}) }

// Depart administratively removes a member from the cluster: its health
// latches to Departed locally and a Departure rumor disseminates the removal
// to every peer. Departed is absorbing — no later Membership for the id can
// resurrect it.
func (s *Server) Depart(memberID string) {
	s.rumors.Insert(domain.DepartureRumor{MemberID: memberID})
	s.applyDeparture(memberID)
}

// applyDeparture latches a member to Departed in the member list, firing
// onLeave if it was live.
func (s *Server) applyDeparture(memberID string) {
	if changed := s.members.SetHealth(memberID, domain.HealthDeparted); changed {
		membersAlive.Set(float64(s.members.AliveCount()))
		if s.onLeave != nil {
			s.onLeave(memberID)
		}
	}
}

func (s *Server) isBlacklisted(id string) bool {
	_, ok := s.blacklist.Load(id)
	return ok
}

// Start binds the SWIM UDP socket and the gossip TCP listener, then runs
// the five long-lived loops until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", s.cfg.BindAddr)
	if err != nil {
		return fmt.Errorf("gossip: resolve swim bind addr: %w", err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("gossip: listen udp: %w", err)
	}
	s.conn = conn
	s.selfAddr = conn.LocalAddr().(*net.UDPAddr)

	ln, err := net.Listen("tcp", s.cfg.GossipBindAddr)
	if err != nil {
		conn.Close()
		return fmt.Errorf("gossip: listen tcp: %w", err)
	}
	s.gossipLn = ln

	var wg sync.WaitGroup
	wg.Add(5)
	go func() { defer wg.Done(); s.runInbound(ctx) }()
	go func() { defer wg.Done(); s.runAckRouter(ctx) }()
	go func() { defer wg.Done(); s.runOutbound(ctx) }()
	go func() { defer wg.Done(); s.runExpiry(ctx) }()
	go func() { defer wg.Done(); s.runGossipPush(ctx) }()

	// Gossip-Pull owns the TCP accept loop and runs on this goroutine; it is
	// the fifth loop, the ack router above being the receiving half of
	// Outbound-SWIM.
	go func() {
		<-ctx.Done()
		conn.Close()
		ln.Close()
	}()
	s.runGossipPull(ctx)

	wg.Wait()
	return nil
}

// Join seeds the member list with one or more known "host:port" SWIM
// addresses and sends each an initial Ping to bootstrap discovery.
func (s *Server) Join(addrs []string) error {
	for _, a := range addrs {
		udpAddr, err := net.ResolveUDPAddr("udp", a)
		if err != nil {
			return fmt.Errorf("gossip: resolve seed addr %q: %w", a, err)
		}
		s.sendPing(udpAddr, domain.Member{ID: "", Address: udpAddr.IP.String(), SwimPort: int32(udpAddr.Port)}, nil)
	}
	return nil
}

func (s *Server) selfMember() domain.Member { return s.members.Self() }

func (s *Server) snapshotPiggyback() []domain.Membership {
	all := s.members.Members()
	n := s.cfg.PiggybackCount
	if n <= 0 || n >= len(all) {
		return all
	}
	return all[:n]
}

func (s *Server) sleepIfPaused(ctx context.Context) bool {
	for s.paused() {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(100 * time.Millisecond):
		}
	}
	return true
}
