package daemon

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/tutu-network/gossipd/internal/crypto"
	"github.com/tutu-network/gossipd/internal/debughttp"
	"github.com/tutu-network/gossipd/internal/domain"
	"github.com/tutu-network/gossipd/internal/infra/gossip"
)

// Server composes a Config into a running gossip.Server and its optional
// debug HTTP mount.
type Server struct {
	cfg    Config
	logger *log.Logger

	gossip *gossip.Server
	debug  *debughttp.Server
}

// New builds a Server from cfg. If cfg.Member.ID is empty, a fresh
// member-id is minted via domain.NewMemberID().
func New(cfg Config) (*Server, error) {
	id := cfg.Member.ID
	if id == "" {
		id = domain.NewMemberID()
	}

	self := domain.Member{
		ID:         id,
		Address:    cfg.Member.Address,
		SwimPort:   portOf(cfg.Swim.BindAddr),
		GossipPort: portOf(cfg.Gossip.BindAddr),
		Persistent: cfg.Member.Persistent,
	}

	ring, err := cfg.ring()
	if err != nil {
		return nil, err
	}

	gs := gossip.New(self, cfg.toGossipConfig(), ring)

	logger := log.New(os.Stderr, "[daemon] ", log.LstdFlags)
	gs.OnJoin(func(id string) { logger.Printf("member joined: %s", id) })
	gs.OnLeave(func(id string) { logger.Printf("member left: %s", id) })

	s := &Server{cfg: cfg, logger: logger, gossip: gs}
	if cfg.Debug.Enabled {
		s.debug = debughttp.NewServer(gs.Members(), gs.Rumors(), gs.Tracer(), gs.Join)
	}
	return s, nil
}

// ring builds the crypto.Ring this process seals its gossip envelope with,
// from the hex-encoded pre-shared key in Config.Crypto. An unencrypted
// ring is returned when encryption is disabled.
func (c Config) ring() (*crypto.Ring, error) {
	if !c.Crypto.Enabled {
		return crypto.NewUnencryptedRing(), nil
	}
	raw, err := hex.DecodeString(c.Crypto.RingKey)
	if err != nil {
		return nil, fmt.Errorf("daemon: decode ring key: %w", err)
	}
	if len(raw) != crypto.RingKeySize {
		return nil, fmt.Errorf("daemon: ring key must be %d bytes, got %d", crypto.RingKeySize, len(raw))
	}
	var key crypto.RingKey
	copy(key[:], raw)
	return crypto.NewRing(key), nil
}

// Gossip returns the underlying gossip.Server, for in-process callers that
// need direct access (member list queries, election triggers). The CLI
// member commands do not use it; they go through the debug HTTP surface.
func (s *Server) Gossip() *gossip.Server { return s.gossip }

// Run starts the SWIM/gossip loops, joins any configured seeds, and —if
// enabled— serves the debug HTTP surface, all until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		errCh <- s.gossip.Start(ctx)
	}()

	var httpSrv *http.Server
	if s.debug != nil {
		httpSrv = &http.Server{Addr: s.cfg.Debug.BindAddr, Handler: s.debug.Handler()}
		go func() {
			s.logger.Printf("debug http listening on %s", s.cfg.Debug.BindAddr)
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- fmt.Errorf("daemon: debug http: %w", err)
				return
			}
			errCh <- nil
		}()
	} else {
		errCh <- nil
	}

	if len(s.cfg.Member.Seeds) > 0 {
		if err := s.gossip.Join(s.cfg.Member.Seeds); err != nil {
			s.logger.Printf("join: %v", err)
		}
	}

	<-ctx.Done()
	if httpSrv != nil {
		httpSrv.Close()
	}

	var firstErr error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
