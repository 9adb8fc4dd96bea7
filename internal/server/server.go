package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/mdns"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"termibbl/internal/config"
	"termibbl/internal/game"
	"termibbl/internal/protocol"
	"termibbl/internal/scoring"
	"termibbl/internal/words"
)

// Server owns the session loop, the listeners and the connection table.
type Server struct {
	cfg     config.Config
	log     zerolog.Logger
	session *game.Session
	events  chan event

	ctx    context.Context
	cancel context.CancelFunc

	// Loop-owned.
	conns  map[string]*conn
	timers map[game.TimerKind]*time.Timer

	mu   sync.Mutex
	live map[*conn]struct{}

	router *gin.Engine
}

// New builds a server from cfg. bank may be nil to use the built-in words.
func New(cfg config.Config, logger zerolog.Logger, bank *words.Bank) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if bank == nil {
		var err error
		bank, err = words.New(words.Default(), cfg.RecentWords, nil)
		if err != nil {
			return nil, err
		}
	}
	session, err := game.New(game.Options{
		Width:       cfg.Width,
		Height:      cfg.Height,
		MaxPlayers:  cfg.MaxPlayers,
		MinPlayers:  cfg.MinPlayers,
		Rounds:      cfg.Rounds,
		WordChoices: cfg.WordChoices,
		ChatHistory: cfg.ChatHistory,
		WordSelect:  seconds(cfg.WordSelectSeconds),
		Draw:        seconds(cfg.DrawSeconds),
		RoundEnd:    seconds(cfg.RoundEndSeconds),
		Hint:        seconds(cfg.HintSeconds),
		Words:       bank,
		Scoring:     scoring.Policy{BasePoints: cfg.BasePoints, DrawerPoints: cfg.DrawerPoints},
		Log:         &logger,
	})
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:     cfg,
		log:     logger,
		session: session,
		events:  make(chan event, 256),
		ctx:     ctx,
		cancel:  cancel,
		conns:   make(map[string]*conn),
		timers:  make(map[game.TimerKind]*time.Timer),
		live:    make(map[*conn]struct{}),
	}
	s.router = s.routes()
	return s, nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func (s *Server) heartbeat() time.Duration {
	return seconds(s.cfg.HeartbeatSeconds)
}

// Handler serves the HTTP surface: websocket transport, state API and status page.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndRun opens the configured listeners and runs until ctx is done.
func (s *Server) ListenAndRun(ctx context.Context) error {
	tcpLn, err := net.Listen("tcp", net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port)))
	if err != nil {
		return fmt.Errorf("listen tcp: %w", err)
	}
	var httpLn net.Listener
	if s.cfg.HTTPAddr != "" {
		httpLn, err = net.Listen("tcp", s.cfg.HTTPAddr)
		if err != nil {
			_ = tcpLn.Close()
			return fmt.Errorf("listen http: %w", err)
		}
	}
	return s.Run(ctx, tcpLn, httpLn)
}

// Run serves game connections on tcpLn and, when httpLn is not nil, the HTTP
// surface. It returns after ctx is done and every connection is closed.
func (s *Server) Run(ctx context.Context, tcpLn, httpLn net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)
	go func() {
		select {
		case <-gctx.Done():
			s.cancel()
		case <-s.ctx.Done():
		}
	}()

	g.Go(func() error {
		s.loop()
		return nil
	})
	g.Go(func() error {
		<-s.ctx.Done()
		_ = tcpLn.Close()
		return nil
	})
	g.Go(func() error {
		s.log.Info().Str("addr", tcpLn.Addr().String()).Msg("termibbl listening")
		return s.acceptTCP(tcpLn)
	})
	if httpLn != nil {
		srv := &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
		g.Go(func() error {
			s.log.Info().Str("addr", httpLn.Addr().String()).Msg("http listening")
			if err := srv.Serve(httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-s.ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	if s.cfg.Advertise {
		port := tcpLn.Addr().(*net.TCPAddr).Port
		zone, err := advertise(port)
		if err != nil {
			s.log.Warn().Err(err).Msg("mdns advertise failed")
		} else {
			s.log.Info().Int("port", port).Str("service", protocol.ServiceType).Msg("advertising on lan")
			g.Go(func() error {
				<-s.ctx.Done()
				return zone.Shutdown()
			})
		}
	}

	err := g.Wait()
	s.cancel()
	s.closeAll()
	s.log.Info().Msg("server stopped")
	return err
}

// Shutdown stops the server started by Run.
func (s *Server) Shutdown() {
	s.cancel()
}

func (s *Server) track(c *conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return false
	}
	s.live[c] = struct{}{}
	return true
}

func (s *Server) untrack(c *conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.live, c)
}

func (s *Server) closeAll() {
	s.mu.Lock()
	conns := make([]*conn, 0, len(s.live))
	for c := range s.live {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		c.close()
	}
}

func (s *Server) newConn(t transport) *conn {
	return newConn(t, s.cfg.OutboundQueue, rate.Limit(s.cfg.MessageRate), s.cfg.MessageBurst, s.log)
}

func advertise(port int) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}
	service, err := mdns.NewMDNSService(host, protocol.ServiceType, "", "", port, nil, []string{"termibbl"})
	if err != nil {
		return nil, fmt.Errorf("mdns service: %w", err)
	}
	return mdns.NewServer(&mdns.Config{Zone: service})
}
