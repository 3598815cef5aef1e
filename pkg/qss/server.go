package qss

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/akaitrade/ordinalindex/pkg/log"
	"github.com/akaitrade/ordinalindex/pkg/metrics"
)

// restartPause bounds the retry delay of the listener restart loop.
const restartPause = 200 * time.Millisecond

// disabledPollInterval is how often a disabled (port 0) server re-checks
// whether it has since been enabled.
const disabledPollInterval = 10 * time.Second

// Config configures the server's transport.
type Config struct {
	// Port is the TCP port to listen on. 0 disables the server.
	Port uint16
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server is the Query/Subscription Server.
type Server struct {
	cfg   Config
	index Index
	log   zerolog.Logger

	mu    sync.RWMutex
	conns map[string]*Conn

	httpServer *http.Server
}

// NewServer creates a server over index, answering queries against it.
func NewServer(index Index, cfg Config) *Server {
	return &Server{
		cfg:   cfg,
		index: index,
		log:   log.WithComponent("qss"),
		conns: make(map[string]*Conn),
	}
}

// ListenAndServe runs the accept loop until ctx is canceled. A listen
// failure is retried after a bounded pause; a disabled port is polled at a
// slower interval in case the config changes underneath a long-lived
// process.
func (s *Server) ListenAndServe(ctx context.Context) error {
	for {
		if s.cfg.Port == 0 {
			s.log.Info().Msg("websocket port disabled")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(disabledPollInterval):
				continue
			}
		}

		err := s.serveOnce(ctx)
		if err == nil {
			return nil
		}
		s.log.Error().Err(err).Msg("listener failed; restarting")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(restartPause):
		}
	}
}

func (s *Server) serveOnce(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleUpgrade)

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("websocket listener starting")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		} else {
			errCh <- nil
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errCh:
		return err
	}
}

// Shutdown stops accepting new connections and closes every open one with a
// going-away reason.
func (s *Server) Shutdown() error {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(ctx)
	}

	s.mu.Lock()
	conns := make([]*Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.conns = make(map[string]*Conn)
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.close("server shutting down")
	}
	metrics.QSSConnections.Set(0)
	return nil
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	id := uuid.NewString()
	c := newConn(id, ws)

	s.mu.Lock()
	s.conns[id] = c
	s.mu.Unlock()
	metrics.QSSConnections.Inc()

	s.log.Debug().Str("conn", id).Msg("connection opened")
	s.readLoop(c)

	s.mu.Lock()
	delete(s.conns, id)
	s.mu.Unlock()
	metrics.QSSConnections.Dec()
	s.log.Debug().Str("conn", id).Msg("connection closed")
}

func (s *Server) readLoop(c *Conn) {
	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			return
		}

		var req Envelope
		if err := json.Unmarshal(raw, &req); err != nil {
			_ = c.writeJSON(errorEnvelope("", "malformed message"))
			continue
		}

		resp := s.dispatch(c, req)
		if err := c.writeJSON(resp); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(c *Conn, req Envelope) Envelope {
	timer := metrics.NewTimer()
	status := "ok"
	defer func() {
		metrics.QSSRequestsTotal.WithLabelValues(fmt.Sprint(req.Type), status).Inc()
		timer.ObserveDurationVec(metrics.QSSRequestDuration, fmt.Sprint(req.Type))
	}()

	var resp Envelope
	switch req.Type {
	case TypePing:
		resp = Envelope{Type: TypePong, ID: req.ID}
	case TypeSubscribe:
		resp = s.handleSubscribe(c, req)
	case TypeUnsubscribe:
		resp = s.handleUnsubscribe(c, req)
	default:
		resp = s.handle(req)
	}
	if resp.Type == TypeError {
		status = "error"
	}
	return resp
}

// Broadcast delivers a notification to every connection subscribed to
// topic. It satisfies pkg/notify.Broadcaster. A send failure on one
// connection never affects another.
func (s *Server) Broadcast(topic string, code int, payload string) {
	s.mu.RLock()
	targets := make([]*Conn, 0, len(s.conns))
	for _, c := range s.conns {
		if c.subscribed(topic) {
			targets = append(targets, c)
		}
	}
	s.mu.RUnlock()

	env := Envelope{Type: code, ID: "", Data: []byte(payload)}
	for _, c := range targets {
		if err := c.writeJSON(env); err != nil {
			s.log.Debug().Err(err).Str("conn", c.id).Msg("notification send failed")
			continue
		}
		metrics.QSSMessagesSentTotal.Inc()
	}
}
