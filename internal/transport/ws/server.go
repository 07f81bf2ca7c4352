// Package ws exposes the device-facing WebSocket transport. Each accepted
// connection streams raw PCM in binary frames and gets its own voice
// pipeline.
package ws

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"companion-voice-go/internal/platform/logging"
)

const defaultCloseTimeout = 5 * time.Second

// Runner is the per-connection pipeline started after an upgrade.
type Runner interface {
	Run(ctx context.Context) error
}

// PipelineBuilder creates the pipeline for one accepted device connection.
// Returning an error rejects the connection.
type PipelineBuilder func(conn *websocket.Conn, deviceID string) (Runner, error)

// ServerConfig stores the settings required to expose the transport.
type ServerConfig struct {
	Addr             string
	Path             string
	HandshakeTimeout time.Duration
}

// Server accepts device connections and runs one pipeline per connection.
type Server struct {
	cfg      ServerConfig
	hub      *Hub
	builder  PipelineBuilder
	upgrader *websocket.Upgrader
	logger   *logging.Logger
	httpSrv  *http.Server
}

// NewServer builds a websocket transport server.
func NewServer(cfg ServerConfig, builder PipelineBuilder, logger *logging.Logger) *Server {
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	return &Server{
		cfg:     cfg,
		hub:     NewHub(),
		builder: builder,
		upgrader: &websocket.Upgrader{
			HandshakeTimeout: cfg.HandshakeTimeout,
			CheckOrigin:      func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Start boots the HTTP server and listens for websocket upgrades. It blocks
// until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if s.httpSrv != nil {
		return nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, func(w http.ResponseWriter, req *http.Request) {
		s.handle(ctx, w, req)
	})

	s.httpSrv = &http.Server{
		Addr:    s.cfg.Addr,
		Handler: mux,
	}

	if ctx != nil {
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeoutCause(context.Background(), defaultCloseTimeout, ErrServerShutdown)
			defer cancel()
			_ = s.httpSrv.Shutdown(shutdownCtx)
		}()
	}

	s.logger.InfoTag("transport", "listening on %s%s", s.cfg.Addr, s.cfg.Path)

	err := s.httpSrv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully stops the server and cancels active sessions.
func (s *Server) Stop() error {
	if s.httpSrv == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeoutCause(context.Background(), defaultCloseTimeout, ErrServerShutdown)
	defer cancel()

	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
		return err
	}

	s.hub.CloseAll()
	s.httpSrv = nil
	return nil
}

// Sessions reports the number of live device connections.
func (s *Server) Sessions() int {
	return s.hub.Count()
}

func (s *Server) handle(ctx context.Context, w http.ResponseWriter, req *http.Request) {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		s.logger.ErrorTag("transport", "handshake failed: %v", err)
		return
	}

	deviceID := resolveDeviceID(req, conn)
	pipeline, err := s.builder(conn, deviceID)
	if err != nil || pipeline == nil {
		s.logger.ErrorTag("transport", "reject device %s: %v", deviceID, err)
		_ = conn.Close()
		return
	}

	sessCtx, cancel := context.WithCancel(ctx)
	sess := &session{id: uuid.NewString(), deviceID: deviceID, cancel: cancel}
	s.hub.register(sess)
	s.logger.InfoTag("transport", "device connected device=%s session=%s", deviceID, sess.id)

	go func() {
		defer cancel()
		defer s.hub.unregister(sess.id)
		defer func() { _ = conn.Close() }()

		if runErr := pipeline.Run(sessCtx); runErr != nil {
			s.logger.WarnTag("transport", "session %s ended: %v", sess.id, runErr)
			return
		}
		s.logger.InfoTag("transport", "session %s closed", sess.id)
	}()
}

func resolveDeviceID(req *http.Request, conn *websocket.Conn) string {
	deviceID := req.Header.Get("Device-Id")
	if deviceID == "" {
		deviceID = req.URL.Query().Get("device-id")
	}
	if deviceID == "" {
		deviceID = fmt.Sprintf("%p", conn)
	}
	return deviceID
}
