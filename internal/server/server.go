// Package server is the relay that lets several editors share a canvas.
//
// Peers join a room over a websocket. Every well-formed operation a peer
// sends is reduced into the room's state, appended to its journal and
// relayed to the other peers in the room. A newcomer first receives the
// whole journal, then live traffic. With a store configured the journal is
// durable and rooms survive restarts.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/roach88/canco/internal/shape"
	"github.com/roach88/canco/internal/store"
)

// DefaultWriteTimeout bounds each websocket write to a peer.
const DefaultWriteTimeout = 5 * time.Second

// Server is the relay HTTP server.
type Server struct {
	engine   *gin.Engine
	rooms    *registry
	store    *store.Store
	logger   *slog.Logger
	upgrader websocket.Upgrader

	origins      []string
	writeTimeout time.Duration
	newID        func() string
	now          func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithStore journals every room to st.
func WithStore(st *store.Store) Option {
	return func(s *Server) { s.store = st }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithAllowedOrigins sets the CORS origins. Default: all origins.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithWriteTimeout sets the per-write deadline for peers.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) { s.writeTimeout = d }
}

// WithIDGenerator sets the room id source. Default: random UUIDs.
func WithIDGenerator(g shape.IDGenerator) Option {
	return func(s *Server) { s.newID = g.Generate }
}

// WithNow sets the clock used for room creation and export timestamps.
func WithNow(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New builds the server and its routes.
func New(opts ...Option) *Server {
	s := &Server{
		rooms:        newRegistry(),
		logger:       slog.Default(),
		origins:      []string{"*"},
		writeTimeout: DefaultWriteTimeout,
		newID:        uuid.NewString,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300 * time.Second,
	}))

	r.GET("/ping", s.handlePing)

	api := r.Group("/api")
	{
		api.POST("/rooms", s.handleCreateRoom)
		api.POST("/createRoom", s.handleCreateRoom)
		api.GET("/rooms", s.handleListRooms)
		api.GET("/rooms/:roomID/export", s.handleExport)
		api.GET("/join/:roomID", s.handleJoin)
	}

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down and
// disconnects every peer.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("relay listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)

	case <-ctx.Done():
		s.logger.Info("relay stopping: context cancelled")
		// Hijacked websocket connections are not closed by Shutdown.
		s.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// Close disconnects every peer of every room.
func (s *Server) Close() {
	for _, r := range s.rooms.all() {
		r.closeAll()
	}
}

// room returns the live room, creating it and seeding it from the journal
// on first use.
func (s *Server) room(ctx context.Context, id string) (*room, error) {
	now := s.now()
	var seed func() ([]shape.Operation, error)
	if s.store != nil {
		seed = func() ([]shape.Operation, error) {
			if err := s.store.CreateRoom(ctx, id, now); err != nil {
				return nil, err
			}
			return s.store.ReadRoom(ctx, id)
		}
	}
	return s.rooms.getOrCreate(id, now, seed)
}

// lookup returns the room only if it is live or journaled.
func (s *Server) lookup(ctx context.Context, id string) (*room, bool, error) {
	if r, ok := s.rooms.get(id); ok {
		return r, true, nil
	}
	if s.store == nil {
		return nil, false, nil
	}
	exists, err := s.store.RoomExists(ctx, id)
	if err != nil || !exists {
		return nil, false, err
	}
	r, err := s.room(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return r, true, nil
}

func requestLogger(l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
