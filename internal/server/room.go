package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roach88/canco/internal/canvas"
	"github.com/roach88/canco/internal/channel"
	"github.com/roach88/canco/internal/shape"
	"github.com/roach88/canco/internal/store"
)

// peer is one websocket connection in a room. Writes to conn happen only
// while the room mutex is held.
type peer struct {
	id   string
	conn *websocket.Conn
}

// room is the relay scope for one canvas. Apply, journal and relay happen
// under mu so every peer sees operations in journal order.
type room struct {
	id        string
	createdAt time.Time

	mu    sync.Mutex
	state canvas.State
	ops   []shape.Operation
	seen  map[string]struct{}
	peers map[*peer]struct{}
}

func newRoom(id string, createdAt time.Time) *room {
	return &room{
		id:        id,
		createdAt: createdAt,
		state:     canvas.Empty(),
		ops:       []shape.Operation{},
		seen:      make(map[string]struct{}),
		peers:     make(map[*peer]struct{}),
	}
}

// load seeds the room from a journal.
func (r *room) load(ops []shape.Operation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, op := range ops {
		if _, dup := r.seen[op.ID]; dup {
			continue
		}
		r.seen[op.ID] = struct{}{}
		r.ops = append(r.ops, op)
		r.state = canvas.Apply(r.state, op)
	}
}

// snapshot returns the current state and journal length.
func (r *room) snapshot() (canvas.State, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, len(r.ops)
}

// join sends the journal to p and then registers it for live traffic. Both
// happen under the room mutex so p misses nothing and sees nothing twice.
func (r *room) join(p *peer, writeTimeout time.Duration, logger *slog.Logger) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, op := range r.ops {
		frame, err := channel.Encode(op)
		if err != nil {
			return err
		}
		if err := writeFrame(p.conn, frame, writeTimeout); err != nil {
			return err
		}
	}
	r.peers[p] = struct{}{}
	logger.Info("peer joined",
		"room", r.id,
		"peer", p.id,
		"replayed", len(r.ops),
		"peers", len(r.peers),
	)
	return nil
}

// leave unregisters p.
func (r *room) leave(p *peer) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.peers, p)
	return len(r.peers)
}

// apply reduces op into the room, journals it and relays it to every peer
// except from. Operations whose id was already seen are dropped. Returns
// whether op was new.
func (r *room) apply(ctx context.Context, op shape.Operation, from *peer, st *store.Store, writeTimeout time.Duration, logger *slog.Logger) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.seen[op.ID]; dup {
		return false, nil
	}
	if st != nil {
		if _, err := st.WriteOperation(ctx, r.id, op); err != nil {
			return false, err
		}
	}
	r.seen[op.ID] = struct{}{}
	r.ops = append(r.ops, op)
	r.state = canvas.Apply(r.state, op)

	frame, err := channel.Encode(op)
	if err != nil {
		return true, err
	}
	for p := range r.peers {
		if p == from {
			continue
		}
		if err := writeFrame(p.conn, frame, writeTimeout); err != nil {
			logger.Warn("relay failed, dropping peer",
				"room", r.id,
				"peer", p.id,
				"error", err,
			)
			delete(r.peers, p)
			p.conn.Close()
		}
	}
	return true, nil
}

// closeAll disconnects every peer.
func (r *room) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for p := range r.peers {
		p.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		p.conn.Close()
		delete(r.peers, p)
	}
}

func writeFrame(conn *websocket.Conn, frame []byte, timeout time.Duration) error {
	if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, frame)
}

// registry holds the live rooms.
type registry struct {
	mu    sync.Mutex
	rooms map[string]*room
}

func newRegistry() *registry {
	return &registry{rooms: make(map[string]*room)}
}

func (g *registry) get(id string) (*room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.rooms[id]
	return r, ok
}

// getOrCreate returns the room, creating it on first use. A new room is
// seeded from seed (when non-nil) before any peer can see it.
func (g *registry) getOrCreate(id string, now time.Time, seed func() ([]shape.Operation, error)) (*room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.rooms[id]; ok {
		return r, nil
	}
	r := newRoom(id, now)
	if seed != nil {
		ops, err := seed()
		if err != nil {
			return nil, err
		}
		r.load(ops)
	}
	g.rooms[id] = r
	return r, nil
}

func (g *registry) all() []*room {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*room, 0, len(g.rooms))
	for _, r := range g.rooms {
		out = append(out, r)
	}
	return out
}
