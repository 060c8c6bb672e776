package server

import (
	"bytes"
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/roach88/canco/internal/channel"
	"github.com/roach88/canco/internal/export"
	"github.com/roach88/canco/internal/store"
)

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

func (s *Server) handleCreateRoom(c *gin.Context) {
	id := s.newID()
	if _, err := s.room(c.Request.Context(), id); err != nil {
		s.logger.Error("create room failed", "room", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create room failed"})
		return
	}
	s.logger.Info("room created", "room", id)
	c.JSON(http.StatusOK, gin.H{
		"message": "Room created",
		"roomID":  id,
	})
}

func (s *Server) handleListRooms(c *gin.Context) {
	if s.store != nil {
		rooms, err := s.store.ListRooms(c.Request.Context())
		if err != nil {
			s.logger.Error("list rooms failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list rooms failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"rooms": rooms})
		return
	}

	live := s.rooms.all()
	rooms := make([]store.Room, 0, len(live))
	for _, r := range live {
		_, n := r.snapshot()
		rooms = append(rooms, store.Room{ID: r.id, CreatedAt: r.createdAt.UnixMilli(), Operations: n})
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].CreatedAt != rooms[j].CreatedAt {
			return rooms[i].CreatedAt < rooms[j].CreatedAt
		}
		return rooms[i].ID < rooms[j].ID
	})
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// handleExport writes the room snapshot. ?format= selects json (default),
// pdf or png.
func (s *Server) handleExport(c *gin.Context) {
	id := c.Param("roomID")
	r, ok, err := s.lookup(c.Request.Context(), id)
	if err != nil {
		s.logger.Error("room lookup failed", "room", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "room lookup failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	st, _ := r.snapshot()
	doc := export.New(st, s.now())

	switch format := c.DefaultQuery("format", "json"); format {
	case "json":
		data, err := export.Encode(doc)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", data)

	case "pdf", "png":
		var buf bytes.Buffer
		if format == "pdf" {
			err = export.WritePDF(&buf, doc, export.DefaultRenderOptions())
		} else {
			err = export.WritePNG(&buf, doc, export.DefaultRenderOptions())
		}
		if errors.Is(err, export.ErrEmptyCanvas) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			s.logger.Error("render failed", "room", id, "format", format, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "render failed"})
			return
		}
		contentType := "application/pdf"
		if format == "png" {
			contentType = "image/png"
		}
		c.Data(http.StatusOK, contentType, buf.Bytes())

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported format " + format})
	}
}

// handleJoin upgrades to a websocket, replays the room journal, then relays
// until the peer disconnects.
func (s *Server) handleJoin(c *gin.Context) {
	id := c.Param("roomID")
	ctx := c.Request.Context()

	r, err := s.room(ctx, id)
	if err != nil {
		s.logger.Error("open room failed", "room", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "open room failed"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Warn("websocket upgrade failed", "room", id, "error", err)
		return
	}
	defer conn.Close()

	p := &peer{id: uuid.NewString(), conn: conn}
	if err := r.join(p, s.writeTimeout, s.logger); err != nil {
		s.logger.Warn("journal replay failed", "room", id, "peer", p.id, "error", err)
		return
	}
	defer func() {
		left := r.leave(p)
		s.logger.Info("peer left", "room", id, "peer", p.id, "peers", left)
	}()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("peer read ended", "room", id, "peer", p.id, "error", err)
			}
			return
		}

		op, err := channel.Decode(frame)
		if err != nil {
			s.logger.Warn("dropping malformed frame", "room", id, "peer", p.id, "error", err)
			continue
		}

		isNew, err := r.apply(ctx, op, p, s.store, s.writeTimeout, s.logger)
		if err != nil {
			s.logger.Error("apply operation failed",
				"room", id,
				"op_id", op.ID,
				"type", op.Type(),
				"error", err,
			)
			continue
		}
		if !isNew {
			s.logger.Debug("duplicate operation", "room", id, "op_id", op.ID)
		}
	}
}
