package server

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/pelltigre/sketchparty/game"
	"github.com/pelltigre/sketchparty/server/containers"
)

const (
	actionTimeout = 5 * time.Second
	outboxSize    = 64
)

// roomEntry pairs a running room with the live sockets of its players.
type roomEntry struct {
	room  *game.Room
	mu    sync.RWMutex
	conns map[uint]*playerConn
}

func (e *roomEntry) send(id uint, data []byte) {
	e.mu.RLock()
	pc, ok := e.conns[id]
	e.mu.RUnlock()
	if ok {
		pc.enqueue(data)
	}
}

// register installs a connection, returning any displaced socket for
// the same identity so the caller can close it.
func (e *roomEntry) register(id uint, pc *playerConn) *playerConn {
	e.mu.Lock()
	defer e.mu.Unlock()
	old := e.conns[id]
	e.conns[id] = pc
	return old
}

// unregister removes the connection if it is still the current one for
// this player. Reports whether it was, and how many sockets remain.
func (e *roomEntry) unregister(id uint, pc *playerConn) (bool, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.conns[id] != pc {
		return false, len(e.conns)
	}
	delete(e.conns, id)
	return true, len(e.conns)
}

type playerConn struct {
	ws        *websocket.Conn
	outbox    chan []byte
	closeOnce sync.Once
	closed    chan struct{}
}

func newPlayerConn(ws *websocket.Conn) *playerConn {
	return &playerConn{
		ws:     ws,
		outbox: make(chan []byte, outboxSize),
		closed: make(chan struct{}),
	}
}

// enqueue drops the message when the outbox is full: a stalled client
// must not block the room's notifications to everyone else.
func (p *playerConn) enqueue(data []byte) {
	select {
	case p.outbox <- data:
	case <-p.closed:
	default:
	}
}

func (p *playerConn) writePump() {
	for {
		select {
		case data := <-p.outbox:
			if err := p.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-p.closed:
			return
		}
	}
}

func (p *playerConn) close() {
	p.closeOnce.Do(func() {
		close(p.closed)
		p.ws.Close()
	})
}

// serve runs one player's connection until it drops. Inbound actions go
// through a per-connection rate limiter, then through the room's serial
// queue; rejections come back to this player only.
func (s *Server) serve(entry *roomEntry, ws *websocket.Conn, userID uint, username string) {
	pc := newPlayerConn(ws)
	if displaced := entry.register(userID, pc); displaced != nil {
		displaced.close()
	}
	go pc.writePump()

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	rej := entry.room.Join(ctx, userID, username)
	cancel()
	if rej != nil {
		if data, err := containers.EncodeRejection(rej); err == nil {
			pc.enqueue(data)
		}
		time.Sleep(100 * time.Millisecond)
		pc.close()
		if _, remaining := entry.unregister(userID, pc); remaining == 0 {
			s.removeRoom(entry.room.ID)
		}
		return
	}

	limiter := rate.NewLimiter(5, 10)
	left := false

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			break
		}
		if !limiter.Allow() {
			s.rejectConn(pc, game.RejectBadPayload, "too many messages, slow down")
			continue
		}

		var msg containers.ActionMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.rejectConn(pc, game.RejectBadPayload, "message is not valid json")
			continue
		}
		action, err := msg.ToAction(userID)
		if err != nil {
			s.rejectConn(pc, game.RejectBadPayload, err.Error())
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		rej := entry.room.Do(ctx, action)
		cancel()
		if rej != nil {
			if data, err := containers.EncodeRejection(rej); err == nil {
				pc.enqueue(data)
			}
		}
		if action.Type == game.ActionLeave && rej == nil {
			left = true
			break
		}
	}

	pc.close()
	wasCurrent, remaining := entry.unregister(userID, pc)
	if wasCurrent && !left {
		entry.room.Disconnect(userID)
	}
	if remaining == 0 {
		s.removeRoom(entry.room.ID)
		log.Printf("[serve] room %s emptied, shut down", entry.room.ID)
	}
}

func (s *Server) rejectConn(pc *playerConn, code game.RejectionCode, reason string) {
	data, err := containers.EncodeRejection(&game.Rejection{Code: code, Reason: reason})
	if err != nil {
		return
	}
	pc.enqueue(data)
}
