package world

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"
)

// Conn is the slice of *websocket.Conn the broadcaster writes through.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// DefaultSendBuffer is how many frames may queue for one client before it
// is considered stuck and dropped.
const DefaultSendBuffer = 64

var (
	ErrClientClosed   = errors.New("client closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Client is one registered connection. Frames are queued on send and
// written by the client's own writer goroutine, so a slow peer only ever
// stalls itself.
type Client struct {
	id           string
	conn         Conn
	log          *zap.Logger
	writeTimeout time.Duration

	send   chan []byte
	done   chan struct{}
	closed atomic.Bool
}

func (c *Client) ID() string {
	return c.id
}

// WriteJSON queues v for this client only.
func (c *Client) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.enqueue(data)
}

// enqueue never blocks.
func (c *Client) enqueue(data []byte) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrClientClosed
	default:
		return ErrSendBufferFull
	}
}

func (c *Client) writePump() {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			if c.writeTimeout > 0 {
				_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Debug("write failed, dropping client", zap.String("player", c.id), zap.Error(err))
				_ = c.Close()
				return
			}
		}
	}
}

// Close shuts the socket and stops the writer. Queued frames are dropped.
// The connection's read loop notices and cleans up.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	close(c.done)
	return c.conn.Close()
}

type BroadcasterOptions struct {
	WriteTimeout time.Duration
	NPCTick      time.Duration // 0 disables NPC walking
	SendBuffer   int           // frames queued per client, 0 = DefaultSendBuffer
}

type Broadcaster struct {
	store *Store
	log   *zap.Logger
	opts  BroadcasterOptions

	mu      deadlock.RWMutex
	clients map[string]*Client

	// one fan-out at a time, so every client queues frames in build order
	sendMu sync.Mutex
}

func NewBroadcaster(store *Store, opts BroadcasterOptions, log *zap.Logger) *Broadcaster {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = DefaultSendBuffer
	}
	return &Broadcaster{
		store:   store,
		log:     log.Named("broadcaster"),
		opts:    opts,
		clients: make(map[string]*Client),
	}
}

// NewClient wraps a connection and starts its writer. It receives nothing
// from fan-outs until Register is called, which lets the caller queue the
// welcome frame first.
func (b *Broadcaster) NewClient(id string, conn Conn) *Client {
	c := &Client{
		id:           id,
		conn:         conn,
		log:          b.log,
		writeTimeout: b.opts.WriteTimeout,
		send:         make(chan []byte, b.opts.SendBuffer),
		done:         make(chan struct{}),
	}
	go c.writePump()
	return c
}

func (b *Broadcaster) Register(c *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if old, ok := b.clients[c.id]; ok && old != c {
		_ = old.Close()
	}
	b.clients[c.id] = c
}

func (b *Broadcaster) Unregister(id string) {
	b.mu.Lock()
	c, ok := b.clients[id]
	if ok {
		delete(b.clients, id)
	}
	b.mu.Unlock()

	if ok {
		_ = c.Close()
	}
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// BroadcastState sends the current snapshot to every client except
// exclude. Pass "" to include everyone.
func (b *Broadcaster) BroadcastState(exclude string) {
	b.sendMu.Lock()
	defer b.sendMu.Unlock()

	data, err := json.Marshal(b.store.Snapshot())
	if err != nil {
		b.log.Error("snapshot marshal failed", zap.Error(err))
		return
	}
	b.fanOut(data, exclude)
}

// Relay sends a one-off event to everyone except the player it came from.
// Nothing is kept; late joiners never see it.
func (b *Broadcaster) Relay(from string, v any) {
	b.sendMu.Lock()
	defer b.sendMu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		b.log.Error("event marshal failed", zap.Error(err))
		return
	}
	b.fanOut(data, from)
}

// fanOut only queues, so it never waits on a peer. A client whose queue is
// full is closed and skipped; everyone else still gets the frame.
func (b *Broadcaster) fanOut(data []byte, exclude string) {
	b.mu.RLock()
	targets := make([]*Client, 0, len(b.clients))
	for id, c := range b.clients {
		if id == exclude || c.closed.Load() {
			continue
		}
		targets = append(targets, c)
	}
	b.mu.RUnlock()

	for _, c := range targets {
		if err := c.enqueue(data); err != nil {
			b.log.Debug("client not keeping up, dropping", zap.String("player", c.id), zap.Error(err))
			_ = c.Close()
		}
	}
}

// Run drives the NPC walker until ctx is done, pushing a snapshot after
// every step while anyone is connected.
func (b *Broadcaster) Run(ctx context.Context) {
	if b.opts.NPCTick <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(b.opts.NPCTick)
	defer ticker.Stop()
	b.log.Info("npc walker started", zap.Duration("tick", b.opts.NPCTick))

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return

		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			b.store.StepNPCs(dt)
			if b.ClientCount() > 0 {
				b.BroadcastState("")
			}
		}
	}
}
