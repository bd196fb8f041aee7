package session

import (
	"context"
	"sync"

	"broker/internal/message"
	"broker/pkg/exception"

	"github.com/yanun0323/errors"
)

const defaultQueueSize = 1024

// HubConfig controls the in-memory transport.
type HubConfig struct {
	InboundQueueSize  int
	OutboundQueueSize int
	Tap               Tap
}

// Hub is an in-memory transport. Every session owns one inbound and one
// outbound FIFO, each drained by its own goroutine: messages of one session
// keep their order while sessions never wait on each other.
type Hub struct {
	cfg HubConfig

	mu    sync.RWMutex
	app   Application
	conns map[ID]*conn
}

type conn struct {
	inbound  *Queue[message.Message]
	outbound *Queue[message.Typed]
	cancel   context.CancelFunc
	inWG     sync.WaitGroup
	outWG    sync.WaitGroup
	once     sync.Once
}

var _ Sender = (*Hub)(nil)

// NewHub creates a hub without sessions.
func NewHub(cfg HubConfig) *Hub {
	if cfg.InboundQueueSize <= 0 {
		cfg.InboundQueueSize = defaultQueueSize
	}
	if cfg.OutboundQueueSize <= 0 {
		cfg.OutboundQueueSize = defaultQueueSize
	}
	return &Hub{
		cfg:   cfg,
		conns: make(map[ID]*conn),
	}
}

// Attach sets the application receiving inbound messages and session events.
func (h *Hub) Attach(app Application) {
	h.mu.Lock()
	h.app = app
	h.mu.Unlock()
}

// Open starts a session. Outbound messages for it are handed to sink in order.
func (h *Hub) Open(ctx context.Context, id ID, sink Sink) error {
	if sink == nil {
		return exception.ErrSessionNilSink
	}

	h.mu.Lock()
	app := h.app
	if app == nil {
		h.mu.Unlock()
		return exception.ErrSessionNoApplication
	}
	if _, ok := h.conns[id]; ok {
		h.mu.Unlock()
		return errors.Wrapf(exception.ErrSessionExists, "session: %s", id)
	}

	ctx, cancel := context.WithCancel(ctx)
	c := &conn{
		inbound:  NewQueue[message.Message](h.cfg.InboundQueueSize),
		outbound: NewQueue[message.Typed](h.cfg.OutboundQueueSize),
		cancel:   cancel,
	}
	h.conns[id] = c
	h.mu.Unlock()

	tap := h.cfg.Tap
	c.inWG.Add(1)
	go func() {
		defer c.inWG.Done()
		c.inbound.Run(ctx, func(msg message.Message) {
			if tap != nil {
				tap.Record(DirectionInbound, id, msg)
			}
			app.OnInboundMessage(msg, id)
		})
	}()
	c.outWG.Add(1)
	go func() {
		defer c.outWG.Done()
		c.outbound.Run(ctx, func(msg message.Typed) {
			if tap != nil {
				tap.Record(DirectionOutbound, id, msg)
			}
			sink(msg)
		})
	}()

	app.OnSessionUp(id)
	return nil
}

// Deliver enqueues an inbound message for the session without blocking.
func (h *Hub) Deliver(id ID, msg message.Message) error {
	c, ok := h.conn(id)
	if !ok {
		return errors.Wrapf(exception.ErrSessionNotFound, "session: %s", id)
	}
	if err := c.inbound.TryPublish(msg); err != nil {
		return errors.Wrapf(err, "deliver to session: %s", id)
	}
	return nil
}

// Send implements Sender.
func (h *Hub) Send(msg message.Typed, id ID) error {
	c, ok := h.conn(id)
	if !ok {
		return errors.Wrapf(exception.ErrSessionNotFound, "session: %s", id)
	}
	if err := c.outbound.TryPublish(msg); err != nil {
		return errors.Wrapf(err, "send to session: %s", id)
	}
	return nil
}

// Close stops a session. Queued inbound messages are processed first and the
// outbound messages they produce are still handed to the sink.
func (h *Hub) Close(id ID) error {
	c, ok := h.conn(id)
	if !ok {
		return errors.Wrapf(exception.ErrSessionNotFound, "session: %s", id)
	}

	closed := false
	c.once.Do(func() {
		closed = true
		c.inbound.Close()
		c.inWG.Wait()

		h.mu.Lock()
		delete(h.conns, id)
		app := h.app
		h.mu.Unlock()

		c.outbound.Close()
		c.outWG.Wait()
		c.cancel()

		if app != nil {
			app.OnSessionDown(id)
		}
	})
	if !closed {
		return errors.Wrapf(exception.ErrSessionNotFound, "session: %s", id)
	}
	return nil
}

// Shutdown closes every open session.
func (h *Hub) Shutdown() {
	for _, id := range h.Sessions() {
		_ = h.Close(id)
	}
}

// Sessions returns the ids of open sessions.
func (h *Hub) Sessions() []ID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]ID, 0, len(h.conns))
	for id := range h.conns {
		out = append(out, id)
	}
	return out
}

func (h *Hub) conn(id ID) (*conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[id]
	return c, ok
}
