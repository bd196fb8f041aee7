package router

import (
	"sync"

	"broker/internal/message"
	"broker/internal/obs"
	"broker/internal/order"
	"broker/internal/report"
	"broker/internal/session"
	"broker/pkg/exception"

	"github.com/yanun0323/errors"
)

// Handler processes one inbound application message of a session.
type Handler func(msg message.Message, sid session.ID) error

// Engine is the order side the router dispatches to.
type Engine interface {
	Submit(sid session.ID, req order.Request) (order.Order, error)
	RequestCancel(sid session.ID, req order.CancelRequest) error
}

// Config controls routing of message types without a handler.
type Config struct {
	RejectUnsupported bool
	Sender            session.Sender
	Builder           *report.Builder
	Logger            obs.Logger
	Metrics           *obs.Metrics
}

// Router dispatches inbound messages by type.
type Router struct {
	cfg      Config
	mu       sync.RWMutex
	handlers map[message.MsgType]Handler
	fallback Handler
}

var _ session.Application = (*Router)(nil)

// New creates a router with the order handlers of engine registered.
func New(engine Engine, cfg Config) (*Router, error) {
	if engine == nil {
		return nil, errors.Wrap(exception.ErrNilInstance, "engine")
	}
	if cfg.RejectUnsupported && cfg.Sender == nil {
		return nil, errors.Wrap(exception.ErrNilInstance, "sender")
	}
	if cfg.Builder == nil {
		cfg.Builder = report.NewBuilder(nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = obs.Nop()
	}

	r := &Router{
		cfg:      cfg,
		handlers: make(map[message.MsgType]Handler),
	}
	r.fallback = r.unsupported
	r.Handle(message.MsgTypeNewOrderSingle, func(msg message.Message, sid session.ID) error {
		_, err := engine.Submit(sid, order.RequestFromMessage(msg))
		return err
	})
	r.Handle(message.MsgTypeOrderCancelRequest, func(msg message.Message, sid session.ID) error {
		return engine.RequestCancel(sid, order.CancelRequestFromMessage(msg))
	})
	return r, nil
}

// Handle registers h for msg type t, replacing any previous handler of t.
func (r *Router) Handle(t message.MsgType, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h == nil {
		delete(r.handlers, t)
		return
	}
	r.handlers[t] = h
}

// Route dispatches msg to its handler or to the fallback.
func (r *Router) Route(msg message.Message, sid session.ID) error {
	r.cfg.Metrics.IncInbound()

	r.mu.RLock()
	h, ok := r.handlers[msg.Type]
	r.mu.RUnlock()
	if !ok {
		h = r.fallback
	}
	defer r.cfg.Metrics.IncHandled()
	return h(msg, sid)
}

func (r *Router) OnSessionUp(id session.ID) {
	r.cfg.Logger.Infof("session up, session: %s", id)
}

func (r *Router) OnSessionDown(id session.ID) {
	r.cfg.Logger.Infof("session down, session: %s", id)
}

// OnInboundMessage routes a message delivered by the transport. Handler errors
// are already answered and logged by the engine.
func (r *Router) OnInboundMessage(msg message.Message, id session.ID) {
	_ = r.Route(msg, id)
}

func (r *Router) unsupported(msg message.Message, sid session.ID) error {
	err := errors.Wrapf(exception.ErrUnsupportedMessage, "type: %s", msg.Type)
	if !r.cfg.RejectUnsupported {
		r.cfg.Logger.Infof("drop message, session: %s, type: %s", sid, msg.Type)
		return err
	}

	r.cfg.Logger.Infof("reject message, session: %s, type: %s", sid, msg.Type)
	if serr := r.cfg.Sender.Send(r.cfg.Builder.BuildUnsupported(msg.Type), sid); serr != nil {
		r.cfg.Metrics.IncSendFailure()
		r.cfg.Logger.Errorf("send business reject, session: %s, err: %+v", sid, serr)
	}
	r.cfg.Metrics.IncBusinessReject()
	return err
}
