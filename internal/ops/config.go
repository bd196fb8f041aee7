package ops

import (
	"os"
	"strconv"
	"time"

	"broker/internal/message"
	"broker/internal/msglog"
	"broker/internal/session"
	"broker/internal/venue"
	"broker/pkg/exception"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
)

const (
	defaultFillDelay     = time.Second
	defaultSessionID     = "FIX.4.4:CLIENT->BROKER"
	defaultSymbol        = "COMPANY_SYMBOL"
	defaultClOrdID       = "ORDER_1"
	defaultPrice         = "150.00"
	defaultOrderQty      = "100"
	defaultMsglogDir     = "log"
	defaultMsglogPrefix  = "broker"
	defaultFlushInterval = time.Second
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Engine  EngineConfig  `json:"engine"`
	Session SessionConfig `json:"session"`
	Venue   VenueConfig   `json:"venue"`
	Msglog  MsglogConfig  `json:"msglog"`
	Sim     SimConfig     `json:"sim"`
}

// EngineConfig controls routing behavior.
type EngineConfig struct {
	RejectUnsupported *bool `json:"rejectUnsupported"`
}

// SessionConfig sizes the per-session queues.
type SessionConfig struct {
	InboundQueueSize  int `json:"inboundQueueSize"`
	OutboundQueueSize int `json:"outboundQueueSize"`
}

// VenueConfig describes the simulated execution venue.
type VenueConfig struct {
	FillDelay    *Duration                  `json:"fillDelay"`
	Jitter       Duration                   `json:"jitter"`
	FillSlices   int                        `json:"fillSlices"`
	RejectRate   float64                    `json:"rejectRate"`
	Seed         int64                      `json:"seed"`
	Workers      int                        `json:"workers"`
	QueueSize    int                        `json:"queueSize"`
	MarketPrices map[string]decimal.Decimal `json:"marketPrices"`
}

// MsglogConfig describes the session message log.
type MsglogConfig struct {
	Enabled         bool     `json:"enabled"`
	Dir             string   `json:"dir"`
	Prefix          string   `json:"prefix"`
	SegmentMaxBytes int64    `json:"segmentMaxBytes"`
	FlushInterval   Duration `json:"flushInterval"`
}

// SimConfig describes the simulated counterparties driven by the binary.
type SimConfig struct {
	Sessions []SimSessionConfig `json:"sessions"`
}

// SimSessionConfig is one simulated counterparty session.
type SimSessionConfig struct {
	ID     string           `json:"id"`
	Orders []SimOrderConfig `json:"orders"`
}

// SimOrderConfig is one order a simulated counterparty sends. Values are raw
// field values and are validated by the engine, not here.
type SimOrderConfig struct {
	ClOrdID     string   `json:"clOrdId"`
	Symbol      string   `json:"symbol"`
	Side        string   `json:"side"`
	OrdType     string   `json:"ordType"`
	Price       string   `json:"price"`
	OrderQty    string   `json:"orderQty"`
	CancelAfter Duration `json:"cancelAfter"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Engine  EngineSettings
	Session session.HubConfig
	Venue   venue.Config
	Msglog  MsglogSettings
	Sim     []SimSession
}

// EngineSettings are resolved routing settings.
type EngineSettings struct {
	RejectUnsupported bool
}

// MsglogSettings are resolved message log settings.
type MsglogSettings struct {
	Enabled bool
	Config  msglog.Config
}

// SimSession is a resolved simulated counterparty.
type SimSession struct {
	ID     session.ID
	Orders []SimOrder
}

// SimOrder is a ready to deliver new order single and its optional cancel.
type SimOrder struct {
	Message     message.Message
	Cancel      message.Message
	CancelAfter time.Duration
}

// Default returns the configuration used when no file is given.
func Default() Loaded {
	loaded, err := Resolve(FileConfig{})
	if err != nil {
		panic(err)
	}
	return loaded
}

// Load reads a JSON config file and resolves it.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	return Parse(data)
}

// Parse decodes and resolves a JSON config.
func Parse(data []byte) (Loaded, error) {
	var cfg FileConfig
	if err := sonic.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, errors.Wrap(err, "decode config")
	}
	return Resolve(cfg)
}

// Resolve applies defaults and validates cfg.
func Resolve(cfg FileConfig) (Loaded, error) {
	venueCfg, err := resolveVenue(cfg.Venue)
	if err != nil {
		return Loaded{}, err
	}
	msglogCfg, err := resolveMsglog(cfg.Msglog)
	if err != nil {
		return Loaded{}, err
	}
	sim, err := resolveSim(cfg.Sim)
	if err != nil {
		return Loaded{}, err
	}
	if cfg.Session.InboundQueueSize < 0 || cfg.Session.OutboundQueueSize < 0 {
		return Loaded{}, errors.Wrap(exception.ErrInvalidArgument, "session queue sizes must be >= 0")
	}

	engine := EngineSettings{RejectUnsupported: true}
	if cfg.Engine.RejectUnsupported != nil {
		engine.RejectUnsupported = *cfg.Engine.RejectUnsupported
	}

	return Loaded{
		Engine: engine,
		Session: session.HubConfig{
			InboundQueueSize:  cfg.Session.InboundQueueSize,
			OutboundQueueSize: cfg.Session.OutboundQueueSize,
		},
		Venue:  venueCfg,
		Msglog: msglogCfg,
		Sim:    sim,
	}, nil
}

func resolveVenue(cfg VenueConfig) (venue.Config, error) {
	delay := defaultFillDelay
	if cfg.FillDelay != nil {
		delay = cfg.FillDelay.Std()
	}
	out := venue.Config{
		Delay:        delay,
		Jitter:       cfg.Jitter.Std(),
		Slices:       cfg.FillSlices,
		RejectRate:   cfg.RejectRate,
		Seed:         cfg.Seed,
		MarketPrices: cfg.MarketPrices,
		Workers:      cfg.Workers,
		QueueSize:    cfg.QueueSize,
	}
	if err := out.Validate(); err != nil {
		return venue.Config{}, errors.Wrap(err, "venue")
	}
	return out, nil
}

func resolveMsglog(cfg MsglogConfig) (MsglogSettings, error) {
	out := msglog.DefaultConfig(defaultMsglogDir)
	out.FilePrefix = defaultMsglogPrefix
	out.FlushInterval = defaultFlushInterval
	if cfg.Dir != "" {
		out.Dir = cfg.Dir
	}
	if cfg.Prefix != "" {
		out.FilePrefix = cfg.Prefix
	}
	if cfg.SegmentMaxBytes != 0 {
		out.SegmentMaxBytes = cfg.SegmentMaxBytes
	}
	if cfg.FlushInterval != 0 {
		out.FlushInterval = cfg.FlushInterval.Std()
	}
	if err := out.Validate(); err != nil {
		return MsglogSettings{}, err
	}
	return MsglogSettings{Enabled: cfg.Enabled, Config: out}, nil
}

func resolveSim(cfg SimConfig) ([]SimSession, error) {
	if len(cfg.Sessions) == 0 {
		cfg.Sessions = []SimSessionConfig{{
			ID: defaultSessionID,
			Orders: []SimOrderConfig{{
				ClOrdID:  defaultClOrdID,
				Symbol:   defaultSymbol,
				Side:     string(message.SideBuy),
				OrdType:  string(message.OrdTypeLimit),
				Price:    defaultPrice,
				OrderQty: defaultOrderQty,
			}},
		}}
	}

	seen := make(map[string]struct{}, len(cfg.Sessions))
	out := make([]SimSession, 0, len(cfg.Sessions))
	for i, s := range cfg.Sessions {
		if s.ID == "" {
			return nil, errors.Wrapf(exception.ErrInvalidArgument, "sim session %d has no id", i)
		}
		if _, ok := seen[s.ID]; ok {
			return nil, errors.Wrapf(exception.ErrInvalidArgument, "sim session %s is duplicated", s.ID)
		}
		seen[s.ID] = struct{}{}

		sess := SimSession{ID: session.ID(s.ID), Orders: make([]SimOrder, 0, len(s.Orders))}
		for j, o := range s.Orders {
			if o.CancelAfter < 0 {
				return nil, errors.Wrapf(exception.ErrInvalidArgument, "sim order %s/%d cancelAfter must be >= 0", s.ID, j)
			}
			sess.Orders = append(sess.Orders, resolveSimOrder(o, j))
		}
		out = append(out, sess)
	}
	return out, nil
}

func resolveSimOrder(cfg SimOrderConfig, idx int) SimOrder {
	msg := message.New(message.MsgTypeNewOrderSingle)
	set := func(tag message.Tag, value string) {
		if value != "" {
			msg = msg.Set(tag, value)
		}
	}
	set(message.TagClOrdID, cfg.ClOrdID)
	set(message.TagSymbol, cfg.Symbol)
	set(message.TagSide, cfg.Side)
	set(message.TagOrdType, cfg.OrdType)
	set(message.TagPrice, cfg.Price)
	set(message.TagOrderQty, cfg.OrderQty)

	out := SimOrder{Message: msg}
	if cfg.CancelAfter > 0 {
		out.CancelAfter = cfg.CancelAfter.Std()
		out.Cancel = message.New(message.MsgTypeOrderCancelRequest).
			Set(message.TagClOrdID, "CXL_"+strconv.Itoa(idx+1)+"_"+cfg.ClOrdID).
			Set(message.TagOrigClOrdID, cfg.ClOrdID)
	}
	return out
}
