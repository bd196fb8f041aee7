package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"broker/internal/lifecycle"
	"broker/internal/message"
	"broker/internal/msglog"
	"broker/internal/obs"
	"broker/internal/order"
	"broker/internal/ops"
	"broker/internal/report"
	"broker/internal/router"
	"broker/internal/session"
	"broker/internal/venue"

	"github.com/bytedance/sonic"
	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
	"golang.org/x/sync/errgroup"
)

const pollInterval = 50 * time.Millisecond

func main() {
	configPath := flag.String("config", "", "Path to JSON config (empty uses built-in defaults)")
	configReload := flag.Duration("config-reload-interval", 2*time.Second, "Config reload interval (0=disable)")
	metricsAddr := flag.String("metrics-addr", "", "Serve /metrics on this address (empty=disable)")
	pyroscopeAddr := flag.String("pyroscope-addr", "", "Pyroscope server address (empty=disable)")
	msglogDir := flag.String("msglog-dir", "", "Record session messages into this directory")
	timeout := flag.Duration("timeout", 30*time.Second, "Give up waiting for orders to finish after this long")
	flag.Parse()

	loaded := ops.Default()
	if *configPath != "" {
		var err error
		loaded, err = ops.Load(*configPath)
		if err != nil {
			log.Fatalf("load config failed: %v", err)
		}
	}
	if *msglogDir != "" {
		loaded.Msglog.Enabled = true
		loaded.Msglog.Config.Dir = *msglogDir
	}

	if *pyroscopeAddr != "" {
		profiler, err := startProfiler(*pyroscopeAddr)
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-sys.Shutdown():
			logs.Info("shutdown signal received")
			cancel()
		case <-ctx.Done():
		}
	}()

	logger := obs.Logs()
	metrics := obs.NewMetrics()

	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		if err := metrics.Register(reg); err != nil {
			log.Fatalf("register metrics failed: %v", err)
		}
		server := obs.NewServer(*metricsAddr, reg, logger)
		server.Start()
		defer func() {
			stopCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			_ = server.Stop(stopCtx)
		}()
	}

	hubCfg := loaded.Session
	var writer *msglog.Writer
	if loaded.Msglog.Enabled {
		var err error
		writer, err = msglog.NewWriter(loaded.Msglog.Config)
		if err != nil {
			log.Fatalf("msglog init failed: %v", err)
		}
		if err := writer.Start(ctx); err != nil {
			log.Fatalf("msglog start failed: %v", err)
		}
		hubCfg.Tap = writer
	}
	hub := session.NewHub(hubCfg)

	sim, err := venue.NewSimulator(loaded.Venue, logger)
	if err != nil {
		log.Fatalf("venue init failed: %v", err)
	}
	sim.Run(ctx)

	manager, err := lifecycle.NewManager(lifecycle.Config{
		Builder: report.NewBuilder(report.NewIDGenerator(0)),
		Sender:  hub,
		Venue:   sim,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		log.Fatalf("lifecycle init failed: %v", err)
	}

	rt, err := router.New(manager, router.Config{
		RejectUnsupported: loaded.Engine.RejectUnsupported,
		Sender:            hub,
		Logger:            logger,
		Metrics:           metrics,
	})
	if err != nil {
		log.Fatalf("router init failed: %v", err)
	}
	hub.Attach(rt)

	if *configPath != "" && *configReload > 0 {
		go watchConfig(ctx, *configPath, *configReload, func(next ops.Loaded) {
			sim.SetMarketPrices(next.Venue.MarketPrices)
		})
	}

	if err := runSessions(ctx, hub, loaded.Sim, metrics, *timeout); err != nil {
		logs.Errorf("run sessions, err: %+v", err)
	}

	sim.Close()
	hub.Shutdown()
	if writer != nil {
		if err := writer.Close(); err != nil {
			logs.Errorf("close msglog, err: %+v", err)
		}
		if dropped := writer.Dropped(); dropped > 0 {
			logs.Errorf("msglog dropped %d messages", dropped)
		}
	}

	logSnapshot(metrics.Snapshot(), manager.Orders())
}

// runSessions opens every simulated counterparty, sends its orders and waits
// until every message was handled and every accepted order is terminal.
func runSessions(ctx context.Context, hub *session.Hub, sims []ops.SimSession, metrics *obs.Metrics, timeout time.Duration) error {
	var expected uint64
	for _, s := range sims {
		for _, o := range s.Orders {
			expected++
			if o.CancelAfter > 0 {
				expected++
			}
		}
	}

	for _, s := range sims {
		if err := hub.Open(ctx, s.ID, counterparty(s.ID)); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range sims {
		g.Go(func() error {
			return sendOrders(gctx, hub, s)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	waitCtx, stop := context.WithTimeout(ctx, timeout)
	defer stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if metrics.Settled(expected) {
			return nil
		}
		select {
		case <-waitCtx.Done():
			return waitCtx.Err()
		case <-ticker.C:
		}
	}
}

func sendOrders(ctx context.Context, hub *session.Hub, s ops.SimSession) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, o := range s.Orders {
		if err := hub.Deliver(s.ID, o.Message); err != nil {
			return err
		}
		logs.Infof("[%s] sent %s", s.ID, describe(o.Message))
		if o.CancelAfter <= 0 {
			continue
		}
		g.Go(func() error {
			timer := time.NewTimer(o.CancelAfter)
			defer timer.Stop()
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-timer.C:
			}
			logs.Infof("[%s] sent %s", s.ID, describe(o.Cancel))
			return hub.Deliver(s.ID, o.Cancel)
		})
	}
	return g.Wait()
}

// counterparty prints what the simulated client receives.
func counterparty(id session.ID) session.Sink {
	return func(msg message.Typed) {
		logs.Infof("[%s] received %s", id, describe(msg))
	}
}

func describe(msg message.Typed) string {
	body, err := sonic.Marshal(msg)
	if err != nil {
		return msg.MsgType().String()
	}
	return msg.MsgType().String() + " " + string(body)
}

func logSnapshot(snap obs.Snapshot, orders []order.Order) {
	logs.Infof("metrics: inbound=%d handled=%d accepted=%d completed=%d business_rejects=%d cancel_rejects=%d send_failures=%d",
		snap.Inbound, snap.Handled, snap.Accepted, snap.Completed, snap.BusinessRejects, snap.CancelRejects, snap.SendFailures)
	for ev, n := range snap.Reports {
		logs.Infof("metrics: reports[%s]=%d", ev, n)
	}
	for kind, n := range snap.Errors {
		logs.Infof("metrics: errors[%s]=%d", kind, n)
	}
	if snap.OrderLifetime.Count > 0 {
		logs.Infof("metrics: order lifetime min=%s avg=%s max=%s", snap.OrderLifetime.Min, snap.OrderLifetime.Avg, snap.OrderLifetime.Max)
	}
	for _, o := range orders {
		logs.Infof("order %s: id=%s status=%s cum=%s leaves=%s avg_px=%s", o.Key(), o.OrderID, o.Status, o.CumQty, o.LeavesQty, o.AvgPx)
	}
}

func watchConfig(ctx context.Context, path string, interval time.Duration, update func(ops.Loaded)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastMod time.Time
	if info, err := os.Stat(path); err == nil {
		lastMod = info.ModTime()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			info, err := os.Stat(path)
			if err != nil {
				logs.Errorf("config stat failed: %v", err)
				continue
			}
			if !info.ModTime().After(lastMod) {
				continue
			}
			loaded, err := ops.Load(path)
			if err != nil {
				logs.Errorf("config reload failed: %v", err)
				continue
			}
			update(loaded)
			lastMod = info.ModTime()
			logs.Infof("config reloaded: %s", path)
		}
	}
}

func startProfiler(addr string) (*pyroscope.Profiler, error) {
	return pyroscope.Start(pyroscope.Config{
		ApplicationName: "broker",
		ServerAddress:   addr,
		Logger:          profilerLogger{},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
		},
	})
}

type profilerLogger struct{}

func (profilerLogger) Infof(_ string, _ ...interface{})  {}
func (profilerLogger) Debugf(_ string, _ ...interface{}) {}
func (profilerLogger) Errorf(format string, args ...interface{}) {
	logs.Errorf(format, args...)
}
