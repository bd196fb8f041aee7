package obs

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"broker/internal/report"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "broker"

// Register exposes the metrics on reg. Values are read at scrape time.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	load := func(p *uint64) func() float64 {
		return func() float64 { return float64(atomic.LoadUint64(p)) }
	}

	collectors := []prometheus.Collector{
		counterFunc("inbound_messages_total", "Inbound application messages routed", nil, load(&m.inbound)),
		counterFunc("inbound_handled_total", "Inbound application messages fully handled", nil, load(&m.handled)),
		counterFunc("orders_accepted_total", "Orders accepted", nil, load(&m.accepted)),
		counterFunc("orders_completed_total", "Orders reaching a terminal status", nil, load(&m.completed)),
		counterFunc("business_rejects_total", "Business message rejects sent", nil, load(&m.businessRejects)),
		counterFunc("cancel_rejects_total", "Order cancel rejects sent", nil, load(&m.cancelRejects)),
		counterFunc("send_failures_total", "Outbound messages refused by the transport", nil, load(&m.sendFailures)),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "orders_open",
			Help:      "Accepted orders not yet terminal",
		}, func() float64 { return float64(m.Open()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "order_lifetime_avg_seconds",
			Help:      "Average time from acceptance to terminal status",
		}, func() float64 { return m.orderLifetime.Snapshot().Avg.Seconds() }),
	}
	for ev := report.EventNew; ev <= report.EventCancel; ev++ {
		collectors = append(collectors, counterFunc("execution_reports_total", "Execution reports sent",
			prometheus.Labels{"event": ev.String()}, load(&m.reportCounts[ev])))
	}
	for kind := ErrorKindOther; kind < errorKindEnd; kind++ {
		collectors = append(collectors, counterFunc("lifecycle_errors_total", "Lifecycle operation errors",
			prometheus.Labels{"kind": kind.String()}, load(&m.errorCounts[kind])))
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func counterFunc(name, help string, labels prometheus.Labels, fn func() float64) prometheus.CounterFunc {
	return prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace:   namespace,
		Name:        name,
		Help:        help,
		ConstLabels: labels,
	}, fn)
}

// Server exposes /metrics and /healthz over HTTP.
type Server struct {
	addr   string
	srv    *http.Server
	logger Logger
}

// NewServer creates a metrics server serving gatherer.
func NewServer(addr string, gatherer prometheus.Gatherer, logger Logger) *Server {
	if logger == nil {
		logger = Nop()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return &Server{
		addr:   addr,
		logger: logger,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		s.logger.Infof("metrics server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("metrics server, err: %+v", err)
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
