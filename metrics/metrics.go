// Package metrics provides Prometheus instrumentation for the escrow
// service and a standalone metrics HTTP server.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "escrow"

var (
	// MessagesEscrowed counts accepted messages by whether they were encrypted.
	MessagesEscrowed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_escrowed_total",
			Help:      "Total number of messages accepted for escrow",
		},
		[]string{"encrypted"},
	)

	// SharesDelivered counts key shares handed out to recipients.
	SharesDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shares_delivered_total",
			Help:      "Total number of key shares delivered to recipients",
		},
	)

	// SharesConfirmed counts acknowledged shares that advanced the threshold count.
	SharesConfirmed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shares_confirmed_total",
			Help:      "Total number of key shares returned by recipients",
		},
	)

	// Reconstructions counts threshold reconstruction attempts by outcome.
	Reconstructions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconstructions_total",
			Help:      "Total number of key reconstruction attempts",
		},
		[]string{"status"},
	)

	// IntegrityFailures counts payload decryptions rejected by the AEAD.
	IntegrityFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "integrity_failures_total",
			Help:      "Total number of payloads that failed authenticated decryption",
		},
	)
)

// MetricsServer serves the Prometheus registry on a dedicated listener.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server for the given service on addr.
func New(serviceName, addr string) (*MetricsServer, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &MetricsServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
