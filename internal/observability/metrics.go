package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TCPConnections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jtt808_tcp_connections_total",
		Help: "Total accepted TCP connections",
	})
	FramesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jtt808_frames_received_total",
		Help: "Total frames extracted by the reframer, by wire variant",
	}, []string{"variant"})
	AcksSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jtt808_acks_sent_total",
		Help: "Total acknowledgement frames sent (0x8001/0x8100)",
	})
	LocationsDecoded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jtt808_locations_decoded_total",
		Help: "Total location events decoded (binary 0x0200 + legacy ASCII)",
	})
	ParseErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jtt808_parse_errors_total",
		Help: "Total parse errors, by kind",
	}, []string{"kind"})
	UnhandledMessages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jtt808_unhandled_messages_total",
		Help: "Total structurally valid frames with no dispatch rule",
	})
	ReframerTruncations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jtt808_reframer_truncations_total",
		Help: "Total accumulator-overflow truncations, by wire variant",
	}, []string{"variant"})
	SinkErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jtt808_sink_errors_total",
		Help: "Total errors returned by downstream sink adaptors, by sink",
	}, []string{"sink"})
	ParseLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "jtt808_parse_latency_seconds",
		Help:    "Latency of decoding a single frame",
		Buckets: prometheus.DefBuckets,
	})
)

func ObserveParseLatency(start time.Time) {
	ParseLatency.Observe(time.Since(start).Seconds())
}

func StartMetricsServer(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte("ok"))
	})
	_ = http.ListenAndServe(":"+port, mux)
}
