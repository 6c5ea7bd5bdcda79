package recorder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	bytesWritten   *prometheus.CounterVec
	trackChanges   *prometheus.CounterVec
	streamErrors   *prometheus.CounterVec
	reconnects     *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	return &metrics{
		bytesWritten: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "icyrec",
			Name:      "audio_bytes_written_total",
			Help:      "Audio bytes written to disk per stream.",
		}, []string{"stream"}),
		trackChanges: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "icyrec",
			Name:      "track_changes_total",
			Help:      "Track boundary events recorded per stream.",
		}, []string{"stream"}),
		streamErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "icyrec",
			Name:      "stream_errors_total",
			Help:      "Transport failures observed per stream.",
		}, []string{"stream"}),
		reconnects: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "icyrec",
			Name:      "reconnects_total",
			Help:      "Reconnection attempts per stream.",
		}, []string{"stream"}),
		activeSessions: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: "icyrec",
			Name:      "active_sessions",
			Help:      "Recording sessions currently running.",
		}),
	}
}
