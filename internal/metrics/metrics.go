// Package metrics exposes prometheus counters for the upstream client and the
// snapshot refresh loop.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// UpstreamRequests counts HNTV API calls by endpoint and HTTP status code.
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hntv_upstream_requests_total",
		Help: "Upstream HNTV API requests by endpoint and status code.",
	}, []string{"endpoint", "code"})

	// SnapshotRefreshes counts refresh cycles by result ("ok" or "error").
	SnapshotRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hntv_snapshot_refresh_total",
		Help: "Daily snapshot refresh cycles by result.",
	}, []string{"result"})
)

// ObserveUpstream records one upstream request outcome. A status of 0 means the
// request never produced a response (network or decode failure).
func ObserveUpstream(endpoint string, status int) {
	UpstreamRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
