package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for status propagation, coordinate
// derivation and HTTP traffic.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	ZoneStatusUpdates     *prometheus.CounterVec
	ParcelStatusUpdates   *prometheus.CounterVec
	ParcelsPropagated     prometheus.Counter
	ZoneStatusRecomputed  *prometheus.CounterVec
	CoordinateDerivations *prometheus.CounterVec
	GeometryTokensSkipped prometheus.Counter
	HTTPRequestDuration   *prometheus.HistogramVec
	StatusUpdateDuration  *prometheus.HistogramVec
}

// New creates a Metrics instance registered on reg.
// Passing nil registers on the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ZoneStatusUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "industria_zone_status_updates_total",
			Help: "Total number of zone status updates by target status",
		}, []string{"status"}),
		ParcelStatusUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "industria_parcel_status_updates_total",
			Help: "Total number of parcel status updates by target status",
		}, []string{"status"}),
		ParcelsPropagated: factory.NewCounter(prometheus.CounterOpts{
			Name: "industria_parcels_propagated_total",
			Help: "Total number of parcel statuses overwritten by a zone status update",
		}),
		ZoneStatusRecomputed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "industria_zone_status_recomputed_total",
			Help: "Zone status recomputations after a parcel update, by whether the zone changed",
		}, []string{"changed"}),
		CoordinateDerivations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "industria_coordinate_derivations_total",
			Help: "Centroid derivations by outcome (derived, cleared, out_of_bounds, failed)",
		}, []string{"outcome"}),
		GeometryTokensSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "industria_geometry_tokens_skipped_total",
			Help: "Polygon vertex tokens skipped because they could not be parsed",
		}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "industria_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by method, route and status code",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),
		StatusUpdateDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "industria_status_update_duration_seconds",
			Help:    "Duration of status propagation transactions by entity",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"entity"}),
	}
}

// IncZoneStatusUpdate records a zone status update.
func (m *Metrics) IncZoneStatusUpdate(status string) {
	if m == nil {
		return
	}
	m.ZoneStatusUpdates.WithLabelValues(status).Inc()
}

// IncParcelStatusUpdate records a parcel status update.
func (m *Metrics) IncParcelStatusUpdate(status string) {
	if m == nil {
		return
	}
	m.ParcelStatusUpdates.WithLabelValues(status).Inc()
}

// AddParcelsPropagated records parcels overwritten by zone fan-out.
func (m *Metrics) AddParcelsPropagated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ParcelsPropagated.Add(float64(n))
}

// IncZoneRecomputed records a zone status recomputation.
func (m *Metrics) IncZoneRecomputed(changed bool) {
	if m == nil {
		return
	}
	m.ZoneStatusRecomputed.WithLabelValues(strconv.FormatBool(changed)).Inc()
}

// IncCoordinateDerivation records a derivation outcome.
func (m *Metrics) IncCoordinateDerivation(outcome string) {
	if m == nil {
		return
	}
	m.CoordinateDerivations.WithLabelValues(outcome).Inc()
}

// AddSkippedTokens records unparseable polygon tokens.
func (m *Metrics) AddSkippedTokens(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.GeometryTokensSkipped.Add(float64(n))
}

// ObserveHTTPRequest records the duration of an HTTP request.
// Call with time.Now() at the start of the request.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, start time.Time) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
}

// ObserveStatusUpdate records the duration of a status propagation transaction.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveStatusUpdate(entity string, start time.Time) {
	if m == nil {
		return
	}
	m.StatusUpdateDuration.WithLabelValues(entity).Observe(time.Since(start).Seconds())
}
