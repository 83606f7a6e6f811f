package observer

import (
	"github.com/lintang-b-s/carpoolnav/pkg/datastructure"
	"github.com/lintang-b-s/carpoolnav/pkg/engine/routingalgorithm"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "carpoolnav"

// RoutingMetrics holds the prometheus collectors shared by every run.
type RoutingMetrics struct {
	nodesReached *prometheus.CounterVec
	nodesMarked  *prometheus.CounterVec
	stateChanges *prometheus.CounterVec
	runs         *prometheus.CounterVec
	solvingTime  *prometheus.HistogramVec
}

func NewRoutingMetrics(registry prometheus.Registerer) *RoutingMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &RoutingMetrics{
		nodesReached: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_reached_total",
			Help:      "Nodes that received their first finite cost",
		}, []string{"algorithm"}),
		nodesMarked: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_marked_total",
			Help:      "Nodes settled (label-setting) or improved (label-correcting)",
		}, []string{"algorithm"}),
		stateChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "carpooling_state_changes_total",
			Help:      "Carpooling node state transitions by target state",
		}, []string{"algorithm", "state"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished runs by status",
		}, []string{"algorithm", "status"}),
		solvingTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solving_time_seconds",
			Help:      "Wall clock duration of a run",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"algorithm"}),
	}
}

// Observer returns an observer counting the events of one run of algorithm.
func (m *RoutingMetrics) Observer(algorithm string) *MetricsObserver {
	return &MetricsObserver{
		reached:      m.nodesReached.WithLabelValues(algorithm),
		marked:       m.nodesMarked.WithLabelValues(algorithm),
		stateChanges: m.stateChanges.MustCurryWith(prometheus.Labels{"algorithm": algorithm}),
	}
}

func (m *RoutingMetrics) ObserveSolution(algorithm string, sol routingalgorithm.Solution) {
	m.runs.WithLabelValues(algorithm, sol.Status.String()).Inc()
	m.solvingTime.WithLabelValues(algorithm).Observe(sol.SolvingTime.Seconds())
}

type MetricsObserver struct {
	reached      prometheus.Counter
	marked       prometheus.Counter
	stateChanges *prometheus.CounterVec
}

func (o *MetricsObserver) NotifyOriginProcessed(node datastructure.Node) error {
	return nil
}

func (o *MetricsObserver) NotifyNodeReached(node datastructure.Node) error {
	o.reached.Inc()
	return nil
}

func (o *MetricsObserver) NotifyNodeMarked(node datastructure.Node) error {
	o.marked.Inc()
	return nil
}

func (o *MetricsObserver) NotifyDestinationReached(node datastructure.Node) error {
	return nil
}

func (o *MetricsObserver) NotifyOriginCarProcessed(node datastructure.Node) error {
	return nil
}

func (o *MetricsObserver) NotifyOriginPedestrianProcessed(node datastructure.Node) error {
	return nil
}

func (o *MetricsObserver) NotifyNodeStateChanged(node datastructure.Node, from, to routingalgorithm.NodeState) error {
	o.stateChanges.WithLabelValues(to.String()).Inc()
	return nil
}

var (
	_ routingalgorithm.Observer           = (*MetricsObserver)(nil)
	_ routingalgorithm.CarpoolingObserver = (*MetricsObserver)(nil)
)
