package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/lintang-b-s/carpoolnav/pkg/arcfilter"
	"github.com/lintang-b-s/carpoolnav/pkg/config"
	"github.com/lintang-b-s/carpoolnav/pkg/datastructure"
	"github.com/lintang-b-s/carpoolnav/pkg/engine/routingalgorithm"
	"github.com/lintang-b-s/carpoolnav/pkg/observer"
	"github.com/lintang-b-s/carpoolnav/pkg/path"
	"github.com/lintang-b-s/carpoolnav/pkg/server"
	"github.com/lintang-b-s/carpoolnav/pkg/snap"
	"github.com/lintang-b-s/carpoolnav/pkg/util"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	carpooling         = "carpooling"
	tracerName         = "github.com/lintang-b-s/carpoolnav/pkg/server/rest/service"
	msgLocationUnknown = "sorry!! the location you entered is not covered by the map, please use a different openstreetmap file"
	msgInternal        = "internal server error"
	costEpsilon        = 1e-6
)

type Snapper interface {
	Snap(coord datastructure.Coordinate, accept func(nodeID int32) bool) (int32, float64, error)
}

// RoutingService snaps coordinates to the graph and runs the routing algorithms with the metrics, tracing and
// (optional) text observers attached.
type RoutingService struct {
	graph    *datastructure.Graph
	snapper  Snapper
	metrics  *observer.RoutingMetrics
	tracer   trace.Tracer
	eventLog io.Writer
	defaults config.RoutingConfig
}

// NewRoutingService returns a RoutingService. metrics may be nil; a nil tracer uses the global otel provider.
func NewRoutingService(g *datastructure.Graph, snapper Snapper, metrics *observer.RoutingMetrics, tracer trace.Tracer,
	defaults config.RoutingConfig) *RoutingService {
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &RoutingService{
		graph:    g,
		snapper:  snapper,
		metrics:  metrics,
		tracer:   tracer,
		defaults: defaults,
	}
}

// SetEventLog writes every algorithm event to w. Only meant for debugging small graphs.
func (s *RoutingService) SetEventLog(w io.Writer) {
	s.eventLog = w
}

func (s *RoutingService) Graph() *datastructure.Graph {
	return s.graph
}

func (s *RoutingService) Filters() []string {
	return arcfilter.Names()
}

type RouteResult struct {
	Algorithm         string
	Filter            string
	Status            string
	Origin            int32
	Destination       int32
	Cost              float64
	Length            float64
	MinimumTravelTime float64
	Polyline          string
	Nodes             []int32
	SolvingTime       time.Duration
}

func newRouteResult(algorithm string, data routingalgorithm.ShortestPathData, sol routingalgorithm.Solution) RouteResult {
	result := RouteResult{
		Algorithm:   algorithm,
		Filter:      data.Filter.Name(),
		Status:      sol.Status.String(),
		Origin:      data.Origin,
		Destination: data.Destination,
		Cost:        sol.Cost,
		SolvingTime: sol.SolvingTime,
	}
	if sol.IsFeasible() {
		result.Length = sol.Path.Length()
		result.MinimumTravelTime = sol.Path.MinimumTravelTime()
		result.Polyline = sol.Path.Polyline()
		result.Nodes = sol.Path.Nodes()
	}
	return result
}

func (s *RoutingService) filter(name, fallback string) (arcfilter.ArcFilter, error) {
	if name == "" {
		name = fallback
	}
	f, err := arcfilter.ByName(name)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrBadParamInput, "unknown filter %q", name)
	}
	return f, nil
}

// usableBy reports whether the node has at least one arc allowed by filter.
func (s *RoutingService) usableBy(filter arcfilter.ArcFilter) func(nodeID int32) bool {
	return func(nodeID int32) bool {
		for _, arcIDs := range [][]int32{s.graph.GetNodeOutArcs(nodeID), s.graph.GetNodeInArcs(nodeID)} {
			for _, arcID := range arcIDs {
				if filter.IsAllowed(s.graph.GetArc(arcID)) {
					return true
				}
			}
		}
		return false
	}
}

func (s *RoutingService) snap(coord datastructure.Coordinate, filter arcfilter.ArcFilter) (int32, error) {
	nodeID, _, err := s.snapper.Snap(coord, s.usableBy(filter))
	if errors.Is(err, snap.ErrNoNearbyNode) {
		return datastructure.InvalidNodeID, server.WrapErrorf(err, server.ErrNotFound, msgLocationUnknown)
	}
	if err != nil {
		return datastructure.InvalidNodeID, server.WrapErrorf(err, server.ErrInternalServerError, msgInternal)
	}
	return nodeID, nil
}

func (s *RoutingService) ShortestPath(ctx context.Context, src, dst datastructure.Coordinate, filterName, algorithm string) (RouteResult, error) {
	filter, err := s.filter(filterName, s.defaults.DefaultFilter)
	if err != nil {
		return RouteResult{}, err
	}
	origin, err := s.snap(src, filter)
	if err != nil {
		return RouteResult{}, err
	}
	destination, err := s.snap(dst, filter)
	if err != nil {
		return RouteResult{}, err
	}
	return s.shortestPath(ctx, origin, destination, filter, algorithm)
}

func (s *RoutingService) ShortestPathNodes(ctx context.Context, origin, destination int32, filterName, algorithm string) (RouteResult, error) {
	filter, err := s.filter(filterName, s.defaults.DefaultFilter)
	if err != nil {
		return RouteResult{}, err
	}
	return s.shortestPath(ctx, origin, destination, filter, algorithm)
}

func (s *RoutingService) shortestPath(ctx context.Context, origin, destination int32, filter arcfilter.ArcFilter,
	algorithm string) (RouteResult, error) {
	if algorithm == "" {
		algorithm = s.defaults.DefaultAlgorithm
	}
	result, err := s.runShortestPath(ctx, algorithm, routingalgorithm.ShortestPathData{
		Graph:       s.graph,
		Origin:      origin,
		Destination: destination,
		Filter:      filter,
	})
	if err != nil {
		return RouteResult{}, err
	}
	if result.Status != routingalgorithm.StatusOptimal.String() {
		return result, server.NewErrorf(server.ErrNotFound, "no route from node %d to node %d with filter %s",
			origin, destination, filter.Name())
	}
	return result, nil
}

func (s *RoutingService) runShortestPath(ctx context.Context, algorithm string, data routingalgorithm.ShortestPathData) (RouteResult, error) {
	if err := ctx.Err(); err != nil {
		return RouteResult{}, server.WrapErrorf(err, server.ErrInternalServerError, "request cancelled")
	}

	alg, err := routingalgorithm.NewShortestPathAlgorithm(algorithm, data)
	if err != nil {
		return RouteResult{}, server.WrapErrorf(err, server.ErrBadParamInput, "unknown algorithm %q", algorithm)
	}

	_, tracing := observer.StartTracing(ctx, s.tracer, algorithm)
	observers := []routingalgorithm.Observer{tracing}
	if s.metrics != nil {
		observers = append(observers, s.metrics.Observer(algorithm))
	}
	if s.eventLog != nil {
		observers = append(observers, observer.NewTextObserver(s.eventLog))
	}
	if err := addObservers(alg.AddObserver, observers, tracing); err != nil {
		return RouteResult{}, server.WrapErrorf(err, server.ErrInternalServerError, msgInternal)
	}

	sol, err := alg.Run()
	tracing.End(sol, err)
	if s.metrics != nil {
		s.metrics.ObserveSolution(algorithm, sol)
	}
	if errors.Is(err, routingalgorithm.ErrInvalidData) {
		return RouteResult{}, server.WrapErrorf(err, server.ErrBadParamInput, "invalid origin or destination")
	}
	if err != nil {
		return RouteResult{}, server.WrapErrorf(err, server.ErrInternalServerError, msgInternal)
	}
	return newRouteResult(algorithm, data, sol), nil
}

type Comparison struct {
	Results []RouteResult
	// Agree is true when every algorithm reached the same status and cost.
	Agree bool
}

// CompareAlgorithms runs dijkstra and bellman-ford concurrently on the same query.
func (s *RoutingService) CompareAlgorithms(ctx context.Context, origin, destination int32, filterName string) (Comparison, error) {
	filter, err := s.filter(filterName, s.defaults.DefaultFilter)
	if err != nil {
		return Comparison{}, err
	}

	algorithms := []string{routingalgorithm.Dijkstra, routingalgorithm.BellmanFord}
	results := make([]RouteResult, len(algorithms))

	g, gctx := errgroup.WithContext(ctx)
	for i, algorithm := range algorithms {
		g.Go(func() error {
			result, err := s.runShortestPath(gctx, algorithm, routingalgorithm.ShortestPathData{
				Graph:       s.graph,
				Origin:      origin,
				Destination: destination,
				Filter:      filter,
			})
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Comparison{}, err
	}

	agree := true
	for _, result := range results[1:] {
		if result.Status != results[0].Status || !util.NearlyEqual(result.Cost, results[0].Cost, costEpsilon) {
			agree = false
		}
	}
	return Comparison{Results: results, Agree: agree}, nil
}

type CarpoolResult struct {
	Status            string
	PedestrianOrigin  int32
	CarOrigin         int32
	Destination       int32
	Pickup            int32
	PickupPoint       datastructure.Coordinate
	Cost              float64
	PedestrianCost    float64
	CarCost           float64
	Polyline          string
	PedestrianLeg     string
	CarLeg            string
	DriverApproachLeg string
	Nodes             []int32
	SolvingTime       time.Duration
}

func polyline(p *path.Path) string {
	if p == nil {
		return ""
	}
	return p.Polyline()
}

// Carpool finds where a pedestrian should board a car going to dst. A nil car lets the driver start anywhere.
func (s *RoutingService) Carpool(ctx context.Context, pedestrian datastructure.Coordinate, car *datastructure.Coordinate,
	dst datastructure.Coordinate, pedestrianFilterName, carFilterName string) (CarpoolResult, error) {
	pedestrianFilter, err := s.filter(pedestrianFilterName, s.defaults.PedestrianFilter)
	if err != nil {
		return CarpoolResult{}, err
	}
	carFilter, err := s.filter(carFilterName, s.defaults.CarFilter)
	if err != nil {
		return CarpoolResult{}, err
	}
	if err := routingalgorithm.CheckCarpoolingFilters(pedestrianFilter, carFilter); err != nil {
		return CarpoolResult{}, server.WrapErrorf(err, server.ErrBadParamInput,
			"filters %s and %s cannot be combined for carpooling", pedestrianFilter.Name(), carFilter.Name())
	}

	data := routingalgorithm.CarpoolingData{
		Graph:            s.graph,
		CarOrigin:        datastructure.InvalidNodeID,
		PedestrianFilter: pedestrianFilter,
		CarFilter:        carFilter,
	}
	if data.PedestrianOrigin, err = s.snap(pedestrian, pedestrianFilter); err != nil {
		return CarpoolResult{}, err
	}
	if car != nil {
		if data.CarOrigin, err = s.snap(*car, carFilter); err != nil {
			return CarpoolResult{}, err
		}
	}
	if data.Destination, err = s.snap(dst, carFilter); err != nil {
		return CarpoolResult{}, err
	}
	return s.carpool(ctx, data)
}

// addObservers registers observers in order. On failure the run never starts, so its span is closed here.
func addObservers[O any](add func(O) error, observers []O, tracing *observer.TracingObserver) error {
	for _, obs := range observers {
		if err := add(obs); err != nil {
			tracing.End(routingalgorithm.Solution{Status: routingalgorithm.StatusNotRun}, err)
			return err
		}
	}
	return nil
}

func (s *RoutingService) carpool(ctx context.Context, data routingalgorithm.CarpoolingData) (CarpoolResult, error) {
	if err := ctx.Err(); err != nil {
		return CarpoolResult{}, server.WrapErrorf(err, server.ErrInternalServerError, "request cancelled")
	}

	alg := routingalgorithm.NewCarpoolingAlgorithm(data)
	_, tracing := observer.StartTracing(ctx, s.tracer, carpooling)
	observers := []routingalgorithm.CarpoolingObserver{tracing}
	if s.metrics != nil {
		observers = append(observers, s.metrics.Observer(carpooling))
	}
	if s.eventLog != nil {
		observers = append(observers, observer.NewTextObserver(s.eventLog))
	}
	if err := addObservers(alg.AddObserver, observers, tracing); err != nil {
		return CarpoolResult{}, server.WrapErrorf(err, server.ErrInternalServerError, msgInternal)
	}

	sol, err := alg.RunCarpooling()
	tracing.End(sol.Solution, err)
	if s.metrics != nil {
		s.metrics.ObserveSolution(carpooling, sol.Solution)
	}
	if errors.Is(err, routingalgorithm.ErrInvalidData) {
		return CarpoolResult{}, server.WrapErrorf(err, server.ErrBadParamInput, "invalid carpooling nodes")
	}
	if err != nil {
		return CarpoolResult{}, server.WrapErrorf(err, server.ErrInternalServerError, msgInternal)
	}

	result := CarpoolResult{
		Status:           sol.Status.String(),
		PedestrianOrigin: data.PedestrianOrigin,
		CarOrigin:        data.CarOrigin,
		Destination:      data.Destination,
		Pickup:           sol.Pickup,
		SolvingTime:      sol.SolvingTime,
	}
	if !sol.IsFeasible() {
		return result, server.NewErrorf(server.ErrNotFound, "no pickup node reachable by both the pedestrian and the car")
	}

	result.PickupPoint = s.graph.GetNode(sol.Pickup).Point
	result.Cost = sol.Cost
	result.PedestrianCost = sol.PedestrianCost
	result.CarCost = sol.CarCost
	result.Polyline = polyline(sol.Path)
	result.PedestrianLeg = polyline(sol.PedestrianPath)
	result.CarLeg = polyline(sol.CarPath)
	if data.CarOrigin != datastructure.InvalidNodeID {
		result.DriverApproachLeg = polyline(sol.DriverApproachPath)
	}
	result.Nodes = sol.Path.Nodes()
	return result, nil
}
