package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/lintang-b-s/carpoolnav/pkg/config"
	"github.com/lintang-b-s/carpoolnav/pkg/datastructure"
	"github.com/lintang-b-s/carpoolnav/pkg/engine/routingalgorithm"
	"github.com/lintang-b-s/carpoolnav/pkg/observer"
	"github.com/lintang-b-s/carpoolnav/pkg/server"
	"github.com/lintang-b-s/carpoolnav/pkg/snap"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func sixNodePoint(i int) datastructure.Coordinate {
	return datastructure.NewCoordinate(-7.55+float64(i)*0.001, 110.77)
}

// the six node example graph, every arc is a 36 km/h one-way road open to all modes
func newSixNodeGraph(t *testing.T) *datastructure.Graph {
	b := datastructure.NewGraphBuilder("six", "six nodes")
	for i := 0; i < 6; i++ {
		b.AddNode(sixNodePoint(i))
	}
	road := datastructure.NewRoadInformation(datastructure.MOTORWAY, 36, datastructure.AccessAll, true, "")
	arcs := [][3]float64{
		{0, 1, 7}, {0, 2, 8}, {1, 3, 4}, {1, 4, 1}, {1, 5, 5}, {2, 0, 7},
		{2, 1, 2}, {2, 5, 2}, {4, 2, 2}, {4, 3, 2}, {4, 5, 3}, {5, 4, 3},
	}
	for _, a := range arcs {
		_, err := b.AddArc(int32(a[0]), int32(a[1]), a[2], road, nil)
		require.NoError(t, err)
	}
	return b.Build()
}

func carpoolPoint(i int) datastructure.Coordinate {
	return datastructure.NewCoordinate(-7.55, 110.77+float64(i)*0.001)
}

// foot arcs: 0->1 (100 m), 0->2 (300 m)
// car arcs: 1->3 (1000 m), 2->3 (200 m), 4->1 (100 m), 4->2 (500 m)
func newCarpoolGraph(t *testing.T) *datastructure.Graph {
	b := datastructure.NewGraphBuilder("carpool", "carpool")
	for i := 0; i < 5; i++ {
		b.AddNode(carpoolPoint(i))
	}
	foot := datastructure.NewRoadInformation(datastructure.FOOTWAY, 5, datastructure.AccessFoot, true, "")
	car := datastructure.NewRoadInformation(datastructure.MOTORWAY, 36, datastructure.AccessCar, true, "")
	arcs := []struct {
		from, to int32
		length   float64
		road     datastructure.RoadInformation
	}{
		{0, 1, 100, foot}, {0, 2, 300, foot}, {1, 3, 1000, car},
		{2, 3, 200, car}, {4, 1, 100, car}, {4, 2, 500, car},
	}
	for _, a := range arcs {
		_, err := b.AddArc(a.from, a.to, a.length, a.road, nil)
		require.NoError(t, err)
	}
	return b.Build()
}

type testService struct {
	*RoutingService
	registry *prometheus.Registry
	spans    *tracetest.SpanRecorder
}

func newTestService(t *testing.T, g *datastructure.Graph) testService {
	registry := prometheus.NewRegistry()
	spans := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	t.Cleanup(func() { provider.Shutdown(context.Background()) })

	snapper := snap.NewNodeSnapper(g, snap.NewMemoryCellIndex(g, 9), 9, 10)
	svc := NewRoutingService(g, snapper, observer.NewRoutingMetrics(registry), provider.Tracer("test"),
		config.DefaultConfig().Routing)
	return testService{RoutingService: svc, registry: registry, spans: spans}
}

func TestShortestPath(t *testing.T) {
	svc := newTestService(t, newSixNodeGraph(t))

	result, err := svc.ShortestPath(context.Background(), sixNodePoint(0), sixNodePoint(3), "", "")
	require.NoError(t, err)

	assert.Equal(t, "dijkstra", result.Algorithm)
	assert.Equal(t, "shortest-path-all-roads", result.Filter)
	assert.Equal(t, "OPTIMAL", result.Status)
	assert.Equal(t, int32(0), result.Origin)
	assert.Equal(t, int32(3), result.Destination)
	assert.InDelta(t, 10.0, result.Cost, 1e-9)
	assert.InDelta(t, 10.0, result.Length, 1e-9)
	assert.InDelta(t, 1.0, result.MinimumTravelTime, 1e-9)
	assert.Equal(t, []int32{0, 1, 4, 3}, result.Nodes)
	assert.NotEmpty(t, result.Polyline)

	count, err := testutil.GatherAndCount(svc.registry, "carpoolnav_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	ended := svc.spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "routing.dijkstra", ended[0].Name())
}

func TestShortestPathNodesBellmanFord(t *testing.T) {
	svc := newTestService(t, newSixNodeGraph(t))

	result, err := svc.ShortestPathNodes(context.Background(), 0, 3, "fastest-path-all-roads", "bellman-ford")
	require.NoError(t, err)
	assert.Equal(t, "bellman-ford", result.Algorithm)
	assert.InDelta(t, 1.0, result.Cost, 1e-9)
	assert.Equal(t, []int32{0, 1, 4, 3}, result.Nodes)
}

func TestShortestPathErrors(t *testing.T) {
	svc := newTestService(t, newSixNodeGraph(t))
	ctx := context.Background()

	_, err := svc.ShortestPathNodes(ctx, 0, 3, "bicycle-only", "")
	assert.Equal(t, server.ErrBadParamInput, server.CodeOf(err))

	_, err = svc.ShortestPathNodes(ctx, 0, 3, "", "a-star")
	assert.Equal(t, server.ErrBadParamInput, server.CodeOf(err))
	assert.ErrorIs(t, err, routingalgorithm.ErrUnknownAlgorithm)

	_, err = svc.ShortestPathNodes(ctx, 0, 99, "", "")
	assert.Equal(t, server.ErrBadParamInput, server.CodeOf(err))
	assert.ErrorIs(t, err, routingalgorithm.ErrInvalidData)

	// node 3 has no outgoing arc
	result, err := svc.ShortestPathNodes(ctx, 3, 0, "", "")
	assert.Equal(t, server.ErrNotFound, server.CodeOf(err))
	assert.Equal(t, "INFEASIBLE", result.Status)

	// semarang is outside the map
	_, err = svc.ShortestPath(ctx, datastructure.NewCoordinate(-6.9667, 110.4167), sixNodePoint(3), "", "")
	assert.Equal(t, server.ErrNotFound, server.CodeOf(err))
	assert.ErrorIs(t, err, snap.ErrNoNearbyNode)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = svc.ShortestPathNodes(cancelled, 0, 3, "", "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestShortestPathEventLog(t *testing.T) {
	svc := newTestService(t, newSixNodeGraph(t))
	var buf bytes.Buffer
	svc.SetEventLog(&buf)

	_, err := svc.ShortestPathNodes(context.Background(), 0, 3, "", "")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Origin 0 processed.\n")
	assert.Contains(t, buf.String(), "Destination 3 reached.\n")
}

func TestCompareAlgorithms(t *testing.T) {
	svc := newTestService(t, newSixNodeGraph(t))

	for origin := int32(0); origin < 6; origin++ {
		for destination := int32(0); destination < 6; destination++ {
			cmp, err := svc.CompareAlgorithms(context.Background(), origin, destination, "")
			require.NoError(t, err)
			require.Len(t, cmp.Results, 2)
			assert.Equal(t, "dijkstra", cmp.Results[0].Algorithm)
			assert.Equal(t, "bellman-ford", cmp.Results[1].Algorithm)
			assert.True(t, cmp.Agree, "%d -> %d", origin, destination)
		}
	}

	_, err := svc.CompareAlgorithms(context.Background(), 0, 3, "bicycle-only")
	assert.Equal(t, server.ErrBadParamInput, server.CodeOf(err))
}

func TestCarpool(t *testing.T) {
	svc := newTestService(t, newCarpoolGraph(t))
	ctx := context.Background()

	t.Run("driver starts at node 4", func(t *testing.T) {
		car := carpoolPoint(4)
		result, err := svc.Carpool(ctx, carpoolPoint(0), &car, carpoolPoint(3), "", "")
		require.NoError(t, err)

		assert.Equal(t, "OPTIMAL", result.Status)
		assert.Equal(t, int32(1), result.Pickup)
		assert.Equal(t, carpoolPoint(1), result.PickupPoint)
		assert.Equal(t, int32(4), result.CarOrigin)
		// 100 m walking at 5 km/h, then 1000 m at 36 km/h
		assert.InDelta(t, 72.0, result.PedestrianCost, 1e-6)
		assert.InDelta(t, 100.0, result.CarCost, 1e-6)
		assert.InDelta(t, 172.0, result.Cost, 1e-6)
		assert.Equal(t, []int32{0, 1, 3}, result.Nodes)
		assert.NotEmpty(t, result.PedestrianLeg)
		assert.NotEmpty(t, result.CarLeg)
		assert.NotEmpty(t, result.DriverApproachLeg)
	})

	t.Run("driver starts at node 2", func(t *testing.T) {
		car := carpoolPoint(2)
		result, err := svc.Carpool(ctx, carpoolPoint(0), &car, carpoolPoint(3), "", "")
		require.NoError(t, err)
		assert.Equal(t, int32(2), result.Pickup)
		assert.InDelta(t, 236.0, result.Cost, 1e-6)
	})

	t.Run("driver starts anywhere", func(t *testing.T) {
		result, err := svc.Carpool(ctx, carpoolPoint(0), nil, carpoolPoint(3), "", "")
		require.NoError(t, err)
		assert.Equal(t, int32(1), result.Pickup)
		assert.Equal(t, datastructure.InvalidNodeID, result.CarOrigin)
		assert.Empty(t, result.DriverApproachLeg)
	})

	t.Run("unknown filter", func(t *testing.T) {
		_, err := svc.Carpool(ctx, carpoolPoint(0), nil, carpoolPoint(3), "", "bicycle-only")
		assert.Equal(t, server.ErrBadParamInput, server.CodeOf(err))
	})

	t.Run("walking seconds mixed with driving meters", func(t *testing.T) {
		_, err := svc.Carpool(ctx, carpoolPoint(0), nil, carpoolPoint(3), "pedestrian-only", "shortest-path-cars-only")
		assert.Equal(t, server.ErrBadParamInput, server.CodeOf(err))
		assert.ErrorIs(t, err, routingalgorithm.ErrInvalidData)
	})

	t.Run("pedestrian filter open to car only roads", func(t *testing.T) {
		_, err := svc.Carpool(ctx, carpoolPoint(4), nil, carpoolPoint(3), "fastest-path-cars-only", "fastest-path-cars-only")
		assert.Equal(t, server.ErrBadParamInput, server.CodeOf(err))
		assert.ErrorIs(t, err, routingalgorithm.ErrInvalidData)
	})

	t.Run("driver cannot reach the destination", func(t *testing.T) {
		pedestrianFilter, err := svc.filter("", svc.defaults.PedestrianFilter)
		require.NoError(t, err)
		carFilter, err := svc.filter("", svc.defaults.CarFilter)
		require.NoError(t, err)

		result, err := svc.carpool(ctx, routingalgorithm.CarpoolingData{
			Graph:            svc.Graph(),
			PedestrianOrigin: 0,
			CarOrigin:        4,
			Destination:      0,
			PedestrianFilter: pedestrianFilter,
			CarFilter:        carFilter,
		})
		assert.Equal(t, server.ErrNotFound, server.CodeOf(err))
		assert.Equal(t, "INFEASIBLE", result.Status)
	})

	ended := svc.spans.Ended()
	require.NotEmpty(t, ended)
	assert.Equal(t, "routing.carpooling", ended[0].Name())
}

func TestAddObserversEndsSpanOnFailure(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	t.Cleanup(func() { provider.Shutdown(context.Background()) })

	_, tracing := observer.StartTracing(context.Background(), provider.Tracer("test"), "dijkstra")
	errBusy := errors.New("busy")
	added := 0
	add := func(routingalgorithm.Observer) error {
		added++
		if added == 2 {
			return errBusy
		}
		return nil
	}

	err := addObservers[routingalgorithm.Observer](add, []routingalgorithm.Observer{tracing, tracing, tracing}, tracing)
	assert.ErrorIs(t, err, errBusy)
	assert.Equal(t, 2, added)

	ended := spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "routing.dijkstra", ended[0].Name())
	assert.Equal(t, "busy", ended[0].Status().Description)
}
