package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lintang-b-s/carpoolnav/pkg/config"
	"github.com/lintang-b-s/carpoolnav/pkg/datastructure"
	"github.com/lintang-b-s/carpoolnav/pkg/observer"
	"github.com/lintang-b-s/carpoolnav/pkg/server"
	"github.com/lintang-b-s/carpoolnav/pkg/server/rest/service"
	"github.com/lintang-b-s/carpoolnav/pkg/snap"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// six node example in the west, the carpooling example in the east. The two parts are not connected.
//
// six node arcs (all modes, 36 km/h): 0->1 7, 0->2 8, 1->3 4, 1->4 1, 1->5 5, 2->0 7,
// 2->1 2, 2->5 2, 4->2 2, 4->3 2, 4->5 3, 5->4 3
//
// carpool nodes 6..10, foot arcs: 6->7 100, 6->8 300
// car arcs: 7->9 1000, 8->9 200, 10->7 100, 10->8 500
func newTestGraph(t *testing.T) *datastructure.Graph {
	b := datastructure.NewGraphBuilder("test", "test")
	for i := 0; i < 6; i++ {
		b.AddNode(sixNodePoint(i))
	}
	for i := 0; i < 5; i++ {
		b.AddNode(carpoolPoint(i))
	}

	road := datastructure.NewRoadInformation(datastructure.MOTORWAY, 36, datastructure.AccessAll, true, "")
	for _, a := range [][3]float64{
		{0, 1, 7}, {0, 2, 8}, {1, 3, 4}, {1, 4, 1}, {1, 5, 5}, {2, 0, 7},
		{2, 1, 2}, {2, 5, 2}, {4, 2, 2}, {4, 3, 2}, {4, 5, 3}, {5, 4, 3},
	} {
		_, err := b.AddArc(int32(a[0]), int32(a[1]), a[2], road, nil)
		require.NoError(t, err)
	}

	foot := datastructure.NewRoadInformation(datastructure.FOOTWAY, 5, datastructure.AccessFoot, true, "")
	car := datastructure.NewRoadInformation(datastructure.MOTORWAY, 36, datastructure.AccessCar, true, "")
	for _, a := range []struct {
		from, to int32
		length   float64
		road     datastructure.RoadInformation
	}{
		{6, 7, 100, foot}, {6, 8, 300, foot}, {7, 9, 1000, car},
		{8, 9, 200, car}, {10, 7, 100, car}, {10, 8, 500, car},
	} {
		_, err := b.AddArc(a.from, a.to, a.length, a.road, nil)
		require.NoError(t, err)
	}
	return b.Build()
}

func sixNodePoint(i int) datastructure.Coordinate {
	return datastructure.NewCoordinate(-7.55+float64(i)*0.001, 110.77)
}

func carpoolPoint(i int) datastructure.Coordinate {
	return datastructure.NewCoordinate(-7.55, 110.80+float64(i)*0.001)
}

func newTestServer(t *testing.T) *httptest.Server {
	g := newTestGraph(t)
	reg := prometheus.NewRegistry()
	cfg := config.DefaultConfig()
	snapper := snap.NewNodeSnapper(g, snap.NewMemoryCellIndex(g, 9), 9, 10)
	svc := service.NewRoutingService(g, snapper, observer.NewRoutingMetrics(reg), nil, cfg.Routing)

	ts := httptest.NewServer(NewRouter(svc, reg, cfg.Server))
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, route, body string) (*http.Response, []byte) {
	resp, err := http.Post(ts.URL+route, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestFilters(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/filters")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body FiltersResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{
		"shortest-path-all-roads", "shortest-path-cars-only", "fastest-path-all-roads",
		"fastest-path-cars-only", "pedestrian-only",
	}, body.Filters)
}

func TestShortestPathHandler(t *testing.T) {
	ts := newTestServer(t)

	src, dst := sixNodePoint(0), sixNodePoint(3)
	reqBody, err := json.Marshal(ShortestPathRequest{SrcLat: src.Lat, SrcLon: src.Lon, DstLat: dst.Lat, DstLon: dst.Lon})
	require.NoError(t, err)

	resp, data := post(t, ts, "/api/navigations/shortest-path", string(reqBody))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var body ShortestPathResponse
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "OPTIMAL", body.Status)
	assert.Equal(t, "dijkstra", body.Algorithm)
	assert.InDelta(t, 10.0, body.Cost, 1e-9)
	assert.Equal(t, []int32{0, 1, 4, 3}, body.Nodes)
	assert.NotEmpty(t, body.Path)
}

func TestShortestPathHandlerValidation(t *testing.T) {
	ts := newTestServer(t)

	resp, data := post(t, ts, "/api/navigations/shortest-path", `{"src_lon": 110.77, "dst_lat": -7.55, "dst_lon": 110.77}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body ErrResponse
	require.NoError(t, json.Unmarshal(data, &body))
	require.Len(t, body.ErrValidation, 1)
	assert.Contains(t, body.ErrValidation[0], "SrcLat")

	resp, _ = post(t, ts, "/api/navigations/shortest-path",
		`{"src_lat": -7.55, "src_lon": 110.77, "dst_lat": -7.547, "dst_lon": 110.77, "algorithm": "a-star"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = post(t, ts, "/api/navigations/shortest-path", `{"src_lat": `)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestShortestPathNodesHandler(t *testing.T) {
	ts := newTestServer(t)

	resp, data := post(t, ts, "/api/navigations/shortest-path/nodes", `{"origin": 0, "destination": 3, "algorithm": "bellman-ford"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var body ShortestPathResponse
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "bellman-ford", body.Algorithm)
	assert.InDelta(t, 10.0, body.Length, 1e-9)

	t.Run("infeasible", func(t *testing.T) {
		resp, data := post(t, ts, "/api/navigations/shortest-path/nodes", `{"origin": 3, "destination": 0}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var errBody ErrResponse
		require.NoError(t, json.Unmarshal(data, &errBody))
		assert.Equal(t, int64(server.ErrNotFound), errBody.AppCode)
	})

	t.Run("unknown filter", func(t *testing.T) {
		resp, data := post(t, ts, "/api/navigations/shortest-path/nodes", `{"origin": 0, "destination": 3, "filter": "bicycle-only"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var errBody ErrResponse
		require.NoError(t, json.Unmarshal(data, &errBody))
		assert.Equal(t, int64(server.ErrBadParamInput), errBody.AppCode)
		assert.Equal(t, `unknown filter "bicycle-only"`, errBody.ErrorText)
	})

	t.Run("missing destination", func(t *testing.T) {
		resp, _ := post(t, ts, "/api/navigations/shortest-path/nodes", `{"origin": 0}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestCompareHandler(t *testing.T) {
	ts := newTestServer(t)

	resp, data := post(t, ts, "/api/navigations/compare", `{"origin": 2, "destination": 3, "filter": "fastest-path-all-roads"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var body CompareResponse
	require.NoError(t, json.Unmarshal(data, &body))
	assert.True(t, body.Agree)
	require.Len(t, body.Results, 2)
	assert.InDelta(t, body.Results[0].Cost, body.Results[1].Cost, 1e-9)
}

func TestCarpoolingHandler(t *testing.T) {
	ts := newTestServer(t)

	pedestrian, car, dst := carpoolPoint(0), carpoolPoint(4), carpoolPoint(3)
	reqBody, err := json.Marshal(CarpoolingRequest{
		PedestrianLat: pedestrian.Lat, PedestrianLon: pedestrian.Lon,
		CarLat: &car.Lat, CarLon: &car.Lon,
		DstLat: dst.Lat, DstLon: dst.Lon,
	})
	require.NoError(t, err)

	resp, data := post(t, ts, "/api/navigations/carpooling", string(reqBody))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var body CarpoolingResponse
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, int32(7), body.Pickup)
	assert.Equal(t, int32(10), body.CarOrigin)
	assert.InDelta(t, 172.0, body.Cost, 1e-6)
	assert.Equal(t, []int32{6, 7, 9}, body.Nodes)
	assert.NotEmpty(t, body.DriverPath)

	resp, _ = post(t, ts, "/api/navigations/carpooling",
		`{"pedestrian_lat": -7.55, "pedestrian_lon": 110.8, "car_lat": -7.55, "dst_lat": -7.55, "dst_lon": 110.803}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data = post(t, ts, "/api/navigations/carpooling",
		`{"pedestrian_lat": -7.55, "pedestrian_lon": 110.8, "dst_lat": -7.55, "dst_lon": 110.803,
		"pedestrian_filter": "pedestrian-only", "car_filter": "shortest-path-cars-only"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errBody ErrResponse
	require.NoError(t, json.Unmarshal(data, &errBody))
	assert.Equal(t, int64(server.ErrBadParamInput), errBody.AppCode)
	assert.Equal(t, "filters pedestrian-only and shortest-path-cars-only cannot be combined for carpooling", errBody.ErrorText)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := post(t, ts, "/api/navigations/shortest-path/nodes", `{"origin": 0, "destination": 3}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	metricsResp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	data, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(data), `carpoolnav_http_requests_total{code="200",method="POST",route="/api/navigations/shortest-path/nodes"} 1`)
	assert.Contains(t, string(data), `carpoolnav_runs_total{algorithm="dijkstra",status="OPTIMAL"} 1`)
}
