package snap

import (
	"errors"
	"testing"

	"github.com/lintang-b-s/carpoolnav/pkg/datastructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber/h3-go/v4"
)

// nodes along jalan slamet riyadi, roughly 100 meter apart, plus one node in jogja
func newTestGraph(t *testing.T) *datastructure.Graph {
	b := datastructure.NewGraphBuilder("solo", "Surakarta")
	b.AddNode(datastructure.NewCoordinate(-7.5690, 110.8200))
	b.AddNode(datastructure.NewCoordinate(-7.5690, 110.8209))
	b.AddNode(datastructure.NewCoordinate(-7.5690, 110.8218))
	b.AddNode(datastructure.NewCoordinate(-7.7828, 110.3671))
	road := datastructure.NewRoadInformation(datastructure.PRIMARY, 0, datastructure.AccessAll, false, "Jalan Slamet Riyadi")
	require.NoError(t, b.AddRoad(0, 1, 100, road, nil))
	require.NoError(t, b.AddRoad(1, 2, 100, road, nil))
	return b.Build()
}

func TestSnap(t *testing.T) {
	g := newTestGraph(t)
	snapper := NewNodeSnapper(g, NewMemoryCellIndex(g, 9), 9, 10)

	nodeID, dist, err := snapper.Snap(datastructure.NewCoordinate(-7.5691, 110.8208), nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), nodeID)
	assert.Less(t, dist, 20.0)

	nodeID, _, err = snapper.Snap(datastructure.NewCoordinate(-7.5690, 110.8200), nil)
	require.NoError(t, err)
	assert.Equal(t, int32(0), nodeID)
}

func TestSnapWithFilter(t *testing.T) {
	g := newTestGraph(t)
	snapper := NewNodeSnapper(g, NewMemoryCellIndex(g, 9), 9, 10)

	nodeID, _, err := snapper.Snap(datastructure.NewCoordinate(-7.5691, 110.8208), func(nodeID int32) bool {
		return nodeID != 1
	})
	require.NoError(t, err)
	assert.Contains(t, []int32{0, 2}, nodeID)
}

func TestSnapTooFar(t *testing.T) {
	g := newTestGraph(t)
	snapper := NewNodeSnapper(g, NewMemoryCellIndex(g, 9), 9, 2)

	// semarang is far from every node
	_, _, err := snapper.Snap(datastructure.NewCoordinate(-6.9667, 110.4167), nil)
	assert.ErrorIs(t, err, ErrNoNearbyNode)

	_, _, err = snapper.Snap(datastructure.NewCoordinate(-7.5691, 110.8208), func(int32) bool { return false })
	assert.ErrorIs(t, err, ErrNoNearbyNode)
}

type failingIndex struct{}

func (failingIndex) NodesInCell(h3.Cell) ([]int32, error) {
	return nil, errors.New("disk on fire")
}

func TestSnapIndexError(t *testing.T) {
	g := newTestGraph(t)
	_, _, err := NewNodeSnapper(g, failingIndex{}, 0, 0).Snap(datastructure.NewCoordinate(-7.5691, 110.8208), nil)
	assert.EqualError(t, err, "disk on fire")
}
