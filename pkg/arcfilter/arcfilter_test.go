package arcfilter

import (
	"testing"

	"github.com/lintang-b-s/carpoolnav/pkg/datastructure"
	"github.com/stretchr/testify/assert"
)

func TestStandardFilters(t *testing.T) {
	motorway := datastructure.Arc{Length: 1000,
		Road: datastructure.NewRoadInformation(datastructure.MOTORWAY, 90, datastructure.AccessCar, true, "")}
	footway := datastructure.Arc{Length: 100,
		Road: datastructure.NewRoadInformation(datastructure.FOOTWAY, 5, datastructure.AccessFoot, false, "")}
	residential := datastructure.Arc{Length: 360,
		Road: datastructure.NewRoadInformation(datastructure.RESIDENTIAL, 36, datastructure.AccessAll, false, "")}

	cases := []struct {
		name            string
		mode            Mode
		requires        datastructure.Access
		allowed         [3]bool
		costMotorway    float64
		costResidential float64
	}{
		{ShortestAllRoads, ModeLength, datastructure.AccessNone, [3]bool{true, true, true}, 1000, 360},
		{ShortestCarsOnly, ModeLength, datastructure.AccessCar, [3]bool{true, false, true}, 1000, 360},
		{FastestAllRoads, ModeTime, datastructure.AccessNone, [3]bool{true, true, true}, 40, 36},
		{FastestCarsOnly, ModeTime, datastructure.AccessCar, [3]bool{true, false, true}, 40, 36},
		{PedestrianOnly, ModeTime, datastructure.AccessFoot, [3]bool{false, true, true}, 720, 259.2},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f, err := ByName(c.name)
			assert.NoError(t, err)
			assert.Equal(t, c.name, f.Name())
			assert.Equal(t, c.mode, f.Mode())
			assert.Equal(t, c.requires, f.Requires())

			assert.Equal(t, c.allowed[0], f.IsAllowed(motorway))
			assert.Equal(t, c.allowed[1], f.IsAllowed(footway))
			assert.Equal(t, c.allowed[2], f.IsAllowed(residential))

			assert.InDelta(t, c.costMotorway, f.Cost(motorway), 1e-9)
			assert.InDelta(t, c.costResidential, f.Cost(residential), 1e-9)
		})
	}
}

func TestFactory(t *testing.T) {
	assert.Equal(t, []string{ShortestAllRoads, ShortestCarsOnly, FastestAllRoads, FastestCarsOnly, PedestrianOnly}, Names())

	pedestrian, _ := ByName(PedestrianOnly)
	assert.Equal(t, PedestrianSpeed, pedestrian.MaximumSpeed())

	fastest, _ := ByName(FastestAllRoads)
	assert.Equal(t, NoMaximumSpeed, fastest.MaximumSpeed())

	_, err := ByName("teleport")
	assert.ErrorIs(t, err, ErrUnknownFilter)
}

func TestRequiresRejectsBeforePredicate(t *testing.T) {
	called := 0
	f := New("short-foot", ModeLength, datastructure.AccessFoot, NoMaximumSpeed,
		func(arc datastructure.Arc) bool {
			called++
			return arc.Length < 500
		}, length)

	footway := datastructure.Arc{Length: 100,
		Road: datastructure.NewRoadInformation(datastructure.FOOTWAY, 5, datastructure.AccessFoot, false, "")}
	longFootway := datastructure.Arc{Length: 900, Road: footway.Road}
	motorway := datastructure.Arc{Length: 100,
		Road: datastructure.NewRoadInformation(datastructure.MOTORWAY, 90, datastructure.AccessCar, true, "")}

	assert.True(t, f.IsAllowed(footway))
	assert.False(t, f.IsAllowed(longFootway))
	assert.False(t, f.IsAllowed(motorway))
	assert.Equal(t, 2, called)
	assert.Equal(t, datastructure.AccessFoot, f.Requires())
}
