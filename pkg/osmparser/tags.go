package osmparser

import (
	"strconv"
	"strings"

	"github.com/lintang-b-s/carpoolnav/pkg/datastructure"
	"github.com/paulmach/osm"
)

type wayDirection uint8

const (
	both wayDirection = iota
	forward
	backward
)

func acceptOsmWay(way *osm.Way) bool {
	if _, ok := datastructure.ParseRoadType(way.Tags.Find("highway")); ok {
		return true
	}
	return isRoundabout(way)
}

func isRoundabout(way *osm.Way) bool {
	junction := way.Tags.Find("junction")
	return junction == "roundabout" || junction == "circular"
}

func wayRoadInformation(way *osm.Way) (datastructure.RoadInformation, wayDirection) {
	roadType, ok := datastructure.ParseRoadType(way.Tags.Find("highway"))
	if !ok {
		roadType = datastructure.ROUNDABOUT
	}

	maxSpeed, ok := parseMaxSpeed(way.Tags.Find("maxspeed"))
	if !ok {
		maxSpeed = datastructure.RoadTypeMaxSpeed(roadType)
	}

	direction := both
	switch way.Tags.Find("oneway") {
	case "yes", "1", "true":
		direction = forward
	case "-1", "reverse":
		direction = backward
	case "no", "false", "0":
	default:
		if isRoundabout(way) || roadType == datastructure.MOTORWAY {
			direction = forward
		}
	}

	access := wayAccess(way, roadType)
	road := datastructure.NewRoadInformation(roadType, maxSpeed, access, direction != both, way.Tags.Find("name"))
	return road, direction
}

func isRestricted(value string) bool {
	switch value {
	case "no", "restricted", "military", "emergency", "private", "permit":
		return true
	}
	return false
}

func isPermitted(value string) bool {
	switch value {
	case "yes", "designated", "permissive", "destination", "customers", "delivery":
		return true
	}
	return false
}

// wayAccess starts from the road class default, then applies access, foot and motor vehicle tags.
func wayAccess(way *osm.Way, roadType datastructure.RoadType) datastructure.Access {
	access := datastructure.DefaultAccess(roadType)
	if isRestricted(way.Tags.Find("access")) {
		access = datastructure.AccessNone
	}

	foot := way.Tags.Find("foot")
	switch {
	case isPermitted(foot):
		access |= datastructure.AccessFoot
	case isRestricted(foot):
		access &^= datastructure.AccessFoot
	}

	for _, key := range []string{"motor_vehicle", "motorcar"} {
		value := way.Tags.Find(key)
		switch {
		case isPermitted(value):
			access |= datastructure.AccessCar
		case isRestricted(value):
			access &^= datastructure.AccessCar
		}
	}
	return access
}

// parseMaxSpeed converts a maxspeed tag to km/h. Values without a number (none, signals, country zones) are not parsed.
func parseMaxSpeed(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if idx := strings.IndexByte(value, ';'); idx >= 0 {
		value = strings.TrimSpace(value[:idx])
	}
	if value == "" {
		return 0, false
	}
	if value == "walk" {
		return datastructure.RoadTypeMaxSpeed(datastructure.FOOTWAY), true
	}

	factor := 1.0
	switch {
	case strings.HasSuffix(value, "mph"):
		factor = 1.60934
		value = strings.TrimSuffix(value, "mph")
	case strings.HasSuffix(value, "knots"):
		factor = 1.852
		value = strings.TrimSuffix(value, "knots")
	case strings.HasSuffix(value, "km/h"):
		value = strings.TrimSuffix(value, "km/h")
	case strings.HasSuffix(value, "kmh"):
		value = strings.TrimSuffix(value, "kmh")
	}

	speed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || speed <= 0 {
		return 0, false
	}
	return speed * factor, true
}
