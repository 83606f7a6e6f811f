package datastructure

type RoadType uint8

const (
	MOTORWAY RoadType = iota
	TRUNK
	PRIMARY
	SECONDARY
	MOTORWAY_LINK
	TRUNK_LINK
	PRIMARY_LINK
	SECONDARY_LINK
	TERTIARY
	RESIDENTIAL
	UNCLASSIFIED
	LIVING_STREET
	SERVICE
	ROUNDABOUT
	PEDESTRIAN
	CYCLEWAY
	TRACK
	FOOTWAY
	COASTLINE
)

var roadTypeNames = [...]string{
	MOTORWAY:       "motorway",
	TRUNK:          "trunk",
	PRIMARY:        "primary",
	SECONDARY:      "secondary",
	MOTORWAY_LINK:  "motorway_link",
	TRUNK_LINK:     "trunk_link",
	PRIMARY_LINK:   "primary_link",
	SECONDARY_LINK: "secondary_link",
	TERTIARY:       "tertiary",
	RESIDENTIAL:    "residential",
	UNCLASSIFIED:   "unclassified",
	LIVING_STREET:  "living_street",
	SERVICE:        "service",
	ROUNDABOUT:     "roundabout",
	PEDESTRIAN:     "pedestrian",
	CYCLEWAY:       "cycleway",
	TRACK:          "track",
	FOOTWAY:        "footway",
	COASTLINE:      "coastline",
}

func (rt RoadType) String() string {
	if int(rt) < len(roadTypeNames) {
		return roadTypeNames[rt]
	}
	return "unknown"
}

// ParseRoadType maps an openstreetmap highway value to a RoadType.
func ParseRoadType(highway string) (RoadType, bool) {
	switch highway {
	case "steps", "path":
		return FOOTWAY, true
	case "tertiary_link":
		return TERTIARY, true
	case "road":
		return UNCLASSIFIED, true
	}
	for i, name := range roadTypeNames {
		if name == highway {
			return RoadType(i), true
		}
	}
	return 0, false
}

// RoadTypeMaxSpeed returns the default maximum speed (km/h) of a road class.
func RoadTypeMaxSpeed(roadType RoadType) float64 {
	switch roadType {
	case MOTORWAY:
		return 95
	case TRUNK:
		return 85
	case PRIMARY:
		return 75
	case SECONDARY:
		return 65
	case TERTIARY:
		return 50
	case UNCLASSIFIED:
		return 50
	case RESIDENTIAL:
		return 30
	case SERVICE:
		return 20
	case MOTORWAY_LINK:
		return 90
	case TRUNK_LINK:
		return 80
	case PRIMARY_LINK:
		return 70
	case SECONDARY_LINK:
		return 60
	case LIVING_STREET:
		return 20
	case ROUNDABOUT:
		return 30
	case CYCLEWAY, TRACK:
		return 20
	case PEDESTRIAN, FOOTWAY:
		return 5
	default:
		return 40
	}
}

// Access is the set of transport modes allowed on a road.
type Access uint8

const (
	AccessFoot Access = 1 << iota
	AccessCar

	AccessNone Access = 0
	AccessAll         = AccessFoot | AccessCar
)

func (a Access) Allows(mode Access) bool {
	return a&mode == mode && mode != AccessNone
}

// DefaultAccess returns the modes usually allowed on a road class when no access tag says otherwise.
func DefaultAccess(roadType RoadType) Access {
	switch roadType {
	case MOTORWAY, MOTORWAY_LINK, TRUNK, TRUNK_LINK:
		return AccessCar
	case PEDESTRIAN, FOOTWAY, TRACK:
		return AccessFoot
	case CYCLEWAY, COASTLINE:
		return AccessNone
	default:
		return AccessAll
	}
}

type RoadInformation struct {
	Type     RoadType
	MaxSpeed float64 // km/h
	Access   Access
	OneWay   bool
	Name     string
}

func NewRoadInformation(roadType RoadType, maxSpeed float64, access Access, oneWay bool, name string) RoadInformation {
	return RoadInformation{
		Type:     roadType,
		MaxSpeed: maxSpeed,
		Access:   access,
		OneWay:   oneWay,
		Name:     name,
	}
}
