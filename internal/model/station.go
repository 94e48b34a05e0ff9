package model

// Station is one stop on the single line the service operates.  Stations
// are reference data: the id doubles as the ordinal position along the
// line and Distance strictly increases with it.  The three stop flags
// say whether a train of that class calls at the station at all.
//
// Fields:
//  ID                – ordinal position along the line (primary key).
//  Name              – unique station name.
//  Distance          – kilometres from the line origin.
//  IsStopExpress     – express trains stop here.
//  IsStopSemiExpress – semi-express trains stop here.
//  IsStopLocal       – local trains stop here.
type Station struct {
	ID                int     `json:"id"`
	Name              string  `json:"name"`
	Distance          float64 `json:"-"`
	IsStopExpress     bool    `json:"is_stop_express"`
	IsStopSemiExpress bool    `json:"is_stop_semi_express"`
	IsStopLocal       bool    `json:"is_stop_local"`
}

// Train classes understood by the timetable.  TrainClasses preserves the
// canonical ordering used when filtering usable classes.
const (
	TrainClassExpress     = "express"
	TrainClassSemiExpress = "semi_express"
	TrainClassLocal       = "local"
)

// TrainClasses lists every class in canonical order.
var TrainClasses = []string{TrainClassExpress, TrainClassSemiExpress, TrainClassLocal}

// StopsFor reports whether the station is served by the given train class.
func (s Station) StopsFor(trainClass string) bool {
	switch trainClass {
	case TrainClassExpress:
		return s.IsStopExpress
	case TrainClassSemiExpress:
		return s.IsStopSemiExpress
	case TrainClassLocal:
		return s.IsStopLocal
	}
	return false
}
