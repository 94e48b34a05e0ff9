// Package topology knows the shape of the line: which train classes can
// serve a station pair, which way a journey travels, and whether two
// journeys on the same train occupy overlapping stretches of track.
package topology

import (
	"github.com/hokurail/train-seat-reservation/internal/model"
)

// Direction of travel relative to increasing distance-from-origin.
type Direction int

const (
	// Outbound runs toward increasing station distance.
	Outbound Direction = iota
	// Inbound runs toward decreasing station distance.
	Inbound
)

func (d Direction) String() string {
	if d == Inbound {
		return "inbound"
	}
	return "outbound"
}

// DirectionBetween derives the travel direction of a journey from its
// endpoint stations.  A journey is inbound exactly when the origin lies
// farther from the line origin than the destination.
func DirectionBetween(from, to model.Station) Direction {
	if from.Distance > to.Distance {
		return Inbound
	}
	return Outbound
}

// UsableTrainClasses returns the classes that stop at both endpoints, in
// canonical order.  A class is dropped as soon as either station lacks
// its stop flag.
func UsableTrainClasses(from, to model.Station) []string {
	usable := make([]string, 0, len(model.TrainClasses))
	for _, tc := range model.TrainClasses {
		if from.StopsFor(tc) && to.StopsFor(tc) {
			usable = append(usable, tc)
		}
	}
	return usable
}

// Usable reports whether trainClass serves both endpoints.
func Usable(trainClass string, from, to model.Station) bool {
	return from.StopsFor(trainClass) && to.StopsFor(trainClass)
}

// StationsInTravelOrder returns the stations ordered the way a train of
// the given direction passes them.  The input must be ordered ascending
// by distance; the slice is copied, not mutated.
func StationsInTravelOrder(byDistance []model.Station, d Direction) []model.Station {
	ordered := make([]model.Station, len(byDistance))
	copy(ordered, byDistance)
	if d == Inbound {
		for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		}
	}
	return ordered
}

// RouteContains walks the travel-ordered station list from the train's
// start station and reports whether the journey (fromID -> toID) lies on
// the operated stretch in the correct order.  The scan ends when the
// destination turns up after the origin (valid), when the destination
// turns up first (wrong way for this train), or when the terminal is
// reached without finding the destination.
func RouteContains(inTravelOrder []model.Station, startStation, lastStation string, fromID, toID int) bool {
	seeked := false
	containsOrigin := false
	for _, st := range inTravelOrder {
		if !seeked {
			// Skip everything before the train's first stop.
			if st.Name != startStation {
				continue
			}
			seeked = true
		}
		if st.ID == fromID {
			containsOrigin = true
		}
		if st.ID == toID {
			return containsOrigin
		}
		if st.Name == lastStation {
			break
		}
	}
	return false
}

// Segment is the station-ordinal span a journey occupies on a train.
// From and To are station IDs in journey order, so From > To on an
// inbound train.
type Segment struct {
	From int
	To   int
}

// Overlaps reports whether two journeys on a train of the given
// direction occupy conflicting stretches.  The alighting boundary is
// exclusive: handing a seat over at the exact station where the previous
// passenger gets off is not a conflict.
func Overlaps(d Direction, a, b Segment) bool {
	if d == Inbound {
		// Inbound ordinals decrease while travelling: a covers (a.To, a.From].
		return a.From > b.To && a.To < b.From
	}
	return a.From < b.To && a.To > b.From
}

// WithinOperatingSpan reports whether the requested segment lies inside
// the stretch the train actually runs, honoring its direction.
func WithinOperatingSpan(d Direction, startID, lastID int, seg Segment) bool {
	if d == Inbound {
		return seg.From <= startID && seg.To >= lastID && seg.From > seg.To
	}
	return seg.From >= startID && seg.To <= lastID && seg.From < seg.To
}
