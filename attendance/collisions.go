package attendance

import (
	"sort"

	"github.com/carecheck/attendance-engine/keys"
	"github.com/carecheck/attendance-engine/sheet"
)

// =============================================================================
// TRIPS
// =============================================================================

// Leg distinguishes the morning pick-up from the evening drop-off.
type Leg string

const (
	LegAdmission Leg = "admission" // 등원(입소)
	LegDischarge Leg = "discharge" // 하원(퇴소)
)

// Trip is one beneficiary on one vehicle at one time.
type Trip struct {
	Leg     Leg
	Date    string // YYYYMMDD when derivable
	Vehicle string
	Time    string // HHMM
	Name    string
	Birth   string
}

// Person identifies who rode.
type Person struct {
	Name  string
	Birth string
}

func (t Trip) person() Person { return Person{Name: t.Name, Birth: t.Birth} }

// Column label names for the transport log.
const (
	ColDate       = "date"
	ColStatus     = "status"
	ColName       = "name"
	ColBirth      = "birth"
	ColVehicleIn  = "vehicle_in"
	ColTimeIn     = "time_in"
	ColVehicleOut = "vehicle_out"
	ColTimeOut    = "time_out"
)

// VehicleLayout describes the transport log. Columns are found by header
// label since the export does not fix their order.
type VehicleLayout struct {
	Scanner  sheet.HeaderScanner
	Labels   []sheet.Label
	Statuses []string
}

// DefaultVehicleLayout matches the facility system's transport export.
func DefaultVehicleLayout() VehicleLayout {
	return VehicleLayout{
		Scanner: sheet.HeaderScanner{Window: 5},
		Labels: []sheet.Label{
			{Name: ColDate, Exact: []string{"일자"}},
			{Name: ColStatus, Exact: []string{"입퇴소구분"}},
			{Name: ColName, Exact: []string{"성명"}},
			{Name: ColBirth, Exact: []string{"생년월일"}},
			{Name: ColVehicleIn, Exact: []string{"차량(입소)"}},
			{Name: ColTimeIn, Exact: []string{"입소시간"}},
			{Name: ColVehicleOut, Exact: []string{"차량(퇴소)"}},
			{Name: ColTimeOut, Exact: []string{"퇴소시간"}},
		},
		Statuses: []string{"입퇴소"},
	}
}

// ExtractTrips reads up to two trips per row: admission and discharge. A leg
// needs a vehicle and a time; a missing header is fatal.
func ExtractTrips(rows []sheet.Row, layout VehicleLayout) ([]Trip, error) {
	header, err := layout.Scanner.Scan("vehicles", rows, layout.Labels...)
	if err != nil {
		return nil, err
	}
	col := header.Column

	legs := []struct {
		leg     Leg
		vehicle int
		time    int
	}{
		{LegAdmission, col(ColVehicleIn), col(ColTimeIn)},
		{LegDischarge, col(ColVehicleOut), col(ColTimeOut)},
	}

	var trips []Trip
	for i := header.Row + 1; i < len(rows); i++ {
		r := rows[i]
		if !contains(layout.Statuses, r.Cell(col(ColStatus))) {
			continue
		}
		for _, l := range legs {
			vehicle := r.Cell(l.vehicle)
			time := keys.NormalizeTimeCode(r.Cell(l.time))
			if vehicle == "" || time == "" {
				continue
			}
			trips = append(trips, Trip{
				Leg:     l.leg,
				Date:    keys.NormalizeDate(r.Cell(col(ColDate))),
				Vehicle: vehicle,
				Time:    time,
				Name:    r.Cell(col(ColName)),
				Birth:   r.Cell(col(ColBirth)),
			})
		}
	}
	return trips, nil
}

// =============================================================================
// COLLISIONS
// =============================================================================

// Collision is a (leg, date, vehicle, time) slot holding more than one
// distinct person. People keeps every trip in the slot, in input order.
type Collision struct {
	Leg     Leg
	Date    string
	Vehicle string
	Time    string
	People  []Person
}

type slot struct {
	leg     Leg
	date    string
	vehicle string
	time    string
}

// DetectCollisions groups trips by slot and returns the slots shared by
// more than one distinct person, ordered by date, leg, vehicle, time.
func DetectCollisions(trips []Trip) []Collision {
	groups := make(map[slot][]Person)
	var order []slot
	for _, t := range trips {
		s := slot{leg: t.Leg, date: t.Date, vehicle: t.Vehicle, time: keys.NormalizeTimeCode(t.Time)}
		if _, ok := groups[s]; !ok {
			order = append(order, s)
		}
		groups[s] = append(groups[s], t.person())
	}

	var out []Collision
	for _, s := range order {
		people := groups[s]
		if distinct(people) < 2 {
			continue
		}
		out = append(out, Collision{Leg: s.leg, Date: s.date, Vehicle: s.vehicle, Time: s.time, People: people})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.Date != b.Date:
			return a.Date < b.Date
		case a.Leg != b.Leg:
			return a.Leg == LegAdmission
		case a.Vehicle != b.Vehicle:
			return a.Vehicle < b.Vehicle
		default:
			return a.Time < b.Time
		}
	})
	return out
}

func distinct(people []Person) int {
	seen := make(map[Person]bool, len(people))
	for _, p := range people {
		seen[Person{Name: keys.NormalizeName(p.Name), Birth: keys.NormalizeBirthFragment(p.Birth)}] = true
	}
	return len(seen)
}
