package solver

import (
	"math"
	"slices"
)

// Weights configures the scoring terms. Higher scores are better.
type Weights struct {
	// Meal is paid per seat filled across the whole schedule.
	Meal float64
	// Hosting is charged per dinner hosted, PeakHosting once per hosting
	// done by the busiest host.
	Hosting     float64
	PeakHosting float64
	// Overage is charged as Overage * 2^(hosted - limit) for each host over
	// its host limit.
	Overage float64
	// SmallDinner is charged per dinner seating fewer than SmallDinnerSeats
	// families.
	SmallDinner      float64
	SmallDinnerSeats int
	// Meeting is paid per distinct pair of families that share a table.
	// Acquainted is charged for each of those pairs whose acquaintance tags
	// overlap.
	Meeting    float64
	Acquainted float64
}

var DefaultWeights = Weights{
	Meal:             128,
	Hosting:          8,
	PeakHosting:      32,
	Overage:          16,
	SmallDinner:      512,
	SmallDinnerSeats: 3,
	Meeting:          1,
	Acquainted:       1,
}

var WeightSets = map[string]Weights{
	"default": DefaultWeights,
	"relaxed": {
		Meal:       128,
		Hosting:    8,
		Meeting:    1,
		Acquainted: 1,
	},
	"mixing": {
		Meal:             128,
		Hosting:          8,
		PeakHosting:      32,
		Overage:          16,
		SmallDinner:      512,
		SmallDinnerSeats: 3,
		Meeting:          4,
		Acquainted:       4,
	},
}

// WeightSetNames returns the preset names in sorted order.
func WeightSetNames() []string {
	var names []string
	for name := range WeightSets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

type Scorer struct {
	Roster  *Roster
	Weights Weights
}

// Summary is the set of aggregate figures reported for a schedule.
type Summary struct {
	Score      float64
	Seats      int
	Hostings   int
	MaxHosting int
	Meetings   int
	Dinners    int
	HostCounts map[string]int
}

func (sc Scorer) Score(s *Schedule) float64 {
	return sc.Summarize(s).Score
}

func (sc Scorer) Summarize(s *Schedule) Summary {
	r := sc.Roster
	w := sc.Weights

	sum := Summary{HostCounts: map[string]int{}}
	score := 0.0

	hostCounts := s.HostCounts()
	meets := make([][]int, len(r.families))
	for _, n := range s.Nights {
		for _, d := range n.Dinners {
			sum.Dinners++
			sum.Seats += d.size(r)
			if w.SmallDinner != 0 && len(d.Seated) < w.SmallDinnerSeats {
				score -= w.SmallDinner
			}
			for _, a := range d.Seated {
				for _, b := range d.Seated {
					if a != b && !slices.Contains(meets[a], b) {
						meets[a] = append(meets[a], b)
					}
				}
			}
		}
	}

	for host, f := range r.families {
		count := hostCounts[host]
		if count == 0 {
			continue
		}
		sum.HostCounts[f.ID] = count
		sum.Hostings += count
		sum.MaxHosting = max(sum.MaxHosting, count)
		if f.HostLimit != NoHostLimit && count > f.HostLimit {
			score -= w.Overage * math.Exp2(float64(count-f.HostLimit))
		}
	}

	score += w.Meal * float64(sum.Seats)
	score -= w.Hosting * float64(sum.Hostings)
	score -= w.PeakHosting * float64(sum.MaxHosting)

	for a, met := range meets {
		sum.Meetings += len(met)
		score += w.Meeting * float64(len(met))
		for _, b := range met {
			if r.families[a].Acquainted.Intersects(r.families[b].Acquainted) {
				score -= w.Acquainted
			}
		}
	}

	sum.Score = score
	return sum
}

// Starvation lists the nights a family wanted to attend but got no seat.
type Starvation struct {
	Family string
	Nights []int
}

func Starved(r *Roster, s *Schedule) []Starvation {
	var starved []Starvation
	for i, f := range r.families {
		var nights []int
		for night, attend := range f.CanAttend {
			if attend && night < len(s.Nights) && !s.Nights[night].Seated(i) {
				nights = append(nights, night)
			}
		}
		if len(nights) > 0 {
			starved = append(starved, Starvation{Family: f.ID, Nights: nights})
		}
	}
	return starved
}
