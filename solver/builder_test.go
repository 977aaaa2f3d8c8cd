package solver

import (
	"fmt"
	"math/rand"
	"slices"
	"testing"
)

// fam builds a family from a night pattern: 'H' can host, 'A' can attend,
// anything else stays home.
func fam(id string, size, capacity int, nights string) Family {
	f := Family{ID: id, Size: size, Capacity: capacity, HostLimit: NoHostLimit}
	for _, c := range nights {
		f.CanHost = append(f.CanHost, c == 'H')
		f.CanAttend = append(f.CanAttend, c == 'H' || c == 'A')
	}
	return f
}

func mustRoster(t *testing.T, families ...Family) *Roster {
	t.Helper()
	r, err := NewRoster(families)
	if err != nil {
		t.Fatalf("NewRoster: %v", err)
	}
	return r
}

func randomRoster(t *testing.T, rng *rand.Rand) *Roster {
	t.Helper()
	tags := []string{"nuts", "dog", "cat", "gluten", "shellfish"}
	groups := []string{"north", "south", "choir", "school"}
	pick := func(pool []string, chance float64) Tags {
		var out Tags
		for _, tag := range pool {
			if rng.Float64() < chance {
				out = append(out, tag)
			}
		}
		return out
	}

	nights := 1 + rng.Intn(4)
	n := rng.Intn(14)
	var families []Family
	for i := range n {
		f := Family{
			ID:           fmt.Sprintf("family%d@example.com", i),
			Size:         1 + rng.Intn(4),
			Capacity:     rng.Intn(10),
			HostLimit:    NoHostLimit,
			Allergies:    pick(tags, 0.15),
			Allergens:    pick(tags, 0.2),
			Acquainted:   pick(groups, 0.3),
			Incompatible: pick([]string{"feud-a", "feud-b"}, 0.1),
		}
		if rng.Intn(2) == 0 {
			f.HostLimit = rng.Intn(3)
		}
		for range nights {
			switch rng.Intn(3) {
			case 0:
				f.CanAttend = append(f.CanAttend, false)
				f.CanHost = append(f.CanHost, rng.Intn(4) == 0)
			case 1:
				f.CanAttend = append(f.CanAttend, true)
				f.CanHost = append(f.CanHost, false)
			default:
				f.CanAttend = append(f.CanAttend, true)
				f.CanHost = append(f.CanHost, true)
			}
		}
		families = append(families, f)
	}
	return mustRoster(t, families...)
}

func TestBuildHoldsHardConstraintsOnRandomRosters(t *testing.T) {
	for seed := range 1500 {
		rng := rand.New(rand.NewSource(int64(seed)))
		r := randomRoster(t, rng)
		s := Build(r, rng)
		if err := Validate(r, s); err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}

		hosted := s.HostCounts()
		for i := range r.Len() {
			f := r.Family(i)
			if f.HostLimit != NoHostLimit && hosted[i] > f.HostLimit {
				t.Fatalf("seed %d: %s hosted %d times with limit %d", seed, f.ID, hosted[i], f.HostLimit)
			}
		}

		for _, st := range Starved(r, s) {
			i, _ := r.Lookup(st.Family)
			for _, night := range st.Nights {
				if s.Nights[night].Seated(i) {
					t.Fatalf("seed %d: %s reported starved on night %d but is seated", seed, st.Family, night)
				}
			}
		}
	}
}

func TestBuildSixFamiliesTwoNights(t *testing.T) {
	var families []Family
	for i := range 6 {
		f := fam(fmt.Sprintf("f%d", i), 1, 4, "HH")
		f.HostLimit = 1
		families = append(families, f)
	}
	r := mustRoster(t, families...)

	for seed := range 50 {
		s := Build(r, rand.New(rand.NewSource(int64(seed))))
		if err := Validate(r, s); err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if starved := Starved(r, s); len(starved) != 0 {
			t.Fatalf("seed %d: expected everyone seated, got %+v", seed, starved)
		}
		for host, count := range s.HostCounts() {
			if count > 1 {
				t.Fatalf("seed %d: %s hosted %d times", seed, r.Family(host).ID, count)
			}
		}
		for night, n := range s.Nights {
			for _, d := range n.Dinners {
				if len(d.Seated) < 3 {
					t.Fatalf("seed %d night %d: dinner at %s seats only %d", seed, night, r.Family(d.Host).ID, len(d.Seated))
				}
			}
		}
	}
}

func TestBuildKeepsIncompatibleFamiliesApart(t *testing.T) {
	a := fam("a", 1, 4, "HHH")
	a.Incompatible = Tags{"feud"}
	b := fam("b", 1, 4, "HHH")
	b.Incompatible = Tags{"feud", "other"}
	families := []Family{a, b}
	for i := range 8 {
		families = append(families, fam(fmt.Sprintf("f%d", i), 1+i%2, 5, "HAH"))
	}
	r := mustRoster(t, families...)
	ai, _ := r.Lookup("a")
	bi, _ := r.Lookup("b")

	rng := rand.New(rand.NewSource(99))
	for build := range 200 {
		s := Build(r, rng)
		for night, n := range s.Nights {
			for _, d := range n.Dinners {
				if slices.Contains(d.Seated, ai) && slices.Contains(d.Seated, bi) {
					t.Fatalf("build %d night %d: a and b share a table", build, night)
				}
			}
		}
	}
}

func TestBuildKeepsAllergicGuestsOut(t *testing.T) {
	host := fam("host", 1, 6, "H")
	host.Allergens = Tags{"cat"}
	guest := fam("guest", 1, 0, "A")
	guest.Allergies = Tags{"cat"}
	r := mustRoster(t, host, guest, fam("x", 1, 0, "A"))

	rng := rand.New(rand.NewSource(1))
	for range 20 {
		s := Build(r, rng)
		if s.Nights[0].Seated(1) {
			t.Fatalf("allergic guest was seated: %+v", s.Nights[0])
		}
		if !s.Nights[0].Seated(2) {
			t.Fatalf("expected x to be seated: %+v", s.Nights[0])
		}
	}
}

func TestBuildWithNoHosts(t *testing.T) {
	r := mustRoster(t, fam("a", 1, 4, "AA"), fam("b", 2, 4, "A-"), fam("c", 1, 4, "-A"))
	s := Build(r, rand.New(rand.NewSource(3)))
	for night, n := range s.Nights {
		if len(n.Dinners) != 0 {
			t.Fatalf("night %d: expected no dinners, got %d", night, len(n.Dinners))
		}
	}
	starved := Starved(r, s)
	want := []Starvation{
		{Family: "a", Nights: []int{0, 1}},
		{Family: "b", Nights: []int{0}},
		{Family: "c", Nights: []int{1}},
	}
	if fmt.Sprint(starved) != fmt.Sprint(want) {
		t.Fatalf("starved = %+v, want %+v", starved, want)
	}
	sum := Scorer{Roster: r, Weights: DefaultWeights}.Summarize(s)
	if sum.Score != 0 || sum.MaxHosting != 0 || sum.Seats != 0 {
		t.Fatalf("unexpected summary for empty schedule: %+v", sum)
	}
}

func TestBuildEmptyRoster(t *testing.T) {
	r := mustRoster(t)
	s := Build(r, rand.New(rand.NewSource(1)))
	if len(s.Nights) != 0 {
		t.Fatalf("expected no nights, got %d", len(s.Nights))
	}
	if err := Validate(r, s); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := (Scorer{Roster: r, Weights: DefaultWeights}).Score(s); got != 0 {
		t.Fatalf("Score = %v, want 0", got)
	}
}

func TestBuildStarvesOverflowWhenCapacityRunsOut(t *testing.T) {
	r := mustRoster(t,
		fam("host", 1, 3, "H"),
		fam("g1", 1, 0, "A"),
		fam("g2", 1, 0, "A"),
		fam("g3", 1, 0, "A"),
		fam("g4", 1, 0, "A"),
	)
	rng := rand.New(rand.NewSource(11))
	for range 25 {
		s := Build(r, rng)
		if err := Validate(r, s); err != nil {
			t.Fatalf("Validate: %v", err)
		}
		var unseated []string
		for i := range r.Len() {
			if !s.Nights[0].Seated(i) {
				unseated = append(unseated, r.Family(i).ID)
			}
		}
		if len(unseated) != 2 {
			t.Fatalf("expected two unseated families, got %v", unseated)
		}
		var starved []string
		for _, st := range Starved(r, s) {
			starved = append(starved, st.Family)
		}
		if !slices.Equal(starved, unseated) {
			t.Fatalf("starved = %v, unseated = %v", starved, unseated)
		}
	}
}

func TestBuildIsDeterministicForASeed(t *testing.T) {
	r := randomRoster(t, rand.New(rand.NewSource(42)))
	a := Build(r, rand.New(rand.NewSource(5)))
	b := Build(r, rand.New(rand.NewSource(5)))
	if a.Key() != b.Key() {
		t.Fatalf("same seed produced different schedules:\n%s\n%s", a.Key(), b.Key())
	}
}

func TestNewRosterRejectsBadFamilies(t *testing.T) {
	tests := []struct {
		name     string
		families []Family
		field    string
	}{
		{"missing id", []Family{fam("", 1, 1, "H")}, "id"},
		{"duplicate id", []Family{fam("a", 1, 1, "H"), fam("a", 1, 1, "A")}, "id"},
		{"zero size", []Family{fam("a", 0, 1, "H")}, "size"},
		{"negative capacity", []Family{fam("a", 1, -1, "H")}, "capacity"},
		{"night mismatch", []Family{fam("a", 1, 1, "HH"), fam("b", 1, 1, "H")}, "nights"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRoster(tt.families)
			rerr, ok := err.(*RosterError)
			if !ok {
				t.Fatalf("expected *RosterError, got %v", err)
			}
			if rerr.Field != tt.field {
				t.Fatalf("field = %q, want %q (%v)", rerr.Field, tt.field, err)
			}
		})
	}
}

func TestRepairPacksGuestsToMakeRoomForLeftovers(t *testing.T) {
	r := mustRoster(t,
		fam("h1", 1, 4, "H"),
		fam("h2", 1, 5, "H"),
		fam("a", 1, 0, "A"),
		fam("b", 1, 0, "A"),
		fam("big", 4, 0, "A"),
	)
	// two spare seats at h1 and three at h2, so big fits nowhere until b
	// moves over to h1
	dinners := []Dinner{
		{Host: 0, Seated: []int{0, 2}},
		{Host: 1, Seated: []int{1, 3}},
	}
	repair(r, dinners, []int{4}, rand.New(rand.NewSource(1)))

	if !slices.Equal(dinners[0].Seated, []int{0, 2, 3}) {
		t.Fatalf("h1 seats %v, want b moved in", dinners[0].Seated)
	}
	if !slices.Equal(dinners[1].Seated, []int{1, 4}) {
		t.Fatalf("h2 seats %v, want big seated", dinners[1].Seated)
	}
	s := &Schedule{Nights: []Night{{Dinners: dinners}}}
	if err := Validate(r, s); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
