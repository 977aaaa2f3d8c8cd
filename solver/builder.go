package solver

import (
	"math/rand"
	"slices"
)

// Build constructs one candidate schedule from a fresh shuffle of the roster.
// Every hard constraint holds in the result. A family that cannot be seated
// is left out of that night and the scorer pays for it.
func Build(r *Roster, rng *rand.Rand) *Schedule {
	s := NewSchedule(r.nights)
	hosted := make([]int, len(r.families))
	// visit nights in random order so host limits do not always run out on
	// the last nights
	for _, night := range rng.Perm(r.nights) {
		s.Nights[night] = buildNight(r, night, hosted, rng)
	}
	return s
}

func buildNight(r *Roster, night int, hosted []int, rng *rand.Rand) Night {
	var tonight []int
	needed := 0
	for i, f := range r.families {
		if f.CanAttend[night] {
			tonight = append(tonight, i)
			needed += f.Size
		}
	}
	rng.Shuffle(len(tonight), func(i, j int) { tonight[i], tonight[j] = tonight[j], tonight[i] })

	assigned := make([]bool, len(r.families))
	var dinners []Dinner
	for _, i := range tonight {
		if needed <= 0 {
			break
		}
		f := r.families[i]
		if assigned[i] || !f.canHost(night) || !f.underLimit(hosted[i]) {
			continue
		}
		dinners = append(dinners, Dinner{Host: i, Seated: []int{i}})
		assigned[i] = true
		hosted[i]++
		needed -= f.Capacity
	}

	for d := range dinners {
		dinner := &dinners[d]
		for _, i := range tonight {
			if assigned[i] || !dinner.admits(r, i) {
				continue
			}
			dinner.Seated = append(dinner.Seated, i)
			assigned[i] = true
		}
	}

	var unassigned []int
	for _, i := range tonight {
		if !assigned[i] {
			unassigned = append(unassigned, i)
		}
	}
	repair(r, dinners, unassigned, rng)

	return Night{Dinners: dinners}
}

func classify(r *Roster, dinners []Dinner) (full, under []int) {
	for d := range dinners {
		if dinners[d].remaining(r) == 0 {
			full = append(full, d)
		} else {
			under = append(under, d)
		}
	}
	return full, under
}

func move(dinners []Dinner, guest, from, to int) {
	dinners[from].remove(guest)
	dinners[to].Seated = append(dinners[to].Seated, guest)
}

func repair(r *Roster, dinners []Dinner, unassigned []int, rng *rand.Rand) {
	full, under := classify(r, dinners)

	if len(unassigned) > 0 && len(under) > 0 {
		// Pack guests into the dinners with the least spare room so the free
		// seats collect in as few homes as possible. A guest only moves toward
		// the dinner with less room, so nothing is moved back.
		slices.SortStableFunc(under, func(a, b int) int {
			return dinners[a].remaining(r) - dinners[b].remaining(r)
		})
		for ti, to := range under {
			for fi := len(under) - 1; fi > ti; fi-- {
				from := under[fi]
				for _, g := range slices.Clone(dinners[from].Seated[1:]) {
					if dinners[to].remaining(r) >= dinners[from].remaining(r) {
						break
					}
					if dinners[to].admits(r, g) {
						move(dinners, g, from, to)
					}
				}
			}
		}

		full, under = classify(r, dinners)
		slices.SortStableFunc(under, func(a, b int) int {
			return dinners[b].remaining(r) - dinners[a].remaining(r)
		})
		for _, d := range under {
			for _, g := range slices.Clone(unassigned) {
				if dinners[d].admits(r, g) {
					dinners[d].Seated = append(dinners[d].Seated, g)
					unassigned = slices.DeleteFunc(unassigned, func(u int) bool { return u == g })
				}
			}
		}
		full, under = classify(r, dinners)
	}

	// Even out small dinners by borrowing one guest from a larger full
	// dinner. Each dinner receives at most once and the loop is bounded by
	// the number of dinners.
	received := make([]bool, len(dinners))
	for pass := 0; pass < len(dinners) && len(under) > 0; pass++ {
		to := under[0]
		under = under[1:]
		received[to] = true

		rng.Shuffle(len(full), func(i, j int) { full[i], full[j] = full[j], full[i] })
		for fi, from := range full {
			toSize, fromSize := dinners[to].size(r), dinners[from].size(r)
			if toSize >= fromSize {
				continue
			}
			guest := -1
			for _, m := range dinners[from].Seated[1:] {
				if r.families[m].Size < fromSize-toSize && dinners[to].admits(r, m) {
					guest = m
					break
				}
			}
			if guest < 0 {
				continue
			}
			move(dinners, guest, from, to)
			full = slices.Delete(full, fi, fi+1)
			if !received[from] {
				under = append(under, from)
			}
			if dinners[to].remaining(r) == 0 {
				full = append(full, to)
			}
			break
		}
	}
}
