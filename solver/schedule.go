package solver

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var ErrInvalidSchedule = errors.New("invalid schedule")

// A Dinner is one host's table on one night. Seated[0] is always the host.
type Dinner struct {
	Host   int
	Seated []int
}

func (d *Dinner) size(r *Roster) int {
	total := 0
	for _, m := range d.Seated {
		total += r.families[m].Size
	}
	return total
}

func (d *Dinner) remaining(r *Roster) int {
	return r.families[d.Host].Capacity - d.size(r)
}

// admits reports whether family f can join this dinner without breaking
// capacity, allergy or incompatibility constraints.
func (d *Dinner) admits(r *Roster, f int) bool {
	guest := r.families[f]
	host := r.families[d.Host]
	if guest.Allergies.Intersects(host.Allergens) {
		return false
	}
	if d.remaining(r) < guest.Size {
		return false
	}
	for _, m := range d.Seated {
		if guest.Incompatible.Intersects(r.families[m].Incompatible) {
			return false
		}
	}
	return true
}

func (d *Dinner) remove(f int) {
	if i := slices.Index(d.Seated, f); i > 0 {
		d.Seated = slices.Delete(d.Seated, i, i+1)
	}
}

type Night struct {
	Dinners []Dinner
}

// Dinner returns the dinner hosted by family host, or nil.
func (n *Night) Dinner(host int) *Dinner {
	for i := range n.Dinners {
		if n.Dinners[i].Host == host {
			return &n.Dinners[i]
		}
	}
	return nil
}

// Seated reports whether family f has a seat anywhere on this night.
func (n *Night) Seated(f int) bool {
	for _, d := range n.Dinners {
		if slices.Contains(d.Seated, f) {
			return true
		}
	}
	return false
}

// A Schedule holds one Night per configured night. It is not modified after
// the builder returns it.
type Schedule struct {
	Nights []Night
}

func NewSchedule(nights int) *Schedule {
	return &Schedule{Nights: make([]Night, nights)}
}

func (s *Schedule) HostCounts() map[int]int {
	counts := map[int]int{}
	for _, n := range s.Nights {
		for _, d := range n.Dinners {
			counts[d.Host]++
		}
	}
	return counts
}

// Key returns a canonical string for s so equal schedules can be detected
// regardless of dinner or guest order.
func (s *Schedule) Key() string {
	var buf strings.Builder
	for _, n := range s.Nights {
		var gs [][]int
		for _, d := range n.Dinners {
			members := slices.Clone(d.Seated[1:])
			slices.Sort(members)
			gs = append(gs, append([]int{d.Host}, members...))
		}
		slices.SortFunc(gs, func(a, b []int) int { return a[0] - b[0] })
		for _, g := range gs {
			for i, m := range g {
				if i > 0 {
					buf.WriteByte(',')
				}
				buf.WriteString(strconv.Itoa(m))
			}
			buf.WriteByte(';')
		}
		buf.WriteByte('|')
	}
	return buf.String()
}

// Validate checks every hard constraint of s against r.
func Validate(r *Roster, s *Schedule) error {
	if len(s.Nights) != r.nights {
		return fmt.Errorf("%w: %d nights, roster has %d", ErrInvalidSchedule, len(s.Nights), r.nights)
	}
	for night, n := range s.Nights {
		seen := map[int]bool{}
		for _, d := range n.Dinners {
			if d.Host < 0 || d.Host >= len(r.families) {
				return fmt.Errorf("%w: night %d: unknown host index %d", ErrInvalidSchedule, night, d.Host)
			}
			host := r.families[d.Host]
			if len(d.Seated) == 0 || d.Seated[0] != d.Host {
				return fmt.Errorf("%w: night %d: host %s is not seated at its own dinner", ErrInvalidSchedule, night, host.ID)
			}
			if !host.CanHost[night] {
				return fmt.Errorf("%w: night %d: %s cannot host", ErrInvalidSchedule, night, host.ID)
			}
			for _, m := range d.Seated {
				if m < 0 || m >= len(r.families) {
					return fmt.Errorf("%w: night %d: unknown family index %d", ErrInvalidSchedule, night, m)
				}
			}
			for i, m := range d.Seated {
				f := r.families[m]
				if seen[m] {
					return fmt.Errorf("%w: night %d: %s is seated twice", ErrInvalidSchedule, night, f.ID)
				}
				seen[m] = true
				if !f.CanAttend[night] {
					return fmt.Errorf("%w: night %d: %s cannot attend", ErrInvalidSchedule, night, f.ID)
				}
				if f.Allergies.Intersects(host.Allergens) {
					return fmt.Errorf("%w: night %d: %s is allergic to %s's home", ErrInvalidSchedule, night, f.ID, host.ID)
				}
				for _, o := range d.Seated[i+1:] {
					if f.Incompatible.Intersects(r.families[o].Incompatible) {
						return fmt.Errorf("%w: night %d: %s and %s must not dine together", ErrInvalidSchedule, night, f.ID, r.families[o].ID)
					}
				}
			}
			if size := d.size(r); size > host.Capacity {
				return fmt.Errorf("%w: night %d: %s seats %d but has room for %d", ErrInvalidSchedule, night, host.ID, size, host.Capacity)
			}
		}
	}
	return nil
}
