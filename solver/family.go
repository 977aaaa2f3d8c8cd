package solver

import (
	"fmt"
	"slices"
)

// NoHostLimit marks a family that may host any number of nights.
const NoHostLimit = -1

// Tags is a set of free-form labels (allergy names, group names, emails).
type Tags []string

func NewTags(tags ...string) Tags {
	var t Tags
	for _, tag := range tags {
		if tag != "" && !slices.Contains(t, tag) {
			t = append(t, tag)
		}
	}
	slices.Sort(t)
	return t
}

func (t Tags) Intersects(other Tags) bool {
	for _, a := range t {
		if slices.Contains(other, a) {
			return true
		}
	}
	return false
}

type Family struct {
	ID        string
	Size      int
	Capacity  int
	HostLimit int

	Allergies    Tags
	Allergens    Tags
	Acquainted   Tags
	Incompatible Tags

	CanAttend []bool
	CanHost   []bool
}

func (f *Family) canHost(night int) bool {
	return f.CanAttend[night] && f.CanHost[night] && f.Capacity >= f.Size
}

func (f *Family) underLimit(hosted int) bool {
	return f.HostLimit == NoHostLimit || hosted < f.HostLimit
}

// RosterError reports a family record that cannot be scheduled.
type RosterError struct {
	Family string
	Field  string
	Reason string
}

func (e *RosterError) Error() string {
	if e.Family == "" {
		return fmt.Sprintf("roster: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("roster: family %q: %s: %s", e.Family, e.Field, e.Reason)
}

// Roster is the read-only set of families for one run. Workers share it
// without locking.
type Roster struct {
	families []*Family
	index    map[string]int
	nights   int
}

func NewRoster(families []Family) (*Roster, error) {
	r := &Roster{
		index: make(map[string]int, len(families)),
	}
	for i := range families {
		f := families[i]
		if f.ID == "" {
			return nil, &RosterError{Field: "id", Reason: fmt.Sprintf("family #%d has no identifier", i+1)}
		}
		if _, dup := r.index[f.ID]; dup {
			return nil, &RosterError{Family: f.ID, Field: "id", Reason: "duplicate identifier"}
		}
		if f.Size < 1 {
			return nil, &RosterError{Family: f.ID, Field: "size", Reason: fmt.Sprintf("must be at least 1, got %d", f.Size)}
		}
		if f.Capacity < 0 {
			return nil, &RosterError{Family: f.ID, Field: "capacity", Reason: fmt.Sprintf("must not be negative, got %d", f.Capacity)}
		}
		if f.HostLimit < 0 && f.HostLimit != NoHostLimit {
			return nil, &RosterError{Family: f.ID, Field: "host limit", Reason: fmt.Sprintf("must not be negative, got %d", f.HostLimit)}
		}
		if len(f.CanAttend) != len(f.CanHost) {
			return nil, &RosterError{Family: f.ID, Field: "nights",
				Reason: fmt.Sprintf("%d attend nights but %d host nights", len(f.CanAttend), len(f.CanHost))}
		}
		if i == 0 {
			r.nights = len(f.CanAttend)
		} else if len(f.CanAttend) != r.nights {
			return nil, &RosterError{Family: f.ID, Field: "nights",
				Reason: fmt.Sprintf("has %d nights, expected %d", len(f.CanAttend), r.nights)}
		}

		f.Allergies = NewTags(f.Allergies...)
		f.Allergens = NewTags(f.Allergens...)
		f.Acquainted = NewTags(f.Acquainted...)
		f.Incompatible = NewTags(f.Incompatible...)
		f.CanAttend = slices.Clone(f.CanAttend)
		f.CanHost = slices.Clone(f.CanHost)

		r.index[f.ID] = i
		r.families = append(r.families, &f)
	}
	return r, nil
}

func (r *Roster) Len() int { return len(r.families) }

func (r *Roster) Nights() int { return r.nights }

// Family returns the family at roster index i. Callers must not modify it.
func (r *Roster) Family(i int) *Family { return r.families[i] }

func (r *Roster) Lookup(id string) (int, bool) {
	i, ok := r.index[id]
	return i, ok
}

// Meals counts the seats requested across every night, the most a
// schedule could fill.
func (r *Roster) Meals() int {
	meals := 0
	for _, f := range r.families {
		for _, attend := range f.CanAttend {
			if attend {
				meals += f.Size
			}
		}
	}
	return meals
}
