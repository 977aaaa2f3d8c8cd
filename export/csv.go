// Package export writes finished schedules: a CSV with one line per
// dinner, a terminal table, and destinations on disk or in S3.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"saltshaker/solver"
)

var Header = []string{"Night", "Host", "Space", "Size", "Attendees"}

const attendeeSep = ", "

// WriteCSV writes one row per (night, host) pair. Nights are numbered from
// one; attendees list every seated family, host first.
func WriteCSV(w io.Writer, r *solver.Roster, s *solver.Schedule) error {
	out := csv.NewWriter(w)
	if err := out.Write(Header); err != nil {
		return err
	}
	for night, n := range s.Nights {
		for _, d := range n.Dinners {
			host := r.Family(d.Host)
			size := 0
			var names []string
			for _, f := range d.Seated {
				size += r.Family(f).Size
				names = append(names, r.Family(f).ID)
			}
			row := []string{
				strconv.Itoa(night + 1),
				host.ID,
				strconv.Itoa(host.Capacity),
				strconv.Itoa(size),
				strings.Join(names, attendeeSep),
			}
			if err := out.Write(row); err != nil {
				return err
			}
		}
	}
	out.Flush()
	return out.Error()
}

// ReadCSV reads a schedule written by WriteCSV back against the roster it
// was built from. The Space and Size columns are informational and are
// recomputed from the roster. The schedule is not validated.
func ReadCSV(rd io.Reader, r *solver.Roster) (*solver.Schedule, error) {
	in := csv.NewReader(rd)
	in.FieldsPerRecord = len(Header)
	records, err := in.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("schedule: missing header row")
	}

	s := solver.NewSchedule(r.Nights())
	for i, rec := range records[1:] {
		line := i + 2
		night, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil || night < 1 || night > r.Nights() {
			return nil, fmt.Errorf("schedule line %d: night %q out of range 1-%d", line, rec[0], r.Nights())
		}
		host, ok := r.Lookup(strings.TrimSpace(rec[1]))
		if !ok {
			return nil, fmt.Errorf("schedule line %d: unknown host %q", line, rec[1])
		}

		d := solver.Dinner{Host: host, Seated: []int{host}}
		for _, id := range strings.Split(rec[4], ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			f, ok := r.Lookup(id)
			if !ok {
				return nil, fmt.Errorf("schedule line %d: unknown family %q", line, id)
			}
			if f != host {
				d.Seated = append(d.Seated, f)
			}
		}
		n := &s.Nights[night-1]
		n.Dinners = append(n.Dinners, d)
	}
	return s, nil
}
