// Package roster turns the sign-up sheet into a solver.Roster.
//
// The sheet has one header row followed by one row per family:
//
//	id, size, capacity, host limit, allergies, allergens, knows, incompatible, night 1, night 2, ...
//
// Tag columns are space separated. Each night column holds "Can Host",
// "Can Attend" or anything else for a night the family sits out. A blank
// host limit means the family may host any number of nights.
//
// A lone "-" reads as a blank cell, and the night markers may also be
// written "host" or "H" and "attend" or "A". Together these let a roster be
// kept as whitespace separated text, where cells cannot be blank or contain
// spaces.
package roster

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"saltshaker/solver"
)

const (
	colID = iota
	colSize
	colCapacity
	colHostLimit
	colAllergies
	colAllergens
	colKnows
	colIncompatible
	firstNight
)

var columnNames = []string{"id", "size", "capacity", "host limit", "allergies", "allergens", "knows", "incompatible"}

const (
	MarkerHost   = "Can Host"
	MarkerAttend = "Can Attend"

	// EmptyCell is read as a blank cell.
	EmptyCell = "-"
)

var (
	hostMarkers   = []string{MarkerHost, "host", "h"}
	attendMarkers = []string{MarkerAttend, "attend", "a"}
)

// InputError locates a problem in the input sheet. Row and Column are 1-based.
type InputError struct {
	Row    int
	Column int
	Err    error
}

func (e *InputError) Error() string {
	if e.Column == 0 {
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
	name := fmt.Sprintf("night %d", e.Column-firstNight)
	if e.Column-1 < len(columnNames) {
		name = columnNames[e.Column-1]
	}
	return fmt.Sprintf("row %d, column %d (%s): %v", e.Row, e.Column, name, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

var (
	ErrNoHeader = errors.New("missing header row")
	ErrNoNights = errors.New("no night columns")
)

// Parse builds a roster from raw rows. The first row is the header and
// fixes the number of nights; every family row must match it.
func Parse(rows [][]string) (*solver.Roster, error) {
	if len(rows) == 0 {
		return nil, &InputError{Row: 1, Err: ErrNoHeader}
	}
	header := rows[0]
	nights := len(header) - firstNight
	if nights < 1 {
		return nil, &InputError{Row: 1, Err: ErrNoNights}
	}

	var families []solver.Family
	for i, row := range rows[1:] {
		rowNum := i + 2
		if blank(row) {
			continue
		}
		if len(row) != len(header) {
			return nil, &InputError{Row: rowNum,
				Err: fmt.Errorf("has %d columns (%d nights), header has %d columns (%d nights)",
					len(row), len(row)-firstNight, len(header), nights)}
		}
		f, err := parseFamily(rowNum, row)
		if err != nil {
			return nil, err
		}
		families = append(families, f)
	}

	r, err := solver.NewRoster(families)
	if err != nil {
		return nil, fmt.Errorf("roster: %w", err)
	}
	return r, nil
}

func parseFamily(rowNum int, row []string) (solver.Family, error) {
	cell := func(col int) string { return clean(row[col]) }
	number := func(col int) (int, error) {
		n, err := strconv.Atoi(cell(col))
		if err != nil {
			return 0, &InputError{Row: rowNum, Column: col + 1, Err: fmt.Errorf("%q is not a number", cell(col))}
		}
		return n, nil
	}

	f := solver.Family{
		ID:           cell(colID),
		HostLimit:    solver.NoHostLimit,
		Allergies:    solver.NewTags(strings.Fields(cell(colAllergies))...),
		Allergens:    solver.NewTags(strings.Fields(cell(colAllergens))...),
		Acquainted:   solver.NewTags(strings.Fields(cell(colKnows))...),
		Incompatible: solver.NewTags(strings.Fields(cell(colIncompatible))...),
	}
	if f.ID == "" {
		return f, &InputError{Row: rowNum, Column: colID + 1, Err: errors.New("identifier is empty")}
	}

	var err error
	if f.Size, err = number(colSize); err != nil {
		return f, err
	}
	if f.Capacity, err = number(colCapacity); err != nil {
		return f, err
	}
	if cell(colHostLimit) != "" {
		if f.HostLimit, err = number(colHostLimit); err != nil {
			return f, err
		}
	}

	for _, marker := range row[firstNight:] {
		host, attend := parseMarker(marker)
		f.CanHost = append(f.CanHost, host)
		f.CanAttend = append(f.CanAttend, attend)
	}
	return f, nil
}

// parseMarker reads a night cell. Hosting implies attending.
func parseMarker(s string) (host, attend bool) {
	s = clean(s)
	switch {
	case slices.ContainsFunc(hostMarkers, func(m string) bool { return strings.EqualFold(s, m) }):
		return true, true
	case slices.ContainsFunc(attendMarkers, func(m string) bool { return strings.EqualFold(s, m) }):
		return false, true
	}
	return false, false
}

func clean(c string) string {
	c = strings.TrimSpace(c)
	if c == EmptyCell {
		return ""
	}
	return c
}

func blank(row []string) bool {
	for _, c := range row {
		if clean(c) != "" {
			return false
		}
	}
	return true
}
