package roster

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"saltshaker/solver"
)

const sampleCSV = `Email,Size,Capacity,Host Limit,Allergies,Allergens,Knows,Incompatible,Oct 3,Oct 10
alice@example.com,2,6,1,,cat,choir,,Can Host,can host
bob@example.com,3,0,,nuts gluten,,choir school,feud,Can Attend,
carol@example.com,1,4,,,,,feud, can attend ,Can Host
,,,,,,,,,
`

func TestParseSample(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	r, err := Parse(rows)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Len() != 3 || r.Nights() != 2 {
		t.Fatalf("got %d families over %d nights", r.Len(), r.Nights())
	}

	alice := r.Family(0)
	if alice.ID != "alice@example.com" || alice.Size != 2 || alice.Capacity != 6 || alice.HostLimit != 1 {
		t.Fatalf("alice = %+v", alice)
	}
	if !slices.Equal(alice.CanHost, []bool{true, true}) || !slices.Equal(alice.CanAttend, []bool{true, true}) {
		t.Fatalf("alice nights: host %v attend %v", alice.CanHost, alice.CanAttend)
	}
	if !slices.Equal(alice.Allergens, solver.Tags{"cat"}) {
		t.Fatalf("alice allergens = %v", alice.Allergens)
	}

	bob := r.Family(1)
	if bob.HostLimit != solver.NoHostLimit {
		t.Fatalf("blank host limit should be unlimited, got %d", bob.HostLimit)
	}
	if !slices.Equal(bob.Allergies, solver.Tags{"gluten", "nuts"}) {
		t.Fatalf("bob allergies = %v", bob.Allergies)
	}
	if !slices.Equal(bob.CanAttend, []bool{true, false}) || slices.Contains(bob.CanHost, true) {
		t.Fatalf("bob nights: host %v attend %v", bob.CanHost, bob.CanAttend)
	}

	carol := r.Family(2)
	if !slices.Equal(carol.CanAttend, []bool{true, true}) || !slices.Equal(carol.CanHost, []bool{false, true}) {
		t.Fatalf("carol nights: host %v attend %v", carol.CanHost, carol.CanAttend)
	}
	if !bob.Incompatible.Intersects(carol.Incompatible) {
		t.Fatalf("bob and carol should be incompatible")
	}
}

func TestParseErrors(t *testing.T) {
	header := []string{"id", "size", "cap", "limit", "allergies", "allergens", "knows", "incompatible", "n1", "n2"}
	row := func(cells ...string) []string { return cells }

	tests := []struct {
		name   string
		rows   [][]string
		row    int
		column int
	}{
		{"no rows", nil, 1, 0},
		{"no nights", [][]string{header[:8]}, 1, 0},
		{"short row", [][]string{header, row("a", "1", "2", "", "", "", "", "", "Can Host")}, 2, 0},
		{"bad size", [][]string{header, row("a", "two", "2", "", "", "", "", "", "Can Host", "")}, 2, 2},
		{"bad capacity", [][]string{header, row("a", "1", "lots", "", "", "", "", "", "Can Host", "")}, 2, 3},
		{"bad limit", [][]string{header,
			row("a", "1", "2", "", "", "", "", "", "Can Host", ""),
			row("b", "1", "2", "x", "", "", "", "", "Can Host", "")}, 3, 4},
		{"missing id", [][]string{header, row(" ", "1", "2", "", "", "", "", "", "Can Host", "")}, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.rows)
			var ie *InputError
			if !errors.As(err, &ie) {
				t.Fatalf("expected *InputError, got %v", err)
			}
			if ie.Row != tt.row || ie.Column != tt.column {
				t.Fatalf("error at row %d column %d, want row %d column %d: %v", ie.Row, ie.Column, tt.row, tt.column, err)
			}
		})
	}
}

func TestParseRejectsDuplicateFamilies(t *testing.T) {
	header := []string{"id", "size", "cap", "limit", "allergies", "allergens", "knows", "incompatible", "n1"}
	rows := [][]string{header,
		{"a", "1", "2", "", "", "", "", "", "Can Host"},
		{"a", "1", "2", "", "", "", "", "", "Can Attend"},
	}
	_, err := Parse(rows)
	var re *solver.RosterError
	if !errors.As(err, &re) || re.Family != "a" {
		t.Fatalf("expected a roster error for a, got %v", err)
	}
}

func TestInputErrorMessage(t *testing.T) {
	err := &InputError{Row: 4, Column: 2, Err: errors.New("bad")}
	if got := err.Error(); got != "row 4, column 2 (size): bad" {
		t.Fatalf("Error() = %q", got)
	}
	err = &InputError{Row: 4, Column: 10, Err: errors.New("bad")}
	if got := err.Error(); got != "row 4, column 10 (night 2): bad" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestFetchLocalFiles(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "roster.csv")
	if err := os.WriteFile(csvPath, []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := Load(context.Background(), csvPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.Len() != 3 {
		t.Fatalf("expected 3 families, got %d", r.Len())
	}

	if _, err := Fetch(context.Background(), filepath.Join(dir, "missing.csv")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

const sampleText = `id size cap limit allergies allergens knows incompatible n1 n2
a 1 4 - - dog - - host H
b 2 0 - nuts - choir - attend A
c 1 0 2 - - choir - a -
`

func TestLoadWhitespaceRoster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.txt")
	if err := os.WriteFile(path, []byte(sampleText), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.Len() != 3 || r.Nights() != 2 {
		t.Fatalf("got %d families over %d nights", r.Len(), r.Nights())
	}

	a := r.Family(0)
	if a.HostLimit != solver.NoHostLimit || len(a.Allergies) != 0 || len(a.Incompatible) != 0 {
		t.Fatalf("dashes should read as blank cells: %+v", a)
	}
	if !slices.Equal(a.CanHost, []bool{true, true}) || !slices.Equal(a.Allergens, solver.Tags{"dog"}) {
		t.Fatalf("a = %+v", a)
	}
	b := r.Family(1)
	if !slices.Equal(b.CanAttend, []bool{true, true}) || slices.Contains(b.CanHost, true) {
		t.Fatalf("b nights: host %v attend %v", b.CanHost, b.CanAttend)
	}
	c := r.Family(2)
	if c.HostLimit != 2 || !slices.Equal(c.CanAttend, []bool{true, false}) {
		t.Fatalf("c = %+v", c)
	}

	// a is the only host and has room for everyone
	s := solver.Build(r, rand.New(rand.NewSource(1)))
	if err := solver.Validate(r, s); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if starved := solver.Starved(r, s); len(starved) != 0 {
		t.Fatalf("families left out: %+v", starved)
	}
}

func TestParseMarkers(t *testing.T) {
	tests := []struct {
		cell         string
		host, attend bool
	}{
		{"Can Host", true, true},
		{" can host ", true, true},
		{"host", true, true},
		{"H", true, true},
		{"Can Attend", false, true},
		{"attend", false, true},
		{"a", false, true},
		{"-", false, false},
		{"", false, false},
		{"maybe", false, false},
	}
	for _, tt := range tests {
		host, attend := parseMarker(tt.cell)
		if host != tt.host || attend != tt.attend {
			t.Errorf("parseMarker(%q) = %v, %v, want %v, %v", tt.cell, host, attend, tt.host, tt.attend)
		}
	}
}

func TestFetchURL(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		if strings.HasPrefix(r.URL.Path, "/missing") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	r, err := Load(context.Background(), srv.URL+"/d/abc/edit?usp=sharing")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if gotPath != "/d/abc/export?format=csv" {
		t.Fatalf("requested %q", gotPath)
	}
	if r.Len() != 3 {
		t.Fatalf("expected 3 families, got %d", r.Len())
	}

	if _, err := Fetch(context.Background(), srv.URL+"/missing.csv"); err == nil {
		t.Fatalf("expected an error for a 404")
	}
}

func TestExportURL(t *testing.T) {
	in := "https://docs.google.com/spreadsheets/d/xyz/edit?usp=sharing"
	if got := ExportURL(in); got != "https://docs.google.com/spreadsheets/d/xyz/export?format=csv" {
		t.Fatalf("ExportURL = %q", got)
	}
	if got := ExportURL("https://example.com/roster.csv"); got != "https://example.com/roster.csv" {
		t.Fatalf("ExportURL changed a plain URL: %q", got)
	}
}

func TestSplitSheet(t *testing.T) {
	id, rng, err := SplitSheet("sheets://abc123/Signups!A1:L40")
	if err != nil || id != "abc123" || rng != "Signups!A1:L40" {
		t.Fatalf("SplitSheet = %q, %q, %v", id, rng, err)
	}
	id, rng, err = SplitSheet("sheets://abc123")
	if err != nil || id != "abc123" || rng != "A:ZZ" {
		t.Fatalf("SplitSheet without range = %q, %q, %v", id, rng, err)
	}
	if _, _, err := SplitSheet("sheets:///A1:B2"); err == nil {
		t.Fatalf("expected an error for a missing id")
	}
}

func TestSheetRowsPadsShortRows(t *testing.T) {
	rows := sheetRows([][]any{{"id", "size", "n1"}, {"a", 2}})
	if len(rows) != 2 || len(rows[1]) != 3 || rows[1][1] != "2" || rows[1][2] != "" {
		t.Fatalf("rows = %q", rows)
	}
}
