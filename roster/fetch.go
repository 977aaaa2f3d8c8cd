package roster

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"saltshaker/solver"
)

const (
	docsSuffix   = "/edit?usp=sharing"
	exportSuffix = "/export?format=csv"
	sheetsScheme = "sheets://"

	// SheetsKeyEnv names the API key used for sheets:// sources. Without
	// it the default Google credentials are used.
	SheetsKeyEnv = "SALTSHAKER_SHEETS_API_KEY"
)

// Load fetches a roster source and parses it.
func Load(ctx context.Context, source string) (*solver.Roster, error) {
	rows, err := Fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	return Parse(rows)
}

// Fetch reads the raw rows of a roster source. A source is one of:
//
//	sheets://<spreadsheet id>/<range>   Google Sheets API
//	http(s)://...                       CSV download; a Google Docs share link is rewritten to its CSV export
//	path.csv                            local CSV file
//	path                                local file of whitespace separated fields, "-" for a blank cell
func Fetch(ctx context.Context, source string) ([][]string, error) {
	switch {
	case strings.HasPrefix(source, sheetsScheme):
		return fetchSheet(ctx, source)
	case strings.HasPrefix(source, "http:") || strings.HasPrefix(source, "https:"):
		return fetchURL(ctx, source)
	}

	log.Printf("reading roster file %s", source)
	fp, err := os.Open(source)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	if strings.HasSuffix(strings.ToLower(source), ".csv") {
		return ReadCSV(fp)
	}
	return readFields(fp)
}

// ExportURL rewrites a Google Docs share link into its CSV export link.
// Other URLs come back unchanged.
func ExportURL(u string) string {
	if strings.HasSuffix(u, docsSuffix) {
		return u[:len(u)-len(docsSuffix)] + exportSuffix
	}
	return u
}

func fetchURL(ctx context.Context, u string) ([][]string, error) {
	u = ExportURL(u)
	log.Printf("downloading roster %s", u)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading %s: %s", u, res.Status)
	}
	return ReadCSV(res.Body)
}

// ReadCSV reads every record of a CSV stream. Rows may have differing
// lengths; Parse reports the mismatch with its row number.
func ReadCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = -1
	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, record)
	}
}

func readFields(r io.Reader) ([][]string, error) {
	var rows [][]string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		rows = append(rows, strings.Fields(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// SplitSheet splits a sheets:// source into spreadsheet id and range.
// A missing range reads the whole first sheet.
func SplitSheet(source string) (id, readRange string, err error) {
	rest, ok := strings.CutPrefix(source, sheetsScheme)
	if !ok {
		return "", "", fmt.Errorf("%q is not a sheets:// source", source)
	}
	id, readRange, _ = strings.Cut(rest, "/")
	if id == "" {
		return "", "", fmt.Errorf("%q has no spreadsheet id", source)
	}
	if readRange == "" {
		readRange = "A:ZZ"
	}
	return id, readRange, nil
}

func fetchSheet(ctx context.Context, source string) ([][]string, error) {
	id, readRange, err := SplitSheet(source)
	if err != nil {
		return nil, err
	}

	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsReadonlyScope)}
	if key := os.Getenv(SheetsKeyEnv); key != "" {
		opts = []option.ClientOption{option.WithAPIKey(key)}
	}
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}

	log.Printf("reading roster sheet %s range %s", id, readRange)
	resp, err := srv.Spreadsheets.Values.Get(id, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", id, err)
	}
	return sheetRows(resp.Values), nil
}

// sheetRows converts API cell values to strings. The API drops trailing
// empty cells, so short rows are padded to the widest row.
func sheetRows(values [][]any) [][]string {
	width := 0
	for _, v := range values {
		width = max(width, len(v))
	}
	rows := make([][]string, 0, len(values))
	for _, v := range values {
		row := make([]string, width)
		for i, cell := range v {
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}
	return rows
}
