// Package sheets implements the live-data source directly over the
// operational Google Sheet.
//
// The series runs parts pricing, stock, and the race calendar out of a
// shared spreadsheet. This adapter reads the configured tabs per query,
// matches rows against the question, and returns them as live records
// with cell references. It suits deployments without an MCP bridge in
// front of the sheet.
package sheets

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/custodia-labs/pitwall/internal/core/domain"
	"github.com/custodia-labs/pitwall/internal/core/ports/driven"
)

var _ driven.LiveDataSource = (*Source)(nil)

// DefaultRPS throttles sheet reads. Google's per-user quota is tight;
// one read per second keeps a busy chat well inside it.
const DefaultRPS = 1

// DefaultRanges are the tabs scanned when none are configured.
var DefaultRanges = []string{"Parts", "Schedule"}

// Config identifies the spreadsheet and the tabs to scan.
type Config struct {
	// SpreadsheetID is the sheet to read (required).
	SpreadsheetID string

	// APIKey authorises read access (required).
	APIKey string

	// Ranges are A1 ranges to scan per query. Defaults to the Parts
	// and Schedule tabs.
	Ranges []string

	// RPS caps sheet reads per second (default 1).
	RPS float64
}

// Source queries operational records straight from the spreadsheet.
type Source struct {
	svc           *sheets.Service
	spreadsheetID string
	ranges        []string
	limiter       *rate.Limiter
}

// record is one data row flattened for matching and display.
type record struct {
	title string
	text  string
	ref   string
}

// NewSource creates a source over the configured spreadsheet.
func NewSource(ctx context.Context, cfg Config) (*Source, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheets: spreadsheet ID is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("sheets: API key is required")
	}

	svc, err := sheets.NewService(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}

	ranges := cfg.Ranges
	if len(ranges) == 0 {
		ranges = DefaultRanges
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = DefaultRPS
	}

	return &Source{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		ranges:        ranges,
		limiter:       rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// Query reads the configured tabs and returns the rows matching the
// question, best first.
func (s *Source) Query(ctx context.Context, query string, limit int) ([]domain.RetrievedItem, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	terms := queryTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}

	resp, err := s.svc.Spreadsheets.Values.BatchGet(s.spreadsheetID).
		Ranges(s.ranges...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read spreadsheet: %w", err)
	}

	var records []record
	for _, vr := range resp.ValueRanges {
		records = append(records, buildRecords(vr)...)
	}

	items := rankRecords(records, terms)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Ping verifies the spreadsheet is reachable with the configured key.
func (s *Source) Ping(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("sheets: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *Source) Close() error {
	return nil
}

// rankRecords scores records by term hits and returns matches as
// retrieved items, best first. Ties keep sheet order.
func rankRecords(records []record, terms []string) []domain.RetrievedItem {
	type scored struct {
		rec   record
		score float64
	}
	var matches []scored
	for _, rec := range records {
		lower := strings.ToLower(rec.text)
		hits := 0
		for _, term := range terms {
			if strings.Contains(lower, term) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		matches = append(matches, scored{
			rec:   rec,
			score: float64(hits) / float64(len(terms)),
		})
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].score > matches[b].score
	})

	items := make([]domain.RetrievedItem, 0, len(matches))
	for _, m := range matches {
		items = append(items, domain.RetrievedItem{
			Kind:      domain.SourceLiveData,
			Title:     m.rec.title,
			Content:   m.rec.text,
			Score:     m.score,
			Reference: m.rec.ref,
		})
	}
	return items
}

// buildRecords flattens a value range into records. The first row is
// treated as headers; later rows pair each cell with its header.
func buildRecords(vr *sheets.ValueRange) []record {
	if vr == nil || len(vr.Values) < 2 {
		return nil
	}

	tab, startRow := parseRange(vr.Range)
	headers := stringCells(vr.Values[0])

	records := make([]record, 0, len(vr.Values)-1)
	for i, row := range vr.Values[1:] {
		cells := stringCells(row)
		text := joinPairs(headers, cells)
		if text == "" {
			continue
		}
		records = append(records, record{
			title: firstNonEmpty(cells),
			text:  text,
			ref:   fmt.Sprintf("%s!A%d", tab, startRow+1+i),
		})
	}
	return records
}

// parseRange extracts the tab name and starting row from an A1 range
// like "Parts!A2:Z100". Ranges without digits start at row 1.
func parseRange(a1 string) (string, int) {
	tab, rest, ok := strings.Cut(a1, "!")
	if !ok {
		return a1, 1
	}
	tab = strings.Trim(tab, "'")

	i := 0
	for i < len(rest) && (rest[i] < '0' || rest[i] > '9') {
		if rest[i] == ':' {
			return tab, 1
		}
		i++
	}
	j := i
	for j < len(rest) && rest[j] >= '0' && rest[j] <= '9' {
		j++
	}
	if n, err := strconv.Atoi(rest[i:j]); err == nil && n > 0 {
		return tab, n
	}
	return tab, 1
}

// stringCells renders a row of sheet values as strings.
func stringCells(row []interface{}) []string {
	cells := make([]string, len(row))
	for i, v := range row {
		cells[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return cells
}

// joinPairs builds the display text for a row, pairing cells with
// their column headers.
func joinPairs(headers, cells []string) string {
	var parts []string
	for i, cell := range cells {
		if cell == "" {
			continue
		}
		if i < len(headers) && headers[i] != "" {
			parts = append(parts, headers[i]+": "+cell)
		} else {
			parts = append(parts, cell)
		}
	}
	return strings.Join(parts, ", ")
}

// firstNonEmpty returns the first non-blank cell, used as the record
// title.
func firstNonEmpty(cells []string) string {
	for _, c := range cells {
		if c != "" {
			return c
		}
	}
	return ""
}

// queryTerms lowercases the query and keeps terms long enough to
// discriminate row content.
func queryTerms(query string) []string {
	var terms []string
	for _, f := range strings.Fields(strings.ToLower(query)) {
		f = strings.Trim(f, ".,!?'\"()$")
		if len(f) >= 3 {
			terms = append(terms, f)
		}
	}
	return terms
}
