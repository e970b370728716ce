package tabular

// SearchOptions bounds a Search. Zero values select the package defaults.
type SearchOptions struct {
	MaxRowsScanned int
	MaxResults     int
}

// Match is one data row that passed every filter. RowNumber is the row's
// 1-based position in the sheet, so the first data row is row 2.
type Match struct {
	RowNumber int            `json:"rowIndex"`
	Fields    map[string]any `json:"data"`
}

// SearchResult is the result of Search.
type SearchResult struct {
	Matches     []Match `json:"matches"`
	ScannedRows int     `json:"scannedRows"`
	MatchCount  int     `json:"matchCount"`
}

type resolvedFilter struct {
	Filter
	index int
}

// Search returns the data rows for which every filter matches. All filter
// columns are resolved before any row is read; an unresolvable column fails
// the whole search with *ColumnNotFoundError.
func Search(grid Grid, filters []Filter, opts SearchOptions) (*SearchResult, error) {
	if len(grid) == 0 {
		return nil, ErrEmptySheet
	}
	if opts.MaxRowsScanned <= 0 {
		opts.MaxRowsScanned = DefaultMaxRowsScanned
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}

	headers := headerNames(grid[0])
	resolved := make([]resolvedFilter, 0, len(filters))
	for _, f := range filters {
		idx, ok := resolveColumn(headers, f.Column)
		if !ok {
			return nil, &ColumnNotFoundError{Column: f.Column.String()}
		}
		resolved = append(resolved, resolvedFilter{Filter: f, index: idx})
	}

	data := window(grid, opts.MaxRowsScanned)
	matches := make([]Match, 0)
	for i, row := range data {
		if len(matches) >= opts.MaxResults {
			break
		}
		if !rowMatches(row, resolved) {
			continue
		}
		matches = append(matches, Match{
			RowNumber: i + 2,
			Fields:    project(headers, row),
		})
	}

	return &SearchResult{
		Matches:     matches,
		ScannedRows: len(data),
		MatchCount:  len(matches),
	}, nil
}

func rowMatches(row []any, filters []resolvedFilter) bool {
	for _, f := range filters {
		if !f.Matches(cellAt(row, f.index)) {
			return false
		}
	}
	return true
}

// resolveColumn maps a reference to a header index. Names are compared after
// normalization and resolve to the first matching header.
func resolveColumn(headers []string, ref ColumnRef) (int, bool) {
	if ref.ByIndex {
		if ref.Index < 0 || ref.Index >= len(headers) {
			return 0, false
		}
		return ref.Index, true
	}
	want := NormalizeText(ref.Name)
	for i, h := range headers {
		if NormalizeText(h) == want {
			return i, true
		}
	}
	return 0, false
}

// project maps header names to the row's cells. Duplicate header names keep
// the first column's value.
func project(headers []string, row []any) map[string]any {
	fields := make(map[string]any, len(headers))
	for i, h := range headers {
		if _, seen := fields[h]; seen {
			continue
		}
		fields[h] = cellAt(row, i)
	}
	return fields
}
