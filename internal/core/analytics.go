package core

import (
	"sort"
	"strings"
)

// YearTotals holds approval and denial sums for one fiscal year.
type YearTotals struct {
	Approvals int64
	Denials   int64
}

// YearStat is one row of the yearly KPI series: totals plus the
// year-over-year change against the previous year's totals.
type YearStat struct {
	Year         int
	Approvals    int64
	Denials      int64
	ApprovalsYoY float64
	DenialsYoY   float64
}

// IndustryTotal is an approval sum attributed to one industry.
type IndustryTotal struct {
	Industry  string
	Approvals int64
}

// EmployerTotal is an approval sum attributed to one employer.
type EmployerTotal struct {
	Name      string
	Approvals int64
}

// Pivot is a year-by-industry table of approval sums. Years ascend; Columns
// carry the display order. Missing cells are zero.
type Pivot struct {
	Years   []int
	Columns []string
	Cells   map[int]map[string]int64
}

// Value reads one cell, treating absent years or columns as zero.
func (p Pivot) Value(year int, column string) int64 {
	return p.Cells[year][column]
}

// RecordFilter holds the raw-data view predicates. Zero values disable the
// corresponding predicate; see FilterRecords.
type RecordFilter struct {
	State      string
	City       string
	Industries []string
	Search     string
}

// YearlyTotals groups records belonging to the selected years and sums
// approvals and denials per year. Selected years with no matching records are
// simply absent; consumers read them as zero.
func YearlyTotals(records []Record, years []int) map[int]YearTotals {
	selected := make(map[int]struct{}, len(years))
	for _, y := range years {
		selected[y] = struct{}{}
	}
	out := make(map[int]YearTotals)
	for _, r := range records {
		if _, ok := selected[r.Year]; !ok {
			continue
		}
		t := out[r.Year]
		t.Approvals += r.TotalApprovals
		t.Denials += r.TotalDenials
		out[r.Year] = t
	}
	return out
}

// YoYChange returns the percentage change from previous to current.
// A zero previous value yields 0 rather than an infinite change; the
// dashboard treats "no prior year" and "no change" the same way, a
// deliberate simplification carried over from the KPI definition.
func YoYChange(current, previous int64) float64 {
	if previous == 0 {
		return 0
	}
	return (float64(current) - float64(previous)) / float64(previous) * 100
}

// YearlyTrend produces one YearStat per selected year, ascending. The YoY
// columns compare against the previous year's totals within the same
// filtered set, so a previous year outside the selection counts as zero and
// the change reads 0.
func YearlyTrend(records []Record, years []int) []YearStat {
	totals := YearlyTotals(records, years)
	sorted := uniqueSortedInts(years)
	stats := make([]YearStat, 0, len(sorted))
	for _, y := range sorted {
		cur := totals[y]
		prev := totals[y-1]
		stats = append(stats, YearStat{
			Year:         y,
			Approvals:    cur.Approvals,
			Denials:      cur.Denials,
			ApprovalsYoY: YoYChange(cur.Approvals, prev.Approvals),
			DenialsYoY:   YoYChange(cur.Denials, prev.Denials),
		})
	}
	return stats
}

// TopIndustriesPivot ranks industries by total approvals over records, keeps
// the top n, and merges the rest into the "Others" bucket. Columns are
// ordered descending by the first (smallest) year's value; equal values fall
// back to the label, so the order is deterministic.
func TopIndustriesPivot(records []Record, n int) Pivot {
	if len(records) == 0 || n <= 0 {
		return Pivot{Cells: map[int]map[string]int64{}}
	}

	totals := make(map[string]int64)
	for _, r := range records {
		totals[r.Industry] += r.TotalApprovals
	}
	ranked := make([]string, 0, len(totals))
	for industry := range totals {
		ranked = append(ranked, industry)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if totals[ranked[i]] != totals[ranked[j]] {
			return totals[ranked[i]] > totals[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	top := make(map[string]struct{}, len(ranked))
	for _, industry := range ranked {
		top[industry] = struct{}{}
	}

	cells := make(map[int]map[string]int64)
	present := make(map[string]struct{})
	for _, r := range records {
		column := r.Industry
		if _, ok := top[column]; !ok {
			column = OthersLabel
		}
		row := cells[r.Year]
		if row == nil {
			row = make(map[string]int64)
			cells[r.Year] = row
		}
		row[column] += r.TotalApprovals
		present[column] = struct{}{}
	}

	years := sortedYears(cells)
	columns := make([]string, 0, len(present))
	for column := range present {
		columns = append(columns, column)
	}
	first := years[0]
	sort.Slice(columns, func(i, j int) bool {
		vi, vj := cells[first][columns[i]], cells[first][columns[j]]
		if vi != vj {
			return vi > vj
		}
		return columns[i] < columns[j]
	})

	fillMissing(cells, years, columns)
	return Pivot{Years: years, Columns: columns, Cells: cells}
}

// WatchlistPivot builds the same year-by-industry table restricted to
// watch-list members, without top-N collapsing. Columns follow the
// watch-list order, limited to industries actually present.
func WatchlistPivot(records []Record, watchlist []string) Pivot {
	member := toStringSet(watchlist)
	cells := make(map[int]map[string]int64)
	present := make(map[string]struct{})
	for _, r := range records {
		if _, ok := member[r.Industry]; !ok {
			continue
		}
		row := cells[r.Year]
		if row == nil {
			row = make(map[string]int64)
			cells[r.Year] = row
		}
		row[r.Industry] += r.TotalApprovals
		present[r.Industry] = struct{}{}
	}
	if len(cells) == 0 {
		return Pivot{Cells: map[int]map[string]int64{}}
	}

	years := sortedYears(cells)
	columns := make([]string, 0, len(present))
	seen := make(map[string]struct{}, len(present))
	for _, industry := range watchlist {
		if _, ok := present[industry]; !ok {
			continue
		}
		if _, dup := seen[industry]; dup {
			continue
		}
		seen[industry] = struct{}{}
		columns = append(columns, industry)
	}

	fillMissing(cells, years, columns)
	return Pivot{Years: years, Columns: columns, Cells: cells}
}

// WatchlistTotals sums approvals per watch-list industry, ascending by total
// so the horizontal bar chart reads bottom-up. Equal totals order by label.
func WatchlistTotals(records []Record, watchlist []string) []IndustryTotal {
	member := toStringSet(watchlist)
	totals := make(map[string]int64)
	for _, r := range records {
		if _, ok := member[r.Industry]; ok {
			totals[r.Industry] += r.TotalApprovals
		}
	}
	out := make([]IndustryTotal, 0, len(totals))
	for industry, sum := range totals {
		out = append(out, IndustryTotal{Industry: industry, Approvals: sum})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Approvals != out[j].Approvals {
			return out[i].Approvals < out[j].Approvals
		}
		return out[i].Industry < out[j].Industry
	})
	return out
}

// TopEmployers returns at most k employers within one industry, descending
// by summed approvals. Equal sums order by employer name.
func TopEmployers(records []Record, industry string, k int) []EmployerTotal {
	if k <= 0 {
		return nil
	}
	totals := make(map[string]int64)
	for _, r := range records {
		if r.Industry == industry {
			totals[r.EmployerName] += r.TotalApprovals
		}
	}
	out := make([]EmployerTotal, 0, len(totals))
	for name, sum := range totals {
		out = append(out, EmployerTotal{Name: name, Approvals: sum})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Approvals != out[j].Approvals {
			return out[i].Approvals > out[j].Approvals
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// FilterRecords applies the raw-data predicates in order: exact State match
// (skipped for "" or the "All" sentinel), exact City match (same), industry
// membership, and a case-insensitive substring match on EmployerName. An
// empty industry selection leaves that predicate off — clearing the
// multiselect shows everything, mirroring its default of all industries
// selected. The input slice is never mutated.
func FilterRecords(records []Record, f RecordFilter) []Record {
	var industries map[string]struct{}
	if len(f.Industries) > 0 {
		industries = toStringSet(f.Industries)
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.State != "" && f.State != AllLocations && r.State != f.State {
			continue
		}
		if f.City != "" && f.City != AllLocations && r.City != f.City {
			continue
		}
		if industries != nil {
			if _, ok := industries[r.Industry]; !ok {
				continue
			}
		}
		if search != "" && !strings.Contains(strings.ToLower(r.EmployerName), search) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterYears keeps records whose Year is in the selection. An empty
// selection keeps nothing; the year multiselect always carries a value.
func FilterYears(records []Record, years []int) []Record {
	selected := make(map[int]struct{}, len(years))
	for _, y := range years {
		selected[y] = struct{}{}
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if _, ok := selected[r.Year]; ok {
			out = append(out, r)
		}
	}
	return out
}

func fillMissing(cells map[int]map[string]int64, years []int, columns []string) {
	for _, y := range years {
		for _, c := range columns {
			if _, ok := cells[y][c]; !ok {
				cells[y][c] = 0
			}
		}
	}
}

func sortedYears(cells map[int]map[string]int64) []int {
	years := make([]int, 0, len(cells))
	for y := range cells {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

func uniqueSortedInts(in []int) []int {
	seen := make(map[int]struct{}, len(in))
	out := make([]int, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func toStringSet(in []string) map[string]struct{} {
	set := make(map[string]struct{}, len(in))
	for _, v := range in {
		set[v] = struct{}{}
	}
	return set
}

func distinctStrings(records []Record, key func(Record) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range records {
		v := key(r)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
