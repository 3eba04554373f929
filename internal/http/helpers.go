package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"visadash/internal/core"
	"visadash/internal/dataset"
)

// parseYears reads the comma-separated "years" query parameter. An absent or
// empty parameter selects every year the dataset carries, matching the year
// multiselect's default. Unparseable entries are skipped.
func parseYears(r *http.Request, ds *dataset.Dataset) []int {
	raw := strings.TrimSpace(r.URL.Query().Get("years"))
	if raw == "" {
		return ds.Years()
	}
	var years []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if y, err := strconv.Atoi(part); err == nil {
			years = append(years, y)
		}
	}
	if len(years) == 0 {
		return ds.Years()
	}
	return years
}

// parseLimit reads a positive integer query parameter, falling back to def
// and clamping to max.
func parseLimit(r *http.Request, name string, def, max int) int {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// cacheKey builds a snapshot-scoped cache key. Including the load time means
// entries written against a replaced snapshot are never served again.
func cacheKey(ds *dataset.Dataset, endpoint string, years []int, extra ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%d|", endpoint, ds.LoadedAt().UnixNano())
	for i, y := range years {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(y))
	}
	for _, e := range extra {
		b.WriteByte('|')
		b.WriteString(e)
	}
	return b.String()
}

// pivotView flattens a core.Pivot into parallel arrays for the chart code:
// one row of cell values per year, aligned with Columns.
type pivotView struct {
	Years   []int     `json:"years"`
	Columns []string  `json:"columns"`
	Rows    [][]int64 `json:"rows"`
}

func newPivotView(p core.Pivot) pivotView {
	view := pivotView{
		Years:   p.Years,
		Columns: p.Columns,
		Rows:    make([][]int64, 0, len(p.Years)),
	}
	if view.Years == nil {
		view.Years = []int{}
	}
	if view.Columns == nil {
		view.Columns = []string{}
	}
	for _, year := range p.Years {
		row := make([]int64, len(p.Columns))
		for i, col := range p.Columns {
			row[i] = p.Value(year, col)
		}
		view.Rows = append(view.Rows, row)
	}
	return view
}

// watchlistMember reports whether industry is on the configured watch-list.
func (s *Server) watchlistMember(industry string) bool {
	for _, label := range s.watchlist {
		if label == industry {
			return true
		}
	}
	return false
}

// watchlistRecords returns the year-filtered watch-list subset the
// supply-chain views and the raw-data table operate on.
func (s *Server) watchlistRecords(ds *dataset.Dataset, years []int) []core.Record {
	return core.FilterRecords(
		core.FilterYears(ds.Records(), years),
		core.RecordFilter{Industries: s.watchlist},
	)
}
