package http

import (
	"net/http"
	"strconv"
	"strings"

	"visadash/internal/core"
)

// handleWatchlistTotals returns per-watch-list-industry approval totals,
// ascending, for the horizontal bar chart.
func (s *Server) handleWatchlistTotals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ds := s.holder.Get()
	years := parseYears(r, ds)
	totals := core.WatchlistTotals(core.FilterYears(ds.Records(), years), s.watchlist)

	type total struct {
		Industry  string `json:"industry"`
		Approvals int64  `json:"approvals"`
	}
	out := make([]total, 0, len(totals))
	for _, t := range totals {
		out = append(out, total{Industry: t.Industry, Approvals: t.Approvals})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleWatchlistTrends returns the year-by-industry pivot restricted to the
// watch-list, without top-N collapsing.
func (s *Server) handleWatchlistTrends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ds := s.holder.Get()
	years := parseYears(r, ds)

	key := cacheKey(ds, "watchlist-trends", years)
	pivot, found := s.pivotCache.Get(key)
	if !found {
		pivot = core.WatchlistPivot(core.FilterYears(ds.Records(), years), s.watchlist)
		s.pivotCache.Set(key, pivot)
	}

	writeJSON(w, http.StatusOK, newPivotView(pivot))
}

// handleTopEmployers returns the highest-approval employers within one
// watch-list industry.
func (s *Server) handleTopEmployers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	industry := strings.TrimSpace(r.URL.Query().Get("industry"))
	if industry == "" {
		writeJSONError(w, http.StatusBadRequest, "industry parameter is required")
		return
	}
	if !s.watchlistMember(industry) {
		writeJSONError(w, http.StatusNotFound, "industry is not on the watch-list")
		return
	}

	ds := s.holder.Get()
	years := parseYears(r, ds)
	limit := parseLimit(r, "limit", s.topEmployers, 500)

	key := cacheKey(ds, "top-employers", years, industry, strconv.Itoa(limit))
	ranking, found := s.rankingCache.Get(key)
	if !found {
		ranking = core.TopEmployers(core.FilterYears(ds.Records(), years), industry, limit)
		s.rankingCache.Set(key, ranking)
	}

	type employer struct {
		Name      string `json:"name"`
		Approvals int64  `json:"approvals"`
	}
	out := make([]employer, 0, len(ranking))
	for _, e := range ranking {
		out = append(out, employer{Name: e.Name, Approvals: e.Approvals})
	}
	writeJSON(w, http.StatusOK, out)
}
