package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"visadash/internal/core"
)

// handleMeta returns everything the filter controls need: the dataset's
// years, the watch-list, and the distinct locations and industries of the
// watch-list subset the raw-data table operates on.
func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ds := s.holder.Get()
	subset := core.FilterRecords(ds.Records(), core.RecordFilter{Industries: s.watchlist})

	data := struct {
		Years         []int    `json:"years"`
		Watchlist     []string `json:"watchlist"`
		States        []string `json:"states"`
		Cities        []string `json:"cities"`
		Industries    []string `json:"industries"`
		TopIndustries int      `json:"top_industries"`
		TopEmployers  int      `json:"top_employers"`
		Rows          int      `json:"rows"`
		LoadedAt      string   `json:"loaded_at"`
	}{
		Years:         ds.Years(),
		Watchlist:     s.watchlist,
		States:        core.DistinctStates(subset),
		Cities:        core.DistinctCities(subset),
		Industries:    core.DistinctIndustries(subset),
		TopIndustries: s.topIndustries,
		TopEmployers:  s.topEmployers,
		Rows:          ds.Len(),
		LoadedAt:      ds.LoadedAt().UTC().Format("2006-01-02T15:04:05Z"),
	}
	writeJSON(w, http.StatusOK, data)
}

// handleYearlyTrend returns the per-year KPI series: approval and denial
// totals with year-over-year changes.
func (s *Server) handleYearlyTrend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ds := s.holder.Get()
	years := parseYears(r, ds)

	key := cacheKey(ds, "yearly-trend", years)
	stats, found := s.trendCache.Get(key)
	if !found {
		stats = core.YearlyTrend(core.FilterYears(ds.Records(), years), years)
		s.trendCache.Set(key, stats)
	} else {
		slog.DebugContext(r.Context(), "Yearly trend cache hit", "years", len(years))
	}

	type stat struct {
		Year         int     `json:"year"`
		Approvals    int64   `json:"approvals"`
		Denials      int64   `json:"denials"`
		ApprovalsYoY float64 `json:"approvals_yoy"`
		DenialsYoY   float64 `json:"denials_yoy"`
	}
	out := make([]stat, 0, len(stats))
	for _, st := range stats {
		out = append(out, stat{
			Year:         st.Year,
			Approvals:    st.Approvals,
			Denials:      st.Denials,
			ApprovalsYoY: st.ApprovalsYoY,
			DenialsYoY:   st.DenialsYoY,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleIndustryTrends returns the top-N industries pivot, with everything
// outside the top N folded into "Others".
func (s *Server) handleIndustryTrends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ds := s.holder.Get()
	years := parseYears(r, ds)
	top := parseLimit(r, "top", s.topIndustries, 100)

	key := cacheKey(ds, "industry-trends", years, strconv.Itoa(top))
	pivot, found := s.pivotCache.Get(key)
	if !found {
		pivot = core.TopIndustriesPivot(core.FilterYears(ds.Records(), years), top)
		s.pivotCache.Set(key, pivot)
	}

	writeJSON(w, http.StatusOK, newPivotView(pivot))
}
