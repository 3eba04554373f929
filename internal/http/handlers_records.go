package http

import (
	"net/http"
	"strings"

	"visadash/internal/core"
)

// handleRecords serves the raw-data table: the year-filtered watch-list
// subset narrowed by the state/city/industry/search controls. The response
// is row-capped; Total reports the uncapped match count.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ds := s.holder.Get()
	years := parseYears(r, ds)

	q := r.URL.Query()
	filter := core.RecordFilter{
		State:  strings.TrimSpace(q.Get("state")),
		City:   strings.TrimSpace(q.Get("city")),
		Search: q.Get("q"),
	}
	for _, industry := range q["industry"] {
		industry = strings.TrimSpace(industry)
		// Selections outside the watch-list can only come from a stale or
		// hand-built query; they match nothing within the subset anyway.
		if industry != "" {
			filter.Industries = append(filter.Industries, industry)
		}
	}

	matched := core.FilterRecords(s.watchlistRecords(ds, years), filter)

	type recordView struct {
		Year               int    `json:"year"`
		EmployerName       string `json:"employer_name"`
		City               string `json:"city"`
		State              string `json:"state"`
		Industry           string `json:"industry"`
		InitialApproval    int64  `json:"initial_approval"`
		InitialDenial      int64  `json:"initial_denial"`
		ContinuingApproval int64  `json:"continuing_approval"`
		ContinuingDenial   int64  `json:"continuing_denial"`
		TotalApprovals     int64  `json:"total_approvals"`
		TotalDenials       int64  `json:"total_denials"`
	}

	shown := matched
	if len(shown) > s.maxRecordRows {
		shown = shown[:s.maxRecordRows]
	}
	rows := make([]recordView, 0, len(shown))
	for _, rec := range shown {
		rows = append(rows, recordView{
			Year:               rec.Year,
			EmployerName:       rec.EmployerName,
			City:               rec.City,
			State:              rec.State,
			Industry:           rec.Industry,
			InitialApproval:    rec.InitialApproval,
			InitialDenial:      rec.InitialDenial,
			ContinuingApproval: rec.ContinuingApproval,
			ContinuingDenial:   rec.ContinuingDenial,
			TotalApprovals:     rec.TotalApprovals,
			TotalDenials:       rec.TotalDenials,
		})
	}

	data := struct {
		Total    int          `json:"total"`
		Returned int          `json:"returned"`
		Records  []recordView `json:"records"`
	}{
		Total:    len(matched),
		Returned: len(rows),
		Records:  rows,
	}
	writeJSON(w, http.StatusOK, data)
}
