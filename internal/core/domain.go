package core

import (
	"errors"
	"strings"
)

// OthersLabel is the synthetic industry bucket that collects everything
// outside the top-N selection in TopIndustriesPivot.
const OthersLabel = "Others"

// AllLocations is the sentinel value the state/city selects use for
// "no location filter".
const AllLocations = "All"

// DefaultWatchlist is the fixed set of NAICS sector labels singled out for
// the supply-chain trend and top-employer views. The labels must match the
// Industry column of the input dataset verbatim, code prefix included.
var DefaultWatchlist = []string{
	"54 - Professional, Scientific, and Technical Services",
	"31-33 - Manufacturing",
	"44-45 - Retail Trade",
	"48-49 - Transportation and Warehousing",
	"21 - Mining, Quarrying, and Oil and Gas Extraction",
}

// Record is one row of the employer petition dataset: approval and denial
// counts for one employer, fiscal year, and industry.
type Record struct {
	Year               int
	EmployerName       string
	City               string
	State              string
	Industry           string
	InitialApproval    int64
	InitialDenial      int64
	ContinuingApproval int64
	ContinuingDenial   int64

	// Derived once at load via Normalized; never recomputed afterwards.
	TotalApprovals int64
	TotalDenials   int64
}

var (
	ErrInvalidYear   = errors.New("invalid fiscal year")
	ErrEmptyEmployer = errors.New("empty employer name")
	ErrEmptyIndustry = errors.New("empty industry")
	ErrNegativeCount = errors.New("negative petition count")
)

// Normalized returns a copy with trimmed text fields and the derived totals
// filled in. Absent City/State values stay empty strings so location filters
// never compare against nulls.
func (r Record) Normalized() Record {
	r.EmployerName = strings.TrimSpace(r.EmployerName)
	r.City = strings.TrimSpace(r.City)
	r.State = strings.TrimSpace(r.State)
	r.Industry = strings.TrimSpace(r.Industry)
	r.TotalApprovals = r.InitialApproval + r.ContinuingApproval
	r.TotalDenials = r.InitialDenial + r.ContinuingDenial
	return r
}

// Validate is the load-time guard; aggregation assumes records passed it.
func (r Record) Validate() error {
	if r.Year <= 0 {
		return ErrInvalidYear
	}
	if strings.TrimSpace(r.EmployerName) == "" {
		return ErrEmptyEmployer
	}
	if strings.TrimSpace(r.Industry) == "" {
		return ErrEmptyIndustry
	}
	if r.InitialApproval < 0 || r.InitialDenial < 0 ||
		r.ContinuingApproval < 0 || r.ContinuingDenial < 0 {
		return ErrNegativeCount
	}
	return nil
}

// DistinctStates returns the sorted distinct State values of records.
func DistinctStates(records []Record) []string {
	return distinctStrings(records, func(r Record) string { return r.State })
}

// DistinctCities returns the sorted distinct City values of records.
func DistinctCities(records []Record) []string {
	return distinctStrings(records, func(r Record) string { return r.City })
}

// DistinctIndustries returns the sorted distinct Industry values of records.
func DistinctIndustries(records []Record) []string {
	return distinctStrings(records, func(r Record) string { return r.Industry })
}
