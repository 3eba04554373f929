package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"visadash/internal/core"
)

// columnRenames maps the header names of the published USCIS employer
// datahub export to the canonical field names. The mapping is part of the
// input contract; keep it verbatim.
var columnRenames = map[string]string{
	"Fiscal Year":                "Year",
	"Employer (Petitioner) Name": "EmployerName",
	"Petitioner City":            "City",
	"Petitioner State":           "State",
	"Industry (NAICS) Code":      "Industry",
	"Initial Approval":           "InitialApproval",
	"Initial Denial":             "InitialDenial",
	"Continuing Approval":        "ContinuingApproval",
	"Continuing Denial":          "ContinuingDenial",
}

// requiredColumns are the canonical fields every input must provide.
// City and State are optional and default to empty strings.
var requiredColumns = []string{
	"Year", "EmployerName", "Industry",
	"InitialApproval", "InitialDenial", "ContinuingApproval", "ContinuingDenial",
}

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrEmptyInput    = errors.New("input has no header row")
)

// LoadCSV reads the dataset file at path into an immutable snapshot.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset file: %w", err)
	}
	defer f.Close()

	records, err := ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return New(records), nil
}

// ReadRecords parses CSV rows into normalized, validated records. Header
// names are trimmed and translated through columnRenames; canonical names
// are accepted as-is so re-exported files round-trip. Malformed rows are an
// error here — the aggregation core never sees them.
func ReadRecords(r io.Reader) ([]core.Record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if canonical, ok := columnRenames[name]; ok {
			name = canonical
		}
		index[name] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []core.Record
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line+1, err)
		}
		line++

		year, err := strconv.Atoi(field(row, "Year"))
		if err != nil {
			return nil, fmt.Errorf("row %d: parse fiscal year %q: %w", line, field(row, "Year"), err)
		}
		rec := core.Record{
			Year:         year,
			EmployerName: field(row, "EmployerName"),
			City:         field(row, "City"),
			State:        field(row, "State"),
			Industry:     field(row, "Industry"),
		}
		if rec.InitialApproval, err = parseCount(field(row, "InitialApproval")); err != nil {
			return nil, fmt.Errorf("row %d: initial approval: %w", line, err)
		}
		if rec.InitialDenial, err = parseCount(field(row, "InitialDenial")); err != nil {
			return nil, fmt.Errorf("row %d: initial denial: %w", line, err)
		}
		if rec.ContinuingApproval, err = parseCount(field(row, "ContinuingApproval")); err != nil {
			return nil, fmt.Errorf("row %d: continuing approval: %w", line, err)
		}
		if rec.ContinuingDenial, err = parseCount(field(row, "ContinuingDenial")); err != nil {
			return nil, fmt.Errorf("row %d: continuing denial: %w", line, err)
		}

		rec = rec.Normalized()
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// parseCount parses a non-negative petition count. The datahub export
// formats large counts with thousands separators; empty cells mean zero.
func parseCount(v string) (int64, error) {
	v = strings.ReplaceAll(v, ",", "")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse count %q: %w", v, err)
	}
	return n, nil
}
