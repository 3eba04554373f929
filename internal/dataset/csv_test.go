package dataset

import (
	"errors"
	"strings"
	"testing"
)

const sampleHeader = `Fiscal Year,Employer (Petitioner) Name,Petitioner City,Petitioner State,Industry (NAICS) Code,Initial Approval,Initial Denial,Continuing Approval,Continuing Denial`

func TestReadRecords(t *testing.T) {
	input := sampleHeader + "\n" +
		`2021,Acme Corp,Austin,TX,"54 - Professional, Scientific, and Technical Services",10,1,5,0` + "\n" +
		`2022,Blob Inc,,,31-33 - Manufacturing,"1,200",0,3,2` + "\n"

	records, err := ReadRecords(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	first := records[0]
	if first.Year != 2021 || first.EmployerName != "Acme Corp" || first.State != "TX" {
		t.Fatalf("first record = %+v", first)
	}
	if first.Industry != "54 - Professional, Scientific, and Technical Services" {
		t.Fatalf("industry = %q", first.Industry)
	}
	if first.TotalApprovals != 15 || first.TotalDenials != 1 {
		t.Fatalf("derived totals = (%d,%d), want (15,1)", first.TotalApprovals, first.TotalDenials)
	}

	second := records[1]
	if second.City != "" || second.State != "" {
		t.Fatalf("blank locations should stay empty strings, got %+v", second)
	}
	if second.InitialApproval != 1200 {
		t.Fatalf("thousands separator not handled: %d", second.InitialApproval)
	}
}

func TestReadRecordsAcceptsCanonicalHeader(t *testing.T) {
	input := `Year,EmployerName,City,State,Industry,InitialApproval,InitialDenial,ContinuingApproval,ContinuingDenial` + "\n" +
		`2020,Acme,,,A,1,0,0,0` + "\n"
	records, err := ReadRecords(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	if len(records) != 1 || records[0].Industry != "A" {
		t.Fatalf("records = %+v", records)
	}
}

func TestReadRecordsErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  error
	}{
		{"empty input", "", ErrEmptyInput},
		{"missing column", "Fiscal Year,Employer (Petitioner) Name\n", ErrMissingColumn},
	}
	for _, tc := range cases {
		_, err := ReadRecords(strings.NewReader(tc.input))
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}

	bad := []struct {
		name string
		row  string
	}{
		{"bad year", `20x1,Acme,,,A,1,0,0,0`},
		{"bad count", `2021,Acme,,,A,ten,0,0,0`},
		{"negative count", `2021,Acme,,,A,-1,0,0,0`},
		{"empty employer", `2021,,,,A,1,0,0,0`},
	}
	for _, tc := range bad {
		input := sampleHeader + "\n" + tc.row + "\n"
		if _, err := ReadRecords(strings.NewReader(input)); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestDatasetSnapshot(t *testing.T) {
	input := sampleHeader + "\n" +
		`2022,Blob,,,B,1,0,0,0` + "\n" +
		`2020,Acme,,,A,1,0,0,0` + "\n" +
		`2020,Carb,,,B,1,0,0,0` + "\n"
	records, err := ReadRecords(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}

	ds := New(records)
	if ds.Len() != 3 {
		t.Fatalf("len = %d", ds.Len())
	}
	years := ds.Years()
	if len(years) != 2 || years[0] != 2020 || years[1] != 2022 {
		t.Fatalf("years = %v", years)
	}
	industries := ds.Industries()
	if len(industries) != 2 || industries[0] != "A" {
		t.Fatalf("industries = %v", industries)
	}
	if ds.LoadedAt().IsZero() {
		t.Fatalf("loadedAt not set")
	}

	// Mutating the input afterwards must not leak into the snapshot.
	records[0].EmployerName = "changed"
	if ds.Records()[0].EmployerName == "changed" {
		t.Fatalf("snapshot shares storage with its input")
	}
}

func TestHolderSwap(t *testing.T) {
	first := New(nil)
	h := NewHolder(first)
	if h.Get() != first {
		t.Fatalf("holder did not return initial snapshot")
	}
	second := New(nil)
	h.Swap(second)
	if h.Get() != second {
		t.Fatalf("holder did not swap")
	}
}
