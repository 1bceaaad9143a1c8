package ingest

import (
	"testing"
	"time"
)

func TestParseDelimitedLine(t *testing.T) {
	rec, issue := ParseLine(1, "Line2,2023-03-01,copper,200,10.0,20.0")
	if issue != nil {
		t.Fatalf("unexpected issue: %+v", issue)
	}
	if rec.Name != "Line2" {
		t.Errorf("Name = %q", rec.Name)
	}
	if rec.Material != "copper" {
		t.Errorf("Material = %q", rec.Material)
	}
	if rec.PSI != 200.0 {
		t.Errorf("PSI = %v", rec.PSI)
	}
	if rec.X != 10.0 || rec.Y != 20.0 {
		t.Errorf("coords = (%v, %v)", rec.X, rec.Y)
	}
	if want := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC); !rec.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", rec.Date, want)
	}
}

func TestParseDelimitedLowercasesMaterial(t *testing.T) {
	rec, issue := ParseLine(1, "Line9,2024-01-15,STEEL,350,1.5,2.5")
	if issue != nil {
		t.Fatalf("unexpected issue: %+v", issue)
	}
	if rec.Material != "steel" {
		t.Errorf("Material = %q, want lowercase", rec.Material)
	}
}

func TestParseLegacyLine(t *testing.T) {
	rec, issue := ParseLine(1, "17 Line5 100.5 200.25 A-7 2022-11-30 415 pvc")
	if issue != nil {
		t.Fatalf("unexpected issue: %+v", issue)
	}
	if rec.Name != "Line5" {
		t.Errorf("Name = %q", rec.Name)
	}
	if rec.X != 100.5 || rec.Y != 200.25 {
		t.Errorf("coords = (%v, %v)", rec.X, rec.Y)
	}
	if rec.PSI != 415 {
		t.Errorf("PSI = %v", rec.PSI)
	}
	if rec.Material != "pvc" {
		t.Errorf("Material = %q", rec.Material)
	}
}

func TestParseLineIssues(t *testing.T) {
	cases := []string{
		"Line3,2023-01-01,steel",                // too short
		"Line4,2023-01-01,steel,abc,10.0,20.0",  // bad psi
		"Line5,2023-01-01,steel,200,east,20.0",  // bad x
		"Line6,2023-01-01,steel,200,10.0,north", // bad y
	}
	for _, line := range cases {
		if _, issue := ParseLine(1, line); issue == nil {
			t.Errorf("ParseLine(%q) should report an issue", line)
		}
	}
}

func TestParseLineBadDateYieldsZeroTime(t *testing.T) {
	rec, issue := ParseLine(1, "Line7,someday,steel,200,10.0,20.0")
	if issue != nil {
		t.Fatalf("unexpected issue: %+v", issue)
	}
	if !rec.Date.IsZero() {
		t.Errorf("Date = %v, want zero sentinel", rec.Date)
	}
}

func TestIsHeaderLine(t *testing.T) {
	if !isHeaderLine("Name,Date,Material,PSI,X,Y") {
		t.Error("column header not recognized")
	}
	if isHeaderLine("Line2,2023-03-01,copper,200,10.0,20.0") {
		t.Error("record misread as header")
	}
}

func TestParseReportDateLayouts(t *testing.T) {
	for _, s := range []string{"2023-03-01", "2023/03/01", "03/01/2023"} {
		if ParseReportDate(s).IsZero() {
			t.Errorf("ParseReportDate(%q) should parse", s)
		}
	}
	if !ParseReportDate("not a date").IsZero() {
		t.Error("garbage should yield the zero time")
	}
}
