// Package crs handles coordinate reference system bookkeeping: code
// normalization, comparison, and reprojection of whole layers. A CRS is
// never guessed silently; defaults are assigned only at the documented
// ingestion and merge boundaries, and always logged.
package crs

import (
	"fmt"
	"regexp"
	"strings"
)

// MissingCRSError reports a layer that lacks a coordinate reference
// system where one is mandatory. Always fatal to the detecting operation.
type MissingCRSError struct {
	Dataset string
}

func (e *MissingCRSError) Error() string {
	return fmt.Sprintf("dataset %q is missing a CRS", e.Dataset)
}

var (
	urnEPSG = regexp.MustCompile(`(?i)^urn:ogc:def:crs:EPSG:[0-9.]*:(\d+)$`)
	bareNum = regexp.MustCompile(`^\d+$`)
)

// Normalize reduces the accepted spellings of a CRS identifier to the
// canonical "EPSG:NNNN" form. Unrecognized identifiers are upper-cased
// and returned as-is.
func Normalize(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if strings.EqualFold(code, "urn:ogc:def:crs:OGC:1.3:CRS84") ||
		strings.EqualFold(code, "CRS84") {
		return "EPSG:4326"
	}
	if m := urnEPSG.FindStringSubmatch(code); m != nil {
		return "EPSG:" + m[1]
	}
	if bareNum.MatchString(code) {
		return "EPSG:" + code
	}
	if i := strings.Index(code, ":"); i > 0 {
		return strings.ToUpper(code[:i]) + code[i:]
	}
	return strings.ToUpper(code)
}

// Equal compares two CRS identifiers after normalization, so equivalent
// authority spellings match even when the strings differ.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// geographicCodes lists the angular-unit reference systems the pipeline
// encounters. go-proj exposes no axis-unit query, so anything outside this
// set is treated as projected.
var geographicCodes = map[string]bool{
	"EPSG:4326": true,
	"EPSG:4269": true,
	"EPSG:4267": true,
	"EPSG:4258": true,
}

// IsGeographic reports whether the CRS uses angular (degree) units.
func IsGeographic(code string) bool {
	return geographicCodes[Normalize(code)]
}
