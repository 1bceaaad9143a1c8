package ingest

import (
	"strconv"
	"strings"
	"time"
)

// ParsedRecord is one line of a text report after tokenizing.
type ParsedRecord struct {
	Name     string
	Date     time.Time
	Material string
	PSI      float64
	X, Y     float64
}

// ParseIssue describes a line that could not be turned into a record.
// Issues are logged and the line skipped; they never abort a report.
type ParseIssue struct {
	Line   int
	Reason string
}

// ParseLine tokenizes one report line. Comma-separated lines and short
// whitespace lines use the delimited layout (name, date, material, psi,
// x, y); long whitespace lines use the legacy fixed-position layout still
// produced by older survey tooling.
func ParseLine(lineNo int, line string) (ParsedRecord, *ParseIssue) {
	if strings.Contains(line, ",") {
		return parseDelimited(lineNo, splitTrim(line, ","))
	}
	tokens := strings.Fields(line)
	if len(tokens) >= 8 {
		return parseLegacy(lineNo, tokens)
	}
	return parseDelimited(lineNo, tokens)
}

func splitTrim(line, sep string) []string {
	parts := strings.Split(line, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// parseDelimited reads name, date, material, psi, x, y. Extra trailing
// tokens are dropped.
func parseDelimited(lineNo int, tokens []string) (ParsedRecord, *ParseIssue) {
	if len(tokens) < 6 {
		return ParsedRecord{}, &ParseIssue{Line: lineNo, Reason: "fewer than 6 fields"}
	}
	psi, err := strconv.ParseFloat(tokens[3], 64)
	if err != nil {
		return ParsedRecord{}, &ParseIssue{Line: lineNo, Reason: "unparseable psi " + strconv.Quote(tokens[3])}
	}
	x, err := strconv.ParseFloat(tokens[4], 64)
	if err != nil {
		return ParsedRecord{}, &ParseIssue{Line: lineNo, Reason: "unparseable x " + strconv.Quote(tokens[4])}
	}
	y, err := strconv.ParseFloat(tokens[5], 64)
	if err != nil {
		return ParsedRecord{}, &ParseIssue{Line: lineNo, Reason: "unparseable y " + strconv.Quote(tokens[5])}
	}
	return ParsedRecord{
		Name:     tokens[0],
		Date:     ParseReportDate(tokens[1]),
		Material: strings.ToLower(tokens[2]),
		PSI:      psi,
		X:        x,
		Y:        y,
	}, nil
}

// parseLegacy reads the fixed-position layout: token 1 name, 2 x, 3 y,
// 5 date, 6 psi, 7 material (token 0 and 4 are record ids the pipeline
// does not use).
func parseLegacy(lineNo int, tokens []string) (ParsedRecord, *ParseIssue) {
	x, err := strconv.ParseFloat(tokens[2], 64)
	if err != nil {
		return ParsedRecord{}, &ParseIssue{Line: lineNo, Reason: "unparseable x " + strconv.Quote(tokens[2])}
	}
	y, err := strconv.ParseFloat(tokens[3], 64)
	if err != nil {
		return ParsedRecord{}, &ParseIssue{Line: lineNo, Reason: "unparseable y " + strconv.Quote(tokens[3])}
	}
	psi, err := strconv.ParseFloat(tokens[6], 64)
	if err != nil {
		return ParsedRecord{}, &ParseIssue{Line: lineNo, Reason: "unparseable psi " + strconv.Quote(tokens[6])}
	}
	return ParsedRecord{
		Name:     tokens[1],
		X:        x,
		Y:        y,
		Date:     ParseReportDate(tokens[5]),
		PSI:      psi,
		Material: strings.ToLower(tokens[7]),
	}, nil
}

// isHeaderLine reports whether a line looks like a column header rather
// than a record.
func isHeaderLine(line string) bool {
	lower := strings.ToLower(line)
	return strings.Contains(lower, "name") && strings.Contains(lower, "date")
}
