package ingest

import (
	"fmt"
	"strings"
)

// Kind names which of the two reports a payload holds.
type Kind string

const (
	Opportunities Kind = "opportunities"
	LineItems     Kind = "line_items"
)

// ParseKind accepts the spellings used in URLs and flags.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "opportunities", "opportunity", "opps":
		return Opportunities, nil
	case "line_items", "line-items", "lineitems", "items":
		return LineItems, nil
	}
	return "", fmt.Errorf("unknown report kind %q", s)
}

// Label is the human name used in error messages.
func (k Kind) Label() string {
	switch k {
	case Opportunities:
		return "Opportunities"
	case LineItems:
		return "Line items"
	}
	return string(k)
}

// FileReadError means the payload bytes could not be read at all.
type FileReadError struct{ Err error }

func (e *FileReadError) Error() string {
	if e.Err == nil {
		return "Failed to read file"
	}
	return "Failed to read file: " + e.Err.Error()
}
func (e *FileReadError) Unwrap() error { return e.Err }

// ParseError means the bytes are not a workbook we can decode.
type ParseError struct{ Err error }

func (e *ParseError) Error() string { return "Failed to parse Excel file: " + e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError lists the required columns absent from a report.
type ValidationError struct {
	Kind    Kind
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s file validation failed: Missing required columns: %s",
		e.Kind.Label(), strings.Join(e.Missing, ", "))
}

// NoDataError means the report decoded to zero usable rows.
type NoDataError struct{ Kind Kind }

func (e *NoDataError) Error() string {
	return e.Kind.Label() + " file validation failed: " + msgNoData
}

const msgNoData = "No data found in file"
