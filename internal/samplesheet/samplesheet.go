package samplesheet

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"hifidel/internal/services"
)

// Header is the exact literal the first line must match.
const Header = "Barcode,Bio Sample"

// sampleNamePattern is the character whitelist for sample names. The same
// pattern is re-checked at job-generation time before a name is used as a
// filesystem path component.
var sampleNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Entry is one (barcode-pair-code, sample-name) row.
type Entry struct {
	Barcode string
	Sample  string
}

// Table is a validated, read-only sample mapping for one unit.
type Table struct {
	path    string
	entries []Entry
	byCode  map[string]string
}

// ValidationError reports the first structural violation found in a sample
// sheet, with its 1-based line number and offending content.
type ValidationError struct {
	Path    string
	Line    int
	Content string
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s (%q)", e.Path, e.Line, e.Reason, e.Content)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Unwrap ties every validation failure to the pipeline's validation marker.
func (e *ValidationError) Unwrap() error { return services.ErrValidation }

// Validate checks path against the sample sheet contract and stops at the
// first violation.
func Validate(path string) error {
	_, err := Load(path)
	return err
}

// Load validates path and returns the parsed mapping table.
func Load(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ValidationError{Path: path, Reason: "sample sheet does not exist"}
		}
		return nil, &ValidationError{Path: path, Reason: fmt.Sprintf("read failed: %v", err)}
	}

	// Carriage returns are rejected outright rather than auto-corrected;
	// upstream lab tooling is required to produce clean Unix files.
	if idx := bytes.IndexByte(raw, '\r'); idx >= 0 {
		line := 1 + bytes.Count(raw[:idx], []byte{'\n'})
		return nil, &ValidationError{
			Path:    path,
			Line:    line,
			Content: "\\r",
			Reason:  "carriage return found; sample sheets must use Unix line endings",
		}
	}

	lines := strings.Split(string(raw), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, &ValidationError{Path: path, Line: 1, Reason: "missing header"}
	}
	if lines[0] != Header {
		return nil, &ValidationError{
			Path:    path,
			Line:    1,
			Content: lines[0],
			Reason:  fmt.Sprintf("header must be exactly %q", Header),
		}
	}

	table := &Table{
		path:   path,
		byCode: make(map[string]string),
	}
	seenSamples := make(map[string]int)
	seenBarcodes := make(map[string]int)

	for i, line := range lines[1:] {
		lineNo := i + 2
		if line == "" {
			// Trailing newline produces one empty element; blank lines
			// elsewhere are malformed rows.
			if i == len(lines)-2 {
				continue
			}
			return nil, &ValidationError{Path: path, Line: lineNo, Reason: "blank line"}
		}

		fields := strings.Split(line, ",")
		if len(fields) != 2 {
			return nil, &ValidationError{
				Path:    path,
				Line:    lineNo,
				Content: line,
				Reason:  fmt.Sprintf("expected 2 columns, found %d", len(fields)),
			}
		}

		barcode := fields[0]
		sample := fields[1]
		if strings.TrimSpace(barcode) == "" {
			return nil, &ValidationError{Path: path, Line: lineNo, Content: line, Reason: "empty barcode"}
		}
		if strings.TrimSpace(sample) == "" {
			return nil, &ValidationError{Path: path, Line: lineNo, Content: line, Reason: "empty sample name"}
		}
		if !sampleNamePattern.MatchString(sample) {
			return nil, &ValidationError{
				Path:    path,
				Line:    lineNo,
				Content: line,
				Reason:  "sample name contains characters outside [A-Za-z0-9_.-]",
			}
		}
		if prev, ok := seenBarcodes[barcode]; ok {
			return nil, &ValidationError{
				Path:    path,
				Line:    lineNo,
				Content: line,
				Reason:  fmt.Sprintf("duplicate barcode %q (first seen on line %d)", barcode, prev),
			}
		}
		if prev, ok := seenSamples[sample]; ok {
			return nil, &ValidationError{
				Path:    path,
				Line:    lineNo,
				Content: line,
				Reason:  fmt.Sprintf("duplicate sample name %q (first seen on line %d)", sample, prev),
			}
		}

		seenBarcodes[barcode] = lineNo
		seenSamples[sample] = lineNo
		table.entries = append(table.entries, Entry{Barcode: barcode, Sample: sample})
		table.byCode[barcode] = sample
	}

	if len(table.entries) == 0 {
		return nil, &ValidationError{Path: path, Line: 1, Reason: "no sample rows"}
	}
	return table, nil
}

// Path returns the file this table was loaded from.
func (t *Table) Path() string { return t.path }

// Entries returns the rows in file order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of sample rows.
func (t *Table) Len() int { return len(t.entries) }

// LookupSample resolves a barcode-pair code to its sample name by exact key
// match. The boolean result distinguishes "not found" from an empty name.
func (t *Table) LookupSample(code string) (string, bool) {
	sample, ok := t.byCode[code]
	return sample, ok
}

// ValidSampleName re-checks the character whitelist on a runtime value
// before it is interpolated into an output path.
func ValidSampleName(name string) bool {
	return sampleNamePattern.MatchString(name)
}
