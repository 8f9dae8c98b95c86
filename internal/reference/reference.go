// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reference loads known cell-line names into a matchable,
// read-only pattern set. The set is loaded once at startup and is safe
// for concurrent readers.
// See docs/ARCHITECTURE § Reference Set.
package reference

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/meshbio/seqtriage/pkg/types"
)

// defaultNameColumns are the header names recognized as cell-line name
// columns when the configuration does not list its own.
var defaultNameColumns = []string{
	"CellLineName", "StrippedCellLineName", "name", "cell_line_name",
}

// LoadError reports an unusable reference source. It is fatal to a
// classification run unless keyword-only mode is enabled.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading reference set %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Match is one reference pattern found in a text.
type Match struct {
	// Pattern is the normalized pattern that matched.
	Pattern string

	// Display is the original name the pattern was registered under.
	Display string
}

// Set is an indexed collection of cell-line name patterns. Read-only
// after Load; FindMatches may be called from multiple goroutines.
type Set struct {
	patterns []string          // registration order, deduplicated
	display  map[string]string // pattern -> original display name
	minLen   int
}

// Load reads a tabular reference source (CSV or TSV by extension) and
// registers each name column value plus its separator-stripped variant
// as patterns. Patterns shorter than the configured minimum length are
// skipped. It returns a LoadError when the source is unreadable or
// yields no usable patterns.
func Load(cfg types.ReferenceConfig) (*Set, error) {
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, &LoadError{Path: cfg.Path, Err: err}
	}
	defer f.Close()

	s, err := Read(f, cfg, delimiterFor(cfg.Path))
	if err != nil {
		return nil, &LoadError{Path: cfg.Path, Err: err}
	}
	return s, nil
}

// Read parses a reference table from r. Exposed separately from Load so
// tests and callers with in-memory sources can build a Set without a file.
func Read(r io.Reader, cfg types.ReferenceConfig, delimiter rune) (*Set, error) {
	minLen := cfg.MinPatternLength
	if minLen <= 0 {
		minLen = 3
	}

	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	nameCols := cfg.NameColumns
	if len(nameCols) == 0 {
		nameCols = defaultNameColumns
	}

	var cols []int
	for i, h := range header {
		for _, want := range nameCols {
			if strings.EqualFold(strings.TrimSpace(h), want) {
				cols = append(cols, i)
				break
			}
		}
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("no usable name column (looked for %v)", nameCols)
	}

	s := &Set{
		display: make(map[string]string),
		minLen:  minLen,
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		for _, c := range cols {
			if c >= len(row) {
				continue
			}
			s.register(row[c])
		}
	}

	if len(s.patterns) == 0 {
		return nil, fmt.Errorf("no patterns of length >= %d found", minLen)
	}
	return s, nil
}

// NewFromNames builds a Set directly from a list of names. Used by
// tests and by callers that already hold the reference list in memory.
func NewFromNames(names []string, minPatternLength int) *Set {
	if minPatternLength <= 0 {
		minPatternLength = 3
	}
	s := &Set{
		display: make(map[string]string),
		minLen:  minPatternLength,
	}
	for _, n := range names {
		s.register(n)
	}
	return s
}

// register adds the lowercased name and its separator-stripped variant
// as patterns, keeping the first display name seen for each.
func (s *Set) register(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}

	s.add(strings.ToLower(name), name)
	if stripped := stripSeparators(strings.ToLower(name)); stripped != strings.ToLower(name) {
		s.add(stripped, name)
	}
}

func (s *Set) add(pattern, display string) {
	if utf8.RuneCountInString(pattern) < s.minLen {
		return
	}
	if _, ok := s.display[pattern]; ok {
		return
	}
	s.patterns = append(s.patterns, pattern)
	s.display[pattern] = display
}

// Len returns the number of registered patterns.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.patterns)
}

// FindMatches returns the distinct registered patterns that occur in
// text as whole tokens, in registration order. Matching is
// case-insensitive; a pattern must be delimited by non-alphanumeric
// characters or the text edge on both sides, so "GOLGI" does not match
// inside "GOLGIN84". A nil or empty set matches nothing.
func (s *Set) FindMatches(text string) []Match {
	if s == nil || text == "" {
		return nil
	}
	text = strings.ToLower(text)

	var matches []Match
	for _, p := range s.patterns {
		if ContainsToken(text, p) {
			matches = append(matches, Match{Pattern: p, Display: s.display[p]})
		}
	}
	return matches
}

// ContainsToken reports whether pattern occurs in text delimited by
// non-alphanumeric characters or the text boundary. An empty pattern
// matches nothing. Shared with the scorer so keyword and reference
// matching carry the same boundary semantics.
func ContainsToken(text, pattern string) bool {
	if pattern == "" {
		return false
	}
	for start := 0; ; {
		i := strings.Index(text[start:], pattern)
		if i < 0 {
			return false
		}
		i += start

		before, _ := utf8.DecodeLastRuneInString(text[:i])
		after, _ := utf8.DecodeRuneInString(text[i+len(pattern):])
		if !isWordRune(before) && !isWordRune(after) {
			return true
		}
		start = i + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// stripSeparators removes whitespace and punctuation, leaving only
// letters and digits ("OVCAR-3" -> "ovcar3").
func stripSeparators(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isWordRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// delimiterFor picks the field delimiter from the file extension:
// tab for .tsv/.tab/.txt, comma otherwise.
func delimiterFor(path string) rune {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".tab", ".txt":
		return '\t'
	default:
		return ','
	}
}
