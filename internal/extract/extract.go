// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract converts a sample record into two normalized text
// blobs: a primary blob from high-trust fields and a secondary blob
// from contextual fields. Extraction is total over missing and empty
// fields; an entirely empty record yields two empty strings.
// See docs/ARCHITECTURE § Field Extraction.
package extract

import (
	"strings"
	"unicode"

	"github.com/meshbio/seqtriage/pkg/types"
)

// Extracted holds the normalized text for one record. Derived and
// ephemeral; recomputed per record.
type Extracted struct {
	// Primary is the normalized concatenation of the high-trust fields.
	Primary string

	// Secondary is the normalized concatenation of the contextual fields.
	Secondary string
}

// Empty reports whether no field in either tier carried text.
func (e Extracted) Empty() bool {
	return e.Primary == "" && e.Secondary == ""
}

// Extract concatenates the present, non-empty values of each field
// tier in order, then lowercases and collapses repeated whitespace and
// punctuation. Missing fields are silently skipped.
func Extract(record types.SampleRecord, cfg types.ExtractConfig) Extracted {
	return Extracted{
		Primary:   Normalize(concat(record, cfg.PrimaryFields)),
		Secondary: Normalize(concat(record, cfg.SecondaryFields)),
	}
}

func concat(record types.SampleRecord, fields []string) string {
	var parts []string
	for _, f := range fields {
		v := strings.TrimSpace(record.Get(f))
		if v == "" || strings.EqualFold(v, "nan") {
			continue
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, " ")
}

// Normalize lowercases s and collapses runs of whitespace and repeated
// punctuation into single characters. Word-internal punctuation such as
// the hyphen in "ovcar-3" is preserved so token matching still sees it.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range s {
		if unicode.IsSpace(r) {
			r = ' '
		}
		if r == prev && (r == ' ' || unicode.IsPunct(r)) {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return strings.TrimSpace(b.String())
}
