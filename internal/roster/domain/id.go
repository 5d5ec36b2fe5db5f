// Package domain holds the roster model and the employee id rules.
//
// Ids are scoped per company: EMP-{company}-{seq}, with seq zero padded to
// three digits and growing wider past 999. Rows created before company
// scoping carry the legacy form EMP{seq}.
package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// IDFormat classifies an employee id
type IDFormat int

const (
	FormatMalformed IDFormat = iota
	FormatScoped
	FormatLegacy
)

func (f IDFormat) String() string {
	switch f {
	case FormatScoped:
		return "scoped"
	case FormatLegacy:
		return "legacy"
	default:
		return "malformed"
	}
}

const idPrefix = "EMP"

// MaxSeq is the largest sequence an id may carry. Six digits keep the
// widest scoped id inside the 30 character id column.
const MaxSeq = 999999

// Column widths of the employees table
const (
	MaxIDLength    = 30
	MaxFieldLength = 100
)

// ParsedID is the decoded form of an employee id
type ParsedID struct {
	Format    IDFormat
	CompanyID int64
	Seq       int
}

// FormatID renders the scoped id for seq within a company
func FormatID(companyID int64, seq int) string {
	return fmt.Sprintf("%s-%d-%03d", idPrefix, companyID, seq)
}

// ParseID decodes id. EMP-12-007 is scoped (12, 7), EMP042 is legacy
// (seq 42), anything else is malformed. A sequence above MaxSeq is
// malformed in both forms.
func ParseID(id string) ParsedID {
	if !strings.HasPrefix(id, idPrefix) {
		return ParsedID{}
	}
	rest := id[len(idPrefix):]

	if !strings.HasPrefix(rest, "-") {
		seq, ok := parseDigits(rest)
		if !ok || seq > MaxSeq {
			return ParsedID{}
		}
		return ParsedID{Format: FormatLegacy, Seq: seq}
	}

	parts := strings.Split(rest[1:], "-")
	if len(parts) != 2 {
		return ParsedID{}
	}
	company, ok := parseDigits(parts[0])
	if !ok || company == 0 {
		return ParsedID{}
	}
	seq, ok := parseDigits(parts[1])
	if !ok || len(parts[1]) < 3 || seq > MaxSeq {
		return ParsedID{}
	}
	return ParsedID{Format: FormatScoped, CompanyID: int64(company), Seq: seq}
}

// parseDigits accepts ASCII digits only, no sign and no spaces
func parseDigits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// NextID computes the candidate id following lastID. Without a last id
// the sequence starts at 1. The sequence is the segment after the last
// dash. An id with fewer than two dashes (a legacy EMP042 for instance),
// or whose last segment is not a number, counts as 1.
func NextID(companyID int64, lastID string, found bool) string {
	if !found {
		return FormatID(companyID, 1)
	}
	return FormatID(companyID, lastSequence(lastID)+1)
}

// SequenceExhausted reports whether the id following lastID would pass
// MaxSeq
func SequenceExhausted(lastID string, found bool) bool {
	return found && lastSequence(lastID) >= MaxSeq
}

func lastSequence(lastID string) int {
	if strings.Count(lastID, "-") < 2 {
		return 1
	}
	n, ok := parseDigits(lastID[strings.LastIndex(lastID, "-")+1:])
	if !ok {
		return 1
	}
	return n
}

// IsOwnedBy reports whether id is a scoped id of companyID
func (p ParsedID) IsOwnedBy(companyID int64) bool {
	return p.Format == FormatScoped && p.CompanyID == companyID
}
