package domain

import (
	"regexp"
	"strings"
)

// IdentifierKind distinguishes the kinds of paper identifiers the service
// understands. Classification never fails: anything that does not match a
// structured pattern is treated as a title query.
type IdentifierKind string

// Identifier kind constants.
const (
	IdentifierDOI      IdentifierKind = "doi"
	IdentifierPreprint IdentifierKind = "arxiv"
	IdentifierPMID     IdentifierKind = "pmid"
	IdentifierTitle    IdentifierKind = "title"
)

// PaperIdentifier is the normalized form of a caller-supplied identifier
// string. Exactly one kind is active; Canonical holds the normalized value
// for that kind (DOI without URL prefix, preprint ID without version suffix,
// bare PMID digits, or the whitespace-collapsed title).
type PaperIdentifier struct {
	// Kind is the detected identifier kind.
	Kind IdentifierKind

	// Canonical is the normalized identifier string. For titles the original
	// casing is preserved for display; CacheKey lowercases it.
	Canonical string

	// Raw is the original input as received from the caller.
	Raw string
}

var (
	// Modern preprint IDs: NNNN.NNNNN with an optional version suffix,
	// optionally prefixed with "arxiv:" or an abs URL.
	preprintRegex = regexp.MustCompile(`(?i)^(?:arxiv:|https?://arxiv\.org/abs/)?(\d{4}\.\d{4,5})(v\d+)?$`)
	// Old-style preprint IDs such as "hep-ph/9901312".
	preprintOldRegex = regexp.MustCompile(`(?i)^([a-z-]+/\d{7})$`)
	// DOIs, optionally prefixed with "doi:" or a doi.org URL.
	doiRegex = regexp.MustCompile(`(?i)^(?:doi:|https?://(?:dx\.)?doi\.org/)?(10\.\d{4,9}/\S+)$`)
	// PMIDs: an optional "pmid:" prefix followed by 7-8 digits.
	pmidRegex = regexp.MustCompile(`(?i)^(?:pmid:?\s*)?(\d{7,8})$`)
)

// Classify inspects a raw identifier string and returns its normalized form.
// Matching order is preprint, DOI, PMID, then title fallback; the order
// matters because a bare "2303.08774" would otherwise be mistaken for a
// malformed DOI suffix. Classification is idempotent: classifying a canonical
// value yields the same kind and canonical string.
func Classify(raw string) PaperIdentifier {
	trimmed := strings.TrimSpace(raw)

	if m := preprintRegex.FindStringSubmatch(trimmed); m != nil {
		return PaperIdentifier{Kind: IdentifierPreprint, Canonical: m[1], Raw: raw}
	}
	if m := preprintOldRegex.FindStringSubmatch(trimmed); m != nil {
		return PaperIdentifier{Kind: IdentifierPreprint, Canonical: strings.ToLower(m[1]), Raw: raw}
	}
	if m := doiRegex.FindStringSubmatch(trimmed); m != nil {
		return PaperIdentifier{Kind: IdentifierDOI, Canonical: m[1], Raw: raw}
	}
	if m := pmidRegex.FindStringSubmatch(trimmed); m != nil {
		return PaperIdentifier{Kind: IdentifierPMID, Canonical: m[1], Raw: raw}
	}

	// Title fallback: collapse internal whitespace, keep casing for display.
	title := strings.Join(strings.Fields(trimmed), " ")
	return PaperIdentifier{Kind: IdentifierTitle, Canonical: title, Raw: raw}
}

// CacheKey returns the cache key for this identifier. DOIs and titles are
// lowercased so that equivalent inputs collapse to the same entry.
func (p PaperIdentifier) CacheKey() string {
	return string(p.Kind) + ":" + strings.ToLower(p.Canonical)
}

// IsEmpty reports whether the identifier carries no usable content
// (e.g. the caller passed an empty or all-whitespace string).
func (p PaperIdentifier) IsEmpty() bool {
	return p.Canonical == ""
}

// String returns a human-readable form for logging.
func (p PaperIdentifier) String() string {
	return string(p.Kind) + ":" + p.Canonical
}
