package edi

import "time"

// Stateless accessors over a flat segment sequence. All lookups follow
// the return-empty-on-absence contract: the reconciler layer decides
// whether a given absence is fatal.

// FindSegment returns the first segment with the given tag
func FindSegment(segments []Segment, tag string) (Segment, bool) {
	for _, seg := range segments {
		if seg.Tag == tag {
			return seg, true
		}
	}
	return Segment{}, false
}

// FindSegments returns all segments with the given tag, in document order
func FindSegments(segments []Segment, tag string) []Segment {
	var matches []Segment
	for _, seg := range segments {
		if seg.Tag == tag {
			matches = append(matches, seg)
		}
	}
	return matches
}

// EachSegment calls fn for every segment with the given tag, in
// document order.
func EachSegment(segments []Segment, tag string, fn func(Segment)) {
	for _, seg := range segments {
		if seg.Tag == tag {
			fn(seg)
		}
	}
}

// FindValueByQualifier scans segments with the given tag for the one
// whose element at qualifierPos equals qualifier, then returns the
// element at valuePos. Returns "" when no segment matches.
func FindValueByQualifier(segments []Segment, tag string, qualifierPos int, qualifier string, valuePos int) string {
	for _, seg := range segments {
		if seg.Tag == tag && seg.Value(qualifierPos) == qualifier {
			return seg.Value(valuePos)
		}
	}
	return ""
}

// FindSubValueByQualifier is FindValueByQualifier reading a 1-based
// sub-element of the target position.
func FindSubValueByQualifier(segments []Segment, tag string, qualifierPos int, qualifier string, valuePos, component int) string {
	for _, seg := range segments {
		if seg.Tag == tag && seg.Value(qualifierPos) == qualifier {
			return seg.SubValue(valuePos, component)
		}
	}
	return ""
}

// FindQualifiedPair reads qualifier/value pairs laid out within a
// single segment from startPos onward ((qualifier, value) at positions
// (p, p+1), stepping by two) and returns the value following the given
// qualifier. Used for PO1 and LIN identifier pairs.
func FindQualifiedPair(segment Segment, startPos int, qualifier string) string {
	for pos := startPos; pos <= segment.ElementCount(); pos += 2 {
		if segment.Value(pos) == qualifier {
			return segment.Value(pos + 1)
		}
	}
	return ""
}

// Compact date layouts accepted by ParseCompactDate
var compactDateLayouts = []string{
	"200601021504", // CCYYMMDDHHMM
	"20060102",     // CCYYMMDD
	"060102",       // YYMMDD
}

// ParseCompactDate parses the format's compact numeric date encoding.
// Malformed input yields nil, never an error, so callers can apply
// their own fallback.
func ParseCompactDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range compactDateLayouts {
		if len(raw) != len(layout) {
			continue
		}
		if parsed, err := time.Parse(layout, raw); err == nil {
			return &parsed
		}
	}
	return nil
}

// ParseCompactDateTime combines a compact date and an HHMM time into a
// single timestamp. A missing or malformed time yields midnight; a
// malformed date yields nil.
func ParseCompactDateTime(date, clock string) *time.Time {
	parsed := ParseCompactDate(date)
	if parsed == nil {
		return nil
	}
	if len(clock) == 4 {
		if withTime, err := time.Parse("200601021504", date+clock); err == nil {
			return &withTime
		}
	}
	return parsed
}
