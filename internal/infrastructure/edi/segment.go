package edi

import "strings"

// Wire format separators. The terminator also tolerates newlines so
// that line-broken test fixtures and pretty-printed files parse the
// same as production payloads.
const (
	ElementSeparator    = '*'
	SubElementSeparator = '>'
	SegmentTerminator   = '~'
)

// Element is one field of a segment: either a scalar string or an
// ordered list of sub-elements (composite element).
type Element struct {
	value      string
	components []string
}

// Value returns the scalar value. For a composite element this is the
// raw joined form.
func (e Element) Value() string {
	return e.value
}

// IsComposite reports whether the element has sub-elements
func (e Element) IsComposite() bool {
	return len(e.components) > 1
}

// Component returns the 1-based sub-element, or "" when out of range.
// A scalar element answers its whole value at component 1.
func (e Element) Component(index int) string {
	if index < 1 {
		return ""
	}
	if len(e.components) == 0 {
		if index == 1 {
			return e.value
		}
		return ""
	}
	if index > len(e.components) {
		return ""
	}
	return e.components[index-1]
}

// newElement parses one raw element, splitting composites
func newElement(raw string) Element {
	if strings.ContainsRune(raw, SubElementSeparator) {
		return Element{
			value:      raw,
			components: strings.Split(raw, string(SubElementSeparator)),
		}
	}
	return Element{value: raw}
}

// Segment is one tagged record of a transaction: a tag plus an ordered
// list of elements. Immutable once parsed.
type Segment struct {
	Tag      string
	elements []Element
}

// ParseSegment parses one raw segment line (without its terminator)
func ParseSegment(raw string) Segment {
	parts := strings.Split(raw, string(ElementSeparator))
	seg := Segment{Tag: strings.TrimSpace(parts[0])}
	if len(parts) > 1 {
		seg.elements = make([]Element, 0, len(parts)-1)
		for _, part := range parts[1:] {
			seg.elements = append(seg.elements, newElement(part))
		}
	}
	return seg
}

// Value returns the element at the 1-based position, or "" when the
// position is missing. Missing data never raises at this layer.
func (s Segment) Value(position int) string {
	if position < 1 || position > len(s.elements) {
		return ""
	}
	return s.elements[position-1].value
}

// SubValue returns the 1-based sub-element at the given element
// position, or "" when either index is out of range.
func (s Segment) SubValue(position, component int) string {
	if position < 1 || position > len(s.elements) {
		return ""
	}
	return s.elements[position-1].Component(component)
}

// ElementCount returns the number of elements in the segment
func (s Segment) ElementCount() int {
	return len(s.elements)
}

// Element returns the element at the 1-based position
func (s Segment) Element(position int) (Element, bool) {
	if position < 1 || position > len(s.elements) {
		return Element{}, false
	}
	return s.elements[position-1], true
}
