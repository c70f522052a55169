package reconcile

import (
	"fmt"
	"strings"
)

// RuleViolation categorizes a business-rule problem: the document is
// structurally valid but references domain data the system does not
// currently have.
type RuleViolation string

const (
	RuleMissingOrder     RuleViolation = "missing_order"
	RuleMissingOrderLine RuleViolation = "missing_order_line"
	RuleMissingContainer RuleViolation = "missing_container"
)

// ruleHeadings are the operator-facing group labels, in report order
var ruleHeadings = []struct {
	category RuleViolation
	heading  string
}{
	{RuleMissingOrder, "unknown orders"},
	{RuleMissingOrderLine, "unknown order lines"},
	{RuleMissingContainer, "shipments missing container data"},
}

// RuleViolations accumulates distinct human-readable identifiers per
// violation category across one reconciliation run. It is never shared
// across transactions.
type RuleViolations struct {
	identifiers map[RuleViolation][]string
	seen        map[RuleViolation]map[string]struct{}
}

// NewRuleViolations creates an empty violation collection
func NewRuleViolations() *RuleViolations {
	return &RuleViolations{
		identifiers: make(map[RuleViolation][]string),
		seen:        make(map[RuleViolation]map[string]struct{}),
	}
}

// Add records an identifier under a category, deduplicating repeats
func (v *RuleViolations) Add(category RuleViolation, identifier string) {
	if v.seen[category] == nil {
		v.seen[category] = make(map[string]struct{})
	}
	if _, dup := v.seen[category][identifier]; dup {
		return
	}
	v.seen[category][identifier] = struct{}{}
	v.identifiers[category] = append(v.identifiers[category], identifier)
}

// HasViolations reports whether anything has been recorded
func (v *RuleViolations) HasViolations() bool {
	return len(v.identifiers) > 0
}

// Identifiers returns the recorded identifiers for a category, in the
// order they were first seen.
func (v *RuleViolations) Identifiers(category RuleViolation) []string {
	return v.identifiers[category]
}

// Err converts the collection into a single aggregated error, or nil
// when nothing was recorded.
func (v *RuleViolations) Err() error {
	if !v.HasViolations() {
		return nil
	}
	return &BusinessRuleError{Violations: v}
}

// BusinessRuleError is the single aggregated error raised at the end of
// a structurally valid parse whose domain lookups failed. The message
// enumerates every accumulated identifier so operators can fix the
// complete list in one pass; it is meant for people, not machines.
type BusinessRuleError struct {
	Violations *RuleViolations
}

// Error implements the error interface
func (e *BusinessRuleError) Error() string {
	var groups []string
	for _, entry := range ruleHeadings {
		ids := e.Violations.Identifiers(entry.category)
		if len(ids) == 0 {
			continue
		}
		groups = append(groups, fmt.Sprintf("%s: %s", entry.heading, strings.Join(ids, ", ")))
	}
	return fmt.Sprintf("document references data this system does not have; %s", strings.Join(groups, "; "))
}
