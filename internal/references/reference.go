package references

import (
	"fmt"
	"strings"

	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/citations"
	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/sources"
)

// Policy decides what happens when validation leaves a section without
// working references.
type Policy string

const (
	// PolicyStrict keeps only validated references and reports an empty
	// result as ErrNoWorkingReferences.
	PolicyStrict Policy = "strict"
	// PolicyFallback substitutes sector defaults when nothing was cited,
	// and returns an empty list when everything cited failed.
	PolicyFallback Policy = "fallback"
)

// ParsePolicy parses a policy name. An empty string selects PolicyStrict.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyStrict:
		return PolicyStrict, nil
	case PolicyFallback:
		return PolicyFallback, nil
	default:
		return "", fmt.Errorf("unknown reference policy %q", s)
	}
}

// Reference is a validated, classified citation attached to a section.
type Reference struct {
	Title    string           `json:"title"`
	URL      string           `json:"url"`
	Source   string           `json:"source"`
	Category sources.Category `json:"category"`
}

// Section is one brief section to assemble references for.
type Section struct {
	ID      string
	Sector  string
	Content string
	// Citations are the citation objects the generation service reported
	// alongside the text; may be empty.
	Citations []citations.RawCitation
	// Policy overrides the assembler's configured policy when set.
	Policy Policy
}

// Outcome labels how an assembly ended.
type Outcome string

const (
	OutcomeAccepted            Outcome = "accepted"
	OutcomeSectorDefaults      Outcome = "sector_defaults"
	OutcomeEmpty               Outcome = "empty"
	OutcomeNoWorkingReferences Outcome = "no_working_references"
)

// Rejection records a candidate that failed validation.
type Rejection struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
	Status int    `json:"status,omitempty"`
}

// Report is the full record of one assembly.
type Report struct {
	SectionID  string
	Sector     string
	Policy     Policy
	Outcome    Outcome
	Candidates int
	References []Reference
	Rejections []Rejection
}
