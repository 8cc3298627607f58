package references

import (
	"errors"
	"fmt"
)

// ErrNoWorkingReferences is reported under the strict policy when a section
// ends with zero working references. It is a policy outcome, not a fault:
// callers typically render the section without a references block.
var ErrNoWorkingReferences = errors.New("no working references")

// NoWorkingReferencesError carries the details behind ErrNoWorkingReferences.
type NoWorkingReferencesError struct {
	SectionID  string
	Candidates int
	Rejections []Rejection
}

func (e *NoWorkingReferencesError) Error() string {
	if e.Candidates == 0 {
		return fmt.Sprintf("section %q: %v: no citation candidates found", e.SectionID, ErrNoWorkingReferences)
	}
	return fmt.Sprintf("section %q: %v: all %d candidates failed validation", e.SectionID, ErrNoWorkingReferences, e.Candidates)
}

func (e *NoWorkingReferencesError) Unwrap() error { return ErrNoWorkingReferences }
