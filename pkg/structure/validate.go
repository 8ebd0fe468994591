package structure

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/mountscan/pkg/element"
	"github.com/chazu/mountscan/pkg/geom"
	"github.com/chazu/mountscan/pkg/spatial"
)

// ValidationSeverity indicates whether a finding blocks a search or is
// merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks the search
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Atom     int                // offending atom index, -1 if model-level
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Atom < 0 {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] atom %d: %s", e.Severity, e.Atom, e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	Atom    int
	Message string
}

// ValidationResult bundles errors (blocking) and warnings (advisory)
// from all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// Err joins the blocking findings into one error, or returns nil.
func (r ValidationResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// CloseContactFactor is the fraction of the ideal bond length below which
// two atoms are reported as a close contact.
const CloseContactFactor = 0.6

// Validate runs the Tier 1 structural checks. An empty slice means the
// model is well formed. The model is never mutated.
func Validate(m *Model) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateAtoms(m)...)
	errs = append(errs, validateCheck(m)...)
	return errs
}

// ValidateAll runs the structural checks followed by the Tier 2 geometric
// checks and separates errors from warnings.
func ValidateAll(m *Model) ValidationResult {
	var result ValidationResult
	for _, e := range Validate(m) {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, ValidationWarning{Atom: e.Atom, Message: e.Message})
		} else {
			result.Errors = append(result.Errors, e)
		}
	}
	// Geometry is meaningless on a malformed model.
	if len(result.Errors) > 0 {
		return result
	}

	errs, warnings := validateGeometry(m)
	result.Errors = append(result.Errors, errs...)
	result.Warnings = append(result.Warnings, warnings...)
	return result
}

// ---------------------------------------------------------------------------
// Tier 1: structural
// ---------------------------------------------------------------------------

func validateAtoms(m *Model) []ValidationError {
	if len(m.Atoms) == 0 {
		return []ValidationError{{Atom: -1, Message: "model has no atoms", Severity: SeverityError}}
	}

	var errs []ValidationError
	for i, a := range m.Atoms {
		if a.Index != i {
			errs = append(errs, ValidationError{
				Atom:     i,
				Message:  fmt.Sprintf("index field is %d, expected %d", a.Index, i),
				Severity: SeverityError,
			})
		}
		if !element.Known(a.Symbol) {
			errs = append(errs, ValidationError{
				Atom:     i,
				Message:  fmt.Sprintf("unknown element %q", a.Symbol),
				Severity: SeverityError,
			})
		}
		if !finite(a.Coord.X) || !finite(a.Coord.Y) || !finite(a.Coord.Z) {
			errs = append(errs, ValidationError{
				Atom:     i,
				Message:  fmt.Sprintf("coordinate %v is not finite", a.Coord),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

func validateCheck(m *Model) []ValidationError {
	var errs []ValidationError
	seen := make(map[int]bool)
	for _, id := range m.Check {
		if id < 0 || id >= len(m.Atoms) {
			errs = append(errs, ValidationError{
				Atom:     -1,
				Message:  fmt.Sprintf("check atom %d out of range (model has %d atoms)", id, len(m.Atoms)),
				Severity: SeverityError,
			})
			continue
		}
		if seen[id] {
			errs = append(errs, ValidationError{
				Atom:     id,
				Message:  "listed more than once as a check atom",
				Severity: SeverityWarning,
			})
		}
		seen[id] = true
	}
	if m.CheckBox != nil && m.CheckBox.Inverted() {
		errs = append(errs, ValidationError{
			Atom:     -1,
			Message:  fmt.Sprintf("check box max %v is below min %v", m.CheckBox.Max, m.CheckBox.Min),
			Severity: SeverityError,
		})
	}
	return errs
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ---------------------------------------------------------------------------
// Tier 2: geometric
// ---------------------------------------------------------------------------

// validateGeometry reports coincident atoms as errors and close contacts
// and empty check boxes as warnings. It assumes Tier 1 passed.
func validateGeometry(m *Model) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	maxRadius := 0.0
	for _, a := range m.Atoms {
		e, _ := element.Lookup(a.Symbol)
		maxRadius = math.Max(maxRadius, e.CovalentRadius)
	}

	ix := spatial.New(m.Coords())
	reach := 2 * maxRadius * CloseContactFactor
	for i, a := range m.Atoms {
		for _, nb := range ix.Within(a.Coord, reach) {
			j := nb.ID
			if j <= i {
				continue
			}
			if nb.Dist < geom.Epsilon {
				errs = append(errs, ValidationError{
					Atom:     j,
					Message:  fmt.Sprintf("coincides with atom %d", i),
					Severity: SeverityError,
				})
				continue
			}
			ideal, _ := element.IdealBondLength(a.Symbol, m.Atoms[j].Symbol)
			if nb.Dist < CloseContactFactor*ideal {
				warnings = append(warnings, ValidationWarning{
					Atom:    j,
					Message: fmt.Sprintf("close contact with atom %d: %.3f < %.3f", i, nb.Dist, CloseContactFactor*ideal),
				})
			}
		}
	}

	if m.CheckBox != nil && len(m.Check) == 0 && len(m.CheckIDs()) == 0 {
		warnings = append(warnings, ValidationWarning{
			Atom:    -1,
			Message: "check box contains no atoms",
		})
	}
	return errs, warnings
}
