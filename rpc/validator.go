package rpc

import "regexp"

// ValueRule constrains one numeric parameter position by range and/or an
// allowed-value set.
type ValueRule struct {
	Index         int
	HasRange      bool
	Min, Max      int
	AllowedValues []int
}

func (r ValueRule) check(p CommandParams) bool {
	if r.Index < 0 || r.Index >= len(p.Numeric) {
		return false
	}
	v := p.Numeric[r.Index]
	if r.HasRange && (v < r.Min || v > r.Max) {
		return false
	}
	if len(r.AllowedValues) > 0 {
		ok := false
		for _, a := range r.AllowedValues {
			if a == v {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// StringRule constrains one string parameter position by max length
// and/or a regular expression pattern.
type StringRule struct {
	Index     int
	MaxLen    int
	Pattern   *regexp.Regexp
}

func (r StringRule) check(p CommandParams) bool {
	if r.Index < 0 || r.Index >= len(p.Strings) {
		return false
	}
	s := p.Strings[r.Index]
	if r.MaxLen > 0 && len(s) > r.MaxLen {
		return false
	}
	if r.Pattern != nil && !r.Pattern.MatchString(s) {
		return false
	}
	return true
}

// ParameterValidator holds the full rule set for one registered command.
// Validation is deterministic and never panics, including on empty,
// zero-filled, boundary, control-character and Unicode-heavy inputs.
type ParameterValidator struct {
	ValueRules          []ValueRule
	StringRules         []StringRule
	MaxNumeric          int
	MaxStrings          int
	IsSecuritySensitive bool
}

// ValidationResult reports the verdict of applying a ParameterValidator.
type ValidationResult struct {
	Valid               bool
	ErrorType           ErrorType
	IsSecurityViolation bool
}

// Validate applies v to p. A nil validator always succeeds.
func (v *ParameterValidator) Validate(p CommandParams) ValidationResult {
	if v == nil {
		return ValidationResult{Valid: true}
	}

	if v.MaxNumeric > 0 && len(p.Numeric) > v.MaxNumeric {
		return v.fail(ErrorTooManyParameters)
	}
	if v.MaxStrings > 0 && len(p.Strings) > v.MaxStrings {
		return v.fail(ErrorTooManyParameters)
	}
	for _, r := range v.ValueRules {
		if !r.check(p) {
			return v.fail(ErrorInvalidValue)
		}
	}
	for _, r := range v.StringRules {
		if !r.check(p) {
			return v.fail(ErrorInvalidValue)
		}
	}
	return ValidationResult{Valid: true}
}

func (v *ParameterValidator) fail(kind ErrorType) ValidationResult {
	if v.IsSecuritySensitive {
		return ValidationResult{Valid: false, ErrorType: ErrorSecurityViolation, IsSecurityViolation: true}
	}
	return ValidationResult{Valid: false, ErrorType: kind}
}
