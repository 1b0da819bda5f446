package person

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// CURP: 4 uppercase letters, 6 digits, sex marker H or M, 5 uppercase
	// letters, 2 alphanumerics.
	curpPattern  = regexp.MustCompile(`^[A-Z]{4}\d{6}[HM][A-Z]{5}[A-Z0-9]{2}$`)
	phonePattern = regexp.MustCompile(`^\d{10,15}$`)
)

// FieldError describes a single invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every violated field of one input. It is returned
// before any persistence happens; a failed validation never partially applies.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a field violation.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any field was violated.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	ve, ok := err.(*ValidationError)
	return ve, ok
}

// ValidCURP reports whether s matches the national identity code format.
func ValidCURP(s string) bool {
	return curpPattern.MatchString(s)
}

// ValidPhone reports whether s is 10 to 15 digits.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// Validate checks the demographic fields and returns a *ValidationError
// listing every violation, or nil when the person is well formed. It is a
// pure check and touches no storage.
func (p Person) Validate() error {
	ve := &ValidationError{}

	if p.Name == "" {
		ve.Add("name", "is required")
	}
	if p.CURP == "" {
		ve.Add("curp", "is required")
	} else if !ValidCURP(p.CURP) {
		ve.Add("curp", "must match the CURP format")
	}
	if p.BirthDate.IsZero() {
		ve.Add("birth_date", "is required")
	}
	switch p.Gender {
	case "M", "F", "O":
	case "":
		ve.Add("gender", "is required")
	default:
		ve.Add("gender", "must be one of M, F, O")
	}
	if p.PhoneNumber == "" {
		ve.Add("phone_number", "is required")
	} else if !ValidPhone(p.PhoneNumber) {
		ve.Add("phone_number", "must contain only digits and be between 10 and 15 characters long")
	}
	if p.Email == "" {
		ve.Add("email", "is required")
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}
