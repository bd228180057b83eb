package types

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Field size limits enforced client-side. The store carries matching check
// constraints as the last line of defense.
const (
	MaxDepartmentNameLen = 50
	MaxLocationLen       = 50
	MaxPersonNameLen     = 100
	MaxProjectNameLen    = 100
	MaxEmailLen          = 255
)

// validate is the shared validator instance. It holds no request state, only
// the compiled rule set from the struct tags in records.go.
var validate = validator.New()

// Validate runs struct-tag validation on a record and translates failures
// into a ValidationError whose details map each failing field to the rule it
// broke. Repositories call this before any statement reaches the store.
func Validate(rec any) error {
	err := validate.Struct(rec)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// Non-struct input; a programming error, not bad caller data.
		return NewAppError(ErrCodeInternal, "value cannot be validated", err)
	}

	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = fe.Tag()
	}
	return NewAppErrorWithDetails(
		ErrCodeValidation,
		fmt.Sprintf("%d field(s) failed validation", len(fieldErrs)),
		err,
		details,
	)
}

// ValidateDepartment checks the record-level rules for a department.
func ValidateDepartment(d *Department) error {
	return Validate(d)
}

// ValidateEmployee checks name, email format/length, and positive salary.
func ValidateEmployee(e *Employee) error {
	return Validate(e)
}

// ValidateProject checks tagged rules plus the cross-field date rule: an end
// date, when present, must not precede the start date.
func ValidateProject(p *Project) error {
	if err := Validate(p); err != nil {
		return err
	}
	return validateDateOrder(p.StartDate, p.EndDate)
}

// ValidateDepartmentPatch rejects patches that would write an invalid value.
// Absent fields are not checked; they stay as stored.
func ValidateDepartmentPatch(p DepartmentPatch) error {
	if p.Name != nil {
		if *p.Name == "" {
			return fieldError("Name", "required", "name cannot be cleared")
		}
		if utf8.RuneCountInString(*p.Name) > MaxDepartmentNameLen {
			return fieldError("Name", "max", fmt.Sprintf("name exceeds %d characters", MaxDepartmentNameLen))
		}
	}
	if p.Location.Set && p.Location.Value != nil && utf8.RuneCountInString(*p.Location.Value) > MaxLocationLen {
		return fieldError("Location", "max", fmt.Sprintf("location exceeds %d characters", MaxLocationLen))
	}
	return nil
}

// ValidateEmployeePatch rejects patches that would write an invalid value.
func ValidateEmployeePatch(p EmployeePatch) error {
	if p.Name != nil {
		if *p.Name == "" {
			return fieldError("Name", "required", "name cannot be cleared")
		}
		if utf8.RuneCountInString(*p.Name) > MaxPersonNameLen {
			return fieldError("Name", "max", fmt.Sprintf("name exceeds %d characters", MaxPersonNameLen))
		}
	}
	if p.Email != nil {
		if err := validate.Var(*p.Email, fmt.Sprintf("required,email,max=%d", MaxEmailLen)); err != nil {
			return fieldError("Email", "email", "email is not valid")
		}
	}
	if p.Salary != nil && *p.Salary <= 0 {
		return fieldError("Salary", "gt", "salary must be positive")
	}
	if p.DepartmentID.Set && p.DepartmentID.Value != nil && *p.DepartmentID.Value <= 0 {
		return fieldError("DepartmentID", "gt", "department reference must be a positive id")
	}
	return nil
}

// ValidateProjectPatch rejects patches that would write an invalid value.
// The date order rule is checked here only when the patch supplies both
// sides; when one side stays as stored, the store's check constraint makes
// the final call and the failure surfaces as a ConstraintViolation.
func ValidateProjectPatch(p ProjectPatch) error {
	if p.Name != nil {
		if *p.Name == "" {
			return fieldError("Name", "required", "name cannot be cleared")
		}
		if utf8.RuneCountInString(*p.Name) > MaxProjectNameLen {
			return fieldError("Name", "max", fmt.Sprintf("name exceeds %d characters", MaxProjectNameLen))
		}
	}
	if p.StartDate != nil && p.StartDate.IsZero() {
		return fieldError("StartDate", "required", "start date cannot be cleared")
	}
	if p.StartDate != nil && p.EndDate.Set && p.EndDate.Value != nil {
		if err := validateDateOrder(*p.StartDate, p.EndDate.Value); err != nil {
			return err
		}
	}
	if p.EmployeeID.Set && p.EmployeeID.Value != nil && *p.EmployeeID.Value <= 0 {
		return fieldError("EmployeeID", "gt", "employee reference must be a positive id")
	}
	return nil
}

// validateDateOrder enforces end >= start at day precision.
func validateDateOrder(start time.Time, end *time.Time) error {
	if end == nil {
		return nil
	}
	if end.Before(start) {
		return NewAppErrorWithDetails(
			ErrCodeValidation,
			"end date precedes start date",
			nil,
			map[string]any{"EndDate": "gtefield"},
		)
	}
	return nil
}

// fieldError builds the single-field ValidationError shape used by the patch
// checks, matching what Validate produces for tagged rules.
func fieldError(field, rule, message string) *AppError {
	return NewAppErrorWithDetails(ErrCodeValidation, message, nil, map[string]any{field: rule})
}
