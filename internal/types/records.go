package types

import "time"

// Department is an organizational unit employees may belong to.
// The identifier is immutable after creation; patches carry no id field.
type Department struct {
	ID       int64   `json:"id" validate:"gte=0"`
	Name     string  `json:"name" validate:"required,max=50"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=50"`
}

// Employee belongs to at most one Department. Email is unique across all
// employees; salary must be positive.
type Employee struct {
	ID           int64   `json:"id" validate:"gte=0"`
	Name         string  `json:"name" validate:"required,max=100"`
	Email        string  `json:"email" validate:"required,email,max=255"`
	Salary       float64 `json:"salary" validate:"gt=0"`
	DepartmentID *int64  `json:"department_id,omitempty" validate:"omitempty,gt=0"`
}

// Project is optionally assigned to one Employee. EndDate, when present,
// must not precede StartDate; the cross-field rule is checked in
// ValidateProject rather than by struct tag.
type Project struct {
	ID         int64      `json:"id" validate:"gte=0"`
	Name       string     `json:"name" validate:"required,max=100"`
	StartDate  time.Time  `json:"start_date" validate:"required"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	EmployeeID *int64     `json:"employee_id,omitempty" validate:"omitempty,gt=0"`
}

// Nullable is a tri-state update marker for columns that allow NULL.
// Set false leaves the column untouched; Set true writes Value, with a nil
// Value clearing the column to NULL. A plain pointer cannot express the
// difference between "not supplied" and "clear it", so patches use this.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// SetTo returns a Nullable that writes the given value.
func SetTo[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// SetNull returns a Nullable that clears the column to NULL.
func SetNull[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// DepartmentPatch describes a partial update. Nil pointer fields are left
// unchanged; Location uses Nullable so it can be cleared.
type DepartmentPatch struct {
	Name     *string
	Location Nullable[string]
}

// IsZero reports whether the patch changes nothing.
func (p DepartmentPatch) IsZero() bool {
	return p.Name == nil && !p.Location.Set
}

// EmployeePatch describes a partial update to an Employee. DepartmentID uses
// Nullable so an employee can be detached from their department, which is
// the escape hatch for deleting a still-referenced Department.
type EmployeePatch struct {
	Name         *string
	Email        *string
	Salary       *float64
	DepartmentID Nullable[int64]
}

// IsZero reports whether the patch changes nothing.
func (p EmployeePatch) IsZero() bool {
	return p.Name == nil && p.Email == nil && p.Salary == nil && !p.DepartmentID.Set
}

// ProjectPatch describes a partial update to a Project.
type ProjectPatch struct {
	Name       *string
	StartDate  *time.Time
	EndDate    Nullable[time.Time]
	EmployeeID Nullable[int64]
}

// IsZero reports whether the patch changes nothing.
func (p ProjectPatch) IsZero() bool {
	return p.Name == nil && p.StartDate == nil && !p.EndDate.Set && !p.EmployeeID.Set
}

// DepartmentFilter narrows a department listing. Nil fields are ignored.
// Limit <= 0 means no limit; results are ordered by id ascending so repeated
// listings are stable.
type DepartmentFilter struct {
	Name     *string
	Location *string
	Limit    int
	Offset   int
}

// EmployeeFilter narrows an employee listing. DepartmentID filters by
// assignment; Unassigned selects employees with no department and takes
// precedence when both are supplied.
type EmployeeFilter struct {
	DepartmentID *int64
	Unassigned   bool
	Email        *string
	Limit        int
	Offset       int
}

// ProjectFilter narrows a project listing. ActiveOn selects projects whose
// date range covers the given day (open-ended projects count).
type ProjectFilter struct {
	EmployeeID *int64
	Unassigned bool
	ActiveOn   *time.Time
	Limit      int
	Offset     int
}
