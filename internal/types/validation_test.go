package types

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validDepartment() *Department {
	loc := "Berlin"
	return &Department{ID: 10, Name: "Engineering", Location: &loc}
}

func validEmployee() *Employee {
	deptID := int64(10)
	return &Employee{ID: 100, Name: "A. Lee", Email: "a@x.com", Salary: 5000, DepartmentID: &deptID}
}

func validProject() *Project {
	empID := int64(100)
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	return &Project{
		ID:         1000,
		Name:       "Migration",
		StartDate:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    &end,
		EmployeeID: &empID,
	}
}

// requireValidationError asserts the error carries ErrCodeValidation and a
// detail entry for the named field.
func requireValidationError(t *testing.T, err error, field string) {
	t.Helper()
	if err == nil {
		t.Fatal("expected a validation error, got nil")
	}
	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}
	if appErr.Code != ErrCodeValidation {
		t.Fatalf("Code = %q, want %q", appErr.Code, ErrCodeValidation)
	}
	if _, ok := appErr.Details[field]; !ok {
		t.Errorf("Details missing entry for field %q: %v", field, appErr.Details)
	}
}

// TestValidateDepartment covers the department invariants.
func TestValidateDepartment(t *testing.T) {
	if err := ValidateDepartment(validDepartment()); err != nil {
		t.Fatalf("valid department rejected: %v", err)
	}

	t.Run("name required", func(t *testing.T) {
		d := validDepartment()
		d.Name = ""
		requireValidationError(t, ValidateDepartment(d), "Name")
	})

	t.Run("name too long", func(t *testing.T) {
		d := validDepartment()
		d.Name = strings.Repeat("x", MaxDepartmentNameLen+1)
		requireValidationError(t, ValidateDepartment(d), "Name")
	})

	t.Run("location too long", func(t *testing.T) {
		d := validDepartment()
		loc := strings.Repeat("x", MaxLocationLen+1)
		d.Location = &loc
		requireValidationError(t, ValidateDepartment(d), "Location")
	})

	t.Run("location optional", func(t *testing.T) {
		d := validDepartment()
		d.Location = nil
		if err := ValidateDepartment(d); err != nil {
			t.Errorf("nil location should be valid: %v", err)
		}
	})

	t.Run("negative id", func(t *testing.T) {
		d := validDepartment()
		d.ID = -1
		requireValidationError(t, ValidateDepartment(d), "ID")
	})

	t.Run("zero id means store-assigned", func(t *testing.T) {
		d := validDepartment()
		d.ID = 0
		if err := ValidateDepartment(d); err != nil {
			t.Errorf("zero id should be valid (store assigns): %v", err)
		}
	})
}

// TestValidateEmployee covers the employee invariants.
func TestValidateEmployee(t *testing.T) {
	if err := ValidateEmployee(validEmployee()); err != nil {
		t.Fatalf("valid employee rejected: %v", err)
	}

	t.Run("name required", func(t *testing.T) {
		e := validEmployee()
		e.Name = ""
		requireValidationError(t, ValidateEmployee(e), "Name")
	})

	t.Run("email required", func(t *testing.T) {
		e := validEmployee()
		e.Email = ""
		requireValidationError(t, ValidateEmployee(e), "Email")
	})

	t.Run("email format", func(t *testing.T) {
		e := validEmployee()
		e.Email = "not-an-email"
		requireValidationError(t, ValidateEmployee(e), "Email")
	})

	t.Run("salary must be positive", func(t *testing.T) {
		e := validEmployee()
		e.Salary = 0
		requireValidationError(t, ValidateEmployee(e), "Salary")

		e.Salary = -100
		requireValidationError(t, ValidateEmployee(e), "Salary")
	})

	t.Run("department optional", func(t *testing.T) {
		e := validEmployee()
		e.DepartmentID = nil
		if err := ValidateEmployee(e); err != nil {
			t.Errorf("nil department reference should be valid: %v", err)
		}
	})

	t.Run("department reference must be positive", func(t *testing.T) {
		e := validEmployee()
		bad := int64(0)
		e.DepartmentID = &bad
		requireValidationError(t, ValidateEmployee(e), "DepartmentID")
	})
}

// TestValidateProject covers the project invariants including date ordering.
func TestValidateProject(t *testing.T) {
	if err := ValidateProject(validProject()); err != nil {
		t.Fatalf("valid project rejected: %v", err)
	}

	t.Run("name required", func(t *testing.T) {
		p := validProject()
		p.Name = ""
		requireValidationError(t, ValidateProject(p), "Name")
	})

	t.Run("start date required", func(t *testing.T) {
		p := validProject()
		p.StartDate = time.Time{}
		requireValidationError(t, ValidateProject(p), "StartDate")
	})

	t.Run("end date before start", func(t *testing.T) {
		p := validProject()
		end := p.StartDate.AddDate(0, 0, -1)
		p.EndDate = &end
		requireValidationError(t, ValidateProject(p), "EndDate")
	})

	t.Run("end date equal to start", func(t *testing.T) {
		p := validProject()
		end := p.StartDate
		p.EndDate = &end
		if err := ValidateProject(p); err != nil {
			t.Errorf("end == start should be valid: %v", err)
		}
	})

	t.Run("open ended", func(t *testing.T) {
		p := validProject()
		p.EndDate = nil
		if err := ValidateProject(p); err != nil {
			t.Errorf("nil end date should be valid: %v", err)
		}
	})
}

// TestValidateDepartmentPatch covers partial-update checks.
func TestValidateDepartmentPatch(t *testing.T) {
	name := "Platform"
	if err := ValidateDepartmentPatch(DepartmentPatch{Name: &name}); err != nil {
		t.Fatalf("valid patch rejected: %v", err)
	}

	t.Run("empty name rejected", func(t *testing.T) {
		empty := ""
		requireValidationError(t, ValidateDepartmentPatch(DepartmentPatch{Name: &empty}), "Name")
	})

	t.Run("long location rejected", func(t *testing.T) {
		p := DepartmentPatch{Location: SetTo(strings.Repeat("x", MaxLocationLen+1))}
		requireValidationError(t, ValidateDepartmentPatch(p), "Location")
	})

	t.Run("clearing location allowed", func(t *testing.T) {
		p := DepartmentPatch{Location: SetNull[string]()}
		if err := ValidateDepartmentPatch(p); err != nil {
			t.Errorf("clearing location should be valid: %v", err)
		}
	})
}

// TestValidateEmployeePatch covers partial-update checks.
func TestValidateEmployeePatch(t *testing.T) {
	salary := 6000.0
	if err := ValidateEmployeePatch(EmployeePatch{Salary: &salary}); err != nil {
		t.Fatalf("valid patch rejected: %v", err)
	}

	t.Run("bad email rejected", func(t *testing.T) {
		bad := "nope"
		requireValidationError(t, ValidateEmployeePatch(EmployeePatch{Email: &bad}), "Email")
	})

	t.Run("non-positive salary rejected", func(t *testing.T) {
		zero := 0.0
		requireValidationError(t, ValidateEmployeePatch(EmployeePatch{Salary: &zero}), "Salary")
	})

	t.Run("detaching department allowed", func(t *testing.T) {
		p := EmployeePatch{DepartmentID: SetNull[int64]()}
		if err := ValidateEmployeePatch(p); err != nil {
			t.Errorf("detaching should be valid: %v", err)
		}
	})

	t.Run("zero department reference rejected", func(t *testing.T) {
		p := EmployeePatch{DepartmentID: SetTo(int64(0))}
		requireValidationError(t, ValidateEmployeePatch(p), "DepartmentID")
	})
}

// TestValidateProjectPatch covers partial-update checks.
func TestValidateProjectPatch(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("both dates supplied out of order", func(t *testing.T) {
		end := start.AddDate(0, 0, -5)
		p := ProjectPatch{StartDate: &start, EndDate: SetTo(end)}
		requireValidationError(t, ValidateProjectPatch(p), "EndDate")
	})

	t.Run("end alone is left to the store check", func(t *testing.T) {
		end := start.AddDate(0, 0, -5)
		p := ProjectPatch{EndDate: SetTo(end)}
		if err := ValidateProjectPatch(p); err != nil {
			t.Errorf("end-only patch cannot be checked client-side: %v", err)
		}
	})

	t.Run("clearing end date allowed", func(t *testing.T) {
		p := ProjectPatch{EndDate: SetNull[time.Time]()}
		if err := ValidateProjectPatch(p); err != nil {
			t.Errorf("clearing end date should be valid: %v", err)
		}
	})
}

// TestPatchLengthRulesCountRunes pins the length unit for patch checks:
// characters, matching the tagged insert rules and the varchar columns,
// so a maximum-length multibyte name survives a partial update.
func TestPatchLengthRulesCountRunes(t *testing.T) {
	t.Run("department name at the limit", func(t *testing.T) {
		name := strings.Repeat("ü", MaxDepartmentNameLen)
		if err := ValidateDepartmentPatch(DepartmentPatch{Name: &name}); err != nil {
			t.Fatalf("%d-rune name rejected: %v", MaxDepartmentNameLen, err)
		}
	})

	t.Run("department name one rune over", func(t *testing.T) {
		name := strings.Repeat("ü", MaxDepartmentNameLen+1)
		requireValidationError(t, ValidateDepartmentPatch(DepartmentPatch{Name: &name}), "Name")
	})

	t.Run("location at the limit", func(t *testing.T) {
		loc := strings.Repeat("é", MaxLocationLen)
		if err := ValidateDepartmentPatch(DepartmentPatch{Location: SetTo(loc)}); err != nil {
			t.Fatalf("%d-rune location rejected: %v", MaxLocationLen, err)
		}
	})

	t.Run("employee name at the limit", func(t *testing.T) {
		name := strings.Repeat("名", MaxPersonNameLen)
		if err := ValidateEmployeePatch(EmployeePatch{Name: &name}); err != nil {
			t.Fatalf("%d-rune name rejected: %v", MaxPersonNameLen, err)
		}
	})

	t.Run("project name one rune over", func(t *testing.T) {
		name := strings.Repeat("プ", MaxProjectNameLen+1)
		requireValidationError(t, ValidateProjectPatch(ProjectPatch{Name: &name}), "Name")
	})
}

// TestPatchIsZero verifies empty-patch detection for all three entities.
func TestPatchIsZero(t *testing.T) {
	if !(DepartmentPatch{}).IsZero() {
		t.Error("empty DepartmentPatch should be zero")
	}
	if !(EmployeePatch{}).IsZero() {
		t.Error("empty EmployeePatch should be zero")
	}
	if !(ProjectPatch{}).IsZero() {
		t.Error("empty ProjectPatch should be zero")
	}

	name := "x"
	if (DepartmentPatch{Name: &name}).IsZero() {
		t.Error("patch with a name should not be zero")
	}
	if (EmployeePatch{DepartmentID: SetNull[int64]()}).IsZero() {
		t.Error("patch clearing the department should not be zero")
	}
	if (ProjectPatch{EndDate: SetNull[time.Time]()}).IsZero() {
		t.Error("patch clearing the end date should not be zero")
	}
}

// TestNullableHelpers verifies the tri-state constructors.
func TestNullableHelpers(t *testing.T) {
	set := SetTo("Berlin")
	if !set.Set || set.Value == nil || *set.Value != "Berlin" {
		t.Errorf("SetTo produced %+v", set)
	}

	cleared := SetNull[string]()
	if !cleared.Set || cleared.Value != nil {
		t.Errorf("SetNull produced %+v", cleared)
	}

	var untouched Nullable[string]
	if untouched.Set {
		t.Error("zero Nullable must not be marked as set")
	}
}
