package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"orgdata/internal/types"
)

// EmployeeRepository provides data access for the employees table.
// Email uniqueness and the department foreign key are enforced by the
// store; violations surface as constraint errors naming the violated
// constraint.
type EmployeeRepository struct {
	exec *Executor
}

// NewEmployeeRepository creates an EmployeeRepository backed by the
// given database connection (pool or transaction).
func NewEmployeeRepository(db DBTX) *EmployeeRepository {
	return &EmployeeRepository{exec: NewExecutor(db)}
}

// employeeColumns is the column set selected for employee queries.
// scanEmployee depends on this order.
const employeeColumns = `id, name, email, salary, department_id`

// scanEmployee scans a single employee row. The columns must match the
// order defined in employeeColumns.
func scanEmployee(row pgx.Row) (*types.Employee, error) {
	var emp types.Employee
	if err := row.Scan(&emp.ID, &emp.Name, &emp.Email, &emp.Salary, &emp.DepartmentID); err != nil {
		return nil, err
	}
	return &emp, nil
}

// Insert persists a new employee and returns the stored record. A
// positive ID on the input is used as-is; a zero ID lets the store
// assign the next identity value. The record is validated before any
// statement runs.
func (r *EmployeeRepository) Insert(ctx context.Context, emp *types.Employee) (*types.Employee, error) {
	if err := types.ValidateEmployee(emp); err != nil {
		return nil, err
	}

	const op = "insert employee"
	var inserted *types.Employee
	scan := func(row pgx.Row) error {
		rec, err := scanEmployee(row)
		if err != nil {
			return err
		}
		inserted = rec
		return nil
	}

	var err error
	if emp.ID > 0 {
		err = r.exec.QueryRow(ctx, op,
			`INSERT INTO employees (id, name, email, salary, department_id)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING `+employeeColumns,
			[]any{emp.ID, emp.Name, emp.Email, emp.Salary, emp.DepartmentID}, scan)
	} else {
		err = r.exec.QueryRow(ctx, op,
			`INSERT INTO employees (name, email, salary, department_id)
			 VALUES ($1, $2, $3, $4)
			 RETURNING `+employeeColumns,
			[]any{emp.Name, emp.Email, emp.Salary, emp.DepartmentID}, scan)
	}
	if err != nil {
		return nil, translateErr(op, err)
	}
	return inserted, nil
}

// GetByID retrieves an employee by its ID.
func (r *EmployeeRepository) GetByID(ctx context.Context, id int64) (*types.Employee, error) {
	const op = "get employee"
	var emp *types.Employee
	err := r.exec.QueryRow(ctx, op,
		`SELECT `+employeeColumns+`
		 FROM employees
		 WHERE id = $1`,
		[]any{id},
		func(row pgx.Row) error {
			rec, scanErr := scanEmployee(row)
			if scanErr != nil {
				return scanErr
			}
			emp = rec
			return nil
		})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employeeNotFound(id)
		}
		return nil, err
	}
	return emp, nil
}

// buildEmployeeQuery assembles the filtered SELECT shared by List and
// Each. Unassigned selects employees without a department and wins
// over DepartmentID when both are set.
func buildEmployeeQuery(filter types.EmployeeFilter) (string, []any) {
	var conditions []string
	var args []any
	argIdx := 1

	switch {
	case filter.Unassigned:
		conditions = append(conditions, "department_id IS NULL")
	case filter.DepartmentID != nil:
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", argIdx))
		args = append(args, *filter.DepartmentID)
		argIdx++
	}
	if filter.Email != nil {
		conditions = append(conditions, fmt.Sprintf("email = $%d", argIdx))
		args = append(args, *filter.Email)
		argIdx++
	}

	query := `SELECT ` + employeeColumns + ` FROM employees`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filter.Limit)
		argIdx++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, filter.Offset)
	}
	return query, args
}

// List retrieves the employees matching the filter.
func (r *EmployeeRepository) List(ctx context.Context, filter types.EmployeeFilter) ([]*types.Employee, error) {
	var results []*types.Employee
	err := r.Each(ctx, filter, func(emp *types.Employee) error {
		results = append(results, emp)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Each streams the employees matching the filter through fn, one
// record at a time. Every call re-executes the query, so a fresh
// traversal observes current data. An error from fn aborts the
// traversal and is returned unchanged.
func (r *EmployeeRepository) Each(ctx context.Context, filter types.EmployeeFilter, fn func(*types.Employee) error) error {
	const op = "list employees"
	query, args := buildEmployeeQuery(filter)
	return r.exec.Query(ctx, op, query, args, func(rows pgx.Rows) error {
		emp, err := scanEmployee(rows)
		if err != nil {
			return translateScanErr(op, err)
		}
		return fn(emp)
	})
}

// Update applies a partial update and returns the stored record.
// Fields absent from the patch keep their current values; concurrent
// updates resolve last-write-wins. Setting DepartmentID to null
// detaches the employee from its department.
func (r *EmployeeRepository) Update(ctx context.Context, id int64, patch types.EmployeePatch) (*types.Employee, error) {
	if patch.IsZero() {
		return nil, types.NewAppError(types.ErrCodeValidation, "update patch has no fields", nil)
	}
	if err := types.ValidateEmployeePatch(patch); err != nil {
		return nil, err
	}

	var sets []string
	var args []any
	argIdx := 1

	if patch.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *patch.Name)
		argIdx++
	}
	if patch.Email != nil {
		sets = append(sets, fmt.Sprintf("email = $%d", argIdx))
		args = append(args, *patch.Email)
		argIdx++
	}
	if patch.Salary != nil {
		sets = append(sets, fmt.Sprintf("salary = $%d", argIdx))
		args = append(args, *patch.Salary)
		argIdx++
	}
	if patch.DepartmentID.Set {
		sets = append(sets, fmt.Sprintf("department_id = $%d", argIdx))
		args = append(args, patch.DepartmentID.Value)
		argIdx++
	}

	const op = "update employee"
	query := fmt.Sprintf(
		`UPDATE employees SET %s WHERE id = $%d RETURNING `+employeeColumns,
		strings.Join(sets, ", "), argIdx)
	args = append(args, id)

	var updated *types.Employee
	err := r.exec.QueryRow(ctx, op, query, args, func(row pgx.Row) error {
		rec, scanErr := scanEmployee(row)
		if scanErr != nil {
			return scanErr
		}
		updated = rec
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employeeNotFound(id)
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes an employee. If project records still reference it,
// the delete fails with a referential conflict naming the dependent
// type and count, and the row is left untouched.
func (r *EmployeeRepository) Delete(ctx context.Context, id int64) error {
	const op = "delete employee"
	affected, err := r.exec.Exec(ctx, op,
		`DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		if _, ok := asForeignKeyViolation(err); ok {
			return r.referentialConflict(ctx, id, err)
		}
		return err
	}
	if affected == 0 {
		return employeeNotFound(id)
	}
	return nil
}

// referentialConflict mirrors the department path: count when the
// connection can still answer, omit the count in an aborted
// transaction.
func (r *EmployeeRepository) referentialConflict(ctx context.Context, id int64, cause error) error {
	details := map[string]any{
		"entity":    "employee",
		"id":        id,
		"dependent": "project",
	}
	var count int64
	err := r.exec.QueryRow(ctx, "count employee dependents",
		`SELECT COUNT(*) FROM projects WHERE employee_id = $1`,
		[]any{id},
		func(row pgx.Row) error { return row.Scan(&count) })
	switch {
	case err == nil:
		details["count"] = count
	case !inAbortedTx(err):
		return err
	}
	return types.NewAppErrorWithDetails(types.ErrCodeReferential,
		"employee is still referenced by project records", cause, details)
}

func employeeNotFound(id int64) *types.AppError {
	return types.NewAppErrorWithDetails(types.ErrCodeNotFound,
		"employee not found", nil,
		map[string]any{"entity": "employee", "id": id})
}
