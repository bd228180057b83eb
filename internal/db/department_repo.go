package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"orgdata/internal/types"
)

// DepartmentRepository provides data access for the departments table.
type DepartmentRepository struct {
	exec *Executor
}

// NewDepartmentRepository creates a DepartmentRepository backed by the
// given database connection (pool or transaction).
func NewDepartmentRepository(db DBTX) *DepartmentRepository {
	return &DepartmentRepository{exec: NewExecutor(db)}
}

// departmentColumns is the column set selected for department queries.
// scanDepartment depends on this order.
const departmentColumns = `id, name, location`

// scanDepartment scans a single department row. The columns must match
// the order defined in departmentColumns.
func scanDepartment(row pgx.Row) (*types.Department, error) {
	var dept types.Department
	if err := row.Scan(&dept.ID, &dept.Name, &dept.Location); err != nil {
		return nil, err
	}
	return &dept, nil
}

// Insert persists a new department and returns the stored record. A
// positive ID on the input is used as-is; a zero ID lets the store
// assign the next identity value. The record is validated before any
// statement runs.
func (r *DepartmentRepository) Insert(ctx context.Context, dept *types.Department) (*types.Department, error) {
	if err := types.ValidateDepartment(dept); err != nil {
		return nil, err
	}

	const op = "insert department"
	var inserted *types.Department
	scan := func(row pgx.Row) error {
		rec, err := scanDepartment(row)
		if err != nil {
			return err
		}
		inserted = rec
		return nil
	}

	var err error
	if dept.ID > 0 {
		err = r.exec.QueryRow(ctx, op,
			`INSERT INTO departments (id, name, location)
			 VALUES ($1, $2, $3)
			 RETURNING `+departmentColumns,
			[]any{dept.ID, dept.Name, dept.Location}, scan)
	} else {
		err = r.exec.QueryRow(ctx, op,
			`INSERT INTO departments (name, location)
			 VALUES ($1, $2)
			 RETURNING `+departmentColumns,
			[]any{dept.Name, dept.Location}, scan)
	}
	if err != nil {
		return nil, translateErr(op, err)
	}
	return inserted, nil
}

// GetByID retrieves a department by its ID.
func (r *DepartmentRepository) GetByID(ctx context.Context, id int64) (*types.Department, error) {
	const op = "get department"
	var dept *types.Department
	err := r.exec.QueryRow(ctx, op,
		`SELECT `+departmentColumns+`
		 FROM departments
		 WHERE id = $1`,
		[]any{id},
		func(row pgx.Row) error {
			rec, scanErr := scanDepartment(row)
			if scanErr != nil {
				return scanErr
			}
			dept = rec
			return nil
		})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, departmentNotFound(id)
		}
		return nil, err
	}
	return dept, nil
}

// buildDepartmentQuery assembles the filtered SELECT shared by List
// and Each. Results are ordered by id so repeated runs of the same
// filter walk records in a stable order.
func buildDepartmentQuery(filter types.DepartmentFilter) (string, []any) {
	var conditions []string
	var args []any
	argIdx := 1

	if filter.Name != nil {
		conditions = append(conditions, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *filter.Name)
		argIdx++
	}
	if filter.Location != nil {
		conditions = append(conditions, fmt.Sprintf("location = $%d", argIdx))
		args = append(args, *filter.Location)
		argIdx++
	}

	query := `SELECT ` + departmentColumns + ` FROM departments`
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

// List retrieves the departments matching the filter.
func (r *DepartmentRepository) List(ctx context.Context, filter types.DepartmentFilter) ([]*types.Department, error) {
	var results []*types.Department
	err := r.Each(ctx, filter, func(dept *types.Department) error {
		results = append(results, dept)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Each streams the departments matching the filter through fn, one
// record at a time, without materializing the full result set. Every
// call re-executes the query, so a fresh traversal observes current
// data. An error from fn aborts the traversal and is returned
// unchanged.
func (r *DepartmentRepository) Each(ctx context.Context, filter types.DepartmentFilter, fn func(*types.Department) error) error {
	const op = "list departments"
	query, args := buildDepartmentQuery(filter)
	return r.exec.Query(ctx, op, query, args, func(rows pgx.Rows) error {
		dept, err := scanDepartment(rows)
		if err != nil {
			return translateScanErr(op, err)
		}
		return fn(dept)
	})
}

// Update applies a partial update and returns the stored record.
// Fields absent from the patch keep their current values; concurrent
// updates resolve last-write-wins. An empty patch is rejected before
// any statement runs.
func (r *DepartmentRepository) Update(ctx context.Context, id int64, patch types.DepartmentPatch) (*types.Department, error) {
	if patch.IsZero() {
		return nil, types.NewAppError(types.ErrCodeValidation, "update patch has no fields", nil)
	}
	if err := types.ValidateDepartmentPatch(patch); err != nil {
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
	if patch.Location.Set {
		sets = append(sets, fmt.Sprintf("location = $%d", argIdx))
		args = append(args, patch.Location.Value)
		argIdx++
	}

	const op = "update department"
	query := fmt.Sprintf(
		`UPDATE departments SET %s WHERE id = $%d RETURNING `+departmentColumns,
		strings.Join(sets, ", "), argIdx)
	args = append(args, id)

	var updated *types.Department
	err := r.exec.QueryRow(ctx, op, query, args, func(row pgx.Row) error {
		rec, scanErr := scanDepartment(row)
		if scanErr != nil {
			return scanErr
		}
		updated = rec
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, departmentNotFound(id)
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a department. If employee records still reference it,
// the delete fails with a referential conflict naming the dependent
// type and count, and the row is left untouched.
func (r *DepartmentRepository) Delete(ctx context.Context, id int64) error {
	const op = "delete department"
	affected, err := r.exec.Exec(ctx, op,
		`DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		if _, ok := asForeignKeyViolation(err); ok {
			return r.referentialConflict(ctx, id, err)
		}
		return err
	}
	if affected == 0 {
		return departmentNotFound(id)
	}
	return nil
}

// referentialConflict builds the blocked-delete error, counting the
// employees still referencing the department so the error can report
// what blocks the delete. Inside a transaction the failed DELETE has
// already aborted it and the server refuses the count query; the
// conflict is then reported without the count.
func (r *DepartmentRepository) referentialConflict(ctx context.Context, id int64, cause error) error {
	details := map[string]any{
		"entity":    "department",
		"id":        id,
		"dependent": "employee",
	}
	var count int64
	err := r.exec.QueryRow(ctx, "count department dependents",
		`SELECT COUNT(*) FROM employees WHERE department_id = $1`,
		[]any{id},
		func(row pgx.Row) error { return row.Scan(&count) })
	switch {
	case err == nil:
		details["count"] = count
	case !inAbortedTx(err):
		return err
	}
	return types.NewAppErrorWithDetails(types.ErrCodeReferential,
		"department is still referenced by employee records", cause, details)
}

func departmentNotFound(id int64) *types.AppError {
	return types.NewAppErrorWithDetails(types.ErrCodeNotFound,
		"department not found", nil,
		map[string]any{"entity": "department", "id": id})
}
