package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"orgdata/internal/types"
)

// ProjectRepository provides data access for the projects table. Dates
// are stored as day-precision date columns; the store enforces that a
// project cannot end before it starts.
type ProjectRepository struct {
	exec *Executor
}

// NewProjectRepository creates a ProjectRepository backed by the given
// database connection (pool or transaction).
func NewProjectRepository(db DBTX) *ProjectRepository {
	return &ProjectRepository{exec: NewExecutor(db)}
}

// projectColumns is the column set selected for project queries.
// scanProject depends on this order.
const projectColumns = `id, name, start_date, end_date, employee_id`

// scanProject scans a single project row. The columns must match the
// order defined in projectColumns.
func scanProject(row pgx.Row) (*types.Project, error) {
	var proj types.Project
	if err := row.Scan(&proj.ID, &proj.Name, &proj.StartDate, &proj.EndDate, &proj.EmployeeID); err != nil {
		return nil, err
	}
	return &proj, nil
}

// Insert persists a new project and returns the stored record. A
// positive ID on the input is used as-is; a zero ID lets the store
// assign the next identity value. The record is validated before any
// statement runs.
func (r *ProjectRepository) Insert(ctx context.Context, proj *types.Project) (*types.Project, error) {
	if err := types.ValidateProject(proj); err != nil {
		return nil, err
	}

	const op = "insert project"
	var inserted *types.Project
	scan := func(row pgx.Row) error {
		rec, err := scanProject(row)
		if err != nil {
			return err
		}
		inserted = rec
		return nil
	}

	var err error
	if proj.ID > 0 {
		err = r.exec.QueryRow(ctx, op,
			`INSERT INTO projects (id, name, start_date, end_date, employee_id)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING `+projectColumns,
			[]any{proj.ID, proj.Name, proj.StartDate, proj.EndDate, proj.EmployeeID}, scan)
	} else {
		err = r.exec.QueryRow(ctx, op,
			`INSERT INTO projects (name, start_date, end_date, employee_id)
			 VALUES ($1, $2, $3, $4)
			 RETURNING `+projectColumns,
			[]any{proj.Name, proj.StartDate, proj.EndDate, proj.EmployeeID}, scan)
	}
	if err != nil {
		return nil, translateErr(op, err)
	}
	return inserted, nil
}

// GetByID retrieves a project by its ID.
func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*types.Project, error) {
	const op = "get project"
	var proj *types.Project
	err := r.exec.QueryRow(ctx, op,
		`SELECT `+projectColumns+`
		 FROM projects
		 WHERE id = $1`,
		[]any{id},
		func(row pgx.Row) error {
			rec, scanErr := scanProject(row)
			if scanErr != nil {
				return scanErr
			}
			proj = rec
			return nil
		})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, projectNotFound(id)
		}
		return nil, err
	}
	return proj, nil
}

// buildProjectQuery assembles the filtered SELECT shared by List and
// Each. ActiveOn selects projects whose date range covers the given
// day; open-ended projects count as active from their start date on.
// Unassigned selects projects without an employee and wins over
// EmployeeID when both are set.
func buildProjectQuery(filter types.ProjectFilter) (string, []any) {
	var conditions []string
	var args []any
	argIdx := 1

	switch {
	case filter.Unassigned:
		conditions = append(conditions, "employee_id IS NULL")
	case filter.EmployeeID != nil:
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.ActiveOn != nil {
		conditions = append(conditions,
			fmt.Sprintf("start_date <= $%d AND (end_date IS NULL OR end_date >= $%d)", argIdx, argIdx+1))
		args = append(args, *filter.ActiveOn, *filter.ActiveOn)
		argIdx += 2
	}

	query := `SELECT ` + projectColumns + ` FROM projects`
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

// List retrieves the projects matching the filter.
func (r *ProjectRepository) List(ctx context.Context, filter types.ProjectFilter) ([]*types.Project, error) {
	var results []*types.Project
	err := r.Each(ctx, filter, func(proj *types.Project) error {
		results = append(results, proj)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Each streams the projects matching the filter through fn, one record
// at a time. Every call re-executes the query, so a fresh traversal
// observes current data. An error from fn aborts the traversal and is
// returned unchanged.
func (r *ProjectRepository) Each(ctx context.Context, filter types.ProjectFilter, fn func(*types.Project) error) error {
	const op = "list projects"
	query, args := buildProjectQuery(filter)
	return r.exec.Query(ctx, op, query, args, func(rows pgx.Rows) error {
		proj, err := scanProject(rows)
		if err != nil {
			return translateScanErr(op, err)
		}
		return fn(proj)
	})
}

// Update applies a partial update and returns the stored record.
// Fields absent from the patch keep their current values; concurrent
// updates resolve last-write-wins. Clearing EndDate reopens the
// project; clearing EmployeeID detaches it. When only one date moves,
// the store's check constraint still guards the date order.
func (r *ProjectRepository) Update(ctx context.Context, id int64, patch types.ProjectPatch) (*types.Project, error) {
	if patch.IsZero() {
		return nil, types.NewAppError(types.ErrCodeValidation, "update patch has no fields", nil)
	}
	if err := types.ValidateProjectPatch(patch); err != nil {
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
	if patch.StartDate != nil {
		sets = append(sets, fmt.Sprintf("start_date = $%d", argIdx))
		args = append(args, *patch.StartDate)
		argIdx++
	}
	if patch.EndDate.Set {
		sets = append(sets, fmt.Sprintf("end_date = $%d", argIdx))
		args = append(args, patch.EndDate.Value)
		argIdx++
	}
	if patch.EmployeeID.Set {
		sets = append(sets, fmt.Sprintf("employee_id = $%d", argIdx))
		args = append(args, patch.EmployeeID.Value)
		argIdx++
	}

	const op = "update project"
	query := fmt.Sprintf(
		`UPDATE projects SET %s WHERE id = $%d RETURNING `+projectColumns,
		strings.Join(sets, ", "), argIdx)
	args = append(args, id)

	var updated *types.Project
	err := r.exec.QueryRow(ctx, op, query, args, func(row pgx.Row) error {
		rec, scanErr := scanProject(row)
		if scanErr != nil {
			return scanErr
		}
		updated = rec
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, projectNotFound(id)
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a project. Nothing references projects, so this never
// raises a referential conflict.
func (r *ProjectRepository) Delete(ctx context.Context, id int64) error {
	const op = "delete project"
	affected, err := r.exec.Exec(ctx, op,
		`DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return projectNotFound(id)
	}
	return nil
}

func projectNotFound(id int64) *types.AppError {
	return types.NewAppErrorWithDetails(types.ErrCodeNotFound,
		"project not found", nil,
		map[string]any{"entity": "project", "id": id})
}
