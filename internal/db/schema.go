package db

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"orgdata/internal/types"
)

// tableSpec declares the expected shape of one table: every column the
// repositories reference and the Postgres data type it maps from.
type tableSpec struct {
	name    string
	columns map[string]string
}

// expectedSchema is the schema contract the repositories are written
// against. ValidateSchema checks the live database against it at
// startup so mapping drift surfaces immediately instead of failing one
// scan at a time.
var expectedSchema = []tableSpec{
	{
		name: "departments",
		columns: map[string]string{
			"id":       "bigint",
			"name":     "character varying",
			"location": "character varying",
		},
	},
	{
		name: "employees",
		columns: map[string]string{
			"id":            "bigint",
			"name":          "character varying",
			"email":         "character varying",
			"salary":        "numeric",
			"department_id": "bigint",
		},
	},
	{
		name: "projects",
		columns: map[string]string{
			"id":          "bigint",
			"name":        "character varying",
			"start_date":  "date",
			"end_date":    "date",
			"employee_id": "bigint",
		},
	},
}

// ValidateSchema compares the live schema with expectedSchema, probing
// the tables concurrently. It returns a mapping error listing every
// missing table, missing column, and type mismatch found; connection
// failures while probing are returned as-is.
func ValidateSchema(ctx context.Context, db DBTX, log zerolog.Logger) error {
	exec := NewExecutor(db)

	var mu sync.Mutex
	var problems []string

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(len(expectedSchema))

	for _, spec := range expectedSchema {
		g.Go(func() error {
			found, err := fetchColumns(gCtx, exec, spec.name)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			if len(found) == 0 {
				problems = append(problems, fmt.Sprintf("table %s does not exist", spec.name))
				return nil
			}
			for col, wantType := range spec.columns {
				gotType, ok := found[col]
				if !ok {
					problems = append(problems, fmt.Sprintf("%s.%s is missing", spec.name, col))
					continue
				}
				if gotType != wantType {
					problems = append(problems, fmt.Sprintf("%s.%s has type %s, want %s", spec.name, col, gotType, wantType))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return types.NewAppErrorWithDetails(types.ErrCodeMapping,
			"store schema does not match the declared mapping", nil,
			map[string]any{"problems": problems})
	}

	log.Debug().Int("tables", len(expectedSchema)).Msg("schema mapping validated")
	return nil
}

func fetchColumns(ctx context.Context, exec *Executor, table string) (map[string]string, error) {
	found := make(map[string]string)
	err := exec.Query(ctx, "validate schema",
		`SELECT column_name, data_type
		 FROM information_schema.columns
		 WHERE table_schema = current_schema() AND table_name = $1`,
		[]any{table},
		func(rows pgx.Rows) error {
			var name, dataType string
			if err := rows.Scan(&name, &dataType); err != nil {
				return translateScanErr("validate schema", err)
			}
			found[name] = dataType
			return nil
		})
	if err != nil {
		return nil, err
	}
	return found, nil
}
