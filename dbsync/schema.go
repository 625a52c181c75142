package dbsync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SchemaIntrospector lists tables and insertable columns of one schema
// through information_schema, for whichever database pool it is handed.
type SchemaIntrospector struct {
	schema string
	logger *slog.Logger
}

// NewSchemaIntrospector creates an introspector scoped to the given schema.
func NewSchemaIntrospector(schema string, logger *slog.Logger) *SchemaIntrospector {
	return &SchemaIntrospector{
		schema: schema,
		logger: logger,
	}
}

// Tables returns the base tables of the configured schema, sorted by name.
func (si *SchemaIntrospector) Tables(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = @schema
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := pool.Query(ctx, q, pgx.NamedArgs{"schema": si.schema})
	if err != nil {
		return nil, fmt.Errorf("query tables of schema %s: %w", si.schema, err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables of schema %s: %w", si.schema, err)
	}

	return tables, nil
}

// TableColumns returns the ordered column names of a table, excluding
// generated columns (those with a non-empty generation expression), which
// cannot be written to and must not appear in generated INSERT/UPDATE SQL.
func (si *SchemaIntrospector) TableColumns(ctx context.Context, pool *pgxpool.Pool, table string) ([]string, error) {
	const q = `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = @schema
		  AND table_name = @table
		  AND (generation_expression IS NULL OR generation_expression = '')
		ORDER BY ordinal_position`

	rows, err := pool.Query(ctx, q, pgx.NamedArgs{
		"schema": si.schema,
		"table":  table,
	})
	if err != nil {
		return nil, fmt.Errorf("query columns of %s: %w", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column name: %w", err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns of %s: %w", table, err)
	}

	si.logger.Debug("Introspected table columns", "table", table, "columns", columns)
	return columns, nil
}

// filterColumns drops metadata columns that are absent from an actual sample
// row. Schema metadata and result sets can drift apart (columns added to the
// schema but not yet populated, driver-reported phantom columns); only
// columns present in real data are safe to bind.
func (si *SchemaIntrospector) filterColumns(table string, columns []string, sample Row) []string {
	if sample.Values == nil {
		return columns
	}

	valid := make([]string, 0, len(columns))
	for _, col := range columns {
		if _, ok := sample.Values[col]; ok {
			valid = append(valid, col)
		}
	}

	if len(valid) != len(columns) {
		si.logger.Warn("Table metadata disagrees with result set, using result set columns",
			"table", table,
			"metadata_columns", columns,
			"data_columns", sample.Columns)
	}

	return valid
}
