package dbsync

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// compareTable diffs one table between source and target. Both sides are
// read under the SAME window: comparison should only evaluate what a merge
// would actually move, not pre-existing unrelated target state.
func (s *SyncService) compareTable(ctx context.Context, source, target *pgxpool.Pool, table string, window TimeWindow) (TableDiffReport, error) {
	if !isValidTableName(table) {
		return TableDiffReport{}, fmt.Errorf("invalid table name %q", table)
	}

	rule := s.ruleFor(table)
	selectSQL, args := s.buildWindowedSelect(table, rule, window)

	sourceRows, err := queryRows(ctx, source, selectSQL, args...)
	if err != nil {
		return TableDiffReport{}, fmt.Errorf("read source rows of %s: %w", table, err)
	}
	targetRows, err := queryRows(ctx, target, selectSQL, args...)
	if err != nil {
		return TableDiffReport{}, fmt.Errorf("read target rows of %s: %w", table, err)
	}

	diff := diffRows(sourceRows, targetRows, rule.PrimaryKey)
	return TableDiffReport{
		Consistent:  diff.Consistent(),
		InsertCount: diff.InsertCount,
		UpdateCount: diff.UpdateCount,
		Description: describeDiff(diff),
	}, nil
}

// mergeTable applies one table's window of source rows onto the target:
// UPDATE where the primary key already exists, INSERT otherwise. The target
// side is read WITHOUT the window because a source row updated inside the
// window may correspond to a target row created far outside it; the key
// lookup must cover the full key space.
//
// Rows are written one by one outside any transaction. A failure leaves the
// table partially migrated.
func (s *SyncService) mergeTable(ctx context.Context, source, target *pgxpool.Pool, table string, window TimeWindow) (inserted, updated int, err error) {
	if !isValidTableName(table) {
		return 0, 0, fmt.Errorf("invalid table name %q", table)
	}

	rule := s.ruleFor(table)
	selectSQL, args := s.buildWindowedSelect(table, rule, window)

	sourceRows, err := queryRows(ctx, source, selectSQL, args...)
	if err != nil {
		return 0, 0, fmt.Errorf("read source rows of %s: %w", table, err)
	}
	if len(sourceRows) == 0 {
		s.logger.Info("No rows to migrate", "table", table)
		return 0, 0, nil
	}

	targetRows, err := queryRows(ctx, target, "SELECT * FROM "+s.qualifiedTable(table))
	if err != nil {
		return 0, 0, fmt.Errorf("read target rows of %s: %w", table, err)
	}

	columns, err := s.introspector.TableColumns(ctx, source, table)
	if err != nil {
		return 0, 0, fmt.Errorf("introspect %s: %w", table, err)
	}
	columns = s.introspector.filterColumns(table, columns, sourceRows[0])
	if len(columns) == 0 {
		return 0, 0, fmt.Errorf("no writable columns for %s", table)
	}

	insertSQL := s.buildInsertSQL(table, columns)
	updateSQL := s.buildUpdateSQL(table, columns, rule.PrimaryKey)

	targetKeys := make(map[string]struct{}, len(targetRows))
	for _, row := range targetRows {
		targetKeys[pkKey(row.Values[rule.PrimaryKey])] = struct{}{}
	}

	for _, row := range sourceRows {
		pkValue := row.Values[rule.PrimaryKey]

		if _, exists := targetKeys[pkKey(pkValue)]; exists {
			args := make([]any, 0, len(columns))
			for _, col := range columns {
				if col == rule.PrimaryKey {
					continue
				}
				args = append(args, normalizeValue(s.logger, row.Values[col]))
			}
			args = append(args, normalizeValue(s.logger, pkValue))

			if _, err := target.Exec(ctx, updateSQL, args...); err != nil {
				return inserted, updated, fmt.Errorf("update %s row %v: %w", table, pkValue, err)
			}
			updated++
		} else {
			args := make([]any, 0, len(columns))
			for _, col := range columns {
				args = append(args, normalizeValue(s.logger, row.Values[col]))
			}

			if _, err := target.Exec(ctx, insertSQL, args...); err != nil {
				return inserted, updated, fmt.Errorf("insert %s row %v: %w", table, pkValue, err)
			}
			inserted++
		}
	}

	return inserted, updated, nil
}

// buildWindowedSelect builds the window-scoped SELECT for a table. Tables
// whose rule has no time column are read unrestricted.
func (s *SyncService) buildWindowedSelect(table string, rule TableRule, window TimeWindow) (string, []any) {
	base := "SELECT * FROM " + s.qualifiedTable(table)
	if rule.TimeColumn == "" {
		s.logger.Warn("Table has no time column configured, using all rows", "table", table)
		return base, nil
	}

	col := pgx.Identifier{rule.TimeColumn}.Sanitize()
	return base + " WHERE " + col + " >= $1 AND " + col + " <= $2",
		[]any{window.Start, window.End}
}

func (s *SyncService) buildInsertSQL(table string, columns []string) string {
	idents := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		idents[i] = pgx.Identifier{col}.Sanitize()
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.qualifiedTable(table),
		strings.Join(idents, ", "),
		strings.Join(placeholders, ", "))
}

func (s *SyncService) buildUpdateSQL(table string, columns []string, primaryKey string) string {
	var assignments []string
	n := 0
	for _, col := range columns {
		if col == primaryKey {
			continue
		}
		n++
		assignments = append(assignments, fmt.Sprintf("%s = $%d", pgx.Identifier{col}.Sanitize(), n))
	}

	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		s.qualifiedTable(table),
		strings.Join(assignments, ", "),
		pgx.Identifier{primaryKey}.Sanitize(),
		n+1)
}

func (s *SyncService) qualifiedTable(table string) string {
	return pgx.Identifier{s.config.Schema, table}.Sanitize()
}
