package dbsync

import (
	"context"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Row is one table row: column names in result-set order plus a mapping to
// dynamically typed values (nil, int64, float64, string, []byte, time.Time,
// or whatever else the driver produced).
type Row struct {
	Columns []string
	Values  map[string]any
}

// queryRows runs a SELECT and materializes every row into a Row.
func queryRows(ctx context.Context, pool *pgxpool.Pool, sql string, args ...any) ([]Row, error) {
	rows, err := pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	var result []Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row values: %w", err)
		}
		m := make(map[string]any, len(columns))
		for i, col := range columns {
			m[col] = values[i]
		}
		result = append(result, Row{Columns: columns, Values: m})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// normalizeValue prepares a scanned value for binding against the other
// database. Driver-specific carrier types (anything implementing
// driver.Valuer, e.g. numeric or interval wrappers) are materialized into
// plain Go values; conversion failures degrade to passing the raw value
// through with a warning, never to a fatal error.
func normalizeValue(logger *slog.Logger, value any) any {
	switch v := value.(type) {
	case nil, string, []byte, int64, int32, int16, float64, float32, bool, time.Time:
		return v
	}

	if valuer, ok := value.(driver.Valuer); ok {
		converted, err := valuer.Value()
		if err != nil {
			logger.Warn("Value conversion failed, passing raw value through",
				"type", fmt.Sprintf("%T", value), "error", err)
			return value
		}
		return converted
	}

	return value
}

// pkKey converts a primary key value into a map key. Byte slices are not
// comparable, and the same logical key can scan as different widths on the
// two sides, so everything is reduced to a string form.
func pkKey(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", v)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return fmt.Sprintf("%g", v)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("%v", v)
	}
}
