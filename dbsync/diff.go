package dbsync

import (
	"fmt"
	"strings"
)

// TableDiff aggregates the per-bucket counts of diffing one table.
type TableDiff struct {
	InsertCount     int // keys present only in the source
	UpdateCount     int // keys in both sides with differing rows
	UnchangedCount  int // keys in both sides with equal rows
	TargetOnlyCount int // keys present only in the target (reported, never merged)
}

// Consistent reports whether the target already holds everything the source
// would merge into it.
func (d TableDiff) Consistent() bool {
	return d.InsertCount == 0 && d.UpdateCount == 0
}

// diffRows partitions two row sets, indexed by primary key, into
// insert/update/unchanged/target-only buckets. Duplicate keys within one
// side silently overwrite (last row wins); result sets keyed by a real
// primary key never produce them.
func diffRows(sourceRows, targetRows []Row, primaryKey string) TableDiff {
	sourceByKey := indexByKey(sourceRows, primaryKey)
	targetByKey := indexByKey(targetRows, primaryKey)

	var diff TableDiff
	for key, sourceRow := range sourceByKey {
		targetRow, ok := targetByKey[key]
		if !ok {
			diff.InsertCount++
			continue
		}
		if rowsEqual(sourceRow, targetRow) {
			diff.UnchangedCount++
		} else {
			diff.UpdateCount++
		}
	}
	for key := range targetByKey {
		if _, ok := sourceByKey[key]; !ok {
			diff.TargetOnlyCount++
		}
	}

	return diff
}

func indexByKey(rows []Row, primaryKey string) map[string]Row {
	byKey := make(map[string]Row, len(rows))
	for _, row := range rows {
		byKey[pkKey(row.Values[primaryKey])] = row
	}
	return byKey
}

// describeDiff renders the human-readable per-table summary.
func describeDiff(diff TableDiff) string {
	if diff.Consistent() {
		return "data consistent"
	}

	var parts []string
	if diff.InsertCount > 0 {
		parts = append(parts, fmt.Sprintf("%d rows missing", diff.InsertCount))
	}
	if diff.UpdateCount > 0 {
		parts = append(parts, fmt.Sprintf("%d rows need update", diff.UpdateCount))
	}
	return strings.Join(parts, ", ")
}
