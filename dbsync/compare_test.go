package dbsync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func row(values map[string]any) Row {
	columns := make([]string, 0, len(values))
	for col := range values {
		columns = append(columns, col)
	}
	return Row{Columns: columns, Values: values}
}

func TestRowsEqual_TimestampTolerance(t *testing.T) {
	base := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		delta time.Duration
		equal bool
	}{
		{"identical", 0, true},
		{"just under tolerance", 999 * time.Millisecond, true},
		{"negative under tolerance", -999 * time.Millisecond, true},
		{"exactly one second", time.Second, false},
		{"well over tolerance", 5 * time.Second, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := row(map[string]any{"id": int64(1), "name": "a", "created_time": base})
			b := row(map[string]any{"id": int64(1), "name": "a", "created_time": base.Add(tc.delta)})
			assert.Equal(t, tc.equal, rowsEqual(a, b))
		})
	}
}

func TestRowsEqual_StringTimestamps(t *testing.T) {
	a := row(map[string]any{"update_time": "2025-03-14 10:00:00.123"})
	b := row(map[string]any{"update_time": "2025-03-14 10:00:00.987654"})
	assert.True(t, rowsEqual(a, b), "fractional seconds must be ignored")

	c := row(map[string]any{"update_time": "2025-03-14 10:00:01.123"})
	assert.False(t, rowsEqual(a, c), "whole-second difference must not be ignored")
}

func TestRowsEqual_Nulls(t *testing.T) {
	assert.True(t, rowsEqual(
		row(map[string]any{"id": int64(1), "note": nil}),
		row(map[string]any{"id": int64(1), "note": nil}),
	))

	assert.False(t, rowsEqual(
		row(map[string]any{"id": int64(1), "note": nil}),
		row(map[string]any{"id": int64(1), "note": "x"}),
	))
	assert.False(t, rowsEqual(
		row(map[string]any{"id": int64(1), "note": "x"}),
		row(map[string]any{"id": int64(1), "note": nil}),
	))
}

func TestRowsEqual_ColumnCountMismatch(t *testing.T) {
	a := row(map[string]any{"id": int64(1)})
	b := row(map[string]any{"id": int64(1), "extra": "x"})
	assert.False(t, rowsEqual(a, b))
}

func TestRowsEqual_ExactColumns(t *testing.T) {
	a := row(map[string]any{"id": int64(1), "payload": []byte{0x01, 0x02}})
	b := row(map[string]any{"id": int64(1), "payload": []byte{0x01, 0x02}})
	assert.True(t, rowsEqual(a, b))

	c := row(map[string]any{"id": int64(1), "payload": []byte{0x01, 0x03}})
	assert.False(t, rowsEqual(a, c))
}

func TestIsTimestampColumn(t *testing.T) {
	for _, name := range []string{"created_time", "update_time", "birth_date", "sync_timestamp", "DATETIME"} {
		assert.True(t, isTimestampColumn(name), name)
	}
	for _, name := range []string{"id", "name", "amount", "status"} {
		assert.False(t, isTimestampColumn(name), name)
	}
}

func TestTimestampEqual_MixedRepresentations(t *testing.T) {
	// One side time.Time, other side string: falls back to exact equality,
	// which cannot match across types.
	ts := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	assert.False(t, timestampEqual(ts, "2025-03-14 10:00:00"))
}
