package dbsync

import (
	"bytes"
	"reflect"
	"regexp"
	"strings"
	"time"
)

// timestampTolerance is how far apart two timestamp values may be and still
// count as equal. Backend timestamp types round-trip with sub-second jitter
// between the two databases.
const timestampTolerance = time.Second

var fractionalSeconds = regexp.MustCompile(`\.\d+`)

// rowsEqual reports whether two rows hold the same data. Columns whose name
// suggests a timestamp are compared with tolerance; everything else is exact.
// This is an approximate equality, not a total order.
func rowsEqual(a, b Row) bool {
	if len(a.Values) != len(b.Values) {
		return false
	}

	for col, av := range a.Values {
		bv, ok := b.Values[col]
		if !ok {
			return false
		}
		if av == nil && bv == nil {
			continue
		}
		if av == nil || bv == nil {
			return false
		}

		if isTimestampColumn(col) {
			if !timestampEqual(av, bv) {
				return false
			}
		} else if !valueEqual(av, bv) {
			return false
		}
	}

	return true
}

// isTimestampColumn matches the naming convention of timestamp-bearing
// columns (created_time, update_date, sync_timestamp, ...).
func isTimestampColumn(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "time") ||
		strings.Contains(lower, "date") ||
		strings.Contains(lower, "timestamp")
}

// timestampEqual compares two timestamp values with sub-second tolerance.
// String-encoded timestamps are compared after stripping fractional seconds.
// Values that cannot be interpreted as timestamps fall back to exact equality.
func timestampEqual(a, b any) bool {
	at, aok := a.(time.Time)
	bt, bok := b.(time.Time)
	if aok && bok {
		d := at.Sub(bt)
		if d < 0 {
			d = -d
		}
		return d < timestampTolerance
	}

	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return fractionalSeconds.ReplaceAllString(as, "") == fractionalSeconds.ReplaceAllString(bs, "")
	}

	return valueEqual(a, b)
}

// valueEqual is exact equality over the dynamic value types a scanned row
// can hold.
func valueEqual(a, b any) bool {
	switch av := a.(type) {
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	}
	return reflect.DeepEqual(a, b)
}
