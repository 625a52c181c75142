package dbsync

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *SyncService {
	t.Helper()
	return &SyncService{
		logger: slog.Default(),
		config: &ServiceConfig{
			Schema:     "public",
			WindowDays: DefaultWindowDays,
			TableRules: map[string]TableRule{
				"task":   {PrimaryKey: "id", TimeColumn: "created_time"},
				"no_win": {PrimaryKey: "code"},
			},
		},
		introspector: NewSchemaIntrospector("public", slog.Default()),
	}
}

func TestBuildInsertSQL(t *testing.T) {
	s := newTestService(t)

	sql := s.buildInsertSQL("task", []string{"id", "name", "created_time"})

	assert.Equal(t,
		`INSERT INTO "public"."task" ("id", "name", "created_time") VALUES ($1, $2, $3)`,
		sql)
}

func TestBuildUpdateSQL(t *testing.T) {
	s := newTestService(t)

	sql := s.buildUpdateSQL("task", []string{"id", "name", "created_time"}, "id")

	assert.Equal(t,
		`UPDATE "public"."task" SET "name" = $1, "created_time" = $2 WHERE "id" = $3`,
		sql)
}

func TestBuildWindowedSelect(t *testing.T) {
	s := newTestService(t)
	window := TimeWindow{
		Start: time.Date(2025, 2, 12, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
	}

	sql, args := s.buildWindowedSelect("task", s.ruleFor("task"), window)
	assert.Equal(t, `SELECT * FROM "public"."task" WHERE "created_time" >= $1 AND "created_time" <= $2`, sql)
	require.Len(t, args, 2)
	assert.Equal(t, window.Start, args[0])
	assert.Equal(t, window.End, args[1])

	// Tables with no time column are read unrestricted.
	sql, args = s.buildWindowedSelect("no_win", s.ruleFor("no_win"), window)
	assert.Equal(t, `SELECT * FROM "public"."no_win"`, sql)
	assert.Empty(t, args)
}

func TestRuleFor_Defaults(t *testing.T) {
	s := newTestService(t)

	rule := s.ruleFor("task")
	assert.Equal(t, "id", rule.PrimaryKey)
	assert.Equal(t, "created_time", rule.TimeColumn)

	// Unlisted tables fall back to explicit defaults.
	rule = s.ruleFor("unknown_table")
	assert.Equal(t, DefaultPrimaryKey, rule.PrimaryKey)
	assert.Equal(t, DefaultTimeColumn, rule.TimeColumn)

	// A rule without a primary key still defaults it.
	rule = s.ruleFor("no_win")
	assert.Equal(t, "code", rule.PrimaryKey)
	assert.Equal(t, "", rule.TimeColumn)
}

func TestTimeWindowString(t *testing.T) {
	w := TimeWindow{
		Start: time.Date(2025, 2, 12, 10, 4, 5, 0, time.UTC),
		End:   time.Date(2025, 3, 14, 10, 4, 5, 0, time.UTC),
	}
	assert.Equal(t, "2025-02-12 10:04:05 ~ 2025-03-14 10:04:05", w.String())
}

func TestNewTimeWindow(t *testing.T) {
	w := newTimeWindow(30)
	span := w.End.Sub(w.Start)
	// AddDate applies calendar days; the span must be close to 30 days.
	assert.InDelta(t, (30 * 24 * time.Hour).Hours(), span.Hours(), 25)
	assert.True(t, w.End.After(w.Start))
}
