// Package dbsync compares and one-way merges data between two PostgreSQL
// databases over a rolling time window. The merge is strictly directional:
// source rows overwrite target rows, target-only rows are never touched.
//
// Processing is sequential and non-transactional across rows and tables; a
// failure partway through a table leaves it partially migrated, and each
// table is an independent unit of failure. Concurrent migrate requests
// against overlapping tables are not coordinated and can produce
// duplicate-key failures. Both are accepted limitations of this design.
package dbsync

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TableRule configures how a single table is keyed and windowed.
type TableRule struct {
	PrimaryKey string // column used to correlate rows across databases
	TimeColumn string // column the rolling window is applied to; empty disables windowing
}

// ServiceConfig holds configuration for the sync service.
type ServiceConfig struct {
	AppName    string               // application name for logging
	Schema     string               // database schema holding the synced tables (default "public")
	WindowDays int                  // rolling window size in days (default 30)
	TableRules map[string]TableRule // per-table overrides; unlisted tables use defaults
}

// SyncService compares and merges data between the two configured databases.
// Pools are explicit per handle; there is no routing indirection to restore
// on exit.
type SyncService struct {
	master *pgxpool.Pool
	backup *pgxpool.Pool
	logger *slog.Logger
	config *ServiceConfig

	introspector *SchemaIntrospector
}

// NewSyncService creates a sync service from two existing pools.
func NewSyncService(master, backup *pgxpool.Pool, config *ServiceConfig, logger *slog.Logger) (*SyncService, error) {
	if master == nil || backup == nil {
		return nil, fmt.Errorf("both master and backup pools are required")
	}
	if config == nil {
		config = &ServiceConfig{}
	}
	if config.Schema == "" {
		config.Schema = "public"
	}
	if config.WindowDays <= 0 {
		config.WindowDays = DefaultWindowDays
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SyncService{
		master:       master,
		backup:       backup,
		logger:       logger,
		config:       config,
		introspector: NewSchemaIntrospector(config.Schema, logger),
	}, nil
}

// resolvePool maps a handle to its connection pool.
func (s *SyncService) resolvePool(handle string) (*pgxpool.Pool, error) {
	switch handle {
	case HandleMaster:
		return s.master, nil
	case HandleBackup:
		return s.backup, nil
	default:
		return nil, fmt.Errorf("%w: unknown handle %q", ErrInvalidHandle, handle)
	}
}

// TimeWindow is the [Start, End] interval scoping eligible source rows.
// It is recomputed per request and never persisted.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

func newTimeWindow(days int) TimeWindow {
	end := time.Now()
	return TimeWindow{Start: end.AddDate(0, 0, -days), End: end}
}

// String formats the window for timeRange response fields.
func (w TimeWindow) String() string {
	return w.Start.Format(timeRangeLayout) + " ~ " + w.End.Format(timeRangeLayout)
}

// ruleFor returns the table's configured rule, falling back to explicit
// defaults rather than inferring from the table name.
func (s *SyncService) ruleFor(table string) TableRule {
	if rule, ok := s.config.TableRules[table]; ok {
		if rule.PrimaryKey == "" {
			rule.PrimaryKey = DefaultPrimaryKey
		}
		return rule
	}
	return TableRule{PrimaryKey: DefaultPrimaryKey, TimeColumn: DefaultTimeColumn}
}

// Compare diffs the common tables of both databases under the rolling window
// and reports per-table insert/update counts. A single table's failure is
// reported inline; only a failed table enumeration aborts the report.
func (s *SyncService) Compare(ctx context.Context, from, to string) (*CompareResponse, error) {
	if err := validateHandles(from, to); err != nil {
		return nil, err
	}

	source, err := s.resolvePool(from)
	if err != nil {
		return nil, err
	}
	target, err := s.resolvePool(to)
	if err != nil {
		return nil, err
	}

	window := newTimeWindow(s.config.WindowDays)

	tables, err := s.commonTables(ctx, source, target)
	if err != nil {
		return nil, fmt.Errorf("list common tables: %w", err)
	}

	diffs := make(map[string]TableDiffReport, len(tables))
	consistent := 0
	for _, table := range tables {
		diff, err := s.compareTable(ctx, source, target, table, window)
		if err != nil {
			s.logger.Error("Table comparison failed", "table", table, "error", err)
			diffs[table] = TableDiffReport{
				Consistent:  false,
				Description: fmt.Sprintf("comparison failed: %v", err),
			}
			continue
		}
		diffs[table] = diff
		if diff.Consistent {
			consistent++
		}
	}

	return &CompareResponse{
		Success:            true,
		TimeRange:          window.String(),
		TotalTables:        len(tables),
		ConsistentTables:   consistent,
		InconsistentTables: len(tables) - consistent,
		TableDifferences:   diffs,
	}, nil
}

// Migrate merges every source table into the target. Tables missing on the
// target are still attempted; their SQL failures land in failedTables.
// Failures never abort the remaining tables.
func (s *SyncService) Migrate(ctx context.Context, from, to string) (*MigrateResponse, error) {
	if err := validateHandles(from, to); err != nil {
		return nil, err
	}

	source, err := s.resolvePool(from)
	if err != nil {
		return nil, err
	}
	target, err := s.resolvePool(to)
	if err != nil {
		return nil, err
	}

	window := newTimeWindow(s.config.WindowDays)

	tables, err := s.introspector.Tables(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("list source tables: %w", err)
	}

	migrated := make([]string, 0, len(tables))
	failed := make([]string, 0)
	for _, table := range tables {
		inserted, updated, err := s.mergeTable(ctx, source, target, table, window)
		if err != nil {
			s.logger.Error("Table migration failed", "table", table, "error", err)
			failed = append(failed, fmt.Sprintf("%s: %v", table, err))
			continue
		}
		s.logger.Info("Table merged", "table", table, "inserted", inserted, "updated", updated)
		migrated = append(migrated, table)
	}

	return &MigrateResponse{
		Success:        true,
		MigratedTables: migrated,
		FailedTables:   failed,
		TotalTables:    len(tables),
		SuccessCount:   len(migrated),
		FailedCount:    len(failed),
		TimeRange:      window.String(),
	}, nil
}

// commonTables returns the sorted intersection of both sides' table lists.
func (s *SyncService) commonTables(ctx context.Context, source, target *pgxpool.Pool) ([]string, error) {
	fromTables, err := s.introspector.Tables(ctx, source)
	if err != nil {
		return nil, err
	}
	toTables, err := s.introspector.Tables(ctx, target)
	if err != nil {
		return nil, err
	}

	toSet := make(map[string]struct{}, len(toTables))
	for _, t := range toTables {
		toSet[t] = struct{}{}
	}

	var common []string
	for _, t := range fromTables {
		if _, ok := toSet[t]; ok {
			common = append(common, t)
		}
	}
	sort.Strings(common)
	return common, nil
}
