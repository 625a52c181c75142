package dbsync

// Data source handles recognized by the sync API. Exactly two databases
// participate: the primary ("master") and its replica target ("backup").
const (
	HandleMaster = "master"
	HandleBackup = "backup"
)

// Defaults applied to tables without an explicit rule.
const (
	DefaultPrimaryKey = "id"
	DefaultTimeColumn = "update_time"
)

// DefaultWindowDays is the rolling window used to scope which source rows
// are eligible for comparison or migration.
const DefaultWindowDays = 30

// timeRangeLayout is the format used for timeRange strings in responses.
const timeRangeLayout = "2006-01-02 15:04:05"
