package dbsync

// REST/JSON models for the sync HTTP API.

// TableDiffReport is the per-table entry of a compare response. Tables whose
// comparison failed carry the error text as description.
type TableDiffReport struct {
	Consistent  bool   `json:"consistent"`
	InsertCount int    `json:"insertCount"`
	UpdateCount int    `json:"updateCount"`
	Description string `json:"description"`
}

// CompareResponse is the response body of GET /compare.
type CompareResponse struct {
	Success            bool                       `json:"success"`
	Error              string                     `json:"error,omitempty"`
	TimeRange          string                     `json:"timeRange,omitempty"`
	TotalTables        int                        `json:"totalTables"`
	ConsistentTables   int                        `json:"consistentTables"`
	InconsistentTables int                        `json:"inconsistentTables"`
	TableDifferences   map[string]TableDiffReport `json:"tableDifferences,omitempty"`
}

// MigrateResponse is the response body of GET /migrate. failedTables entries
// have the form "table: error text"; successCount and failedCount always
// partition totalTables.
type MigrateResponse struct {
	Success        bool     `json:"success"`
	Error          string   `json:"error,omitempty"`
	MigratedTables []string `json:"migratedTables"`
	FailedTables   []string `json:"failedTables"`
	TotalTables    int      `json:"totalTables"`
	SuccessCount   int      `json:"successCount"`
	FailedCount    int      `json:"failedCount"`
	TimeRange      string   `json:"timeRange,omitempty"`
}
