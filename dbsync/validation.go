package dbsync

import (
	"errors"
	"fmt"
)

// ErrInvalidHandle marks request validation failures so HTTP handlers can map
// them to a 400 response instead of an internal error.
var ErrInvalidHandle = errors.New("invalid_handle")

// validateHandles checks that from and to are recognized handles and differ.
// No database access happens before this check passes.
func validateHandles(from, to string) error {
	if !isValidHandle(from) || !isValidHandle(to) {
		return fmt.Errorf("%w: from and to must be %q or %q", ErrInvalidHandle, HandleMaster, HandleBackup)
	}
	if from == to {
		return fmt.Errorf("%w: from and to must not be the same", ErrInvalidHandle)
	}
	return nil
}

func isValidHandle(handle string) bool {
	return handle == HandleMaster || handle == HandleBackup
}

// isValidTableName checks if a table name matches ^[a-z0-9_]+$. Table names
// are interpolated into generated SQL, so anything else is rejected outright.
func isValidTableName(name string) bool {
	if len(name) == 0 {
		return false
	}
	for _, r := range name {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_') {
			return false
		}
	}
	return true
}
