package db

import (
	"github.com/persistorai/auditdesk/internal/db/migrations"
)

// SchemaVersion returns the number of embedded SQL migrations, which equals the
// schema version this binary expects. The readiness endpoint reports it.
func SchemaVersion() int {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return 0
	}

	count := 0
	for _, e := range entries {
		if !e.IsDir() {
			count++
		}
	}

	return count
}
