package cache

import (
	"fmt"

	"github.com/google/uuid"
)

// ClaimKey identifies the lock on one row of one store.
func ClaimKey(storeID string, row int) string {
	return fmt.Sprintf("claim:%s:%d", storeID, row)
}

func RunReportKey(runID uuid.UUID) string {
	return fmt.Sprintf("run:%s", runID)
}

func LastRunKey() string {
	return "run:last"
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}
