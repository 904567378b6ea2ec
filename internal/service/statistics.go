package service

import "math"

// Statistics summarises the todo population at one point in time.
type Statistics struct {
	TotalCount            int     `json:"totalCount"`
	CompletedCount        int     `json:"completedCount"`
	PendingCount          int     `json:"pendingCount"`
	CompletionRatePercent float64 `json:"completionRatePercent"`
}

// completionRate returns completed/total as a percentage rounded half to even
// at two decimals, or 0 when there are no todos.
func completionRate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.RoundToEven(float64(completed)/float64(total)*100*100) / 100
}
