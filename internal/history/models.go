package history

import "time"

// Entry is one finished job: printed, dropped after retries, or rejected at
// the request boundary.
type Entry struct {
	ID           int64     `json:"id"`
	JobID        string    `json:"job_id"`
	PackageID    string    `json:"package_id"`
	InmateID     string    `json:"inmate_id"`
	Outcome      string    `json:"outcome"`
	Attempts     int       `json:"attempts"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type Filter struct {
	Outcome string
	Limit   int
	Offset  int
}

type Stats struct {
	TodayPrinted  int64 `json:"today_printed"`
	TodayDropped  int64 `json:"today_dropped"`
	TodayRejected int64 `json:"today_rejected"`
	TotalPrinted  int64 `json:"total_printed"`
	TotalDropped  int64 `json:"total_dropped"`
	TotalRejected int64 `json:"total_rejected"`
}
