package models

// RefreshResponse summarizes a triggered data refresh run.
type RefreshResponse struct {
	StartedAt Timestamp `json:"startedAt"`
	Duration  string    `json:"duration"`
	Full      bool      `json:"full"`
	Fetched   int       `json:"fetched"`
	Discarded int       `json:"discarded"`
	Duplicate int       `json:"duplicate"`
	Inserted  int       `json:"inserted"`
}
