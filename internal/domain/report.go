package domain

import "time"

// OutputReport describes one finished output file.
type OutputReport struct {
	RunID      string    `json:"run_id"`
	DataType   string    `json:"data_type"`
	Parameter  string    `json:"parameter"`
	Path       string    `json:"path"`
	Files      int       `json:"files"`
	Skipped    int       `json:"skipped"`
	Rows       int       `json:"rows"`
	FinishedAt time.Time `json:"finished_at"`
}
