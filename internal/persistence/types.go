package persistence

import "time"

// DetectionRun records one classification pass over an export so it can be
// resumed after interruption.
type DetectionRun struct {
	ID          string    `json:"id"`
	Detector    string    `json:"detector"`
	ExportPath  string    `json:"export_path"`
	Model       string    `json:"model"`
	Seed        int64     `json:"seed"`
	SampleCount int       `json:"sample_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ResultRecord is one classified sample within a run. SampleKey is the
// sample's stable export key (video id + caption type).
type ResultRecord struct {
	RunID     string    `json:"run_id"`
	SampleKey string    `json:"sample_key"`
	Label     string    `json:"label"`
	Rationale string    `json:"rationale"`
	RawOutput string    `json:"raw_output"`
	UpdatedAt time.Time `json:"updated_at"`
}
