package domain

import (
	"encoding/json"
	"time"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusStarted    JobStatus = "started"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether a status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is a trackable handle for a long-running generation request. A job is
// created once, its progress never decreases, and it is never reused after
// reaching a terminal status.
type Job struct {
	ID           string
	AssetType    AssetType
	Prompt       string
	Status       JobStatus
	Progress     int
	ErrorMessage string
	ResultJSON   json.RawMessage
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
