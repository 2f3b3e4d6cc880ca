package model

import "time"

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// ScrapeJob tracks one asynchronous scrape through its lifecycle.
// Mutated only by the executor that owns it; polled read-only by clients.
type ScrapeJob struct {
	ID          string           `json:"id"`
	URL         string           `json:"url"`
	Status      JobStatus        `json:"status"`
	Progress    int              `json:"progress"` // 0-100
	Message     string           `json:"message,omitempty"`
	Platform    Platform         `json:"platform,omitempty"`
	ScrapedData *WeddingRecord   `json:"scraped_data,omitempty"`
	PreviewData *Preview         `json:"preview_data,omitempty"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// ScrapeOutcome is what one successful pipeline run hands back: the mapped
// record plus the location of the archived bundle.
type ScrapeOutcome struct {
	Record   *WeddingRecord
	Platform Platform
	S3Bucket string
	S3Key    string
}

// ScrapeRequest is the message consumed from the intake topic.
type ScrapeRequest struct {
	URL   string `json:"url"`
	Force bool   `json:"force"`
}

// ResultTask is the message published downstream once a job reaches a
// terminal state. The full bundle lives in S3; consumers follow the key.
type ResultTask struct {
	JobID    string    `json:"job_id"`
	URL      string    `json:"url"`
	Platform Platform  `json:"platform,omitempty"`
	Status   JobStatus `json:"status"`
	S3Bucket string    `json:"s3_bucket,omitempty"`
	S3Key    string    `json:"s3_key,omitempty"`
	Error    string    `json:"error,omitempty"`
}
