package domain

import "time"

// JobStatus is the life-cycle state of an image job
type JobStatus string

const (
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobError      JobStatus = "error"
)

// Terminal reports whether no further transitions are allowed
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobError
}

// ImageJob tracks the asynchronous analysis of one uploaded image
type ImageJob struct {
	ID        string         `json:"job_id"`
	Status    JobStatus      `json:"status"`
	Progress  int            `json:"progress"`
	Filename  string         `json:"filename"`
	FieldID   string         `json:"field_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Result    *ImageAnalysis `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// ImageUpload is an accepted upload handed over by the web layer
type ImageUpload struct {
	Filename string
	FieldID  string
	Data     []byte
}
