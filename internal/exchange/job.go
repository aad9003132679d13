package exchange

import (
	"encoding/json"
	"time"
)

// Actions understood by the execution plane. Portal jobs are consumed by the
// browser automation worker, document jobs by the analysis worker.
const (
	ActionPortalRun            = "portal_run"
	ActionAnalyzeFirstPage     = "analyze_first_page_oc"
	ActionValidateRequirements = "validate_ocr_requirements"
	ActionAnalyzeContent       = "analyze_document_content"
)

// Job is the record written to the pending directory. It is immutable once
// enqueued; the ID is the only key the planes share.
type Job struct {
	ID          string          `json:"job_id"`
	Action      string          `json:"action"`
	FileName    string          `json:"file_name,omitempty"`
	OrderNumber string          `json:"oc_number,omitempty"`
	MimeType    string          `json:"mime_type,omitempty"`
	Prompt      string          `json:"prompt,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

// PortalRunRequest is the payload of a portal_run job.
type PortalRunRequest struct {
	Target         string   `json:"portal"`
	TaxID          string   `json:"ruc,omitempty"`
	User           string   `json:"user,omitempty"`
	Password       string   `json:"password,omitempty"`
	Periods        []string `json:"periods,omitempty"`
	DownloadFolder string   `json:"download_folder,omitempty"`
}

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Result is deposited in the processed directory once a job has been
// executed. Exactly one result corresponds to one job.
type Result struct {
	JobID       string                 `json:"job_id,omitempty"`
	Status      string                 `json:"job_status"`
	Error       string                 `json:"error,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
	ProcessedAt string                 `json:"processed_at,omitempty"`
}

func (r *Result) Completed() bool {
	return r.Status == StatusCompleted
}

func NewCompletedResult(jobID string, data map[string]interface{}) *Result {
	return &Result{
		JobID:       jobID,
		Status:      StatusCompleted,
		Data:        data,
		ProcessedAt: time.Now().Format(time.RFC3339),
	}
}

func NewFailedResult(jobID string, err error) *Result {
	return &Result{
		JobID:       jobID,
		Status:      StatusFailed,
		Error:       err.Error(),
		ProcessedAt: time.Now().Format(time.RFC3339),
	}
}
