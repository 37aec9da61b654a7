package models

// RunReport is the structured result of one batch sweep. It is built up
// monotonically while the run progresses (append-only details/errors,
// incrementing counters) and returned once; it is never persisted.
type RunReport struct {
	RunID            string      `json:"runId"`
	Timestamp        string      `json:"timestamp"`
	RecordsFound     int         `json:"recordsFound"`
	RecordsProcessed int         `json:"recordsProcessed"`
	SuccessCount     int         `json:"successCount"`
	ErrorCount       int         `json:"errorCount"`
	DurationMs       int64       `json:"durationMs"`
	Details          []RunDetail `json:"details"`
	Errors           []RunError  `json:"errors"`
}

// RunDetail is the per-record outcome, in record discovery order.
type RunDetail struct {
	RecordID        string `json:"recordId"`
	Email           string `json:"email"`
	User            string `json:"user"`
	OrderPackage    string `json:"orderPackage"`
	ImagesProcessed int    `json:"imagesProcessed"`
	Status          string `json:"status"`
	PromptUsed      string `json:"promptUsed"`
	DownloadLink    string `json:"downloadLink"`
}

// RunError carries enough context to retry a failure by hand. Type is only
// set for the fatal pre-flight case.
type RunError struct {
	RecordID string `json:"recordId,omitempty"`
	Email    string `json:"email,omitempty"`
	Image    string `json:"image,omitempty"`
	Error    string `json:"error"`
	Type     string `json:"type,omitempty"`
}
