package models

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// GeneratedImagesResponse is returned by the generation endpoint: one public
// URL per stored variation.
type GeneratedImagesResponse struct {
	Data []Attachment `json:"data"`
}

// StoredImage describes one object in a client's gallery listing.
type StoredImage struct {
	Key        string `json:"key"`
	URL        string `json:"url"`
	Filename   string `json:"filename"`
	Size       int64  `json:"size,omitempty"`
	Uploaded   string `json:"uploaded,omitempty"`
	UploadedAt int64  `json:"uploadedAt"`
}

type ListImagesResponse struct {
	Images         []StoredImage `json:"images"`
	Count          int           `json:"count"`
	FoldersChecked []string      `json:"foldersChecked"`
}

// TransformedRecord is the flattened record shape the review UI consumes.
type TransformedRecord struct {
	ID           string       `json:"id"`
	Prompt       string       `json:"prompt"`
	User         string       `json:"user"`
	Email        string       `json:"email"`
	TestImages   []Attachment `json:"imageUpload"`
	FinalImages  []Attachment `json:"imageUpload2"`
	Timestamp    string       `json:"timestamp"`
	OrderPackage string       `json:"orderPackage"`
}

// UploadImagesResponse confirms a direct upload: the stored attachments and
// the record they were written to.
type UploadImagesResponse struct {
	Record *Record      `json:"record"`
	Images []Attachment `json:"images"`
	Count  int          `json:"count"`
}

type FetchRecordsResponse struct {
	Records []TransformedRecord `json:"records"`
	Count   int                 `json:"count"`
}
