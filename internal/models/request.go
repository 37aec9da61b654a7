package models

// ProcessOverrides is the optional JSON body of a manual batch trigger.
// Unset fields fall back to process-wide configuration; a malformed body is
// treated as no overrides at all.
type ProcessOverrides struct {
	DefaultPrompt    *string `json:"defaultPrompt,omitempty"`
	UseDefaultPrompt *bool   `json:"useDefaultPrompt,omitempty"`
	ClientPrompt     *string `json:"clientPrompt,omitempty"`
	UseClientPrompt  *bool   `json:"useClientPrompt,omitempty"`
	VariationCount   *int    `json:"variationCount,omitempty"`
}

// ListImagesRequest selects a client's gallery. Folder is optional:
// "base" (direct uploads), "down" (generated outputs) or "all".
type ListImagesRequest struct {
	Email  string `json:"email"`
	Folder string `json:"folder,omitempty"`
}

// FetchRecordsRequest filters the record listing endpoint.
type FetchRecordsRequest struct {
	Email string `json:"email,omitempty"`
}
