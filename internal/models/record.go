package models

// Attachment is a pointer into the object store as Airtable represents it.
// The same attachment may be referenced by multiple generation attempts.
type Attachment struct {
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
}

// RecordFields mirrors the Airtable table columns. Only fields that are set
// are sent on create/patch, so everything is omitempty.
type RecordFields struct {
	Prompt       string       `json:"Prompt,omitempty"`
	User         string       `json:"User,omitempty"`
	Email        string       `json:"Email,omitempty"`
	TestImages   []Attachment `json:"Image_Upload,omitempty"`
	FinalImages  []Attachment `json:"Image_Upload2,omitempty"`
	Image        []Attachment `json:"Image,omitempty"`
	Timestamp    string       `json:"Timestamp,omitempty"`
	OrderPackage string       `json:"Order_Package,omitempty"`
	DownloadLink string       `json:"Download_Link,omitempty"`
}

// Record is one order row in the external store.
type Record struct {
	ID          string       `json:"id"`
	CreatedTime string       `json:"createdTime,omitempty"`
	Fields      RecordFields `json:"fields"`
}

// RecordState is derived structurally from the two image fields each time it
// is queried; there is no stored status column.
type RecordState int

const (
	// StateNew means no images have been uploaded yet.
	StateNew RecordState = iota
	// StatePending means test images exist but final images do not. Further
	// test uploads are blocked until the cycle completes.
	StatePending
	// StateComplete means final images exist, regardless of test images.
	StateComplete
)

func (s RecordState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateComplete:
		return "complete"
	default:
		return "new"
	}
}

// State computes the record's lifecycle state from field emptiness.
func (r *Record) State() RecordState {
	if len(r.Fields.FinalImages) > 0 {
		return StateComplete
	}
	if len(r.Fields.TestImages) > 0 {
		return StatePending
	}
	return StateNew
}

// AllImages unions the test-tier and final-tier attachments in field order.
// The batch sweep regenerates from both lists.
func (r *Record) AllImages() []Attachment {
	all := make([]Attachment, 0, len(r.Fields.TestImages)+len(r.Fields.FinalImages))
	all = append(all, r.Fields.TestImages...)
	all = append(all, r.Fields.FinalImages...)
	return all
}
