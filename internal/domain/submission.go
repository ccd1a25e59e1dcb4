package domain

// MaxMediaBytes caps the combined size of files attached to a submission.
const MaxMediaBytes = 50 << 20

// MediaFile is a photo or video attached to a hazard submission.
type MediaFile struct {
	Name string
	Data []byte
}

// HazardSubmission is a hazard report filed through the report form.
type HazardSubmission struct {
	HazardType    string
	Severity      Severity
	Description   string
	Lat           float64
	Lng           float64
	ContactNumber string
	Urgent        bool
	Media         []MediaFile
}

// MediaSize returns the combined size of the attached files.
func (s HazardSubmission) MediaSize() int {
	n := 0
	for _, m := range s.Media {
		n += len(m.Data)
	}
	return n
}

// SubmissionResult is the backend's answer to a submission.
type SubmissionResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
	ReportID string `json:"report_id,omitempty"`
}
