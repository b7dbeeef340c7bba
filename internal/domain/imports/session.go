package imports

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseParsing   Phase = "parsing"
	PhaseParsed    Phase = "parsed"
	PhaseUploading Phase = "uploading"
	PhaseComplete  Phase = "complete"
)

type FileFormat string

const (
	FormatCSV  FileFormat = "csv"
	FormatXLSX FileFormat = "xlsx"
)

type FileMeta struct {
	Name   string     `json:"name"`
	Size   int64      `json:"size"`
	Format FileFormat `json:"format"`
}

type Options struct {
	SkipExisting    bool   `json:"skip_existing"`
	DefaultPassword string `json:"default_password,omitempty"`
}

type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeError   OutcomeStatus = "error"
)

type UploadOutcome struct {
	Email   string        `json:"email"`
	Name    string        `json:"name"`
	Status  OutcomeStatus `json:"status"`
	Message string        `json:"message"`
}

type Progress struct {
	Processed int             `json:"processed"`
	Total     int             `json:"total"`
	Successes []UploadOutcome `json:"successes"`
	Errors    []UploadOutcome `json:"errors"`
	Skipped   []UploadOutcome `json:"skipped"`
}

// Record appends the outcome to its bucket and advances the processed count,
// keeping processed == len(successes)+len(errors)+len(skipped).
func (p *Progress) Record(outcome UploadOutcome) {
	switch outcome.Status {
	case OutcomeSuccess:
		p.Successes = append(p.Successes, outcome)
	case OutcomeSkipped:
		p.Skipped = append(p.Skipped, outcome)
	default:
		p.Errors = append(p.Errors, outcome)
	}
	p.Processed++
}

// SessionSnapshot is the whole durable state of one import attempt. It is
// always read and written as a unit, by a single writer.
type SessionSnapshot struct {
	Phase    Phase        `json:"phase"`
	File     FileMeta     `json:"file"`
	Records  []UserRecord `json:"records"`
	Progress Progress     `json:"progress"`
	Options  Options      `json:"options"`
}

// Resumable reports whether a loaded snapshot represents an attempt the
// admin should pick back up instead of starting fresh.
func (s SessionSnapshot) Resumable() bool {
	return s.Phase != PhaseIdle
}

type Cohort struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	OrganizationName string `json:"organization_name"`
}
